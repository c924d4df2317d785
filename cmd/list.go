package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var listLimit int

var (
	listHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	listIDStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat sessions in the history database",
	Long:  `List chat sessions, newest first, with their message counts.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		history, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer history.Close()

		sessions, err := history.ListSessions()
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found")
			return nil
		}
		if listLimit > 0 && listLimit < len(sessions) {
			sessions = sessions[:listLimit]
		}

		fmt.Fprintln(out, listHeaderStyle.Render(fmt.Sprintf("Sessions (%d)", len(sessions))))
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tMESSAGES\tCREATED")
		for _, s := range sessions {
			created := "-"
			if !s.CreatedAt.IsZero() {
				created = humanize.Time(s.CreatedAt)
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", listIDStyle.Render(s.ID), truncate(s.Title, 50), s.MessageCount, created)
		}
		return tw.Flush()
	},
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Limit number of sessions to list")
}
