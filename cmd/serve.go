package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/chat-message/internal"
	"github.com/iksnae/chat-message/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr     string
	serveFilesDir string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rendered messages over HTTP",
	Long: `Serve sessions from the history database as HTML and JSON.

Endpoints:
  GET /sessions                                  Session list (JSON)
  GET /sessions/{id}                             Rendered session (HTML)
  GET /sessions/{id}/messages/{mid}              Rendered message (?format=html|json|md|yaml)
  GET /sessions/{id}/messages/{mid}/download     Raw content as ` + internal.DownloadFilename + `
  GET /files/{key}?expires=..&signature=..       Signed attachment (hmac signer only)
  GET /metrics                                   Prometheus metrics
  GET /healthz                                   Health check`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if serveFilesDir != "" {
			cfg.Server.FilesDir = serveFilesDir
		}

		history, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer history.Close()

		ctx := context.Background()
		opts := server.Options{
			Source:   history,
			FilesDir: cfg.Server.FilesDir,
			Render:   cfg.Render,
		}
		if signer, err := internal.NewSigner(ctx, cfg.Signer); err != nil {
			internal.LogWarn("Attachments disabled: %v", err)
		} else {
			opts.Signer = signer
		}
		if cfg.Signer.Provider == "" || cfg.Signer.Provider == internal.SignerProviderHMAC {
			if verifier, err := internal.NewHMACSigner(cfg.Signer.BaseURL, []byte(cfg.Signer.Secret), cfg.Signer.Expiry); err == nil {
				opts.Verifier = verifier
			}
		}

		srv := server.New(opts)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe(cfg.Server.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case sig := <-sigCh:
			internal.LogInfo("Received %s, shutting down", sig)
			return srv.Shutdown()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8089)")
	serveCmd.Flags().StringVar(&serveFilesDir, "files-dir", "", "Directory served under /files/")
}
