package internal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestShowProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
		fn      func() error
		wantErr bool
	}{
		{
			name:    "successful function",
			message: "Testing",
			fn: func() error {
				return nil
			},
			wantErr: false,
		},
		{
			name:    "function with error",
			message: "Testing error",
			fn: func() error {
				return errors.New("test error")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, tt.message, tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShowSpinner(t *testing.T) {
	var buf bytes.Buffer
	err := showSpinner(context.Background(), &buf, "Resolving", func() error {
		time.Sleep(150 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("showSpinner() error = %v", err)
	}
	if !strings.Contains(buf.String(), "✓") || !strings.Contains(buf.String(), "Resolving") {
		t.Errorf("showSpinner() output = %q, want success mark and message", buf.String())
	}
}

func TestShowSpinner_Error(t *testing.T) {
	var buf bytes.Buffer
	wantErr := errors.New("boom")
	err := showSpinner(context.Background(), &buf, "Resolving", func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("showSpinner() error = %v, want %v", err, wantErr)
	}
	if !strings.Contains(buf.String(), "✗") {
		t.Errorf("showSpinner() output = %q, want failure mark", buf.String())
	}
}

func TestShowSpinner_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	err := showSpinner(ctx, &buf, "Testing", func() error {
		time.Sleep(500 * time.Millisecond)
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("showSpinner() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestIsTerminal(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("isTerminal(buffer) = true, want false")
	}
}

func TestPrintNotification(t *testing.T) {
	tests := []struct {
		name string
		n    Notification
		want string
	}{
		{
			name: "success",
			n:    Notification{Kind: NotificationSuccess, Message: CopiedMessage},
			want: "success: Copied to clipboard\n",
		},
		{
			name: "error",
			n:    Notification{Kind: NotificationError, Message: "Could not copy"},
			want: "error: Could not copy\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintNotification(&buf, tt.n)
			if buf.String() != tt.want {
				t.Errorf("PrintNotification() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
