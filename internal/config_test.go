package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, env := range []string{EnvShowMetadata, EnvSigningSecret, EnvSignerBaseURL, EnvS3Bucket, EnvAddr, EnvHistoryPath} {
		t.Setenv(env, "")
	}

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	want := DefaultConfig()
	if cfg.Signer.Provider != want.Signer.Provider || cfg.Server.Addr != want.Server.Addr || cfg.Signer.Expiry != DefaultSignedURLExpiry {
		t.Errorf("LoadConfig() = %+v, want defaults", cfg)
	}
	if cfg.Render.ShowMetadata {
		t.Error("ShowMetadata should default to false")
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
render:
  show_metadata: true
signer:
  provider: hmac
  expiry: 2m
  base_url: http://files.example.com
server:
  addr: ":9000"
history:
  path: /tmp/chat.db
notifications:
  dismiss: 5s
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("CHATMSG_SIGNING_SECRET=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvSigningSecret, "")
	os.Unsetenv(EnvSigningSecret)
	t.Setenv(EnvAddr, ":9100")
	t.Setenv(EnvShowMetadata, "")
	t.Setenv(EnvS3Bucket, "")

	cfg, err := LoadConfig(path, envFile)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !cfg.Render.ShowMetadata {
		t.Error("Render.ShowMetadata = false, want true from file")
	}
	if cfg.Signer.Expiry != 2*time.Minute || cfg.Signer.BaseURL != "http://files.example.com" {
		t.Errorf("Signer = %+v", cfg.Signer)
	}
	if cfg.Signer.Secret != "from-dotenv" {
		t.Errorf("Signer.Secret = %q, want value from .env", cfg.Signer.Secret)
	}
	if cfg.Server.Addr != ":9100" {
		t.Errorf("Server.Addr = %q, want env override", cfg.Server.Addr)
	}
	if cfg.History.Path != "/tmp/chat.db" || cfg.Notifications.Dismiss != 5*time.Second {
		t.Errorf("History/Notifications = %+v / %+v", cfg.History, cfg.Notifications)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("render: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad, filepath.Join(dir, "none.env")); err == nil {
		t.Error("LoadConfig() with invalid YAML should fail")
	}

	t.Setenv(EnvShowMetadata, "maybe")
	if _, err := LoadConfig("", filepath.Join(dir, "none.env")); err == nil {
		t.Error("LoadConfig() with invalid boolean env should fail")
	}
}

func TestLoadConfig_S3BucketSelectsProvider(t *testing.T) {
	t.Setenv(EnvS3Bucket, "attachments")
	cfg, err := LoadConfig("", filepath.Join(t.TempDir(), "none.env"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Signer.Provider != SignerProviderS3 || cfg.Signer.Bucket != "attachments" {
		t.Errorf("Signer = %+v, want s3 provider", cfg.Signer)
	}
}

func TestNewSigner(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SignerConfig
		wantErr bool
	}{
		{name: "hmac", cfg: SignerConfig{Provider: SignerProviderHMAC, BaseURL: "http://x", Secret: "s"}},
		{name: "default provider", cfg: SignerConfig{BaseURL: "http://x", Secret: "s"}},
		{name: "hmac without secret", cfg: SignerConfig{Provider: SignerProviderHMAC, BaseURL: "http://x"}, wantErr: true},
		{name: "unknown", cfg: SignerConfig{Provider: "gcs"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSigner(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSigner() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && s == nil {
				t.Error("NewSigner() returned nil signer")
			}
		})
	}
}
