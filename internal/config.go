package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file
const (
	EnvShowMetadata  = "CHATMSG_SHOW_METADATA"
	EnvSigningSecret = "CHATMSG_SIGNING_SECRET"
	EnvSignerBaseURL = "CHATMSG_SIGNER_BASE_URL"
	EnvS3Bucket      = "CHATMSG_S3_BUCKET"
	EnvAddr          = "CHATMSG_ADDR"
	EnvHistoryPath   = "CHATMSG_HISTORY"
)

// Signer providers
const (
	SignerProviderHMAC = "hmac"
	SignerProviderS3   = "s3"
)

// Config is the file-backed configuration
type Config struct {
	Render        RenderConfiguration `yaml:"render"`
	Signer        SignerConfig        `yaml:"signer"`
	Server        ServerConfig        `yaml:"server"`
	History       HistoryConfig       `yaml:"history"`
	Notifications NotificationConfig  `yaml:"notifications"`
}

// SignerConfig selects and configures the attachment URL signer
type SignerConfig struct {
	Provider string        `yaml:"provider"`
	Expiry   time.Duration `yaml:"expiry"`

	// hmac
	BaseURL string `yaml:"base_url"`
	Secret  string `yaml:"secret"`

	// s3
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// ServerConfig configures the HTTP service
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	FilesDir string `yaml:"files_dir"`
}

// HistoryConfig points at the chat history database
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// NotificationConfig controls confirmation banners
type NotificationConfig struct {
	Dismiss time.Duration `yaml:"dismiss"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		Signer: SignerConfig{
			Provider: SignerProviderHMAC,
			Expiry:   DefaultSignedURLExpiry,
			BaseURL:  "http://localhost:8089",
		},
		Server: ServerConfig{
			Addr:     ":8089",
			FilesDir: "files",
		},
		Notifications: NotificationConfig{
			Dismiss: DefaultConfirmationTTL,
		},
	}
}

// DefaultConfigPath returns ~/.chat-message/config.yaml
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".chat-message", "config.yaml"), nil
}

// LoadConfig reads path (a missing file yields defaults), loads .env files and
// applies environment overrides
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			LogDebug("Config file %s not found, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	loadDotEnv(envFiles...)
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			LogWarn("Failed to load %s: %v", f, err)
		}
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvShowMetadata); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvShowMetadata, err)
		}
		c.Render.ShowMetadata = b
	}
	if v := os.Getenv(EnvSigningSecret); v != "" {
		c.Signer.Secret = v
	}
	if v := os.Getenv(EnvSignerBaseURL); v != "" {
		c.Signer.BaseURL = v
	}
	if v := os.Getenv(EnvS3Bucket); v != "" {
		c.Signer.Bucket = v
		c.Signer.Provider = SignerProviderS3
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvHistoryPath); v != "" {
		c.History.Path = v
	}
	return nil
}

// NewSigner builds the configured signer, instrumented with metrics
func NewSigner(ctx context.Context, cfg SignerConfig) (Signer, error) {
	switch cfg.Provider {
	case "", SignerProviderHMAC:
		s, err := NewHMACSigner(cfg.BaseURL, []byte(cfg.Secret), cfg.Expiry)
		if err != nil {
			return nil, err
		}
		return InstrumentSigner(s), nil
	case SignerProviderS3:
		s, err := NewS3Signer(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return InstrumentSigner(s), nil
	default:
		return nil, fmt.Errorf("unsupported signer provider: %s (supported: hmac, s3)", cfg.Provider)
	}
}
