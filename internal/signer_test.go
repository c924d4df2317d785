package internal

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

func newTestHMACSigner(t *testing.T, now time.Time) *HMACSigner {
	t.Helper()
	s, err := NewHMACSigner("http://files.local/", []byte("secret"), time.Minute)
	if err != nil {
		t.Fatalf("NewHMACSigner() error = %v", err)
	}
	s.now = func() time.Time { return now }
	return s
}

func TestNewHMACSigner(t *testing.T) {
	if _, err := NewHMACSigner("http://x", nil, time.Minute); err == nil {
		t.Error("NewHMACSigner() without secret should fail")
	}

	s, err := NewHMACSigner("http://x/", []byte("k"), 0)
	if err != nil {
		t.Fatalf("NewHMACSigner() error = %v", err)
	}
	if s.Expiry != DefaultSignedURLExpiry {
		t.Errorf("Expiry = %v, want default %v", s.Expiry, DefaultSignedURLExpiry)
	}
	if s.BaseURL != "http://x" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", s.BaseURL)
	}
}

func TestHMACSigner_SignAndVerify(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := newTestHMACSigner(t, now)

	signed, err := s.SignURL(context.Background(), "uploads/my chart.png")
	if err != nil {
		t.Fatalf("SignURL() error = %v", err)
	}
	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("signed URL does not parse: %v", err)
	}
	if u.Path != "/files/uploads/my chart.png" {
		t.Errorf("path = %q", u.Path)
	}
	if !strings.Contains(signed, "my%20chart.png") {
		t.Errorf("key should be path-escaped, got %q", signed)
	}

	expires := u.Query().Get("expires")
	sig := u.Query().Get("signature")
	if expires != "1700000060" {
		t.Errorf("expires = %q, want now+1m", expires)
	}

	tests := []struct {
		name    string
		key     string
		expires string
		sig     string
		at      time.Time
		wantErr error
	}{
		{name: "valid", key: "uploads/my chart.png", expires: expires, sig: sig, at: now},
		{name: "expired", key: "uploads/my chart.png", expires: expires, sig: sig, at: now.Add(2 * time.Minute), wantErr: ErrExpiredSignature},
		{name: "other key", key: "uploads/other.png", expires: expires, sig: sig, at: now, wantErr: ErrBadSignature},
		{name: "tampered expiry", key: "uploads/my chart.png", expires: "1800000000", sig: sig, at: now, wantErr: ErrBadSignature},
		{name: "traversal", key: "../etc/passwd", expires: expires, sig: sig, at: now, wantErr: ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignedURL([]byte("secret"), tt.key, tt.expires, tt.sig, tt.at)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("VerifySignedURL() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("VerifySignedURL() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := s.Verify("uploads/my chart.png", expires, sig); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
	if err := VerifySignedURL([]byte("secret"), "a", "soon", sig, now); err == nil {
		t.Error("VerifySignedURL() with non-numeric expires should fail")
	}
}

func TestHMACSigner_Errors(t *testing.T) {
	s := newTestHMACSigner(t, time.Now())

	_, err := s.SignURL(context.Background(), "")
	var signErr *SigningError
	if !errors.As(err, &signErr) || !errors.Is(err, ErrInvalidKey) {
		t.Errorf("SignURL(\"\") error = %v, want SigningError wrapping ErrInvalidKey", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.SignURL(ctx, "a.png"); !errors.Is(err, context.Canceled) {
		t.Errorf("SignURL() with cancelled context error = %v, want context.Canceled", err)
	}
}

func TestValidateFileKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{key: "a.png"},
		{key: "uploads/2024/a.png"},
		{key: "", wantErr: true},
		{key: "   ", wantErr: true},
		{key: "/abs.png", wantErr: true},
		{key: "a/../b.png", wantErr: true},
		{key: "a/./b.png", wantErr: true},
		{key: "a//b.png", wantErr: true},
		{key: `a\b.png`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateFileKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFileKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestS3Signer(t *testing.T) {
	awsCfg := aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}

	if _, err := NewS3SignerFromConfig(awsCfg, "", "", time.Minute); err == nil {
		t.Error("NewS3SignerFromConfig() without bucket should fail")
	}

	s, err := NewS3SignerFromConfig(awsCfg, "attachments", "http://localhost:9000", 5*time.Minute)
	if err != nil {
		t.Fatalf("NewS3SignerFromConfig() error = %v", err)
	}

	signed, err := s.SignURL(context.Background(), "uploads/a.png")
	if err != nil {
		t.Fatalf("SignURL() error = %v", err)
	}
	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("presigned URL does not parse: %v", err)
	}
	if u.Host != "localhost:9000" || u.Path != "/attachments/uploads/a.png" {
		t.Errorf("presigned URL = %q, want path-style on the custom endpoint", signed)
	}
	if u.Query().Get("X-Amz-Expires") != "300" {
		t.Errorf("X-Amz-Expires = %q, want 300", u.Query().Get("X-Amz-Expires"))
	}
	if u.Query().Get("X-Amz-Signature") == "" {
		t.Error("presigned URL has no signature")
	}

	if _, err := s.SignURL(context.Background(), "../x"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("SignURL() with bad key error = %v, want ErrInvalidKey", err)
	}
}

func TestInstrumentSigner(t *testing.T) {
	s := InstrumentSigner(StaticSigner{
		Base: "http://cdn",
		Fail: map[string]error{"bad.png": errors.New("denied")},
	})

	got, err := s.SignURL(context.Background(), "ok.png")
	if err != nil || got != "http://cdn/ok.png" {
		t.Errorf("SignURL(ok.png) = %q, %v", got, err)
	}
	if _, err := s.SignURL(context.Background(), "bad.png"); err == nil {
		t.Error("SignURL(bad.png) should fail")
	}
}
