package internal

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Signer turns a stored file key into a time-limited URL
type Signer interface {
	SignURL(ctx context.Context, key string) (string, error)
}

// SignerFunc adapts a function to the Signer interface
type SignerFunc func(ctx context.Context, key string) (string, error)

// SignURL calls f(ctx, key)
func (f SignerFunc) SignURL(ctx context.Context, key string) (string, error) {
	return f(ctx, key)
}

// Errors returned when verifying HMAC signed URLs
var (
	ErrInvalidKey       = errors.New("invalid file key")
	ErrExpiredSignature = errors.New("signature expired")
	ErrBadSignature     = errors.New("signature mismatch")
)

// DefaultSignedURLExpiry is used when no expiry is configured
const DefaultSignedURLExpiry = 15 * time.Minute

// HMACSigner signs URLs for files served by this process's file endpoint
type HMACSigner struct {
	BaseURL string
	Secret  []byte
	Expiry  time.Duration
	now     func() time.Time
}

// NewHMACSigner creates an HMAC signer for baseURL
func NewHMACSigner(baseURL string, secret []byte, expiry time.Duration) (*HMACSigner, error) {
	if len(secret) == 0 {
		return nil, errors.New("hmac signer requires a secret")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if expiry <= 0 {
		expiry = DefaultSignedURLExpiry
	}
	return &HMACSigner{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Secret:  secret,
		Expiry:  expiry,
		now:     time.Now,
	}, nil
}

// SignURL returns <base>/files/<key>?expires=<unix>&signature=<hex>
func (s *HMACSigner) SignURL(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &SigningError{Key: key, Err: err}
	}
	if err := ValidateFileKey(key); err != nil {
		return "", &SigningError{Key: key, Err: err}
	}

	expires := s.now().Add(s.Expiry).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", computeSignature(s.Secret, key, expires))

	return fmt.Sprintf("%s/files/%s?%s", s.BaseURL, escapeKeyPath(key), q.Encode()), nil
}

// Verify checks a key, expiry and signature produced by SignURL
func (s *HMACSigner) Verify(key, expires, signature string) error {
	return VerifySignedURL(s.Secret, key, expires, signature, s.now())
}

// VerifySignedURL checks an HMAC signature for key and expiry at time now
func VerifySignedURL(secret []byte, key, expires, signature string, now time.Time) error {
	if err := ValidateFileKey(key); err != nil {
		return err
	}
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expires: %w", err)
	}
	if now.Unix() > exp {
		return ErrExpiredSignature
	}
	expected := computeSignature(secret, key, exp)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

// ValidateFileKey rejects empty keys and keys that escape the file root
func ValidateFileKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." || part == "" {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

func computeSignature(secret []byte, key string, expires int64) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(key))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func escapeKeyPath(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
