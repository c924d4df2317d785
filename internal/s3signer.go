package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Signer presigns GetObject requests for attachments stored in S3
type S3Signer struct {
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
}

// NewS3Signer loads the default AWS configuration and builds a presigner
func NewS3Signer(ctx context.Context, cfg SignerConfig) (*S3Signer, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewS3SignerFromConfig(awsCfg, cfg.Bucket, cfg.Endpoint, cfg.Expiry)
}

// NewS3SignerFromConfig builds a presigner from an explicit AWS configuration.
// A non-empty endpoint switches to path-style addressing (MinIO, localstack).
func NewS3SignerFromConfig(awsCfg aws.Config, bucket, endpoint string, expiry time.Duration) (*S3Signer, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 signer requires a bucket")
	}
	if expiry <= 0 {
		expiry = DefaultSignedURLExpiry
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Signer{
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		expiry:    expiry,
	}, nil
}

// SignURL presigns a GetObject request for key
func (s *S3Signer) SignURL(ctx context.Context, key string) (string, error) {
	if err := ValidateFileKey(key); err != nil {
		return "", &SigningError{Key: key, Err: err}
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", &SigningError{Key: key, Err: err}
	}
	return req.URL, nil
}
