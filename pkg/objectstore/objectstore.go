// Package objectstore is the S3/MinIO-backed implementation of
// domain.AttachmentStore: delete attachment blobs by key, and report
// connection health at bootstrap. Adapted from a general-purpose S3
// upload/download/exists client down to the delete-only and health-check
// operations this worker needs.
package objectstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config addresses a single bucket on an S3-compatible endpoint (MinIO in
// the common deployment).
type Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Store deletes attachment blobs from one bucket.
type Store struct {
	client *s3.Client
	bucket string
}

// New builds a Store against cfg. Endpoint, when set, forces path-style
// addressing, which MinIO and most other S3-compatible services require.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("object store bucket name is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load object store config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("object store bucket %q is not reachable: %w", cfg.Bucket, err)
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// DeleteObjects removes each key in turn. A best-effort operation: the
// Attachment Reaper logs and moves on regardless, so this returns the first
// error encountered but still attempts every key.
func (s *Store) DeleteObjects(ctx context.Context, keys []string) error {
	var firstErr error
	for _, key := range keys {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to delete object %q: %w", key, err)
		}
	}
	return firstErr
}

// Healthy verifies the bucket is still reachable.
func (s *Store) Healthy(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("object store health check failed: %w", err)
	}
	return nil
}
