package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// Storage backends.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// StoreConfig selects and configures a Lode storage backend.
type StoreConfig struct {
	// Backend is "fs" or "s3".
	Backend string
	// Path is a directory (fs) or "bucket/prefix" (s3).
	Path string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not subdomain).
	UsePathStyle bool
}

// S3Config holds configuration for S3 storage backend.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional).
	Region string
	// Endpoint is a custom S3 endpoint URL (optional).
	Endpoint string
	// UsePathStyle forces path-style addressing.
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// ParseS3Path parses a path in format "bucket/prefix" or "bucket".
func ParseS3Path(path string) (bucket, prefix string) {
	parts := strings.SplitN(path, "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		prefix = parts[1]
	}
	return bucket, prefix
}

// NewStoreFactory returns a Lode StoreFactory for the configured backend.
func NewStoreFactory(cfg StoreConfig) (lode.StoreFactory, error) {
	if cfg.Path == "" {
		return nil, errors.New("storage path is required")
	}

	switch cfg.Backend {
	case BackendFS, "":
		return lode.NewFSFactory(cfg.Path), nil
	case BackendS3:
		bucket, prefix := ParseS3Path(cfg.Path)
		return NewS3StoreFactory(S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (must be fs or s3)", cfg.Backend)
	}
}

// NewS3StoreFactory creates a Lode StoreFactory backed by S3.
// Uses AWS SDK default credential chain (env vars, shared config, IAM role).
func NewS3StoreFactory(s3cfg S3Config) (lode.StoreFactory, error) {
	if err := s3cfg.Validate(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if s3cfg.Region != "" {
		opts = append(opts, config.WithRegion(s3cfg.Region))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if s3cfg.Endpoint != "" {
		endpoint := s3cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if s3cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	s3Client := s3.NewFromConfig(awsConfig, s3Opts...)

	return func() (lode.Store, error) {
		return lodes3.New(s3Client, lodes3.Config{
			Bucket: s3cfg.Bucket,
			Prefix: s3cfg.Prefix,
		})
	}, nil
}

// OpenFSStore opens a read-only view of a local directory as a Lode store.
func OpenFSStore(root string) (lode.Store, error) {
	store, err := lode.NewFSFactory(root)()
	if err != nil {
		return nil, WrapInitError(err, root)
	}
	return store, nil
}
