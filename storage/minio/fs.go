package minio

import (
	"context"
	"io"
	"strings"

	"github.com/gear6io/airbus/config"
	"github.com/gear6io/airbus/pkg/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// Package-specific error codes for object storage
var (
	S3SetupFailed      = errors.MustNewCode("minio.setup_failed")
	S3ObjectNotFound   = errors.MustNewCode("minio.object_not_found")
	S3OpenObjectFailed = errors.MustNewCode("minio.open_object_failed")
)

// Type is the storage type identifier
const Type = "S3"

// FileSystem reads objects from S3-compatible storage. Paths are bucket/key.
type FileSystem struct {
	client   *minio.Client
	endpoint string
	logger   zerolog.Logger
}

// NewS3FileSystem creates a client for the configured endpoint.
// An http:// or https:// prefix on the endpoint overrides UseSSL.
func NewS3FileSystem(cfg config.StorageConfig, logger zerolog.Logger) (*FileSystem, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	secure := cfg.UseSSL
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "http://"), false
	}
	endpoint = strings.TrimSuffix(endpoint, "/")

	if endpoint == "" {
		return nil, errors.New(S3SetupFailed, "storage endpoint is required for s3:// scripts", nil)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.New(S3SetupFailed, "failed to create object storage client", err).AddContext("endpoint", endpoint)
	}

	return &FileSystem{
		client:   client,
		endpoint: endpoint,
		logger:   logger.With().Str("storage", Type).Logger(),
	}, nil
}

// GetStorageType returns the storage type identifier
func (fs *FileSystem) GetStorageType() string {
	return Type
}

// OpenForRead opens bucket/key for reading
func (fs *FileSystem) OpenForRead(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key, ok := strings.Cut(path, "/")
	if !ok || bucket == "" || key == "" {
		return nil, errors.New(S3OpenObjectFailed, "object path must be bucket/key", nil).AddContext("path", path)
	}

	obj, err := fs.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.New(S3OpenObjectFailed, "failed to open object", err).AddContext("path", path)
	}

	// GetObject is lazy; Stat surfaces missing buckets and keys before the first read
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil, errors.New(S3ObjectNotFound, "object does not exist", err).AddContext("path", path)
		}
		return nil, errors.New(S3OpenObjectFailed, "failed to stat object", err).AddContext("path", path)
	}

	fs.logger.Debug().Str("bucket", bucket).Str("key", key).Msg("Opened object")
	return obj, nil
}
