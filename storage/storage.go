// Package storage reads SQL script sources from the local filesystem or S3-compatible object storage.
package storage

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/gear6io/airbus/config"
	"github.com/gear6io/airbus/pkg/errors"
	"github.com/gear6io/airbus/storage/filesystem"
	"github.com/gear6io/airbus/storage/minio"
	"github.com/rs/zerolog"
)

// EngineType identifies a storage backend
type EngineType string

const (
	// FILESYSTEM is local disk
	FILESYSTEM EngineType = "FILESYSTEM"
	// S3 is S3-compatible object storage
	S3 EngineType = "S3"
)

// S3Scheme prefixes object locations, as in s3://bucket/key
const S3Scheme = "s3://"

// FileSystem is a read-only script source
type FileSystem interface {
	GetStorageType() string
	OpenForRead(ctx context.Context, path string) (io.ReadCloser, error)
}

// ParseLocation splits a script location into its engine and the engine-relative path
func ParseLocation(location string) (EngineType, string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", "", errors.New(ErrLocationInvalid, "script location cannot be empty", nil)
	}

	if !strings.HasPrefix(strings.ToLower(location), S3Scheme) {
		return FILESYSTEM, location, nil
	}

	path := location[len(S3Scheme):]
	bucket, key, ok := strings.Cut(path, "/")
	if !ok || bucket == "" || strings.Trim(key, "/") == "" {
		return "", "", errors.New(ErrLocationInvalid, "object location must be s3://bucket/key", nil).
			AddContext("location", location)
	}
	return S3, bucket + "/" + key, nil
}

// Registry routes locations to the engine that serves them
type Registry struct {
	engines map[EngineType]FileSystem
	mu      sync.RWMutex
	logger  zerolog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		engines: make(map[EngineType]FileSystem),
		logger:  logger,
	}
}

// NewDefaultRegistry serves local files, and s3:// objects when an endpoint is configured
func NewDefaultRegistry(cfg config.StorageConfig, logger zerolog.Logger) (*Registry, error) {
	r := NewRegistry(logger)
	r.RegisterEngine(FILESYSTEM, filesystem.NewFileStorage())

	if cfg.Endpoint != "" {
		s3, err := minio.NewS3FileSystem(cfg, logger)
		if err != nil {
			return nil, err
		}
		r.RegisterEngine(S3, s3)
	}
	return r, nil
}

// RegisterEngine registers fs for an engine type
func (r *Registry) RegisterEngine(engine EngineType, fs FileSystem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[engine] = fs
}

// GetEngine returns the backend registered for engine
func (r *Registry) GetEngine(engine EngineType) (FileSystem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if fs, ok := r.engines[engine]; ok {
		return fs, nil
	}
	return nil, errors.Newf(ErrUnsupportedEngine, "storage engine %s is not configured", engine)
}

// ReadText reads the whole source at location as text
func (r *Registry) ReadText(ctx context.Context, location string) (string, error) {
	engine, path, err := ParseLocation(location)
	if err != nil {
		return "", err
	}

	fs, err := r.GetEngine(engine)
	if err != nil {
		return "", errors.AsError(err).AddContext("location", location)
	}

	reader, err := fs.OpenForRead(ctx, path)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", errors.New(ErrReadFailed, "failed to read script", err).AddContext("location", location)
	}

	r.logger.Debug().
		Str("location", location).
		Str("storage", fs.GetStorageType()).
		Int("bytes", len(data)).
		Msg("Loaded script")

	return string(data), nil
}
