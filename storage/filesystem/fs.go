package filesystem

import (
	"context"
	"io"
	"os"

	"github.com/gear6io/airbus/pkg/errors"
)

// Package-specific error codes for filesystem storage
var (
	FileStorageFileNotFound   = errors.MustNewCode("filesystem.file_not_found")
	FileStorageOpenFileFailed = errors.MustNewCode("filesystem.open_file_failed")
)

// Type is the storage type identifier
const Type = "FILESYSTEM"

// FileStorage reads scripts from local disk
type FileStorage struct{}

// NewFileStorage creates a new filesystem storage
func NewFileStorage() *FileStorage {
	return &FileStorage{}
}

// GetStorageType returns the storage type identifier
func (fs *FileStorage) GetStorageType() string {
	return Type
}

// OpenForRead opens a file for streaming read
func (fs *FileStorage) OpenForRead(_ context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(FileStorageFileNotFound, "script file does not exist", err).AddContext("path", path)
		}
		return nil, errors.New(FileStorageOpenFileFailed, "failed to open script file", err).AddContext("path", path)
	}
	return file, nil
}
