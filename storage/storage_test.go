package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gear6io/airbus/config"
	"github.com/gear6io/airbus/pkg/errors"
	"github.com/gear6io/airbus/storage/filesystem"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		location string
		engine   EngineType
		path     string
	}{
		{"scripts/daily.sql", FILESYSTEM, "scripts/daily.sql"},
		{"/abs/daily.sql", FILESYSTEM, "/abs/daily.sql"},
		{"s3://bucket/daily.sql", S3, "bucket/daily.sql"},
		{"S3://bucket/nested/key.sql", S3, "bucket/nested/key.sql"},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			engine, path, err := ParseLocation(tt.location)
			require.NoError(t, err)
			assert.Equal(t, tt.engine, engine)
			assert.Equal(t, tt.path, path)
		})
	}

	for _, bad := range []string{"", "  ", "s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, err := ParseLocation(bad)
		assert.True(t, errors.HasCode(err, ErrLocationInvalid), bad)
	}
}

func TestRegistryReadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily.sql")
	require.NoError(t, os.WriteFile(path, []byte("--[a]\nSELECT 1\n"), 0644))

	r, err := NewDefaultRegistry(config.StorageConfig{}, zerolog.Nop())
	require.NoError(t, err)

	text, err := r.ReadText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "--[a]\nSELECT 1\n", text)

	t.Run("MissingFile", func(t *testing.T) {
		_, err := r.ReadText(context.Background(), filepath.Join(t.TempDir(), "absent.sql"))
		assert.True(t, errors.HasCode(err, filesystem.FileStorageFileNotFound))
	})

	t.Run("S3NotConfigured", func(t *testing.T) {
		_, err := r.ReadText(context.Background(), "s3://bucket/daily.sql")
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, ErrUnsupportedEngine))
		assert.Equal(t, "s3://bucket/daily.sql", errors.GetContext(err)["location"])
	})
}
