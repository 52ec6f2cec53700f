package config

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gear6io/airbus/pkg/errors"
	"github.com/rs/zerolog"
)

const backupSuffixLayout = "2006-01-02-15-04-05"

// LogManager owns the log file and rotates it by size
type LogManager struct {
	config *LogConfig
	file   *os.File
}

// NewLogManager creates a new log manager
func NewLogManager(cfg *LogConfig) *LogManager {
	return &LogManager{config: cfg}
}

// CleanupLogFile empties an existing log file; a missing file is not an error
func CleanupLogFile(filePath string) error {
	if filePath == "" {
		return nil
	}
	err := os.Truncate(filePath, 0)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return errors.New(ErrLogFileOpenFailed, "failed to truncate log file", err).AddContext("path", filePath)
}

// GetWriter opens the log file for appending, rotating it first when it is over MaxSize
func (lm *LogManager) GetWriter() (io.Writer, error) {
	path := lm.config.FilePath
	if path == "" {
		return nil, errors.New(ErrLogFilePathRequired, "no log file path specified", nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.New(ErrLogDirectoryCreationFailed, "failed to create log directory", err).AddContext("path", path)
	}
	if err := lm.rotateIfNeeded(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, errors.New(ErrLogFileOpenFailed, "failed to open log file", err).AddContext("path", path)
	}
	lm.file = file
	return file, nil
}

func (lm *LogManager) rotateIfNeeded() error {
	limit := int64(lm.config.MaxSize) * 1024 * 1024
	if limit <= 0 {
		return nil
	}

	info, err := os.Stat(lm.config.FilePath)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return errors.New(ErrLogFileStatFailed, "failed to stat log file", err)
	case info.Size() < limit:
		return nil
	}

	lm.Close()
	backup := lm.config.FilePath + "." + time.Now().Format(backupSuffixLayout)
	if err := os.Rename(lm.config.FilePath, backup); err != nil {
		return errors.New(ErrLogRotationFailed, "failed to rotate log file", err).AddContext("backup_path", backup)
	}
	return lm.pruneBackups()
}

type logBackup struct {
	path    string
	modTime time.Time
}

// backups lists rotated files, newest first
func (lm *LogManager) backups() ([]logBackup, error) {
	matches, err := filepath.Glob(lm.config.FilePath + ".*")
	if err != nil {
		return nil, errors.New(ErrLogRotationFailed, "failed to list log backups", err)
	}

	var out []logBackup
	for _, path := range matches {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			out = append(out, logBackup{path: path, modTime: info.ModTime()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].modTime.After(out[j].modTime) })
	return out, nil
}

// pruneBackups keeps at most MaxBackups rotated files, none older than MaxAge days
func (lm *LogManager) pruneBackups() error {
	keep, maxAge := lm.config.MaxBackups, lm.config.MaxAge
	if keep <= 0 && maxAge <= 0 {
		return nil
	}

	backups, err := lm.backups()
	if err != nil {
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -maxAge)
	for i, b := range backups {
		if (keep > 0 && i >= keep) || (maxAge > 0 && b.modTime.Before(cutoff)) {
			if err := os.Remove(b.path); err != nil {
				return errors.New(ErrLogBackupRemoveFailed, "failed to remove old backup", err).AddContext("backup_path", b.path)
			}
		}
	}
	return nil
}

// Close closes the open log file, if any
func (lm *LogManager) Close() error {
	if lm.file == nil {
		return nil
	}
	err := lm.file.Close()
	lm.file = nil
	return err
}

// SetupLogger builds the process logger from cfg.
// Console output goes to stderr so that stdout stays free for query results.
// The returned LogManager is nil when no log file is configured.
func SetupLogger(cfg *LogConfig) (zerolog.Logger, *LogManager, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	var lm *LogManager
	if cfg.FilePath != "" {
		if cfg.Cleanup {
			if err := CleanupLogFile(cfg.FilePath); err != nil {
				return zerolog.Logger{}, nil, errors.New(ErrLogCleanupFailed, "failed to cleanup log file", err)
			}
		}

		lm = NewLogManager(cfg)
		w, err := lm.GetWriter()
		if err != nil {
			return zerolog.Logger{}, nil, errors.New(ErrLogFileWriterSetupFailed, "failed to setup file writer", err)
		}
		writers = append(writers, w)
	}

	logger := zerolog.New(combineWriters(writers)).Level(level).With().
		Timestamp().
		Str("component", "airbus").
		Logger()

	return logger, lm, nil
}

func combineWriters(writers []io.Writer) io.Writer {
	switch len(writers) {
	case 0:
		return io.Discard
	case 1:
		return writers[0]
	default:
		return zerolog.MultiLevelWriter(writers...)
	}
}
