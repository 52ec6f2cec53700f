package cli

import (
	stderrors "errors"

	"github.com/gear6io/airbus/db"
	"github.com/gear6io/airbus/pkg/errors"
	"github.com/gear6io/airbus/storage"
	"github.com/gear6io/airbus/storage/filesystem"
	"github.com/gear6io/airbus/storage/minio"
	"github.com/gear6io/airbus/yuque"
)

var (
	ErrInvalidFormat     = errors.MustNewCode("cli.invalid_format")
	ErrOutputFailed      = errors.MustNewCode("cli.output_failed")
	ErrUsageInvalid      = errors.MustNewCode("cli.usage_invalid")
	ErrUnsupportedAction = errors.MustNewCode("cli.unsupported_action")
)

// Exit codes by error class
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitConfig     = 2
	ExitConnection = 3
	ExitExecution  = 4
)

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.HasCode(err, db.ErrConnectionFailed):
		return ExitConnection
	case errors.HasCode(err, db.ErrExecutionFailed):
		return ExitExecution
	case errors.HasCode(err, db.ErrConfigInvalid),
		errors.HasCode(err, yuque.ErrCredentialsRequired),
		errors.HasCode(err, yuque.ErrConfigInvalid),
		errors.HasCode(err, storage.ErrLocationInvalid),
		errors.HasCode(err, storage.ErrUnsupportedEngine),
		errors.HasCode(err, filesystem.FileStorageFileNotFound),
		errors.HasCode(err, minio.S3ObjectNotFound),
		errors.HasCode(err, ErrUsageInvalid),
		errors.HasCode(err, ErrInvalidFormat):
		return ExitConfig
	case hasPackage(err, "config"):
		return ExitConfig
	default:
		return ExitFailure
	}
}

// hasPackage reports whether any coded error in the chain belongs to pkg
func hasPackage(err error, pkg string) bool {
	for ; err != nil; err = stderrors.Unwrap(err) {
		if e, ok := err.(*errors.Error); ok && e.Code.Package() == pkg {
			return true
		}
	}
	return false
}
