package storage

import "github.com/gear6io/airbus/pkg/errors"

// Storage-specific error codes
var (
	ErrLocationInvalid   = errors.MustNewCode("storage.location_invalid")
	ErrUnsupportedEngine = errors.MustNewCode("storage.unsupported_engine")
	ErrReadFailed        = errors.MustNewCode("storage.read_failed")
)
