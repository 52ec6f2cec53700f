package db

import "github.com/gear6io/airbus/pkg/errors"

// Runner error codes. Callers tell the classes apart with errors.HasCode.
var (
	ErrConfigInvalid    = errors.MustNewCode("db.config_invalid")
	ErrConnectionFailed = errors.MustNewCode("db.connection_failed")
	ErrExecutionFailed  = errors.MustNewCode("db.execution_failed")
	ErrBlockNotFound    = errors.MustNewCode("db.block_not_found")
	ErrRunnerClosed     = errors.MustNewCode("db.runner_closed")
)
