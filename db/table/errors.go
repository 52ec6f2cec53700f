package table

import "github.com/gear6io/airbus/pkg/errors"

// Error codes for table package
var (
	ErrRowWidthMismatch = errors.MustNewCode("table.row_width_mismatch")
	ErrCoercionFailed   = errors.MustNewCode("table.coercion_failed")
	ErrArrowBuildFailed = errors.MustNewCode("table.arrow_build_failed")
	ErrArrowWriteFailed = errors.MustNewCode("table.arrow_write_failed")
)
