package script

import "github.com/gear6io/airbus/pkg/errors"

// Error codes for script package
var (
	ErrAssignmentInvalid = errors.MustNewCode("script.assignment_invalid")
)
