package yuque

import "github.com/gear6io/airbus/pkg/errors"

var (
	ErrCredentialsRequired = errors.MustNewCode("yuque.credentials_required")
	ErrConfigInvalid       = errors.MustNewCode("yuque.config_invalid")
	ErrRequestFailed       = errors.MustNewCode("yuque.request_failed")
	ErrUnexpectedStatus    = errors.MustNewCode("yuque.unexpected_status")
	ErrResponseInvalid     = errors.MustNewCode("yuque.response_invalid")
)
