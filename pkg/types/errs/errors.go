package errs

import "errors"

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrNoFileProvided    = errors.New("no file provided")
	ErrStorageFailure    = errors.New("storage failure")
	ErrEnqueueFailure    = errors.New("enqueue failure")
	ErrConversionFailure = errors.New("conversion failure")
	ErrValidationFailure = errors.New("validation failure")
	ErrUnknownQueue      = errors.New("unknown queue")
)
