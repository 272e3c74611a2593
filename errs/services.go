package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Third-party & transport errors
var (
	ErrTransient     = errors.New("transient failure")
	ErrStorageUpload = errors.New("storage upload failed")
)

// Configuration & Environment Errors
var (
	ErrConfigMissing       = errors.New("configuration missing")
	ErrEnvironmentVariable = errors.New("environment variable error")
)

// NewTransientError marks a failure of an otherwise valid request: the
// network dropped, the server answered 5xx, a dependency timed out. Nothing
// about the request needs to change for a later attempt to succeed.
func NewTransientError(operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrTransient,
		Details:    fmt.Sprintf("%s failed", operation),
		Cause:      cause,
	}
}

func NewStorageUploadError(backend string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        fmt.Errorf("%w: %w", ErrStorageUpload, ErrTransient),
		Details:    fmt.Sprintf("Upload to %s storage failed", backend),
		Cause:      cause,
	}
}

// Configuration & Environment Error Constructors
func NewConfigError(configName string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Configuration error for %s", configName),
		Cause:      cause,
	}
}

func NewEnvironmentVariableError(varName string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrEnvironmentVariable,
		Details:    fmt.Sprintf("Environment variable %s is not set or invalid", varName),
		Field:      varName,
	}
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
