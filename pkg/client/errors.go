package client

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrUnknownOption         = errors.New("unrecognized option name")
	ErrAPIVersionRequired    = errors.New("API version must be selected before opening a database")
	ErrAPIVersionAlreadySet  = errors.New("API version already selected")
	ErrAPIVersionUnsupported = errors.New("API version not supported")
	ErrEndpointMalformed     = errors.New("malformed endpoint")
	ErrEndpointUnreachable   = errors.New("endpoint unreachable")
	ErrDatabaseClosed        = errors.New("database is closed")
)

// ConnectionError reports a failure to establish or use a connection to the
// target store. It is fatal: callers should abort rather than retry.
type ConnectionError struct {
	Endpoint string
	Cause    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Endpoint, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// ConfigurationError reports an invalid option name or value, or an illegal
// reconfiguration such as selecting a second API version.
type ConfigurationError struct {
	Option string
	Cause  error
}

func (e *ConfigurationError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("configure %s: %v", e.Option, e.Cause)
	}
	return fmt.Sprintf("configure: %v", e.Cause)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// IsConfiguration reports whether the error is a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsConnection reports whether the error is a ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
