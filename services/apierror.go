package services

import "errors"

// clientError marks a request the provider rejected on its merits, such as
// an unknown ticker or a bad API key. It says nothing about the provider's
// health, so circuit breakers do not count it as a failure.
type clientError struct {
	err error
}

func (e *clientError) Error() string { return e.err.Error() }
func (e *clientError) Unwrap() error { return e.err }

// ClientError wraps err as a client-side failure.
func ClientError(err error) error {
	if err == nil {
		return nil
	}
	return &clientError{err: err}
}

// IsClientError reports whether err was wrapped with ClientError.
func IsClientError(err error) bool {
	var c *clientError
	return errors.As(err, &c)
}
