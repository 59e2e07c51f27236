package mocks

import "errors"

var (
	// ErrInjected is a convenience error for failure-injection callbacks.
	ErrInjected = errors.New("injected store failure")
)
