package viewer

import "errors"

var (
	// ErrRefusedTarget is returned when asked to open a coming-soon tool.
	ErrRefusedTarget = errors.New("tool cannot be opened")
	// ErrInvalidTransition is returned for reload outside ready/errored.
	ErrInvalidTransition = errors.New("invalid viewer transition")
	// ErrStopped is returned once the controller has been stopped.
	ErrStopped = errors.New("viewer stopped")
	// ErrUnknownContext is returned for caller context names the manager
	// does not recognize.
	ErrUnknownContext = errors.New("unknown viewer context")
)
