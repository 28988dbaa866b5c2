package effector

import "errors"

var (
	// ErrUnknownOp is reported when polling an operation the effector does
	// not know about.
	ErrUnknownOp = errors.New("unknown effector operation")

	// ErrRejected is returned when the environment refuses to start an
	// operation.
	ErrRejected = errors.New("effector rejected operation")
)
