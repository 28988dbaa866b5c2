package action

import "errors"

// Domain errors for actions.
var (
	// ErrUnknownKind indicates a plan step named a kind outside the closed
	// registry set.
	ErrUnknownKind = errors.New("unknown action kind")

	// ErrActionFailure indicates the environment reported failure for an
	// action. The executor retries within the action's bounded budget, then
	// records the failure and advances.
	ErrActionFailure = errors.New("action failure")

	// ErrBadParams indicates a step's parameters did not decode for its
	// kind.
	ErrBadParams = errors.New("bad action params")
)
