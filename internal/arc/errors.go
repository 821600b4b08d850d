package arc

import "errors"

// Caller input and business-rule failures. These are returned to the command
// layer as values and never mutate state.
var (
	ErrUnknownTask        = errors.New("unknown task")
	ErrUnknownReward      = errors.New("unknown reward")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInsufficientPoints = errors.New("insufficient points")
)
