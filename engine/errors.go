package engine

import "errors"

var (
	// ErrEmptyRoute is returned when a route has no hops.
	ErrEmptyRoute = errors.New("empty route")
	// ErrPathDiscontinuity is returned when a hop does not start where the previous one ended.
	ErrPathDiscontinuity = errors.New("path discontinuity")
	// ErrUnknownPool is returned when a hop names a pool the engine has no implementation for.
	ErrUnknownPool = errors.New("unknown pool implementation")
	// ErrUnseededPoolState is returned when a hop names a pool with no state in the World.
	ErrUnseededPoolState = errors.New("unseeded pool state")
	// ErrUnsupportedDirection is returned when a pool does not support the requested direction.
	ErrUnsupportedDirection = errors.New("unsupported swap direction")
	// ErrNilAmount is returned when an amount argument is nil.
	ErrNilAmount = errors.New("nil amount")
	// ErrPricing wraps an error returned by a pool's Swap.
	ErrPricing = errors.New("pricing failed")
	// ErrInsufficientBalance is returned by World.Debit when the holding is too small.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// errorReason maps an engine error to its metrics label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyRoute):
		return "empty_route"
	case errors.Is(err, ErrPathDiscontinuity):
		return "discontinuity"
	case errors.Is(err, ErrUnknownPool):
		return "unknown_pool"
	case errors.Is(err, ErrUnseededPoolState):
		return "unseeded_state"
	case errors.Is(err, ErrUnsupportedDirection):
		return "unsupported_direction"
	case errors.Is(err, ErrNilAmount):
		return "nil_amount"
	case errors.Is(err, ErrPricing):
		return "pricing"
	default:
		return "other"
	}
}
