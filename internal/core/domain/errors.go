package domain

import "errors"

// Error taxonomy of the negotiation engine. Control operations return one of
// these (possibly wrapped) and leave the call untouched when they do.
var (
	// ErrInvalidState: the operation is not valid in the current state machine position.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotAvailable: the peer lacks the capability, or the operation is
	// blocked by an outstanding codec offer.
	ErrNotAvailable = errors.New("not available")

	// ErrInvalidArgument: malformed candidate or codec payload.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDisconnected: the signalling session with the peer is gone.
	ErrDisconnected = errors.New("disconnected")

	// ErrNotFound: no call, content, stream or endpoint with that id.
	ErrNotFound = errors.New("not found")
)

// ErrorName returns the taxonomy name of err, as exposed on the control API.
func ErrorName(err error) string {
	switch {
	case errors.Is(err, ErrInvalidState):
		return "InvalidState"
	case errors.Is(err, ErrNotAvailable):
		return "NotAvailable"
	case errors.Is(err, ErrInvalidArgument):
		return "InvalidArgument"
	case errors.Is(err, ErrDisconnected):
		return "Disconnected"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	default:
		return "Internal"
	}
}
