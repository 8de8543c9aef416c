package ws

import (
	"github.com/Wyydra/yacall/internal/adapter/wire"
	"github.com/Wyydra/yacall/internal/core/domain"
)

// Client is one signalling connection. Send queues a frame without blocking
// and fails with domain.ErrDisconnected when the connection cannot take it.
type Client interface {
	Contact() domain.Contact
	Send(f wire.Frame) error
	Close() error
}
