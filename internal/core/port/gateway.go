package port

import (
	"context"

	"github.com/Wyydra/yacall/internal/core/domain"
)

// SessionSender delivers outbound session stanzas to peers. SendStanza must
// not block on network I/O.
type SessionSender interface {
	SendStanza(ctx context.Context, st domain.Stanza) error
	Connected(contact domain.Contact) bool
}

// Notifier publishes control-API change notifications. Notify must not block
// on network I/O.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}
