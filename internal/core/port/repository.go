package port

import (
	"context"

	"github.com/Wyydra/yacall/internal/core/domain"
)

// CallRepository is the registry of live calls.
type CallRepository interface {
	Save(ctx context.Context, call *domain.Call) error
	Get(ctx context.Context, id domain.CallID) (*domain.Call, error)
	// FindBySession resolves an inbound stanza to its call.
	FindBySession(ctx context.Context, peer domain.Contact, sid string) (*domain.Call, error)
	List(ctx context.Context) ([]*domain.Call, error)
	Delete(ctx context.Context, id domain.CallID) error
}

// CapabilityRepository stores what each peer advertised.
type CapabilityRepository interface {
	SetCapabilities(ctx context.Context, contact domain.Contact, caps domain.PeerCapabilities) error
	Capabilities(ctx context.Context, contact domain.Contact) (domain.PeerCapabilities, error)
	RemoveCapabilities(ctx context.Context, contact domain.Contact) error
}
