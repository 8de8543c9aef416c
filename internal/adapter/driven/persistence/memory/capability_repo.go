package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/pkg/errors"
)

// CapabilityRepository keys capabilities by bare contact.
type CapabilityRepository struct {
	mu   sync.RWMutex
	caps map[domain.Contact]domain.PeerCapabilities
}

func NewCapabilityRepository() *CapabilityRepository {
	return &CapabilityRepository{
		caps: make(map[domain.Contact]domain.PeerCapabilities),
	}
}

func (r *CapabilityRepository) SetCapabilities(ctx context.Context, contact domain.Contact, caps domain.PeerCapabilities) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	caps.Transports = slices.Clone(caps.Transports)
	r.caps[contact.Bare()] = caps
	return nil
}

func (r *CapabilityRepository) Capabilities(ctx context.Context, contact domain.Contact) (domain.PeerCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	caps, ok := r.caps[contact.Bare()]
	if !ok {
		return domain.PeerCapabilities{}, errors.Wrapf(domain.ErrNotFound, "capabilities of %s", contact)
	}
	caps.Transports = slices.Clone(caps.Transports)
	return caps, nil
}

func (r *CapabilityRepository) RemoveCapabilities(ctx context.Context, contact domain.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.caps, contact.Bare())
	return nil
}
