package memory

import (
	"context"
	"sync"

	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/pkg/errors"
)

type sessionKey struct {
	peer domain.Contact
	sid  string
}

type CallRepository struct {
	mu       sync.RWMutex
	calls    map[domain.CallID]*domain.Call
	sessions map[sessionKey]domain.CallID
}

func NewCallRepository() *CallRepository {
	return &CallRepository{
		calls:    make(map[domain.CallID]*domain.Call),
		sessions: make(map[sessionKey]domain.CallID),
	}
}

func keyOf(peer domain.Contact, sid string) sessionKey {
	return sessionKey{peer: peer.Bare(), sid: sid}
}

func (r *CallRepository) Save(ctx context.Context, call *domain.Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := keyOf(call.Peer, call.SessionID)
	if id, ok := r.sessions[k]; ok && id != call.ID {
		return errors.Wrapf(domain.ErrInvalidState, "session %s with %s already in use", call.SessionID, call.Peer)
	}
	r.calls[call.ID] = call
	r.sessions[k] = call.ID
	return nil
}

func (r *CallRepository) Get(ctx context.Context, id domain.CallID) (*domain.Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	call, ok := r.calls[id]
	if !ok {
		return nil, errors.Wrapf(domain.ErrNotFound, "call %s", id)
	}
	return call, nil
}

func (r *CallRepository) FindBySession(ctx context.Context, peer domain.Contact, sid string) (*domain.Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.sessions[keyOf(peer, sid)]
	if !ok {
		return nil, errors.Wrapf(domain.ErrNotFound, "session %s with %s", sid, peer)
	}
	return r.calls[id], nil
}

func (r *CallRepository) List(ctx context.Context) ([]*domain.Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Call, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c)
	}
	return out, nil
}

func (r *CallRepository) Delete(ctx context.Context, id domain.CallID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	call, ok := r.calls[id]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "call %s", id)
	}
	delete(r.calls, id)
	delete(r.sessions, keyOf(call.Peer, call.SessionID))
	return nil
}
