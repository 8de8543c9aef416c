package ws

import (
	"context"
	"sync"

	"github.com/Wyydra/yacall/internal/adapter/wire"
	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/Wyydra/yacall/internal/core/port"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var _ port.SessionSender = (*Hub)(nil)

type request struct {
	client Client
	done   chan struct{}
}

// Hub tracks one signalling connection per bare contact.
type Hub struct {
	self domain.Contact

	mu         sync.Mutex
	clients    map[domain.Contact]Client
	register   chan request
	unregister chan request
	quit       chan struct{}
	stopOnce   sync.Once
}

func NewHub(self domain.Contact) *Hub {
	return &Hub{
		self:       self,
		clients:    make(map[domain.Contact]Client),
		register:   make(chan request),
		unregister: make(chan request),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) SendStanza(ctx context.Context, st domain.Stanza) error {
	f, err := wire.FromStanza(h.self, st)
	if err != nil {
		return errors.Wrapf(err, "encode %s for %s", st.Action, st.Peer)
	}

	h.mu.Lock()
	client, ok := h.clients[st.Peer.Bare()]
	h.mu.Unlock()
	if !ok {
		return errors.Wrapf(domain.ErrDisconnected, "no signalling connection to %s", st.Peer)
	}
	return client.Send(f)
}

func (h *Hub) Connected(contact domain.Contact) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.clients[contact.Bare()]
	return ok
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for key, client := range h.clients {
				client.Close()
				delete(h.clients, key)
			}
			h.mu.Unlock()
			return

		case req := <-h.register:
			key := req.client.Contact().Bare()
			h.mu.Lock()
			old, replaced := h.clients[key]
			h.clients[key] = req.client
			h.mu.Unlock()
			if replaced && old != req.client {
				old.Close()
				log.Info().Str("contact", key.String()).Msg("Replaced signalling connection")
			}
			log.Info().Str("contact", req.client.Contact().String()).Msg("Client registered")
			close(req.done)

		case req := <-h.unregister:
			key := req.client.Contact().Bare()
			h.mu.Lock()
			current, ok := h.clients[key]
			if ok && current == req.client {
				delete(h.clients, key)
			}
			h.mu.Unlock()
			if ok && current == req.client {
				req.client.Close()
				log.Info().Str("contact", req.client.Contact().String()).Msg("Client unregistered")
			}
			close(req.done)
		}
	}
}

// Register returns once the client is routable. A previous connection for
// the same bare contact is closed.
func (h *Hub) Register(c Client) {
	h.do(h.register, c)
}

// Unregister returns once the client is no longer routable. It is a no-op
// for a client that was already replaced.
func (h *Hub) Unregister(c Client) {
	h.do(h.unregister, c)
}

func (h *Hub) do(ch chan request, c Client) {
	req := request{client: c, done: make(chan struct{})}
	select {
	case ch <- req:
		<-req.done
	case <-h.quit:
		c.Close()
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}
