package ws

import (
	"context"
	"sync"
	"testing"

	"github.com/Wyydra/yacall/internal/adapter/wire"
	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const self = domain.Contact("test@localhost/engine")

type fakeClient struct {
	contact domain.Contact

	mu     sync.Mutex
	frames []wire.Frame
	closed bool
	full   bool
}

func (c *fakeClient) Contact() domain.Contact { return c.contact }

func (c *fakeClient) Send(f wire.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.full {
		return errors.Wrapf(domain.ErrDisconnected, "client %s", c.contact)
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func newRunningHub(t *testing.T) *Hub {
	h := NewHub(self)
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func ringing(peer domain.Contact) domain.Stanza {
	return domain.Stanza{
		Action:    domain.ActionSessionInfo,
		SessionID: "sid-1",
		Peer:      peer,
		Initiator: peer,
		Info:      domain.InfoRinging,
	}
}

func TestSendStanzaRoutesByBareContact(t *testing.T) {
	h := newRunningHub(t)
	c := &fakeClient{contact: "foo@bar.com/Resource"}
	h.Register(c)

	assert.True(t, h.Connected("foo@bar.com/Other"))
	require.NoError(t, h.SendStanza(context.Background(), ringing("foo@bar.com/Resource")))

	require.Len(t, c.frames, 1)
	f := c.frames[0]
	assert.Equal(t, wire.TypeJingle, f.Type)
	assert.Equal(t, self.String(), f.From)
	assert.Equal(t, "foo@bar.com/Resource", f.To)
	assert.Equal(t, string(domain.ActionSessionInfo), f.Action)
	assert.Equal(t, domain.InfoRinging, f.Info)
}

func TestSendStanzaWithoutConnection(t *testing.T) {
	h := newRunningHub(t)
	assert.False(t, h.Connected("foo@bar.com"))
	err := h.SendStanza(context.Background(), ringing("foo@bar.com/Resource"))
	assert.ErrorIs(t, err, domain.ErrDisconnected)
}

func TestFullQueueIsDisconnected(t *testing.T) {
	h := newRunningHub(t)
	h.Register(&fakeClient{contact: "foo@bar.com/Resource", full: true})
	err := h.SendStanza(context.Background(), ringing("foo@bar.com/Resource"))
	assert.ErrorIs(t, err, domain.ErrDisconnected)
}

func TestRegisterReplacesConnection(t *testing.T) {
	h := newRunningHub(t)
	first := &fakeClient{contact: "foo@bar.com/Resource"}
	second := &fakeClient{contact: "foo@bar.com/Laptop"}
	h.Register(first)
	h.Register(second)

	assert.True(t, first.isClosed())
	assert.False(t, second.isClosed())

	// The replaced connection going away must not drop the new one.
	h.Unregister(first)
	assert.True(t, h.Connected("foo@bar.com"))

	h.Unregister(second)
	assert.False(t, h.Connected("foo@bar.com"))
	assert.True(t, second.isClosed())
}

func TestStopClosesClients(t *testing.T) {
	h := NewHub(self)
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()
	c := &fakeClient{contact: "foo@bar.com/Resource"}
	h.Register(c)

	h.Stop()
	<-done
	assert.True(t, c.isClosed())
	assert.False(t, h.Connected("foo@bar.com"))

	late := &fakeClient{contact: "bar@baz.com/Resource"}
	h.Register(late)
	assert.True(t, late.isClosed())
	h.Stop()
}
