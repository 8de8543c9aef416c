package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Wyydra/yacall/internal/adapter/wire"
	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	writeWait = 10 * time.Second
	sendQueue = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: check against the configured CORS origins
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSClient is a peer's signalling connection. Frames are written by a single
// pump goroutine.
type WSClient struct {
	contact domain.Contact
	conn    *websocket.Conn
	send    chan wire.Frame
	done    chan struct{}
	once    sync.Once
}

func newWSClient(contact domain.Contact, conn *websocket.Conn) *WSClient {
	return &WSClient{
		contact: contact,
		conn:    conn,
		send:    make(chan wire.Frame, sendQueue),
		done:    make(chan struct{}),
	}
}

func (c *WSClient) Contact() domain.Contact {
	return c.contact
}

func (c *WSClient) Send(f wire.Frame) error {
	select {
	case <-c.done:
		return errors.Wrapf(domain.ErrDisconnected, "connection to %s closed", c.contact)
	default:
	}
	select {
	case c.send <- f:
		return nil
	default:
		return errors.Wrapf(domain.ErrDisconnected, "send queue to %s full", c.contact)
	}
}

func (c *WSClient) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *WSClient) writePump(l zerolog.Logger) {
	for {
		select {
		case <-c.done:
			return
		case f := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				l.Warn().Err(err).Msg("Write failed")
				c.Close()
				return
			}
		}
	}
}

// ServeSignal upgrades GET /signal?contact=<jid> to the peer's signalling
// connection.
func (h *Handler) ServeSignal(w http.ResponseWriter, r *http.Request) {
	contact := domain.Contact(r.URL.Query().Get("contact"))
	if contact == "" {
		writeError(w, r, errors.Wrap(domain.ErrInvalidArgument, "missing contact"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	client := newWSClient(contact, conn)
	l := log.With().Str("contact", contact.String()).Logger()
	l.Info().Msg("Peer connected")

	h.Hub.Register(client)
	go client.writePump(l)

	// the request context ends with the handler, calls outlive it
	ctx := context.WithoutCancel(r.Context())
	defer func() {
		h.Hub.Unregister(client)
		client.Close()
		if !h.Hub.Connected(contact) {
			h.CallService.PeerDisconnected(ctx, contact)
		}
		l.Info().Msg("Peer disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l.Error().Err(err).Msg("Unexpected close error")
			}
			return
		}
		if err := h.handleFrame(ctx, contact, data); err != nil {
			l.Warn().Err(err).Msg("Dropped frame")
			if sendErr := client.Send(wire.ErrorFrame(err)); sendErr != nil {
				l.Debug().Err(sendErr).Msg("Could not report frame error")
			}
		}
	}
}

func (h *Handler) handleFrame(ctx context.Context, contact domain.Contact, data []byte) error {
	f, err := wire.DecodeFrame(data)
	if err != nil {
		return err
	}
	switch f.Type {
	case wire.TypeHello:
		return h.CallService.SetCapabilities(ctx, contact, f.PeerCapabilities())
	case wire.TypeJingle:
		st, err := f.Stanza(contact)
		if err != nil {
			return err
		}
		return h.CallService.HandleStanza(ctx, st)
	default:
		return errors.Wrapf(domain.ErrInvalidArgument, "unexpected %s frame", f.Type)
	}
}
