package sse

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/Wyydra/yacall/internal/core/port"
	"github.com/donovanhide/eventsource"
	"github.com/rs/zerolog/log"
)

// AllCalls is the channel that receives the notifications of every call.
const AllCalls = "calls"

var _ port.Notifier = (*Notifier)(nil)

type event struct {
	id   string
	kind string
	data string
}

func (e *event) Id() string { return e.id }
func (e *event) Event() string { return e.kind }
func (e *event) Data() string { return e.data }

// Notifier publishes notifications as server-sent events on the call's own
// channel and on AllCalls.
type Notifier struct {
	srv *eventsource.Server

	mu     sync.RWMutex
	closed bool
}

func NewNotifier() *Notifier {
	srv := eventsource.NewServer()
	srv.AllowCORS = true
	return &Notifier{srv: srv}
}

func (n *Notifier) Notify(ctx context.Context, note domain.Notification) {
	data, err := json.Marshal(note)
	if err != nil {
		log.Error().Err(err).Str("kind", string(note.Kind)).Msg("Failed to encode notification")
		return
	}
	ev := &event{
		id:   note.CallID.String() + "/" + strconv.FormatUint(note.Seq, 10),
		kind: string(note.Kind),
		data: string(data),
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	n.srv.Publish([]string{note.CallID.String(), AllCalls}, ev)
}

// Handler streams the events of one channel: a call id or AllCalls.
func (n *Notifier) Handler(channel string) http.HandlerFunc {
	return n.srv.Handler(channel)
}

func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	n.srv.Close()
}
