package http

import (
	"net/http"

	"github.com/Wyydra/yacall/internal/adapter/driven/notify/sse"
	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/pkg/errors"
)

func (h *Handler) eventsEnabled(w http.ResponseWriter, r *http.Request) bool {
	if h.Events == nil {
		writeError(w, r, errors.Wrap(domain.ErrNotAvailable, "event stream disabled"))
		return false
	}
	return true
}

// StreamEvents serves the notifications of one live call as server-sent
// events.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	if !h.eventsEnabled(w, r) {
		return
	}
	id, err := parseParam(r, "call", domain.ParseCallID)
	if err == nil {
		_, err = h.CallService.Call(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Events.Handler(id.String()).ServeHTTP(w, r)
}

func (h *Handler) StreamAllEvents(w http.ResponseWriter, r *http.Request) {
	if !h.eventsEnabled(w, r) {
		return
	}
	h.Events.Handler(sse.AllCalls).ServeHTTP(w, r)
}
