package http

import (
	"net/http"

	"github.com/Wyydra/yacall/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/yacall/internal/adapter/driven/notify/sse"
	"github.com/Wyydra/yacall/internal/core/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

type Handler struct {
	CallService *service.CallService
	Hub         *ws.Hub
	// Events is nil when server-sent events are disabled.
	Events  *sse.Notifier
	Origins []string
}

func NewHandler(callService *service.CallService, hub *ws.Hub, events *sse.Notifier, origins []string) *Handler {
	return &Handler{
		CallService: callService,
		Hub:         hub,
		Events:      events,
		Origins:     origins,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: h.Origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	r.Get("/healthz", h.Health)
	r.Get("/signal", h.ServeSignal)
	r.Get("/events", h.StreamAllEvents)
	r.Put("/contacts/{contact}/capabilities", h.SetCapabilities)

	r.Route("/calls", func(r chi.Router) {
		r.Post("/", h.CreateCall)
		r.Get("/", h.ListCalls)

		r.Route("/{call}", func(r chi.Router) {
			r.Get("/", h.GetCall)
			r.Post("/accept", h.Accept)
			r.Post("/ringing", h.SetRinging)
			r.Post("/hangup", h.Hangup)
			r.Get("/events", h.StreamEvents)

			r.Post("/contents", h.AddContent)
			r.Route("/contents/{content}", func(r chi.Router) {
				r.Get("/", h.GetContent)
				r.Post("/remove", h.RemoveContent)
				r.Put("/codecs", h.UpdateCodecs)
				r.Post("/offers/{offer}/accept", h.AcceptCodecOffer)
			})

			r.Route("/streams/{stream}", func(r chi.Router) {
				r.Get("/", h.GetStream)
				r.Post("/sending", h.SetSending)
				r.Post("/credentials", h.SetCredentials)
				r.Post("/candidates", h.AddCandidates)
				r.Post("/candidates-prepared", h.CandidatesPrepared)
			})

			r.Route("/endpoints/{endpoint}", func(r chi.Router) {
				r.Get("/", h.GetEndpoint)
				r.Post("/selected-candidate", h.SetSelectedCandidate)
				r.Post("/state", h.SetStreamState)
			})
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
