package http

import (
	"net/http"
	"net/url"

	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

type createCallRequest struct {
	Target       domain.Contact `json:"target"`
	InitialAudio bool           `json:"initial_audio"`
	InitialVideo bool           `json:"initial_video"`
	AudioName    string         `json:"initial_audio_name"`
	VideoName    string         `json:"initial_video_name"`
}

type reasonRequest struct {
	Reason         string `json:"reason"`
	DetailedReason string `json:"detailed_reason"`
	Message        string `json:"message"`
}

func (req reasonRequest) code() (domain.ReasonCode, error) {
	if req.Reason == "" {
		return domain.ReasonUnknown, nil
	}
	return domain.ParseReasonCode(req.Reason)
}

type addContentRequest struct {
	Name string           `json:"name"`
	Type domain.MediaType `json:"type"`
}

type codecsRequest struct {
	Codecs []domain.Codec `json:"codecs"`
}

type sendingRequest struct {
	Sending bool `json:"sending"`
}

type candidatesRequest struct {
	Candidates []domain.Candidate `json:"candidates"`
}

type stateRequest struct {
	State domain.StreamState `json:"state"`
}

func parseParam[T any](r *http.Request, key string, parse func(string) (T, error)) (T, error) {
	v := chi.URLParam(r, key)
	id, err := parse(v)
	if err != nil {
		return id, errors.Wrapf(domain.ErrNotFound, "%s %q", key, v)
	}
	return id, nil
}

func (h *Handler) CreateCall(w http.ResponseWriter, r *http.Request) {
	var req createCallRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	props, err := h.CallService.CreateCall(r.Context(), domain.OutgoingRequest{
		Target:       req.Target,
		InitialAudio: req.InitialAudio,
		InitialVideo: req.InitialVideo,
		AudioName:    req.AudioName,
		VideoName:    req.VideoName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, props)
}

func (h *Handler) ListCalls(w http.ResponseWriter, r *http.Request) {
	calls, err := h.CallService.Calls(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

func (h *Handler) GetCall(w http.ResponseWriter, r *http.Request) {
	id, err := parseParam(r, "call", domain.ParseCallID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	props, err := h.CallService.Call(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

// callOp runs a body-less call operation and answers 204.
func (h *Handler) callOp(w http.ResponseWriter, r *http.Request, op func(domain.CallID) error) {
	id, err := parseParam(r, "call", domain.ParseCallID)
	if err == nil {
		err = op(id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.callOp(w, r, func(id domain.CallID) error {
		return h.CallService.Accept(r.Context(), id)
	})
}

func (h *Handler) SetRinging(w http.ResponseWriter, r *http.Request) {
	h.callOp(w, r, func(id domain.CallID) error {
		return h.CallService.SetRinging(r.Context(), id)
	})
}

func (h *Handler) Hangup(w http.ResponseWriter, r *http.Request) {
	h.callOp(w, r, func(id domain.CallID) error {
		var req reasonRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		code, err := req.code()
		if err != nil {
			return err
		}
		return h.CallService.Hangup(r.Context(), id, code, req.DetailedReason, req.Message)
	})
}

func (h *Handler) AddContent(w http.ResponseWriter, r *http.Request) {
	id, err := parseParam(r, "call", domain.ParseCallID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req addContentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	props, err := h.CallService.AddContent(r.Context(), id, req.Name, req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, props)
}

type contentRef struct {
	call    domain.CallID
	content domain.ContentID
}

func (h *Handler) contentOp(w http.ResponseWriter, r *http.Request, op func(contentRef) error) {
	var ref contentRef
	var err error
	if ref.call, err = parseParam(r, "call", domain.ParseCallID); err == nil {
		if ref.content, err = parseParam(r, "content", domain.ParseContentID); err == nil {
			err = op(ref)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	var props domain.ContentProperties
	h.read(w, r, func() error {
		call, err := parseParam(r, "call", domain.ParseCallID)
		if err != nil {
			return err
		}
		content, err := parseParam(r, "content", domain.ParseContentID)
		if err != nil {
			return err
		}
		props, err = h.CallService.Content(r.Context(), call, content)
		return err
	}, &props)
}

func (h *Handler) RemoveContent(w http.ResponseWriter, r *http.Request) {
	h.contentOp(w, r, func(ref contentRef) error {
		var req reasonRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		code, err := req.code()
		if err != nil {
			return err
		}
		return h.CallService.RemoveContent(r.Context(), ref.call, ref.content, code, req.DetailedReason, req.Message)
	})
}

func (h *Handler) UpdateCodecs(w http.ResponseWriter, r *http.Request) {
	h.contentOp(w, r, func(ref contentRef) error {
		var req codecsRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		return h.CallService.UpdateCodecs(r.Context(), ref.call, ref.content, req.Codecs)
	})
}

func (h *Handler) AcceptCodecOffer(w http.ResponseWriter, r *http.Request) {
	h.contentOp(w, r, func(ref contentRef) error {
		offer, err := parseParam(r, "offer", domain.ParseOfferID)
		if err != nil {
			return err
		}
		var req codecsRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		return h.CallService.AcceptCodecOffer(r.Context(), ref.call, ref.content, offer, req.Codecs)
	})
}

type streamRef struct {
	call   domain.CallID
	stream domain.StreamID
}

func (h *Handler) streamOp(w http.ResponseWriter, r *http.Request, op func(streamRef) error) {
	var ref streamRef
	var err error
	if ref.call, err = parseParam(r, "call", domain.ParseCallID); err == nil {
		if ref.stream, err = parseParam(r, "stream", domain.ParseStreamID); err == nil {
			err = op(ref)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetStream(w http.ResponseWriter, r *http.Request) {
	var props domain.StreamProperties
	h.read(w, r, func() error {
		call, err := parseParam(r, "call", domain.ParseCallID)
		if err != nil {
			return err
		}
		stream, err := parseParam(r, "stream", domain.ParseStreamID)
		if err != nil {
			return err
		}
		props, err = h.CallService.Stream(r.Context(), call, stream)
		return err
	}, &props)
}

func (h *Handler) SetSending(w http.ResponseWriter, r *http.Request) {
	h.streamOp(w, r, func(ref streamRef) error {
		var req sendingRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		return h.CallService.SetSending(r.Context(), ref.call, ref.stream, req.Sending)
	})
}

func (h *Handler) SetCredentials(w http.ResponseWriter, r *http.Request) {
	h.streamOp(w, r, func(ref streamRef) error {
		var creds domain.Credentials
		if err := decode(r, &creds); err != nil {
			return err
		}
		return h.CallService.SetCredentials(r.Context(), ref.call, ref.stream, creds)
	})
}

func (h *Handler) AddCandidates(w http.ResponseWriter, r *http.Request) {
	h.streamOp(w, r, func(ref streamRef) error {
		var req candidatesRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		return h.CallService.AddCandidates(r.Context(), ref.call, ref.stream, req.Candidates)
	})
}

func (h *Handler) CandidatesPrepared(w http.ResponseWriter, r *http.Request) {
	h.streamOp(w, r, func(ref streamRef) error {
		return h.CallService.CandidatesPrepared(r.Context(), ref.call, ref.stream)
	})
}

type endpointRef struct {
	call     domain.CallID
	endpoint domain.EndpointID
}

func (h *Handler) endpointOp(w http.ResponseWriter, r *http.Request, op func(endpointRef) error) {
	var ref endpointRef
	var err error
	if ref.call, err = parseParam(r, "call", domain.ParseCallID); err == nil {
		if ref.endpoint, err = parseParam(r, "endpoint", domain.ParseEndpointID); err == nil {
			err = op(ref)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetEndpoint(w http.ResponseWriter, r *http.Request) {
	var props domain.EndpointProperties
	h.read(w, r, func() error {
		call, err := parseParam(r, "call", domain.ParseCallID)
		if err != nil {
			return err
		}
		endpoint, err := parseParam(r, "endpoint", domain.ParseEndpointID)
		if err != nil {
			return err
		}
		props, err = h.CallService.Endpoint(r.Context(), call, endpoint)
		return err
	}, &props)
}

func (h *Handler) SetSelectedCandidate(w http.ResponseWriter, r *http.Request) {
	h.endpointOp(w, r, func(ref endpointRef) error {
		var cand domain.Candidate
		if err := decode(r, &cand); err != nil {
			return err
		}
		return h.CallService.SetSelectedCandidate(r.Context(), ref.call, ref.endpoint, cand)
	})
}

func (h *Handler) SetStreamState(w http.ResponseWriter, r *http.Request) {
	h.endpointOp(w, r, func(ref endpointRef) error {
		var req stateRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		return h.CallService.SetStreamState(r.Context(), ref.call, ref.endpoint, req.State)
	})
}

// read answers 200 with v once fn succeeded.
func (h *Handler) read(w http.ResponseWriter, r *http.Request, fn func() error, v any) {
	if err := fn(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) SetCapabilities(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "contact"))
	if err != nil {
		writeError(w, r, errors.Wrapf(domain.ErrInvalidArgument, "contact: %v", err))
		return
	}
	contact := domain.Contact(raw)
	var caps domain.PeerCapabilities
	if err := decode(r, &caps); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.CallService.SetCapabilities(r.Context(), contact, caps); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
