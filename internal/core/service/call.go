package service

import (
	"context"
	"sync"

	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/Wyydra/yacall/internal/core/port"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CallService serializes every control request and inbound stanza per call,
// and drains the resulting effects to the notifier and the session sender.
type CallService struct {
	policy   domain.Policy
	calls    port.CallRepository
	caps     port.CapabilityRepository
	sender   port.SessionSender
	notifier port.Notifier

	mu    sync.Mutex
	locks map[domain.CallID]*sync.Mutex
	// sessions guards call creation from session-initiate.
	sessions sync.Mutex
}

func NewCallService(policy domain.Policy, calls port.CallRepository, caps port.CapabilityRepository,
	sender port.SessionSender, notifier port.Notifier) *CallService {
	return &CallService{
		policy:   policy,
		calls:    calls,
		caps:     caps,
		sender:   sender,
		notifier: notifier,
		locks:    make(map[domain.CallID]*sync.Mutex),
	}
}

func (s *CallService) Policy() domain.Policy {
	return s.policy
}

func (s *CallService) lock(id domain.CallID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// forget drops the lock entry of an id that resolved to no call.
func (s *CallService) forget(id domain.CallID, err error) {
	if !errors.Is(err, domain.ErrNotFound) {
		return
	}
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
}

// withCall runs op on the call under its lock, then dispatches the effects
// before the lock is released.
func (s *CallService) withCall(ctx context.Context, id domain.CallID, what string, op func(*domain.Call) (domain.Effects, error)) error {
	unlock := s.lock(id)
	defer unlock()

	call, err := s.calls.Get(ctx, id)
	if err != nil {
		s.forget(id, err)
		return err
	}
	eff, err := op(call)
	if err != nil {
		return errors.Wrapf(err, "%s on call %s", what, id)
	}
	s.dispatch(ctx, call, eff)
	return nil
}

func (s *CallService) dispatch(ctx context.Context, call *domain.Call, eff domain.Effects) {
	for _, n := range eff.Notifications {
		s.notifier.Notify(ctx, n)
	}
	var failure error
	for _, st := range eff.Stanzas {
		if err := s.sender.SendStanza(ctx, st); err != nil {
			log.Warn().Err(err).
				Str("call_id", call.ID.String()).
				Str("sid", st.SessionID).
				Str("action", string(st.Action)).
				Msg("Failed to send stanza")
			if failure == nil || errors.Is(err, domain.ErrDisconnected) {
				failure = err
			}
		}
	}
	if failure != nil && !call.Ended() {
		s.fail(ctx, call, failure)
	}
	if call.Ended() {
		s.release(ctx, call)
	}
}

// fail ends a call whose signalling could not be delivered. A peer that is
// still reachable gets a best-effort terminate.
func (s *CallService) fail(ctx context.Context, call *domain.Call, cause error) {
	code, detail := domain.ReasonFailed, "stanza could not be delivered"
	if errors.Is(cause, domain.ErrDisconnected) {
		code, detail = domain.ReasonConnectionLost, "signalling connection lost"
	}
	eff := call.Fail(code, detail)
	for _, n := range eff.Notifications {
		s.notifier.Notify(ctx, n)
	}
	if code == domain.ReasonConnectionLost {
		return
	}
	for _, st := range eff.Stanzas {
		if err := s.sender.SendStanza(ctx, st); err != nil {
			log.Debug().Err(err).Str("call_id", call.ID.String()).Msg("Failed to send terminate")
		}
	}
}

// release drops an ended call from the registry. Its lock entry goes with it;
// a waiter still holding the old mutex finds the call gone.
func (s *CallService) release(ctx context.Context, call *domain.Call) {
	if err := s.calls.Delete(ctx, call.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Error().Err(err).Str("call_id", call.ID.String()).Msg("Failed to release call")
		return
	}
	s.mu.Lock()
	delete(s.locks, call.ID)
	s.mu.Unlock()
	log.Info().
		Str("call_id", call.ID.String()).
		Str("reason", call.Properties().CallStateReason.Code.String()).
		Msg("Call released")
}

// CreateCall places an outgoing call.
func (s *CallService) CreateCall(ctx context.Context, req domain.OutgoingRequest) (domain.CallProperties, error) {
	if req.Target != "" && !s.sender.Connected(req.Target) {
		return domain.CallProperties{}, errors.Wrapf(domain.ErrDisconnected, "no signalling connection to %s", req.Target)
	}
	caps, err := s.caps.Capabilities(ctx, req.Target)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.CallProperties{}, err
	}
	call, eff, err := domain.NewOutgoingCall(s.policy, caps, req)
	if err != nil {
		return domain.CallProperties{}, errors.Wrapf(err, "create call to %s", req.Target)
	}

	unlock := s.lock(call.ID)
	defer unlock()
	if err := s.calls.Save(ctx, call); err != nil {
		return domain.CallProperties{}, err
	}
	log.Info().Str("call_id", call.ID.String()).Str("contact", string(req.Target)).Msg("Outgoing call created")
	s.dispatch(ctx, call, eff)
	return call.Properties(), nil
}

func (s *CallService) Accept(ctx context.Context, id domain.CallID) error {
	return s.withCall(ctx, id, "accept", (*domain.Call).Accept)
}

func (s *CallService) SetRinging(ctx context.Context, id domain.CallID) error {
	return s.withCall(ctx, id, "ringing", (*domain.Call).SetRinging)
}

func (s *CallService) Hangup(ctx context.Context, id domain.CallID, code domain.ReasonCode, detail, message string) error {
	return s.withCall(ctx, id, "hangup", func(c *domain.Call) (domain.Effects, error) {
		return c.Hangup(code, detail, message)
	})
}

func (s *CallService) AddContent(ctx context.Context, id domain.CallID, name string, media domain.MediaType) (domain.ContentProperties, error) {
	var props domain.ContentProperties
	err := s.withCall(ctx, id, "add content", func(c *domain.Call) (domain.Effects, error) {
		caps, err := s.caps.Capabilities(ctx, c.Peer)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.Effects{}, err
		}
		cid, eff, err := c.AddContent(name, media, caps)
		if err != nil {
			return eff, err
		}
		props, err = c.Content(cid)
		return eff, err
	})
	return props, err
}

func (s *CallService) RemoveContent(ctx context.Context, id domain.CallID, content domain.ContentID, code domain.ReasonCode, detail, message string) error {
	return s.withCall(ctx, id, "remove content", func(c *domain.Call) (domain.Effects, error) {
		return c.RemoveContent(content, code, detail, message)
	})
}

func (s *CallService) AcceptCodecOffer(ctx context.Context, id domain.CallID, content domain.ContentID, offer domain.OfferID, codecs []domain.Codec) error {
	return s.withCall(ctx, id, "accept codec offer", func(c *domain.Call) (domain.Effects, error) {
		return c.AcceptCodecOffer(content, offer, codecs)
	})
}

func (s *CallService) UpdateCodecs(ctx context.Context, id domain.CallID, content domain.ContentID, codecs []domain.Codec) error {
	return s.withCall(ctx, id, "update codecs", func(c *domain.Call) (domain.Effects, error) {
		return c.UpdateCodecs(content, codecs)
	})
}

func (s *CallService) SetSending(ctx context.Context, id domain.CallID, stream domain.StreamID, send bool) error {
	return s.withCall(ctx, id, "set sending", func(c *domain.Call) (domain.Effects, error) {
		return c.SetSending(stream, send)
	})
}

func (s *CallService) SetCredentials(ctx context.Context, id domain.CallID, stream domain.StreamID, creds domain.Credentials) error {
	return s.withCall(ctx, id, "set credentials", func(c *domain.Call) (domain.Effects, error) {
		return c.SetCredentials(stream, creds)
	})
}

func (s *CallService) AddCandidates(ctx context.Context, id domain.CallID, stream domain.StreamID, cands []domain.Candidate) error {
	return s.withCall(ctx, id, "add candidates", func(c *domain.Call) (domain.Effects, error) {
		return c.AddCandidates(stream, cands)
	})
}

func (s *CallService) CandidatesPrepared(ctx context.Context, id domain.CallID, stream domain.StreamID) error {
	return s.withCall(ctx, id, "candidates prepared", func(c *domain.Call) (domain.Effects, error) {
		return c.CandidatesPrepared(stream)
	})
}

func (s *CallService) SetSelectedCandidate(ctx context.Context, id domain.CallID, endpoint domain.EndpointID, cand domain.Candidate) error {
	return s.withCall(ctx, id, "select candidate", func(c *domain.Call) (domain.Effects, error) {
		return c.SetSelectedCandidate(endpoint, cand)
	})
}

func (s *CallService) SetStreamState(ctx context.Context, id domain.CallID, endpoint domain.EndpointID, state domain.StreamState) error {
	return s.withCall(ctx, id, "set stream state", func(c *domain.Call) (domain.Effects, error) {
		return c.SetStreamState(endpoint, state)
	})
}
