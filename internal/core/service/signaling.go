package service

import (
	"context"

	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// HandleStanza routes one inbound session stanza to its call, creating the
// call for a fresh session-initiate.
func (s *CallService) HandleStanza(ctx context.Context, st domain.Stanza) error {
	l := log.With().
		Str("contact", string(st.Peer)).
		Str("sid", st.SessionID).
		Str("action", string(st.Action)).
		Logger()

	if st.Action == domain.ActionSessionInitiate {
		handled, err := s.initiate(ctx, st)
		if handled || err != nil {
			return err
		}
	}

	call, err := s.calls.FindBySession(ctx, st.Peer, st.SessionID)
	if err != nil {
		return errors.Wrapf(err, "%s", st.Action)
	}
	l.Debug().Str("call_id", call.ID.String()).Msg("Stanza received")
	return s.withCall(ctx, call.ID, string(st.Action), func(c *domain.Call) (domain.Effects, error) {
		return c.HandleStanza(st)
	})
}

// initiate creates an incoming call. It reports false when the session
// already exists, leaving the stanza to the existing call.
func (s *CallService) initiate(ctx context.Context, st domain.Stanza) (bool, error) {
	s.sessions.Lock()
	defer s.sessions.Unlock()

	if _, err := s.calls.FindBySession(ctx, st.Peer, st.SessionID); err == nil {
		return false, nil
	}
	call, eff, err := domain.NewIncomingCall(s.policy, st)
	if call == nil {
		// the engine may still answer, e.g. with unsupported-transports
		for _, reply := range eff.Stanzas {
			if sendErr := s.sender.SendStanza(ctx, reply); sendErr != nil {
				log.Warn().Err(sendErr).Str("sid", st.SessionID).Msg("Failed to answer session-initiate")
			}
		}
		return true, errors.Wrapf(err, "session-initiate from %s", st.Peer)
	}

	unlock := s.lock(call.ID)
	defer unlock()
	if err := s.calls.Save(ctx, call); err != nil {
		return true, err
	}
	log.Info().
		Str("call_id", call.ID.String()).
		Str("contact", string(st.Peer)).
		Str("sid", st.SessionID).
		Msg("Incoming call created")
	s.dispatch(ctx, call, eff)
	return true, nil
}

func (s *CallService) SetCapabilities(ctx context.Context, contact domain.Contact, caps domain.PeerCapabilities) error {
	if contact == "" {
		return errors.Wrapf(domain.ErrInvalidArgument, "capabilities without contact")
	}
	return s.caps.SetCapabilities(ctx, contact, caps)
}

// PeerDisconnected fails every call with a peer whose signalling connection
// went away.
func (s *CallService) PeerDisconnected(ctx context.Context, contact domain.Contact) {
	calls, err := s.calls.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list calls")
		return
	}
	for _, c := range calls {
		if c.Peer.Bare() != contact.Bare() {
			continue
		}
		err := s.withCall(ctx, c.ID, "peer disconnected", func(c *domain.Call) (domain.Effects, error) {
			return c.Fail(domain.ReasonConnectionLost, "peer disconnected"), nil
		})
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Str("call_id", c.ID.String()).Msg("Failed to end call")
		}
	}
	if err := s.caps.RemoveCapabilities(ctx, contact); err != nil {
		log.Error().Err(err).Str("contact", string(contact)).Msg("Failed to drop capabilities")
	}
}
