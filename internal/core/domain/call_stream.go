package domain

import "fmt"

func (c *Call) streamNotification(kind NotificationKind, s *Stream, payload any) Notification {
	return Notification{Kind: kind, ContentID: s.ContentID, StreamID: s.ID, Payload: payload}
}

func (c *Call) endpointNotification(kind NotificationKind, ep *Endpoint, payload any) Notification {
	s := c.streams[ep.StreamID]
	return Notification{Kind: kind, ContentID: s.ContentID, StreamID: s.ID, EndpointID: ep.ID, Payload: payload}
}

func (c *Call) setLocalSending(e *emitter, s *Stream, state SendingState) {
	if s.localSending == state {
		return
	}
	s.localSending = state
	e.notify(c.streamNotification(NotifyLocalSendingStateChanged, s, LocalSendingStateChanged{State: state}))
}

func (c *Call) setRemoteSending(e *emitter, s *Stream, who Contact, state SendingState) {
	if cur, ok := s.remoteMembers[who]; ok && cur == state {
		return
	}
	s.remoteMembers[who] = state
	e.notify(c.streamNotification(NotifyRemoteMembersChanged, s, RemoteMembersChanged{
		Updated: map[Contact]SendingState{who: state},
		Removed: []Contact{},
	}))
}

// SetSending drives the local sending direction of a stream.
func (c *Call) SetSending(id StreamID, send bool) (Effects, error) {
	if err := c.checkLive(); err != nil {
		return Effects{}, err
	}
	s, err := c.stream(id)
	if err != nil {
		return Effects{}, err
	}
	e := c.effects()
	before := s.localSends()
	if send {
		if s.localSending == SendingStateNone || s.localSending == SendingStatePendingStopSending {
			c.setLocalSending(e, s, SendingStatePendingSend)
		}
		c.promoteSending(e, s)
	} else {
		switch s.localSending {
		case SendingStateSending:
			c.setLocalSending(e, s, SendingStatePendingStopSending)
			c.setLocalSending(e, s, SendingStateNone)
		case SendingStatePendingSend:
			c.setLocalSending(e, s, SendingStateNone)
		}
	}
	ct := c.contents[s.ContentID]
	if ct.signalled && before != s.localSends() {
		e.send(c.stanza(ActionContentModify, func(st *Stanza) {
			st.Contents = []ContentDescription{{
				Name:    ct.Name,
				Creator: ct.Creator,
				Media:   ct.Media,
				Senders: c.senders(s),
			}}
		}))
	}
	return e.out, nil
}

// promoteSending resolves PendingSend once the call is accepted and the
// transport can carry media.
func (c *Call) promoteSending(e *emitter, s *Stream) {
	if c.state == CallStateAccepted && s.localSending == SendingStatePendingSend && s.transportReady() {
		c.setLocalSending(e, s, SendingStateSending)
	}
}

func (c *Call) SetCredentials(id StreamID, creds Credentials) (Effects, error) {
	if err := c.checkLive(); err != nil {
		return Effects{}, err
	}
	s, err := c.stream(id)
	if err != nil {
		return Effects{}, err
	}
	if creds.Username == "" || creds.Password == "" {
		return Effects{}, fmt.Errorf("%w: credentials need both username and password", ErrInvalidArgument)
	}
	if s.prepared {
		return Effects{}, fmt.Errorf("%w: candidates of stream %s are already prepared", ErrInvalidState, s.ID)
	}
	e := c.effects()
	s.credentials = creds
	e.notify(c.streamNotification(NotifyLocalCredentialsChanged, s, LocalCredentialsChanged{Credentials: creds}))
	c.advance(e)
	return e.out, nil
}

// AddCandidates appends local candidates. Duplicates are kept.
func (c *Call) AddCandidates(id StreamID, cands []Candidate) (Effects, error) {
	if err := c.checkLive(); err != nil {
		return Effects{}, err
	}
	s, err := c.stream(id)
	if err != nil {
		return Effects{}, err
	}
	if err := validateCandidates(cands); err != nil {
		return Effects{}, err
	}
	e := c.effects()
	added := cloneCandidates(cands)
	s.localCandidates = append(s.localCandidates, added...)
	for _, eid := range s.endpoints {
		ep := c.endpoints[eid]
		ep.localCandidates = append(ep.localCandidates, cloneCandidates(added)...)
	}
	e.notify(c.streamNotification(NotifyLocalCandidatesAdded, s, CandidatesAdded{Candidates: cloneCandidates(added)}))

	ct := c.contents[s.ContentID]
	if ct.signalled {
		e.send(c.stanza(ActionTransportInfo, func(st *Stanza) {
			st.Contents = []ContentDescription{{
				Name:    ct.Name,
				Creator: ct.Creator,
				Media:   ct.Media,
				Transport: TransportDescription{
					Kind:        s.transport,
					Credentials: s.credentials,
					Candidates:  cloneCandidates(added),
				},
			}}
		}))
	}
	c.advance(e)
	return e.out, nil
}

// CandidatesPrepared marks the local candidate round as complete. Repeated
// calls are no-ops.
func (c *Call) CandidatesPrepared(id StreamID) (Effects, error) {
	if err := c.checkLive(); err != nil {
		return Effects{}, err
	}
	s, err := c.stream(id)
	if err != nil {
		return Effects{}, err
	}
	e := c.effects()
	if s.prepared {
		return e.out, nil
	}
	s.prepared = true
	c.advance(e)
	return e.out, nil
}

func (c *Call) SetSelectedCandidate(id EndpointID, cand Candidate) (Effects, error) {
	if err := c.checkLive(); err != nil {
		return Effects{}, err
	}
	ep, err := c.endpoint(id)
	if err != nil {
		return Effects{}, err
	}
	if cand.Component == 0 {
		return Effects{}, fmt.Errorf("%w: candidate component must be positive", ErrInvalidArgument)
	}
	e := c.effects()
	for _, sel := range ep.selectCandidate(cand, c.policy.Paired(ep.transport)) {
		e.notify(c.endpointNotification(NotifyCandidateSelected, ep, CandidateSelected{Candidate: sel}))
	}
	return e.out, nil
}

func (c *Call) SetStreamState(id EndpointID, state StreamState) (Effects, error) {
	if err := c.checkLive(); err != nil {
		return Effects{}, err
	}
	ep, err := c.endpoint(id)
	if err != nil {
		return Effects{}, err
	}
	changed, err := ep.setState(state)
	if err != nil {
		return Effects{}, err
	}
	e := c.effects()
	if changed {
		e.notify(c.endpointNotification(NotifyStreamStateChanged, ep, StreamStateChanged{State: state}))
	}
	if state == StreamStateFailed {
		// a failed path with no working sibling loses the call
		if !c.anyEndpointUsable() {
			c.terminateLocally(e, ReasonConnectionLost, "stream-failed", "")
		}
	}
	return e.out, nil
}

func (c *Call) anyEndpointUsable() bool {
	for _, ep := range c.endpoints {
		if ep.state != StreamStateFailed {
			return true
		}
	}
	return false
}
