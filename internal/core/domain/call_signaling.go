package domain

import (
	"fmt"
	"slices"
)

func (c *Call) stanza(action Action, fill func(*Stanza)) Stanza {
	st := Stanza{
		Action:    action,
		SessionID: c.SessionID,
		Peer:      c.Peer,
		Initiator: c.Initiator(),
	}
	if fill != nil {
		fill(&st)
	}
	return st
}

func (c *Call) senders(s *Stream) Senders {
	return sendersFor(s.localSends(), s.remoteSends(), c.Requested)
}

// describe renders a content for the wire. The transport carries every local
// candidate gathered so far.
func (c *Call) describe(ct *Content, withTransport bool) ContentDescription {
	s := c.primaryStream(ct)
	desc := ContentDescription{
		Name:    ct.Name,
		Creator: ct.Creator,
		Senders: c.senders(s),
		Media:   ct.Media,
		Codecs:  cloneCodecs(ct.codecs[c.Self]),
	}
	if withTransport {
		desc.Transport = TransportDescription{
			Kind:        s.transport,
			Credentials: s.credentials,
			Candidates:  cloneCandidates(s.localCandidates),
		}
	}
	return desc
}

func (c *Call) contentReady(ct *Content) bool {
	if !ct.resolved {
		return false
	}
	for _, sid := range ct.streams {
		s := c.streams[sid]
		if len(s.localCandidates) == 0 && !s.prepared {
			return false
		}
	}
	return true
}

func (c *Call) allReady() bool {
	if len(c.order) == 0 {
		return false
	}
	for _, id := range c.order {
		if !c.contentReady(c.contents[id]) {
			return false
		}
	}
	return true
}

// advance sends whatever session signalling the current state allows and
// resolves pending sending states.
func (c *Call) advance(e *emitter) {
	if c.Ended() {
		return
	}
	switch {
	case !c.signalled:
		if !c.localAccepted || !c.allReady() {
			break
		}
		c.signalled = true
		descs := make([]ContentDescription, 0, len(c.order))
		for _, id := range c.order {
			ct := c.contents[id]
			ct.signalled = true
			descs = append(descs, c.describe(ct, true))
		}
		if c.Requested {
			e.send(c.stanza(ActionSessionInitiate, func(st *Stanza) { st.Contents = descs }))
			break
		}
		e.send(c.stanza(ActionSessionAccept, func(st *Stanza) { st.Contents = descs }))
		c.state = CallStateAccepted
		c.setReason(c.Self, ReasonUserRequested, "", "")
		c.emitCallState(e)
	default:
		for _, id := range c.order {
			ct := c.contents[id]
			if ct.signalled || !c.contentReady(ct) {
				continue
			}
			ct.signalled = true
			action := ActionContentAdd
			if ct.fromPeer {
				action = ActionContentAccept
			}
			desc := c.describe(ct, true)
			e.send(c.stanza(action, func(st *Stanza) { st.Contents = []ContentDescription{desc} }))
		}
	}
	if c.state != CallStateAccepted {
		return
	}
	for _, id := range c.order {
		for _, sid := range c.contents[id].streams {
			c.promoteSending(e, c.streams[sid])
		}
	}
}

func (c *Call) supportsTransport(kind TransportKind) bool {
	return slices.Contains(c.policy.TransportPreference, kind)
}

func validateDescriptions(descs []ContentDescription) error {
	for _, d := range descs {
		for _, cd := range d.Codecs {
			if err := cd.validate(); err != nil {
				return err
			}
		}
		for _, cand := range d.Transport.Candidates {
			if err := cand.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// NewIncomingCall builds a call from a session-initiate. When nothing in the
// offer is usable, no call is returned and the effects hold the
// session-terminate answering it.
func NewIncomingCall(policy Policy, st Stanza) (*Call, Effects, error) {
	if st.Action != ActionSessionInitiate {
		return nil, Effects{}, fmt.Errorf("%w: %s does not start a session", ErrInvalidArgument, st.Action)
	}
	if st.SessionID == "" || st.Peer == "" {
		return nil, Effects{}, fmt.Errorf("%w: session-initiate without sid or sender", ErrInvalidArgument)
	}
	if err := validateDescriptions(st.Contents); err != nil {
		return nil, Effects{}, err
	}

	apps := slices.DeleteFunc(slices.Clone(st.Contents), func(d ContentDescription) bool {
		return !slices.ContainsFunc(d.Codecs, func(cd Codec) bool { return policy.Supports(d.Media, cd) })
	})
	usable := slices.DeleteFunc(slices.Clone(apps), func(d ContentDescription) bool {
		return !slices.Contains(policy.TransportPreference, d.Transport.Kind)
	})
	if len(apps) == 0 || len(usable) == 0 {
		condition := ConditionUnsupportedApplications
		if len(apps) > 0 {
			condition = ConditionUnsupportedTransports
		}
		reply := Stanza{
			Action:    ActionSessionTerminate,
			SessionID: st.SessionID,
			Peer:      st.Peer,
			Initiator: st.Peer,
			Reason:    TerminateReason{Condition: condition},
		}
		return nil, Effects{Stanzas: []Stanza{reply}}, fmt.Errorf("%w: %s", ErrNotAvailable, condition)
	}

	kinds := make([]TransportKind, 0, len(usable))
	for _, d := range usable {
		kinds = append(kinds, d.Transport.Kind)
	}
	c := newCall(policy, st.Peer, false)
	c.SessionID = st.SessionID
	c.transport, _ = policy.SelectTransport(kinds)
	c.state = CallStatePendingReceiver
	c.setReason(st.Peer, ReasonUserRequested, "", "")

	e := c.effects()
	for _, d := range usable {
		if c.contentByName(d.Name) != nil {
			continue
		}
		c.addRemoteContent(e, d, DispositionInitial)
		switch {
		case d.Media == MediaTypeAudio && !c.initialAudio:
			c.initialAudio, c.initialAudioName = true, d.Name
		case d.Media == MediaTypeVideo && !c.initialVideo:
			c.initialVideo, c.initialVideoName = true, d.Name
		}
	}
	return c, e.out, nil
}

func (c *Call) addRemoteContent(e *emitter, d ContentDescription, disposition Disposition) *Content {
	ct := newContent(d.Name, d.Media, disposition, nameOr(d.Creator, CreatorInitiator))
	ct.fromPeer = disposition == DispositionNone
	remote := SendingStateNone
	if remoteSends(d.Senders, !c.Requested) {
		remote = SendingStateSending
	}
	c.attachContent(ct, d.Transport.Kind, remote)
	ct.offerRemoteCodecs(c.Peer, d.Codecs)
	c.emitContentAdded(e, ct)
	c.emitNewOffer(e, ct)
	c.addRemoteTransport(e, ct, d.Transport)
	return ct
}

func (c *Call) addRemoteTransport(e *emitter, ct *Content, t TransportDescription) {
	ep := c.primaryEndpoint(c.primaryStream(ct))
	if !t.Credentials.IsZero() {
		ep.remoteCredentials = t.Credentials
	}
	if len(t.Candidates) == 0 {
		return
	}
	added := ep.addRemote(t.Candidates)
	e.notify(c.endpointNotification(NotifyRemoteCandidatesAdded, ep, CandidatesAdded{Candidates: added}))
}

// applyRemoteDescription folds the directionality, codecs and transport of
// a peer answer or re-offer into a content.
func (c *Call) applyRemoteDescription(e *emitter, ct *Content, d ContentDescription) {
	s := c.primaryStream(ct)
	state := SendingStateNone
	if remoteSends(d.Senders, !c.Requested) {
		state = SendingStateSending
	}
	c.setRemoteSending(e, s, c.Peer, state)
	c.applyRemoteCodecs(e, ct, d.Codecs)
	c.addRemoteTransport(e, ct, d.Transport)
}

func (c *Call) applyRemoteCodecs(e *emitter, ct *Content, codecs []Codec) {
	if len(codecs) == 0 {
		return
	}
	if ct.offerRemoteCodecs(c.Peer, codecs) {
		c.emitNewOffer(e, ct)
	}
}

// HandleStanza applies one inbound session message to the call.
func (c *Call) HandleStanza(st Stanza) (Effects, error) {
	if st.SessionID != c.SessionID {
		return Effects{}, fmt.Errorf("%w: sid %q does not belong to call %s", ErrInvalidArgument, st.SessionID, c.ID)
	}
	if err := c.checkLive(); err != nil {
		return Effects{}, err
	}
	if err := validateDescriptions(st.Contents); err != nil {
		return Effects{}, err
	}
	e := c.effects()
	var err error
	switch st.Action {
	case ActionSessionAccept:
		err = c.onSessionAccept(e, st)
	case ActionSessionInfo:
		c.onSessionInfo(e, st)
	case ActionSessionTerminate:
		c.end(e, c.Peer, reasonFor(st.Reason.Condition), st.Reason.Condition, st.Reason.Text)
	case ActionSessionReject:
		c.end(e, c.Peer, ReasonRejected, st.Reason.Condition, st.Reason.Text)
	case ActionContentAdd:
		err = c.onContentAdd(e, st)
	case ActionContentAccept:
		c.onContentAccept(e, st)
	case ActionContentRemove:
		c.onContentRemove(e, st)
	case ActionContentModify:
		c.onContentModify(e, st)
	case ActionTransportInfo:
		c.eachContent(st, func(ct *Content, d ContentDescription) { c.addRemoteTransport(e, ct, d.Transport) })
	case ActionDescriptionInfo:
		c.eachContent(st, func(ct *Content, d ContentDescription) { c.applyRemoteCodecs(e, ct, d.Codecs) })
	case ActionSessionInitiate:
		err = fmt.Errorf("%w: session %s already initiated", ErrInvalidState, c.SessionID)
	default:
		err = fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, st.Action)
	}
	if err != nil {
		return Effects{}, err
	}
	c.advance(e)
	return e.out, nil
}

func (c *Call) eachContent(st Stanza, fn func(*Content, ContentDescription)) {
	for _, d := range st.Contents {
		if ct := c.contentByName(d.Name); ct != nil {
			fn(ct, d)
		}
	}
}

func (c *Call) onSessionAccept(e *emitter, st Stanza) error {
	if !c.Requested || c.state != CallStatePendingReceiver || !c.signalled {
		return fmt.Errorf("%w: unexpected session-accept in state %s", ErrInvalidState, c.state)
	}
	if c.members[c.Peer]&MemberFlagRinging != 0 {
		c.members[c.Peer] &^= MemberFlagRinging
		c.emitMembers(e)
	}
	c.state = CallStateAccepted
	c.setReason(c.Peer, ReasonUserRequested, "", "")
	c.emitCallState(e)
	c.eachContent(st, func(ct *Content, d ContentDescription) { c.applyRemoteDescription(e, ct, d) })
	return nil
}

func (c *Call) onSessionInfo(e *emitter, st Stanza) {
	if st.Info != InfoRinging || !c.Requested || c.members[c.Peer]&MemberFlagRinging != 0 {
		return
	}
	c.members[c.Peer] |= MemberFlagRinging
	c.emitMembers(e)
}

func (c *Call) emitMembers(e *emitter) {
	e.notify(Notification{Kind: NotifyCallMembersChanged, Payload: CallMembersChanged{
		Updated: map[Contact]MemberFlags{c.Peer: c.members[c.Peer]},
		Removed: []Contact{},
	}})
}

func (c *Call) onContentAdd(e *emitter, st Stanza) error {
	if c.state != CallStatePendingReceiver && c.state != CallStateAccepted {
		return fmt.Errorf("%w: content-add in state %s", ErrInvalidState, c.state)
	}
	for _, d := range st.Contents {
		if c.contentByName(d.Name) != nil {
			continue
		}
		condition := ""
		switch {
		case !slices.ContainsFunc(d.Codecs, func(cd Codec) bool { return c.policy.Supports(d.Media, cd) }):
			condition = ConditionUnsupportedApplications
		case !c.supportsTransport(d.Transport.Kind):
			condition = ConditionUnsupportedTransports
		}
		if condition == "" {
			c.addRemoteContent(e, d, DispositionNone)
			continue
		}
		// refused contents leave the session up
		e.send(c.stanza(ActionContentRemove, func(st *Stanza) {
			st.Contents = []ContentDescription{{Name: d.Name, Creator: d.Creator, Media: d.Media}}
			st.Reason = TerminateReason{Condition: condition}
		}))
	}
	return nil
}

func (c *Call) onContentAccept(e *emitter, st Stanza) {
	c.eachContent(st, func(ct *Content, d ContentDescription) {
		if ct.fromPeer || !ct.signalled {
			return
		}
		c.applyRemoteDescription(e, ct, d)
	})
}

func (c *Call) onContentModify(e *emitter, st Stanza) {
	c.eachContent(st, func(ct *Content, d ContentDescription) {
		state := SendingStateNone
		if remoteSends(d.Senders, !c.Requested) {
			state = SendingStateSending
		}
		c.setRemoteSending(e, c.primaryStream(ct), c.Peer, state)
	})
}

func (c *Call) onContentRemove(e *emitter, st Stanza) {
	reason := StateReason{Actor: c.Peer, Code: ReasonUserRequested}
	for _, d := range st.Contents {
		ct := c.contentByName(d.Name)
		if ct == nil {
			continue
		}
		if len(c.order) == 1 {
			c.end(e, c.Peer, ReasonUserRequested, "", "")
			e.send(c.stanza(ActionSessionTerminate, func(st *Stanza) {
				st.Reason = TerminateReason{Condition: ConditionSuccess}
			}))
			return
		}
		c.removeContent(e, ct, reason)
	}
}
