package domain

import (
	"fmt"
	"maps"
	"slices"
)

// Call is the arena that owns every content, stream and endpoint of one
// session. Children refer to their parent by id only. A Call is not safe for
// concurrent use; callers serialize access per call.
type Call struct {
	ID        CallID
	SessionID string
	Self      Contact
	Peer      Contact
	// Requested is true for calls the local side placed.
	Requested bool

	policy    Policy
	transport TransportKind

	state   CallState
	flags   CallFlags
	reason  StateReason
	details map[string]string
	members map[Contact]MemberFlags

	initialAudio     bool
	initialVideo     bool
	initialAudioName string
	initialVideoName string

	order     []ContentID
	contents  map[ContentID]*Content
	streams   map[StreamID]*Stream
	endpoints map[EndpointID]*Endpoint

	localAccepted bool
	// signalled is set once session-initiate (outgoing) or session-accept
	// (incoming) went out.
	signalled bool
	seq       uint64
}

// OutgoingRequest describes a call the local side wants to place.
type OutgoingRequest struct {
	Target       Contact
	InitialAudio bool
	InitialVideo bool
	AudioName    string
	VideoName    string
}

func newCall(policy Policy, peer Contact, requested bool) *Call {
	return &Call{
		ID:        NewCallID(),
		Self:      policy.Self,
		Peer:      peer,
		Requested: requested,
		policy:    policy,
		details:   map[string]string{},
		members:   map[Contact]MemberFlags{peer: 0},
		contents:  make(map[ContentID]*Content),
		streams:   make(map[StreamID]*Stream),
		endpoints: make(map[EndpointID]*Endpoint),
	}
}

// NewOutgoingCall creates a call in PendingInitiator with one Initial
// content per requested media type.
func NewOutgoingCall(policy Policy, caps PeerCapabilities, req OutgoingRequest) (*Call, Effects, error) {
	if req.Target == "" {
		return nil, Effects{}, fmt.Errorf("%w: no target", ErrInvalidArgument)
	}
	if !req.InitialAudio && !req.InitialVideo {
		return nil, Effects{}, fmt.Errorf("%w: neither audio nor video requested", ErrInvalidArgument)
	}
	if !caps.Calls {
		return nil, Effects{}, fmt.Errorf("%w: %s does not support calls", ErrNotAvailable, req.Target)
	}
	if req.InitialAudio && !caps.Audio {
		return nil, Effects{}, fmt.Errorf("%w: %s does not support audio", ErrNotAvailable, req.Target)
	}
	if req.InitialVideo && !caps.Video {
		return nil, Effects{}, fmt.Errorf("%w: %s does not support video", ErrNotAvailable, req.Target)
	}
	kind, ok := policy.SelectTransport(caps.Transports)
	if !ok {
		return nil, Effects{}, fmt.Errorf("%w: no common transport with %s", ErrNotAvailable, req.Target)
	}

	c := newCall(policy, req.Target, true)
	c.SessionID = NewSessionID()
	c.transport = kind
	c.state = CallStatePendingInitiator
	c.initialAudio = req.InitialAudio
	c.initialVideo = req.InitialVideo

	e := c.effects()
	if req.InitialAudio {
		c.initialAudioName = nameOr(req.AudioName, "audio")
		c.addLocalContent(e, c.initialAudioName, MediaTypeAudio, DispositionInitial)
	}
	if req.InitialVideo {
		c.initialVideoName = nameOr(req.VideoName, "video")
		c.addLocalContent(e, c.initialVideoName, MediaTypeVideo, DispositionInitial)
	}
	return c, e.out, nil
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func (c *Call) State() CallState {
	return c.state
}

func (c *Call) Ended() bool {
	return c.state == CallStateEnded
}

func (c *Call) Initiator() Contact {
	if c.Requested {
		return c.Self
	}
	return c.Peer
}

type CallProperties struct {
	ID                CallID                  `json:"id"`
	SessionID         string                  `json:"session_id"`
	Contents          []ContentID             `json:"contents"`
	CallMembers       map[Contact]MemberFlags `json:"call_members"`
	CallState         CallState               `json:"call_state"`
	CallFlags         CallFlags               `json:"call_flags"`
	CallStateReason   StateReason             `json:"call_state_reason"`
	CallStateDetails  map[string]string       `json:"call_state_details"`
	HardwareStreaming bool                    `json:"hardware_streaming"`
	InitialAudio      bool                    `json:"initial_audio"`
	InitialAudioName  string                  `json:"initial_audio_name"`
	InitialVideo      bool                    `json:"initial_video"`
	InitialVideoName  string                  `json:"initial_video_name"`
	MutableContents   bool                    `json:"mutable_contents"`
	Requested         bool                    `json:"requested"`
	Initiator         Contact                 `json:"initiator"`
	Target            Contact                 `json:"target"`
}

func (c *Call) Properties() CallProperties {
	return CallProperties{
		ID:               c.ID,
		SessionID:        c.SessionID,
		Contents:         slices.Clone(c.order),
		CallMembers:      maps.Clone(c.members),
		CallState:        c.state,
		CallFlags:        c.flags,
		CallStateReason:  c.reason,
		CallStateDetails: maps.Clone(c.details),
		InitialAudio:     c.initialAudio,
		InitialAudioName: c.initialAudioName,
		InitialVideo:     c.initialVideo,
		InitialVideoName: c.initialVideoName,
		MutableContents:  true,
		Requested:        c.Requested,
		Initiator:        c.Initiator(),
		Target:           c.Peer,
	}
}

func (c *Call) Content(id ContentID) (ContentProperties, error) {
	ct, err := c.content(id)
	if err != nil {
		return ContentProperties{}, err
	}
	return ct.properties(), nil
}

func (c *Call) Stream(id StreamID) (StreamProperties, error) {
	s, err := c.stream(id)
	if err != nil {
		return StreamProperties{}, err
	}
	return s.properties(), nil
}

func (c *Call) Endpoint(id EndpointID) (EndpointProperties, error) {
	ep, err := c.endpoint(id)
	if err != nil {
		return EndpointProperties{}, err
	}
	return ep.properties(), nil
}

// ContentByName finds a content by its session name.
func (c *Call) ContentByName(name string) (ContentProperties, bool) {
	ct := c.contentByName(name)
	if ct == nil {
		return ContentProperties{}, false
	}
	return ct.properties(), true
}

func (c *Call) content(id ContentID) (*Content, error) {
	ct, ok := c.contents[id]
	if !ok {
		return nil, fmt.Errorf("%w: content %s", ErrNotFound, id)
	}
	return ct, nil
}

func (c *Call) stream(id StreamID) (*Stream, error) {
	s, ok := c.streams[id]
	if !ok {
		return nil, fmt.Errorf("%w: stream %s", ErrNotFound, id)
	}
	return s, nil
}

func (c *Call) endpoint(id EndpointID) (*Endpoint, error) {
	ep, ok := c.endpoints[id]
	if !ok {
		return nil, fmt.Errorf("%w: endpoint %s", ErrNotFound, id)
	}
	return ep, nil
}

func (c *Call) contentByName(name string) *Content {
	for _, id := range c.order {
		if ct := c.contents[id]; ct.Name == name {
			return ct
		}
	}
	return nil
}

// primaryStream returns the single stream a content owns.
func (c *Call) primaryStream(ct *Content) *Stream {
	return c.streams[ct.streams[0]]
}

func (c *Call) primaryEndpoint(s *Stream) *Endpoint {
	return c.endpoints[s.endpoints[0]]
}

func (c *Call) checkLive() error {
	if c.state == CallStateEnded {
		return fmt.Errorf("%w: call %s has ended", ErrInvalidState, c.ID)
	}
	return nil
}

// Accept records local acceptance. Outgoing calls move to PendingReceiver;
// incoming calls move to Accepted once every content is ready.
func (c *Call) Accept() (Effects, error) {
	if err := c.checkLive(); err != nil {
		return Effects{}, err
	}
	if c.localAccepted {
		return Effects{}, fmt.Errorf("%w: call %s already accepted", ErrInvalidState, c.ID)
	}
	e := c.effects()
	c.localAccepted = true
	c.flags &^= FlagRinging
	if c.Requested {
		c.state = CallStatePendingReceiver
	}
	c.setReason(c.Self, ReasonUserRequested, "", "")
	c.emitCallState(e)
	c.advance(e)
	return e.out, nil
}

// SetRinging marks the local side as ringing on an incoming call.
func (c *Call) SetRinging() (Effects, error) {
	if err := c.checkLive(); err != nil {
		return Effects{}, err
	}
	if c.Requested || c.state != CallStatePendingReceiver || c.localAccepted {
		return Effects{}, fmt.Errorf("%w: call %s cannot ring in state %s", ErrInvalidState, c.ID, c.state)
	}
	e := c.effects()
	if c.flags&FlagRinging != 0 {
		return e.out, nil
	}
	c.flags |= FlagRinging
	c.emitCallState(e)
	e.send(c.stanza(ActionSessionInfo, func(st *Stanza) { st.Info = InfoRinging }))
	return e.out, nil
}

// Hangup ends the call on behalf of the local user.
func (c *Call) Hangup(code ReasonCode, detail, message string) (Effects, error) {
	if err := c.checkLive(); err != nil {
		return Effects{}, err
	}
	if code == ReasonUnknown {
		code = ReasonUserRequested
	}
	e := c.effects()
	c.terminateLocally(e, code, detail, message)
	return e.out, nil
}

// Fail forces the call to Ended, for transport loss or signalling timeouts.
// Failing an ended call is a no-op.
func (c *Call) Fail(code ReasonCode, detail string) Effects {
	if c.Ended() {
		return Effects{}
	}
	if code == ReasonUnknown {
		code = ReasonFailed
	}
	e := c.effects()
	c.terminateLocally(e, code, detail, "")
	return e.out
}

func (c *Call) terminateLocally(e *emitter, code ReasonCode, detail, message string) {
	condition := conditionFor(code)
	if !c.Requested && !c.localAccepted && code == ReasonUserRequested {
		condition = ConditionDecline
	}
	sent := c.signalled || !c.Requested
	c.end(e, c.Self, code, detail, message)
	if sent {
		e.send(c.stanza(ActionSessionTerminate, func(st *Stanza) {
			st.Reason = TerminateReason{Condition: condition, Text: message}
		}))
	}
}

func (c *Call) end(e *emitter, actor Contact, code ReasonCode, detail, message string) {
	c.state = CallStateEnded
	c.flags = 0
	c.setReason(actor, code, detail, message)
	c.emitCallState(e)
}

func (c *Call) setReason(actor Contact, code ReasonCode, detail, message string) {
	c.reason = StateReason{Actor: actor, Code: code, Error: detail, Message: message}
	c.details = map[string]string{}
	if detail != "" {
		c.details["detailed-reason"] = detail
	}
	if message != "" {
		c.details["debug-message"] = message
	}
}

func (c *Call) emitCallState(e *emitter) {
	e.notify(Notification{Kind: NotifyCallStateChanged, Payload: CallStateChanged{
		State:   c.state,
		Flags:   c.flags,
		Reason:  c.reason,
		Details: maps.Clone(c.details),
	}})
}

func conditionFor(code ReasonCode) string {
	switch code {
	case ReasonUserRequested:
		return ConditionSuccess
	case ReasonRejected:
		return ConditionDecline
	case ReasonNoAnswer:
		return ConditionTimeout
	case ReasonConnectionLost:
		return ConditionConnectivityError
	case ReasonFailed:
		return ConditionFailedApplication
	default:
		return ConditionGeneralError
	}
}

func reasonFor(condition string) ReasonCode {
	switch condition {
	case ConditionDecline, ConditionBusy:
		return ReasonRejected
	case ConditionTimeout:
		return ReasonNoAnswer
	case ConditionConnectivityError:
		return ReasonConnectionLost
	case ConditionFailedApplication, ConditionGeneralError:
		return ReasonFailed
	default:
		return ReasonUserRequested
	}
}

// emitter collects the effects of one operation and numbers notifications.
type emitter struct {
	call *Call
	out  Effects
}

func (c *Call) effects() *emitter {
	return &emitter{call: c}
}

func (e *emitter) notify(n Notification) {
	e.call.seq++
	n.Seq = e.call.seq
	n.CallID = e.call.ID
	e.out.Notifications = append(e.out.Notifications, n)
}

func (e *emitter) send(st Stanza) {
	e.out.Stanzas = append(e.out.Stanzas, st)
}
