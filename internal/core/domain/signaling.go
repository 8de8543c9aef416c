package domain

// Action is a session-protocol verb, shared by inbound and outbound stanzas.
type Action string

const (
	ActionSessionInitiate  Action = "session-initiate"
	ActionSessionAccept    Action = "session-accept"
	ActionSessionInfo      Action = "session-info"
	ActionSessionTerminate Action = "session-terminate"
	ActionSessionReject    Action = "session-reject"
	ActionContentAdd       Action = "content-add"
	ActionContentAccept    Action = "content-accept"
	ActionContentRemove    Action = "content-remove"
	ActionContentModify    Action = "content-modify"
	ActionTransportInfo    Action = "transport-info"
	ActionDescriptionInfo  Action = "description-info"
)

// Senders is the directionality attribute of a content.
type Senders string

const (
	SendersBoth      Senders = "both"
	SendersInitiator Senders = "initiator"
	SendersResponder Senders = "responder"
	SendersNone      Senders = "none"
)

const (
	CreatorInitiator = "initiator"
	CreatorResponder = "responder"
)

const InfoRinging = "ringing"

// Terminate conditions understood and produced by the engine.
const (
	ConditionSuccess                 = "success"
	ConditionDecline                 = "decline"
	ConditionBusy                    = "busy"
	ConditionTimeout                 = "timeout"
	ConditionConnectivityError       = "connectivity-error"
	ConditionFailedApplication       = "failed-application"
	ConditionUnsupportedApplications = "unsupported-applications"
	ConditionUnsupportedTransports   = "unsupported-transports"
	ConditionGeneralError            = "general-error"
)

type TerminateReason struct {
	Condition string
	Text      string
}

type TransportDescription struct {
	Kind        TransportKind
	Credentials Credentials
	Candidates  []Candidate
}

type ContentDescription struct {
	Name      string
	Creator   string
	Senders   Senders
	Media     MediaType
	Codecs    []Codec
	Transport TransportDescription
}

// Stanza is a dialect-free session message. Peer is the remote party: the
// recipient of outbound stanzas and the sender of inbound ones.
type Stanza struct {
	Action    Action
	SessionID string
	Peer      Contact
	Initiator Contact
	Contents  []ContentDescription
	Info      string
	Reason    TerminateReason
}

// remoteSends reports whether a senders attribute lets the remote side send,
// given which side initiated the session.
func remoteSends(s Senders, remoteIsInitiator bool) bool {
	switch s {
	case SendersBoth, "":
		return true
	case SendersInitiator:
		return remoteIsInitiator
	case SendersResponder:
		return !remoteIsInitiator
	default:
		return false
	}
}

func sendersFor(localSends, remoteSends, localIsInitiator bool) Senders {
	switch {
	case localSends && remoteSends:
		return SendersBoth
	case !localSends && !remoteSends:
		return SendersNone
	case localSends == localIsInitiator:
		return SendersInitiator
	default:
		return SendersResponder
	}
}
