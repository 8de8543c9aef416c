package domain

type NotificationKind string

const (
	NotifyCallStateChanged         NotificationKind = "CallStateChanged"
	NotifyCallMembersChanged       NotificationKind = "CallMembersChanged"
	NotifyContentAdded             NotificationKind = "ContentAdded"
	NotifyContentRemoved           NotificationKind = "ContentRemoved"
	NotifyNewCodecOffer            NotificationKind = "NewCodecOffer"
	NotifyCodecsChanged            NotificationKind = "CodecsChanged"
	NotifyLocalSendingStateChanged NotificationKind = "LocalSendingStateChanged"
	NotifyRemoteMembersChanged     NotificationKind = "RemoteMembersChanged"
	NotifyLocalCredentialsChanged  NotificationKind = "LocalCredentialsChanged"
	NotifyLocalCandidatesAdded     NotificationKind = "LocalCandidatesAdded"
	NotifyRemoteCandidatesAdded    NotificationKind = "RemoteCandidatesAdded"
	NotifyCandidateSelected        NotificationKind = "CandidateSelected"
	NotifyStreamStateChanged       NotificationKind = "StreamStateChanged"
)

// Notification is one control-API change event. Seq increases by one per
// call, in emission order.
type Notification struct {
	Kind       NotificationKind `json:"kind"`
	Seq        uint64           `json:"seq"`
	CallID     CallID           `json:"call_id"`
	ContentID  ContentID        `json:"content_id,omitzero"`
	StreamID   StreamID         `json:"stream_id,omitzero"`
	EndpointID EndpointID       `json:"endpoint_id,omitzero"`
	Payload    any              `json:"payload"`
}

type CallStateChanged struct {
	State   CallState         `json:"state"`
	Flags   CallFlags         `json:"flags"`
	Reason  StateReason       `json:"reason"`
	Details map[string]string `json:"details"`
}

type CallMembersChanged struct {
	Updated map[Contact]MemberFlags `json:"updated"`
	Removed []Contact               `json:"removed"`
}

type ContentAdded struct {
	Name string    `json:"name"`
	Type MediaType `json:"type"`
}

type ContentRemoved struct {
	Reason StateReason `json:"reason"`
}

type NewCodecOffer struct {
	Offer        OfferID  `json:"offer"`
	Remote       Contact  `json:"remote"`
	RemoteCodecs CodecMap `json:"remote_codecs"`
}

type CodecsChanged struct {
	Updated CodecMap  `json:"updated"`
	Removed []Contact `json:"removed"`
}

type LocalSendingStateChanged struct {
	State SendingState `json:"state"`
}

type RemoteMembersChanged struct {
	Updated map[Contact]SendingState `json:"updated"`
	Removed []Contact                `json:"removed"`
}

type LocalCredentialsChanged struct {
	Credentials Credentials `json:"credentials"`
}

type CandidatesAdded struct {
	Candidates []Candidate `json:"candidates"`
}

type CandidateSelected struct {
	Candidate Candidate `json:"candidate"`
}

type StreamStateChanged struct {
	State StreamState `json:"state"`
}

// Effects is everything a mutating operation produced, in order. The
// service drains it to the notifier and the session sender.
type Effects struct {
	Notifications []Notification
	Stanzas       []Stanza
}

func (e Effects) Empty() bool {
	return len(e.Notifications) == 0 && len(e.Stanzas) == 0
}

// Kinds lists the notification kinds in order; handy in logs and tests.
func (e Effects) Kinds() []NotificationKind {
	out := make([]NotificationKind, len(e.Notifications))
	for i, n := range e.Notifications {
		out[i] = n.Kind
	}
	return out
}
