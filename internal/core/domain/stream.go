package domain

import "maps"

// Stream is the single media flow of a content.
type Stream struct {
	ID        StreamID
	ContentID ContentID

	remoteMembers   map[Contact]SendingState
	localSending    SendingState
	credentials     Credentials
	localCandidates []Candidate
	prepared        bool
	endpoints       []EndpointID
	transport       TransportKind
}

func newStream(content ContentID, kind TransportKind, peer Contact, remote SendingState) *Stream {
	return &Stream{
		ID:            NewStreamID(),
		ContentID:     content,
		remoteMembers: map[Contact]SendingState{peer: remote},
		localSending:  SendingStatePendingSend,
		transport:     kind,
	}
}

type StreamProperties struct {
	ID                 StreamID                 `json:"id"`
	Content            ContentID                `json:"content"`
	RemoteMembers      map[Contact]SendingState `json:"remote_members"`
	LocalSendingState  SendingState             `json:"local_sending_state"`
	LocalCredentials   Credentials              `json:"local_credentials"`
	LocalCandidates    []Candidate              `json:"local_candidates"`
	Endpoints          []EndpointID             `json:"endpoints"`
	Transport          TransportKind            `json:"transport"`
	CandidatesPrepared bool                     `json:"candidates_prepared"`
}

func (s *Stream) properties() StreamProperties {
	return StreamProperties{
		ID:                 s.ID,
		Content:            s.ContentID,
		RemoteMembers:      maps.Clone(s.remoteMembers),
		LocalSendingState:  s.localSending,
		LocalCredentials:   s.credentials,
		LocalCandidates:    cloneCandidates(s.localCandidates),
		Endpoints:          append([]EndpointID(nil), s.endpoints...),
		Transport:          s.transport,
		CandidatesPrepared: s.prepared,
	}
}

// transportReady reports whether the local side can start sending.
func (s *Stream) transportReady() bool {
	if len(s.localCandidates) == 0 {
		return false
	}
	return !s.transport.UsesCredentials() || !s.credentials.IsZero()
}

func (s *Stream) localSends() bool {
	return s.localSending == SendingStatePendingSend || s.localSending == SendingStateSending
}

func (s *Stream) remoteSends() bool {
	for _, st := range s.remoteMembers {
		if st == SendingStatePendingSend || st == SendingStateSending {
			return true
		}
	}
	return false
}
