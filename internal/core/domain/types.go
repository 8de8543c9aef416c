package domain

import "fmt"

type CallState int

const (
	CallStateUnknown CallState = iota
	CallStatePendingInitiator
	CallStatePendingReceiver
	CallStateAccepted
	CallStateEnded
)

func (s CallState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s CallState) String() string {
	switch s {
	case CallStatePendingInitiator:
		return "pending-initiator"
	case CallStatePendingReceiver:
		return "pending-receiver"
	case CallStateAccepted:
		return "accepted"
	case CallStateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// CallFlags is a bitmask over the local side of the call.
type CallFlags uint32

const (
	FlagRinging CallFlags = 1 << iota
)

// MemberFlags is a bitmask over one remote member.
type MemberFlags uint32

const (
	MemberFlagRinging MemberFlags = 1 << iota
)

type MediaType int

const (
	MediaTypeAudio MediaType = iota
	MediaTypeVideo
)

func (m MediaType) String() string {
	switch m {
	case MediaTypeAudio:
		return "audio"
	case MediaTypeVideo:
		return "video"
	default:
		return fmt.Sprintf("media(%d)", int(m))
	}
}

func ParseMediaType(s string) (MediaType, error) {
	switch s {
	case "audio":
		return MediaTypeAudio, nil
	case "video":
		return MediaTypeVideo, nil
	}
	return 0, fmt.Errorf("%w: media type %q", ErrInvalidArgument, s)
}

func (m MediaType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MediaType) UnmarshalText(b []byte) error {
	v, err := ParseMediaType(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

type Disposition int

const (
	DispositionNone Disposition = iota
	DispositionInitial
)

func (d Disposition) MarshalText() ([]byte, error) {
	if d == DispositionInitial {
		return []byte("initial"), nil
	}
	return []byte("none"), nil
}

type SendingState int

const (
	SendingStateNone SendingState = iota
	SendingStatePendingSend
	SendingStateSending
	SendingStatePendingStopSending
)

func (s SendingState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s SendingState) String() string {
	switch s {
	case SendingStateNone:
		return "none"
	case SendingStatePendingSend:
		return "pending-send"
	case SendingStateSending:
		return "sending"
	case SendingStatePendingStopSending:
		return "pending-stop-sending"
	default:
		return "unknown"
	}
}

// StreamState is the connectivity state of an endpoint.
type StreamState int

const (
	StreamStateDisconnected StreamState = iota
	StreamStateConnecting
	StreamStateConnected
	StreamStateFailed
)

func (s StreamState) Valid() bool {
	return s >= StreamStateDisconnected && s <= StreamStateFailed
}

var streamStateNames = []string{"disconnected", "connecting", "connected", "failed"}

func (s StreamState) String() string {
	if !s.Valid() {
		return fmt.Sprintf("stream-state(%d)", int(s))
	}
	return streamStateNames[s]
}

func ParseStreamState(v string) (StreamState, error) {
	for i, name := range streamStateNames {
		if name == v {
			return StreamState(i), nil
		}
	}
	return 0, fmt.Errorf("%w: stream state %q", ErrInvalidArgument, v)
}

func (s StreamState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *StreamState) UnmarshalText(b []byte) error {
	v, err := ParseStreamState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type Packetization int

const (
	PacketizationRTP Packetization = iota
)

type TransportKind int

const (
	TransportUnknown TransportKind = iota
	TransportRawUDP
	TransportICEUDP
	TransportGoogleP2P
)

func (t TransportKind) String() string {
	switch t {
	case TransportRawUDP:
		return "raw-udp"
	case TransportICEUDP:
		return "ice-udp"
	case TransportGoogleP2P:
		return "gtalk-p2p"
	default:
		return "unknown"
	}
}

func ParseTransportKind(s string) (TransportKind, error) {
	switch s {
	case "raw-udp":
		return TransportRawUDP, nil
	case "ice-udp":
		return TransportICEUDP, nil
	case "gtalk-p2p":
		return TransportGoogleP2P, nil
	}
	return TransportUnknown, fmt.Errorf("%w: transport %q", ErrInvalidArgument, s)
}

func (t TransportKind) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TransportKind) UnmarshalText(b []byte) error {
	v, err := ParseTransportKind(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// UsesCredentials reports whether the transport carries ufrag/pwd.
func (t TransportKind) UsesCredentials() bool {
	return t == TransportICEUDP || t == TransportGoogleP2P
}

type ReasonCode int

const (
	ReasonUnknown ReasonCode = iota
	ReasonUserRequested
	ReasonNoAnswer
	ReasonRejected
	ReasonConnectionLost
	ReasonFailed
	ReasonInvalidSignal
)

func (r ReasonCode) String() string {
	switch r {
	case ReasonUserRequested:
		return "user-requested"
	case ReasonNoAnswer:
		return "no-answer"
	case ReasonRejected:
		return "rejected"
	case ReasonConnectionLost:
		return "connection-lost"
	case ReasonFailed:
		return "failed"
	case ReasonInvalidSignal:
		return "invalid-signal"
	default:
		return "unknown"
	}
}

func ParseReasonCode(v string) (ReasonCode, error) {
	for r := ReasonUnknown; r <= ReasonInvalidSignal; r++ {
		if r.String() == v {
			return r, nil
		}
	}
	return ReasonUnknown, fmt.Errorf("%w: reason %q", ErrInvalidArgument, v)
}

func (r ReasonCode) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *ReasonCode) UnmarshalText(b []byte) error {
	v, err := ParseReasonCode(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// StateReason explains the latest call state change.
type StateReason struct {
	Actor   Contact    `json:"actor"`
	Code    ReasonCode `json:"code"`
	Error   string     `json:"error"`
	Message string     `json:"message"`
}

// Credentials are the local ufrag/pwd pair of a stream.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) IsZero() bool {
	return c.Username == "" && c.Password == ""
}
