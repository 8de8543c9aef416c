package wire

import (
	"encoding/json"

	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/pion/webrtc/v4"
	"github.com/pkg/errors"
)

// Frame types exchanged on the signalling websocket.
const (
	TypeHello  = "hello"
	TypeJingle = "jingle"
	TypeError  = "error"
)

type Frame struct {
	Type string `json:"type"`

	// hello
	Contact      string        `json:"contact,omitempty"`
	Capabilities *Capabilities `json:"capabilities,omitempty"`

	// jingle
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	SID       string    `json:"sid,omitempty"`
	Action    string    `json:"action,omitempty"`
	Initiator string    `json:"initiator,omitempty"`
	Contents  []Content `json:"contents,omitempty"`
	Info      string    `json:"info,omitempty"`
	Reason    *Reason   `json:"reason,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

type Capabilities struct {
	Calls      bool     `json:"calls"`
	Audio      bool     `json:"audio"`
	Video      bool     `json:"video"`
	Transports []string `json:"transports"`
}

type Content struct {
	Name        string     `json:"name"`
	Creator     string     `json:"creator,omitempty"`
	Senders     string     `json:"senders,omitempty"`
	Media       string     `json:"media,omitempty"`
	Description string     `json:"description,omitempty"`
	Transport   *Transport `json:"transport,omitempty"`
}

type Transport struct {
	Kind       string                    `json:"kind"`
	Ufrag      string                    `json:"ufrag,omitempty"`
	Pwd        string                    `json:"pwd,omitempty"`
	Candidates []webrtc.ICECandidateInit `json:"candidates,omitempty"`
}

type Reason struct {
	Condition string `json:"condition"`
	Text      string `json:"text,omitempty"`
}

func ErrorFrame(err error) Frame {
	return Frame{Type: TypeError, Message: err.Error()}
}

func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, errors.Wrapf(domain.ErrInvalidArgument, "frame: %v", err)
	}
	switch f.Type {
	case TypeHello, TypeJingle, TypeError:
		return f, nil
	default:
		return Frame{}, errors.Wrapf(domain.ErrInvalidArgument, "frame type %q", f.Type)
	}
}

// PeerCapabilities converts a hello frame. Unknown transport names are
// skipped so newer peers can still register.
func (f Frame) PeerCapabilities() domain.PeerCapabilities {
	var caps domain.PeerCapabilities
	if f.Capabilities == nil {
		return caps
	}
	caps.Calls = f.Capabilities.Calls
	caps.Audio = f.Capabilities.Audio
	caps.Video = f.Capabilities.Video
	for _, name := range f.Capabilities.Transports {
		if kind, err := domain.ParseTransportKind(name); err == nil {
			caps.Transports = append(caps.Transports, kind)
		}
	}
	return caps
}

// Stanza converts an inbound jingle frame. The peer is always the contact
// bound to the connection, never the frame's from attribute.
func (f Frame) Stanza(peer domain.Contact) (domain.Stanza, error) {
	if f.Type != TypeJingle {
		return domain.Stanza{}, errors.Wrapf(domain.ErrInvalidArgument, "frame type %q is not a session stanza", f.Type)
	}
	st := domain.Stanza{
		Action:    domain.Action(f.Action),
		SessionID: f.SID,
		Peer:      peer,
		Initiator: domain.Contact(f.Initiator),
		Info:      f.Info,
	}
	if f.Reason != nil {
		st.Reason = domain.TerminateReason{Condition: f.Reason.Condition, Text: f.Reason.Text}
	}
	for i, c := range f.Contents {
		desc, err := c.description()
		if err != nil {
			return domain.Stanza{}, errors.Wrapf(err, "content %d (%s)", i, c.Name)
		}
		st.Contents = append(st.Contents, desc)
	}
	return st, nil
}

func (c Content) description() (domain.ContentDescription, error) {
	desc := domain.ContentDescription{
		Name:    c.Name,
		Creator: c.Creator,
		Senders: domain.Senders(c.Senders),
	}
	media, codecs, err := DecodeDescription(c.Description)
	if err != nil {
		return desc, err
	}
	desc.Media, desc.Codecs = media, codecs
	if c.Media != "" {
		if desc.Media, err = domain.ParseMediaType(c.Media); err != nil {
			return desc, err
		}
	}
	if c.Transport == nil {
		return desc, nil
	}
	// An unknown transport kind is kept so the engine can answer with
	// unsupported-transports instead of dropping the frame.
	kind, err := domain.ParseTransportKind(c.Transport.Kind)
	if err != nil {
		kind = domain.TransportUnknown
	}
	desc.Transport = domain.TransportDescription{
		Kind:        kind,
		Credentials: domain.Credentials{Username: c.Transport.Ufrag, Password: c.Transport.Pwd},
	}
	for _, line := range c.Transport.Candidates {
		cand, err := DecodeCandidate(line)
		if err != nil {
			return desc, err
		}
		desc.Transport.Candidates = append(desc.Transport.Candidates, cand)
	}
	return desc, nil
}

// FromStanza renders an outbound stanza sent by self.
func FromStanza(self domain.Contact, st domain.Stanza) (Frame, error) {
	f := Frame{
		Type:      TypeJingle,
		From:      self.String(),
		To:        st.Peer.String(),
		SID:       st.SessionID,
		Action:    string(st.Action),
		Initiator: st.Initiator.String(),
		Info:      st.Info,
	}
	if st.Reason.Condition != "" {
		f.Reason = &Reason{Condition: st.Reason.Condition, Text: st.Reason.Text}
	}
	for i, desc := range st.Contents {
		c := Content{
			Name:    desc.Name,
			Creator: desc.Creator,
			Senders: string(desc.Senders),
			Media:   desc.Media.String(),
		}
		var err error
		if c.Description, err = EncodeDescription(desc.Media, desc.Codecs); err != nil {
			return Frame{}, err
		}
		if t := desc.Transport; t.Kind != domain.TransportUnknown {
			c.Transport = &Transport{
				Kind:  t.Kind.String(),
				Ufrag: t.Credentials.Username,
				Pwd:   t.Credentials.Password,
			}
			for _, cand := range t.Candidates {
				line, err := EncodeCandidate(cand, desc.Name, uint16(i))
				if err != nil {
					return Frame{}, err
				}
				c.Transport.Candidates = append(c.Transport.Candidates, line)
			}
		}
		f.Contents = append(f.Contents, c)
	}
	return f, nil
}
