package domain

import (
	"github.com/google/uuid"
)

type CallID uuid.UUID
type ContentID uuid.UUID
type StreamID uuid.UUID
type EndpointID uuid.UUID
type OfferID uuid.UUID

// Contact is a peer address as seen by the signalling layer, e.g. "foo@bar.com/Foo".
type Contact string

func (c Contact) String() string {
	return string(c)
}

// Bare strips the resource part of the contact.
func (c Contact) Bare() Contact {
	for i := 0; i < len(c); i++ {
		if c[i] == '/' {
			return c[:i]
		}
	}
	return c
}

func NewCallID() CallID {
	return CallID(uuid.New())
}

func NewContentID() ContentID {
	return ContentID(uuid.New())
}

func NewStreamID() StreamID {
	return StreamID(uuid.New())
}

func NewEndpointID() EndpointID {
	return EndpointID(uuid.New())
}

func NewOfferID() OfferID {
	return OfferID(uuid.New())
}

func ParseCallID(s string) (CallID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CallID{}, err
	}
	return CallID(id), nil
}

func ParseContentID(s string) (ContentID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ContentID{}, err
	}
	return ContentID(id), nil
}

func ParseStreamID(s string) (StreamID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return StreamID{}, err
	}
	return StreamID(id), nil
}

func ParseEndpointID(s string) (EndpointID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return EndpointID{}, err
	}
	return EndpointID(id), nil
}

func ParseOfferID(s string) (OfferID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return OfferID{}, err
	}
	return OfferID(id), nil
}

func (id CallID) String() string {
	return uuid.UUID(id).String()
}

func (id ContentID) String() string {
	return uuid.UUID(id).String()
}

func (id StreamID) String() string {
	return uuid.UUID(id).String()
}

func (id EndpointID) String() string {
	return uuid.UUID(id).String()
}

func (id OfferID) String() string {
	return uuid.UUID(id).String()
}

// NewSessionID returns a signalling session identifier for an outgoing call.
func NewSessionID() string {
	return uuid.New().String()
}

func (id CallID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *CallID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id ContentID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *ContentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id StreamID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *StreamID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id EndpointID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *EndpointID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id OfferID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *OfferID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
