package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

type Codec struct {
	ID        uint32            `json:"id"`
	Name      string            `json:"name"`
	ClockRate uint32            `json:"clock_rate"`
	Channels  uint32            `json:"channels"`
	Params    map[string]string `json:"params"`
}

func (c Codec) Equal(o Codec) bool {
	return c.ID == o.ID &&
		c.Name == o.Name &&
		c.ClockRate == o.ClockRate &&
		c.Channels == o.Channels &&
		maps.Equal(c.Params, o.Params)
}

// Matches reports whether two codecs describe the same encoding,
// regardless of payload id and parameters.
func (c Codec) Matches(o Codec) bool {
	return strings.EqualFold(c.Name, o.Name) && c.ClockRate == o.ClockRate
}

func (c Codec) validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: codec %d has no name", ErrInvalidArgument, c.ID)
	}
	if c.ID > 127 {
		return fmt.Errorf("%w: codec %s payload id %d out of range", ErrInvalidArgument, c.Name, c.ID)
	}
	if c.Channels > 255 {
		return fmt.Errorf("%w: codec %s has %d channels", ErrInvalidArgument, c.Name, c.Channels)
	}
	return nil
}

func codecsEqual(a, b []Codec) bool {
	return slices.EqualFunc(a, b, Codec.Equal)
}

func cloneCodecs(in []Codec) []Codec {
	if in == nil {
		return nil
	}
	out := make([]Codec, len(in))
	for i, c := range in {
		c.Params = maps.Clone(c.Params)
		out[i] = c
	}
	return out
}

// intersectCodecs keeps the remote codecs that have a local counterpart,
// in remote order.
func intersectCodecs(remote, local []Codec) []Codec {
	out := make([]Codec, 0, len(remote))
	for _, r := range remote {
		if slices.ContainsFunc(local, r.Matches) {
			out = append(out, r)
		}
	}
	return out
}

// CodecMap maps every call member (self included) to its codec list for a content.
type CodecMap map[Contact][]Codec

func (m CodecMap) clone() CodecMap {
	out := make(CodecMap, len(m))
	for k, v := range m {
		out[k] = cloneCodecs(v)
	}
	return out
}

// CodecOffer is one negotiation round for the codec set of a content.
type CodecOffer struct {
	ID           OfferID
	ContentID    ContentID
	Remote       Contact
	RemoteCodecs CodecMap
	LocalCodecs  []Codec
	Resolved     bool
}

func newCodecOffer(content ContentID) *CodecOffer {
	return &CodecOffer{
		ID:           NewOfferID(),
		ContentID:    content,
		RemoteCodecs: make(CodecMap),
	}
}

// OfferInfo is the public view of the outstanding offer of a content.
type OfferInfo struct {
	ID           OfferID  `json:"id"`
	Remote       Contact  `json:"remote"`
	RemoteCodecs CodecMap `json:"remote_codecs"`
}

func (o *CodecOffer) info() OfferInfo {
	return OfferInfo{
		ID:           o.ID,
		Remote:       o.Remote,
		RemoteCodecs: o.RemoteCodecs.clone(),
	}
}
