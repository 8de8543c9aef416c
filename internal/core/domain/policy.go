package domain

import (
	"slices"
	"strings"

	"github.com/pion/webrtc/v4"
)

// Policy holds the per-deployment negotiation choices of the engine.
type Policy struct {
	Self Contact
	// TransportPreference is a total order, most preferred first.
	TransportPreference []TransportKind
	// PairedComponents lists the transports whose RTCP component follows
	// the selection made on the RTP component.
	PairedComponents map[TransportKind]bool
	AudioCodecs      []Codec
	VideoCodecs      []Codec
}

func codecFromMime(id uint32, mime string, clock, channels uint32) Codec {
	_, name, _ := strings.Cut(mime, "/")
	return Codec{ID: id, Name: name, ClockRate: clock, Channels: channels}
}

// DefaultAudioCodecs is pion's audio table plus the legacy names older
// clients still offer.
func DefaultAudioCodecs() []Codec {
	return []Codec{
		codecFromMime(111, webrtc.MimeTypeOpus, 48000, 2),
		codecFromMime(9, webrtc.MimeTypeG722, 8000, 1),
		codecFromMime(0, webrtc.MimeTypePCMU, 8000, 1),
		codecFromMime(8, webrtc.MimeTypePCMA, 8000, 1),
		{ID: 3, Name: "GSM", ClockRate: 8000, Channels: 1},
		{ID: 97, Name: "speex", ClockRate: 16000, Channels: 1},
		{ID: 98, Name: "speex", ClockRate: 8000, Channels: 1},
		{ID: 101, Name: "telephone-event", ClockRate: 8000, Channels: 1},
	}
}

func DefaultVideoCodecs() []Codec {
	return []Codec{
		codecFromMime(96, webrtc.MimeTypeVP8, 90000, 0),
		codecFromMime(98, webrtc.MimeTypeVP9, 90000, 0),
		codecFromMime(102, webrtc.MimeTypeH264, 90000, 0),
		codecFromMime(45, webrtc.MimeTypeAV1, 90000, 0),
		{ID: 34, Name: "H263", ClockRate: 90000},
		{ID: 32, Name: "MPV", ClockRate: 90000},
		{ID: 33, Name: "MP2T", ClockRate: 90000},
		{ID: 99, Name: "THEORA", ClockRate: 90000},
	}
}

func DefaultPolicy(self Contact) Policy {
	return Policy{
		Self:                self,
		TransportPreference: []TransportKind{TransportGoogleP2P, TransportICEUDP, TransportRawUDP},
		PairedComponents: map[TransportKind]bool{
			TransportGoogleP2P: true,
			TransportICEUDP:    true,
		},
		AudioCodecs: DefaultAudioCodecs(),
		VideoCodecs: DefaultVideoCodecs(),
	}
}

// SelectTransport picks the most preferred transport the peer advertised.
// The advertised order is irrelevant.
func (p Policy) SelectTransport(advertised []TransportKind) (TransportKind, bool) {
	for _, k := range p.TransportPreference {
		if slices.Contains(advertised, k) {
			return k, true
		}
	}
	return TransportUnknown, false
}

func (p Policy) Paired(k TransportKind) bool {
	return p.PairedComponents[k]
}

func (p Policy) CodecsFor(m MediaType) []Codec {
	if m == MediaTypeVideo {
		return p.VideoCodecs
	}
	return p.AudioCodecs
}

// Supports reports whether a codec name is in the capability list of a
// media type. Names compare case-insensitively.
func (p Policy) Supports(m MediaType, c Codec) bool {
	return slices.ContainsFunc(p.CodecsFor(m), func(local Codec) bool {
		return strings.EqualFold(local.Name, c.Name)
	})
}

// PeerCapabilities is what the capability layer knows about a contact.
type PeerCapabilities struct {
	Calls      bool            `json:"calls"`
	Audio      bool            `json:"audio"`
	Video      bool            `json:"video"`
	Transports []TransportKind `json:"transports"`
}

func (c PeerCapabilities) SupportsMedia(m MediaType) bool {
	if m == MediaTypeVideo {
		return c.Video
	}
	return c.Audio
}
