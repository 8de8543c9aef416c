package domain

// Content is one media type within a call.
type Content struct {
	ID          ContentID
	Name        string
	Media       MediaType
	Disposition Disposition
	Creator     string

	streams []StreamID
	codecs  CodecMap
	offer   *CodecOffer
	// resolved is set once local codecs are known, through an offer or directly.
	resolved bool
	// signalled is set once the content went out on the wire.
	signalled bool
	// fromPeer marks contents the remote side added with content-add.
	fromPeer bool
}

func newContent(name string, media MediaType, disposition Disposition, creator string) *Content {
	return &Content{
		ID:          NewContentID(),
		Name:        name,
		Media:       media,
		Disposition: disposition,
		Creator:     creator,
		codecs:      make(CodecMap),
	}
}

type ContentProperties struct {
	ID              ContentID     `json:"id"`
	Name            string        `json:"name"`
	Type            MediaType     `json:"type"`
	Disposition     Disposition   `json:"disposition"`
	Streams         []StreamID    `json:"streams"`
	Packetization   Packetization `json:"packetization"`
	ContactCodecMap CodecMap      `json:"contact_codec_map"`
	// CodecOffer is nil when no offer is outstanding.
	CodecOffer *OfferInfo `json:"codec_offer"`
}

func (c *Content) properties() ContentProperties {
	props := ContentProperties{
		ID:              c.ID,
		Name:            c.Name,
		Type:            c.Media,
		Disposition:     c.Disposition,
		Streams:         append([]StreamID(nil), c.streams...),
		Packetization:   PacketizationRTP,
		ContactCodecMap: c.codecs.clone(),
	}
	if c.pendingOffer() {
		info := c.offer.info()
		props.CodecOffer = &info
	}
	return props
}

func (c *Content) pendingOffer() bool {
	return c.offer != nil && !c.offer.Resolved
}

// offerRemoteCodecs opens a new offer, or folds the codecs into the
// outstanding one. It reports whether a new offer was opened.
func (c *Content) offerRemoteCodecs(peer Contact, codecs []Codec) bool {
	if c.pendingOffer() {
		c.offer.Remote = peer
		c.offer.RemoteCodecs[peer] = cloneCodecs(codecs)
		return false
	}
	c.offer = newCodecOffer(c.ID)
	c.offer.Remote = peer
	c.offer.RemoteCodecs[peer] = cloneCodecs(codecs)
	return true
}

// applyCodecs writes a new codec map and returns the entries that changed.
func (c *Content) applyCodecs(next CodecMap) CodecMap {
	updated := make(CodecMap)
	for who, list := range next {
		if old, ok := c.codecs[who]; ok && codecsEqual(old, list) {
			continue
		}
		c.codecs[who] = cloneCodecs(list)
		updated[who] = cloneCodecs(list)
	}
	return updated
}
