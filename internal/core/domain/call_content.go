package domain

import (
	"fmt"
	"slices"
)

func (c *Call) localCreator() string {
	if c.Requested {
		return CreatorInitiator
	}
	return CreatorResponder
}

// attachContent builds the stream and endpoint of a new content and
// registers all three in the arena.
func (c *Call) attachContent(ct *Content, kind TransportKind, remote SendingState) (*Stream, *Endpoint) {
	s := newStream(ct.ID, kind, c.Peer, remote)
	ep := newEndpoint(s.ID, kind)
	s.endpoints = append(s.endpoints, ep.ID)
	ct.streams = append(ct.streams, s.ID)
	c.contents[ct.ID] = ct
	c.streams[s.ID] = s
	c.endpoints[ep.ID] = ep
	c.order = append(c.order, ct.ID)
	return s, ep
}

func (c *Call) detachContent(ct *Content) {
	for _, sid := range ct.streams {
		for _, eid := range c.streams[sid].endpoints {
			delete(c.endpoints, eid)
		}
		delete(c.streams, sid)
	}
	delete(c.contents, ct.ID)
	c.order = slices.DeleteFunc(c.order, func(id ContentID) bool { return id == ct.ID })
}

func (c *Call) addLocalContent(e *emitter, name string, media MediaType, disposition Disposition) *Content {
	ct := newContent(name, media, disposition, c.localCreator())
	c.attachContent(ct, c.transport, SendingStatePendingSend)
	ct.offer = newCodecOffer(ct.ID)
	ct.offer.Remote = c.Peer
	c.emitContentAdded(e, ct)
	c.emitNewOffer(e, ct)
	return ct
}

func (c *Call) emitContentAdded(e *emitter, ct *Content) {
	e.notify(Notification{
		Kind:      NotifyContentAdded,
		ContentID: ct.ID,
		Payload:   ContentAdded{Name: ct.Name, Type: ct.Media},
	})
}

func (c *Call) emitNewOffer(e *emitter, ct *Content) {
	info := ct.offer.info()
	e.notify(Notification{
		Kind:      NotifyNewCodecOffer,
		ContentID: ct.ID,
		Payload:   NewCodecOffer{Offer: info.ID, Remote: info.Remote, RemoteCodecs: info.RemoteCodecs},
	})
}

func (c *Call) uniqueName(name string, media MediaType) (string, error) {
	if name != "" {
		if c.contentByName(name) != nil {
			return "", fmt.Errorf("%w: content %q already exists", ErrInvalidArgument, name)
		}
		return name, nil
	}
	base := media.String()
	name = base
	for i := 2; c.contentByName(name) != nil; i++ {
		name = fmt.Sprintf("%s-%d", base, i)
	}
	return name, nil
}

// AddContent adds a non-initial content. It is signalled with content-add
// once its codecs and candidates are ready.
func (c *Call) AddContent(name string, media MediaType, caps PeerCapabilities) (ContentID, Effects, error) {
	if err := c.checkLive(); err != nil {
		return ContentID{}, Effects{}, err
	}
	if c.state != CallStatePendingReceiver && c.state != CallStateAccepted {
		return ContentID{}, Effects{}, fmt.Errorf("%w: cannot add content in state %s", ErrNotAvailable, c.state)
	}
	if !caps.SupportsMedia(media) {
		return ContentID{}, Effects{}, fmt.Errorf("%w: %s does not support %s", ErrNotAvailable, c.Peer, media)
	}
	name, err := c.uniqueName(name, media)
	if err != nil {
		return ContentID{}, Effects{}, err
	}
	e := c.effects()
	ct := c.addLocalContent(e, name, media, DispositionNone)
	c.advance(e)
	return ct.ID, e.out, nil
}

// RemoveContent tears a content down. Removing the last content ends the call.
func (c *Call) RemoveContent(id ContentID, code ReasonCode, detail, message string) (Effects, error) {
	if err := c.checkLive(); err != nil {
		return Effects{}, err
	}
	ct, err := c.content(id)
	if err != nil {
		return Effects{}, err
	}
	if code == ReasonUnknown {
		code = ReasonUserRequested
	}
	e := c.effects()
	if len(c.order) == 1 {
		c.terminateLocally(e, code, detail, message)
		return e.out, nil
	}
	c.removeContent(e, ct, StateReason{Actor: c.Self, Code: code, Error: detail, Message: message})
	if ct.signalled {
		e.send(c.stanza(ActionContentRemove, func(st *Stanza) {
			st.Contents = []ContentDescription{{Name: ct.Name, Creator: ct.Creator, Media: ct.Media}}
		}))
	}
	return e.out, nil
}

// removeContent drops the children first, then reports the content itself.
func (c *Call) removeContent(e *emitter, ct *Content, reason StateReason) {
	c.detachContent(ct)
	e.notify(Notification{
		Kind:      NotifyContentRemoved,
		ContentID: ct.ID,
		Payload:   ContentRemoved{Reason: reason},
	})
}

func (c *Call) validateLocalCodecs(media MediaType, codecs []Codec) error {
	if len(codecs) == 0 {
		return fmt.Errorf("%w: empty codec list", ErrInvalidArgument)
	}
	for _, cd := range codecs {
		if err := cd.validate(); err != nil {
			return err
		}
		if !c.policy.Supports(media, cd) {
			return fmt.Errorf("%w: codec %s is not supported for %s", ErrNotAvailable, cd.Name, media)
		}
	}
	return nil
}

// AcceptCodecOffer resolves the outstanding offer of a content with the local
// codec list.
func (c *Call) AcceptCodecOffer(content ContentID, offer OfferID, codecs []Codec) (Effects, error) {
	if err := c.checkLive(); err != nil {
		return Effects{}, err
	}
	ct, err := c.content(content)
	if err != nil {
		return Effects{}, err
	}
	if ct.offer == nil || ct.offer.ID != offer {
		return Effects{}, fmt.Errorf("%w: offer %s is not current for content %s", ErrInvalidState, offer, ct.Name)
	}
	if ct.offer.Resolved {
		return Effects{}, fmt.Errorf("%w: offer %s already accepted", ErrInvalidState, offer)
	}
	if err := c.validateLocalCodecs(ct.Media, codecs); err != nil {
		return Effects{}, err
	}

	e := c.effects()
	ct.offer.LocalCodecs = cloneCodecs(codecs)
	ct.offer.Resolved = true
	ct.resolved = true
	next := CodecMap{c.Self: codecs}
	for who, remote := range ct.offer.RemoteCodecs {
		next[who] = intersectCodecs(remote, codecs)
	}
	c.emitCodecsChanged(e, ct, ct.applyCodecs(next))
	c.advance(e)
	return e.out, nil
}

// UpdateCodecs sets the local codecs directly, outside of any offer.
func (c *Call) UpdateCodecs(content ContentID, codecs []Codec) (Effects, error) {
	if err := c.checkLive(); err != nil {
		return Effects{}, err
	}
	ct, err := c.content(content)
	if err != nil {
		return Effects{}, err
	}
	if ct.pendingOffer() {
		return Effects{}, fmt.Errorf("%w: content %s has an outstanding codec offer", ErrNotAvailable, ct.Name)
	}
	if err := c.validateLocalCodecs(ct.Media, codecs); err != nil {
		return Effects{}, err
	}

	e := c.effects()
	ct.resolved = true
	updated := ct.applyCodecs(CodecMap{c.Self: codecs})
	c.emitCodecsChanged(e, ct, updated)
	if ct.signalled && len(updated) > 0 {
		e.send(c.stanza(ActionDescriptionInfo, func(st *Stanza) {
			st.Contents = []ContentDescription{c.describe(ct, false)}
		}))
	}
	c.advance(e)
	return e.out, nil
}

func (c *Call) emitCodecsChanged(e *emitter, ct *Content, updated CodecMap) {
	if len(updated) == 0 {
		return
	}
	e.notify(Notification{
		Kind:      NotifyCodecsChanged,
		ContentID: ct.ID,
		Payload:   CodecsChanged{Updated: updated, Removed: []Contact{}},
	})
}
