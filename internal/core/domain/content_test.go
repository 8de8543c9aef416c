package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddContentRequiresLiveCall(t *testing.T) {
	c, _, err := NewOutgoingCall(testPolicy(), peerCaps(), OutgoingRequest{Target: peer, InitialAudio: true})
	require.NoError(t, err)
	_, _, err = c.AddContent("Webcam", MediaTypeVideo, peerCaps())
	assert.ErrorIs(t, err, ErrNotAvailable)
	assert.Len(t, c.Properties().Contents, 1)
}

func TestAddContentRequiresPeerMedia(t *testing.T) {
	c := acceptedOutgoing(t)
	caps := peerCaps()
	caps.Video = false
	_, _, err := c.AddContent("Webcam", MediaTypeVideo, caps)
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestContentAdditionAndRemoval(t *testing.T) {
	c := acceptedOutgoing(t)

	id, eff, err := c.AddContent("Webcam", MediaTypeVideo, peerCaps())
	require.NoError(t, err)
	assert.Equal(t, []NotificationKind{NotifyContentAdded, NotifyNewCodecOffer}, eff.Kinds())
	assert.Empty(t, eff.Stanzas)

	ct, err := c.Content(id)
	require.NoError(t, err)
	assert.Equal(t, DispositionNone, ct.Disposition)
	assert.Equal(t, "Webcam", ct.Name)
	require.NotNil(t, ct.CodecOffer)
	assert.Empty(t, ct.CodecOffer.RemoteCodecs)

	_, _, err = c.AddContent("Webcam", MediaTypeVideo, peerCaps())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	eff = readyContent(t, c, id, videoCodecs())
	require.Equal(t, []Action{ActionContentAdd}, actions(eff))
	add := eff.Stanzas[0]
	require.Len(t, add.Contents, 1)
	assert.Equal(t, "Webcam", add.Contents[0].Name)
	assert.Equal(t, MediaTypeVideo, add.Contents[0].Media)
	assert.Equal(t, videoCodecs(), add.Contents[0].Codecs)

	eff, err = c.HandleStanza(peerStanza(c, ActionContentAccept, ContentDescription{
		Name: "Webcam", Senders: SendersBoth, Media: MediaTypeVideo, Codecs: videoCodecs(),
	}))
	require.NoError(t, err)
	assert.Equal(t, []NotificationKind{
		NotifyRemoteMembersChanged,
		NotifyNewCodecOffer,
	}, eff.Kinds())

	streamID := ct.Streams[0]
	eff, err = c.RemoveContent(id, ReasonUserRequested, "", "")
	require.NoError(t, err)
	assert.Equal(t, []NotificationKind{NotifyContentRemoved}, eff.Kinds())
	require.Equal(t, []Action{ActionContentRemove}, actions(eff))
	assert.Equal(t, "Webcam", eff.Stanzas[0].Contents[0].Name)

	_, err = c.Content(id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Stream(streamID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, CallStateAccepted, c.State())
	assert.Len(t, c.Properties().Contents, 1)
}

func TestRemoveUnsignalledContentSendsNothing(t *testing.T) {
	c := acceptedOutgoing(t)
	id, _, err := c.AddContent("", MediaTypeVideo, peerCaps())
	require.NoError(t, err)
	ct, err := c.Content(id)
	require.NoError(t, err)
	assert.Equal(t, "video", ct.Name)

	eff, err := c.RemoveContent(id, ReasonUnknown, "", "")
	require.NoError(t, err)
	assert.Equal(t, []NotificationKind{NotifyContentRemoved}, eff.Kinds())
	assert.Empty(t, eff.Stanzas)
}

func TestRemoveSiblingContentsSignalEach(t *testing.T) {
	c := acceptedOutgoing(t)
	first, _, err := c.AddContent("", MediaTypeVideo, peerCaps())
	require.NoError(t, err)
	second, _, err := c.AddContent("", MediaTypeVideo, peerCaps())
	require.NoError(t, err)
	readyContent(t, c, first, videoCodecs())
	readyContent(t, c, second, videoCodecs())

	var all Effects
	for _, id := range []ContentID{first, second} {
		eff, err := c.RemoveContent(id, ReasonUserRequested, "", "")
		require.NoError(t, err)
		all = merge(all, eff)
	}
	assert.Equal(t, []Action{ActionContentRemove, ActionContentRemove}, actions(all))
	assert.Equal(t, "video", all.Stanzas[0].Contents[0].Name)
	assert.Equal(t, "video-2", all.Stanzas[1].Contents[0].Name)
}

func TestRemovingLastContentEndsCall(t *testing.T) {
	c := acceptedOutgoing(t)
	ct, _, _ := only(t, c)
	eff, err := c.RemoveContent(ct.ID, ReasonUserRequested, "", "")
	require.NoError(t, err)
	assert.Equal(t, []NotificationKind{NotifyCallStateChanged}, eff.Kinds())
	assert.Equal(t, []Action{ActionSessionTerminate}, actions(eff))
	assert.True(t, c.Ended())
}

func TestPeerContentAddIsAnsweredWhenReady(t *testing.T) {
	c := acceptedOutgoing(t)
	eff, err := c.HandleStanza(peerStanza(c, ActionContentAdd, ContentDescription{
		Name:    "screen",
		Creator: CreatorResponder,
		Senders: SendersResponder,
		Media:   MediaTypeVideo,
		Codecs:  videoCodecs(),
		Transport: TransportDescription{
			Kind:       TransportGoogleP2P,
			Candidates: []Candidate{remoteCandidate(1, 6000, "10")},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, []NotificationKind{NotifyContentAdded, NotifyNewCodecOffer, NotifyRemoteCandidatesAdded}, eff.Kinds())
	assert.Empty(t, eff.Stanzas)

	props, ok := c.ContentByName("screen")
	require.True(t, ok)
	assert.Equal(t, DispositionNone, props.Disposition)
	s, err := c.Stream(props.Streams[0])
	require.NoError(t, err)
	assert.Equal(t, map[Contact]SendingState{peer: SendingStateSending}, s.RemoteMembers)

	eff = readyContent(t, c, props.ID, videoCodecs())
	require.Equal(t, []Action{ActionContentAccept}, actions(eff))
	assert.Equal(t, "screen", eff.Stanzas[0].Contents[0].Name)
}

func TestPeerContentAddRefusesUnusableContent(t *testing.T) {
	tests := []struct {
		name      string
		codecs    []Codec
		transport TransportKind
		condition string
	}{
		{"no supported codec", []Codec{{ID: 100, Name: "FOO", ClockRate: 90000}}, TransportGoogleP2P, ConditionUnsupportedApplications},
		{"unknown transport", videoCodecs(), TransportUnknown, ConditionUnsupportedTransports},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := acceptedOutgoing(t)
			eff, err := c.HandleStanza(peerStanza(c, ActionContentAdd, ContentDescription{
				Name:      "screen",
				Creator:   CreatorResponder,
				Senders:   SendersResponder,
				Media:     MediaTypeVideo,
				Codecs:    tt.codecs,
				Transport: TransportDescription{Kind: tt.transport},
			}))
			require.NoError(t, err)
			assert.Empty(t, eff.Notifications)
			require.Equal(t, []Action{ActionContentRemove}, actions(eff))
			assert.Equal(t, "screen", eff.Stanzas[0].Contents[0].Name)
			assert.Equal(t, CreatorResponder, eff.Stanzas[0].Contents[0].Creator)
			assert.Equal(t, tt.condition, eff.Stanzas[0].Reason.Condition)

			_, ok := c.ContentByName("screen")
			assert.False(t, ok)
			assert.Len(t, c.Properties().Contents, 1)
			assert.Equal(t, CallStateAccepted, c.State())
		})
	}
}

func TestPeerContentRemove(t *testing.T) {
	c := acceptedOutgoing(t)
	id, _, err := c.AddContent("Webcam", MediaTypeVideo, peerCaps())
	require.NoError(t, err)
	readyContent(t, c, id, videoCodecs())

	eff, err := c.HandleStanza(peerStanza(c, ActionContentRemove, ContentDescription{Name: "Webcam"}))
	require.NoError(t, err)
	require.Equal(t, []NotificationKind{NotifyContentRemoved}, eff.Kinds())
	assert.Equal(t, peer, eff.Notifications[0].Payload.(ContentRemoved).Reason.Actor)
	assert.Empty(t, eff.Stanzas)

	eff, err = c.HandleStanza(peerStanza(c, ActionContentRemove, ContentDescription{Name: "audio"}))
	require.NoError(t, err)
	assert.True(t, c.Ended())
	assert.Equal(t, []Action{ActionSessionTerminate}, actions(eff))
}

func TestCodecOfferRouting(t *testing.T) {
	c, _, err := NewOutgoingCall(testPolicy(), peerCaps(), OutgoingRequest{Target: peer, InitialAudio: true, InitialVideo: true})
	require.NoError(t, err)
	ids := c.Properties().Contents
	audio, err := c.Content(ids[0])
	require.NoError(t, err)
	video, err := c.Content(ids[1])
	require.NoError(t, err)

	_, err = c.AcceptCodecOffer(video.ID, audio.CodecOffer.ID, videoCodecs())
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = c.AcceptCodecOffer(video.ID, video.CodecOffer.ID, videoCodecs())
	require.NoError(t, err)
	_, err = c.AcceptCodecOffer(video.ID, video.CodecOffer.ID, videoCodecs())
	assert.ErrorIs(t, err, ErrInvalidState)

	audio, err = c.Content(audio.ID)
	require.NoError(t, err)
	assert.NotNil(t, audio.CodecOffer, "the audio offer is still outstanding")
}

func TestCodecOfferValidation(t *testing.T) {
	c, _, err := NewIncomingCall(testPolicy(), incomingInitiate())
	require.NoError(t, err)
	ct, _, _ := only(t, c)
	offer := ct.CodecOffer.ID

	tests := []struct {
		name   string
		codecs []Codec
		want   error
	}{
		{"empty", nil, ErrInvalidArgument},
		{"no name", []Codec{{ID: 0, ClockRate: 8000}}, ErrInvalidArgument},
		{"payload id", []Codec{{ID: 200, Name: "PCMU", ClockRate: 8000}}, ErrInvalidArgument},
		{"channels", []Codec{{ID: 0, Name: "PCMU", ClockRate: 8000, Channels: 65537}}, ErrInvalidArgument},
		{"unknown codec", []Codec{{ID: 100, Name: "FOO", ClockRate: 8000}}, ErrNotAvailable},
		{"video codec on audio", videoCodecs(), ErrNotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eff, err := c.AcceptCodecOffer(ct.ID, offer, tt.codecs)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, eff.Empty())
		})
	}
	props, err := c.Content(ct.ID)
	require.NoError(t, err)
	assert.NotNil(t, props.CodecOffer)
	assert.Empty(t, props.ContactCodecMap)
}

func TestCodecOfferReuseAndReplace(t *testing.T) {
	c, _, err := NewIncomingCall(testPolicy(), incomingInitiate())
	require.NoError(t, err)
	ct, _, _ := only(t, c)
	first := ct.CodecOffer.ID

	// new information folds into the unresolved offer
	reoffer := audioCodecs()[:1]
	eff, err := c.HandleStanza(peerStanza(c, ActionDescriptionInfo, ContentDescription{Name: "audio", Codecs: reoffer}))
	require.NoError(t, err)
	assert.Empty(t, eff.Notifications)
	ct, err = c.Content(ct.ID)
	require.NoError(t, err)
	assert.Equal(t, first, ct.CodecOffer.ID)
	assert.Equal(t, CodecMap{peer: reoffer}, ct.CodecOffer.RemoteCodecs)

	eff, err = c.AcceptCodecOffer(ct.ID, first, audioCodecs())
	require.NoError(t, err)
	require.Equal(t, []NotificationKind{NotifyCodecsChanged}, eff.Kinds())
	assert.Equal(t, reoffer, eff.Notifications[0].Payload.(CodecsChanged).Updated[peer])

	// once resolved, new information opens a fresh offer
	eff, err = c.HandleStanza(peerStanza(c, ActionDescriptionInfo, ContentDescription{Name: "audio", Codecs: reoffer}))
	require.NoError(t, err)
	require.Equal(t, []NotificationKind{NotifyNewCodecOffer}, eff.Kinds())
	second := eff.Notifications[0].Payload.(NewCodecOffer).Offer
	assert.NotEqual(t, first, second)

	_, err = c.AcceptCodecOffer(ct.ID, first, audioCodecs())
	assert.ErrorIs(t, err, ErrInvalidState)

	// re-accepting an unchanged set is silent
	eff, err = c.AcceptCodecOffer(ct.ID, second, audioCodecs())
	require.NoError(t, err)
	assert.Empty(t, eff.Notifications)
}

func TestUpdateCodecs(t *testing.T) {
	c := acceptedOutgoing(t)
	ct, _, _ := only(t, c)
	require.NotNil(t, ct.CodecOffer)
	_, err := c.AcceptCodecOffer(ct.ID, ct.CodecOffer.ID, audioCodecs())
	require.NoError(t, err)

	eff, err := c.UpdateCodecs(ct.ID, audioCodecs())
	require.NoError(t, err)
	assert.True(t, eff.Empty(), "unchanged codecs are a no-op")

	updated := audioCodecs()[1:]
	eff, err = c.UpdateCodecs(ct.ID, updated)
	require.NoError(t, err)
	require.Equal(t, []NotificationKind{NotifyCodecsChanged}, eff.Kinds())
	assert.Equal(t, CodecMap{self: updated}, eff.Notifications[0].Payload.(CodecsChanged).Updated)
	require.Equal(t, []Action{ActionDescriptionInfo}, actions(eff))
	assert.Equal(t, updated, eff.Stanzas[0].Contents[0].Codecs)
}
