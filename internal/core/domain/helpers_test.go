package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	self Contact = "test@localhost"
	peer Contact = "foo@bar.com/Foo"
)

func testPolicy() Policy {
	return DefaultPolicy(self)
}

func peerCaps(transports ...TransportKind) PeerCapabilities {
	if len(transports) == 0 {
		transports = []TransportKind{TransportICEUDP, TransportGoogleP2P}
	}
	return PeerCapabilities{Calls: true, Audio: true, Video: true, Transports: transports}
}

func audioCodecs() []Codec {
	return []Codec{
		{ID: 3, Name: "GSM", ClockRate: 8000, Channels: 1, Params: map[string]string{}},
		{ID: 8, Name: "PCMA", ClockRate: 8000, Channels: 1, Params: map[string]string{}},
		{ID: 0, Name: "PCMU", ClockRate: 8000, Channels: 1, Params: map[string]string{}},
	}
}

func videoCodecs() []Codec {
	return []Codec{
		{ID: 96, Name: "VP8", ClockRate: 90000, Params: map[string]string{}},
		{ID: 34, Name: "H263", ClockRate: 90000, Params: map[string]string{}},
	}
}

func localCandidate(component uint32, port uint16) Candidate {
	return Candidate{
		Component: component,
		Address:   "192.168.0.1",
		Port:      port,
		Info:      map[string]string{"protocol": "udp", "priority": "100", "type": "host"},
	}
}

func remoteCandidate(component uint32, port uint16, priority string) Candidate {
	return Candidate{
		Component: component,
		Address:   "10.0.0.2",
		Port:      port,
		Info:      map[string]string{"protocol": "udp", "priority": priority, "type": "host"},
	}
}

func testCredentials() Credentials {
	return Credentials{Username: "ufrag", Password: "pwd"}
}

func incomingInitiate(contents ...ContentDescription) Stanza {
	if len(contents) == 0 {
		contents = []ContentDescription{{
			Name:    "audio",
			Creator: CreatorInitiator,
			Senders: SendersBoth,
			Media:   MediaTypeAudio,
			Codecs:  audioCodecs(),
			Transport: TransportDescription{
				Kind:       TransportGoogleP2P,
				Candidates: []Candidate{remoteCandidate(1, 5000, "100")},
			},
		}}
	}
	return Stanza{
		Action:    ActionSessionInitiate,
		SessionID: "sid-1",
		Peer:      peer,
		Initiator: peer,
		Contents:  contents,
	}
}

func withInfo(c Candidate, key, value string) Candidate {
	c = c.clone()
	c.Info[key] = value
	return c
}

func peerStanza(c *Call, action Action, contents ...ContentDescription) Stanza {
	return Stanza{Action: action, SessionID: c.SessionID, Peer: peer, Initiator: c.Initiator(), Contents: contents}
}

// only returns the single content, stream and endpoint of a one-content call.
func only(t *testing.T, c *Call) (ContentProperties, StreamProperties, EndpointProperties) {
	t.Helper()
	props := c.Properties()
	require.Len(t, props.Contents, 1)
	ct, err := c.Content(props.Contents[0])
	require.NoError(t, err)
	require.Len(t, ct.Streams, 1)
	s, err := c.Stream(ct.Streams[0])
	require.NoError(t, err)
	require.Len(t, s.Endpoints, 1)
	ep, err := c.Endpoint(s.Endpoints[0])
	require.NoError(t, err)
	return ct, s, ep
}

// readyContent makes a content ready: offer accepted, credentials and one
// local candidate.
func readyContent(t *testing.T, c *Call, id ContentID, codecs []Codec) Effects {
	t.Helper()
	ct, err := c.Content(id)
	require.NoError(t, err)
	var all Effects
	if ct.CodecOffer != nil {
		eff, err := c.AcceptCodecOffer(id, ct.CodecOffer.ID, codecs)
		require.NoError(t, err)
		all = merge(all, eff)
	}
	eff, err := c.SetCredentials(ct.Streams[0], testCredentials())
	require.NoError(t, err)
	all = merge(all, eff)
	eff, err = c.AddCandidates(ct.Streams[0], []Candidate{localCandidate(1, 4000), localCandidate(2, 4001)})
	require.NoError(t, err)
	return merge(all, eff)
}

func merge(a, b Effects) Effects {
	a.Notifications = append(a.Notifications, b.Notifications...)
	a.Stanzas = append(a.Stanzas, b.Stanzas...)
	return a
}

func actions(e Effects) []Action {
	out := make([]Action, len(e.Stanzas))
	for i, st := range e.Stanzas {
		out[i] = st.Action
	}
	return out
}

// acceptedOutgoing drives an outgoing audio call to Accepted.
func acceptedOutgoing(t *testing.T) *Call {
	t.Helper()
	c, _, err := NewOutgoingCall(testPolicy(), peerCaps(), OutgoingRequest{Target: peer, InitialAudio: true})
	require.NoError(t, err)
	_, err = c.Accept()
	require.NoError(t, err)
	ct, _, _ := only(t, c)
	readyContent(t, c, ct.ID, audioCodecs())
	_, err = c.HandleStanza(peerStanza(c, ActionSessionAccept, ContentDescription{
		Name: ct.Name, Senders: SendersBoth, Media: MediaTypeAudio, Codecs: audioCodecs(),
	}))
	require.NoError(t, err)
	require.Equal(t, CallStateAccepted, c.State())
	return c
}
