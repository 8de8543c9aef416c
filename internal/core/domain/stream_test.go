package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSending(t *testing.T) {
	c := acceptedOutgoing(t)
	_, stream, _ := only(t, c)
	require.Equal(t, SendingStateSending, stream.LocalSendingState)

	sendingStates := func(e Effects) []SendingState {
		var out []SendingState
		for _, n := range e.Notifications {
			if p, ok := n.Payload.(LocalSendingStateChanged); ok {
				out = append(out, p.State)
			}
		}
		return out
	}

	eff, err := c.SetSending(stream.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []SendingState{SendingStatePendingStopSending, SendingStateNone}, sendingStates(eff))
	require.Equal(t, []Action{ActionContentModify}, actions(eff))
	assert.Equal(t, SendersResponder, eff.Stanzas[0].Contents[0].Senders)

	eff, err = c.SetSending(stream.ID, false)
	require.NoError(t, err)
	assert.True(t, eff.Empty())

	eff, err = c.SetSending(stream.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []SendingState{SendingStatePendingSend, SendingStateSending}, sendingStates(eff))
	require.Equal(t, []Action{ActionContentModify}, actions(eff))
	assert.Equal(t, SendersBoth, eff.Stanzas[0].Contents[0].Senders)

	eff, err = c.SetSending(stream.ID, true)
	require.NoError(t, err)
	assert.True(t, eff.Empty())
}

func TestSetSendingWaitsForTransport(t *testing.T) {
	c, _, err := NewIncomingCall(testPolicy(), incomingInitiate())
	require.NoError(t, err)
	_, stream, _ := only(t, c)

	eff, err := c.SetSending(stream.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []NotificationKind{NotifyLocalSendingStateChanged}, eff.Kinds())
	assert.Empty(t, eff.Stanzas)

	eff, err = c.SetSending(stream.ID, true)
	require.NoError(t, err)
	require.Len(t, eff.Notifications, 1)
	assert.Equal(t, LocalSendingStateChanged{State: SendingStatePendingSend}, eff.Notifications[0].Payload)
}

func TestPeerContentModify(t *testing.T) {
	c := acceptedOutgoing(t)
	ct, _, _ := only(t, c)
	eff, err := c.HandleStanza(peerStanza(c, ActionContentModify, ContentDescription{Name: ct.Name, Senders: SendersInitiator}))
	require.NoError(t, err)
	require.Equal(t, []NotificationKind{NotifyRemoteMembersChanged}, eff.Kinds())
	assert.Equal(t, map[Contact]SendingState{peer: SendingStateNone}, eff.Notifications[0].Payload.(RemoteMembersChanged).Updated)
}

func TestCredentials(t *testing.T) {
	c, _, err := NewIncomingCall(testPolicy(), incomingInitiate())
	require.NoError(t, err)
	_, stream, _ := only(t, c)

	_, err = c.SetCredentials(stream.ID, Credentials{Username: "u"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	eff, err := c.SetCredentials(stream.ID, testCredentials())
	require.NoError(t, err)
	require.Equal(t, []NotificationKind{NotifyLocalCredentialsChanged}, eff.Kinds())
	assert.Equal(t, LocalCredentialsChanged{Credentials: testCredentials()}, eff.Notifications[0].Payload)

	eff, err = c.CandidatesPrepared(stream.ID)
	require.NoError(t, err)
	assert.True(t, eff.Empty())
	eff, err = c.CandidatesPrepared(stream.ID)
	require.NoError(t, err)
	assert.True(t, eff.Empty())

	_, err = c.SetCredentials(stream.ID, Credentials{Username: "other", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, stream, _ = only(t, c)
	assert.Equal(t, testCredentials(), stream.LocalCredentials)
	assert.True(t, stream.CandidatesPrepared)
}

func TestCandidatesPreparedMakesContentReady(t *testing.T) {
	c, _, err := NewIncomingCall(testPolicy(), incomingInitiate())
	require.NoError(t, err)
	ct, stream, _ := only(t, c)
	_, err = c.AcceptCodecOffer(ct.ID, ct.CodecOffer.ID, audioCodecs())
	require.NoError(t, err)
	_, err = c.Accept()
	require.NoError(t, err)

	eff, err := c.CandidatesPrepared(stream.ID)
	require.NoError(t, err)
	assert.Equal(t, []Action{ActionSessionAccept}, actions(eff))
	assert.Equal(t, CallStateAccepted, c.State())
	_, stream, _ = only(t, c)
	assert.Equal(t, SendingStatePendingSend, stream.LocalSendingState, "no candidates yet")
}

func TestAddCandidatesAppends(t *testing.T) {
	c, _, err := NewIncomingCall(testPolicy(), incomingInitiate())
	require.NoError(t, err)
	_, stream, _ := only(t, c)

	total := 0
	for i := 1; i <= 4; i++ {
		batch := make([]Candidate, i)
		for j := range batch {
			batch[j] = localCandidate(1, uint16(4000+j))
		}
		total += len(batch)
		eff, err := c.AddCandidates(stream.ID, batch)
		require.NoError(t, err)
		require.Equal(t, []NotificationKind{NotifyLocalCandidatesAdded}, eff.Kinds(), "batch %d", i)
		assert.Equal(t, CandidatesAdded{Candidates: batch}, eff.Notifications[0].Payload)
	}
	_, stream, ep := only(t, c)
	assert.Len(t, stream.LocalCandidates, total)
	assert.Len(t, ep.LocalCandidates, total)
}

func TestAddCandidatesValidation(t *testing.T) {
	c, _, err := NewIncomingCall(testPolicy(), incomingInitiate())
	require.NoError(t, err)
	_, stream, _ := only(t, c)

	bad := []struct {
		name  string
		cands []Candidate
	}{
		{"empty", nil},
		{"component", []Candidate{{Address: "10.0.0.1", Port: 1}}},
		{"address", []Candidate{{Component: 1, Port: 1}}},
		{"port", []Candidate{localCandidate(1, 4000), {Component: 1, Address: "10.0.0.1"}}},
		{"hostname address", []Candidate{{Component: 1, Address: "example.com", Port: 4000}}},
		{"unknown type", []Candidate{withInfo(localCandidate(1, 4000), "type", "0")}},
		{"malformed priority", []Candidate{withInfo(localCandidate(1, 4000), "priority", "high")}},
		{"malformed rport", []Candidate{withInfo(localCandidate(1, 4000), "rport", "70000")}},
		{"malformed raddr", []Candidate{withInfo(localCandidate(1, 4000), "raddr", "nowhere")}},
		{"protocol", []Candidate{withInfo(localCandidate(1, 4000), "protocol", "sctp")}},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			eff, err := c.AddCandidates(stream.ID, tt.cands)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.True(t, eff.Empty())
		})
	}
	_, stream, _ = only(t, c)
	assert.Empty(t, stream.LocalCandidates)
}

func TestAddCandidatesAcceptsMDNSAndRelay(t *testing.T) {
	c, _, err := NewIncomingCall(testPolicy(), incomingInitiate())
	require.NoError(t, err)
	_, stream, _ := only(t, c)

	mdns := Candidate{Component: 1, Address: "3f2a1c7e-host.local", Port: 4000, Info: map[string]string{"type": "host"}}
	relay := withInfo(withInfo(localCandidate(1, 4002), "type", "relay"), "raddr", "203.0.113.9")
	_, err = c.AddCandidates(stream.ID, []Candidate{mdns, withInfo(relay, "rport", "3478")})
	require.NoError(t, err)
	_, stream, _ = only(t, c)
	assert.Len(t, stream.LocalCandidates, 2)
}

func TestStreamState(t *testing.T) {
	c, _, err := NewIncomingCall(testPolicy(), incomingInitiate())
	require.NoError(t, err)
	_, _, ep := only(t, c)

	_, err = c.SetStreamState(ep.ID, StreamStateConnected)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = c.SetStreamState(ep.ID, StreamState(42))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	eff, err := c.SetStreamState(ep.ID, StreamStateConnecting)
	require.NoError(t, err)
	assert.Equal(t, []NotificationKind{NotifyStreamStateChanged}, eff.Kinds())

	_, err = c.SetSelectedCandidate(ep.ID, Candidate{Address: "10.0.0.2", Port: 5000})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.SetSelectedCandidate(ep.ID, ep.RemoteCandidates[0])
	require.NoError(t, err)

	eff, err = c.SetStreamState(ep.ID, StreamStateConnected)
	require.NoError(t, err)
	require.Equal(t, []NotificationKind{NotifyStreamStateChanged}, eff.Kinds())
	assert.Equal(t, StreamStateChanged{State: StreamStateConnected}, eff.Notifications[0].Payload)
}

func TestStreamFailureEndsCall(t *testing.T) {
	c := acceptedOutgoing(t)
	_, _, ep := only(t, c)
	eff, err := c.SetStreamState(ep.ID, StreamStateFailed)
	require.NoError(t, err)
	assert.Equal(t, []NotificationKind{NotifyStreamStateChanged, NotifyCallStateChanged}, eff.Kinds())
	assert.True(t, c.Ended())
	assert.Equal(t, ReasonConnectionLost, c.Properties().CallStateReason.Code)
}

func TestSelectedCandidatePairing(t *testing.T) {
	rtp := remoteCandidate(1, 5000, "100")
	tests := []struct {
		name      string
		transport TransportKind
		remote    []Candidate
		want      []Candidate
	}{
		{
			name:      "paired transport follows with best rtcp",
			transport: TransportICEUDP,
			remote:    []Candidate{rtp, remoteCandidate(2, 5001, "10"), remoteCandidate(2, 5003, "70")},
			want:      []Candidate{rtp, remoteCandidate(2, 5003, "70")},
		},
		{
			name:      "ties go to the earliest arrival",
			transport: TransportGoogleP2P,
			remote:    []Candidate{rtp, remoteCandidate(2, 5001, "70"), remoteCandidate(2, 5003, "70")},
			want:      []Candidate{rtp, remoteCandidate(2, 5001, "70")},
		},
		{
			name:      "paired transport without rtcp",
			transport: TransportGoogleP2P,
			remote:    []Candidate{rtp},
			want:      []Candidate{rtp},
		},
		{
			name:      "unpaired transport",
			transport: TransportRawUDP,
			remote:    []Candidate{rtp, remoteCandidate(2, 5001, "10")},
			want:      []Candidate{rtp},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := incomingInitiate(ContentDescription{
				Name: "audio", Media: MediaTypeAudio, Codecs: audioCodecs(),
				Transport: TransportDescription{Kind: tt.transport, Candidates: tt.remote},
			})
			c, _, err := NewIncomingCall(testPolicy(), st)
			require.NoError(t, err)
			_, _, ep := only(t, c)

			eff, err := c.SetSelectedCandidate(ep.ID, rtp)
			require.NoError(t, err)
			var got []Candidate
			for _, n := range eff.Notifications {
				require.Equal(t, NotifyCandidateSelected, n.Kind)
				assert.Equal(t, ep.ID, n.EndpointID)
				got = append(got, n.Payload.(CandidateSelected).Candidate)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectingNewCandidateNotifiesAgain(t *testing.T) {
	c, _, err := NewIncomingCall(testPolicy(), incomingInitiate())
	require.NoError(t, err)
	_, _, ep := only(t, c)

	for i := range 3 {
		cand := remoteCandidate(1, uint16(5000+i), fmt.Sprint(i))
		eff, err := c.SetSelectedCandidate(ep.ID, cand)
		require.NoError(t, err)
		assert.Len(t, eff.Notifications, 1)
		_, _, got := only(t, c)
		assert.Equal(t, cand, got.SelectedCandidate)
	}
}

func TestNewRTPSelectionReannouncesCompanion(t *testing.T) {
	rtcp := remoteCandidate(2, 6000, "50")
	remote := []Candidate{rtcp}
	for i := range 3 {
		remote = append(remote, remoteCandidate(1, uint16(5000+i), fmt.Sprint(100+i)))
	}
	c, _, err := NewIncomingCall(testPolicy(), incomingInitiate(ContentDescription{
		Name: "audio", Media: MediaTypeAudio, Codecs: audioCodecs(),
		Transport: TransportDescription{Kind: TransportGoogleP2P, Candidates: remote},
	}))
	require.NoError(t, err)
	_, _, ep := only(t, c)

	for _, rtp := range remote[1:] {
		eff, err := c.SetSelectedCandidate(ep.ID, rtp)
		require.NoError(t, err)
		require.Len(t, eff.Notifications, 2)
		assert.Equal(t, rtp, eff.Notifications[0].Payload.(CandidateSelected).Candidate)
		assert.Equal(t, rtcp, eff.Notifications[1].Payload.(CandidateSelected).Candidate)
	}

	eff, err := c.SetSelectedCandidate(ep.ID, remote[len(remote)-1])
	require.NoError(t, err)
	assert.True(t, eff.Empty())
}
