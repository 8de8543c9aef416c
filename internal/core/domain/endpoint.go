package domain

import "fmt"

// Endpoint is one negotiated transport path of a stream.
type Endpoint struct {
	ID       EndpointID
	StreamID StreamID

	transport         TransportKind
	localCandidates   []Candidate
	remoteCandidates  []Candidate
	remoteCredentials Credentials
	selected          map[uint32]Candidate
	lastSelected      Candidate
	state             StreamState
}

func newEndpoint(stream StreamID, kind TransportKind) *Endpoint {
	return &Endpoint{
		ID:        NewEndpointID(),
		StreamID:  stream,
		transport: kind,
		selected:  make(map[uint32]Candidate),
		state:     StreamStateDisconnected,
	}
}

type EndpointProperties struct {
	ID                EndpointID    `json:"id"`
	Stream            StreamID      `json:"stream"`
	Transport         TransportKind `json:"transport"`
	LocalCandidates   []Candidate   `json:"local_candidates"`
	RemoteCandidates  []Candidate   `json:"remote_candidates"`
	RemoteCredentials Credentials   `json:"remote_credentials"`
	SelectedCandidate Candidate     `json:"selected_candidate"`
	StreamState       StreamState   `json:"stream_state"`
}

func (e *Endpoint) properties() EndpointProperties {
	return EndpointProperties{
		ID:                e.ID,
		Stream:            e.StreamID,
		Transport:         e.transport,
		LocalCandidates:   cloneCandidates(e.localCandidates),
		RemoteCandidates:  cloneCandidates(e.remoteCandidates),
		RemoteCredentials: e.remoteCredentials,
		SelectedCandidate: e.lastSelected.clone(),
		StreamState:       e.state,
	}
}

func (e *Endpoint) addRemote(cands []Candidate) []Candidate {
	added := cloneCandidates(cands)
	e.remoteCandidates = append(e.remoteCandidates, added...)
	return cloneCandidates(added)
}

// bestRemote returns the highest priority remote candidate of a component.
// Earlier arrivals win ties.
func (e *Endpoint) bestRemote(component uint32) (Candidate, bool) {
	var (
		best  Candidate
		found bool
	)
	for _, rc := range e.remoteCandidates {
		if rc.Component != component {
			continue
		}
		if !found || rc.Priority() > best.Priority() {
			best, found = rc, true
		}
	}
	return best, found
}

// selectCandidate records a selection and returns the candidates that were
// newly selected, in notification order. On a paired transport a new RTP
// selection always re-announces its RTCP companion.
func (e *Endpoint) selectCandidate(c Candidate, paired bool) []Candidate {
	var changed []Candidate
	c = c.clone()
	e.lastSelected = c
	if cur, ok := e.selected[c.Component]; !ok || !cur.Equal(c) {
		e.selected[c.Component] = c
		changed = append(changed, c.clone())
	}
	if !paired || c.Component != ComponentRTP {
		return changed
	}
	companion, ok := e.bestRemote(ComponentRTCP)
	if !ok {
		return changed
	}
	if cur, ok := e.selected[ComponentRTCP]; ok && cur.Equal(companion) && len(changed) == 0 {
		return changed
	}
	e.selected[ComponentRTCP] = companion.clone()
	return append(changed, companion.clone())
}

func (e *Endpoint) setState(s StreamState) (bool, error) {
	if !s.Valid() {
		return false, fmt.Errorf("%w: stream state %d", ErrInvalidArgument, s)
	}
	if s == StreamStateConnected && len(e.selected) == 0 {
		return false, fmt.Errorf("%w: no candidate selected on endpoint %s", ErrInvalidState, e.ID)
	}
	if s == e.state {
		return false, nil
	}
	e.state = s
	return true, nil
}
