package wire

import (
	"strconv"
	"strings"

	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/pion/ice/v4"
	"github.com/pion/webrtc/v4"
	"github.com/pkg/errors"
)

// Attribute keys of domain.Candidate.Info carried by the candidate line.
const (
	InfoFoundation = "foundation"
	InfoPriority   = "priority"
	InfoProtocol   = "protocol"
	InfoType       = "type"
	InfoRelAddr    = "raddr"
	InfoRelPort    = "rport"
	InfoUsername   = "username"
)

const candidatePrefix = "candidate:"

func infoInt(info map[string]string, key string) (int, error) {
	v, ok := info[key]
	if !ok || v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(domain.ErrInvalidArgument, "candidate %s %q", key, v)
	}
	return n, nil
}

func newICECandidate(c domain.Candidate) (ice.Candidate, error) {
	network := c.Info[InfoProtocol]
	if network == "" {
		network = "udp"
	}
	priority, err := infoInt(c.Info, InfoPriority)
	if err != nil {
		return nil, err
	}
	relPort, err := infoInt(c.Info, InfoRelPort)
	if err != nil {
		return nil, err
	}
	relAddr := c.Info[InfoRelAddr]
	if relAddr == "" {
		relAddr = "0.0.0.0"
	}
	port, component, foundation := int(c.Port), uint16(c.Component), c.Info[InfoFoundation]

	switch typ := c.Info[InfoType]; typ {
	case "", "host", "local":
		return ice.NewCandidateHost(&ice.CandidateHostConfig{
			Network: network, Address: c.Address, Port: port, Component: component,
			Priority: uint32(priority), Foundation: foundation,
		})
	case "srflx", "stun":
		return ice.NewCandidateServerReflexive(&ice.CandidateServerReflexiveConfig{
			Network: network, Address: c.Address, Port: port, Component: component,
			Priority: uint32(priority), Foundation: foundation, RelAddr: relAddr, RelPort: relPort,
		})
	case "prflx":
		return ice.NewCandidatePeerReflexive(&ice.CandidatePeerReflexiveConfig{
			Network: network, Address: c.Address, Port: port, Component: component,
			Priority: uint32(priority), Foundation: foundation, RelAddr: relAddr, RelPort: relPort,
		})
	case "relay":
		return ice.NewCandidateRelay(&ice.CandidateRelayConfig{
			Network: network, Address: c.Address, Port: port, Component: component,
			Priority: uint32(priority), Foundation: foundation, RelAddr: relAddr, RelPort: relPort,
		})
	default:
		return nil, errors.Wrapf(domain.ErrInvalidArgument, "candidate type %q", typ)
	}
}

// EncodeCandidate renders a candidate as an ICE candidate-attribute line.
func EncodeCandidate(c domain.Candidate, mid string, index uint16) (webrtc.ICECandidateInit, error) {
	cand, err := newICECandidate(c)
	if err != nil {
		return webrtc.ICECandidateInit{}, errors.Wrapf(err, "candidate %s:%d", c.Address, c.Port)
	}
	line := webrtc.ICECandidateInit{
		Candidate:     candidatePrefix + cand.Marshal(),
		SDPMid:        &mid,
		SDPMLineIndex: &index,
	}
	if u := c.Info[InfoUsername]; u != "" {
		line.UsernameFragment = &u
	}
	return line, nil
}

// DecodeCandidate parses an ICE candidate-attribute line.
func DecodeCandidate(line webrtc.ICECandidateInit) (domain.Candidate, error) {
	cand, err := ice.UnmarshalCandidate(strings.TrimPrefix(line.Candidate, candidatePrefix))
	if err != nil {
		return domain.Candidate{}, errors.Wrapf(domain.ErrInvalidArgument, "candidate %q: %v", line.Candidate, err)
	}
	info := map[string]string{
		InfoFoundation: cand.Foundation(),
		InfoPriority:   strconv.FormatUint(uint64(cand.Priority()), 10),
		InfoProtocol:   cand.NetworkType().NetworkShort(),
		InfoType:       cand.Type().String(),
	}
	if rel := cand.RelatedAddress(); rel != nil && rel.Address != "" {
		info[InfoRelAddr] = rel.Address
		info[InfoRelPort] = strconv.Itoa(rel.Port)
	}
	if line.UsernameFragment != nil && *line.UsernameFragment != "" {
		info[InfoUsername] = *line.UsernameFragment
	}
	return domain.Candidate{
		Component: uint32(cand.Component()),
		Address:   cand.Address(),
		Port:      uint16(cand.Port()),
		Info:      info,
	}, nil
}
