package domain

import (
	"fmt"
	"maps"
	"net/netip"
	"strconv"
	"strings"
)

// Candidate is one transport path proposal. Info carries the transport
// specific attributes (foundation, priority, protocol, type, username...).
type Candidate struct {
	Component uint32            `json:"component"`
	Address   string            `json:"address"`
	Port      uint16            `json:"port"`
	Info      map[string]string `json:"info"`
}

// Component numbers used by RTP transports.
const (
	ComponentRTP  uint32 = 1
	ComponentRTCP uint32 = 2
)

func (c Candidate) IsZero() bool {
	return c.Component == 0 && c.Address == "" && c.Port == 0 && len(c.Info) == 0
}

func (c Candidate) Equal(o Candidate) bool {
	return c.Component == o.Component &&
		c.Address == o.Address &&
		c.Port == o.Port &&
		maps.Equal(c.Info, o.Info)
}

// Priority returns the numeric "priority" attribute, 0 when absent or malformed.
func (c Candidate) Priority() uint64 {
	p, err := strconv.ParseUint(c.Info["priority"], 10, 32)
	if err != nil {
		return 0
	}
	return p
}

func (c Candidate) clone() Candidate {
	c.Info = maps.Clone(c.Info)
	if c.Info == nil {
		c.Info = map[string]string{}
	}
	return c
}

func (c Candidate) validate() error {
	if c.Component == 0 {
		return fmt.Errorf("%w: candidate component must be positive", ErrInvalidArgument)
	}
	if c.Address == "" {
		return fmt.Errorf("%w: candidate without address", ErrInvalidArgument)
	}
	if c.Port == 0 {
		return fmt.Errorf("%w: candidate %s without port", ErrInvalidArgument, c.Address)
	}
	if _, err := netip.ParseAddr(c.Address); err != nil && !strings.HasSuffix(c.Address, ".local") {
		return fmt.Errorf("%w: candidate address %q is not an IP", ErrInvalidArgument, c.Address)
	}
	return c.validateInfo()
}

// Candidate types understood by the transports, including the legacy
// gtalk spellings.
var candidateTypes = map[string]bool{
	"": true, "host": true, "local": true, "srflx": true, "stun": true, "prflx": true, "relay": true,
}

func (c Candidate) validateInfo() error {
	if t := c.Info["type"]; !candidateTypes[t] {
		return fmt.Errorf("%w: candidate %s has unknown type %q", ErrInvalidArgument, c.Address, t)
	}
	for _, key := range []string{"priority", "rport"} {
		v := c.Info[key]
		if v == "" {
			continue
		}
		bits := 32
		if key == "rport" {
			bits = 16
		}
		if _, err := strconv.ParseUint(v, 10, bits); err != nil {
			return fmt.Errorf("%w: candidate %s has malformed %s %q", ErrInvalidArgument, c.Address, key, v)
		}
	}
	if v := c.Info["raddr"]; v != "" {
		if _, err := netip.ParseAddr(v); err != nil {
			return fmt.Errorf("%w: candidate %s has malformed raddr %q", ErrInvalidArgument, c.Address, v)
		}
	}
	switch p := strings.ToLower(c.Info["protocol"]); p {
	case "", "udp", "tcp":
	default:
		return fmt.Errorf("%w: candidate %s has unsupported protocol %q", ErrInvalidArgument, c.Address, p)
	}
	return nil
}

func validateCandidates(list []Candidate) error {
	if len(list) == 0 {
		return fmt.Errorf("%w: empty candidate list", ErrInvalidArgument)
	}
	for _, c := range list {
		if err := c.validate(); err != nil {
			return err
		}
	}
	return nil
}

func cloneCandidates(in []Candidate) []Candidate {
	out := make([]Candidate, len(in))
	for i, c := range in {
		out[i] = c.clone()
	}
	return out
}
