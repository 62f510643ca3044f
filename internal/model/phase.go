package model

import "fmt"

// Phase is the match lifecycle state of the lobby
type Phase uint8

const (
	PhaseWarmup Phase = iota + 1 // Players gather, race not yet started
	PhaseRacing                  // Race in progress, finishes register
	PhaseEnded                   // Race over, cooling down before the next warmup
)

// String returns the wire name of the phase
func (p Phase) String() string {
	switch p {
	case PhaseWarmup:
		return "WARMUP"
	case PhaseRacing:
		return "RACING"
	case PhaseEnded:
		return "ENDED"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// Valid reports whether p is one of the defined phases
func (p Phase) Valid() bool {
	switch p {
	case PhaseWarmup, PhaseRacing, PhaseEnded:
		return true
	default:
		return false
	}
}

// MarshalText encodes the phase by name
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid phase %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "WARMUP":
		*p = PhaseWarmup
	case "RACING":
		*p = PhaseRacing
	case "ENDED":
		*p = PhaseEnded
	default:
		return fmt.Errorf("unknown phase %q", string(text))
	}
	return nil
}
