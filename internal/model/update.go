package model

import "fmt"

// Throttle is the discrete thrust level of an intent
type Throttle uint8

const (
	ThrottleBrake Throttle = iota + 1
	ThrottleIdle
	ThrottleForward
)

// String returns the wire name of the throttle level
func (t Throttle) String() string {
	switch t {
	case ThrottleBrake:
		return "brake"
	case ThrottleIdle:
		return "idle"
	case ThrottleForward:
		return "forward"
	default:
		return fmt.Sprintf("Throttle(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the defined throttle levels
func (t Throttle) Valid() bool {
	return t >= ThrottleBrake && t <= ThrottleForward
}

// ParseThrottle parses a wire throttle name
func ParseThrottle(s string) (Throttle, error) {
	switch s {
	case "brake":
		return ThrottleBrake, nil
	case "idle":
		return ThrottleIdle, nil
	case "forward":
		return ThrottleForward, nil
	default:
		return 0, fmt.Errorf("%w: unknown throttle %q", ErrMalformedUpdate, s)
	}
}

// Update is a client submission for one player. It is either a
// FullStateUpdate or an IntentUpdate.
type Update interface {
	// Sequence is the client timestamp checked by the staleness guard
	Sequence() float64
	isUpdate()
}

// FullStateUpdate is the legacy trusted mode: the client states its own
// kinematics and the server stores them verbatim.
type FullStateUpdate struct {
	Timestamp    float64
	Position     Vec3
	Velocity     Vec3
	Acceleration Vec3
	Direction    *Vec3 // optional; kept as-is when nil
}

// IntentUpdate is the authoritative mode: the client states a thrust
// direction and throttle, and the server integrates motion.
type IntentUpdate struct {
	Timestamp float64
	Direction Vec3
	Throttle  Throttle
}

func (u FullStateUpdate) Sequence() float64 { return u.Timestamp }
func (u IntentUpdate) Sequence() float64    { return u.Timestamp }

func (FullStateUpdate) isUpdate() {}
func (IntentUpdate) isUpdate()    {}
