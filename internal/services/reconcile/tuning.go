package reconcile

import "github.com/mcoot/skyrace/internal/model"

// Tuning holds the physics constants of the integrator
type Tuning struct {
	// Step is the fixed simulation step applied per accepted intent, in seconds
	Step float64

	// Thrust per throttle level, in units/s²
	BrakeSpeed   float64
	IdleSpeed    float64
	ForwardSpeed float64

	// Drag is the exponential velocity decay rate per second. Zero disables it.
	Drag float64
}

// DefaultTuning returns the default physics constants
func DefaultTuning() Tuning {
	return Tuning{
		Step:         1.0 / 60,
		BrakeSpeed:   -20,
		IdleSpeed:    2,
		ForwardSpeed: 40,
		Drag:         0,
	}
}

// SpeedFor returns the thrust for a throttle level
func (t Tuning) SpeedFor(throttle model.Throttle) float64 {
	switch throttle {
	case model.ThrottleBrake:
		return t.BrakeSpeed
	case model.ThrottleIdle:
		return t.IdleSpeed
	case model.ThrottleForward:
		return t.ForwardSpeed
	default:
		panic("reconcile: invalid throttle " + throttle.String())
	}
}
