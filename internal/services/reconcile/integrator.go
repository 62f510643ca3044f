package reconcile

import (
	"math"

	"github.com/mcoot/skyrace/internal/model"
)

// Integrate advances k by one fixed step under the thrust of in.
// The throttle must be valid.
func Integrate(k model.Kinematics, in model.IntentUpdate, t Tuning) model.Kinematics {
	dir := in.Direction.Normalized()
	accel := dir.Scale(t.SpeedFor(in.Throttle))

	vel := k.Velocity.Add(accel.Scale(t.Step))
	if t.Drag > 0 {
		vel = vel.Scale(math.Exp(-t.Drag * t.Step))
	}
	pos := k.Position.Add(vel.Scale(t.Step))

	return model.Kinematics{
		Position:     pos,
		Velocity:     vel,
		Acceleration: accel,
		Direction:    dir,
	}
}
