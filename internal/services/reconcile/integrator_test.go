package reconcile

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/skyrace/internal/model"
)

func TestIntegrateForwardFromRest(t *testing.T) {
	tuning := DefaultTuning()
	in := model.IntentUpdate{Direction: model.Vec3{X: 1}, Throttle: model.ThrottleForward, Timestamp: 1}

	k := Integrate(model.Kinematics{}, in, tuning)

	wantVX := tuning.ForwardSpeed * (1.0 / 60)
	assert.Equal(t, wantVX, k.Velocity.X)
	assert.Equal(t, wantVX*(1.0/60), k.Position.X)
	assert.Zero(t, k.Velocity.Y)
	assert.Zero(t, k.Velocity.Z)
	assert.Equal(t, model.Vec3{X: 1}, k.Direction)
	assert.Equal(t, model.Vec3{X: tuning.ForwardSpeed}, k.Acceleration)
}

func TestIntegrateUsesFixedStep(t *testing.T) {
	tuning := DefaultTuning()
	tuning.Step = 0.5
	tuning.ForwardSpeed = 10
	in := model.IntentUpdate{Direction: model.Vec3{Y: 1}, Throttle: model.ThrottleForward}

	k := Integrate(model.Kinematics{Velocity: model.Vec3{Y: 2}, Position: model.Vec3{Y: 1}}, in, tuning)

	// v = 2 + 10*0.5 = 7, p = 1 + 7*0.5 = 4.5
	assert.Equal(t, 7.0, k.Velocity.Y)
	assert.Equal(t, 4.5, k.Position.Y)
}

func TestIntegrateBrakeSlowsDown(t *testing.T) {
	tuning := DefaultTuning()
	in := model.IntentUpdate{Direction: model.Vec3{X: 1}, Throttle: model.ThrottleBrake}

	k := Integrate(model.Kinematics{Velocity: model.Vec3{X: 5}}, in, tuning)

	assert.Less(t, k.Velocity.X, 5.0)
}

func TestIntegrateIdleKeepsSmallThrust(t *testing.T) {
	tuning := DefaultTuning()
	in := model.IntentUpdate{Direction: model.Vec3{Z: 1}, Throttle: model.ThrottleIdle}

	k := Integrate(model.Kinematics{}, in, tuning)

	assert.InDelta(t, tuning.IdleSpeed*tuning.Step, k.Velocity.Z, 1e-12)
}

func TestIntegrateNormalizesDirection(t *testing.T) {
	tuning := DefaultTuning()
	in := model.IntentUpdate{Direction: model.Vec3{X: 300, Y: 400}, Throttle: model.ThrottleForward}

	k := Integrate(model.Kinematics{}, in, tuning)

	assert.InDelta(t, 0.6, k.Direction.X, 1e-12)
	assert.InDelta(t, 0.8, k.Direction.Y, 1e-12)
	assert.InDelta(t, tuning.ForwardSpeed*tuning.Step, k.Velocity.Length(), 1e-12)
}

func TestIntegrateZeroDirectionCoasts(t *testing.T) {
	tuning := DefaultTuning()
	start := model.Kinematics{Velocity: model.Vec3{X: 6}, Position: model.Vec3{X: 1}}
	in := model.IntentUpdate{Throttle: model.ThrottleForward}

	k := Integrate(start, in, tuning)

	assert.Equal(t, 6.0, k.Velocity.X)
	assert.Equal(t, 1+6*tuning.Step, k.Position.X)
	assert.Equal(t, model.Vec3{}, k.Direction)
}

func TestIntegrateAppliesDrag(t *testing.T) {
	tuning := DefaultTuning()
	tuning.Drag = 0.5
	start := model.Kinematics{Velocity: model.Vec3{X: 10}}
	in := model.IntentUpdate{Throttle: model.ThrottleIdle}

	k := Integrate(start, in, tuning)

	assert.InDelta(t, 10*math.Exp(-0.5*tuning.Step), k.Velocity.X, 1e-12)
}

func TestIntegrateIsDeterministic(t *testing.T) {
	tuning := DefaultTuning()
	in := model.IntentUpdate{Direction: model.Vec3{X: 0.3, Y: -0.2, Z: 0.9}, Throttle: model.ThrottleForward}

	var a, b model.Kinematics
	for i := 0; i < 120; i++ {
		a = Integrate(a, in, tuning)
		b = Integrate(b, in, tuning)
	}
	assert.Equal(t, a, b)
}

func TestSpeedForPanicsOnInvalidThrottle(t *testing.T) {
	assert.Panics(t, func() { DefaultTuning().SpeedFor(model.Throttle(0)) })
}
