package reconcile

import (
	"fmt"
	"math"

	"github.com/mcoot/skyrace/internal/model"
)

// Outcome is the result of applying an update that was well-formed
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeStale    Outcome = "stale"
)

// Reconciler applies client updates to player records
type Reconciler struct {
	tuning Tuning
}

// New creates a Reconciler with the given tuning
func New(tuning Tuning) *Reconciler {
	return &Reconciler{tuning: tuning}
}

// Tuning returns the physics constants in use
func (r *Reconciler) Tuning() Tuning {
	return r.tuning
}

// Apply validates u, runs the staleness guard and, if accepted, updates the
// player's kinematics and input sequence. A stale update leaves p untouched.
func (r *Reconciler) Apply(p *model.Player, u model.Update) (Outcome, error) {
	if err := Validate(u); err != nil {
		return "", err
	}

	if IsStale(p.LastInputSeq, u.Sequence()) {
		return OutcomeStale, nil
	}

	switch v := u.(type) {
	case model.IntentUpdate:
		p.SetKinematics(Integrate(p.Kinematics(), v, r.tuning))
	case model.FullStateUpdate:
		p.Position = v.Position
		p.Velocity = v.Velocity
		p.Acceleration = v.Acceleration
		if v.Direction != nil {
			p.Direction = *v.Direction
		}
	}
	p.LastInputSeq = u.Sequence()

	return OutcomeAccepted, nil
}

// Validate checks that u is a known variant with finite, in-range fields
func Validate(u model.Update) error {
	if u == nil {
		return fmt.Errorf("%w: missing update", model.ErrMalformedUpdate)
	}

	seq := u.Sequence()
	if math.IsNaN(seq) || math.IsInf(seq, 0) || seq < 0 {
		return fmt.Errorf("%w: timestamp must be a non-negative number", model.ErrMalformedUpdate)
	}

	switch v := u.(type) {
	case model.IntentUpdate:
		if !v.Direction.IsFinite() {
			return fmt.Errorf("%w: direction must be finite", model.ErrMalformedUpdate)
		}
		if !v.Throttle.Valid() {
			return fmt.Errorf("%w: unknown throttle", model.ErrMalformedUpdate)
		}
	case model.FullStateUpdate:
		if !v.Position.IsFinite() || !v.Velocity.IsFinite() || !v.Acceleration.IsFinite() {
			return fmt.Errorf("%w: kinematics must be finite", model.ErrMalformedUpdate)
		}
		if v.Direction != nil && !v.Direction.IsFinite() {
			return fmt.Errorf("%w: direction must be finite", model.ErrMalformedUpdate)
		}
	default:
		return fmt.Errorf("%w: unsupported update %T", model.ErrMalformedUpdate, u)
	}
	return nil
}
