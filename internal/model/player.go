package model

import "time"

// PlayerID is the opaque server-issued identifier of a player
type PlayerID string

// Player is a racer in the lobby. Kinematic fields are only changed by the
// reconciliation engine.
type Player struct {
	ID          PlayerID
	DisplayName string
	JoinedAt    time.Time

	// LastSeenAt is the server time of the most recent accepted update
	LastSeenAt time.Time
	// LastInputSeq is the client timestamp of the most recent accepted update
	LastInputSeq float64

	Position     Vec3
	Velocity     Vec3
	Acceleration Vec3
	Direction    Vec3 // last accepted thrust direction, normalized

	Finished   bool
	FinishTime time.Time // zero until Finished
}

// Kinematics is the motion state integrated by the reconciliation engine
type Kinematics struct {
	Position     Vec3
	Velocity     Vec3
	Acceleration Vec3
	Direction    Vec3
}

// Kinematics returns the player's current motion state
func (p *Player) Kinematics() Kinematics {
	return Kinematics{
		Position:     p.Position,
		Velocity:     p.Velocity,
		Acceleration: p.Acceleration,
		Direction:    p.Direction,
	}
}

// SetKinematics replaces the player's motion state
func (p *Player) SetKinematics(k Kinematics) {
	p.Position = k.Position
	p.Velocity = k.Velocity
	p.Acceleration = k.Acceleration
	p.Direction = k.Direction
}

// HasFinishTime reports whether the finish time is set
func (p *Player) HasFinishTime() bool {
	return !p.FinishTime.IsZero()
}

// ResetFinish clears the finish state for a new race
func (p *Player) ResetFinish() {
	p.Finished = false
	p.FinishTime = time.Time{}
}
