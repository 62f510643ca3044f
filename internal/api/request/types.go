package request

import (
	"fmt"

	"github.com/mcoot/skyrace/internal/model"
)

// Update submission modes
const (
	ModeFull   = "full"
	ModeIntent = "intent"
)

// UpdateRequest is the request body for submitting a player update.
// Fields are pointers so that missing values can be told apart from zero.
type UpdateRequest struct {
	Timestamp *float64 `json:"timestamp"`
	// Mode is "full" or "intent". When empty it is inferred: a request
	// carrying a throttle is an intent, anything else is a full state.
	Mode string `json:"mode,omitempty"`

	Position     *model.Vec3 `json:"position,omitempty"`
	Velocity     *model.Vec3 `json:"velocity,omitempty"`
	Acceleration *model.Vec3 `json:"acceleration,omitempty"`
	Direction    *model.Vec3 `json:"direction,omitempty"`
	Throttle     string      `json:"throttle,omitempty"`
}

// ToUpdate converts the request to a model update. Missing or unknown
// fields produce errors wrapping model.ErrMalformedUpdate.
func (r UpdateRequest) ToUpdate() (model.Update, error) {
	if r.Timestamp == nil {
		return nil, malformed("timestamp is required")
	}

	mode := r.Mode
	if mode == "" {
		mode = ModeFull
		if r.Throttle != "" {
			mode = ModeIntent
		}
	}

	switch mode {
	case ModeIntent:
		if r.Direction == nil {
			return nil, malformed("direction is required for intent updates")
		}
		throttle, err := model.ParseThrottle(r.Throttle)
		if err != nil {
			return nil, err
		}
		return model.IntentUpdate{
			Timestamp: *r.Timestamp,
			Direction: *r.Direction,
			Throttle:  throttle,
		}, nil

	case ModeFull:
		if r.Position == nil || r.Velocity == nil {
			return nil, malformed("position and velocity are required for full updates")
		}
		u := model.FullStateUpdate{
			Timestamp: *r.Timestamp,
			Position:  *r.Position,
			Velocity:  *r.Velocity,
			Direction: r.Direction,
		}
		if r.Acceleration != nil {
			u.Acceleration = *r.Acceleration
		}
		return u, nil

	default:
		return nil, malformed(fmt.Sprintf("unknown mode %q", r.Mode))
	}
}

// FinishRequest is the request body for reporting a finish
type FinishRequest struct {
	// Claims defaults to true when omitted
	Claims *bool `json:"claims,omitempty"`
}

// Claimed reports whether the client claims to have crossed the line
func (r FinishRequest) Claimed() bool {
	return r.Claims == nil || *r.Claims
}

func malformed(msg string) error {
	return fmt.Errorf("%w: %s", model.ErrMalformedUpdate, msg)
}
