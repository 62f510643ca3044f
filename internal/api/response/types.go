package response

import (
	"time"

	"github.com/mcoot/skyrace/internal/dependencies/clock"
	"github.com/mcoot/skyrace/internal/model"
	"github.com/mcoot/skyrace/internal/services/session"
)

// Unset is the wire value of a timestamp that has not happened
const Unset = -1.0

// Player represents a player in API responses
type Player struct {
	ID           string     `json:"id"`
	DisplayName  string     `json:"display_name"`
	Position     model.Vec3 `json:"position"`
	Velocity     model.Vec3 `json:"velocity"`
	Acceleration model.Vec3 `json:"acceleration"`
	Direction    model.Vec3 `json:"direction"`
	Finished     bool       `json:"finished"`
	FinishTime   float64    `json:"finish_time"`
	LastInputSeq float64    `json:"last_input_seq"`
	LastSeenAt   float64    `json:"last_seen_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	finish := Unset
	if p.HasFinishTime() {
		finish = clock.UnixSeconds(p.FinishTime)
	}
	return Player{
		ID:           string(p.ID),
		DisplayName:  p.DisplayName,
		Position:     p.Position,
		Velocity:     p.Velocity,
		Acceleration: p.Acceleration,
		Direction:    p.Direction,
		Finished:     p.Finished,
		FinishTime:   finish,
		LastInputSeq: p.LastInputSeq,
		LastSeenAt:   clock.UnixSeconds(p.LastSeenAt),
	}
}

// JoinResponse is returned when a player joins
type JoinResponse struct {
	ID            string      `json:"id"`
	DisplayName   string      `json:"display_name"`
	Phase         model.Phase `json:"phase"`
	PhaseDeadline float64     `json:"phase_deadline"`
}

// JoinResponseFromResult converts a session.JoinResult
func JoinResponseFromResult(r session.JoinResult) JoinResponse {
	return JoinResponse{
		ID:            string(r.Player.ID),
		DisplayName:   r.Player.DisplayName,
		Phase:         r.Phase,
		PhaseDeadline: clock.UnixSeconds(r.PhaseDeadline),
	}
}

// UpdateResponse is returned for a submitted update
type UpdateResponse struct {
	Status      string `json:"status"`
	PlayerID    string `json:"player_id"`
	Provisioned bool   `json:"provisioned"`
}

// UpdateResponseFromResult converts a session.UpdateResult
func UpdateResponseFromResult(r session.UpdateResult) UpdateResponse {
	return UpdateResponse{
		Status:      string(r.Outcome),
		PlayerID:    string(r.PlayerID),
		Provisioned: r.Provisioned,
	}
}

// FinishResponse is returned for a finish report
type FinishResponse struct {
	Status     string      `json:"status"`
	Reason     string      `json:"reason,omitempty"`
	Phase      model.Phase `json:"phase"`
	FinishTime float64     `json:"finish_time"`
}

// FinishResponseFromResult converts a session.FinishResult
func FinishResponseFromResult(r session.FinishResult) FinishResponse {
	return FinishResponse{
		Status:     string(r.Status),
		Reason:     string(r.Reason),
		Phase:      r.Phase,
		FinishTime: optionalTime(r.FinishTime),
	}
}

// Lobby is the public snapshot of the lobby
type Lobby struct {
	Phase           model.Phase `json:"phase"`
	PhaseDeadline   float64     `json:"phase_deadline"`
	RestartDeadline float64     `json:"restart_deadline"`
	ServerTime      float64     `json:"server_time"`
	Players         []Player    `json:"players"`
}

// LobbyFromSnapshot converts a model.Snapshot
func LobbyFromSnapshot(s model.Snapshot) Lobby {
	players := make([]Player, len(s.Players))
	for i := range s.Players {
		players[i] = PlayerFromModel(&s.Players[i])
	}
	return Lobby{
		Phase:           s.Phase,
		PhaseDeadline:   clock.UnixSeconds(s.PhaseDeadline),
		RestartDeadline: optionalTime(s.RestartDeadline),
		ServerTime:      clock.UnixSeconds(s.ServerTime),
		Players:         players,
	}
}

// Health is the health check response
type Health struct {
	Status  string `json:"status"`
	Players int    `json:"players"`
}

func optionalTime(t time.Time) float64 {
	if t.IsZero() {
		return Unset
	}
	return clock.UnixSeconds(t)
}
