package model

import (
	"cmp"
	"slices"
	"time"
)

// Lobby is the single global match. Players are held by the player store.
type Lobby struct {
	Phase Phase
	// PhaseDeadline is when the current phase becomes eligible to transition
	PhaseDeadline time.Time
	// RestartDeadline is when an ended lobby resets to warmup
	RestartDeadline time.Time
}

// Snapshot is a consistent copy of the lobby and all of its players
type Snapshot struct {
	Phase           Phase
	PhaseDeadline   time.Time
	RestartDeadline time.Time
	ServerTime      time.Time
	Players         []Player
}

// NewSnapshot copies the lobby and players, ordering players by join time
func NewSnapshot(l Lobby, players []*Player, now time.Time) Snapshot {
	copied := make([]Player, 0, len(players))
	for _, p := range players {
		copied = append(copied, *p)
	}
	slices.SortFunc(copied, func(a, b Player) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return Snapshot{
		Phase:           l.Phase,
		PhaseDeadline:   l.PhaseDeadline,
		RestartDeadline: l.RestartDeadline,
		ServerTime:      now,
		Players:         copied,
	}
}

// GetPlayer returns the snapshot entry for id, or nil if not present
func (s *Snapshot) GetPlayer(id PlayerID) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}
