package lobby

import (
	"fmt"
	"time"

	"github.com/mcoot/skyrace/internal/model"
)

// Config holds the phase durations of a match
type Config struct {
	Warmup   time.Duration // WARMUP until the race starts
	Race     time.Duration // longest a race may run
	Cooldown time.Duration // ENDED until the next warmup
}

// DefaultConfig returns the default phase durations
func DefaultConfig() Config {
	return Config{
		Warmup:   5 * time.Second,
		Race:     150 * time.Second,
		Cooldown: 5 * time.Second,
	}
}

// Transition records a single phase change
type Transition struct {
	From model.Phase
	To   model.Phase
	At   time.Time
}

// Machine computes lobby phase transitions. It holds no lobby state of its
// own; callers pass the lobby and its players and serialize access.
type Machine struct {
	cfg Config
}

// NewMachine creates a state machine with the given durations
func NewMachine(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

// Config returns the phase durations in use
func (m *Machine) Config() Config {
	return m.cfg
}

// NewLobby returns a lobby in warmup, with its deadline counted from now
func (m *Machine) NewLobby(now time.Time) model.Lobby {
	l := model.Lobby{}
	m.Arm(&l, now)
	return l
}

// Arm force-resets the lobby to warmup with a fresh deadline. Used when the
// first player joins an empty lobby.
func (m *Machine) Arm(l *model.Lobby, now time.Time) {
	l.Phase = model.PhaseWarmup
	l.PhaseDeadline = now.Add(m.cfg.Warmup)
	l.RestartDeadline = time.Time{}
}

// Advance evaluates the lobby at now and fires at most one transition.
// Leaving ENDED clears the finish state of every player.
func (m *Machine) Advance(l *model.Lobby, players []*model.Player, now time.Time) (Transition, bool) {
	from := l.Phase

	switch l.Phase {
	case model.PhaseWarmup:
		if now.Before(l.PhaseDeadline) {
			return Transition{}, false
		}
		l.Phase = model.PhaseRacing
		l.PhaseDeadline = now.Add(m.cfg.Race)

	case model.PhaseRacing:
		if now.Before(l.PhaseDeadline) && !allFinished(players) {
			return Transition{}, false
		}
		l.Phase = model.PhaseEnded
		l.RestartDeadline = now.Add(m.cfg.Cooldown)
		l.PhaseDeadline = l.RestartDeadline

	case model.PhaseEnded:
		if now.Before(l.RestartDeadline) {
			return Transition{}, false
		}
		for _, p := range players {
			p.ResetFinish()
		}
		l.Phase = model.PhaseWarmup
		l.PhaseDeadline = now.Add(m.cfg.Warmup)

	default:
		panic(fmt.Sprintf("lobby: invalid phase %v", l.Phase))
	}

	return Transition{From: from, To: l.Phase, At: now}, true
}

// allFinished reports whether there is at least one player and all of them
// have finished. An empty lobby never ends a race early.
func allFinished(players []*model.Player) bool {
	if len(players) == 0 {
		return false
	}
	for _, p := range players {
		if !p.Finished {
			return false
		}
	}
	return true
}
