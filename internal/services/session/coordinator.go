package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/skyrace/internal/dependencies/clock"
	"github.com/mcoot/skyrace/internal/dependencies/random"
	"github.com/mcoot/skyrace/internal/events"
	"github.com/mcoot/skyrace/internal/model"
	"github.com/mcoot/skyrace/internal/services/lobby"
	"github.com/mcoot/skyrace/internal/services/names"
	"github.com/mcoot/skyrace/internal/services/reconcile"
	"github.com/mcoot/skyrace/internal/storage"
)

// UnknownPlayerPolicy decides what an update for an unknown id does
type UnknownPlayerPolicy string

const (
	// PolicyProvision creates a new player and applies the update to it
	PolicyProvision UnknownPlayerPolicy = "provision"
	// PolicyReject fails the update with model.ErrPlayerNotFound
	PolicyReject UnknownPlayerPolicy = "reject"
)

// ParseUnknownPlayerPolicy parses a policy name
func ParseUnknownPlayerPolicy(s string) (UnknownPlayerPolicy, error) {
	switch UnknownPlayerPolicy(s) {
	case PolicyProvision, PolicyReject:
		return UnknownPlayerPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown player policy %q: must be %q or %q", s, PolicyProvision, PolicyReject)
	}
}

// Config holds coordinator settings
type Config struct {
	// IdleTimeout evicts players not seen for longer than this
	IdleTimeout time.Duration
	// UnknownPlayers is the policy for updates naming an unknown id
	UnknownPlayers UnknownPlayerPolicy
}

// DefaultConfig returns the default coordinator settings
func DefaultConfig() Config {
	return Config{
		IdleTimeout:    60 * time.Second,
		UnknownPlayers: PolicyProvision,
	}
}

// JoinResult is returned from Join
type JoinResult struct {
	Player        model.Player
	Phase         model.Phase
	PhaseDeadline time.Time
}

// UpdateResult is returned from SubmitUpdate
type UpdateResult struct {
	Outcome reconcile.Outcome
	// PlayerID is the id the update was applied to. It differs from the
	// requested id when the player was provisioned.
	PlayerID    model.PlayerID
	Provisioned bool
}

// FinishStatus is the result of a finish report
type FinishStatus string

const (
	FinishAccepted FinishStatus = "accepted"
	FinishIgnored  FinishStatus = "ignored"
)

// FinishReason explains an ignored finish report
type FinishReason string

const (
	ReasonNone            FinishReason = ""
	ReasonWrongPhase      FinishReason = "wrong_phase"
	ReasonAlreadyFinished FinishReason = "already_finished"
	ReasonNotClaimed      FinishReason = "not_claimed"
)

// FinishResult is returned from ReportFinish
type FinishResult struct {
	Status     FinishStatus
	Reason     FinishReason
	Phase      model.Phase
	FinishTime time.Time
}

// Coordinator owns the lobby and routes every operation through a single
// lock. Each operation evicts idle players and advances the phase before
// doing its own work. Events are published after the lock is released.
type Coordinator struct {
	mu    sync.Mutex
	lobby model.Lobby

	store      storage.PlayerStore
	machine    *lobby.Machine
	reconciler *reconcile.Reconciler
	publisher  events.Publisher
	clock      clock.Clock
	random     random.Random
	cfg        Config
	logger     *slog.Logger
}

// NewCoordinator creates a coordinator with a fresh warmup lobby
func NewCoordinator(
	store storage.PlayerStore,
	machine *lobby.Machine,
	reconciler *reconcile.Reconciler,
	publisher events.Publisher,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Coordinator {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Coordinator{
		lobby:      machine.NewLobby(clock.Now()),
		store:      store,
		machine:    machine,
		reconciler: reconciler,
		publisher:  publisher,
		clock:      clock,
		random:     random,
		cfg:        cfg,
		logger:     logger,
	}
}

// Join adds a new player. The first player into an empty lobby re-arms the
// match in warmup.
func (c *Coordinator) Join(ctx context.Context) (JoinResult, error) {
	var result JoinResult
	err := c.do(ctx, func(op *operation) error {
		p, err := c.join(ctx, op, false)
		if err != nil {
			return err
		}
		result = JoinResult{
			Player:        *p,
			Phase:         c.lobby.Phase,
			PhaseDeadline: c.lobby.PhaseDeadline,
		}
		return nil
	})
	return result, err
}

// SubmitUpdate runs an update through the staleness guard and the
// integrator. Stale updates are not errors.
func (c *Coordinator) SubmitUpdate(ctx context.Context, id model.PlayerID, u model.Update) (UpdateResult, error) {
	// Reject malformed input before touching any state
	if err := reconcile.Validate(u); err != nil {
		return UpdateResult{}, err
	}

	var result UpdateResult
	err := c.do(ctx, func(op *operation) error {
		p, err := c.store.GetPlayer(ctx, id)
		provisioned := false
		switch {
		case err == nil:
		case errors.Is(err, model.ErrPlayerNotFound) && c.cfg.UnknownPlayers == PolicyProvision:
			if p, err = c.join(ctx, op, true); err != nil {
				return err
			}
			provisioned = true
		default:
			return err
		}

		outcome, err := c.reconciler.Apply(p, u)
		if err != nil {
			return err
		}
		if outcome == reconcile.OutcomeAccepted {
			p.LastSeenAt = op.now
			if err := c.store.SavePlayer(ctx, p); err != nil {
				return err
			}
		}

		result = UpdateResult{Outcome: outcome, PlayerID: p.ID, Provisioned: provisioned}
		return nil
	})
	return result, err
}

// ReportFinish marks the player finished if the race is running. Reports
// outside the race, repeated reports and reports with claims=false are
// ignored rather than failed.
func (c *Coordinator) ReportFinish(ctx context.Context, id model.PlayerID, claims bool) (FinishResult, error) {
	var result FinishResult
	err := c.do(ctx, func(op *operation) error {
		p, err := c.store.GetPlayer(ctx, id)
		if err != nil {
			return err
		}

		result = FinishResult{Status: FinishIgnored, Phase: c.lobby.Phase, FinishTime: p.FinishTime}
		switch {
		case !claims:
			result.Reason = ReasonNotClaimed
			return nil
		case c.lobby.Phase != model.PhaseRacing:
			result.Reason = ReasonWrongPhase
			return nil
		case p.Finished:
			result.Reason = ReasonAlreadyFinished
			return nil
		}

		p.Finished = true
		p.FinishTime = op.now
		p.LastSeenAt = op.now
		if err := c.store.SavePlayer(ctx, p); err != nil {
			return err
		}

		c.logger.Info("player finished",
			slog.String("player_id", string(p.ID)),
			slog.String("display_name", p.DisplayName),
		)
		op.emit(model.Event{
			Type:      model.EventPlayerFinished,
			Timestamp: op.now,
			PlayerID:  p.ID,
			Payload:   model.PlayerFinishedPayload{DisplayName: p.DisplayName, FinishTime: op.now},
		})

		result = FinishResult{Status: FinishAccepted, Phase: c.lobby.Phase, FinishTime: p.FinishTime}
		return nil
	})
	return result, err
}

// QueryState returns a consistent snapshot of the lobby
func (c *Coordinator) QueryState(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	err := c.do(ctx, func(op *operation) error {
		players, err := c.store.ListPlayers(ctx)
		if err != nil {
			return err
		}
		snap = model.NewSnapshot(c.lobby, players, op.now)
		return nil
	})
	return snap, err
}

// GetPlayer returns a copy of one player
func (c *Coordinator) GetPlayer(ctx context.Context, id model.PlayerID) (model.Player, error) {
	var player model.Player
	err := c.do(ctx, func(op *operation) error {
		p, err := c.store.GetPlayer(ctx, id)
		if err != nil {
			return err
		}
		player = *p
		return nil
	})
	return player, err
}

// operation carries the state of one locked call
type operation struct {
	now    time.Time
	events []model.Event
}

func (op *operation) emit(e model.Event) {
	op.events = append(op.events, e)
}

// do runs fn inside the critical section after eviction and phase
// evaluation, then publishes whatever events the call produced.
func (c *Coordinator) do(ctx context.Context, fn func(op *operation) error) error {
	op, err := c.locked(ctx, fn)
	if len(op.events) > 0 {
		if perr := c.publisher.Publish(ctx, op.events...); perr != nil {
			c.logger.Warn("failed to publish events",
				slog.Int("count", len(op.events)),
				slog.String("error", perr.Error()),
			)
		}
	}
	return err
}

func (c *Coordinator) locked(ctx context.Context, fn func(op *operation) error) (*operation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	op := &operation{now: c.clock.Now()}

	if err := c.evictIdle(ctx, op); err != nil {
		return op, err
	}
	if err := c.advance(ctx, op); err != nil {
		return op, err
	}
	return op, fn(op)
}

// evictIdle removes every player idle for longer than the timeout
func (c *Coordinator) evictIdle(ctx context.Context, op *operation) error {
	players, err := c.store.ListPlayers(ctx)
	if err != nil {
		return err
	}

	for _, p := range players {
		if op.now.Sub(p.LastSeenAt) <= c.cfg.IdleTimeout {
			continue
		}
		if err := c.store.DeletePlayer(ctx, p.ID); err != nil {
			return err
		}
		c.logger.Info("evicted idle player",
			slog.String("player_id", string(p.ID)),
			slog.Duration("idle", op.now.Sub(p.LastSeenAt)),
		)
		op.emit(model.Event{
			Type:      model.EventPlayerEvicted,
			Timestamp: op.now,
			PlayerID:  p.ID,
			Payload:   model.PlayerEvictedPayload{DisplayName: p.DisplayName, LastSeenAt: p.LastSeenAt},
		})
	}
	return nil
}

// advance evaluates the phase machine once
func (c *Coordinator) advance(ctx context.Context, op *operation) error {
	players, err := c.store.ListPlayers(ctx)
	if err != nil {
		return err
	}

	tr, fired := c.machine.Advance(&c.lobby, players, op.now)
	if !fired {
		return nil
	}

	if tr.From == model.PhaseEnded {
		// Finish state was cleared in place
		for _, p := range players {
			if err := c.store.SavePlayer(ctx, p); err != nil {
				return err
			}
		}
	}

	c.logPhaseChange(tr.From, tr.To, len(players))
	op.emit(model.Event{
		Type:      model.EventPhaseChanged,
		Timestamp: op.now,
		Payload:   model.PhaseChangedPayload{From: tr.From, To: tr.To, PhaseDeadline: c.lobby.PhaseDeadline},
	})
	return nil
}

// join creates a player. Must be called inside the critical section.
func (c *Coordinator) join(ctx context.Context, op *operation, provisioned bool) (*model.Player, error) {
	count, err := c.store.CountPlayers(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		from := c.lobby.Phase
		c.machine.Arm(&c.lobby, op.now)
		if from != model.PhaseWarmup {
			c.logPhaseChange(from, model.PhaseWarmup, 0)
			op.emit(model.Event{
				Type:      model.EventPhaseChanged,
				Timestamp: op.now,
				Payload:   model.PhaseChangedPayload{From: from, To: model.PhaseWarmup, PhaseDeadline: c.lobby.PhaseDeadline},
			})
		}
	}

	p := &model.Player{
		ID:          model.PlayerID(c.random.NewID()),
		DisplayName: names.Pick(c.random),
		JoinedAt:    op.now,
		LastSeenAt:  op.now,
	}
	if err := c.store.SavePlayer(ctx, p); err != nil {
		return nil, err
	}

	c.logger.Info("player joined",
		slog.String("player_id", string(p.ID)),
		slog.String("display_name", p.DisplayName),
		slog.Bool("provisioned", provisioned),
	)
	op.emit(model.Event{
		Type:      model.EventPlayerJoined,
		Timestamp: op.now,
		PlayerID:  p.ID,
		Payload:   model.PlayerJoinedPayload{DisplayName: p.DisplayName, Provisioned: provisioned},
	})
	return p, nil
}

func (c *Coordinator) logPhaseChange(from, to model.Phase, players int) {
	c.logger.Info("phase changed",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Time("phase_deadline", c.lobby.PhaseDeadline),
		slog.Int("players", players),
	)
}
