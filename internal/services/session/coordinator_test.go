package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/skyrace/internal/dependencies/mocks"
	"github.com/mcoot/skyrace/internal/model"
	"github.com/mcoot/skyrace/internal/services/lobby"
	"github.com/mcoot/skyrace/internal/services/reconcile"
	"github.com/mcoot/skyrace/internal/storage/memory"
	"github.com/mcoot/skyrace/internal/testutil"
)

type CoordinatorSuite struct {
	suite.Suite
	storage     *memory.Storage
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	publisher   *mocks.MockPublisher
	coordinator *Coordinator
	start       time.Time
	ctx         context.Context
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(s.start)
	s.random = mocks.NewMockRandom()
	s.publisher = mocks.NewMockPublisher()
	s.coordinator = s.newCoordinator(DefaultConfig())
	s.ctx = context.Background()
}

func (s *CoordinatorSuite) newCoordinator(cfg Config) *Coordinator {
	return NewCoordinator(
		s.storage,
		lobby.NewMachine(lobby.DefaultConfig()),
		reconcile.New(reconcile.DefaultTuning()),
		s.publisher,
		s.clock,
		s.random,
		cfg,
		testutil.NopLogger(),
	)
}

func (s *CoordinatorSuite) join() model.Player {
	res, err := s.coordinator.Join(s.ctx)
	s.Require().NoError(err)
	return res.Player
}

func (s *CoordinatorSuite) phase() model.Phase {
	snap, err := s.coordinator.QueryState(s.ctx)
	s.Require().NoError(err)
	return snap.Phase
}

func (s *CoordinatorSuite) forward(ts float64) model.IntentUpdate {
	return model.IntentUpdate{Timestamp: ts, Direction: model.Vec3{X: 1}, Throttle: model.ThrottleForward}
}

func (s *CoordinatorSuite) startRace() {
	s.clock.Advance(lobby.DefaultConfig().Warmup)
	s.Require().Equal(model.PhaseRacing, s.phase())
}

// Join tests

func (s *CoordinatorSuite) TestJoinReturnsPlayerAndPhase() {
	s.random.QueueID("abc-123")
	s.random.QueueIntn(20)

	res, err := s.coordinator.Join(s.ctx)
	s.Require().NoError(err)

	s.Equal(model.PlayerID("abc-123"), res.Player.ID)
	s.Equal("Alice", res.Player.DisplayName)
	s.Equal(model.PhaseWarmup, res.Phase)
	s.Equal(s.start.Add(5*time.Second), res.PhaseDeadline)
	s.Equal(s.start, res.Player.LastSeenAt)
	s.Equal(model.Kinematics{}, res.Player.Kinematics())
	s.False(res.Player.Finished)
	s.False(res.Player.HasFinishTime())
}

func (s *CoordinatorSuite) TestJoinAssignsUniqueIDs() {
	a := s.join()
	b := s.join()
	s.NotEqual(a.ID, b.ID)
}

func (s *CoordinatorSuite) TestFirstJoinRearmsMatch() {
	s.clock.Advance(6 * time.Second)
	s.Require().Equal(model.PhaseRacing, s.phase())

	s.clock.Advance(time.Second)
	res, err := s.coordinator.Join(s.ctx)
	s.Require().NoError(err)

	s.Equal(model.PhaseWarmup, res.Phase)
	s.Equal(s.clock.Now().Add(5*time.Second), res.PhaseDeadline)
}

func (s *CoordinatorSuite) TestLaterJoinDoesNotRearm() {
	s.join()
	s.startRace()

	res, err := s.coordinator.Join(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.PhaseRacing, res.Phase)
}

func (s *CoordinatorSuite) TestJoinPublishesEvent() {
	p := s.join()

	joined := s.publisher.OfType(model.EventPlayerJoined)
	s.Require().Len(joined, 1)
	s.Equal(p.ID, joined[0].PlayerID)
}

// Eviction tests

func (s *CoordinatorSuite) TestEvictIdleUsesStrictThreshold() {
	old := s.join()
	s.clock.Advance(2 * time.Second)
	recent := s.join()

	// old last seen 61s ago, recent 59s ago
	s.clock.Advance(59 * time.Second)

	snap, err := s.coordinator.QueryState(s.ctx)
	s.Require().NoError(err)
	s.Nil(snap.GetPlayer(old.ID))
	s.NotNil(snap.GetPlayer(recent.ID))

	evicted := s.publisher.OfType(model.EventPlayerEvicted)
	s.Require().Len(evicted, 1)
	s.Equal(old.ID, evicted[0].PlayerID)
}

func (s *CoordinatorSuite) TestPlayerAtExactThresholdIsKept() {
	p := s.join()
	s.clock.Advance(60 * time.Second)

	_, err := s.coordinator.GetPlayer(s.ctx, p.ID)
	s.NoError(err)
}

func (s *CoordinatorSuite) TestEvictionRunsOnMutations() {
	idle := s.join()
	s.clock.Advance(61 * time.Second)

	_, err := s.coordinator.Join(s.ctx)
	s.Require().NoError(err)

	_, err = s.storage.GetPlayer(s.ctx, idle.ID)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *CoordinatorSuite) TestAcceptedUpdateKeepsPlayerAlive() {
	p := s.join()
	s.clock.Advance(50 * time.Second)
	_, err := s.coordinator.SubmitUpdate(s.ctx, p.ID, s.forward(1))
	s.Require().NoError(err)

	s.clock.Advance(50 * time.Second)
	_, err = s.coordinator.GetPlayer(s.ctx, p.ID)
	s.NoError(err)
}

func (s *CoordinatorSuite) TestStaleUpdateDoesNotKeepPlayerAlive() {
	p := s.join()
	_, err := s.coordinator.SubmitUpdate(s.ctx, p.ID, s.forward(5))
	s.Require().NoError(err)

	s.clock.Advance(50 * time.Second)
	res, err := s.coordinator.SubmitUpdate(s.ctx, p.ID, s.forward(3))
	s.Require().NoError(err)
	s.Equal(reconcile.OutcomeStale, res.Outcome)

	s.clock.Advance(11 * time.Second)
	_, err = s.coordinator.GetPlayer(s.ctx, p.ID)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Update tests

func (s *CoordinatorSuite) TestIntentUpdateIntegrates() {
	p := s.join()

	res, err := s.coordinator.SubmitUpdate(s.ctx, p.ID, s.forward(1))
	s.Require().NoError(err)
	s.Equal(reconcile.OutcomeAccepted, res.Outcome)
	s.Equal(p.ID, res.PlayerID)
	s.False(res.Provisioned)

	got, err := s.coordinator.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)

	wantVX := reconcile.DefaultTuning().ForwardSpeed * (1.0 / 60)
	s.Equal(wantVX, got.Velocity.X)
	s.Equal(got.Velocity.X*(1.0/60), got.Position.X)
	s.Equal(1.0, got.LastInputSeq)
}

func (s *CoordinatorSuite) TestOutOfOrderUpdateIsStale() {
	p := s.join()

	_, err := s.coordinator.SubmitUpdate(s.ctx, p.ID, s.forward(5))
	s.Require().NoError(err)
	afterFirst, _ := s.coordinator.GetPlayer(s.ctx, p.ID)

	res, err := s.coordinator.SubmitUpdate(s.ctx, p.ID, s.forward(3))
	s.Require().NoError(err)
	s.Equal(reconcile.OutcomeStale, res.Outcome)

	got, _ := s.coordinator.GetPlayer(s.ctx, p.ID)
	s.Equal(afterFirst.Position, got.Position)
	s.Equal(afterFirst.Velocity, got.Velocity)
	s.Equal(5.0, got.LastInputSeq)
}

func (s *CoordinatorSuite) TestFullStateUpdateStoredVerbatim() {
	p := s.join()
	u := model.FullStateUpdate{
		Timestamp:    2,
		Position:     model.Vec3{X: 10, Y: 20, Z: 30},
		Velocity:     model.Vec3{Y: 1},
		Acceleration: model.Vec3{Z: -9.8},
	}

	res, err := s.coordinator.SubmitUpdate(s.ctx, p.ID, u)
	s.Require().NoError(err)
	s.Equal(reconcile.OutcomeAccepted, res.Outcome)

	got, _ := s.coordinator.GetPlayer(s.ctx, p.ID)
	s.Equal(u.Position, got.Position)
	s.Equal(u.Velocity, got.Velocity)
	s.Equal(u.Acceleration, got.Acceleration)
}

func (s *CoordinatorSuite) TestMalformedUpdateIsRejectedWithoutProvisioning() {
	_, err := s.coordinator.SubmitUpdate(s.ctx, "ghost", model.IntentUpdate{Timestamp: 1})
	s.ErrorIs(err, model.ErrMalformedUpdate)

	count, _ := s.storage.CountPlayers(s.ctx)
	s.Zero(count)
}

func (s *CoordinatorSuite) TestUnknownPlayerIsProvisioned() {
	s.random.QueueID("fresh-id")

	res, err := s.coordinator.SubmitUpdate(s.ctx, "ghost", s.forward(1))
	s.Require().NoError(err)

	s.True(res.Provisioned)
	s.Equal(model.PlayerID("fresh-id"), res.PlayerID)
	s.Equal(reconcile.OutcomeAccepted, res.Outcome)

	got, err := s.coordinator.GetPlayer(s.ctx, "fresh-id")
	s.Require().NoError(err)
	s.Positive(got.Velocity.X)

	_, err = s.coordinator.GetPlayer(s.ctx, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	joined := s.publisher.OfType(model.EventPlayerJoined)
	s.Require().Len(joined, 1)
	s.True(joined[0].Payload.(model.PlayerJoinedPayload).Provisioned)
}

func (s *CoordinatorSuite) TestUnknownPlayerRejectedByPolicy() {
	cfg := DefaultConfig()
	cfg.UnknownPlayers = PolicyReject
	s.coordinator = s.newCoordinator(cfg)

	_, err := s.coordinator.SubmitUpdate(s.ctx, "ghost", s.forward(1))
	s.ErrorIs(err, model.ErrPlayerNotFound)

	count, _ := s.storage.CountPlayers(s.ctx)
	s.Zero(count)
}

func (s *CoordinatorSuite) TestParseUnknownPlayerPolicy() {
	p, err := ParseUnknownPlayerPolicy("reject")
	s.Require().NoError(err)
	s.Equal(PolicyReject, p)

	_, err = ParseUnknownPlayerPolicy("maybe")
	s.Error(err)
}

// Finish tests

func (s *CoordinatorSuite) TestFinishIgnoredDuringWarmup() {
	p := s.join()

	res, err := s.coordinator.ReportFinish(s.ctx, p.ID, true)
	s.Require().NoError(err)

	s.Equal(FinishIgnored, res.Status)
	s.Equal(ReasonWrongPhase, res.Reason)

	got, _ := s.coordinator.GetPlayer(s.ctx, p.ID)
	s.False(got.Finished)
}

func (s *CoordinatorSuite) TestFinishDuringRaceEndsRaceOnNextQuery() {
	p := s.join()
	s.startRace()

	s.clock.Advance(10 * time.Second)
	res, err := s.coordinator.ReportFinish(s.ctx, p.ID, true)
	s.Require().NoError(err)
	s.Equal(FinishAccepted, res.Status)
	s.Equal(s.clock.Now(), res.FinishTime)

	// Race deadline is far off but the only player has finished
	snap, err := s.coordinator.QueryState(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.PhaseEnded, snap.Phase)
	s.Equal(s.clock.Now().Add(5*time.Second), snap.RestartDeadline)
	s.True(snap.GetPlayer(p.ID).Finished)
}

func (s *CoordinatorSuite) TestFinishTwiceIsIgnored() {
	a := s.join()
	s.join()
	s.startRace()

	_, err := s.coordinator.ReportFinish(s.ctx, a.ID, true)
	s.Require().NoError(err)
	first, _ := s.coordinator.GetPlayer(s.ctx, a.ID)

	s.clock.Advance(time.Second)
	res, err := s.coordinator.ReportFinish(s.ctx, a.ID, true)
	s.Require().NoError(err)
	s.Equal(FinishIgnored, res.Status)
	s.Equal(ReasonAlreadyFinished, res.Reason)

	got, _ := s.coordinator.GetPlayer(s.ctx, a.ID)
	s.Equal(first.FinishTime, got.FinishTime)
	s.Equal(model.PhaseRacing, s.phase())
}

func (s *CoordinatorSuite) TestFinishWithoutClaimIsIgnored() {
	p := s.join()
	s.startRace()

	res, err := s.coordinator.ReportFinish(s.ctx, p.ID, false)
	s.Require().NoError(err)
	s.Equal(FinishIgnored, res.Status)
	s.Equal(ReasonNotClaimed, res.Reason)
}

func (s *CoordinatorSuite) TestFinishUnknownPlayer() {
	_, err := s.coordinator.ReportFinish(s.ctx, "ghost", true)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *CoordinatorSuite) TestEvictingIdlePlayerUnblocksRaceEnd() {
	a := s.join()
	s.join() // never reports anything
	s.startRace()

	_, err := s.coordinator.ReportFinish(s.ctx, a.ID, true)
	s.Require().NoError(err)
	s.Equal(model.PhaseRacing, s.phase())

	// The silent player was last seen at the start; a finished 5s in
	s.clock.Advance(56 * time.Second)
	s.Equal(model.PhaseEnded, s.phase())
}

// Phase cycle tests

func (s *CoordinatorSuite) TestPhaseCycleWithoutPlayers() {
	s.Equal(model.PhaseWarmup, s.phase())

	s.clock.Advance(5 * time.Second)
	s.Equal(model.PhaseRacing, s.phase())

	s.clock.Advance(150 * time.Second)
	s.Equal(model.PhaseEnded, s.phase())

	s.clock.Advance(5 * time.Second)
	s.Equal(model.PhaseWarmup, s.phase())

	changes := s.publisher.OfType(model.EventPhaseChanged)
	s.Len(changes, 3)
}

func (s *CoordinatorSuite) TestResetClearsFinishAndKeepsPlayers() {
	p := s.join()
	_, err := s.coordinator.SubmitUpdate(s.ctx, p.ID, s.forward(1))
	s.Require().NoError(err)
	s.startRace()

	_, err = s.coordinator.ReportFinish(s.ctx, p.ID, true)
	s.Require().NoError(err)
	s.Require().Equal(model.PhaseEnded, s.phase())
	before, _ := s.coordinator.GetPlayer(s.ctx, p.ID)

	s.clock.Advance(5 * time.Second)
	snap, err := s.coordinator.QueryState(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(model.PhaseWarmup, snap.Phase)

	got := snap.GetPlayer(p.ID)
	s.Require().NotNil(got)
	s.False(got.Finished)
	s.False(got.HasFinishTime())
	s.Equal(before.ID, got.ID)
	s.Equal(before.DisplayName, got.DisplayName)
	s.Equal(before.Position, got.Position)
	s.Equal(before.Velocity, got.Velocity)
}

func (s *CoordinatorSuite) TestSnapshotIsACopy() {
	p := s.join()

	snap, err := s.coordinator.QueryState(s.ctx)
	s.Require().NoError(err)
	snap.Players[0].Position = model.Vec3{X: 999}

	got, _ := s.coordinator.GetPlayer(s.ctx, p.ID)
	s.Equal(model.Vec3{}, got.Position)
}

func (s *CoordinatorSuite) TestSnapshotOrdersPlayersByJoinTime() {
	s.random.QueueID("zz", "aa")
	s.join()
	s.clock.Advance(time.Second)
	s.join()

	snap, _ := s.coordinator.QueryState(s.ctx)
	s.Require().Len(snap.Players, 2)
	s.Equal(model.PlayerID("zz"), snap.Players[0].ID)
	s.Equal(model.PlayerID("aa"), snap.Players[1].ID)
}

func (s *CoordinatorSuite) TestPublishFailureDoesNotFailOperation() {
	s.publisher.Err = errors.New("redis down")

	_, err := s.coordinator.Join(s.ctx)
	s.NoError(err)
}

// Concurrency

func (s *CoordinatorSuite) TestConcurrentOperationsAreSerialized() {
	const workers = 20
	const updates = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.coordinator.Join(s.ctx)
			if err != nil {
				s.T().Error(err)
				return
			}
			for i := 1; i <= updates; i++ {
				if _, err := s.coordinator.SubmitUpdate(s.ctx, res.Player.ID, s.forward(float64(i))); err != nil {
					s.T().Error(err)
				}
				if _, err := s.coordinator.QueryState(s.ctx); err != nil {
					s.T().Error(err)
				}
			}
			_, _ = s.coordinator.ReportFinish(s.ctx, res.Player.ID, true)
		}()
	}
	wg.Wait()

	snap, err := s.coordinator.QueryState(s.ctx)
	s.Require().NoError(err)
	s.Len(snap.Players, workers)
	for _, p := range snap.Players {
		s.Equal(float64(updates), p.LastInputSeq)
	}
}
