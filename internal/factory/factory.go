package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/skyrace/internal/dependencies/clock"
	"github.com/mcoot/skyrace/internal/dependencies/random"
	"github.com/mcoot/skyrace/internal/events"
	eventsredis "github.com/mcoot/skyrace/internal/events/redis"
	"github.com/mcoot/skyrace/internal/services/lobby"
	"github.com/mcoot/skyrace/internal/services/reconcile"
	"github.com/mcoot/skyrace/internal/services/session"
	"github.com/mcoot/skyrace/internal/storage"
	"github.com/mcoot/skyrace/internal/storage/memory"
)

// Events type constants
const (
	EventsTypeNone  = "none"
	EventsTypeRedis = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.PlayerStore

	// External dependencies
	Clock     clock.Clock
	Random    random.Random
	Publisher events.Publisher

	// Services
	Machine     *lobby.Machine
	Reconciler  *reconcile.Reconciler
	Coordinator *session.Coordinator

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Session holds idle and unknown-player settings (optional)
	// If zero value, defaults to session.DefaultConfig()
	Session session.Config
	// Lobby holds the phase durations (optional)
	// If zero value, defaults to lobby.DefaultConfig()
	Lobby lobby.Config
	// Tuning holds the physics constants (optional)
	// If zero value, defaults to reconcile.DefaultTuning()
	Tuning reconcile.Tuning
	// EventsType selects where lobby events go ("none" or "redis")
	// If empty, defaults to "none"
	EventsType string
	// RedisConfig holds Redis connection settings (required if EventsType is "redis")
	RedisConfig *eventsredis.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create publisher based on type
	var pub events.Publisher
	var closers []io.Closer
	eventsType := cfg.EventsType
	if eventsType == "" {
		eventsType = EventsTypeNone
	}

	switch eventsType {
	case EventsTypeNone:
		pub = events.Nop{}
	case EventsTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when EventsType is redis")
		}
		redisPub, err := eventsredis.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		pub = redisPub
		closers = append(closers, redisPub)
	default:
		return nil, errors.New("invalid EventsType: must be 'none' or 'redis'")
	}

	// Create external dependencies
	store := memory.New()
	clk := clock.New()
	rnd := random.New()

	app := newWithDependencies(store, clk, rnd, pub, withDefaults(cfg), logger)
	app.closers = closers
	return app, nil
}

// withDefaults fills in zero-valued sections of cfg
func withDefaults(cfg Config) Config {
	if cfg.Session.IdleTimeout == 0 {
		cfg.Session.IdleTimeout = session.DefaultConfig().IdleTimeout
	}
	if cfg.Session.UnknownPlayers == "" {
		cfg.Session.UnknownPlayers = session.DefaultConfig().UnknownPlayers
	}
	if cfg.Lobby == (lobby.Config{}) {
		cfg.Lobby = lobby.DefaultConfig()
	}
	if cfg.Tuning.Step == 0 {
		cfg.Tuning = reconcile.DefaultTuning()
	}
	return cfg
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.PlayerStore,
	clk clock.Clock,
	rnd random.Random,
	pub events.Publisher,
	cfg Config,
	logger *slog.Logger,
) *App {
	// Create services
	machine := lobby.NewMachine(cfg.Lobby)
	reconciler := reconcile.New(cfg.Tuning)
	coordinator := session.NewCoordinator(store, machine, reconciler, pub, clk, rnd, cfg.Session, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Publisher:   pub,
		Machine:     machine,
		Reconciler:  reconciler,
		Coordinator: coordinator,
	}
}

// Close releases external connections
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
