package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/skyrace/internal/api"
	"github.com/mcoot/skyrace/internal/api/handler"
	"github.com/mcoot/skyrace/internal/api/middleware"
	eventsredis "github.com/mcoot/skyrace/internal/events/redis"
	"github.com/mcoot/skyrace/internal/factory"
	"github.com/mcoot/skyrace/internal/services/lobby"
	"github.com/mcoot/skyrace/internal/services/reconcile"
	"github.com/mcoot/skyrace/internal/services/session"
)

// config is everything main needs, read from the environment
type config struct {
	Server  api.ServerConfig
	Factory factory.Config
	Router  api.RouterConfig
}

// loadConfig builds the configuration from getenv, applying defaults for
// unset variables
func loadConfig(getenv func(string) string) (config, error) {
	env := envReader{getenv: getenv}

	c := config{
		Server: api.DefaultServerConfig(),
		Factory: factory.Config{
			Session:    session.DefaultConfig(),
			Lobby:      lobby.DefaultConfig(),
			Tuning:     reconcile.DefaultTuning(),
			EventsType: getenv("EVENTS_TYPE"),
		},
		Router: api.RouterConfig{
			Stream:    handler.DefaultStreamConfig(),
			RateLimit: middleware.DefaultRateLimitConfig(),
		},
	}

	c.Server.Port = env.intVar("PORT", c.Server.Port)

	c.Factory.Session.IdleTimeout = env.durationVar("IDLE_TIMEOUT", c.Factory.Session.IdleTimeout)
	if v := getenv("UNKNOWN_PLAYERS"); v != "" {
		policy, err := session.ParseUnknownPlayerPolicy(v)
		if err != nil {
			env.fail("UNKNOWN_PLAYERS", err)
		}
		c.Factory.Session.UnknownPlayers = policy
	}

	c.Factory.Lobby.Warmup = env.durationVar("WARMUP_DURATION", c.Factory.Lobby.Warmup)
	c.Factory.Lobby.Race = env.durationVar("RACE_DURATION", c.Factory.Lobby.Race)
	c.Factory.Lobby.Cooldown = env.durationVar("COOLDOWN_DURATION", c.Factory.Lobby.Cooldown)

	c.Factory.Tuning.Drag = env.floatVar("DRAG", c.Factory.Tuning.Drag)
	if c.Factory.Tuning.Drag < 0 {
		env.fail("DRAG", fmt.Errorf("must not be negative, got %g", c.Factory.Tuning.Drag))
	}

	if c.Factory.EventsType == factory.EventsTypeRedis {
		redisCfg := eventsredis.DefaultConfig()
		redisURL := getenv("REDIS_URL")
		if redisURL == "" {
			return config{}, fmt.Errorf("REDIS_URL required when EVENTS_TYPE=redis")
		}
		redisCfg.URL = redisURL
		if ch := getenv("REDIS_CHANNEL"); ch != "" {
			redisCfg.Channel = ch
		}
		c.Factory.RedisConfig = &redisCfg
	}

	if origins := getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Router.CORSOrigins = append(c.Router.CORSOrigins, o)
			}
		}
	}
	c.Router.Stream.Interval = env.durationVar("STREAM_INTERVAL", c.Router.Stream.Interval)
	c.Router.RateLimit.Rate = env.floatVar("RATE_LIMIT", c.Router.RateLimit.Rate)
	c.Router.RateLimit.Burst = env.intVar("RATE_BURST", c.Router.RateLimit.Burst)

	if env.err != nil {
		return config{}, env.err
	}
	return c, nil
}

// envReader parses typed variables, keeping the first error
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (e *envReader) intVar(key string, def int) int {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *envReader) floatVar(key string, def float64) float64 {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return f
}

func (e *envReader) durationVar(key string, def time.Duration) time.Duration {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	if d <= 0 {
		e.fail(key, fmt.Errorf("must be positive, got %s", d))
		return def
	}
	return d
}
