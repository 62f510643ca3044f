package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/skyrace/internal/factory"
	"github.com/mcoot/skyrace/internal/services/session"
)

func envMap(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Factory.Session.IdleTimeout)
	assert.Equal(t, session.PolicyProvision, cfg.Factory.Session.UnknownPlayers)
	assert.Equal(t, 5*time.Second, cfg.Factory.Lobby.Warmup)
	assert.Equal(t, 150*time.Second, cfg.Factory.Lobby.Race)
	assert.Equal(t, 5*time.Second, cfg.Factory.Lobby.Cooldown)
	assert.Zero(t, cfg.Factory.Tuning.Drag)
	assert.Nil(t, cfg.Factory.RedisConfig)
	assert.Empty(t, cfg.Router.CORSOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(envMap(map[string]string{
		"PORT":            "9000",
		"IDLE_TIMEOUT":    "30s",
		"UNKNOWN_PLAYERS": "reject",
		"RACE_DURATION":   "2m",
		"DRAG":            "0.5",
		"EVENTS_TYPE":     "redis",
		"REDIS_URL":       "redis://cache:6379",
		"REDIS_CHANNEL":   "race-events",
		"CORS_ORIGINS":    "https://a.example, https://b.example",
		"RATE_LIMIT":      "10",
		"RATE_BURST":      "5",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Factory.Session.IdleTimeout)
	assert.Equal(t, session.PolicyReject, cfg.Factory.Session.UnknownPlayers)
	assert.Equal(t, 2*time.Minute, cfg.Factory.Lobby.Race)
	assert.Equal(t, 0.5, cfg.Factory.Tuning.Drag)
	assert.Equal(t, factory.EventsTypeRedis, cfg.Factory.EventsType)
	require.NotNil(t, cfg.Factory.RedisConfig)
	assert.Equal(t, "redis://cache:6379", cfg.Factory.RedisConfig.URL)
	assert.Equal(t, "race-events", cfg.Factory.RedisConfig.Channel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Router.CORSOrigins)
	assert.Equal(t, 10.0, cfg.Router.RateLimit.Rate)
	assert.Equal(t, 5, cfg.Router.RateLimit.Burst)
}

func TestLoadConfigErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad port":          {"PORT": "eighty"},
		"bad duration":      {"WARMUP_DURATION": "soon"},
		"negative duration": {"COOLDOWN_DURATION": "-1s"},
		"bad policy":        {"UNKNOWN_PLAYERS": "maybe"},
		"redis without url": {"EVENTS_TYPE": "redis"},
		"bad drag":          {"DRAG": "lots"},
		"negative drag":     {"DRAG": "-1"},
	}

	for name, vals := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := loadConfig(envMap(vals))
			assert.Error(t, err)
		})
	}
}
