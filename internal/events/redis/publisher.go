package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/skyrace/internal/events"
	"github.com/mcoot/skyrace/internal/model"
)

// Publisher publishes lobby events as JSON over Redis pub/sub. Each event
// goes to the base channel and to a per-type channel. Nothing is stored.
type Publisher struct {
	client  *redis.Client
	channel string
}

// New creates a publisher and verifies the connection
func New(cfg Config) (*Publisher, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a publisher with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Publisher {
	channel := cfg.Channel
	if channel == "" {
		channel = defaultChannel()
	}
	return &Publisher{
		client:  client,
		channel: channel,
	}
}

// Close closes the Redis connection
func (p *Publisher) Close() error {
	return p.client.Close()
}

// Channel returns the base channel name
func (p *Publisher) Channel() string {
	return p.channel
}

// Ensure Publisher implements the interface
var _ events.Publisher = (*Publisher)(nil)

// Publish sends all events in one pipeline
func (p *Publisher) Publish(ctx context.Context, evts ...model.Event) error {
	if len(evts) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, e := range evts {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		pipe.Publish(ctx, p.channel, data)
		pipe.Publish(ctx, typedChannel(p.channel, e.Type), data)
	}
	_, err := pipe.Exec(ctx)
	return err
}
