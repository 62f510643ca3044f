// Package events fans lobby events out to observers outside the process.
package events

import (
	"context"

	"github.com/mcoot/skyrace/internal/model"
)

// Publisher delivers lobby events. Implementations may perform I/O and must
// not be called while holding the lobby lock.
type Publisher interface {
	Publish(ctx context.Context, events ...model.Event) error
}

// Nop discards every event
type Nop struct{}

// Publish does nothing
func (Nop) Publish(context.Context, ...model.Event) error { return nil }

var _ Publisher = Nop{}
