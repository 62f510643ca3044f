package redis

import (
	"fmt"

	"github.com/mcoot/skyrace/internal/model"
)

// Key prefix for all race-related data
const keyPrefix = "skyrace"

// defaultChannel returns the channel carrying every lobby event
func defaultChannel() string {
	return fmt.Sprintf("%s:events", keyPrefix)
}

// typedChannel returns the channel carrying events of a single type
func typedChannel(base string, t model.EventType) string {
	return fmt.Sprintf("%s:%s", base, t)
}
