package factory

import (
	"time"

	"github.com/mcoot/skyrace/internal/dependencies/mocks"
	"github.com/mcoot/skyrace/internal/storage/memory"
	"github.com/mcoot/skyrace/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockPublisher *mocks.MockPublisher
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(Config{})
}

// NewTestAppWithConfig is NewTestApp with explicit settings. Zero-valued
// sections of cfg fall back to their defaults.
func NewTestAppWithConfig(cfg Config) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockPublisher := mocks.NewMockPublisher()

	logger := cfg.Logger
	if logger == nil {
		logger = testutil.NopLogger()
	}

	app := newWithDependencies(store, mockClock, mockRandom, mockPublisher, withDefaults(cfg), logger)

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockPublisher: mockPublisher,
	}
}
