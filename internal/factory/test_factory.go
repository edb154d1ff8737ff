package factory

import (
	"time"

	"github.com/mcoot/blockmatch/internal/dependencies/mocks"
	"github.com/mcoot/blockmatch/internal/services/session"
	"github.com/mcoot/blockmatch/internal/storage/memory"
	"github.com/mcoot/blockmatch/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Engines yield nowhere so tests stay single-threaded.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	cfg := session.DefaultConfig()
	cfg.Engine.Yield = nil
	app := newWithDependencies(store, mockClock, mockRandom, cfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
