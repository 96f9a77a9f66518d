package testsupport

import (
	"testing"
	"time"

	"streampay/internal/config"
	"streampay/internal/ledger"
	"streampay/internal/logging"
)

// Well-formed party addresses reused across tests.
const (
	SenderAddr    = "0x00000000000000000000000000000000000000aa"
	RecipientAddr = "0x00000000000000000000000000000000000000bb"
	OutsiderAddr  = "0x00000000000000000000000000000000000000cc"
)

// MustOpenStore opens a ledger store against the test config and closes it on
// cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("open ledger store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenLedger opens a store and wraps it in a ledger with a no-op logger.
func MustOpenLedger(t testing.TB, cfg *config.Config, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()
	store := MustOpenStore(t, cfg)
	return ledger.New(store, logging.NewNop(), opts...)
}

// Clock is a manually advanced time source for deterministic settlement tests.
type Clock struct {
	current time.Time
}

// NewClock starts a clock at the given instant.
func NewClock(start time.Time) *Clock {
	return &Clock{current: start.UTC()}
}

// Now returns the clock's current instant.
func (c *Clock) Now() time.Time {
	return c.current
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

// Set jumps the clock to a specific instant.
func (c *Clock) Set(t time.Time) {
	c.current = t.UTC()
}
