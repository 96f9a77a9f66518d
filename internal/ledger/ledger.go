package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"streampay/internal/logging"
)

// maxAmount bounds amounts and flow rates so they round-trip through SQLite's
// signed 64-bit integers.
const maxAmount = math.MaxInt64

// Ledger executes stream commands against the store. It owns input validation
// and the clock; the store owns atomicity.
type Ledger struct {
	store  *Store
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes ledger construction.
type Option func(*Ledger)

// WithClock overrides the ledger clock. Tests use this to make settlement
// deterministic.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// New constructs a ledger over the given store.
func New(store *Store, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		logger: logging.NewComponentLogger(logger, "ledger"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Store exposes the underlying store for status reporting.
func (l *Ledger) Store() *Store {
	return l.store
}

// CreateStream validates inputs and atomically creates a stream, returning it
// with its assigned id. The id comes back synchronously as the command's
// result; callers never infer it from a later counter read.
func (l *Ledger) CreateStream(ctx context.Context, sender, recipient Address, flowRate, deposit uint64) (*Stream, error) {
	senderAddr, err := ParseAddress(string(sender))
	if err != nil {
		return nil, err
	}
	recipientAddr, err := ParseAddress(string(recipient))
	if err != nil {
		return nil, err
	}
	if senderAddr == recipientAddr {
		return nil, fmt.Errorf("%w: sender and recipient must differ", ErrInvalidInput)
	}
	if flowRate > maxAmount {
		return nil, fmt.Errorf("%w: flow rate %d exceeds maximum", ErrInvalidInput, flowRate)
	}
	if deposit > maxAmount {
		return nil, fmt.Errorf("%w: deposit %d exceeds maximum", ErrInvalidInput, deposit)
	}

	stream, err := l.store.CreateStream(ctx, senderAddr, recipientAddr, flowRate, deposit, l.now())
	if err != nil {
		return nil, err
	}

	l.logger.Info("stream created",
		logging.StreamID(stream.ID),
		logging.String("sender", string(stream.Sender)),
		logging.String("recipient", string(stream.Recipient)),
		logging.Uint64("flow_rate", stream.FlowRate),
		logging.Uint64("deposit", stream.Balance))
	return stream, nil
}

// CloseStream settles and deactivates a stream on behalf of caller, who must
// be the sender or recipient. Either party may close: the sender to reclaim
// unused funds, the recipient to cash out. A second close always fails with
// AlreadyClosed so funds move exactly once.
func (l *Ledger) CloseStream(ctx context.Context, id uint64, caller Address) (*Settlement, error) {
	callerAddr, err := ParseAddress(string(caller))
	if err != nil {
		return nil, err
	}

	settlement, err := l.store.CloseStream(ctx, id, callerAddr, l.now())
	if err != nil {
		return nil, err
	}

	l.logger.Info("stream closed",
		logging.StreamID(id),
		logging.Uint64("paid", settlement.Paid),
		logging.Uint64("refunded", settlement.Refunded))
	return settlement, nil
}

// GetStream returns the stored record as-is, never re-settled. Callers needing
// a live balance apply Project with their own clock reading.
func (l *Ledger) GetStream(ctx context.Context, id uint64) (*Stream, error) {
	stream, err := l.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return stream, nil
}

// NextStreamID returns the id the next successful CreateStream will assign.
func (l *Ledger) NextStreamID(ctx context.Context) (uint64, error) {
	return l.store.NextStreamID(ctx)
}

// List returns streams ordered by id, optionally only active ones.
func (l *Ledger) List(ctx context.Context, activeOnly bool) ([]*Stream, error) {
	return l.store.List(ctx, activeOnly)
}

// Transfers returns the funds-movement journal for a stream.
func (l *Ledger) Transfers(ctx context.Context, id uint64) ([]*Transfer, error) {
	stream, err := l.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return l.store.TransfersForStream(ctx, id)
}

// Now exposes the ledger clock so transports can project balances with the
// same time source used for settlement.
func (l *Ledger) Now() time.Time {
	return l.now()
}
