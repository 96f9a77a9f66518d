package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"streampay/internal/ledger"
	"streampay/internal/testsupport"
)

var epoch = time.Unix(1_700_000_000, 0).UTC()

func newTestLedger(t *testing.T) (*ledger.Ledger, *testsupport.Clock) {
	t.Helper()
	clock := testsupport.NewClock(epoch)
	cfg := testsupport.NewConfig(t)
	return testsupport.MustOpenLedger(t, cfg, ledger.WithClock(clock.Now)), clock
}

func TestCreateStreamPostconditions(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	stream, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 1, 100)
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}
	if stream.ID != 0 {
		t.Fatalf("first stream id = %d, want 0", stream.ID)
	}

	fetched, err := l.GetStream(ctx, stream.ID)
	if err != nil {
		t.Fatalf("GetStream failed: %v", err)
	}
	if !fetched.Active {
		t.Fatal("new stream should be active")
	}
	if fetched.Balance != 100 {
		t.Fatalf("balance = %d, want deposit 100", fetched.Balance)
	}
	if !fetched.LastSettled.Equal(epoch) {
		t.Fatalf("lastSettled = %s, want creation time %s", fetched.LastSettled, epoch)
	}

	next, err := l.NextStreamID(ctx)
	if err != nil {
		t.Fatalf("NextStreamID failed: %v", err)
	}
	if next != 1 {
		t.Fatalf("next id = %d, want 1", next)
	}
}

func TestCreateStreamInputValidation(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	cases := []struct {
		name      string
		sender    string
		recipient string
	}{
		{"malformed sender", "not-an-address", testsupport.RecipientAddr},
		{"malformed recipient", testsupport.SenderAddr, "0x123"},
		{"missing prefix", testsupport.SenderAddr, "00000000000000000000000000000000000000bb"},
		{"self stream", testsupport.SenderAddr, testsupport.SenderAddr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.CreateStream(ctx, ledger.Address(tc.sender), ledger.Address(tc.recipient), 1, 10)
			if !errors.Is(err, ledger.ErrInvalidInput) {
				t.Fatalf("expected InvalidInput, got %v", err)
			}
		})
	}

	// Failed creates must not burn ids.
	next, err := l.NextStreamID(ctx)
	if err != nil {
		t.Fatalf("NextStreamID failed: %v", err)
	}
	if next != 0 {
		t.Fatalf("next id advanced to %d after failed creates", next)
	}
}

func TestCreateStreamAcceptsZeroRateAndDeposit(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	stream, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 0, 0)
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}
	if stream.Balance != 0 || stream.FlowRate != 0 {
		t.Fatalf("unexpected stream %+v", stream)
	}
}

func TestStreamIDsAreSequentialAndGapless(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	for want := uint64(0); want < 5; want++ {
		stream, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 1, 10)
		if err != nil {
			t.Fatalf("CreateStream %d failed: %v", want, err)
		}
		if stream.ID != want {
			t.Fatalf("stream id = %d, want %d", stream.ID, want)
		}
	}
}

func TestGetStreamAtNextIDReturnsNotFound(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	if _, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 1, 10); err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}
	next, err := l.NextStreamID(ctx)
	if err != nil {
		t.Fatalf("NextStreamID failed: %v", err)
	}
	if _, err := l.GetStream(ctx, next); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected NotFound at next id, got %v", err)
	}
}

func TestCloseStreamSettlesAndConserves(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	stream, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 2, 100)
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}

	clock.Advance(30 * time.Second) // 60 units accrued

	settlement, err := l.CloseStream(ctx, stream.ID, testsupport.SenderAddr)
	if err != nil {
		t.Fatalf("CloseStream failed: %v", err)
	}
	if settlement.Paid != 60 {
		t.Fatalf("paid = %d, want 60", settlement.Paid)
	}
	if settlement.Refunded != 40 {
		t.Fatalf("refunded = %d, want 40", settlement.Refunded)
	}
	if settlement.Paid+settlement.Refunded != 100 {
		t.Fatalf("conservation violated: %d + %d != 100", settlement.Paid, settlement.Refunded)
	}

	closed, err := l.GetStream(ctx, stream.ID)
	if err != nil {
		t.Fatalf("GetStream failed: %v", err)
	}
	if closed.Active {
		t.Fatal("stream should be inactive after close")
	}
	if closed.Balance != 40 {
		t.Fatalf("settled balance = %d, want 40", closed.Balance)
	}
	if !closed.LastSettled.Equal(epoch.Add(30 * time.Second)) {
		t.Fatalf("lastSettled = %s, want close time", closed.LastSettled)
	}
	if closed.ClosedAt.IsZero() {
		t.Fatal("closedAt should be set")
	}
}

func TestCloseDepletedStreamPaysEverything(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	// flowRate 1 unit/sec, deposit 100 at t=0; project(50)=50, project(150)=0,
	// closing at t=150 pays recipient 100 and refunds 0.
	stream, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 1, 100)
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}

	mid, err := l.GetStream(ctx, stream.ID)
	if err != nil {
		t.Fatalf("GetStream failed: %v", err)
	}
	if got := ledger.Project(*mid, epoch.Add(50*time.Second)); got != 50 {
		t.Fatalf("project at t=50 = %d, want 50", got)
	}
	if got := ledger.Project(*mid, epoch.Add(150*time.Second)); got != 0 {
		t.Fatalf("project at t=150 = %d, want 0", got)
	}

	clock.Set(epoch.Add(150 * time.Second))
	settlement, err := l.CloseStream(ctx, stream.ID, testsupport.RecipientAddr)
	if err != nil {
		t.Fatalf("CloseStream failed: %v", err)
	}
	if settlement.Paid != 100 || settlement.Refunded != 0 {
		t.Fatalf("paid=%d refunded=%d, want 100/0", settlement.Paid, settlement.Refunded)
	}
}

func TestCloseStreamSecondCloseAlwaysAlreadyClosed(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	stream, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 1, 100)
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}
	clock.Advance(10 * time.Second)

	if _, err := l.CloseStream(ctx, stream.ID, testsupport.SenderAddr); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if _, err := l.CloseStream(ctx, stream.ID, testsupport.SenderAddr); !errors.Is(err, ledger.ErrAlreadyClosed) {
		t.Fatalf("second close: expected AlreadyClosed, got %v", err)
	}
	if _, err := l.CloseStream(ctx, stream.ID, testsupport.RecipientAddr); !errors.Is(err, ledger.ErrAlreadyClosed) {
		t.Fatalf("recipient close after close: expected AlreadyClosed, got %v", err)
	}

	// Funds moved exactly once: one payout and one refund row.
	transfers, err := l.Transfers(ctx, stream.ID)
	if err != nil {
		t.Fatalf("Transfers failed: %v", err)
	}
	var payouts, refunds int
	for _, tr := range transfers {
		switch tr.Kind {
		case ledger.TransferPayout:
			payouts++
		case ledger.TransferRefund:
			refunds++
		}
	}
	if payouts != 1 || refunds != 1 {
		t.Fatalf("payouts=%d refunds=%d, want exactly one each", payouts, refunds)
	}
}

func TestCloseStreamAuthorization(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	stream, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 1, 100)
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}

	if _, err := l.CloseStream(ctx, stream.ID, testsupport.OutsiderAddr); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Fatalf("outsider close: expected Unauthorized, got %v", err)
	}
	if _, err := l.CloseStream(ctx, stream.ID, "garbage"); !errors.Is(err, ledger.ErrInvalidInput) {
		t.Fatalf("malformed caller: expected InvalidInput, got %v", err)
	}
	if _, err := l.CloseStream(ctx, 999, testsupport.SenderAddr); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("unknown id: expected NotFound, got %v", err)
	}

	// None of the failures moved funds or closed the stream.
	fetched, err := l.GetStream(ctx, stream.ID)
	if err != nil {
		t.Fatalf("GetStream failed: %v", err)
	}
	if !fetched.Active || fetched.Balance != 100 {
		t.Fatalf("stream mutated by failed closes: %+v", fetched)
	}
}

func TestCloseStreamRecipientMayClose(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	stream, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 5, 100)
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}
	clock.Advance(4 * time.Second)

	settlement, err := l.CloseStream(ctx, stream.ID, testsupport.RecipientAddr)
	if err != nil {
		t.Fatalf("recipient close failed: %v", err)
	}
	if settlement.Paid != 20 {
		t.Fatalf("paid = %d, want 20", settlement.Paid)
	}
}

func TestConcurrentClosesExactlyOneWins(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	stream, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 1, 100)
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}
	clock.Advance(10 * time.Second)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			caller := ledger.Address(testsupport.SenderAddr)
			if slot%2 == 1 {
				caller = ledger.Address(testsupport.RecipientAddr)
			}
			_, errs[slot] = l.CloseStream(ctx, stream.ID, caller)
		}(i)
	}
	wg.Wait()

	var succeeded, alreadyClosed int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ledger.ErrAlreadyClosed):
			alreadyClosed++
		default:
			t.Fatalf("unexpected close error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d closes succeeded, want exactly 1", succeeded)
	}
	if alreadyClosed != attempts-1 {
		t.Fatalf("%d closes saw AlreadyClosed, want %d", alreadyClosed, attempts-1)
	}
}

func TestClosedStreamStaysQueryable(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	stream, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 1, 50)
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}
	clock.Advance(20 * time.Second)
	if _, err := l.CloseStream(ctx, stream.ID, testsupport.SenderAddr); err != nil {
		t.Fatalf("CloseStream failed: %v", err)
	}

	closed, err := l.GetStream(ctx, stream.ID)
	if err != nil {
		t.Fatalf("GetStream after close failed: %v", err)
	}
	settledAt := closed.LastSettled

	// The frozen record projects the same balance at any later instant.
	for _, elapsed := range []time.Duration{0, time.Minute, 24 * time.Hour} {
		if got := ledger.Project(*closed, settledAt.Add(elapsed)); got != 30 {
			t.Fatalf("projection of closed stream at +%s = %d, want frozen 30", elapsed, got)
		}
	}
}

func TestTransfersJournal(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	stream, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 3, 90)
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}
	clock.Advance(10 * time.Second)
	if _, err := l.CloseStream(ctx, stream.ID, testsupport.SenderAddr); err != nil {
		t.Fatalf("CloseStream failed: %v", err)
	}

	transfers, err := l.Transfers(ctx, stream.ID)
	if err != nil {
		t.Fatalf("Transfers failed: %v", err)
	}
	if len(transfers) != 3 {
		t.Fatalf("expected deposit+payout+refund, got %d rows", len(transfers))
	}

	byKind := map[ledger.TransferKind]*ledger.Transfer{}
	for _, tr := range transfers {
		byKind[tr.Kind] = tr
	}
	deposit := byKind[ledger.TransferDeposit]
	payout := byKind[ledger.TransferPayout]
	refund := byKind[ledger.TransferRefund]
	if deposit == nil || payout == nil || refund == nil {
		t.Fatalf("missing journal rows: %+v", byKind)
	}
	if deposit.Amount != 90 || deposit.Counterparty != ledger.Address(testsupport.SenderAddr) {
		t.Fatalf("unexpected deposit row: %+v", deposit)
	}
	if payout.Amount != 30 || payout.Counterparty != ledger.Address(testsupport.RecipientAddr) {
		t.Fatalf("unexpected payout row: %+v", payout)
	}
	if refund.Amount != 60 || refund.Counterparty != ledger.Address(testsupport.SenderAddr) {
		t.Fatalf("unexpected refund row: %+v", refund)
	}
	if payout.Amount+refund.Amount != deposit.Amount {
		t.Fatal("journal does not conserve the deposit")
	}

	if _, err := l.Transfers(ctx, 999); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("transfers for unknown stream: expected NotFound, got %v", err)
	}
}

func TestListFiltersActive(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	first, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 1, 10)
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}
	if _, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 1, 10); err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := l.CloseStream(ctx, first.ID, testsupport.SenderAddr); err != nil {
		t.Fatalf("CloseStream failed: %v", err)
	}

	all, err := l.List(ctx, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List all = %d streams, want 2", len(all))
	}

	active, err := l.List(ctx, true)
	if err != nil {
		t.Fatalf("List active failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != 1 {
		t.Fatalf("unexpected active list: %+v", active)
	}
}

func TestDisplayStatus(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	stream, err := l.CreateStream(ctx, testsupport.SenderAddr, testsupport.RecipientAddr, 10, 100)
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}

	fetched, err := l.GetStream(ctx, stream.ID)
	if err != nil {
		t.Fatalf("GetStream failed: %v", err)
	}
	if got := fetched.Display(epoch.Add(5 * time.Second)); got != ledger.DisplayStreaming {
		t.Fatalf("display mid-stream = %s, want streaming", got)
	}
	// Depleted is distinct from closed: projection hit zero but the stream is
	// still active until someone closes it.
	if got := fetched.Display(epoch.Add(time.Hour)); got != ledger.DisplayDepleted {
		t.Fatalf("display after depletion = %s, want depleted", got)
	}

	clock.Advance(time.Hour)
	if _, err := l.CloseStream(ctx, stream.ID, testsupport.SenderAddr); err != nil {
		t.Fatalf("CloseStream failed: %v", err)
	}
	closed, err := l.GetStream(ctx, stream.ID)
	if err != nil {
		t.Fatalf("GetStream failed: %v", err)
	}
	if got := closed.Display(epoch.Add(2 * time.Hour)); got != ledger.DisplayClosed {
		t.Fatalf("display after close = %s, want closed", got)
	}
}
