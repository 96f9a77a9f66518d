package ledger

import "time"

// Project returns the spendable balance of a stream at the given instant
// without mutating anything. For an active stream the balance decays by
// FlowRate base units per elapsed second since LastSettled, floored at zero;
// a closed stream's balance is frozen. Timestamps earlier than LastSettled
// (clock skew between observers) clamp to zero elapsed time, so the result is
// never computed from a negative interval.
//
// Deterministic for identical inputs and safe to call concurrently at any
// frequency: this is what lets observers watch a stream drain without any
// ledger writes.
func Project(s Stream, now time.Time) uint64 {
	if !s.Active {
		return s.Balance
	}
	elapsed := now.Unix() - s.LastSettled.Unix()
	if elapsed <= 0 {
		return s.Balance
	}
	return remaining(s.Balance, s.FlowRate, uint64(elapsed))
}

// remaining computes balance - elapsed*rate clamped at zero. The division
// guard keeps elapsed*rate from overflowing: whenever the product would exceed
// the balance the result is zero, and otherwise the product fits below it.
func remaining(balance, rate, elapsed uint64) uint64 {
	if rate == 0 {
		return balance
	}
	if elapsed > balance/rate {
		return 0
	}
	return balance - elapsed*rate
}

// DepletesAt returns the instant an active stream's projection reaches zero.
// The second return is false for closed streams, zero flow rates, and streams
// that are already depleted.
func DepletesAt(s Stream, now time.Time) (time.Time, bool) {
	if !s.Active || s.FlowRate == 0 {
		return time.Time{}, false
	}
	if Project(s, now) == 0 {
		return time.Time{}, false
	}
	seconds := s.Balance / s.FlowRate
	if s.Balance%s.FlowRate != 0 {
		seconds++
	}
	return s.LastSettled.Add(time.Duration(seconds) * time.Second), true
}
