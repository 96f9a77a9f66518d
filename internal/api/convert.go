package api

import (
	"time"

	"streampay/internal/ledger"
)

// FromStream converts a ledger record to its API representation, projecting
// the balance at now.
func FromStream(s *ledger.Stream, now time.Time) StreamView {
	if s == nil {
		return StreamView{}
	}

	view := StreamView{
		ID:               s.ID,
		Sender:           string(s.Sender),
		Recipient:        string(s.Recipient),
		FlowRate:         s.FlowRate,
		Balance:          s.Balance,
		ProjectedBalance: ledger.Project(*s, now),
		Status:           string(s.Display(now)),
		Active:           s.Active,
		LastSettledAt:    s.LastSettled.UTC().Format(dateTimeFormat),
	}
	if !s.CreatedAt.IsZero() {
		view.CreatedAt = s.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !s.UpdatedAt.IsZero() {
		view.UpdatedAt = s.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if !s.ClosedAt.IsZero() {
		view.ClosedAt = s.ClosedAt.UTC().Format(dateTimeFormat)
	}
	if at, ok := ledger.DepletesAt(*s, now); ok {
		view.DepletesAt = at.UTC().Format(dateTimeFormat)
	}
	return view
}

// FromStreams converts a slice of ledger records into API DTOs.
func FromStreams(streams []*ledger.Stream, now time.Time) []StreamView {
	if len(streams) == 0 {
		return nil
	}
	out := make([]StreamView, 0, len(streams))
	for _, s := range streams {
		out = append(out, FromStream(s, now))
	}
	return out
}

// FromSettlement converts a close outcome to its API representation.
func FromSettlement(settlement *ledger.Settlement) SettlementView {
	if settlement == nil {
		return SettlementView{}
	}
	return SettlementView{
		StreamID: settlement.StreamID,
		Settled:  settlement.Settled,
		Paid:     settlement.Paid,
		Refunded: settlement.Refunded,
		ClosedAt: settlement.ClosedAt.UTC().Format(dateTimeFormat),
	}
}

// FromTransfer converts a journal entry to its API representation.
func FromTransfer(tr *ledger.Transfer) TransferView {
	if tr == nil {
		return TransferView{}
	}
	return TransferView{
		ID:           tr.ID,
		StreamID:     tr.StreamID,
		Kind:         string(tr.Kind),
		Counterparty: string(tr.Counterparty),
		Amount:       tr.Amount,
		CreatedAt:    tr.CreatedAt.UTC().Format(dateTimeFormat),
	}
}

// FromTransfers converts a slice of journal entries into API DTOs.
func FromTransfers(transfers []*ledger.Transfer) []TransferView {
	if len(transfers) == 0 {
		return nil
	}
	out := make([]TransferView, 0, len(transfers))
	for _, tr := range transfers {
		out = append(out, FromTransfer(tr))
	}
	return out
}
