// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates ledger models into transport-friendly DTOs that
// the CLI and other consumers can render without coupling to internal types.
//
// # Key Types
//
// StreamView: transport representation of a stream with its projected balance
// and display status at the time of the request.
//
// SettlementView: the outcome of closing a stream.
//
// TransferView: a single row from a stream's transfer journal.
//
// DaemonStatus: daemon running state, ledger counters, and paths.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Amounts are base units as unsigned integers;
// callers apply decimal formatting. Timestamps use RFC3339 with milliseconds.
// Projected balances are computed server-side against the daemon clock, so a
// StreamView is a snapshot, not a live value; clients that want a ticking
// balance re-project locally from flowRate and lastSettledAt.
package api
