package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// StreamView describes a stream in a transport-friendly format.
type StreamView struct {
	ID               uint64 `json:"id"`
	Sender           string `json:"sender"`
	Recipient        string `json:"recipient"`
	FlowRate         uint64 `json:"flowRate"`
	Balance          uint64 `json:"balance"`
	ProjectedBalance uint64 `json:"projectedBalance"`
	Status           string `json:"status"`
	Active           bool   `json:"active"`
	LastSettledAt    string `json:"lastSettledAt"`
	CreatedAt        string `json:"createdAt,omitempty"`
	UpdatedAt        string `json:"updatedAt,omitempty"`
	ClosedAt         string `json:"closedAt,omitempty"`
	DepletesAt       string `json:"depletesAt,omitempty"`
}

// SettlementView describes the outcome of closing a stream.
type SettlementView struct {
	StreamID uint64 `json:"streamId"`
	Settled  uint64 `json:"settled"`
	Paid     uint64 `json:"paid"`
	Refunded uint64 `json:"refunded"`
	ClosedAt string `json:"closedAt"`
}

// TransferView describes a single transfer journal entry.
type TransferView struct {
	ID           string `json:"id"`
	StreamID     uint64 `json:"streamId"`
	Kind         string `json:"kind"`
	Counterparty string `json:"counterparty"`
	Amount       uint64 `json:"amount"`
	CreatedAt    string `json:"createdAt"`
}

// LedgerStats summarizes stream counts by lifecycle state.
type LedgerStats struct {
	Counts map[string]int `json:"counts"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool        `json:"running"`
	PID          int         `json:"pid"`
	Environment  string      `json:"environment"`
	LedgerDBPath string      `json:"ledgerDbPath"`
	LockFilePath string      `json:"lockFilePath"`
	NextStreamID uint64      `json:"nextStreamId"`
	Ledger       LedgerStats `json:"ledger"`
}

// StreamListResponse wraps a collection of streams for API responses.
type StreamListResponse struct {
	Streams []StreamView `json:"streams"`
}

// StreamResponse wraps a single stream.
type StreamResponse struct {
	Stream StreamView `json:"stream"`
}

// TransferListResponse wraps a stream's transfer journal.
type TransferListResponse struct {
	Transfers []TransferView `json:"transfers"`
}

// CreateStreamRequest carries the parameters for opening a stream.
type CreateStreamRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	FlowRate  uint64 `json:"flowRate"`
	Deposit   uint64 `json:"deposit"`
}

// CloseStreamRequest identifies the caller closing a stream.
type CloseStreamRequest struct {
	Caller string `json:"caller"`
}
