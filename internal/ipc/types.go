package ipc

import "streampay/internal/api"

// StreamView mirrors the HTTP API stream DTO for internal IPC callers.
type StreamView = api.StreamView

// SettlementView mirrors the HTTP API settlement DTO.
type SettlementView = api.SettlementView

// TransferView mirrors the HTTP API transfer DTO.
type TransferView = api.TransferView

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	Environment  string         `json:"environment"`
	LedgerDBPath string         `json:"ledger_db_path"`
	LockPath     string         `json:"lock_path"`
	NextStreamID uint64         `json:"next_stream_id"`
	Stats        map[string]int `json:"stats"`
}

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Stopping bool `json:"stopping"`
}

// StreamCreateRequest opens a new payment stream.
type StreamCreateRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	FlowRate  uint64 `json:"flow_rate"`
	Deposit   uint64 `json:"deposit"`
}

// StreamCreateResponse contains the created stream.
type StreamCreateResponse struct {
	Stream StreamView `json:"stream"`
}

// StreamCloseRequest settles and deactivates a stream.
type StreamCloseRequest struct {
	ID     uint64 `json:"id"`
	Caller string `json:"caller"`
}

// StreamCloseResponse contains the settlement outcome.
type StreamCloseResponse struct {
	Settlement SettlementView `json:"settlement"`
}

// StreamDescribeRequest fetches a single stream by id.
type StreamDescribeRequest struct {
	ID uint64 `json:"id"`
}

// StreamDescribeResponse contains a single stream.
type StreamDescribeResponse struct {
	Stream StreamView `json:"stream"`
}

// StreamListRequest filters stream listing.
type StreamListRequest struct {
	ActiveOnly bool `json:"active_only"`
}

// StreamListResponse contains stream entries.
type StreamListResponse struct {
	Streams []StreamView `json:"streams"`
}

// NextStreamIDRequest peeks at the id the next stream will receive.
type NextStreamIDRequest struct{}

// NextStreamIDResponse reports the upcoming stream id.
type NextStreamIDResponse struct {
	NextStreamID uint64 `json:"next_stream_id"`
}

// TransferListRequest fetches the journal for a stream.
type TransferListRequest struct {
	StreamID uint64 `json:"stream_id"`
}

// TransferListResponse contains journal entries.
type TransferListResponse struct {
	Transfers []TransferView `json:"transfers"`
}

// LogTailRequest reads lines from the daemon log file. A negative offset
// requests the last Limit lines; otherwise reading resumes at Offset.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse carries log lines plus the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
