package api

import (
	"context"
	"time"

	"streampay/internal/ledger"
)

// Ledger abstracts the ledger operations the API layer needs.
type Ledger interface {
	CreateStream(ctx context.Context, sender, recipient ledger.Address, flowRate, deposit uint64) (*ledger.Stream, error)
	CloseStream(ctx context.Context, id uint64, caller ledger.Address) (*ledger.Settlement, error)
	GetStream(ctx context.Context, id uint64) (*ledger.Stream, error)
	NextStreamID(ctx context.Context) (uint64, error)
	List(ctx context.Context, activeOnly bool) ([]*ledger.Stream, error)
	Transfers(ctx context.Context, id uint64) ([]*ledger.Transfer, error)
	Now() time.Time
}

// StreamService exposes ledger operations returning API DTOs.
type StreamService struct {
	ledger Ledger
}

// NewStreamService constructs a StreamService around the provided ledger.
func NewStreamService(l Ledger) *StreamService {
	if l == nil {
		return nil
	}
	return &StreamService{ledger: l}
}

// Create opens a stream and returns its API view.
func (s *StreamService) Create(ctx context.Context, req CreateStreamRequest) (*StreamView, error) {
	if s == nil || s.ledger == nil {
		return nil, nil
	}
	stream, err := s.ledger.CreateStream(ctx, ledger.Address(req.Sender), ledger.Address(req.Recipient), req.FlowRate, req.Deposit)
	if err != nil {
		return nil, err
	}
	view := FromStream(stream, s.ledger.Now())
	return &view, nil
}

// Close settles and deactivates a stream on behalf of the caller.
func (s *StreamService) Close(ctx context.Context, id uint64, req CloseStreamRequest) (*SettlementView, error) {
	if s == nil || s.ledger == nil {
		return nil, nil
	}
	settlement, err := s.ledger.CloseStream(ctx, id, ledger.Address(req.Caller))
	if err != nil {
		return nil, err
	}
	view := FromSettlement(settlement)
	return &view, nil
}

// Describe fetches a single stream.
func (s *StreamService) Describe(ctx context.Context, id uint64) (*StreamView, error) {
	if s == nil || s.ledger == nil {
		return nil, nil
	}
	stream, err := s.ledger.GetStream(ctx, id)
	if err != nil {
		return nil, err
	}
	view := FromStream(stream, s.ledger.Now())
	return &view, nil
}

// List returns streams, optionally restricted to active ones.
func (s *StreamService) List(ctx context.Context, activeOnly bool) ([]StreamView, error) {
	if s == nil || s.ledger == nil {
		return nil, nil
	}
	streams, err := s.ledger.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	return FromStreams(streams, s.ledger.Now()), nil
}

// NextID reports the id the next created stream will receive.
func (s *StreamService) NextID(ctx context.Context) (uint64, error) {
	if s == nil || s.ledger == nil {
		return 0, nil
	}
	return s.ledger.NextStreamID(ctx)
}

// Transfers returns the journal for a stream.
func (s *StreamService) Transfers(ctx context.Context, id uint64) ([]TransferView, error) {
	if s == nil || s.ledger == nil {
		return nil, nil
	}
	transfers, err := s.ledger.Transfers(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromTransfers(transfers), nil
}
