package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func insertTransfer(ctx context.Context, tx *sql.Tx, streamID uint64, kind TransferKind, counterparty Address, amount uint64, at time.Time) error {
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO transfers (id, stream_id, kind, counterparty, amount, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		int64(streamID),
		string(kind),
		string(counterparty),
		int64(amount),
		at.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert %s transfer: %w", kind, err)
	}
	return nil
}

// TransfersForStream returns the funds-movement journal for a stream in
// insertion order.
func (s *Store) TransfersForStream(ctx context.Context, streamID uint64) ([]*Transfer, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, stream_id, kind, counterparty, amount, created_at
        FROM transfers WHERE stream_id = ? ORDER BY created_at, kind`,
		int64(streamID),
	)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*Transfer
	for rows.Next() {
		var (
			id           string
			sid          int64
			kind         string
			counterparty string
			amount       int64
			createdRaw   string
		)
		if err := rows.Scan(&id, &sid, &kind, &counterparty, &amount, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		createdAt, err := parseTimestamp(createdRaw)
		if err != nil {
			return nil, fmt.Errorf("parse transfer created_at: %w", err)
		}
		transfers = append(transfers, &Transfer{
			ID:           id,
			StreamID:     uint64(sid),
			Kind:         TransferKind(kind),
			Counterparty: Address(counterparty),
			Amount:       uint64(amount),
			CreatedAt:    createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return transfers, nil
}
