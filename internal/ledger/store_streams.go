package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const streamColumns = "id, sender, recipient, flow_rate, balance, last_settled_unix, is_active, created_at, updated_at, closed_at"

// CreateStream atomically allocates the next stream id, stores the stream,
// advances the counter, and journals the escrowed deposit. The counter only
// moves on success, keeping id assignment gapless.
func (s *Store) CreateStream(ctx context.Context, sender, recipient Address, flowRate, deposit uint64, now time.Time) (*Stream, error) {
	now = now.UTC().Truncate(time.Second)
	timestamp := now.Format(time.RFC3339Nano)

	var created *Stream
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var nextID int64
		if err := tx.QueryRowContext(ctx, `SELECT next_stream_id FROM ledger_meta WHERE id = 1`).Scan(&nextID); err != nil {
			return fmt.Errorf("read next stream id: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO streams (
                id, sender, recipient, flow_rate, balance, last_settled_unix,
                is_active, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			nextID,
			string(sender),
			string(recipient),
			int64(flowRate),
			int64(deposit),
			now.Unix(),
			timestamp,
			timestamp,
		); err != nil {
			return fmt.Errorf("insert stream: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE ledger_meta SET next_stream_id = ? WHERE id = 1`,
			nextID+1,
		); err != nil {
			return fmt.Errorf("advance stream id counter: %w", err)
		}

		if err := insertTransfer(ctx, tx, uint64(nextID), TransferDeposit, sender, deposit, now); err != nil {
			return err
		}

		created = &Stream{
			ID:          uint64(nextID),
			Sender:      sender,
			Recipient:   recipient,
			FlowRate:    flowRate,
			Balance:     deposit,
			LastSettled: now,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CloseStream settles the stream at now, pays the accrued amount to the
// recipient, refunds the remainder to the sender, and deactivates the stream,
// all in one transaction. The conditional update on is_active guarantees that
// of two racing closes exactly one moves funds; the loser sees AlreadyClosed.
func (s *Store) CloseStream(ctx context.Context, id uint64, caller Address, now time.Time) (*Settlement, error) {
	now = now.UTC().Truncate(time.Second)

	var settlement *Settlement
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+streamColumns+` FROM streams WHERE id = ?`, int64(id))
		stream, err := scanStream(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("load stream: %w", err)
		}
		if !stream.IsParty(caller) {
			return fmt.Errorf("%w: %s on stream %d", ErrUnauthorized, caller, id)
		}
		if !stream.Active {
			return fmt.Errorf("%w: id %d", ErrAlreadyClosed, id)
		}

		// Never settle into the past: clock skew clamps to the last settlement.
		closedAt := now
		if closedAt.Before(stream.LastSettled) {
			closedAt = stream.LastSettled
		}

		settled := Project(*stream, closedAt)
		paid := stream.Balance - settled

		res, err := tx.ExecContext(
			ctx,
			`UPDATE streams
            SET balance = ?, last_settled_unix = ?, is_active = 0, closed_at = ?, updated_at = ?
            WHERE id = ? AND is_active = 1`,
			int64(settled),
			closedAt.Unix(),
			closedAt.Format(time.RFC3339Nano),
			closedAt.Format(time.RFC3339Nano),
			int64(id),
		)
		if err != nil {
			return fmt.Errorf("close stream: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("close stream rows: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: id %d", ErrAlreadyClosed, id)
		}

		if err := insertTransfer(ctx, tx, id, TransferPayout, stream.Recipient, paid, closedAt); err != nil {
			return err
		}
		if err := insertTransfer(ctx, tx, id, TransferRefund, stream.Sender, settled, closedAt); err != nil {
			return err
		}

		settlement = &Settlement{
			StreamID: id,
			Settled:  settled,
			Paid:     paid,
			Refunded: settled,
			ClosedAt: closedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// GetByID fetches a stream by identifier. Returns nil without error when the
// id is unknown; the ledger layer maps that to NotFound.
func (s *Store) GetByID(ctx context.Context, id uint64) (*Stream, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+streamColumns+` FROM streams WHERE id = ?`, int64(id))
	stream, err := scanStream(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stream: %w", err)
	}
	return stream, nil
}

// List returns streams ordered by id, optionally restricted to active ones.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]*Stream, error) {
	query := `SELECT ` + streamColumns + ` FROM streams ORDER BY id`
	if activeOnly {
		query = `SELECT ` + streamColumns + ` FROM streams WHERE is_active = 1 ORDER BY id`
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query)
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	defer rows.Close()

	var streams []*Stream
	for rows.Next() {
		stream, err := scanStream(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stream: %w", err)
		}
		streams = append(streams, stream)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate streams: %w", err)
	}
	return streams, nil
}

// NextStreamID peeks the counter: the id the next successful create will use.
func (s *Store) NextStreamID(ctx context.Context) (uint64, error) {
	var next int64
	err := s.db.QueryRowContext(ensureContext(ctx), `SELECT next_stream_id FROM ledger_meta WHERE id = 1`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("read next stream id: %w", err)
	}
	return uint64(next), nil
}

// Stats returns stream counts keyed by lifecycle state.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT is_active, COUNT(1) FROM streams GROUP BY is_active`)
	if err != nil {
		return nil, fmt.Errorf("stream stats: %w", err)
	}
	defer rows.Close()

	stats := map[string]int{"active": 0, "closed": 0}
	for rows.Next() {
		var active int
		var count int
		if err := rows.Scan(&active, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		if active == 1 {
			stats["active"] = count
		} else {
			stats["closed"] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

func scanStream(scanner interface{ Scan(dest ...any) error }) (*Stream, error) {
	var (
		id              int64
		sender          string
		recipient       string
		flowRate        int64
		balance         int64
		lastSettledUnix int64
		isActive        int64
		createdRaw      string
		updatedRaw      string
		closedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sender,
		&recipient,
		&flowRate,
		&balance,
		&lastSettledUnix,
		&isActive,
		&createdRaw,
		&updatedRaw,
		&closedRaw,
	); err != nil {
		return nil, err
	}

	createdAt, err := parseTimestamp(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := parseTimestamp(updatedRaw)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	var closedAt time.Time
	if closedRaw.Valid && closedRaw.String != "" {
		closedAt, err = parseTimestamp(closedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse closed_at: %w", err)
		}
	}

	return &Stream{
		ID:          uint64(id),
		Sender:      Address(sender),
		Recipient:   Address(recipient),
		FlowRate:    uint64(flowRate),
		Balance:     uint64(balance),
		LastSettled: time.Unix(lastSettledUnix, 0).UTC(),
		Active:      isActive == 1,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		ClosedAt:    closedAt,
	}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}
