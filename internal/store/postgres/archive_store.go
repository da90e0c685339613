package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akeller/resolvebot/internal/domain"
)

// ArchiveStore implements domain.PositionArchive using PostgreSQL. Every
// open and close event is upserted into the positions table keyed by the
// position ID.
type ArchiveStore struct {
	pool *pgxpool.Pool
}

// NewArchiveStore creates an ArchiveStore backed by the given connection pool.
func NewArchiveStore(pool *pgxpool.Pool) *ArchiveStore {
	return &ArchiveStore{pool: pool}
}

// RecordOpen inserts a freshly opened position. Re-recording the same ID
// overwrites the row, which makes retries after transient failures safe.
func (s *ArchiveStore) RecordOpen(ctx context.Context, p domain.Position) error {
	const query = `
		INSERT INTO positions (
			id, market_id, condition_id, token_id, question, outcome,
			strategy, entry_price, size, shares, status, entered_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status     = EXCLUDED.status,
			updated_at = NOW()`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.MarketID, p.ConditionID, p.TokenID, p.Question, p.Outcome,
		string(p.Strategy), p.EntryPrice, p.Size, p.Shares,
		string(p.Status), p.EnteredAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: record open %s: %w", p.ID, err)
	}
	return nil
}

// RecordClose marks an archived position closed with its exit price and PnL.
func (s *ArchiveStore) RecordClose(ctx context.Context, p domain.Position) error {
	const query = `
		UPDATE positions SET
			status     = 'closed',
			exit_price = $2,
			pnl        = $3,
			closed_at  = $4,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, p.ID, p.ExitPrice, p.PnL, p.ClosedAt)
	if err != nil {
		return fmt.Errorf("postgres: record close %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: record close %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

// ListRecent returns the most recently entered positions, newest first.
func (s *ArchiveStore) ListRecent(ctx context.Context, limit int) ([]domain.Position, error) {
	const query = `
		SELECT id, market_id, condition_id, token_id, question, outcome,
			strategy, entry_price, size, shares, status, entered_at,
			exit_price, pnl, closed_at
		FROM positions
		ORDER BY entered_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent positions: %w", err)
	}
	defer rows.Close()

	positions, err := scanPositionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan recent positions: %w", err)
	}
	return positions, nil
}

func scanPositionRows(rows pgx.Rows) ([]domain.Position, error) {
	var positions []domain.Position
	for rows.Next() {
		var p domain.Position
		var strategy, status string

		if err := rows.Scan(
			&p.ID, &p.MarketID, &p.ConditionID, &p.TokenID, &p.Question, &p.Outcome,
			&strategy, &p.EntryPrice, &p.Size, &p.Shares, &status, &p.EnteredAt,
			&p.ExitPrice, &p.PnL, &p.ClosedAt,
		); err != nil {
			return nil, err
		}
		p.Strategy = domain.Strategy(strategy)
		p.Status = domain.PositionStatus(status)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

var _ domain.PositionArchive = (*ArchiveStore)(nil)
