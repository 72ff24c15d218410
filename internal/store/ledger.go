package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tribewell/tally/internal/ledger"
)

// GetLedger fetches a user's ledger state. Users with no row yet get a fresh
// level-1 state.
func (s *Store) GetLedger(ctx context.Context, userID uuid.UUID) (ledger.State, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT cumulative_positive_xp, cumulative_negative_xp, current_xp, level, grit
		FROM xp_ledgers
		WHERE user_id = $1`,
		userID,
	)

	var st ledger.State
	err := row.Scan(&st.CumulativePositiveXP, &st.CumulativeNegativeXP, &st.CurrentXP, &st.Level, &st.Grit)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.NewState(), nil
	}
	if err != nil {
		return ledger.State{}, fmt.Errorf("fetch ledger: %w", err)
	}
	return st, nil
}

// ApplyAction runs the ledger read-modify-write for one activity under a
// single transaction. The row is locked for the duration so two concurrent
// actions on the same user cannot lose an update. An audit row is written to
// xp_events alongside the new state.
func (s *Store) ApplyAction(ctx context.Context, userID uuid.UUID, action ledger.Action, table ledger.PointsTable) (ledger.State, int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ledger.State{}, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT cumulative_positive_xp, cumulative_negative_xp, current_xp, level, grit
		FROM xp_ledgers
		WHERE user_id = $1
		FOR UPDATE`,
		userID,
	)

	var st ledger.State
	err = row.Scan(&st.CumulativePositiveXP, &st.CumulativeNegativeXP, &st.CurrentXP, &st.Level, &st.Grit)
	if errors.Is(err, pgx.ErrNoRows) {
		st = ledger.NewState()
	} else if err != nil {
		return ledger.State{}, 0, fmt.Errorf("lock ledger: %w", err)
	}

	next, amount, err := ledger.Apply(st, action, table)
	if err != nil {
		return ledger.State{}, 0, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO xp_ledgers (user_id, cumulative_positive_xp, cumulative_negative_xp, current_xp, level, grit, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (user_id)
		DO UPDATE SET
			cumulative_positive_xp = $2,
			cumulative_negative_xp = $3,
			current_xp = $4,
			level = $5,
			grit = $6,
			updated_at = now()`,
		userID, next.CumulativePositiveXP, next.CumulativeNegativeXP, next.CurrentXP, next.Level, next.Grit,
	)
	if err != nil {
		return ledger.State{}, 0, fmt.Errorf("upsert ledger: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO xp_events (id, user_id, action, amount, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		uuid.New(), userID, string(action), amount,
	)
	if err != nil {
		return ledger.State{}, 0, fmt.Errorf("insert xp event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ledger.State{}, 0, fmt.Errorf("commit: %w", err)
	}

	return next, amount, nil
}

// GetReputation returns a user's reputation score; users without a profile
// row count as zero.
func (s *Store) GetReputation(ctx context.Context, userID uuid.UUID) (int, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT reputation
		FROM profiles
		WHERE user_id = $1`,
		userID,
	)

	var rep int
	err := row.Scan(&rep)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("fetch reputation: %w", err)
	}
	return rep, nil
}
