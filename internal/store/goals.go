package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tribewell/tally/internal/visibility"
)

// GetGoals fetches a user's goals with their child OKRs and share lists.
// Visibility comes back as the raw stored string; the resolver parses it
// fail-closed at decision time.
func (s *Store) GetGoals(ctx context.Context, ownerID uuid.UUID) ([]visibility.Goal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, visibility
		FROM goals
		WHERE owner_id = $1
		ORDER BY created_at`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch goals: %w", err)
	}
	defer rows.Close()

	var goals []visibility.Goal
	index := make(map[string]int)
	for rows.Next() {
		g := visibility.Goal{OwnerID: ownerID.String()}
		if err := rows.Scan(&g.ID, &g.Title, &g.Visibility); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		index[g.ID] = len(goals)
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	if len(goals) == 0 {
		return nil, nil
	}

	okrRows, err := s.pool.Query(ctx, `
		SELECT o.goal_id, o.id, o.title, coalesce(o.shared_with, '{}')
		FROM okrs o
		JOIN goals g ON g.id = o.goal_id
		WHERE g.owner_id = $1
		ORDER BY o.created_at`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch okrs: %w", err)
	}
	defer okrRows.Close()

	for okrRows.Next() {
		var goalID string
		var okr visibility.OKR
		if err := okrRows.Scan(&goalID, &okr.ID, &okr.Title, &okr.SharedWith); err != nil {
			return nil, fmt.Errorf("scan okr: %w", err)
		}
		if i, ok := index[goalID]; ok {
			goals[i].OKRs = append(goals[i].OKRs, okr)
		}
	}
	if err := okrRows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return goals, nil
}
