package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tribewell/tally/internal/match"
	"github.com/tribewell/tally/internal/rank"
)

// GetCriteria fetches a user's matchmaking criteria. A user who has not
// filled in the questionnaire gets an empty set, which the scorer skips.
func (s *Store) GetCriteria(ctx context.Context, userID uuid.UUID) (match.Criteria, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT life_focus, execution_style, personality, intent, stage,
		       coalesce("values", '{}'), coalesce(skills, '{}'), coalesce(interests, '{}'),
		       coalesce(industries, '{}'), coalesce(languages, '{}'), coalesce(availability, '{}')
		FROM profile_criteria
		WHERE user_id = $1`,
		userID,
	)

	var c match.Criteria
	err := row.Scan(
		&c.LifeFocus, &c.ExecutionStyle, &c.Personality, &c.Intent, &c.Stage,
		&c.Values, &c.Skills, &c.Interests, &c.Industries, &c.Languages, &c.Availability,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return match.Criteria{}, nil
	}
	if err != nil {
		return match.Criteria{}, fmt.Errorf("fetch criteria: %w", err)
	}
	return c, nil
}

// ListTribeCandidates returns every open tribe's criteria profile for
// matchmaking.
func (s *Store) ListTribeCandidates(ctx context.Context) ([]match.Candidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.name,
		       c.life_focus, c.execution_style, c.personality, c.intent, c.stage,
		       coalesce(c."values", '{}'), coalesce(c.skills, '{}'), coalesce(c.interests, '{}'),
		       coalesce(c.industries, '{}'), coalesce(c.languages, '{}'), coalesce(c.availability, '{}')
		FROM tribes t
		JOIN tribe_criteria c ON c.tribe_id = t.id
		WHERE t.open = true
		ORDER BY t.created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch tribe candidates: %w", err)
	}
	defer rows.Close()

	var candidates []match.Candidate
	for rows.Next() {
		var cand match.Candidate
		c := &cand.Criteria
		if err := rows.Scan(
			&cand.ID, &cand.Name,
			&c.LifeFocus, &c.ExecutionStyle, &c.Personality, &c.Intent, &c.Stage,
			&c.Values, &c.Skills, &c.Interests, &c.Industries, &c.Languages, &c.Availability,
		); err != nil {
			return nil, fmt.Errorf("scan tribe candidate: %w", err)
		}
		candidates = append(candidates, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return candidates, nil
}

// GetGroups returns the ids of every tribe the user belongs to.
func (s *Store) GetGroups(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tribe_id
		FROM tribe_members
		WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch groups: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return groups, nil
}

// Leaderboard returns the top users by global score. Every ledger row is
// fetched and scored in Go via rank.Top so the ranking number has a single
// implementation; the limit is applied only after sorting, never in SQL, so
// a high scorer cannot fall off the board for being idle.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]rank.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT l.user_id, l.level, l.grit, l.current_xp, coalesce(p.reputation, 0)
		FROM xp_ledgers l
		LEFT JOIN profiles p ON p.user_id = l.user_id
		ORDER BY l.user_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []rank.Entry
	for rows.Next() {
		var e rank.Entry
		if err := rows.Scan(&e.UserID, &e.Level, &e.Grit, &e.CurrentXP, &e.Reputation); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return rank.Top(entries, limit), nil
}
