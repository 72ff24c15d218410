package api

import (
	"net/http"
	"strconv"

	"github.com/tribewell/tally/internal/rank"
)

// ScoreResponse is a user's ledger state plus the derived global score.
type ScoreResponse struct {
	UserID               string `json:"user_id"`
	Level                int    `json:"level"`
	Grit                 int    `json:"grit"`
	CurrentXP            int    `json:"current_xp"`
	CumulativePositiveXP int    `json:"cumulative_positive_xp"`
	CumulativeNegativeXP int    `json:"cumulative_negative_xp"`
	Reputation           int    `json:"reputation"`
	GlobalScore          int    `json:"global_score"`
}

// LeaderboardResponse wraps the scored, descending leaderboard entries.
type LeaderboardResponse struct {
	Entries []rank.Entry `json:"entries"`
	Count   int          `json:"count"`
}

// userScore handles GET /api/v1/users/{id}/score.
func (s *Server) userScore(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()

	state, err := s.db.GetLedger(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load ledger")
		return
	}
	reputation, err := s.db.GetReputation(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load reputation")
		return
	}

	writeJSON(w, http.StatusOK, ScoreResponse{
		UserID:               userID.String(),
		Level:                state.Level,
		Grit:                 state.Grit,
		CurrentXP:            state.CurrentXP,
		CumulativePositiveXP: state.CumulativePositiveXP,
		CumulativeNegativeXP: state.CumulativeNegativeXP,
		Reputation:           reputation,
		GlobalScore:          rank.GlobalScore(state.Level, state.Grit, state.CurrentXP, reputation),
	})
}

// leaderboard handles GET /api/v1/leaderboard?limit=N.
func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.db.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	if entries == nil {
		entries = []rank.Entry{}
	}

	writeJSON(w, http.StatusOK, LeaderboardResponse{Entries: entries, Count: len(entries)})
}
