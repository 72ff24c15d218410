package api

import (
	"net/http"

	"github.com/tribewell/tally/internal/match"
)

// MatchesResponse wraps the compatibility ranking for one user.
type MatchesResponse struct {
	UserID  string            `json:"user_id"`
	Matches []match.Candidate `json:"matches"`
	Count   int               `json:"count"`
}

// userMatches handles GET /api/v1/users/{id}/matches: the user's criteria
// scored against every open tribe, best first.
func (s *Server) userMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()

	criteria, err := s.db.GetCriteria(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load criteria")
		return
	}
	candidates, err := s.db.ListTribeCandidates(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load candidates")
		return
	}

	ranked := match.Rank(criteria, candidates, s.weights)
	if ranked == nil {
		ranked = []match.Candidate{}
	}

	writeJSON(w, http.StatusOK, MatchesResponse{
		UserID:  userID.String(),
		Matches: ranked,
		Count:   len(ranked),
	})
}
