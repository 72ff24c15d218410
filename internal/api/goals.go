package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/tribewell/tally/internal/visibility"
)

// DisclosedGoal is one goal as seen by the requesting viewer. OKRs is never
// null: a visible tribe goal whose OKRs were all filtered out comes back with
// an empty list so callers can render a "no shared metrics" placeholder.
type DisclosedGoal struct {
	ID    string           `json:"id"`
	Title string           `json:"title"`
	OKRs  []visibility.OKR `json:"okrs"`
}

// GoalsResponse wraps the visibility-resolved goals of a target user.
type GoalsResponse struct {
	TargetID string          `json:"target_id"`
	ViewerID string          `json:"viewer_id"`
	Tier     visibility.Tier `json:"tier"`
	Goals    []DisclosedGoal `json:"goals"`
	Count    int             `json:"count"`
}

// userGoals handles GET /api/v1/users/{id}/goals?viewer={uuid}: the target's
// goals filtered down to what the viewer is allowed to see. The access tier
// is derived fresh on every request; it is never cached.
func (s *Server) userGoals(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	viewerID, err := uuid.Parse(r.URL.Query().Get("viewer"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid viewer")
		return
	}
	ctx := r.Context()

	req := visibility.Request{
		ViewerID: viewerID.String(),
		TargetID: targetID.String(),
	}
	if viewerID != targetID {
		if req.ViewerGroups, err = s.db.GetGroups(ctx, viewerID); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load viewer groups")
			return
		}
		if req.TargetGroups, err = s.db.GetGroups(ctx, targetID); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load target groups")
			return
		}
		viewerLedger, err := s.db.GetLedger(ctx, viewerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load viewer ledger")
			return
		}
		targetLedger, err := s.db.GetLedger(ctx, targetID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load target ledger")
			return
		}
		req.ViewerLevel = viewerLedger.Level
		req.TargetLevel = targetLedger.Level
	}

	goals, err := s.db.GetGoals(ctx, targetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load goals")
		return
	}

	disclosed := []DisclosedGoal{}
	for _, goal := range goals {
		result := visibility.Resolve(req, goal)
		if result.Hidden {
			continue
		}
		okrs := result.OKRs
		if okrs == nil {
			okrs = []visibility.OKR{}
		}
		disclosed = append(disclosed, DisclosedGoal{ID: goal.ID, Title: goal.Title, OKRs: okrs})
	}

	writeJSON(w, http.StatusOK, GoalsResponse{
		TargetID: targetID.String(),
		ViewerID: viewerID.String(),
		Tier:     visibility.ResolveTier(req),
		Goals:    disclosed,
		Count:    len(disclosed),
	})
}
