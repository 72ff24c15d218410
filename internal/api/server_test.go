package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/tribewell/tally/internal/ledger"
	"github.com/tribewell/tally/internal/match"
	"github.com/tribewell/tally/internal/rank"
	"github.com/tribewell/tally/internal/visibility"
)

type fakeDirectory struct {
	ledgers     map[uuid.UUID]ledger.State
	reputations map[uuid.UUID]int
	criteria    map[uuid.UUID]match.Criteria
	candidates  []match.Candidate
	groups      map[uuid.UUID][]string
	goals       map[uuid.UUID][]visibility.Goal
	entries     []rank.Entry
}

func (f *fakeDirectory) GetLedger(_ context.Context, id uuid.UUID) (ledger.State, error) {
	if st, ok := f.ledgers[id]; ok {
		return st, nil
	}
	return ledger.NewState(), nil
}

func (f *fakeDirectory) GetReputation(_ context.Context, id uuid.UUID) (int, error) {
	return f.reputations[id], nil
}

func (f *fakeDirectory) GetCriteria(_ context.Context, id uuid.UUID) (match.Criteria, error) {
	return f.criteria[id], nil
}

func (f *fakeDirectory) ListTribeCandidates(_ context.Context) ([]match.Candidate, error) {
	return f.candidates, nil
}

func (f *fakeDirectory) GetGroups(_ context.Context, id uuid.UUID) ([]string, error) {
	return f.groups[id], nil
}

func (f *fakeDirectory) GetGoals(_ context.Context, id uuid.UUID) ([]visibility.Goal, error) {
	return f.goals[id], nil
}

func (f *fakeDirectory) Leaderboard(_ context.Context, limit int) ([]rank.Entry, error) {
	entries := append([]rank.Entry(nil), f.entries...)
	return rank.Top(entries, limit), nil
}

func newTestServer(db *fakeDirectory) *Server {
	return NewServer(8760, "", db)
}

func get(t *testing.T, srv *Server, path string, into any) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if into != nil && w.Code == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(into); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return w.Code
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&fakeDirectory{})

	var body map[string]string
	if code := get(t, srv, "/health", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(&fakeDirectory{})

	var body map[string]string
	if code := get(t, srv, "/api/v1/tally/status", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["agent"] != "tally" {
		t.Errorf("expected agent tally, got %q", body["agent"])
	}
}

func TestBearerAuth(t *testing.T) {
	srv := NewServer(8760, "secret", &fakeDirectory{})

	req := httptest.NewRequest("GET", "/api/v1/leaderboard", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/leaderboard", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", w.Code)
	}

	// Open endpoints stay open.
	req = httptest.NewRequest("GET", "/health", nil)
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for /health without token, got %d", w.Code)
	}
}

func TestUserScoreEndpoint(t *testing.T) {
	userID := uuid.New()
	db := &fakeDirectory{
		ledgers: map[uuid.UUID]ledger.State{
			userID: {Level: 3, Grit: 90, CurrentXP: 400, CumulativePositiveXP: 2500, CumulativeNegativeXP: 250},
		},
		reputations: map[uuid.UUID]int{userID: 2},
	}
	srv := newTestServer(db)

	var body ScoreResponse
	if code := get(t, srv, "/api/v1/users/"+userID.String()+"/score", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Level != 3 || body.Grit != 90 {
		t.Errorf("got level=%d grit=%d, want 3/90", body.Level, body.Grit)
	}
	// 3 * 0.9 * 400 * 2
	if body.GlobalScore != 2160 {
		t.Errorf("global score = %d, want 2160", body.GlobalScore)
	}
}

func TestUserScoreEndpoint_FreshUser(t *testing.T) {
	srv := newTestServer(&fakeDirectory{})

	var body ScoreResponse
	if code := get(t, srv, "/api/v1/users/"+uuid.New().String()+"/score", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Level != 1 || body.Grit != 100 {
		t.Errorf("fresh user got level=%d grit=%d, want 1/100", body.Level, body.Grit)
	}
	// 1 * 1.0 * max(0,1) * max(0,1)
	if body.GlobalScore != 1 {
		t.Errorf("fresh user global score = %d, want 1", body.GlobalScore)
	}
}

func TestUserScoreEndpoint_BadID(t *testing.T) {
	srv := newTestServer(&fakeDirectory{})
	if code := get(t, srv, "/api/v1/users/not-a-uuid/score", nil); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	db := &fakeDirectory{
		entries: []rank.Entry{
			{UserID: "low", Level: 1, Grit: 100, CurrentXP: 10, Reputation: 1},
			{UserID: "high", Level: 9, Grit: 100, CurrentXP: 900, Reputation: 3},
		},
	}
	srv := newTestServer(db)

	var body LeaderboardResponse
	if code := get(t, srv, "/api/v1/leaderboard", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Count != 2 || body.Entries[0].UserID != "high" {
		t.Errorf("got %+v, want high first of 2", body)
	}

	if code := get(t, srv, "/api/v1/leaderboard?limit=0", nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for limit=0, got %d", code)
	}
}

func TestLeaderboardEndpoint_LimitCutsAfterScoring(t *testing.T) {
	// The top scorer sits last in storage order (least recently active);
	// limit=1 must still surface them.
	db := &fakeDirectory{
		entries: []rank.Entry{
			{UserID: "recent-low", Level: 1, Grit: 100, CurrentXP: 10, Reputation: 1},
			{UserID: "recent-mid", Level: 2, Grit: 100, CurrentXP: 50, Reputation: 1},
			{UserID: "idle-top", Level: 9, Grit: 100, CurrentXP: 900, Reputation: 3},
		},
	}
	srv := newTestServer(db)

	var body LeaderboardResponse
	if code := get(t, srv, "/api/v1/leaderboard?limit=1", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Count != 1 {
		t.Fatalf("count = %d, want 1", body.Count)
	}
	if body.Entries[0].UserID != "idle-top" {
		t.Errorf("top entry = %q, want idle-top", body.Entries[0].UserID)
	}
}

func TestUserMatchesEndpoint(t *testing.T) {
	userID := uuid.New()
	db := &fakeDirectory{
		criteria: map[uuid.UUID]match.Criteria{
			userID: {Intent: "accountability", Values: []string{"honesty"}},
		},
		candidates: []match.Candidate{
			{ID: "t-far", Criteria: match.Criteria{Intent: "networking"}},
			{ID: "t-near", Criteria: match.Criteria{Intent: "accountability", Values: []string{"honesty"}}},
		},
	}
	srv := newTestServer(db)

	var body MatchesResponse
	if code := get(t, srv, "/api/v1/users/"+userID.String()+"/matches", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}
	if body.Matches[0].ID != "t-near" || body.Matches[0].Score != 100 {
		t.Errorf("top match = %+v, want t-near at 100", body.Matches[0])
	}
	if body.Matches[1].Score != 0 {
		t.Errorf("bottom match score = %d, want 0", body.Matches[1].Score)
	}
}

func TestUserGoalsEndpoint(t *testing.T) {
	owner := uuid.New()
	peer := uuid.New()
	db := &fakeDirectory{
		groups: map[uuid.UUID][]string{
			owner: {"g1"},
			peer:  {"g1"},
		},
		goals: map[uuid.UUID][]visibility.Goal{
			owner: {
				{ID: "g-private", OwnerID: owner.String(), Title: "secret", Visibility: "private"},
				{ID: "g-tribe", OwnerID: owner.String(), Title: "shared", Visibility: "tribe",
					OKRs: []visibility.OKR{{ID: "o1"}, {ID: "o2", SharedWith: []string{"gX"}}}},
				{ID: "g-public", OwnerID: owner.String(), Title: "open", Visibility: "public"},
			},
		},
	}
	srv := newTestServer(db)

	// Shared-group peer: tribe goal visible minus the gX-restricted OKR.
	var body GoalsResponse
	path := "/api/v1/users/" + owner.String() + "/goals?viewer=" + peer.String()
	if code := get(t, srv, path, &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Tier != visibility.TierSharedGroup {
		t.Errorf("tier = %q, want shared_group", body.Tier)
	}
	if body.Count != 2 {
		t.Fatalf("peer sees %d goals, want 2 (tribe + public)", body.Count)
	}
	if body.Goals[0].ID != "g-tribe" || len(body.Goals[0].OKRs) != 1 || body.Goals[0].OKRs[0].ID != "o1" {
		t.Errorf("tribe goal disclosure = %+v, want only o1", body.Goals[0])
	}

	// Owner sees everything.
	path = "/api/v1/users/" + owner.String() + "/goals?viewer=" + owner.String()
	if code := get(t, srv, path, &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Tier != visibility.TierSelf || body.Count != 3 {
		t.Errorf("owner got tier=%q count=%d, want self/3", body.Tier, body.Count)
	}

	// A stranger sees only the public goal.
	stranger := uuid.New()
	path = "/api/v1/users/" + owner.String() + "/goals?viewer=" + stranger.String()
	if code := get(t, srv, path, &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Count != 1 || body.Goals[0].ID != "g-public" {
		t.Errorf("stranger got %+v, want only g-public", body.Goals)
	}

	// Missing viewer param is a bad request.
	path = "/api/v1/users/" + owner.String() + "/goals"
	if code := get(t, srv, path, nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 without viewer, got %d", code)
	}
}
