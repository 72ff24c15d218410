package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/tribewell/tally/internal/ledger"
	"github.com/tribewell/tally/internal/match"
	"github.com/tribewell/tally/internal/rank"
	"github.com/tribewell/tally/internal/visibility"
)

// Directory is the slice of the persistence layer the API reads from.
// *store.Store satisfies it.
type Directory interface {
	GetLedger(ctx context.Context, userID uuid.UUID) (ledger.State, error)
	GetReputation(ctx context.Context, userID uuid.UUID) (int, error)
	GetCriteria(ctx context.Context, userID uuid.UUID) (match.Criteria, error)
	ListTribeCandidates(ctx context.Context) ([]match.Candidate, error)
	GetGroups(ctx context.Context, userID uuid.UUID) ([]string, error)
	GetGoals(ctx context.Context, ownerID uuid.UUID) ([]visibility.Goal, error)
	Leaderboard(ctx context.Context, limit int) ([]rank.Entry, error)
}

type Server struct {
	router  *chi.Mux
	port    int
	db      Directory
	weights match.Weights
}

func NewServer(port int, apiToken string, db Directory) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		db:      db,
		weights: match.DefaultWeights(),
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/tally/status", s.status)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Get("/leaderboard", s.leaderboard)
		r.Get("/users/{id}/score", s.userScore)
		r.Get("/users/{id}/matches", s.userMatches)
		r.Get("/users/{id}/goals", s.userGoals)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// BearerAuthMiddleware rejects requests without the expected bearer token.
// An empty configured token disables auth (local development).
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" {
				got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
				if got != token {
					writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"agent":  "tally",
		"status": "serving",
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
