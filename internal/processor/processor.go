package processor

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tribewell/tally/internal/bus"
	"github.com/tribewell/tally/internal/ledger"
	"github.com/tribewell/tally/internal/rank"
)

// Store is the slice of the persistence layer the processor needs.
// *store.Store satisfies it.
type Store interface {
	ApplyAction(ctx context.Context, userID uuid.UUID, action ledger.Action, table ledger.PointsTable) (ledger.State, int, error)
	GetReputation(ctx context.Context, userID uuid.UUID) (int, error)
}

// Publisher publishes events back onto the bus. *bus.Client satisfies it.
type Publisher interface {
	Publish(subject string, data any) error
}

// Processor folds activity events into user ledgers and announces the
// resulting scores.
type Processor struct {
	store  Store
	pub    Publisher
	table  ledger.PointsTable
	logger *slog.Logger
}

func New(s Store, pub Publisher, table ledger.PointsTable, logger *slog.Logger) *Processor {
	return &Processor{
		store:  s,
		pub:    pub,
		table:  table,
		logger: logger,
	}
}

// HandleActivityRecorded is the NATS handler for tribe.activity.recorded.
func (p *Processor) HandleActivityRecorded(subject string, data []byte) {
	ctx := context.Background()

	var evt bus.ActivityEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse activity event", "error", err)
		return
	}

	userID, err := uuid.Parse(evt.UserID)
	if err != nil {
		p.logger.Error("invalid user id", "user_id", evt.UserID, "error", err)
		return
	}

	action := ledger.Action(evt.Action)
	if _, ok := p.table[action]; !ok {
		// Contract violation by the producer, not an engine failure.
		p.logger.Warn("unknown action kind, dropping event", "action", evt.Action, "user", evt.UserID)
		return
	}

	state, amount, err := p.store.ApplyAction(ctx, userID, action, p.table)
	if err != nil {
		p.logger.Error("failed to apply action", "user", evt.UserID, "action", evt.Action, "error", err)
		return
	}

	reputation, err := p.store.GetReputation(ctx, userID)
	if err != nil {
		p.logger.Error("failed to fetch reputation", "user", evt.UserID, "error", err)
		return
	}

	update := bus.ScoreUpdated{
		UserID:      evt.UserID,
		Action:      evt.Action,
		Amount:      amount,
		Level:       state.Level,
		Grit:        state.Grit,
		CurrentXP:   state.CurrentXP,
		GlobalScore: rank.GlobalScore(state.Level, state.Grit, state.CurrentXP, reputation),
	}
	if err := p.pub.Publish(bus.SubjectScoreUpdated, update); err != nil {
		p.logger.Warn("failed to publish score update", "user", evt.UserID, "error", err)
	}

	p.logger.Info("activity scored",
		"user", evt.UserID,
		"action", evt.Action,
		"amount", amount,
		"level", state.Level,
		"grit", state.Grit,
		"global_score", update.GlobalScore,
	)
}
