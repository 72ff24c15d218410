package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subjects tally listens on and publishes to.
const (
	SubjectActivityRecorded = "tribe.activity.recorded"
	SubjectScoreUpdated     = "tribe.score.updated"
	SubjectRegistered       = "tribe.agent.tally.registered"
)

// ActivityEvent is published by the CRUD layer whenever a user completes (or
// misses) a scoreable activity.
type ActivityEvent struct {
	UserID     string `json:"user_id"`
	Action     string `json:"action"`
	Source     string `json:"source,omitempty"` // e.g. "rituals", "okr-review"
	OccurredAt string `json:"occurred_at,omitempty"`
}

// ScoreUpdated is emitted after an activity lands in a user's ledger, so
// leaderboard and profile caches downstream can refresh.
type ScoreUpdated struct {
	UserID      string `json:"user_id"`
	Action      string `json:"action"`
	Amount      int    `json:"amount"`
	Level       int    `json:"level"`
	Grit        int    `json:"grit"`
	CurrentXP   int    `json:"current_xp"`
	GlobalScore int    `json:"global_score"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
