// Package activity publishes fire-and-forget user activity events to NATS.
package activity

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/logging"
)

// Event names double as NATS subjects.
const (
	ReviewCreated    = "catalog.review.created"
	ReviewUpdated    = "catalog.review.updated"
	ReviewDeleted    = "catalog.review.deleted"
	WatchlistAdded   = "catalog.watchlist.added"
	WatchlistRemoved = "catalog.watchlist.removed"
	UserRegistered   = "catalog.auth.registered"
)

// Event is the envelope written to the wire.
type Event struct {
	EventID    string                 `json:"event_id"`
	EventName  string                 `json:"event_name"`
	UserID     string                 `json:"user_id,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Publisher sends events over core NATS. A nil *Publisher and a publisher
// built without a URL are both valid no-ops.
type Publisher struct {
	nc  conn
	log *zap.Logger
	now func() time.Time
}

// New connects to natsURL. An empty URL returns a no-op publisher.
func New(natsURL string, log *zap.Logger) (*Publisher, error) {
	log = logging.OrNop(log)
	if natsURL == "" {
		log.Info("NATS_URL not set, activity events disabled")
		return &Publisher{log: log, now: time.Now}, nil
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("movie-catalog"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	log.Info("activity publisher connected", zap.String("url", nc.ConnectedUrlRedacted()))
	return newWithConn(nc, log), nil
}

func newWithConn(nc conn, log *zap.Logger) *Publisher {
	return &Publisher{nc: nc, log: logging.OrNop(log), now: time.Now}
}

// Publish emits an event named name on behalf of userID. Failures are
// logged and never returned.
func (p *Publisher) Publish(_ context.Context, name, userID string, props map[string]interface{}) {
	if p == nil || p.nc == nil {
		return
	}

	evt := Event{
		EventID:    uuid.NewString(),
		EventName:  name,
		UserID:     userID,
		OccurredAt: p.now().UTC(),
		Properties: props,
	}
	data, err := json.Marshal(evt)
	if err != nil {
		p.log.Warn("activity: marshal event", zap.String("event", name), zap.Error(err))
		return
	}
	if err := p.nc.Publish(name, data); err != nil {
		p.log.Warn("activity: publish failed", zap.String("event", name), zap.Error(err))
		return
	}
	p.log.Debug("activity: event published", zap.String("event", name), zap.String("event_id", evt.EventID))
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	if p == nil || p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
