package analytics

import (
	"context"
	"math"
	"time"

	"funneltrack/api/models"
)

// activeWindow is the trailing real-time window that defines an active user.
const activeWindow = 5 * time.Minute

// SessionStore is the engine's read view of durable session records.
type SessionStore interface {
	// QuerySessions returns sessions whose created_at falls in the range.
	QuerySessions(ctx context.Context, r DateRange) ([]models.Session, error)

	// QueryActiveSessions returns sessions with last_activity at or after
	// since, irrespective of creation date.
	QueryActiveSessions(ctx context.Context, since time.Time) ([]models.Session, error)
}

// EventStore is the engine's read view of the append-only event log.
type EventStore interface {
	// QueryEvents returns events created in the range whose type is in
	// types. An empty types slice matches every event.
	QueryEvents(ctx context.Context, r DateRange, types []models.EventType) ([]models.Event, error)
}

// Engine computes derived statistics over the two stores. All methods are
// pure reads; concurrent calls never conflict.
type Engine struct {
	sessions  SessionStore
	events    EventStore
	steps     []models.EventType
	questions []models.QuestionID
	now       func() time.Time
}

// NewEngine builds an engine over the given stores with the fixed four-step
// funnel and the full question enumeration.
func NewEngine(sessions SessionStore, events EventStore) *Engine {
	return &Engine{
		sessions:  sessions,
		events:    events,
		steps:     models.FunnelSteps,
		questions: models.Questions(),
		now:       time.Now,
	}
}

// activeSessions loads the 5-minute gauge population at evaluation time.
func (e *Engine) activeSessions(ctx context.Context) ([]models.Session, error) {
	return e.sessions.QueryActiveSessions(ctx, e.now().Add(-activeWindow))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
