// Package events handles ingestion of tracking events: referential checks,
// the append to the event log, and the session-side writes (activity bumps
// and conversion classification).
package events

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"funneltrack/api/models"
)

// SessionWriter is the ingestion-side view of the session store.
type SessionWriter interface {
	// GetSession fails with models.ErrUnknownSession when the id is absent.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	TouchActivity(ctx context.Context, sessionID string, ts time.Time) error
	// MarkConverted sets the converted flag and value and bumps
	// last_activity in one write.
	MarkConverted(ctx context.Context, sessionID string, amount float64, ts time.Time) error
}

// EventAppender is the ingestion-side view of the event log.
type EventAppender interface {
	AppendEvent(ctx context.Context, ev models.Event) error
}

// lockStripes bounds memory for the per-session locks.
const lockStripes = 64

// Processor ingests events one at a time. Writers on the same session are
// serialized through a striped lock; different sessions proceed
// independently.
type Processor struct {
	sessions SessionWriter
	events   EventAppender
	now      func() time.Time
	locks    [lockStripes]sync.Mutex
}

func NewProcessor(sessions SessionWriter, events EventAppender) *Processor {
	return &Processor{
		sessions: sessions,
		events:   events,
		now:      time.Now,
	}
}

func (p *Processor) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &p.locks[h.Sum32()%lockStripes]
}

// ProcessEvent verifies the session exists, appends the event, and applies
// session-side effects: every event bumps last_activity, and a terminal
// conversion event additionally marks the session converted with the value
// extracted from the payload. A missing session fails with
// models.ErrUnknownSession and nothing is appended. A repeated conversion
// event overwrites the recorded value.
func (p *Processor) ProcessEvent(ctx context.Context, sessionID string, eventType models.EventType, payload json.RawMessage) (*models.Event, error) {
	mu := p.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := p.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	ts := p.now().UTC()
	ev := models.Event{
		EventID:   ulid.Make().String(),
		SessionID: sessionID,
		EventType: eventType,
		EventData: payload,
		CreatedAt: ts,
	}
	if err := p.events.AppendEvent(ctx, ev); err != nil {
		return nil, err
	}

	if eventType == models.EventConversion {
		amount := extractAmount(payload)
		if err := p.sessions.MarkConverted(ctx, sessionID, amount, ts); err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"session_id": sessionID,
			"amount":     amount,
		}).Info("session converted")
		return &ev, nil
	}

	if err := p.sessions.TouchActivity(ctx, sessionID, ts); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Heartbeat bumps last_activity without recording a fact. Fails with
// models.ErrUnknownSession when the session is absent.
func (p *Processor) Heartbeat(ctx context.Context, sessionID string) error {
	mu := p.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := p.sessions.GetSession(ctx, sessionID); err != nil {
		return err
	}
	return p.sessions.TouchActivity(ctx, sessionID, p.now().UTC())
}

// extractAmount pulls the conversion value out of the payload. Absent,
// malformed, or negative values degrade to 0 rather than rejecting the
// event.
func extractAmount(payload json.RawMessage) float64 {
	if len(payload) == 0 {
		return 0
	}
	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return 0
	}
	if body.Amount < 0 {
		return 0
	}
	return body.Amount
}
