package analytics

import (
	"context"
	"time"

	"funneltrack/api/models"
)

// fakeSessionStore serves canned sessions, filtering the way the real store
// does: creation date for range queries, last activity for the active gauge.
type fakeSessionStore struct {
	sessions []models.Session
	err      error
}

func (f *fakeSessionStore) QuerySessions(_ context.Context, r DateRange) ([]models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Session
	for _, s := range f.sessions {
		if r.Contains(s.CreatedAt) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) QueryActiveSessions(_ context.Context, since time.Time) ([]models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Session
	for _, s := range f.sessions {
		if !s.LastActivity.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeEventStore struct {
	events []models.Event
	err    error
}

func (f *fakeEventStore) QueryEvents(_ context.Context, r DateRange, types []models.EventType) ([]models.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[models.EventType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	var out []models.Event
	for _, ev := range f.events {
		if !r.Contains(ev.CreatedAt) {
			continue
		}
		if len(types) > 0 && !wanted[ev.EventType] {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// testNow is the fixed evaluation instant used across engine tests; ranges
// below are chosen around it.
var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestEngine(sessions []models.Session, events []models.Event) *Engine {
	e := NewEngine(&fakeSessionStore{sessions: sessions}, &fakeEventStore{events: events})
	e.now = func() time.Time { return testNow }
	return e
}

func mustRange(t interface{ Fatalf(string, ...any) }, start, end string) DateRange {
	r, err := ParseDateRange(start, end)
	if err != nil {
		t.Fatalf("parse range %s..%s: %v", start, end, err)
	}
	return r
}
