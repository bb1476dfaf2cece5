package store

import (
	"context"
	"fmt"
	"strings"

	"funneltrack/api/analytics"
	"funneltrack/api/database"
	"funneltrack/api/models"
)

// EventStore persists the append-only event log in ClickHouse. Events are
// never updated or deleted through this store.
type EventStore struct {
	DB *database.ClickHouseClient
}

func NewEventStore(chClient *database.ClickHouseClient) *EventStore {
	return &EventStore{DB: chClient}
}

// EnsureSchema creates the events table if absent.
func (s *EventStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS events (
			event_id String,
			session_id String,
			event_type LowCardinality(String),
			event_data String,
			created_at DateTime64(3, 'UTC')
		)
		ENGINE = MergeTree()
		ORDER BY (created_at, session_id)
	`
	if err := s.DB.Conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: ensure events schema: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// AppendEvent writes one event to the log.
func (s *EventStore) AppendEvent(ctx context.Context, ev models.Event) error {
	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO events (event_id, session_id, event_type, event_data, created_at)
	`)
	if err != nil {
		return fmt.Errorf("%w: prepare event insert: %v", models.ErrStoreUnavailable, err)
	}
	err = batch.Append(
		ev.EventID,
		ev.SessionID,
		string(ev.EventType),
		string(ev.EventData),
		ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: append event: %v", models.ErrStoreUnavailable, err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("%w: send event batch: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// QueryEvents returns events created inside the range whose type is in
// types; an empty types slice matches all events. The type filter and both
// bounds are bound parameters.
func (s *EventStore) QueryEvents(ctx context.Context, r analytics.DateRange, types []models.EventType) ([]models.Event, error) {
	query := `
		SELECT event_id, session_id, event_type, event_data, created_at
		FROM events
		WHERE created_at >= ? AND created_at <= ?
	`
	args := []any{r.Start, r.End}

	if len(types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(types)), ",")
		query += fmt.Sprintf(" AND event_type IN (%s)", placeholders)
		for _, t := range types {
			args = append(args, string(t))
		}
	}
	query += " ORDER BY created_at"

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query events: %v", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			ev        models.Event
			eventType string
			eventData string
		)
		if err := rows.Scan(&ev.EventID, &ev.SessionID, &eventType, &eventData, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan event: %v", models.ErrStoreUnavailable, err)
		}
		ev.EventType = models.EventType(eventType)
		if eventData != "" {
			ev.EventData = []byte(eventData)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate events: %v", models.ErrStoreUnavailable, err)
	}
	return events, nil
}

// Ping verifies connectivity for health checks.
func (s *EventStore) Ping(ctx context.Context) error {
	if err := s.DB.Conn.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}
