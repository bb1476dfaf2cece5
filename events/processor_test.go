package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funneltrack/api/models"
)

// fakeSessionWriter tracks session-side writes in memory.
type fakeSessionWriter struct {
	sessions map[string]*models.Session
}

func newFakeSessionWriter(ids ...string) *fakeSessionWriter {
	f := &fakeSessionWriter{sessions: make(map[string]*models.Session)}
	for _, id := range ids {
		f.sessions[id] = &models.Session{SessionID: id}
	}
	return f
}

func (f *fakeSessionWriter) GetSession(_ context.Context, sessionID string) (*models.Session, error) {
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownSession, sessionID)
	}
	return sess, nil
}

func (f *fakeSessionWriter) TouchActivity(_ context.Context, sessionID string, ts time.Time) error {
	sess, ok := f.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownSession, sessionID)
	}
	if ts.After(sess.LastActivity) {
		sess.LastActivity = ts
	}
	return nil
}

func (f *fakeSessionWriter) MarkConverted(_ context.Context, sessionID string, amount float64, ts time.Time) error {
	sess, ok := f.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownSession, sessionID)
	}
	sess.Converted = true
	sess.ConversionAmount = amount
	if ts.After(sess.LastActivity) {
		sess.LastActivity = ts
	}
	return nil
}

type fakeEventAppender struct {
	appended []models.Event
}

func (f *fakeEventAppender) AppendEvent(_ context.Context, ev models.Event) error {
	f.appended = append(f.appended, ev)
	return nil
}

func newTestProcessor(sessions *fakeSessionWriter, appender *fakeEventAppender, now time.Time) *Processor {
	p := NewProcessor(sessions, appender)
	p.now = func() time.Time { return now }
	return p
}

func TestProcessEventAppendsAndTouches(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	sessions := newFakeSessionWriter("s1")
	appender := &fakeEventAppender{}
	p := newTestProcessor(sessions, appender, now)

	ev, err := p.ProcessEvent(context.Background(), "s1", models.EventFormStart, nil)
	require.NoError(t, err)

	require.Len(t, appender.appended, 1)
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, models.EventFormStart, ev.EventType)
	assert.Equal(t, now, sessions.sessions["s1"].LastActivity)
	assert.False(t, sessions.sessions["s1"].Converted)
}

func TestProcessEventConversion(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	sessions := newFakeSessionWriter("s1")
	appender := &fakeEventAppender{}
	p := newTestProcessor(sessions, appender, now)

	payload := json.RawMessage(`{"amount": 12345}`)
	_, err := p.ProcessEvent(context.Background(), "s1", models.EventConversion, payload)
	require.NoError(t, err)

	sess := sessions.sessions["s1"]
	assert.True(t, sess.Converted)
	assert.Equal(t, 12345.0, sess.ConversionAmount)
	assert.Equal(t, now, sess.LastActivity)
	require.Len(t, appender.appended, 1)
}

func TestProcessEventConversionMalformedPayload(t *testing.T) {
	cases := []struct {
		name    string
		payload json.RawMessage
	}{
		{"absent", nil},
		{"empty object", json.RawMessage(`{}`)},
		{"not json", json.RawMessage(`not-json`)},
		{"wrong type", json.RawMessage(`{"amount": "lots"}`)},
		{"negative", json.RawMessage(`{"amount": -50}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sessions := newFakeSessionWriter("s1")
			appender := &fakeEventAppender{}
			p := newTestProcessor(sessions, appender, time.Now())

			// Malformed value degrades to 0; the event still lands.
			_, err := p.ProcessEvent(context.Background(), "s1", models.EventConversion, tc.payload)
			require.NoError(t, err)
			assert.True(t, sessions.sessions["s1"].Converted)
			assert.Equal(t, 0.0, sessions.sessions["s1"].ConversionAmount)
			assert.Len(t, appender.appended, 1)
		})
	}
}

func TestProcessEventSecondConversionOverwrites(t *testing.T) {
	sessions := newFakeSessionWriter("s1")
	appender := &fakeEventAppender{}
	p := newTestProcessor(sessions, appender, time.Now())

	_, err := p.ProcessEvent(context.Background(), "s1", models.EventConversion, json.RawMessage(`{"amount": 100}`))
	require.NoError(t, err)
	_, err = p.ProcessEvent(context.Background(), "s1", models.EventConversion, json.RawMessage(`{"amount": 900}`))
	require.NoError(t, err)

	assert.Equal(t, 900.0, sessions.sessions["s1"].ConversionAmount)
	assert.Len(t, appender.appended, 2)
}

func TestProcessEventUnknownSession(t *testing.T) {
	sessions := newFakeSessionWriter()
	appender := &fakeEventAppender{}
	p := newTestProcessor(sessions, appender, time.Now())

	_, err := p.ProcessEvent(context.Background(), "ghost", models.EventFormStart, nil)
	assert.ErrorIs(t, err, models.ErrUnknownSession)
	assert.Empty(t, appender.appended, "no event may be appended for an unknown session")
}

func TestHeartbeat(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	sessions := newFakeSessionWriter("s1")
	p := newTestProcessor(sessions, &fakeEventAppender{}, now)

	require.NoError(t, p.Heartbeat(context.Background(), "s1"))
	assert.Equal(t, now, sessions.sessions["s1"].LastActivity)

	assert.ErrorIs(t, p.Heartbeat(context.Background(), "ghost"), models.ErrUnknownSession)
}

func TestExtractAmount(t *testing.T) {
	assert.Equal(t, 12345.0, extractAmount(json.RawMessage(`{"amount": 12345}`)))
	assert.Equal(t, 99.5, extractAmount(json.RawMessage(`{"amount": 99.5, "extra": true}`)))
	assert.Equal(t, 0.0, extractAmount(nil))
	assert.Equal(t, 0.0, extractAmount(json.RawMessage(`[]`)))
}
