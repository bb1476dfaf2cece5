package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funneltrack/api/models"
)

// sessionAt builds a minimal session created at the given instant.
func sessionAt(id string, createdAt time.Time) models.Session {
	return models.Session{
		SessionID:    id,
		CreatedAt:    createdAt,
		LastActivity: createdAt,
		DeviceType:   models.DeviceDesktop,
		UTMSource:    models.DefaultTrafficSource,
		Country:      models.DefaultCountry,
		CountryCode:  models.DefaultCountryCode,
	}
}

func converted(s models.Session, amount float64) models.Session {
	s.Converted = true
	s.ConversionAmount = amount
	return s
}

func TestComputeKPIsScenario(t *testing.T) {
	created := testNow.Add(-48 * time.Hour)
	var sessions []models.Session
	for i := 0; i < 10; i++ {
		s := sessionAt(string(rune('a'+i)), created)
		if i < 4 {
			s = converted(s, float64((i+1)*1000))
		}
		sessions = append(sessions, s)
	}

	e := newTestEngine(sessions, nil)
	kpis, err := e.ComputeKPIs(context.Background(), mustRange(t, "2025-03-01", "2025-03-10"))
	require.NoError(t, err)

	assert.Equal(t, 10, kpis.TotalLeads)
	assert.Equal(t, 4, kpis.TotalConversions)
	assert.Equal(t, 40.0, kpis.ConversionRate)
	assert.Equal(t, 60.0, kpis.AbandonmentRate)
	assert.Equal(t, 2500.0, kpis.AvgPenaltyAmount)
}

func TestComputeKPIsEmptyRange(t *testing.T) {
	e := newTestEngine(nil, nil)
	kpis, err := e.ComputeKPIs(context.Background(), mustRange(t, "2025-01-01", "2025-01-31"))
	require.NoError(t, err)

	assert.Equal(t, 0, kpis.TotalLeads)
	assert.Equal(t, 0.0, kpis.ConversionRate)
	assert.Equal(t, 100.0, kpis.AbandonmentRate)
	assert.Equal(t, 0.0, kpis.AvgPenaltyAmount)
}

func TestRatesAlwaysComplementary(t *testing.T) {
	// 1 of 3 converted: 33.33 + 66.67 must still be exactly 100.
	created := testNow.Add(-24 * time.Hour)
	sessions := []models.Session{
		converted(sessionAt("a", created), 500),
		sessionAt("b", created),
		sessionAt("c", created),
	}

	e := newTestEngine(sessions, nil)
	kpis, err := e.ComputeKPIs(context.Background(), mustRange(t, "2025-03-01", "2025-03-10"))
	require.NoError(t, err)

	assert.Equal(t, 33.33, kpis.ConversionRate)
	assert.Equal(t, 66.67, kpis.AbandonmentRate)
	assert.Equal(t, 100.0, kpis.ConversionRate+kpis.AbandonmentRate)
}

func TestActiveUsersIndependentOfRange(t *testing.T) {
	old := sessionAt("old", testNow.Add(-30*24*time.Hour))
	old.LastActivity = testNow.Add(-time.Minute) // created long ago, active now
	idle := sessionAt("idle", testNow.Add(-time.Hour))
	idle.LastActivity = testNow.Add(-10 * time.Minute)

	e := newTestEngine([]models.Session{old, idle}, nil)

	narrow, err := e.ComputeKPIs(context.Background(), mustRange(t, "2025-03-10", "2025-03-10"))
	require.NoError(t, err)
	wide, err := e.ComputeKPIs(context.Background(), mustRange(t, "2025-01-01", "2025-03-10"))
	require.NoError(t, err)

	assert.Equal(t, 1, narrow.ActiveUsers)
	assert.Equal(t, narrow.ActiveUsers, wide.ActiveUsers)
}

func TestComputeKPIsInvalidRange(t *testing.T) {
	e := newTestEngine(nil, nil)
	r := DateRange{
		Start: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := e.ComputeKPIs(context.Background(), r)
	assert.ErrorIs(t, err, models.ErrInvalidRange)
}

func TestComputeKPIsIdempotent(t *testing.T) {
	created := testNow.Add(-24 * time.Hour)
	sessions := []models.Session{
		converted(sessionAt("a", created), 1500),
		sessionAt("b", created),
	}
	e := newTestEngine(sessions, nil)
	r := mustRange(t, "2025-03-01", "2025-03-10")

	first, err := e.ComputeKPIs(context.Background(), r)
	require.NoError(t, err)
	second, err := e.ComputeKPIs(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeKPIsStoreFailure(t *testing.T) {
	e := NewEngine(&fakeSessionStore{err: models.ErrStoreUnavailable}, &fakeEventStore{})
	_, err := e.ComputeKPIs(context.Background(), mustRange(t, "2025-03-01", "2025-03-10"))
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}
