package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funneltrack/api/models"
)

func TestComputeGeoBreakdown(t *testing.T) {
	created := testNow.Add(-24 * time.Hour)

	pe1 := sessionAt("pe1", created)
	pe1.Country, pe1.CountryCode = "Peru", "PE"
	pe2 := converted(sessionAt("pe2", created), 5000)
	pe2.Country, pe2.CountryCode = "Peru", "PE"
	co := sessionAt("co", created)
	co.Country, co.CountryCode = "Colombia", "CO"
	co.LastActivity = testNow.Add(-time.Minute)
	blank := sessionAt("blank", created)
	blank.CountryCode = ""

	e := newTestEngine([]models.Session{pe1, pe2, co, blank}, nil)
	geo, err := e.ComputeGeoBreakdown(context.Background(), mustRange(t, "2025-03-01", "2025-03-10"))
	require.NoError(t, err)

	require.Len(t, geo.Countries, 2)
	assert.Equal(t, "PE", geo.Countries[0].CountryCode)
	assert.Equal(t, 2, geo.Countries[0].Total)
	assert.Equal(t, 1, geo.Countries[0].Conversions)
	assert.Equal(t, "CO", geo.Countries[1].CountryCode)
	assert.Equal(t, 2, geo.TotalCountries)

	assert.Equal(t, map[string]int{"CO": 1}, geo.ActiveByCountry)
}

func TestComputeGeoBreakdownRankTies(t *testing.T) {
	created := testNow.Add(-24 * time.Hour)
	mx := sessionAt("mx", created)
	mx.CountryCode = "MX"
	ar := sessionAt("ar", created)
	ar.CountryCode = "AR"

	e := newTestEngine([]models.Session{mx, ar}, nil)
	geo, err := e.ComputeGeoBreakdown(context.Background(), mustRange(t, "2025-03-01", "2025-03-10"))
	require.NoError(t, err)

	// Equal totals order by country code for a stable response.
	require.Len(t, geo.Countries, 2)
	assert.Equal(t, "AR", geo.Countries[0].CountryCode)
	assert.Equal(t, "MX", geo.Countries[1].CountryCode)
}

func TestComputeDeviceBreakdown(t *testing.T) {
	created := testNow.Add(-24 * time.Hour)
	var sessions []models.Session
	for i := 0; i < 3; i++ {
		s := sessionAt(string(rune('a'+i)), created)
		s.DeviceType = models.DeviceMobile
		sessions = append(sessions, s)
	}
	desktop := converted(sessionAt("d", created), 1000)
	desktop.DeviceType = models.DeviceDesktop
	sessions = append(sessions, desktop)

	e := newTestEngine(sessions, nil)
	devices, err := e.ComputeDeviceBreakdown(context.Background(), mustRange(t, "2025-03-01", "2025-03-10"))
	require.NoError(t, err)

	assert.Equal(t, 4, devices.TotalSessions)
	require.Len(t, devices.Devices, 2)
	assert.Equal(t, models.DeviceMobile, devices.Devices[0].DeviceType)
	assert.Equal(t, 75.0, devices.Devices[0].Percentage)
	assert.Equal(t, models.DeviceDesktop, devices.Devices[1].DeviceType)
	assert.Equal(t, 25.0, devices.Devices[1].Percentage)
	assert.Equal(t, 1, devices.Devices[1].Conversions)
}

func TestComputeDeviceBreakdownEmpty(t *testing.T) {
	e := newTestEngine(nil, nil)
	devices, err := e.ComputeDeviceBreakdown(context.Background(), mustRange(t, "2025-03-01", "2025-03-10"))
	require.NoError(t, err)

	assert.Empty(t, devices.Devices)
	assert.Equal(t, 0, devices.TotalSessions)
}

func TestComputeChannelBreakdown(t *testing.T) {
	created := testNow.Add(-24 * time.Hour)

	wa1 := converted(sessionAt("wa1", created), 8000)
	wa1.UTMSource = "whatsapp"
	wa2 := sessionAt("wa2", created)
	wa2.UTMSource = "whatsapp"
	noSource := sessionAt("ns", created)
	noSource.UTMSource = ""

	e := newTestEngine([]models.Session{wa1, wa2, noSource}, nil)
	channels, err := e.ComputeChannelBreakdown(context.Background(), mustRange(t, "2025-03-01", "2025-03-10"))
	require.NoError(t, err)

	assert.Equal(t, 3, channels.TotalSessions)
	require.Len(t, channels.Channels, 2)

	wa := channels.Channels[0]
	assert.Equal(t, "whatsapp", wa.Source)
	assert.Equal(t, 2, wa.Total)
	assert.Equal(t, 1, wa.Conversions)
	assert.Equal(t, 66.7, wa.Percentage)
	assert.Equal(t, 50.0, wa.ConversionRate)

	// A session without a source lands on the direct channel.
	direct := channels.Channels[1]
	assert.Equal(t, "direct", direct.Source)
	assert.Equal(t, 1, direct.Total)
	assert.Equal(t, 33.3, direct.Percentage)
	assert.Equal(t, 0.0, direct.ConversionRate)
}

func TestBreakdownsInvalidRange(t *testing.T) {
	e := newTestEngine(nil, nil)
	bad := DateRange{
		Start: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := e.ComputeGeoBreakdown(context.Background(), bad)
	assert.ErrorIs(t, err, models.ErrInvalidRange)
	_, err = e.ComputeDeviceBreakdown(context.Background(), bad)
	assert.ErrorIs(t, err, models.ErrInvalidRange)
	_, err = e.ComputeChannelBreakdown(context.Background(), bad)
	assert.ErrorIs(t, err, models.ErrInvalidRange)
}
