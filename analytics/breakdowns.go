package analytics

import (
	"context"
	"sort"

	"funneltrack/api/models"
)

type groupStat struct {
	total       int
	conversions int
}

// ComputeGeoBreakdown groups sessions in range by country code, ranked by
// total descending, and attaches the per-country active gauge.
func (e *Engine) ComputeGeoBreakdown(ctx context.Context, r DateRange) (*models.GeoBreakdown, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	sessions, err := e.sessions.QuerySessions(ctx, r)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*groupStat)
	names := make(map[string]string)
	for _, s := range sessions {
		code := s.CountryCode
		if code == "" {
			continue
		}
		g, ok := groups[code]
		if !ok {
			g = &groupStat{}
			groups[code] = g
			names[code] = s.Country
		}
		g.total++
		if s.Converted {
			g.conversions++
		}
	}

	countries := make([]models.CountryStat, 0, len(groups))
	for code, g := range groups {
		countries = append(countries, models.CountryStat{
			Country:     names[code],
			CountryCode: code,
			Total:       g.total,
			Conversions: g.conversions,
		})
	}
	sort.Slice(countries, func(i, j int) bool {
		if countries[i].Total != countries[j].Total {
			return countries[i].Total > countries[j].Total
		}
		return countries[i].CountryCode < countries[j].CountryCode
	})

	active, err := e.activeSessions(ctx)
	if err != nil {
		return nil, err
	}
	activeByCountry := make(map[string]int)
	for _, s := range active {
		if s.CountryCode != "" {
			activeByCountry[s.CountryCode]++
		}
	}

	return &models.GeoBreakdown{
		Countries:       countries,
		ActiveByCountry: activeByCountry,
		TotalCountries:  len(countries),
	}, nil
}

// ComputeDeviceBreakdown groups sessions in range by device type. Percentages
// are shares of all sessions in range, one decimal; a zero denominator is
// reported as 0% rather than failing.
func (e *Engine) ComputeDeviceBreakdown(ctx context.Context, r DateRange) (*models.DeviceBreakdown, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	sessions, err := e.sessions.QuerySessions(ctx, r)
	if err != nil {
		return nil, err
	}

	groups := make(map[models.DeviceType]*groupStat)
	for _, s := range sessions {
		device := s.DeviceType
		if device == "" {
			device = models.DeviceUnknown
		}
		g, ok := groups[device]
		if !ok {
			g = &groupStat{}
			groups[device] = g
		}
		g.total++
		if s.Converted {
			g.conversions++
		}
	}

	denom := len(sessions)
	if denom == 0 {
		denom = 1
	}

	devices := make([]models.DeviceStat, 0, len(groups))
	for device, g := range groups {
		devices = append(devices, models.DeviceStat{
			DeviceType:  device,
			Total:       g.total,
			Conversions: g.conversions,
			Percentage:  round1(float64(g.total) / float64(denom) * 100),
		})
	}
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Total != devices[j].Total {
			return devices[i].Total > devices[j].Total
		}
		return devices[i].DeviceType < devices[j].DeviceType
	})

	return &models.DeviceBreakdown{
		Devices:       devices,
		TotalSessions: len(sessions),
	}, nil
}

// ComputeChannelBreakdown groups sessions in range by traffic source.
// Sessions without a source land on the "direct" channel.
func (e *Engine) ComputeChannelBreakdown(ctx context.Context, r DateRange) (*models.ChannelBreakdown, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	sessions, err := e.sessions.QuerySessions(ctx, r)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*groupStat)
	for _, s := range sessions {
		source := s.UTMSource
		if source == "" {
			source = models.DefaultTrafficSource
		}
		g, ok := groups[source]
		if !ok {
			g = &groupStat{}
			groups[source] = g
		}
		g.total++
		if s.Converted {
			g.conversions++
		}
	}

	denom := len(sessions)
	if denom == 0 {
		denom = 1
	}

	channels := make([]models.ChannelStat, 0, len(groups))
	for source, g := range groups {
		var channelRate float64
		if g.total > 0 {
			channelRate = round1(float64(g.conversions) / float64(g.total) * 100)
		}
		channels = append(channels, models.ChannelStat{
			Source:         source,
			Total:          g.total,
			Conversions:    g.conversions,
			Percentage:     round1(float64(g.total) / float64(denom) * 100),
			ConversionRate: channelRate,
		})
	}
	sort.Slice(channels, func(i, j int) bool {
		if channels[i].Total != channels[j].Total {
			return channels[i].Total > channels[j].Total
		}
		return channels[i].Source < channels[j].Source
	})

	return &models.ChannelBreakdown{
		Channels:      channels,
		TotalSessions: len(sessions),
	}, nil
}
