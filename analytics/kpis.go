package analytics

import (
	"context"

	"funneltrack/api/models"
)

// ComputeKPIs derives the headline snapshot for the range: lead and
// conversion totals, rates, average conversion value, and the active-user
// gauge. Fails with models.ErrInvalidRange on inverted bounds.
func (e *Engine) ComputeKPIs(ctx context.Context, r DateRange) (*models.KPIs, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	sessions, err := e.sessions.QuerySessions(ctx, r)
	if err != nil {
		return nil, err
	}
	active, err := e.activeSessions(ctx)
	if err != nil {
		return nil, err
	}

	kpis := kpisFromSessions(sessions, len(active))
	return &kpis, nil
}

// kpisFromSessions is the pure aggregation over one session snapshot.
// AbandonmentRate is the exact complement of ConversionRate, not an
// independent measurement.
func kpisFromSessions(sessions []models.Session, activeUsers int) models.KPIs {
	var conversions int
	var amountSum float64
	for _, s := range sessions {
		if s.Converted {
			conversions++
			amountSum += s.ConversionAmount
		}
	}

	var rate float64
	if len(sessions) > 0 {
		rate = round2(float64(conversions) / float64(len(sessions)) * 100)
	}

	var avgAmount float64
	if conversions > 0 {
		avgAmount = amountSum / float64(conversions)
	}

	return models.KPIs{
		TotalLeads:       len(sessions),
		TotalConversions: conversions,
		ConversionRate:   rate,
		AbandonmentRate:  round2(100 - rate),
		AvgPenaltyAmount: avgAmount,
		ActiveUsers:      activeUsers,
	}
}
