package analytics

import (
	"context"

	"funneltrack/api/models"
)

// ComposeDashboard combines the KPI snapshot, the fixed funnel, question
// dropoff with the killer question, and the per-day traffic series into one
// response. Every panel is derived from a single session scan and a single
// event scan, so the composed snapshot reflects one consistent read point
// even under concurrent writes.
func (e *Engine) ComposeDashboard(ctx context.Context, r DateRange) (*models.Dashboard, error) {
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

	types := append(append([]models.EventType{}, e.steps...), questionEventTypes(e.questions)...)
	evts, err := e.events.QueryEvents(ctx, r, types)
	if err != nil {
		return nil, err
	}

	funnel := funnelFromEvents(e.steps, evts)
	dropoff, killer := questionDropoffFromEvents(e.questions, evts)

	return &models.Dashboard{
		KPIs:            kpisFromSessions(sessions, len(active)),
		Funnel:          funnel,
		StepDropoff:     stepDropoff(funnel),
		QuestionDropoff: dropoff,
		KillerQuestion:  killer,
		DailyTraffic:    dailyTrafficFromSessions(r, sessions),
		GeneratedAt:     e.now().UTC(),
	}, nil
}

// dailyTrafficFromSessions buckets sessions by creation day: visit count,
// completion count, and summed conversion value per calendar day in range.
func dailyTrafficFromSessions(r DateRange, sessions []models.Session) []models.DailyTraffic {
	type dayStat struct {
		visits      int
		completions int
		amount      float64
	}
	byDay := make(map[string]*dayStat)
	for _, s := range sessions {
		day := s.CreatedAt.UTC().Format(dateLayout)
		st, ok := byDay[day]
		if !ok {
			st = &dayStat{}
			byDay[day] = st
		}
		st.visits++
		if s.Converted {
			st.completions++
			st.amount += s.ConversionAmount
		}
	}

	days := r.Days()
	out := make([]models.DailyTraffic, 0, len(days))
	for _, day := range days {
		entry := models.DailyTraffic{Date: day}
		if st, ok := byDay[day]; ok {
			entry.Visits = st.visits
			entry.Completions = st.completions
			entry.TotalAmount = st.amount
		}
		out = append(out, entry)
	}
	return out
}
