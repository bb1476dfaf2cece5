package analytics

import (
	"context"

	"funneltrack/api/models"
)

// ComputeFunnel counts the distinct sessions reaching each configured step
// within the range. Steps are evaluated independently: nothing forces a
// session counted at step N to appear at step N-1, so the series may be
// non-monotonic when underlying behavior is inconsistent.
func (e *Engine) ComputeFunnel(ctx context.Context, r DateRange) (*models.FunnelCounts, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	evts, err := e.events.QueryEvents(ctx, r, e.steps)
	if err != nil {
		return nil, err
	}
	counts := funnelFromEvents(e.steps, evts)
	return &counts, nil
}

func funnelFromEvents(steps []models.EventType, evts []models.Event) models.FunnelCounts {
	seen := make(map[models.EventType]map[string]struct{}, len(steps))
	for _, step := range steps {
		seen[step] = make(map[string]struct{})
	}
	for _, ev := range evts {
		if sessions, ok := seen[ev.EventType]; ok {
			sessions[ev.SessionID] = struct{}{}
		}
	}

	out := models.FunnelCounts{Steps: make([]models.FunnelStep, 0, len(steps))}
	for _, step := range steps {
		out.Steps = append(out.Steps, models.FunnelStep{
			Step:  step,
			Count: len(seen[step]),
		})
	}
	return out
}

// stepDropoff derives the percentage lost between consecutive steps, keyed by
// the later step. A step whose predecessor saw no sessions is skipped.
func stepDropoff(counts models.FunnelCounts) map[string]float64 {
	out := make(map[string]float64)
	for i := 1; i < len(counts.Steps); i++ {
		prev := counts.Steps[i-1].Count
		if prev == 0 {
			continue
		}
		cur := counts.Steps[i]
		out[string(cur.Step)] = round1(float64(prev-cur.Count) / float64(prev) * 100)
	}
	return out
}

// ComputeQuestionDropoff counts viewed and answered events per question in
// range and selects the killer question: the highest dropoff rate among
// questions with at least one view, ties broken by the lowest ordinal.
// Questions with zero views are omitted. A nil killer means no question had
// views in range.
func (e *Engine) ComputeQuestionDropoff(ctx context.Context, r DateRange) (map[string]models.QuestionDropoff, *models.KillerQuestion, error) {
	if err := r.Validate(); err != nil {
		return nil, nil, err
	}

	evts, err := e.events.QueryEvents(ctx, r, questionEventTypes(e.questions))
	if err != nil {
		return nil, nil, err
	}
	dropoff, killer := questionDropoffFromEvents(e.questions, evts)
	return dropoff, killer, nil
}

func questionEventTypes(questions []models.QuestionID) []models.EventType {
	types := make([]models.EventType, 0, 2*len(questions))
	for _, q := range questions {
		types = append(types, q.ViewedEvent(), q.AnsweredEvent())
	}
	return types
}

func questionDropoffFromEvents(questions []models.QuestionID, evts []models.Event) (map[string]models.QuestionDropoff, *models.KillerQuestion) {
	byType := make(map[models.EventType]int)
	for _, ev := range evts {
		byType[ev.EventType]++
	}

	dropoff := make(map[string]models.QuestionDropoff)
	var killer *models.KillerQuestion
	for _, q := range questions {
		viewed := byType[q.ViewedEvent()]
		if viewed == 0 {
			continue
		}
		answered := byType[q.AnsweredEvent()]
		rate := round1(float64(viewed-answered) / float64(viewed) * 100)
		dropoff[q.String()] = models.QuestionDropoff{
			Viewed:      viewed,
			Answered:    answered,
			DropoffRate: rate,
		}

		// Strictly greater keeps the lowest ordinal on ties; questions
		// iterate in enumeration order.
		if killer == nil || rate > killer.DropoffRate {
			killer = &models.KillerQuestion{
				QuestionID:  q.String(),
				DropoffRate: rate,
				Viewed:      viewed,
				Abandoned:   viewed - answered,
			}
		}
	}
	return dropoff, killer
}
