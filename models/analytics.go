package models

import "time"

// KPIs is the headline snapshot for a date range. It is derived, never stored:
// a pure function of the range and the store contents at query time.
//
// AbandonmentRate is defined as 100 - ConversionRate. It is the complement of
// conversion, not an independently measured non-completion rate.
type KPIs struct {
	TotalLeads       int     `json:"total_leads"`
	TotalConversions int     `json:"total_conversions"`
	ConversionRate   float64 `json:"conversion_rate"`
	AbandonmentRate  float64 `json:"abandonment_rate"`
	AvgPenaltyAmount float64 `json:"avg_penalty_amount"`

	// ActiveUsers counts sessions with activity in the trailing five minutes
	// from evaluation time, regardless of the requested range.
	ActiveUsers int `json:"active_users"`
}

// CountryStat is one row of the geographic breakdown.
type CountryStat struct {
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Total       int    `json:"total"`
	Conversions int    `json:"conversions"`
}

// GeoBreakdown groups sessions in range by country, ranked by total descending.
type GeoBreakdown struct {
	Countries       []CountryStat  `json:"countries"`
	ActiveByCountry map[string]int `json:"active_by_country"`
	TotalCountries  int            `json:"total_countries"`
}

// DeviceStat is one row of the device breakdown. Percentage is the share of
// all sessions in range, rounded to one decimal.
type DeviceStat struct {
	DeviceType DeviceType `json:"device_type"`
	Total      int        `json:"total"`
	Conversions int       `json:"conversions"`
	Percentage float64    `json:"percentage"`
}

// DeviceBreakdown groups sessions in range by device type.
type DeviceBreakdown struct {
	Devices       []DeviceStat `json:"devices"`
	TotalSessions int          `json:"total_sessions"`
}

// ChannelStat is one row of the traffic-source breakdown.
type ChannelStat struct {
	Source         string  `json:"source"`
	Total          int     `json:"total"`
	Conversions    int     `json:"conversions"`
	Percentage     float64 `json:"percentage"`
	ConversionRate float64 `json:"conversion_rate"`
}

// ChannelBreakdown groups sessions in range by traffic source.
type ChannelBreakdown struct {
	Channels      []ChannelStat `json:"channels"`
	TotalSessions int           `json:"total_sessions"`
}

// FunnelStep is the distinct-session count for one ordered funnel stage.
type FunnelStep struct {
	Step  EventType `json:"step"`
	Count int       `json:"count"`
}

// FunnelCounts holds per-step distinct-session counts for the configured
// funnel. Steps are counted independently; the series can be non-monotonic
// when visitor behavior is inconsistent, and that is surfaced as-is.
type FunnelCounts struct {
	Steps []FunnelStep `json:"steps"`
}

// QuestionDropoff reports view/answer counts for one question. Questions with
// zero views are omitted from results entirely.
type QuestionDropoff struct {
	Viewed      int     `json:"viewed"`
	Answered    int     `json:"answered"`
	DropoffRate float64 `json:"dropoff_rate"`
}

// KillerQuestion is the question with the worst dropoff rate in range.
type KillerQuestion struct {
	QuestionID  string  `json:"question_id"`
	DropoffRate float64 `json:"dropoff_rate"`
	Viewed      int     `json:"viewed"`
	Abandoned   int     `json:"abandoned"`
}

// DailyTraffic is one calendar day of the dashboard time series.
type DailyTraffic struct {
	Date        string  `json:"date"`
	Visits      int     `json:"visits"`
	Completions int     `json:"completions"`
	TotalAmount float64 `json:"total_amount"`
}

// Dashboard is the composed snapshot for a date range. All panels are
// computed from a single pair of store reads so they reflect one read point.
type Dashboard struct {
	KPIs            KPIs                       `json:"kpis"`
	Funnel          FunnelCounts               `json:"funnel"`
	StepDropoff     map[string]float64         `json:"step_dropoff"`
	QuestionDropoff map[string]QuestionDropoff `json:"question_dropoff"`
	KillerQuestion  *KillerQuestion            `json:"killer_question"`
	DailyTraffic    []DailyTraffic             `json:"daily_traffic"`
	GeneratedAt     time.Time                  `json:"generated_at"`
}

// HealthStatus reports collaborator reachability and today's session volume.
type HealthStatus struct {
	Status        string    `json:"status"`
	SessionsToday int       `json:"sessions_today"`
	Timestamp     time.Time `json:"timestamp"`
}
