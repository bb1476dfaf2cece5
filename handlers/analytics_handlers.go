package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"funneltrack/api/analytics"
	"funneltrack/api/store"
)

// queryTimeout bounds each aggregate read against the stores.
const queryTimeout = 15 * time.Second

// AnalyticsHandlers exposes the protected dashboard reads. Every response is
// recomputed from store contents; nothing is cached between requests.
type AnalyticsHandlers struct {
	Engine   *analytics.Engine
	Sessions *store.SessionStore
	Events   *store.EventStore
}

func NewAnalyticsHandlers(engine *analytics.Engine, sessions *store.SessionStore, events *store.EventStore) *AnalyticsHandlers {
	return &AnalyticsHandlers{Engine: engine, Sessions: sessions, Events: events}
}

// dateRange reads the inclusive start_date/end_date query parameters. On
// failure it writes the 400 response and reports false.
func dateRange(c *gin.Context) (analytics.DateRange, bool) {
	r, err := analytics.ParseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorMessage(err)})
		return analytics.DateRange{}, false
	}
	return r, true
}

func (h *AnalyticsHandlers) GetKPIs(c *gin.Context) {
	r, ok := dateRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	kpis, err := h.Engine.ComputeKPIs(ctx, r)
	if err != nil {
		logErr(err, "computing KPIs")
		c.JSON(statusFor(err), gin.H{"error": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, kpis)
}

func (h *AnalyticsHandlers) GetGeo(c *gin.Context) {
	r, ok := dateRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	geo, err := h.Engine.ComputeGeoBreakdown(ctx, r)
	if err != nil {
		logErr(err, "computing geo breakdown")
		c.JSON(statusFor(err), gin.H{"error": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, geo)
}

func (h *AnalyticsHandlers) GetDevices(c *gin.Context) {
	r, ok := dateRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	devices, err := h.Engine.ComputeDeviceBreakdown(ctx, r)
	if err != nil {
		logErr(err, "computing device breakdown")
		c.JSON(statusFor(err), gin.H{"error": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, devices)
}

func (h *AnalyticsHandlers) GetChannels(c *gin.Context) {
	r, ok := dateRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	channels, err := h.Engine.ComputeChannelBreakdown(ctx, r)
	if err != nil {
		logErr(err, "computing channel breakdown")
		c.JSON(statusFor(err), gin.H{"error": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, channels)
}

func (h *AnalyticsHandlers) GetFunnel(c *gin.Context) {
	r, ok := dateRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	funnel, err := h.Engine.ComputeFunnel(ctx, r)
	if err != nil {
		logErr(err, "computing funnel")
		c.JSON(statusFor(err), gin.H{"error": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, funnel)
}

func (h *AnalyticsHandlers) GetQuestions(c *gin.Context) {
	r, ok := dateRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	dropoff, killer, err := h.Engine.ComputeQuestionDropoff(ctx, r)
	if err != nil {
		logErr(err, "computing question dropoff")
		c.JSON(statusFor(err), gin.H{"error": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"question_dropoff": dropoff,
		"killer_question":  killer,
	})
}

func (h *AnalyticsHandlers) GetDashboard(c *gin.Context) {
	r, ok := dateRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	dashboard, err := h.Engine.ComposeDashboard(ctx, r)
	if err != nil {
		logErr(err, "composing dashboard")
		c.JSON(statusFor(err), gin.H{"error": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GetHealth pings both stores and reports today's session volume.
func (h *AnalyticsHandlers) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	status := "healthy"
	if err := h.Sessions.Ping(ctx); err != nil {
		logErr(err, "session store ping")
		status = "degraded"
	}
	if err := h.Events.Ping(ctx); err != nil {
		logErr(err, "event store ping")
		status = "degraded"
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	sessionsToday, err := h.Sessions.CountSessionsCreatedSince(ctx, midnight)
	if err != nil {
		logErr(err, "counting sessions today")
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         status,
		"sessions_today": sessionsToday,
		"timestamp":      now,
	})
}
