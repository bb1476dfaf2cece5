package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"funneltrack/api/events"
	"funneltrack/api/models"
	"funneltrack/api/store"
)

// trackTimeout bounds each ingestion round trip to the stores.
const trackTimeout = 10 * time.Second

// TrackHandlers exposes the public collector endpoints: session creation,
// event ingestion, and heartbeats.
type TrackHandlers struct {
	Sessions  *store.SessionStore
	Processor *events.Processor
}

func NewTrackHandlers(sessions *store.SessionStore, processor *events.Processor) *TrackHandlers {
	return &TrackHandlers{Sessions: sessions, Processor: processor}
}

// CreateSession opens a visitor session and returns its opaque token.
func (h *TrackHandlers) CreateSession(c *gin.Context) {
	var req models.NewSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	now := time.Now().UTC()
	sess := models.Session{
		SessionID:    uuid.New().String(),
		CreatedAt:    now,
		LastActivity: now,
		DeviceInfo:   req.DeviceInfo,
		UserAgent:    c.Request.UserAgent(),
		DeviceType:   models.NormalizeDeviceType(req.DeviceInfo),
		UTMSource:    req.UTMSource,
		UTMMedium:    req.UTMMedium,
		UTMCampaign:  req.UTMCampaign,
		Referrer:     req.Referrer,
		Country:      req.Country,
		CountryCode:  req.CountryCode,
		IPAddress:    c.ClientIP(),
	}
	if sess.UTMSource == "" {
		sess.UTMSource = models.DefaultTrafficSource
	}
	if sess.Country == "" {
		sess.Country = models.DefaultCountry
	}
	if sess.CountryCode == "" {
		sess.CountryCode = models.DefaultCountryCode
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), trackTimeout)
	defer cancel()

	if err := h.Sessions.CreateSession(ctx, sess); err != nil {
		logrus.WithError(err).Error("creating session")
		c.JSON(statusFor(err), gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session_id": sess.SessionID})
}

// TrackEvent appends one event for an existing session. Unknown sessions are
// rejected and nothing is written.
func (h *TrackHandlers) TrackEvent(c *gin.Context) {
	var req models.TrackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), trackTimeout)
	defer cancel()

	ev, err := h.Processor.ProcessEvent(ctx, req.SessionID, models.EventType(req.EventType), req.EventData)
	if err != nil {
		logErr(err, "tracking event")
		c.JSON(statusFor(err), gin.H{"error": errorMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"event_id": ev.EventID})
}

// Heartbeat bumps a session's last activity so the active-user gauge stays
// fresh between tracked events.
func (h *TrackHandlers) Heartbeat(c *gin.Context) {
	var req models.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), trackTimeout)
	defer cancel()

	if err := h.Processor.Heartbeat(ctx, req.SessionID); err != nil {
		logErr(err, "heartbeat")
		c.JSON(statusFor(err), gin.H{"error": errorMessage(err)})
		return
	}

	c.Status(http.StatusOK)
}
