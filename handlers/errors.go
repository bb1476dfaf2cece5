package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"funneltrack/api/models"
)

// statusFor maps the engine's error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage keeps machine-readable condition names on the wire without
// leaking store internals.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidRange):
		return "invalid date range"
	case errors.Is(err, models.ErrUnknownSession):
		return "unknown session"
	case errors.Is(err, models.ErrStoreUnavailable):
		return "store unavailable"
	default:
		return "internal error"
	}
}

// logErr records failures at a severity matching who caused them: caller
// mistakes log as warnings, everything else as errors.
func logErr(err error, msg string) {
	if errors.Is(err, models.ErrInvalidRange) || errors.Is(err, models.ErrUnknownSession) {
		logrus.WithError(err).Warn(msg)
		return
	}
	logrus.WithError(err).Error(msg)
}
