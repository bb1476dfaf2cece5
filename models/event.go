package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType labels a tracked event. The vocabulary is free-form, but the
// funnel steps, the conversion marker, and the per-question view/answer pairs
// below carry engine semantics.
type EventType string

const (
	EventFormStart          EventType = "form_start"
	EventFormSubmit         EventType = "form_submit"
	EventQuestionnaireStart EventType = "questionnaire_start"
	EventConfirmationViewed EventType = "confirmation_page_viewed"

	// EventConversion is the terminal, value-bearing event. Its payload may
	// carry an "amount" field with the conversion value.
	EventConversion EventType = "conversion"
)

// FunnelSteps is the fixed, ordered four-step funnel shown on the dashboard.
var FunnelSteps = []EventType{
	EventFormStart,
	EventFormSubmit,
	EventQuestionnaireStart,
	EventConfirmationViewed,
}

// QuestionID identifies one questionnaire question by its 1-based ordinal.
type QuestionID int

// QuestionCount is the size of the fixed questionnaire.
const QuestionCount = 20

// Questions enumerates every question in ordinal order. The enumeration order
// is the tie-break order for killer-question selection.
func Questions() []QuestionID {
	ids := make([]QuestionID, QuestionCount)
	for i := range ids {
		ids[i] = QuestionID(i + 1)
	}
	return ids
}

// String returns the wire label of the question, e.g. "q7".
func (q QuestionID) String() string { return fmt.Sprintf("q%d", int(q)) }

// ViewedEvent is the event type recorded when the question is shown.
func (q QuestionID) ViewedEvent() EventType {
	return EventType("question_viewed_" + q.String())
}

// AnsweredEvent is the event type recorded when the question is answered.
func (q QuestionID) AnsweredEvent() EventType {
	return EventType("question_answered_" + q.String())
}

// Event is a timestamped fact tied to exactly one session. Events are
// append-only; nothing in the engine mutates or deletes them.
type Event struct {
	EventID   string          `json:"event_id"`
	SessionID string          `json:"session_id"`
	EventType EventType       `json:"event_type"`
	EventData json.RawMessage `json:"event_data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// TrackEventRequest is the tracking payload that appends an event.
type TrackEventRequest struct {
	SessionID string          `json:"session_id" binding:"required"`
	EventType string          `json:"event_type" binding:"required"`
	EventData json.RawMessage `json:"event_data"`
}

// HeartbeatRequest keeps a session's activity fresh without recording a fact.
type HeartbeatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}
