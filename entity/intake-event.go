package entity

import "time"

// Intake event types broadcast to dashboard clients.
const (
	EventSessionStarted = "session_started"
	EventStageAdvanced  = "stage_advanced"
	EventQuoteCompleted = "quote_completed"
	EventSessionFailed  = "session_failed"
)

// IntakeEvent describes a lifecycle change of an intake conversation.
type IntakeEvent struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversation_id"`
	Stage          string    `json:"stage,omitempty"`
	TrackingCode   string    `json:"tracking_code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
