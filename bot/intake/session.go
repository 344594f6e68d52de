package intake

import (
	"time"

	"MudaBot/entity"
)

// Session is one in-progress intake conversation.
type Session struct {
	ConversationID string           `json:"conversation_id"`
	Stage          Stage            `json:"stage"`
	Facts          entity.TripFacts `json:"facts"`
	Processing     bool             `json:"processing"`
	LastPromptAt   time.Time        `json:"last_prompt_at"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NewSession creates a session positioned at the first dialogue stage.
func NewSession(conversationID string) *Session {
	return &Session{
		ConversationID: conversationID,
		Stage:          StageOrigin,
		CreatedAt:      time.Now(),
	}
}
