package intake

import (
	"context"

	"MudaBot/entity"
)

// Button is a single choice in a button message.
type Button struct {
	ID    string
	Title string
}

// ListRow is a single row in a list message section.
type ListRow struct {
	ID          string
	Title       string
	Description string
}

// ListSection groups rows in a list message.
type ListSection struct {
	Title string
	Rows  []ListRow
}

// Messenger is the outbound channel adapter. Sends are fire-and-forget from
// the processor's point of view: no delivery receipt is awaited.
type Messenger interface {
	SendText(conversationID, text string) error
	SendButtons(conversationID, prompt string, buttons []Button) error
	SendList(conversationID, prompt, buttonLabel string, sections []ListSection) error
}

// Estimator computes a price range for the collected trip facts.
type Estimator interface {
	Estimate(ctx context.Context, facts entity.TripFacts) (*entity.Estimate, error)
}

// QuoteSaver persists a completed quote and notifies matching companies.
type QuoteSaver interface {
	Save(ctx context.Context, facts entity.TripFacts, estimate entity.Estimate) (*entity.QuoteResult, error)
}

// EventListener observes intake lifecycle events. Used by the dashboard
// WebSocket hub; nil listeners are allowed.
type EventListener interface {
	OnIntakeEvent(ev entity.IntakeEvent)
}
