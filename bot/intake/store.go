package intake

import "context"

// SessionStore keeps in-flight intake sessions keyed by conversation ID.
// Implementations must be safe for concurrent use across conversations;
// within one conversation the processor serializes access.
type SessionStore interface {
	// Create registers a fresh session at the first stage. An existing
	// session for the same conversation is silently overwritten; the
	// dispatch logic never creates over a live session.
	Create(ctx context.Context, conversationID string) (*Session, error)

	// Get returns a copy of the session, or nil when absent.
	Get(ctx context.Context, conversationID string) (*Session, error)

	// Update writes the session back.
	Update(ctx context.Context, sess *Session) error

	// Remove deletes the session. Removing an absent session is not an error.
	Remove(ctx context.Context, conversationID string) error

	// MarkProcessing flips the re-entrancy guard. No-op when the session
	// is absent (the turn may have finalized meanwhile).
	MarkProcessing(ctx context.Context, conversationID string, busy bool) error

	// MarkPromptSent records the time of the latest outbound prompt.
	// No-op when the session is absent.
	MarkPromptSent(ctx context.Context, conversationID string) error
}
