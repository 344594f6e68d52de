package intake

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"MudaBot/internal/lib/sl"
)

// MemoryStore is the default in-process session store. Sessions of
// abandoned conversations are evicted by Sweep so the map stays bounded on
// long-running deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	idleTTL  time.Duration
	log      *slog.Logger
}

func NewMemoryStore(idleTTL time.Duration, log *slog.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		idleTTL:  idleTTL,
		log:      log.With(sl.Module("intake.memstore")),
	}
}

func (s *MemoryStore) Create(ctx context.Context, conversationID string) (*Session, error) {
	sess := NewSession(conversationID)

	s.mu.Lock()
	s.sessions[conversationID] = sess
	s.mu.Unlock()

	copied := *sess
	return &copied, nil
}

func (s *MemoryStore) Get(ctx context.Context, conversationID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[conversationID]
	if !ok {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

func (s *MemoryStore) Update(ctx context.Context, sess *Session) error {
	copied := *sess

	s.mu.Lock()
	s.sessions[sess.ConversationID] = &copied
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	delete(s.sessions, conversationID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) MarkProcessing(ctx context.Context, conversationID string, busy bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[conversationID]; ok {
		sess.Processing = busy
	}
	return nil
}

func (s *MemoryStore) MarkPromptSent(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[conversationID]; ok {
		sess.LastPromptAt = time.Now()
	}
	return nil
}

// Sweep evicts sessions idle longer than the store's TTL. Run in a
// goroutine; returns when ctx is done.
func (s *MemoryStore) Sweep(ctx context.Context, every time.Duration) {
	if s.idleTTL <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweepOnce(time.Now()); n > 0 {
				s.log.Info("evicted abandoned sessions", slog.Int("count", n))
			}
		}
	}
}

func (s *MemoryStore) sweepOnce(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		lastActivity := sess.LastPromptAt
		if lastActivity.IsZero() {
			lastActivity = sess.CreatedAt
		}
		if now.Sub(lastActivity) > s.idleTTL {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
