package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/feeta/plugin/ai/cache"
	"github.com/hrygo/feeta/store"
)

const (
	cachePrefix = "session:"
	// DefaultTTL bounds how long an idle session is kept.
	DefaultTTL = 24 * time.Hour
)

// sessionStore implements SessionService with sessions in a bounded cache and
// history in the durable store.
type sessionStore struct {
	cache   cache.CacheService
	history HistoryStore
	ttl     time.Duration
	now     func() time.Time

	// lastTs keeps appended timestamps strictly increasing within the process.
	mu     sync.Mutex
	lastTs int64
}

// NewSessionStore creates a session store. ttl <= 0 uses DefaultTTL.
func NewSessionStore(cache cache.CacheService, history HistoryStore, ttl time.Duration) SessionService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &sessionStore{
		cache:   cache,
		history: history,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *sessionStore) PutSession(ctx context.Context, id, task string, classification *store.Classification) error {
	sess := &Session{
		ID:             id,
		Task:           task,
		Classification: classification,
		CreatedAt:      s.now().Unix(),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := cachePrefix + id
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		return fmt.Errorf("failed to store session %s: %w", id, err)
	}
	return nil
}

func (s *sessionStore) GetSession(ctx context.Context, id string) (*Session, error) {
	key := cachePrefix + id
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		slog.Warn("failed to unmarshal cached session", "key", key, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *sessionStore) AppendHistory(ctx context.Context, id, prompt string, analysis *store.Classification, plan *store.Plan) error {
	_, err := s.history.CreateConversationEntry(ctx, &store.ConversationEntry{
		UID:       shortuuid.New(),
		SessionID: id,
		Prompt:    prompt,
		Analysis:  analysis,
		Plan:      plan,
		CreatedTs: s.nextTimestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to append history for session %s: %w", id, err)
	}
	return nil
}

func (s *sessionStore) GetHistory(ctx context.Context, id string) ([]*store.ConversationEntry, error) {
	entries, err := s.history.ListConversationEntries(ctx, &store.FindConversationEntry{SessionID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to get history for session %s: %w", id, err)
	}
	if entries == nil {
		entries = []*store.ConversationEntry{}
	}
	return entries, nil
}

func (s *sessionStore) nextTimestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UnixMilli()
	if ts <= s.lastTs {
		ts = s.lastTs + 1
	}
	s.lastTs = ts
	return ts
}

// Ensure sessionStore implements SessionService
var _ SessionService = (*sessionStore)(nil)
