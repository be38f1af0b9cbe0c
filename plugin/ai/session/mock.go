package session

import (
	"context"
	"sync"
	"time"

	"github.com/hrygo/feeta/store"
)

// MockSessionService is an in-memory SessionService for tests.
// Setting PutErr or AppendErr makes the matching call fail.
type MockSessionService struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	history  map[string][]*store.ConversationEntry

	PutErr    error
	AppendErr error
}

// NewMockSessionService creates an empty MockSessionService.
func NewMockSessionService() *MockSessionService {
	return &MockSessionService{
		sessions: make(map[string]*Session),
		history:  make(map[string][]*store.ConversationEntry),
	}
}

func (m *MockSessionService) PutSession(_ context.Context, id, task string, classification *store.Classification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	m.sessions[id] = &Session{ID: id, Task: task, Classification: classification, CreatedAt: time.Now().Unix()}
	return nil
}

func (m *MockSessionService) GetSession(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

func (m *MockSessionService) AppendHistory(_ context.Context, id, prompt string, analysis *store.Classification, plan *store.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.history[id] = append(m.history[id], &store.ConversationEntry{
		SessionID: id,
		Prompt:    prompt,
		Analysis:  analysis,
		Plan:      plan,
		CreatedTs: time.Now().UnixMilli(),
	})
	return nil
}

func (m *MockSessionService) GetHistory(_ context.Context, id string) ([]*store.ConversationEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]*store.ConversationEntry, len(m.history[id]))
	copy(entries, m.history[id])
	return entries, nil
}

var _ SessionService = (*MockSessionService)(nil)
