// Package session keeps per-session classification state and the durable
// conversation history that links a classification call to a later plan call.
//
// Consistency contract: PutSession overwrites the whole session (last write
// wins). Concurrent writers for the same session id are not serialized; a
// session id is expected to be driven by one caller at a time.
package session

import (
	"context"

	"github.com/hrygo/feeta/store"
)

// SessionService defines the session store interface.
type SessionService interface {
	// PutSession replaces the stored task and classification for id.
	PutSession(ctx context.Context, id, task string, classification *store.Classification) error

	// GetSession returns the session, or nil, nil when absent or expired.
	GetSession(ctx context.Context, id string) (*Session, error)

	// AppendHistory appends one durable entry. analysis and plan may be nil.
	AppendHistory(ctx context.Context, id, prompt string, analysis *store.Classification, plan *store.Plan) error

	// GetHistory returns entries in append order, [] if none.
	GetHistory(ctx context.Context, id string) ([]*store.ConversationEntry, error)
}

// Session is the last classification made under a session id.
type Session struct {
	ID             string                `json:"session_id"`
	Task           string                `json:"task"`
	Classification *store.Classification `json:"classification"`
	CreatedAt      int64                 `json:"created_at"`
}

// HistoryStore is the durable log the session service appends to.
// *store.Store satisfies it.
type HistoryStore interface {
	CreateConversationEntry(ctx context.Context, create *store.ConversationEntry) (*store.ConversationEntry, error)
	ListConversationEntries(ctx context.Context, find *store.FindConversationEntry) ([]*store.ConversationEntry, error)
}
