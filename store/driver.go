package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// RepoContext model related methods.
	// UpsertRepoContext inserts with access_count 1, or overwrites the context and
	// increments access_count when the full name already exists.
	UpsertRepoContext(ctx context.Context, upsert *UpsertRepoContext) (*RepoContext, error)
	// GetRepoContext increments access_count of the matching row and returns it.
	// Returns nil, nil when absent.
	GetRepoContext(ctx context.Context, find *FindRepoContext) (*RepoContext, error)

	// Conversation history related methods.
	// CreateConversationEntry creates the session row on first write, then appends the entry.
	CreateConversationEntry(ctx context.Context, create *ConversationEntry) (*ConversationEntry, error)
	ListConversationEntries(ctx context.Context, find *FindConversationEntry) ([]*ConversationEntry, error)
}
