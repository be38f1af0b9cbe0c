package store

import (
	"context"

	"github.com/hrygo/feeta/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) UpsertRepoContext(ctx context.Context, upsert *UpsertRepoContext) (*RepoContext, error) {
	return s.driver.UpsertRepoContext(ctx, upsert)
}

func (s *Store) GetRepoContext(ctx context.Context, find *FindRepoContext) (*RepoContext, error) {
	return s.driver.GetRepoContext(ctx, find)
}

func (s *Store) CreateConversationEntry(ctx context.Context, create *ConversationEntry) (*ConversationEntry, error) {
	return s.driver.CreateConversationEntry(ctx, create)
}

func (s *Store) ListConversationEntries(ctx context.Context, find *FindConversationEntry) ([]*ConversationEntry, error) {
	return s.driver.ListConversationEntries(ctx, find)
}
