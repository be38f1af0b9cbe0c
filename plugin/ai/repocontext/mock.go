package repocontext

import (
	"context"
	"sync"

	"github.com/hrygo/feeta/plugin/github"
)

// MockRepoCollaborator is a scripted RepoCollaborator for testing.
type MockRepoCollaborator struct {
	mu sync.Mutex

	// Trees maps a ref to its file list; a ref missing from the map fails.
	Trees map[string][]string
	// Readme is returned by ReadReadme unless ReadmeErr is set.
	Readme    string
	ReadmeErr error
	// Hits maps a keyword to its search results; SearchErrs fails a keyword.
	Hits       map[string][]github.CodeHit
	SearchErrs map[string]error

	refs     []string
	keywords []string
}

// NewMockRepoCollaborator creates an empty MockRepoCollaborator.
func NewMockRepoCollaborator() *MockRepoCollaborator {
	return &MockRepoCollaborator{
		Trees:      map[string][]string{},
		Hits:       map[string][]github.CodeHit{},
		SearchErrs: map[string]error{},
	}
}

func (m *MockRepoCollaborator) ListFiles(_ context.Context, _, _, ref, _ string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs = append(m.refs, ref)
	files, ok := m.Trees[ref]
	if !ok {
		return nil, &github.StatusError{Op: "list files", StatusCode: 404}
	}
	return files, nil
}

func (m *MockRepoCollaborator) ReadReadme(_ context.Context, _, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadmeErr != nil {
		return "", m.ReadmeErr
	}
	return m.Readme, nil
}

func (m *MockRepoCollaborator) SearchCode(_ context.Context, _, _, keyword, _ string) ([]github.CodeHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywords = append(m.keywords, keyword)
	if err := m.SearchErrs[keyword]; err != nil {
		return nil, err
	}
	return m.Hits[keyword], nil
}

// Refs returns the refs passed to ListFiles in call order.
func (m *MockRepoCollaborator) Refs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.refs...)
}

// SearchedKeywords returns the keywords passed to SearchCode.
func (m *MockRepoCollaborator) SearchedKeywords() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keywords...)
}

var _ RepoCollaborator = (*MockRepoCollaborator)(nil)
