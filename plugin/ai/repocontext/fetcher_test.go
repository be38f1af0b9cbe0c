package repocontext

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/feeta/plugin/ai"
	"github.com/hrygo/feeta/plugin/ai/extract"
	"github.com/hrygo/feeta/plugin/ai/metrics"
	"github.com/hrygo/feeta/plugin/github"
	"github.com/hrygo/feeta/store"
	storetest "github.com/hrygo/feeta/store/test"
)

const analysisJSON = `Here is the analysis:
{
  "project_summary": "A todo service",
  "tech_stack": {"language": "Go", "framework_backend": "echo", "framework_frontend": "", "database": "sqlite", "key_libraries": ["cobra"]},
  "architecture_overview": "Monolith",
  "key_modules": [{"module_name": "api", "description": "HTTP layer", "relevant_files": ["server/api.go"]}]
}`

func newTestFetcher(t *testing.T, repos RepoCollaborator, model ai.GenerativeModel) (*Fetcher, *store.Store, *metrics.MockMetricsService) {
	t.Helper()
	ts := storetest.NewTestingStore(context.Background(), t)
	m := metrics.NewMockMetricsService()
	return NewFetcher(repos, model, ts, m, Config{}), ts, m
}

func TestGetDeepContext_CacheHit(t *testing.T) {
	ctx := context.Background()
	repos := NewMockRepoCollaborator()
	repos.Trees["main"] = []string{"main.go", "server/api.go"}
	repos.Readme = "# Todo"
	model := ai.NewMockModel(analysisJSON)
	f, ts, _ := newTestFetcher(t, repos, model)

	first, err := f.GetDeepContext(ctx, "acme", "todo", "token")
	require.NoError(t, err)
	assert.Equal(t, "A todo service", first.ProjectSummary)
	assert.Equal(t, "Go", first.TechStack.Language)

	second, err := f.GetDeepContext(ctx, "acme", "todo", "token")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, model.CallCount())

	opts := model.Calls()[0].Opts
	assert.InDelta(t, 0.1, opts.Temperature, 1e-6)
	assert.Equal(t, 4096, opts.MaxOutputTokens)

	// Two GetDeepContext calls, then this read.
	row, err := ts.GetRepoContext(ctx, &store.FindRepoContext{FullName: "acme/todo"})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.EqualValues(t, 3, row.AccessCount)
	assert.Equal(t, "Go", row.Language)
	assert.Equal(t, 2, row.Metadata.FileCount)
	assert.True(t, row.Metadata.HasReadme)
}

func TestGetDeepContext_AccessCountPerCall(t *testing.T) {
	ctx := context.Background()
	repos := NewMockRepoCollaborator()
	repos.Trees["main"] = []string{"a.go"}
	f, ts, _ := newTestFetcher(t, repos, ai.NewMockModel(analysisJSON))

	for i := 1; i <= 3; i++ {
		_, err := f.GetDeepContext(ctx, "acme", "todo", "")
		require.NoError(t, err)
	}
	row, err := ts.GetRepoContext(ctx, &store.FindRepoContext{FullName: "acme/todo"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, row.AccessCount)
}

func TestGetDeepContext_ConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	repos := NewMockRepoCollaborator()
	repos.Trees["main"] = []string{"a.go"}
	model := &ai.MockModel{Responder: func(string) (string, error) { return analysisJSON, nil }}
	f, ts, _ := newTestFetcher(t, repos, model)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.GetDeepContext(ctx, "acme", "todo", "")
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	row, err := ts.GetRepoContext(ctx, &store.FindRepoContext{FullName: "acme/todo"})
	require.NoError(t, err)
	assert.EqualValues(t, callers+1, row.AccessCount)
	assert.Equal(t, 1, model.CallCount())
}

// stallingStore lets the first GetRepoContext read the store, then holds it
// until released, so another caller can finish a full analysis in between.
type stallingStore struct {
	ContextStore
	calls   atomic.Int32
	missed  chan struct{}
	release chan struct{}
}

func (s *stallingStore) GetRepoContext(ctx context.Context, find *store.FindRepoContext) (*store.RepoContext, error) {
	row, err := s.ContextStore.GetRepoContext(ctx, find)
	if s.calls.Add(1) == 1 {
		close(s.missed)
		<-s.release
	}
	return row, err
}

func TestGetDeepContext_MissRacingFinishedAnalysis(t *testing.T) {
	ctx := context.Background()
	repos := NewMockRepoCollaborator()
	repos.Trees["main"] = []string{"a.go"}
	model := &ai.MockModel{Responder: func(string) (string, error) { return analysisJSON, nil }}
	ts := storetest.NewTestingStore(ctx, t)
	stalling := &stallingStore{ContextStore: ts, missed: make(chan struct{}), release: make(chan struct{})}
	f := NewFetcher(repos, model, stalling, nil, Config{})

	late := make(chan error, 1)
	go func() {
		_, err := f.GetDeepContext(ctx, "acme", "todo", "")
		late <- err
	}()
	<-stalling.missed

	first, err := f.GetDeepContext(ctx, "acme", "todo", "")
	require.NoError(t, err)
	require.Equal(t, 1, model.CallCount())

	close(stalling.release)
	require.NoError(t, <-late)
	assert.Equal(t, "A todo service", first.ProjectSummary)
	assert.Equal(t, 1, model.CallCount())

	// One upsert for the first caller, one re-read for the late caller, then this read.
	row, err := ts.GetRepoContext(ctx, &store.FindRepoContext{FullName: "acme/todo"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, row.AccessCount)
}

func TestGetDeepContext_MixedTypeAnalysis(t *testing.T) {
	ctx := context.Background()
	model := ai.NewMockModel(`{
  "project_summary": "A todo service",
  "tech_stack": {"language": "Go", "database": null, "key_libraries": "cobra"},
  "architecture_overview": "Monolith",
  "key_modules": [
    {"module_name": "api", "relevant_files": ["server/api.go", 7]},
    {"module_name": 2, "description": "unnamed", "relevant_files": null}
  ]
}`)
	f, ts, _ := newTestFetcher(t, NewMockRepoCollaborator(), model)

	pc, err := f.GetDeepContext(ctx, "acme", "mixed", "")
	require.NoError(t, err)
	assert.Equal(t, store.StringList{"cobra"}, pc.TechStack.KeyLibraries)
	require.Len(t, pc.KeyModules, 2)
	assert.Equal(t, store.StringList{"server/api.go", "7"}, pc.KeyModules[0].RelevantFiles)
	assert.Empty(t, pc.KeyModules[1].ModuleName)
	assert.Equal(t, "unnamed", pc.KeyModules[1].Description)

	row, err := ts.GetRepoContext(ctx, &store.FindRepoContext{FullName: "acme/mixed"})
	require.NoError(t, err)
	assert.Equal(t, pc, row.Context)
}

func TestGetDeepContext_BranchFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("Master", func(t *testing.T) {
		repos := NewMockRepoCollaborator()
		repos.Trees["master"] = []string{"legacy.go"}
		model := ai.NewMockModel(analysisJSON)
		f, ts, _ := newTestFetcher(t, repos, model)

		_, err := f.GetDeepContext(ctx, "acme", "legacy", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"main", "master"}, repos.Refs())
		assert.Contains(t, model.Calls()[0].Prompt, "legacy.go")

		row, err := ts.GetRepoContext(ctx, &store.FindRepoContext{FullName: "acme/legacy"})
		require.NoError(t, err)
		assert.Equal(t, 1, row.Metadata.FileCount)
	})

	t.Run("BothFail", func(t *testing.T) {
		repos := NewMockRepoCollaborator()
		repos.ReadmeErr = errors.New("not found")
		model := ai.NewMockModel(analysisJSON)
		f, ts, _ := newTestFetcher(t, repos, model)

		_, err := f.GetDeepContext(ctx, "acme", "empty", "")
		require.NoError(t, err)

		row, err := ts.GetRepoContext(ctx, &store.FindRepoContext{FullName: "acme/empty"})
		require.NoError(t, err)
		assert.Equal(t, 0, row.Metadata.FileCount)
		assert.False(t, row.Metadata.HasReadme)
	})
}

func TestGetDeepContext_PromptBounds(t *testing.T) {
	repos := NewMockRepoCollaborator()
	files := make([]string, 150)
	for i := range files {
		files[i] = fmt.Sprintf("pkg/file%03d.go", i)
	}
	repos.Trees["main"] = files
	repos.Readme = strings.Repeat("é", 5000)
	model := ai.NewMockModel(analysisJSON)
	f, _, _ := newTestFetcher(t, repos, model)

	_, err := f.GetDeepContext(context.Background(), "acme", "big", "")
	require.NoError(t, err)

	prompt := model.Calls()[0].Prompt
	assert.Contains(t, prompt, "pkg/file099.go")
	assert.NotContains(t, prompt, "pkg/file100.go")
	assert.Equal(t, maxReadmeRunes, strings.Count(prompt, "é"))
}

func TestGetDeepContext_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("ModelError", func(t *testing.T) {
		repos := NewMockRepoCollaborator()
		model := &ai.MockModel{}
		model.Enqueue(ai.MockResponse{Err: &ai.ModelError{Reason: ai.ReasonSafetyBlock, Provider: "mock"}})
		f, ts, m := newTestFetcher(t, repos, model)

		_, err := f.GetDeepContext(ctx, "acme", "todo", "")
		require.Error(t, err)
		assert.True(t, ai.IsReason(err, ai.ReasonSafetyBlock))

		row, err := ts.GetRepoContext(ctx, &store.FindRepoContext{FullName: "acme/todo"})
		require.NoError(t, err)
		assert.Nil(t, row)

		ops := m.Operations()
		require.Len(t, ops, 1)
		assert.Equal(t, metrics.OpDeepAnalysis, ops[0].Name)
		assert.False(t, ops[0].Success)
	})

	t.Run("Unparseable", func(t *testing.T) {
		f, _, _ := newTestFetcher(t, NewMockRepoCollaborator(), ai.NewMockModel("no json here"))
		_, err := f.GetDeepContext(ctx, "acme", "todo", "")
		require.Error(t, err)
		assert.True(t, extract.IsKind(err, extract.KindNoObjectFound))
	})

	t.Run("SaveFailureSwallowed", func(t *testing.T) {
		f := NewFetcher(NewMockRepoCollaborator(), ai.NewMockModel(analysisJSON), failingContextStore{}, nil, Config{})
		pc, err := f.GetDeepContext(ctx, "acme", "todo", "")
		require.NoError(t, err)
		assert.Equal(t, "Monolith", pc.ArchitectureOverview)
	})
}

func TestGetDeepContext_UnknownLanguage(t *testing.T) {
	ctx := context.Background()
	f, ts, _ := newTestFetcher(t, NewMockRepoCollaborator(), ai.NewMockModel(`{"project_summary": "x"}`))

	_, err := f.GetDeepContext(ctx, "acme", "bare", "")
	require.NoError(t, err)
	row, err := ts.GetRepoContext(ctx, &store.FindRepoContext{FullName: "acme/bare"})
	require.NoError(t, err)
	assert.Equal(t, "Unknown", row.Language)
}

type failingContextStore struct{}

func (failingContextStore) GetRepoContext(context.Context, *store.FindRepoContext) (*store.RepoContext, error) {
	return nil, errors.New("db down")
}

func (failingContextStore) UpsertRepoContext(context.Context, *store.UpsertRepoContext) (*store.RepoContext, error) {
	return nil, errors.New("db down")
}

func TestSearchKeywords(t *testing.T) {
	ctx := context.Background()

	hits := func(prefix string, n int) []github.CodeHit {
		out := make([]github.CodeHit, n)
		for i := range out {
			out[i] = github.CodeHit{Path: fmt.Sprintf("%s/%d.go", prefix, i), URL: fmt.Sprintf("https://example.com/%s/%d", prefix, i)}
		}
		return out
	}

	tests := []struct {
		name     string
		keywords []string
		setup    func(*MockRepoCollaborator)
		want     []string
		searched int
	}{
		{
			name:     "KeepsKeywordOrder",
			keywords: []string{"auth", "login"},
			setup: func(m *MockRepoCollaborator) {
				m.Hits["auth"] = hits("auth", 2)
				m.Hits["login"] = hits("login", 1)
			},
			want:     []string{"auth/0.go", "auth/1.go", "login/0.go"},
			searched: 2,
		},
		{
			name:     "CapsHitsPerKeyword",
			keywords: []string{"user"},
			setup:    func(m *MockRepoCollaborator) { m.Hits["user"] = hits("user", 9) },
			want:     []string{"user/0.go", "user/1.go", "user/2.go", "user/3.go", "user/4.go"},
			searched: 1,
		},
		{
			name:     "CapsKeywords",
			keywords: []string{"a", "b", "c", "d"},
			setup: func(m *MockRepoCollaborator) {
				for _, k := range []string{"a", "b", "c", "d"} {
					m.Hits[k] = hits(k, 1)
				}
			},
			want:     []string{"a/0.go", "b/0.go", "c/0.go"},
			searched: 3,
		},
		{
			name:     "SkipsFailedKeyword",
			keywords: []string{"ok", "forbidden", "also"},
			setup: func(m *MockRepoCollaborator) {
				m.Hits["ok"] = hits("ok", 1)
				m.SearchErrs["forbidden"] = &github.StatusError{Op: "search code", StatusCode: 403}
				m.Hits["also"] = hits("also", 1)
			},
			want:     []string{"ok/0.go", "also/0.go"},
			searched: 3,
		},
		{
			name:     "NoKeywords",
			keywords: nil,
			setup:    func(*MockRepoCollaborator) {},
			want:     []string{},
			searched: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := NewMockRepoCollaborator()
			tt.setup(repos)
			f := NewFetcher(repos, ai.NewMockModel(), failingContextStore{}, nil, Config{})

			findings, err := f.SearchKeywords(ctx, "acme", "todo", tt.keywords, "")
			require.NoError(t, err)
			require.NotNil(t, findings)

			files := make([]string, 0, len(findings))
			for _, finding := range findings {
				files = append(files, finding.File)
				assert.True(t, strings.HasPrefix(finding.File, finding.Keyword+"/"))
				assert.NotEmpty(t, finding.URL)
			}
			assert.Equal(t, tt.want, files)
			assert.Len(t, repos.SearchedKeywords(), tt.searched)
		})
	}
}

func TestSearchKeywords_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewFetcher(NewMockRepoCollaborator(), ai.NewMockModel(), failingContextStore{}, nil, Config{})

	_, err := f.SearchKeywords(ctx, "acme", "todo", []string{"auth"}, "")
	assert.ErrorIs(t, err, context.Canceled)
}
