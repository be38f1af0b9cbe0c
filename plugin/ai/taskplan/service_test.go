package taskplan

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/feeta/plugin/ai"
	"github.com/hrygo/feeta/plugin/ai/cache"
	"github.com/hrygo/feeta/plugin/ai/session"
	"github.com/hrygo/feeta/store"
	storetest "github.com/hrygo/feeta/store/test"
)

type stubContextFetcher struct {
	pc  *store.ProjectContext
	err error
	n   int
}

func (s *stubContextFetcher) GetDeepContext(context.Context, string, string, string) (*store.ProjectContext, error) {
	s.n++
	return s.pc, s.err
}

func newTestSessions(t *testing.T) session.SessionService {
	t.Helper()
	c := cache.NewService(cache.ServiceConfig{Capacity: 100, DefaultTTL: time.Hour, CleanupInterval: time.Minute})
	t.Cleanup(c.Close)
	return session.NewSessionStore(c, storetest.NewTestingStore(context.Background(), t), time.Hour)
}

// A task without a repository classifies as new and plans as new across two
// calls sharing one session.
func TestService_DarkModeEndToEnd(t *testing.T) {
	ctx := context.Background()
	model := &ai.MockModel{Responder: func(prompt string) (string, error) {
		switch {
		case strings.HasPrefix(prompt, "Analyze this task with full project context."):
			return `{"task_type": "new", "keywords": ["dark mode", "settings"], "reasoning": "Theme support does not exist"}`, nil
		case strings.HasPrefix(prompt, "Analyze if this task is clear enough"):
			return `{"status": "ambiguous", "questions": [{"question": "Which theme library?", "explanation": "Affects styling."}]}`, nil
		default:
			return planJSON, nil
		}
	}}
	sessions := newTestSessions(t)
	searcher := &stubSearcher{}
	svc := NewService(
		NewClassifier(model, searcher, sessions, nil),
		NewPlanner(model, sessions, nil),
		nil,
		sessions,
	)

	const task = "Add a dark mode toggle to settings page"
	classification, err := svc.Analyze(ctx, &AnalyzeRequest{Task: task, SessionID: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, store.TaskTypeNew, classification.TaskType)
	assert.Empty(t, classification.CodebaseFindings)
	assert.Empty(t, searcher.calls)

	plan, err := svc.Plan(ctx, &PlanRequest{Task: task, SessionID: "sess-1", Answers: map[string]any{"theme_library": "none"}})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(plan.Subtasks), 1)
	assert.Equal(t, store.TaskTypeNew, plan.TaskType)

	history, err := svc.History(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.NotNil(t, history[0].Analysis)
	assert.Nil(t, history[0].Plan)
	assert.Nil(t, history[1].Analysis)
	assert.NotNil(t, history[1].Plan)
	assert.Less(t, history[0].CreatedTs, history[1].CreatedTs)

	empty, err := svc.History(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestService_AnalyzeFetchesContext(t *testing.T) {
	ctx := context.Background()
	responses := func() *ai.MockModel {
		return ai.NewMockModel(
			`{"task_type": "new", "keywords": [], "reasoning": "r"}`,
			`{"status": "clear", "analysis": "ok"}`,
		)
	}

	t.Run("Used", func(t *testing.T) {
		model := responses()
		fetcher := &stubContextFetcher{pc: &store.ProjectContext{ProjectSummary: "Inventory service"}}
		svc := NewService(NewClassifier(model, nil, nil, nil), nil, fetcher, nil)

		_, err := svc.Analyze(ctx, &AnalyzeRequest{Task: "t", Owner: "acme", Repo: "inv", AuthToken: "tok"})
		require.NoError(t, err)
		assert.Equal(t, 1, fetcher.n)
		assert.Contains(t, model.Calls()[0].Prompt, "Inventory service")
	})

	t.Run("SkippedWithoutToken", func(t *testing.T) {
		fetcher := &stubContextFetcher{}
		svc := NewService(NewClassifier(responses(), nil, nil, nil), nil, fetcher, nil)

		_, err := svc.Analyze(ctx, &AnalyzeRequest{Task: "t", Owner: "acme", Repo: "inv"})
		require.NoError(t, err)
		assert.Zero(t, fetcher.n)
	})

	t.Run("FailureDegrades", func(t *testing.T) {
		model := responses()
		fetcher := &stubContextFetcher{err: errors.New("rate limited")}
		svc := NewService(NewClassifier(model, nil, nil, nil), nil, fetcher, nil)

		result, err := svc.Analyze(ctx, &AnalyzeRequest{Task: "t", Owner: "acme", Repo: "inv", AuthToken: "tok"})
		require.NoError(t, err)
		assert.Equal(t, store.ClarityClear, result.Status)
		assert.NotContains(t, model.Calls()[0].Prompt, "Project Context:")
	})
}
