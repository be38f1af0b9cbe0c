package taskplan

import (
	"context"
	"log/slog"

	"github.com/hrygo/feeta/plugin/ai/session"
	"github.com/hrygo/feeta/store"
)

// ContextFetcher provides the deep context of a repository.
// *repocontext.Fetcher satisfies it.
type ContextFetcher interface {
	GetDeepContext(ctx context.Context, owner, repo, token string) (*store.ProjectContext, error)
}

// AnalyzeRequest is the input of Service.Analyze.
type AnalyzeRequest struct {
	Task      string
	SessionID string
	Owner     string
	Repo      string
	AuthToken string
}

// Service wires the pipeline phases together for the HTTP layer.
type Service struct {
	Classifier *Classifier
	Planner    *Planner
	contexts   ContextFetcher
	sessions   session.SessionService
}

// NewService creates a Service. contexts may be nil.
func NewService(classifier *Classifier, planner *Planner, contexts ContextFetcher, sessions session.SessionService) *Service {
	return &Service{
		Classifier: classifier,
		Planner:    planner,
		contexts:   contexts,
		sessions:   sessions,
	}
}

// Analyze classifies a task. When owner, repo and token are all given the
// repository's deep context is fetched first; a failed fetch degrades to
// classification without context.
func (s *Service) Analyze(ctx context.Context, req *AnalyzeRequest) (*store.Classification, error) {
	classify := &ClassifyRequest{
		Task:      req.Task,
		SessionID: req.SessionID,
		Owner:     req.Owner,
		Repo:      req.Repo,
		AuthToken: req.AuthToken,
	}

	if req.Owner != "" && req.Repo != "" && req.AuthToken != "" && s.contexts != nil {
		pc, err := s.contexts.GetDeepContext(ctx, req.Owner, req.Repo, req.AuthToken)
		if err != nil {
			slog.Warn("deep context unavailable, classifying without it",
				"repo", req.Owner+"/"+req.Repo, "error", err)
		} else {
			classify.RepoContext = pc
		}
	}

	return s.Classifier.Classify(ctx, classify)
}

// Plan generates a plan for the task.
func (s *Service) Plan(ctx context.Context, req *PlanRequest) (*store.Plan, error) {
	return s.Planner.GeneratePlan(ctx, req)
}

// History returns the conversation history of a session, oldest first.
func (s *Service) History(ctx context.Context, sessionID string) ([]*store.ConversationEntry, error) {
	if s.sessions == nil {
		return []*store.ConversationEntry{}, nil
	}
	return s.sessions.GetHistory(ctx, sessionID)
}
