// Package taskplan implements the two-phase task pipeline: classification
// with optional clarifying questions, then plan generation.
package taskplan

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/feeta/plugin/ai"
	"github.com/hrygo/feeta/plugin/ai/extract"
	"github.com/hrygo/feeta/plugin/ai/metrics"
	"github.com/hrygo/feeta/plugin/ai/session"
	"github.com/hrygo/feeta/plugin/ai/timeout"
	"github.com/hrygo/feeta/store"
)

// KeywordSearcher finds files in a repository matching task keywords.
// *repocontext.Fetcher satisfies it.
type KeywordSearcher interface {
	SearchKeywords(ctx context.Context, owner, repo string, keywords []string, token string) ([]store.CodebaseFinding, error)
}

// ClassifyRequest is the input of Classify. Everything but Task is optional.
type ClassifyRequest struct {
	Task        string
	SessionID   string
	RepoContext *store.ProjectContext
	Owner       string
	Repo        string
	AuthToken   string
}

// Classifier determines the type of a task and whether it needs clarification.
type Classifier struct {
	model    ai.GenerativeModel
	searcher KeywordSearcher
	sessions session.SessionService
	metrics  metrics.MetricsService
}

// NewClassifier creates a Classifier. searcher, sessions and metricsSvc may be nil.
func NewClassifier(model ai.GenerativeModel, searcher KeywordSearcher, sessions session.SessionService, metricsSvc metrics.MetricsService) *Classifier {
	return &Classifier{
		model:    model,
		searcher: searcher,
		sessions: sessions,
		metrics:  metricsSvc,
	}
}

type typeDetection struct {
	TaskType  string           `json:"task_type"`
	Keywords  store.StringList `json:"keywords"`
	Reasoning string           `json:"reasoning"`
}

type clarityResult struct {
	Status    string           `json:"status"`
	Analysis  string           `json:"analysis"`
	Questions []store.Question `json:"questions"`
}

// Classify runs type detection, the optional codebase search and clarity
// analysis in order. Any model or extraction failure aborts the call.
// With a SessionID the session is overwritten and a history entry appended;
// failures of either are logged and do not fail the call.
func (c *Classifier) Classify(ctx context.Context, req *ClassifyRequest) (_ *store.Classification, err error) {
	if strings.TrimSpace(req.Task) == "" {
		return nil, &ClassificationError{Step: StepValidate, Cause: ErrEmptyTask}
	}

	start := time.Now()
	defer func() { metrics.Observe(ctx, c.metrics, metrics.OpClassify, start, err) }()

	slog.Info("classifying task", "session_id", req.SessionID, "has_repo_context", req.RepoContext != nil)

	detected, err := c.detectType(ctx, req)
	if err != nil {
		return nil, &ClassificationError{Step: StepTypeDetection, Cause: err}
	}
	taskType := normalizeTaskType(detected.TaskType)
	slog.Info("task type detected", "task_type", taskType, "keywords", detected.Keywords)

	findings := []store.CodebaseFinding{}
	if taskType.ImpliesUpdate() && req.Owner != "" && req.Repo != "" && c.searcher != nil {
		findings, err = c.searcher.SearchKeywords(ctx, req.Owner, req.Repo, detected.Keywords, req.AuthToken)
		if err != nil {
			return nil, &ClassificationError{Step: StepSearch, Cause: err}
		}
		if len(findings) == 0 {
			slog.Warn("no existing code found for update task", "repo", req.Owner+"/"+req.Repo, "keywords", detected.Keywords)
		}
	}

	clarity, err := c.checkClarity(ctx, req, taskType, findings)
	if err != nil {
		return nil, &ClassificationError{Step: StepClarity, Cause: err}
	}

	result := &store.Classification{
		TaskType:         taskType,
		Keywords:         nonNilStrings(detected.Keywords),
		Reasoning:        detected.Reasoning,
		Status:           store.ClarityClear,
		Analysis:         clarity.Analysis,
		Questions:        []store.Question{},
		CodebaseFindings: findings,
	}
	if strings.EqualFold(strings.TrimSpace(clarity.Status), string(store.ClarityAmbiguous)) || len(clarity.Questions) > 0 {
		result.Status = store.ClarityAmbiguous
		result.Questions = nonNilQuestions(clarity.Questions)
	}
	slog.Info("classification complete", "session_id", req.SessionID, "status", result.Status, "questions", len(result.Questions))

	if req.SessionID != "" {
		c.record(ctx, req.SessionID, req.Task, result)
	}
	return result, nil
}

func (c *Classifier) detectType(ctx context.Context, req *ClassifyRequest) (*typeDetection, error) {
	raw, err := c.generate(ctx, "model.type_detection", buildTypeDetectionPrompt(req.Task, req.RepoContext), ai.GenerateOptions{
		Temperature:     0.3,
		MaxOutputTokens: 512,
		Timeout:         timeout.TypeDetection,
	})
	if err != nil {
		return nil, err
	}
	detected := &typeDetection{}
	if err := extract.Decode(raw, "task type detection", detected); err != nil {
		return nil, err
	}
	return detected, nil
}

func (c *Classifier) checkClarity(ctx context.Context, req *ClassifyRequest, taskType store.TaskType, findings []store.CodebaseFinding) (*clarityResult, error) {
	raw, err := c.generate(ctx, "model.clarity", buildClarityPrompt(req.Task, taskType, req.RepoContext, findings), ai.GenerateOptions{
		Temperature:     0.4,
		MaxOutputTokens: 512,
		Timeout:         timeout.Clarity,
	})
	if err != nil {
		return nil, err
	}
	clarity := &clarityResult{}
	if err := extract.Decode(raw, "clarity analysis", clarity); err != nil {
		return nil, err
	}
	return clarity, nil
}

func (c *Classifier) generate(ctx context.Context, call, prompt string, opts ai.GenerateOptions) (string, error) {
	start := time.Now()
	raw, err := c.model.Generate(ctx, prompt, opts)
	metrics.ObserveCall(ctx, c.metrics, call, start, err)
	if err != nil {
		return "", err
	}
	slog.Debug("model response", "call", call, "response", timeout.Truncate(raw))
	return raw, nil
}

// record overwrites the session and appends history. The two writes are
// independent; neither failure rolls back the other.
func (c *Classifier) record(ctx context.Context, sessionID, task string, result *store.Classification) {
	if c.sessions == nil {
		return
	}
	if err := c.sessions.PutSession(ctx, sessionID, task, result); err != nil {
		slog.Error("failed to store session", "session_id", sessionID, "error", err)
	}
	if err := c.sessions.AppendHistory(ctx, sessionID, task, result, nil); err != nil {
		slog.Error("failed to append classification history", "session_id", sessionID, "error", err)
	}
}

func normalizeTaskType(raw string) store.TaskType {
	t := store.TaskType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		slog.Warn("unknown task type, using default", "task_type", raw, "default", store.TaskTypeNew)
		return store.TaskTypeNew
	}
	return t
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilQuestions(q []store.Question) []store.Question {
	if q == nil {
		return []store.Question{}
	}
	return q
}
