package v1

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/feeta/plugin/ai/taskplan"
	"github.com/hrygo/feeta/server/internal/observability"
	"github.com/hrygo/feeta/store"
)

// AnalyzeTaskRequest is the body of POST /api/v1/tasks/analyze.
type AnalyzeTaskRequest struct {
	Task        string `json:"task"`
	SessionID   string `json:"session_id"`
	Owner       string `json:"owner"`
	Repo        string `json:"repo"`
	GitHubToken string `json:"github_token"`
}

// AnalyzeTaskResponse is the classification plus the session it was stored under.
type AnalyzeTaskResponse struct {
	SessionID        string                  `json:"session_id"`
	Status           store.ClarityStatus     `json:"status"`
	Analysis         string                  `json:"analysis,omitempty"`
	Questions        []store.Question        `json:"questions"`
	TaskType         store.TaskType          `json:"task_type"`
	Keywords         []string                `json:"keywords"`
	Reasoning        string                  `json:"reasoning,omitempty"`
	CodebaseFindings []store.CodebaseFinding `json:"codebase_findings"`
}

// AnalyzeTask classifies a task and decides whether it needs clarification.
// POST /api/v1/tasks/analyze
func (s *APIV1Service) AnalyzeTask(c echo.Context) error {
	if s.Tasks == nil {
		return unavailable(c, "task pipeline")
	}
	req := &AnalyzeTaskRequest{}
	if err := c.Bind(req); err != nil {
		return invalidArgument(c, "invalid request body")
	}
	if strings.TrimSpace(req.Task) == "" {
		return invalidArgument(c, "task required")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	tagSession(c, req.SessionID)

	result, err := s.Tasks.Analyze(c.Request().Context(), &taskplan.AnalyzeRequest{
		Task:      req.Task,
		SessionID: req.SessionID,
		Owner:     req.Owner,
		Repo:      req.Repo,
		AuthToken: req.GitHubToken,
	})
	if err != nil {
		return errorResponse(c, err, "failed to analyze task")
	}

	return c.JSON(http.StatusOK, &AnalyzeTaskResponse{
		SessionID:        req.SessionID,
		Status:           result.Status,
		Analysis:         result.Analysis,
		Questions:        nonNil(result.Questions),
		TaskType:         result.TaskType,
		Keywords:         nonNil(result.Keywords),
		Reasoning:        result.Reasoning,
		CodebaseFindings: nonNil(result.CodebaseFindings),
	})
}

// GeneratePlanRequest is the body of POST /api/v1/tasks/plan.
type GeneratePlanRequest struct {
	Task        string         `json:"task"`
	Answers     map[string]any `json:"answers"`
	SessionID   string         `json:"session_id"`
	TeamMembers []string       `json:"team_members"`
}

// GeneratePlan turns a task, optionally with answers, into subtasks.
// POST /api/v1/tasks/plan
func (s *APIV1Service) GeneratePlan(c echo.Context) error {
	if s.Tasks == nil {
		return unavailable(c, "task pipeline")
	}
	req := &GeneratePlanRequest{}
	if err := c.Bind(req); err != nil {
		return invalidArgument(c, "invalid request body")
	}
	if strings.TrimSpace(req.Task) == "" {
		return invalidArgument(c, "task required")
	}

	tagSession(c, req.SessionID)
	plan, err := s.Tasks.Plan(c.Request().Context(), &taskplan.PlanRequest{
		Task:        req.Task,
		Answers:     req.Answers,
		SessionID:   req.SessionID,
		TeamMembers: req.TeamMembers,
	})
	if err != nil {
		return errorResponse(c, err, "failed to generate plan")
	}
	return c.JSON(http.StatusOK, plan)
}

// GetConversationHistory returns the history of a session, oldest first.
// GET /api/v1/conversations/:session_id
func (s *APIV1Service) GetConversationHistory(c echo.Context) error {
	if s.Tasks == nil {
		return unavailable(c, "task pipeline")
	}
	sessionID := c.Param("session_id")
	entries, err := s.Tasks.History(c.Request().Context(), sessionID)
	if err != nil {
		return errorResponse(c, err, "failed to read conversation history")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"session_id":    sessionID,
		"conversations": nonNil(entries),
	})
}

func tagSession(c echo.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if rc, ok := observability.FromContext(c.Request().Context()); ok {
		rc.SetSession(sessionID)
	}
}
