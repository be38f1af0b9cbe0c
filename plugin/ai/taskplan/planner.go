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

// PlanRequest is the input of GeneratePlan.
type PlanRequest struct {
	Task        string
	Answers     map[string]any
	SessionID   string
	TeamMembers []string
	// Classification, when set, takes precedence over the session's.
	Classification *store.Classification
}

// Planner turns a task into an ordered list of subtasks.
type Planner struct {
	model    ai.GenerativeModel
	sessions session.SessionService
	metrics  metrics.MetricsService
}

// NewPlanner creates a Planner. sessions and metricsSvc may be nil.
func NewPlanner(model ai.GenerativeModel, sessions session.SessionService, metricsSvc metrics.MetricsService) *Planner {
	return &Planner{
		model:    model,
		sessions: sessions,
		metrics:  metricsSvc,
	}
}

// GeneratePlan builds a plan for the task. The subtask count requested from
// the model is not enforced. With a SessionID the plan is appended to the
// session history; append failures are logged only.
func (p *Planner) GeneratePlan(ctx context.Context, req *PlanRequest) (_ *store.Plan, err error) {
	if strings.TrimSpace(req.Task) == "" {
		return nil, &PlanningError{Step: StepValidate, Cause: ErrEmptyTask}
	}

	start := time.Now()
	defer func() { metrics.Observe(ctx, p.metrics, metrics.OpPlan, start, err) }()

	taskType, findings := p.resolveClassification(ctx, req)
	slog.Info("generating plan",
		"session_id", req.SessionID,
		"task_type", taskType,
		"findings", len(findings),
		"answers", len(req.Answers))

	callStart := time.Now()
	raw, err := p.model.Generate(ctx, buildPlanPrompt(req.Task, taskType, req.Answers, findings, req.TeamMembers), ai.GenerateOptions{
		Temperature:     0.6,
		MaxOutputTokens: 2048,
		Timeout:         timeout.Plan,
	})
	metrics.ObserveCall(ctx, p.metrics, "model.plan", callStart, err)
	if err != nil {
		return nil, &PlanningError{Step: StepPlan, Cause: err}
	}
	slog.Debug("plan response", "response", timeout.Truncate(raw))

	plan := &store.Plan{}
	if err := extract.Decode(raw, "plan generation", plan); err != nil {
		return nil, &PlanningError{Step: StepPlan, Cause: err}
	}
	if plan.TaskType == "" {
		plan.TaskType = taskType
	}
	if plan.Subtasks == nil {
		plan.Subtasks = []store.Subtask{}
	}
	slog.Info("plan generated", "session_id", req.SessionID, "subtasks", len(plan.Subtasks))

	if req.SessionID != "" && p.sessions != nil {
		if err := p.sessions.AppendHistory(ctx, req.SessionID, req.Task, nil, plan); err != nil {
			slog.Error("failed to append plan history", "session_id", req.SessionID, "error", err)
		}
	}
	return plan, nil
}

// resolveClassification picks the task type and findings from the request,
// then the session, then defaults.
func (p *Planner) resolveClassification(ctx context.Context, req *PlanRequest) (store.TaskType, []store.CodebaseFinding) {
	classification := req.Classification
	if classification == nil && req.SessionID != "" && p.sessions != nil {
		sess, err := p.sessions.GetSession(ctx, req.SessionID)
		if err != nil {
			slog.Warn("failed to read session, using defaults", "session_id", req.SessionID, "error", err)
		} else if sess != nil {
			classification = sess.Classification
		}
	}
	if classification == nil {
		return defaultPlanTaskType, nil
	}

	taskType := classification.TaskType
	if !taskType.Valid() {
		taskType = defaultPlanTaskType
	}
	return taskType, classification.CodebaseFindings
}
