package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/feeta/internal/profile"
	"github.com/hrygo/feeta/plugin/ai/metrics"
	"github.com/hrygo/feeta/plugin/ai/summary"
	"github.com/hrygo/feeta/plugin/ai/taskplan"
	"github.com/hrygo/feeta/plugin/github"
	"github.com/hrygo/feeta/plugin/slack"
	apierrors "github.com/hrygo/feeta/server/internal/errors"
	"github.com/hrygo/feeta/server/internal/observability"
)

// APIV1Service serves the JSON API under /api/v1.
type APIV1Service struct {
	Profile    *profile.Profile
	Tasks      *taskplan.Service
	Contexts   taskplan.ContextFetcher
	GitHub     *github.Client
	Slack      *slack.Client
	Summarizer *summary.Summarizer
	Metrics    metrics.MetricsService
}

// RegisterRoutes mounts the API on echoServer.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	g := echoServer.Group("/api/v1")
	g.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))

	g.POST("/tasks/analyze", s.AnalyzeTask)
	g.POST("/tasks/plan", s.GeneratePlan)
	g.GET("/conversations/:session_id", s.GetConversationHistory)

	g.POST("/github/repos", s.ListGitHubRepos)
	g.POST("/github/context", s.GetRepoContext)

	g.POST("/slack/summarize", s.SummarizeChannel)
	g.POST("/slack/messages", s.SendSlackMessage)
	g.GET("/slack/channels", s.ListSlackChannels)
	g.GET("/channels/history", s.GetChannelHistory)

	g.GET("/system/metrics/overview", s.GetMetricsOverview)
}

// errorResponse writes err as {"error", "code"} with the matching status.
func errorResponse(c echo.Context, err error, msg string) error {
	apiErr := apierrors.FromError(err, msg)
	if rc, ok := observability.FromContext(c.Request().Context()); ok {
		rc.Warn(msg,
			slog.String(observability.LogFieldErrorCode, string(apiErr.Code)),
			slog.String("error", apiErr.Error()))
	}
	return c.JSON(apiErr.HTTPStatus(), map[string]string{
		"error": apiErr.Error(),
		"code":  string(apiErr.Code),
	})
}

func invalidArgument(c echo.Context, msg string) error {
	return errorResponse(c, apierrors.InvalidArgument(msg), msg)
}

func unavailable(c echo.Context, component string) error {
	msg := component + " is not configured"
	return errorResponse(c, apierrors.ServiceUnavailable(msg), msg)
}

// nonNil keeps empty collections serialized as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
