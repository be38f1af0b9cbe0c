package v1

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/feeta/plugin/ai/timeout"
)

type githubTokenRequest struct {
	GitHubToken string `json:"github_token"`
}

// ListGitHubRepos lists the repositories of the token owner.
// POST /api/v1/github/repos
func (s *APIV1Service) ListGitHubRepos(c echo.Context) error {
	if s.GitHub == nil {
		return unavailable(c, "github")
	}
	req := &githubTokenRequest{}
	if err := c.Bind(req); err != nil {
		return invalidArgument(c, "invalid request body")
	}
	if req.GitHubToken == "" {
		return invalidArgument(c, "github_token required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout.RepoList)
	defer cancel()
	repos, err := s.GitHub.ListUserRepos(ctx, req.GitHubToken)
	if err != nil {
		return errorResponse(c, err, "failed to list repositories")
	}
	return c.JSON(http.StatusOK, map[string]any{"repos": nonNil(repos)})
}

type repoContextRequest struct {
	Owner       string `json:"owner"`
	Repo        string `json:"repo"`
	GitHubToken string `json:"github_token"`
}

// GetRepoContext returns the cached or freshly built deep context of a repository.
// POST /api/v1/github/context
func (s *APIV1Service) GetRepoContext(c echo.Context) error {
	if s.Contexts == nil {
		return unavailable(c, "repository context")
	}
	req := &repoContextRequest{}
	if err := c.Bind(req); err != nil {
		return invalidArgument(c, "invalid request body")
	}
	if req.Owner == "" || req.Repo == "" {
		return invalidArgument(c, "owner and repo required")
	}

	pc, err := s.Contexts.GetDeepContext(c.Request().Context(), req.Owner, req.Repo, req.GitHubToken)
	if err != nil {
		return errorResponse(c, err, "failed to build repository context")
	}
	return c.JSON(http.StatusOK, pc)
}
