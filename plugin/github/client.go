// Package github reads repository trees, READMEs and code search results
// from the GitHub REST API.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.github.com"

	// Code search is the most tightly limited GitHub endpoint.
	defaultSearchInterval = 200 * time.Millisecond
	defaultSearchBurst    = 3

	maxErrorBody = 512
)

// Config configures a Client.
type Config struct {
	BaseURL string
	// HTTPClient is the transport used underneath the token source (default: http.DefaultClient).
	HTTPClient *http.Client
	// SearchLimit paces code search calls across all callers.
	SearchLimit rate.Limit
	SearchBurst int
}

// Client is a GitHub REST client. Each call carries the caller's token.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	searchLimiter *rate.Limiter
}

// NewClient creates a GitHub client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = rate.Every(defaultSearchInterval)
	}
	if cfg.SearchBurst <= 0 {
		cfg.SearchBurst = defaultSearchBurst
	}
	return &Client{
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:    cfg.HTTPClient,
		searchLimiter: rate.NewLimiter(cfg.SearchLimit, cfg.SearchBurst),
	}
}

// CodeHit is one code search result.
type CodeHit struct {
	Path string `json:"path"`
	URL  string `json:"html_url"`
}

// Repository is a repository visible to the token owner.
type Repository struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	UpdatedAt   string `json:"updated_at"`
}

// ListFiles returns the paths of all blobs in the recursive tree at ref.
// GitHub caps recursive trees; a truncated listing is returned as is and logged.
func (c *Client) ListFiles(ctx context.Context, owner, repo, ref, token string) ([]string, error) {
	var tree struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	endpoint := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(ref))
	if err := c.getJSON(ctx, "list files", endpoint, token, &tree); err != nil {
		return nil, err
	}

	files := make([]string, 0, len(tree.Tree))
	for _, entry := range tree.Tree {
		if entry.Type == "blob" {
			files = append(files, entry.Path)
		}
	}
	if tree.Truncated {
		slog.Warn("repository tree truncated by GitHub, file list is partial",
			"repo", owner+"/"+repo,
			"ref", ref,
			"files", len(files))
	}
	return files, nil
}

// ReadReadme returns the decoded README of the default branch.
func (c *Client) ReadReadme(ctx context.Context, owner, repo, token string) (string, error) {
	var readme struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	endpoint := fmt.Sprintf("/repos/%s/%s/readme", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.getJSON(ctx, "read readme", endpoint, token, &readme); err != nil {
		return "", err
	}
	if readme.Encoding != "" && readme.Encoding != "base64" {
		return readme.Content, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(readme.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("failed to decode readme: %w", err)
	}
	return string(decoded), nil
}

// SearchCode searches repo for keyword and returns the first page of hits.
func (c *Client) SearchCode(ctx context.Context, owner, repo, keyword, token string) ([]CodeHit, error) {
	if err := c.searchLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limit wait: %w", err)
	}

	query := url.Values{}
	query.Set("q", fmt.Sprintf("%s repo:%s/%s", keyword, owner, repo))
	var result struct {
		Items []CodeHit `json:"items"`
	}
	if err := c.getJSON(ctx, "search code", "/search/code?"+query.Encode(), token, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// ListUserRepos returns up to 100 repositories of the token owner, most recently updated first.
func (c *Client) ListUserRepos(ctx context.Context, token string) ([]Repository, error) {
	var raw []struct {
		Name        string  `json:"name"`
		FullName    string  `json:"full_name"`
		HTMLURL     string  `json:"html_url"`
		Description *string `json:"description"`
		Language    *string `json:"language"`
		UpdatedAt   string  `json:"updated_at"`
	}
	if err := c.getJSON(ctx, "list repos", "/user/repos?per_page=100&sort=updated", token, &raw); err != nil {
		return nil, err
	}

	repos := make([]Repository, 0, len(raw))
	for _, r := range raw {
		repo := Repository{
			Name:      r.Name,
			FullName:  r.FullName,
			URL:       r.HTMLURL,
			UpdatedAt: r.UpdatedAt,
		}
		if r.Description != nil {
			repo.Description = *r.Description
		}
		if r.Language != nil {
			repo.Language = *r.Language
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func (c *Client) getJSON(ctx context.Context, op, endpoint, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "feeta")

	resp, err := c.client(ctx, token).Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// client returns an HTTP client that authenticates with token, or the bare
// client when token is empty.
func (c *Client) client(ctx context.Context, token string) *http.Client {
	if token == "" {
		return c.httpClient
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}
