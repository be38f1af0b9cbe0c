// Package repocontext builds and caches a deep-analysis summary of a GitHub
// repository, and searches its code for task keywords.
package repocontext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/hrygo/feeta/plugin/ai"
	"github.com/hrygo/feeta/plugin/ai/extract"
	"github.com/hrygo/feeta/plugin/ai/metrics"
	"github.com/hrygo/feeta/plugin/ai/timeout"
	"github.com/hrygo/feeta/plugin/github"
	"github.com/hrygo/feeta/store"
)

const (
	maxReadmeRunes    = 3000
	maxPromptFiles    = 100
	maxSearchKeywords = 3
	maxHitsPerKeyword = 5

	defaultMaxConcurrentAnalyses = 4

	deepAnalysisLabel = "deep analysis"
	unknownLanguage   = "Unknown"
)

// RepoCollaborator is the remote repository capability the fetcher consumes.
// *github.Client satisfies it.
type RepoCollaborator interface {
	ListFiles(ctx context.Context, owner, repo, ref, token string) ([]string, error)
	ReadReadme(ctx context.Context, owner, repo, token string) (string, error)
	SearchCode(ctx context.Context, owner, repo, keyword, token string) ([]github.CodeHit, error)
}

// ContextStore persists deep-analysis results keyed by "owner/repo".
// *store.Store satisfies it.
type ContextStore interface {
	GetRepoContext(ctx context.Context, find *store.FindRepoContext) (*store.RepoContext, error)
	UpsertRepoContext(ctx context.Context, upsert *store.UpsertRepoContext) (*store.RepoContext, error)
}

// Config configures a Fetcher.
type Config struct {
	// MaxConcurrentAnalyses bounds paid enrichments running at once (default: 4).
	MaxConcurrentAnalyses int64
}

// Fetcher implements the remote context operations.
type Fetcher struct {
	repos   RepoCollaborator
	model   ai.GenerativeModel
	store   ContextStore
	metrics metrics.MetricsService

	flights singleflight.Group
	sem     *semaphore.Weighted
}

// NewFetcher creates a Fetcher. metricsSvc may be nil.
func NewFetcher(repos RepoCollaborator, model ai.GenerativeModel, contextStore ContextStore, metricsSvc metrics.MetricsService, cfg Config) *Fetcher {
	if cfg.MaxConcurrentAnalyses <= 0 {
		cfg.MaxConcurrentAnalyses = defaultMaxConcurrentAnalyses
	}
	return &Fetcher{
		repos:   repos,
		model:   model,
		store:   contextStore,
		metrics: metricsSvc,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrentAnalyses),
	}
}

// GetDeepContext returns the cached context of owner/repo, or analyzes the
// repository and caches the result. Cached contexts never expire.
// Concurrent misses for the same repository share one analysis; every call
// counts as exactly one access.
func (f *Fetcher) GetDeepContext(ctx context.Context, owner, repo, token string) (*store.ProjectContext, error) {
	fullName := owner + "/" + repo

	if cached := f.lookup(ctx, fullName); cached != nil {
		slog.Info("using cached repo context",
			"repo", fullName,
			"access_count", cached.AccessCount,
			"updated_ts", cached.UpdatedTs)
		return cached.Context, nil
	}

	leader := false
	v, err, _ := f.flights.Do(fullName, func() (any, error) {
		leader = true
		// A flight for this repository may have finished between the miss
		// above and this call. The re-read counts this caller's access.
		if cached := f.lookup(ctx, fullName); cached != nil {
			slog.Info("repo context cached by a concurrent analysis", "repo", fullName, "access_count", cached.AccessCount)
			return cached.Context, nil
		}
		// Followers share the result, so one caller's cancellation must not fail the others.
		return f.analyze(context.WithoutCancel(ctx), owner, repo, token)
	})
	if !leader {
		// Count the follower's access against the row the leader wrote.
		f.lookup(ctx, fullName)
	}
	if err != nil {
		return nil, err
	}
	return v.(*store.ProjectContext), nil
}

// lookup reads the cached context, treating read failures as a miss.
func (f *Fetcher) lookup(ctx context.Context, fullName string) *store.RepoContext {
	cached, err := f.store.GetRepoContext(ctx, &store.FindRepoContext{FullName: fullName})
	if err != nil {
		slog.Warn("failed to read cached repo context", "repo", fullName, "error", err)
		return nil
	}
	if cached == nil || cached.Context == nil {
		return nil
	}
	return cached
}

func (f *Fetcher) analyze(ctx context.Context, owner, repo, token string) (_ *store.ProjectContext, err error) {
	fullName := owner + "/" + repo
	start := time.Now()
	defer func() { metrics.Observe(ctx, f.metrics, metrics.OpDeepAnalysis, start, err) }()

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for analysis slot: %w", err)
	}
	defer f.sem.Release(1)

	slog.Info("repo context cache miss, analyzing", "repo", fullName)
	files := f.listFiles(ctx, owner, repo, token)
	readme := f.readReadme(ctx, owner, repo, token)

	callStart := time.Now()
	raw, err := f.model.Generate(ctx, buildDeepAnalysisPrompt(files, readme), ai.GenerateOptions{
		Temperature:     0.1,
		MaxOutputTokens: 4096,
		Timeout:         timeout.DeepAnalysis,
	})
	metrics.ObserveCall(ctx, f.metrics, "model.deep_analysis", callStart, err)
	if err != nil {
		return nil, fmt.Errorf("deep analysis of %s: %w", fullName, err)
	}
	slog.Debug("deep analysis response", "repo", fullName, "response", timeout.Truncate(raw))

	projectContext := &store.ProjectContext{}
	if err := extract.Decode(raw, deepAnalysisLabel, projectContext); err != nil {
		return nil, fmt.Errorf("deep analysis of %s: %w", fullName, err)
	}
	slog.Info("deep analysis complete", "repo", fullName, "key_modules", len(projectContext.KeyModules))

	language := projectContext.TechStack.Language
	if language == "" {
		language = unknownLanguage
	}
	if _, err := f.store.UpsertRepoContext(ctx, &store.UpsertRepoContext{
		FullName: fullName,
		Context:  projectContext,
		Language: language,
		Metadata: store.RepoContextMetadata{
			FileCount: len(files),
			HasReadme: readme != "",
			TechStack: projectContext.TechStack,
		},
	}); err != nil {
		slog.Warn("failed to save repo context", "repo", fullName, "error", err)
	}

	return projectContext, nil
}

// listFiles fetches the tree of main, falling back to master. Both failing
// yields an empty list.
func (f *Fetcher) listFiles(ctx context.Context, owner, repo, token string) []string {
	refs := []struct {
		name    string
		timeout time.Duration
	}{
		{"main", timeout.TreeFetch},
		{"master", timeout.TreeFallback},
	}

	for _, ref := range refs {
		callCtx, cancel := context.WithTimeout(ctx, ref.timeout)
		start := time.Now()
		files, err := f.repos.ListFiles(callCtx, owner, repo, ref.name, token)
		cancel()
		metrics.ObserveCall(ctx, f.metrics, "github.tree", start, err)
		if err == nil {
			slog.Info("fetched file tree", "repo", owner+"/"+repo, "ref", ref.name, "files", len(files))
			return files
		}
		slog.Warn("failed to fetch file tree", "repo", owner+"/"+repo, "ref", ref.name, "error", err)
	}
	return []string{}
}

func (f *Fetcher) readReadme(ctx context.Context, owner, repo, token string) string {
	callCtx, cancel := context.WithTimeout(ctx, timeout.ReadmeFetch)
	defer cancel()

	start := time.Now()
	readme, err := f.repos.ReadReadme(callCtx, owner, repo, token)
	metrics.ObserveCall(ctx, f.metrics, "github.readme", start, err)
	if err != nil {
		slog.Warn("failed to fetch readme", "repo", owner+"/"+repo, "error", err)
		return ""
	}
	if runes := []rune(readme); len(runes) > maxReadmeRunes {
		readme = string(runes[:maxReadmeRunes])
	}
	return readme
}

// SearchKeywords searches the first three keywords concurrently. A keyword
// whose search fails is skipped. Each keyword contributes at most five
// findings; results keep keyword order. Only cancellation of ctx is an error.
func (f *Fetcher) SearchKeywords(ctx context.Context, owner, repo string, keywords []string, token string) ([]store.CodebaseFinding, error) {
	if len(keywords) > maxSearchKeywords {
		keywords = keywords[:maxSearchKeywords]
	}

	perKeyword := make([][]store.CodebaseFinding, len(keywords))
	var g errgroup.Group
	for i, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		g.Go(func() error {
			perKeyword[i] = f.searchKeyword(ctx, owner, repo, keyword, token)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	findings := make([]store.CodebaseFinding, 0)
	for _, batch := range perKeyword {
		findings = append(findings, batch...)
	}
	return findings, nil
}

func (f *Fetcher) searchKeyword(ctx context.Context, owner, repo, keyword, token string) []store.CodebaseFinding {
	callCtx, cancel := context.WithTimeout(ctx, timeout.CodeSearch)
	defer cancel()

	start := time.Now()
	hits, err := f.repos.SearchCode(callCtx, owner, repo, keyword, token)
	metrics.ObserveCall(ctx, f.metrics, "github.search", start, err)
	if err != nil {
		slog.Warn("code search failed, skipping keyword", "repo", owner+"/"+repo, "keyword", keyword, "error", err)
		return nil
	}
	if len(hits) > maxHitsPerKeyword {
		hits = hits[:maxHitsPerKeyword]
	}

	findings := make([]store.CodebaseFinding, 0, len(hits))
	for _, hit := range hits {
		findings = append(findings, store.CodebaseFinding{File: hit.Path, Keyword: keyword, URL: hit.URL})
	}
	slog.Info("code search", "repo", owner+"/"+repo, "keyword", keyword, "hits", len(findings))
	return findings
}
