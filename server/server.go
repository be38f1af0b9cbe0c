// Package server assembles the pipeline components and serves the HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/feeta/internal/profile"
	"github.com/hrygo/feeta/plugin/ai"
	"github.com/hrygo/feeta/plugin/ai/cache"
	"github.com/hrygo/feeta/plugin/ai/metrics"
	"github.com/hrygo/feeta/plugin/ai/repocontext"
	"github.com/hrygo/feeta/plugin/ai/session"
	"github.com/hrygo/feeta/plugin/ai/summary"
	"github.com/hrygo/feeta/plugin/ai/taskplan"
	"github.com/hrygo/feeta/plugin/github"
	"github.com/hrygo/feeta/plugin/slack"
	"github.com/hrygo/feeta/server/middleware"
	apiv1 "github.com/hrygo/feeta/server/router/api/v1"
	"github.com/hrygo/feeta/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	metrics    *metrics.Service
	closers    []func() error
}

// NewServer wires every component from the profile. Without a valid model
// configuration the AI endpoints answer 503 and the rest keep working.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	s := &Server{
		Store:   store,
		Profile: profile,
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomiddleware.Recover())
	echoServer.Use(middleware.RequestLogger(slog.Default()))
	echoServer.Use(middleware.NewRateLimiter().Middleware())
	s.echoServer = echoServer

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	// Keep a week of buckets so every range of the overview endpoint is served.
	metricsConfig := metrics.DefaultServiceConfig()
	metricsConfig.Retention = 7 * 24 * time.Hour
	s.metrics = metrics.NewService(metricsConfig)
	s.closers = append(s.closers, func() error { s.metrics.Close(); return nil })

	sessionCache, err := s.newSessionCache(ctx)
	if err != nil {
		return nil, err
	}
	sessions := session.NewSessionStore(sessionCache, store, profile.SessionTTL)

	githubClient := github.NewClient(github.Config{BaseURL: profile.GitHubAPIURL})
	api := &apiv1.APIV1Service{
		Profile: profile,
		GitHub:  githubClient,
		Slack:   slack.NewClient(slack.Config{BaseURL: profile.SlackAPIURL}),
		Metrics: s.metrics,
	}

	aiConfig := ai.NewConfigFromProfile(profile)
	if err := aiConfig.Validate(); err != nil {
		slog.Warn("AI is not configured, task endpoints are disabled", "provider", aiConfig.LLM.Provider, "error", err)
	} else {
		model, err := ai.NewGenerativeModel(ctx, &aiConfig.LLM)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create generative model")
		}
		fetcher := repocontext.NewFetcher(githubClient, model, store, s.metrics, repocontext.Config{})
		api.Contexts = fetcher
		api.Tasks = taskplan.NewService(
			taskplan.NewClassifier(model, fetcher, sessions, s.metrics),
			taskplan.NewPlanner(model, sessions, s.metrics),
			fetcher,
			sessions,
		)
		api.Summarizer = summary.NewSummarizer(model, s.metrics)
		slog.Info("AI enabled", "provider", aiConfig.LLM.Provider, "model", aiConfig.LLM.Model)
	}
	api.RegisterRoutes(echoServer)

	return s, nil
}

// newSessionCache selects Redis when configured, else an in-process LRU.
func (s *Server) newSessionCache(ctx context.Context) (cache.CacheService, error) {
	if s.Profile.UseRedis() {
		cfg := cache.DefaultRedisConfig()
		cfg.Addr = s.Profile.RedisAddr
		cfg.Password = s.Profile.RedisPassword
		cfg.DefaultTTL = s.Profile.SessionTTL
		redisCache, err := cache.NewRedisCache(ctx, cfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect session cache")
		}
		s.closers = append(s.closers, redisCache.Close)
		slog.Info("sessions stored in redis", "addr", cfg.Addr)
		return redisCache, nil
	}

	cfg := cache.DefaultServiceConfig()
	cfg.Name = "sessions"
	cfg.Capacity = s.Profile.SessionCapacity
	cfg.DefaultTTL = s.Profile.SessionTTL
	lru := cache.NewService(cfg)
	s.closers = append(s.closers, func() error { lru.Close(); return nil })
	return lru, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Error("failed to release resource", "error", err)
		}
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("server stopped properly")
}
