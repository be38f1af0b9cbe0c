package v1

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/feeta/plugin/ai/timeout"
	"github.com/hrygo/feeta/plugin/slack"
)

// SlackTokenHeader carries the Slack token on GET endpoints.
const SlackTokenHeader = "X-Slack-Token"

type summarizeRequest struct {
	Messages []slack.Message `json:"messages"`
}

// SummarizeChannel summarizes channel messages. The summary is always
// returned; a failed model call yields a fallback with "error" set.
// POST /api/v1/slack/summarize
func (s *APIV1Service) SummarizeChannel(c echo.Context) error {
	if s.Summarizer == nil {
		return unavailable(c, "summarizer")
	}
	req := &summarizeRequest{}
	if err := c.Bind(req); err != nil {
		return invalidArgument(c, "invalid request body")
	}
	if len(req.Messages) == 0 {
		return invalidArgument(c, "no messages provided")
	}

	summary := s.Summarizer.SummarizeChannel(c.Request().Context(), req.Messages)
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "summary": summary})
}

type sendMessageRequest struct {
	SlackToken    string `json:"slack_token"`
	Channel       string `json:"channel"`
	Text          string `json:"text"`
	MentionUserID string `json:"mention_user_id"`
}

// SendSlackMessage posts a message to a channel.
// POST /api/v1/slack/messages
func (s *APIV1Service) SendSlackMessage(c echo.Context) error {
	if s.Slack == nil {
		return unavailable(c, "slack")
	}
	req := &sendMessageRequest{}
	if err := c.Bind(req); err != nil {
		return invalidArgument(c, "invalid request body")
	}
	if req.Channel == "" || req.Text == "" {
		return invalidArgument(c, "channel and text required")
	}
	if req.SlackToken == "" {
		return invalidArgument(c, "slack_token required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout.SlackCall)
	defer cancel()
	result, err := s.Slack.PostMessage(ctx, req.SlackToken, req.Channel, req.Text, req.MentionUserID)
	if err != nil {
		return errorResponse(c, err, "failed to send slack message")
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "channel": result.Channel, "ts": result.TS})
}

// GetChannelHistory returns recent channel messages with resolved author names.
// GET /api/v1/channels/history?channel=C123&limit=50
func (s *APIV1Service) GetChannelHistory(c echo.Context) error {
	if s.Slack == nil {
		return unavailable(c, "slack")
	}
	token := c.Request().Header.Get(SlackTokenHeader)
	if token == "" {
		return invalidArgument(c, SlackTokenHeader+" header required")
	}
	channel := c.QueryParam("channel")
	if channel == "" {
		return invalidArgument(c, "channel required")
	}
	limit := slack.DefaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return invalidArgument(c, "limit must be a positive integer")
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout.SlackCall)
	defer cancel()
	messages, err := s.Slack.ChannelHistory(ctx, token, channel, limit)
	if err != nil {
		return errorResponse(c, err, "failed to read channel history")
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "messages": messages})
}

// ListSlackChannels lists channels visible to the token.
// GET /api/v1/slack/channels
func (s *APIV1Service) ListSlackChannels(c echo.Context) error {
	if s.Slack == nil {
		return unavailable(c, "slack")
	}
	token := c.Request().Header.Get(SlackTokenHeader)
	if token == "" {
		return invalidArgument(c, SlackTokenHeader+" header required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout.SlackCall)
	defer cancel()
	channels, err := s.Slack.ListChannels(ctx, token)
	if err != nil {
		return errorResponse(c, err, "failed to list slack channels")
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "channels": channels})
}
