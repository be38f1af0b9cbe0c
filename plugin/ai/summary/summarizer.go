// Package summary condenses Slack channel messages into a status report.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/feeta/plugin/ai"
	"github.com/hrygo/feeta/plugin/ai/extract"
	"github.com/hrygo/feeta/plugin/ai/metrics"
	"github.com/hrygo/feeta/plugin/ai/timeout"
	"github.com/hrygo/feeta/plugin/slack"
)

// KeyUpdate is one notable contribution of a user.
type KeyUpdate struct {
	User   string `json:"user"`
	Update string `json:"update"`
}

// ChannelSummary is the summarized state of a channel.
type ChannelSummary struct {
	KeyUpdates         []KeyUpdate `json:"key_updates"`
	ActiveUsers        []string    `json:"active_users"`
	Blockers           []string    `json:"blockers"`
	ProgressIndicators []string    `json:"progress_indicators"`
	OverallStatus      string      `json:"overall_status"`
	Sentiment          string      `json:"sentiment"`
	ActionItems        []string    `json:"action_items"`
	// Error is set when the summary is the fallback built without the model.
	Error string `json:"error,omitempty"`
}

const summaryPromptTemplate = `Analyze the following Slack channel conversation and provide a concise summary.

SLACK MESSAGES:
%s
Generate a JSON response with this structure:
{
  "key_updates": [
    {"user": "User Name", "update": "Brief description of what they said/did"}
  ],
  "active_users": ["List of users who participated"],
  "blockers": ["Any blockers or issues mentioned"],
  "progress_indicators": ["Any progress updates or completed tasks"],
  "overall_status": "A one-sentence summary of the channel activity",
  "sentiment": "positive/neutral/negative",
  "action_items": ["Any action items or next steps mentioned"]
}

Keep updates brief (max 15 words each). Return ONLY valid JSON, no markdown, no code blocks.`

// Summarizer summarizes channel messages with a generative model.
type Summarizer struct {
	model   ai.GenerativeModel
	metrics metrics.MetricsService
}

// NewSummarizer creates a Summarizer. metricsSvc may be nil.
func NewSummarizer(model ai.GenerativeModel, metricsSvc metrics.MetricsService) *Summarizer {
	return &Summarizer{model: model, metrics: metricsSvc}
}

// SummarizeChannel never fails: any model or extraction error yields a
// fallback summary built from the messages, with Error set.
func (s *Summarizer) SummarizeChannel(ctx context.Context, messages []slack.Message) *ChannelSummary {
	start := time.Now()
	summary, err := s.summarize(ctx, messages)
	metrics.Observe(ctx, s.metrics, metrics.OpSummarize, start, err)
	if err != nil {
		slog.Warn("channel summary failed, using fallback", "messages", len(messages), "error", err)
		return fallback(messages, err)
	}
	slog.Info("channel summary generated", "messages", len(messages), "key_updates", len(summary.KeyUpdates))
	return summary
}

func (s *Summarizer) summarize(ctx context.Context, messages []slack.Message) (*ChannelSummary, error) {
	var conversation strings.Builder
	for _, m := range messages {
		user := m.User
		if user == "" {
			user = "Unknown"
		}
		fmt.Fprintf(&conversation, "%s: %s\n", user, m.Text)
	}

	callStart := time.Now()
	raw, err := s.model.Generate(ctx, fmt.Sprintf(summaryPromptTemplate, conversation.String()), ai.GenerateOptions{
		Temperature:     0.3,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 2048,
		Timeout:         timeout.Summary,
	})
	metrics.ObserveCall(ctx, s.metrics, "model.summary", callStart, err)
	if err != nil {
		return nil, err
	}

	summary := &ChannelSummary{}
	if err := extract.Decode(raw, "slack summary", summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func fallback(messages []slack.Message, cause error) *ChannelSummary {
	seen := make(map[string]bool)
	users := []string{}
	for _, m := range messages {
		user := m.User
		if user == "" {
			user = "Unknown"
		}
		if !seen[user] {
			seen[user] = true
			users = append(users, user)
		}
	}
	return &ChannelSummary{
		KeyUpdates:         []KeyUpdate{},
		ActiveUsers:        users,
		Blockers:           []string{},
		ProgressIndicators: []string{},
		OverallStatus:      fmt.Sprintf("Channel has %d recent messages", len(messages)),
		Sentiment:          "neutral",
		ActionItems:        []string{},
		Error:              cause.Error(),
	}
}
