// Package slack posts messages to and reads history from Slack channels
// through the Slack Web API.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://slack.com/api"

	DefaultHistoryLimit = 50

	unknownUser = "Unknown"
	botUser     = "Bot"
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client is a Slack Web API client. Each call carries the caller's token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Slack client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
	}
}

// Message is a channel message with the author resolved to a display name.
type Message struct {
	Text      string `json:"text"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// Channel is a conversation visible to the token.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsPrivate  bool   `json:"is_private"`
	IsMember   bool   `json:"is_member"`
	NumMembers int    `json:"num_members"`
}

// PostResult identifies a posted message.
type PostResult struct {
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (e envelope) err(method string) error {
	if e.OK {
		return nil
	}
	return &APIError{Method: method, Code: e.Error, StatusCode: http.StatusOK}
}

// PostMessage joins channel, then posts text to it. A non-empty
// mentionUserID prefixes the text with a mention. A failed join is logged
// and the post is still attempted.
func (c *Client) PostMessage(ctx context.Context, token, channel, text, mentionUserID string) (*PostResult, error) {
	var joined envelope
	if err := c.postJSON(ctx, "conversations.join", token, map[string]string{"channel": channel}, &joined); err != nil {
		slog.Warn("failed to join slack channel", "channel", channel, "error", err)
	} else if err := joined.err("conversations.join"); err != nil {
		slog.Warn("failed to join slack channel", "channel", channel, "error", err)
	}

	if mentionUserID != "" {
		text = fmt.Sprintf("<@%s> %s", mentionUserID, text)
	}

	var resp struct {
		envelope
		PostResult
	}
	if err := c.postJSON(ctx, "chat.postMessage", token, map[string]string{"channel": channel, "text": text}, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("chat.postMessage"); err != nil {
		return nil, err
	}
	return &resp.PostResult, nil
}

// ChannelHistory returns the latest limit messages of channel, newest first.
// Authors are resolved to real names once per call; unresolvable users
// become "Unknown" and messages without a user become "Bot".
func (c *Client) ChannelHistory(ctx context.Context, token, channel string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var resp struct {
		envelope
		Messages []struct {
			Text string `json:"text"`
			User string `json:"user"`
			TS   string `json:"ts"`
			Type string `json:"type"`
		} `json:"messages"`
	}
	query := url.Values{"channel": {channel}, "limit": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, "conversations.history", token, query, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("conversations.history"); err != nil {
		return nil, err
	}

	names := make(map[string]string)
	messages := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		author := botUser
		if m.User != "" {
			name, ok := names[m.User]
			if !ok {
				name = c.realName(ctx, token, m.User)
				names[m.User] = name
			}
			author = name
		}
		msgType := m.Type
		if msgType == "" {
			msgType = "message"
		}
		messages = append(messages, Message{Text: m.Text, User: author, Timestamp: m.TS, Type: msgType})
	}
	return messages, nil
}

func (c *Client) realName(ctx context.Context, token, userID string) string {
	var resp struct {
		envelope
		User struct {
			RealName string `json:"real_name"`
		} `json:"user"`
	}
	if err := c.getJSON(ctx, "users.info", token, url.Values{"user": {userID}}, &resp); err != nil {
		slog.Warn("failed to resolve slack user", "user", userID, "error", err)
		return unknownUser
	}
	if !resp.OK || resp.User.RealName == "" {
		return unknownUser
	}
	return resp.User.RealName
}

// ListChannels returns the public and private channels visible to the token.
func (c *Client) ListChannels(ctx context.Context, token string) ([]Channel, error) {
	var resp struct {
		envelope
		Channels []Channel `json:"channels"`
	}
	query := url.Values{"types": {"public_channel,private_channel"}}
	if err := c.getJSON(ctx, "conversations.list", token, query, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("conversations.list"); err != nil {
		return nil, err
	}
	if resp.Channels == nil {
		resp.Channels = []Channel{}
	}
	return resp.Channels, nil
}

func (c *Client) getJSON(ctx context.Context, method, token string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+method+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("slack %s: failed to build request: %w", method, err)
	}
	return c.do(token, method, req, out)
}

func (c *Client) postJSON(ctx context.Context, method, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("slack %s: failed to encode payload: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack %s: failed to build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return c.do(token, method, req, out)
}

func (c *Client) do(token, method string, req *http.Request, out any) error {
	client := c.httpClient
	if token != "" {
		ctx := context.WithValue(req.Context(), oauth2.HTTPClient, c.httpClient)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("slack %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Method: method, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("slack %s: failed to decode response: %w", method, err)
	}
	return nil
}
