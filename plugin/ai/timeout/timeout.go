// Package timeout defines centralized timeout constants for outbound calls.
// Package timeout 定义外部调用的集中式超时常量。
package timeout

import "time"

// Generative model call timeouts.
// 生成式模型调用超时。
const (
	// TypeDetection is the timeout for the task type detection call.
	TypeDetection = 60 * time.Second

	// Clarity is the timeout for the clarity analysis call.
	Clarity = 60 * time.Second

	// DeepAnalysis is the timeout for the repository deep analysis call.
	DeepAnalysis = 30 * time.Second

	// Plan is the timeout for implementation plan generation.
	Plan = 20 * time.Second

	// Summary is the timeout for Slack channel summarization.
	Summary = 30 * time.Second
)

// Repository collaborator timeouts.
// 代码仓库调用超时。
const (
	// TreeFetch is the timeout for the first recursive tree fetch.
	TreeFetch = 60 * time.Second

	// TreeFallback is the timeout for the fallback branch tree fetch.
	TreeFallback = 15 * time.Second

	// ReadmeFetch is the timeout for the README fetch.
	ReadmeFetch = 10 * time.Second

	// CodeSearch is the timeout for a single code search call.
	CodeSearch = 10 * time.Second

	// RepoList is the timeout for listing the user's repositories.
	RepoList = 10 * time.Second

	// SlackCall is the timeout for a single Slack Web API call.
	SlackCall = 15 * time.Second
)

// MaxTruncateLength is the maximum length for truncating strings in logs.
// MaxTruncateLength 是日志中字符串截断的最大长度。
const MaxTruncateLength = 200

// Truncate shortens s to MaxTruncateLength runes for logging.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxTruncateLength {
		return s
	}
	return string(runes[:MaxTruncateLength]) + "..."
}
