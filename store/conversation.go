package store

// ConversationEntry is one append-only record of a session's history.
// Entries are never updated or deleted.
type ConversationEntry struct {
	ID        int32           `json:"-"`
	UID       string          `json:"uid"`
	SessionID string          `json:"session_id"`
	Prompt    string          `json:"prompt"`
	Analysis  *Classification `json:"analysis"`
	Plan      *Plan           `json:"plan"`
	// CreatedTs is the append time in unix milliseconds.
	CreatedTs int64 `json:"timestamp"`
}

type FindConversationEntry struct {
	SessionID string
	Limit     *int
}
