package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/feeta/store"
)

func (d *DB) CreateConversationEntry(ctx context.Context, create *store.ConversationEntry) (*store.ConversationEntry, error) {
	analysis, err := nullableJSON(create.Analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis: %w", err)
	}
	plan, err := nullableJSON(create.Plan)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	historyStmt := `INSERT INTO conversation_history (session_id, created_ts, updated_ts)
		VALUES (` + placeholders(3) + `)
		ON CONFLICT (session_id) DO UPDATE SET updated_ts = EXCLUDED.updated_ts`
	if _, err := tx.ExecContext(ctx, historyStmt, create.SessionID, create.CreatedTs, create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert conversation_history: %w", err)
	}

	fields := []string{"uid", "session_id", "prompt", "analysis", "plan", "created_ts"}
	args := []any{create.UID, create.SessionID, create.Prompt, analysis, plan, create.CreatedTs}
	entryStmt := `INSERT INTO conversation_entry (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := tx.QueryRowContext(ctx, entryStmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create conversation_entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit conversation_entry: %w", err)
	}
	return create, nil
}

func (d *DB) ListConversationEntries(ctx context.Context, find *store.FindConversationEntry) ([]*store.ConversationEntry, error) {
	where, args := []string{"session_id = " + placeholder(1)}, []any{find.SessionID}

	query := `SELECT id, uid, session_id, prompt, analysis, plan, created_ts FROM conversation_entry WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts ASC, id ASC`
	if find.Limit != nil {
		query, args = query+" LIMIT "+placeholder(len(args)+1), append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation_entry: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ConversationEntry, 0)
	for rows.Next() {
		entry := &store.ConversationEntry{}
		var analysis, plan sql.NullString
		if err := rows.Scan(&entry.ID, &entry.UID, &entry.SessionID, &entry.Prompt, &analysis, &plan, &entry.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan conversation_entry: %w", err)
		}
		if entry.Analysis, err = scanJSON[store.Classification](analysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
		if entry.Plan, err = scanJSON[store.Plan](plan); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
		}
		list = append(list, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation_entry: %w", err)
	}
	return list, nil
}
