package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/feeta/store"
)

const repoContextColumns = "id, full_name, context, language, metadata, access_count, created_ts, updated_ts"

func (d *DB) UpsertRepoContext(ctx context.Context, upsert *store.UpsertRepoContext) (*store.RepoContext, error) {
	contextJSON, err := json.Marshal(upsert.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal repo context: %w", err)
	}
	metadataJSON, err := json.Marshal(upsert.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal repo context metadata: %w", err)
	}

	now := time.Now().Unix()
	fields := []string{"full_name", "context", "language", "metadata", "access_count", "created_ts", "updated_ts"}
	args := []any{upsert.FullName, string(contextJSON), upsert.Language, string(metadataJSON), 1, now, now}

	stmt := `INSERT INTO repo_context (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (full_name) DO UPDATE SET
			context = EXCLUDED.context,
			language = EXCLUDED.language,
			metadata = EXCLUDED.metadata,
			access_count = repo_context.access_count + 1,
			updated_ts = EXCLUDED.updated_ts
		RETURNING ` + repoContextColumns

	result, err := scanRepoContext(d.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert repo_context: %w", err)
	}
	return result, nil
}

func (d *DB) GetRepoContext(ctx context.Context, find *store.FindRepoContext) (*store.RepoContext, error) {
	stmt := `UPDATE repo_context SET access_count = access_count + 1 WHERE full_name = ` + placeholder(1) + ` RETURNING ` + repoContextColumns

	result, err := scanRepoContext(d.db.QueryRowContext(ctx, stmt, find.FullName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get repo_context: %w", err)
	}
	return result, nil
}

func scanRepoContext(row *sql.Row) (*store.RepoContext, error) {
	result := &store.RepoContext{}
	var contextJSON, metadataJSON string
	if err := row.Scan(
		&result.ID,
		&result.FullName,
		&contextJSON,
		&result.Language,
		&metadataJSON,
		&result.AccessCount,
		&result.CreatedTs,
		&result.UpdatedTs,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(contextJSON), &result.Context); err != nil {
		return nil, fmt.Errorf("failed to unmarshal repo context: %w", err)
	}
	if err := json.Unmarshal([]byte(metadataJSON), &result.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal repo context metadata: %w", err)
	}
	return result, nil
}
