// Package history stores a summary of every finished transcription job in
// PostgreSQL so users can list their past jobs.
package history

import (
	"context"
	"fmt"

	"github.com/cuongbtq/transcribe-bot/internal/lifecycle/domain"
	"github.com/cuongbtq/transcribe-bot/shared/postgresql"
	"github.com/jmoiron/sqlx"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// Record stores a finished job. Recording the same job twice keeps the latest
// result.
func (s *Storage) Record(ctx context.Context, result domain.Result) error {
	entry := EntryFromResult(result)

	query := `
		INSERT INTO transcription_history (
			job_id, owner_id, guild_id, channel_id, language,
			final_status, outcome, detail, declared_at, finished_at
		) VALUES (
			:job_id, :owner_id, :guild_id, :channel_id, :language,
			:final_status, :outcome, :detail, :declared_at, :finished_at
		)
		ON CONFLICT (job_id) DO UPDATE SET
			final_status = EXCLUDED.final_status,
			outcome      = EXCLUDED.outcome,
			detail       = EXCLUDED.detail,
			finished_at  = EXCLUDED.finished_at
	`

	if _, err := s.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("failed to record job history: %w", err)
	}

	return nil
}

// ListByOwner returns up to filter.PageSize+1 entries, newest first. The extra
// row tells the caller whether another page exists.
func (s *Storage) ListByOwner(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `
        SELECT
            job_id, owner_id, guild_id, channel_id, language,
            final_status, outcome, detail, declared_at, finished_at
        FROM transcription_history
        WHERE owner_id = $1
    `
	args := []interface{}{filter.OwnerID}
	argIdx := 2

	if filter.Outcome != "" {
		query += fmt.Sprintf(" AND outcome = $%d", argIdx)
		args = append(args, filter.Outcome)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (finished_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.FinishedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY finished_at DESC, job_id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var entries []Entry
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list job history: %w", err)
	}

	return entries, nil
}
