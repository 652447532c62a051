package history

import (
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/lifecycle/domain"
)

// Entry is one finished job as stored in transcription_history
type Entry struct {
	JobID       string    `db:"job_id"`
	OwnerID     string    `db:"owner_id"`
	GuildID     string    `db:"guild_id"`
	ChannelID   string    `db:"channel_id"`
	Language    string    `db:"language"`
	FinalStatus string    `db:"final_status"`
	Outcome     string    `db:"outcome"`
	Detail      string    `db:"detail"`
	DeclaredAt  time.Time `db:"declared_at"`
	FinishedAt  time.Time `db:"finished_at"`
}

// EntryFromResult maps a lifecycle result to its stored form.
func EntryFromResult(result domain.Result) Entry {
	return Entry{
		JobID:       result.Identifier,
		OwnerID:     result.Owner,
		GuildID:     result.Guild,
		ChannelID:   result.Channel,
		Language:    result.Language,
		FinalStatus: result.FinalStatus.String(),
		Outcome:     string(result.Outcome),
		Detail:      result.Detail,
		DeclaredAt:  result.DeclaredAt.UTC(),
		FinishedAt:  result.FinishedAt.UTC(),
	}
}

// Filter selects one page of an owner's history
type Filter struct {
	OwnerID  string
	Outcome  string
	PageSize int
	Cursor   *Cursor
}

// Cursor marks the last entry of the previous page
type Cursor struct {
	FinishedAt time.Time
	JobID      string
}
