package domain

import (
	"context"
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/collector"
	"github.com/cuongbtq/transcribe-bot/internal/elevateai"
)

// Replier answers the requester in the context of the invoking command.
// Replies are only visible to the requester.
type Replier interface {
	Reply(ctx context.Context, content string) error
	PromptAttachment(ctx context.Context, sessionID, content string) error
}

// File is an attachment on a direct message
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// DirectMessage is a private message to a user
type DirectMessage struct {
	Content string
	Files   []File
}

// Messenger delivers private messages. Results are sent this way because the
// invoking command's context may have expired by the time a job finishes.
type Messenger interface {
	SendDirect(ctx context.Context, userID string, msg DirectMessage) error
}

// Request is one user submission
type Request struct {
	Owner      string
	Channel    string
	Guild      string
	Language   string
	Attachment *collector.Attachment // nil when the command carried no file
	Replier    Replier
}

// Result summarizes a declared job once it stops being tracked
type Result struct {
	Identifier  string
	Owner       string
	Channel     string
	Guild       string
	Language    string
	FinalStatus elevateai.Status
	Outcome     Outcome
	Detail      string
	DeclaredAt  time.Time
	FinishedAt  time.Time
}

// Event is a lifecycle notification for a declared job
type Event struct {
	Type       string           `json:"event_type"`
	Identifier string           `json:"job_id"`
	Owner      string           `json:"owner"`
	Guild      string           `json:"guild,omitempty"`
	Status     elevateai.Status `json:"status,omitempty"`
	Detail     string           `json:"detail,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
