package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/transcribe-bot/internal/history"
	"github.com/cuongbtq/transcribe-bot/internal/jobstatus"
)

// StatusQuerier answers status queries from cached job state
type StatusQuerier interface {
	Query(identifier, requestingUser string, privileged bool) (jobstatus.Snapshot, error)
	Active() []jobstatus.Snapshot
}

// HistoryStore lists finished jobs
type HistoryStore interface {
	ListByOwner(ctx context.Context, filter history.Filter) ([]history.Entry, error)
}

// HealthCheck reports whether one dependency is usable
type HealthCheck func(ctx context.Context) error

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	ServiceName string
	AdminToken  string
	Status      StatusQuerier
	History     HistoryStore // nil when history is disabled
	Checks      map[string]HealthCheck
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger  *slog.Logger
	status  StatusQuerier
	history HistoryStore
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:  deps.Logger,
		status:  deps.Status,
		history: deps.History,
	}
}
