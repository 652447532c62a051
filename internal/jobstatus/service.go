// Package jobstatus answers status queries for active jobs from the
// registry's cached records. It never calls the transcription service.
package jobstatus

import (
	"errors"
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/elevateai"
	"github.com/cuongbtq/transcribe-bot/internal/registry"
)

var (
	// ErrNotFound is returned for unknown or already finished jobs
	ErrNotFound = errors.New("job not found")

	// ErrForbidden is returned when the caller neither owns the job nor is privileged
	ErrForbidden = errors.New("not allowed to view this job")
)

// Reader is the read side of the job registry
type Reader interface {
	Get(identifier string) (registry.Record, bool)
	List() []registry.Record
}

// Snapshot is the cached state of one job at query time.
type Snapshot struct {
	Identifier  string
	Owner       string
	Guild       string
	Channel     string
	Language    string
	Status      elevateai.Status
	Explanation string
	DeclaredAt  time.Time
	LastUpdate  time.Time
}

// Service serves status queries
type Service struct {
	jobs Reader
}

// NewService creates a query service over the given registry
func NewService(jobs Reader) *Service {
	return &Service{jobs: jobs}
}

// Query returns the last cached snapshot of a job. Only the owner or a
// privileged caller may read it.
func (s *Service) Query(identifier, requestingUser string, privileged bool) (Snapshot, error) {
	rec, ok := s.jobs.Get(identifier)
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	if !privileged && rec.Owner != requestingUser {
		return Snapshot{}, ErrForbidden
	}
	return snapshotOf(rec), nil
}

// Active lists every active job. It is meant for privileged callers only.
func (s *Service) Active() []Snapshot {
	records := s.jobs.List()
	out := make([]Snapshot, len(records))
	for i, rec := range records {
		out[i] = snapshotOf(rec)
	}
	return out
}

func snapshotOf(rec registry.Record) Snapshot {
	return Snapshot{
		Identifier:  rec.Identifier,
		Owner:       rec.Owner,
		Guild:       rec.Guild,
		Channel:     rec.Channel,
		Language:    rec.Language,
		Status:      rec.Status,
		Explanation: rec.Status.Explanation(),
		DeclaredAt:  rec.DeclaredAt,
		LastUpdate:  rec.LastUpdate,
	}
}
