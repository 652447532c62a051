// Package registry keeps the in-memory set of active transcription jobs.
//
// Records are written only by the lifecycle task that owns the job; readers
// (status queries, the HTTP API) get copies, so a snapshot may lag the remote
// service by up to one polling interval.
package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/elevateai"
)

var (
	// ErrDuplicate is returned when inserting an identifier that is already live
	ErrDuplicate = errors.New("job already registered")

	// ErrNotFound is returned when the identifier has no live record
	ErrNotFound = errors.New("job not registered")
)

// Record is the registry's view of one active job.
type Record struct {
	Identifier string
	Owner      string
	Channel    string
	Guild      string
	Language   string
	Status     elevateai.Status
	DeclaredAt time.Time
	LastUpdate time.Time
}

// Registry maps job identifiers to their records. The zero value is not
// usable; call New.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]Record
}

// New creates an empty registry
func New() *Registry {
	return &Registry{jobs: make(map[string]Record)}
}

// Insert adds a record. Identifiers are unique while live.
func (r *Registry) Insert(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[rec.Identifier]; exists {
		return ErrDuplicate
	}
	r.jobs[rec.Identifier] = rec
	return nil
}

// Get returns a copy of the record for identifier.
func (r *Registry) Get(identifier string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.jobs[identifier]
	return rec, ok
}

// UpdateStatus stores the latest observed status and its timestamp.
func (r *Registry) UpdateStatus(identifier string, status elevateai.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[identifier]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	rec.LastUpdate = at
	r.jobs[identifier] = rec
	return nil
}

// Remove deletes the record and reports whether one existed.
func (r *Registry) Remove(identifier string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.jobs[identifier]
	delete(r.jobs, identifier)
	return ok
}

// List returns copies of all live records, oldest declaration first.
func (r *Registry) List() []Record {
	r.mu.RLock()
	out := make([]Record, 0, len(r.jobs))
	for _, rec := range r.jobs {
		out = append(out, rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].DeclaredAt.Equal(out[j].DeclaredAt) {
			return out[i].Identifier < out[j].Identifier
		}
		return out[i].DeclaredAt.Before(out[j].DeclaredAt)
	})
	return out
}

// Len returns the number of live records
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
