package domain

import (
	"errors"
	"fmt"

	"github.com/cuongbtq/transcribe-bot/internal/elevateai"
)

// ErrInvalidLanguage is returned when the requested language is not supported
var ErrInvalidLanguage = errors.New("unsupported language")

// JobFailure reports a terminal failure status from the remote service.
type JobFailure struct {
	Identifier string
	Status     elevateai.Status
}

func (e *JobFailure) Error() string {
	return fmt.Sprintf("job %s failed remotely with status %s", e.Identifier, e.Status)
}

// AbandonedError reports that a job stopped being tracked before reaching a
// terminal status, after too many consecutive status check failures.
type AbandonedError struct {
	Identifier string
	Attempts   int
	Err        error
}

func (e *AbandonedError) Error() string {
	return fmt.Sprintf("job %s abandoned after %d failed status checks: %v", e.Identifier, e.Attempts, e.Err)
}

func (e *AbandonedError) Unwrap() error {
	return e.Err
}
