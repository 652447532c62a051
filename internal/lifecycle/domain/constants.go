package domain

// Outcome is how a transcription request ended
type Outcome string

// Request outcomes
const (
	OutcomeSucceeded       Outcome = "succeeded"
	OutcomeEmpty           Outcome = "empty"
	OutcomeFailed          Outcome = "failed"
	OutcomeAbandoned       Outcome = "abandoned"
	OutcomeInterrupted     Outcome = "interrupted"
	OutcomeDeclareFailed   Outcome = "declare_failed"
	OutcomeCancelled       Outcome = "cancelled"
	OutcomeTimedOut        Outcome = "timed_out"
	OutcomeRejected        Outcome = "rejected"
	OutcomeCollectionError Outcome = "collection_error"
)

// Declared reports whether the outcome concerns a job that was declared on
// the remote service.
func (o Outcome) Declared() bool {
	switch o {
	case OutcomeSucceeded, OutcomeEmpty, OutcomeFailed, OutcomeAbandoned, OutcomeInterrupted:
		return true
	}
	return false
}

// Event types published for declared jobs
const (
	EventDeclared  = "job.declared"
	EventSucceeded = "job.succeeded"
	EventEmpty     = "job.empty"
	EventFailed    = "job.failed"
	EventAbandoned = "job.abandoned"
)

// DefaultLanguage is used when the requester does not pick one
const DefaultLanguage = "en-us"

// SupportedLanguages lists the language tags accepted by default
var SupportedLanguages = []string{"en-us", "en", "es-419", "pt-br"}
