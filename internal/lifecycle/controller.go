// Package lifecycle runs transcription jobs from attachment collection
// through declaration, status polling and result delivery. Each submission
// runs on its own goroutine with no coordination between jobs.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/collector"
	"github.com/cuongbtq/transcribe-bot/internal/elevateai"
	"github.com/cuongbtq/transcribe-bot/internal/lifecycle/domain"
	"github.com/cuongbtq/transcribe-bot/internal/registry"
)

const (
	defaultPollInterval      = 30 * time.Second
	defaultAttachmentTimeout = 360 * time.Second
)

// Transcriber is the remote transcription service
type Transcriber interface {
	Declare(ctx context.Context, req elevateai.DeclareRequest) (*elevateai.JobHandle, error)
	Status(ctx context.Context, identifier string) (elevateai.Status, error)
	Transcript(ctx context.Context, identifier string) (*elevateai.TranscriptResult, error)
}

// AttachmentCollector waits for a user to supply a file
type AttachmentCollector interface {
	Collect(ctx context.Context, req collector.Request, prompt collector.PromptFunc) (collector.Outcome, error)
}

// Fetcher downloads attachment bytes from the chat platform
type Fetcher interface {
	Fetch(ctx context.Context, att collector.Attachment) ([]byte, error)
}

// Recorder stores the summary of a finished job
type Recorder interface {
	Record(ctx context.Context, result domain.Result) error
}

// Publisher emits lifecycle events
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Config holds controller configuration
type Config struct {
	Logger      *slog.Logger
	Transcriber Transcriber
	Registry    *registry.Registry
	Collector   AttachmentCollector
	Fetcher     Fetcher
	Messenger   domain.Messenger

	// Optional sinks; nil disables them.
	Recorder  Recorder
	Publisher Publisher

	PollInterval       time.Duration
	AttachmentTimeout  time.Duration
	SlowWarningAfter   time.Duration // 0 disables the warning
	MaxPollFailures    int           // 0 polls forever through errors
	UseAttachmentLinks bool
	Languages          []string
	DefaultLanguage    string

	Now func() time.Time
}

// Controller drives transcription jobs
type Controller struct {
	logger      *slog.Logger
	transcriber Transcriber
	registry    *registry.Registry
	collector   AttachmentCollector
	fetcher     Fetcher
	messenger   domain.Messenger
	recorder    Recorder
	publisher   Publisher

	pollInterval       time.Duration
	attachmentTimeout  time.Duration
	slowWarningAfter   time.Duration
	maxPollFailures    int
	useAttachmentLinks bool
	languages          map[string]bool
	languageList       []string
	defaultLanguage    string
	now                func() time.Time

	wg sync.WaitGroup
}

// NewController creates a new controller instance
func NewController(cfg *Config) *Controller {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	attachmentTimeout := cfg.AttachmentTimeout
	if attachmentTimeout <= 0 {
		attachmentTimeout = defaultAttachmentTimeout
	}

	languageList := cfg.Languages
	if len(languageList) == 0 {
		languageList = domain.SupportedLanguages
	}
	languages := make(map[string]bool, len(languageList))
	for _, lang := range languageList {
		languages[strings.ToLower(lang)] = true
	}

	defaultLanguage := strings.ToLower(cfg.DefaultLanguage)
	if defaultLanguage == "" {
		defaultLanguage = domain.DefaultLanguage
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Controller{
		logger:             cfg.Logger,
		transcriber:        cfg.Transcriber,
		registry:           cfg.Registry,
		collector:          cfg.Collector,
		fetcher:            cfg.Fetcher,
		messenger:          cfg.Messenger,
		recorder:           cfg.Recorder,
		publisher:          cfg.Publisher,
		pollInterval:       pollInterval,
		attachmentTimeout:  attachmentTimeout,
		slowWarningAfter:   cfg.SlowWarningAfter,
		maxPollFailures:    cfg.MaxPollFailures,
		useAttachmentLinks: cfg.UseAttachmentLinks,
		languages:          languages,
		languageList:       languageList,
		defaultLanguage:    defaultLanguage,
		now:                now,
	}
}

// Submit starts a job on its own goroutine. ctx should outlive the invoking
// command: cancelling it abandons the job.
func (c *Controller) Submit(ctx context.Context, req domain.Request) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("Job task panicked",
					slog.String("owner", req.Owner),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()

		c.Run(ctx, req)
	}()
}

// Shutdown waits for running jobs to return. Callers cancel the context given
// to Submit first; jobs still polling are abandoned.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.logger.Info("Stopping lifecycle controller...")

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Lifecycle controller stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("lifecycle controller shutdown: %w", ctx.Err())
	}
}

// Languages returns the accepted language tags in display order
func (c *Controller) Languages() []string {
	return c.languageList
}

func (c *Controller) normalizeLanguage(lang string) (string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return c.defaultLanguage, nil
	}
	if !c.languages[lang] {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidLanguage, lang)
	}
	return lang, nil
}
