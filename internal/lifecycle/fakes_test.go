package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/collector"
	"github.com/cuongbtq/transcribe-bot/internal/elevateai"
	"github.com/cuongbtq/transcribe-bot/internal/lifecycle/domain"
	"github.com/cuongbtq/transcribe-bot/internal/registry"
)

type statusStep struct {
	status elevateai.Status
	err    error
}

// fakeTranscriber scripts status sequences per identifier. Identifiers are
// "job-" + the declared filename.
type fakeTranscriber struct {
	mu sync.Mutex

	declareErr    error
	scripts       map[string][]statusStep
	defaultScript []statusStep
	transcript    *elevateai.TranscriptResult
	transcriptErr error
	onStatus      func(identifier string)

	positions       map[string]int
	declared        []elevateai.DeclareRequest
	statusCalls     map[string]int
	transcriptCalls map[string]int
}

func newFakeTranscriber(script ...statusStep) *fakeTranscriber {
	return &fakeTranscriber{
		scripts:         make(map[string][]statusStep),
		defaultScript:   script,
		positions:       make(map[string]int),
		statusCalls:     make(map[string]int),
		transcriptCalls: make(map[string]int),
		transcript: &elevateai.TranscriptResult{Document: &elevateai.Document{
			SentenceSegments: []elevateai.Segment{
				{Participant: "A", StartTimeOffset: 0, EndTimeOffset: 5, Score: 0.9, Phrase: "hello"},
			},
		}},
	}
}

func steps(statuses ...elevateai.Status) []statusStep {
	out := make([]statusStep, len(statuses))
	for i, s := range statuses {
		out[i] = statusStep{status: s}
	}
	return out
}

func (f *fakeTranscriber) Declare(ctx context.Context, req elevateai.DeclareRequest) (*elevateai.JobHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.declared = append(f.declared, req)
	if f.declareErr != nil {
		return nil, f.declareErr
	}
	return &elevateai.JobHandle{Identifier: "job-" + req.Filename, Status: elevateai.StatusDeclared}, nil
}

func (f *fakeTranscriber) Status(ctx context.Context, identifier string) (elevateai.Status, error) {
	if f.onStatus != nil {
		f.onStatus(identifier)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.statusCalls[identifier]++
	script, ok := f.scripts[identifier]
	if !ok {
		script = f.defaultScript
	}
	pos := f.positions[identifier]
	if pos >= len(script) {
		pos = len(script) - 1
	} else {
		f.positions[identifier] = pos + 1
	}
	step := script[pos]
	return step.status, step.err
}

func (f *fakeTranscriber) Transcript(ctx context.Context, identifier string) (*elevateai.TranscriptResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.transcriptCalls[identifier]++
	return f.transcript, f.transcriptErr
}

func (f *fakeTranscriber) declareCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.declared)
}

func (f *fakeTranscriber) statusCount(identifier string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls[identifier]
}

func (f *fakeTranscriber) transcriptCount(identifier string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transcriptCalls[identifier]
}

type fakeReplier struct {
	mu       sync.Mutex
	replies  []string
	prompts  []string
	onPrompt func(sessionID string)
}

func (r *fakeReplier) Reply(ctx context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, content)
	return nil
}

func (r *fakeReplier) PromptAttachment(ctx context.Context, sessionID, content string) error {
	r.mu.Lock()
	r.prompts = append(r.prompts, content)
	r.mu.Unlock()

	if r.onPrompt != nil {
		r.onPrompt(sessionID)
	}
	return nil
}

func (r *fakeReplier) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.replies...)
}

type sentMessage struct {
	userID string
	msg    domain.DirectMessage
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (m *fakeMessenger) SendDirect(ctx context.Context, userID string, msg domain.DirectMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{userID: userID, msg: msg})
	return nil
}

func (m *fakeMessenger) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, att collector.Attachment) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("audio:" + att.Filename), nil
}

type fakeSinks struct {
	mu      sync.Mutex
	results []domain.Result
	events  []domain.Event
}

func (s *fakeSinks) Record(ctx context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *fakeSinks) Publish(ctx context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return errors.New("broker unavailable")
}

func (s *fakeSinks) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

type harness struct {
	controller  *Controller
	transcriber *fakeTranscriber
	registry    *registry.Registry
	hub         *collector.Hub
	collector   *collector.Collector
	messenger   *fakeMessenger
	fetcher     *fakeFetcher
	sinks       *fakeSinks
}

func newHarness(t *testing.T, ft *fakeTranscriber, configure func(cfg *Config)) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := collector.NewHub()
	h := &harness{
		transcriber: ft,
		registry:    registry.New(),
		hub:         hub,
		collector:   collector.New(hub, logger),
		messenger:   &fakeMessenger{},
		fetcher:     &fakeFetcher{},
		sinks:       &fakeSinks{},
	}

	cfg := &Config{
		Logger:            logger,
		Transcriber:       ft,
		Registry:          h.registry,
		Collector:         h.collector,
		Fetcher:           h.fetcher,
		Messenger:         h.messenger,
		Recorder:          h.sinks,
		Publisher:         h.sinks,
		PollInterval:      time.Millisecond,
		AttachmentTimeout: time.Second,
		MaxPollFailures:   3,
	}
	if configure != nil {
		configure(cfg)
	}
	h.controller = NewController(cfg)
	return h
}

func audioRequest(filename string, replier *fakeReplier) domain.Request {
	return domain.Request{
		Owner:      "user-1",
		Channel:    "chan-1",
		Guild:      "guild-1",
		Attachment: &collector.Attachment{Filename: filename, URL: "https://cdn.example.com/" + filename},
		Replier:    replier,
	}
}
