package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/collector"
	"github.com/cuongbtq/transcribe-bot/internal/elevateai"
	"github.com/cuongbtq/transcribe-bot/internal/lifecycle/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Run_Succeeded(t *testing.T) {
	ft := newFakeTranscriber(steps(
		elevateai.StatusPendingProcessing,
		elevateai.StatusProcessing,
		elevateai.StatusProcessed,
	)...)
	h := newHarness(t, ft, nil)

	var seenBeforeFirstPoll bool
	ft.onStatus = func(identifier string) {
		if ft.statusCount(identifier) == 0 {
			rec, ok := h.registry.Get(identifier)
			seenBeforeFirstPoll = ok && rec.Status == elevateai.StatusDeclared
		}
	}

	replier := &fakeReplier{}
	outcome := h.controller.Run(context.Background(), audioRequest("call.wav", replier))

	assert.Equal(t, domain.OutcomeSucceeded, outcome)
	assert.True(t, seenBeforeFirstPoll, "record must be queryable before the first poll")
	assert.Equal(t, 3, ft.statusCount("job-call.wav"))
	assert.Equal(t, 1, ft.transcriptCount("job-call.wav"))
	assert.Zero(t, h.registry.Len())

	require.Len(t, ft.declared, 1)
	assert.Equal(t, "en-us", ft.declared[0].LanguageTag)
	assert.Equal(t, []byte("audio:call.wav"), ft.declared[0].Media)
	assert.Empty(t, ft.declared[0].URL)

	replies := replier.all()
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "/check job-call.wav")

	sent := h.messenger.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "user-1", sent[0].userID)
	assert.Contains(t, sent[0].msg.Content, "is ready")
	require.Len(t, sent[0].msg.Files, 2)
	assert.Equal(t, "transcript.txt", sent[0].msg.Files[0].Name)
	assert.Equal(t, "A:(0-5):0.9: hello", string(sent[0].msg.Files[0].Data))
	assert.Equal(t, "transcript.json", sent[0].msg.Files[1].Name)

	assert.Equal(t, []string{domain.EventDeclared, domain.EventSucceeded}, h.sinks.eventTypes())
	require.Len(t, h.sinks.results, 1)
	assert.Equal(t, domain.OutcomeSucceeded, h.sinks.results[0].Outcome)
	assert.Equal(t, elevateai.StatusProcessed, h.sinks.results[0].FinalStatus)
}

func TestController_Run_RemoteFailure(t *testing.T) {
	for _, status := range []elevateai.Status{
		elevateai.StatusProcessingFailed,
		elevateai.StatusFileDownloadFailed,
		elevateai.StatusFileUploadFailed,
	} {
		t.Run(status.String(), func(t *testing.T) {
			ft := newFakeTranscriber(steps(elevateai.StatusProcessing, status)...)
			h := newHarness(t, ft, nil)

			outcome := h.controller.Run(context.Background(), audioRequest("a.mp3", &fakeReplier{}))

			assert.Equal(t, domain.OutcomeFailed, outcome)
			assert.Zero(t, ft.transcriptCount("job-a.mp3"), "no transcript fetch on failure")
			assert.Zero(t, h.registry.Len())

			sent := h.messenger.messages()
			require.Len(t, sent, 1)
			assert.Contains(t, sent[0].msg.Content, "failed to generate")
			assert.Contains(t, sent[0].msg.Content, status.String())
			assert.Contains(t, sent[0].msg.Content, status.Explanation())
			assert.Empty(t, sent[0].msg.Files)

			require.Len(t, h.sinks.results, 1)
			assert.Equal(t, status, h.sinks.results[0].FinalStatus)
			assert.Contains(t, h.sinks.results[0].Detail, status.String())
		})
	}
}

func TestController_Run_EmptyTranscript(t *testing.T) {
	ft := newFakeTranscriber(steps(elevateai.StatusProcessed)...)
	ft.transcript = &elevateai.TranscriptResult{}
	h := newHarness(t, ft, nil)

	outcome := h.controller.Run(context.Background(), audioRequest("quiet.wav", &fakeReplier{}))

	assert.Equal(t, domain.OutcomeEmpty, outcome)
	sent := h.messenger.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].msg.Content, "came up empty")
	assert.Empty(t, sent[0].msg.Files)
	assert.Equal(t, []string{domain.EventDeclared, domain.EventEmpty}, h.sinks.eventTypes())
}

func TestController_Run_TranscriptFetchFails(t *testing.T) {
	ft := newFakeTranscriber(steps(elevateai.StatusProcessed)...)
	ft.transcriptErr = &elevateai.ServiceError{Op: "transcript", StatusCode: 500}
	h := newHarness(t, ft, nil)

	outcome := h.controller.Run(context.Background(), audioRequest("x.wav", &fakeReplier{}))

	assert.Equal(t, domain.OutcomeFailed, outcome)
	assert.Equal(t, 1, ft.transcriptCount("job-x.wav"))
	sent := h.messenger.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].msg.Content, "could not be retrieved")
}

func TestController_Run_DeclareFailure(t *testing.T) {
	ft := newFakeTranscriber(steps(elevateai.StatusProcessed)...)
	ft.declareErr = &elevateai.ServiceError{Op: "declare", Err: errors.New("connection refused")}
	h := newHarness(t, ft, nil)
	replier := &fakeReplier{}

	outcome := h.controller.Run(context.Background(), audioRequest("a.wav", replier))

	assert.Equal(t, domain.OutcomeDeclareFailed, outcome)
	assert.Equal(t, 1, ft.declareCount(), "declaration is never retried")
	assert.Zero(t, h.registry.Len())
	assert.Empty(t, h.messenger.messages())
	assert.Equal(t, []string{uploadFailedMessage}, replier.all())
	assert.Empty(t, h.sinks.results)
}

func TestController_Run_DownloadFailure(t *testing.T) {
	ft := newFakeTranscriber(steps(elevateai.StatusProcessed)...)
	h := newHarness(t, ft, nil)
	h.fetcher.err = errors.New("cdn unavailable")
	replier := &fakeReplier{}

	outcome := h.controller.Run(context.Background(), audioRequest("a.wav", replier))

	assert.Equal(t, domain.OutcomeDeclareFailed, outcome)
	assert.Zero(t, ft.declareCount())
	assert.Equal(t, []string{uploadFailedMessage}, replier.all())
}

func TestController_Run_AttachmentLinks(t *testing.T) {
	ft := newFakeTranscriber(steps(elevateai.StatusProcessed)...)
	h := newHarness(t, ft, func(cfg *Config) { cfg.UseAttachmentLinks = true })

	outcome := h.controller.Run(context.Background(), audioRequest("a.wav", &fakeReplier{}))

	assert.Equal(t, domain.OutcomeSucceeded, outcome)
	assert.Zero(t, h.fetcher.calls)
	require.Len(t, ft.declared, 1)
	assert.Equal(t, "https://cdn.example.com/a.wav", ft.declared[0].URL)
	assert.Nil(t, ft.declared[0].Media)
}

func TestController_Run_Language(t *testing.T) {
	tests := []struct {
		name     string
		language string
		want     domain.Outcome
		wantTag  string
	}{
		{name: "default", language: "", want: domain.OutcomeSucceeded, wantTag: "en-us"},
		{name: "case insensitive", language: "PT-BR", want: domain.OutcomeSucceeded, wantTag: "pt-br"},
		{name: "unsupported", language: "fr", want: domain.OutcomeRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := newFakeTranscriber(steps(elevateai.StatusProcessed)...)
			h := newHarness(t, ft, nil)
			replier := &fakeReplier{}
			req := audioRequest("a.wav", replier)
			req.Language = tt.language

			outcome := h.controller.Run(context.Background(), req)

			assert.Equal(t, tt.want, outcome)
			if tt.wantTag == "" {
				assert.Zero(t, ft.declareCount())
				require.Len(t, replier.all(), 1)
				assert.Equal(t, "Sorry, that's not a valid language. Please choose one of the following: en-us, en, es-419, pt-br", replier.all()[0])
				return
			}
			require.Len(t, ft.declared, 1)
			assert.Equal(t, tt.wantTag, ft.declared[0].LanguageTag)
		})
	}
}

func TestController_Run_CollectsAttachment(t *testing.T) {
	ft := newFakeTranscriber(steps(elevateai.StatusProcessed)...)
	h := newHarness(t, ft, nil)

	replier := &fakeReplier{}
	replier.onPrompt = func(sessionID string) {
		h.hub.Publish(collector.Message{
			AuthorID:    "user-1",
			ChannelID:   "chan-1",
			Attachments: []collector.Attachment{{Filename: "late.ogg"}},
		})
	}
	req := audioRequest("", replier)
	req.Attachment = nil

	outcome := h.controller.Run(context.Background(), req)

	assert.Equal(t, domain.OutcomeSucceeded, outcome)
	require.Len(t, replier.prompts, 1)
	assert.Contains(t, replier.prompts[0], "in the next 1 second")
	require.Len(t, ft.declared, 1)
	assert.Equal(t, "late.ogg", ft.declared[0].Filename)
	assert.Zero(t, h.hub.Len())
}

func TestController_Run_CollectionTimesOut(t *testing.T) {
	ft := newFakeTranscriber(steps(elevateai.StatusProcessed)...)
	h := newHarness(t, ft, func(cfg *Config) { cfg.AttachmentTimeout = 10 * time.Millisecond })
	replier := &fakeReplier{}
	req := audioRequest("", replier)
	req.Attachment = nil

	outcome := h.controller.Run(context.Background(), req)

	assert.Equal(t, domain.OutcomeTimedOut, outcome)
	assert.Zero(t, ft.declareCount(), "no job is declared after a timeout")
	assert.Equal(t, []string{timedOutMessage}, replier.all())
	assert.Zero(t, h.hub.Len())
	assert.Zero(t, h.registry.Len())
}

func TestController_Run_CollectionCancelled(t *testing.T) {
	ft := newFakeTranscriber(steps(elevateai.StatusProcessed)...)
	h := newHarness(t, ft, nil)
	replier := &fakeReplier{}
	replier.onPrompt = func(sessionID string) {
		require.NoError(t, h.collector.Cancel(sessionID, "user-1", "chan-1"))
	}
	req := audioRequest("", replier)
	req.Attachment = nil

	outcome := h.controller.Run(context.Background(), req)

	assert.Equal(t, domain.OutcomeCancelled, outcome)
	assert.Zero(t, ft.declareCount())
	assert.Equal(t, []string{cancelledMessage}, replier.all())
	assert.Zero(t, h.hub.Len())
}

func TestController_Run_PollErrors(t *testing.T) {
	transient := &elevateai.ServiceError{Op: "status", StatusCode: 503}

	t.Run("transient errors keep polling", func(t *testing.T) {
		ft := newFakeTranscriber(
			statusStep{err: transient},
			statusStep{err: &elevateai.ProtocolError{Op: "status", Err: errors.New("bad json")}},
			statusStep{status: elevateai.StatusProcessing},
			statusStep{err: transient},
			statusStep{status: elevateai.StatusProcessed},
		)
		h := newHarness(t, ft, nil)

		outcome := h.controller.Run(context.Background(), audioRequest("a.wav", &fakeReplier{}))

		assert.Equal(t, domain.OutcomeSucceeded, outcome)
		assert.Equal(t, 5, ft.statusCount("job-a.wav"))
	})

	t.Run("consecutive errors abandon the job", func(t *testing.T) {
		ft := newFakeTranscriber(statusStep{err: transient})
		h := newHarness(t, ft, nil)

		outcome := h.controller.Run(context.Background(), audioRequest("a.wav", &fakeReplier{}))

		assert.Equal(t, domain.OutcomeAbandoned, outcome)
		assert.Equal(t, 3, ft.statusCount("job-a.wav"))
		assert.Zero(t, h.registry.Len())
		sent := h.messenger.messages()
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0].msg.Content, "lost track")
		assert.Equal(t, []string{domain.EventDeclared, domain.EventAbandoned}, h.sinks.eventTypes())
	})
}

func TestController_Run_UnknownStatusKeepsPolling(t *testing.T) {
	ft := newFakeTranscriber(steps("archivedPendingReview", elevateai.StatusProcessed)...)
	h := newHarness(t, ft, nil)

	var cached []elevateai.Status
	ft.onStatus = func(identifier string) {
		if rec, ok := h.registry.Get(identifier); ok {
			cached = append(cached, rec.Status)
		}
	}

	outcome := h.controller.Run(context.Background(), audioRequest("a.wav", &fakeReplier{}))

	assert.Equal(t, domain.OutcomeSucceeded, outcome)
	assert.Equal(t, []elevateai.Status{elevateai.StatusDeclared, "archivedPendingReview"}, cached)
}

func TestController_Run_Interrupted(t *testing.T) {
	ft := newFakeTranscriber(steps(elevateai.StatusProcessing)...)
	h := newHarness(t, ft, nil)
	ctx, cancel := context.WithCancel(context.Background())
	ft.onStatus = func(identifier string) {
		if ft.statusCount(identifier) == 2 {
			cancel()
		}
	}

	outcome := h.controller.Run(ctx, audioRequest("a.wav", &fakeReplier{}))

	assert.Equal(t, domain.OutcomeInterrupted, outcome)
	assert.Zero(t, h.registry.Len())
	assert.Empty(t, h.messenger.messages())
	require.Len(t, h.sinks.results, 1)
	assert.Equal(t, domain.OutcomeInterrupted, h.sinks.results[0].Outcome)
}

func TestController_Run_SlowWarning(t *testing.T) {
	ft := newFakeTranscriber(steps(
		elevateai.StatusProcessing,
		elevateai.StatusProcessing,
		elevateai.StatusProcessing,
		elevateai.StatusProcessed,
	)...)

	clock := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, ft, func(cfg *Config) {
		cfg.SlowWarningAfter = 90 * time.Second
		cfg.Now = func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}
	})

	outcome := h.controller.Run(context.Background(), audioRequest("long.wav", &fakeReplier{}))

	assert.Equal(t, domain.OutcomeSucceeded, outcome)
	sent := h.messenger.messages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].msg.Content, "taking longer than expected (2 minutes so far)")
	assert.Contains(t, sent[1].msg.Content, "is ready")
}

func TestController_SubmitConcurrentJobs(t *testing.T) {
	ft := newFakeTranscriber(steps(elevateai.StatusProcessing, elevateai.StatusProcessed)...)
	ft.scripts["job-bad.wav"] = steps(elevateai.StatusProcessing, elevateai.StatusProcessingFailed)
	h := newHarness(t, ft, nil)

	const jobs = 10
	for i := 0; i < jobs; i++ {
		req := audioRequest(fmt.Sprintf("ok-%d.wav", i), &fakeReplier{})
		req.Owner = fmt.Sprintf("user-%d", i)
		h.controller.Submit(context.Background(), req)
	}
	h.controller.Submit(context.Background(), audioRequest("bad.wav", &fakeReplier{}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.controller.Shutdown(ctx))

	assert.Zero(t, h.registry.Len())
	sent := h.messenger.messages()
	require.Len(t, sent, jobs+1)

	var ready, failed int
	for _, m := range sent {
		switch {
		case strings.Contains(m.msg.Content, "is ready"):
			ready++
		case strings.Contains(m.msg.Content, "failed to generate"):
			failed++
			assert.Equal(t, "user-1", m.userID)
			assert.Contains(t, m.msg.Content, "job-bad.wav")
		}
	}
	assert.Equal(t, jobs, ready)
	assert.Equal(t, 1, failed)
}

func TestController_ShutdownTimeout(t *testing.T) {
	ft := newFakeTranscriber(steps(elevateai.StatusProcessing)...)
	h := newHarness(t, ft, func(cfg *Config) { cfg.PollInterval = time.Hour })

	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	h.controller.Submit(jobCtx, audioRequest("a.wav", &fakeReplier{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := h.controller.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	stopJobs()
	require.NoError(t, h.controller.Shutdown(context.Background()))
	assert.Zero(t, h.registry.Len())
}

func TestHumanizeDuration(t *testing.T) {
	assert.Equal(t, "6 minutes", humanizeDuration(360*time.Second))
	assert.Equal(t, "1 minute", humanizeDuration(90*time.Second))
	assert.Equal(t, "45 seconds", humanizeDuration(45*time.Second))
	assert.Equal(t, "1 second", humanizeDuration(time.Second))
}
