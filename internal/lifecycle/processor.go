package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/collector"
	"github.com/cuongbtq/transcribe-bot/internal/elevateai"
	"github.com/cuongbtq/transcribe-bot/internal/lifecycle/domain"
	"github.com/cuongbtq/transcribe-bot/internal/registry"
)

// Run processes one submission to completion and returns how it ended:
// awaiting attachment (when none was supplied), declaring, polling until a
// terminal status, then delivering the transcript or a failure notice.
func (c *Controller) Run(ctx context.Context, req domain.Request) domain.Outcome {
	logger := c.logger.With(
		slog.String("owner", req.Owner),
		slog.String("channel", req.Channel),
	)

	// Step 1: Validate language
	language, err := c.normalizeLanguage(req.Language)
	if err != nil {
		logger.Info("Rejected transcription request", slog.String("error", err.Error()))
		c.reply(ctx, logger, req, invalidLanguageMessage(c.languageList))
		return domain.OutcomeRejected
	}

	// Step 2: Obtain the attachment, waiting for one when the command had none
	attachment := req.Attachment
	if attachment == nil {
		outcome, err := c.collector.Collect(ctx, collector.Request{
			Requester: req.Owner,
			Channel:   req.Channel,
			Timeout:   c.attachmentTimeout,
		}, func(ctx context.Context, sessionID string) error {
			return req.Replier.PromptAttachment(ctx, sessionID, promptMessage(c.attachmentTimeout))
		})
		if err != nil {
			logger.Error("Attachment collection failed", slog.String("error", err.Error()))
			return domain.OutcomeCollectionError
		}

		switch outcome.Kind {
		case collector.Cancelled:
			c.reply(ctx, logger, req, cancelledMessage)
			return domain.OutcomeCancelled
		case collector.TimedOut:
			c.reply(ctx, logger, req, timedOutMessage)
			return domain.OutcomeTimedOut
		}
		attachment = outcome.Attachment
	}

	// Step 3: Declare the job remotely
	handle, err := c.declare(ctx, language, *attachment)
	if err != nil {
		logger.Error("Failed to declare transcription job",
			slog.String("filename", attachment.Filename),
			slog.Bool("transport", isTransportError(err)),
			slog.String("error", err.Error()),
		)
		c.reply(ctx, logger, req, uploadFailedMessage)
		return domain.OutcomeDeclareFailed
	}

	logger = logger.With(slog.String("job_id", handle.Identifier))

	// Step 4: Register the job so status queries work before the first poll
	now := c.now()
	rec := registry.Record{
		Identifier: handle.Identifier,
		Owner:      req.Owner,
		Channel:    req.Channel,
		Guild:      req.Guild,
		Language:   language,
		Status:     handle.Status,
		DeclaredAt: now,
		LastUpdate: now,
	}
	if err := c.registry.Insert(rec); err != nil {
		logger.Error("Failed to register job", slog.String("error", err.Error()))
		c.reply(ctx, logger, req, uploadFailedMessage)
		return domain.OutcomeDeclareFailed
	}

	logger.Info("Transcription job declared", slog.String("status", handle.Status.String()))
	c.reply(ctx, logger, req, startedMessage(handle.Identifier))
	c.publish(ctx, logger, domain.Event{
		Type:       domain.EventDeclared,
		Identifier: rec.Identifier,
		Owner:      rec.Owner,
		Guild:      rec.Guild,
		Status:     rec.Status,
		OccurredAt: now,
	})

	// Step 5: Poll until terminal and deliver
	result := c.poll(ctx, logger, rec)
	c.finish(ctx, logger, result)
	return result.Outcome
}

func (c *Controller) declare(ctx context.Context, language string, att collector.Attachment) (*elevateai.JobHandle, error) {
	declareReq := elevateai.DeclareRequest{
		LanguageTag: language,
		Filename:    att.Filename,
	}

	if c.useAttachmentLinks {
		declareReq.URL = att.URL
	} else {
		data, err := c.fetcher.Fetch(ctx, att)
		if err != nil {
			return nil, fmt.Errorf("failed to download attachment: %w", err)
		}
		declareReq.Media = data
	}

	return c.transcriber.Declare(ctx, declareReq)
}

// poll checks the remote status on a fixed delay until the job reaches a
// terminal state, is abandoned, or ctx ends. The job's record is removed on
// every return path.
func (c *Controller) poll(ctx context.Context, logger *slog.Logger, rec registry.Record) domain.Result {
	result := domain.Result{
		Identifier:  rec.Identifier,
		Owner:       rec.Owner,
		Channel:     rec.Channel,
		Guild:       rec.Guild,
		Language:    rec.Language,
		FinalStatus: rec.Status,
		DeclaredAt:  rec.DeclaredAt,
	}
	defer c.registry.Remove(rec.Identifier)

	wait := time.NewTimer(c.pollInterval)
	defer wait.Stop()

	failures := 0
	warned := false

	for {
		select {
		case <-ctx.Done():
			logger.Warn("Polling interrupted, abandoning job", slog.String("error", ctx.Err().Error()))
			result.Outcome = domain.OutcomeInterrupted
			result.Detail = ctx.Err().Error()
			return result
		case <-wait.C:
		}

		status, err := c.transcriber.Status(ctx, rec.Identifier)
		if err != nil {
			failures++
			logger.Warn("Status check failed",
				slog.Int("consecutive_failures", failures),
				slog.String("error", err.Error()),
			)
			if c.maxPollFailures > 0 && failures >= c.maxPollFailures {
				abandoned := &domain.AbandonedError{Identifier: rec.Identifier, Attempts: failures, Err: err}
				result.Outcome = domain.OutcomeAbandoned
				result.Detail = abandoned.Error()
				return result
			}
			wait.Reset(c.pollInterval)
			continue
		}
		failures = 0

		now := c.now()
		if err := c.registry.UpdateStatus(rec.Identifier, status, now); err != nil {
			logger.Error("Failed to update cached status", slog.String("error", err.Error()))
		}
		result.FinalStatus = status

		if !status.Known() {
			logger.Warn("Unrecognized status from remote service", slog.String("status", status.String()))
		} else {
			logger.Debug("Status checked", slog.String("status", status.String()))
		}

		if status.Terminal() {
			c.registry.Remove(rec.Identifier)
			if status.Succeeded() {
				result.Outcome = domain.OutcomeSucceeded
			} else {
				result.Outcome = domain.OutcomeFailed
				result.Detail = (&domain.JobFailure{Identifier: rec.Identifier, Status: status}).Error()
			}
			return result
		}

		if c.slowWarningAfter > 0 && !warned && now.Sub(rec.DeclaredAt) > c.slowWarningAfter {
			warned = true
			c.direct(ctx, logger, rec.Owner, domain.DirectMessage{
				Content: slowMessage(rec.Identifier, now.Sub(rec.DeclaredAt)),
			})
		}

		wait.Reset(c.pollInterval)
	}
}

// finish delivers the result privately and records it.
func (c *Controller) finish(ctx context.Context, logger *slog.Logger, result domain.Result) {
	switch result.Outcome {
	case domain.OutcomeSucceeded:
		result = c.deliverTranscript(ctx, logger, result)

	case domain.OutcomeFailed:
		logger.Warn("Transcription job failed remotely", slog.String("status", result.FinalStatus.String()))
		c.direct(ctx, logger, result.Owner, domain.DirectMessage{
			Content: failedMessage(result.Identifier, result.FinalStatus),
		})

	case domain.OutcomeAbandoned:
		logger.Error("Transcription job abandoned", slog.String("detail", result.Detail))
		c.direct(ctx, logger, result.Owner, domain.DirectMessage{
			Content: abandonedMessage(result.Identifier),
		})

	case domain.OutcomeInterrupted:
		// Process is going away; the user is not notified.
	}

	result.FinishedAt = c.now()

	// Sinks get their own context so shutdown still records interrupted jobs.
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if eventType := eventFor(result.Outcome); eventType != "" {
		c.publish(sinkCtx, logger, domain.Event{
			Type:       eventType,
			Identifier: result.Identifier,
			Owner:      result.Owner,
			Guild:      result.Guild,
			Status:     result.FinalStatus,
			Detail:     result.Detail,
			OccurredAt: result.FinishedAt,
		})
	}

	if c.recorder != nil {
		if err := c.recorder.Record(sinkCtx, result); err != nil {
			logger.Error("Failed to record job history", slog.String("error", err.Error()))
		}
	}
}

func (c *Controller) deliverTranscript(ctx context.Context, logger *slog.Logger, result domain.Result) domain.Result {
	transcript, err := c.transcriber.Transcript(ctx, result.Identifier)
	if err != nil {
		logger.Error("Failed to fetch transcript", slog.String("error", err.Error()))
		result.Outcome = domain.OutcomeFailed
		result.Detail = fmt.Sprintf("transcript fetch: %v", err)
		c.direct(ctx, logger, result.Owner, domain.DirectMessage{
			Content: fetchFailedMessage(result.Identifier),
		})
		return result
	}

	if transcript.Empty() {
		logger.Info("Transcript came up empty")
		result.Outcome = domain.OutcomeEmpty
		c.direct(ctx, logger, result.Owner, domain.DirectMessage{
			Content: emptyMessage(result.Identifier),
		})
		return result
	}

	doc := transcript.Document
	rawJSON, err := doc.IndentedJSON()
	if err != nil {
		logger.Warn("Failed to encode transcript JSON", slog.String("error", err.Error()))
	}

	files := []domain.File{
		{Name: "transcript.txt", ContentType: "text/plain; charset=utf-8", Data: []byte(doc.Render())},
	}
	if err == nil {
		files = append(files, domain.File{Name: "transcript.json", ContentType: "application/json", Data: rawJSON})
	}

	logger.Info("Transcript ready", slog.Int("segments", len(doc.SentenceSegments)))
	c.direct(ctx, logger, result.Owner, domain.DirectMessage{
		Content: readyMessage(result.Identifier),
		Files:   files,
	})
	return result
}

func eventFor(outcome domain.Outcome) string {
	switch outcome {
	case domain.OutcomeSucceeded:
		return domain.EventSucceeded
	case domain.OutcomeEmpty:
		return domain.EventEmpty
	case domain.OutcomeFailed:
		return domain.EventFailed
	case domain.OutcomeAbandoned, domain.OutcomeInterrupted:
		return domain.EventAbandoned
	}
	return ""
}

func (c *Controller) reply(ctx context.Context, logger *slog.Logger, req domain.Request, content string) {
	if req.Replier == nil {
		return
	}
	if err := req.Replier.Reply(ctx, content); err != nil {
		logger.Warn("Failed to reply to requester", slog.String("error", err.Error()))
	}
}

func (c *Controller) direct(ctx context.Context, logger *slog.Logger, userID string, msg domain.DirectMessage) {
	if err := c.messenger.SendDirect(ctx, userID, msg); err != nil {
		logger.Error("Failed to send direct message", slog.String("error", err.Error()))
	}
}

func (c *Controller) publish(ctx context.Context, logger *slog.Logger, event domain.Event) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish job event",
			slog.String("event_type", event.Type),
			slog.String("error", err.Error()),
		)
	}
}

// isTransportError reports whether err came from reaching the remote service.
func isTransportError(err error) bool {
	var se *elevateai.ServiceError
	return errors.As(err, &se)
}
