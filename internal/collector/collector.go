// Package collector waits for a user to supply a media attachment in a
// channel, with explicit cancel and timeout outcomes.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownSession is returned when cancelling a session that is not pending
	ErrUnknownSession = errors.New("no pending attachment request")

	// ErrNotRequester is returned when someone other than the requester tries to cancel
	ErrNotRequester = errors.New("only the requester can cancel this request")
)

// Kind enumerates collection outcomes
type Kind int

const (
	// Received means a qualifying attachment arrived
	Received Kind = iota + 1
	// Cancelled means the requester pressed cancel
	Cancelled
	// TimedOut means the window elapsed with neither an attachment nor a cancel
	TimedOut
)

func (k Kind) String() string {
	switch k {
	case Received:
		return "received"
	case Cancelled:
		return "cancelled"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Outcome is the result of a collection. Attachment is set only for Received.
type Outcome struct {
	Kind       Kind
	Attachment *Attachment
}

// Request identifies whose attachment to wait for, where, and for how long.
type Request struct {
	Requester string
	Channel   string
	Timeout   time.Duration
}

// PromptFunc tells the requester how to respond. It receives the session id
// that a cancel action must reference.
type PromptFunc func(ctx context.Context, sessionID string) error

type session struct {
	requester string
	channel   string
	cancel    chan struct{}
	once      sync.Once
}

// Collector runs attachment collections against a message source.
type Collector struct {
	source Source
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*session
}

// New creates a collector reading from source
func New(source Source, logger *slog.Logger) *Collector {
	return &Collector{
		source:  source,
		logger:  logger,
		pending: make(map[string]*session),
	}
}

// Collect waits for the first message from req.Requester in req.Channel that
// carries an attachment, a cancel of the session, or the timeout, whichever
// comes first. The message listener and the cancel entry are removed on every
// return path. A cancelled ctx aborts the wait with ctx.Err().
func (c *Collector) Collect(ctx context.Context, req Request, prompt PromptFunc) (Outcome, error) {
	id := uuid.NewString()
	s := &session{
		requester: req.Requester,
		channel:   req.Channel,
		cancel:    make(chan struct{}),
	}

	c.mu.Lock()
	c.pending[id] = s
	c.mu.Unlock()

	found := make(chan Attachment, 1)
	unsubscribe := c.source.Subscribe(func(msg Message) {
		if msg.AuthorID != req.Requester || msg.ChannelID != req.Channel || len(msg.Attachments) == 0 {
			return
		}
		select {
		case found <- msg.Attachments[0]:
		default:
		}
	})

	defer func() {
		unsubscribe()
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	timer := time.NewTimer(req.Timeout)
	defer timer.Stop()

	logger := c.logger.With(
		slog.String("session_id", id),
		slog.String("requester", req.Requester),
		slog.String("channel", req.Channel),
	)
	logger.Debug("Waiting for attachment", slog.Duration("timeout", req.Timeout))

	if prompt != nil {
		if err := prompt(ctx, id); err != nil {
			return Outcome{}, fmt.Errorf("failed to prompt for attachment: %w", err)
		}
	}

	select {
	case att := <-found:
		logger.Info("Attachment received", slog.String("filename", att.Filename))
		return Outcome{Kind: Received, Attachment: &att}, nil

	case <-s.cancel:
		logger.Info("Attachment request cancelled")
		return Outcome{Kind: Cancelled}, nil

	case <-timer.C:
		logger.Info("Attachment request timed out")
		return Outcome{Kind: TimedOut}, nil

	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Cancel resolves a pending session as cancelled. Only the requester, acting
// in the originating channel, may cancel.
func (c *Collector) Cancel(sessionID, userID, channelID string) error {
	c.mu.Lock()
	s, ok := c.pending[sessionID]
	c.mu.Unlock()

	if !ok {
		return ErrUnknownSession
	}
	if s.requester != userID || s.channel != channelID {
		return ErrNotRequester
	}

	s.once.Do(func() { close(s.cancel) })
	return nil
}

// Pending returns the number of collections currently waiting
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
