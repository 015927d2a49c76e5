package chatclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

// DefaultPollInterval is how often a Poller checks for new messages.
const DefaultPollInterval = 3 * time.Second

// State is the client-side view of a conversation.
type State int

const (
	// StateActive means the conversation exists and is being polled.
	StateActive State = iota
	// StateEnded means the conversation was deleted; polling has stopped.
	StateEnded
)

func (s State) String() string {
	if s == StateEnded {
		return "ended"
	}
	return "active"
}

// PollerOptions configures a Poller. Callbacks run on the polling goroutine.
type PollerOptions struct {
	// Interval between ticks; defaults to DefaultPollInterval.
	Interval time.Duration
	// Since seeds the cursor, typically the createdAt of the newest message
	// already on screen. Zero fetches the full history on the first tick.
	Since time.Time
	// OnMessages receives each non-empty batch in server order.
	OnMessages func([]domain.Message)
	// OnEnded is called once when the conversation disappears.
	OnEnded func()
	Logger  zerolog.Logger
}

// Poller follows one conversation for one role ("visitor" or "admin").
//
// Each tick fetches the conversation (404 ends the session), then the messages
// after the cursor, and marks them read as the poller's role when any arrived.
// A tick still running when the next one fires causes that next tick to be
// skipped, so requests never pile up behind a slow server.
type Poller struct {
	client *Client
	convID string
	role   string
	opts   PollerOptions

	busy    atomic.Bool
	mu      sync.Mutex
	cursor  time.Time
	state   State
	skipped atomic.Int64
}

// NewPoller returns a Poller for conversationID acting as role.
func NewPoller(c *Client, conversationID, role string, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	return &Poller{
		client: c,
		convID: conversationID,
		role:   role,
		opts:   opts,
		cursor: opts.Since,
	}
}

// State reports whether the conversation is still active.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Cursor returns the createdAt of the newest message seen.
func (p *Poller) Cursor() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Skipped counts ticks dropped because the previous one was still running.
func (p *Poller) Skipped() int64 { return p.skipped.Load() }

// Run polls until ctx is cancelled or the conversation ends. It returns nil
// when the conversation ended and ctx.Err() on cancellation. Transient errors
// are logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) error {
	t := time.NewTicker(p.opts.Interval)
	defer t.Stop()

	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	tick := func() {
		defer p.busy.Store(false)
		err := p.Tick(ctx)
		switch {
		case errors.Is(err, ErrConversationGone):
			finish()
		case err != nil && ctx.Err() == nil:
			p.opts.Logger.Warn().Err(err).Str("conversation_id", p.convID).Msg("chat poll failed")
		}
	}

	p.busy.Store(true)
	go tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return nil
		case <-t.C:
			if !p.busy.CompareAndSwap(false, true) {
				p.skipped.Add(1)
				continue
			}
			go tick()
		}
	}
}

// Tick performs one poll. It returns ErrConversationGone once the
// conversation has been deleted and on every call after that.
func (p *Poller) Tick(ctx context.Context) error {
	if p.State() == StateEnded {
		return ErrConversationGone
	}

	if _, _, err := p.client.GetConversation(ctx, p.convID); err != nil {
		if errors.Is(err, ErrConversationGone) {
			p.end()
		}
		return err
	}

	msgs, err := p.client.ListMessages(ctx, p.convID, p.Cursor())
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	p.mu.Lock()
	for _, m := range msgs {
		if m.CreatedAt.After(p.cursor) {
			p.cursor = m.CreatedAt
		}
	}
	p.mu.Unlock()

	if p.opts.OnMessages != nil {
		p.opts.OnMessages(msgs)
	}
	if _, err := p.client.MarkRead(ctx, p.convID, p.role); err != nil {
		if errors.Is(err, ErrConversationGone) {
			p.end()
		}
		return err
	}
	return nil
}

func (p *Poller) end() {
	p.mu.Lock()
	already := p.state == StateEnded
	p.state = StateEnded
	p.mu.Unlock()
	if !already && p.opts.OnEnded != nil {
		p.opts.OnEnded()
	}
}
