package sender

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the message was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	flushPoll = 10 * time.Millisecond

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Bot is the part of *tele.Bot the dispatcher needs.
type Bot interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single message.
	MaxDuration time.Duration
}

// Message is an HTML message addressed to a chat outside the current update.
type Message struct {
	ChatID   int64
	Text     string
	Keyboard keyboard.Layout
	// Kind names the message in logs, e.g. "bid.notify".
	Kind string
}

type job struct {
	ctx context.Context
	msg Message
}

// Dispatcher delivers messages to other chats in the background with retries.
type Dispatcher struct {
	bot     Bot
	opts    Options
	jobs    chan job
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	sent    atomic.Uint64
	fails   atomic.Uint64
	pending atomic.Int64
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewDispatcher starts workers; zero options fall back to defaults.
func NewDispatcher(bot Bot, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 30 * time.Second
	}

	d := &Dispatcher{
		bot:   bot,
		opts:  opts,
		jobs:  make(chan job, opts.QueueSize),
		stop:  make(chan struct{}),
		sleep: sleepCtx,
	}
	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go d.worker()
	}
	return d
}

// Enqueue schedules msg without blocking.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) error {
	select {
	case <-d.stop:
		return ErrQueueClosed
	default:
	}
	if ctx == nil {
		ctx = context.Background()
	}
	// detach from the update so the send outlives it; log fields stay
	ctx = context.WithoutCancel(ctx)

	d.pending.Add(1)
	select {
	case d.jobs <- job{ctx: ctx, msg: msg}:
		return nil
	default:
		d.pending.Add(-1)
		logger.Warn(ctx, "tg.sender", "queue.full", sendLogAttrs(msg)...)
		return ErrQueueFull
	}
}

// Flush waits until every accepted message was delivered or given up on.
// Short-lived runtimes call it before returning from an invocation.
func (d *Dispatcher) Flush(ctx context.Context) error {
	t := time.NewTicker(flushPoll)
	defer t.Stop()
	for d.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

// Stats returns delivered and failed message counts.
func (d *Dispatcher) Stats() (sent, failed uint64) {
	return d.sent.Load(), d.fails.Load()
}

// Close stops accepting messages and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.stop)
		close(d.jobs)
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.deliver(j)
		d.pending.Add(-1)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: j.msg.Keyboard.Markup()}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		_, err := d.bot.Send(&tele.Chat{ID: j.msg.ChatID}, j.msg.Text, opts)
		if err == nil {
			d.sent.Add(1)
			logger.Debug(ctx, "tg.sender", "send.success", append(sendLogAttrs(j.msg),
				slog.Int("attempt", attempt),
				slog.Int64("elapsed_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
			)...)
			return
		}
		lastErr = err
		delay, retry := d.retryDelay(err, attempt)
		if !retry || attempt == attempts {
			break
		}
		if err := d.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	d.fails.Add(1)
	logger.Error(ctx, "tg.sender", "send.fail", append(sendLogAttrs(j.msg),
		slog.String("err", sanitizeErrorMessage(lastErr)),
		slog.String("error_kind", classifyError(lastErr)),
		slog.Int("attempts", attempts),
		slog.Int64("elapsed_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	)...)
}

// retryDelay honours Telegram's retry_after on flood control and backs off
// linearly on transient network failures.
func (d *Dispatcher) retryDelay(err error, attempt int) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	if netutil.ShouldRetry(err) {
		return d.opts.RetryBackoff * time.Duration(attempt), true
	}
	return 0, false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func sendLogAttrs(m Message) []slog.Attr {
	attrs := []slog.Attr{slog.Int64("chat_id", m.ChatID)}
	if m.Kind != "" {
		attrs = append(attrs, slog.String("action", m.Kind))
	}
	return attrs
}

func classifyError(err error) string {
	var flood tele.FloodError
	var apiErr *tele.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &flood):
		return "flood"
	case errors.Is(err, tele.ErrBlockedByUser), errors.Is(err, tele.ErrChatNotFound):
		return "unreachable"
	case errors.As(err, &apiErr) && apiErr.Code >= http.StatusInternalServerError:
		return "http_5xx"
	case errors.As(err, &apiErr):
		return "http_4xx"
	case netutil.ShouldRetry(err):
		return "network"
	default:
		return "unknown"
	}
}

// sanitizeErrorMessage prevents accidental leakage of Telegram bot tokens in logs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
