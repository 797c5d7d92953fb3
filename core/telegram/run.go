package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	"github.com/m3rciful/shopbot/core/logger"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/shopbot/core/telegram/sender"
	"github.com/m3rciful/shopbot/core/telegram/sequence"

	tele "gopkg.in/telebot.v4"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of Compose and RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options

	Middlewares []Middleware
	Routes      []Route

	// Offline skips getMe and polling; updates are fed through Bot.ProcessUpdate.
	Offline bool
	// Client overrides the HTTP client used for the Bot API.
	Client *http.Client
	// URL overrides the Bot API base URL.
	URL string

	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
	Sequencer  *sequence.Sequencer
}

// Close releases the sequencer lanes and the outbound queue.
func (rt Runtime) Close() {
	if rt.Sequencer != nil {
		rt.Sequencer.Close()
	}
	if rt.Dispatcher != nil {
		rt.Dispatcher.Close()
	}
}

// Compose builds a synchronous bot with middlewares and routes installed and
// runs OnStart. Updates are handled one conversation lane at a time.
func Compose(ctx context.Context, opts RunOptions) (Runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return Runtime{}, fmt.Errorf("telegram: nil config provided")
	}
	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	seq := sequence.New(sequence.WithPanicHandler(func(key int64, r any) {
		logger.Error(ctx, "tg", "lane.panic",
			slog.Int64("chat_id", key),
			slog.Any("panic", r),
		)
	}))

	client := opts.Client
	if client == nil {
		client = BuildHTTPClient(HTTPClientOptions{
			Timeout: longPollClientTimeout(cfg.Telegram.LongPollTimeoutSeconds),
		})
	}
	settings := tele.Settings{
		Token:       cfg.Telegram.Token,
		URL:         opts.URL,
		Client:      client,
		Synchronous: true,
		Offline:     opts.Offline,
		OnError: func(err error, c tele.Context) {
			reportError(err, c)
		},
	}
	if !opts.Offline {
		settings.Poller = &SequencedPoller{
			Poller: BuildPoller(PollerOptions{
				RunMode:                cfg.Telegram.RunMode,
				LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
				Webhook: WebhookOptions{
					Listen:      cfg.Webhook.Listen,
					Port:        cfg.Webhook.Port,
					URL:         cfg.Webhook.URL,
					SecretToken: cfg.Webhook.SecretToken,
				},
			}),
			Sequencer: seq,
		}
	}

	buildStart := time.Now()
	bot, err := tele.NewBot(settings)
	if err != nil {
		seq.Close()
		return Runtime{}, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logger.Info(ctx, "tg", "mode",
		slog.String("mode", runModeLabel(cfg, opts.Offline)),
		slog.Duration("duration", logger.RoundMS(time.Since(buildStart))),
	)

	dopts := opts.DispatcherOptions
	if dopts == (tgsender.Options{}) {
		dopts = tgsender.Options{
			QueueSize:  cfg.Sender.QueueSize,
			Workers:    cfg.Sender.Workers,
			MaxRetries: cfg.Sender.MaxRetries,
		}
	}
	rt := Runtime{
		Bot:        bot,
		Dispatcher: tgsender.NewDispatcher(bot, dopts),
		Registry:   reg,
		Sequencer:  seq,
	}

	for _, mw := range opts.Middlewares {
		if mw.Use == nil {
			continue
		}
		bot.Use(mw.Use)
	}
	for _, route := range opts.Routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		bot.Handle(route.Endpoint, route.Handler)
	}
	logger.Info(ctx, "tg.wire", "complete",
		slog.Int("middlewares", len(opts.Middlewares)),
		slog.Int("routes", len(opts.Routes)),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	if !opts.Offline {
		InitBotCommands(bot, reg)
	}

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			rt.Close()
			return Runtime{}, err
		}
	}
	return rt, nil
}

// RunTelegram composes and runs a Telegram bot until the provided context is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts.Offline = false
	rt, err := Compose(ctx, opts)
	if err != nil {
		return err
	}
	cfg := opts.Config

	if !opts.DisableWebhookCleanup && strings.EqualFold(cfg.Telegram.RunMode, coreconfig.RunModeLongpoll) {
		if err := rt.Bot.RemoveWebhook(false); err != nil {
			logger.Warn(ctx, "tg", "delete_webhook",
				slog.String("mode", "polling"),
				slog.String("err", err.Error()),
			)
		} else {
			logger.Info(ctx, "tg", "delete_webhook", slog.String("mode", "polling"))
		}
	}

	runDone := make(chan struct{})
	go func() {
		rt.Bot.Start()
		close(runDone)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		rt.Bot.Stop()
		<-runDone
		runErr = ctx.Err()
	case <-runDone:
	}

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	rt.Close()

	if stopErr != nil {
		return stopErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func runModeLabel(cfg *coreconfig.Config, offline bool) string {
	switch {
	case offline:
		return "offline"
	case cfg.Telegram.RunMode == coreconfig.RunModeWebhook:
		return "webhook"
	default:
		return "polling"
	}
}

func reportError(err error, c tele.Context) {
	if err == nil {
		return
	}
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "update.error",
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}

