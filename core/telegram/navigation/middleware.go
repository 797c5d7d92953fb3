// Package navigation drives screen history for every update: the reserved
// back button pops and restores the previous screen, anything else runs the
// handler and records the screen it declared.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

const component = "tg.nav"

// Options configures the navigation middleware.
type Options struct {
	Store    state.Store
	Renderer Renderer
	// Root builds the screen shown when history runs out or has to be reset.
	Root func(c tele.Context) state.Screen
	// MaxDepth caps history per conversation; 0 keeps everything.
	MaxDepth          int
	EmptyNotice       string
	AlreadyHereNotice string
	// Key selects the conversation an update belongs to; updates without one bypass navigation.
	Key func(c tele.Context) (int64, bool)
}

type navigator struct {
	opts Options
}

// Middleware loads the conversation session, runs the back or forward
// transition and saves the session when it changed.
func Middleware(opts Options) tele.MiddlewareFunc {
	if opts.Store == nil {
		opts.Store = state.NewMemoryStore()
	}
	if opts.Renderer == nil {
		opts.Renderer = TeleRenderer{}
	}
	if opts.Key == nil {
		opts.Key = ConversationKey
	}
	if opts.EmptyNotice == "" {
		opts.EmptyNotice = "Nothing to go back to."
	}
	if opts.AlreadyHereNotice == "" {
		opts.AlreadyHereNotice = "Already here."
	}
	n := &navigator{opts: opts}
	return n.wrap
}

// ConversationKey keys sessions by chat.
func ConversationKey(c tele.Context) (int64, bool) {
	if chat := c.Chat(); chat != nil {
		return chat.ID, true
	}
	return 0, false
}

// IsBack reports whether the update is a press of the reserved back button.
func IsBack(c tele.Context) bool {
	cb := c.Callback()
	return cb != nil && cb.Unique == "" && cb.Data == keyboard.BackToken
}

func (n *navigator) wrap(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		key, ok := n.opts.Key(c)
		if !ok {
			return next(c)
		}
		ctx := tghelpers.BuildContext(c)

		sess, err := n.opts.Store.Load(ctx, key)
		if err != nil {
			if !errors.Is(err, state.ErrCorrupt) || sess == nil {
				return fmt.Errorf("navigation: load session: %w", err)
			}
			logger.Warn(ctx, component, "nav.reset",
				slog.String("reason", "corrupt_session"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			sess.Reset()
		}
		sess.SetMaxDepth(n.opts.MaxDepth)
		state.Attach(c, sess)
		ctx = logger.WithNav(ctx, sess.Depth(), string(sess.CurrentState()))
		tghelpers.StoreContext(c, ctx)

		if IsBack(c) {
			if err := n.back(ctx, c, sess); err != nil {
				// not saved: the chat still shows the screen being left
				return err
			}
		} else {
			err = n.forward(ctx, c, sess, next)
		}

		if sess.Dirty() {
			if saveErr := n.opts.Store.Save(ctx, key, sess); saveErr != nil {
				return errors.Join(err, fmt.Errorf("navigation: save session: %w", saveErr))
			}
		}
		return err
	}
}

func (n *navigator) back(ctx context.Context, c tele.Context, sess *state.Session) error {
	screen, res := sess.PopAndRestore()
	if res == state.PopEmpty {
		n.logBack(ctx, sess, "empty")
		n.notify(ctx, c, n.opts.EmptyNotice)
		return nil
	}
	if res == state.PopRoot {
		screen = n.root(c)
	}
	if err := screen.Validate(); err != nil {
		logger.Warn(ctx, component, "nav.reset",
			slog.String("reason", "malformed_screen"),
			slog.String("err", err.Error()),
		)
		sess.Reset()
		screen = n.root(c)
	}

	if live := liveMessage(c); live != nil && screen.SameContent(messageText(live), keyboard.FromMarkup(live.ReplyMarkup)) {
		n.logBack(ctx, sess, "already_here")
		n.notify(ctx, c, n.opts.AlreadyHereNotice)
		return nil
	}

	outcome, err := n.opts.Renderer.Apply(c, screen)
	if err != nil {
		n.logBack(ctx, sess, "transport_error")
		return err
	}
	n.logBack(ctx, sess, res.String(), slog.String("render", outcome.String()))
	n.notify(ctx, c, "")
	return nil
}

func (n *navigator) forward(ctx context.Context, c tele.Context, sess *state.Session, next tele.HandlerFunc) error {
	err := next(c)
	screen, ok := Declared(c)
	if !ok {
		if sess.Settle() {
			logger.Info(ctx, component, "nav.settle",
				slog.Int("depth", sess.Depth()),
				slog.String("state", string(sess.CurrentState())),
			)
		}
		return err
	}
	// a step belongs to the screen that started it; moving elsewhere leaves it
	if !sess.StateSet() {
		if top, ok := sess.Top(); !ok || !top.SameView(screen) {
			sess.ClearState()
		}
	}
	screen.State = sess.CurrentState()
	pushed := sess.PushIfChanged(screen)
	if logger.ShouldSampleDebug() {
		result := "pushed"
		if !pushed {
			result = "dedup"
		}
		logger.Debug(ctx, component, "nav.push",
			slog.String("result", result),
			slog.Int("depth", sess.Depth()),
			slog.String("state", string(sess.CurrentState())),
		)
	}
	return err
}

func (n *navigator) root(c tele.Context) state.Screen {
	if n.opts.Root != nil {
		return n.opts.Root(c)
	}
	return state.RootScreen
}

func (n *navigator) notify(ctx context.Context, c tele.Context, text string) {
	if c.Callback() == nil {
		return
	}
	var resp *tele.CallbackResponse
	if text != "" {
		resp = &tele.CallbackResponse{Text: text}
	}
	if err := callbacks.Answer(c, resp); err != nil {
		logger.Debug(ctx, component, "callback.answer",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

func (n *navigator) logBack(ctx context.Context, sess *state.Session, result string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("result", result),
		slog.Int("depth", sess.Depth()),
		slog.String("state", string(sess.CurrentState())),
	}
	logger.Info(ctx, component, "nav.back", append(attrs, extra...)...)
}

func liveMessage(c tele.Context) *tele.Message {
	if cb := c.Callback(); cb != nil {
		return cb.Message
	}
	return nil
}

func messageText(m *tele.Message) string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}
