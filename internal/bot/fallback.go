package bot

import (
	"log/slog"

	"github.com/m3rciful/shopbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

var _ ui.FallbackProvider = (*Handlers)(nil)

// UnknownText answers text that no state or command expects.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		logSkip(c, "text.unknown")
		return tghelpers.SendHTML(c, "Use /start to open the menu.")
	}
}

// UnknownDocument answers files nobody asked for.
func (h *Handlers) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		logSkip(c, "document.unexpected")
		return tghelpers.SendHTML(c, "I can't process files here.")
	}
}

// UnknownCallback answers buttons from outdated messages.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		logSkip(c, "callback.unknown", slog.String("cb_key", callbacks.CallbackKey(c)))
		return callbacks.Toast(c, "This button is no longer available.")
	}
}

// Rejected answers users outside the allow list.
func (h *Handlers) Rejected(c tele.Context) error {
	if c.Callback() != nil {
		return callbacks.Alert(c, "⛔ This shop is invite only.")
	}
	return tghelpers.SendHTML(c, "⛔ This shop is invite only.")
}

// AdminRejected answers non-admins calling admin commands.
func (h *Handlers) AdminRejected(c tele.Context) error {
	return tghelpers.SendHTML(c, "Admins only.")
}

// Limited answers updates dropped by the rate limiter.
func (h *Handlers) Limited(c tele.Context) error {
	if c.Callback() != nil {
		return callbacks.Toast(c, "Too many requests, slow down.")
	}
	return nil
}
