package helpers

import (
	"github.com/m3rciful/shopbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// HTML returns send options for Telegram's HTML parse mode with an optional keyboard.
func HTML(layout keyboard.Layout) *tele.SendOptions {
	return &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: layout.Markup()}
}

// SendHTML sends an HTML message to the current chat.
func SendHTML(c tele.Context, text string, layout ...keyboard.Layout) error {
	var l keyboard.Layout
	if len(layout) > 0 {
		l = layout[0]
	}
	return c.Send(text, HTML(l))
}
