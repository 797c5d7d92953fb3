package callbacks

import (
	"strings"

	"github.com/m3rciful/shopbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

const answeredKey = "cb_answered"

// ParseCallbackData splits raw callback data into key and payload.
// Telebot's \f<unique>|<payload> encoding is accepted as well.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.SplitN(raw, keyboard.Separator, 2)
	key := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return key, payload
}

// CallbackKey returns the routing key of the callback.
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// CallbackPayload returns payload (after '|') parsed from Data.
func CallbackPayload(c tele.Context) string {
	_, payload := ParseCallbackData(c.Callback())
	return payload
}

// Answer responds to the callback query once and remembers it did.
func Answer(c tele.Context, resp *tele.CallbackResponse) error {
	if c.Callback() == nil || Answered(c) {
		return nil
	}
	c.Set(answeredKey, true)
	if resp == nil {
		return c.Respond()
	}
	return c.Respond(resp)
}

// Alert answers the callback with a modal alert.
func Alert(c tele.Context, text string) error {
	return Answer(c, &tele.CallbackResponse{Text: text, ShowAlert: true})
}

// Toast answers the callback with a short notice.
func Toast(c tele.Context, text string) error {
	return Answer(c, &tele.CallbackResponse{Text: text})
}

// Answered reports whether the callback was already answered in this update.
func Answered(c tele.Context) bool {
	v, _ := c.Get(answeredKey).(bool)
	return v
}
