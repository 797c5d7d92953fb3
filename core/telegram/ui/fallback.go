package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider answers updates that no route or conversation state claims.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	// UnknownCallback handles buttons left on old messages.
	UnknownCallback() tele.HandlerFunc
}
