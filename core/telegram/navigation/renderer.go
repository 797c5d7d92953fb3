package navigation

import (
	"errors"
	"strings"

	"github.com/m3rciful/shopbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// Outcome reports how a screen reached the chat.
type Outcome int

const (
	// Applied means the live message now shows the screen.
	Applied Outcome = iota
	// NoChange means the transport refused an edit because nothing differed.
	NoChange
)

func (o Outcome) String() string {
	if o == NoChange {
		return "no_change"
	}
	return "applied"
}

// Renderer reflects a screen onto the conversation's live message.
type Renderer interface {
	Apply(c tele.Context, s state.Screen) (Outcome, error)
}

// TransportError is a delivery failure that leaves the chat out of sync with history.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "navigation: " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Code is picked up by handler summaries as err_code.
func (e *TransportError) Code() string { return "TRANSPORT" }

// TeleRenderer edits the callback message in place and sends a new message
// when there is nothing to edit.
type TeleRenderer struct{}

// Apply implements Renderer.
func (TeleRenderer) Apply(c tele.Context, s state.Screen) (Outcome, error) {
	opts := sendOptions(s)
	if cb := c.Callback(); cb != nil && (cb.Message != nil || cb.MessageID != "") {
		err := c.Edit(s.Text, opts)
		switch {
		case err == nil:
			return Applied, nil
		case IsNotModified(err):
			return NoChange, nil
		default:
			return Applied, &TransportError{Op: "edit", Err: err}
		}
	}
	if err := c.Send(s.Text, opts); err != nil {
		return Applied, &TransportError{Op: "send", Err: err}
	}
	return Applied, nil
}

// IsNotModified reports Telegram's "message is not modified" rejection.
func IsNotModified(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, tele.ErrSameMessageContent) ||
		strings.Contains(strings.ToLower(err.Error()), "message is not modified")
}

func sendOptions(s state.Screen) *tele.SendOptions {
	return &tele.SendOptions{
		ParseMode:   tele.ModeHTML,
		ReplyMarkup: s.Keyboard.Markup(),
	}
}
