package navigation

import (
	"github.com/m3rciful/shopbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

const declaredKey = "nav_declared"

// Mode selects how Show delivers a screen.
type Mode int

const (
	// ModeSend posts a new message.
	ModeSend Mode = iota
	// ModeEdit edits the callback message, sending when there is none.
	ModeEdit
	// ModeReplace deletes the callback message and posts a new one.
	ModeReplace
)

// Show delivers s and declares it as the screen the user now sees.
func Show(c tele.Context, s state.Screen, mode Mode) error {
	if err := s.Validate(); err != nil {
		return err
	}
	switch mode {
	case ModeEdit:
		if _, err := (TeleRenderer{}).Apply(c, s); err != nil {
			return err
		}
	case ModeReplace:
		if cb := c.Callback(); cb != nil && cb.Message != nil {
			// already gone is fine, the new message still goes out
			_ = c.Delete()
		}
		fallthrough
	default:
		if err := c.Send(s.Text, sendOptions(s)); err != nil {
			return &TransportError{Op: "send", Err: err}
		}
	}
	Declare(c, s)
	return nil
}

// Declare records s as the resulting screen without sending anything.
func Declare(c tele.Context, s state.Screen) {
	c.Set(declaredKey, s)
}

// Declared returns the screen declared during the current update.
func Declared(c tele.Context) (state.Screen, bool) {
	s, ok := c.Get(declaredKey).(state.Screen)
	return s, ok
}
