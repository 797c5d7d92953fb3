package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
)

// State identifies a finite-state-machine step used in conversations.
type State string

// StateIdle indicates there is no active conversation step.
const StateIdle State = ""

// ErrMalformed marks a screen that cannot be rendered.
var ErrMalformed = errors.New("state: malformed screen")

// Screen is a snapshot of one displayed UI state.
type Screen struct {
	Text     string          `json:"text"`
	Keyboard keyboard.Layout `json:"keyboard,omitempty"`
	State    State           `json:"state,omitempty"`
	// Local names the scratch keys this screen owns. Equality ignores it.
	Local []string `json:"local,omitempty"`
}

// Equal reports structural equality over text, keyboard and state.
func (s Screen) Equal(other Screen) bool {
	return s.Text == other.Text && s.State == other.State && s.Keyboard.Equal(other.Keyboard)
}

// SameView reports whether both screens show the same text and keyboard,
// whatever their states.
func (s Screen) SameView(other Screen) bool {
	return s.Text == other.Text && s.Keyboard.Equal(other.Keyboard)
}

// SameContent reports whether the screen displays the given live message.
// Live messages carry plain text and no state, so only what the user sees is compared.
func (s Screen) SameContent(text string, kb keyboard.Layout) bool {
	return format.PlainText(s.Text) == strings.TrimSpace(text) && s.Keyboard.Equal(kb)
}

// Validate reports whether the screen can be rendered.
func (s Screen) Validate() error {
	if strings.TrimSpace(s.Text) == "" {
		return fmt.Errorf("%w: empty text", ErrMalformed)
	}
	if err := s.Keyboard.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
