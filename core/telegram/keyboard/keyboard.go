package keyboard

import (
	"fmt"
	"slices"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// BackToken is the reserved callback data routed to back navigation only.
const BackToken = "go_back"

// Separator joins a callback key with its payload.
const Separator = "|"

// MaxDataLen is Telegram's limit for callback data in bytes.
const MaxDataLen = 64

const defaultBackLabel = "⬅️ Back"

// Button is an inline button described by its callback data and label.
type Button struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Layout is an ordered set of button rows. A nil Layout means no keyboard.
type Layout [][]Button

// Btn is a shorthand constructor.
func Btn(label, id string) Button {
	return Button{ID: id, Label: label}
}

// Data builds callback data for key with an optional payload.
func Data(key string, payload ...string) string {
	if len(payload) == 0 {
		return key
	}
	return key + Separator + strings.Join(payload, Separator)
}

// Back returns the reserved back button.
func Back(label ...string) Button {
	l := defaultBackLabel
	if len(label) > 0 && label[0] != "" {
		l = label[0]
	}
	return Button{ID: BackToken, Label: l}
}

// Grid splits buttons into rows with up to width buttons per row.
// If width <= 1 every button gets its own row.
func Grid(width int, buttons ...Button) Layout {
	if len(buttons) == 0 {
		return nil
	}
	if width < 1 {
		width = 1
	}
	var rows Layout
	for chunk := range slices.Chunk(buttons, width) {
		rows = append(rows, slices.Clone(chunk))
	}
	return rows
}

// Rows builds a layout from explicit rows, dropping empty ones.
func Rows(rows ...[]Button) Layout {
	var out Layout
	for _, r := range rows {
		if len(r) == 0 {
			continue
		}
		out = append(out, slices.Clone(r))
	}
	return out
}

// Append returns a copy of l with extra rows added at the bottom.
func (l Layout) Append(rows ...[]Button) Layout {
	out := Rows(l...)
	return append(out, Rows(rows...)...)
}

// WithBack appends a single-button back row.
func (l Layout) WithBack(label ...string) Layout {
	return l.Append([]Button{Back(label...)})
}

// Normalize drops empty rows; an empty layout becomes nil.
func (l Layout) Normalize() Layout {
	return Rows(l...)
}

// Equal reports whether both layouts render the same keyboard.
func (l Layout) Equal(other Layout) bool {
	return slices.EqualFunc(l.Normalize(), other.Normalize(), func(a, b []Button) bool {
		return slices.Equal(a, b)
	})
}

// Validate reports the first button Telegram would reject.
func (l Layout) Validate() error {
	for i, row := range l {
		for j, b := range row {
			switch {
			case strings.TrimSpace(b.ID) == "":
				return fmt.Errorf("keyboard: button %d/%d: empty callback data", i, j)
			case strings.TrimSpace(b.Label) == "":
				return fmt.Errorf("keyboard: button %d/%d: empty label", i, j)
			case len(b.ID) > MaxDataLen:
				return fmt.Errorf("keyboard: button %d/%d: callback data exceeds %d bytes", i, j, MaxDataLen)
			}
		}
	}
	return nil
}

// Markup converts the layout into a telebot inline markup. Data is sent raw
// so callbacks reach the generic OnCallback route.
func (l Layout) Markup() *tele.ReplyMarkup {
	rows := l.Normalize()
	if rows == nil {
		return nil
	}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, b := range row {
			r[j] = tele.InlineButton{Text: b.Label, Data: b.ID}
		}
		inline[i] = r
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// FromMarkup reads back the callback buttons of a live message keyboard.
// Non-callback buttons (URL, switch inline) keep their text with empty data.
func FromMarkup(m *tele.ReplyMarkup) Layout {
	if m == nil {
		return nil
	}
	var out Layout
	for _, row := range m.InlineKeyboard {
		r := make([]Button, 0, len(row))
		for _, b := range row {
			r = append(r, Button{ID: b.Data, Label: b.Text})
		}
		if len(r) > 0 {
			out = append(out, r)
		}
	}
	return out
}

