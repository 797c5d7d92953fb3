package state

import (
	"encoding/json"
	"slices"
	"strconv"
)

// PopResult describes what PopAndRestore did.
type PopResult int

const (
	// PopEmpty means there was nothing to go back to; nothing changed.
	PopEmpty PopResult = iota
	// PopRestored means the previous screen is now on top.
	PopRestored
	// PopRoot means the last screen was popped and the root screen applies.
	PopRoot
)

func (r PopResult) String() string {
	switch r {
	case PopEmpty:
		return "empty"
	case PopRestored:
		return "restored"
	case PopRoot:
		return "root"
	default:
		return "unknown"
	}
}

// RootScreen is reported when back navigation passes the first screen.
var RootScreen = Screen{Text: "Main Menu"}

// Session is the navigation history of one conversation.
type Session struct {
	Stack   []Screen       `json:"stack,omitempty"`
	Scratch map[string]any `json:"scratch,omitempty"`
	// Local lists screen-local keys set since the last push. The next screen
	// pushed, or the one on top when none is, takes ownership of them.
	Local []string `json:"local,omitempty"`
	State State    `json:"state,omitempty"`
	// Version is maintained by stores for optimistic concurrency.
	Version int64 `json:"-"`

	maxDepth int
	dirty    bool
	stateSet bool
}

// NewSession returns an empty idle session.
func NewSession() *Session {
	return &Session{Scratch: make(map[string]any)}
}

// SetMaxDepth caps the stack; the oldest screens are dropped first. 0 disables the cap.
func (s *Session) SetMaxDepth(n int) {
	if n < 0 {
		n = 0
	}
	s.maxDepth = n
}

// PushIfChanged appends candidate unless it equals the screen on top.
// It reports whether the stack grew. State is left untouched.
//
// The pushed screen owns the pending screen-local keys. Keys owned by the
// screen it covers are purged: their screen is no longer displayed.
func (s *Session) PushIfChanged(candidate Screen) bool {
	if top, ok := s.Top(); ok && top.Equal(candidate) {
		s.adoptLocal()
		return false
	}
	if n := len(s.Stack); n > 0 {
		covered := &s.Stack[n-1]
		for _, k := range covered.Local {
			if !slices.Contains(s.Local, k) {
				delete(s.Scratch, k)
			}
		}
		covered.Local = nil
	}
	candidate.Keyboard = candidate.Keyboard.Normalize()
	candidate.Local = s.Local
	s.Local = nil
	s.Stack = append(s.Stack, candidate)
	if s.maxDepth > 0 && len(s.Stack) > s.maxDepth {
		s.Stack = slices.Clone(s.Stack[len(s.Stack)-s.maxDepth:])
	}
	s.dirty = true
	return true
}

// PopAndRestore leaves the screen on top and returns the one to display.
// Scratch owned by the popped screen is purged and State follows the new top.
// When the stack runs out the whole session is reset and RootScreen is
// returned with PopRoot; an already empty stack yields PopEmpty without any
// mutation.
func (s *Session) PopAndRestore() (Screen, PopResult) {
	n := len(s.Stack)
	if n == 0 {
		return Screen{}, PopEmpty
	}
	popped := s.Stack[n-1]
	s.Stack = s.Stack[:n-1]
	s.dropScratch(popped.Local)
	s.dropScratch(s.Local)
	s.Local = nil
	s.dirty = true

	top, ok := s.Top()
	if !ok {
		s.Reset()
		return RootScreen, PopRoot
	}
	s.State = top.State
	return top, PopRestored
}

// Settle closes an update that declared no screen: pending screen-local keys
// go to the screen on top, and the top screen takes the live state. A top
// screen that becomes equal to the one below it is merged into it. Settle
// reports whether the top screen's state was rewritten.
func (s *Session) Settle() bool {
	n := len(s.Stack)
	if n == 0 {
		return false
	}
	s.adoptLocal()
	top := &s.Stack[n-1]
	if top.State == s.State {
		return false
	}
	top.State = s.State
	if n > 1 && s.Stack[n-2].Equal(*top) {
		s.Stack[n-2].Local = mergeKeys(s.Stack[n-2].Local, top.Local)
		s.Stack = s.Stack[:n-1]
	}
	s.dirty = true
	return true
}

// CurrentState returns the live FSM state.
func (s *Session) CurrentState() State {
	return s.State
}

// Reset clears the history, scratch data and state.
func (s *Session) Reset() {
	s.Stack = nil
	s.Scratch = make(map[string]any)
	s.Local = nil
	s.State = StateIdle
	s.stateSet = true
	s.dirty = true
}

// Top returns the currently displayed screen.
func (s *Session) Top() (Screen, bool) {
	if len(s.Stack) == 0 {
		return Screen{}, false
	}
	return s.Stack[len(s.Stack)-1], true
}

// Depth returns the number of screens in history.
func (s *Session) Depth() int {
	return len(s.Stack)
}

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool {
	return s.dirty
}

// MarkClean is called by stores after a successful save.
func (s *Session) MarkClean() {
	s.dirty = false
	s.stateSet = false
}

// StateSet reports whether the state was set, cleared or reset since the
// session was loaded.
func (s *Session) StateSet() bool {
	return s.stateSet
}

// SetState sets the FSM state.
func (s *Session) SetState(st State) {
	s.stateSet = true
	if s.State == st {
		return
	}
	s.State = st
	s.dirty = true
}

// ClearState resets the FSM state to idle without touching scratch data.
func (s *Session) ClearState() {
	s.SetState(StateIdle)
}

// HasState reports whether a step other than idle is active.
func (s *Session) HasState() bool {
	return s.State != StateIdle
}

// SetTemp stores a value that survives navigation until back passes the first screen.
func (s *Session) SetTemp(key string, value any) {
	if s.Scratch == nil {
		s.Scratch = make(map[string]any)
	}
	s.Scratch[key] = value
	s.dirty = true
}

// SetLocal stores a value owned by the screen this update leads to. It is
// purged once that screen is popped or covered by another one.
func (s *Session) SetLocal(key string, value any) {
	s.SetTemp(key, value)
	if !slices.Contains(s.Local, key) {
		s.Local = append(s.Local, key)
	}
}

// GetTemp retrieves a scratch value by key.
func (s *Session) GetTemp(key string) (any, bool) {
	v, ok := s.Scratch[key]
	return v, ok
}

// GetTempString retrieves a scratch value and asserts it as string.
func (s *Session) GetTempString(key string) (string, bool) {
	v, ok := s.Scratch[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// GetTempInt64 retrieves a scratch value as int64. Values decoded from a
// persistent store arrive as json.Number and are converted.
func (s *Session) GetTempInt64(key string) (int64, bool) {
	v, ok := s.Scratch[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// ClearTemp removes a scratch value.
func (s *Session) ClearTemp(key string) {
	if _, ok := s.Scratch[key]; !ok {
		return
	}
	delete(s.Scratch, key)
	s.Local = slices.DeleteFunc(s.Local, func(k string) bool { return k == key })
	if n := len(s.Stack); n > 0 {
		s.Stack[n-1].Local = slices.DeleteFunc(s.Stack[n-1].Local, func(k string) bool { return k == key })
	}
	s.dirty = true
}

func (s *Session) adoptLocal() {
	n := len(s.Stack)
	if n == 0 || len(s.Local) == 0 {
		return
	}
	s.Stack[n-1].Local = mergeKeys(s.Stack[n-1].Local, s.Local)
	s.Local = nil
	s.dirty = true
}

func (s *Session) dropScratch(keys []string) {
	for _, k := range keys {
		delete(s.Scratch, k)
	}
}

func mergeKeys(dst, src []string) []string {
	for _, k := range src {
		if !slices.Contains(dst, k) {
			dst = append(dst, k)
		}
	}
	return dst
}
