package state

import (
	"log/slog"
	"sync"

	"github.com/m3rciful/shopbot/core/logger"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Machine dispatches free text input to the handler registered for the
// conversation's current state.
type Machine struct {
	mu       sync.RWMutex
	handlers map[State]tele.HandlerFunc
}

// NewMachine constructs an empty Machine.
func NewMachine() *Machine {
	return &Machine{handlers: make(map[State]tele.HandlerFunc)}
}

// Register associates a state with its handler.
func (m *Machine) Register(st State, h tele.HandlerFunc) {
	if h == nil || st == StateIdle {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

func (m *Machine) handler(st State) (tele.HandlerFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handlers[st]
	return h, ok
}

// InProgress reports whether the conversation waits for input a handler can take.
func (m *Machine) InProgress(c tele.Context) bool {
	s, ok := From(c)
	if !ok || !s.HasState() {
		return false
	}
	_, ok = m.handler(s.State)
	return ok
}

// Handle executes the handler registered for the current state, if any.
func (m *Machine) Handle(c tele.Context) error {
	s, ok := From(c)
	if !ok {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "fsm.manager",
		slog.String("status", "ok"),
		slog.String("state", string(s.State)),
	)
	if h, ok := m.handler(s.State); ok {
		return h(c)
	}
	return nil
}
