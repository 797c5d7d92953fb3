// Package sequence runs work in per-key FIFO lanes: tasks sharing a key run
// one after another in submission order, tasks with different keys run
// concurrently.
package sequence

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("sequence: closed")

type lane struct {
	queue []func()
}

// Sequencer owns one lane per active key. Idle lanes are dropped.
type Sequencer struct {
	mu      sync.Mutex
	lanes   map[int64]*lane
	closed  bool
	wg      sync.WaitGroup
	onPanic func(key int64, recovered any)
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithPanicHandler is called with the recovered value when a task panics.
// The lane keeps running the tasks queued after it.
func WithPanicHandler(fn func(key int64, recovered any)) Option {
	return func(s *Sequencer) { s.onPanic = fn }
}

// New creates a Sequencer.
func New(opts ...Option) *Sequencer {
	s := &Sequencer{lanes: make(map[int64]*lane)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit queues fn on the lane for key. It never blocks on running work.
func (s *Sequencer) Submit(key int64, fn func()) error {
	if fn == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	l, ok := s.lanes[key]
	if ok {
		l.queue = append(l.queue, fn)
		return nil
	}
	l = &lane{queue: []func(){fn}}
	s.lanes[key] = l
	s.wg.Add(1)
	go s.drain(key, l)
	return nil
}

func (s *Sequencer) drain(key int64, l *lane) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		if len(l.queue) == 0 {
			delete(s.lanes, key)
			s.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		s.mu.Unlock()

		s.run(key, fn)
	}
}

func (s *Sequencer) run(key int64, fn func()) {
	defer func() {
		if r := recover(); r != nil && s.onPanic != nil {
			s.onPanic(key, r)
		}
	}()
	fn()
}

// Active returns the number of lanes with queued or running work.
func (s *Sequencer) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lanes)
}

// Close rejects new work and waits for queued work to finish.
func (s *Sequencer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}
