package app

import (
	"context"
	"sync/atomic"

	"github.com/m3rciful/shopbot/core/telegram/sender"
)

// lazyNotifier forwards to the runtime's dispatcher, which only exists once
// the bot is composed.
type lazyNotifier struct {
	d atomic.Pointer[sender.Dispatcher]
}

func (n *lazyNotifier) bind(d *sender.Dispatcher) {
	n.d.Store(d)
}

// Enqueue implements service.Notifier.
func (n *lazyNotifier) Enqueue(ctx context.Context, msg sender.Message) error {
	d := n.d.Load()
	if d == nil {
		return sender.ErrQueueClosed
	}
	return d.Enqueue(ctx, msg)
}
