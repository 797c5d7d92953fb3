package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/sequence"

	tele "gopkg.in/telebot.v4"
)

const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// WebhookOptions declares webhook listener settings.
type WebhookOptions struct {
	Listen      string
	Port        int
	URL         string
	SecretToken string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
}

// BuildPoller returns a Telebot poller based on provided options.
func BuildPoller(opts PollerOptions) tele.Poller {
	runMode := strings.ToLower(strings.TrimSpace(opts.RunMode))
	if runMode == RunModeWebhook {
		return &tele.Webhook{
			Listen:      fmt.Sprintf("%s:%d", opts.Webhook.Listen, opts.Webhook.Port),
			SecretToken: opts.Webhook.SecretToken,
			Endpoint:    &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
		}
	}

	timeoutSec := opts.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	return &tele.LongPoller{Timeout: time.Duration(timeoutSec) * time.Second}
}

// SequencedPoller wraps a poller and processes every update on its
// conversation's lane, so updates from one chat are handled strictly in
// arrival order while other chats proceed concurrently. The bot must be
// synchronous for handlers to finish inside the lane.
type SequencedPoller struct {
	Poller    tele.Poller
	Sequencer *sequence.Sequencer
}

// Poll implements tele.Poller. Updates are processed here and never
// forwarded to dest.
func (p *SequencedPoller) Poll(b *tele.Bot, dest chan tele.Update, stop chan struct{}) {
	inner := make(chan tele.Update, 1)
	stopInner := make(chan struct{})
	stopConfirm := make(chan struct{})

	go func() {
		p.Poller.Poll(b, inner, stopInner)
		close(stopConfirm)
	}()

	for {
		select {
		case <-stop:
			close(stopInner)
			<-stopConfirm
			return
		case upd := <-inner:
			p.dispatch(b, upd)
		}
	}
}

func (p *SequencedPoller) dispatch(b *tele.Bot, upd tele.Update) {
	key := UpdateKey(b.NewContext(upd))
	err := p.Sequencer.Submit(key, func() { b.ProcessUpdate(upd) })
	if err != nil {
		logger.Warn(context.Background(), "tg", "update.dropped",
			slog.Int("update_id", upd.ID),
			slog.Int64("chat_id", key),
			slog.String("err", err.Error()),
		)
	}
}

// UpdateKey returns the conversation an update belongs to: the chat when
// there is one, otherwise the sender.
func UpdateKey(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}
