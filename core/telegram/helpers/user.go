package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

// UserLookup resolves a Telegram account to a domain user.
type UserLookup[T any] interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (T, error)
}

// CurrentUser resolves the sender of the update through service.
func CurrentUser[T any](ctx context.Context, c tele.Context, service UserLookup[T]) (T, error) {
	var zero T
	sender := c.Sender()
	if service == nil || sender == nil {
		return zero, nil
	}
	return service.GetUserByTelegramID(ctx, sender.ID)
}

// FirstName returns the sender's first name, or a neutral greeting target.
func FirstName(c tele.Context) string {
	if u := c.Sender(); u != nil && u.FirstName != "" {
		return u.FirstName
	}
	return "there"
}
