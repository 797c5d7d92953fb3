package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/shopbot/core/logger"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AccessChecker decides whether a user may talk to the bot at all.
type AccessChecker interface {
	Allowed(ctx context.Context, userID int64) (bool, error)
}

// LevelChecker reports a user's admin level; lower numbers carry more privilege.
type LevelChecker interface {
	AdminLevel(ctx context.Context, userID int64) (level int, ok bool, err error)
}

// AccessOptions configures AllowList.
type AccessOptions struct {
	Checker AccessChecker
	// OwnerID always passes.
	OwnerID  int64
	OnReject tele.HandlerFunc
}

// AllowList drops updates from users the checker does not know.
func AllowList(opts AccessOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if opts.Checker == nil || user == nil || (opts.OwnerID != 0 && user.ID == opts.OwnerID) {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			ok, err := opts.Checker.Allowed(ctx, user.ID)
			if err != nil {
				return err
			}
			if !ok {
				logger.Debug(ctx, "tg", "access.denied", slog.Int64("user_id", user.ID))
				return reject(c, opts.OnReject)
			}
			return next(c)
		}
	}
}

// AdminOptions defines how admin-level checks behave.
type AdminOptions struct {
	Checker LevelChecker
	// OwnerID always passes, regardless of the admins table.
	OwnerID  int64
	OnReject tele.HandlerFunc
}

// AdminLevel lets through admins whose level is at most minLevel.
func AdminLevel(opts AdminOptions, minLevel int) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return reject(c, opts.OnReject)
			}
			if opts.OwnerID != 0 && user.ID == opts.OwnerID {
				return next(c)
			}
			if opts.Checker == nil {
				return reject(c, opts.OnReject)
			}
			ctx := tghelpers.BuildContext(c)
			level, ok, err := opts.Checker.AdminLevel(ctx, user.ID)
			if err != nil {
				return err
			}
			if !ok || level > minLevel {
				logger.Debug(ctx, "tg", "access.admin_denied",
					slog.Int64("user_id", user.ID),
					slog.Int("level", level),
				)
				return reject(c, opts.OnReject)
			}
			return next(c)
		}
	}
}

func reject(c tele.Context, onReject tele.HandlerFunc) error {
	if onReject != nil {
		return onReject(c)
	}
	return nil
}
