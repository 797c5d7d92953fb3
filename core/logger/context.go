package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

type ctxKey int

const (
	metaKey ctxKey = iota
	loggerKey
)

// meta is the per-update data every log line written under a context inherits.
type meta struct {
	rid      string
	updateID int
	userID   int64
	chatID   int64
	handler  string

	// navigation snapshot taken when the update's session was loaded
	navSet bool
	depth  int
	state  string

	listingID int64
	bidID     int64
}

func metaFrom(ctx context.Context) meta {
	if ctx == nil {
		return meta{}
	}
	m, _ := ctx.Value(metaKey).(meta)
	return m
}

func withMeta(ctx context.Context, edit func(*meta)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	m := metaFrom(ctx)
	edit(&m)
	return context.WithValue(ctx, metaKey, m)
}

// fill adds the context fields a record did not set itself.
func (m meta) fill(e entry) {
	e.setDefault("rid", m.rid)
	if m.updateID != 0 {
		e.setDefault("update_id", int64(m.updateID))
	}
	if m.userID != 0 {
		e.setDefault("user_id", m.userID)
	}
	if m.chatID != 0 {
		e.setDefault("chat_id", m.chatID)
	}
	e.setDefault("handler", m.handler)
	if m.navSet {
		e.setDefault("depth", int64(m.depth))
		e.setDefault("state", m.state)
	}
	if m.listingID != 0 {
		e.setDefault("listing_id", m.listingID)
	}
	if m.bidID != 0 {
		e.setDefault("bid_id", m.bidID)
	}
}

// WithLogger stores log in ctx; Debug, Info and friends fall back to it.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger stored in ctx, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID sets the correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withMeta(ctx, func(m *meta) { m.rid = rid })
}

// WithUpdateMeta sets the Telegram update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withMeta(ctx, func(m *meta) {
		m.updateID = updateID
		m.userID = userID
		m.chatID = chatID
	})
}

// WithHandler names the handler serving the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		return ctx
	}
	return withMeta(ctx, func(m *meta) { m.handler = handler })
}

// WithNav records the conversation's history depth and step; an empty
// step is logged as idle by omission.
func WithNav(ctx context.Context, depth int, state string) context.Context {
	return withMeta(ctx, func(m *meta) {
		m.navSet = true
		m.depth = depth
		m.state = state
	})
}

// WithListing tags logs with the listing being viewed or bid on.
func WithListing(ctx context.Context, listingID int64) context.Context {
	return withMeta(ctx, func(m *meta) { m.listingID = listingID })
}

// WithBid tags logs with a stored bid and the listing it was placed on.
func WithBid(ctx context.Context, bidID, listingID int64) context.Context {
	return withMeta(ctx, func(m *meta) {
		m.bidID = bidID
		if listingID != 0 {
			m.listingID = listingID
		}
	})
}

// BuildRID formats a correlation id as updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID rewrites each numeric segment of a BuildRID id in base36,
// joined by dots. Anything else comes back unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}
