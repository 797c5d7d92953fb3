package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/core/telegram/sender"
	"github.com/m3rciful/shopbot/internal/domain"
)

// BidRepo stores bids.
type BidRepo interface {
	Create(ctx context.Context, b domain.Bid) (int64, error)
}

// Notifier queues messages for delivery outside the current update.
type Notifier interface {
	Enqueue(ctx context.Context, msg sender.Message) error
}

// Recipients lists who is told about new bids.
type Recipients interface {
	AdminIDs(ctx context.Context) ([]int64, error)
}

// BidsOptions wires the bid service.
type BidsOptions struct {
	Repo       BidRepo
	Notifier   Notifier
	Recipients Recipients
	// OwnerID is notified even when absent from the admins table.
	OwnerID int64
	// NewReference overrides reference generation in tests.
	NewReference func() string
}

// Bids records offers on listings.
type Bids struct {
	opts BidsOptions
}

// PlaceInput describes a bid entered by a user.
type PlaceInput struct {
	UserID    int64
	Buyer     string
	ListingID int64
	Title     string
	Price     float64
}

// NewBids constructs the bid service.
func NewBids(opts BidsOptions) (*Bids, error) {
	if opts.Repo == nil {
		return nil, errors.New("service: bid repository is required")
	}
	if opts.NewReference == nil {
		opts.NewReference = func() string { return uuid.NewString() }
	}
	return &Bids{opts: opts}, nil
}

// ParsePrice reads a price typed by a user. A comma works as decimal separator.
func ParsePrice(text string) (float64, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	text = strings.TrimPrefix(text, "$")
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, newError(ErrorInvalidInput, "price is not a number", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, newError(ErrorInvalidInput, "price must be positive", nil)
	}
	return v, nil
}

// Place stores a pending bid for one unit and notifies admins in the background.
func (s *Bids) Place(ctx context.Context, in PlaceInput) (domain.Bid, error) {
	if in.ListingID <= 0 {
		return domain.Bid{}, newError(ErrorInvalidInput, "listing missing", nil)
	}
	if in.Price <= 0 {
		return domain.Bid{}, newError(ErrorInvalidInput, "price must be positive", nil)
	}
	b := domain.Bid{
		Reference:    s.opts.NewReference(),
		UserID:       in.UserID,
		ListingID:    in.ListingID,
		Quantity:     1,
		OfferedPrice: in.Price,
		Status:       domain.StatusPending,
	}
	id, err := s.opts.Repo.Create(ctx, b)
	if err != nil {
		return domain.Bid{}, err
	}
	b.ID = id
	ctx = logger.WithBid(ctx, b.ID, b.ListingID)
	logger.Info(ctx, "service.bids", "bid.created",
		slog.Int64("user_id", b.UserID),
		slog.String("reference", b.Reference),
	)
	s.notify(ctx, b, in)
	return b, nil
}

func (s *Bids) notify(ctx context.Context, b domain.Bid, in PlaceInput) {
	if s.opts.Notifier == nil {
		return
	}
	ids := s.recipients(ctx)
	if len(ids) == 0 {
		return
	}
	buyer := in.Buyer
	if buyer == "" {
		buyer = strconv.FormatInt(in.UserID, 10)
	}
	text := fmt.Sprintf("🆕 New bid <code>%s</code>\nUnit: %s\nOffer: %s\nFrom: %s",
		format.EscapeHTML(b.Reference),
		format.Bold(in.Title),
		format.Bold(format.Price(b.OfferedPrice)),
		format.EscapeHTML(buyer),
	)
	for _, id := range ids {
		if id == in.UserID {
			continue
		}
		err := s.opts.Notifier.Enqueue(ctx, sender.Message{ChatID: id, Text: text, Kind: "bid.notify"})
		if err != nil {
			logger.Warn(ctx, "service.bids", "notify.skip",
				slog.Int64("chat_id", id),
				slog.String("err", err.Error()),
			)
		}
	}
}

func (s *Bids) recipients(ctx context.Context) []int64 {
	var ids []int64
	if s.opts.Recipients != nil {
		list, err := s.opts.Recipients.AdminIDs(ctx)
		if err != nil {
			logger.Warn(ctx, "service.bids", "notify.recipients", slog.String("err", err.Error()))
		}
		ids = list
	}
	if s.opts.OwnerID != 0 && !slices.Contains(ids, s.opts.OwnerID) {
		ids = append(ids, s.opts.OwnerID)
	}
	return ids
}
