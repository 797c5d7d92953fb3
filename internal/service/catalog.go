package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/internal/domain"
	"github.com/m3rciful/shopbot/internal/repository"
)

// ListingRepo is the listings table as the catalog sees it.
type ListingRepo interface {
	Cards(ctx context.Context, limit int) ([]domain.ListingCard, error)
	Card(ctx context.Context, id int64) (domain.ListingCard, error)
}

// ItemRepo loads the item behind a listing.
type ItemRepo interface {
	Item(ctx context.Context, t domain.ItemType, id int64) (domain.Item, error)
}

// Details is a listing with its full item record.
type Details struct {
	Card domain.ListingCard
	Item domain.Item
}

// Catalog serves listing browsing and search.
type Catalog struct {
	listings ListingRepo
	items    ItemRepo
	pageSize int
}

// NewCatalog constructs the catalog service. pageSize caps list screens; 0 shows everything.
func NewCatalog(listings ListingRepo, items ItemRepo, pageSize int) (*Catalog, error) {
	if listings == nil || items == nil {
		return nil, errors.New("service: listings and items repositories are required")
	}
	if pageSize < 0 {
		pageSize = 0
	}
	return &Catalog{listings: listings, items: items, pageSize: pageSize}, nil
}

// Cards returns the listings shown on the catalog screen.
func (s *Catalog) Cards(ctx context.Context) ([]domain.ListingCard, error) {
	return s.listings.Cards(ctx, s.pageSize)
}

// Details loads a listing and the item it sells.
func (s *Catalog) Details(ctx context.Context, listingID int64) (Details, error) {
	card, err := s.listings.Card(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Details{}, newError(ErrorNotFound, "listing", err)
		}
		return Details{}, err
	}
	item, err := s.items.Item(ctx, card.ItemType, card.ItemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Details{}, newError(ErrorNotFound, "item", err)
		}
		return Details{}, err
	}
	return Details{Card: card, Item: item}, nil
}

// Search ranks listing titles against query, closest first. An empty query matches nothing.
func (s *Catalog) Search(ctx context.Context, query string) ([]domain.ListingCard, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newError(ErrorInvalidInput, "empty query", nil)
	}
	cards, err := s.listings.Cards(ctx, 0)
	if err != nil {
		return nil, err
	}
	titles := make([]string, len(cards))
	for i, c := range cards {
		titles[i] = c.Title
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Stable(ranks)

	limit := len(ranks)
	if s.pageSize > 0 && limit > s.pageSize {
		limit = s.pageSize
	}
	out := make([]domain.ListingCard, 0, limit)
	for _, r := range ranks[:limit] {
		out = append(out, cards[r.OriginalIndex])
	}
	logger.Debug(ctx, "service.catalog", "search",
		slog.Int("results_shown", len(out)),
		slog.Int("results_total", len(ranks)),
	)
	return out, nil
}
