package bot

import (
	"log/slog"
	"strings"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/format"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/ui"
	"github.com/m3rciful/shopbot/internal/domain"

	tele "gopkg.in/telebot.v4"
)

const inlineCacheSeconds = 30

// InlineSearch answers inline queries with matching listings; an empty query shows the catalog.
func (h *Handlers) InlineSearch(c tele.Context) error {
	q := c.Query()
	if q == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	var (
		cards []domain.ListingCard
		err   error
	)
	if text := strings.TrimSpace(q.Text); text != "" {
		cards, err = h.catalog.Search(ctx, text)
	} else {
		cards, err = h.catalog.Cards(ctx)
	}
	if err != nil {
		return err
	}

	results := make(tele.Results, 0, len(cards))
	for i, card := range cards {
		results = append(results, ui.NewArticle(card.ID, cardLabel(i+1, card), string(card.ItemType), inlineText(card)))
	}
	logger.Debug(ctx, "tg", "inline.answer", slog.Int("results_shown", len(results)))
	return c.Answer(&tele.QueryResponse{Results: results, CacheTime: inlineCacheSeconds})
}

func inlineText(card domain.ListingCard) string {
	parts := []string{format.Bold(card.Title), string(card.ItemType)}
	if card.Condition != "" {
		parts = append(parts, card.Condition)
	}
	parts = append(parts, format.Price(card.AddedPrice))
	return strings.Join(parts, ", ")
}
