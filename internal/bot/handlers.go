package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/navigation"
	"github.com/m3rciful/shopbot/core/telegram/state"
	"github.com/m3rciful/shopbot/internal/domain"
	"github.com/m3rciful/shopbot/internal/service"

	tele "gopkg.in/telebot.v4"
)

// Deps are the services the handlers call.
type Deps struct {
	Users   *service.Users
	Catalog *service.Catalog
	Bids    *service.Bids
	Orders  *service.Orders
}

// Handlers implements the storefront screens.
type Handlers struct {
	users   *service.Users
	catalog *service.Catalog
	bids    *service.Bids
	orders  *service.Orders
}

// New validates deps and builds the handlers.
func New(d Deps) (*Handlers, error) {
	if d.Users == nil || d.Catalog == nil || d.Bids == nil || d.Orders == nil {
		return nil, errors.New("bot: users, catalog, bids and orders services are required")
	}
	return &Handlers{users: d.Users, catalog: d.Catalog, bids: d.Bids, orders: d.Orders}, nil
}

// Root is the screen navigation falls back to when history runs out.
func (h *Handlers) Root(c tele.Context) state.Screen {
	return MainMenu(tghelpers.FirstName(c))
}

// Start resets history and shows the main menu.
func (h *Handlers) Start(c tele.Context) error {
	if sess, ok := state.From(c); ok {
		sess.Reset()
	}
	return navigation.Show(c, h.Root(c), navigation.ModeSend)
}

// Admin greets admins; access is enforced by the command router.
func (h *Handlers) Admin(c tele.Context) error {
	return navigation.Show(c, AdminScreen(tghelpers.FirstName(c)), navigation.ModeSend)
}

// Profile shows the sender's stored profile.
func (h *Handlers) Profile(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	u, err := tghelpers.CurrentUser[domain.User](ctx, c, h.users)
	if isNotFound(err) {
		return callbacks.Alert(c, "Profile not found.")
	}
	if err != nil {
		return err
	}
	return navigation.Show(c, ProfileScreen(u), navigation.ModeEdit)
}

// Orders lists the sender's orders, or every order for admins.
func (h *Handlers) Orders(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	orders, withBuyers, err := h.orders.Visible(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return callbacks.Alert(c, "You have no orders.")
	}
	return navigation.Show(c, OrdersScreen(orders, withBuyers), navigation.ModeReplace)
}

// PCList shows the catalog.
func (h *Handlers) PCList(c tele.Context) error {
	cards, err := h.catalog.Cards(tghelpers.BuildContext(c))
	if err != nil {
		return err
	}
	return navigation.Show(c, ListingsScreen(cards), navigation.ModeReplace)
}

// Listing shows the details of the listing named in the payload.
func (h *Handlers) Listing(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return callbacks.Toast(c, "Unsupported action")
	}
	d, err := h.catalog.Details(withListing(c, id), id)
	if isNotFound(err) {
		return callbacks.Alert(c, "Listing not found!")
	}
	if err != nil {
		return err
	}
	return navigation.Show(c, ListingScreen(d), navigation.ModeEdit)
}

// BidStart asks for a price for the listing named in the payload.
func (h *Handlers) BidStart(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return callbacks.Toast(c, "Unsupported action")
	}
	d, err := h.catalog.Details(withListing(c, id), id)
	if isNotFound(err) {
		return callbacks.Alert(c, "Listing not found!")
	}
	if err != nil {
		return err
	}
	sess, ok := state.From(c)
	if !ok {
		return errors.New("bot: no session attached")
	}
	title := d.Item.Title()
	sess.SetLocal(keyBidListing, id)
	sess.SetLocal(keyBidTitle, title)
	sess.SetState(StateWaitingForPrice)
	return navigation.Show(c, BidPromptScreen(title), navigation.ModeReplace)
}

// BidPrice takes the typed price and records the bid.
func (h *Handlers) BidPrice(c tele.Context) error {
	sess, ok := state.From(c)
	if !ok {
		return errors.New("bot: no session attached")
	}
	price, err := service.ParsePrice(c.Text())
	if err != nil {
		return tghelpers.SendHTML(c, "Enter a valid number:")
	}
	listingID, ok := sess.GetTempInt64(keyBidListing)
	if !ok {
		sess.ClearState()
		return navigation.Show(c, BidExpiredScreen(), navigation.ModeSend)
	}
	title, _ := sess.GetTempString(keyBidTitle)

	ctx := withListing(c, listingID)
	sender := c.Sender()
	if _, err := h.bids.Place(ctx, service.PlaceInput{
		UserID:    sender.ID,
		Buyer:     buyerName(sender),
		ListingID: listingID,
		Title:     title,
		Price:     price,
	}); err != nil {
		return err
	}
	sess.ClearTemp(keyBidListing)
	sess.ClearTemp(keyBidTitle)
	sess.ClearState()
	return navigation.Show(c, BidConfirmedScreen(price, title), navigation.ModeSend)
}

// SearchStart asks for a query.
func (h *Handlers) SearchStart(c tele.Context) error {
	sess, ok := state.From(c)
	if !ok {
		return errors.New("bot: no session attached")
	}
	sess.SetState(StateWaitingForQuery)
	return navigation.Show(c, SearchPromptScreen(), navigation.ModeEdit)
}

// SearchQuery shows listings matching the typed query.
func (h *Handlers) SearchQuery(c tele.Context) error {
	sess, ok := state.From(c)
	if !ok {
		return errors.New("bot: no session attached")
	}
	query := strings.TrimSpace(c.Text())
	if query == "" {
		return tghelpers.SendHTML(c, "Send a few letters of the title:")
	}
	cards, err := h.catalog.Search(tghelpers.BuildContext(c), query)
	if err != nil {
		return err
	}
	sess.ClearState()
	return navigation.Show(c, SearchResultsScreen(query, cards), navigation.ModeSend)
}

func buyerName(u *tele.User) string {
	switch {
	case u.Username != "":
		return "@" + u.Username
	case u.FirstName != "":
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	default:
		return strconv.FormatInt(u.ID, 10)
	}
}

// withListing tags the update's log context with the listing it works on.
func withListing(c tele.Context, id int64) context.Context {
	ctx := logger.WithListing(tghelpers.BuildContext(c), id)
	tghelpers.StoreContext(c, ctx)
	return ctx
}

func isNotFound(err error) bool {
	var svcErr *service.Error
	return errors.As(err, &svcErr) && svcErr.Kind == service.ErrorNotFound
}

func logSkip(c tele.Context, event string, attrs ...slog.Attr) {
	logger.Debug(tghelpers.BuildContext(c), "tg", event, attrs...)
}
