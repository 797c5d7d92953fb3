package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/core/telegram/state"
	"github.com/m3rciful/shopbot/internal/domain"
	"github.com/m3rciful/shopbot/internal/service"
)

// MainMenu is the root screen greeting the user by first name.
func MainMenu(firstName string) state.Screen {
	return state.Screen{
		Text: "HI, " + format.EscapeHTML(firstName),
		Keyboard: keyboard.Grid(2,
			keyboard.Btn("👤 My profile", CbProfile),
			keyboard.Btn("📦 My orders", CbOrders),
			keyboard.Btn("🖥 PC list", CbPCList),
			keyboard.Btn("🔎 Search", CbSearch),
		),
	}
}

// AdminScreen greets an admin.
func AdminScreen(firstName string) state.Screen {
	return state.Screen{Text: "Admin mode " + format.EscapeHTML(firstName)}
}

// ProfileScreen shows the stored profile.
func ProfileScreen(u domain.User) state.Screen {
	lines := []string{
		"👤 <b>My profile</b>",
		field("Name", format.DerefString(u.Name, "-")),
	}
	if u.Username != nil && *u.Username != "" {
		lines = append(lines, field("Username", "@"+*u.Username))
	}
	lines = append(lines,
		field("Type", u.Type),
		field("Level", strconv.Itoa(u.Level)),
	)
	if company := format.DerefInt(u.CompanyID, 0); company != 0 {
		lines = append(lines, field("Company", strconv.Itoa(company)))
	}
	lines = append(lines,
		field("Address", format.DerefString(u.Address, "-")),
		field("Contact", format.DerefString(u.ContactInfo, "-")),
	)
	return state.Screen{
		Text:     strings.Join(lines, "\n"),
		Keyboard: keyboard.Layout{}.WithBack(),
	}
}

// OrdersScreen lists orders; withBuyers adds buyer and profit lines for admins.
func OrdersScreen(orders []domain.OrderView, withBuyers bool) state.Screen {
	title := "📦 <b>Your orders</b>"
	if withBuyers {
		title = "📦 <b>All orders</b>"
	}
	blocks := []string{title}
	for i, o := range orders {
		if i == maxOrdersShown {
			blocks = append(blocks, fmt.Sprintf("…and %d more", len(orders)-maxOrdersShown))
			break
		}
		blocks = append(blocks, orderBlock(i+1, o, withBuyers))
	}
	return state.Screen{
		Text:     strings.Join(blocks, "\n\n"),
		Keyboard: keyboard.Layout{}.WithBack(),
	}
}

func orderBlock(n int, o domain.OrderView, withBuyers bool) string {
	lines := []string{fmt.Sprintf("%d) <b>Order #%d</b>", n, o.ID)}
	if withBuyers {
		buyer := o.Buyer()
		if buyer == "" {
			buyer = "unknown"
		}
		lines = append(lines, fmt.Sprintf("Buyer: %s (ID: %d)", format.EscapeHTML(buyer), o.UserID))
	}
	if o.ListingID != nil {
		lines = append(lines, fmt.Sprintf("Listing: #%d", *o.ListingID))
	}
	lines = append(lines,
		fmt.Sprintf("Quantity: %d", o.Quantity),
		"Total: "+format.Price(o.TotalPrice),
	)
	if withBuyers {
		lines = append(lines, "Profit: "+format.Price(o.Profit))
	}
	lines = append(lines,
		"Payment: "+format.EscapeHTML(o.PaymentMethod),
		"Status: "+format.EscapeHTML(o.Status),
	)
	if o.Notes != nil && *o.Notes != "" {
		lines = append(lines, "Notes: "+format.EscapeHTML(*o.Notes))
	}
	return strings.Join(lines, "\n")
}

// ListingsScreen shows one button per listing.
func ListingsScreen(cards []domain.ListingCard) state.Screen {
	if len(cards) == 0 {
		return state.Screen{
			Text:     "No listings available right now.",
			Keyboard: keyboard.Layout{}.WithBack(),
		}
	}
	return state.Screen{
		Text:     "Here are available options.",
		Keyboard: listingButtons(cards).WithBack(),
	}
}

// SearchPromptScreen asks for a search query.
func SearchPromptScreen() state.Screen {
	return state.Screen{
		Text:     "🔎 Send a part of a title to search the catalog:",
		Keyboard: keyboard.Layout{}.WithBack(),
	}
}

// SearchResultsScreen lists matches for query.
func SearchResultsScreen(query string, cards []domain.ListingCard) state.Screen {
	if len(cards) == 0 {
		return state.Screen{
			Text:     "Nothing matches " + format.Bold(query) + ".",
			Keyboard: keyboard.Layout{}.WithBack(),
		}
	}
	return state.Screen{
		Text:     "Results for " + format.Bold(query) + ":",
		Keyboard: listingButtons(cards).WithBack(),
	}
}

func listingButtons(cards []domain.ListingCard) keyboard.Layout {
	buttons := make([]keyboard.Button, 0, len(cards))
	for i, c := range cards {
		buttons = append(buttons, keyboard.Btn(cardLabel(i+1, c), keyboard.Data(CbListing, strconv.FormatInt(c.ID, 10))))
	}
	return keyboard.Grid(1, buttons...)
}

func cardLabel(n int, c domain.ListingCard) string {
	title := c.Title
	if title == "" {
		title = "Unknown"
	}
	parts := []string{fmt.Sprintf("%d) %s", n, title), string(c.ItemType)}
	if c.Condition != "" {
		parts = append(parts, c.Condition)
	}
	parts = append(parts, format.Price(c.AddedPrice))
	return strings.Join(parts, " · ")
}

// ListingScreen describes a listing with its item specific fields.
func ListingScreen(d service.Details) state.Screen {
	title := d.Item.Title()
	if title == "" {
		title = "Unknown"
	}
	lines := []string{format.Bold(title)}
	if d.Card.Notes != nil && *d.Card.Notes != "" {
		lines = append(lines, format.EscapeHTML(*d.Card.Notes)+"\n")
	}
	lines = append(lines, field("Type", string(d.Card.ItemType)))

	switch {
	case d.Item.PC != nil:
		pc := d.Item.PC
		lines = append(lines, field("Condition", pc.Condition))
		lines = appendSpecs(lines,
			spec{"CPU", pc.CPU}, spec{"GPU", pc.GPU}, spec{"RAM", pc.RAM},
			spec{"Storage", pc.Storage}, spec{"PSU", pc.PSU}, spec{"Motherboard", pc.Motherboard},
			spec{"Case", pc.Case}, spec{"Cooling", pc.Cooling}, spec{"Description", pc.Description},
		)
	case d.Item.Laptop != nil:
		l := d.Item.Laptop
		lines = append(lines, field("Condition", l.Condition))
		lines = appendSpecs(lines,
			spec{"CPU", l.CPU}, spec{"GPU", l.GPU}, spec{"RAM", l.RAM},
			spec{"Storage", l.Storage}, spec{"Display", l.Display}, spec{"Battery", l.Battery},
			spec{"Description", l.Description},
		)
	case d.Item.Part != nil:
		p := d.Item.Part
		lines = append(lines,
			field("Condition", p.Condition),
			field("Part Type", p.Type),
			field("Link", format.DerefString(p.ListingURL, "-")),
			field("Contact Info", format.DerefString(p.ContactInfo, "-")),
		)
		lines = appendSpecs(lines, spec{"Description", p.Description})
	}
	lines = append(lines, "💰 "+field("Price", format.Price(d.Card.AddedPrice)))

	id := strconv.FormatInt(d.Card.ID, 10)
	return state.Screen{
		Text: strings.Join(lines, "\n"),
		Keyboard: keyboard.Rows(
			[]keyboard.Button{keyboard.Btn("💵 Place a bid", keyboard.Data(CbBid, id))},
			[]keyboard.Button{keyboard.Back()},
		),
	}
}

// BidPromptScreen asks for a price and waits for it.
func BidPromptScreen(title string) state.Screen {
	return state.Screen{
		Text:     "💵 Please enter your bid price for " + format.Bold(title) + ":",
		Keyboard: keyboard.Layout{}.WithBack(),
		State:    StateWaitingForPrice,
	}
}

// BidConfirmedScreen acknowledges a stored bid.
func BidConfirmedScreen(price float64, title string) state.Screen {
	return state.Screen{
		Text: "Your bid of " + format.Bold(format.Number(price)) + " has been submitted!\n" +
			"Unit: " + format.Bold(title),
		Keyboard: keyboard.Layout{}.WithBack(),
	}
}

// BidExpiredScreen replaces a price prompt whose listing is no longer known.
func BidExpiredScreen() state.Screen {
	return state.Screen{
		Text: "This bid has expired. Please pick the listing again.",
		Keyboard: keyboard.Rows(
			[]keyboard.Button{keyboard.Btn("🖥 PC list", CbPCList)},
			[]keyboard.Button{keyboard.Back()},
		),
	}
}

type spec struct {
	name  string
	value *string
}

func appendSpecs(lines []string, specs ...spec) []string {
	for _, s := range specs {
		if s.value == nil || strings.TrimSpace(*s.value) == "" {
			continue
		}
		lines = append(lines, field(s.name, *s.value))
	}
	return lines
}

func field(name, value string) string {
	return "<b>" + name + ":</b> " + format.EscapeHTML(value)
}
