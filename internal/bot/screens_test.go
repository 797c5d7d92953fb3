package bot

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/core/telegram/state"
	"github.com/m3rciful/shopbot/internal/domain"
	"github.com/m3rciful/shopbot/internal/service"
)

// dump renders a screen the way a reviewer reads it: text, then buttons as [label](data).
func dump(s state.Screen) []byte {
	var b strings.Builder
	b.WriteString(s.Text)
	b.WriteString("\n---\n")
	if len(s.Keyboard) == 0 {
		b.WriteString("(no keyboard)\n")
	}
	for _, row := range s.Keyboard {
		buttons := make([]string, len(row))
		for i, btn := range row {
			buttons[i] = fmt.Sprintf("[%s](%s)", btn.Label, btn.ID)
		}
		b.WriteString(strings.Join(buttons, " | "))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "state: %q\n", string(s.State))
	return []byte(b.String())
}

func TestScreensGolden(t *testing.T) {
	listingID := int64(5)
	cases := map[string]state.Screen{
		"main_menu": MainMenu("Ann & Co"),
		"admin":     AdminScreen("Root"),
		"profile": ProfileScreen(domain.User{
			ID:          100,
			Username:    format.Ptr("ann"),
			Name:        format.Ptr("Ann"),
			CompanyID:   format.Ptr(12),
			Level:       1,
			Type:        "Individual",
			ContactInfo: format.Ptr("+1 555 0100"),
		}),
		"orders_admin": OrdersScreen([]domain.OrderView{
			{
				Order: domain.Order{
					ID: 3, UserID: 100, ListingID: &listingID, Quantity: 1, TotalPrice: 1200, Profit: 150,
					PaymentMethod: "COD", Status: "Pending", Notes: format.Ptr("Leave at door"),
				},
				UserName: format.Ptr("Ann"),
			},
			{
				Order: domain.Order{
					ID: 4, UserID: 200, Quantity: 2, TotalPrice: 80.5,
					PaymentMethod: "COD", Status: "Delivered",
				},
			},
		}, true),
		"listings": ListingsScreen([]domain.ListingCard{
			{Listing: domain.Listing{ID: 1, ItemType: domain.ItemPC, AddedPrice: 1200}, Title: "Gaming Tower", Condition: "Used"},
			{Listing: domain.Listing{ID: 2, ItemType: domain.ItemLaptop, AddedPrice: 650}, Title: "ThinkPad T14", Condition: "Refurbished"},
			{Listing: domain.Listing{ID: 3, ItemType: domain.ItemPart, AddedPrice: 99.99}},
		}),
		"listing_pc": ListingScreen(service.Details{
			Card: domain.ListingCard{
				Listing: domain.Listing{ID: 1, ItemType: domain.ItemPC, ItemID: 7, AddedPrice: 1200, Notes: format.Ptr("Barely used <3")},
			},
			Item: domain.Item{PC: &domain.PC{
				ID: 7, Title: "Gaming Tower", Condition: "Used",
				CPU: format.Ptr("Ryzen 7 5800X"), GPU: format.Ptr("RTX 3070"), RAM: format.Ptr("32GB"),
				Description: format.Ptr("Great for 1440p"),
			}},
		}),
		"listing_part": ListingScreen(service.Details{
			Card: domain.ListingCard{Listing: domain.Listing{ID: 3, ItemType: domain.ItemPart, ItemID: 2, AddedPrice: 280}},
			Item: domain.Item{Part: &domain.Part{
				ID: 2, Title: "RTX 3060", Type: "GPU", Condition: "New", ContactInfo: format.Ptr("@seller"),
			}},
		}),
		"bid_prompt":    BidPromptScreen("Gaming Tower"),
		"bid_confirmed": BidConfirmedScreen(1250.5, "Gaming Tower"),
		"bid_expired":   BidExpiredScreen(),
		"search_empty":  SearchResultsScreen("mac<book", nil),
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Validate())
			g.Assert(t, name, dump(s))
		})
	}
}

func TestOrdersScreenCapsLongLists(t *testing.T) {
	orders := make([]domain.OrderView, maxOrdersShown+3)
	for i := range orders {
		orders[i].ID = int64(i + 1)
	}
	s := OrdersScreen(orders, false)
	require.Contains(t, s.Text, fmt.Sprintf("%d) <b>Order #%d</b>", maxOrdersShown, maxOrdersShown))
	require.NotContains(t, s.Text, fmt.Sprintf("Order #%d<", maxOrdersShown+1))
	require.Contains(t, s.Text, "…and 3 more")
	require.NotContains(t, s.Text, "Profit")
}
