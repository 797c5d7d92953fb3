// Package bot holds the storefront's Telegram handlers and the screens they show.
package bot

import "github.com/m3rciful/shopbot/core/telegram/state"

// Callback keys; payloads follow the keyboard separator.
const (
	CbProfile = "my_profile"
	CbOrders  = "my_orders"
	CbPCList  = "pc_list"
	CbListing = "listing"
	CbBid     = "bid"
	CbSearch  = "search"
)

// Conversation states waiting for typed input.
const (
	StateWaitingForPrice state.State = "bid.waiting_for_price"
	StateWaitingForQuery state.State = "search.waiting_for_query"
)

// Screen-local scratch keys.
const (
	keyBidListing = "bid_listing_id"
	keyBidTitle   = "bid_title"
)

const maxOrdersShown = 20
