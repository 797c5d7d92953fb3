// Package domain holds the storefront records shared by repositories,
// services and bot handlers.
package domain

import "time"

// ItemType names the catalog table a listing points at.
type ItemType string

const (
	ItemPC     ItemType = "PC"
	ItemLaptop ItemType = "Laptop"
	ItemPart   ItemType = "Part"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case ItemPC, ItemLaptop, ItemPart:
		return true
	}
	return false
}

// Bid and order statuses.
const (
	StatusPending = "Pending"
	PaymentCOD    = "COD"
)

// User is a customer allowed to talk to the bot. ID is the Telegram user id.
type User struct {
	ID          int64     `db:"id"`
	Username    *string   `db:"username"`
	Name        *string   `db:"name"`
	CompanyID   *int      `db:"company_id"`
	Level       int       `db:"level"`
	Type        string    `db:"type"`
	Address     *string   `db:"address"`
	ContactInfo *string   `db:"contact_info"`
	CreatedAt   time.Time `db:"created_at"`
}

// DisplayName prefers the stored name, then the username.
func (u User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return ""
}

// Admin grants elevated access; a lower AccessLevel means more privilege.
type Admin struct {
	UserID      int64     `db:"user_id"`
	Name        *string   `db:"name"`
	AccessLevel int       `db:"access_level"`
	CreatedAt   time.Time `db:"created_at"`
}

// PC is a desktop computer in the catalog.
type PC struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	CPU         *string   `db:"cpu"`
	GPU         *string   `db:"gpu"`
	RAM         *string   `db:"ram"`
	Storage     *string   `db:"storage"`
	PSU         *string   `db:"psu"`
	Motherboard *string   `db:"motherboard"`
	Case        *string   `db:"case_name"`
	Cooling     *string   `db:"cooling"`
	PhotoURL    *string   `db:"photo_url"`
	Description *string   `db:"description"`
	Notes       *string   `db:"notes"`
	Condition   string    `db:"condition"`
	CreatedAt   time.Time `db:"created_at"`
}

// Laptop is a notebook computer in the catalog.
type Laptop struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	CPU         *string   `db:"cpu"`
	GPU         *string   `db:"gpu"`
	RAM         *string   `db:"ram"`
	Storage     *string   `db:"storage"`
	Display     *string   `db:"display"`
	Battery     *string   `db:"battery"`
	PhotoURL    *string   `db:"photo_url"`
	Description *string   `db:"description"`
	Notes       *string   `db:"notes"`
	Condition   string    `db:"condition"`
	CreatedAt   time.Time `db:"created_at"`
}

// Part is a single component in the catalog.
type Part struct {
	ID          int64     `db:"id"`
	Type        string    `db:"type"`
	Title       string    `db:"title"`
	Condition   string    `db:"condition"`
	ListedPrice float64   `db:"listed_price"`
	SoldPrice   *float64  `db:"sold_price"`
	ListingURL  *string   `db:"listing_url"`
	Description *string   `db:"description"`
	Notes       *string   `db:"notes"`
	ContactInfo *string   `db:"contact_info"`
	CreatedAt   time.Time `db:"created_at"`
}

// Listing offers one catalog item for sale.
type Listing struct {
	ID         int64     `db:"id"`
	ItemType   ItemType  `db:"item_type"`
	ItemID     int64     `db:"item_id"`
	AddedPrice float64   `db:"added_price"`
	RealPrice  float64   `db:"real_price"`
	Notes      *string   `db:"notes"`
	CreatedAt  time.Time `db:"created_at"`
}

// ListingCard is a listing joined with the title and condition of its item.
type ListingCard struct {
	Listing
	Title     string `db:"title"`
	Condition string `db:"condition"`
}

// Item is the catalog record behind a listing; exactly one field is set.
type Item struct {
	PC     *PC
	Laptop *Laptop
	Part   *Part
}

// Title returns the title of whichever item is set.
func (i Item) Title() string {
	switch {
	case i.PC != nil:
		return i.PC.Title
	case i.Laptop != nil:
		return i.Laptop.Title
	case i.Part != nil:
		return i.Part.Title
	}
	return ""
}

// Bid is an offer placed on a listing.
type Bid struct {
	ID           int64     `db:"id"`
	Reference    string    `db:"reference"`
	UserID       int64     `db:"user_id"`
	ListingID    int64     `db:"listing_id"`
	Quantity     int       `db:"quantity"`
	OfferedPrice float64   `db:"offered_price"`
	Notes        *string   `db:"notes"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
}

// Order is a confirmed purchase.
type Order struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	ListingID     *int64    `db:"listing_id"`
	Quantity      int       `db:"quantity"`
	TotalPrice    float64   `db:"total_price"`
	Profit        float64   `db:"profit"`
	PaymentMethod string    `db:"payment_method"`
	Status        string    `db:"status"`
	Notes         *string   `db:"notes"`
	CreatedAt     time.Time `db:"created_at"`
}

// OrderView is an order with the buyer's display fields attached.
type OrderView struct {
	Order
	Username *string `db:"username"`
	UserName *string `db:"user_name"`
}

// Buyer returns the buyer's name, falling back to the username.
func (o OrderView) Buyer() string {
	u := User{Name: o.UserName, Username: o.Username}
	return u.DisplayName()
}
