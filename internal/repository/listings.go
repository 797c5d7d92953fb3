package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/shopbot/internal/domain"
)

const listingColumns = `l.id, l.item_type, l.item_id, l.added_price, l.real_price, l.notes, l.created_at`

// cardQuery joins every listing with the title and condition of its item.
const cardQuery = `SELECT ` + listingColumns + `,
	COALESCE(p.title, lp.title, pt.title, '') AS title,
	COALESCE(p.condition, lp.condition, pt.condition, '') AS condition
	FROM listings l
	LEFT JOIN pcs p ON l.item_type = 'PC' AND p.id = l.item_id
	LEFT JOIN laptops lp ON l.item_type = 'Laptop' AND lp.id = l.item_id
	LEFT JOIN parts pt ON l.item_type = 'Part' AND pt.id = l.item_id`

// Listings accesses the listings table.
type Listings struct {
	db *sqlx.DB
}

// Get returns a listing by id.
func (r *Listings) Get(ctx context.Context, id int64) (domain.Listing, error) {
	var l domain.Listing
	err := get(ctx, r.db, &l, "get listing", `SELECT `+listingColumns+` FROM listings l WHERE l.id = ?`, id)
	return l, err
}

// Cards returns listing cards ordered by id. A zero limit returns all of them.
func (r *Listings) Cards(ctx context.Context, limit int) ([]domain.ListingCard, error) {
	var out []domain.ListingCard
	if limit > 0 {
		err := selectAll(ctx, r.db, &out, "list cards", cardQuery+` ORDER BY l.id LIMIT ?`, limit)
		return out, err
	}
	err := selectAll(ctx, r.db, &out, "list cards", cardQuery+` ORDER BY l.id`)
	return out, err
}

// CardsByType returns listing cards of one item type.
func (r *Listings) CardsByType(ctx context.Context, t domain.ItemType) ([]domain.ListingCard, error) {
	var out []domain.ListingCard
	err := selectAll(ctx, r.db, &out, "list cards by type", cardQuery+` WHERE l.item_type = ? ORDER BY l.id`, string(t))
	return out, err
}

// Card returns the card of a single listing.
func (r *Listings) Card(ctx context.Context, id int64) (domain.ListingCard, error) {
	var c domain.ListingCard
	err := get(ctx, r.db, &c, "get card", cardQuery+` WHERE l.id = ?`, id)
	return c, err
}

// Create inserts l and returns its id.
func (r *Listings) Create(ctx context.Context, l domain.Listing) (int64, error) {
	return insert(ctx, r.db, "create listing", `INSERT INTO listings
		(item_type, item_id, added_price, real_price, notes)
		VALUES (?, ?, ?, ?, ?) RETURNING id`,
		string(l.ItemType), l.ItemID, l.AddedPrice, l.RealPrice, l.Notes)
}

// UpdatePrices changes the prices of a listing.
func (r *Listings) UpdatePrices(ctx context.Context, id int64, added, real float64) error {
	return exec(ctx, r.db, "update listing", `UPDATE listings SET added_price = ?, real_price = ? WHERE id = ?`,
		added, real, id)
}

// Delete removes the listing together with its bids.
func (r *Listings) Delete(ctx context.Context, id int64) error {
	return exec(ctx, r.db, "delete listing", `DELETE FROM listings WHERE id = ?`, id)
}
