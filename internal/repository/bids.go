package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/shopbot/internal/domain"
)

const bidColumns = `id, reference, user_id, listing_id, quantity, offered_price, notes, status, created_at`

// Bids accesses the bids table.
type Bids struct {
	db *sqlx.DB
}

// Create inserts b and returns its id.
func (r *Bids) Create(ctx context.Context, b domain.Bid) (int64, error) {
	return insert(ctx, r.db, "create bid", `INSERT INTO bids
		(reference, user_id, listing_id, quantity, offered_price, notes, status)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		b.Reference, b.UserID, b.ListingID, b.Quantity, b.OfferedPrice, b.Notes, b.Status)
}

// Get returns a bid by id.
func (r *Bids) Get(ctx context.Context, id int64) (domain.Bid, error) {
	var b domain.Bid
	err := get(ctx, r.db, &b, "get bid", `SELECT `+bidColumns+` FROM bids WHERE id = ?`, id)
	return b, err
}

// ByUser returns the bids placed by a user, newest first.
func (r *Bids) ByUser(ctx context.Context, userID int64) ([]domain.Bid, error) {
	var out []domain.Bid
	err := selectAll(ctx, r.db, &out, "list bids",
		`SELECT `+bidColumns+` FROM bids WHERE user_id = ? ORDER BY id DESC`, userID)
	return out, err
}

// UpdateStatus sets the status of a bid.
func (r *Bids) UpdateStatus(ctx context.Context, id int64, status string) error {
	return exec(ctx, r.db, "update bid", `UPDATE bids SET status = ? WHERE id = ?`, status, id)
}
