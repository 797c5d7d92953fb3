package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/shopbot/internal/domain"
)

const orderViewQuery = `SELECT o.id, o.user_id, o.listing_id, o.quantity, o.total_price, o.profit,
	o.payment_method, o.status, o.notes, o.created_at,
	u.username AS username, u.name AS user_name
	FROM orders o
	LEFT JOIN users u ON u.id = o.user_id`

// Orders accesses the orders table.
type Orders struct {
	db *sqlx.DB
}

// Create inserts o and returns its id.
func (r *Orders) Create(ctx context.Context, o domain.Order) (int64, error) {
	if o.PaymentMethod == "" {
		o.PaymentMethod = domain.PaymentCOD
	}
	if o.Status == "" {
		o.Status = domain.StatusPending
	}
	return insert(ctx, r.db, "create order", `INSERT INTO orders
		(user_id, listing_id, quantity, total_price, profit, payment_method, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		o.UserID, o.ListingID, o.Quantity, o.TotalPrice, o.Profit, o.PaymentMethod, o.Status, o.Notes)
}

// ByUser returns a user's orders in creation order.
func (r *Orders) ByUser(ctx context.Context, userID int64) ([]domain.OrderView, error) {
	var out []domain.OrderView
	err := selectAll(ctx, r.db, &out, "list user orders", orderViewQuery+` WHERE o.user_id = ? ORDER BY o.id`, userID)
	return out, err
}

// All returns every order with buyer names.
func (r *Orders) All(ctx context.Context) ([]domain.OrderView, error) {
	var out []domain.OrderView
	err := selectAll(ctx, r.db, &out, "list orders", orderViewQuery+` ORDER BY o.id`)
	return out, err
}

// UpdateStatus sets the status of an order.
func (r *Orders) UpdateStatus(ctx context.Context, id int64, status string) error {
	return exec(ctx, r.db, "update order", `UPDATE orders SET status = ? WHERE id = ?`, status, id)
}
