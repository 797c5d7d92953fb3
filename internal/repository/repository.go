// Package repository stores storefront records with sqlx. Queries use "?"
// placeholders and are rebound for the connected driver, so the same code
// serves postgres and sqlite3.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a single record lookup matches nothing.
var ErrNotFound = errors.New("repository: not found")

// Repositories groups every table accessor over one connection.
type Repositories struct {
	Users    *Users
	Admins   *Admins
	Catalog  *Catalog
	Listings *Listings
	Bids     *Bids
	Orders   *Orders
}

// New builds all repositories on db.
func New(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:    &Users{db: db},
		Admins:   &Admins{db: db},
		Catalog:  &Catalog{db: db},
		Listings: &Listings{db: db},
		Bids:     &Bids{db: db},
		Orders:   &Orders{db: db},
	}
}

func get(ctx context.Context, db *sqlx.DB, dst any, op, query string, args ...any) error {
	if err := db.GetContext(ctx, dst, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("repository: %s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("repository: %s: %w", op, err)
	}
	return nil
}

func selectAll(ctx context.Context, db *sqlx.DB, dst any, op, query string, args ...any) error {
	if err := db.SelectContext(ctx, dst, db.Rebind(query), args...); err != nil {
		return fmt.Errorf("repository: %s: %w", op, err)
	}
	return nil
}

// insert runs an INSERT ... RETURNING id statement.
func insert(ctx context.Context, db *sqlx.DB, op, query string, args ...any) (int64, error) {
	var id int64
	if err := db.QueryRowxContext(ctx, db.Rebind(query), args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("repository: %s: %w", op, err)
	}
	return id, nil
}

func exec(ctx context.Context, db *sqlx.DB, op, query string, args ...any) error {
	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("repository: %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: %s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("repository: %s: %w", op, ErrNotFound)
	}
	return nil
}

func wrap(op string, err error) error {
	return fmt.Errorf("repository: %s: %w", op, err)
}
