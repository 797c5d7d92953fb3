package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/shopbot/internal/domain"
)

const userColumns = `id, username, name, company_id, level, type, address, contact_info, created_at`

// Users accesses the users table.
type Users struct {
	db *sqlx.DB
}

// Get returns the user with the given Telegram id.
func (r *Users) Get(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := get(ctx, r.db, &u, "get user", `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return u, err
}

// List returns every user ordered by id.
func (r *Users) List(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := selectAll(ctx, r.db, &out, "list users", `SELECT `+userColumns+` FROM users ORDER BY id`)
	return out, err
}

// Create inserts u; the id is the caller's Telegram id.
func (r *Users) Create(ctx context.Context, u domain.User) error {
	if u.Level == 0 {
		u.Level = 1
	}
	if u.Type == "" {
		u.Type = "Individual"
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO users
		(id, username, name, company_id, level, type, address, contact_info)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.Username, u.Name, u.CompanyID, u.Level, u.Type, u.Address, u.ContactInfo)
	if err != nil {
		return wrap("create user", err)
	}
	return nil
}

// Update overwrites the mutable profile fields of u.
func (r *Users) Update(ctx context.Context, u domain.User) error {
	return exec(ctx, r.db, "update user", `UPDATE users
		SET username = ?, name = ?, company_id = ?, level = ?, type = ?, address = ?, contact_info = ?
		WHERE id = ?`,
		u.Username, u.Name, u.CompanyID, u.Level, u.Type, u.Address, u.ContactInfo, u.ID)
}

// Delete removes the user.
func (r *Users) Delete(ctx context.Context, id int64) error {
	return exec(ctx, r.db, "delete user", `DELETE FROM users WHERE id = ?`, id)
}

// Admins accesses the admins table.
type Admins struct {
	db *sqlx.DB
}

// Get returns the admin record for a Telegram user id.
func (r *Admins) Get(ctx context.Context, userID int64) (domain.Admin, error) {
	var a domain.Admin
	err := get(ctx, r.db, &a, "get admin",
		`SELECT user_id, name, access_level, created_at FROM admins WHERE user_id = ?`, userID)
	return a, err
}

// List returns every admin, most privileged first.
func (r *Admins) List(ctx context.Context) ([]domain.Admin, error) {
	var out []domain.Admin
	err := selectAll(ctx, r.db, &out, "list admins",
		`SELECT user_id, name, access_level, created_at FROM admins ORDER BY access_level, user_id`)
	return out, err
}

// Create inserts a.
func (r *Admins) Create(ctx context.Context, a domain.Admin) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO admins (user_id, name, access_level) VALUES (?, ?, ?)`),
		a.UserID, a.Name, a.AccessLevel)
	if err != nil {
		return wrap("create admin", err)
	}
	return nil
}

// Delete removes the admin record.
func (r *Admins) Delete(ctx context.Context, userID int64) error {
	return exec(ctx, r.db, "delete admin", `DELETE FROM admins WHERE user_id = ?`, userID)
}
