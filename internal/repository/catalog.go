package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/shopbot/internal/domain"
)

const (
	pcColumns     = `id, title, cpu, gpu, ram, storage, psu, motherboard, case_name, cooling, photo_url, description, notes, condition, created_at`
	laptopColumns = `id, title, cpu, gpu, ram, storage, display, battery, photo_url, description, notes, condition, created_at`
	partColumns   = `id, type, title, condition, listed_price, sold_price, listing_url, description, notes, contact_info, created_at`
)

// Catalog accesses the pcs, laptops and parts tables.
type Catalog struct {
	db *sqlx.DB
}

// PC returns a desktop by id.
func (r *Catalog) PC(ctx context.Context, id int64) (domain.PC, error) {
	var pc domain.PC
	err := get(ctx, r.db, &pc, "get pc", `SELECT `+pcColumns+` FROM pcs WHERE id = ?`, id)
	return pc, err
}

// Laptop returns a laptop by id.
func (r *Catalog) Laptop(ctx context.Context, id int64) (domain.Laptop, error) {
	var l domain.Laptop
	err := get(ctx, r.db, &l, "get laptop", `SELECT `+laptopColumns+` FROM laptops WHERE id = ?`, id)
	return l, err
}

// Part returns a part by id.
func (r *Catalog) Part(ctx context.Context, id int64) (domain.Part, error) {
	var p domain.Part
	err := get(ctx, r.db, &p, "get part", `SELECT `+partColumns+` FROM parts WHERE id = ?`, id)
	return p, err
}

// Item loads the record of the given type.
func (r *Catalog) Item(ctx context.Context, t domain.ItemType, id int64) (domain.Item, error) {
	switch t {
	case domain.ItemPC:
		pc, err := r.PC(ctx, id)
		if err != nil {
			return domain.Item{}, err
		}
		return domain.Item{PC: &pc}, nil
	case domain.ItemLaptop:
		l, err := r.Laptop(ctx, id)
		if err != nil {
			return domain.Item{}, err
		}
		return domain.Item{Laptop: &l}, nil
	case domain.ItemPart:
		p, err := r.Part(ctx, id)
		if err != nil {
			return domain.Item{}, err
		}
		return domain.Item{Part: &p}, nil
	default:
		return domain.Item{}, fmt.Errorf("repository: unknown item type %q", t)
	}
}

// CreatePC inserts pc and returns its id.
func (r *Catalog) CreatePC(ctx context.Context, pc domain.PC) (int64, error) {
	return insert(ctx, r.db, "create pc", `INSERT INTO pcs
		(title, cpu, gpu, ram, storage, psu, motherboard, case_name, cooling, photo_url, description, notes, condition)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		pc.Title, pc.CPU, pc.GPU, pc.RAM, pc.Storage, pc.PSU, pc.Motherboard, pc.Case, pc.Cooling,
		pc.PhotoURL, pc.Description, pc.Notes, orDefault(pc.Condition, "Used"))
}

// CreateLaptop inserts l and returns its id.
func (r *Catalog) CreateLaptop(ctx context.Context, l domain.Laptop) (int64, error) {
	return insert(ctx, r.db, "create laptop", `INSERT INTO laptops
		(title, cpu, gpu, ram, storage, display, battery, photo_url, description, notes, condition)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		l.Title, l.CPU, l.GPU, l.RAM, l.Storage, l.Display, l.Battery,
		l.PhotoURL, l.Description, l.Notes, orDefault(l.Condition, "Used"))
}

// CreatePart inserts p and returns its id.
func (r *Catalog) CreatePart(ctx context.Context, p domain.Part) (int64, error) {
	return insert(ctx, r.db, "create part", `INSERT INTO parts
		(type, title, condition, listed_price, sold_price, listing_url, description, notes, contact_info)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		p.Type, p.Title, orDefault(p.Condition, "Used"), p.ListedPrice, p.SoldPrice,
		p.ListingURL, p.Description, p.Notes, p.ContactInfo)
}

// CountPCs reports how many desktops exist; the seeder uses it to stay idempotent.
func (r *Catalog) CountPCs(ctx context.Context) (int, error) {
	var n int
	err := get(ctx, r.db, &n, "count pcs", `SELECT COUNT(*) FROM pcs`)
	return n, err
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
