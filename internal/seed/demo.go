// Package seed loads a small demo catalog into an empty shop.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/shopbot/core/bootstrap"
	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/internal/domain"
	"github.com/m3rciful/shopbot/internal/repository"
)

var _ bootstrap.Seeder = Demo{}

// Demo inserts demo PCs, laptops and parts with a listing for each.
// It does nothing when the catalog already holds PCs.
type Demo struct{}

// Seed implements bootstrap.Seeder.
func (Demo) Seed(ctx context.Context, db *sqlx.DB) error {
	repos := repository.New(db)
	n, err := repos.Catalog.CountPCs(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info(ctx, "db.seed", "seed.skip", slog.String("reason", "catalog_not_empty"))
		return nil
	}

	var listings []domain.Listing
	for _, pc := range demoPCs {
		id, err := repos.Catalog.CreatePC(ctx, pc.item)
		if err != nil {
			return fmt.Errorf("seed: pc %q: %w", pc.item.Title, err)
		}
		listings = append(listings, domain.Listing{ItemType: domain.ItemPC, ItemID: id, AddedPrice: pc.price, RealPrice: pc.cost})
	}
	for _, l := range demoLaptops {
		id, err := repos.Catalog.CreateLaptop(ctx, l.item)
		if err != nil {
			return fmt.Errorf("seed: laptop %q: %w", l.item.Title, err)
		}
		listings = append(listings, domain.Listing{ItemType: domain.ItemLaptop, ItemID: id, AddedPrice: l.price, RealPrice: l.cost})
	}
	for _, p := range demoParts {
		id, err := repos.Catalog.CreatePart(ctx, p.item)
		if err != nil {
			return fmt.Errorf("seed: part %q: %w", p.item.Title, err)
		}
		listings = append(listings, domain.Listing{ItemType: domain.ItemPart, ItemID: id, AddedPrice: p.price, RealPrice: p.cost})
	}

	for _, l := range listings {
		if _, err := repos.Listings.Create(ctx, l); err != nil {
			return fmt.Errorf("seed: listing %s/%d: %w", l.ItemType, l.ItemID, err)
		}
	}
	logger.Info(ctx, "db.seed", "seed.demo", slog.Int("count", len(listings)))
	return nil
}

type priced[T any] struct {
	item  T
	price float64
	cost  float64
}

var demoPCs = []priced[domain.PC]{
	{
		item: domain.PC{
			Title:       "Gaming Tower R7",
			CPU:         format.Ptr("Ryzen 7 5800X"),
			GPU:         format.Ptr("RTX 3070"),
			RAM:         format.Ptr("32 GB DDR4"),
			Storage:     format.Ptr("1 TB NVMe"),
			PSU:         format.Ptr("750 W Gold"),
			Description: format.Ptr("Clean build, new thermal paste."),
		},
		price: 1150, cost: 900,
	},
	{
		item: domain.PC{
			Title:     "Office Mini i5",
			CPU:       format.Ptr("Core i5-10500T"),
			RAM:       format.Ptr("16 GB DDR4"),
			Storage:   format.Ptr("512 GB SSD"),
			Condition: "Refurbished",
		},
		price: 320, cost: 210,
	},
}

var demoLaptops = []priced[domain.Laptop]{
	{
		item: domain.Laptop{
			Title:   "ThinkPad T14 Gen 2",
			CPU:     format.Ptr("Core i7-1165G7"),
			RAM:     format.Ptr("16 GB"),
			Storage: format.Ptr("512 GB NVMe"),
			Display: format.Ptr("14\" FHD IPS"),
			Battery: format.Ptr("87% health"),
		},
		price: 640, cost: 480,
	},
}

var demoParts = []priced[domain.Part]{
	{
		item: domain.Part{
			Type:        "GPU",
			Title:       "Radeon RX 6600",
			ListedPrice: 190,
			Description: format.Ptr("Tested, boxed."),
		},
		price: 210, cost: 160,
	},
}
