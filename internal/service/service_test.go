package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coredatabase "github.com/m3rciful/shopbot/core/database"
	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/core/telegram/sender"
	"github.com/m3rciful/shopbot/internal/domain"
	"github.com/m3rciful/shopbot/internal/repository"
)

func openRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	cfg := coredatabase.Config{
		Driver:        coredatabase.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "shop.db"),
		MigrationsDir: filepath.Join("..", "..", "migrations"),
	}
	require.NoError(t, coredatabase.RunMigrations(cfg))
	db, err := coredatabase.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.New(db)
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []sender.Message
	err  error
}

func (f *fakeNotifier) Enqueue(_ context.Context, msg sender.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestUsersAccess(t *testing.T) {
	ctx := context.Background()
	repos := openRepos(t)
	require.NoError(t, repos.Users.Create(ctx, domain.User{ID: 1, Name: format.Ptr("Ann")}))
	require.NoError(t, repos.Admins.Create(ctx, domain.Admin{UserID: 2, Name: format.Ptr("Root"), AccessLevel: 0}))
	require.NoError(t, repos.Admins.Create(ctx, domain.Admin{UserID: 3, AccessLevel: 2}))

	users, err := NewUsers(repos.Users, repos.Admins)
	require.NoError(t, err)

	for id, want := range map[int64]bool{1: true, 2: true, 3: true, 4: false} {
		ok, err := users.Allowed(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, ok, "user %d", id)
	}

	level, ok, err := users.AdminLevel(ctx, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, level)

	_, ok, err = users.AdminLevel(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	p, err := users.Profile(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Root", p.DisplayName())
	assert.Equal(t, "Admin", p.Type)

	_, err = users.Profile(ctx, 4)
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "NOT_FOUND", svcErr.Code())

	ids, err := users.AdminIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids)
}

func seedCatalog(t *testing.T, repos *repository.Repositories) []int64 {
	t.Helper()
	ctx := context.Background()
	var listingIDs []int64
	add := func(it domain.ItemType, itemID int64, price float64) {
		id, err := repos.Listings.Create(ctx, domain.Listing{ItemType: it, ItemID: itemID, AddedPrice: price})
		require.NoError(t, err)
		listingIDs = append(listingIDs, id)
	}
	pc, err := repos.Catalog.CreatePC(ctx, domain.PC{Title: "Gaming Tower RTX"})
	require.NoError(t, err)
	add(domain.ItemPC, pc, 1500)
	lap, err := repos.Catalog.CreateLaptop(ctx, domain.Laptop{Title: "ThinkPad T480"})
	require.NoError(t, err)
	add(domain.ItemLaptop, lap, 420)
	part, err := repos.Catalog.CreatePart(ctx, domain.Part{Type: "GPU", Title: "RTX 3060 Ti"})
	require.NoError(t, err)
	add(domain.ItemPart, part, 260)
	return listingIDs
}

func TestCatalogSearchAndDetails(t *testing.T) {
	ctx := context.Background()
	repos := openRepos(t)
	ids := seedCatalog(t, repos)

	catalog, err := NewCatalog(repos.Listings, repos.Catalog, 2)
	require.NoError(t, err)

	cards, err := catalog.Cards(ctx)
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	found, err := catalog.Search(ctx, "rtx")
	require.NoError(t, err)
	require.Len(t, found, 2)
	titles := []string{found[0].Title, found[1].Title}
	assert.ElementsMatch(t, []string{"Gaming Tower RTX", "RTX 3060 Ti"}, titles)

	found, err = catalog.Search(ctx, "thinkpad")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ids[1], found[0].ID)

	found, err = catalog.Search(ctx, "macbook")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = catalog.Search(ctx, "  ")
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrorInvalidInput, svcErr.Kind)

	d, err := catalog.Details(ctx, ids[2])
	require.NoError(t, err)
	require.NotNil(t, d.Item.Part)
	assert.Equal(t, "RTX 3060 Ti", d.Item.Title())

	_, err = catalog.Details(ctx, 999)
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrorNotFound, svcErr.Kind)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "150", want: 150},
		{in: "149,99", want: 149.99},
		{in: " 12.5 ", want: 12.5},
		{in: "$300", want: 300},
		{in: "abc", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "inf", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPlaceBidNotifiesAdmins(t *testing.T) {
	ctx := context.Background()
	repos := openRepos(t)
	ids := seedCatalog(t, repos)
	require.NoError(t, repos.Admins.Create(ctx, domain.Admin{UserID: 50, AccessLevel: 1}))
	require.NoError(t, repos.Admins.Create(ctx, domain.Admin{UserID: 7, AccessLevel: 3}))

	users, err := NewUsers(repos.Users, repos.Admins)
	require.NoError(t, err)
	notifier := &fakeNotifier{}
	bids, err := NewBids(BidsOptions{
		Repo:         repos.Bids,
		Notifier:     notifier,
		Recipients:   users,
		OwnerID:      99,
		NewReference: func() string { return "ref-123" },
	})
	require.NoError(t, err)

	b, err := bids.Place(ctx, PlaceInput{UserID: 7, Buyer: "Ann", ListingID: ids[0], Title: "Gaming Tower RTX", Price: 1234.5})
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, "ref-123", b.Reference)
	assert.Equal(t, 1, b.Quantity)
	assert.Equal(t, domain.StatusPending, b.Status)

	stored, err := repos.Bids.ByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 1234.5, stored[0].OfferedPrice, 1e-9)

	// the bidder is an admin too and is not notified about their own bid
	require.Len(t, notifier.msgs, 2)
	assert.Equal(t, int64(50), notifier.msgs[0].ChatID)
	assert.Equal(t, int64(99), notifier.msgs[1].ChatID)
	assert.Equal(t, "bid.notify", notifier.msgs[0].Kind)
	assert.Contains(t, notifier.msgs[0].Text, "$1,234.50")
	assert.Contains(t, notifier.msgs[0].Text, "<b>Gaming Tower RTX</b>")
}

func TestPlaceBidQueueErrorsDoNotFail(t *testing.T) {
	ctx := context.Background()
	repos := openRepos(t)
	ids := seedCatalog(t, repos)

	bids, err := NewBids(BidsOptions{
		Repo:     repos.Bids,
		Notifier: &fakeNotifier{err: sender.ErrQueueFull},
		OwnerID:  99,
	})
	require.NoError(t, err)

	b, err := bids.Place(ctx, PlaceInput{UserID: 1, ListingID: ids[1], Title: "ThinkPad T480", Price: 400})
	require.NoError(t, err)
	assert.Len(t, b.Reference, 36)

	_, err = bids.Place(ctx, PlaceInput{UserID: 1, ListingID: ids[1], Price: 0})
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
}

type adminSet map[int64]bool

func (a adminSet) IsAdmin(_ context.Context, id int64) (bool, error) { return a[id], nil }

type failingAdmins struct{}

func (failingAdmins) IsAdmin(context.Context, int64) (bool, error) {
	return false, errors.New("db down")
}

func TestOrdersVisibility(t *testing.T) {
	ctx := context.Background()
	repos := openRepos(t)
	require.NoError(t, repos.Users.Create(ctx, domain.User{ID: 1, Name: format.Ptr("Ann")}))
	require.NoError(t, repos.Users.Create(ctx, domain.User{ID: 2, Username: format.Ptr("bob")}))
	for _, uid := range []int64{1, 2, 2} {
		_, err := repos.Orders.Create(ctx, domain.Order{UserID: uid, Quantity: 1, TotalPrice: 100})
		require.NoError(t, err)
	}

	orders, err := NewOrders(repos.Orders, adminSet{9: true})
	require.NoError(t, err)

	mine, withBuyers, err := orders.Visible(ctx, 2)
	require.NoError(t, err)
	assert.False(t, withBuyers)
	assert.Len(t, mine, 2)

	all, withBuyers, err := orders.Visible(ctx, 9)
	require.NoError(t, err)
	assert.True(t, withBuyers)
	require.Len(t, all, 3)
	assert.Equal(t, "Ann", all[0].Buyer())
	assert.Equal(t, "bob", all[1].Buyer())

	none, _, err := orders.Visible(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, none)

	failing, err := NewOrders(repos.Orders, failingAdmins{})
	require.NoError(t, err)
	_, _, err = failing.Visible(ctx, 1)
	require.Error(t, err)
}
