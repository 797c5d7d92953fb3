package bot

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coredatabase "github.com/m3rciful/shopbot/core/database"
	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/core/telegram/navigation"
	"github.com/m3rciful/shopbot/core/telegram/router"
	"github.com/m3rciful/shopbot/core/telegram/sender"
	"github.com/m3rciful/shopbot/core/telegram/state"
	"github.com/m3rciful/shopbot/internal/domain"
	"github.com/m3rciful/shopbot/internal/repository"
	"github.com/m3rciful/shopbot/internal/service"
)

// chat simulates one Telegram chat: what was sent, edited and answered.
type chat struct {
	user      *tele.User
	live      *tele.Message
	nextID    int
	sent      []string
	edited    []string
	deleted   int
	responses []*tele.CallbackResponse
	answers   []*tele.QueryResponse
}

func (ch *chat) lastNotice() string {
	for i := len(ch.responses) - 1; i >= 0; i-- {
		if ch.responses[i] != nil {
			return ch.responses[i].Text
		}
	}
	return ""
}

func (ch *chat) show(text string, opts []any) {
	ch.nextID++
	ch.live = &tele.Message{ID: ch.nextID, Text: format.PlainText(text), ReplyMarkup: markupOf(opts)}
}

func markupOf(opts []any) *tele.ReplyMarkup {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil {
				return v.ReplyMarkup
			}
		case *tele.ReplyMarkup:
			return v
		}
	}
	return nil
}

// fakeContext implements the parts of tele.Context the bot touches.
type fakeContext struct {
	tele.Context

	ch       *chat
	update   tele.Update
	store    map[string]any
	answered bool
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.update.Query != nil {
		return nil
	}
	return &tele.Chat{ID: f.ch.user.ID, Type: tele.ChatPrivate}
}
func (f *fakeContext) Sender() *tele.User       { return f.ch.user }
func (f *fakeContext) Update() tele.Update      { return f.update }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Message() *tele.Message   { return f.update.Message }
func (f *fakeContext) Query() *tele.Query       { return f.update.Query }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Set(key string, v any)    { f.store[key] = v }

func (f *fakeContext) Text() string {
	if f.update.Message != nil {
		return f.update.Message.Text
	}
	return ""
}

func (f *fakeContext) Send(what any, opts ...any) error {
	text := what.(string)
	f.ch.sent = append(f.ch.sent, text)
	f.ch.show(text, opts)
	return nil
}

func (f *fakeContext) Edit(what any, opts ...any) error {
	text := what.(string)
	f.ch.edited = append(f.ch.edited, text)
	f.ch.show(text, opts)
	return nil
}

func (f *fakeContext) Delete() error {
	f.ch.deleted++
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	var r *tele.CallbackResponse
	if len(resp) > 0 {
		r = resp[0]
	}
	f.ch.responses = append(f.ch.responses, r)
	return nil
}

func (f *fakeContext) Answer(resp *tele.QueryResponse) error {
	f.ch.answers = append(f.ch.answers, resp)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []sender.Message
}

func (n *fakeNotifier) Enqueue(_ context.Context, msg sender.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return nil
}

const (
	annID   = int64(100)
	adminID = int64(900)
)

type shop struct {
	t        *testing.T
	repos    *repository.Repositories
	store    *state.MemoryStore
	notifier *fakeNotifier
	h        *Handlers
	nav      tele.MiddlewareFunc
	callback tele.HandlerFunc
	text     tele.HandlerFunc
	commands map[string]tele.HandlerFunc
	listings []int64
	updateID int
}

func newShop(t *testing.T) *shop {
	t.Helper()
	ctx := context.Background()
	cfg := coredatabase.Config{
		Driver:        coredatabase.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "shop.db"),
		MigrationsDir: filepath.Join("..", "..", "migrations"),
	}
	require.NoError(t, coredatabase.RunMigrations(cfg))
	db, err := coredatabase.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repos := repository.New(db)

	require.NoError(t, repos.Users.Create(ctx, domain.User{ID: annID, Name: format.Ptr("Ann")}))
	require.NoError(t, repos.Admins.Create(ctx, domain.Admin{UserID: adminID, Name: format.Ptr("Root"), AccessLevel: 1}))

	s := &shop{t: t, repos: repos, store: state.NewMemoryStore(), notifier: &fakeNotifier{}}
	pcID, err := repos.Catalog.CreatePC(ctx, domain.PC{Title: "Gaming Tower", CPU: format.Ptr("Ryzen 7")})
	require.NoError(t, err)
	lapID, err := repos.Catalog.CreateLaptop(ctx, domain.Laptop{Title: "ThinkPad T14"})
	require.NoError(t, err)
	for _, l := range []domain.Listing{
		{ItemType: domain.ItemPC, ItemID: pcID, AddedPrice: 1200},
		{ItemType: domain.ItemLaptop, ItemID: lapID, AddedPrice: 650},
	} {
		id, err := repos.Listings.Create(ctx, l)
		require.NoError(t, err)
		s.listings = append(s.listings, id)
	}

	users, err := service.NewUsers(repos.Users, repos.Admins)
	require.NoError(t, err)
	catalog, err := service.NewCatalog(repos.Listings, repos.Catalog, 10)
	require.NoError(t, err)
	bids, err := service.NewBids(service.BidsOptions{Repo: repos.Bids, Notifier: s.notifier, Recipients: users})
	require.NoError(t, err)
	orders, err := service.NewOrders(repos.Orders, users)
	require.NoError(t, err)
	s.h, err = New(Deps{Users: users, Catalog: catalog, Bids: bids, Orders: orders})
	require.NoError(t, err)

	reg := tg.NewRegistry()
	fsm := state.NewMachine()
	require.NoError(t, s.h.Register(reg, fsm))

	s.nav = navigation.Middleware(navigation.Options{Store: s.store, Root: s.h.Root})
	s.callback = router.CallbackRoute(reg, router.CallbackOptions{}).Handler
	for _, r := range router.TextRoutes(fsm, reg, router.TextOptions{}) {
		if r.Endpoint == tele.OnText {
			s.text = r.Handler
		}
	}
	s.commands = make(map[string]tele.HandlerFunc)
	for _, r := range router.CommandRoutes(reg, router.CommandRouteOptions{Admins: users, OnAdminReject: s.h.AdminRejected}) {
		s.commands[r.Endpoint.(string)] = r.Handler
	}
	return s
}

func newChat(id int64, firstName string) *chat {
	return &chat{user: &tele.User{ID: id, FirstName: firstName}}
}

func (s *shop) ctx(ch *chat, upd tele.Update) *fakeContext {
	s.updateID++
	upd.ID = s.updateID
	return &fakeContext{ch: ch, update: upd, store: make(map[string]any)}
}

func (s *shop) command(ch *chat, cmd string) {
	s.t.Helper()
	h, ok := s.commands[cmd]
	require.True(s.t, ok, cmd)
	c := s.ctx(ch, tele.Update{Message: &tele.Message{Text: cmd, Sender: ch.user}})
	require.NoError(s.t, s.nav(h)(c))
}

func (s *shop) press(ch *chat, data string) {
	s.t.Helper()
	cb := &tele.Callback{ID: "cb", Data: data, Message: ch.live, Sender: ch.user}
	c := s.ctx(ch, tele.Update{Callback: cb})
	require.NoError(s.t, s.nav(s.callback)(c))
}

func (s *shop) typeText(ch *chat, text string) {
	s.t.Helper()
	c := s.ctx(ch, tele.Update{Message: &tele.Message{Text: text, Sender: ch.user}})
	require.NoError(s.t, s.nav(s.text)(c))
}

func (s *shop) session(ch *chat) *state.Session {
	s.t.Helper()
	sess, err := s.store.Load(context.Background(), ch.user.ID)
	require.NoError(s.t, err)
	return sess
}

func TestBidFlowAndBackNavigation(t *testing.T) {
	s := newShop(t)
	ch := newChat(annID, "Ann")
	pc := strconv.FormatInt(s.listings[0], 10)

	s.command(ch, "/start")
	assert.Equal(t, "HI, Ann", ch.live.Text)
	assert.Equal(t, 1, s.session(ch).Depth())

	s.press(ch, CbPCList)
	assert.Equal(t, 1, ch.deleted)
	assert.Equal(t, "Here are available options.", ch.live.Text)
	require.Len(t, keyboard.FromMarkup(ch.live.ReplyMarkup), 3)

	s.press(ch, keyboard.Data(CbListing, pc))
	assert.Contains(t, ch.live.Text, "Gaming Tower")
	assert.Contains(t, ch.live.Text, "CPU: Ryzen 7")
	assert.Len(t, ch.edited, 1)

	s.press(ch, keyboard.Data(CbBid, pc))
	assert.Equal(t, "💵 Please enter your bid price for Gaming Tower:", ch.live.Text)
	sess := s.session(ch)
	assert.Equal(t, StateWaitingForPrice, sess.CurrentState())
	assert.Equal(t, 4, sess.Depth())
	listingID, ok := sess.GetTempInt64(keyBidListing)
	require.True(t, ok)
	assert.Equal(t, s.listings[0], listingID)

	s.typeText(ch, "cheap please")
	assert.Equal(t, "Enter a valid number:", ch.live.Text)
	assert.Equal(t, StateWaitingForPrice, s.session(ch).CurrentState())
	assert.Equal(t, 4, s.session(ch).Depth())

	s.typeText(ch, "1250,5")
	assert.Equal(t, "Your bid of 1,250.50 has been submitted!\nUnit: Gaming Tower", ch.live.Text)
	sess = s.session(ch)
	assert.Equal(t, state.StateIdle, sess.CurrentState())
	assert.Equal(t, 5, sess.Depth())
	_, ok = sess.GetTemp(keyBidListing)
	assert.False(t, ok)

	bids, err := s.repos.Bids.ByUser(context.Background(), annID)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.InDelta(t, 1250.5, bids[0].OfferedPrice, 1e-9)
	assert.Equal(t, domain.StatusPending, bids[0].Status)
	require.Len(t, s.notifier.msgs, 1)
	assert.Equal(t, adminID, s.notifier.msgs[0].ChatID)

	// back restores the prompt together with its waiting state
	s.press(ch, keyboard.BackToken)
	assert.Equal(t, "💵 Please enter your bid price for Gaming Tower:", ch.live.Text)
	sess = s.session(ch)
	assert.Equal(t, StateWaitingForPrice, sess.CurrentState())
	assert.Equal(t, 4, sess.Depth())

	// screen-local data went with the popped screen
	s.typeText(ch, "300")
	assert.Equal(t, "This bid has expired. Please pick the listing again.", ch.live.Text)
	sess = s.session(ch)
	assert.Equal(t, state.StateIdle, sess.CurrentState())
	top, ok := sess.Top()
	require.True(t, ok)
	assert.Equal(t, sess.CurrentState(), top.State)
	assert.Equal(t, 5, sess.Depth())
	bids, err = s.repos.Bids.ByUser(context.Background(), annID)
	require.NoError(t, err)
	assert.Len(t, bids, 1)

	s.press(ch, keyboard.BackToken)
	assert.Equal(t, "💵 Please enter your bid price for Gaming Tower:", ch.live.Text)
	assert.Equal(t, StateWaitingForPrice, s.session(ch).CurrentState())
	assert.Equal(t, 4, s.session(ch).Depth())

	s.press(ch, keyboard.BackToken)
	assert.Contains(t, ch.live.Text, "Gaming Tower")
	assert.Equal(t, state.StateIdle, s.session(ch).CurrentState())

	s.press(ch, keyboard.BackToken)
	assert.Equal(t, "Here are available options.", ch.live.Text)

	s.press(ch, keyboard.BackToken)
	assert.Equal(t, "HI, Ann", ch.live.Text)
	assert.Equal(t, 1, s.session(ch).Depth())

	edits := len(ch.edited)
	s.press(ch, keyboard.BackToken)
	assert.Equal(t, "Already here.", ch.lastNotice())
	assert.Equal(t, edits, len(ch.edited))
	assert.Equal(t, 0, s.session(ch).Depth())

	s.press(ch, keyboard.BackToken)
	assert.Equal(t, "Nothing to go back to.", ch.lastNotice())
	assert.Equal(t, edits, len(ch.edited))
}

func TestStaleListingButtonEndsBidStep(t *testing.T) {
	s := newShop(t)
	ch := newChat(annID, "Ann")
	pc := strconv.FormatInt(s.listings[0], 10)
	laptop := strconv.FormatInt(s.listings[1], 10)

	s.command(ch, "/start")
	s.press(ch, CbPCList)
	s.press(ch, keyboard.Data(CbBid, pc))
	require.Equal(t, StateWaitingForPrice, s.session(ch).CurrentState())

	// a button left on an older message opens another listing mid-bid
	s.press(ch, keyboard.Data(CbListing, laptop))
	assert.Contains(t, ch.live.Text, "ThinkPad T14")
	sess := s.session(ch)
	assert.Equal(t, state.StateIdle, sess.CurrentState())
	top, ok := sess.Top()
	require.True(t, ok)
	assert.Equal(t, state.StateIdle, top.State)
	_, ok = sess.GetTemp(keyBidListing)
	assert.False(t, ok)

	s.typeText(ch, "500")
	assert.Equal(t, "Use /start to open the menu.", ch.live.Text)

	// back reopens the prompt, but the listing it was for is gone
	s.press(ch, keyboard.BackToken)
	assert.Equal(t, "💵 Please enter your bid price for Gaming Tower:", ch.live.Text)
	assert.Equal(t, StateWaitingForPrice, s.session(ch).CurrentState())
	s.typeText(ch, "500")
	assert.Equal(t, "This bid has expired. Please pick the listing again.", ch.live.Text)

	bids, err := s.repos.Bids.ByUser(context.Background(), annID)
	require.NoError(t, err)
	assert.Empty(t, bids)
	assert.Empty(t, s.notifier.msgs)
}

func TestOrdersAndProfile(t *testing.T) {
	s := newShop(t)
	ch := newChat(annID, "Ann")

	s.command(ch, "/start")
	s.press(ch, CbOrders)
	assert.Equal(t, "You have no orders.", ch.lastNotice())
	assert.True(t, ch.responses[len(ch.responses)-1].ShowAlert)
	assert.Equal(t, 1, s.session(ch).Depth())

	_, err := s.repos.Orders.Create(context.Background(), domain.Order{UserID: annID, Quantity: 1, TotalPrice: 99})
	require.NoError(t, err)
	s.press(ch, CbOrders)
	assert.Contains(t, ch.live.Text, "Your orders")
	assert.Contains(t, ch.live.Text, "Total: $99.00")
	assert.NotContains(t, ch.live.Text, "Buyer:")
	assert.Equal(t, 2, s.session(ch).Depth())

	s.press(ch, keyboard.BackToken)
	s.press(ch, CbProfile)
	assert.Contains(t, ch.live.Text, "Name: Ann")

	admin := newChat(adminID, "Root")
	s.command(admin, "/start")
	s.press(admin, CbOrders)
	assert.Contains(t, admin.live.Text, "All orders")
	assert.Contains(t, admin.live.Text, "Buyer: Ann (ID: 100)")

	s.press(admin, CbProfile)
	assert.Contains(t, admin.live.Text, "Type: Admin")
}

func TestSearchFlow(t *testing.T) {
	s := newShop(t)
	ch := newChat(annID, "Ann")

	s.command(ch, "/start")
	s.press(ch, CbSearch)
	assert.Equal(t, StateWaitingForQuery, s.session(ch).CurrentState())

	s.typeText(ch, "thinkpad")
	assert.Equal(t, "Results for thinkpad:", ch.live.Text)
	rows := keyboard.FromMarkup(ch.live.ReplyMarkup)
	require.Len(t, rows, 2)
	assert.Equal(t, keyboard.Data(CbListing, strconv.FormatInt(s.listings[1], 10)), rows[0][0].ID)
	assert.Equal(t, state.StateIdle, s.session(ch).CurrentState())

	s.press(ch, keyboard.BackToken)
	assert.Equal(t, StateWaitingForQuery, s.session(ch).CurrentState())

	s.typeText(ch, "macbook")
	assert.Equal(t, "Nothing matches macbook.", ch.live.Text)
}

func TestAdminCommandRequiresLevel(t *testing.T) {
	s := newShop(t)

	ann := newChat(annID, "Ann")
	s.command(ann, "/admin")
	assert.Equal(t, "Admins only.", ann.live.Text)

	root := newChat(adminID, "Root")
	s.command(root, "/admin")
	assert.Equal(t, "Admin mode Root", root.live.Text)
}

func TestFallbacks(t *testing.T) {
	s := newShop(t)
	ch := newChat(annID, "Ann")

	s.command(ch, "/start")
	s.press(ch, "vintage_button")
	assert.Equal(t, "This button is no longer available.", ch.lastNotice())

	s.typeText(ch, "hello?")
	assert.Equal(t, "Use /start to open the menu.", ch.live.Text)

	s.typeText(ch, "menu")
	assert.Equal(t, "HI, Ann", ch.live.Text)

	s.press(ch, keyboard.Data(CbListing, "999"))
	assert.Equal(t, "Listing not found!", ch.lastNotice())
}

func TestInlineSearch(t *testing.T) {
	s := newShop(t)
	ch := newChat(annID, "Ann")

	c := s.ctx(ch, tele.Update{Query: &tele.Query{ID: "q", Text: "tower", Sender: ch.user}})
	require.NoError(t, s.h.InlineRoute().Handler(c))
	require.Len(t, ch.answers, 1)
	require.Len(t, ch.answers[0].Results, 1)
	article, ok := ch.answers[0].Results[0].(*tele.ArticleResult)
	require.True(t, ok)
	assert.Equal(t, "1) Gaming Tower · PC · Used · $1,200.00", article.Title)
	assert.Equal(t, "<b>Gaming Tower</b>, PC, Used, $1,200.00", article.Text)
	assert.Equal(t, "PC", article.Description)
	assert.Equal(t, tele.ModeHTML, article.ParseMode)

	c = s.ctx(ch, tele.Update{Query: &tele.Query{ID: "q2", Sender: ch.user}})
	require.NoError(t, s.h.InlineRoute().Handler(c))
	require.Len(t, ch.answers, 2)
	assert.Len(t, ch.answers[1].Results, 2)
}
