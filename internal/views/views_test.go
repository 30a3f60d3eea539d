package views

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"cafedesk/internal/domain"
	applog "cafedesk/internal/log"
	"cafedesk/internal/nav"
	"cafedesk/internal/session"
	"cafedesk/internal/transport"
	"cafedesk/internal/validate"
)

type fakeMenu struct {
	mu        sync.Mutex
	items     []domain.MenuItem
	lists     int
	failNext  error
	failList  error
	lastPatch domain.MenuItemPatch
}

func (f *fakeMenu) List(ctx context.Context) ([]domain.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.failList != nil {
		return nil, f.failList
	}
	return append([]domain.MenuItem(nil), f.items...), nil
}

func (f *fakeMenu) Create(ctx context.Context, in domain.MenuItemInput) (domain.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext; err != nil {
		f.failNext = nil
		return domain.MenuItem{}, err
	}
	it := domain.MenuItem{ID: fmt.Sprintf("m%d", len(f.items)+1), Name: in.Name, Price: in.Price, Category: in.Category, IsAvailable: in.IsAvailable}
	f.items = append(f.items, it)
	return it, nil
}

func (f *fakeMenu) Update(ctx context.Context, id string, p domain.MenuItemPatch) (domain.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPatch = p
	for i := range f.items {
		if f.items[i].ID == id {
			if p.Name != nil {
				f.items[i].Name = *p.Name
			}
			return f.items[i], nil
		}
	}
	return domain.MenuItem{}, &transport.Error{Status: 404}
}

func (f *fakeMenu) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return &transport.Error{Status: 404}
}

func menuOf(names ...string) []domain.MenuItem {
	out := make([]domain.MenuItem, len(names))
	for i, n := range names {
		out[i] = domain.MenuItem{ID: fmt.Sprintf("m%d", i+1), Name: n, Category: domain.CategoryCoffee}
	}
	return out
}

func TestPaginateThirteenBySix(t *testing.T) {
	items := make([]int, 13)
	var counts []int
	for p := 1; p <= PageCount(len(items), ManagerPageSize); p++ {
		counts = append(counts, len(Paginate(items, p, ManagerPageSize).Items))
	}
	if fmt.Sprint(counts) != "[6 6 1]" {
		t.Fatalf("page sizes %v", counts)
	}
	if pg := Paginate(items, 99, ManagerPageSize); pg.Number != 3 || !pg.HasPrev() || pg.HasNext() {
		t.Fatalf("clamp high %+v", pg)
	}
	if pg := Paginate([]int{}, 0, ManagerPageSize); pg.Number != 1 || pg.Total != 1 || len(pg.Items) != 0 {
		t.Fatalf("empty %+v", pg)
	}
}

func TestSearchResetsPageAndIgnoresCase(t *testing.T) {
	svc := &fakeMenu{items: menuOf(
		"Latte", "Espresso", "Iced LATTE", "Mocha", "Cortado", "Macchiato",
		"Oat latte", "Americano", "Ristretto", "Lungo", "Flat white", "Affogato", "Chai Latte",
	)}
	m := NewCatalogueManager(svc)
	if err := m.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.SetPage(3)
	if pg := m.Page(); pg.Number != 3 || len(pg.Items) != 1 {
		t.Fatalf("before search %+v", pg)
	}

	m.SetSearch("latte")
	pg := m.Page()
	if pg.Number != 1 {
		t.Fatalf("search did not reset page: %d", pg.Number)
	}
	var got []string
	for _, it := range pg.Items {
		got = append(got, it.Name)
	}
	if fmt.Sprint(got) != "[Latte Iced LATTE Oat latte Chai Latte]" {
		t.Fatalf("filtered %v", got)
	}
}

func TestCreateRefetchesList(t *testing.T) {
	svc := &fakeMenu{}
	m := NewCatalogueManager(svc)
	ctx := context.Background()
	_ = m.Load(ctx)

	err := m.Create(ctx, domain.MenuItemInput{Name: "Cortado", Price: 3, Category: domain.CategoryCoffee, IsAvailable: true})
	if err != nil {
		t.Fatal(err)
	}
	if pg := m.Page(); pg.Count != 1 || pg.Items[0].Name != "Cortado" {
		t.Fatalf("new item missing after create: %+v", pg)
	}
	if svc.lists != 2 {
		t.Fatalf("want a refetch after create, lists=%d", svc.lists)
	}
	if st := m.Status(); st.Phase != Ready || st.Mutating || st.Err != nil {
		t.Fatalf("status %+v", st)
	}
}

func TestCreateSucceedsWhenRefetchFails(t *testing.T) {
	svc := &fakeMenu{items: menuOf("Latte")}
	m := NewCatalogueManager(svc)
	ctx := context.Background()
	_ = m.Load(ctx)

	var buf bytes.Buffer
	applog.Setup(&buf, "debug")
	defer applog.Setup(os.Stdout, "info")

	down := errors.New("503")
	svc.failList = down
	err := m.Create(ctx, domain.MenuItemInput{Name: "Cortado", Price: 3, Category: domain.CategoryCoffee, IsAvailable: true})
	if err != nil {
		t.Fatalf("create reported failure after the backend stored it: %v", err)
	}
	if len(svc.items) != 2 {
		t.Fatalf("backend items %d", len(svc.items))
	}
	st := m.Status()
	if !st.Stale || !errors.Is(st.Err, down) || st.Mutating {
		t.Fatalf("status %+v", st)
	}
	if pg := m.Page(); pg.Count != 1 {
		t.Fatalf("cached page should predate the create: %+v", pg)
	}
	out := buf.String()
	if !strings.Contains(out, `"action":"menu.create"`) || !strings.Contains(out, `"action":"menu.refresh.fail"`) {
		t.Fatalf("log lines:\n%s", out)
	}

	svc.failList = nil
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if st := m.Status(); st.Stale || st.Err != nil || m.Page().Count != 2 {
		t.Fatalf("reload did not clear stale state: %+v", st)
	}
}

func TestFailedMutationLeavesListUntouched(t *testing.T) {
	svc := &fakeMenu{items: menuOf("Latte", "Mocha")}
	m := NewCatalogueManager(svc)
	ctx := context.Background()
	_ = m.Load(ctx)

	boom := errors.New("500")
	svc.failNext = boom
	if err := m.Delete(ctx, "m1"); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	if pg := m.Page(); pg.Count != 2 {
		t.Fatalf("list changed after failure: %+v", pg)
	}
	if svc.lists != 1 {
		t.Fatal("failed mutation must not refetch")
	}
	if st := m.Status(); !errors.Is(st.Err, boom) || st.Phase != Ready {
		t.Fatalf("status %+v", st)
	}
}

func TestCreateValidationSkipsNetwork(t *testing.T) {
	svc := &fakeMenu{}
	m := NewCatalogueManager(svc)
	err := m.Create(context.Background(), domain.MenuItemInput{Name: "", Category: "Tea"})
	if !validate.IsValidation(err) {
		t.Fatalf("got %v", err)
	}
	if len(svc.items) != 0 || svc.lists != 0 {
		t.Fatal("invalid input reached the service")
	}
}

func TestUpdateRetainsCachedImage(t *testing.T) {
	svc := &fakeMenu{items: []domain.MenuItem{{ID: "m1", Name: "Latte", Image: `uploads\latte.png`, Category: domain.CategoryCoffee}}}
	m := NewCatalogueManager(svc)
	ctx := context.Background()
	_ = m.Load(ctx)

	name := "Big Latte"
	if err := m.Update(ctx, "m1", domain.MenuItemPatch{Name: &name}); err != nil {
		t.Fatal(err)
	}
	if svc.lastPatch.RetainImage != `uploads\latte.png` {
		t.Fatalf("retain image %q", svc.lastPatch.RetainImage)
	}
	if it, _ := m.Find("m1"); it.Name != name {
		t.Fatalf("not refetched: %+v", it)
	}
}

func TestDoubleSubmitIsRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	l := NewList(func(context.Context) ([]int, error) { return []int{1}, nil }, DefaultPolicy)
	_ = l.Load(context.Background())

	errc := make(chan error, 1)
	go func() {
		errc <- l.Mutate(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	if st := l.Status(); !st.Mutating {
		t.Fatal("expected mutating flag")
	}
	if err := l.Mutate(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, ErrBusy) {
		t.Fatalf("second mutation: %v", err)
	}
	close(release)
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
}

func TestClosedListDropsLateResult(t *testing.T) {
	release := make(chan struct{})
	l := NewList(func(context.Context) ([]string, error) {
		<-release
		return []string{"late"}, nil
	}, DefaultPolicy)

	errc := make(chan error, 1)
	go func() { errc <- l.Load(context.Background()) }()
	l.Close()
	close(release)
	if err := <-errc; !errors.Is(err, ErrClosed) {
		t.Fatalf("got %v", err)
	}
	if len(l.Items()) != 0 {
		t.Fatal("closed view was written to")
	}
}

func TestSupersededLoadIsDiscarded(t *testing.T) {
	first := make(chan struct{})
	calls := 0
	var mu sync.Mutex
	l := NewList(func(context.Context) ([]string, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			<-first
			return []string{"old"}, nil
		}
		return []string{"new"}, nil
	}, DefaultPolicy)

	errc := make(chan error, 1)
	go func() { errc <- l.Load(context.Background()) }()
	for {
		mu.Lock()
		n := calls
		mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	close(first)
	if err := <-errc; !errors.Is(err, ErrDiscarded) {
		t.Fatalf("got %v", err)
	}
	if got := l.Items(); len(got) != 1 || got[0] != "new" {
		t.Fatalf("items %v", got)
	}
}

func TestPublicMenuCategories(t *testing.T) {
	svc := &fakeMenu{items: []domain.MenuItem{
		{ID: "1", Name: "Croissant", Category: domain.CategoryBakery},
		{ID: "2", Name: "Latte", Category: domain.CategoryCoffee},
		{ID: "3", Name: "Bagel", Category: domain.CategoryBakery},
	}}
	m := NewMenu(svc)
	_ = m.Load(context.Background())
	if got := fmt.Sprint(m.Categories()); got != "[All Bakery Coffee]" {
		t.Fatalf("categories %s", got)
	}
	m.SetPage(5)
	m.SetCategory("Bakery")
	pg := m.Page()
	if pg.Number != 1 || pg.Count != 2 {
		t.Fatalf("page %+v", pg)
	}
	m.SetCategory("")
	if m.Page().Count != 3 {
		t.Fatal("All should not filter")
	}
}

type fakeReservations struct {
	items   []domain.Reservation
	deleted []string
}

func (f *fakeReservations) List(context.Context) ([]domain.Reservation, error) {
	return append([]domain.Reservation(nil), f.items...), nil
}

func (f *fakeReservations) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	return nil
}

func TestReservationBookFilters(t *testing.T) {
	now := time.Date(2026, 3, 10, 13, 0, 0, 0, time.Local)
	today := domain.DateOf(now)
	svc := &fakeReservations{items: []domain.Reservation{
		{ID: "a", Date: today, TimeSlot: "15:00-16:00"},
		{ID: "b", Date: today, TimeSlot: "13:00-14:00"},
		{ID: "c", Date: today.AddDays(1), TimeSlot: "09:00-10:00"},
		{ID: "d", Date: today.AddDays(-1), TimeSlot: "18:00-19:00"},
	}}
	b := NewReservationBook(svc, func() time.Time { return now })
	ctx := context.Background()
	_ = b.Load(ctx)

	if b.Filter() != FilterToday {
		t.Fatal("default filter should be today")
	}
	rows := b.Rows()
	if len(rows) != 2 || rows[0].ID != "b" || rows[1].ID != "a" {
		t.Fatalf("today rows %+v", rows)
	}
	if !rows[0].Past || rows[1].Past {
		t.Fatalf("past flags %+v", rows)
	}

	b.SetFilter(FilterUpcoming)
	if rows := b.Rows(); len(rows) != 1 || rows[0].ID != "c" {
		t.Fatalf("upcoming %+v", rows)
	}
	b.SetFilter(FilterAll)
	rows = b.Rows()
	if len(rows) != 4 || rows[0].ID != "c" || !rows[len(rows)-1].Past {
		t.Fatalf("all %+v", rows)
	}

	if err := b.Delete(ctx, "d"); err != nil {
		t.Fatal(err)
	}
	if len(b.Rows()) != 3 {
		t.Fatal("delete should refetch")
	}
	if _, err := ParseDateFilter("week"); err == nil {
		t.Fatal("unknown filter accepted")
	}
}

type fakeInbox struct {
	items   []domain.Message
	lists   int
	replies []string
}

func (f *fakeInbox) List(context.Context) ([]domain.Message, error) {
	f.lists++
	return append([]domain.Message(nil), f.items...), nil
}
func (f *fakeInbox) Delete(_ context.Context, id string) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
		}
	}
	return nil
}
func (f *fakeInbox) Reply(_ context.Context, id, body string) error {
	f.replies = append(f.replies, id+":"+body)
	return nil
}

func TestInboxReplyDoesNotRefetch(t *testing.T) {
	svc := &fakeInbox{items: []domain.Message{{ID: "x", Email: "a@b"}, {ID: "y"}}}
	in := NewInbox(svc)
	ctx := context.Background()
	_ = in.Load(ctx)

	if err := in.Reply(ctx, "x", "  "); !validate.IsValidation(err) {
		t.Fatalf("empty reply: %v", err)
	}
	if err := in.Reply(ctx, "x", "Thanks!"); err != nil {
		t.Fatal(err)
	}
	if svc.lists != 1 || len(svc.replies) != 1 {
		t.Fatalf("lists=%d replies=%v", svc.lists, svc.replies)
	}
	if err := in.Delete(ctx, "y"); err != nil {
		t.Fatal(err)
	}
	if svc.lists != 2 || len(in.Items()) != 1 {
		t.Fatal("delete should refetch")
	}
}

// gatedBooking answers availability per slot only when the test releases it.
type gatedBooking struct {
	mu      sync.Mutex
	gates   map[domain.TimeSlot]chan int
	created []domain.ReservationInput
	seats   int
	failAv  bool
	gated   bool
}

func (g *gatedBooking) gate(slot domain.TimeSlot) chan int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gates == nil {
		g.gates = map[domain.TimeSlot]chan int{}
	}
	if g.gates[slot] == nil {
		g.gates[slot] = make(chan int, 1)
	}
	return g.gates[slot]
}

func (g *gatedBooking) Availability(ctx context.Context, d domain.Date, s domain.TimeSlot) (domain.Availability, error) {
	if g.failAv {
		return domain.Availability{}, errors.New("down")
	}
	if !g.gated {
		return domain.Availability{RemainingSeats: g.seats}, nil
	}
	n := <-g.gate(s) // deliberately ignores ctx to model a response arriving late
	return domain.Availability{Date: d, TimeSlot: s, RemainingSeats: n}, nil
}

func (g *gatedBooking) Create(ctx context.Context, in domain.ReservationInput) (domain.Reservation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, in)
	return domain.Reservation{ID: "r1", Date: in.Date, TimeSlot: in.TimeSlot}, nil
}

func TestAvailabilityLastSelectionWins(t *testing.T) {
	svc := &gatedBooking{gated: true}
	f := NewBookingForm(svc, time.Now)
	day := domain.DateOf(time.Now()).AddDays(3)
	ctx := context.Background()

	first := f.Select(ctx, day, "10:00-11:00")
	second := f.Select(ctx, day.AddDays(1), "18:00-19:00")

	svc.gate("18:00-19:00") <- 7
	<-second
	if s := f.Seats(); !s.Known || s.Remaining != 7 {
		t.Fatalf("after second %+v", s)
	}

	svc.gate("10:00-11:00") <- 2
	<-first
	if s := f.Seats(); s.Remaining != 7 {
		t.Fatalf("stale response overwrote seats: %+v", s)
	}
	if d, slot := f.Selection(); d != day.AddDays(1) || slot != "18:00-19:00" {
		t.Fatalf("selection %v %v", d, slot)
	}
}

func TestAvailabilityFailureIsUnknown(t *testing.T) {
	f := NewBookingForm(&gatedBooking{failAv: true}, time.Now)
	<-f.Select(context.Background(), domain.DateOf(time.Now()).AddDays(1), "09:00-10:00")
	if s := f.Seats(); s.Known || s.Checking {
		t.Fatalf("want unknown seats, got %+v", s)
	}
}

func TestSlotStatesDisableStartedSlotsToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 30, 0, 0, time.Local)
	f := NewBookingForm(&gatedBooking{seats: 10}, func() time.Time { return now })
	<-f.Select(context.Background(), domain.DateOf(now), "")
	disabled := 0
	for _, s := range f.SlotStates() {
		if s.Disabled {
			disabled++
		}
	}
	if disabled != 5 { // 08..12
		t.Fatalf("disabled %d", disabled)
	}
	<-f.Select(context.Background(), domain.DateOf(now).AddDays(1), "")
	for _, s := range f.SlotStates() {
		if s.Disabled {
			t.Fatal("tomorrow should have nothing disabled")
		}
	}
}

func bookingInput(d domain.Date, guests int) domain.ReservationInput {
	return domain.ReservationInput{
		Name: "Ana", Phone: "5550100", Email: "ana@example.com",
		NumberOfGuests: guests, Date: d, TimeSlot: "18:00-19:00",
	}
}

func TestSubmitRefusesWhenSeatsShort(t *testing.T) {
	svc := &gatedBooking{seats: 2}
	f := NewBookingForm(svc, time.Now)
	day := domain.DateOf(time.Now()).AddDays(2)

	_, err := f.Submit(context.Background(), bookingInput(day, 3))
	if !errors.Is(err, ErrNotEnoughSeats) || Message(err, "") != "Not enough seats available." {
		t.Fatalf("got %v", err)
	}
	if len(svc.created) != 0 {
		t.Fatal("booking should not be sent")
	}
}

func TestSubmitDecrementsShownSeats(t *testing.T) {
	svc := &gatedBooking{seats: 4}
	f := NewBookingForm(svc, time.Now)
	day := domain.DateOf(time.Now()).AddDays(2)
	<-f.Select(context.Background(), day, "18:00-19:00")

	if _, err := f.Submit(context.Background(), bookingInput(day, 3)); err != nil {
		t.Fatal(err)
	}
	if s := f.Seats(); s.Remaining != 1 {
		t.Fatalf("remaining %d", s.Remaining)
	}
	svc.seats = 10
	if _, err := f.Submit(context.Background(), bookingInput(day, 5)); err != nil {
		t.Fatal(err)
	}
	if s := f.Seats(); s.Remaining != 0 {
		t.Fatalf("floor at zero, got %d", s.Remaining)
	}
}

func TestSubmitIgnoresFailedPrecheck(t *testing.T) {
	svc := &gatedBooking{failAv: true}
	f := NewBookingForm(svc, time.Now)
	if _, err := f.Submit(context.Background(), bookingInput(domain.DateOf(time.Now()).AddDays(1), 2)); err != nil {
		t.Fatal(err)
	}
	if len(svc.created) != 1 {
		t.Fatal("booking should go through")
	}
}

type countingContact struct {
	calls int
	err   error
}

func (c *countingContact) Submit(context.Context, domain.ContactInput) error {
	c.calls++
	return c.err
}

func TestContactShortMessageNeverSent(t *testing.T) {
	svc := &countingContact{}
	err := NewContactForm(svc).Submit(context.Background(), domain.ContactInput{Name: "A", Email: "a@b", Message: "hi there"})
	if !validate.IsValidation(err) || svc.calls != 0 {
		t.Fatalf("err=%v calls=%d", err, svc.calls)
	}
}

func TestContactRateLimitMessage(t *testing.T) {
	svc := &countingContact{err: &transport.Error{Status: 429, Message: "Too many"}}
	err := NewContactForm(svc).Submit(context.Background(), domain.ContactInput{Name: "A", Email: "a@b", Message: "hello there, friends"})
	if Message(err, "") != "You're sending too many messages. Please try again in an hour." {
		t.Fatalf("got %q", Message(err, ""))
	}
	svc.err = &transport.Error{Status: 500}
	err = NewContactForm(svc).Submit(context.Background(), domain.ContactInput{Name: "A", Email: "a@b", Message: "hello there, friends"})
	if Message(err, "") != "Failed to send message." {
		t.Fatalf("got %q", Message(err, ""))
	}
}

type fakeAuth struct {
	token string
	err   error
}

func (a fakeAuth) Login(context.Context, domain.Credentials) (string, error) { return a.token, a.err }

func TestLoginFormFlow(t *testing.T) {
	sess, _ := session.Open(&session.MemoryPersister{})
	rec := nav.NewRecorder(nav.LoginPath)
	f := &LoginForm{Auth: fakeAuth{err: &transport.Error{Status: 401}}, Session: sess, Nav: rec}
	ctx := context.Background()

	err := f.Submit(ctx, domain.Credentials{Username: "admin", Password: "x"})
	if Message(err, "") != "Invalid username or password." || sess.IsAuthenticated() {
		t.Fatalf("failed login: %v", err)
	}

	f.Auth = fakeAuth{token: "tok"}
	if err := f.Submit(ctx, domain.Credentials{Username: "admin", Password: "x"}); err != nil {
		t.Fatal(err)
	}
	if !sess.IsAuthenticated() || rec.Location() != nav.DashboardPath {
		t.Fatalf("after login: %v at %s", sess.State(), rec.Location())
	}

	if err := f.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if sess.IsAuthenticated() || rec.Location() != nav.LoginPath {
		t.Fatal("logout should clear and return to login")
	}
}

func TestLoadStats(t *testing.T) {
	menu := &fakeMenu{items: menuOf("a", "b", "c")}
	res := &fakeReservations{items: []domain.Reservation{{ID: "1"}}}
	inbox := &fakeInbox{}
	st, err := LoadStats(context.Background(), menu, res, inbox)
	if err != nil {
		t.Fatal(err)
	}
	if st != (Stats{MenuItems: 3, Reservations: 1, Messages: 0}) {
		t.Fatalf("stats %+v", st)
	}
}

type failingLister struct{}

func (failingLister) List(context.Context) ([]domain.Message, error) { return nil, errors.New("down") }

func TestLoadStatsFailsAsAWhole(t *testing.T) {
	_, err := LoadStats(context.Background(), &fakeMenu{}, &fakeReservations{}, failingLister{})
	if err == nil {
		t.Fatal("expected error")
	}
}
