package cart

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/festbook-cart/internal/fx"
	"github.com/noah-isme/festbook-cart/internal/money"
	"github.com/noah-isme/festbook-cart/internal/store"
)

var (
	inr = money.Currency{ID: 1, Code: "INR", Symbol: "₹"}
	usd = money.Currency{ID: 2, Code: "USD", Symbol: "$"}

	earlyDate = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	lateDate  = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	finalDate = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	before    = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
)

const (
	nationalUser      int64 = 1
	internationalUser int64 = 2

	shortFilmEarly int64 = 301
	shortFilmLate  int64 = 302
	featureUSD     int64 = 303
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type staticRates fx.Table

func (s staticRates) Table(context.Context) (fx.Table, error) { return fx.Table(s), nil }

type downRates struct{}

func (downRates) Table(context.Context) (fx.Table, error) { return nil, fx.ErrRateUnavailable }

// fakeStore is an in-memory cart database. Units of work operate on a copy of
// the cart and replace it on commit.
type fakeStore struct {
	users     map[int64]store.User
	seasons   map[int64]store.Season
	schedules map[int64]store.PricedFeeSchedule
	next      map[[2]int64]store.NextTier
	films     map[int64]bool
	gold      map[int64]bool
	subErr    error

	lines  []store.CartLine
	nextID int64

	begins, commits, rollbacks int
	updates                    []store.CartLineUpdate
}

func newFakeStore() *fakeStore {
	early := store.FeeSchedule{
		ID: shortFilmEarly, CategoryID: 7, CategoryName: "Short Film",
		FestivalID: 10, FestivalName: "Monsoon Shorts", FestivalLogoURL: "https://cdn.example/monsoon.png",
		StandardFee: dec("2000"), GoldFee: decimal.NewNullDecimal(dec("1500")), Enabled: true,
		DeadlineID: 201, DeadlineName: "Early", DeadlineDate: earlyDate, SeasonID: 100,
	}
	late := early
	late.ID = shortFilmLate
	late.StandardFee = dec("3000")
	late.GoldFee = decimal.NullDecimal{}
	late.DeadlineID = 202
	late.DeadlineName = "Late"
	late.DeadlineDate = lateDate
	feature := store.FeeSchedule{
		ID: featureUSD, CategoryID: 8, CategoryName: "Feature",
		FestivalID: 11, FestivalName: "Pacific Screen",
		StandardFee: dec("25"), GoldFee: decimal.NewNullDecimal(dec("20")), Enabled: true,
		DeadlineID: 203, DeadlineName: "Regular", DeadlineDate: finalDate, SeasonID: 101,
	}

	return &fakeStore{
		users: map[int64]store.User{
			nationalUser:      {ID: nationalUser, FirstName: "Asha", Email: "asha@example.com", PhoneNo: "+91 90000 00000", CurrencyID: inr.ID, Currency: inr},
			internationalUser: {ID: internationalUser, FirstName: "Sam", Email: "sam@example.com", PhoneNo: "+1 555 0100", CurrencyID: usd.ID, Currency: usd},
		},
		seasons: map[int64]store.Season{
			100: {ID: 100, CurrencyID: inr.ID, Currency: inr},
			101: {ID: 101, CurrencyID: usd.ID, Currency: usd},
		},
		schedules: map[int64]store.PricedFeeSchedule{
			shortFilmEarly: {FeeSchedule: early, SeasonCurrency: inr},
			shortFilmLate:  {FeeSchedule: late, SeasonCurrency: inr},
			featureUSD:     {FeeSchedule: feature, SeasonCurrency: usd},
		},
		next: map[[2]int64]store.NextTier{
			{201, 7}: {DeadlineID: 202, DeadlineName: "Late", DeadlineDate: lateDate, FeeScheduleID: shortFilmLate, StandardFee: dec("3000")},
		},
		films:  map[int64]bool{50: true, 51: true},
		gold:   map[int64]bool{},
		nextID: 1000,
	}
}

// entry seeds a festival entry line and returns its id.
func (s *fakeStore) entry(userID, filmID, feeID int64, stored string, currencyID int64) int64 {
	s.nextID++
	fee := s.schedules[feeID].FeeSchedule
	line := store.CartLine{
		ID: s.nextID, UserID: userID, FilmID: &filmID, FilmTitle: "Film " + decimal.NewFromInt(filmID).String(),
		FeeScheduleID: &feeID, FeeInCurrency: dec(stored), ExchRate: dec("1"), Fee: &fee,
	}
	if currencyID != 0 {
		line.UserCurrencyID = &currencyID
	}
	s.lines = append(s.lines, line)
	return line.ID
}

// disable marks the fee schedule stored on line id as switched off.
func (s *fakeStore) disable(id int64) {
	for i := range s.lines {
		if s.lines[i].ID == id {
			fee := *s.lines[i].Fee
			fee.Enabled = false
			s.lines[i].Fee = &fee
		}
	}
}

func (s *fakeStore) product(userID, productID int64) int64 {
	s.nextID++
	cur := s.users[userID].CurrencyID
	s.lines = append(s.lines, store.CartLine{ID: s.nextID, UserID: userID, ProductID: &productID, UserCurrencyID: &cur})
	return s.nextID
}

func (s *fakeStore) line(id int64) (store.CartLine, bool) {
	for _, l := range s.lines {
		if l.ID == id {
			return l, true
		}
	}
	return store.CartLine{}, false
}

func (s *fakeStore) Begin(context.Context) (UnitOfWork, error) {
	s.begins++
	lines := append([]store.CartLine(nil), s.lines...)
	return &fakeTx{s: s, lines: &lines}, nil
}

func (s *fakeStore) view() *fakeTx { return &fakeTx{s: s, lines: &s.lines} }

type fakeTx struct {
	s     *fakeStore
	lines *[]store.CartLine
}

func (t *fakeTx) Commit(context.Context) error {
	t.s.commits++
	t.s.lines = *t.lines
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.s.rollbacks++
	return nil
}

func (t *fakeTx) GetUser(_ context.Context, userID int64) (store.User, error) {
	u, ok := t.s.users[userID]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (t *fakeTx) ListCartLines(_ context.Context, userID int64) ([]store.CartLine, error) {
	var out []store.CartLine
	for _, l := range *t.lines {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (t *fakeTx) GetSeason(_ context.Context, seasonID int64) (store.Season, error) {
	season, ok := t.s.seasons[seasonID]
	if !ok {
		return store.Season{}, store.ErrNotFound
	}
	return season, nil
}

func (t *fakeTx) NextFeeSchedule(_ context.Context, deadlineID, categoryID int64) (store.NextTier, error) {
	next, ok := t.s.next[[2]int64{deadlineID, categoryID}]
	if !ok {
		return store.NextTier{}, store.ErrNotFound
	}
	return next, nil
}

func (t *fakeTx) HasActiveSubscription(_ context.Context, userID int64, _ time.Time) (bool, error) {
	if t.s.subErr != nil {
		return false, t.s.subErr
	}
	return t.s.gold[userID], nil
}

func (t *fakeTx) UpdateCartLine(_ context.Context, arg store.CartLineUpdate) error {
	t.s.updates = append(t.s.updates, arg)
	for i := range *t.lines {
		l := &(*t.lines)[i]
		if l.ID != arg.ID {
			continue
		}
		l.FeeInCurrency = arg.FeeInCurrency
		cur := arg.UserCurrencyID
		l.UserCurrencyID = &cur
		l.ExchRate = arg.ExchRate
		if arg.FeeScheduleID != nil {
			id := *arg.FeeScheduleID
			fee := t.s.schedules[id].FeeSchedule
			l.FeeScheduleID = &id
			l.Fee = &fee
		}
		return nil
	}
	return store.ErrNotFound
}

func (t *fakeTx) DeleteCartLine(_ context.Context, id int64) error {
	t.remove(func(l store.CartLine) bool { return l.ID == id })
	return nil
}

func (t *fakeTx) DeleteUserCartLine(_ context.Context, userID, id int64) (bool, error) {
	return t.remove(func(l store.CartLine) bool { return l.ID == id && l.UserID == userID }) > 0, nil
}

func (t *fakeTx) ClearCart(_ context.Context, userID int64) (int64, error) {
	return int64(t.remove(func(l store.CartLine) bool { return l.UserID == userID })), nil
}

func (t *fakeTx) remove(match func(store.CartLine) bool) int {
	kept := (*t.lines)[:0:0]
	removed := 0
	for _, l := range *t.lines {
		if match(l) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	*t.lines = kept
	return removed
}

func (t *fakeTx) InsertCartLine(_ context.Context, arg store.NewCartLine) (int64, error) {
	t.s.nextID++
	cur := arg.UserCurrencyID
	line := store.CartLine{
		ID: t.s.nextID, UserID: arg.UserID, FilmID: arg.FilmID, FeeScheduleID: arg.FeeScheduleID,
		ProductID: arg.ProductID, FeeInCurrency: arg.FeeInCurrency, UserCurrencyID: &cur, ExchRate: arg.ExchRate,
	}
	if arg.FeeScheduleID != nil {
		fee := t.s.schedules[*arg.FeeScheduleID].FeeSchedule
		line.Fee = &fee
	}
	*t.lines = append(*t.lines, line)
	return line.ID, nil
}

func (t *fakeTx) CartHasFilmEntry(_ context.Context, userID, filmID int64, feeIDs []int64) (bool, error) {
	for _, l := range *t.lines {
		if l.UserID != userID || l.FilmID == nil || *l.FilmID != filmID || l.FeeScheduleID == nil {
			continue
		}
		for _, id := range feeIDs {
			if id == *l.FeeScheduleID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (t *fakeTx) FindMembershipLine(_ context.Context, userID int64) (int64, error) {
	for _, l := range *t.lines {
		if l.UserID == userID && l.ProductID != nil {
			return l.ID, nil
		}
	}
	return 0, store.ErrNotFound
}

func (t *fakeTx) FilmExists(_ context.Context, filmID int64) (bool, error) {
	return t.s.films[filmID], nil
}

func (t *fakeTx) ListEnabledFeeSchedules(_ context.Context, ids []int64) ([]store.PricedFeeSchedule, error) {
	var out []store.PricedFeeSchedule
	for _, id := range ids {
		if fs, ok := t.s.schedules[id]; ok && fs.Enabled {
			out = append(out, fs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type recordedEvent struct {
	Topic     string
	Aggregate string
	Payload   any
}

type fakeEmitter struct {
	events []recordedEvent
	err    error
}

func (e *fakeEmitter) Emit(_ context.Context, topic, aggregateID string, payload any) (store.DomainEvent, error) {
	e.events = append(e.events, recordedEvent{Topic: topic, Aggregate: aggregateID, Payload: payload})
	if e.err != nil {
		return store.DomainEvent{}, e.err
	}
	return store.DomainEvent{ID: "evt", Topic: topic, AggregateID: aggregateID}, nil
}

func (e *fakeEmitter) topics() []string {
	out := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Topic)
	}
	return out
}

var errStorage = errors.New("storage down")

type fixture struct {
	db      *fakeStore
	emitter *fakeEmitter
	svc     *Service
	now     time.Time
}

func newFixture(rates fx.TableSource) *fixture {
	db := newFakeStore()
	f := &fixture{db: db, emitter: &fakeEmitter{}, now: before}
	policy := fx.Policy{National: "INR", International: "USD"}
	f.svc = &Service{
		Q:  db.view(),
		Tx: db,
		Engine: Engine{
			Quoter: fx.Router{Policy: policy, Converter: fx.Converter{Rates: rates}, Ops: zerolog.Nop()},
			Logger: zerolog.Nop(),
		},
		Events:     f.emitter,
		Policy:     policy,
		ServiceFee: decimal.Zero,
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return f.now },
	}
	return f
}

func defaultRates() staticRates {
	return staticRates{"USD": dec("1"), "INR": dec("80")}
}
