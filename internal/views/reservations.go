package views

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cafedesk/internal/domain"
	applog "cafedesk/internal/log"
)

type ReservationLister interface {
	List(ctx context.Context) ([]domain.Reservation, error)
}

type ReservationService interface {
	ReservationLister
	Delete(ctx context.Context, id string) error
}

type DateFilter string

const (
	FilterToday    DateFilter = "today"
	FilterUpcoming DateFilter = "upcoming"
	FilterAll      DateFilter = "all"
)

var DateFilters = []DateFilter{FilterToday, FilterUpcoming, FilterAll}

func ParseDateFilter(s string) (DateFilter, error) {
	for _, f := range DateFilters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Row is a reservation with its status at render time.
type Row struct {
	domain.Reservation
	Past bool
}

// ReservationBook is the admin reservations table. It is unpaged.
type ReservationBook struct {
	svc   ReservationService
	list  *List[domain.Reservation]
	clock func() time.Time

	mu     sync.Mutex
	filter DateFilter
}

func NewReservationBook(svc ReservationService, clock func() time.Time) *ReservationBook {
	if clock == nil {
		clock = time.Now
	}
	return &ReservationBook{
		svc:    svc,
		list:   NewList(svc.List, DefaultPolicy),
		clock:  clock,
		filter: FilterToday,
	}
}

func (b *ReservationBook) Load(ctx context.Context) error {
	err := b.list.Load(ctx)
	if err != nil && err != ErrDiscarded && err != ErrClosed {
		applog.Error(ctx, "reservations.load.fail", err, nil)
	}
	return err
}

func (b *ReservationBook) SetFilter(f DateFilter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = f
}

func (b *ReservationBook) Filter() DateFilter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter
}

// Rows applies the date filter against the clock, orders by time slot and
// marks each row past or scheduled.
func (b *ReservationBook) Rows() []Row {
	now := b.clock()
	today := domain.DateOf(now)
	f := b.Filter()

	var rows []Row
	for _, rv := range b.list.Items() {
		switch f {
		case FilterToday:
			if rv.Date != today {
				continue
			}
		case FilterUpcoming:
			if !rv.Date.After(today) {
				continue
			}
		}
		rows = append(rows, Row{Reservation: rv, Past: domain.IsPast(rv.Date, rv.TimeSlot, now)})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TimeSlot < rows[j].TimeSlot })
	return rows
}

func (b *ReservationBook) Delete(ctx context.Context, id string) error {
	err := b.list.Mutate(ctx, func(ctx context.Context) error {
		return b.svc.Delete(ctx, id)
	})
	if err != nil {
		applog.Error(ctx, "reservations.delete.fail", err, map[string]any{"id": id})
		return err
	}
	applog.Audit(ctx, "reservations.delete", map[string]any{"id": id})
	logStale(ctx, b.list, "reservations.refresh.fail", map[string]any{"id": id})
	return nil
}

func (b *ReservationBook) Status() Status { return b.list.Status() }
func (b *ReservationBook) Close()         { b.list.Close() }
