package views

import (
	"context"
	"sync"
	"time"

	"cafedesk/internal/domain"
	applog "cafedesk/internal/log"
	"cafedesk/internal/validate"
)

type BookingService interface {
	Availability(ctx context.Context, date domain.Date, slot domain.TimeSlot) (domain.Availability, error)
	Create(ctx context.Context, in domain.ReservationInput) (domain.Reservation, error)
}

// Seats is what the form knows about the selected slot. Known is false
// before a check, while one runs, and after a failed one.
type Seats struct {
	Checking  bool
	Known     bool
	Remaining int
	Limit     int
}

type SlotState struct {
	Slot     domain.TimeSlot
	Disabled bool
}

const bookingFailed = "We couldn't book your table. Please check your details."

// BookingForm is the public reservation form. Choosing both a date and a
// slot starts an availability check; only the latest selection's answer is
// ever shown.
type BookingForm struct {
	svc   BookingService
	clock func() time.Time

	mu         sync.Mutex
	date       domain.Date
	slot       domain.TimeSlot
	seq        uint64
	cancel     context.CancelFunc
	seats      Seats
	submitting bool
	closed     bool
}

func NewBookingForm(svc BookingService, clock func() time.Time) *BookingForm {
	if clock == nil {
		clock = time.Now
	}
	return &BookingForm{svc: svc, clock: clock}
}

// Select records the chosen date and slot and, when both are set, checks
// availability in the background. The returned channel closes when that
// check has settled (or immediately when there is nothing to check).
// Starting a new selection cancels the previous check and discards its
// result even if it still arrives.
func (f *BookingForm) Select(ctx context.Context, date domain.Date, slot domain.TimeSlot) <-chan struct{} {
	done := make(chan struct{})

	f.mu.Lock()
	f.date, f.slot = date, slot
	f.seq++
	seq := f.seq
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	if f.closed || date.IsZero() || slot == "" {
		f.seats = Seats{}
		f.mu.Unlock()
		close(done)
		return done
	}
	cctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.seats = Seats{Checking: true}
	f.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		av, err := f.svc.Availability(cctx, date, slot)

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.closed || seq != f.seq {
			return
		}
		f.cancel = nil
		if err != nil {
			applog.Error(ctx, "availability.check.fail", err, map[string]any{"date": date.String(), "slot": string(slot)})
			f.seats = Seats{}
			return
		}
		f.seats = Seats{Known: true, Remaining: av.RemainingSeats, Limit: av.SeatingLimitPerSlot}
	}()
	return done
}

func (f *BookingForm) Selection() (domain.Date, domain.TimeSlot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.date, f.slot
}

func (f *BookingForm) Seats() Seats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seats
}

// SlotStates lists every slot, disabling those already started today.
func (f *BookingForm) SlotStates() []SlotState {
	now := f.clock()
	date, _ := f.Selection()
	out := make([]SlotState, 0, len(domain.TimeSlots))
	for _, s := range domain.TimeSlots {
		out = append(out, SlotState{Slot: s, Disabled: domain.SlotStarted(date, s, now)})
	}
	return out
}

// Submit validates, re-checks seats, and books. A failed re-check does not
// block the booking; the backend has the final word.
func (f *BookingForm) Submit(ctx context.Context, in domain.ReservationInput) (domain.Reservation, error) {
	now := f.clock()
	if err := validate.Reservation(in, domain.DateOf(now)); err != nil {
		return domain.Reservation{}, err
	}
	if domain.SlotStarted(in.Date, in.TimeSlot, now) {
		return domain.Reservation{}, &validate.FieldError{Field: "timeSlot", Message: "This time slot has already started"}
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.Reservation{}, ErrClosed
	}
	if f.submitting {
		f.mu.Unlock()
		return domain.Reservation{}, ErrBusy
	}
	f.submitting = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	if av, err := f.svc.Availability(ctx, in.Date, in.TimeSlot); err == nil && av.RemainingSeats < in.NumberOfGuests {
		return domain.Reservation{}, &FormError{Message: "Not enough seats available.", Err: ErrNotEnoughSeats}
	}

	rv, err := f.svc.Create(ctx, in)
	if err != nil {
		applog.Error(ctx, "reservation.create.fail", err, map[string]any{"date": in.Date.String(), "slot": string(in.TimeSlot)})
		return domain.Reservation{}, &FormError{Message: bookingFailed, Err: err}
	}
	applog.Info(ctx, "reservation.create", map[string]any{"id": rv.ID, "guests": in.NumberOfGuests})

	f.mu.Lock()
	if f.date == in.Date && f.slot == in.TimeSlot && f.seats.Known {
		f.seats.Remaining -= in.NumberOfGuests
		if f.seats.Remaining < 0 {
			f.seats.Remaining = 0
		}
	}
	f.mu.Unlock()
	return rv, nil
}

// Close drops any in-flight availability check.
func (f *BookingForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
