package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"cafedesk/internal/domain"
	"cafedesk/internal/validate"
	"cafedesk/internal/views"
)

type BookingHandler struct {
	API   views.BookingService
	Clock func() time.Time
}

// settle selects date and slot on f and waits for the availability check.
// An unknown slot counts as no slot.
func settle(ctx context.Context, f *views.BookingForm, date domain.Date, slot domain.TimeSlot) {
	if !slot.Valid() {
		slot = ""
	}
	select {
	case <-f.Select(ctx, date, slot):
	case <-ctx.Done():
	}
}

func (h *BookingHandler) form() *views.BookingForm {
	return views.NewBookingForm(h.API, h.Clock)
}

func (h *BookingHandler) page(f *views.BookingForm, data fiber.Map) fiber.Map {
	date, slot := f.Selection()
	data["Date"] = date.String()
	data["TimeSlot"] = string(slot)
	data["Slots"] = f.SlotStates()
	data["Seats"] = f.Seats()
	data["Today"] = domain.DateOf(h.Clock()).String()
	return data
}

// GET /reservation?date=&timeSlot=
func (h *BookingHandler) Form(c *fiber.Ctx) error {
	ctx, _ := mount(c)
	f := h.form()
	defer f.Close()

	date, _ := validate.Date(c.Query("date"))
	slot, _ := validate.Slot(c.Query("timeSlot"))
	settle(ctx, f, date, slot)
	return render(c, "reservation", h.page(f, fiber.Map{}))
}

func reservationInput(c *fiber.Ctx) domain.ReservationInput {
	in := domain.ReservationInput{
		Name:        strings.TrimSpace(c.FormValue("name")),
		Phone:       strings.TrimSpace(c.FormValue("phone")),
		Email:       strings.TrimSpace(c.FormValue("email")),
		TimeSlot:    domain.TimeSlot(c.FormValue("timeSlot")),
		SpecialNote: strings.TrimSpace(c.FormValue("specialNote")),
	}
	in.Date, _ = validate.Date(c.FormValue("date"))
	in.NumberOfGuests, _ = validate.Guests(c.FormValue("numberOfGuests"))
	return in
}

// POST /reservation
func (h *BookingHandler) Reserve(c *fiber.Ctx) error {
	ctx, _ := mount(c)
	f := h.form()
	defer f.Close()

	in := reservationInput(c)
	settle(ctx, f, in.Date, in.TimeSlot)
	rv, err := f.Submit(ctx, in)
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return render(c, "reservation", h.page(f, fiber.Map{
			"Err":    views.Message(err, "We couldn't book your table. Please check your details."),
			"Fields": validate.Fields(err),
			"Input":  in,
		}))
	}
	return render(c, "reservation", h.page(f, fiber.Map{"Booked": rv}))
}

// GET /api/availability?date=&timeSlot=
func (h *BookingHandler) Availability(c *fiber.Ctx) error {
	date, okDate := validate.Date(c.Query("date"))
	slot, okSlot := validate.Slot(c.Query("timeSlot"))
	if !okDate || !okSlot {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date and timeSlot are required"})
	}
	ctx, _ := mount(c)
	f := h.form()
	defer f.Close()

	settle(ctx, f, date, slot)
	s := f.Seats()
	out := fiber.Map{"date": date.String(), "timeSlot": string(slot), "known": s.Known}
	if s.Known {
		out["remainingSeats"] = s.Remaining
		if s.Limit > 0 {
			out["seatingLimitPerSlot"] = s.Limit
		}
	}
	return c.JSON(out)
}
