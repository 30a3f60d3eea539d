package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cafedesk/internal/domain"
	"cafedesk/internal/validate"
	"cafedesk/internal/views"
)

func reservationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "Review table bookings",
	}
	cmd.AddCommand(reservationsListCmd(a), reservationsDeleteCmd(a))
	return cmd
}

func reservationsListCmd(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings for today, upcoming days, or all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			f, err := views.ParseDateFilter(filter)
			if err != nil {
				return err
			}
			b := views.NewReservationBook(a.api.Reservations, a.clock)
			defer b.Close()
			if err := b.Load(ctxOf(cmd)); err != nil {
				return a.failure(err, "Failed to load reservations.")
			}
			b.SetFilter(f)
			rows := b.Rows()
			if len(rows) == 0 {
				fmt.Fprintln(a.out, "No reservations")
				return nil
			}
			fmt.Fprintf(a.out, "%-26s %-20s %-10s %-7s %6s %-9s\n", "ID", "Name", "Date", "Time", "Guests", "Status")
			fmt.Fprintln(a.out, strings.Repeat("-", 83))
			for _, r := range rows {
				status := "scheduled"
				if r.Past {
					status = "past"
				}
				fmt.Fprintf(a.out, "%-26s %-20s %-10s %-7s %6d %-9s\n",
					truncateString(r.ID, 26), truncateString(r.Name, 20), r.Date, r.TimeSlot, r.NumberOfGuests, status)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", string(views.FilterToday), "today, upcoming or all")
	return cmd
}

func reservationsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Cancel a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			id, ok := validate.ID(args[0])
			if !ok {
				return errors.New("invalid id")
			}
			b := views.NewReservationBook(a.api.Reservations, a.clock)
			defer b.Close()
			if err := b.Delete(ctxOf(cmd), id); err != nil {
				return a.failure(err, "Failed to delete reservation.")
			}
			a.saved(b.Status(), "Deleted %s", id)
			return nil
		},
	}
}

func parseSelection(date, slot string) (domain.Date, domain.TimeSlot, error) {
	d, ok := validate.Date(date)
	if !ok {
		return domain.Date{}, "", errors.New("date: use YYYY-MM-DD")
	}
	s, ok := validate.Slot(slot)
	if !ok {
		return domain.Date{}, "", fmt.Errorf("slot: one of %s", slotList())
	}
	return d, s, nil
}

func slotList() string {
	names := make([]string, len(domain.TimeSlots))
	for i, s := range domain.TimeSlots {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func availabilityCmd(a *app) *cobra.Command {
	var date, slot string
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Show seats left for a date and time slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, s, err := parseSelection(date, slot)
			if err != nil {
				return err
			}
			f := views.NewBookingForm(a.api.Reservations, a.clock)
			defer f.Close()
			ctx := ctxOf(cmd)
			select {
			case <-f.Select(ctx, d, s):
			case <-ctx.Done():
				return ctx.Err()
			}
			seats := f.Seats()
			if !seats.Known {
				return errors.New("availability could not be checked")
			}
			fmt.Fprintf(a.out, "%s %s: %d seats left", d, s, seats.Remaining)
			if seats.Limit > 0 {
				fmt.Fprintf(a.out, " of %d", seats.Limit)
			}
			fmt.Fprintln(a.out)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date, YYYY-MM-DD")
	cmd.Flags().StringVar(&slot, "slot", "", "time slot, one of "+slotList())
	return cmd
}

func reserveCmd(a *app) *cobra.Command {
	var in domain.ReservationInput
	var date, slot string
	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Book a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, s, err := parseSelection(date, slot)
			if err != nil {
				return err
			}
			in.Date, in.TimeSlot = d, s
			in.Name = strings.TrimSpace(in.Name)
			in.Email = strings.TrimSpace(in.Email)
			in.Phone = strings.TrimSpace(in.Phone)
			in.SpecialNote = strings.TrimSpace(in.SpecialNote)

			f := views.NewBookingForm(a.api.Reservations, a.clock)
			defer f.Close()
			rv, err := f.Submit(ctxOf(cmd), in)
			if err != nil {
				return a.failure(err, "We couldn't book your table. Please check your details.")
			}
			fmt.Fprintf(a.out, "Booked a table for %d on %s at %s (%s)\n", rv.NumberOfGuests, rv.Date, rv.TimeSlot, rv.ID)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&in.Name, "name", "", "guest name")
	fl.StringVar(&in.Phone, "phone", "", "contact phone")
	fl.StringVar(&in.Email, "email", "", "contact email")
	fl.StringVar(&date, "date", "", "date, YYYY-MM-DD")
	fl.StringVar(&slot, "slot", "", "time slot, one of "+slotList())
	fl.IntVar(&in.NumberOfGuests, "guests", 2, "party size")
	fl.StringVar(&in.SpecialNote, "note", "", "special request")
	return cmd
}
