package views

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"

	applog "cafedesk/internal/log"
)

// Stats are the dashboard counters.
type Stats struct {
	MenuItems    int
	Reservations int
	Messages     int
}

// LoadStats fetches the three lists at once. Any failure fails the whole
// dashboard; every failure is reported.
func LoadStats(ctx context.Context, menu MenuLister, res ReservationLister, msgs MessageLister) (Stats, error) {
	var (
		st   Stats
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs *multierror.Error
	)
	run := func(fn func() (int, error), dst *int) {
		defer wg.Done()
		n, err := fn()
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = multierror.Append(errs, err)
			return
		}
		*dst = n
	}
	wg.Add(3)
	go run(func() (int, error) { l, err := menu.List(ctx); return len(l), err }, &st.MenuItems)
	go run(func() (int, error) { l, err := res.List(ctx); return len(l), err }, &st.Reservations)
	go run(func() (int, error) { l, err := msgs.List(ctx); return len(l), err }, &st.Messages)
	wg.Wait()

	if err := errs.ErrorOrNil(); err != nil {
		applog.Error(ctx, "dashboard.load.fail", err, nil)
		return Stats{}, err
	}
	return st, nil
}
