package nav

import (
	"context"
	"strings"
	"sync"
)

const (
	LoginPath     = "/admin/login"
	DashboardPath = "/admin/dashboard"
)

// Navigator is the current location and a way to leave it.
type Navigator interface {
	Location() string
	Navigate(path string)
}

// OnLogin reports whether loc is already the login view.
func OnLogin(n Navigator) bool {
	return strings.Contains(n.Location(), LoginPath)
}

type navKey struct{}

// WithNavigator scopes n to ctx, so one request can redirect its own page.
func WithNavigator(ctx context.Context, n Navigator) context.Context {
	return context.WithValue(ctx, navKey{}, n)
}

// FromContext returns the navigator stored in ctx, else fallback.
func FromContext(ctx context.Context, fallback Navigator) Navigator {
	if ctx != nil {
		if n, ok := ctx.Value(navKey{}).(Navigator); ok && n != nil {
			return n
		}
	}
	return fallback
}

// Recorder is a Navigator that only remembers where it was sent.
type Recorder struct {
	mu      sync.Mutex
	loc     string
	visited []string
}

func NewRecorder(start string) *Recorder { return &Recorder{loc: start} }

func (r *Recorder) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loc
}

func (r *Recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loc = path
	r.visited = append(r.visited, path)
}

// Visited lists every Navigate call in order.
func (r *Recorder) Visited() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.visited...)
}
