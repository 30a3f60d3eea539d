package views

import (
	"context"
	"errors"
	"sync"

	applog "cafedesk/internal/log"
)

var (
	// ErrBusy rejects a second mutation while one is in flight.
	ErrBusy = errors.New("views: another change is still in progress")
	// ErrClosed is returned once the view has been closed.
	ErrClosed = errors.New("views: view closed")
	// ErrDiscarded marks a load superseded by a newer one.
	ErrDiscarded = errors.New("views: result superseded")
)

type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	}
	return "idle"
}

// Status is a snapshot of a list's state machine. Err is the last load or
// mutation failure, cleared by the next successful load. Stale means the
// last mutation succeeded but the refetch after it failed, so the cached
// items predate it.
type Status struct {
	Phase    Phase
	Mutating bool
	Err      error
	Stale    bool
}

type Reconcile int

const (
	// RefetchAll re-reads the whole list after every successful mutation.
	RefetchAll Reconcile = iota
	// KeepLocal leaves the cached list as it is.
	KeepLocal
)

// Policy says how a list catches up with the server after a mutation.
type Policy struct {
	OnMutationSuccess Reconcile
}

var DefaultPolicy = Policy{OnMutationSuccess: RefetchAll}

// List holds a server-owned collection. The cached items only ever change
// by a completed load; mutations never patch them in place.
type List[T any] struct {
	fetch  func(context.Context) ([]T, error)
	policy Policy

	mu       sync.Mutex
	items    []T
	loaded   bool
	phase    Phase
	mutating bool
	stale    bool
	err      error
	gen      uint64
	closed   bool
}

func NewList[T any](fetch func(context.Context) ([]T, error), policy Policy) *List[T] {
	return &List[T]{fetch: fetch, policy: policy}
}

// Load fetches the list. A result that arrives after a newer Load started,
// or after Close, is dropped and reported as ErrDiscarded or ErrClosed.
func (l *List[T]) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.gen++
	gen := l.gen
	l.phase = Loading
	l.mu.Unlock()

	items, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if gen != l.gen {
		return ErrDiscarded
	}
	if err != nil {
		l.err = err
		if l.loaded {
			l.phase = Ready
		} else {
			l.phase = Idle
		}
		return err
	}
	l.items = items
	l.loaded = true
	l.phase = Ready
	l.err = nil
	l.stale = false
	return nil
}

func (l *List[T]) begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if l.mutating {
		return ErrBusy
	}
	l.mutating = true
	return nil
}

func (l *List[T]) end(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mutating = false
	if err != nil && !l.closed {
		l.err = err
	}
}

// Mutate runs fn with the Mutating flag raised, then reconciles per the
// list's policy. On failure the cached items are left as they were. Once fn
// has succeeded the result is success: a failed refetch only marks the list
// Stale and leaves its error in Status.
func (l *List[T]) Mutate(ctx context.Context, fn func(context.Context) error) error {
	if err := l.begin(); err != nil {
		return err
	}
	err := fn(ctx)
	l.end(err)
	if err != nil {
		return err
	}
	if l.policy.OnMutationSuccess != RefetchAll {
		return nil
	}
	if err := l.Load(ctx); err != nil && !errors.Is(err, ErrClosed) && !errors.Is(err, ErrDiscarded) {
		l.mu.Lock()
		l.stale = true
		l.mu.Unlock()
	}
	return nil
}

// Do runs an action that does not change the list, such as sending a
// reply. It shares the double-submit guard with Mutate but never refetches.
func (l *List[T]) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.begin(); err != nil {
		return err
	}
	err := fn(ctx)
	l.end(err)
	return err
}

// Items returns a copy of the cached list.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...)
}

func (l *List[T]) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{Phase: l.phase, Mutating: l.mutating, Err: l.err, Stale: l.stale}
}

// Close unmounts the list; in-flight work finishes but no longer lands.
func (l *List[T]) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// logStale records a refetch that failed after a successful mutation.
func logStale[T any](ctx context.Context, l *List[T], action string, fields map[string]any) {
	if st := l.Status(); st.Stale {
		applog.Error(ctx, action, st.Err, fields)
	}
}
