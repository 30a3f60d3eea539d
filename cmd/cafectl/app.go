package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"cafedesk/internal/api"
	"cafedesk/internal/config"
	"cafedesk/internal/nav"
	"cafedesk/internal/session"
	"cafedesk/internal/validate"
	"cafedesk/internal/views"
)

var errNotSignedIn = errors.New("not signed in, run cafectl login")

// app is one invocation of cafectl. Opening it re-reads the session from
// durable storage.
type app struct {
	cfg   config.Config
	out   io.Writer
	in    io.Reader
	clock func() time.Time

	store   *session.Store
	api     *api.Client
	nav     *notice
	closers []io.Closer

	// readPassword prompts without echo; tests replace it.
	readPassword func(prompt string) (string, error)
}

func openApp(cfg config.Config, out io.Writer) (*app, error) {
	p, err := session.OpenPersister(cfg.SessionStore, cfg.SessionPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, out: out, in: os.Stdin, clock: time.Now}
	if c, ok := p.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	a.store, err = session.Open(p)
	if err != nil {
		fmt.Fprintf(out, "warning: %v; signed out\n", err)
	}
	a.nav = &notice{out: out}
	a.api = api.Dial(cfg, a.store, a.nav)
	a.readPassword = a.promptPassword
	return a, nil
}

func (a *app) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// promptPassword reads a password with masking, or a plain line when stdin
// is not a terminal.
func (a *app) promptPassword(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) requireSession() error {
	if !(nav.Guard{Session: a.store}).Allow() {
		return errNotSignedIn
	}
	return nil
}

// failure turns a view error into what the user reads. A rejected session
// has already been reported by the navigator.
func (a *app) failure(err error, generic string) error {
	if a.nav.fired() {
		return errNotSignedIn
	}
	if fields := validate.Fields(err); len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			msgs = append(msgs, k+": "+fields[k])
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return errors.New(views.Message(err, generic))
}

// notice is the CLI's navigator. There is no page to redirect, so being sent
// to the login view is reported once instead.
type notice struct {
	out io.Writer

	mu   sync.Mutex
	loc  string
	sent bool
}

func (n *notice) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loc
}

func (n *notice) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loc = path
	if path == nav.LoginPath && !n.sent {
		n.sent = true
		fmt.Fprintln(n.out, "session expired, run cafectl login")
	}
}

// at moves to path without any notice.
func (n *notice) at(path string) {
	n.mu.Lock()
	n.loc = path
	n.mu.Unlock()
}

func (n *notice) fired() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent
}

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength-3]) + "..."
}

// saved reports a change the backend accepted, noting a list left stale.
func (a *app) saved(st views.Status, format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
	if st.Stale {
		fmt.Fprint(a.out, ", but the list could not be refreshed")
	}
	fmt.Fprintln(a.out)
}
