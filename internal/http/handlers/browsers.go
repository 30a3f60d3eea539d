package handlers

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cafedesk/internal/session"
)

const sidCookie = "sid"

// Browsers tracks which browsers signed in on this console. The backend
// token is shared by the whole process; a browser reaches the admin pages
// only with a sid issued by its own successful login. Every sid is dropped
// when the shared session ends.
type Browsers struct {
	store *session.Store

	mu   sync.Mutex
	sids map[string]struct{}
}

func NewBrowsers(store *session.Store) *Browsers {
	b := &Browsers{store: store, sids: map[string]struct{}{}}
	store.Subscribe(func(st session.State) {
		if !st.IsAuthenticated {
			b.mu.Lock()
			b.sids = map[string]struct{}{}
			b.mu.Unlock()
		}
	})
	return b
}

// Issue registers a new sid and sets it on the response.
func (b *Browsers) Issue(c *fiber.Ctx) string {
	sid := uuid.NewString()
	b.mu.Lock()
	b.sids[sid] = struct{}{}
	b.mu.Unlock()
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return sid
}

// Revoke forgets the request's sid and expires the cookie.
func (b *Browsers) Revoke(c *fiber.Ctx) {
	if sid := c.Cookies(sidCookie); sid != "" {
		b.mu.Lock()
		delete(b.sids, sid)
		b.mu.Unlock()
	}
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

// For returns the session as seen by the requesting browser.
func (b *Browsers) For(c *fiber.Ctx) browser {
	return browser{b: b, sid: c.Cookies(sidCookie)}
}

func (b *Browsers) known(sid string) bool {
	if sid == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sids[sid]
	return ok
}

// browser satisfies nav.Authenticator for one request.
type browser struct {
	b   *Browsers
	sid string
}

func (br browser) IsAuthenticated() bool {
	return br.b.store.IsAuthenticated() && br.b.known(br.sid)
}
