package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "cafedesk/internal/log"
	"cafedesk/internal/nav"
	"cafedesk/internal/session"
)

// RequireSession guards the admin pages. Both the shared session and the
// browser's own sid are checked on every request; otherwise the browser is
// sent to the login page.
func RequireSession(b *Browsers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, p := mount(c)
		if !(nav.Guard{Session: b.For(c)}).Enter(p) {
			applog.Security(ctx, "access.denied.admin", map[string]any{"has_sid": c.Cookies(sidCookie) != ""})
			_, err := p.redirect(c)
			return err
		}
		return c.Next()
	}
}

// AttachSession exposes the signed-in administrator's name to templates of
// a browser that signed in. Opaque tokens show as "admin".
func AttachSession(b *Browsers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if b.For(c).IsAuthenticated() {
			name := "admin"
			if cl, err := session.Inspect(b.store.Token()); err == nil && cl.Subject != "" {
				name = cl.Subject
			}
			c.Locals("admin", name)
		}
		return c.Next()
	}
}
