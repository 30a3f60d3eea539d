package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	applog "cafedesk/internal/log"
	"cafedesk/internal/nav"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if a := c.Locals("admin"); a != nil {
		data["Admin"] = a
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

// page is the navigator of one request. A view that navigates away
// (login, logout, a rejected token) turns into an HTTP redirect.
type page struct {
	*nav.Recorder
}

type mounted struct {
	ctx context.Context
	p   page
}

// mount returns the request context carrying this page's navigator and log
// metadata. Later calls in the same request return the same page.
func mount(c *fiber.Ctx) (context.Context, page) {
	if m, ok := c.Locals("page").(mounted); ok {
		return m.ctx, m.p
	}
	p := page{nav.NewRecorder(c.Path())}
	ctx := nav.WithNavigator(applog.FromFiber(c), p)
	c.Locals("page", mounted{ctx: ctx, p: p})
	return ctx, p
}

// redirect sends the browser wherever the view navigated last, if anywhere.
func (p page) redirect(c *fiber.Ctx) (bool, error) {
	v := p.Visited()
	if len(v) == 0 {
		return false, nil
	}
	return true, c.Redirect(v[len(v)-1])
}

func notFound(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).Render("notfound", fiber.Map{"Message": msg})
}
