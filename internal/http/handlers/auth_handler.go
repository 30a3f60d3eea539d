package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cafedesk/internal/domain"
	"cafedesk/internal/nav"
	"cafedesk/internal/validate"
	"cafedesk/internal/views"
)

type AuthHandler struct {
	Form     *views.LoginForm
	Browsers *Browsers
}

// GET /admin/login
func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if h.Browsers.For(c).IsAuthenticated() {
		return c.Redirect(nav.DashboardPath)
	}
	return render(c, "login", fiber.Map{"Err": ""})
}

// POST /admin/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	ctx, p := mount(c)
	cred := domain.Credentials{Username: c.FormValue("username"), Password: c.FormValue("password")}
	if err := h.Form.Submit(ctx, cred); err != nil {
		status := fiber.StatusUnauthorized
		if validate.IsValidation(err) {
			status = fiber.StatusBadRequest
		}
		c.Status(status)
		return render(c, "login", fiber.Map{
			"Err":      views.Message(err, "Invalid username or password."),
			"Fields":   validate.Fields(err),
			"Username": cred.Username,
		})
	}
	h.Browsers.Issue(c)
	if ok, err := p.redirect(c); ok {
		return err
	}
	return c.Redirect(nav.DashboardPath)
}

// POST /admin/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	ctx, p := mount(c)
	h.Browsers.Revoke(c)
	// The session is cleared in memory even when storage fails.
	_ = h.Form.Logout(ctx)
	if ok, err := p.redirect(c); ok {
		return err
	}
	return c.Redirect(nav.LoginPath)
}
