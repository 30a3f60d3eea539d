package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "cafedesk/internal/log"
	"cafedesk/internal/nav"
)

type AppConfig struct {
	Views fiber.Views
	Deps  *Deps
	// RateLimit is requests per minute per client across the site; 0 turns
	// the global limiter off.
	RateLimit int
	// AccessLog writes one fiber access line per request.
	AccessLog bool
}

// ErrorHandler logs err and shows a friendly page without internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	applog.Error(applog.FromFiber(c), "server.error", err, map[string]any{"status": code})
	if rerr := c.Status(code).Render("notfound", fiber.Map{
		"Message": "Something went wrong. Please try again.",
	}); rerr != nil {
		return c.Status(code).SendString("Something went wrong. Please try again.")
	}
	return nil
}

// NewApp builds the console: middleware, public pages, and the guarded
// admin pages.
func NewApp(cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        cfg.Views,
		BodyLimit:    8 << 20, // menu images
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	if cfg.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	if cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return strings.HasPrefix(string(c.Request().URI().Path()), "/healthz")
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(applog.FromFiber(c), "rate.global.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).Render("notfound", fiber.Map{"Message": "Too many requests. Please slow down."})
			},
		}))
	}
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(applog.FromFiber(c), "csrf.fail", map[string]any{"path": c.Path()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})
	d := cfg.Deps
	app.Use(AttachSession(d.Browsers))

	// Public pages
	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/menu") })
	app.Get("/menu", d.MenuHandler.Menu)
	app.Get("/reservation", d.BookingHandler.Form)
	app.Post("/reservation", d.BookingHandler.Reserve)
	app.Get("/contact", d.ContactHandler.Form)
	app.Post("/contact", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(applog.FromFiber(c), "rate.contact.hit", nil)
			c.Status(fiber.StatusTooManyRequests)
			return render(c, "contact", fiber.Map{"Err": "You're sending too many messages. Please try again in an hour."})
		},
	}), d.ContactHandler.Submit)

	api := app.Group("/api")
	api.Get("/availability", limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(applog.FromFiber(c), "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), d.BookingHandler.Availability)

	// Auth routes (login throttled). Registered before the guarded group so
	// the login page never runs the guard.
	app.Get(nav.LoginPath, d.AuthHandler.LoginForm)
	app.Post(nav.LoginPath, limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(applog.FromFiber(c), "rate.login.hit", nil)
			c.Status(fiber.StatusTooManyRequests)
			return render(c, "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	app.Post("/admin/logout", d.AuthHandler.Logout)

	// Admin
	adminH := d.AdminHandler
	admin := app.Group("/admin", RequireSession(d.Browsers))
	admin.Get("/", func(c *fiber.Ctx) error { return c.Redirect(nav.DashboardPath) })
	admin.Get("/dashboard", adminH.Dashboard)
	admin.Get("/menu", adminH.MenuPage)
	admin.Post("/menu", adminH.CreateMenuItem)
	admin.Post("/menu/:id", adminH.UpdateMenuItem)
	admin.Post("/menu/:id/delete", adminH.DeleteMenuItem)
	admin.Get("/reservations", adminH.ReservationsPage)
	admin.Post("/reservations/:id/delete", adminH.DeleteReservation)
	admin.Get("/messages", adminH.MessagesPage)
	admin.Post("/messages/:id/delete", adminH.DeleteMessage)
	admin.Post("/messages/:id/reply", adminH.ReplyMessage)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return notFound(c, fiber.StatusNotFound, "Page not found")
	})
	return app
}
