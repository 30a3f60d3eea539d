package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"cafedesk/internal/domain"
	"cafedesk/internal/transport"
	"cafedesk/internal/validate"
	"cafedesk/internal/views"
)

type ContactHandler struct {
	API views.ContactService
}

// GET /contact
func (h *ContactHandler) Form(c *fiber.Ctx) error {
	return render(c, "contact", fiber.Map{})
}

// POST /contact
func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	ctx, _ := mount(c)
	in := domain.ContactInput{
		Name:    strings.TrimSpace(c.FormValue("name")),
		Email:   strings.TrimSpace(c.FormValue("email")),
		Message: strings.TrimSpace(c.FormValue("message")),
	}
	if err := views.NewContactForm(h.API).Submit(ctx, in); err != nil {
		status := fiber.StatusBadRequest
		if transport.StatusOf(err) == fiber.StatusTooManyRequests {
			status = fiber.StatusTooManyRequests
		}
		c.Status(status)
		return render(c, "contact", fiber.Map{
			"Err":    views.Message(err, "Failed to send message."),
			"Fields": validate.Fields(err),
			"Input":  in,
		})
	}
	return render(c, "contact", fiber.Map{"Sent": true})
}
