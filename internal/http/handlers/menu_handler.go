package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cafedesk/internal/validate"
	"cafedesk/internal/views"
)

type MenuHandler struct {
	API views.MenuLister
}

// GET /menu?category=&page=
func (h *MenuHandler) Menu(c *fiber.Ctx) error {
	ctx, _ := mount(c)
	m := views.NewMenu(h.API)
	defer m.Close()

	if err := m.Load(ctx); err != nil {
		return render(c, "menu", fiber.Map{"Err": "Failed to load menu items.", "Categories": m.Categories(), "Category": m.Category()})
	}
	m.SetCategory(c.Query("category"))
	m.SetPage(validate.Page(c.Query("page")))
	return render(c, "menu", fiber.Map{
		"Categories": m.Categories(),
		"Category":   m.Category(),
		"Page":       m.Page(),
	})
}
