package handlers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"cafedesk/internal/api"
	"cafedesk/internal/domain"
	applog "cafedesk/internal/log"
	"cafedesk/internal/validate"
	"cafedesk/internal/views"
)

type AdminHandler struct {
	API      *api.Client
	Clock    func() time.Time
	MaxWidth uint
}

// rejected redirects to the login page when a backend call on this request
// turned the session away.
func rejected(c *fiber.Ctx) (bool, error) {
	ctx, p := mount(c)
	ok, err := p.redirect(c)
	if ok {
		applog.Security(ctx, "auth.session.rejected", map[string]any{"path": c.Path()})
	}
	return ok, err
}

// GET /admin/dashboard
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	ctx, _ := mount(c)
	st, err := views.LoadStats(ctx, h.API.Menu, h.API.Reservations, h.API.Contact)
	if ok, rerr := rejected(c); ok {
		return rerr
	}
	if err != nil {
		return render(c, "dashboard", fiber.Map{"Err": "Failed to load dashboard statistics."})
	}
	return render(c, "dashboard", fiber.Map{"Stats": st})
}

// ---------- Menu ----------

func (h *AdminHandler) menuPage(c *fiber.Ctx, m *views.CatalogueManager, data fiber.Map) error {
	data["Search"] = m.Search()
	data["Page"] = m.Page()
	data["Categories"] = domain.Categories
	if id := c.Query("edit"); id != "" {
		if it, ok := m.Find(id); ok {
			data["Editing"] = it
		}
	}
	return render(c, "admin_menu", data)
}

// mountMenu loads the manager with the search and page carried by the
// request. A false return means the response has been written.
func (h *AdminHandler) mountMenu(c *fiber.Ctx) (*views.CatalogueManager, bool, error) {
	ctx, _ := mount(c)
	m := views.NewCatalogueManager(h.API.Menu)
	err := m.Load(ctx)
	if ok, rerr := rejected(c); ok {
		m.Close()
		return nil, false, rerr
	}
	if err != nil {
		m.Close()
		return nil, false, render(c, "admin_menu", fiber.Map{"Err": "Failed to load menu items."})
	}
	m.SetSearch(strings.TrimSpace(c.Query("q", c.FormValue("q"))))
	m.SetPage(validate.Page(c.Query("page", c.FormValue("page"))))
	return m, true, nil
}

// GET /admin/menu?q=&page=&edit=
func (h *AdminHandler) MenuPage(c *fiber.Ctx) error {
	m, ok, err := h.mountMenu(c)
	if !ok {
		return err
	}
	defer m.Close()
	return h.menuPage(c, m, fiber.Map{})
}

// upload reads the optional "image" file of a multipart form and shrinks it.
func (h *AdminHandler) upload(c *fiber.Ctx) (*domain.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	files := form.File["image"]
	if len(files) == 0 || files[0].Size == 0 {
		return nil, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return api.Downscale(&domain.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, h.MaxWidth)
}

// itemFields reads the menu item form. A price that does not parse is
// reported as a field error.
func itemFields(c *fiber.Ctx) (domain.MenuItemInput, map[string]string) {
	in := domain.MenuItemInput{
		Name:        strings.TrimSpace(c.FormValue("name")),
		Description: strings.TrimSpace(c.FormValue("description")),
		Category:    domain.Category(c.FormValue("category")),
		IsAvailable: checked(c, "isAvailable"),
	}
	price, ok := validate.Price(c.FormValue("price"))
	if !ok {
		return in, map[string]string{"price": "Enter a valid price"}
	}
	in.Price = price
	return in, nil
}

// checked reads a checkbox that follows a hidden "false" field of the same
// name: any submitted true value wins.
func checked(c *fiber.Ctx, name string) bool {
	if form, err := c.MultipartForm(); err == nil {
		for _, v := range form.Value[name] {
			if validate.Bool(v) {
				return true
			}
		}
		return false
	}
	for _, v := range c.Request().PostArgs().PeekMulti(name) {
		if validate.Bool(string(v)) {
			return true
		}
	}
	return false
}

// saved is the notice for a change the backend accepted. A list left stale
// by a failed refetch says so.
func saved(st views.Status, notice string) string {
	if !st.Stale {
		return notice
	}
	return strings.TrimSuffix(notice, ".") + ", but the list could not be refreshed."
}

func (h *AdminHandler) menuFailed(c *fiber.Ctx, m *views.CatalogueManager, err error, generic string, in any) error {
	c.Status(fiber.StatusBadRequest)
	return h.menuPage(c, m, fiber.Map{
		"Err":    views.Message(err, generic),
		"Fields": validate.Fields(err),
		"Input":  in,
	})
}

// POST /admin/menu
func (h *AdminHandler) CreateMenuItem(c *fiber.Ctx) error {
	m, ok, err := h.mountMenu(c)
	if !ok {
		return err
	}
	defer m.Close()
	ctx, _ := mount(c)

	in, bad := itemFields(c)
	if bad != nil {
		c.Status(fiber.StatusBadRequest)
		return h.menuPage(c, m, fiber.Map{"Err": "Please correct the highlighted fields.", "Fields": bad, "Input": in})
	}
	if in.Image, err = h.upload(c); err != nil {
		return h.menuFailed(c, m, err, "The image could not be read.", in)
	}
	err = m.Create(ctx, in)
	if ok, rerr := rejected(c); ok {
		return rerr
	}
	if err != nil {
		return h.menuFailed(c, m, err, "Failed to save menu item.", in)
	}
	return h.menuPage(c, m, fiber.Map{"Notice": saved(m.Status(), "Menu item created.")})
}

// POST /admin/menu/:id
func (h *AdminHandler) UpdateMenuItem(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}
	m, ok, err := h.mountMenu(c)
	if !ok {
		return err
	}
	defer m.Close()
	ctx, _ := mount(c)

	in, bad := itemFields(c)
	if bad != nil {
		c.Status(fiber.StatusBadRequest)
		return h.menuPage(c, m, fiber.Map{"Err": "Please correct the highlighted fields.", "Fields": bad, "Input": in})
	}
	patch := domain.MenuItemPatch{
		Name:        &in.Name,
		Description: &in.Description,
		Price:       &in.Price,
		Category:    &in.Category,
		IsAvailable: &in.IsAvailable,
	}
	if patch.Image, err = h.upload(c); err != nil {
		return h.menuFailed(c, m, err, "The image could not be read.", in)
	}
	err = m.Update(ctx, id, patch)
	if ok, rerr := rejected(c); ok {
		return rerr
	}
	if err != nil {
		return h.menuFailed(c, m, err, "Failed to save menu item.", in)
	}
	return h.menuPage(c, m, fiber.Map{"Notice": saved(m.Status(), "Menu item updated.")})
}

// POST /admin/menu/:id/delete
func (h *AdminHandler) DeleteMenuItem(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}
	m, ok, err := h.mountMenu(c)
	if !ok {
		return err
	}
	defer m.Close()
	ctx, _ := mount(c)

	err = m.Delete(ctx, id)
	if ok, rerr := rejected(c); ok {
		return rerr
	}
	if err != nil {
		return h.menuFailed(c, m, err, "Failed to delete menu item.", nil)
	}
	return h.menuPage(c, m, fiber.Map{"Notice": saved(m.Status(), "Menu item deleted.")})
}

// ---------- Reservations ----------

func (h *AdminHandler) reservationsPage(c *fiber.Ctx, b *views.ReservationBook, data fiber.Map) error {
	data["Filter"] = string(b.Filter())
	data["Filters"] = views.DateFilters
	data["Rows"] = b.Rows()
	return render(c, "admin_reservations", data)
}

func (h *AdminHandler) mountBook(c *fiber.Ctx) (*views.ReservationBook, bool, error) {
	ctx, _ := mount(c)
	b := views.NewReservationBook(h.API.Reservations, h.Clock)
	err := b.Load(ctx)
	if ok, rerr := rejected(c); ok {
		b.Close()
		return nil, false, rerr
	}
	if err != nil {
		b.Close()
		return nil, false, render(c, "admin_reservations", fiber.Map{"Err": "Failed to load reservations."})
	}
	if f, ferr := views.ParseDateFilter(c.Query("filter", c.FormValue("filter"))); ferr == nil {
		b.SetFilter(f)
	}
	return b, true, nil
}

// GET /admin/reservations?filter=
func (h *AdminHandler) ReservationsPage(c *fiber.Ctx) error {
	b, ok, err := h.mountBook(c)
	if !ok {
		return err
	}
	defer b.Close()
	return h.reservationsPage(c, b, fiber.Map{})
}

// POST /admin/reservations/:id/delete
func (h *AdminHandler) DeleteReservation(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}
	b, ok, err := h.mountBook(c)
	if !ok {
		return err
	}
	defer b.Close()
	ctx, _ := mount(c)

	err = b.Delete(ctx, id)
	if ok, rerr := rejected(c); ok {
		return rerr
	}
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return h.reservationsPage(c, b, fiber.Map{"Err": views.Message(err, "Failed to delete reservation.")})
	}
	return h.reservationsPage(c, b, fiber.Map{"Notice": saved(b.Status(), "Reservation deleted.")})
}

// ---------- Messages ----------

func (h *AdminHandler) messagesPage(c *fiber.Ctx, in *views.Inbox, data fiber.Map) error {
	data["Messages"] = in.Items()
	if id := c.Query("reply"); id != "" {
		if m, ok := in.Find(id); ok {
			data["Replying"] = m
		}
	}
	return render(c, "admin_messages", data)
}

func (h *AdminHandler) mountInbox(c *fiber.Ctx) (*views.Inbox, bool, error) {
	ctx, _ := mount(c)
	in := views.NewInbox(h.API.Contact)
	err := in.Load(ctx)
	if ok, rerr := rejected(c); ok {
		in.Close()
		return nil, false, rerr
	}
	if err != nil {
		in.Close()
		return nil, false, render(c, "admin_messages", fiber.Map{"Err": "Failed to load messages."})
	}
	return in, true, nil
}

// GET /admin/messages?reply=
func (h *AdminHandler) MessagesPage(c *fiber.Ctx) error {
	in, ok, err := h.mountInbox(c)
	if !ok {
		return err
	}
	defer in.Close()
	return h.messagesPage(c, in, fiber.Map{})
}

// POST /admin/messages/:id/delete
func (h *AdminHandler) DeleteMessage(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}
	in, ok, err := h.mountInbox(c)
	if !ok {
		return err
	}
	defer in.Close()
	ctx, _ := mount(c)

	err = in.Delete(ctx, id)
	if ok, rerr := rejected(c); ok {
		return rerr
	}
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return h.messagesPage(c, in, fiber.Map{"Err": views.Message(err, "Failed to delete message.")})
	}
	return h.messagesPage(c, in, fiber.Map{"Notice": saved(in.Status(), "Message deleted.")})
}

// POST /admin/messages/:id/reply
func (h *AdminHandler) ReplyMessage(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}
	in, ok, err := h.mountInbox(c)
	if !ok {
		return err
	}
	defer in.Close()
	ctx, _ := mount(c)

	body := strings.TrimSpace(c.FormValue("replyMessage"))
	err = in.Reply(ctx, id, body)
	if ok, rerr := rejected(c); ok {
		return rerr
	}
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		data := fiber.Map{"Err": views.Message(err, "Failed to send reply."), "Fields": validate.Fields(err)}
		if m, found := in.Find(id); found {
			data["Replying"] = m
		}
		return h.messagesPage(c, in, data)
	}
	return h.messagesPage(c, in, fiber.Map{"Notice": "Reply sent."})
}
