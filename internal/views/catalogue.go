package views

import (
	"context"
	"strings"
	"sync"

	"cafedesk/internal/domain"
	applog "cafedesk/internal/log"
	"cafedesk/internal/validate"
)

type MenuLister interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
}

type MenuService interface {
	MenuLister
	Create(ctx context.Context, in domain.MenuItemInput) (domain.MenuItem, error)
	Update(ctx context.Context, id string, p domain.MenuItemPatch) (domain.MenuItem, error)
	Delete(ctx context.Context, id string) error
}

// CatalogueManager is the admin menu table: name search, six per page, and
// create, update and delete followed by a full reload.
type CatalogueManager struct {
	svc  MenuService
	list *List[domain.MenuItem]

	mu     sync.Mutex
	search string
	page   int
}

func NewCatalogueManager(svc MenuService) *CatalogueManager {
	return &CatalogueManager{svc: svc, list: NewList(svc.List, DefaultPolicy), page: 1}
}

func (m *CatalogueManager) Load(ctx context.Context) error {
	err := m.list.Load(ctx)
	if err != nil && err != ErrDiscarded && err != ErrClosed {
		applog.Error(ctx, "menu.load.fail", err, nil)
	}
	return err
}

// SetSearch changes the name filter and returns to the first page.
func (m *CatalogueManager) SetSearch(q string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.search = strings.TrimSpace(q)
	m.page = 1
}

func (m *CatalogueManager) Search() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.search
}

func (m *CatalogueManager) SetPage(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.page = n
}

// Filtered is every cached item whose name contains the search text,
// ignoring case, in server order.
func (m *CatalogueManager) Filtered() []domain.MenuItem {
	m.mu.Lock()
	q := strings.ToLower(m.search)
	m.mu.Unlock()
	items := m.list.Items()
	if q == "" {
		return items
	}
	out := items[:0:0]
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), q) {
			out = append(out, it)
		}
	}
	return out
}

// Page returns the current page, clamping and remembering the page index.
func (m *CatalogueManager) Page() Page[domain.MenuItem] {
	filtered := m.Filtered()
	m.mu.Lock()
	defer m.mu.Unlock()
	p := Paginate(filtered, m.page, ManagerPageSize)
	m.page = p.Number
	return p
}

func (m *CatalogueManager) Find(id string) (domain.MenuItem, bool) {
	for _, it := range m.list.Items() {
		if it.ID == id {
			return it, true
		}
	}
	return domain.MenuItem{}, false
}

func (m *CatalogueManager) Create(ctx context.Context, in domain.MenuItemInput) error {
	if err := validate.MenuItem(in); err != nil {
		return err
	}
	var created domain.MenuItem
	err := m.list.Mutate(ctx, func(ctx context.Context) error {
		var err error
		created, err = m.svc.Create(ctx, in)
		return err
	})
	if err != nil {
		applog.Error(ctx, "menu.create.fail", err, map[string]any{"name": in.Name})
		return err
	}
	applog.Audit(ctx, "menu.create", map[string]any{"id": created.ID, "name": in.Name})
	logStale(ctx, m.list, "menu.refresh.fail", map[string]any{"id": created.ID})
	return nil
}

// Update applies p to item id. When p carries no new image and names none
// to retain, the cached item's current image is retained.
func (m *CatalogueManager) Update(ctx context.Context, id string, p domain.MenuItemPatch) error {
	if err := validate.MenuPatch(p); err != nil {
		return err
	}
	if p.Image == nil && p.RetainImage == "" {
		if cur, ok := m.Find(id); ok {
			p.RetainImage = cur.Image
		}
	}
	err := m.list.Mutate(ctx, func(ctx context.Context) error {
		_, err := m.svc.Update(ctx, id, p)
		return err
	})
	if err != nil {
		applog.Error(ctx, "menu.update.fail", err, map[string]any{"id": id})
		return err
	}
	applog.Audit(ctx, "menu.update", map[string]any{"id": id, "new_image": p.Image != nil})
	logStale(ctx, m.list, "menu.refresh.fail", map[string]any{"id": id})
	return nil
}

func (m *CatalogueManager) Delete(ctx context.Context, id string) error {
	err := m.list.Mutate(ctx, func(ctx context.Context) error {
		return m.svc.Delete(ctx, id)
	})
	if err != nil {
		applog.Error(ctx, "menu.delete.fail", err, map[string]any{"id": id})
		return err
	}
	applog.Audit(ctx, "menu.delete", map[string]any{"id": id})
	logStale(ctx, m.list, "menu.refresh.fail", map[string]any{"id": id})
	return nil
}

func (m *CatalogueManager) Status() Status { return m.list.Status() }
func (m *CatalogueManager) Close()         { m.list.Close() }

// AllCategories is the category choice that disables filtering.
const AllCategories = "All"

// Menu is the public menu: category tabs and nine items per page.
type Menu struct {
	list *List[domain.MenuItem]

	mu       sync.Mutex
	category string
	page     int
}

func NewMenu(svc MenuLister) *Menu {
	return &Menu{list: NewList(svc.List, DefaultPolicy), category: AllCategories, page: 1}
}

func (m *Menu) Load(ctx context.Context) error {
	err := m.list.Load(ctx)
	if err != nil && err != ErrDiscarded && err != ErrClosed {
		applog.Error(ctx, "menu.public.load.fail", err, nil)
	}
	return err
}

// Categories is "All" followed by each category present, in order of first
// appearance.
func (m *Menu) Categories() []string {
	out := []string{AllCategories}
	seen := map[domain.Category]bool{}
	for _, it := range m.list.Items() {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, string(it.Category))
		}
	}
	return out
}

func (m *Menu) SetCategory(c string) {
	if c == "" {
		c = AllCategories
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.category = c
	m.page = 1
}

func (m *Menu) Category() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.category
}

func (m *Menu) SetPage(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.page = n
}

func (m *Menu) Filtered() []domain.MenuItem {
	cat := m.Category()
	items := m.list.Items()
	if cat == AllCategories {
		return items
	}
	out := items[:0:0]
	for _, it := range items {
		if string(it.Category) == cat {
			out = append(out, it)
		}
	}
	return out
}

func (m *Menu) Page() Page[domain.MenuItem] {
	filtered := m.Filtered()
	m.mu.Lock()
	defer m.mu.Unlock()
	p := Paginate(filtered, m.page, MenuPageSize)
	m.page = p.Number
	return p
}

func (m *Menu) Status() Status { return m.list.Status() }
func (m *Menu) Close()         { m.list.Close() }
