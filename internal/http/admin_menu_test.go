package handlers_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"cafedesk/internal/domain"
	"cafedesk/internal/fakeapi"
)

var (
	reUpload = regexp.MustCompile(`src="(http[^"]+/uploads/[^"]+)"`)
	reEditID = regexp.MustCompile(`edit=([0-9a-f]{24})`)
)

func widePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAdminMenuSearchAndPaging(t *testing.T) {
	c := newConsole(t, consoleOpts{backend: fakeapi.Options{Seed: true}})
	c.login(t)

	_, body := c.get(t, "/admin/menu")
	if !strings.Contains(body, "Page 1 of 2 (8 items)") {
		t.Fatalf("expected 2 pages of 6: %s", body)
	}
	_, body = c.get(t, "/admin/menu?page=2")
	if !strings.Contains(body, "Page 2 of 2") || !strings.Contains(body, "Pistachio Latte") {
		t.Fatalf("page 2 wrong: %s", body)
	}

	// searching starts again at page 1 and ignores case
	_, body = c.get(t, "/admin/menu?q=LATTE&page=2")
	if !strings.Contains(body, "Page 1 of 1 (1 items)") || !strings.Contains(body, "Pistachio Latte") {
		t.Fatalf("search wrong: %s", body)
	}
	if strings.Contains(body, "Flat White") {
		t.Fatal("search kept a non-matching item")
	}

	// punctuation is matched literally, never dropped
	_, body = c.get(t, "/admin/menu?q="+url.QueryEscape("latte!"))
	if !strings.Contains(body, "Page 1 of 1 (0 items)") || strings.Contains(body, "Pistachio Latte") {
		t.Fatalf("punctuated search should match nothing: %s", body)
	}
	c.backend.AddMenuItem(domain.MenuItem{Name: "Oat Latte (large)", Price: 5, Category: domain.CategoryCoffee, IsAvailable: true})
	_, body = c.get(t, "/admin/menu?q="+url.QueryEscape("(large)"))
	if !strings.Contains(body, "Page 1 of 1 (1 items)") || !strings.Contains(body, "Oat Latte (large)") {
		t.Fatalf("search with parentheses: %s", body)
	}
}

func TestAdminMenuCreateUpdateDelete(t *testing.T) {
	c := newConsole(t, consoleOpts{})
	c.login(t)

	// invalid form never reaches the backend
	resp, body := c.postMultipart(t, "/admin/menu", map[string]string{"name": "", "price": "abc", "category": "Coffee"}, "", nil)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "Enter a valid price") {
		t.Fatalf("bad price: %d %s", resp.StatusCode, body)
	}
	resp, body = c.postMultipart(t, "/admin/menu", map[string]string{"name": " ", "price": "3", "category": "Coffee"}, "", nil)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "Name is required") {
		t.Fatalf("missing name: %d %s", resp.StatusCode, body)
	}
	if n := c.backend.Calls("POST /api/menu"); n != 0 {
		t.Fatalf("invalid item reached the backend %d times", n)
	}

	// create with an oversized image: shown in the reloaded list, shrunk to 800px
	resp, body = c.postMultipart(t, "/admin/menu", map[string]string{
		"name": "Honey Lavender Latte", "description": "Spring special", "price": "5.25",
		"category": "Special", "isAvailable": "true",
	}, "latte.png", widePNG(t, 1600, 400))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create: %d %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "Menu item created.") || !strings.Contains(body, "Honey Lavender Latte") {
		t.Fatalf("new item not in refreshed list: %s", body)
	}
	m := reUpload.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("image link missing: %s", body)
	}
	src := m[1]
	img, err := http.Get(src)
	if err != nil {
		t.Fatal(err)
	}
	cfg, _, err := image.DecodeConfig(img.Body)
	img.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 800 || cfg.Height != 200 {
		t.Fatalf("upload not downscaled: %dx%d", cfg.Width, cfg.Height)
	}

	id := reEditID.FindStringSubmatch(body)
	if id == nil {
		t.Fatalf("edit link missing: %s", body)
	}

	// update without a new image keeps the stored one
	resp, body = c.postMultipart(t, "/admin/menu/"+id[1], map[string]string{
		"name": "Honey Lavender Latte", "price": "5.75", "category": "Special", "isAvailable": "false",
	}, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: %d %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "$5.75") || !strings.Contains(body, src) {
		t.Fatalf("update lost price or image: %s", body)
	}

	// delete
	resp, body = c.post(t, "/admin/menu/"+id[1]+"/delete", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Menu item deleted.") {
		t.Fatalf("delete: %d %s", resp.StatusCode, body)
	}
	if strings.Contains(body, "Honey Lavender Latte") {
		t.Fatal("deleted item still listed")
	}
}

func TestAdminMenuCreateSavedWhenRefreshFails(t *testing.T) {
	c := newConsole(t, consoleOpts{})
	c.login(t)

	var resp *http.Response
	var body string
	entries := captureLogs(t, func() {
		c.backend.FailAfter("GET /api/menu", 1, http.StatusServiceUnavailable)
		resp, body = c.postMultipart(t, "/admin/menu", map[string]string{
			"name": "Cortado", "price": "3.50", "category": "Coffee", "isAvailable": "true",
		}, "", nil)
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create: %d %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "Menu item created, but the list could not be refreshed.") {
		t.Fatalf("missing stale notice: %s", body)
	}
	if strings.Contains(body, "Failed to save menu item.") {
		t.Fatal("saved item reported as a failure")
	}
	if _, ok := findLog(entries, "menu.create"); !ok {
		t.Fatal("no audit line for the stored item")
	}
	if e, ok := findLog(entries, "menu.refresh.fail"); !ok || e.Level != "error" {
		t.Fatalf("refresh failure not logged: %+v", e)
	}

	c.backend.FailAfter("GET /api/menu", 0, 0)
	_, body = c.get(t, "/admin/menu")
	if !strings.Contains(body, "Cortado") {
		t.Fatalf("created item missing after reload: %s", body)
	}
}

func TestAdminMenuUpdateMissingItem(t *testing.T) {
	c := newConsole(t, consoleOpts{})
	c.login(t)
	c.backend.AddMenuItem(domain.MenuItem{Name: "Mocha", Price: 4, Category: domain.CategoryCoffee})

	resp, body := c.post(t, "/admin/menu/0123456789abcdef01234567", url.Values{
		"name": {"Ghost"}, "price": {"1"}, "category": {"Coffee"},
	})
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "Mocha") {
		t.Fatalf("expected a failed save over the unchanged list: %d %s", resp.StatusCode, body)
	}
}
