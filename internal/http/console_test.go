package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"cafedesk/internal/api"
	"cafedesk/internal/config"
	"cafedesk/internal/fakeapi"
	"cafedesk/internal/http/handlers"
	applog "cafedesk/internal/log"
	"cafedesk/internal/session"
)

const adminPassword = "espresso"

// console is the fiber app wired to an in-memory backend.
type console struct {
	app     *fiber.App
	backend *fakeapi.Server
	store   *session.Store
	csrf    string
	sid     string // console session cookie of this browser
}

type consoleOpts struct {
	rateLimit int
	backend   fakeapi.Options
	clock     func() time.Time
}

func newConsole(t *testing.T, opts consoleOpts) *console {
	t.Helper()
	bo := opts.backend
	bo.AdminPassword = adminPassword
	backend, err := fakeapi.New(bo)
	if err != nil {
		t.Fatalf("fake backend: %v", err)
	}
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	store, err := session.Open(&session.MemoryPersister{})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	cfg := config.Config{
		APIBaseURL:     srv.URL + "/api",
		ServerURL:      srv.URL,
		RequestTimeout: 5 * time.Second,
		UploadMaxWidth: 800,
	}
	client := api.Dial(cfg, store, nil)
	app := handlers.NewApp(handlers.AppConfig{
		Views:     handlers.Engine("../../web/templates", cfg.ServerURL),
		Deps:      handlers.NewDeps(client, store, cfg, opts.clock),
		RateLimit: opts.rateLimit,
	})
	c := &console{app: app, backend: backend, store: store}

	// fetch csrf token
	resp, _ := c.do(t, httptest.NewRequest("GET", "/admin/login", nil))
	c.csrf = extractCookie(resp, "csrf_")
	if c.csrf == "" {
		t.Fatal("csrf token missing")
	}
	return c
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// do sends req as this browser, carrying and updating its sid cookie.
func (c *console) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	if c.sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: c.sid})
	}
	resp, body := c.send(t, req)
	for _, ck := range resp.Cookies() {
		if ck.Name == "sid" {
			c.sid = ck.Value
			if ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())) {
				c.sid = ""
			}
		}
	}
	return resp, body
}

// send issues req exactly as given, with no cookies added.
func (c *console) send(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := c.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (c *console) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	return c.do(t, httptest.NewRequest("GET", path, nil))
}

func (c *console) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", c.csrf)
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: c.csrf})
	return c.do(t, req)
}

// postMultipart sends fields plus an optional image file.
func (c *console) postMultipart(t *testing.T, path string, fields map[string]string, filename string, image []byte) (*http.Response, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("csrf", c.csrf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(image)
	}
	_ = mw.Close()
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: c.csrf})
	return c.do(t, req)
}

func (c *console) login(t *testing.T) {
	t.Helper()
	resp, body := c.post(t, "/admin/login", url.Values{"username": {"admin"}, "password": {adminPassword}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("login: expected redirect, got %d: %s", resp.StatusCode, body)
	}
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Kind   string         `json:"kind"`
	ReqID  string         `json:"req_id"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.buf.Write(p)
}

// captureLogs routes structured log lines into memory while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	w := &lockedWriter{}
	applog.Setup(w, "debug")
	defer applog.Setup(os.Stdout, "info")

	fn()

	w.mu.Lock()
	defer w.mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(w.buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
