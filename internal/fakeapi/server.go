// Package fakeapi is an in-memory stand-in for the café backend. It serves
// the same routes and payload shapes, which lets the client be exercised
// end to end in tests and in the console's demo mode.
package fakeapi

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"cafedesk/internal/domain"
)

type Options struct {
	AdminUser     string
	AdminPassword string
	Secret        string
	SeatsPerSlot  int           // default 20
	ContactLimit  int           // messages per ContactWindow per client; default 3
	ContactWindow time.Duration // default 1h
	TokenTTL      time.Duration // default 1h
	Now           func() time.Time
	Seed          bool
}

// Reply is a reply the backend would have mailed.
type Reply struct {
	MessageID string
	To        string
	Body      string
}

type Server struct {
	opts      Options
	adminHash []byte
	secret    []byte

	mu           sync.Mutex
	gen          int
	menu         []domain.MenuItem
	reservations []domain.Reservation
	messages     []domain.Message
	replies      []Reply
	uploads      map[string]upload
	contactHits  map[string][]time.Time
	calls        map[string]int
	faults       map[string]*fault
}

type fault struct {
	skip   int
	status int
}

type upload struct {
	contentType string
	data        []byte
}

func New(opts Options) (*Server, error) {
	if opts.AdminUser == "" {
		opts.AdminUser = "admin"
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = "espresso"
	}
	if opts.Secret == "" {
		opts.Secret = "fakeapi-secret"
	}
	if opts.SeatsPerSlot <= 0 {
		opts.SeatsPerSlot = 20
	}
	if opts.ContactLimit <= 0 {
		opts.ContactLimit = 3
	}
	if opts.ContactWindow <= 0 {
		opts.ContactWindow = time.Hour
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	s := &Server{
		opts:        opts,
		adminHash:   hash,
		secret:      []byte(opts.Secret),
		uploads:     map[string]upload{},
		contactHits: map[string][]time.Time{},
		calls:       map[string]int{},
		faults:      map[string]*fault{},
	}
	if opts.Seed {
		s.seed()
	}
	return s, nil
}

// Handler mounts the backend under /api and uploaded images under /uploads.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.count)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"alive": true})
	}).Methods("GET")
	r.HandleFunc("/uploads/{name}", s.serveUpload).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", s.login).Methods("POST")

	api.HandleFunc("/menu", s.listMenu).Methods("GET")
	api.Handle("/menu", s.admin(s.createMenu)).Methods("POST")
	api.Handle("/menu/{id}", s.admin(s.updateMenu)).Methods("PUT")
	api.Handle("/menu/{id}", s.admin(s.deleteMenu)).Methods("DELETE")

	api.HandleFunc("/reservations/availability", s.availability).Methods("GET")
	api.HandleFunc("/reservations", s.createReservation).Methods("POST")
	api.Handle("/reservations", s.admin(s.listReservations)).Methods("GET")
	api.Handle("/reservations/{id}", s.admin(s.deleteReservation)).Methods("DELETE")

	api.HandleFunc("/contact", s.submitContact).Methods("POST")
	api.Handle("/contact", s.admin(s.listMessages)).Methods("GET")
	api.Handle("/contact/{id}", s.admin(s.deleteMessage)).Methods("DELETE")
	api.Handle("/contact/{id}/reply", s.admin(s.reply)).Methods("POST")
	return r
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		status := 0
		if f, ok := s.faults[key]; ok {
			if f.skip > 0 {
				f.skip--
			} else {
				status = f.status
			}
		}
		s.mu.Unlock()
		if status != 0 {
			writeMessage(w, status, "unavailable")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Calls reports how many requests hit method+path, e.g. "GET /api/menu".
func (s *Server) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// FailAfter answers method+path with status once skip more requests to it
// have been served normally. A zero status clears the fault.
func (s *Server) FailAfter(key string, skip, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.faults, key)
		return
	}
	s.faults[key] = &fault{skip: skip, status: status}
}

// Replies returns every reply sent so far.
func (s *Server) Replies() []Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Reply(nil), s.replies...)
}

// RevokeTokens invalidates every token issued so far.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

// AddMenuItem, AddReservation and AddMessage seed state directly.
func (s *Server) AddMenuItem(it domain.MenuItem) domain.MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.ID == "" {
		it.ID = newID()
	}
	s.menu = append(s.menu, it)
	return it
}

func (s *Server) AddReservation(rv domain.Reservation) domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rv.ID == "" {
		rv.ID = newID()
	}
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = s.opts.Now()
	}
	s.reservations = append(s.reservations, rv)
	return rv
}

func (s *Server) AddMessage(m domain.Message) domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = newID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.opts.Now()
	}
	s.messages = append(s.messages, m)
	return m
}

func (s *Server) seed() {
	for _, it := range []domain.MenuItem{
		{Name: "Espresso", Description: "Double shot, house blend", Price: 2.5, Category: domain.CategoryCoffee, IsAvailable: true},
		{Name: "Flat White", Description: "Silky microfoam", Price: 3.8, Category: domain.CategoryCoffee, IsAvailable: true},
		{Name: "Cold Brew", Description: "Steeped 18 hours", Price: 4.2, Category: domain.CategoryCoffee, IsAvailable: false},
		{Name: "Butter Croissant", Description: "Laminated in-house", Price: 3, Category: domain.CategoryBakery, IsAvailable: true},
		{Name: "Cinnamon Roll", Description: "Cream cheese glaze", Price: 3.5, Category: domain.CategoryBakery, IsAvailable: true},
		{Name: "Tiramisu", Description: "Mascarpone and espresso", Price: 5.5, Category: domain.CategoryDessert, IsAvailable: true},
		{Name: "Avocado Toast", Description: "Sourdough, chilli flakes", Price: 8, Category: domain.CategoryBreakfast, IsAvailable: true},
		{Name: "Pistachio Latte", Description: "Seasonal", Price: 4.8, Category: domain.CategorySpecial, IsAvailable: true},
	} {
		s.AddMenuItem(it)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
