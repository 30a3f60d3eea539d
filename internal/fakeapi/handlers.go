package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"cafedesk/internal/domain"
)

func newID() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:24] }

func (s *Server) listMenu(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := append([]domain.MenuItem{}, s.menu...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// menuForm reads the scalar fields present in a multipart or JSON body.
// Values are strings either way, as a browser form would send them.
func (s *Server) menuForm(r *http.Request) (map[string]string, *upload, string, error) {
	fields := map[string]string{}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, nil, "", err
		}
		for k, v := range raw {
			fields[k] = fmt.Sprint(v)
		}
		return fields, nil, "", nil
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return nil, nil, "", err
	}
	for k, vs := range r.MultipartForm.Value {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}
	f, hdr, err := r.FormFile("image")
	if err != nil {
		return fields, nil, "", nil
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, "", err
	}
	ctype := hdr.Header.Get("Content-Type")
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	return fields, &upload{contentType: ctype, data: data}, filepath.Ext(hdr.Filename), nil
}

func (s *Server) storeUpload(up *upload, ext string) string {
	name := uuid.NewString() + strings.ToLower(ext)
	s.mu.Lock()
	s.uploads[name] = *up
	s.mu.Unlock()
	return "uploads/" + name
}

func applyMenuFields(it *domain.MenuItem, f map[string]string) error {
	if v, ok := f["name"]; ok {
		it.Name = strings.TrimSpace(v)
	}
	if v, ok := f["description"]; ok {
		it.Description = v
	}
	if v, ok := f["price"]; ok {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 {
			return fmt.Errorf("invalid price")
		}
		it.Price = p
	}
	if v, ok := f["category"]; ok {
		c := domain.Category(v)
		if !c.Valid() {
			return fmt.Errorf("invalid category")
		}
		it.Category = c
	}
	if v, ok := f["isAvailable"]; ok {
		it.IsAvailable = v != "false"
	}
	if v, ok := f["image"]; ok {
		it.Image = v
	}
	return nil
}

func (s *Server) createMenu(w http.ResponseWriter, r *http.Request) {
	fields, up, ext, err := s.menuForm(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid form")
		return
	}
	it := domain.MenuItem{IsAvailable: true}
	if err := applyMenuFields(&it, fields); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if it.Name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}
	if up != nil {
		it.Image = s.storeUpload(up, ext)
	}
	it = s.AddMenuItem(it)
	writeJSON(w, http.StatusCreated, map[string]any{"item": it})
}

func (s *Server) updateMenu(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	fields, up, ext, err := s.menuForm(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid form")
		return
	}
	var stored string
	if up != nil {
		stored = s.storeUpload(up, ext)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.menu {
		if s.menu[i].ID != id {
			continue
		}
		it := s.menu[i]
		if err := applyMenuFields(&it, fields); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if stored != "" {
			it.Image = stored
		}
		s.menu[i] = it
		writeJSON(w, http.StatusOK, map[string]any{"item": it})
		return
	}
	writeMessage(w, http.StatusNotFound, "Menu item not found")
}

func (s *Server) deleteMenu(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.menu {
		if s.menu[i].ID == id {
			s.menu = append(s.menu[:i], s.menu[i+1:]...)
			writeMessage(w, http.StatusOK, "Menu item deleted")
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Menu item not found")
}

func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	up, ok := s.uploads[mux.Vars(r)["name"]]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", up.contentType)
	_, _ = w.Write(up.data)
}

// remainingLocked counts seats left for date and slot. Caller holds s.mu.
func (s *Server) remainingLocked(date domain.Date, slot domain.TimeSlot) int {
	taken := 0
	for _, rv := range s.reservations {
		if rv.Date == date && rv.TimeSlot == slot {
			taken += rv.NumberOfGuests
		}
	}
	if left := s.opts.SeatsPerSlot - taken; left > 0 {
		return left
	}
	return 0
}

func (s *Server) availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := domain.ParseDate(q.Get("date"))
	slot := domain.TimeSlot(q.Get("timeSlot"))
	if err != nil || !slot.Valid() {
		writeMessage(w, http.StatusBadRequest, "date and timeSlot are required")
		return
	}
	s.mu.Lock()
	left := s.remainingLocked(date, slot)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, domain.Availability{
		Date: date, TimeSlot: slot, RemainingSeats: left, SeatingLimitPerSlot: s.opts.SeatsPerSlot,
	})
}

func (s *Server) createReservation(w http.ResponseWriter, r *http.Request) {
	var in domain.ReservationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	if in.Name == "" || in.Phone == "" || in.Email == "" || in.Date.IsZero() || !in.TimeSlot.Valid() || in.NumberOfGuests < 1 {
		writeMessage(w, http.StatusBadRequest, "all fields are required")
		return
	}
	s.mu.Lock()
	if left := s.remainingLocked(in.Date, in.TimeSlot); left < in.NumberOfGuests {
		s.mu.Unlock()
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Only %d seats left for this slot", left))
		return
	}
	rv := domain.Reservation{
		ID: newID(), Name: in.Name, Email: in.Email, Phone: in.Phone,
		Date: in.Date, TimeSlot: in.TimeSlot, NumberOfGuests: in.NumberOfGuests,
		SpecialNote: in.SpecialNote, CreatedAt: s.opts.Now(),
	}
	s.reservations = append(s.reservations, rv)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"reservation": rv})
}

func (s *Server) listReservations(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]domain.Reservation{}, s.reservations...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"reservations": out})
}

func (s *Server) deleteReservation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reservations {
		if s.reservations[i].ID == id {
			s.reservations = append(s.reservations[:i], s.reservations[i+1:]...)
			writeMessage(w, http.StatusOK, "Reservation deleted")
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Reservation not found")
}

func (s *Server) submitContact(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	now := s.opts.Now()
	s.mu.Lock()
	var recent []time.Time
	for _, t := range s.contactHits[ip] {
		if now.Sub(t) < s.opts.ContactWindow {
			recent = append(recent, t)
		}
	}
	if len(recent) >= s.opts.ContactLimit {
		s.contactHits[ip] = recent
		s.mu.Unlock()
		writeMessage(w, http.StatusTooManyRequests, "Too many messages from this IP, please try again later")
		return
	}
	s.contactHits[ip] = append(recent, now)
	s.mu.Unlock()

	var in domain.ContactInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	if in.Name == "" || in.Email == "" || len(in.Message) < 10 {
		writeMessage(w, http.StatusBadRequest, "name, email and a message of at least 10 characters are required")
		return
	}
	m := s.AddMessage(domain.Message{Name: in.Name, Email: in.Email, Message: in.Message})
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "item": m})
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]domain.Message{}, s.messages...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			writeMessage(w, http.StatusOK, "Message deleted")
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Message not found")
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		ReplyMessage string `json:"replyMessage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ReplyMessage) == "" {
		writeMessage(w, http.StatusBadRequest, "replyMessage is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == id {
			s.replies = append(s.replies, Reply{MessageID: id, To: m.Email, Body: req.ReplyMessage})
			writeMessage(w, http.StatusOK, "Reply sent")
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Message not found")
}
