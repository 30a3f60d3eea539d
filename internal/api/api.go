package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"cafedesk/internal/config"
	"cafedesk/internal/domain"
	"cafedesk/internal/nav"
	"cafedesk/internal/transport"
)

// Client groups the backend's resources. Errors are returned as the
// transport produced them; callers decide what they mean.
type Client struct {
	Menu         *MenuAPI
	Reservations *ReservationsAPI
	Contact      *ContactAPI
	Auth         *AuthAPI
}

func New(t *transport.Client) *Client {
	return &Client{
		Menu:         &MenuAPI{t: t},
		Reservations: &ReservationsAPI{t: t},
		Contact:      &ContactAPI{t: t},
		Auth:         &AuthAPI{t: t},
	}
}

// Dial builds the facade for cfg over the standard session chain.
func Dial(cfg config.Config, s transport.Session, fallback nav.Navigator) *Client {
	t := transport.ForSession(cfg.APIBaseURL, nil, s, fallback)
	t.Timeout = cfg.RequestTimeout
	return New(t)
}

func escape(id string) string { return url.PathEscape(id) }

// decodeOne accepts either {"<key>": {...}} or the bare object.
func decodeOne(body []byte, key string, v any) error {
	if len(body) == 0 {
		return nil
	}
	var wrapped map[string]json.RawMessage
	if json.Unmarshal(body, &wrapped) == nil {
		if raw, ok := wrapped[key]; ok {
			return json.Unmarshal(raw, v)
		}
	}
	return json.Unmarshal(body, v)
}

type MenuAPI struct{ t *transport.Client }

func (m *MenuAPI) List(ctx context.Context) ([]domain.MenuItem, error) {
	resp, err := m.t.Send(ctx, http.MethodGet, "/menu", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Items []domain.MenuItem `json:"items"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (m *MenuAPI) Create(ctx context.Context, in domain.MenuItemInput) (domain.MenuItem, error) {
	fields := map[string]string{
		"name":        in.Name,
		"description": in.Description,
		"price":       formatPrice(in.Price),
		"category":    string(in.Category),
		"isAvailable": strconv.FormatBool(in.IsAvailable),
	}
	resp, err := m.t.Send(ctx, http.MethodPost, "/menu", transport.Multipart(fields, fileParts(in.Image)...))
	if err != nil {
		return domain.MenuItem{}, err
	}
	var item domain.MenuItem
	if err := decodeOne(resp.Body, "item", &item); err != nil {
		return domain.MenuItem{}, fmt.Errorf("decode created item: %w", err)
	}
	return item, nil
}

// Update sends only the fields p sets. Without a new image, RetainImage is
// sent as the image field so the backend keeps the stored file.
func (m *MenuAPI) Update(ctx context.Context, id string, p domain.MenuItemPatch) (domain.MenuItem, error) {
	fields := map[string]string{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Price != nil {
		fields["price"] = formatPrice(*p.Price)
	}
	if p.Category != nil {
		fields["category"] = string(*p.Category)
	}
	if p.IsAvailable != nil {
		fields["isAvailable"] = strconv.FormatBool(*p.IsAvailable)
	}
	if p.Image == nil && p.RetainImage != "" {
		fields["image"] = p.RetainImage
	}
	resp, err := m.t.Send(ctx, http.MethodPut, "/menu/"+escape(id), transport.Multipart(fields, fileParts(p.Image)...))
	if err != nil {
		return domain.MenuItem{}, err
	}
	var item domain.MenuItem
	if err := decodeOne(resp.Body, "item", &item); err != nil {
		return domain.MenuItem{}, fmt.Errorf("decode updated item: %w", err)
	}
	return item, nil
}

func (m *MenuAPI) Delete(ctx context.Context, id string) error {
	_, err := m.t.Send(ctx, http.MethodDelete, "/menu/"+escape(id), nil)
	return err
}

func formatPrice(p float64) string { return strconv.FormatFloat(p, 'f', -1, 64) }

func fileParts(up *domain.Upload) []transport.FilePart {
	if up == nil {
		return nil
	}
	return []transport.FilePart{{Field: "image", Filename: up.Filename, ContentType: up.ContentType, Data: up.Data}}
}

type ReservationsAPI struct{ t *transport.Client }

func (r *ReservationsAPI) Create(ctx context.Context, in domain.ReservationInput) (domain.Reservation, error) {
	resp, err := r.t.Send(ctx, http.MethodPost, "/reservations", transport.JSON(in))
	if err != nil {
		return domain.Reservation{}, err
	}
	var out domain.Reservation
	if err := decodeOne(resp.Body, "reservation", &out); err != nil {
		return domain.Reservation{}, fmt.Errorf("decode reservation: %w", err)
	}
	return out, nil
}

func (r *ReservationsAPI) List(ctx context.Context) ([]domain.Reservation, error) {
	resp, err := r.t.Send(ctx, http.MethodGet, "/reservations", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Reservations []domain.Reservation `json:"reservations"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out.Reservations, nil
}

func (r *ReservationsAPI) Delete(ctx context.Context, id string) error {
	_, err := r.t.Send(ctx, http.MethodDelete, "/reservations/"+escape(id), nil)
	return err
}

func (r *ReservationsAPI) Availability(ctx context.Context, date domain.Date, slot domain.TimeSlot) (domain.Availability, error) {
	q := url.Values{"date": {date.String()}, "timeSlot": {string(slot)}}
	resp, err := r.t.Send(ctx, http.MethodGet, "/reservations/availability", nil, transport.WithQuery(q))
	if err != nil {
		return domain.Availability{}, err
	}
	var out domain.Availability
	if err := resp.Decode(&out); err != nil {
		return domain.Availability{}, err
	}
	if out.Date.IsZero() {
		out.Date = date
	}
	if out.TimeSlot == "" {
		out.TimeSlot = slot
	}
	return out, nil
}

type ContactAPI struct{ t *transport.Client }

func (c *ContactAPI) Submit(ctx context.Context, in domain.ContactInput) error {
	_, err := c.t.Send(ctx, http.MethodPost, "/contact", transport.JSON(in))
	return err
}

func (c *ContactAPI) List(ctx context.Context) ([]domain.Message, error) {
	resp, err := c.t.Send(ctx, http.MethodGet, "/contact", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Items []domain.Message `json:"items"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *ContactAPI) Delete(ctx context.Context, id string) error {
	_, err := c.t.Send(ctx, http.MethodDelete, "/contact/"+escape(id), nil)
	return err
}

func (c *ContactAPI) Reply(ctx context.Context, id, body string) error {
	_, err := c.t.Send(ctx, http.MethodPost, "/contact/"+escape(id)+"/reply",
		transport.JSON(map[string]string{"replyMessage": body}))
	return err
}

type AuthAPI struct{ t *transport.Client }

// ErrLoginRejected is returned when the backend answers 2xx without a token.
var ErrLoginRejected = errors.New("login rejected")

func (a *AuthAPI) Login(ctx context.Context, c domain.Credentials) (string, error) {
	resp, err := a.t.Send(ctx, http.MethodPost, "/auth/login", transport.JSON(c))
	if err != nil {
		return "", err
	}
	var out struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		Message string `json:"message"`
	}
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	if !out.Success || out.Token == "" {
		if out.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrLoginRejected, out.Message)
		}
		return "", ErrLoginRejected
	}
	return out.Token, nil
}
