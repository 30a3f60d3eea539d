package handlers

import (
	"time"

	"cafedesk/internal/api"
	"cafedesk/internal/config"
	"cafedesk/internal/session"
	"cafedesk/internal/views"
)

type Deps struct {
	Browsers       *Browsers
	MenuHandler    *MenuHandler
	BookingHandler *BookingHandler
	ContactHandler *ContactHandler
	AuthHandler    *AuthHandler
	AdminHandler   *AdminHandler
}

// NewDeps wires every handler to one backend client and one session. clock
// may be nil.
func NewDeps(client *api.Client, store *session.Store, cfg config.Config, clock func() time.Time) *Deps {
	if clock == nil {
		clock = time.Now
	}
	browsers := NewBrowsers(store)
	return &Deps{
		Browsers:       browsers,
		MenuHandler:    &MenuHandler{API: client.Menu},
		BookingHandler: &BookingHandler{API: client.Reservations, Clock: clock},
		ContactHandler: &ContactHandler{API: client.Contact},
		AuthHandler: &AuthHandler{
			Form:     &views.LoginForm{Auth: client.Auth, Session: store},
			Browsers: browsers,
		},
		AdminHandler: &AdminHandler{
			API:      client,
			Clock:    clock,
			MaxWidth: cfg.UploadMaxWidth,
		},
	}
}
