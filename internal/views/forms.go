package views

import (
	"context"
	"errors"
	"sync"

	"cafedesk/internal/domain"
	applog "cafedesk/internal/log"
	"cafedesk/internal/nav"
	"cafedesk/internal/transport"
	"cafedesk/internal/validate"
)

type ContactService interface {
	Submit(ctx context.Context, in domain.ContactInput) error
}

const (
	contactRateLimited = "You're sending too many messages. Please try again in an hour."
	contactFailed      = "Failed to send message."
)

// ContactForm is the public contact form. Invalid input never reaches the
// network.
type ContactForm struct {
	svc ContactService

	mu         sync.Mutex
	submitting bool
}

func NewContactForm(svc ContactService) *ContactForm { return &ContactForm{svc: svc} }

func (f *ContactForm) Submit(ctx context.Context, in domain.ContactInput) error {
	if err := validate.Contact(in); err != nil {
		return err
	}
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrBusy
	}
	f.submitting = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	err := f.svc.Submit(ctx, in)
	switch {
	case err == nil:
		applog.Info(ctx, "contact.submit", nil)
		return nil
	case errors.Is(err, transport.ErrRateLimited):
		applog.Security(ctx, "contact.rate_limited", nil)
		return &FormError{Message: contactRateLimited, Err: err}
	}
	applog.Error(ctx, "contact.submit.fail", err, nil)
	msg := transport.ServerMessage(err)
	if msg == "" {
		msg = contactFailed
	}
	return &FormError{Message: msg, Err: err}
}

type AuthService interface {
	Login(ctx context.Context, c domain.Credentials) (string, error)
}

// SessionWriter is the part of the session store the login form changes.
type SessionWriter interface {
	Login(token string) error
	Logout() error
}

const loginFailed = "Invalid username or password."

// LoginForm signs the administrator in and out. Navigation goes to the
// navigator in ctx when there is one, else Nav.
type LoginForm struct {
	Auth    AuthService
	Session SessionWriter
	Nav     nav.Navigator
}

func (f *LoginForm) navigator(ctx context.Context) nav.Navigator {
	return nav.FromContext(ctx, f.Nav)
}

func (f *LoginForm) Submit(ctx context.Context, c domain.Credentials) error {
	if err := validate.Login(c); err != nil {
		return err
	}
	token, err := f.Auth.Login(ctx, c)
	if err != nil {
		applog.Security(ctx, "auth.login.fail", map[string]any{"username": c.Username})
		msg := transport.ServerMessage(err)
		if msg == "" {
			msg = loginFailed
		}
		return &FormError{Message: msg, Err: err}
	}
	if err := f.Session.Login(token); err != nil {
		applog.Error(ctx, "auth.session.save.fail", err, nil)
		return &FormError{Message: "Signed in, but the session could not be saved.", Err: err}
	}
	applog.Audit(ctx, "auth.login.success", map[string]any{"username": c.Username})
	if n := f.navigator(ctx); n != nil {
		n.Navigate(nav.DashboardPath)
	}
	return nil
}

// Logout always leaves the user signed out in memory and on the login view;
// a storage failure is logged and returned.
func (f *LoginForm) Logout(ctx context.Context) error {
	err := f.Session.Logout()
	if err != nil {
		applog.Error(ctx, "auth.logout.storage.fail", err, nil)
	}
	applog.Audit(ctx, "auth.logout", nil)
	if n := f.navigator(ctx); n != nil {
		n.Navigate(nav.LoginPath)
	}
	return err
}
