package transport

import (
	"net/http"

	"github.com/google/uuid"

	applog "cafedesk/internal/log"
	"cafedesk/internal/nav"
)

// Doer sends one request. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

type DoerFunc func(*http.Request) (*http.Response, error)

func (f DoerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

// Middleware decorates a Doer.
type Middleware func(Doer) Doer

// Chain wraps d so the first middleware sees the request first and the
// response last.
func Chain(d Doer, mws ...Middleware) Doer {
	for i := len(mws) - 1; i >= 0; i-- {
		d = mws[i](d)
	}
	return d
}

// TokenSource yields the current bearer token, "" when logged out.
type TokenSource interface {
	Token() string
}

// Bearer attaches the session token read at dispatch time.
func Bearer(ts TokenSource) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(r *http.Request) (*http.Response, error) {
			if tok := ts.Token(); tok != "" {
				r = r.Clone(r.Context())
				r.Header.Set("Authorization", "Bearer "+tok)
			}
			return next.Do(r)
		})
	}
}

const HeaderRequestID = "X-Request-ID"

// RequestID tags each request, reusing the id of the inbound request the
// call is made for when there is one.
func RequestID() Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(HeaderRequestID) == "" {
				id := uuid.NewString()
				if in, ok := applog.RequestFrom(r.Context()); ok && in.ID != "" {
					id = in.ID
				}
				r = r.Clone(r.Context())
				r.Header.Set(HeaderRequestID, id)
			}
			return next.Do(r)
		})
	}
}

// Deauthenticator is the part of the session a rejected request clears.
type Deauthenticator interface {
	Logout() error
}

// Unauthorized handles a 401 from any call: the session is cleared and,
// unless the caller is already on the login view, navigation is sent there
// once. The response itself is handed back untouched. The navigator comes
// from the request context when present, else fallback.
func Unauthorized(s Deauthenticator, fallback nav.Navigator) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(r *http.Request) (*http.Response, error) {
			resp, err := next.Do(r)
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}
			if err := s.Logout(); err != nil {
				applog.Error(r.Context(), "auth.forced_logout.storage.fail", err, nil)
			}
			if n := nav.FromContext(r.Context(), fallback); n != nil && !nav.OnLogin(n) {
				n.Navigate(nav.LoginPath)
			}
			return resp, nil
		})
	}
}
