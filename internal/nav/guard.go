package nav

// Authenticator is the part of the session the guard reads.
type Authenticator interface {
	IsAuthenticated() bool
}

// Outcome is what a guarded navigation resolves to: the view, or a redirect.
type Outcome[V any] struct {
	View     V
	Redirect string
}

func (o Outcome[V]) Allowed() bool { return o.Redirect == "" }

// Guard gates protected views on the live session. Nothing is cached; every
// call reads the session again.
type Guard struct {
	Session Authenticator
}

// Allow reports whether a protected view may render now.
func (g Guard) Allow() bool {
	return g.Session != nil && g.Session.IsAuthenticated()
}

// Resolve returns view when the session is authenticated, otherwise a
// redirect to the login view. The attempted destination is not kept.
func Resolve[V any](g Guard, view V) Outcome[V] {
	if g.Allow() {
		return Outcome[V]{View: view}
	}
	return Outcome[V]{Redirect: LoginPath}
}

// Enter performs the navigation side of Resolve on n and reports whether
// the protected view may render.
func (g Guard) Enter(n Navigator) bool {
	if g.Allow() {
		return true
	}
	n.Navigate(LoginPath)
	return false
}
