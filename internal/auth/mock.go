package auth

import (
	"net/http"
	"time"
)

// MockAuth provides a mock authentication for local development
type MockAuth struct {
	sessions *sessionStore
}

// NewMockAuth creates a new mock authentication handler
func NewMockAuth() *MockAuth {
	return &MockAuth{sessions: newSessionStore()}
}

// LoginHandler for mock auth - auto-creates a session. ?user= picks the
// username so several local players can be told apart.
func (m *MockAuth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("user")
	if username == "" {
		username = "devuser"
	}

	session := &Session{
		ID: generateToken(),
		User: &User{
			ID:       "dev-" + username,
			Email:    username + "@wordrush.local",
			Name:     "Dev " + username,
			Username: username,
			Groups:   []string{"users"},
		},
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	m.sessions.add(session)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Expires:  session.ExpiresAt,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CallbackHandler is not needed for mock auth
func (m *MockAuth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LogoutHandler for mock auth
func (m *MockAuth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	m.sessions.remove(r)
	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Middleware for mock auth
func (m *MockAuth) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return m.sessions.middleware(next)
}

// OptionalMiddleware for mock auth
func (m *MockAuth) OptionalMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return m.sessions.optionalMiddleware(next)
}
