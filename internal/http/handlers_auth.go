package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"finora/internal/core"
)

const sessionCookie = "finora_session"

const userKey contextKey = "user"

// userFrom returns the authenticated account stored by requireUser.
func userFrom(ctx context.Context) (*core.UserAccount, bool) {
	u, ok := ctx.Value(userKey).(*core.UserAccount)
	return u, ok
}

// requireUser resolves the session cookie to an account and stores it in the
// request context. Unauthenticated requests are redirected to the login page.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := s.auth.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, core.ErrInvalidCredentials) {
				slog.ErrorContext(r.Context(), "Session lookup failed", "error", err)
			}
			s.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "register.html", map[string]any{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		username := sanitizeInput(r.Form.Get("username"))
		password := r.Form.Get("password")

		if _, err := s.auth.Register(r.Context(), username, password); err != nil {
			status := http.StatusUnprocessableEntity
			if errors.Is(err, core.ErrDuplicateUser) {
				status = http.StatusConflict
			}
			s.renderStatus(w, r, status, "register.html", map[string]any{
				"Error":    err.Error(),
				"Username": username,
			})
			return
		}

		s.startSession(w, r, username, password)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login.html", map[string]any{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		s.startSession(w, r, sanitizeInput(r.Form.Get("username")), r.Form.Get("password"))
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// startSession logs the user in and redirects to the dashboard.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, username, password string) {
	token, expiresAt, err := s.auth.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			s.renderStatus(w, r, http.StatusUnauthorized, "login.html", map[string]any{
				"Error":    "Invalid username or password",
				"Username": username,
			})
			return
		}
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			slog.ErrorContext(r.Context(), "Logout failed", "error", err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	w.WriteHeader(http.StatusMethodNotAllowed)
}
