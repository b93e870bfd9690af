// Package http serves the web UI: session-authenticated pages rendered from
// embedded templates, backed by the service layer.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finora/internal/cache"
	"finora/internal/config"
	"finora/internal/services"
	appweb "finora/web"
)

type Server struct {
	http.Server

	cfg       config.Config
	templates *template.Template

	auth      *services.AuthService
	entries   *services.EntryService
	progress  *services.ProgressService
	dashboard *services.DashboardService

	rateLimiter *rateLimiter

	// Dashboard views are cached per user for a short TTL; any mutation
	// through this server invalidates the user's entry.
	dashCache *cache.LRU[*services.DashboardView]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(
	cfg config.Config,
	auth *services.AuthService,
	entries *services.EntryService,
	progress *services.ProgressService,
	dashboard *services.DashboardService,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    ":" + cfg.Port,
			Handler: mux,
		},
		cfg:              cfg,
		auth:             auth,
		entries:          entries,
		progress:         progress,
		dashboard:        dashboard,
		rateLimiter:      newRateLimiter(),
		dashCache:        cache.NewLRU[*services.DashboardView](100, 2*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/logout", s.withSecurityHeaders(s.requireUser(s.handleLogout)))

	mux.HandleFunc("/", s.withSecurityHeaders(s.requireUser(s.handleDashboard)))
	mux.HandleFunc("/entries", s.withSecurityHeaders(s.requireUser(s.handleEntries)))
	mux.HandleFunc("/entries/export", s.withSecurityHeaders(s.requireUser(s.handleExport)))
	mux.HandleFunc("/entries/import", s.withSecurityHeaders(s.requireUser(s.handleImport)))

	mux.HandleFunc("/progress", s.withSecurityHeaders(s.requireUser(s.handleProgress)))
	mux.HandleFunc("/progress/check-in", s.withSecurityHeaders(s.requireUser(s.handleCheckIn)))
	mux.HandleFunc("/progress/redeem", s.withSecurityHeaders(s.requireUser(s.handleRedeem)))
	mux.HandleFunc("/progress/goal", s.withSecurityHeaders(s.requireUser(s.handleSetGoal)))
	mux.HandleFunc("/progress/fund", s.withSecurityHeaders(s.requireUser(s.handleSetFund)))

	mux.HandleFunc("/education", s.withSecurityHeaders(s.requireUser(s.handleEducation)))
	mux.HandleFunc("/education/quiz", s.withSecurityHeaders(s.requireUser(s.handleQuiz)))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.dashCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	s.renderStatus(w, r, http.StatusOK, name, data)
}

// renderStatus writes the Content-Type header before the status line so it
// survives non-200 responses.
func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed",
			"error", err, "template", name)
	}
}
