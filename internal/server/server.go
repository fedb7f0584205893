package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chatgate/internal/domain"
	"chatgate/internal/logger"
	"chatgate/internal/services/conversation"
	"chatgate/internal/services/session"
)

// CookieName is the name of the session cookie.
const CookieName = "chatgate_session"

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Auth     domain.Authenticator
	Sessions *session.Manager
	Turns    *conversation.Service
	Logger   logger.Logger
	// SecureCookies marks the session cookie Secure (HTTPS only).
	SecureCookies bool
}

// Server routes HTTP requests to the session and conversation services.
type Server struct {
	auth          domain.Authenticator
	sessions      *session.Manager
	turns         *conversation.Service
	log           logger.Logger
	secureCookies bool
	router        chi.Router
}

// New builds a Server and its routes.
func New(d Deps) *Server {
	s := &Server{
		auth:          d.Auth,
		sessions:      d.Sessions,
		turns:         d.Turns,
		log:           d.Logger,
		secureCookies: d.SecureCookies,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/about", s.handleAbout)
	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/history", s.handleHistory)
		r.Post("/activity", s.handleActivity)
		r.Post("/chat", s.handleChat)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
