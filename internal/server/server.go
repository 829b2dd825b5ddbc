// Package server exposes the document store over a small local HTTP API.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nzaccagnino/go-sheets/internal/logging"
	"github.com/nzaccagnino/go-sheets/internal/store"
)

// PasswordHeader carries the document password on reads and writes.
const PasswordHeader = "X-Document-Password"

// Documents is the part of store.Store the API serves.
type Documents interface {
	ListAll(ctx context.Context) (map[string]time.Time, error)
	Get(ctx context.Context, name string) (*store.Document, error)
	GetDecrypted(ctx context.Context, name, password string) (*store.Document, error)
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, doc store.Document, opts ...store.SaveOption) (*store.Document, error)
	Replace(ctx context.Context, doc store.Document, password string) error
	Delete(ctx context.Context, name string) error
	VerifyPassword(ctx context.Context, name, password string) bool
	Protect(ctx context.Context, name, password string) error
	RemoveProtection(ctx context.Context, name, password string) error
}

type Server struct {
	docs    Documents
	log     logging.Logger
	token   string
	limiter *RateLimiter
	router  *chi.Mux
}

type Option func(*Server)

// WithToken requires "Authorization: Bearer <token>" on the /api routes.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

func New(docs Documents, opts ...Option) *Server {
	s := &Server{
		docs:   docs,
		log:    logging.Discard(),
		router: chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(requestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/health", s.healthHandler)

	s.router.Route("/api/documents", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Use(s.authMiddleware)
		r.Get("/", s.listDocumentsHandler)
		r.Get("/{name}", s.getDocumentHandler)
		r.Put("/{name}", s.putDocumentHandler)
		r.Delete("/{name}", s.deleteDocumentHandler)
		r.Post("/{name}/protect", s.protectHandler)
		r.Post("/{name}/unprotect", s.unprotectHandler)
		r.Post("/{name}/verify", s.verifyHandler)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			jsonError(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			jsonError(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(s.token)) != 1 {
			jsonError(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, map[string]string{"error": message}, status)
}
