// Package api is the HTTP surface of the marketplace core. Handlers decode,
// delegate to the auth and request services, and map errors through the
// shared taxonomy; no business rule lives here.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bizmatch/internal/auth"
	apperrors "bizmatch/internal/common/errors"
	"bizmatch/internal/common/logger"
	"bizmatch/internal/common/metrics"
	"bizmatch/internal/models"
)

// Config holds server configuration.
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		CORSOrigins:  []string{"*"},
		CookieName:   "session_token",
		SessionTTL:   30 * 24 * time.Hour,
	}
}

// Pinger reports backend connectivity for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AuthService is the account and session surface the handlers need.
type AuthService interface {
	Register(ctx context.Context, input auth.RegisterInput) (*models.User, *models.Session, error)
	Login(ctx context.Context, input auth.LoginInput) (*models.User, *models.Session, error)
	Logout(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (models.Principal, error)
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	auth       AuthService
	requests   RequestService
	postgres   Pinger
	redis      Pinger
	config     *Config
	logger     logger.Logger
}

func NewServer(auth AuthService, requests RequestService, postgres, redis Pinger, config *Config, log logger.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return &Server{
		auth:     auth,
		requests: requests,
		postgres: postgres,
		redis:    redis,
		config:   config,
		logger:   log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Handler builds the full route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)

	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", s.handleLogout)

	mux.HandleFunc("POST /api/v1/requests", s.authenticated(s.handleCreateRequest))
	mux.HandleFunc("GET /api/v1/requests", s.authenticated(s.handleListRequests))
	mux.HandleFunc("GET /api/v1/requests/{id}/shortlist", s.authenticated(s.handleListShortlist))
	mux.HandleFunc("POST /api/v1/requests/{id}/compare", s.authenticated(s.handleCompare))

	mux.HandleFunc("POST /api/v1/shortlist", s.authenticated(s.handleAddToShortlist))
	mux.HandleFunc("DELETE /api/v1/shortlist", s.authenticated(s.handleRemoveFromShortlist))

	return s.corsMiddleware(s.loggingMiddleware(mux))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("api server starting", map[string]interface{}{
		"port": s.config.Port,
	})
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.HTTPRequestDuration.
			WithLabelValues(r.URL.Path, strconv.Itoa(recorder.status)).
			Observe(time.Since(start).Seconds())

		s.logger.Info("request handled", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   recorder.status,
			"duration": time.Since(start).String(),
		})
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		allowed := false
		for _, o := range s.config.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type principalKey struct{}

// authenticated resolves the bearer token (header first, cookie second) into
// a principal and rejects the request when neither resolves.
func (s *Server) authenticated(next func(w http.ResponseWriter, r *http.Request, principal models.Principal)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := s.auth.Resolve(r.Context(), s.token(r))
		if err != nil {
			s.errorResponse(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next(w, r.WithContext(ctx), principal)
	}
}

// token extracts the session token from the Authorization header or the
// session cookie.
func (s *Server) token(r *http.Request) string {
	if header := r.Header.Get("Authorization"); len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	if cookie, err := r.Cookie(s.config.CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.jsonResponse(w, status, map[string]string{
		"error": apperrors.PublicMessage(err),
	})
}
