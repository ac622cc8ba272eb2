package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"bizmatch/internal/auth"
	apperrors "bizmatch/internal/common/errors"
	"bizmatch/internal/models"
	"bizmatch/internal/request"
)

// RequestService is the orchestration surface the handlers need.
type RequestService interface {
	CreateAndMatch(ctx context.Context, principal models.Principal, input request.CreateInput) (*request.CreateOutput, error)
	ListMine(ctx context.Context, principal models.Principal) ([]models.RequestSummary, error)
	AddToShortlist(ctx context.Context, principal models.Principal, requestID, providerServiceID string) (*models.ShortlistItem, error)
	RemoveFromShortlist(ctx context.Context, principal models.Principal, requestID, providerServiceID string) error
	ListShortlist(ctx context.Context, principal models.Principal, requestID string) ([]models.ShortlistItem, error)
	Compare(ctx context.Context, principal models.Principal, requestID string, serviceIDs []string) (*models.ComparisonResult, error)
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid JSON body")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.postgres.Ping(ctx); err != nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "postgres not ready",
		})
		return
	}
	if err := s.redis.Ping(ctx); err != nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "redis not ready",
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

type sessionResponse struct {
	Token      string       `json:"token"`
	UserID     string       `json:"userId"`
	BusinessID string       `json:"businessId"`
	User       *models.User `json:"user"`
}

func (s *Server) setSessionCookie(w http.ResponseWriter, session *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input auth.RegisterInput
	if err := decodeBody(r, &input); err != nil {
		s.errorResponse(w, err)
		return
	}

	user, session, err := s.auth.Register(r.Context(), input)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.setSessionCookie(w, session)
	s.jsonResponse(w, http.StatusCreated, sessionResponse{
		Token:      session.Token,
		UserID:     user.ID,
		BusinessID: user.BusinessID,
		User:       user,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input auth.LoginInput
	if err := decodeBody(r, &input); err != nil {
		s.errorResponse(w, err)
		return
	}

	user, session, err := s.auth.Login(r.Context(), input)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.setSessionCookie(w, session)
	s.jsonResponse(w, http.StatusOK, sessionResponse{
		Token:      session.Token,
		UserID:     user.ID,
		BusinessID: user.BusinessID,
		User:       user,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := s.token(r); token != "" {
		if err := s.auth.Logout(r.Context(), token); err != nil {
			s.errorResponse(w, err)
			return
		}
	}
	s.clearSessionCookie(w)
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request, principal models.Principal) {
	var input request.CreateInput
	if err := decodeBody(r, &input); err != nil {
		s.errorResponse(w, err)
		return
	}

	out, err := s.requests.CreateAndMatch(r.Context(), principal, input)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, out)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request, principal models.Principal) {
	summaries, err := s.requests.ListMine(r.Context(), principal)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"requests": summaries,
	})
}

type shortlistBody struct {
	RequestID         string `json:"requestId"`
	ProviderServiceID string `json:"providerServiceId"`
}

func (b shortlistBody) validate() error {
	if b.RequestID == "" || b.ProviderServiceID == "" {
		return apperrors.NewValidationError("requestId and providerServiceId are required")
	}
	return nil
}

func (s *Server) handleAddToShortlist(w http.ResponseWriter, r *http.Request, principal models.Principal) {
	var body shortlistBody
	if err := decodeBody(r, &body); err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := body.validate(); err != nil {
		s.errorResponse(w, err)
		return
	}

	item, err := s.requests.AddToShortlist(r.Context(), principal, body.RequestID, body.ProviderServiceID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, item)
}

func (s *Server) handleRemoveFromShortlist(w http.ResponseWriter, r *http.Request, principal models.Principal) {
	var body shortlistBody
	if err := decodeBody(r, &body); err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := body.validate(); err != nil {
		s.errorResponse(w, err)
		return
	}

	if err := s.requests.RemoveFromShortlist(r.Context(), principal, body.RequestID, body.ProviderServiceID); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleListShortlist(w http.ResponseWriter, r *http.Request, principal models.Principal) {
	items, err := s.requests.ListShortlist(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if items == nil {
		items = []models.ShortlistItem{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

type compareBody struct {
	ServiceIDs []string `json:"serviceIds"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request, principal models.Principal) {
	var body compareBody
	if err := decodeBody(r, &body); err != nil {
		s.errorResponse(w, err)
		return
	}

	result, err := s.requests.Compare(r.Context(), principal, r.PathValue("id"), body.ServiceIDs)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}
