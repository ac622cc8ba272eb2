package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "bizmatch/internal/common/errors"
	"bizmatch/internal/common/logger"
	"bizmatch/internal/models"
	"bizmatch/internal/store"
)

// RegisterInput is a new account: a business plus its first user.
type RegisterInput struct {
	BusinessName string `json:"businessName"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service implements registration, login and logout.
type Service struct {
	users    *store.UserStore
	sessions *SessionStore
	logger   logger.Logger
}

func NewService(users *store.UserStore, sessions *SessionStore, log logger.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		logger:   log.WithFields(map[string]interface{}{"component": "auth"}),
	}
}

// Register creates a business with its first user and logs them in.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, *models.Session, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || input.Password == "" || input.BusinessName == "" || input.Name == "" {
		return nil, nil, apperrors.NewValidationError("businessName, name, email and password are required")
	}
	if len(input.Password) < 8 {
		return nil, nil, apperrors.NewValidationError("password must be at least 8 characters")
	}

	if existing, err := s.users.FindByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, nil, apperrors.NewValidationError("email already in use")
	} else if err != nil && !apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	user, _, err := s.users.CreateBusinessAndUser(ctx,
		input.BusinessName, input.Name, input.Email, string(hash))
	if err != nil {
		return nil, nil, err
	}

	session, err := s.sessions.Create(ctx, models.Principal{
		UserID:     user.ID,
		BusinessID: user.BusinessID,
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user registered", map[string]interface{}{
		"userId":     user.ID,
		"businessId": user.BusinessID,
	})
	return user, session, nil
}

// Login verifies credentials and issues a session. A missing user and a wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, input LoginInput) (*models.User, *models.Session, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, nil, apperrors.NewUnauthenticatedError()
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.NewUnauthenticatedError()
	}

	session, err := s.sessions.Create(ctx, models.Principal{
		UserID:     user.ID,
		BusinessID: user.BusinessID,
	})
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout revokes the session token. Unknown tokens succeed silently.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Resolve turns a bearer token into a Principal, or an unauthenticated error
// when the token is empty, unknown or expired.
func (s *Service) Resolve(ctx context.Context, token string) (models.Principal, error) {
	if token == "" {
		return models.Principal{}, apperrors.NewUnauthenticatedError()
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return models.Principal{}, err
	}
	if session == nil {
		return models.Principal{}, apperrors.NewUnauthenticatedError()
	}
	return session.Principal(), nil
}
