package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "bizmatch/internal/common/errors"
	"bizmatch/internal/models"
)

// UserStore persists users and their businesses.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByEmail loads a user by email. A missing row maps to NotFound; login
// treats that the same as a wrong password.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, business_id, name, email, password_hash, created_at
		FROM users
		WHERE email = $1`, email).Scan(
		&user.ID, &user.BusinessID, &user.Name, &user.Email,
		&user.PasswordHash, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// CreateBusinessAndUser creates the business and its first user in one
// transaction so a failed user insert never leaves an orphaned business.
func (s *UserStore) CreateBusinessAndUser(ctx context.Context, businessName, userName, email, passwordHash string) (*models.User, *models.Business, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin registration tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	business := &models.Business{
		ID:        uuid.NewString(),
		Name:      businessName,
		CreatedAt: now,
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO businesses (id, name, created_at)
		VALUES ($1, $2, $3)`,
		business.ID, business.Name, business.CreatedAt,
	); err != nil {
		return nil, nil, fmt.Errorf("insert business: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		BusinessID:   business.ID,
		Name:         userName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, business_id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.BusinessID, user.Name, user.Email,
		user.PasswordHash, user.CreatedAt,
	); err != nil {
		return nil, nil, fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit registration tx: %w", err)
	}
	return user, business, nil
}
