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

// RequestStore persists buyer requests.
type RequestStore struct {
	db *sql.DB
}

func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db}
}

// Create inserts a new request. ID and CreatedAt are assigned here; the
// caller sets everything else including Status.
func (s *RequestStore) Create(ctx context.Context, req *models.Request) error {
	req.ID = uuid.NewString()
	req.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests
			(id, business_id, title, description, budget_min, budget_max,
			 industry, timeline, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID, req.BusinessID, req.Title, req.Description,
		req.BudgetMin, req.BudgetMax, req.Industry, req.Timeline,
		req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// GetByID loads one request. A missing row maps to a NotFound error so the
// HTTP layer can answer 404 directly.
func (s *RequestStore) GetByID(ctx context.Context, id string) (*models.Request, error) {
	var req models.Request
	err := s.db.QueryRowContext(ctx, `
		SELECT id, business_id, title, description, budget_min, budget_max,
		       industry, timeline, status, created_at
		FROM requests
		WHERE id = $1`, id).Scan(
		&req.ID, &req.BusinessID, &req.Title, &req.Description,
		&req.BudgetMin, &req.BudgetMax, &req.Industry, &req.Timeline,
		&req.Status, &req.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return &req, nil
}

// ListForBusiness returns the buyer's requests, newest first.
func (s *RequestStore) ListForBusiness(ctx context.Context, businessID string) ([]models.Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_id, title, description, budget_min, budget_max,
		       industry, timeline, status, created_at
		FROM requests
		WHERE business_id = $1
		ORDER BY created_at DESC`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		var req models.Request
		if err := rows.Scan(
			&req.ID, &req.BusinessID, &req.Title, &req.Description,
			&req.BudgetMin, &req.BudgetMax, &req.Industry, &req.Timeline,
			&req.Status, &req.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan request row: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
