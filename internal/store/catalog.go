// Package store is the relational persistence layer. Each store wraps one
// aggregate's queries over a shared *sql.DB; rows are scanned into the model
// types explicitly, no ORM.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	apperrors "bizmatch/internal/common/errors"
	"bizmatch/internal/models"
)

// CatalogStore reads provider services with their owning business.
type CatalogStore struct {
	db *sql.DB
}

func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

const serviceColumns = `
	s.id, s.business_id, b.name, s.title, s.description, s.category,
	s.industry, s.skills, s.min_budget, s.max_budget,
	b.avg_rating, b.rating_count, b.verified, b.logo_url,
	b.location_city, b.location_country`

func scanService(rows *sql.Rows) (models.ServiceRecord, error) {
	var svc models.ServiceRecord
	err := rows.Scan(
		&svc.ID, &svc.BusinessID, &svc.BusinessName, &svc.Title,
		&svc.Description, &svc.Category, &svc.Industry,
		pq.Array(&svc.Skills), &svc.MinBudget, &svc.MaxBudget,
		&svc.Business.AvgRating, &svc.Business.RatingCount,
		&svc.Business.Verified, &svc.Business.LogoURL,
		&svc.Business.LocationCity, &svc.Business.LocationCountry,
	)
	return svc, err
}

// ListActive returns the full active catalog snapshot. Matching scores this
// snapshot exhaustively; there is no index or pre-filter.
func (s *CatalogStore) ListActive(ctx context.Context) ([]models.ServiceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+serviceColumns+`
		FROM provider_services s
		JOIN businesses b ON b.id = s.business_id
		WHERE s.active = TRUE
		ORDER BY s.created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active services: %w", err)
	}
	defer rows.Close()

	var services []models.ServiceRecord
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service row: %w", err)
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

// GetByID loads a single service with its business metadata.
func (s *CatalogStore) GetByID(ctx context.Context, id string) (*models.ServiceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+serviceColumns+`
		FROM provider_services s
		JOIN businesses b ON b.id = s.business_id
		WHERE s.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get service by id: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get service by id: %w", err)
		}
		return nil, apperrors.NewNotFoundError("provider service not found")
	}
	svc, err := scanService(rows)
	if err != nil {
		return nil, fmt.Errorf("scan service row: %w", err)
	}
	return &svc, rows.Err()
}

// GetByIDs returns the services whose ids appear in the given set, in catalog
// order. Unknown ids are silently absent from the result.
func (s *CatalogStore) GetByIDs(ctx context.Context, ids []string) ([]models.ServiceRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT`+serviceColumns+`
		FROM provider_services s
		JOIN businesses b ON b.id = s.business_id
		WHERE s.id = ANY($1)
		ORDER BY s.created_at`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get services by ids: %w", err)
	}
	defer rows.Close()

	var services []models.ServiceRecord
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service row: %w", err)
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}
