package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bizmatch/internal/models"
)

// ShortlistStore persists shortlist membership. Membership is keyed by
// (request_id, provider_service_id); add and remove are both idempotent.
type ShortlistStore struct {
	db *sql.DB
}

func NewShortlistStore(db *sql.DB) *ShortlistStore {
	return &ShortlistStore{db: db}
}

// Upsert adds a service to the request's shortlist. Re-adding an existing
// member succeeds without duplicating the row.
func (s *ShortlistStore) Upsert(ctx context.Context, item *models.ShortlistItem) error {
	item.ID = uuid.NewString()
	item.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shortlist_items
			(id, request_id, buyer_business_id, provider_business_id,
			 provider_service_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (request_id, provider_service_id) DO NOTHING`,
		item.ID, item.RequestID, item.BuyerBusinessID,
		item.ProviderBusinessID, item.ProviderServiceID, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert shortlist item: %w", err)
	}
	return nil
}

// Delete removes a service from the request's shortlist. Removing an absent
// member is a no-op, not an error.
func (s *ShortlistStore) Delete(ctx context.Context, requestID, providerServiceID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM shortlist_items
		WHERE request_id = $1 AND provider_service_id = $2`,
		requestID, providerServiceID,
	)
	if err != nil {
		return fmt.Errorf("delete shortlist item: %w", err)
	}
	return nil
}

// ListForRequest returns the shortlist with denormalized provider fields for
// list views, newest first.
func (s *ShortlistStore) ListForRequest(ctx context.Context, requestID string) ([]models.ShortlistItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.request_id, i.buyer_business_id, i.provider_business_id,
		       i.provider_service_id, i.created_at,
		       b.name, s.title, s.category, s.industry
		FROM shortlist_items i
		JOIN provider_services s ON s.id = i.provider_service_id
		JOIN businesses b ON b.id = i.provider_business_id
		WHERE i.request_id = $1
		ORDER BY i.created_at DESC`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list shortlist: %w", err)
	}
	defer rows.Close()

	var items []models.ShortlistItem
	for rows.Next() {
		var item models.ShortlistItem
		if err := rows.Scan(
			&item.ID, &item.RequestID, &item.BuyerBusinessID,
			&item.ProviderBusinessID, &item.ProviderServiceID, &item.CreatedAt,
			&item.ProviderBusinessName, &item.ServiceTitle,
			&item.Category, &item.Industry,
		); err != nil {
			return nil, fmt.Errorf("scan shortlist row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Members returns which of the given service ids are shortlisted for the
// request by the given buyer.
func (s *ShortlistStore) Members(ctx context.Context, requestID, buyerBusinessID string, serviceIDs []string) (map[string]struct{}, error) {
	if len(serviceIDs) == 0 {
		return map[string]struct{}{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT provider_service_id
		FROM shortlist_items
		WHERE request_id = $1
		  AND buyer_business_id = $2
		  AND provider_service_id = ANY($3)`,
		requestID, buyerBusinessID, pq.Array(serviceIDs))
	if err != nil {
		return nil, fmt.Errorf("query shortlist members: %w", err)
	}
	defer rows.Close()

	members := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		members[id] = struct{}{}
	}
	return members, rows.Err()
}

// CountForRequest returns the total shortlist size for the request, not just
// the subset involved in any one comparison.
func (s *ShortlistStore) CountForRequest(ctx context.Context, requestID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM shortlist_items WHERE request_id = $1`,
		requestID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count shortlist: %w", err)
	}
	return count, nil
}
