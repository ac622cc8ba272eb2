package models

import "time"

// ShortlistItem is a buyer's saved candidate service for a request. Membership
// is unique per (RequestID, ProviderServiceID); the store enforces this with a
// unique constraint and upserts on conflict.
type ShortlistItem struct {
	ID                string    `json:"id" db:"id"`
	RequestID         string    `json:"requestId" db:"request_id"`
	BuyerBusinessID   string    `json:"buyerBusinessId" db:"buyer_business_id"`
	ProviderBusinessID string   `json:"providerBusinessId" db:"provider_business_id"`
	ProviderServiceID string    `json:"providerServiceId" db:"provider_service_id"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`

	// Denormalized provider fields for list views.
	ProviderBusinessName string  `json:"providerBusinessName"`
	ServiceTitle         string  `json:"serviceTitle"`
	Category             string  `json:"category"`
	Industry             *string `json:"industry"`
}
