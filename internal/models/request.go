package models

import "time"

// RequestStatus is the lifecycle state of a buyer request.
type RequestStatus string

const (
	RequestStatusDraft     RequestStatus = "DRAFT"
	RequestStatusMatching  RequestStatus = "MATCHING"
	RequestStatusCompleted RequestStatus = "COMPLETED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// Request is a buyer project request. Creation always enters MATCHING; the
// matching and comparison flows read Status but never write it.
type Request struct {
	ID          string        `json:"id" db:"id"`
	BusinessID  string        `json:"businessId" db:"business_id"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	BudgetMin   *int          `json:"budgetMin,omitempty" db:"budget_min"`
	BudgetMax   *int          `json:"budgetMax,omitempty" db:"budget_max"`
	Industry    *string       `json:"industry,omitempty" db:"industry"`
	Timeline    *string       `json:"timeline,omitempty" db:"timeline"`
	Status      RequestStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
}

// RequestSummary is the trimmed request view returned alongside match results.
type RequestSummary struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Summary projects a Request onto its summary view.
func (r *Request) Summary() RequestSummary {
	return RequestSummary{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
	}
}
