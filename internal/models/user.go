package models

import "time"

// User is an account holder. Every user belongs to exactly one business; the
// business id is what authorization checks compare against.
type User struct {
	ID           string    `json:"id" db:"id"`
	BusinessID   string    `json:"businessId" db:"business_id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Business is the tenant unit. Buyers own requests and shortlists through
// their business; providers own services through theirs.
type Business struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
