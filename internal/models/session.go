package models

import "time"

// Principal identifies the authenticated caller. It is the sole authorization
// primitive: every orchestration entry point fails unauthenticated when no
// principal can be resolved.
type Principal struct {
	UserID     string `json:"userId"`
	BusinessID string `json:"businessId"`
}

// Session represents an issued login session stored in Redis.
type Session struct {
	Token      string    `json:"token"`
	UserID     string    `json:"userId"`
	BusinessID string    `json:"businessId"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// IsExpired checks if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Principal projects the session onto its principal.
func (s *Session) Principal() Principal {
	return Principal{UserID: s.UserID, BusinessID: s.BusinessID}
}
