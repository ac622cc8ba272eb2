package models

// MatchResult is a per-service relevance verdict for one buyer brief. It is a
// view computed fresh on every scoring call and is never persisted. Within one
// scoring call all scores share the same scale and the result sequence is
// sorted descending by Score.
type MatchResult struct {
	ServiceID    string  `json:"serviceId"`
	BusinessID   string  `json:"businessId"`
	BusinessName string  `json:"businessName"`
	ServiceTitle string  `json:"serviceTitle"`
	Category     string  `json:"category"`
	Industry     *string `json:"industry"`
	Score        int     `json:"score"`
	Why          string  `json:"why"`

	// Card/filter data, enriched from the catalog snapshot only.
	RatingValue     *float64 `json:"ratingValue,omitempty"`
	RatingCount     int      `json:"ratingCount,omitempty"`
	IsVerified      bool     `json:"isVerified,omitempty"`
	LocationCity    *string  `json:"locationCity,omitempty"`
	LocationCountry *string  `json:"locationCountry,omitempty"`
	MinBudget       *int     `json:"minBudget,omitempty"`
	MaxBudget       *int     `json:"maxBudget,omitempty"`
	Skills          []string `json:"skills,omitempty"`
}
