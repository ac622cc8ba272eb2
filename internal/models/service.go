package models

// BusinessMeta carries the business-level fields that ride along with every
// provider service snapshot (used for match cards and comparison baselines).
type BusinessMeta struct {
	AvgRating       *float64 `json:"avgRating,omitempty" db:"avg_rating"`
	RatingCount     int      `json:"ratingCount" db:"rating_count"`
	Verified        bool     `json:"verified" db:"verified"`
	LogoURL         *string  `json:"logoUrl,omitempty" db:"logo_url"`
	LocationCity    *string  `json:"locationCity,omitempty" db:"location_city"`
	LocationCountry *string  `json:"locationCountry,omitempty" db:"location_country"`
}

// ServiceRecord is an immutable snapshot of a provider service plus its owning
// business, fetched fresh from the catalog for every scoring call.
type ServiceRecord struct {
	ID           string       `json:"id" db:"id"`
	BusinessID   string       `json:"businessId" db:"business_id"`
	BusinessName string       `json:"businessName" db:"business_name"`
	Title        string       `json:"title" db:"title"`
	Description  string       `json:"description" db:"description"`
	Category     string       `json:"category" db:"category"`
	Industry     *string      `json:"industry,omitempty" db:"industry"`
	Skills       []string     `json:"skills" db:"skills"`
	MinBudget    *int         `json:"minBudget,omitempty" db:"min_budget"`
	MaxBudget    *int         `json:"maxBudget,omitempty" db:"max_budget"`
	Business     BusinessMeta `json:"business"`
}
