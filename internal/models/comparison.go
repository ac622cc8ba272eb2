package models

// ComparedService extends a catalog snapshot with model-estimated comparison
// axes. Every estimated field is nullable and independently optional; a
// baseline ComparedService has all of them empty.
type ComparedService struct {
	ServiceID       string  `json:"serviceId"`
	BusinessID      string  `json:"businessId"`
	BusinessName    string  `json:"businessName"`
	BusinessLogoURL *string `json:"businessLogoUrl"`
	LocationCity    *string `json:"locationCity"`
	LocationCountry *string `json:"locationCountry"`

	ServiceTitle string  `json:"serviceTitle"`
	Category     string  `json:"category"`
	Industry     *string `json:"industry"`

	// From the catalog.
	RatingValue *float64 `json:"ratingValue"`
	RatingCount int      `json:"ratingCount"`
	MinBudget   *int     `json:"minBudget"`
	MaxBudget   *int     `json:"maxBudget"`
	Skills      []string `json:"skills"`

	// Estimated for this brief from text only, not real metrics.
	CredibilityScore   *int    `json:"credibilityScore"`
	PricingComment     *string `json:"pricingComment"`
	ProjectsExperience *string `json:"projectsExperience"`
	SuccessLikelihood  *int    `json:"successLikelihood"`
	ResponseSpeed      *string `json:"responseSpeed"`

	SkillsHighlights         []string `json:"skillsHighlights"`
	SpecialisationHighlights []string `json:"specialisationHighlights"`
	CommunicationHighlights  []string `json:"communicationHighlights"`
}

// ComparisonRecommendation names at most one compared service as the pick for
// the request, with a human-readable reason.
type ComparisonRecommendation struct {
	RecommendedServiceID *string `json:"recommendedServiceId"`
	Reason               string  `json:"reason"`
}

// ComparisonResult is the full payload of a compare call.
type ComparisonResult struct {
	RequestID          string                   `json:"requestId"`
	RequestTitle       string                   `json:"requestTitle"`
	RequestDescription string                   `json:"requestDescription"`
	ShortlistedCount   int                      `json:"shortlistedCount"`
	Services           []ComparedService        `json:"services"`
	Recommendation     ComparisonRecommendation `json:"recommendation"`
}
