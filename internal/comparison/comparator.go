// Package comparison builds side-by-side provider comparisons for a buyer
// request. The baseline table is assembled from catalog data alone; the
// remote endpoint only ever adds estimated axes on top. A failed enrichment
// degrades to the baseline with an explanatory recommendation reason, never
// to an error.
package comparison

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"bizmatch/internal/common/logger"
	"bizmatch/internal/common/metrics"
	"bizmatch/internal/common/validation"
	"bizmatch/internal/genai"
	"bizmatch/internal/models"
)

const (
	reasonDisabled = "LLM comparison is disabled (no GENAI_API_KEY configured). " +
		"Please choose based on the table above."
	reasonRateLimited = "The AI comparison is temporarily unavailable due to rate limiting. " +
		"You can still use the table above to compare providers manually."
	reasonUnavailable = "The AI comparison is temporarily unavailable. " +
		"Please compare providers manually."
	reasonEmptyResponse = "The AI comparison did not return a usable response. " +
		"Please compare providers manually."
	reasonUnparseable = "The AI comparison response could not be parsed. " +
		"Please compare providers manually."
)

const comparatorSystemPrompt = `You are an assistant that compares B2B service providers for a specific buyer brief.

You receive:
- the buyer request (title, description, budget, industry, timeline)
- a list of provider services with details (businessName, location, rating, ratingCount, title, description, category, industry, skills, minBudget, maxBudget).

Your job is to estimate relative suitability for this project on several axes:
- credibilityScore (0-100): expertise & trustworthiness for THIS brief (text-based heuristic).
- pricingComment: how well their budget range aligns with the brief.
- projectsExperience: short sentence about how their past work / description aligns.
- successLikelihood (0-100): how likely they are to deliver a good outcome.
- responseSpeed: qualitative guess like 'very fast', 'normal', etc.
- skillsHighlights: up to 5 key skills that matter for this brief.
- specialisationHighlights: up to 5 industries / niches they seem strong in.
- communicationHighlights: up to 5 phrases about comms style / collaboration.

These are heuristics based ONLY on the text provided, not real-world data.
Do not invent exact numbers of completed projects or real KPIs.

Also choose ONE recommended provider for this request and explain why.

Return STRICT JSON in this exact shape:
{
  "services": [
    {
      "serviceId": string,
      "credibilityScore": number,
      "pricingComment": string,
      "projectsExperience": string,
      "successLikelihood": number,
      "responseSpeed": string,
      "skillsHighlights": string[],
      "specialisationHighlights": string[],
      "communicationHighlights": string[]
    },
    ...
  ],
  "recommendation": {
    "recommendedServiceId": string | null,
    "reason": string
  }
}`

var comparisonResponseSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["services", "recommendation"],
	"properties": {
		"services": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["serviceId"],
				"properties": {
					"serviceId": {"type": "string"}
				}
			}
		},
		"recommendation": {
			"type": "object",
			"required": ["reason"],
			"properties": {
				"recommendedServiceId": {"type": ["string", "null"]},
				"reason": {"type": "string"}
			}
		}
	}
}`)

// llmServiceComparison mirrors the per-service block of the model contract.
// Every axis is optional; absent ones keep the baseline value.
type llmServiceComparison struct {
	ServiceID                string    `json:"serviceId"`
	CredibilityScore         *float64  `json:"credibilityScore"`
	PricingComment           *string   `json:"pricingComment"`
	ProjectsExperience       *string   `json:"projectsExperience"`
	SuccessLikelihood        *float64  `json:"successLikelihood"`
	ResponseSpeed            *string   `json:"responseSpeed"`
	SkillsHighlights         *[]string `json:"skillsHighlights"`
	SpecialisationHighlights *[]string `json:"specialisationHighlights"`
	CommunicationHighlights  *[]string `json:"communicationHighlights"`
}

type llmComparisonResponse struct {
	Services       []llmServiceComparison          `json:"services"`
	Recommendation models.ComparisonRecommendation `json:"recommendation"`
}

// Result pairs the compared services with the recommendation. The caller adds
// the request envelope on top.
type Result struct {
	Services       []models.ComparedService
	Recommendation models.ComparisonRecommendation
}

// Comparator enriches baseline comparisons through the remote endpoint.
type Comparator struct {
	client *genai.Client
	logger logger.Logger
}

func NewComparator(client *genai.Client, log logger.Logger) *Comparator {
	return &Comparator{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "comparator"}),
	}
}

// Baseline assembles ComparedService rows from catalog data only, in input
// order, with every estimated axis empty.
func Baseline(services []models.ServiceRecord) []models.ComparedService {
	compared := make([]models.ComparedService, 0, len(services))
	for _, svc := range services {
		compared = append(compared, models.ComparedService{
			ServiceID:       svc.ID,
			BusinessID:      svc.BusinessID,
			BusinessName:    svc.BusinessName,
			BusinessLogoURL: svc.Business.LogoURL,
			LocationCity:    svc.Business.LocationCity,
			LocationCountry: svc.Business.LocationCountry,

			ServiceTitle: svc.Title,
			Category:     svc.Category,
			Industry:     svc.Industry,

			RatingValue: svc.Business.AvgRating,
			RatingCount: svc.Business.RatingCount,
			MinBudget:   svc.MinBudget,
			MaxBudget:   svc.MaxBudget,
			Skills:      svc.Skills,

			SkillsHighlights:         []string{},
			SpecialisationHighlights: []string{},
			CommunicationHighlights:  []string{},
		})
	}
	return compared
}

// Compare builds the comparison for the given request and services. It never
// returns an error: every failure mode degrades to the baseline table with a
// distinct recommendation reason.
func (c *Comparator) Compare(ctx context.Context, request *models.Request, services []models.ServiceRecord) Result {
	start := time.Now()
	baseline := Baseline(services)

	if !c.client.Enabled() {
		metrics.ComparisonRequests.WithLabelValues("baseline").Inc()
		metrics.ComparisonDuration.WithLabelValues("baseline").Observe(time.Since(start).Seconds())
		return fallback(baseline, reasonDisabled)
	}

	enriched, err := c.enrich(ctx, request, services, baseline)
	if err != nil {
		reason, note := classifyComparisonFailure(err)
		c.logger.Warn("comparison enrichment failed, returning baseline", map[string]interface{}{
			"requestId": request.ID,
			"reason":    note,
			"error":     err.Error(),
		})
		metrics.ComparisonFallbacks.WithLabelValues(note).Inc()
		metrics.ComparisonRequests.WithLabelValues("baseline").Inc()
		metrics.ComparisonDuration.WithLabelValues("baseline").Observe(time.Since(start).Seconds())
		return fallback(baseline, reason)
	}

	metrics.ComparisonRequests.WithLabelValues("llm").Inc()
	metrics.ComparisonDuration.WithLabelValues("llm").Observe(time.Since(start).Seconds())
	return enriched
}

func fallback(baseline []models.ComparedService, reason string) Result {
	return Result{
		Services: baseline,
		Recommendation: models.ComparisonRecommendation{
			RecommendedServiceID: nil,
			Reason:               reason,
		},
	}
}

type comparisonPayloadService struct {
	ID              string   `json:"id"`
	BusinessName    string   `json:"businessName"`
	LocationCity    *string  `json:"locationCity"`
	LocationCountry *string  `json:"locationCountry"`
	AvgRating       *float64 `json:"avgRating"`
	RatingCount     int      `json:"ratingCount"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Industry        *string  `json:"industry"`
	MinBudget       *int     `json:"minBudget"`
	MaxBudget       *int     `json:"maxBudget"`
	Skills          []string `json:"skills"`
}

func (c *Comparator) enrich(ctx context.Context, request *models.Request, services []models.ServiceRecord, baseline []models.ComparedService) (Result, error) {
	payloadServices := make([]comparisonPayloadService, 0, len(services))
	for _, svc := range services {
		payloadServices = append(payloadServices, comparisonPayloadService{
			ID:              svc.ID,
			BusinessName:    svc.BusinessName,
			LocationCity:    svc.Business.LocationCity,
			LocationCountry: svc.Business.LocationCountry,
			AvgRating:       svc.Business.AvgRating,
			RatingCount:     svc.Business.RatingCount,
			Title:           svc.Title,
			Description:     svc.Description,
			Category:        svc.Category,
			Industry:        svc.Industry,
			MinBudget:       svc.MinBudget,
			MaxBudget:       svc.MaxBudget,
			Skills:          svc.Skills,
		})
	}

	payload, err := json.Marshal(map[string]interface{}{
		"request": map[string]interface{}{
			"title":       request.Title,
			"description": request.Description,
			"budgetMin":   request.BudgetMin,
			"budgetMax":   request.BudgetMax,
			"industry":    request.Industry,
			"timeline":    request.Timeline,
		},
		"services": payloadServices,
	})
	if err != nil {
		return Result{}, err
	}

	content, err := c.client.CompleteJSON(ctx, 0.2, []genai.Message{
		{Role: "system", Content: comparatorSystemPrompt},
		{Role: "user", Content: string(payload)},
	})
	if err != nil {
		return Result{}, err
	}

	if err := comparisonResponseSchema.Validate(content); err != nil {
		return Result{}, &parseError{err: err}
	}

	var parsed llmComparisonResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return Result{}, &parseError{err: err}
	}

	byID := make(map[string]int, len(baseline))
	for i, b := range baseline {
		byID[b.ServiceID] = i
	}

	merged := make([]models.ComparedService, 0, len(baseline))
	mentioned := make(map[string]struct{}, len(parsed.Services))
	for _, s := range parsed.Services {
		// Unknown ids are dropped; the baseline row survives below.
		idx, ok := byID[s.ServiceID]
		if !ok {
			continue
		}
		mentioned[s.ServiceID] = struct{}{}
		merged = append(merged, mergeService(baseline[idx], s))
	}

	// Services the model skipped keep their baseline row so the table never
	// loses a shortlisted provider.
	for _, b := range baseline {
		if _, ok := mentioned[b.ServiceID]; !ok {
			merged = append(merged, b)
		}
	}

	return Result{Services: merged, Recommendation: parsed.Recommendation}, nil
}

// mergeService overlays model-estimated axes onto a baseline row. Null or
// absent fields keep the baseline value per axis.
func mergeService(base models.ComparedService, s llmServiceComparison) models.ComparedService {
	out := base
	if s.CredibilityScore != nil {
		v := int(math.Round(*s.CredibilityScore))
		out.CredibilityScore = &v
	}
	if s.PricingComment != nil {
		out.PricingComment = s.PricingComment
	}
	if s.ProjectsExperience != nil {
		out.ProjectsExperience = s.ProjectsExperience
	}
	if s.SuccessLikelihood != nil {
		v := int(math.Round(*s.SuccessLikelihood))
		out.SuccessLikelihood = &v
	}
	if s.ResponseSpeed != nil {
		out.ResponseSpeed = s.ResponseSpeed
	}
	if s.SkillsHighlights != nil {
		out.SkillsHighlights = *s.SkillsHighlights
	}
	if s.SpecialisationHighlights != nil {
		out.SpecialisationHighlights = *s.SpecialisationHighlights
	}
	if s.CommunicationHighlights != nil {
		out.CommunicationHighlights = *s.CommunicationHighlights
	}
	return out
}

type parseError struct {
	err error
}

func (e *parseError) Error() string { return "unparseable comparison response: " + e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

// classifyComparisonFailure picks the user-facing reason sentence and the
// metrics label for a failed enrichment.
func classifyComparisonFailure(err error) (reason, label string) {
	var parse *parseError
	switch {
	case genai.IsRateLimited(err):
		return reasonRateLimited, "rate_limited"
	case errors.Is(err, genai.ErrEmptyContent):
		return reasonEmptyResponse, "empty_content"
	case errors.As(err, &parse):
		return reasonUnparseable, "malformed_response"
	default:
		return reasonUnavailable, "transport_error"
	}
}
