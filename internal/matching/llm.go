package matching

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"bizmatch/internal/common/logger"
	"bizmatch/internal/common/metrics"
	"bizmatch/internal/common/validation"
	"bizmatch/internal/genai"
	"bizmatch/internal/models"
)

// DefaultMinScore is the relevance floor: "good match or better" per the
// scoring rubric. Matches below it are dropped entirely.
const DefaultMinScore = 70

const matcherSystemPrompt = `You are a B2B services matching engine.
You receive:
 - a buyer brief describing what they want
 - a list of provider services (id, title, description, category, industry, skills, businessName)

Your job is to judge **relevance only**.

Scoring rules (very important):
- 90-100: Extremely strong match. The service directly and clearly offers exactly what the brief describes.
- 70-89: Good match. Service obviously can deliver what the brief needs.
- 40-69: Weak or partial match. Some overlap, but not a good fit.
- 0-39: Not a real match. Different domain, industry, or needs.

If the brief is clearly about something unrelated to the service (for example: brief about food/catering/restaurant, but service is software development or design) you MUST give a score <= 10 and explain that it is not relevant.

It is **allowed** (and encouraged) for all services to be low-score (<= 39) if none are good fits.

For EACH service, give:
  - serviceId: the id you were given
  - score: integer 0-100 using the rules above
  - why: 1 short sentence explaining why it matches or why it does not.

Return STRICT JSON in this shape:
{ "matches": [ { "serviceId": string, "score": number, "why": string }, ... ] }
Do not include any extra keys or commentary.`

var matchResponseSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["matches"],
	"properties": {
		"matches": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["serviceId", "score", "why"],
				"properties": {
					"serviceId": {"type": "string"},
					"score": {"type": "number"},
					"why": {"type": "string"}
				}
			}
		}
	}
}`)

type llmMatch struct {
	ServiceID string  `json:"serviceId"`
	Score     float64 `json:"score"`
	Why       string  `json:"why"`
}

type llmMatchResponse struct {
	Matches []llmMatch `json:"matches"`
}

// serviceSummary is the compact catalog projection sent to the model.
type serviceSummary struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Industry     *string  `json:"industry"`
	Skills       []string `json:"skills"`
	BusinessName string   `json:"businessName"`
}

// Matcher scores services against a brief using the remote endpoint, with the
// lexical scorer as its unconditional fallback.
type Matcher struct {
	client   *genai.Client
	minScore int
	logger   logger.Logger
}

func NewMatcher(client *genai.Client, minScore int, log logger.Logger) *Matcher {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Matcher{
		client:   client,
		minScore: minScore,
		logger:   log.WithFields(map[string]interface{}{"component": "matcher"}),
	}
}

// Score ranks the given catalog snapshot against the brief. It never returns
// an error: every remote failure is absorbed into the lexical fallback. When
// no credential is configured the lexical result is returned unchanged.
func (m *Matcher) Score(ctx context.Context, services []models.ServiceRecord, brief string) []models.MatchResult {
	start := time.Now()

	if !m.client.Enabled() {
		metrics.MatchRequests.WithLabelValues("lexical").Inc()
		metrics.MatchDuration.WithLabelValues("lexical").Observe(time.Since(start).Seconds())
		return LexicalScore(services, brief)
	}

	results, err := m.scoreRemote(ctx, services, brief)
	if err != nil {
		reason := classifyFailure(err)
		m.logger.Warn("remote scoring failed, falling back to lexical scorer", map[string]interface{}{
			"reason": reason,
			"error":  err.Error(),
		})
		metrics.MatchFallbacks.WithLabelValues(reason).Inc()
		metrics.MatchRequests.WithLabelValues("lexical").Inc()
		metrics.MatchDuration.WithLabelValues("lexical").Observe(time.Since(start).Seconds())
		return LexicalScore(services, brief)
	}

	metrics.MatchRequests.WithLabelValues("llm").Inc()
	metrics.MatchDuration.WithLabelValues("llm").Observe(time.Since(start).Seconds())
	return results
}

func (m *Matcher) scoreRemote(ctx context.Context, services []models.ServiceRecord, brief string) ([]models.MatchResult, error) {
	summaries := make([]serviceSummary, 0, len(services))
	for _, svc := range services {
		summaries = append(summaries, serviceSummary{
			ID:           svc.ID,
			Title:        svc.Title,
			Description:  svc.Description,
			Category:     svc.Category,
			Industry:     svc.Industry,
			Skills:       svc.Skills,
			BusinessName: svc.BusinessName,
		})
	}

	payload, err := json.Marshal(map[string]interface{}{
		"brief":    brief,
		"services": summaries,
	})
	if err != nil {
		return nil, err
	}

	content, err := m.client.CompleteJSON(ctx, 0.1, []genai.Message{
		{Role: "system", Content: matcherSystemPrompt},
		{Role: "user", Content: string(payload)},
	})
	if err != nil {
		return nil, err
	}

	if err := matchResponseSchema.Validate(content); err != nil {
		return nil, errMalformed(err)
	}

	var parsed llmMatchResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, errMalformed(err)
	}

	byID := make(map[string]models.ServiceRecord, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}

	results := make([]models.MatchResult, 0, len(parsed.Matches))
	for _, match := range parsed.Matches {
		// Defend against hallucinated ids.
		svc, ok := byID[match.ServiceID]
		if !ok {
			m.logger.Debug("discarding unknown serviceId from model output", map[string]interface{}{
				"serviceId": match.ServiceID,
			})
			continue
		}

		score := int(math.Round(match.Score))
		if score < m.minScore {
			continue
		}

		// Only score and why come from the model; everything else is
		// enriched from the catalog snapshot.
		results = append(results, models.MatchResult{
			ServiceID:       svc.ID,
			BusinessID:      svc.BusinessID,
			BusinessName:    svc.BusinessName,
			ServiceTitle:    svc.Title,
			Category:        svc.Category,
			Industry:        svc.Industry,
			Score:           score,
			Why:             match.Why,
			RatingValue:     svc.Business.AvgRating,
			RatingCount:     svc.Business.RatingCount,
			IsVerified:      svc.Business.Verified,
			LocationCity:    svc.Business.LocationCity,
			LocationCountry: svc.Business.LocationCountry,
			MinBudget:       svc.MinBudget,
			MaxBudget:       svc.MaxBudget,
			Skills:          svc.Skills,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// malformedError marks a response that answered 200 but violated the schema.
type malformedError struct {
	err error
}

func (e *malformedError) Error() string { return "malformed model response: " + e.err.Error() }
func (e *malformedError) Unwrap() error { return e.err }

func errMalformed(err error) error {
	return &malformedError{err: err}
}

// classifyFailure labels a remote failure for metrics and logs.
func classifyFailure(err error) string {
	var malformed *malformedError
	switch {
	case genai.IsRateLimited(err):
		return "rate_limited"
	case errors.Is(err, genai.ErrEmptyContent):
		return "empty_content"
	case errors.As(err, &malformed):
		return "malformed_response"
	default:
		var statusErr *genai.StatusError
		if errors.As(err, &statusErr) {
			return "http_error"
		}
		return "transport_error"
	}
}
