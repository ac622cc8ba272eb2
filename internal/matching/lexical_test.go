package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizmatch/internal/models"
)

func strPtr(s string) *string { return &s }

func sampleCatalog() []models.ServiceRecord {
	return []models.ServiceRecord{
		{
			ID:           "svc-nlp",
			BusinessID:   "biz-1",
			BusinessName: "Lingua Labs",
			Title:        "NLP Consulting",
			Description:  "We build natural language processing pipelines and chatbots.",
			Category:     "AI & Machine Learning",
			Industry:     strPtr("Technology"),
			Skills:       []string{"nlp", "python", "chatbots"},
		},
		{
			ID:           "svc-logo",
			BusinessID:   "biz-2",
			BusinessName: "Pixel Forge",
			Title:        "Logo Design",
			Description:  "Brand identity and logo design for startups.",
			Category:     "Design",
			Industry:     strPtr("Creative"),
			Skills:       []string{"branding", "illustrator"},
		},
		{
			ID:           "svc-web",
			BusinessID:   "biz-3",
			BusinessName: "Webwrights",
			Title:        "Web Development",
			Description:  "Full stack web development with modern frameworks.",
			Category:     "Software Development",
			Industry:     strPtr("Technology"),
			Skills:       []string{"react", "golang", "postgres"},
		},
	}
}

func TestLexicalScore(t *testing.T) {
	tests := []struct {
		name           string
		brief          string
		validateOutput func(t *testing.T, results []models.MatchResult)
	}{
		{
			name:  "nlp brief ranks nlp service first",
			brief: "We need NLP and natural language processing chatbots in python",
			validateOutput: func(t *testing.T, results []models.MatchResult) {
				require.NotEmpty(t, results)
				assert.Equal(t, "svc-nlp", results[0].ServiceID)
				for i := 1; i < len(results); i++ {
					assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
				}
			},
		},
		{
			name:  "unrelated brief yields empty result",
			brief: "Catering buffet menus wedding cake",
			validateOutput: func(t *testing.T, results []models.MatchResult) {
				assert.Empty(t, results)
			},
		},
		{
			name:  "empty brief yields empty result",
			brief: "",
			validateOutput: func(t *testing.T, results []models.MatchResult) {
				assert.Empty(t, results)
			},
		},
		{
			name:  "zero overlap services are excluded",
			brief: "logo branding for our startup",
			validateOutput: func(t *testing.T, results []models.MatchResult) {
				for _, r := range results {
					assert.NotEqual(t, "svc-nlp", r.ServiceID)
					assert.Greater(t, r.Score, 0)
				}
			},
		},
		{
			name:  "explanation names at most five matched tokens",
			brief: "web development full stack modern frameworks react golang postgres",
			validateOutput: func(t *testing.T, results []models.MatchResult) {
				require.NotEmpty(t, results)
				top := results[0]
				assert.Equal(t, "svc-web", top.ServiceID)
				assert.Contains(t, top.Why, "Matches on: ")
				// First five matched tokens in brief order, even though
				// more overlap.
				assert.Equal(t, "Matches on: web, development, full, stack, modern", top.Why)
				assert.Greater(t, top.Score, 5)
			},
		},
		{
			name:  "duplicate brief tokens count once",
			brief: "logo logo logo logo design",
			validateOutput: func(t *testing.T, results []models.MatchResult) {
				require.NotEmpty(t, results)
				assert.Equal(t, "svc-logo", results[0].ServiceID)
				assert.Equal(t, 2, results[0].Score)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := LexicalScore(sampleCatalog(), tt.brief)
			tt.validateOutput(t, results)
		})
	}
}

func TestLexicalScoreEnrichesCardFields(t *testing.T) {
	rating := 4.5
	city := "Berlin"
	services := sampleCatalog()
	services[0].Business = models.BusinessMeta{
		AvgRating:    &rating,
		RatingCount:  12,
		Verified:     true,
		LocationCity: &city,
	}

	results := LexicalScore(services, "nlp chatbots")
	require.Len(t, results, 1)
	assert.Equal(t, &rating, results[0].RatingValue)
	assert.Equal(t, 12, results[0].RatingCount)
	assert.True(t, results[0].IsVerified)
	assert.Equal(t, &city, results[0].LocationCity)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"b2b", "saas", "app"}, tokenize("B2B, SaaS/app!"))
	assert.Empty(t, tokenize("  ...  "))
}
