// Package matching ranks a catalog of provider services against a buyer brief.
//
// Two scorers share one contract: the remote scorer asks the text-generation
// endpoint for a 0-100 relevance judgment, the lexical scorer counts token
// overlap. The remote scorer falls back to the lexical one whenever the
// endpoint is unconfigured, unreachable, or returns a malformed shape, so a
// match call always produces a usable ranking.
package matching

import (
	"sort"
	"strings"

	"bizmatch/internal/models"
)

// LexicalScore ranks services by distinct-token overlap with the brief.
// Services with zero overlap are excluded entirely, not ranked last. The
// function is pure: no I/O, no side effects, total for any input including
// the empty string.
func LexicalScore(services []models.ServiceRecord, brief string) []models.MatchResult {
	// Distinct brief tokens in first-seen order; duplicates in the brief
	// count toward overlap only once.
	seen := make(map[string]struct{})
	var briefTokens []string
	for _, t := range tokenize(brief) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		briefTokens = append(briefTokens, t)
	}

	results := make([]models.MatchResult, 0, len(services))
	for _, svc := range services {
		parts := []string{svc.Title, svc.Description, svc.Category}
		if svc.Industry != nil {
			parts = append(parts, *svc.Industry)
		}
		parts = append(parts, svc.Skills...)

		serviceSet := make(map[string]struct{})
		for _, t := range tokenize(strings.Join(parts, " ")) {
			serviceSet[t] = struct{}{}
		}

		// Overlap is the set intersection of distinct tokens, kept in
		// brief order for the explanation.
		var overlap []string
		for _, t := range briefTokens {
			if _, ok := serviceSet[t]; ok {
				overlap = append(overlap, t)
			}
		}

		if len(overlap) == 0 {
			continue
		}

		shown := overlap
		if len(shown) > 5 {
			shown = shown[:5]
		}

		results = append(results, models.MatchResult{
			ServiceID:    svc.ID,
			BusinessID:   svc.BusinessID,
			BusinessName: svc.BusinessName,
			ServiceTitle: svc.Title,
			Category:     svc.Category,
			Industry:     svc.Industry,
			Score:        len(overlap),
			Why:          "Matches on: " + strings.Join(shown, ", "),

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

	return results
}

// tokenize lower-cases text, strips every non-alphanumeric rune to a space
// and splits on whitespace. Duplicates are preserved; callers dedupe.
func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, lowered)
	return strings.Fields(cleaned)
}
