// Package request orchestrates the buyer flows: create-and-match, shortlist
// management and comparison. Every entry point takes the caller's principal
// and fails closed before touching any downstream dependency.
package request

import (
	"context"
	"strings"
	"time"

	apperrors "bizmatch/internal/common/errors"
	"bizmatch/internal/common/logger"
	"bizmatch/internal/common/observability"
	"bizmatch/internal/comparison"
	"bizmatch/internal/models"
)

// Catalog is the provider-service read side used by orchestration.
type Catalog interface {
	ListActive(ctx context.Context) ([]models.ServiceRecord, error)
	GetByID(ctx context.Context, id string) (*models.ServiceRecord, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.ServiceRecord, error)
}

// Requests is the buyer-request persistence used by orchestration.
type Requests interface {
	Create(ctx context.Context, req *models.Request) error
	GetByID(ctx context.Context, id string) (*models.Request, error)
	ListForBusiness(ctx context.Context, businessID string) ([]models.Request, error)
}

// Shortlists is the shortlist persistence used by orchestration.
type Shortlists interface {
	Upsert(ctx context.Context, item *models.ShortlistItem) error
	Delete(ctx context.Context, requestID, providerServiceID string) error
	ListForRequest(ctx context.Context, requestID string) ([]models.ShortlistItem, error)
	Members(ctx context.Context, requestID, buyerBusinessID string, serviceIDs []string) (map[string]struct{}, error)
	CountForRequest(ctx context.Context, requestID string) (int, error)
}

// Matcher scores the catalog against a brief.
type Matcher interface {
	Score(ctx context.Context, services []models.ServiceRecord, brief string) []models.MatchResult
}

// Comparator builds the comparison for a request and its services.
type Comparator interface {
	Compare(ctx context.Context, request *models.Request, services []models.ServiceRecord) comparison.Result
}

// CreateInput is a new buyer request. Title is optional; a missing title is
// derived from the description.
type CreateInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	BudgetMin   *int    `json:"budgetMin"`
	BudgetMax   *int    `json:"budgetMax"`
	Industry    *string `json:"industry"`
	Timeline    *string `json:"timeline"`
}

// CreateOutput pairs the stored request with its fresh match ranking.
type CreateOutput struct {
	Request models.RequestSummary `json:"request"`
	Matches []models.MatchResult  `json:"matches"`
}

// Service wires the buyer flows together.
type Service struct {
	catalog    Catalog
	requests   Requests
	shortlists Shortlists
	matcher    Matcher
	comparator Comparator
	obs        *observability.Observability
	logger     logger.Logger
}

func NewService(catalog Catalog, requests Requests, shortlists Shortlists, matcher Matcher, comparator Comparator, obs *observability.Observability, log logger.Logger) *Service {
	return &Service{
		catalog:    catalog,
		requests:   requests,
		shortlists: shortlists,
		matcher:    matcher,
		comparator: comparator,
		obs:        obs,
		logger:     log.WithFields(map[string]interface{}{"component": "request"}),
	}
}

// deriveTitle falls back to a description prefix when no title was given.
func deriveTitle(input CreateInput) string {
	if t := strings.TrimSpace(input.Title); t != "" {
		return t
	}
	if len(input.Description) > 80 {
		return input.Description[:77] + "..."
	}
	return input.Description
}

// CreateAndMatch stores the request in MATCHING and scores the full active
// catalog against its description in the same call.
func (s *Service) CreateAndMatch(ctx context.Context, principal models.Principal, input CreateInput) (*CreateOutput, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description is required")
	}

	req := &models.Request{
		BusinessID:  principal.BusinessID,
		Title:       deriveTitle(input),
		Description: input.Description,
		BudgetMin:   input.BudgetMin,
		BudgetMax:   input.BudgetMax,
		Industry:    input.Industry,
		Timeline:    input.Timeline,
		Status:      models.RequestStatusMatching,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	services, err := s.catalog.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	matches := s.matcher.Score(ctx, services, input.Description)
	s.obs.RecordInvocation(ctx, "match", "completed")
	s.obs.RecordDuration(ctx, "match", time.Since(start))

	s.logger.Info("request created and matched", map[string]interface{}{
		"requestId":    req.ID,
		"catalogSize":  len(services),
		"matchesFound": len(matches),
	})

	return &CreateOutput{Request: req.Summary(), Matches: matches}, nil
}

// ListMine returns the caller's requests, newest first.
func (s *Service) ListMine(ctx context.Context, principal models.Principal) ([]models.RequestSummary, error) {
	requests, err := s.requests.ListForBusiness(ctx, principal.BusinessID)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.RequestSummary, 0, len(requests))
	for i := range requests {
		summaries = append(summaries, requests[i].Summary())
	}
	return summaries, nil
}

// ownRequest loads a request and verifies the principal owns it. Every
// shortlist and comparison call goes through this gate first.
func (s *Service) ownRequest(ctx context.Context, principal models.Principal, requestID string) (*models.Request, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.BusinessID != principal.BusinessID {
		return nil, apperrors.NewForbiddenError("not allowed to access this request")
	}
	return req, nil
}

// AddToShortlist saves a service on the request's shortlist. Re-adding an
// existing member succeeds without duplicating it.
func (s *Service) AddToShortlist(ctx context.Context, principal models.Principal, requestID, providerServiceID string) (*models.ShortlistItem, error) {
	if _, err := s.ownRequest(ctx, principal, requestID); err != nil {
		return nil, err
	}

	service, err := s.catalog.GetByID(ctx, providerServiceID)
	if err != nil {
		return nil, err
	}

	item := &models.ShortlistItem{
		RequestID:          requestID,
		BuyerBusinessID:    principal.BusinessID,
		ProviderBusinessID: service.BusinessID,
		ProviderServiceID:  service.ID,

		ProviderBusinessName: service.BusinessName,
		ServiceTitle:         service.Title,
		Category:             service.Category,
		Industry:             service.Industry,
	}
	if err := s.shortlists.Upsert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveFromShortlist removes a service from the shortlist. Removing an
// absent member is a successful no-op.
func (s *Service) RemoveFromShortlist(ctx context.Context, principal models.Principal, requestID, providerServiceID string) error {
	if _, err := s.ownRequest(ctx, principal, requestID); err != nil {
		return err
	}
	return s.shortlists.Delete(ctx, requestID, providerServiceID)
}

// ListShortlist returns the request's shortlist, newest first.
func (s *Service) ListShortlist(ctx context.Context, principal models.Principal, requestID string) ([]models.ShortlistItem, error) {
	if _, err := s.ownRequest(ctx, principal, requestID); err != nil {
		return nil, err
	}
	return s.shortlists.ListForRequest(ctx, requestID)
}

// Compare builds the comparison for a subset of the request's shortlist.
// Every requested id must be shortlisted, and at least two services must
// still resolve in the catalog; otherwise the whole call fails with no
// partial result.
func (s *Service) Compare(ctx context.Context, principal models.Principal, requestID string, serviceIDs []string) (*models.ComparisonResult, error) {
	if len(serviceIDs) == 0 {
		return nil, apperrors.NewValidationError("at least one service id is required")
	}

	req, err := s.ownRequest(ctx, principal, requestID)
	if err != nil {
		return nil, err
	}

	members, err := s.shortlists.Members(ctx, requestID, principal.BusinessID, serviceIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range serviceIDs {
		if _, ok := members[id]; !ok {
			return nil, apperrors.NewValidationError("you can only compare services that are shortlisted for this request")
		}
	}

	services, err := s.catalog.GetByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}
	// Shortlisted services can disappear from the catalog between the
	// membership check and the load; re-check cardinality on what resolved.
	if len(services) < 2 {
		return nil, apperrors.NewValidationError("please select at least two shortlisted services to compare")
	}

	total, err := s.shortlists.CountForRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := s.comparator.Compare(ctx, req, services)
	s.obs.RecordInvocation(ctx, "comparison", "completed")
	s.obs.RecordDuration(ctx, "comparison", time.Since(start))

	return &models.ComparisonResult{
		RequestID:          req.ID,
		RequestTitle:       req.Title,
		RequestDescription: req.Description,
		ShortlistedCount:   total,
		Services:           result.Services,
		Recommendation:     result.Recommendation,
	}, nil
}
