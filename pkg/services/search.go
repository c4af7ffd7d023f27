package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hindsightlog/hindsight/pkg/apperrors"
	"github.com/hindsightlog/hindsight/pkg/audit"
	"github.com/hindsightlog/hindsight/pkg/models"
	"github.com/hindsightlog/hindsight/pkg/repositories"
	sqlcheck "github.com/hindsightlog/hindsight/pkg/sql"
)

// SearchService is the read path over the decision store: it validates and
// sanitizes a filter request, composes it into one bounded query, and shapes
// the response into a page of results plus filter metadata.
//
// It is stateless and safe for unbounded concurrent use; the only shared
// resource is the connection pool underneath the repository. It never
// retries: a store failure surfaces as ErrStoreUnavailable and retry policy
// belongs to the caller.
type SearchService interface {
	// Search executes one filter request. parseViolations carries any
	// type-coercion failures the transport layer collected (non-integer
	// limit, non-boolean flagged); they are merged with semantic violations
	// so the caller receives every problem in a single response.
	Search(ctx context.Context, params *models.SearchParams, parseViolations []apperrors.FieldViolation) (*models.SearchResult, error)
}

type searchService struct {
	repo    repositories.DecisionRepository
	cache   *MetadataCache
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewSearchService creates the search service. cache may be nil (metadata is
// read from the database on every request); auditor may be nil (no security
// audit events).
func NewSearchService(
	repo repositories.DecisionRepository,
	cache *MetadataCache,
	auditor *audit.SecurityAuditor,
	logger *zap.Logger,
) SearchService {
	return &searchService{
		repo:    repo,
		cache:   cache,
		auditor: auditor,
		logger:  logger,
	}
}

var _ SearchService = (*searchService)(nil)

func (s *searchService) Search(ctx context.Context, params *models.SearchParams, parseViolations []apperrors.FieldViolation) (*models.SearchResult, error) {
	// Silent corrections first: they never appear in the error list.
	s.normalize(params)

	// Detect-and-log only. Parameters are always bound and the FTS primitive
	// tolerates arbitrary punctuation, so a hit does not reject the request.
	s.auditInjection(ctx, params)

	violations := append(parseViolations, collectViolations(params)...)
	if params.ConfidenceMin != nil && params.ConfidenceMax != nil &&
		*params.ConfidenceMin > *params.ConfidenceMax {
		violations = append(violations, apperrors.FieldViolation{
			Field:   "confidence_min",
			Message: "must not exceed confidence_max",
		})
	}
	if err := apperrors.NewValidationError(violations); err != nil {
		return nil, err
	}

	results, total, err := s.repo.Search(ctx, params)
	if err != nil {
		s.logger.Error("Decision search failed", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}

	// The response shape promises a results array; don't rely on the
	// repository to hand back a non-nil slice.
	if results == nil {
		results = []models.Decision{}
	}

	limit := *params.Limit
	offset := *params.Offset

	return &models.SearchResult{
		Results:  results,
		Total:    total,
		HasMore:  offset+len(results) < total,
		Limit:    limit,
		Offset:   offset,
		Metadata: s.filterMetadata(ctx),
	}, nil
}

// normalize applies the documented silent corrections before validation:
// trimming, tag dedup, limit capping, offset clamping, and the
// relevance-without-query sort fallback.
func (s *searchService) normalize(params *models.SearchParams) {
	params.Search = strings.TrimSpace(params.Search)
	params.Project = strings.TrimSpace(params.Project)
	params.Tags = models.NormalizeTags(params.Tags)

	if params.Limit == nil {
		limit := models.DefaultLimit
		params.Limit = &limit
	} else if *params.Limit > models.MaxLimit {
		capped := models.MaxLimit
		params.Limit = &capped
	}

	if params.Offset == nil || *params.Offset < 0 {
		zero := 0
		params.Offset = &zero
	}

	if params.OutcomeStatus == "" {
		params.OutcomeStatus = models.OutcomeAll
	}

	switch {
	case params.Sort == "":
		if params.HasSearch() {
			params.Sort = models.SortRelevance
		} else {
			params.Sort = models.SortDateDesc
		}
	case params.Sort == models.SortRelevance && !params.HasSearch():
		// Documented non-error fallback: relevance without a query term
		// means newest first.
		params.Sort = models.SortDateDesc
	}
}

// auditInjection scans the free-text filter fields and emits a security
// event per detection.
func (s *searchService) auditInjection(ctx context.Context, params *models.SearchParams) {
	if s.auditor == nil {
		return
	}
	for _, result := range sqlcheck.CheckFilterValues(map[string]string{
		"search":  params.Search,
		"project": params.Project,
	}) {
		s.auditor.LogInjectionAttempt(ctx, audit.InjectionDetails{
			Field:       result.Field,
			Value:       result.Value,
			Fingerprint: result.Fingerprint,
		}, clientIPFromContext(ctx))
	}
}

// filterMetadata returns the metadata side channel, computed over the full
// unfiltered store. It never errors: a failed aggregate query after a
// successful page query logs a warning and returns empty collections.
func (s *searchService) filterMetadata(ctx context.Context) *models.FilterMetadata {
	if metadata, ok := s.cache.Get(ctx); ok {
		return metadata
	}

	metadata, err := s.repo.FilterMetadata(ctx)
	if err != nil {
		s.logger.Warn("Filter metadata aggregation failed", zap.Error(err))
		return models.EmptyFilterMetadata()
	}

	s.cache.Set(ctx, metadata)
	return metadata
}

// clientIPContextKey carries the remote address from the transport layer for
// audit events.
type clientIPContextKey struct{}

// WithClientIP annotates the context with the request's remote address.
func WithClientIP(ctx context.Context, remoteAddr string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, remoteAddr)
}

func clientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
