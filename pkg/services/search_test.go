package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hindsightlog/hindsight/pkg/apperrors"
	"github.com/hindsightlog/hindsight/pkg/models"
)

// mockDecisionRepository is a configurable mock for service tests.
type mockDecisionRepository struct {
	decisions   []models.Decision
	total       int
	searchErr   error
	metadata    *models.FilterMetadata
	metadataErr error

	searchedParams *models.SearchParams
	created        *models.Decision
	deletedID      uuid.UUID
	createErr      error
	updateErr      error
	deleteErr      error
}

func (m *mockDecisionRepository) Create(ctx context.Context, decision *models.Decision) error {
	m.created = decision
	if m.createErr != nil {
		return m.createErr
	}
	decision.ID = uuid.New()
	return nil
}

func (m *mockDecisionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Decision, error) {
	return &models.Decision{ID: id, Tags: []string{}}, nil
}

func (m *mockDecisionRepository) Update(ctx context.Context, id uuid.UUID, update *models.DecisionUpdate) (*models.Decision, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &models.Decision{ID: id, Tags: []string{}}, nil
}

func (m *mockDecisionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.deletedID = id
	return m.deleteErr
}

func (m *mockDecisionRepository) Search(ctx context.Context, params *models.SearchParams) ([]models.Decision, int, error) {
	m.searchedParams = params
	if m.searchErr != nil {
		return nil, 0, m.searchErr
	}
	return m.decisions, m.total, nil
}

func (m *mockDecisionRepository) FilterMetadata(ctx context.Context) (*models.FilterMetadata, error) {
	if m.metadataErr != nil {
		return nil, m.metadataErr
	}
	if m.metadata != nil {
		return m.metadata, nil
	}
	return models.EmptyFilterMetadata(), nil
}

func newTestSearchService(repo *mockDecisionRepository) SearchService {
	return NewSearchService(repo, nil, nil, zap.NewNop())
}

func intPtr(v int) *int { return &v }

func TestSearchService_DefaultsAppliedWhenOmitted(t *testing.T) {
	repo := &mockDecisionRepository{}
	svc := newTestSearchService(repo)

	result, err := svc.Search(context.Background(), &models.SearchParams{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Limit != models.DefaultLimit {
		t.Errorf("expected default limit %d, got %d", models.DefaultLimit, result.Limit)
	}
	if result.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", result.Offset)
	}
	p := repo.searchedParams
	if p.Sort != models.SortDateDesc {
		t.Errorf("expected default sort date-desc, got %q", p.Sort)
	}
	if p.OutcomeStatus != models.OutcomeAll {
		t.Errorf("expected default outcome_status all, got %q", p.OutcomeStatus)
	}
}

func TestSearchService_ClampsInsteadOfRejecting(t *testing.T) {
	repo := &mockDecisionRepository{}
	svc := newTestSearchService(repo)

	params := &models.SearchParams{
		Limit:  intPtr(500),
		Offset: intPtr(-10),
	}
	result, err := svc.Search(context.Background(), params, nil)
	if err != nil {
		t.Fatalf("out-of-range paging must be corrected, not rejected: %v", err)
	}

	if result.Limit != models.MaxLimit {
		t.Errorf("expected limit capped to %d, got %d", models.MaxLimit, result.Limit)
	}
	if result.Offset != 0 {
		t.Errorf("expected negative offset clamped to 0, got %d", result.Offset)
	}
}

func TestSearchService_CollectsAllViolations(t *testing.T) {
	svc := newTestSearchService(&mockDecisionRepository{})

	params := &models.SearchParams{
		Category:      "nonsense",
		ConfidenceMin: intPtr(11),
		Sort:          "bogus",
	}
	_, err := svc.Search(context.Background(), params, nil)
	if err == nil {
		t.Fatal("expected a validation error")
	}

	var validationErr *apperrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if len(validationErr.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v",
			len(validationErr.Violations), validationErr.Violations)
	}

	fields := map[string]bool{}
	for _, v := range validationErr.Violations {
		fields[v.Field] = true
	}
	for _, f := range []string{"category", "confidence_min", "sort"} {
		if !fields[f] {
			t.Errorf("expected a violation for %q, got %v", f, validationErr.Violations)
		}
	}
}

func TestSearchService_MergesParseViolations(t *testing.T) {
	svc := newTestSearchService(&mockDecisionRepository{})

	params := &models.SearchParams{Category: "nonsense"}
	parseViolations := []apperrors.FieldViolation{
		{Field: "limit", Message: "must be an integer"},
	}
	_, err := svc.Search(context.Background(), params, parseViolations)

	var validationErr *apperrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validationErr.Violations) != 2 {
		t.Errorf("expected parse and semantic violations merged into 2, got %v",
			validationErr.Violations)
	}
}

func TestSearchService_ConfidenceRangeCrossField(t *testing.T) {
	svc := newTestSearchService(&mockDecisionRepository{})

	params := &models.SearchParams{
		ConfidenceMin: intPtr(8),
		ConfidenceMax: intPtr(3),
	}
	_, err := svc.Search(context.Background(), params, nil)

	var validationErr *apperrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validationErr.Violations) != 1 || validationErr.Violations[0].Field != "confidence_min" {
		t.Errorf("expected one confidence_min violation, got %v", validationErr.Violations)
	}
}

func TestSearchService_RelevanceWithoutQueryFallsBack(t *testing.T) {
	repo := &mockDecisionRepository{}
	svc := newTestSearchService(repo)

	params := &models.SearchParams{Sort: models.SortRelevance}
	if _, err := svc.Search(context.Background(), params, nil); err != nil {
		t.Fatalf("relevance without a query is a silent correction, got error: %v", err)
	}
	if repo.searchedParams.Sort != models.SortDateDesc {
		t.Errorf("expected sort rewritten to date-desc, got %q", repo.searchedParams.Sort)
	}

	// With a query, relevance passes through.
	repo2 := &mockDecisionRepository{}
	svc2 := newTestSearchService(repo2)
	params2 := &models.SearchParams{Search: "postgres", Sort: models.SortRelevance}
	if _, err := svc2.Search(context.Background(), params2, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo2.searchedParams.Sort != models.SortRelevance {
		t.Errorf("expected relevance sort preserved, got %q", repo2.searchedParams.Sort)
	}
}

func TestSearchService_RelevanceDefaultWithQuery(t *testing.T) {
	repo := &mockDecisionRepository{}
	svc := newTestSearchService(repo)

	params := &models.SearchParams{Search: "postgres"}
	if _, err := svc.Search(context.Background(), params, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.searchedParams.Sort != models.SortRelevance {
		t.Errorf("expected sort to default to relevance with a query, got %q", repo.searchedParams.Sort)
	}
}

func TestSearchService_NormalizesTags(t *testing.T) {
	repo := &mockDecisionRepository{}
	svc := newTestSearchService(repo)

	params := &models.SearchParams{Tags: []string{" go ", "go", "", "db"}}
	if _, err := svc.Search(context.Background(), params, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tags := repo.searchedParams.Tags
	if len(tags) != 2 || tags[0] != "go" || tags[1] != "db" {
		t.Errorf("expected normalized tags [go db], got %v", tags)
	}
}

func TestSearchService_HasMoreArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		offset  int
		page    int
		total   int
		hasMore bool
	}{
		{"first page of many", 0, 20, 45, true},
		{"last full page", 40, 5, 45, false},
		{"exact boundary", 20, 20, 40, false},
		{"empty result", 0, 0, 0, false},
		{"offset beyond total", 100, 0, 45, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockDecisionRepository{
				decisions: make([]models.Decision, tt.page),
				total:     tt.total,
			}
			svc := newTestSearchService(repo)

			params := &models.SearchParams{Offset: intPtr(tt.offset)}
			result, err := svc.Search(context.Background(), params, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.HasMore != tt.hasMore {
				t.Errorf("offset=%d page=%d total=%d: expected hasMore=%v, got %v",
					tt.offset, tt.page, tt.total, tt.hasMore, result.HasMore)
			}
			if result.Total != tt.total {
				t.Errorf("expected total %d, got %d", tt.total, result.Total)
			}
		})
	}
}

func TestSearchService_EmptyResultIsSuccess(t *testing.T) {
	svc := newTestSearchService(&mockDecisionRepository{})

	result, err := svc.Search(context.Background(), &models.SearchParams{Search: "nomatch"}, nil)
	if err != nil {
		t.Fatalf("an empty result is a successful search: %v", err)
	}
	if result.Results == nil {
		t.Error("results must be an empty slice, not nil")
	}
	if result.Metadata == nil {
		t.Error("metadata must be present even on an empty result")
	}
}

func TestSearchService_StoreFailureIsRetryable(t *testing.T) {
	repo := &mockDecisionRepository{searchErr: errors.New("connection refused")}
	svc := newTestSearchService(repo)

	_, err := svc.Search(context.Background(), &models.SearchParams{}, nil)
	if !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSearchService_MetadataFailureDoesNotFailSearch(t *testing.T) {
	repo := &mockDecisionRepository{
		decisions:   []models.Decision{{ID: uuid.New()}},
		total:       1,
		metadataErr: errors.New("aggregate timeout"),
	}
	svc := newTestSearchService(repo)

	result, err := svc.Search(context.Background(), &models.SearchParams{}, nil)
	if err != nil {
		t.Fatalf("metadata failure must not fail the search: %v", err)
	}
	if result.Metadata == nil {
		t.Fatal("expected fallback metadata, got nil")
	}
	if len(result.Metadata.AvailableCategories) != 0 {
		t.Errorf("expected empty fallback metadata, got %+v", result.Metadata)
	}
	if result.Total != 1 {
		t.Errorf("page results must survive the metadata failure, got total %d", result.Total)
	}
}

func TestSearchService_SearchLengthLimit(t *testing.T) {
	svc := newTestSearchService(&mockDecisionRepository{})

	long := make([]byte, models.MaxSearchLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := svc.Search(context.Background(), &models.SearchParams{Search: string(long)}, nil)

	var validationErr *apperrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for oversized search, got %v", err)
	}
	if validationErr.Violations[0].Field != "search" {
		t.Errorf("expected search violation, got %v", validationErr.Violations)
	}
}

func TestSearchService_TooManyTagFilters(t *testing.T) {
	svc := newTestSearchService(&mockDecisionRepository{})

	tags := make([]string, models.MaxTagFilters+1)
	for i := range tags {
		tags[i] = "tag" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	_, err := svc.Search(context.Background(), &models.SearchParams{Tags: tags}, nil)

	var validationErr *apperrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for too many tags, got %v", err)
	}
}
