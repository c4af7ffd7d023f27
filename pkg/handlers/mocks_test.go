package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/hindsightlog/hindsight/pkg/apperrors"
	"github.com/hindsightlog/hindsight/pkg/models"
)

// mockDecisionService is a configurable mock for all handler tests.
type mockDecisionService struct {
	decision *models.Decision
	err      error

	createdReq    *models.CreateDecisionRequest
	updatedID     uuid.UUID
	updatedFields *models.DecisionUpdate
	deletedID     uuid.UUID
}

func (m *mockDecisionService) Create(ctx context.Context, req *models.CreateDecisionRequest) (*models.Decision, error) {
	m.createdReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.decision != nil {
		return m.decision, nil
	}
	return &models.Decision{
		ID:       uuid.New(),
		Title:    req.Title,
		Category: req.Category,
		Tags:     []string{},
	}, nil
}

func (m *mockDecisionService) Get(ctx context.Context, id uuid.UUID) (*models.Decision, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.decision != nil {
		return m.decision, nil
	}
	return &models.Decision{ID: id, Title: "Test Decision", Tags: []string{}}, nil
}

func (m *mockDecisionService) Update(ctx context.Context, id uuid.UUID, update *models.DecisionUpdate) (*models.Decision, error) {
	m.updatedID = id
	m.updatedFields = update
	if m.err != nil {
		return nil, m.err
	}
	if m.decision != nil {
		return m.decision, nil
	}
	return &models.Decision{ID: id, Title: "Updated Decision", Tags: []string{}}, nil
}

func (m *mockDecisionService) Delete(ctx context.Context, id uuid.UUID) error {
	m.deletedID = id
	return m.err
}

func (m *mockDecisionService) Categories() []string {
	return models.ValidCategories
}

// mockSearchService records the params and parse violations it receives and
// returns a canned result.
type mockSearchService struct {
	result *models.SearchResult
	err    error

	receivedParams     *models.SearchParams
	receivedViolations []apperrors.FieldViolation
}

func (m *mockSearchService) Search(ctx context.Context, params *models.SearchParams, parseViolations []apperrors.FieldViolation) (*models.SearchResult, error) {
	m.receivedParams = params
	m.receivedViolations = parseViolations
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &models.SearchResult{
		Results:  []models.Decision{},
		Total:    0,
		HasMore:  false,
		Limit:    models.DefaultLimit,
		Offset:   0,
		Metadata: models.EmptyFilterMetadata(),
	}, nil
}
