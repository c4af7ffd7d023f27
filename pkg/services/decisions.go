package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hindsightlog/hindsight/pkg/apperrors"
	"github.com/hindsightlog/hindsight/pkg/models"
	"github.com/hindsightlog/hindsight/pkg/repositories"
)

// DecisionService is the write path plus point reads for decision records.
// The search_vector maintained by the database trigger is recomputed inside
// the same statement as every mutation, so there is never a window where
// search results disagree with a record's current fields.
type DecisionService interface {
	Create(ctx context.Context, req *models.CreateDecisionRequest) (*models.Decision, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Decision, error)
	Update(ctx context.Context, id uuid.UUID, update *models.DecisionUpdate) (*models.Decision, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Categories returns the currently valid category set for form UI.
	Categories() []string
}

type decisionService struct {
	repo   repositories.DecisionRepository
	cache  *MetadataCache
	logger *zap.Logger
}

// NewDecisionService creates the decision service. cache may be nil.
func NewDecisionService(repo repositories.DecisionRepository, cache *MetadataCache, logger *zap.Logger) DecisionService {
	return &decisionService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

var _ DecisionService = (*decisionService)(nil)

func (s *decisionService) Create(ctx context.Context, req *models.CreateDecisionRequest) (*models.Decision, error) {
	req.Tags = models.NormalizeTags(req.Tags)
	if err := apperrors.NewValidationError(collectViolations(req)); err != nil {
		return nil, err
	}

	decision := req.ToDecision()
	if err := s.repo.Create(ctx, decision); err != nil {
		s.logger.Error("Failed to create decision", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}

	s.cache.Invalidate(ctx)

	s.logger.Info("Decision logged",
		zap.String("id", decision.ID.String()),
		zap.String("category", decision.Category))
	return decision, nil
}

func (s *decisionService) Get(ctx context.Context, id uuid.UUID) (*models.Decision, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *decisionService) Update(ctx context.Context, id uuid.UUID, update *models.DecisionUpdate) (*models.Decision, error) {
	if update.IsEmpty() {
		return nil, apperrors.NewValidationError([]apperrors.FieldViolation{
			{Field: "request", Message: "update must change at least one field"},
		})
	}

	if err := apperrors.NewValidationError(s.validateUpdate(update)); err != nil {
		return nil, err
	}

	decision, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)

	s.logger.Info("Decision updated", zap.String("id", id.String()))
	return decision, nil
}

// validateUpdate checks only the fields the update provides, collecting
// every violation.
func (s *decisionService) validateUpdate(update *models.DecisionUpdate) []apperrors.FieldViolation {
	var violations []apperrors.FieldViolation

	if update.Title != nil && (*update.Title == "" || len(*update.Title) > 200) {
		violations = append(violations, apperrors.FieldViolation{
			Field: "title", Message: "must be between 1 and 200 characters",
		})
	}
	if update.Context != nil && *update.Context == "" {
		violations = append(violations, apperrors.FieldViolation{
			Field: "context", Message: "must not be empty",
		})
	}
	if update.Reasoning != nil && *update.Reasoning == "" {
		violations = append(violations, apperrors.FieldViolation{
			Field: "reasoning", Message: "must not be empty",
		})
	}
	if update.Category != nil && !models.IsValidCategory(*update.Category) {
		violations = append(violations, apperrors.FieldViolation{
			Field: "category", Message: "must be one of: " + strings.Join(models.ValidCategories, ", "),
		})
	}
	if update.Tags != nil && len(models.NormalizeTags(update.Tags)) > models.MaxTagFilters {
		violations = append(violations, apperrors.FieldViolation{
			Field: "tags", Message: "must have at most 20 entries",
		})
	}
	if update.Confidence.Present && update.Confidence.Value != nil {
		if v := *update.Confidence.Value; v < 1 || v > 10 {
			violations = append(violations, apperrors.FieldViolation{
				Field: "confidence", Message: "must be between 1 and 10",
			})
		}
	}
	if update.OutcomeStatus != nil {
		switch *update.OutcomeStatus {
		case models.OutcomePending, models.OutcomeSuccess, models.OutcomeFailed:
		default:
			violations = append(violations, apperrors.FieldViolation{
				Field: "outcome_status", Message: "must be one of: pending, success, failed",
			})
		}
	}

	return violations
}

func (s *decisionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Invalidate(ctx)

	s.logger.Info("Decision deleted", zap.String("id", id.String()))
	return nil
}

func (s *decisionService) Categories() []string {
	categories := make([]string, len(models.ValidCategories))
	copy(categories, models.ValidCategories)
	return categories
}
