package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hindsightlog/hindsight/pkg/apperrors"
	"github.com/hindsightlog/hindsight/pkg/database"
	"github.com/hindsightlog/hindsight/pkg/models"
)

// DecisionRepository provides data access for the decisions table.
//
// Search composes every supplied filter into a single bounded query.
// Pagination is plain LIMIT/OFFSET: concurrent writes between two page
// fetches can skip or duplicate rows across pages. That instability is
// accepted; there is no cursor guarantee.
type DecisionRepository interface {
	Create(ctx context.Context, decision *models.Decision) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Decision, error)
	Update(ctx context.Context, id uuid.UUID, update *models.DecisionUpdate) (*models.Decision, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Search returns one page of matches plus the total match count over the
	// same predicate set. Both come from a single read-only transaction so
	// the count and the page see one snapshot.
	Search(ctx context.Context, params *models.SearchParams) ([]models.Decision, int, error)
	// FilterMetadata aggregates the distinct filterable values over the full
	// unfiltered store.
	FilterMetadata(ctx context.Context) (*models.FilterMetadata, error)
}

// decisionRepository implements DecisionRepository using PostgreSQL.
type decisionRepository struct {
	db *database.DB
}

// NewDecisionRepository creates a new decision repository.
func NewDecisionRepository(db *database.DB) DecisionRepository {
	return &decisionRepository{db: db}
}

var _ DecisionRepository = (*decisionRepository)(nil)

const decisionColumns = `id, title, context, reasoning, outcome_notes, category,
	       project_name, tags, confidence, outcome_success, flagged_for_review,
	       created_at, updated_at`

// ============================================================================
// CRUD Operations
// ============================================================================

func (r *decisionRepository) Create(ctx context.Context, decision *models.Decision) error {
	query := `
		INSERT INTO decisions (
			title, context, reasoning, outcome_notes, category,
			project_name, tags, confidence, outcome_success, flagged_for_review
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		decision.Title,
		decision.Context,
		decision.Reasoning,
		decision.OutcomeNotes,
		decision.Category,
		decision.ProjectName,
		decision.Tags,
		decision.Confidence,
		decision.OutcomeSuccess,
		decision.FlaggedForReview,
	).Scan(&decision.ID, &decision.CreatedAt, &decision.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create decision: %w", err)
	}

	return nil
}

func (r *decisionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE id = $1`

	decision, err := scanDecision(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return decision, nil
}

// Update applies the provided (non-nil) fields and bumps updated_at in one
// statement, returning the full updated row. The search_vector trigger fires
// on the same UPDATE, so the text-search representation can never lag the
// row it describes.
func (r *decisionRepository) Update(ctx context.Context, id uuid.UUID, update *models.DecisionUpdate) (*models.Decision, error) {
	set := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		add("title", strings.TrimSpace(*update.Title))
	}
	if update.Context != nil {
		add("context", *update.Context)
	}
	if update.Reasoning != nil {
		add("reasoning", *update.Reasoning)
	}
	if update.OutcomeNotes != nil {
		add("outcome_notes", *update.OutcomeNotes)
	}
	if update.Category != nil {
		add("category", *update.Category)
	}
	if update.ProjectName != nil {
		add("project_name", strings.TrimSpace(*update.ProjectName))
	}
	if update.Tags != nil {
		tags := models.NormalizeTags(update.Tags)
		if tags == nil {
			tags = []string{}
		}
		add("tags", tags)
	}
	if update.Confidence.Present {
		add("confidence", update.Confidence.Value)
	}
	if update.OutcomeStatus != nil {
		switch *update.OutcomeStatus {
		case models.OutcomeSuccess:
			v := true
			add("outcome_success", &v)
		case models.OutcomeFailed:
			v := false
			add("outcome_success", &v)
		case models.OutcomePending:
			add("outcome_success", (*bool)(nil))
		}
	}
	if update.FlaggedForReview != nil {
		add("flagged_for_review", *update.FlaggedForReview)
	}

	query := `UPDATE decisions SET ` + strings.Join(set, ", ") + `
		WHERE id = $1
		RETURNING ` + decisionColumns

	decision, err := scanDecision(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return decision, nil
}

func (r *decisionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM decisions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete decision: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ============================================================================
// Search
// ============================================================================

// searchQuery holds the composed WHERE clause and bind arguments shared by
// the count and page statements.
type searchQuery struct {
	where    string
	args     []any
	orderBy  string
	rankExpr string // non-empty when relevance ranking is active
}

// composeSearch translates validated search params into SQL fragments.
// Every filter is ANDed; tags use array overlap (OR within the tag list);
// the free-text predicate delegates tokenization, stemming, and ranking to
// websearch_to_tsquery and ts_rank.
func composeSearch(params *models.SearchParams) *searchQuery {
	q := &searchQuery{}
	var conditions []string

	arg := func(value any) int {
		q.args = append(q.args, value)
		return len(q.args)
	}

	if params.HasSearch() {
		n := arg(params.Search)
		conditions = append(conditions,
			fmt.Sprintf("search_vector @@ websearch_to_tsquery('english', $%d)", n))
		q.rankExpr = fmt.Sprintf("ts_rank(search_vector, websearch_to_tsquery('english', $%d))", n)
	}
	if params.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", arg(params.Category)))
	}
	if params.Project != "" {
		conditions = append(conditions, fmt.Sprintf("project_name = $%d", arg(params.Project)))
	}
	if len(params.Tags) > 0 {
		conditions = append(conditions, fmt.Sprintf("tags && $%d", arg(params.Tags)))
	}
	if params.ConfidenceMin != nil {
		conditions = append(conditions, fmt.Sprintf("confidence >= $%d", arg(*params.ConfidenceMin)))
	}
	if params.ConfidenceMax != nil {
		conditions = append(conditions, fmt.Sprintf("confidence <= $%d", arg(*params.ConfidenceMax)))
	}
	switch params.OutcomeStatus {
	case models.OutcomePending:
		conditions = append(conditions, "outcome_success IS NULL")
	case models.OutcomeSuccess:
		conditions = append(conditions, "outcome_success = TRUE")
	case models.OutcomeFailed:
		conditions = append(conditions, "outcome_success = FALSE")
	}
	if params.Flagged != nil {
		conditions = append(conditions, fmt.Sprintf("flagged_for_review = $%d", arg(*params.Flagged)))
	}

	if len(conditions) > 0 {
		q.where = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Every ordering ends in id so equal primary keys page deterministically.
	switch params.Sort {
	case models.SortRelevance:
		// The service guarantees relevance only reaches here with a search
		// term present.
		q.orderBy = q.rankExpr + " DESC, id ASC"
	case models.SortDateAsc:
		q.orderBy = "created_at ASC, id ASC"
	case models.SortConfidenceDesc:
		q.orderBy = "confidence DESC NULLS LAST, id ASC"
	case models.SortConfidenceAsc:
		q.orderBy = "confidence ASC NULLS LAST, id ASC"
	default:
		q.orderBy = "created_at DESC, id ASC"
	}

	return q
}

func (r *decisionRepository) Search(ctx context.Context, params *models.SearchParams) ([]models.Decision, int, error) {
	q := composeSearch(params)

	limit := models.DefaultLimit
	if params.Limit != nil {
		limit = *params.Limit
	}
	offset := 0
	if params.Offset != nil {
		offset = *params.Offset
	}

	// One read-only transaction so total and page come from the same
	// snapshot.
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin search transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int
	countQuery := `SELECT COUNT(*) FROM decisions` + q.where
	if err := tx.QueryRow(ctx, countQuery, q.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	pageArgs := append(append([]any{}, q.args...), limit, offset)
	pageQuery := fmt.Sprintf(`SELECT `+decisionColumns+` FROM decisions%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		q.where, q.orderBy, len(pageArgs)-1, len(pageArgs))

	rows, err := tx.Query(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	results := make([]models.Decision, 0, limit)
	for rows.Next() {
		decision, err := scanDecision(rows)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, *decision)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating decisions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("failed to commit search transaction: %w", err)
	}

	return results, total, nil
}

// ============================================================================
// Filter metadata
// ============================================================================

func (r *decisionRepository) FilterMetadata(ctx context.Context) (*models.FilterMetadata, error) {
	metadata := models.EmptyFilterMetadata()

	categories, err := r.queryDistinct(ctx,
		`SELECT DISTINCT category FROM decisions ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct categories: %w", err)
	}
	metadata.AvailableCategories = categories

	projects, err := r.queryDistinct(ctx,
		`SELECT DISTINCT project_name FROM decisions WHERE project_name <> '' ORDER BY project_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct projects: %w", err)
	}
	metadata.AvailableProjects = projects

	tags, err := r.queryDistinct(ctx,
		`SELECT DISTINCT unnest(tags) AS tag FROM decisions ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct tags: %w", err)
	}
	metadata.AvailableTags = tags

	var minConfidence, maxConfidence *int
	err = r.db.QueryRow(ctx,
		`SELECT MIN(confidence), MAX(confidence) FROM decisions`).
		Scan(&minConfidence, &maxConfidence)
	if err != nil {
		return nil, fmt.Errorf("failed to query confidence range: %w", err)
	}
	if minConfidence != nil && maxConfidence != nil {
		metadata.ConfidenceRange = &models.ConfidenceRange{Min: *minConfidence, Max: *maxConfidence}
	}

	var stats models.OutcomeStats
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE outcome_success IS NULL),
		       COUNT(*) FILTER (WHERE outcome_success = TRUE),
		       COUNT(*) FILTER (WHERE outcome_success = FALSE)
		FROM decisions`).
		Scan(&stats.Total, &stats.Pending, &stats.Success, &stats.Failed)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcome stats: %w", err)
	}
	if stats.Total > 0 {
		metadata.OutcomeStats = &stats
	}

	return metadata, nil
}

func (r *decisionRepository) queryDistinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// ============================================================================
// Helper Functions
// ============================================================================

func scanDecision(row pgx.Row) (*models.Decision, error) {
	var d models.Decision
	err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Context,
		&d.Reasoning,
		&d.OutcomeNotes,
		&d.Category,
		&d.ProjectName,
		&d.Tags,
		&d.Confidence,
		&d.OutcomeSuccess,
		&d.FlaggedForReview,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan decision: %w", err)
	}

	if d.Tags == nil {
		d.Tags = []string{}
	}

	return &d, nil
}
