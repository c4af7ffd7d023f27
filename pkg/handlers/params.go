package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hindsightlog/hindsight/pkg/apperrors"
	"github.com/hindsightlog/hindsight/pkg/models"
)

// ParseDecisionID extracts and validates the decision ID from the request
// path. Returns the parsed UUID and true on success, or uuid.Nil and false
// after writing an error response.
// Expects path parameter: id
func ParseDecisionID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_decision_id", "Invalid decision ID format"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// ParseSearchParams translates the query string into SearchParams.
// Type-coercion failures (non-integer limit, non-boolean flagged) do not
// abort parsing: they are collected as violations with the same field names
// the API documents, so they merge with semantic violations into one
// validation response.
func ParseSearchParams(r *http.Request) (*models.SearchParams, []apperrors.FieldViolation) {
	q := r.URL.Query()
	params := &models.SearchParams{
		Search:        q.Get("search"),
		Category:      q.Get("category"),
		Project:       q.Get("project"),
		OutcomeStatus: q.Get("outcome_status"),
		Sort:          q.Get("sort"),
	}
	var violations []apperrors.FieldViolation

	if raw := q.Get("tags"); raw != "" {
		params.Tags = strings.Split(raw, ",")
	}

	parseIntField := func(name string) *int {
		raw := q.Get(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			violations = append(violations, apperrors.FieldViolation{
				Field: name, Message: "must be an integer",
			})
			return nil
		}
		return &v
	}

	params.ConfidenceMin = parseIntField("confidence_min")
	params.ConfidenceMax = parseIntField("confidence_max")
	params.Limit = parseIntField("limit")
	params.Offset = parseIntField("offset")

	if raw := q.Get("flagged"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			violations = append(violations, apperrors.FieldViolation{
				Field: "flagged", Message: "must be a boolean",
			})
		} else {
			params.Flagged = &v
		}
	}

	return params, violations
}
