package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Valid category values for decisions. The set is closed and versioned:
// removing a value requires a migration that remaps existing rows to
// CategoryOther before the constraint narrows (see migrations/003 for the
// 'experiment' retirement).
const (
	CategoryArchitecture = "architecture"
	CategoryProcess      = "process"
	CategoryTooling      = "tooling"
	CategoryTeam         = "team"
	CategoryProduct      = "product"
	CategoryOther        = "other" // catch-all, target for retired categories
)

// ValidCategories lists the currently accepted category values in display order.
var ValidCategories = []string{
	CategoryArchitecture,
	CategoryProcess,
	CategoryTooling,
	CategoryTeam,
	CategoryProduct,
	CategoryOther,
}

// IsValidCategory reports whether c is a member of the current category set.
func IsValidCategory(c string) bool {
	for _, v := range ValidCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Decision represents a single logged decision.
// Stored in the decisions table. The search_vector column is maintained by a
// database trigger and never leaves the store.
type Decision struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Context          string    `json:"context"`
	Reasoning        string    `json:"reasoning"`
	OutcomeNotes     string    `json:"outcome_notes,omitempty"`
	Category         string    `json:"category"`
	ProjectName      string    `json:"project_name,omitempty"`
	Tags             []string  `json:"tags"`
	Confidence       *int      `json:"confidence"`
	OutcomeSuccess   *bool     `json:"outcome_success"`
	FlaggedForReview bool      `json:"flagged_for_review"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// OutcomeStatus reports the decision's outcome as one of the outcome filter
// values: pending when no outcome has been recorded, otherwise success or
// failed.
func (d *Decision) OutcomeStatus() string {
	switch {
	case d.OutcomeSuccess == nil:
		return OutcomePending
	case *d.OutcomeSuccess:
		return OutcomeSuccess
	default:
		return OutcomeFailed
	}
}

// CreateDecisionRequest carries the fields needed to log a new decision.
// The validate tags are interpreted by the decision service with field names
// taken from the json tags; all violations are collected, not just the first.
type CreateDecisionRequest struct {
	Title            string   `json:"title" validate:"required,max=200"`
	Context          string   `json:"context" validate:"required"`
	Reasoning        string   `json:"reasoning" validate:"required"`
	OutcomeNotes     string   `json:"outcome_notes"`
	Category         string   `json:"category" validate:"required,category"`
	ProjectName      string   `json:"project_name"`
	Tags             []string `json:"tags" validate:"max=20"`
	Confidence       *int     `json:"confidence" validate:"omitempty,gte=1,lte=10"`
	OutcomeStatus    string   `json:"outcome_status" validate:"omitempty,oneof=pending success failed"`
	FlaggedForReview bool     `json:"flagged_for_review"`
}

// ToDecision builds the Decision to persist. Tags are normalized and the
// outcome status collapses to the tri-state column.
func (r *CreateDecisionRequest) ToDecision() *Decision {
	d := &Decision{
		Title:            strings.TrimSpace(r.Title),
		Context:          r.Context,
		Reasoning:        r.Reasoning,
		OutcomeNotes:     r.OutcomeNotes,
		Category:         r.Category,
		ProjectName:      strings.TrimSpace(r.ProjectName),
		Tags:             NormalizeTags(r.Tags),
		Confidence:       r.Confidence,
		FlaggedForReview: r.FlaggedForReview,
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	switch r.OutcomeStatus {
	case OutcomeSuccess:
		v := true
		d.OutcomeSuccess = &v
	case OutcomeFailed:
		v := false
		d.OutcomeSuccess = &v
	}
	return d
}

// DecisionUpdate describes a partial update to a decision. Nil fields are
// left unchanged. ID and CreatedAt are never updatable; UpdatedAt is set by
// the store on every write.
type DecisionUpdate struct {
	Title            *string     `json:"title"`
	Context          *string     `json:"context"`
	Reasoning        *string     `json:"reasoning"`
	OutcomeNotes     *string     `json:"outcome_notes"`
	Category         *string     `json:"category"`
	ProjectName      *string     `json:"project_name"`
	Tags             []string    `json:"tags"` // nil = unchanged, empty = clear
	Confidence       NullableInt `json:"confidence"`
	OutcomeStatus    *string     `json:"outcome_status"` // pending clears the recorded outcome
	FlaggedForReview *bool       `json:"flagged_for_review"`
}

// IsEmpty reports whether the update changes nothing.
func (u *DecisionUpdate) IsEmpty() bool {
	return u.Title == nil && u.Context == nil && u.Reasoning == nil &&
		u.OutcomeNotes == nil && u.Category == nil && u.ProjectName == nil &&
		u.Tags == nil && !u.Confidence.Present && u.OutcomeStatus == nil &&
		u.FlaggedForReview == nil
}

// NullableInt distinguishes absent, null, and set integer fields in JSON
// request bodies. Absent leaves the stored value unchanged; an explicit null
// clears it.
type NullableInt struct {
	Present bool
	Value   *int
}

// UnmarshalJSON records that the field appeared in the body, with Value nil
// for an explicit null.
func (n *NullableInt) UnmarshalJSON(data []byte) error {
	n.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// MarshalJSON round-trips the field for logging and tests.
func (n NullableInt) MarshalJSON() ([]byte, error) {
	if !n.Present || n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// NormalizeTags trims whitespace, drops empty entries, and removes
// duplicates while preserving first-seen order. Both the write path and the
// search filter apply this before validating the tag-count limit.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	return normalized
}
