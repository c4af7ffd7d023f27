package models

// Sort keys accepted by the search API.
const (
	SortDateDesc       = "date-desc"
	SortDateAsc        = "date-asc"
	SortConfidenceDesc = "confidence-desc"
	SortConfidenceAsc  = "confidence-asc"
	SortRelevance      = "relevance"
)

// Outcome filter values. OutcomePending matches decisions whose outcome has
// not been recorded yet.
const (
	OutcomeAll     = "all"
	OutcomePending = "pending"
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Search input bounds.
const (
	MaxSearchLength = 500
	MaxTagFilters   = 20
	DefaultLimit    = 20
	MaxLimit        = 100
)

// SearchParams carries the filter, sort, and paging inputs for a decision
// search. Zero values mean "no constraint on this dimension". Limit and
// Offset are pointers so an omitted value can be told apart from an explicit
// zero; normalization fills them with defaults before validation runs.
//
// The validate tags are interpreted by the search service after
// normalization, with field names taken from the json tags.
type SearchParams struct {
	Search        string   `json:"search" validate:"max=500"`
	Category      string   `json:"category" validate:"omitempty,category"`
	Project       string   `json:"project"`
	Tags          []string `json:"tags" validate:"max=20"`
	ConfidenceMin *int     `json:"confidence_min" validate:"omitempty,gte=1,lte=10"`
	ConfidenceMax *int     `json:"confidence_max" validate:"omitempty,gte=1,lte=10"`
	OutcomeStatus string   `json:"outcome_status" validate:"omitempty,oneof=all pending success failed"`
	Flagged       *bool    `json:"flagged"`
	Sort          string   `json:"sort" validate:"omitempty,oneof=date-desc date-asc confidence-desc confidence-asc relevance"`
	Limit         *int     `json:"limit" validate:"omitempty,gte=1"`
	Offset        *int     `json:"offset"`
}

// HasSearch reports whether a free-text query is present after trimming.
func (p *SearchParams) HasSearch() bool {
	return p.Search != ""
}

// ConfidenceRange is the observed min/max confidence across the store.
type ConfidenceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// OutcomeStats is the four-way outcome breakdown across the store.
type OutcomeStats struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// FilterMetadata summarizes the distinct filterable values across the whole
// decision store, for populating filter UI. Collections are empty, never
// absent, on an empty store; ConfidenceRange and OutcomeStats are omitted
// when there is nothing to report.
type FilterMetadata struct {
	AvailableCategories []string         `json:"availableCategories"`
	AvailableProjects   []string         `json:"availableProjects"`
	AvailableTags       []string         `json:"availableTags"`
	ConfidenceRange     *ConfidenceRange `json:"confidenceRange,omitempty"`
	OutcomeStats        *OutcomeStats    `json:"outcomeStats,omitempty"`
}

// EmptyFilterMetadata returns metadata with empty collections. Used for an
// empty store and as the fallback when the metadata queries fail: the side
// channel never errors.
func EmptyFilterMetadata() *FilterMetadata {
	return &FilterMetadata{
		AvailableCategories: []string{},
		AvailableProjects:   []string{},
		AvailableTags:       []string{},
	}
}

// SearchResult is the full search response: one page of matches, the total
// match count ignoring the page window, the paging window actually applied
// after clamping, and the filter metadata side channel.
type SearchResult struct {
	Results  []Decision      `json:"results"`
	Total    int             `json:"total"`
	HasMore  bool            `json:"hasMore"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
	Metadata *FilterMetadata `json:"metadata"`
}
