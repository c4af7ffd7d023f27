// Package sql provides SQL injection detection over user-supplied filter
// input. Every query this service issues binds parameters, so detection is
// purely an audit signal: a hit is logged for SIEM consumption but the
// request proceeds, because the full-text search primitive is defined to
// tolerate arbitrary punctuation.
package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a detected SQL injection pattern in a
// filter field.
type InjectionCheckResult struct {
	Field       string // name of the filter field that tripped the check
	Value       string // the offending value
	Fingerprint string // libinjection fingerprint for pattern analysis
}

// CheckFilterValue runs libinjection over one free-text filter value.
// Returns nil when no injection pattern is found. Empty values are never
// flagged.
func CheckFilterValue(field, value string) *InjectionCheckResult {
	if value == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}

	return &InjectionCheckResult{
		Field:       field,
		Value:       value,
		Fingerprint: fingerprint,
	}
}

// CheckFilterValues checks every free-text field of a filter request and
// returns one result per detection. The map key is the field name as it
// appears in the API (e.g. "search", "project").
func CheckFilterValues(fields map[string]string) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for field, value := range fields {
		if result := CheckFilterValue(field, value); result != nil {
			results = append(results, result)
		}
	}
	return results
}
