package models

import (
	"encoding/json"
	"testing"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil stays nil", nil, nil},
		{"empty stays empty", []string{}, []string{}},
		{"trims whitespace", []string{" go ", "db "}, []string{"go", "db"}},
		{"drops empty entries", []string{"go", "", "  ", "db"}, []string{"go", "db"}},
		{"dedupes preserving order", []string{"go", "db", "go", "db"}, []string{"go", "db"}},
		{"dedupes after trimming", []string{"go", " go"}, []string{"go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.input)
			if tt.input == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("expected %v, got %v", tt.expected, got)
					break
				}
			}
		})
	}
}

func TestNullableInt_UnmarshalJSON(t *testing.T) {
	type body struct {
		Confidence NullableInt `json:"confidence"`
	}

	t.Run("absent", func(t *testing.T) {
		var b body
		if err := json.Unmarshal([]byte(`{}`), &b); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if b.Confidence.Present {
			t.Error("absent field must not be marked present")
		}
	})

	t.Run("explicit null", func(t *testing.T) {
		var b body
		if err := json.Unmarshal([]byte(`{"confidence":null}`), &b); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if !b.Confidence.Present {
			t.Error("explicit null must be marked present")
		}
		if b.Confidence.Value != nil {
			t.Errorf("explicit null must have nil value, got %v", *b.Confidence.Value)
		}
	})

	t.Run("value", func(t *testing.T) {
		var b body
		if err := json.Unmarshal([]byte(`{"confidence":7}`), &b); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if !b.Confidence.Present || b.Confidence.Value == nil || *b.Confidence.Value != 7 {
			t.Errorf("expected present value 7, got %+v", b.Confidence)
		}
	})
}

func TestDecision_OutcomeStatus(t *testing.T) {
	success := true
	failed := false

	tests := []struct {
		name     string
		outcome  *bool
		expected string
	}{
		{"no outcome recorded", nil, OutcomePending},
		{"successful", &success, OutcomeSuccess},
		{"failed", &failed, OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Decision{OutcomeSuccess: tt.outcome}
			if got := d.OutcomeStatus(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestIsValidCategory(t *testing.T) {
	for _, c := range ValidCategories {
		if !IsValidCategory(c) {
			t.Errorf("expected %q to be valid", c)
		}
	}
	for _, c := range []string{"", "experiment", "Architecture", "misc"} {
		if IsValidCategory(c) {
			t.Errorf("expected %q to be invalid", c)
		}
	}
}

func TestCreateDecisionRequest_ToDecision(t *testing.T) {
	confidence := 8
	req := &CreateDecisionRequest{
		Title:         "  Adopt pgx  ",
		Context:       "ctx",
		Reasoning:     "why",
		Category:      CategoryArchitecture,
		ProjectName:   " backend ",
		Tags:          []string{"go", "go", " db "},
		Confidence:    &confidence,
		OutcomeStatus: OutcomeFailed,
	}

	d := req.ToDecision()
	if d.Title != "Adopt pgx" {
		t.Errorf("expected trimmed title, got %q", d.Title)
	}
	if d.ProjectName != "backend" {
		t.Errorf("expected trimmed project name, got %q", d.ProjectName)
	}
	if len(d.Tags) != 2 {
		t.Errorf("expected deduplicated tags, got %v", d.Tags)
	}
	if d.OutcomeSuccess == nil || *d.OutcomeSuccess {
		t.Errorf("expected outcome_success false, got %v", d.OutcomeSuccess)
	}

	// Pending leaves the outcome unset.
	req.OutcomeStatus = OutcomePending
	if d := req.ToDecision(); d.OutcomeSuccess != nil {
		t.Errorf("pending outcome must leave outcome_success nil, got %v", d.OutcomeSuccess)
	}

	// No tags still serializes as an empty array.
	req.Tags = nil
	if d := req.ToDecision(); d.Tags == nil {
		t.Error("expected empty tag slice, not nil")
	}
}

func TestDecisionUpdate_IsEmpty(t *testing.T) {
	if empty := (&DecisionUpdate{}).IsEmpty(); !empty {
		t.Error("zero update must be empty")
	}

	title := "t"
	if (&DecisionUpdate{Title: &title}).IsEmpty() {
		t.Error("update with a title is not empty")
	}
	if (&DecisionUpdate{Tags: []string{}}).IsEmpty() {
		t.Error("explicit empty tags clears tags, so the update is not empty")
	}
	if (&DecisionUpdate{Confidence: NullableInt{Present: true}}).IsEmpty() {
		t.Error("explicit null confidence clears it, so the update is not empty")
	}
}
