package audit

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogInjectionAttempt_EmitsStructuredEvent(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	auditor := NewSecurityAuditor(zap.New(core))

	auditor.LogInjectionAttempt(context.Background(), InjectionDetails{
		Field:       "search",
		Value:       "' OR 1=1 --",
		Fingerprint: "s&1c",
	}, "203.0.113.7:51234")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["field"] != "search" {
		t.Errorf("expected field 'search', got %v", fields["field"])
	}

	// The event_json payload must be parseable by a SIEM.
	var event SecurityEvent
	if err := json.Unmarshal([]byte(fields["event_json"].(string)), &event); err != nil {
		t.Fatalf("event_json is not valid JSON: %v", err)
	}
	if event.EventType != EventSQLInjectionAttempt {
		t.Errorf("expected event type %s, got %s", EventSQLInjectionAttempt, event.EventType)
	}
	if event.Severity != "warning" {
		t.Errorf("expected warning severity, got %s", event.Severity)
	}
}

func TestLogAuthFailure_NamespacedLogger(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	auditor := NewSecurityAuditor(zap.New(core))

	auditor.LogAuthFailure("missing authorization", "/api/decisions", "203.0.113.7:51234")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "security_audit" {
		t.Errorf("expected security_audit namespace, got %q", entries[0].LoggerName)
	}
	if entries[0].ContextMap()["reason"] != "missing authorization" {
		t.Errorf("expected failure reason in fields, got %v", entries[0].ContextMap()["reason"])
	}
}
