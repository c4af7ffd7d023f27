// Package audit provides security audit logging for SIEM consumption.
// Security-relevant events (rejected authentication, injection patterns in
// search input) are logged as structured JSON so they can be parsed and
// alerted on without touching application logs.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/hindsightlog/hindsight/pkg/auth"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLInjectionAttempt is logged when libinjection flags a search or
	// project filter value. The request still proceeds with bound parameters.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventAuthFailure is logged when a request is rejected by the auth middleware.
	EventAuthFailure SecurityEventType = "auth_failure"
)

// SecurityEvent is the envelope written for every auditable event.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// InjectionDetails records which filter field tripped the injection check.
type InjectionDetails struct {
	Field       string `json:"field"`
	Value       string `json:"value"`
	Fingerprint string `json:"fingerprint"`
}

// SecurityAuditor logs security events under a dedicated logger namespace.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates an auditor whose events carry the
// "security_audit" namespace for easy filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogInjectionAttempt records a detected injection pattern in filter input.
// Logged at WARN: parameters are always bound, so this is a signal about the
// caller, not a compromise of the query.
func (a *SecurityAuditor) LogInjectionAttempt(ctx context.Context, details InjectionDetails, clientIP string) {
	userID := auth.GetUserIDFromContext(ctx)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSQLInjectionAttempt,
		UserID:    userID,
		ClientIP:  clientIP,
		Details:   details,
		Severity:  "warning",
	}
	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Injection pattern in filter input",
		zap.String("event_json", string(eventJSON)),
		zap.String("field", details.Field),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("client_ip", clientIP),
		zap.String("user_id", userID),
		zap.String("severity", "warning"),
	)
}

// LogAuthFailure records a rejected request (missing, malformed, or invalid
// token). Logged at WARN with the failure reason; the token itself is never
// logged.
func (a *SecurityAuditor) LogAuthFailure(reason, path, clientIP string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventAuthFailure,
		ClientIP:  clientIP,
		Details:   map[string]string{"reason": reason, "path": path},
		Severity:  "warning",
	}
	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Authentication failure",
		zap.String("event_json", string(eventJSON)),
		zap.String("reason", reason),
		zap.String("path", path),
		zap.String("client_ip", clientIP),
		zap.String("severity", "warning"),
	)
}
