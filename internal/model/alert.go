package model

import "time"

// Alert severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is a regional warning published by an admin. Alerts have no owner.
type Alert struct {
	ID        uint64    // alerts.id
	Location  string    // alerts.location
	Title     string    // alerts.title
	Message   string    // alerts.message
	Severity  string    // alerts.severity
	CreatedAt time.Time // alerts.created_at
}

// ValidSeverity reports whether s is one of the known severities.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}
