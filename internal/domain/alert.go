package domain

import "strings"

// Severity is the three-level alert threshold scale users configure.
// Provider-reported severities are ranked onto the same scale so they can
// be compared against a user's minimum.
type Severity int

const (
	SeverityAdvisory Severity = iota
	SeverityWatch
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityAdvisory:
		return "advisory"
	case SeverityWatch:
		return "watch"
	case SeverityWarning:
		return "warning"
	}
	return "watch"
}

// ParseThreshold maps a stored threshold name to its rank. Unknown names
// fall back to watch, the default minimum.
func ParseThreshold(name string) Severity {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "advisory":
		return SeverityAdvisory
	case "watch":
		return SeverityWatch
	case "warning":
		return SeverityWarning
	}
	return SeverityWatch
}

// RankReported maps an NWS-reported severity onto the threshold scale.
// Unknown or missing severities rank lowest so they are delivered only to
// users who accept everything.
func RankReported(reported string) Severity {
	switch strings.ToLower(strings.TrimSpace(reported)) {
	case "minor":
		return SeverityAdvisory
	case "moderate":
		return SeverityWatch
	case "severe", "extreme":
		return SeverityWarning
	}
	return SeverityAdvisory
}

type AlertPrefs struct {
	UserID      int64
	Enabled     bool
	Zip         string
	MinSeverity Severity
}
