package domain

import "time"

// DiagnosticStatus is the outcome of one startup check.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	// DiagnosticStatusWarn marks optional integrations that are unavailable.
	DiagnosticStatusWarn DiagnosticStatus = "warn"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem is one check with an optional remediation hint.
type DiagnosticItem struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Status  DiagnosticStatus `json:"status"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
}

// DiagnosticReport aggregates startup checks. Warnings do not count as failures.
type DiagnosticReport struct {
	GeneratedAt   time.Time        `json:"generatedAt"`
	HasFailures   bool             `json:"hasFailures"`
	FFmpegVersion string           `json:"ffmpegVersion,omitempty"`
	Items         []DiagnosticItem `json:"items"`
}
