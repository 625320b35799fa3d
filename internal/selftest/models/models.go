// Package models defines the security self-test result shapes.
package models

import "time"

// Type says whether a result came from static inspection or a dynamic probe.
type Type string

const (
	TypeStatic  Type = "static"
	TypeDynamic Type = "dynamic"
)

func (t Type) IsValid() bool {
	return t == TypeStatic || t == TypeDynamic
}

// Status is the outcome of one check.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusWarning Status = "warning"
)

func (s Status) IsValid() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusWarning
}

// Severity grades how bad a finding is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Details describes a finding.
type Details struct {
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Location    string   `json:"location,omitempty"`
	Remediation string   `json:"remediation,omitempty"`
}

// Result is one persisted self-test outcome.
type Result struct {
	TestID    string    `json:"testId"`
	Type      Type      `json:"type"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Details   Details   `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// IsCritical reports whether the result belongs in a report's critical
// issues: critical severity and anything but a pass.
func (r Result) IsCritical() bool {
	return r.Details.Severity == SeverityCritical && r.Status != StatusPassed
}

// RunSummary is what RunAll returns.
type RunSummary struct {
	Passed   int      `json:"passed"`
	Failed   int      `json:"failed"`
	Warnings int      `json:"warnings"`
	Results  []Result `json:"results"`
}

// ReportSummary aggregates a date range of results.
type ReportSummary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Warnings int `json:"warnings"`
}

// Report is the operator-facing aggregation over a date range.
type Report struct {
	Summary        ReportSummary `json:"summary"`
	CriticalIssues []Result      `json:"criticalIssues"`
	RecentTests    []Result      `json:"recentTests"`
}
