// Package models defines the audit event record and its query filter.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Action classifies what the actor did. The set is closed so stores and
// handlers can validate inputs instead of accepting free-form strings.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionLogin   Action = "login"
	ActionLogout  Action = "logout"
	ActionExport  Action = "export"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete,
		ActionLogin, ActionLogout, ActionExport, ActionApprove, ActionReject:
		return true
	}
	return false
}

// Status records whether the audited action succeeded.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

func (s Status) IsValid() bool {
	return s == StatusSuccess || s == StatusFailure
}

// SystemUserID is the author of events emitted by background jobs rather
// than a human caller.
const SystemUserID = "system"

// Resource identifies what the action touched.
type Resource struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Metadata captures the request context around an event. Changes holds the
// field-level diff for mutations and may be encrypted at rest.
type Metadata struct {
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	Location  string         `json:"location,omitempty"`
	Client    string         `json:"client,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	Changes   map[string]any `json:"changes,omitempty"`
}

// Event is an immutable audit record. Once appended it is never mutated;
// reads traverse events newest first.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
	Action    Action    `json:"action"`
	Resource  Resource  `json:"resource"`
	Status    Status    `json:"status"`
	Metadata  Metadata  `json:"metadata"`
}

// Filter is a conjunction of exact-match and range predicates. Zero values
// mean "no constraint". StartDate and EndDate are inclusive.
type Filter struct {
	UserID       string
	Action       Action
	ResourceType string
	Status       Status
	StartDate    time.Time
	EndDate      time.Time
}

// Matches reports whether the event satisfies every set predicate.
func (f Filter) Matches(e Event) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.ResourceType != "" && e.Resource.Type != f.ResourceType {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if !f.StartDate.IsZero() && e.Timestamp.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && e.Timestamp.After(f.EndDate) {
		return false
	}
	return true
}
