package model

import (
	"fmt"
	"time"
)

// RotationPeriod is the cadence at which a sensitive task's personnel must rotate
type RotationPeriod string

const (
	PeriodMonthly    RotationPeriod = "monthly"
	PeriodQuarterly  RotationPeriod = "quarterly"
	PeriodSemiAnnual RotationPeriod = "semi_annual"
	PeriodAnnual     RotationPeriod = "annual"
	PeriodBiennial   RotationPeriod = "biennial"
)

// RotationPeriods lists every supported period in ascending length
var RotationPeriods = []RotationPeriod{
	PeriodMonthly,
	PeriodQuarterly,
	PeriodSemiAnnual,
	PeriodAnnual,
	PeriodBiennial,
}

func (p RotationPeriod) IsValid() bool {
	for _, known := range RotationPeriods {
		if p == known {
			return true
		}
	}
	return false
}

// ParseRotationPeriod converts a label into a RotationPeriod, rejecting unknown labels
func ParseRotationPeriod(s string) (RotationPeriod, error) {
	p := RotationPeriod(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown rotation period %q", s)
	}
	return p, nil
}

// TaskStatus is derived from a task's assignment and due date, never stored
type TaskStatus string

const (
	StatusNormal             TaskStatus = "normal"
	StatusRotationDue        TaskStatus = "rotation_due"
	StatusRotationOverdue    TaskStatus = "rotation_overdue"
	StatusAwaitingAssignment TaskStatus = "awaiting_assignment"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusNormal, StatusRotationDue, StatusRotationOverdue, StatusAwaitingAssignment:
		return true
	}
	return false
}

// ParseTaskStatus converts a label into a TaskStatus, rejecting unknown labels
func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("unknown task status %q", s)
	}
	return st, nil
}

// ActionType identifies the mutation recorded by a history entry
type ActionType string

const (
	ActionInitialAssignment ActionType = "initial_assignment"
	ActionRotation          ActionType = "rotation"
	ActionPostponement      ActionType = "postponement"
)

func (a ActionType) IsValid() bool {
	switch a {
	case ActionInitialAssignment, ActionRotation, ActionPostponement:
		return true
	}
	return false
}

// SensitiveTask is a workflow step flagged as carrying corruption risk.
// A nil AssignedPrimaryID means the task is awaiting assignment.
type SensitiveTask struct {
	ID                string
	Title             string
	Department        string
	WorkflowStepID    string
	RotationPeriod    RotationPeriod
	AssignedPrimaryID *string
	AssignedBackupID  *string
	LastRotationDate  *time.Time
	NextRotationDate  *time.Time
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasPrimary reports whether a primary assignee is set
func (t SensitiveTask) HasPrimary() bool {
	return t.AssignedPrimaryID != nil && *t.AssignedPrimaryID != ""
}

// HasBackup reports whether a backup assignee is set
func (t SensitiveTask) HasBackup() bool {
	return t.AssignedBackupID != nil && *t.AssignedBackupID != ""
}

// RotationHistoryEntry is an append-only audit record of one task mutation
type RotationHistoryEntry struct {
	ID                   string
	TaskID               string
	ActionType           ActionType
	ActionDate           time.Time
	PreviousPrimaryID    *string
	NewPrimaryID         *string
	PreviousBackupID     *string
	NewBackupID          *string
	PreviousRotationDate *time.Time
	NewRotationDate      *time.Time
	PerformedBy          string
	Notes                string
	IdempotencyKey       string
	CreatedAt            time.Time
}

// Personnel represents a member of staff who can hold a sensitive task
type Personnel struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	Department  string
	Status      string
	DisplayName string
}

// FullName returns "FirstName LastName", trimmed when a part is missing
func (p Personnel) FullName() string {
	switch {
	case p.LastName == "":
		return p.FirstName
	case p.FirstName == "":
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}

type AlertKind string

const (
	AlertOverdue      AlertKind = "overdue"
	AlertDueSoon      AlertKind = "due_soon"
	AlertNoBackup     AlertKind = "no_backup"
	AlertNoAssignment AlertKind = "no_assignment"
)

type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
)

// Rank orders severities so that higher values sort first
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	}
	return 0
}

// Alert flags one condition on one task
type Alert struct {
	TaskID       string
	TaskTitle    string
	Kind         AlertKind
	Severity     AlertSeverity
	DaysUntilDue *int
	Message      string
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
