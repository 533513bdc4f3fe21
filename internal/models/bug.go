package models

import (
	"strings"
	"time"
)

// BugStatus represents where a bug sits in its lifecycle.
type BugStatus string

const (
	BugStatusOpen       BugStatus = "open"
	BugStatusInProgress BugStatus = "in-progress"
	BugStatusResolved   BugStatus = "resolved"
	BugStatusClosed     BugStatus = "closed"
)

// AllBugStatuses lists the allowed status values in display order.
var AllBugStatuses = []BugStatus{BugStatusOpen, BugStatusInProgress, BugStatusResolved, BugStatusClosed}

// Valid reports whether the status is one of the allowed values.
func (s BugStatus) Valid() bool {
	for _, v := range AllBugStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// BugPriority represents the urgency of a bug.
type BugPriority string

const (
	BugPriorityLow      BugPriority = "low"
	BugPriorityMedium   BugPriority = "medium"
	BugPriorityHigh     BugPriority = "high"
	BugPriorityCritical BugPriority = "critical"
)

// AllBugPriorities lists the allowed priority values in display order.
var AllBugPriorities = []BugPriority{BugPriorityLow, BugPriorityMedium, BugPriorityHigh, BugPriorityCritical}

// Valid reports whether the priority is one of the allowed values.
func (p BugPriority) Valid() bool {
	for _, v := range AllBugPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// StatusNames returns the allowed status values joined for error messages.
func StatusNames() string {
	parts := make([]string, len(AllBugStatuses))
	for i, s := range AllBugStatuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// PriorityNames returns the allowed priority values joined for error messages.
func PriorityNames() string {
	parts := make([]string, len(AllBugPriorities))
	for i, p := range AllBugPriorities {
		parts[i] = string(p)
	}
	return strings.Join(parts, ", ")
}

// Environment describes where a bug was observed. All fields are optional.
type Environment struct {
	OS      string `json:"os,omitempty" yaml:"os,omitempty"`
	Browser string `json:"browser,omitempty" yaml:"browser,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Bug is a single bug report. The store owns ID, CreatedAt, and UpdatedAt;
// CreatedAt never changes after creation and UpdatedAt is refreshed on every
// successful update.
type Bug struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Status           BugStatus   `json:"status"`
	Priority         BugPriority `json:"priority"`
	Reporter         string      `json:"reporter"`
	Assignee         string      `json:"assignee"`
	StepsToReproduce []string    `json:"stepsToReproduce"`
	Environment      Environment `json:"environment"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}
