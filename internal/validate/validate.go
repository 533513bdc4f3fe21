// Package validate checks incoming bug payloads against the record schema.
//
// Create and update requests carry different obligations, so each gets its own
// statically-typed payload: CreatePayload requires title, description, and
// reporter, while UpdatePayload treats every field as optional but still
// enforces per-field constraints on whatever is present. Validation never
// stops at the first failure; all field errors are collected in one pass.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jmahler/bugtrack/internal/models"
)

// TitleMaxLen is the maximum allowed title length in characters.
const TitleMaxLen = 100

// Error carries one message per offending field, in schema field order.
type Error struct {
	Details []string
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Details, "; ")
}

// CreatePayload is the body of a bug creation request.
type CreatePayload struct {
	Title            string             `json:"title" yaml:"title"`
	Description      string             `json:"description" yaml:"description"`
	Status           string             `json:"status" yaml:"status"`
	Priority         string             `json:"priority" yaml:"priority"`
	Reporter         string             `json:"reporter" yaml:"reporter"`
	Assignee         string             `json:"assignee" yaml:"assignee"`
	StepsToReproduce []string           `json:"stepsToReproduce" yaml:"stepsToReproduce"`
	Environment      models.Environment `json:"environment" yaml:"environment"`
}

// Validate checks all create-mode rules and returns an *Error listing every
// violation, or nil if the payload is well-formed.
func (p *CreatePayload) Validate() error {
	var details []string

	if strings.TrimSpace(p.Title) == "" {
		details = append(details, "Title is required")
	} else if utf8.RuneCountInString(strings.TrimSpace(p.Title)) > TitleMaxLen {
		details = append(details, fmt.Sprintf("Title cannot exceed %d characters", TitleMaxLen))
	}
	if strings.TrimSpace(p.Description) == "" {
		details = append(details, "Description is required")
	}
	if p.Status != "" && !models.BugStatus(p.Status).Valid() {
		details = append(details, "Status must be one of: "+models.StatusNames())
	}
	if p.Priority != "" && !models.BugPriority(p.Priority).Valid() {
		details = append(details, "Priority must be one of: "+models.PriorityNames())
	}
	if strings.TrimSpace(p.Reporter) == "" {
		details = append(details, "Reporter name is required")
	}

	if len(details) > 0 {
		return &Error{Details: details}
	}
	return nil
}

// Normalize returns the bug value described by a valid payload: strings
// trimmed, defaults applied. ID and timestamps are left zero; the store
// assigns them.
func (p *CreatePayload) Normalize() models.Bug {
	status := models.BugStatus(p.Status)
	if p.Status == "" {
		status = models.BugStatusOpen
	}
	priority := models.BugPriority(p.Priority)
	if p.Priority == "" {
		priority = models.BugPriorityMedium
	}

	steps := p.StepsToReproduce
	if steps == nil {
		steps = []string{}
	}

	return models.Bug{
		Title:            strings.TrimSpace(p.Title),
		Description:      strings.TrimSpace(p.Description),
		Status:           status,
		Priority:         priority,
		Reporter:         strings.TrimSpace(p.Reporter),
		Assignee:         strings.TrimSpace(p.Assignee),
		StepsToReproduce: steps,
		Environment:      p.Environment,
	}
}

// UpdatePayload is the body of a bug update request. Pointer fields
// distinguish "absent" from "present but empty": omitted fields are left
// untouched, present fields must individually satisfy their constraints.
type UpdatePayload struct {
	Title            *string             `json:"title"`
	Description      *string             `json:"description"`
	Status           *string             `json:"status"`
	Priority         *string             `json:"priority"`
	Reporter         *string             `json:"reporter"`
	Assignee         *string             `json:"assignee"`
	StepsToReproduce *[]string           `json:"stepsToReproduce"`
	Environment      *models.Environment `json:"environment"`
}

// Validate checks update-mode rules: only fields present in the payload are
// checked, but a present-and-blank required field still fails.
func (p *UpdatePayload) Validate() error {
	var details []string

	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			details = append(details, "Title is required")
		} else if utf8.RuneCountInString(strings.TrimSpace(*p.Title)) > TitleMaxLen {
			details = append(details, fmt.Sprintf("Title cannot exceed %d characters", TitleMaxLen))
		}
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		details = append(details, "Description is required")
	}
	if p.Status != nil && !models.BugStatus(*p.Status).Valid() {
		details = append(details, "Status must be one of: "+models.StatusNames())
	}
	if p.Priority != nil && !models.BugPriority(*p.Priority).Valid() {
		details = append(details, "Priority must be one of: "+models.PriorityNames())
	}
	if p.Reporter != nil && strings.TrimSpace(*p.Reporter) == "" {
		details = append(details, "Reporter name is required")
	}

	if len(details) > 0 {
		return &Error{Details: details}
	}
	return nil
}

// Apply overwrites only the fields present in the payload, trimming string
// values. The payload must have passed Validate first.
func (p *UpdatePayload) Apply(b *models.Bug) {
	if p.Title != nil {
		b.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		b.Description = strings.TrimSpace(*p.Description)
	}
	if p.Status != nil {
		b.Status = models.BugStatus(*p.Status)
	}
	if p.Priority != nil {
		b.Priority = models.BugPriority(*p.Priority)
	}
	if p.Reporter != nil {
		b.Reporter = strings.TrimSpace(*p.Reporter)
	}
	if p.Assignee != nil {
		b.Assignee = strings.TrimSpace(*p.Assignee)
	}
	if p.StepsToReproduce != nil {
		b.StepsToReproduce = *p.StepsToReproduce
	}
	if p.Environment != nil {
		b.Environment = *p.Environment
	}
}
