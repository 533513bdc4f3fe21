package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmahler/bugtrack/internal/models"
)

func TestCreatePayload_Valid(t *testing.T) {
	p := CreatePayload{
		Title:       "Login button unresponsive",
		Description: "Clicking login does nothing",
		Reporter:    "alice",
	}
	assert.NoError(t, p.Validate())
}

func TestCreatePayload_MissingRequiredFields(t *testing.T) {
	p := CreatePayload{}
	err := p.Validate()
	require.Error(t, err)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{
		"Title is required",
		"Description is required",
		"Reporter name is required",
	}, verr.Details)
}

func TestCreatePayload_WhitespaceOnlyIsMissing(t *testing.T) {
	p := CreatePayload{
		Title:       "   ",
		Description: "\t\n",
		Reporter:    " ",
	}
	err := p.Validate()
	require.Error(t, err)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Details, 3)
}

func TestCreatePayload_TitleLength(t *testing.T) {
	p := CreatePayload{
		Title:       strings.Repeat("x", 100),
		Description: "desc",
		Reporter:    "bob",
	}
	assert.NoError(t, p.Validate(), "100 characters is allowed")

	p.Title = strings.Repeat("x", 101)
	err := p.Validate()
	require.Error(t, err)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Title cannot exceed 100 characters"}, verr.Details)
}

func TestCreatePayload_TitleLengthCountsRunes(t *testing.T) {
	// 100 multibyte characters is still 100 characters
	p := CreatePayload{
		Title:       strings.Repeat("é", 100),
		Description: "desc",
		Reporter:    "bob",
	}
	assert.NoError(t, p.Validate())
}

func TestCreatePayload_InvalidEnums(t *testing.T) {
	p := CreatePayload{
		Title:       "t",
		Description: "d",
		Reporter:    "r",
		Status:      "reopened",
		Priority:    "urgent",
	}
	err := p.Validate()
	require.Error(t, err)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{
		"Status must be one of: open, in-progress, resolved, closed",
		"Priority must be one of: low, medium, high, critical",
	}, verr.Details)
}

func TestCreatePayload_CollectsAllErrors(t *testing.T) {
	p := CreatePayload{
		Title:    strings.Repeat("x", 200),
		Status:   "bogus",
		Priority: "bogus",
	}
	err := p.Validate()
	require.Error(t, err)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Details, 5)
}

func TestCreatePayload_NormalizeDefaults(t *testing.T) {
	p := CreatePayload{
		Title:       "  padded title  ",
		Description: " desc ",
		Reporter:    " alice ",
	}
	require.NoError(t, p.Validate())

	bug := p.Normalize()
	assert.Equal(t, "padded title", bug.Title)
	assert.Equal(t, "desc", bug.Description)
	assert.Equal(t, "alice", bug.Reporter)
	assert.Equal(t, models.BugStatusOpen, bug.Status)
	assert.Equal(t, models.BugPriorityMedium, bug.Priority)
	assert.NotNil(t, bug.StepsToReproduce)
	assert.Empty(t, bug.StepsToReproduce)
	assert.Empty(t, bug.ID, "store assigns the id")
	assert.True(t, bug.CreatedAt.IsZero(), "store assigns timestamps")
}

func TestCreatePayload_NormalizeKeepsExplicitValues(t *testing.T) {
	p := CreatePayload{
		Title:            "t",
		Description:      "d",
		Reporter:         "r",
		Status:           "resolved",
		Priority:         "critical",
		Assignee:         "bob",
		StepsToReproduce: []string{"step one", "step two"},
		Environment:      models.Environment{OS: "linux", Browser: "firefox", Version: "1.0"},
	}
	require.NoError(t, p.Validate())

	bug := p.Normalize()
	assert.Equal(t, models.BugStatusResolved, bug.Status)
	assert.Equal(t, models.BugPriorityCritical, bug.Priority)
	assert.Equal(t, "bob", bug.Assignee)
	assert.Equal(t, []string{"step one", "step two"}, bug.StepsToReproduce)
	assert.Equal(t, "linux", bug.Environment.OS)
}

func TestUpdatePayload_EmptyIsValid(t *testing.T) {
	p := UpdatePayload{}
	assert.NoError(t, p.Validate())
}

func TestUpdatePayload_AbsentFieldsUntouched(t *testing.T) {
	bug := models.Bug{
		Title:       "original",
		Description: "original desc",
		Status:      models.BugStatusOpen,
		Priority:    models.BugPriorityHigh,
		Reporter:    "alice",
		Assignee:    "bob",
	}

	status := "closed"
	p := UpdatePayload{Status: &status}
	require.NoError(t, p.Validate())

	p.Apply(&bug)
	assert.Equal(t, models.BugStatusClosed, bug.Status)
	assert.Equal(t, "original", bug.Title)
	assert.Equal(t, models.BugPriorityHigh, bug.Priority)
	assert.Equal(t, "bob", bug.Assignee)
}

func TestUpdatePayload_PresentBlankRequiredFails(t *testing.T) {
	blank := "   "
	p := UpdatePayload{Title: &blank}
	err := p.Validate()
	require.Error(t, err)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Title is required"}, verr.Details)
}

func TestUpdatePayload_InvalidEnum(t *testing.T) {
	bad := "wontfix"
	p := UpdatePayload{Status: &bad}
	err := p.Validate()
	require.Error(t, err)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Status must be one of: open, in-progress, resolved, closed"}, verr.Details)
}

func TestUpdatePayload_ApplyClearsAssignee(t *testing.T) {
	bug := models.Bug{Assignee: "bob"}

	empty := ""
	p := UpdatePayload{Assignee: &empty}
	require.NoError(t, p.Validate(), "assignee is optional, blank is allowed")

	p.Apply(&bug)
	assert.Empty(t, bug.Assignee)
}

func TestUpdatePayload_ApplyTrims(t *testing.T) {
	bug := models.Bug{}

	title := "  new title  "
	steps := []string{"one", "two"}
	p := UpdatePayload{Title: &title, StepsToReproduce: &steps}
	require.NoError(t, p.Validate())

	p.Apply(&bug)
	assert.Equal(t, "new title", bug.Title)
	assert.Equal(t, []string{"one", "two"}, bug.StepsToReproduce)
}
