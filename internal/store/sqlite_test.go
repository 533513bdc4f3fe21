package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmahler/bugtrack/internal/models"
)

// A well-formed ULID that no test ever inserts.
const absentID = "01ARZ3NDEKTSV4RRFFQ69G5FAV"

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func newBug(title string) *models.Bug {
	return &models.Bug{
		Title:            title,
		Description:      "something broke",
		Status:           models.BugStatusOpen,
		Priority:         models.BugPriorityMedium,
		Reporter:         "alice",
		StepsToReproduce: []string{},
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Running migrate again should be a no-op
	err := s.Migrate(ctx)
	assert.NoError(t, err)
}

func TestBugCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Create
	b := &models.Bug{
		Title:            "Login fails",
		Description:      "500 on submit",
		Status:           models.BugStatusOpen,
		Priority:         models.BugPriorityHigh,
		Reporter:         "alice",
		Assignee:         "bob",
		StepsToReproduce: []string{"open login page", "click submit"},
		Environment:      models.Environment{OS: "macos", Browser: "safari", Version: "17"},
	}
	err := s.CreateBug(ctx, b)
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.False(t, b.CreatedAt.IsZero())
	assert.Equal(t, b.CreatedAt, b.UpdatedAt)

	// Get
	got, err := s.GetBug(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Title, got.Title)
	assert.Equal(t, b.Description, got.Description)
	assert.Equal(t, models.BugStatusOpen, got.Status)
	assert.Equal(t, models.BugPriorityHigh, got.Priority)
	assert.Equal(t, "alice", got.Reporter)
	assert.Equal(t, "bob", got.Assignee)
	assert.Equal(t, []string{"open login page", "click submit"}, got.StepsToReproduce)
	assert.Equal(t, "safari", got.Environment.Browser)

	// Update
	got.Status = models.BugStatusResolved
	got.Assignee = ""
	err = s.UpdateBug(ctx, got)
	require.NoError(t, err)

	got2, err := s.GetBug(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BugStatusResolved, got2.Status)
	assert.Empty(t, got2.Assignee)
	assert.False(t, got2.UpdatedAt.Before(got2.CreatedAt))

	// Delete
	err = s.DeleteBug(ctx, b.ID)
	require.NoError(t, err)

	_, err = s.GetBug(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBug_RejectsInvalidEnums(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := newBug("bad status")
	b.Status = "reopened"
	err := s.CreateBug(ctx, b)
	assert.ErrorIs(t, err, ErrInvalidEnum)

	b = newBug("bad priority")
	b.Priority = "urgent"
	err = s.CreateBug(ctx, b)
	assert.ErrorIs(t, err, ErrInvalidEnum)
}

func TestGetBug_InvalidID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetBug(ctx, "not-a-ulid")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestGetBug_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetBug(ctx, absentID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBug_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := newBug("ghost")
	b.ID = absentID
	err := s.UpdateBug(ctx, b)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBug_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.DeleteBug(ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidID)

	err = s.DeleteBug(ctx, absentID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBug_NotIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := newBug("delete me")
	require.NoError(t, s.CreateBug(ctx, b))

	require.NoError(t, s.DeleteBug(ctx, b.ID))
	err := s.DeleteBug(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound, "second delete reports missing record")
}

func TestListBugs_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := newBug("first")
	second := newBug("second")
	third := newBug("third")
	require.NoError(t, s.CreateBug(ctx, first))
	require.NoError(t, s.CreateBug(ctx, second))
	require.NoError(t, s.CreateBug(ctx, third))

	bugs, total, err := s.ListBugs(ctx, BugFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, bugs, 3)

	// Newest first; equal timestamps fall back to id descending, and ULIDs
	// sort by creation time, so insertion order is always reversed.
	assert.Equal(t, "third", bugs[0].Title)
	assert.Equal(t, "second", bugs[1].Title)
	assert.Equal(t, "first", bugs[2].Title)
}

func TestListBugs_Filter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	open := newBug("open bug")
	require.NoError(t, s.CreateBug(ctx, open))

	closed := newBug("closed bug")
	closed.Status = models.BugStatusClosed
	closed.Priority = models.BugPriorityCritical
	require.NoError(t, s.CreateBug(ctx, closed))

	bugs, total, err := s.ListBugs(ctx, BugFilter{Status: models.BugStatusClosed}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, bugs, 1)
	assert.Equal(t, "closed bug", bugs[0].Title)

	bugs, total, err = s.ListBugs(ctx, BugFilter{
		Status:   models.BugStatusClosed,
		Priority: models.BugPriorityLow,
	}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, bugs)
}

func TestListBugs_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, s.CreateBug(ctx, newBug(title)))
	}

	page1, total, err := s.ListBugs(ctx, BugFilter{}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total, "total counts all matches, not just the page")
	assert.Len(t, page1, 2)

	page3, total, err := s.ListBugs(ctx, BugFilter{}, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page3, 1)

	// Pages past the end are empty, not an error
	pastEnd, _, err := s.ListBugs(ctx, BugFilter{}, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, pastEnd)
}

func TestCreateBug_DuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := newBug("original")
	require.NoError(t, s.CreateBug(ctx, b))

	dup := newBug("duplicate")
	dup.ID = b.ID
	err := s.CreateBug(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestScanBug_NilStepsBecomesEmptySlice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := newBug("no steps")
	b.StepsToReproduce = nil
	require.NoError(t, s.CreateBug(ctx, b))

	got, err := s.GetBug(ctx, b.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.StepsToReproduce)
	assert.Empty(t, got.StepsToReproduce)
}
