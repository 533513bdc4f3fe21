package store

import (
	"context"

	"github.com/jmahler/bugtrack/internal/models"
)

// BugFilter narrows a list query. Zero-valued fields impose no restriction.
type BugFilter struct {
	Status   models.BugStatus
	Priority models.BugPriority
}

// Store defines the persistence interface for bugtrack. The store is the sole
// owner of record identity and timestamps.
type Store interface {
	// CreateBug assigns an id and timestamps, persists the bug, and writes
	// the server-assigned fields back into b.
	CreateBug(ctx context.Context, b *models.Bug) error

	// ListBugs returns one page of bugs matching the filter, newest first
	// (created_at descending, id descending as tie-break), along with the
	// total number of matching bugs.
	ListBugs(ctx context.Context, filter BugFilter, limit, offset int) ([]*models.Bug, int, error)

	// GetBug returns the bug with the given id, ErrInvalidID if the id is
	// malformed, or ErrNotFound if no such bug exists.
	GetBug(ctx context.Context, id string) (*models.Bug, error)

	// UpdateBug overwrites the stored record with b's fields and refreshes
	// UpdatedAt. Callers merge partial payloads before calling.
	UpdateBug(ctx context.Context, b *models.Bug) error

	// DeleteBug removes the bug permanently.
	DeleteBug(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
