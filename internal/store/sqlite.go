package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmahler/bugtrack/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// parseID validates the identifier shape. A malformed id is a client input
// error, distinct from a well-formed id with no matching record.
func parseID(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return nil
}

// checkEnums re-validates enum constraints at the storage boundary. Handlers
// validate payloads first; this catches anything that slips past them.
func checkEnums(b *models.Bug) error {
	if !b.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidEnum, b.Status)
	}
	if !b.Priority.Valid() {
		return fmt.Errorf("%w: priority %q", ErrInvalidEnum, b.Priority)
	}
	return nil
}

// wrapExecErr maps driver-level failures onto the store's failure kinds.
func wrapExecErr(op string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	// Create migrations tracking table
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Check if already applied
		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateBug(ctx context.Context, b *models.Bug) error {
	if err := checkEnums(b); err != nil {
		return err
	}

	if b.ID == "" {
		b.ID = newULID()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	stepsJSON, err := json.Marshal(b.StepsToReproduce)
	if err != nil {
		stepsJSON = []byte("[]")
	}
	envJSON, err := json.Marshal(b.Environment)
	if err != nil {
		envJSON = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bugs (id, title, description, status, priority, reporter, assignee, steps_to_reproduce, environment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Description, string(b.Status), string(b.Priority),
		b.Reporter, b.Assignee, string(stepsJSON), string(envJSON),
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return wrapExecErr("create bug", err)
	}
	return nil
}

func (s *SQLiteStore) GetBug(ctx context.Context, id string) (*models.Bug, error) {
	if err := parseID(id); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, status, priority, reporter, assignee, steps_to_reproduce, environment, created_at, updated_at
		FROM bugs WHERE id = ?`, id)

	b, err := scanBug(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get bug: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) ListBugs(ctx context.Context, filter BugFilter, limit, offset int) ([]*models.Bug, int, error) {
	var conditions []string
	var args []any

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		conditions = append(conditions, "priority = ?")
		args = append(args, string(filter.Priority))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bugs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bugs: %w", err)
	}

	// created_at descending with id descending as tie-break keeps the order
	// stable for records created in the same instant.
	query := `SELECT id, title, description, status, priority, reporter, assignee, steps_to_reproduce, environment, created_at, updated_at
		FROM bugs` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bugs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bugs []*models.Bug
	for rows.Next() {
		b, err := scanBug(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan bug: %w", err)
		}
		bugs = append(bugs, b)
	}
	return bugs, total, rows.Err()
}

func (s *SQLiteStore) UpdateBug(ctx context.Context, b *models.Bug) error {
	if err := parseID(b.ID); err != nil {
		return err
	}
	if err := checkEnums(b); err != nil {
		return err
	}

	b.UpdatedAt = time.Now().UTC()

	stepsJSON, err := json.Marshal(b.StepsToReproduce)
	if err != nil {
		stepsJSON = []byte("[]")
	}
	envJSON, err := json.Marshal(b.Environment)
	if err != nil {
		envJSON = []byte("{}")
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE bugs SET title=?, description=?, status=?, priority=?, reporter=?, assignee=?, steps_to_reproduce=?, environment=?, updated_at=?
		WHERE id=?`,
		b.Title, b.Description, string(b.Status), string(b.Priority),
		b.Reporter, b.Assignee, string(stepsJSON), string(envJSON),
		b.UpdatedAt, b.ID,
	)
	if err != nil {
		return wrapExecErr("update bug", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, b.ID)
	}
	return nil
}

func (s *SQLiteStore) DeleteBug(ctx context.Context, id string) error {
	if err := parseID(id); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM bugs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete bug: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBug(row rowScanner) (*models.Bug, error) {
	b := &models.Bug{}
	var status, priority, stepsJSON, envJSON string

	if err := row.Scan(&b.ID, &b.Title, &b.Description, &status, &priority,
		&b.Reporter, &b.Assignee, &stepsJSON, &envJSON,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}

	b.Status = models.BugStatus(status)
	b.Priority = models.BugPriority(priority)
	_ = json.Unmarshal([]byte(stepsJSON), &b.StepsToReproduce)
	_ = json.Unmarshal([]byte(envJSON), &b.Environment)
	if b.StepsToReproduce == nil {
		b.StepsToReproduce = []string{}
	}
	return b, nil
}
