// Package devserver is a small reference backend for the notification feed.
// It persists notifications in SQLite and pushes new ones to SSE and
// websocket subscribers.
package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var (
	// ErrInvalidNotification indicates a create request without the required fields.
	ErrInvalidNotification = errors.New("invalid notification")
)

// timeLayout keeps stored timestamps fixed-width so they sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS notifications (
	seq                 INTEGER PRIMARY KEY AUTOINCREMENT,
	id                  TEXT NOT NULL UNIQUE,
	type                TEXT NOT NULL,
	title               TEXT NOT NULL,
	message             TEXT NOT NULL DEFAULT '',
	related_entity_id   TEXT NOT NULL DEFAULT '',
	related_entity_type TEXT NOT NULL DEFAULT '',
	read                INTEGER NOT NULL DEFAULT 0,
	read_at             TEXT,
	created_at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications (created_at DESC, seq DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (read);
INSERT INTO schema_version (version) VALUES (1);`,
	},
}

// CreateRequest is the body of a create call.
type CreateRequest struct {
	Type              string `json:"type" binding:"required"`
	Title             string `json:"title" binding:"required"`
	Message           string `json:"message"`
	RelatedEntityID   string `json:"relatedEntityId"`
	RelatedEntityType string `json:"relatedEntityType"`
}

// Validate checks fields binding tags cannot express.
func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.Type) == "" || strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: type and title are required", ErrInvalidNotification)
	}
	if r.RelatedEntityType != "" && !domain.EntityType(r.RelatedEntityType).IsValid() {
		return fmt.Errorf("%w: unknown relatedEntityType %q", ErrInvalidNotification, r.RelatedEntityType)
	}
	if (r.RelatedEntityType == "") != (r.RelatedEntityID == "") {
		return fmt.Errorf("%w: relatedEntityId and relatedEntityType go together", ErrInvalidNotification)
	}
	return nil
}

type notificationRow struct {
	Seq               int64          `db:"seq"`
	ID                string         `db:"id"`
	Type              string         `db:"type"`
	Title             string         `db:"title"`
	Message           string         `db:"message"`
	RelatedEntityID   string         `db:"related_entity_id"`
	RelatedEntityType string         `db:"related_entity_type"`
	Read              bool           `db:"read"`
	ReadAt            sql.NullString `db:"read_at"`
	CreatedAt         string         `db:"created_at"`
}

func (r notificationRow) notification() (domain.Notification, error) {
	createdAt, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("parse created_at of %s: %w", r.ID, err)
	}
	n := domain.Notification{
		ID:        r.ID,
		Kind:      domain.Kind(r.Type),
		Title:     r.Title,
		Body:      r.Message,
		Related:   domain.RelatedEntity{ID: r.RelatedEntityID, Type: domain.EntityType(r.RelatedEntityType)},
		Read:      r.Read,
		CreatedAt: createdAt,
	}
	if r.ReadAt.Valid {
		readAt, err := time.Parse(timeLayout, r.ReadAt.String)
		if err != nil {
			return domain.Notification{}, fmt.Errorf("parse read_at of %s: %w", r.ID, err)
		}
		n.ReadAt = &readAt
	}
	return n, nil
}

// Store persists notifications in SQLite.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// OpenStore opens (or creates) the database at dbPath and applies pending
// migrations. MemoryPath gives a throwaway database.
func OpenStore(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("devserver store: db path cannot be empty")
	}
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("devserver store: create db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("devserver store: open db: %w", err)
	}
	// Every pooled connection to :memory: would see its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("devserver store: set busy timeout: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("devserver store: running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(&tableCount, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// Create stores a new unread notification with a fresh id.
func (s *Store) Create(ctx context.Context, req CreateRequest) (domain.Notification, error) {
	if err := req.Validate(); err != nil {
		return domain.Notification{}, err
	}

	n := domain.Notification{
		ID:        uuid.NewString(),
		Kind:      domain.Kind(req.Type),
		Title:     req.Title,
		Body:      req.Message,
		Related:   domain.RelatedEntity{ID: req.RelatedEntityID, Type: domain.EntityType(req.RelatedEntityType)},
		CreatedAt: s.now().UTC(),
	}

	const query = `
		INSERT INTO notifications (
			id, type, title, message,
			related_entity_id, related_entity_type,
			read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, 0, ?)`
	_, err := s.db.ExecContext(ctx, query,
		n.ID, string(n.Kind), n.Title, n.Body,
		n.Related.ID, string(n.Related.Type),
		n.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("inserting notification: %w", err)
	}
	return n, nil
}

// List returns one page, newest first, and whether more rows follow it.
func (s *Store) List(ctx context.Context, limit, skip int) ([]domain.Notification, bool, error) {
	if limit <= 0 {
		return nil, false, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if skip < 0 {
		skip = 0
	}

	var rows []notificationRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM notifications ORDER BY created_at DESC, seq DESC LIMIT ? OFFSET ?",
		limit+1, skip)
	if err != nil {
		return nil, false, fmt.Errorf("listing notifications: %w", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	out := make([]domain.Notification, 0, len(rows))
	for _, r := range rows {
		n, err := r.notification()
		if err != nil {
			return nil, false, err
		}
		out = append(out, n)
	}
	return out, hasMore, nil
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM notifications WHERE read = 0"); err != nil {
		return 0, fmt.Errorf("counting unread: %w", err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification read and returns how many changed.
func (s *Store) MarkAllRead(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1, read_at = ? WHERE read = 0",
		s.now().UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("marking all read: %w", err)
	}
	return res.RowsAffected()
}
