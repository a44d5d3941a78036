package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/t569/scanapi/pkg/endpoints"
	"github.com/t569/scanapi/pkg/errors"
)

const (
	defaultBusyTimeout = 5 * time.Second
	timeLayout         = time.RFC3339Nano
)

// SQLiteStore keeps records in a SQLite database through modernc.org/sqlite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pragmas and migrations.
func OpenSQLite(ctx context.Context, path string, maxOpenConns int) (*SQLiteStore, error) {
	if maxOpenConns <= 0 || path == ":memory:" {
		// every connection to ":memory:" is a separate database
		maxOpenConns = 1
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, errors.WrapResource("open", "store", path, err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := applyPragmas(ctx, db, path == ":memory:"); err != nil {
		db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, errors.WrapResource("migrate", "store", path, err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// dsn adds per-connection pragmas; applyPragmas only reaches one connection.
func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		path, sep, int(defaultBusyTimeout.Milliseconds()))
}

func applyPragmas(ctx context.Context, db *sql.DB, inMemory bool) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", int(defaultBusyTimeout.Milliseconds())),
		"PRAGMA foreign_keys = ON",
	}
	if !inMemory {
		pragmas = append(pragmas,
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
			"PRAGMA temp_store = MEMORY",
		)
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("store: apply pragma %q: %w", pragma, err)
		}
	}
	return nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string { return s.path }

// Acquire implements Store.
func (s *SQLiteStore) Acquire(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, errors.WrapResource("acquire", "store", "", err)
	}
	return &sqliteSession{conn: conn}, nil
}

// Ping implements Store.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type sqliteSession struct {
	conn *sql.Conn
}

const selectColumns = `id, name, url, digest, artifact, created_at, updated_at`

func (s *sqliteSession) GetByName(ctx context.Context, name string) (*endpoints.Record, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM endpoints WHERE name = ?`, name)
	rec, err := scanRecord(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError(resourceEndpoint, name)
	}
	if err != nil {
		return nil, errors.WrapResource("fetch", resourceEndpoint, name, err)
	}
	return rec, nil
}

func (s *sqliteSession) Insert(ctx context.Context, rec *endpoints.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO endpoints (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.URL, rec.Digest, rec.Artifact,
		rec.CreatedAt.Format(timeLayout), rec.UpdatedAt.Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewConflictError(resourceEndpoint, rec.Name, err)
		}
		return errors.WrapResource("create", resourceEndpoint, rec.Name, err)
	}
	return nil
}

func (s *sqliteSession) List(ctx context.Context, skip, limit int) ([]*endpoints.Record, error) {
	if skip < 0 || limit < 0 {
		return nil, errors.NewValidationError("skip/limit", fmt.Sprintf("%d/%d", skip, limit), "must be non-negative")
	}
	if limit == 0 {
		return []*endpoints.Record{}, nil
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM endpoints ORDER BY rowid LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, errors.WrapResource("list", resourceEndpoint, "", err)
	}
	defer rows.Close()

	out := []*endpoints.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.WrapResource("list", resourceEndpoint, "", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("list", resourceEndpoint, "", err)
	}
	return out, nil
}

func (s *sqliteSession) Update(ctx context.Context, rec *endpoints.Record) error {
	rec.UpdatedAt = time.Now().UTC()
	res, err := s.conn.ExecContext(ctx,
		`UPDATE endpoints SET url = ?, digest = ?, artifact = ?, updated_at = ? WHERE id = ?`,
		rec.URL, rec.Digest, rec.Artifact, rec.UpdatedAt.Format(timeLayout), rec.ID)
	if err != nil {
		return errors.WrapResource("update", resourceEndpoint, rec.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WrapResource("update", resourceEndpoint, rec.Name, err)
	}
	if n == 0 {
		return errors.NewNotFoundError(resourceEndpoint, rec.Name)
	}
	return nil
}

func (s *sqliteSession) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM endpoints`).Scan(&n); err != nil {
		return 0, errors.WrapResource("count", resourceEndpoint, "", err)
	}
	return n, nil
}

func (s *sqliteSession) Release() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*endpoints.Record, error) {
	var (
		rec              endpoints.Record
		created, updated string
	)
	if err := row.Scan(&rec.ID, &rec.Name, &rec.URL, &rec.Digest, &rec.Artifact, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if stderrors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
