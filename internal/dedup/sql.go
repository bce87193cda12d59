package dedup

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	processedTableName  = "autopilot_processed"
	sqlOperationTimeout = 5 * time.Second
)

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

type sqlDialect struct {
	driver string
	create string
	has    string
	insert string
	trim   string
	reset  string
	recent string
}

var postgresDialect = sqlDialect{
	driver: "postgres",
	create: `
		CREATE TABLE IF NOT EXISTS ` + postgresQuoteIdentifier(processedTableName) + ` (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	has:    `SELECT 1 FROM ` + postgresQuoteIdentifier(processedTableName) + ` WHERE id = $1`,
	insert: `INSERT INTO ` + postgresQuoteIdentifier(processedTableName) + ` (id, processed_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
	trim: `
		DELETE FROM ` + postgresQuoteIdentifier(processedTableName) + ` WHERE seq IN (
			SELECT seq FROM ` + postgresQuoteIdentifier(processedTableName) + ` ORDER BY seq DESC OFFSET $1
		)`,
	reset:  `DELETE FROM ` + postgresQuoteIdentifier(processedTableName),
	recent: `SELECT id, processed_at FROM ` + postgresQuoteIdentifier(processedTableName) + ` ORDER BY seq DESC LIMIT $1`,
}

var sqliteDialect = sqlDialect{
	driver: "sqlite3",
	create: `
		CREATE TABLE IF NOT EXISTS ` + processedTableName + ` (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			processed_at DATETIME NOT NULL
		)`,
	has:    `SELECT 1 FROM ` + processedTableName + ` WHERE id = ?`,
	insert: `INSERT OR IGNORE INTO ` + processedTableName + ` (id, processed_at) VALUES (?, ?)`,
	trim: `
		DELETE FROM ` + processedTableName + ` WHERE seq NOT IN (
			SELECT seq FROM ` + processedTableName + ` ORDER BY seq DESC LIMIT ?
		)`,
	reset:  `DELETE FROM ` + processedTableName,
	recent: `SELECT id, processed_at FROM ` + processedTableName + ` ORDER BY seq DESC LIMIT ?`,
}

// SQLStore keeps the set in a single table. The schema is created lazily on
// first use so that constructing a store never touches the database.
type SQLStore struct {
	dsn      string
	dialect  sqlDialect
	capacity int
	openDB   sqlOpenFunc
	now      func() time.Time

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

func NewPostgresStore(dsn string, capacity int) (*SQLStore, error) {
	return newSQLStore(dsn, postgresDialect, capacity)
}

func NewSQLiteStore(path string, capacity int) (*SQLStore, error) {
	return newSQLStore(path, sqliteDialect, capacity)
}

func newSQLStore(dsn string, dialect sqlDialect, capacity int) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrInvalidInput
	}
	return &SQLStore{
		dsn:      dsn,
		dialect:  dialect,
		capacity: normalizeCapacity(capacity),
		openDB:   sql.Open,
		now:      time.Now,
	}, nil
}

func (s *SQLStore) Has(ctx context.Context, id string) (bool, error) {
	if err := s.ensureReady(ctx); err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, sqlOperationTimeout)
	defer cancel()

	var one int
	err := s.db.QueryRowContext(ctx, s.dialect.has, strings.TrimSpace(id)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) MarkDone(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, sqlOperationTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.dialect.insert, id, s.now().UTC()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.dialect.trim, s.capacity); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) Reset(ctx context.Context) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, sqlOperationTimeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx, s.dialect.reset)
	return err
}

func (s *SQLStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.capacity
	}
	ctx, cancel := context.WithTimeout(ctx, sqlOperationTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.dialect.recent, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ProcessedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) ensureReady(ctx context.Context) error {
	if s == nil {
		return ErrInvalidInput
	}
	s.initOnce.Do(func() {
		db, err := s.openDB(s.dialect.driver, s.dsn)
		if err != nil {
			s.initErr = err
			return
		}
		if s.dialect.driver == "sqlite3" {
			// one writer keeps read-modify-write free of SQLITE_BUSY
			db.SetMaxOpenConns(1)
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sqlOperationTimeout)
		defer cancel()
		if _, err := db.ExecContext(ctx, s.dialect.create); err != nil {
			_ = db.Close()
			s.initErr = err
			return
		}
		s.db = db
	})
	return s.initErr
}

func postgresQuoteIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return `""`
	}
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
