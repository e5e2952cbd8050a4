// Package sqlstore implements storage.Store on top of database/sql.
// Queries are written with '?' placeholders and rebound per dialect, so the
// SQLite and PostgreSQL backends share one implementation.
package sqlstore

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Dialect describes the placeholder style of a SQL backend.
type Dialect int

const (
	// Question uses '?' placeholders (SQLite).
	Question Dialect = iota
	// Dollar uses '$1, $2, ...' placeholders (PostgreSQL).
	Dollar
)

// Store implements storage.Store with plain SQL.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open, migrated database.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB exposes the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// q rebinds a '?' query for the store's dialect.
func (s *Store) q(query string) string {
	if s.dialect != Dollar {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// placeholders returns "?, ?, ..." with n entries.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

type scanner interface {
	Scan(dest ...any) error
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
