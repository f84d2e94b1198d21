// Package storage persists records in SQLite or PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nikbrunner/li/internal/logger"
	"github.com/nikbrunner/li/internal/model"
	"github.com/nikbrunner/li/internal/search"
)

// currentSchemaVersion is the version written by the embedded schema files.
const currentSchemaVersion = 1

// Store is the persistence gateway used by the CLI.
type Store interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, r *model.Record) error
	Get(ctx context.Context, id int64) (model.Record, error)
	Update(ctx context.Context, r model.Record) error
	Delete(ctx context.Context, id int64) (int64, error)
	Select(ctx context.Context, p search.Predicate) ([]model.Record, error)
	InsertAll(ctx context.Context, records []model.Record) error
	TagCounts(ctx context.Context) ([]model.TagCount, error)
	Dialect() search.Dialect
	Close() error
}

// DB implements Store on database/sql for both supported dialects.
type DB struct {
	db      *sql.DB
	dialect search.Dialect
	log     logger.Logger
}

var _ Store = (*DB)(nil)

// Open connects to databaseURL. postgres:// and postgresql:// URLs select
// PostgreSQL; sqlite:// URLs, file: DSNs and bare paths select SQLite.
// SQLite databases are created and migrated on open; PostgreSQL databases
// need an explicit Init.
func Open(ctx context.Context, databaseURL string, log logger.Logger) (*DB, error) {
	if log == nil {
		log = logger.Nop()
	}

	var (
		s   *DB
		err error
	)
	if isPostgresURL(databaseURL) {
		s, err = openPostgres(ctx, databaseURL, log)
	} else {
		s, err = openSQLite(ctx, databaseURL, log)
	}
	if err != nil {
		return nil, err
	}
	log.Debug("store opened", logger.String("dialect", s.dialect.String()))
	return s, nil
}

func isPostgresURL(databaseURL string) bool {
	lower := strings.ToLower(databaseURL)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// Dialect returns the SQL flavour predicates must be rendered in.
func (s *DB) Dialect() search.Dialect {
	return s.dialect
}

// Close closes the database connection.
func (s *DB) Close() error {
	return s.db.Close()
}

// Init creates the schema. It is safe to call on an initialized database.
func (s *DB) Init(ctx context.Context) error {
	if s.schemaVersion(ctx) >= currentSchemaVersion {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.schema()); err != nil {
		return fmt.Errorf("storage: init schema: %w", err)
	}
	s.log.Info("schema initialized", logger.Int("version", currentSchemaVersion))
	return nil
}

// schemaVersion returns 0 when the schema has not been created yet.
func (s *DB) schemaVersion(ctx context.Context) int {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_version").Scan(&version)
	if err != nil {
		return 0
	}
	return version
}

const selectColumns = "SELECT id, title, tags, description, url FROM links"

// Insert stores r and sets its ID.
func (s *DB) Insert(ctx context.Context, r *model.Record) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("storage: insert: %w", err)
	}
	if err := s.insert(ctx, s.db, r); err != nil {
		return fmt.Errorf("storage: insert: %w", err)
	}
	s.log.Info("link inserted", logger.Int64("id", r.ID), logger.String("url", r.URL))
	return nil
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *DB) insert(ctx context.Context, q queryRower, r *model.Record) error {
	tags, err := s.tagsArg(r.Tags)
	if err != nil {
		return err
	}
	query := s.dialect.Rebind("INSERT INTO links (url, title, description, tags) VALUES (?, ?, ?, ?) RETURNING id")
	if err := q.QueryRowContext(ctx, query, r.URL, r.Title, r.Description, tags).Scan(&r.ID); err != nil {
		return s.translate(err)
	}
	return nil
}

// Get returns the record with the given ID.
func (s *DB) Get(ctx context.Context, id int64) (model.Record, error) {
	query := s.dialect.Rebind(selectColumns + " WHERE id = ?")
	r, err := s.scanRecord(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, model.ErrNotFound
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("storage: get: %w", err)
	}
	return r, nil
}

// Update overwrites every column of the record identified by r.ID.
func (s *DB) Update(ctx context.Context, r model.Record) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("storage: update: %w", err)
	}
	tags, err := s.tagsArg(r.Tags)
	if err != nil {
		return fmt.Errorf("storage: update: %w", err)
	}

	query := s.dialect.Rebind("UPDATE links SET url = ?, title = ?, description = ?, tags = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query, r.URL, r.Title, r.Description, tags, r.ID)
	if err != nil {
		return fmt.Errorf("storage: update: %w", s.translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: update: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	s.log.Info("link updated", logger.Int64("id", r.ID))
	return nil
}

// Delete removes the record with the given ID and reports how many rows
// were deleted. Deleting a missing ID is not an error here.
func (s *DB) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.Rebind("DELETE FROM links WHERE id = ?"), id)
	if err != nil {
		return 0, fmt.Errorf("storage: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storage: delete: %w", err)
	}
	s.log.Info("link deleted", logger.Int64("id", id), logger.Int64("rows", n))
	return n, nil
}

// Select returns the records matching p ordered by ID. p must have been
// built for s.Dialect().
func (s *DB) Select(ctx context.Context, p search.Predicate) ([]model.Record, error) {
	query := selectColumns + p.Clause() + " ORDER BY id" + p.LimitClause()
	s.log.Debug("select", logger.String("sql", query))

	rows, err := s.db.QueryContext(ctx, query, p.Args...)
	if err != nil {
		return nil, fmt.Errorf("storage: select: %w", err)
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		r, err := s.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: select: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: select: %w", err)
	}
	return records, nil
}

// InsertAll stores records in a single transaction: all or nothing.
// IDs are written back into the slice only when the whole batch commits.
func (s *DB) InsertAll(ctx context.Context, records []model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: import: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, len(records))
	for i := range records {
		r := records[i]
		if err := r.Validate(); err != nil {
			return fmt.Errorf("storage: import %s: %w", r.URL, err)
		}
		if err := s.insert(ctx, tx, &r); err != nil {
			return fmt.Errorf("storage: import %s: %w", r.URL, err)
		}
		ids[i] = r.ID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: import: commit: %w", err)
	}
	for i := range records {
		records[i].ID = ids[i]
	}
	s.log.Info("links imported", logger.Int("count", len(records)))
	return nil
}

// TagCounts returns every distinct tag with the number of records carrying
// it, most used first and ties by tag.
func (s *DB) TagCounts(ctx context.Context) ([]model.TagCount, error) {
	rows, err := s.db.QueryContext(ctx, s.tagCountsQuery())
	if err != nil {
		return nil, fmt.Errorf("storage: tags: %w", err)
	}
	defer rows.Close()

	counts := []model.TagCount{}
	for rows.Next() {
		var tc model.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("storage: tags: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: tags: %w", err)
	}
	return counts, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *DB) scanRecord(row rowScanner) (model.Record, error) {
	var (
		r    model.Record
		desc sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Title, s.tagsDest(&r.Tags), &desc, &r.URL); err != nil {
		return model.Record{}, err
	}
	if desc.Valid {
		r.Description = &desc.String
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r, nil
}

// translate maps driver unique violations to model.ErrDuplicateURL.
func (s *DB) translate(err error) error {
	if s.isUniqueViolation(err) {
		return fmt.Errorf("%w: %w", model.ErrDuplicateURL, err)
	}
	return err
}

func (s *DB) schema() string {
	if s.dialect == search.Postgres {
		return postgresSchema
	}
	return sqliteSchema
}

func (s *DB) tagsArg(tags []string) (any, error) {
	if s.dialect == search.Postgres {
		return postgresTagsArg(tags), nil
	}
	return sqliteTagsArg(tags)
}

func (s *DB) tagsDest(tags *[]string) any {
	if s.dialect == search.Postgres {
		return postgresTagsDest(tags)
	}
	return &jsonTags{dst: tags}
}

func (s *DB) isUniqueViolation(err error) bool {
	if s.dialect == search.Postgres {
		return isPostgresUnique(err)
	}
	return isSQLiteUnique(err)
}

func (s *DB) tagCountsQuery() string {
	if s.dialect == search.Postgres {
		return postgresTagCounts
	}
	return sqliteTagCounts
}
