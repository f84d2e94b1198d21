package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nikbrunner/li/internal/logger"
	"github.com/nikbrunner/li/internal/search"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

const sqliteTagCounts = `
	SELECT j.value AS tag, COUNT(*) AS count
	FROM links, json_each(links.tags) AS j
	GROUP BY j.value
	ORDER BY count DESC, tag
`

// sqlitePragmas are applied to every pooled connection through the DSN.
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// memoryPragmas omit WAL, which in-memory databases do not support.
var memoryPragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

func init() {
	// X REGEXP Y is evaluated as regexp(Y, X).
	sqlite.MustRegisterDeterministicScalarFunction("regexp", 2, sqliteRegexp)
}

// regexpCache holds compiled patterns by source text.
var regexpCache sync.Map

// sqliteRegexp matches case-insensitively. NULL values never match.
func sqliteRegexp(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	pattern, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("regexp: pattern must be text")
	}
	var value string
	switch v := args[1].(type) {
	case nil:
		return int64(0), nil
	case string:
		value = v
	case []byte:
		value = string(v)
	default:
		value = fmt.Sprint(v)
	}

	re, err := compileRegexp(pattern)
	if err != nil {
		return nil, err
	}
	if re.MatchString(value) {
		return int64(1), nil
	}
	return int64(0), nil
}

func compileRegexp(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexpCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("regexp: %w", err)
	}
	regexpCache.Store(pattern, re)
	return re, nil
}

// openSQLite opens (creating if needed) and migrates a SQLite database.
func openSQLite(ctx context.Context, databaseURL string, log logger.Logger) (*DB, error) {
	dsn, path, err := sqliteDSN(databaseURL)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("storage: create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	// A single connection keeps writes serialized and in-memory databases alive.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}

	s := &DB{db: db, dialect: search.SQLite, log: log}
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if path != "" {
		log.Debug("sqlite database", logger.String("path", path))
	}
	return s, nil
}

// sqliteDSN converts a database URL into a modernc DSN carrying the
// connection pragmas. path is the database file, or "" for in-memory
// databases and raw file: DSNs.
func sqliteDSN(databaseURL string) (dsn, path string, err error) {
	raw := strings.TrimSpace(databaseURL)
	raw = strings.TrimPrefix(raw, "sqlite://")
	raw = strings.TrimPrefix(raw, "sqlite:")

	if raw == "" {
		return "", "", errors.New("storage: empty sqlite path")
	}

	if raw == ":memory:" {
		name := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
		return withPragmas(name, memoryPragmas), "", nil
	}

	if strings.HasPrefix(raw, "file:") {
		return withPragmas(raw, sqlitePragmas), "", nil
	}

	if strings.HasPrefix(raw, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", fmt.Errorf("storage: expand ~: %w", err)
		}
		raw = filepath.Join(home, raw[2:])
	}

	path = raw
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return withPragmas(raw, sqlitePragmas), path, nil
}

func withPragmas(dsn string, pragmas []string) string {
	var b strings.Builder
	b.WriteString(dsn)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

func sqliteTagsArg(tags []string) (any, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return string(data), nil
}

// jsonTags scans a JSON array column into a string slice.
type jsonTags struct {
	dst *[]string
}

func (j *jsonTags) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*j.dst = []string{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}

	tags := []string{}
	if err := json.Unmarshal(data, &tags); err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	*j.dst = tags
	return nil
}

func isSQLiteUnique(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		return serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
