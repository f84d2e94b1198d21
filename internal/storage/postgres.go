package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/nikbrunner/li/internal/logger"
	"github.com/nikbrunner/li/internal/search"
)

//go:embed schema_postgres.sql
var postgresSchema string

const postgresTagCounts = `
	SELECT tag, COUNT(*) AS count
	FROM links, unnest(links.tags) AS tag
	GROUP BY tag
	ORDER BY count DESC, tag
`

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// openPostgres connects to a PostgreSQL database. The schema is created by Init.
func openPostgres(ctx context.Context, databaseURL string, log logger.Logger) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}
	return &DB{db: db, dialect: search.Postgres, log: log}, nil
}

func postgresTagsArg(tags []string) any {
	if tags == nil {
		tags = []string{}
	}
	return pq.Array(tags)
}

func postgresTagsDest(tags *[]string) any {
	return pq.Array(tags)
}

func isPostgresUnique(err error) bool {
	var perr *pq.Error
	if errors.As(err, &perr) {
		return perr.Code == uniqueViolation
	}
	return false
}
