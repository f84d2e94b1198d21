package search

import (
	"strconv"
	"strings"
)

// Dialect selects the SQL flavour a Predicate is rendered in.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	default:
		return "sqlite"
	}
}

// Placeholder returns the bind marker for the n-th (1-based) bound value.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Rebind rewrites a query written with "?" markers into the dialect's
// placeholder syntax. The query must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// match appends a clause comparing column to the bound query in mode m.
// Case-sensitive SQLite matching uses instr so the query stays literal.
func (d Dialect) match(b *Builder, column string, m matchMode, query string) {
	switch {
	case m == matchRegex:
		op := "REGEXP"
		if d == Postgres {
			op = "~*"
		}
		b.Push(column + " " + op + " ")
		b.Bind(query)
	case m == matchExact && d == SQLite:
		b.Push("instr(" + column + ", ")
		b.Bind(query)
		b.Push(") > 0")
	default:
		op := "LIKE"
		if m == matchFold && d == Postgres {
			op = "ILIKE"
		}
		b.Push(column + " " + op + " CONCAT('%', ")
		b.Bind(query)
		b.Push(d.textCast() + ", '%')")
	}
}

// textCast types a bound value passed to a variadic function such as
// CONCAT, where PostgreSQL cannot infer the parameter type.
func (d Dialect) textCast() string {
	if d == Postgres {
		return "::text"
	}
	return ""
}

// containsAll appends a clause that holds when column contains every tag.
func (d Dialect) containsAll(b *Builder, column string, tags []string) {
	switch d {
	case Postgres:
		b.Push(column + " @> ARRAY[")
		for i, tag := range tags {
			if i > 0 {
				b.Push(", ")
			}
			b.Bind(tag)
		}
		b.Push("]::text[]")
	default:
		b.Push("(SELECT COUNT(DISTINCT value) FROM json_each(" + column + ") WHERE value IN (")
		for i, tag := range tags {
			if i > 0 {
				b.Push(", ")
			}
			b.Bind(tag)
		}
		b.Push(")) = ")
		b.Bind(len(tags))
	}
}
