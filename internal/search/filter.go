package search

import (
	"fmt"
	"strings"

	"github.com/nikbrunner/li/internal/model"
)

// DefaultLimit is the number of records returned when no limit is given.
const DefaultLimit = 30

// Field is a record column a free-text query can be matched against.
type Field int

const (
	FieldTitle Field = iota
	FieldDescription
)

// canonicalFields fixes the order in which per-field clauses are emitted.
var canonicalFields = []Field{FieldTitle, FieldDescription}

// Column returns the column name of f.
func (f Field) Column() string {
	if f == FieldDescription {
		return "description"
	}
	return "title"
}

// String returns the flag spelling of f.
func (f Field) String() string {
	if f == FieldDescription {
		return "desc"
	}
	return "title"
}

// ParseField parses a flag value ("title", "desc" or "description").
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "title":
		return FieldTitle, nil
	case "desc", "description":
		return FieldDescription, nil
	default:
		return 0, fmt.Errorf("unknown filter field %q (want title or desc)", s)
	}
}

// Filter holds the optional search criteria of a query.
type Filter struct {
	Query      *string  // nil = no text criterion; "" is a valid query
	Regex      bool     // match Query as a case-insensitive regular expression
	IgnoreCase bool     // case-insensitive substring match; ignored with Regex
	Fields     []Field  // columns Query is matched against; empty = title
	Tags       []string // every tag must be present on a matching record
	Limit      int      // positive; validated by the caller
}

// Predicate is a parameterized WHERE expression plus a bound limit.
// Args holds the values of Where's placeholders followed by the limit.
type Predicate struct {
	Where string
	Limit string
	Args  []any
}

// Clause returns " WHERE <expr>", or "" when the predicate is unconditional.
func (p Predicate) Clause() string {
	if p.Where == "" {
		return ""
	}
	return " WHERE " + p.Where
}

// LimitClause returns " LIMIT <placeholder>".
func (p Predicate) LimitClause() string {
	return " LIMIT " + p.Limit
}

type matchMode int

const (
	matchExact matchMode = iota
	matchFold
	matchRegex
)

func (f Filter) mode() matchMode {
	switch {
	case f.Regex:
		return matchRegex
	case f.IgnoreCase:
		return matchFold
	default:
		return matchExact
	}
}

// fields returns the requested fields, deduplicated and in canonical order.
func (f Filter) fields() []Field {
	if len(f.Fields) == 0 {
		return []Field{FieldTitle}
	}
	requested := make(map[Field]bool, len(f.Fields))
	for _, field := range f.Fields {
		requested[field] = true
	}
	fields := make([]Field, 0, len(requested))
	for _, field := range canonicalFields {
		if requested[field] {
			fields = append(fields, field)
		}
	}
	return fields
}

// Build turns f into a Predicate rendered for d. The text clause comes
// first, then the tag containment clause, then the limit.
func Build(f Filter, d Dialect) Predicate {
	b := NewBuilder(d)

	if f.Query != nil {
		mode := f.mode()

		b.Push("(")
		for i, field := range f.fields() {
			if i > 0 {
				b.Push(" OR ")
			}
			d.match(b, field.Column(), mode, *f.Query)
		}
		b.Push(")")
	}

	if tags := model.DedupeTags(f.Tags); len(tags) > 0 {
		if f.Query != nil {
			b.Push(" AND ")
		}
		d.containsAll(b, "tags", tags)
	}

	where := b.SQL()
	limit := b.reserve(f.Limit)
	return Predicate{
		Where: where,
		Limit: limit,
		Args:  b.Args(),
	}
}
