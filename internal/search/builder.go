package search

import "strings"

// Builder accumulates SQL text together with the values bound to its
// placeholders. Text and values are only ever appended, so the n-th
// placeholder always refers to the n-th value.
type Builder struct {
	dialect Dialect
	sql     strings.Builder
	args    []any
}

// NewBuilder returns an empty Builder rendering placeholders for d.
func NewBuilder(d Dialect) *Builder {
	return &Builder{dialect: d}
}

// Push appends a literal SQL fragment.
func (b *Builder) Push(fragment string) {
	b.sql.WriteString(fragment)
}

// Bind appends a placeholder and records v as its value.
func (b *Builder) Bind(v any) {
	b.sql.WriteString(b.reserve(v))
}

// reserve records v and returns its placeholder without writing it.
func (b *Builder) reserve(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// SQL returns the text accumulated so far.
func (b *Builder) SQL() string {
	return b.sql.String()
}

// Args returns a copy of the bound values in placeholder order.
func (b *Builder) Args() []any {
	return append([]any(nil), b.args...)
}
