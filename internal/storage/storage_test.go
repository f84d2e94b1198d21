package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nikbrunner/li/internal/model"
	"github.com/nikbrunner/li/internal/search"
	"github.com/nikbrunner/li/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a constructor per available dialect. PostgreSQL runs only
// when LI_TEST_POSTGRES_URL points at a scratch database.
func backends(t *testing.T) map[string]func(t *testing.T) *storage.DB {
	t.Helper()
	all := map[string]func(t *testing.T) *storage.DB{
		"sqlite": openSQLite,
	}
	if url := os.Getenv("LI_TEST_POSTGRES_URL"); url != "" {
		all["postgres"] = func(t *testing.T) *storage.DB {
			return openPostgres(t, url)
		}
	}
	return all
}

func openSQLite(t *testing.T) *storage.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "links.db")
	s, err := storage.Open(context.Background(), "sqlite://"+path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func openPostgres(t *testing.T, url string) *storage.DB {
	t.Helper()
	ctx := context.Background()
	s, err := storage.Open(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Init(ctx))
	require.NoError(t, truncate(ctx, s))
	return s
}

// truncate empties the links table between tests.
func truncate(ctx context.Context, s *storage.DB) error {
	records, err := s.Select(ctx, search.Build(search.Filter{Limit: 1 << 30}, s.Dialect()))
	if err != nil {
		return err
	}
	for _, r := range records {
		if _, err := s.Delete(ctx, r.ID); err != nil {
			return err
		}
	}
	return nil
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s *storage.DB)) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func newRecord(t *testing.T, url, title string, desc *string, tags ...string) model.Record {
	t.Helper()
	r, err := model.NewRecord(url, title)
	require.NoError(t, err)
	r.Description = desc
	if tags != nil {
		r.Tags = tags
	}
	return r
}

func ptr(s string) *string { return &s }

func ids(records []model.Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestInsertAndGet(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *storage.DB) {
		ctx := context.Background()

		r := newRecord(t, "https://go.dev/doc/", "Go Documentation", ptr("Docs"), "go", "docs")
		require.NoError(t, s.Insert(ctx, &r))
		assert.True(t, r.Persisted())

		plain := newRecord(t, "https://example.com", "Example", nil)
		require.NoError(t, s.Insert(ctx, &plain))
		assert.NotEqual(t, r.ID, plain.ID)

		got, err := s.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r, got)

		got, err = s.Get(ctx, plain.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Description)
		assert.Equal(t, []string{}, got.Tags)
		assert.Equal(t, "https://example.com/", got.URL)
	})
}

func TestInsert_DuplicateURL(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *storage.DB) {
		ctx := context.Background()

		first := newRecord(t, "https://example.com/", "One", nil)
		require.NoError(t, s.Insert(ctx, &first))

		second := newRecord(t, "https://EXAMPLE.com:443", "Two", nil)
		err := s.Insert(ctx, &second)
		assert.ErrorIs(t, err, model.ErrDuplicateURL)
		assert.False(t, second.Persisted())
	})
}

func TestGet_NotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *storage.DB) {
		_, err := s.Get(context.Background(), 4242)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestUpdate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *storage.DB) {
		ctx := context.Background()

		a := newRecord(t, "https://a.example/", "A", nil, "x")
		b := newRecord(t, "https://b.example/", "B", nil)
		require.NoError(t, s.Insert(ctx, &a))
		require.NoError(t, s.Insert(ctx, &b))

		require.NoError(t, a.Apply(model.Edit{Tags: []string{"y", "x"}, AppendTags: true, Description: ptr("about a")}))
		require.NoError(t, s.Update(ctx, a))

		got, err := s.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, got.Tags)
		assert.Equal(t, ptr("about a"), got.Description)

		// Unchanged values still count as a match.
		require.NoError(t, s.Update(ctx, got))

		missing := a
		missing.ID = 9999
		assert.ErrorIs(t, s.Update(ctx, missing), model.ErrNotFound)

		clash := b
		clash.URL = a.URL
		assert.ErrorIs(t, s.Update(ctx, clash), model.ErrDuplicateURL)
	})
}

func TestDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *storage.DB) {
		ctx := context.Background()

		r := newRecord(t, "https://example.com/", "Example", nil)
		require.NoError(t, s.Insert(ctx, &r))

		n, err := s.Delete(ctx, r.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = s.Delete(ctx, r.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)

		_, err = s.Get(ctx, r.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func seed(t *testing.T, s *storage.DB) []model.Record {
	t.Helper()
	records := []model.Record{
		newRecord(t, "https://go.dev/doc/", "Go Documentation", ptr("The Go programming language"), "go", "docs", "lang"),
		newRecord(t, "https://doc.rust-lang.org/book/", "Rust Book", nil, "rust", "docs"),
		newRecord(t, "https://gobyexample.com/", "go by example", ptr("Annotated example programs"), "go", "examples"),
		newRecord(t, "https://reactrouter.com/", "React Router", ptr("Declarative routing for React"), "react", "web"),
	}
	for i := range records {
		require.NoError(t, s.Insert(context.Background(), &records[i]))
	}
	return records
}

func TestSelect(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *storage.DB) {
		ctx := context.Background()
		seeded := seed(t, s)
		id := func(i int) int64 { return seeded[i].ID }
		q := func(s string) *string { return &s }

		tests := []struct {
			name   string
			filter search.Filter
			want   []int64
		}{
			{name: "everything", filter: search.Filter{}, want: []int64{id(0), id(1), id(2), id(3)}},
			{name: "limit", filter: search.Filter{Limit: 2}, want: []int64{id(0), id(1)}},
			{name: "empty query", filter: search.Filter{Query: q("")}, want: []int64{id(0), id(1), id(2), id(3)}},
			{name: "case-sensitive", filter: search.Filter{Query: q("Go")}, want: []int64{id(0)}},
			{name: "ignore case", filter: search.Filter{Query: q("go"), IgnoreCase: true}, want: []int64{id(0), id(2)}},
			{name: "regex is case-insensitive", filter: search.Filter{Query: q("^GO"), Regex: true}, want: []int64{id(0), id(2)}},
			{name: "regex anchor", filter: search.Filter{Query: q("book$"), Regex: true}, want: []int64{id(1)}},
			{
				name:   "description only",
				filter: search.Filter{Query: q("example"), IgnoreCase: true, Fields: []search.Field{search.FieldDescription}},
				want:   []int64{id(2)},
			},
			{
				name:   "title or description",
				filter: search.Filter{Query: q("routing"), IgnoreCase: true, Fields: []search.Field{search.FieldDescription, search.FieldTitle}},
				want:   []int64{id(3)},
			},
			{name: "single tag", filter: search.Filter{Tags: []string{"docs"}}, want: []int64{id(0), id(1)}},
			{name: "all tags required", filter: search.Filter{Tags: []string{"go", "docs"}}, want: []int64{id(0)}},
			{name: "disjoint tags", filter: search.Filter{Tags: []string{"go", "rust"}}, want: []int64{}},
			{name: "duplicate tags", filter: search.Filter{Tags: []string{"go", "go"}}, want: []int64{id(0), id(2)}},
			{
				name:   "query and tags",
				filter: search.Filter{Query: q("go"), IgnoreCase: true, Tags: []string{"examples"}},
				want:   []int64{id(2)},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := tt.filter
				if f.Limit == 0 {
					f.Limit = search.DefaultLimit
				}
				got, err := s.Select(ctx, search.Build(f, s.Dialect()))
				require.NoError(t, err)
				assert.Equal(t, tt.want, ids(got))
			})
		}
	})
}

func TestSelect_TagContainment(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *storage.DB) {
		ctx := context.Background()
		r := newRecord(t, "https://example.com/", "Example", nil, "a", "b", "c")
		require.NoError(t, s.Insert(ctx, &r))

		match := func(tags ...string) int {
			got, err := s.Select(ctx, search.Build(search.Filter{Tags: tags, Limit: 30}, s.Dialect()))
			require.NoError(t, err)
			return len(got)
		}

		assert.Equal(t, 1, match("a", "b"))
		assert.Equal(t, 1, match("c", "a", "b"))
		assert.Equal(t, 0, match("a", "d"))
	})
}

func TestSelect_CaseSensitiveIsLiteral(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *storage.DB) {
		ctx := context.Background()
		report := newRecord(t, "https://example.com/report.pdf", "[PDF] Annual report", nil)
		paper := newRecord(t, "https://example.com/paper", "Unrelated Paper", nil)
		star := newRecord(t, "https://example.com/star", "Rated 5* by readers", nil)
		require.NoError(t, s.InsertAll(ctx, []model.Record{report, paper, star}))

		titles := func(query string) []string {
			got, err := s.Select(ctx, search.Build(search.Filter{Query: &query, Limit: 30}, s.Dialect()))
			require.NoError(t, err)
			out := []string{}
			for _, r := range got {
				out = append(out, r.Title)
			}
			return out
		}

		assert.Equal(t, []string{"[PDF] Annual report"}, titles("[PDF]"))
		assert.Equal(t, []string{"[PDF] Annual report"}, titles("["))
		assert.Equal(t, []string{"Rated 5* by readers"}, titles("5*"))
		assert.Equal(t, []string{}, titles("P?per"))
		assert.Equal(t, []string{}, titles("pdf"))
	})
}

func TestSelect_InvalidRegex(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *storage.DB) {
		seed(t, s)
		bad := "(["
		_, err := s.Select(context.Background(), search.Build(search.Filter{Query: &bad, Regex: true, Limit: 30}, s.Dialect()))
		assert.Error(t, err)
	})
}

func TestInsertAll(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *storage.DB) {
		ctx := context.Background()
		batch := []model.Record{
			newRecord(t, "https://one.example/", "One", nil, "x"),
			newRecord(t, "https://two.example/", "Two", ptr("second")),
		}

		require.NoError(t, s.InsertAll(ctx, batch))
		assert.True(t, batch[0].Persisted())
		assert.True(t, batch[1].Persisted())

		got, err := s.Get(ctx, batch[1].ID)
		require.NoError(t, err)
		assert.Equal(t, batch[1], got)
	})
}

func TestInsertAll_RollsBack(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *storage.DB) {
		ctx := context.Background()
		existing := newRecord(t, "https://dup.example/", "Existing", nil)
		require.NoError(t, s.Insert(ctx, &existing))

		batch := []model.Record{
			newRecord(t, "https://fresh.example/", "Fresh", nil),
			newRecord(t, "https://dup.example/", "Duplicate", nil),
		}
		err := s.InsertAll(ctx, batch)
		assert.ErrorIs(t, err, model.ErrDuplicateURL)
		assert.False(t, batch[0].Persisted())

		all, err := s.Select(ctx, search.Build(search.Filter{Limit: 30}, s.Dialect()))
		require.NoError(t, err)
		assert.Equal(t, []int64{existing.ID}, ids(all))
	})
}

func TestTagCounts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *storage.DB) {
		ctx := context.Background()

		counts, err := s.TagCounts(ctx)
		require.NoError(t, err)
		assert.Empty(t, counts)

		seed(t, s)
		counts, err = s.TagCounts(ctx)
		require.NoError(t, err)

		assert.Equal(t, []model.TagCount{
			{Tag: "docs", Count: 2},
			{Tag: "go", Count: 2},
			{Tag: "examples", Count: 1},
			{Tag: "lang", Count: 1},
			{Tag: "react", Count: 1},
			{Tag: "rust", Count: 1},
			{Tag: "web", Count: 1},
		}, counts)
	})
}

func TestInit_Idempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *storage.DB) {
		ctx := context.Background()
		r := newRecord(t, "https://example.com/", "Example", nil)
		require.NoError(t, s.Insert(ctx, &r))

		require.NoError(t, s.Init(ctx))
		require.NoError(t, s.Init(ctx))

		_, err := s.Get(ctx, r.ID)
		assert.NoError(t, err)
	})
}

func TestOpen_SQLiteReopen(t *testing.T) {
	ctx := context.Background()
	url := "sqlite://" + filepath.Join(t.TempDir(), "links.db")

	s, err := storage.Open(ctx, url, nil)
	require.NoError(t, err)
	r := newRecord(t, "https://example.com/", "Example", nil, "keep")
	require.NoError(t, s.Insert(ctx, &r))
	require.NoError(t, s.Close())

	s, err = storage.Open(ctx, url, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)
	assert.Equal(t, search.SQLite, s.Dialect())
}

func TestOpen_InMemoryIsolated(t *testing.T) {
	ctx := context.Background()

	a, err := storage.Open(ctx, "sqlite://:memory:", nil)
	require.NoError(t, err)
	defer a.Close()
	b, err := storage.Open(ctx, ":memory:", nil)
	require.NoError(t, err)
	defer b.Close()

	r := newRecord(t, "https://example.com/", "Example", nil)
	require.NoError(t, a.Insert(ctx, &r))

	_, err = b.Get(ctx, r.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
