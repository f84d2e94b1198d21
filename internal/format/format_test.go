package format

import (
	"bytes"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"

	"github.com/nikbrunner/li/internal/model"
)

// ansiRegex matches ANSI escape sequences.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

func ptr(s string) *string { return &s }

// testRecords covers a described and tagged record, a bare one, and an id
// wider than the id column with an empty description.
func testRecords() []model.Record {
	return []model.Record{
		{
			ID:          1,
			Title:       "Go Documentation",
			Tags:        []string{"go", "docs"},
			Description: ptr("The Go programming language"),
			URL:         "https://go.dev/doc/",
		},
		{
			ID:    12,
			Title: "Example",
			Tags:  []string{},
			URL:   "https://example.com/",
		},
		{
			ID:          12345,
			Title:       "Big <id> & co",
			Tags:        []string{"x"},
			Description: ptr(""),
			URL:         "https://example.org/?a=1&b=2",
		},
	}
}

func render(t *testing.T, mode Mode, opts ...Option) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, New(&buf, mode, opts...).WriteAll(testRecords()))
	return buf.String()
}

func TestFormat_Golden(t *testing.T) {
	for _, mode := range Modes {
		t.Run(string(mode), func(t *testing.T) {
			out := render(t, mode, WithColorProfile(termenv.Ascii))
			golden.Assert(t, out, string(mode)+".golden")
		})
	}
}

func TestFormat_PrettyColor(t *testing.T) {
	colored := render(t, ModePretty, WithColorProfile(termenv.ANSI256))
	plain := render(t, ModePretty, WithColorProfile(termenv.Ascii))

	assert.Contains(t, colored, "\x1b[")
	assert.NotContains(t, plain, "\x1b[")
	assert.Equal(t, plain, stripANSI(colored))
}

func TestFormat_NonTerminalIsPlain(t *testing.T) {
	t.Setenv("CLICOLOR_FORCE", "")
	var buf bytes.Buffer
	require.NoError(t, Format(&buf, testRecords()[0], ModePretty))
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestFormat_JSONLShape(t *testing.T) {
	var buf bytes.Buffer
	r := model.Record{ID: 3, Title: "T", URL: "https://t.example/"}
	require.NoError(t, Format(&buf, r, ModeJSONL))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []any{}, decoded["tags"])
	assert.Nil(t, decoded["description"])
	assert.Contains(t, decoded, "description")
}

func TestParseMode(t *testing.T) {
	for _, in := range []string{"pretty", "JSONL", " tsv "} {
		_, err := ParseMode(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseMode("csv")
	assert.Error(t, err)
}
