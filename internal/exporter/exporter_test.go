package exporter_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nikbrunner/li/internal/exporter"
	"github.com/nikbrunner/li/internal/importer"
	"github.com/nikbrunner/li/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func sampleRecords() []model.Record {
	return []model.Record{
		{ID: 1, Title: "Go <Docs> & more", Tags: []string{"go", "docs"}, Description: ptr(`The "Go" language`), URL: "https://go.dev/doc/?a=1&b=2"},
		{ID: 2, Title: "Example", Tags: []string{}, URL: "https://example.com/"},
	}
}

func TestWriteHTML_EmptyStore(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, exporter.WriteHTML(&buf, nil))

	html := buf.String()
	assert.Contains(t, html, "<!DOCTYPE NETSCAPE-Bookmark-file-1>")
	assert.Contains(t, html, "<TITLE>Bookmarks</TITLE>")
	assert.Contains(t, html, "<H1>Bookmarks</H1>")
	assert.NotContains(t, html, "<A ")
}

func TestWriteHTML_Escapes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, exporter.WriteHTML(&buf, sampleRecords()))

	html := buf.String()
	assert.Contains(t, html, `<DT><A HREF="https://go.dev/doc/?a=1&amp;b=2" TAGS="go,docs">Go &lt;Docs&gt; &amp; more</A>`)
	assert.Contains(t, html, `<DD>The &#34;Go&#34; language`)
	assert.Contains(t, html, `<DT><A HREF="https://example.com/">Example</A>`)
	assert.Equal(t, 1, strings.Count(html, "<DD>"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	records := []model.Record{{ID: 4, Title: "T", URL: "https://t.example/"}}
	require.NoError(t, exporter.WriteJSON(&buf, records))

	assert.JSONEq(t, `[{"id":4,"title":"T","tags":[],"description":null,"url":"https://t.example/"}]`, buf.String())
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.Nil(t, records[0].Tags, "input must not be modified")

	buf.Reset()
	require.NoError(t, exporter.WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

// stripIDs drops storage ids, which imports never carry over.
func stripIDs(records []model.Record) []model.Record {
	out := make([]model.Record, len(records))
	for i, r := range records {
		r.ID = 0
		out[i] = r
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []exporter.Format{exporter.FormatJSON, exporter.FormatHTML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, exporter.Write(&buf, sampleRecords(), format))

			var (
				got []model.Record
				err error
			)
			if format == exporter.FormatJSON {
				got, err = importer.ParseJSON(&buf)
			} else {
				got, _, err = importer.ParseHTMLBookmarks(&buf)
			}
			require.NoError(t, err)
			assert.Equal(t, stripIDs(sampleRecords()), got)
		})
	}
}

func TestRoundTrip_DescriptionWhitespace(t *testing.T) {
	r := model.Record{Title: "Padded", Tags: []string{}, Description: ptr("  spaced out \n"), URL: "https://example.com/"}

	var js bytes.Buffer
	require.NoError(t, exporter.WriteJSON(&js, []model.Record{r}))
	fromJSON, err := importer.ParseJSON(&js)
	require.NoError(t, err)
	require.Len(t, fromJSON, 1)
	assert.Equal(t, "  spaced out \n", *fromJSON[0].Description)

	// <DD> text is trimmed on import, so surrounding whitespace does not survive HTML.
	var doc bytes.Buffer
	require.NoError(t, exporter.WriteHTML(&doc, []model.Record{r}))
	fromHTML, _, err := importer.ParseHTMLBookmarks(&doc)
	require.NoError(t, err)
	require.Len(t, fromHTML, 1)
	assert.Equal(t, "spaced out", *fromHTML[0].Description)
}

func TestParseFormat(t *testing.T) {
	f, err := exporter.ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, exporter.FormatJSON, f)

	_, err = exporter.ParseFormat("yaml")
	assert.Error(t, err)
}
