package exporter

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/nikbrunner/li/internal/model"
)

// WriteHTML writes records as a flat Netscape bookmark file. Tags go into the
// TAGS attribute and descriptions into a <DD> after the anchor.
func WriteHTML(w io.Writer, records []model.Record) error {
	var b strings.Builder

	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bookmarks</TITLE>\n")
	b.WriteString("<H1>Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")

	for _, r := range records {
		fmt.Fprintf(&b, "    <DT><A HREF=\"%s\"", html.EscapeString(r.URL))
		if len(r.Tags) > 0 {
			fmt.Fprintf(&b, " TAGS=\"%s\"", html.EscapeString(strings.Join(r.Tags, ",")))
		}
		fmt.Fprintf(&b, ">%s</A>\n", html.EscapeString(r.Title))
		if r.Description != nil {
			fmt.Fprintf(&b, "    <DD>%s\n", html.EscapeString(*r.Description))
		}
	}

	b.WriteString("</DL><p>\n")

	_, err := io.WriteString(w, b.String())
	return err
}
