// Package exporter writes records as JSON arrays or browser bookmark files.
package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nikbrunner/li/internal/model"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat parses a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json or html)", s)
	}
}

// Write encodes records to w in format f.
func Write(w io.Writer, records []model.Record, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatHTML:
		return WriteHTML(w, records)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// WriteJSON writes records as a single JSON array followed by a newline.
func WriteJSON(w io.Writer, records []model.Record) error {
	out := make([]model.Record, len(records))
	for i, r := range records {
		if r.Tags == nil {
			r.Tags = []string{}
		}
		out[i] = r
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
