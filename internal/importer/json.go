// Package importer reads records from JSON arrays and browser bookmark files.
package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nikbrunner/li/internal/model"
)

// Format is an import file format.
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
		return "", fmt.Errorf("unknown import format %q (want json or html)", s)
	}
}

// ParseJSON decodes a JSON array of records. IDs in the input are ignored;
// every record is normalized and validated. The first invalid record fails
// the whole batch.
func ParseJSON(r io.Reader) ([]model.Record, error) {
	var records []model.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	for i := range records {
		rec := &records[i]
		rec.ID = 0
		if err := rec.Normalize(); err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, rec.URL, err)
		}
		rec.Tags = model.DedupeTags(rec.Tags)
	}
	if records == nil {
		records = []model.Record{}
	}
	return records, nil
}
