package model

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Record represents a saved link with its metadata.
type Record struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	Description *string  `json:"description"` // nil = no description known
	URL         string   `json:"url"`
}

// TagCount is a distinct tag together with the number of records carrying it.
type TagCount struct {
	Tag   string
	Count int64
}

// NewRecord creates a Record without touching the network.
// The title is taken as given (tabs normalized) and the URL is canonicalized.
func NewRecord(rawURL, title string) (Record, error) {
	canonical, err := ParseURL(rawURL)
	if err != nil {
		return Record{}, err
	}

	r := Record{
		Title: NormalizeTitle(title),
		URL:   canonical,
		Tags:  []string{},
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Persisted reports whether the record has been assigned an ID by storage.
func (r Record) Persisted() bool {
	return r.ID != 0
}

// Validate checks the record invariants.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.Contains(r.Title, "\t") {
		return fmt.Errorf("%w: title contains a tab", ErrInvalidRecord)
	}
	if _, err := ParseURL(r.URL); err != nil {
		return err
	}
	return nil
}

// Normalize brings a record decoded from an external source in line with the
// invariants: tabs in the title, a non-canonical URL and nil tags are fixed up.
func (r *Record) Normalize() error {
	canonical, err := ParseURL(r.URL)
	if err != nil {
		return err
	}
	r.URL = canonical
	r.Title = NormalizeTitle(r.Title)
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r.Validate()
}

// DescriptionOr returns the description, or fallback when none is known.
func (r Record) DescriptionOr(fallback string) string {
	if r.Description == nil {
		return fallback
	}
	return *r.Description
}

// NormalizeTitle replaces tabs with single spaces so titles stay on one
// column in tab-separated output.
func NormalizeTitle(title string) string {
	return strings.ReplaceAll(title, "\t", " ")
}

// defaultPorts maps schemes to the port dropped during canonicalization.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"ws":    "80",
	"wss":   "443",
	"ftp":   "21",
}

// ParseURL validates rawURL as an absolute URL with a host and returns its
// canonical form: lowercase scheme and host, no default port, and "/" as the
// path of hierarchical web URLs without one.
func ParseURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme == "" || u.Opaque != "" || u.Hostname() == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == defaultPorts[u.Scheme] {
		port = ""
	}
	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}

	if u.Path == "" {
		if _, ok := defaultPorts[u.Scheme]; ok {
			u.Path = "/"
		}
	}
	return u.String(), nil
}
