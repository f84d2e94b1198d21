// Package format renders records for terminal output.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/nikbrunner/li/internal/model"
)

// Mode selects an output encoding.
type Mode string

const (
	ModePretty Mode = "pretty"
	ModeJSONL  Mode = "jsonl"
	ModeTSV    Mode = "tsv"
)

// Modes lists every supported mode, default first.
var Modes = []Mode{ModePretty, ModeJSONL, ModeTSV}

// ParseMode parses a --format flag value.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == strings.ToLower(strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want pretty, jsonl or tsv)", s)
}

const (
	idWidth    = 4
	indent     = "    "
	labelWidth = len("description: ")
	noValue    = "-"
)

// Formatter writes records to w in a fixed mode.
type Formatter struct {
	w    io.Writer
	mode Mode
	enc  *json.Encoder

	id    lipgloss.Style
	label lipgloss.Style
	url   lipgloss.Style
}

// Option customizes a Formatter.
type Option func(*lipgloss.Renderer)

// WithColorProfile forces a color profile instead of detecting one from w.
func WithColorProfile(p termenv.Profile) Option {
	return func(r *lipgloss.Renderer) {
		r.SetColorProfile(p)
	}
}

// New returns a Formatter for w. Styling is dropped when w is not a terminal
// or NO_COLOR is set.
func New(w io.Writer, mode Mode, opts ...Option) *Formatter {
	r := lipgloss.NewRenderer(w)
	for _, opt := range opts {
		opt(r)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return &Formatter{
		w:     w,
		mode:  mode,
		enc:   enc,
		id:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		label: r.NewStyle().Foreground(lipgloss.Color("7")),
		url:   r.NewStyle().Foreground(lipgloss.Color("4")),
	}
}

// Write renders a single record.
func (f *Formatter) Write(r model.Record) error {
	switch f.mode {
	case ModeJSONL:
		return f.writeJSONL(r)
	case ModeTSV:
		return f.writeTSV(r)
	case ModePretty:
		return f.writePretty(r)
	default:
		return fmt.Errorf("unknown format %q", f.mode)
	}
}

// WriteAll renders records in order.
func (f *Formatter) WriteAll(records []model.Record) error {
	for _, r := range records {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Format renders r to w in mode.
func Format(w io.Writer, r model.Record, mode Mode) error {
	return New(w, mode).Write(r)
}

func (f *Formatter) writeJSONL(r model.Record) error {
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if err := f.enc.Encode(r); err != nil {
		return fmt.Errorf("encode record %d: %w", r.ID, err)
	}
	return nil
}

func (f *Formatter) writeTSV(r model.Record) error {
	_, err := fmt.Fprintf(f.w, "%d\t%s\t%s\t%s\t%s\n",
		r.ID, r.Title, r.DescriptionOr(noValue), strings.Join(r.Tags, ","), r.URL)
	return err
}

func (f *Formatter) writePretty(r model.Record) error {
	var b strings.Builder

	id := strconv.FormatInt(r.ID, 10)
	b.WriteString(f.id.Render(id))
	b.WriteString(pad(id, idWidth))
	b.WriteString(r.Title)
	b.WriteString("\n")

	if r.Description != nil {
		f.line(&b, "description:", *r.Description)
	}
	f.line(&b, "url:", f.url.Render(r.URL))
	if len(r.Tags) > 0 {
		f.line(&b, "tags:", strings.Join(r.Tags, ","))
	}

	_, err := io.WriteString(f.w, b.String())
	return err
}

// line writes an indented "label: value" row with values aligned.
func (f *Formatter) line(b *strings.Builder, label, value string) {
	b.WriteString(indent)
	b.WriteString(f.label.Render(label))
	b.WriteString(pad(label, labelWidth))
	b.WriteString(value)
	b.WriteString("\n")
}

// pad returns the spaces needed to left-align s in a column of width.
func pad(s string, width int) string {
	if n := width - len(s); n > 0 {
		return strings.Repeat(" ", n)
	}
	return ""
}
