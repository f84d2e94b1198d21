// Package extractor turns a bare URL into a Record by fetching the page and
// reading its title and description from the HTML head.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nikbrunner/li/internal/logger"
	"github.com/nikbrunner/li/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// maxRedirects bounds the redirect chain of a single fetch.
const maxRedirects = 10

// Options configures an Extractor.
type Options struct {
	UserAgent string
	Timeout   time.Duration // 0 disables the deadline
	Client    *http.Client  // optional; Timeout is ignored when set
	Logger    logger.Logger
}

// Extractor fetches pages and builds records from their metadata.
type Extractor struct {
	client    *http.Client
	userAgent string
	log       logger.Logger
}

// New creates an Extractor from opts.
func New(opts Options) *Extractor {
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{
		client:    client,
		userAgent: opts.UserAgent,
		log:       log,
	}
}

// Extract performs a single GET of rawURL and returns an unsaved record.
// The title falls back to the canonical URL and the description is nil when
// the page declares none. Non-success statuses are logged and the body is
// still parsed.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (model.Record, error) {
	canonical, err := model.ParseURL(rawURL)
	if err != nil {
		return model.Record{}, err
	}

	body, err := e.fetch(ctx, canonical)
	if err != nil {
		return model.Record{}, err
	}

	doc, err := html.Parse(body)
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: parse %s: %w", model.ErrFetch, canonical, err)
	}

	record := model.Record{
		Title:       pageTitle(doc),
		Description: pageDescription(doc),
		URL:         canonical,
		Tags:        []string{},
	}
	if strings.TrimSpace(record.Title) == "" {
		record.Title = canonical
	}
	return record, nil
}

// fetch downloads the page and returns its body decoded to UTF-8.
func (e *Extractor) fetch(ctx context.Context, target string) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrFetch, err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	start := time.Now()
	e.log.Debug("fetching page", logger.String("url", target))

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrFetch, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", model.ErrFetch, err)
	}

	e.log.Debug("fetched page",
		logger.String("url", target),
		logger.Int("status", resp.StatusCode),
		logger.Int("bytes", len(raw)),
		logger.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e.log.Warn("non-success status, parsing body anyway",
			logger.String("url", target),
			logger.Int("status", resp.StatusCode),
		)
	}

	decoded, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		// Empty or undecodable bodies are parsed as-is.
		if !errors.Is(err, io.EOF) {
			e.log.Debug("charset detection failed", logger.Error(err))
		}
		return bytes.NewReader(raw), nil
	}
	return decoded, nil
}

// pageTitle returns the text of the first <title> element, text nodes joined
// with a single space and tabs replaced. It returns "" when there is none.
func pageTitle(doc *html.Node) string {
	title := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Title
	})
	if title == nil {
		return ""
	}

	var parts []string
	for c := title.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			parts = append(parts, c.Data)
		}
	}
	return model.NormalizeTitle(strings.Join(parts, " "))
}

// descriptionCandidate is a meta element selector: attribute key and value.
type descriptionCandidate struct {
	key, value string
}

// descriptionCandidates are consulted in order; the first non-empty
// content wins.
var descriptionCandidates = []descriptionCandidate{
	{key: "name", value: "description"},
	{key: "property", value: "og:description"},
	{key: "name", value: "twitter:description"},
}

// pageDescription returns the first non-empty description meta content, or
// nil. Only the first element matching each candidate is consulted.
func pageDescription(doc *html.Node) *string {
	for _, c := range descriptionCandidates {
		meta := findFirst(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.DataAtom == atom.Meta && getAttr(n, c.key) == c.value
		})
		if meta == nil {
			continue
		}
		if content := getAttr(meta, "content"); content != "" {
			return &content
		}
	}
	return nil
}

// findFirst returns the first node in document order matching match.
func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// getAttr returns the value of an attribute; the parser lowercases keys.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
