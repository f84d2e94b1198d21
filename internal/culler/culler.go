// Package culler checks stored links for dead or unreachable pages.
package culler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nikbrunner/li/internal/logger"
	"github.com/nikbrunner/li/internal/model"
)

// Status represents the health status of a URL.
type Status int

const (
	Healthy     Status = iota // 2xx or 3xx response
	Dead                      // 404 or 410 Gone
	Unreachable               // timeout, DNS failure, connection refused, etc.
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Dead:
		return "dead"
	default:
		return "unreachable"
	}
}

// DefaultConcurrency is the number of links checked in parallel.
const DefaultConcurrency = 10

const maxRedirects = 10

// Result holds the check result for a single link.
type Result struct {
	Record     model.Record
	Status     Status
	StatusCode int    // 0 if the connection failed
	Reason     string // short cause for unreachable links
}

// ProgressFunc is called after each URL is checked.
type ProgressFunc func(completed, total int)

// Options configure a check run.
type Options struct {
	Concurrency    int
	Timeout        time.Duration // per request; 0 disables
	UserAgent      string
	ExcludeDomains []string     // 404s on these domains count as unreachable, not dead
	Client         *http.Client // optional; Timeout is ignored when set
	Logger         logger.Logger
	OnProgress     ProgressFunc
}

// Check checks every record's URL with a pool of workers. Results are in
// the order of records. Cancelling ctx marks the remaining links unreachable.
func Check(ctx context.Context, records []model.Record, opts Options) []Result {
	if len(records) == 0 {
		return nil
	}

	workers := opts.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}

	excluded := make(map[string]bool, len(opts.ExcludeDomains))
	for _, domain := range opts.ExcludeDomains {
		excluded[strings.ToLower(domain)] = true
	}

	c := &checker{client: client, userAgent: opts.UserAgent, excluded: excluded}
	results := make([]Result, len(records))
	jobs := make(chan int, len(records))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = c.check(ctx, records[idx])
				log.Debug("link checked",
					logger.Int64("id", records[idx].ID),
					logger.String("status", results[idx].Status.String()),
					logger.Int("code", results[idx].StatusCode))

				if opts.OnProgress != nil {
					mu.Lock()
					completed++
					opts.OnProgress(completed, len(records))
					mu.Unlock()
				}
			}
		}()
	}

	for i := range records {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

type checker struct {
	client    *http.Client
	userAgent string
	excluded  map[string]bool
}

// check tries HEAD first and falls back to GET for servers rejecting HEAD.
func (c *checker) check(ctx context.Context, r model.Record) Result {
	result := Result{Record: r}

	resp, err := c.do(ctx, http.MethodHead, r.URL)
	if err == nil && resp.StatusCode == http.StatusMethodNotAllowed {
		resp.Body.Close()
		resp, err = c.do(ctx, http.MethodGet, r.URL)
	} else if err != nil {
		resp, err = c.do(ctx, http.MethodGet, r.URL)
	}
	if err != nil {
		result.Status = Unreachable
		result.Reason = normalizeError(err.Error())
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Status = Healthy
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		if isExcludedDomain(r.URL, c.excluded) {
			result.Status = Unreachable
			result.Reason = "possibly private"
		} else {
			result.Status = Dead
		}
	default:
		// 403, 5xx and friends may be temporary or need a login.
		result.Status = Unreachable
		result.Reason = http.StatusText(resp.StatusCode)
	}
	return result
}

func (c *checker) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.client.Do(req)
}

// isExcludedDomain reports whether the URL's host is an excluded domain or
// one of its subdomains.
func isExcludedDomain(rawURL string, excluded map[string]bool) bool {
	if len(excluded) == 0 {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for domain := range excluded {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// normalizeError simplifies verbose transport errors into short causes.
func normalizeError(errStr string) string {
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(lower, "no such host"):
		return "DNS failure"
	case strings.Contains(lower, "context canceled"):
		return "Cancelled"
	case strings.Contains(lower, "context deadline exceeded"),
		strings.Contains(lower, "timeout"):
		return "Timeout"
	case strings.Contains(lower, "connection refused"):
		return "Connection refused"
	case strings.Contains(lower, "certificate"):
		return "TLS/certificate error"
	case strings.Contains(lower, "network is unreachable"):
		return "Network unreachable"
	case strings.Contains(lower, "tls:"):
		return "TLS error"
	default:
		return errStr
	}
}
