// Package overpass talks to an Overpass API endpoint: query construction,
// the retrying HTTP executor, and response parsing.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/geoatlas/poifetch/internal/model"
	"github.com/geoatlas/poifetch/internal/progress"
	"github.com/geoatlas/poifetch/internal/resilience"
)

// DefaultEndpoint is the public Overpass API interpreter.
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// FetchFailedError is returned when every attempt for one query failed.
type FetchFailedError struct {
	Attempts int
	Err      error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("overpass: fetch failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *FetchFailedError) Unwrap() error {
	return e.Err
}

// Options configures the client. Zero values fall back to defaults.
type Options struct {
	Endpoint   string
	UserAgent  string
	Timeout    time.Duration // per-attempt HTTP timeout
	MaxRetries int           // total attempts, including the first
	RetryDelay time.Duration // fixed wait between attempts
	RateLimit  rate.Limit    // global request ceiling, events/sec
	RateBurst  int
	Progress   progress.Sink
}

// Client issues Overpass queries with bounded retries, a fixed inter-attempt
// delay and a global rate ceiling. It holds no per-request state; the
// queries are read-only, so repeating an attempt is always safe.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	policy    resilience.Policy
	progress  progress.Sink
}

// NewClient creates a client with the given options.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "poifetch/1.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 5 * time.Second
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 1
	}
	if opts.RateBurst == 0 {
		opts.RateBurst = 1
	}
	if opts.Progress == nil {
		opts.Progress = progress.Nop{}
	}

	return &Client{
		endpoint:  opts.Endpoint,
		userAgent: opts.UserAgent,
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		policy: resilience.Policy{
			MaxAttempts: opts.MaxRetries,
			Delay:       opts.RetryDelay,
		},
		progress: opts.Progress,
	}
}

// Execute posts the query and returns the raw response body. Transient
// failures (connection errors, timeouts, 408/429/5xx) are retried under the
// client's policy; exhaustion yields a *FetchFailedError. Each attempt and
// its outcome is reported to the progress sink.
func (c *Client) Execute(ctx context.Context, query string) ([]byte, error) {
	p := c.policy
	p.OnAttempt = c.progress.Attempt

	body, err := resilience.DoVal(ctx, p, func(ctx context.Context) ([]byte, error) {
		return c.attempt(ctx, query)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(err, "overpass: query aborted")
		}
		if !resilience.IsTransient(err) {
			return nil, err
		}
		return nil, &FetchFailedError{Attempts: p.MaxAttempts, Err: err}
	}
	return body, nil
}

// attempt performs a single POST of the query.
func (c *Client) attempt(ctx context.Context, query string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: rate limiter wait")
	}

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "overpass: read response"), resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("overpass: status %d: %s", resp.StatusCode, truncate(body, 200))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	return body, nil
}

// response mirrors the Overpass JSON envelope.
type response struct {
	Version   float64         `json:"version"`
	Generator string          `json:"generator"`
	Elements  []model.Element `json:"elements"`
}

// ParseElements decodes the element collection from a raw response body.
func ParseElements(body []byte) ([]model.Element, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, eris.Wrap(err, "overpass: decode response")
	}
	return r.Elements, nil
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
