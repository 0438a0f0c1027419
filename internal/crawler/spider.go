package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Spider defaults.
const (
	// DefaultBaseURL is the Ukrainian Wikipedia.
	DefaultBaseURL = "https://uk.wikipedia.org"

	// DefaultRequestsPerMinute keeps the crawler within the corpus's
	// acceptable-use rate.
	DefaultRequestsPerMinute = 100

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultUserAgent identifies wikirace in HTTP requests.
	DefaultUserAgent = "wikirace/1.0 (+https://github.com/nao1215/wikirace)"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// Spider fetches corpus articles politely and extracts their links.
// A Spider is safe for concurrent use; visited-URL state lives in the
// Sessions it creates, not in the Spider itself.
type Spider struct {
	// client performs the HTTP requests.
	client *http.Client

	// baseURL is the corpus root, e.g. "https://uk.wikipedia.org".
	baseURL string

	// maxRetries is the number of retries after the first attempt.
	maxRetries int

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// pacer waits after every attempt.
	pacer Pacer

	// limiter, when set, is waited on before every attempt. It bounds the
	// aggregate rate when several goroutines share the Spider.
	limiter *rate.Limiter

	// extractor turns documents into link titles.
	extractor *Extractor

	// logger receives per-attempt diagnostics.
	logger *slog.Logger

	attempts atomic.Int64
	fetches  atomic.Int64
	failures atomic.Int64
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(n int) SpiderOption {
	return func(s *Spider) {
		s.maxRetries = n
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		s.maxBodySize = size
	}
}

// WithPacer sets the pacer used after every attempt.
func WithPacer(p Pacer) SpiderOption {
	return func(s *Spider) {
		s.pacer = p
	}
}

// WithRateLimiter sets a limiter shared by every goroutine using the Spider.
func WithRateLimiter(l *rate.Limiter) SpiderOption {
	return func(s *Spider) {
		s.limiter = l
	}
}

// WithExtractor sets the link extractor.
func WithExtractor(e *Extractor) SpiderOption {
	return func(s *Spider) {
		s.extractor = e
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider for the corpus rooted at baseURL.
// The default pacer waits 60s/DefaultRequestsPerMinute after every attempt.
func NewSpider(client *http.Client, baseURL string, opts ...SpiderOption) (*Spider, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}

	s := &Spider{
		client:      client,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		maxRetries:  DefaultMaxRetries,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.pacer == nil {
		s.pacer = NewRatePacer(DefaultRequestsPerMinute, nil)
	}
	if s.extractor == nil {
		s.extractor = NewExtractor()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.maxRetries < 0 {
		s.maxRetries = 0
	}

	return s, nil
}

// ArticleURL returns the page URL of the article with the given title.
func (s *Spider) ArticleURL(title string) string {
	return s.baseURL + "/wiki/" + url.PathEscape(title)
}

// NewSession starts a session with an empty visited set.
func (s *Spider) NewSession() *Session {
	return newSession(s)
}

// Stats returns counters accumulated over the Spider's lifetime.
func (s *Spider) Stats() SpiderStats {
	return SpiderStats{
		Attempts: int(s.attempts.Load()),
		Fetches:  int(s.fetches.Load()),
		Failures: int(s.failures.Load()),
	}
}

// SpiderStats contains crawl statistics.
type SpiderStats struct {
	// Attempts is the number of HTTP requests issued, retries included.
	Attempts int

	// Fetches is the number of pages retrieved successfully.
	Fetches int

	// Failures is the number of pages given up on after every retry.
	Failures int
}

// get retrieves pageURL, retrying up to maxRetries times. Every attempt,
// successful or not, is followed by a pacer pause.
func (s *Spider) get(ctx context.Context, pageURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := s.attempt(ctx, pageURL)
		pauseErr := s.pacer.Pause(ctx)
		if err == nil {
			s.fetches.Add(1)
			return body, nil
		}

		lastErr = err
		s.logger.Debug("fetch attempt failed",
			"url", pageURL,
			"attempt", attempt+1,
			"error", err,
		)

		if pauseErr != nil {
			return nil, pauseErr
		}
	}

	s.failures.Add(1)
	return nil, fmt.Errorf("%w: %s after %d attempts: %w", ErrResourceUnavailable, pageURL, s.maxRetries+1, lastErr)
}

// attempt performs a single GET request.
func (s *Spider) attempt(ctx context.Context, pageURL string) ([]byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	s.attempts.Add(1)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, s.maxBodySize)) //nolint:errcheck // drain for connection reuse
		return nil, &StatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	return io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
}
