package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DatePlaceholder in a source URL is replaced with the current date.
const DatePlaceholder = "{date}"

// Fetcher downloads registry documents. All sources share one limiter so a
// burst of scheduled runs does not hammer the same host.
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	now        func() time.Time
}

func NewFetcher(httpClient *http.Client, interval time.Duration, userAgent string) *Fetcher {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &Fetcher{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		userAgent:  userAgent,
		now:        time.Now,
	}
}

// ResolveURL substitutes DatePlaceholder with date formatted as MM/DD/YYYY
// and query-escaped, the form the bank registry export expects.
func ResolveURL(template string, date time.Time) string {
	if !strings.Contains(template, DatePlaceholder) {
		return template
	}
	return strings.ReplaceAll(template, DatePlaceholder, url.QueryEscape(date.Format("01/02/2006")))
}

// Fetch downloads the registry document of config.
func (f *Fetcher) Fetch(ctx context.Context, config *Config) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(config.Settings.Timeout)*time.Second)
	defer cancel()

	target := ResolveURL(config.URL, f.now())

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	if config.Referer != "" {
		req.Header.Set("Referer", config.Referer)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
