package ics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	appLog "calfilter/internal/log"
)

const (
	defaultFetchTimeout = 15 * time.Second
	userAgent           = "calfilter/1.0"
)

// errEmptyBody marks a 2xx response without any calendar data.
var errEmptyBody = errors.New("empty response body")

// FetchError reports that a calendar document could not be retrieved.
// StatusCode is set when the upstream answered with a non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", redactURL(e.URL), e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", redactURL(e.URL), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves raw calendar documents over HTTP(S). It keeps no state
// between calls besides the underlying client.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher whose requests give up after timeout.
// A non-positive timeout uses the 15s default.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch issues a single GET for rawURL and returns the full body. There is
// no retry; every failure is returned as *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := f.fetch(ctx, rawURL)
	if err != nil {
		appLog.Error("ics fetch failed", err, "url", redactURL(rawURL))
		return nil, err
	}
	appLog.Debug("ics fetch success", "url", redactURL(rawURL), "bytes", len(body))
	return body, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/calendar, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &FetchError{URL: rawURL, Err: errEmptyBody}
	}
	return body, nil
}

// redactURL hides sensitive parts of an ICS URL for logging purposes.
//
//	https://example.com/path/to/private.ics?token=abcd
//	-> https://example.com/...(redacted)
func redactURL(raw string) string {
	const redactedSuffix = "/...(redacted)"

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + redactedSuffix
}
