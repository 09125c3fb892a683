package ical

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/andrewcz-se/homeworkhub/internal/apperr"
)

// Fetcher retrieves ICS feeds. Feed locations may be http(s) URLs or local
// filesystem paths (an exported .ics file).
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher whose HTTP requests time out after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// FetchEvents retrieves the feed at feedURL and returns its normalized,
// relevance-filtered events. Network, read, and parse failures all surface
// as apperr.ErrFeedFetch; an empty feedURL is apperr.ErrMissingParameter.
func (f *Fetcher) FetchEvents(ctx context.Context, feedURL string) ([]CalendarEvent, error) {
	if feedURL == "" {
		return nil, fmt.Errorf("ical: feed url: %w", apperr.ErrMissingParameter)
	}

	body, err := f.fetch(ctx, feedURL)
	if err != nil {
		slog.Warn("ical: fetch failed",
			slog.String("url", RedactURL(feedURL)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", apperr.ErrFeedFetch, err)
	}

	events, err := ParseEvents(body, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrFeedFetch, err)
	}

	slog.Info("ical: feed fetched",
		slog.String("url", RedactURL(feedURL)),
		slog.Int("events", len(events)))
	return events, nil
}

func (f *Fetcher) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	if IsLocal(feedURL) {
		return os.ReadFile(LocalPath(feedURL))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// IsLocal reports whether the feed location is a filesystem path rather
// than a remote URL.
func IsLocal(feedURL string) bool {
	if strings.HasPrefix(feedURL, "file://") {
		return true
	}
	return !strings.HasPrefix(feedURL, "http://") && !strings.HasPrefix(feedURL, "https://")
}

// LocalPath strips the file:// prefix, if any, from a local feed location.
func LocalPath(feedURL string) string {
	return strings.TrimPrefix(feedURL, "file://")
}

// RedactURL hides the path and query of a feed URL for logging; feed URLs
// commonly embed access tokens.
func RedactURL(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return "(local feed)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
