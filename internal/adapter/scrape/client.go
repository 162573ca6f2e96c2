package scrape

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/couchcryptid/geobin/internal/domain"
	"github.com/couchcryptid/geobin/internal/observability"
	"golang.org/x/time/rate"
)

// ErrUnsupportedURL is returned for URLs no scraping rule applies to.
var ErrUnsupportedURL = errors.New("no scraping rule for url")

const (
	kindGoogleMaps = "googlemaps"
	kindWikipedia  = "wikipedia"

	maxPageBytes = 4 << 20
)

var (
	googleMapsURL = regexp.MustCompile(`^https?://www\.google\.com/maps/[^@]*@(-?\d+\.\d+),(-?\d+\.\d+)`)
	wikipediaURL  = regexp.MustCompile(`^https?://\w+\.wikipedia\.org/wiki/`)

	latitudeSpan  = coordinateSpan("latitude")
	longitudeSpan = coordinateSpan("longitude")
	// Wikipedia wraps an article's own coordinates in this element.
	titleCoordinates = regexp.MustCompile(`<span[^>]*\bid="coordinates"`)
)

func coordinateSpan(class string) *regexp.Regexp {
	return regexp.MustCompile(`<span[^>]*\bclass="(?:[^"]*\s)?` + class + `(?:\s[^"]*)?"[^>]*>([^<]*)</span>`)
}

// Client implements domain.Locator. Google Maps links carry their coordinates
// in the URL; Wikipedia articles are fetched and read from the coordinate
// spans in the page header.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a scraper that waits at least minInterval between page
// fetches. A zero interval disables throttling.
func NewClient(timeout, minInterval time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		metrics:    metrics,
		logger:     logger,
	}
}

// Locate returns the coordinates published at url. An empty URL, a page
// without coordinates or a failed fetch yield Found == false.
func (c *Client) Locate(ctx context.Context, url string) (domain.Location, error) {
	if url == "" {
		return domain.Location{}, nil
	}
	if m := googleMapsURL.FindStringSubmatch(url); m != nil {
		loc := locationFromText(url, m[1], m[2])
		c.observe(kindGoogleMaps, loc, nil, 0)
		return loc, nil
	}
	if wikipediaURL.MatchString(url) {
		start := time.Now()
		loc, err := c.locateWikipedia(ctx, url)
		c.observe(kindWikipedia, loc, err, time.Since(start))
		return loc, err
	}
	return domain.Location{URL: url}, fmt.Errorf("%w: %s", ErrUnsupportedURL, url)
}

func (c *Client) locateWikipedia(ctx context.Context, url string) (domain.Location, error) {
	notFound := domain.Location{URL: url}

	if err := c.limiter.Wait(ctx); err != nil {
		return notFound, fmt.Errorf("wait for scrape slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return notFound, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "geobin/1.0 (coordinate scraper)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return notFound, ctx.Err()
		}
		c.logger.Debug("page fetch failed", "url", url, "error", err)
		return notFound, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("page fetch returned non-200", "url", url, "status", resp.StatusCode)
		return notFound, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		c.logger.Debug("page read failed", "url", url, "error", err)
		return notFound, nil
	}
	return parseWikipediaPage(url, body), nil
}

// parseWikipediaPage reads the latitude and longitude spans of an article,
// looking inside the title coordinates block first and then anywhere in the
// page. Both must be present for the location to be found.
func parseWikipediaPage(url string, page []byte) domain.Location {
	if loc := titleCoordinates.FindIndex(page); loc != nil {
		if lat, lon, ok := findSpans(page[loc[0]:]); ok {
			return locationFromText(url, lat, lon)
		}
	}
	if lat, lon, ok := findSpans(page); ok {
		return locationFromText(url, lat, lon)
	}
	return domain.Location{URL: url}
}

func findSpans(page []byte) (lat, lon string, ok bool) {
	latMatch := latitudeSpan.FindSubmatch(page)
	lonMatch := longitudeSpan.FindSubmatch(page)
	if latMatch == nil || lonMatch == nil {
		return "", "", false
	}
	return spanText(latMatch[1]), spanText(lonMatch[1]), true
}

func spanText(b []byte) string {
	return strings.TrimSpace(html.UnescapeString(string(b)))
}

func locationFromText(url, rawLat, rawLon string) domain.Location {
	loc := domain.Location{URL: url, RawLat: rawLat, RawLon: rawLon}
	lat, okLat := parseScraped(rawLat)
	lon, okLon := parseScraped(rawLon)
	if okLat && okLon {
		loc.Lat, loc.Lon, loc.Found = lat, lon, true
	}
	return loc
}

func parseScraped(s string) (float64, bool) {
	return domain.ParseCoordinate(s)
}

func (c *Client) observe(kind string, loc domain.Location, err error, elapsed time.Duration) {
	outcome := "not_found"
	switch {
	case err != nil:
		outcome = "error"
	case loc.Found:
		outcome = "found"
	}
	c.metrics.ScrapeRequests.WithLabelValues(kind, outcome).Inc()
	if kind == kindWikipedia {
		c.metrics.ScrapeDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
}
