package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"profitmaker/internal/config"
	"profitmaker/internal/model"
)

// RequestError is a hard failure talking to the upstream price API: a
// transport error or a non-2xx status. It propagates to the caller
// unmodified; the client never retries.
type RequestError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("price API request %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("price API request %s returned status %d", e.URL, e.StatusCode)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Client fetches price quotes from the Albion Online Data API, caching each
// response for the configured TTL.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	cache      quoteCache
}

// NewClient creates a Client from config. The cache backend is selected by
// cfg.CacheBackend ("memory" by default, "redis" for a shared cache).
func NewClient(logger *slog.Logger, cfg config.MarketConfig) *Client {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 180
	}

	var cache quoteCache
	switch cfg.CacheBackend {
	case "redis":
		cache = newRedisCache(logger, cfg.RedisAddr, ttl)
	default:
		cache = newMemoryCache(ttl)
	}

	return &Client{
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin/60+1),
		cache:      cache,
	}
}

// GetPrices returns one quote per (item, city) pair the upstream knows about.
// Responses are cached under a canonical key built from the sorted,
// deduplicated item and location sets, so argument order never causes a
// spurious miss. A cache hit performs no network I/O. A failed fetch leaves
// any previous cache entry untouched.
func (c *Client) GetPrices(ctx context.Context, itemIDs, locations []string) ([]model.PriceQuote, error) {
	items := canonical(itemIDs)
	cities := canonical(locations)
	if len(items) == 0 {
		return nil, nil
	}

	key := "prices:" + strings.Join(items, ",") + "|" + strings.Join(cities, ",")
	if quotes, ok := c.cache.get(ctx, key); ok {
		return quotes, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + "/prices/" + url.PathEscape(strings.Join(items, ","))
	if len(cities) > 0 {
		q := url.Values{"locations": {strings.Join(cities, ",")}}
		reqURL += "?" + q.Encode()
	}

	c.logger.Debug("fetching prices", "url", reqURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &RequestError{URL: reqURL, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{URL: reqURL, StatusCode: resp.StatusCode}
	}

	var quotes []model.PriceQuote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, &RequestError{URL: reqURL, Err: fmt.Errorf("decoding response: %w", err)}
	}

	c.cache.set(ctx, key, quotes)
	return quotes, nil
}

// ClearCache drops every cached response; the next GetPrices call for any
// key is a forced miss.
func (c *Client) ClearCache(ctx context.Context) {
	c.cache.flush(ctx)
}

// canonical returns a sorted copy of vs with duplicates and empty strings
// removed.
func canonical(vs []string) []string {
	seen := make(map[string]struct{}, len(vs))
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
