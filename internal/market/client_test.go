package market

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profitmaker/internal/config"
)

func testMarketConfig(baseURL string, ttlSeconds int) config.MarketConfig {
	return config.MarketConfig{
		BaseURL:         baseURL,
		CacheTTLSeconds: ttlSeconds,
		TimeoutSeconds:  5,
		RequestsPerMin:  6000,
		CacheBackend:    "memory",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, handler http.HandlerFunc, ttlSeconds int) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testMarketConfig(srv.URL, ttlSeconds)
	return NewClient(testLogger(), cfg), srv
}

func countingHandler(calls *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"item_id":"T4_ORE","city":"Thetford","sell_price_min":100,"sell_order_count":30,"buy_price_max":90,"buy_order_count":12},
			{"item_id":"T4_ORE","city":"Martlock","sell_price_min":110,"sell_order_count":40,"buy_price_max":95,"buy_order_count":8}
		]`))
	}
}

func TestGetPrices_CacheHitWithinTTL(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, countingHandler(&calls), 300)

	ctx := context.Background()
	first, err := client.GetPrices(ctx, []string{"T4_ORE"}, []string{"Thetford", "Martlock"})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := client.GetPrices(ctx, []string{"T4_ORE"}, []string{"Thetford", "Martlock"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second call within TTL must not touch the network")
}

func TestGetPrices_CacheKeyIgnoresArgumentOrder(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, countingHandler(&calls), 300)

	ctx := context.Background()
	_, err := client.GetPrices(ctx, []string{"T4_ORE", "T5_ORE"}, []string{"Thetford", "Martlock"})
	require.NoError(t, err)

	// Same sets, different order and a duplicate: still a cache hit.
	_, err = client.GetPrices(ctx, []string{"T5_ORE", "T4_ORE", "T4_ORE"}, []string{"Martlock", "Thetford"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGetPrices_RefetchAfterTTLExpiry(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, countingHandler(&calls), 1)

	ctx := context.Background()
	_, err := client.GetPrices(ctx, []string{"T4_ORE"}, []string{"Thetford"})
	require.NoError(t, err)

	time.Sleep(1200 * time.Millisecond)

	_, err = client.GetPrices(ctx, []string{"T4_ORE"}, []string{"Thetford"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetPrices_ClearCacheForcesMiss(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, countingHandler(&calls), 300)

	ctx := context.Background()
	_, err := client.GetPrices(ctx, []string{"T4_ORE"}, []string{"Thetford"})
	require.NoError(t, err)

	client.ClearCache(ctx)

	_, err = client.GetPrices(ctx, []string{"T4_ORE"}, []string{"Thetford"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetPrices_NonSuccessStatusIsRequestError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}, 300)

	_, err := client.GetPrices(context.Background(), []string{"T4_ORE"}, []string{"Thetford"})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadGateway, reqErr.StatusCode)
}

func TestGetPrices_TransportFailureIsRequestError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // dead server

	cfg := testMarketConfig(srv.URL, 300)
	client := NewClient(testLogger(), cfg)

	_, err := client.GetPrices(context.Background(), []string{"T4_ORE"}, []string{"Thetford"})
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Error(t, reqErr.Err)
}

func TestGetPrices_FailedFetchLeavesCacheUntouched(t *testing.T) {
	calls := 0
	fail := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		countingHandler(&calls)(w, r)
	}, 1)

	ctx := context.Background()
	first, err := client.GetPrices(ctx, []string{"T4_ORE"}, []string{"Thetford"})
	require.NoError(t, err)

	time.Sleep(1200 * time.Millisecond)
	fail = true

	_, err = client.GetPrices(ctx, []string{"T4_ORE"}, []string{"Thetford"})
	require.Error(t, err)

	// The stale entry was not overwritten by the failure; once the upstream
	// recovers a fresh fetch succeeds and returns the same shape.
	fail = false
	again, err := client.GetPrices(ctx, []string{"T4_ORE"}, []string{"Thetford"})
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestGetPrices_EmptyItemSetSkipsNetwork(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, countingHandler(&calls), 300)

	quotes, err := client.GetPrices(context.Background(), nil, []string{"Thetford"})
	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.Zero(t, calls)
}
