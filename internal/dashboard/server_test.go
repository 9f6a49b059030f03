package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profitmaker/internal/catalog"
	"profitmaker/internal/config"
	"profitmaker/internal/market"
	"profitmaker/internal/model"
	"profitmaker/internal/profit"
	"profitmaker/internal/store"
)

const upstreamBody = `[
	{"item_id":"T4_ORE","city":"Thetford","sell_price_min":100,"sell_order_count":80,"buy_price_max":90,"buy_order_count":60},
	{"item_id":"T4_ORE","city":"Martlock","sell_price_min":300,"sell_order_count":50,"buy_price_max":250,"buy_order_count":70},
	{"item_id":"T4_METALBAR","city":"Thetford","sell_price_min":320,"sell_order_count":60,"buy_price_max":300,"buy_order_count":30}
]`

func newTestApp(t *testing.T, upstream http.HandlerFunc) *App {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	client := market.NewClient(logger, config.MarketConfig{
		BaseURL:         srv.URL,
		CacheTTLSeconds: 300,
		TimeoutSeconds:  5,
		RequestsPerMin:  6000,
		CacheBackend:    "memory",
	})
	cat := catalog.New(logger, "")
	engine := profit.NewEngine(logger, cat)
	st := store.New(logger, filepath.Join(t.TempDir(), "snapshot.json"),
		model.Settings{TaxRatePercent: 3, AssumePremium: true, UpdateIntervalMinutes: 5})

	return NewApp(logger, client, cat, engine, st, nil, []string{"Thetford", "Martlock"})
}

func okUpstream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(upstreamBody))
}

func doJSON(t *testing.T, handler http.Handler, method, target string, body []byte, out any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestFlipsEndpoint(t *testing.T) {
	app := newTestApp(t, okUpstream)
	router := app.Router()

	var flips []model.FlipOpportunity
	rec := doJSON(t, router, http.MethodGet, "/api/flips", nil, &flips)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, flips, 1)
	assert.Equal(t, "T4_ORE", flips[0].ItemID)
	assert.Equal(t, "Thetford", flips[0].BuyCity)
	assert.Equal(t, "Martlock", flips[0].SellCity)

	// Raising the profit floor filters everything out.
	flips = nil
	rec = doJSON(t, router, http.MethodGet, "/api/flips?minProfit=1000", nil, &flips)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, flips)
}

func TestFlipsEndpoint_UpstreamFailureIs502(t *testing.T) {
	app := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	rec := doJSON(t, app.Router(), http.MethodGet, "/api/flips", nil, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestCraftsEndpoint(t *testing.T) {
	app := newTestApp(t, okUpstream)

	var crafts []craftResult
	rec := doJSON(t, app.Router(), http.MethodGet, "/api/crafts", nil, &crafts)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, crafts)

	// The iron bar recipe has ore and bar quotes in Thetford, so its best
	// city result is valid there.
	var ironBar *craftResult
	for i := range crafts {
		if crafts[i].Recipe.OutputItemID == "T4_METALBAR" {
			ironBar = &crafts[i]
		}
	}
	require.NotNil(t, ironBar)
	assert.True(t, ironBar.Profit.IsValid)
	assert.Equal(t, "Thetford", ironBar.City)
	// material 200*0.525=105; output 300, tax 9 -> profit 186.
	assert.Equal(t, 186.0, ironBar.Profit.Profit)
}

func TestSearchEndpoint(t *testing.T) {
	app := newTestApp(t, okUpstream)
	router := app.Router()

	var items []model.Item
	doJSON(t, router, http.MethodGet, "/api/search?q=iron", nil, &items)
	require.NotEmpty(t, items)
	assert.Equal(t, "T4_ORE", items[0].ID)

	// Short queries come back as an empty array, not null.
	rec := doJSON(t, router, http.MethodGet, "/api/search?q=x", nil, nil)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestSavedFlipLifecycle(t *testing.T) {
	app := newTestApp(t, okUpstream)
	router := app.Router()

	flip := model.FlipOpportunity{ItemID: "T4_ORE", BuyCity: "Thetford", SellCity: "Martlock", Profit: 150}
	body, _ := json.Marshal(flip)

	var saved model.SavedFlip
	rec := doJSON(t, router, http.MethodPost, "/api/flips/save", body, &saved)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, saved.TimesUpdated)

	// Saving the same route again upserts.
	rec = doJSON(t, router, http.MethodPost, "/api/flips/save", body, &saved)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, saved.TimesUpdated)

	var listed []model.SavedFlip
	doJSON(t, router, http.MethodGet, "/api/saved/flips", nil, &listed)
	require.Len(t, listed, 1)

	rec = doJSON(t, router, http.MethodDelete, "/api/saved/flips/"+saved.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/saved/flips/"+saved.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveFlip_RejectsIncompletePayload(t *testing.T) {
	app := newTestApp(t, okUpstream)

	rec := doJSON(t, app.Router(), http.MethodPost, "/api/flips/save", []byte(`{"itemId":"T4_ORE"}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, app.Router(), http.MethodPost, "/api/flips/save", []byte(`{broken`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	app := newTestApp(t, okUpstream)
	router := app.Router()

	var settings model.Settings
	doJSON(t, router, http.MethodGet, "/api/settings", nil, &settings)
	assert.Equal(t, 3.0, settings.TaxRatePercent)

	doJSON(t, router, http.MethodPatch, "/api/settings", []byte(`{"taxRatePercent":6}`), &settings)
	assert.Equal(t, 6.0, settings.TaxRatePercent)
	assert.True(t, settings.AssumePremium, "unpatched fields stay")
}

func TestExportImportEndpoints(t *testing.T) {
	app := newTestApp(t, okUpstream)
	router := app.Router()

	flip := model.FlipOpportunity{ItemID: "T4_ORE", BuyCity: "Thetford", SellCity: "Martlock"}
	body, _ := json.Marshal(flip)
	doJSON(t, router, http.MethodPost, "/api/flips/save", body, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	other := newTestApp(t, okUpstream)
	impRec := doJSON(t, other.Router(), http.MethodPost, "/api/import", rec.Body.Bytes(), nil)
	require.Equal(t, http.StatusOK, impRec.Code)
	assert.Len(t, other.store.SavedFlips(), 1)

	bad := doJSON(t, other.Router(), http.MethodPost, "/api/import", []byte("{nope"), nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Len(t, other.store.SavedFlips(), 1, "failed import must not clear state")
}

func TestStatusEndpoint_ReflectsRefresh(t *testing.T) {
	app := newTestApp(t, okUpstream)
	router := app.Router()

	var status map[string]any
	doJSON(t, router, http.MethodGet, "/api/status", nil, &status)
	assert.Equal(t, "ok", status["status"])
	assert.NotContains(t, status, "lastRefresh")

	app.refresh(context.Background())

	status = nil
	doJSON(t, router, http.MethodGet, "/api/status", nil, &status)
	assert.Contains(t, status, "lastRefresh")
}

func TestRefresh_RecordsHistoryAndBroadcasts(t *testing.T) {
	app := newTestApp(t, okUpstream)

	srv := httptest.NewServer(app.Router())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub a moment to register the client.
	require.Eventually(t, func() bool { return app.hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	app.refresh(context.Background())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var payload refreshPayload
	require.NoError(t, conn.ReadJSON(&payload))
	assert.Len(t, payload.Flips, 1)
	assert.Empty(t, payload.Error)

	// The refresh also fed the in-document price history.
	points := app.store.PriceHistory("T4_ORE", "Thetford")
	require.Len(t, points, 1)
	assert.Equal(t, 100.0, points[0].Price)
}

func TestRefresh_UpstreamFailureIsReportedNotFatal(t *testing.T) {
	app := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	app.refresh(context.Background())

	last, ok := app.LastRefresh()
	require.True(t, ok)
	assert.NotEmpty(t, last.Error)
	assert.Empty(t, last.Flips)
}
