// Package dashboard is the HTTP surface of the profit dashboard: a JSON API
// over the market client, profit engine and opportunity store, plus a
// WebSocket feed pushed by the periodic refresher.
package dashboard

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"profitmaker/internal/catalog"
	"profitmaker/internal/database"
	"profitmaker/internal/market"
	"profitmaker/internal/profit"
	"profitmaker/internal/store"
)

// App wires the service objects together. Every dependency is injected; repo
// may be nil when no database is configured.
type App struct {
	logger    *slog.Logger
	client    *market.Client
	catalog   *catalog.Catalog
	engine    *profit.Engine
	store     *store.Store
	repo      database.Repository
	hub       *Hub
	locations []string

	inFlight    atomic.Bool
	lastRefresh atomic.Pointer[refreshPayload]
}

// NewApp creates the dashboard application.
func NewApp(
	logger *slog.Logger,
	client *market.Client,
	cat *catalog.Catalog,
	engine *profit.Engine,
	st *store.Store,
	repo database.Repository,
	locations []string,
) *App {
	return &App{
		logger:    logger,
		client:    client,
		catalog:   cat,
		engine:    engine,
		store:     st,
		repo:      repo,
		hub:       NewHub(logger),
		locations: locations,
	}
}

// Router registers the API routes.
func (a *App) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", a.statusHandler)
	mux.HandleFunc("GET /api/search", a.searchHandler)
	mux.HandleFunc("GET /api/flips", a.flipsHandler)
	mux.HandleFunc("GET /api/crafts", a.craftsHandler)

	mux.HandleFunc("POST /api/flips/save", a.saveFlipHandler)
	mux.HandleFunc("POST /api/crafts/save", a.saveCraftHandler)
	mux.HandleFunc("GET /api/saved/{kind}", a.listSavedHandler)
	mux.HandleFunc("DELETE /api/saved/{kind}/{id}", a.removeSavedHandler)

	mux.HandleFunc("POST /api/favorites/{itemID}", a.toggleFavoriteHandler)
	mux.HandleFunc("GET /api/favorites", a.favoritesHandler)
	mux.HandleFunc("GET /api/stats", a.statsHandler)
	mux.HandleFunc("GET /api/history/{itemID}/{city}", a.historyHandler)

	mux.HandleFunc("GET /api/settings", a.settingsHandler)
	mux.HandleFunc("PATCH /api/settings", a.updateSettingsHandler)

	mux.HandleFunc("GET /api/export", a.exportHandler)
	mux.HandleFunc("POST /api/import", a.importHandler)
	mux.HandleFunc("POST /api/cache/clear", a.clearCacheHandler)

	mux.Handle("GET /ws", a.hub)

	return mux
}
