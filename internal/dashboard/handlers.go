package dashboard

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"profitmaker/internal/market"
	"profitmaker/internal/model"
	"profitmaker/internal/profit"
	"profitmaker/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error string `json:"error"`
}

// writeUpstreamError maps a market request failure onto the response: the
// hard-failure tier of the error taxonomy, surfaced to the UI as a message.
func (a *App) writeUpstreamError(w http.ResponseWriter, err error) {
	a.logger.Error("upstream request failed", "error", err)
	var reqErr *market.RequestError
	if errors.As(err, &reqErr) {
		writeJSON(w, http.StatusBadGateway, apiError{Error: reqErr.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
}

func (a *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"clients": a.hub.ClientCount(),
	}
	if last, ok := a.LastRefresh(); ok {
		resp["lastRefresh"] = last.RefreshedAt.Format(time.RFC3339)
		if last.Error != "" {
			resp["lastRefreshError"] = last.Error
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) searchHandler(w http.ResponseWriter, r *http.Request) {
	items := a.catalog.Search(r.URL.Query().Get("q"))
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// flipFiltersFromQuery starts from the defaults and overrides each threshold
// present in the query string.
func flipFiltersFromQuery(r *http.Request) profit.FlipFilters {
	filters := profit.DefaultFlipFilters()
	q := r.URL.Query()
	if v, err := strconv.ParseFloat(q.Get("minProfit"), 64); err == nil {
		filters.MinProfit = v
	}
	if v, err := strconv.ParseFloat(q.Get("minMargin"), 64); err == nil {
		filters.MinMargin = v
	}
	if v, err := strconv.ParseFloat(q.Get("minLiquidity"), 64); err == nil {
		filters.MinLiquidity = v
	}
	return filters
}

func (a *App) flipsHandler(w http.ResponseWriter, r *http.Request) {
	quotes, err := a.client.GetPrices(r.Context(), a.watchedItemIDs(), a.locations)
	if err != nil {
		a.writeUpstreamError(w, err)
		return
	}
	flips := a.engine.FindFlipOpportunities(quotes, flipFiltersFromQuery(r))
	if flips == nil {
		flips = []model.FlipOpportunity{}
	}
	writeJSON(w, http.StatusOK, flips)
}

func (a *App) craftsHandler(w http.ResponseWriter, r *http.Request) {
	quotes, err := a.client.GetPrices(r.Context(), a.watchedItemIDs(), a.locations)
	if err != nil {
		a.writeUpstreamError(w, err)
		return
	}
	crafts := a.craftsFromQuotes(quotes)
	if crafts == nil {
		crafts = []craftResult{}
	}
	writeJSON(w, http.StatusOK, crafts)
}

func (a *App) saveFlipHandler(w http.ResponseWriter, r *http.Request) {
	var flip model.FlipOpportunity
	if err := json.NewDecoder(r.Body).Decode(&flip); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "malformed flip payload"})
		return
	}
	if flip.ItemID == "" || flip.BuyCity == "" || flip.SellCity == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "itemId, buyCity and sellCity are required"})
		return
	}

	saved := a.store.SaveFlip(flip)
	if a.repo != nil {
		if err := a.repo.LogSavedFlip(r.Context(), saved); err != nil {
			a.logger.Error("failed to log saved flip", "id", saved.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, saved)
}

func (a *App) saveCraftHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Recipe model.Recipe               `json:"recipe"`
		Profit model.CraftingProfitResult `json:"profit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "malformed craft payload"})
		return
	}
	if body.Recipe.ID == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "recipe is required"})
		return
	}
	writeJSON(w, http.StatusOK, a.store.SaveCraft(body.Recipe, body.Profit))
}

func (a *App) listSavedHandler(w http.ResponseWriter, r *http.Request) {
	switch store.Kind(r.PathValue("kind")) {
	case store.KindFlips:
		writeJSON(w, http.StatusOK, a.store.SavedFlips())
	case store.KindCrafts:
		writeJSON(w, http.StatusOK, a.store.SavedCrafts())
	default:
		writeJSON(w, http.StatusNotFound, apiError{Error: "unknown kind"})
	}
}

func (a *App) removeSavedHandler(w http.ResponseWriter, r *http.Request) {
	kind := store.Kind(r.PathValue("kind"))
	if kind != store.KindFlips && kind != store.KindCrafts {
		writeJSON(w, http.StatusNotFound, apiError{Error: "unknown kind"})
		return
	}
	if !a.store.Remove(kind, r.PathValue("id")) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "no such entry"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) toggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	favorite := a.store.ToggleFavorite(r.PathValue("itemID"))
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": favorite})
}

func (a *App) favoritesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.Favorites())
}

func (a *App) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.Stats())
}

func (a *App) historyHandler(w http.ResponseWriter, r *http.Request) {
	itemID, city := r.PathValue("itemID"), r.PathValue("city")

	// The long-term table wins when a database is configured; the capped
	// in-document history is the fallback.
	if a.repo != nil {
		quotes, err := a.repo.QuoteHistory(r.Context(), itemID, city, 100)
		if err == nil {
			writeJSON(w, http.StatusOK, quotes)
			return
		}
		a.logger.Error("quote history query failed, using snapshot history", "error", err)
	}
	writeJSON(w, http.StatusOK, a.store.PriceHistory(itemID, city))
}

func (a *App) settingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.Settings())
}

func (a *App) updateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var patch store.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "malformed settings payload"})
		return
	}
	writeJSON(w, http.StatusOK, a.store.UpdateSettings(patch))
}

func (a *App) exportHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.store.ExportSnapshot()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+a.store.ExportFilename()+`"`)
	w.Write(snapshot)
}

func (a *App) importHandler(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "unreadable body"})
		return
	}
	if !a.store.ImportSnapshot(raw) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "snapshot does not parse"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"imported": true})
}

func (a *App) clearCacheHandler(w http.ResponseWriter, r *http.Request) {
	a.client.ClearCache(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
