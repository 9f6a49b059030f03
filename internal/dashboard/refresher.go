package dashboard

import (
	"context"
	"time"

	"profitmaker/internal/model"
	"profitmaker/internal/profit"
)

// refreshPayload is what the refresher pushes to connected clients and keeps
// as the latest snapshot for the status endpoint.
type refreshPayload struct {
	Flips       []model.FlipOpportunity `json:"flips"`
	Crafts      []craftResult           `json:"crafts"`
	RefreshedAt time.Time               `json:"refreshedAt"`
	Error       string                  `json:"error,omitempty"`
}

type craftResult struct {
	Recipe model.Recipe               `json:"recipe"`
	City   string                     `json:"city"`
	Profit model.CraftingProfitResult `json:"profit"`
}

// RunRefresher re-fetches prices and recomputes opportunities on the
// interval from settings until ctx is cancelled. The inFlight guard skips a
// tick while the previous refresh is still running, so a slow upstream never
// causes overlapping refreshes.
func (a *App) RunRefresher(ctx context.Context) {
	a.logger.Info("refresher started")
	for {
		interval := time.Duration(a.store.Settings().UpdateIntervalMinutes) * time.Minute
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		select {
		case <-ctx.Done():
			a.logger.Info("refresher stopped")
			return
		case <-time.After(interval):
			if !a.inFlight.CompareAndSwap(false, true) {
				a.logger.Warn("refresh still in progress, skipping tick")
				continue
			}
			a.refresh(ctx)
			a.inFlight.Store(false)
		}
	}
}

// RefreshNow runs one refresh pass immediately unless one is already in
// flight. Used at startup so the dashboard has data before the first tick.
func (a *App) RefreshNow(ctx context.Context) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return
	}
	a.refresh(ctx)
	a.inFlight.Store(false)
}

// refresh performs one full fetch-and-recompute pass. Upstream failures are
// reported in the payload and logged; they never stop the refresher.
func (a *App) refresh(ctx context.Context) {
	payload := refreshPayload{RefreshedAt: time.Now()}

	itemIDs := a.watchedItemIDs()
	quotes, err := a.client.GetPrices(ctx, itemIDs, a.locations)
	if err != nil {
		a.logger.Error("refresh failed", "error", err)
		payload.Error = err.Error()
		a.setLastRefresh(payload)
		a.hub.Broadcast(payload)
		return
	}

	a.recordQuotes(ctx, quotes)

	payload.Flips = a.engine.FindFlipOpportunities(quotes, profit.DefaultFlipFilters())
	payload.Crafts = a.craftsFromQuotes(quotes)

	a.setLastRefresh(payload)
	a.hub.Broadcast(payload)
	a.logger.Info("refresh complete",
		"quotes", len(quotes),
		"flips", len(payload.Flips),
		"crafts", len(payload.Crafts),
	)
}

// watchedItemIDs is every catalog item plus anything the user favorited.
func (a *App) watchedItemIDs() []string {
	var ids []string
	for _, it := range a.catalog.Items() {
		ids = append(ids, it.ID)
	}
	ids = append(ids, a.store.Favorites()...)
	return ids
}

// recordQuotes feeds the in-document price history and, when a database is
// configured, the long-term history table. Both are best-effort.
func (a *App) recordQuotes(ctx context.Context, quotes []model.PriceQuote) {
	for _, q := range quotes {
		if q.SellPriceMin > 0 {
			a.store.RecordPrice(q.ItemID, q.City, q.SellPriceMin)
		}
		if a.repo != nil {
			if err := a.repo.LogQuote(ctx, q); err != nil {
				a.logger.Error("failed to log quote", "item", q.ItemID, "error", err)
			}
		}
	}
}

// craftsFromQuotes computes, per recipe, the most profitable city to craft
// in given this batch of quotes. Recipes with no valid result anywhere are
// reported once as invalid.
func (a *App) craftsFromQuotes(quotes []model.PriceQuote) []craftResult {
	byCity := make(map[string]map[string]model.PriceQuote)
	for _, q := range quotes {
		if byCity[q.City] == nil {
			byCity[q.City] = make(map[string]model.PriceQuote)
		}
		byCity[q.City][q.ItemID] = q
	}

	opts := a.craftOptions()
	var results []craftResult
	for _, recipe := range a.catalog.AllRecipes() {
		best := craftResult{Recipe: recipe, Profit: model.CraftingProfitResult{Risk: model.RiskHigh}}
		for _, city := range a.locations {
			cityQuotes := byCity[city]
			if cityQuotes == nil {
				continue
			}
			var output *model.PriceQuote
			if q, ok := cityQuotes[recipe.OutputItemID]; ok {
				output = &q
			}
			res := a.engine.CalculateCraftingProfit(recipe, cityQuotes, output, opts)
			if res.IsValid && (!best.Profit.IsValid || res.Profit > best.Profit.Profit) {
				best = craftResult{Recipe: recipe, City: city, Profit: res}
			}
		}
		results = append(results, best)
	}
	return results
}

func (a *App) craftOptions() profit.CraftOptions {
	settings := a.store.Settings()
	return profit.CraftOptions{
		TaxRate:    settings.TaxRatePercent / 100,
		HasPremium: settings.AssumePremium,
	}
}

func (a *App) setLastRefresh(p refreshPayload) {
	a.lastRefresh.Store(&p)
}

// LastRefresh returns the most recent refresh payload, if any pass ran yet.
func (a *App) LastRefresh() (refreshPayload, bool) {
	p := a.lastRefresh.Load()
	if p == nil {
		return refreshPayload{}, false
	}
	return *p, true
}
