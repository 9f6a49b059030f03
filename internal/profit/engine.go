// Package profit computes crafting-profit figures and cross-city flip
// opportunities from priced market records. Both calculations are pure given
// their inputs and never fail on missing or malformed price data: bad input
// degrades to an invalid result or a skipped item.
package profit

import (
	"log/slog"
	"math"
	"sort"

	"profitmaker/internal/catalog"
	"profitmaker/internal/model"
)

// Resource return rates from the game's crafting mechanic. These are
// behavioral constants, not tunables.
const (
	premiumReturnRate    = 0.475
	basicReturnRate      = 0.15
	focusReturnRateBonus = 0.424
)

// CraftOptions tunes a crafting profit calculation.
type CraftOptions struct {
	TaxRate    float64
	HasPremium bool
	UseFocus   bool
}

// DefaultCraftOptions returns the standard assumptions: 3% sales tax,
// premium account, no focus.
func DefaultCraftOptions() CraftOptions {
	return CraftOptions{TaxRate: 0.03, HasPremium: true}
}

// FlipFilters bounds which flip opportunities are worth reporting.
type FlipFilters struct {
	MinProfit    float64
	MinMargin    float64
	MinLiquidity float64
}

// DefaultFlipFilters returns the standard thresholds: 100 silver profit,
// 5% margin, any liquidity.
func DefaultFlipFilters() FlipFilters {
	return FlipFilters{MinProfit: 100, MinMargin: 5}
}

// Engine computes profit figures over priced records, resolving item display
// names through the catalog.
type Engine struct {
	logger  *slog.Logger
	catalog *catalog.Catalog
}

// NewEngine creates a new Engine.
func NewEngine(logger *slog.Logger, cat *catalog.Catalog) *Engine {
	return &Engine{logger: logger, catalog: cat}
}

// invalidCraft is the degenerate result for missing or zero prices.
func invalidCraft() model.CraftingProfitResult {
	return model.CraftingProfitResult{Risk: model.RiskHigh, IsValid: false}
}

// CalculateCraftingProfit computes the profit of crafting one recipe given a
// quote per ingredient and a quote for the output item. Any missing
// ingredient quote, a zero ingredient ask, or a missing/zero output bid
// yields IsValid=false with risk high rather than an error.
func (e *Engine) CalculateCraftingProfit(recipe model.Recipe, ingredientPrices map[string]model.PriceQuote, outputPrice *model.PriceQuote, opts CraftOptions) model.CraftingProfitResult {
	var totalMaterialCost float64
	for _, ing := range recipe.Ingredients {
		quote, ok := ingredientPrices[ing.ItemID]
		if !ok || quote.SellPriceMin == 0 {
			e.logger.Debug("no market price for ingredient", "recipe", recipe.ID, "ingredient", ing.ItemID)
			return invalidCraft()
		}
		totalMaterialCost += quote.SellPriceMin * float64(ing.Quantity)
	}
	if outputPrice == nil || outputPrice.BuyPriceMax == 0 {
		e.logger.Debug("no buy orders for output", "recipe", recipe.ID)
		return invalidCraft()
	}

	returnRate := basicReturnRate
	if opts.HasPremium {
		returnRate = premiumReturnRate
	}
	if opts.UseFocus {
		returnRate += focusReturnRateBonus
	}
	effectiveMaterialCost := totalMaterialCost * (1 - returnRate)

	outputValue := outputPrice.BuyPriceMax * float64(recipe.OutputQuantity)
	taxAmount := outputValue * opts.TaxRate
	netOutputValue := outputValue - taxAmount

	rawProfit := netOutputValue - effectiveMaterialCost
	profitPercentage := 0.0
	if effectiveMaterialCost > 0 {
		profitPercentage = rawProfit / effectiveMaterialCost * 100
	}

	liquidityScore := math.Min(float64(outputPrice.SellOrderCount)/100, 1)
	utilityScore := rawProfit * (profitPercentage / 100) * liquidityScore

	risk := model.RiskMedium
	switch {
	case profitPercentage > 25 && outputPrice.SellOrderCount > 50 && outputPrice.BuyOrderCount > 20:
		risk = model.RiskLow
	case profitPercentage < 5 || outputPrice.SellOrderCount < 10 || outputPrice.BuyOrderCount < 5:
		risk = model.RiskHigh
	}

	return model.CraftingProfitResult{
		Profit:           math.Round(rawProfit),
		ProfitPercentage: round2(profitPercentage),
		UtilityScore:     round2(utilityScore),
		Risk:             risk,
		MaterialCost:     math.Round(effectiveMaterialCost),
		OutputValue:      math.Round(netOutputValue),
		TaxAmount:        math.Round(taxAmount),
		IsValid:          true,
	}
}

// FindFlipOpportunities scans a batch of quotes for cross-city arbitrage:
// per item, the cheapest ask across cities against the highest bid in a
// different city. The result is sorted by profit descending; ties keep the
// order items were first encountered in.
func (e *Engine) FindFlipOpportunities(quotes []model.PriceQuote, filters FlipFilters) []model.FlipOpportunity {
	grouped := make(map[string][]model.PriceQuote)
	var itemOrder []string
	for _, q := range quotes {
		if _, ok := grouped[q.ItemID]; !ok {
			itemOrder = append(itemOrder, q.ItemID)
		}
		grouped[q.ItemID] = append(grouped[q.ItemID], q)
	}

	var opportunities []model.FlipOpportunity
	for _, itemID := range itemOrder {
		prices := grouped[itemID]

		var bestBuy, bestSell *model.PriceQuote
		for i := range prices {
			p := &prices[i]
			if p.SellPriceMin > 0 && p.SellOrderCount > 0 {
				if bestBuy == nil || p.SellPriceMin < bestBuy.SellPriceMin {
					bestBuy = p
				}
			}
			if p.BuyPriceMax > 0 && p.BuyOrderCount > 0 {
				if bestSell == nil || p.BuyPriceMax > bestSell.BuyPriceMax {
					bestSell = p
				}
			}
		}
		if bestBuy == nil || bestSell == nil || bestBuy.City == bestSell.City {
			continue
		}

		rawProfit := bestSell.BuyPriceMax - bestBuy.SellPriceMin
		margin := 0.0
		if bestBuy.SellPriceMin > 0 {
			margin = rawProfit / bestBuy.SellPriceMin * 100
		}
		liquidityScore := math.Min(
			math.Min(float64(bestBuy.SellOrderCount)/100, float64(bestSell.BuyOrderCount)/100),
			1,
		)

		if rawProfit < filters.MinProfit || margin < filters.MinMargin || liquidityScore < filters.MinLiquidity {
			continue
		}

		opportunities = append(opportunities, model.FlipOpportunity{
			ItemID:         itemID,
			ItemName:       e.catalog.ItemName(itemID),
			BuyCity:        bestBuy.City,
			SellCity:       bestSell.City,
			BuyPrice:       bestBuy.SellPriceMin,
			SellPrice:      bestSell.BuyPriceMax,
			Profit:         math.Round(rawProfit),
			Margin:         round2(margin),
			LiquidityScore: round2(liquidityScore),
			Risk:           flipRisk(liquidityScore, margin),
			BuyOrders:      bestBuy.SellOrderCount,
			SellOrders:     bestSell.BuyOrderCount,
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].Profit > opportunities[j].Profit
	})
	return opportunities
}

func flipRisk(liquidityScore, margin float64) model.Risk {
	if liquidityScore > 0.5 && margin > 15 {
		return model.RiskLow
	}
	if liquidityScore > 0.2 && margin > 8 {
		return model.RiskMedium
	}
	return model.RiskHigh
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
