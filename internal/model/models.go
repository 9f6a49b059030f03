package model

import "time"

// Item is one tradeable item from the reference catalog.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Tier     int    `json:"tier"`
}

// Ingredient is one input line of a crafting recipe.
type Ingredient struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Recipe describes how an item is crafted. Reference data, immutable after load.
type Recipe struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	OutputItemID   string       `json:"outputItemId"`
	OutputQuantity int          `json:"outputQuantity"`
	Ingredients    []Ingredient `json:"ingredients"`
}

// PriceQuote is the best observed ask and bid for one item in one city at
// fetch time. A price of 0 means "no active order", not a real price.
type PriceQuote struct {
	ItemID         string  `json:"item_id"`
	City           string  `json:"city"`
	SellPriceMin   float64 `json:"sell_price_min"`
	SellOrderCount int     `json:"sell_order_count"`
	BuyPriceMax    float64 `json:"buy_price_max"`
	BuyOrderCount  int     `json:"buy_order_count"`
}

// Risk classifies an opportunity by execution risk.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// CraftingProfitResult is the outcome of a crafting profit calculation.
// IsValid is false when any required price was missing or zero; in that case
// the numeric fields are zero and Risk is high.
type CraftingProfitResult struct {
	Profit           float64 `json:"profit"`
	ProfitPercentage float64 `json:"profitPercentage"`
	UtilityScore     float64 `json:"utilityScore"`
	Risk             Risk    `json:"risk"`
	MaterialCost     float64 `json:"materialCost"`
	OutputValue      float64 `json:"outputValue"`
	TaxAmount        float64 `json:"taxAmount"`
	IsValid          bool    `json:"isValid"`
}

// FlipOpportunity is a cross-city arbitrage candidate: buy at BuyCity's
// lowest ask, sell at SellCity's highest bid.
type FlipOpportunity struct {
	ItemID         string  `json:"itemId"`
	ItemName       string  `json:"itemName"`
	BuyCity        string  `json:"buyCity"`
	SellCity       string  `json:"sellCity"`
	BuyPrice       float64 `json:"buyPrice"`
	SellPrice      float64 `json:"sellPrice"`
	Profit         float64 `json:"profit"`
	Margin         float64 `json:"margin"`
	LiquidityScore float64 `json:"liquidityScore"`
	Risk           Risk    `json:"risk"`
	BuyOrders      int     `json:"buyOrders"`
	SellOrders     int     `json:"sellOrders"`
}

// SavedFlip is a FlipOpportunity the user chose to keep.
type SavedFlip struct {
	ID           string          `json:"id"`
	Flip         FlipOpportunity `json:"flip"`
	SavedAt      time.Time       `json:"savedAt"`
	TimesUpdated int             `json:"timesUpdated"`
}

// SavedCraft is a recipe plus its profit figures at save time.
type SavedCraft struct {
	ID      string               `json:"id"`
	Recipe  Recipe               `json:"recipe"`
	Profit  CraftingProfitResult `json:"profit"`
	SavedAt time.Time            `json:"savedAt"`
}

// Settings holds the user-tunable knobs persisted with the snapshot.
type Settings struct {
	TaxRatePercent        float64 `json:"taxRatePercent"`
	AssumePremium         bool    `json:"assumePremium"`
	UpdateIntervalMinutes int     `json:"updateIntervalMinutes"`
}

// PricePoint is one historical price observation for an item in a city.
type PricePoint struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// UserStats accumulates lifetime totals across saved trades.
type UserStats struct {
	TotalProfit     float64  `json:"totalProfit"`
	TradesCompleted int      `json:"tradesCompleted"`
	FavoriteItems   []string `json:"favoriteItems"`
}
