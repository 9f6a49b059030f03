package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"profitmaker/internal/catalog"
	"profitmaker/internal/market"
	"profitmaker/internal/model"
	"profitmaker/internal/profit"
)

// analysisDeps bundles the service objects the one-shot commands need.
type analysisDeps struct {
	catalog *catalog.Catalog
	client  *market.Client
	engine  *profit.Engine
	cities  []string
}

func buildAnalysisDeps() (analysisDeps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return analysisDeps{}, err
	}
	logger := newLogger()
	cat := catalog.New(logger, cfg.Catalog.DataFile)
	return analysisDeps{
		catalog: cat,
		client:  market.NewClient(logger, cfg.Market),
		engine:  profit.NewEngine(logger, cat),
		cities:  cfg.Market.Locations,
	}, nil
}

func (d analysisDeps) fetchAll(ctx context.Context) ([]model.PriceQuote, error) {
	var ids []string
	for _, it := range d.catalog.Items() {
		ids = append(ids, it.ID)
	}
	return d.client.GetPrices(ctx, ids, d.cities)
}

func newFlipsCommand() *cobra.Command {
	var minProfit, minMargin, minLiquidity float64

	cmd := &cobra.Command{
		Use:   "flips",
		Short: "Scan all catalog items for cross-city flip opportunities",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := buildAnalysisDeps()
			if err != nil {
				return err
			}

			quotes, err := deps.fetchAll(cmd.Context())
			if err != nil {
				return err
			}

			filters := profit.DefaultFlipFilters()
			if cmd.Flags().Changed("min-profit") {
				filters.MinProfit = minProfit
			}
			if cmd.Flags().Changed("min-margin") {
				filters.MinMargin = minMargin
			}
			if cmd.Flags().Changed("min-liquidity") {
				filters.MinLiquidity = minLiquidity
			}

			flips := deps.engine.FindFlipOpportunities(quotes, filters)
			if len(flips) == 0 {
				fmt.Println("No opportunities matched the filters.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ITEM\tBUY\tSELL\tPROFIT\tMARGIN\tLIQ\tRISK")
			for _, f := range flips {
				fmt.Fprintf(w, "%s\t%s @ %.0f\t%s @ %.0f\t%.0f\t%.2f%%\t%.2f\t%s\n",
					f.ItemName, f.BuyCity, f.BuyPrice, f.SellCity, f.SellPrice,
					f.Profit, f.Margin, f.LiquidityScore, f.Risk)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Float64Var(&minProfit, "min-profit", 100, "Minimum profit in silver")
	cmd.Flags().Float64Var(&minMargin, "min-margin", 5, "Minimum margin percent")
	cmd.Flags().Float64Var(&minLiquidity, "min-liquidity", 0, "Minimum liquidity score (0-1)")
	return cmd
}

func newCraftCommand() *cobra.Command {
	var city string
	var noPremium, useFocus bool
	var taxRate float64

	cmd := &cobra.Command{
		Use:   "craft <item-id>",
		Short: "Compute crafting profit for one item's recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := buildAnalysisDeps()
			if err != nil {
				return err
			}

			recipe, ok := deps.catalog.Recipe(args[0])
			if !ok {
				return fmt.Errorf("no recipe produces %s", args[0])
			}

			ids := []string{recipe.OutputItemID}
			for _, ing := range recipe.Ingredients {
				ids = append(ids, ing.ItemID)
			}
			quotes, err := deps.client.GetPrices(cmd.Context(), ids, []string{city})
			if err != nil {
				return err
			}

			prices := make(map[string]model.PriceQuote)
			var output *model.PriceQuote
			for _, q := range quotes {
				if q.ItemID == recipe.OutputItemID {
					out := q
					output = &out
					continue
				}
				prices[q.ItemID] = q
			}

			opts := profit.CraftOptions{TaxRate: taxRate / 100, HasPremium: !noPremium, UseFocus: useFocus}
			res := deps.engine.CalculateCraftingProfit(recipe, prices, output, opts)
			if !res.IsValid {
				fmt.Printf("%s in %s: no valid result (missing prices or empty order books)\n", recipe.Name, city)
				return nil
			}

			fmt.Printf("%s in %s\n", recipe.Name, city)
			fmt.Printf("  material cost: %.0f\n", res.MaterialCost)
			fmt.Printf("  output value:  %.0f (tax %.0f)\n", res.OutputValue, res.TaxAmount)
			fmt.Printf("  profit:        %.0f (%.2f%%)\n", res.Profit, res.ProfitPercentage)
			fmt.Printf("  utility:       %.2f, risk %s\n", res.UtilityScore, res.Risk)
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "Thetford", "City to price the craft in")
	cmd.Flags().BoolVar(&noPremium, "no-premium", false, "Assume no premium account")
	cmd.Flags().BoolVar(&useFocus, "focus", false, "Assume crafting focus is used")
	cmd.Flags().Float64Var(&taxRate, "tax", 3, "Sales tax percent")
	return cmd
}

func newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the item catalog by id or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := buildAnalysisDeps()
			if err != nil {
				return err
			}
			items := deps.catalog.Search(args[0])
			if len(items) == 0 {
				fmt.Println("No items matched.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tTIER")
			for _, it := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", it.ID, it.Name, it.Category, it.Tier)
			}
			return w.Flush()
		},
	}
}
