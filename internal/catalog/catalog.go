// Package catalog holds the static reference data: tradeable items and
// crafting recipes. The public API never fails; a broken data file falls
// back to the embedded default table with a logged warning.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"profitmaker/internal/model"
)

const maxSearchResults = 20

// Catalog is an immutable in-memory table of items and recipes.
type Catalog struct {
	logger  *slog.Logger
	items   []model.Item
	byID    map[string]model.Item
	recipes map[string]model.Recipe
	order   []string
}

type dataFile struct {
	Items   []model.Item   `json:"items"`
	Recipes []model.Recipe `json:"recipes"`
}

// New loads the catalog from the JSON data file at path. An empty path, a
// missing file, or a parse failure falls back to the embedded default table.
func New(logger *slog.Logger, path string) *Catalog {
	data, err := loadDataFile(path)
	if err != nil {
		logger.Warn("catalog data file unavailable, using embedded defaults", "path", path, "error", err)
		data = defaultData()
	}
	return fromData(logger, data)
}

// loadDataFile is the fallible half of catalog loading, split out so the
// failure path can be exercised independently of the empty-result path.
func loadDataFile(path string) (dataFile, error) {
	var data dataFile
	if path == "" {
		return data, fmt.Errorf("no data file configured")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("reading catalog data: %w", err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("parsing catalog data: %w", err)
	}
	if len(data.Items) == 0 {
		return data, fmt.Errorf("catalog data contains no items")
	}
	return data, nil
}

func fromData(logger *slog.Logger, data dataFile) *Catalog {
	c := &Catalog{
		logger:  logger,
		items:   data.Items,
		byID:    make(map[string]model.Item, len(data.Items)),
		recipes: make(map[string]model.Recipe, len(data.Recipes)),
	}
	for _, it := range data.Items {
		c.byID[it.ID] = it
	}
	for _, r := range data.Recipes {
		if r.OutputQuantity <= 0 {
			logger.Warn("dropping recipe with non-positive output quantity", "recipe", r.ID)
			continue
		}
		valid := true
		for _, ing := range r.Ingredients {
			if ing.Quantity <= 0 {
				valid = false
				break
			}
		}
		if !valid {
			logger.Warn("dropping recipe with non-positive ingredient quantity", "recipe", r.ID)
			continue
		}
		c.recipes[r.OutputItemID] = r
		c.order = append(c.order, r.OutputItemID)
	}
	return c
}

// Search returns up to 20 items whose id or name contains the query,
// case-insensitively. Queries shorter than two characters return nil.
func (c *Catalog) Search(query string) []model.Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < 2 {
		return nil
	}
	var out []model.Item
	for _, it := range c.items {
		if strings.Contains(strings.ToLower(it.ID), q) || strings.Contains(strings.ToLower(it.Name), q) {
			out = append(out, it)
			if len(out) == maxSearchResults {
				break
			}
		}
	}
	return out
}

// Item looks up one item by id.
func (c *Catalog) Item(itemID string) (model.Item, bool) {
	it, ok := c.byID[itemID]
	return it, ok
}

// ItemName returns the display name for an item id, or the id itself when
// the item is not in the catalog.
func (c *Catalog) ItemName(itemID string) string {
	if it, ok := c.byID[itemID]; ok {
		return it.Name
	}
	return itemID
}

// Recipe returns the crafting recipe producing itemID, if any.
func (c *Catalog) Recipe(itemID string) (model.Recipe, bool) {
	r, ok := c.recipes[itemID]
	return r, ok
}

// AllRecipes returns every recipe in stable load order.
func (c *Catalog) AllRecipes() []model.Recipe {
	out := make([]model.Recipe, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.recipes[id])
	}
	return out
}

// Items returns every item in the catalog.
func (c *Catalog) Items() []model.Item {
	return c.items
}
