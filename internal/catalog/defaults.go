package catalog

import "profitmaker/internal/model"

// defaultData is the embedded fallback table used when no data file can be
// loaded. It covers the common refining and cloth-armor chains.
func defaultData() dataFile {
	return dataFile{
		Items: []model.Item{
			{ID: "T4_ORE", Name: "Iron Ore", Category: "ORE", Tier: 4},
			{ID: "T5_ORE", Name: "Steel Ore", Category: "ORE", Tier: 5},
			{ID: "T6_ORE", Name: "Titanium Ore", Category: "ORE", Tier: 6},
			{ID: "T4_METALBAR", Name: "Iron Bar", Category: "METALBAR", Tier: 4},
			{ID: "T5_METALBAR", Name: "Steel Bar", Category: "METALBAR", Tier: 5},
			{ID: "T6_METALBAR", Name: "Titanium Steel Bar", Category: "METALBAR", Tier: 6},
			{ID: "T4_WOOD", Name: "Birch Logs", Category: "WOOD", Tier: 4},
			{ID: "T5_WOOD", Name: "Chestnut Logs", Category: "WOOD", Tier: 5},
			{ID: "T6_WOOD", Name: "Pine Logs", Category: "WOOD", Tier: 6},
			{ID: "T4_PLANKS", Name: "Birch Planks", Category: "PLANKS", Tier: 4},
			{ID: "T5_PLANKS", Name: "Chestnut Planks", Category: "PLANKS", Tier: 5},
			{ID: "T4_CLOTH", Name: "Cotton", Category: "CLOTH", Tier: 4},
			{ID: "T5_CLOTH", Name: "Fine Cloth", Category: "CLOTH", Tier: 5},
			{ID: "T4_LEATHER", Name: "Medium Leather", Category: "LEATHER", Tier: 4},
			{ID: "T5_LEATHER", Name: "Hard Leather", Category: "LEATHER", Tier: 5},
			{ID: "T4_HEAD_CLOTH_SET2", Name: "Scholar Cowl", Category: "HEAD_CLOTH", Tier: 4},
			{ID: "T5_HEAD_CLOTH_SET2", Name: "Scholar Cowl", Category: "HEAD_CLOTH", Tier: 5},
			{ID: "T4_ARMOR_CLOTH_SET2", Name: "Scholar Robe", Category: "ARMOR_CLOTH", Tier: 4},
			{ID: "T5_ARMOR_CLOTH_SET2", Name: "Scholar Robe", Category: "ARMOR_CLOTH", Tier: 5},
			{ID: "T4_SHOES_CLOTH_SET2", Name: "Scholar Sandals", Category: "SHOES_CLOTH", Tier: 4},
			{ID: "T5_SHOES_CLOTH_SET2", Name: "Scholar Sandals", Category: "SHOES_CLOTH", Tier: 5},
		},
		Recipes: []model.Recipe{
			{
				ID:             "recipe_t4_metalbar",
				Name:           "Iron Bar",
				OutputItemID:   "T4_METALBAR",
				OutputQuantity: 1,
				Ingredients:    []model.Ingredient{{ItemID: "T4_ORE", Quantity: 2}},
			},
			{
				ID:             "recipe_t5_metalbar",
				Name:           "Steel Bar",
				OutputItemID:   "T5_METALBAR",
				OutputQuantity: 1,
				Ingredients:    []model.Ingredient{{ItemID: "T5_ORE", Quantity: 2}},
			},
			{
				ID:             "recipe_t4_planks",
				Name:           "Birch Planks",
				OutputItemID:   "T4_PLANKS",
				OutputQuantity: 1,
				Ingredients:    []model.Ingredient{{ItemID: "T4_WOOD", Quantity: 2}},
			},
			{
				ID:             "recipe_t4_scholar_robe",
				Name:           "Scholar Robe",
				OutputItemID:   "T4_ARMOR_CLOTH_SET2",
				OutputQuantity: 1,
				Ingredients: []model.Ingredient{
					{ItemID: "T4_CLOTH", Quantity: 20},
					{ItemID: "T4_LEATHER", Quantity: 8},
				},
			},
		},
	}
}
