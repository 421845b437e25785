package nutrition

import (
	"encoding/json"
	"strconv"
	"strings"

	"meal-analyze-service/models"
)

const (
	defaultName        = "Unknown food"
	defaultUnit        = "g"
	defaultServingSize = 100
)

// coerceNumber converts untyped JSON values to float64. Models emit numbers,
// quoted numbers, and occasionally garbage; anything unusable reports false.
func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// numberField reads a numeric field from a raw item, substituting def when
// the field is absent or unusable, and clamping the result to be
// non-negative.
func numberField(raw map[string]any, key string, def float64) float64 {
	v, ok := raw[key]
	if !ok {
		return def
	}
	f, ok := coerceNumber(v)
	if !ok {
		return def
	}
	if f < 0 {
		return 0
	}
	return f
}

// NormalizeItem coerces one untyped parsed food into a well-formed FoodItem.
// NetCarbs is always recomputed from carbs and fiber; the model's own
// arithmetic is not trusted.
func NormalizeItem(raw map[string]any) models.FoodItem {
	item := models.FoodItem{
		Name:        defaultName,
		Unit:        defaultUnit,
		Calories:    numberField(raw, "calories", 0),
		Carbs:       numberField(raw, "carbs", 0),
		Protein:     numberField(raw, "protein", 0),
		Fat:         numberField(raw, "fat", 0),
		Fiber:       numberField(raw, "fiber", 0),
		ServingSize: numberField(raw, "servingSize", defaultServingSize),
	}
	if name, ok := raw["name"].(string); ok && strings.TrimSpace(name) != "" {
		item.Name = strings.TrimSpace(name)
	}
	if unit, ok := raw["unit"].(string); ok && strings.TrimSpace(unit) != "" {
		item.Unit = strings.TrimSpace(unit)
	}
	if item.ServingSize <= 0 {
		item.ServingSize = defaultServingSize
	}
	item.NetCarbs = NetCarbs(item.Carbs, item.Fiber)
	return item
}

// NormalizeItems normalizes every parsed food in order.
func NormalizeItems(raw []map[string]any) []models.FoodItem {
	items := make([]models.FoodItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, NormalizeItem(r))
	}
	return items
}

// NetCarbs computes digestible carbohydrates, floored at zero.
func NetCarbs(carbs, fiber float64) float64 {
	net := carbs - fiber
	if net < 0 {
		return 0
	}
	return net
}

// Totals computes the field-wise sum over items. Totals are always a pure
// function of the item collection; supplied totals from a model are ignored
// and recomputed here.
func Totals(items []models.FoodItem) models.NutritionTotals {
	var t models.NutritionTotals
	for _, item := range items {
		t.Calories += item.Calories
		t.Carbs += item.Carbs
		t.Protein += item.Protein
		t.Fat += item.Fat
		t.Fiber += item.Fiber
		t.NetCarbs += item.NetCarbs
	}
	return t
}

// SumMeals aggregates persisted meal records into day or week totals.
func SumMeals(meals []models.MealRecord) models.NutritionTotals {
	var t models.NutritionTotals
	for _, m := range meals {
		t.Calories += m.Calories
		t.Carbs += m.Carbs
		t.Protein += m.Protein
		t.Fat += m.Fat
		t.Fiber += m.Fiber
		t.NetCarbs += m.NetCarbs
	}
	return t
}
