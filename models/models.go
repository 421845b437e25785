package models

import "time"

// FoodItem is one identified food with its estimated nutrition. NetCarbs is
// derived from Carbs and Fiber by the nutrition package and is never taken
// from model output as-is.
type FoodItem struct {
	Name        string  `json:"name"`
	Calories    float64 `json:"calories"`
	Carbs       float64 `json:"carbs"`
	Protein     float64 `json:"protein"`
	Fat         float64 `json:"fat"`
	Fiber       float64 `json:"fiber"`
	NetCarbs    float64 `json:"netCarbs"`
	ServingSize float64 `json:"servingSize"`
	Unit        string  `json:"unit"`
}

// NutritionTotals is the field-wise sum of a collection of FoodItems.
type NutritionTotals struct {
	Calories float64 `json:"calories"`
	Carbs    float64 `json:"carbs"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	NetCarbs float64 `json:"netCarbs"`
}

// AnalysisResult is the output of one pipeline run. It is returned to the
// client and discarded; accepted items become MealRecords.
type AnalysisResult struct {
	Foods      []FoodItem      `json:"foods"`
	Totals     NutritionTotals `json:"totalNutrition"`
	Model      string          `json:"model,omitempty"`
	Provider   string          `json:"provider,omitempty"`
	Transcript string          `json:"transcript,omitempty"`
}

// MealSource tags how a meal entered the log.
type MealSource string

const (
	SourcePhoto  MealSource = "photo"
	SourceVoice  MealSource = "voice"
	SourceText   MealSource = "text"
	SourceManual MealSource = "manual"
)

// ValidSource reports whether s is one of the known meal source tags.
func ValidSource(s MealSource) bool {
	switch s {
	case SourcePhoto, SourceVoice, SourceText, SourceManual:
		return true
	}
	return false
}

// MealRecord is a persisted meal entry.
type MealRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Calories    float64    `json:"calories"`
	Carbs       float64    `json:"carbs"`
	Protein     float64    `json:"protein"`
	Fat         float64    `json:"fat"`
	Fiber       float64    `json:"fiber"`
	NetCarbs    float64    `json:"netCarbs"`
	ServingSize float64    `json:"servingSize"`
	Unit        string     `json:"unit"`
	Source      MealSource `json:"source"`
	LoggedDate  string     `json:"loggedDate"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// DailyTargets are the user's configured daily limits and goals.
type DailyTargets struct {
	Calories float64 `json:"calories"`
	NetCarbs float64 `json:"netCarbs"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
}

// DailySummary is the aggregate for one day against the configured targets.
type DailySummary struct {
	Date    string          `json:"date"`
	Meals   int             `json:"meals"`
	Totals  NutritionTotals `json:"totals"`
	Targets DailyTargets    `json:"targets"`
}

// WeeklySummary covers the seven days ending at EndDate.
type WeeklySummary struct {
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Days      []DailySummary  `json:"days"`
	Totals    NutritionTotals `json:"totals"`
}
