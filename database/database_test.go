package database

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"meal-analyze-service/models"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mealFixture(id, name, date string, createdAt time.Time) *models.MealRecord {
	return &models.MealRecord{
		ID:          id,
		Name:        name,
		Calories:    180,
		Carbs:       1,
		Protein:     12,
		Fat:         14,
		NetCarbs:    1,
		ServingSize: 2,
		Unit:        "unit",
		Source:      models.SourceText,
		LoggedDate:  date,
		CreatedAt:   createdAt,
	}
}

func TestSaveAndListMeals(t *testing.T) {
	db := newTestDatabase(t)
	base := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)

	if err := db.SaveMeal(mealFixture("m1", "fried egg", "2026-08-30", base)); err != nil {
		t.Fatalf("SaveMeal: %v", err)
	}
	if err := db.SaveMeal(mealFixture("m2", "bacon", "2026-08-30", base.Add(time.Minute))); err != nil {
		t.Fatalf("SaveMeal: %v", err)
	}
	if err := db.SaveMeal(mealFixture("m3", "salmon", "2026-08-31", base.Add(time.Hour))); err != nil {
		t.Fatalf("SaveMeal: %v", err)
	}

	meals, err := db.ListMealsByDate("2026-08-30")
	if err != nil {
		t.Fatalf("ListMealsByDate: %v", err)
	}
	if len(meals) != 2 {
		t.Fatalf("got %d meals, want 2", len(meals))
	}
	if meals[0].Name != "fried egg" || meals[1].Name != "bacon" {
		t.Errorf("order = %q, %q; want oldest first", meals[0].Name, meals[1].Name)
	}

	got := meals[0]
	if got.ID != "m1" || got.Calories != 180 || got.NetCarbs != 1 ||
		got.ServingSize != 2 || got.Unit != "unit" || got.Source != models.SourceText ||
		got.LoggedDate != "2026-08-30" {
		t.Errorf("round-tripped meal = %+v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, base)
	}

	empty, err := db.ListMealsByDate("2026-09-01")
	if err != nil {
		t.Fatalf("ListMealsByDate: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("got %d meals on an empty day, want 0", len(empty))
	}
}

func TestListMealsBetween(t *testing.T) {
	db := newTestDatabase(t)
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	dates := []string{"2026-08-24", "2026-08-26", "2026-08-30", "2026-09-01"}
	for i, date := range dates {
		m := mealFixture(date, "meal "+date, date, base.Add(time.Duration(i)*time.Hour))
		if err := db.SaveMeal(m); err != nil {
			t.Fatalf("SaveMeal: %v", err)
		}
	}

	meals, err := db.ListMealsBetween("2026-08-24", "2026-08-30")
	if err != nil {
		t.Fatalf("ListMealsBetween: %v", err)
	}
	if len(meals) != 3 {
		t.Fatalf("got %d meals, want 3 in the inclusive window", len(meals))
	}
	if meals[0].LoggedDate != "2026-08-24" || meals[2].LoggedDate != "2026-08-30" {
		t.Errorf("window edges = %q .. %q", meals[0].LoggedDate, meals[2].LoggedDate)
	}
}

func TestDeleteMeal(t *testing.T) {
	db := newTestDatabase(t)
	if err := db.SaveMeal(mealFixture("m1", "butter", "2026-08-30", time.Now().UTC())); err != nil {
		t.Fatalf("SaveMeal: %v", err)
	}

	if err := db.DeleteMeal("m1"); err != nil {
		t.Fatalf("DeleteMeal: %v", err)
	}
	meals, err := db.ListMealsByDate("2026-08-30")
	if err != nil {
		t.Fatalf("ListMealsByDate: %v", err)
	}
	if len(meals) != 0 {
		t.Errorf("meal still present after delete")
	}

	if err := db.DeleteMeal("m1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("second delete = %v, want sql.ErrNoRows", err)
	}
	if err := db.DeleteMeal("never-existed"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("delete of unknown id = %v, want sql.ErrNoRows", err)
	}
}

func TestSettings(t *testing.T) {
	db := newTestDatabase(t)

	value, err := db.GetSetting("target_net_carbs")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if value != "" {
		t.Errorf("unset key = %q, want empty", value)
	}

	if err := db.SetSetting("target_net_carbs", "25"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	value, err = db.GetSetting("target_net_carbs")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if value != "25" {
		t.Errorf("value = %q, want 25", value)
	}

	// Upsert replaces.
	if err := db.SetSetting("target_net_carbs", "30"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	value, _ = db.GetSetting("target_net_carbs")
	if value != "30" {
		t.Errorf("value after upsert = %q, want 30", value)
	}
}
