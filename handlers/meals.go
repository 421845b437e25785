package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"meal-analyze-service/models"
	"meal-analyze-service/nutrition"
)

const dateLayout = "2006-01-02"

type createMealsRequest struct {
	Items  []models.FoodItem `json:"items"`
	Source models.MealSource `json:"source"`
	Date   string            `json:"date"`
}

// CreateMeals persists accepted analysis items as meal records. Derived
// fields are recomputed server-side; client arithmetic is not trusted.
func (h *Handlers) CreateMeals(c *gin.Context) {
	var req createMealsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one food item is required."})
		return
	}
	if req.Source == "" {
		req.Source = models.SourceManual
	}
	if !models.ValidSource(req.Source) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown meal source."})
		return
	}
	date := req.Date
	if date == "" {
		date = time.Now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD."})
		return
	}

	now := time.Now()
	saved := make([]models.MealRecord, 0, len(req.Items))
	for _, item := range req.Items {
		record := models.MealRecord{
			ID:          uuid.NewString(),
			Name:        item.Name,
			Calories:    clampNonNegative(item.Calories),
			Carbs:       clampNonNegative(item.Carbs),
			Protein:     clampNonNegative(item.Protein),
			Fat:         clampNonNegative(item.Fat),
			Fiber:       clampNonNegative(item.Fiber),
			ServingSize: item.ServingSize,
			Unit:        item.Unit,
			Source:      req.Source,
			LoggedDate:  date,
			CreatedAt:   now,
		}
		if record.Name == "" {
			record.Name = "Unknown food"
		}
		if record.ServingSize <= 0 {
			record.ServingSize = 100
		}
		if record.Unit == "" {
			record.Unit = "g"
		}
		record.NetCarbs = nutrition.NetCarbs(record.Carbs, record.Fiber)

		if err := h.db.SaveMeal(&record); err != nil {
			log.WithError(err).Error("Failed to save meal")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save meal."})
			return
		}
		saved = append(saved, record)
	}

	c.JSON(http.StatusCreated, gin.H{"meals": saved})
}

// ListMeals returns the meals logged on one date (default today).
func (h *Handlers) ListMeals(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD."})
		return
	}

	meals, err := h.db.ListMealsByDate(date)
	if err != nil {
		log.WithError(err).Error("Failed to list meals")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list meals."})
		return
	}
	if meals == nil {
		meals = []models.MealRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "meals": meals})
}

// DeleteMeal removes one meal by id.
func (h *Handlers) DeleteMeal(c *gin.Context) {
	id := c.Param("id")
	if err := h.db.DeleteMeal(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Meal not found."})
			return
		}
		log.WithError(err).Error("Failed to delete meal")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete meal."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// DailySummary returns totals for one date against the configured targets.
func (h *Handlers) DailySummary(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD."})
		return
	}

	summary, err := h.dailySummary(date)
	if err != nil {
		log.WithError(err).Error("Failed to build daily summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary."})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// WeeklySummary returns per-day summaries and totals for the seven days
// ending at "end" (default today).
func (h *Handlers) WeeklySummary(c *gin.Context) {
	end := c.Query("end")
	var endDay time.Time
	var err error
	if end == "" {
		endDay = time.Now()
		end = endDay.Format(dateLayout)
	} else if endDay, err = time.Parse(dateLayout, end); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End date must be YYYY-MM-DD."})
		return
	}

	days := make([]models.DailySummary, 0, 7)
	var week models.NutritionTotals
	for i := 6; i >= 0; i-- {
		date := endDay.AddDate(0, 0, -i).Format(dateLayout)
		day, err := h.dailySummary(date)
		if err != nil {
			log.WithError(err).Error("Failed to build weekly summary")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary."})
			return
		}
		days = append(days, day)
		week.Calories += day.Totals.Calories
		week.Carbs += day.Totals.Carbs
		week.Protein += day.Totals.Protein
		week.Fat += day.Totals.Fat
		week.Fiber += day.Totals.Fiber
		week.NetCarbs += day.Totals.NetCarbs
	}

	c.JSON(http.StatusOK, models.WeeklySummary{
		StartDate: endDay.AddDate(0, 0, -6).Format(dateLayout),
		EndDate:   end,
		Days:      days,
		Totals:    week,
	})
}

func (h *Handlers) dailySummary(date string) (models.DailySummary, error) {
	meals, err := h.db.ListMealsByDate(date)
	if err != nil {
		return models.DailySummary{}, err
	}
	return models.DailySummary{
		Date:    date,
		Meals:   len(meals),
		Totals:  nutrition.SumMeals(meals),
		Targets: h.targets(),
	}, nil
}

func clampNonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
