package handlers

import (
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

type updateSettingsRequest struct {
	TargetCalories *float64 `json:"targetCalories"`
	TargetNetCarbs *float64 `json:"targetNetCarbs"`
	TargetProtein  *float64 `json:"targetProtein"`
	TargetFat      *float64 `json:"targetFat"`
	Language       *string  `json:"language"`
}

// GetSettings returns the effective settings: saved values over configured
// defaults.
func (h *Handlers) GetSettings(c *gin.Context) {
	language, err := h.db.GetSetting("language")
	if err != nil {
		log.WithError(err).Error("Failed to read settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read settings."})
		return
	}
	if language == "" {
		language = "en"
	}
	c.JSON(http.StatusOK, gin.H{
		"targets":  h.targets(),
		"language": language,
	})
}

// UpdateSettings saves the provided fields; omitted fields are unchanged.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings payload."})
		return
	}

	save := func(key string, value *float64) bool {
		if value == nil {
			return true
		}
		if *value <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Targets must be positive."})
			return false
		}
		if err := h.db.SetSetting(key, strconv.FormatFloat(*value, 'f', -1, 64)); err != nil {
			log.WithError(err).Error("Failed to save setting")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings."})
			return false
		}
		return true
	}

	if !save("target_calories", req.TargetCalories) ||
		!save("target_net_carbs", req.TargetNetCarbs) ||
		!save("target_protein", req.TargetProtein) ||
		!save("target_fat", req.TargetFat) {
		return
	}
	if req.Language != nil && *req.Language != "" {
		if err := h.db.SetSetting("language", *req.Language); err != nil {
			log.WithError(err).Error("Failed to save setting")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings."})
			return
		}
	}

	h.GetSettings(c)
}
