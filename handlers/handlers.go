package handlers

import (
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"meal-analyze-service/analyzer"
	"meal-analyze-service/config"
	"meal-analyze-service/database"
	"meal-analyze-service/faults"
	"meal-analyze-service/models"
	"meal-analyze-service/version"
)

const serviceName = "meal-analyze-service"

// CredentialHeader lets a client supply its own API key per request,
// overriding the deployment-level one.
const CredentialHeader = "X-OpenAI-Key"

// Handlers holds the HTTP handlers and their collaborators.
type Handlers struct {
	cfg      *config.Config
	db       *database.Database
	analyzer *analyzer.Service
}

// NewHandlers creates the HTTP handlers.
func NewHandlers(cfg *config.Config, db *database.Database, svc *analyzer.Service) *Handlers {
	return &Handlers{cfg: cfg, db: db, analyzer: svc}
}

// HealthCheck handles health check requests.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"build":   version.Get(serviceName),
	})
}

// credential resolves the API key for one request: per-request header first,
// then the deployment-level key. Empty means the caller must be prompted.
func (h *Handlers) credential(c *gin.Context) string {
	if key := c.GetHeader(CredentialHeader); key != "" {
		return key
	}
	return h.cfg.OpenAIAPIKey
}

// writeFailure converts a pipeline error into one user-facing message.
// Full detail stays in the log; no provider text reaches the client.
func writeFailure(c *gin.Context, err error) {
	kind := faults.KindOf(err)
	message, hint := faults.UserMessage(kind)
	log.WithError(err).WithField("kind", string(kind)).Error("Analysis request failed")
	c.JSON(faults.HTTPStatus(kind), gin.H{
		"error": message,
		"hint":  hint,
		"kind":  string(kind),
	})
}

// targets returns the user's saved daily targets, falling back to the
// configured defaults for unset values.
func (h *Handlers) targets() models.DailyTargets {
	t := models.DailyTargets{
		Calories: h.cfg.TargetCalories,
		NetCarbs: h.cfg.TargetNetCarbs,
		Protein:  h.cfg.TargetProtein,
		Fat:      h.cfg.TargetFat,
	}
	read := func(key string, dst *float64) {
		value, err := h.db.GetSetting(key)
		if err != nil || value == "" {
			return
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			*dst = f
		}
	}
	read("target_calories", &t.Calories)
	read("target_net_carbs", &t.NetCarbs)
	read("target_protein", &t.Protein)
	read("target_fat", &t.Fat)
	return t
}
