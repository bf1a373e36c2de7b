package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moodtunes/moodtunes-api/internal/config"
)

// HealthHandler reports service health and active model configuration
type HealthHandler struct {
	cfg     *config.Config
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cfg *config.Config, version string) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: version}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	geminiStatus := "missing"
	if h.cfg.GeminiAPIKey != "" {
		geminiStatus = "configured"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.version,
		"model":   h.cfg.ChatModel,
		"gemini_api_key": gin.H{
			"status": geminiStatus,
		},
	})
}
