package handlers

import (
	"composer/config"
	"composer/services"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	settings  services.SettingsProvider
	lrclib    services.LRCLibClient
	romanizer services.Romanizer
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(settings services.SettingsProvider, lrclib services.LRCLibClient, romanizer services.Romanizer) *HealthHandler {
	return &HealthHandler{
		settings:  settings,
		lrclib:    lrclib,
		romanizer: romanizer,
	}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "composer",
		"version":   Version,
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus returns the status of the API. With ?check=true it also
// probes LRCLib.
func (h *HealthHandler) APIStatus(c *gin.Context) {
	status := gin.H{
		"message":          "Composer API is running",
		"library_location": h.settings.Get().LibraryLocation,
		"lyrics_endpoint":  config.GetEndpoint(),
		"romanization":     h.romanizer.Available(),
	}

	if c.Query("check") == "true" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()
		if err := h.lrclib.TestConnection(ctx); err != nil {
			status["lrclib"] = gin.H{"reachable": false, "details": err.Error()}
		} else {
			status["lrclib"] = gin.H{"reachable": true}
		}
	}

	c.JSON(http.StatusOK, status)
}
