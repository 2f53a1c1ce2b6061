package handlers

import (
	"composer/config"
	"composer/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RomanizeHandler converts CJK text to Latin script
type RomanizeHandler struct {
	romanizer services.Romanizer
	settings  services.SettingsProvider
}

// NewRomanizeHandler creates a new romanize handler
func NewRomanizeHandler(romanizer services.Romanizer, settings services.SettingsProvider) *RomanizeHandler {
	return &RomanizeHandler{
		romanizer: romanizer,
		settings:  settings,
	}
}

type romanizeRequest struct {
	Text string `json:"text" binding:"required"`
	// Mode overrides the configured romanization mode
	Mode string `json:"mode"`
}

// Romanize romanizes lyrics using the script toggles from the settings
func (h *RomanizeHandler) Romanize(c *gin.Context) {
	var req romanizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid romanize request",
			"details": err.Error(),
		})
		return
	}

	opts := services.RomanizeOptionsFromSettings(h.settings.Get())
	if req.Mode != "" {
		if req.Mode != config.RomanizeReplace && req.Mode != config.RomanizeMultiline {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "mode must be 'replace' or 'multiline'",
			})
			return
		}
		opts.Mode = req.Mode
	}

	c.JSON(http.StatusOK, gin.H{
		"text":      h.romanizer.RomanizeLyrics(req.Text, opts),
		"mode":      opts.Mode,
		"changed":   services.ContainsCJK(req.Text),
		"available": h.romanizer.Available(),
	})
}
