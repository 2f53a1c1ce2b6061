package handlers

import (
	"composer/config"
	"composer/services"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// SettingsHandler handles settings-related endpoints
type SettingsHandler struct {
	store *config.SettingsStore
	files services.LRCFileService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(store *config.SettingsStore, files services.LRCFileService) *SettingsHandler {
	return &SettingsHandler{
		store: store,
		files: files,
	}
}

// validatePath validates that the path exists and is writable
func (h *SettingsHandler) validatePath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return err
		}
	} else if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", config.ErrInvalidSettings, path)
	}

	if !h.files.CheckWritePermission(path) {
		return fmt.Errorf("%w: %s is not writable", config.ErrInvalidSettings, path)
	}
	return nil
}

// GetSettings returns the current settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Get())
}

// UpdateSettings replaces the user settings. Fields missing from the body
// keep their current value.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	newSettings := h.store.Get()
	if err := c.ShouldBindJSON(&newSettings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid settings format",
			"details": err.Error(),
		})
		return
	}

	if err := h.validatePath(newSettings.LibraryLocation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid library location",
			"details": err.Error(),
		})
		return
	}

	if err := h.store.Update(newSettings); err != nil {
		respondError(c, "Failed to save settings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings updated successfully",
		"settings": h.store.Get(),
	})
}

// ResetSettings restores the defaults
func (h *SettingsHandler) ResetSettings(c *gin.Context) {
	settings, err := h.store.Reset()
	if err != nil {
		respondError(c, "Failed to reset settings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings reset to defaults",
		"settings": settings,
	})
}
