package handlers

import (
	"composer/services"
	"composer/websocket"
	"errors"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// ScanHandler handles background library scan endpoints
type ScanHandler struct {
	scans    services.ScanManager
	settings services.SettingsProvider
	hub      websocket.Hub
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scans services.ScanManager, settings services.SettingsProvider, hub websocket.Hub) *ScanHandler {
	return &ScanHandler{
		scans:    scans,
		settings: settings,
		hub:      hub,
	}
}

type scanRequest struct {
	Directory string `json:"directory"`
}

// StartScan starts scanning a directory inside the library, or the whole library
func (h *ScanHandler) StartScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid scan request",
			"details": err.Error(),
		})
		return
	}

	root := h.settings.Get().LibraryLocation
	if req.Directory == "" {
		req.Directory = root
	}
	directory, err := resolveLibraryPath(root, req.Directory)
	if err != nil {
		respondError(c, "invalid directory", err)
		return
	}
	if info, err := os.Stat(directory); err != nil || !info.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "directory does not exist",
			"path":  directory,
		})
		return
	}

	session := h.scans.Start(directory)
	c.JSON(http.StatusAccepted, gin.H{
		"message": "scan started",
		"scan":    session,
	})
}

// GetScan returns the state of a scan session
func (h *ScanHandler) GetScan(c *gin.Context) {
	session, err := h.scans.Get(c.Param("id"))
	if err != nil {
		respondError(c, "scan not found", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scan": session,
	})
}

// CancelScan stops a running scan
func (h *ScanHandler) CancelScan(c *gin.Context) {
	if err := h.scans.Cancel(c.Param("id")); err != nil {
		respondError(c, "scan not found", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "scan cancelled",
	})
}

// HandleWebSocketConnection streams the events of one scan session
func (h *ScanHandler) HandleWebSocketConnection(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.scans.Get(id); err != nil {
		respondError(c, "scan not found", err)
		return
	}

	if err := websocket.Serve(h.hub, c.Writer, c.Request, id); err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
	}
}
