package handlers

import (
	"composer/services"
	"composer/types"
	"composer/websocket"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// DownloadHandler handles lyrics download job endpoints
type DownloadHandler struct {
	jobQueue services.JobQueue
	scanner  services.MusicScanner
	settings services.SettingsProvider
	hub      websocket.Hub
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(jq services.JobQueue, scanner services.MusicScanner, settings services.SettingsProvider, hub websocket.Hub) *DownloadHandler {
	return &DownloadHandler{
		jobQueue: jq,
		scanner:  scanner,
		settings: settings,
		hub:      hub,
	}
}

type downloadRequest struct {
	Path      string `json:"path"`
	Directory string `json:"directory"`
	LyricsID  int    `json:"lyricsId"`
}

func (h *DownloadHandler) bind(c *gin.Context) (downloadRequest, bool) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid download request",
			"details": err.Error(),
		})
		return req, false
	}
	return req, true
}

// musicFile resolves a request path and checks it is a supported music file
func (h *DownloadHandler) musicFile(c *gin.Context, requested string) (string, bool) {
	path, err := resolveLibraryPath(h.settings.Get().LibraryLocation, requested)
	if err != nil {
		respondError(c, "invalid file path", err)
		return "", false
	}
	if info, err := os.Stat(path); err != nil {
		respondError(c, "file access error", err)
		return "", false
	} else if info.IsDir() || !h.scanner.IsSupported(path) {
		respondError(c, "not a music file", services.ErrUnsupportedFile)
		return "", false
	}
	return path, true
}

func (h *DownloadHandler) queue(c *gin.Context, jobType types.JobType, path string, lyricsID int, message string) {
	job, err := h.jobQueue.AddJob(jobType, path, lyricsID)
	if err != nil {
		respondError(c, "failed to queue job", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": message,
		"job":     job,
	})
}

// QueueDownload queues storing a specific lyrics record for a file
func (h *DownloadHandler) QueueDownload(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	if req.LyricsID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "lyricsId is required",
		})
		return
	}
	path, ok := h.musicFile(c, req.Path)
	if !ok {
		return
	}

	h.queue(c, types.JobTypeDownload, path, req.LyricsID, "Lyrics download queued successfully")
}

// QueueAuto queues searching and storing the best match for a file
func (h *DownloadHandler) QueueAuto(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	path, ok := h.musicFile(c, req.Path)
	if !ok {
		return
	}

	h.queue(c, types.JobTypeAuto, path, 0, "Automatic lyrics download queued successfully")
}

// QueueLibrary queues fetching lyrics for a whole directory
func (h *DownloadHandler) QueueLibrary(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
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

	h.queue(c, types.JobTypeLibrary, directory, 0, "Library lyrics download queued successfully")
}

// GetAllJobs returns all lyrics jobs
func (h *DownloadHandler) GetAllJobs(c *gin.Context) {
	jobs := h.jobQueue.GetAllJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJob returns a specific job by ID
func (h *DownloadHandler) GetJob(c *gin.Context) {
	jobID := c.Param("jobId")
	job, exists := h.jobQueue.GetJob(jobID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "job not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job": job,
	})
}

// CancelJob cancels a queued job
func (h *DownloadHandler) CancelJob(c *gin.Context) {
	jobID := c.Param("jobId")
	cancelled := h.jobQueue.CancelJob(jobID)
	if !cancelled {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job cannot be cancelled (not found or already processing)",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "job cancelled successfully",
	})
}

// HandleWebSocketConnection handles WebSocket connections for specific job progress
func (h *DownloadHandler) HandleWebSocketConnection(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job ID is required"})
		return
	}

	if _, exists := h.jobQueue.GetJob(jobID); !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	if err := websocket.Serve(h.hub, c.Writer, c.Request, jobID); err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
	}
}

// HandleWebSocketAllConnection handles WebSocket connections for all job progress
func (h *DownloadHandler) HandleWebSocketAllConnection(c *gin.Context) {
	if err := websocket.Serve(h.hub, c.Writer, c.Request, websocket.AllChannel); err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
	}
}
