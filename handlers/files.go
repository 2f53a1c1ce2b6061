package handlers

import (
	"composer/services"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// FileHandler handles music library endpoints
type FileHandler struct {
	scanner  services.MusicScanner
	settings services.SettingsProvider
}

// NewFileHandler creates a new file handler
func NewFileHandler(scanner services.MusicScanner, settings services.SettingsProvider) *FileHandler {
	return &FileHandler{
		scanner:  scanner,
		settings: settings,
	}
}

// ListFiles scans the library directory and returns every music file found
func (h *FileHandler) ListFiles(c *gin.Context) {
	libraryLocation := h.settings.Get().LibraryLocation

	files, err := h.scanner.Scan(c.Request.Context(), libraryLocation, nil)
	if err != nil {
		log.Printf("Error scanning music files: %v", err)
		respondError(c, "failed to scan files", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"files":     files,
		"count":     len(files),
		"directory": libraryLocation,
	})
}

// GetFile returns the metadata of a single music file
func (h *FileHandler) GetFile(c *gin.Context) {
	path, ok := h.resolve(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file": h.scanner.ExtractMetadata(path),
	})
}

// GetAlbumArt returns the picture embedded in a music file
func (h *FileHandler) GetAlbumArt(c *gin.Context) {
	path, ok := h.resolve(c)
	if !ok {
		return
	}

	picture, err := h.scanner.AlbumArt(path)
	if err != nil {
		respondError(c, "failed to read album art", err)
		return
	}

	mimeType := picture.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(picture.Data)
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, mimeType, picture.Data)
}

// resolve validates the ?path= parameter and writes the error reply itself
func (h *FileHandler) resolve(c *gin.Context) (string, bool) {
	path, err := resolveLibraryPath(h.settings.Get().LibraryLocation, c.Query("path"))
	if err != nil {
		respondError(c, "invalid file path", err)
		return "", false
	}

	info, err := os.Stat(path)
	if err != nil {
		respondError(c, "file access error", err)
		return "", false
	}
	if info.IsDir() || !h.scanner.IsSupported(path) {
		respondError(c, "not a music file", services.ErrUnsupportedFile)
		return "", false
	}
	return path, true
}
