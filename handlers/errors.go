package handlers

import (
	"composer/config"
	"composer/services"
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, errPathOutsideLibrary):
		return http.StatusForbidden
	case errors.Is(err, services.ErrLyricsNotFound),
		errors.Is(err, services.ErrScanNotFound),
		errors.Is(err, services.ErrNoAlbumArt),
		errors.Is(err, services.ErrNoMatch),
		errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, services.ErrLyricsExist):
		return http.StatusConflict
	case errors.Is(err, errPathRequired),
		errors.Is(err, services.ErrEmbedUnsupported),
		errors.Is(err, services.ErrUnsupportedFile),
		errors.Is(err, services.ErrNoLyricsContent),
		errors.Is(err, services.ErrInvalidJob),
		errors.Is(err, config.ErrInvalidSettings):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrQueueFull):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, message string, err error) {
	c.JSON(statusFor(err), gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
