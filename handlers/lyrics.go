package handlers

import (
	"composer/services"
	"composer/types"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// LyricsHandler handles lyrics search and lyrics file endpoints
type LyricsHandler struct {
	lyrics   services.LyricsService
	files    services.LRCFileService
	embedder services.LyricsEmbedder
	scanner  services.MusicScanner
	settings services.SettingsProvider
}

// NewLyricsHandler creates a new lyrics handler
func NewLyricsHandler(lyrics services.LyricsService, files services.LRCFileService, embedder services.LyricsEmbedder,
	scanner services.MusicScanner, settings services.SettingsProvider) *LyricsHandler {
	return &LyricsHandler{
		lyrics:   lyrics,
		files:    files,
		embedder: embedder,
		scanner:  scanner,
		settings: settings,
	}
}

// Search looks up lyrics by title and artist, or by the tags of ?path=
func (h *LyricsHandler) Search(c *gin.Context) {
	var q types.LyricsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid search parameters",
			"details": err.Error(),
		})
		return
	}

	if q.Path != "" {
		path, err := resolveLibraryPath(h.settings.Get().LibraryLocation, q.Path)
		if err != nil {
			respondError(c, "invalid file path", err)
			return
		}
		fromFile := types.QueryFromFile(h.scanner.ExtractMetadata(path))
		if q.Title == "" {
			q.Title = fromFile.Title
		}
		if q.Artist == "" {
			q.Artist = fromFile.Artist
		}
		if q.Album == "" {
			q.Album = fromFile.Album
		}
		if q.Duration <= 0 {
			q.Duration = fromFile.Duration
		}
		q.Path = path
	}

	if q.Title == "" || q.Artist == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "query parameters 'title' and 'artist' are required",
		})
		return
	}

	results, err := h.lyrics.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, "search failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   q,
		"results": results,
		"count":   len(results),
	})
}

// GetLyrics returns a single LRCLib record
func (h *LyricsHandler) GetLyrics(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "lyrics ID must be a positive integer",
		})
		return
	}

	result, err := h.lyrics.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "failed to get lyrics", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lyrics":   result,
		"rendered": h.lyrics.RenderLyrics(result),
	})
}

// GetFileLyrics returns the lyrics already stored for a music file
func (h *LyricsHandler) GetFileLyrics(c *gin.Context) {
	path, err := resolveLibraryPath(h.settings.Get().LibraryLocation, c.Query("path"))
	if err != nil {
		respondError(c, "invalid file path", err)
		return
	}

	content, hasLRC, err := h.files.Read(path)
	if err != nil {
		respondError(c, "failed to read lyrics file", err)
		return
	}

	embedded, err := h.embedder.Embedded(path)
	if err != nil {
		embedded = ""
	}

	c.JSON(http.StatusOK, gin.H{
		"path":           path,
		"lrcPath":        h.files.LRCPath(path),
		"hasLrc":         hasLRC,
		"lyrics":         content,
		"embeddedLyrics": embedded,
	})
}

// DeleteFileLyrics removes the LRC file of a music file
func (h *LyricsHandler) DeleteFileLyrics(c *gin.Context) {
	path, err := resolveLibraryPath(h.settings.Get().LibraryLocation, c.Query("path"))
	if err != nil {
		respondError(c, "invalid file path", err)
		return
	}

	deleted, err := h.files.Delete(path)
	if err != nil {
		respondError(c, "failed to delete lyrics file", err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "lyrics file not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "lyrics file deleted successfully",
		"lrcPath": h.files.LRCPath(path),
	})
}

// History returns the most recent lyrics downloads
func (h *LyricsHandler) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "limit must be a positive integer",
		})
		return
	}

	records, err := h.lyrics.History(limit)
	if err != nil {
		respondError(c, "failed to load history", err)
		return
	}
	if records == nil {
		records = []types.DownloadRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"history": records,
		"count":   len(records),
	})
}
