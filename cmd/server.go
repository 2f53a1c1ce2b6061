package cmd

import (
	"composer/config"
	"composer/handlers"
	"composer/middleware"
	"composer/services"
	"composer/websocket"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// Version of the Composer binary
const Version = handlers.Version

// Server bundles the router with the background workers behind it
type Server struct {
	Router   *gin.Engine
	Hub      websocket.Hub
	JobQueue services.JobQueue
	Scans    services.ScanManager
}

// NewServer wires handlers and background workers on top of app
func NewServer(app *App) *Server {
	hub := websocket.NewHub()
	go hub.Run()

	jobQueue := services.NewJobQueue(config.GetWorkers(), app.Lyrics, app.Scanner, hub)
	jobQueue.Start()

	scans := services.NewScanManager(app.Scanner, hub)

	// Initialize handlers
	downloadHandler := handlers.NewDownloadHandler(jobQueue, app.Scanner, app.Settings, hub)
	fileHandler := handlers.NewFileHandler(app.Scanner, app.Settings)
	lyricsHandler := handlers.NewLyricsHandler(app.Lyrics, app.Files, app.Embedder, app.Scanner, app.Settings)
	scanHandler := handlers.NewScanHandler(scans, app.Settings, hub)
	healthHandler := handlers.NewHealthHandler(app.Settings, app.LRCLib, app.Romanizer)
	settingsHandler := handlers.NewSettingsHandler(app.Settings, app.Files)
	romanizeHandler := handlers.NewRomanizeHandler(app.Romanizer, app.Settings)

	// Setup router
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply middleware
	r.Use(middleware.CORS())
	r.Use(middleware.Logging())
	r.Use(middleware.Security())

	setupRoutes(r, routeHandlers{
		download: downloadHandler,
		file:     fileHandler,
		lyrics:   lyricsHandler,
		scan:     scanHandler,
		health:   healthHandler,
		settings: settingsHandler,
		romanize: romanizeHandler,
	})

	return &Server{
		Router:   r,
		Hub:      hub,
		JobQueue: jobQueue,
		Scans:    scans,
	}
}

// StartWebServer starts the web server and blocks until SIGINT or SIGTERM
func StartWebServer(app *App, port int) error {
	// Set production mode if not specified
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = log.Writer()

	srv := NewServer(app)
	defer srv.JobQueue.Stop()

	portStr := strconv.Itoa(port)
	if serverPort := os.Getenv("SERVER_PORT"); serverPort != "" {
		portStr = serverPort
	}

	httpServer := &http.Server{
		Addr:    ":" + portStr,
		Handler: srv.Router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Composer web server starting on port %s", portStr)
		log.Printf("Music library: %s", app.Settings.Get().LibraryLocation)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

type routeHandlers struct {
	download *handlers.DownloadHandler
	file     *handlers.FileHandler
	lyrics   *handlers.LyricsHandler
	scan     *handlers.ScanHandler
	health   *handlers.HealthHandler
	settings *handlers.SettingsHandler
	romanize *handlers.RomanizeHandler
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, h routeHandlers) {
	// Health check endpoint
	r.GET("/health", h.health.HealthCheck)

	// API routes group
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", h.health.APIStatus)

		// Music library
		apiGroup.GET("/files", h.file.ListFiles)
		apiGroup.GET("/files/info", h.file.GetFile)
		apiGroup.GET("/files/art", h.file.GetAlbumArt)

		// Background scans
		scansGroup := apiGroup.Group("/scans")
		{
			scansGroup.POST("", h.scan.StartScan)
			scansGroup.GET("/:id", h.scan.GetScan)
			scansGroup.DELETE("/:id", h.scan.CancelScan)
		}

		// Lyrics lookup and stored lyrics
		lyricsGroup := apiGroup.Group("/lyrics")
		{
			lyricsGroup.GET("/search", h.lyrics.Search)
			lyricsGroup.GET("/file", h.lyrics.GetFileLyrics)
			lyricsGroup.DELETE("/file", h.lyrics.DeleteFileLyrics)
			lyricsGroup.GET("/:id", h.lyrics.GetLyrics)
		}
		apiGroup.GET("/history", h.lyrics.History)

		// Download Management Endpoints
		downloadsGroup := apiGroup.Group("/downloads")
		{
			downloadsGroup.POST("", h.download.QueueDownload)
			downloadsGroup.POST("/auto", h.download.QueueAuto)
			downloadsGroup.POST("/library", h.download.QueueLibrary)

			downloadsGroup.GET("", h.download.GetAllJobs)
			downloadsGroup.GET("/:jobId", h.download.GetJob)
			downloadsGroup.DELETE("/:jobId", h.download.CancelJob)
		}

		// WebSocket endpoints for real-time progress
		wsGroup := apiGroup.Group("/ws")
		{
			wsGroup.GET("/scans/:id", h.scan.HandleWebSocketConnection)
			wsGroup.GET("/downloads/:jobId", h.download.HandleWebSocketConnection)
			wsGroup.GET("/downloads", h.download.HandleWebSocketAllConnection)
		}

		apiGroup.POST("/romanize", h.romanize.Romanize)

		// Settings endpoints
		apiGroup.GET("/settings", h.settings.GetSettings)
		apiGroup.POST("/settings", h.settings.UpdateSettings)
		apiGroup.POST("/settings/reset", h.settings.ResetSettings)
	}
}
