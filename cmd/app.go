package cmd

import (
	"composer/config"
	"composer/logging"
	"composer/services"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Options selects where the application keeps its state
type Options struct {
	ConfigDir string
	CacheDir  string
	Endpoint  string
	// LogToFile tees the standard logger into a rotating file under CacheDir
	LogToFile bool
}

// DefaultOptions reads the locations from the environment
func DefaultOptions() Options {
	return Options{
		ConfigDir: config.GetConfigDir(),
		CacheDir:  config.GetCacheDir(),
		Endpoint:  config.GetEndpoint(),
		LogToFile: true,
	}
}

// App holds the services shared by the CLI and the web server
type App struct {
	Settings  *config.SettingsStore
	Store     *services.BboltStore
	LRCLib    services.LRCLibClient
	Files     services.LRCFileService
	Embedder  services.LyricsEmbedder
	Romanizer services.Romanizer
	Scanner   services.MusicScanner
	Lyrics    services.LyricsService

	logger *logging.Logger
}

// NewApp opens the settings and the lyrics database and wires the services
func NewApp(opts Options) (*App, error) {
	app := &App{}

	if opts.LogToFile {
		logger, err := logging.Setup(filepath.Join(opts.CacheDir, "logs"))
		if err != nil {
			log.Printf("Warning: file logging disabled: %v", err)
		} else {
			app.logger = logger
			logger.LogStartup(Version)
		}
	}

	settings, err := config.NewSettingsStore(opts.ConfigDir)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	app.Settings = settings

	if err := os.MkdirAll(opts.CacheDir, 0755); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	store, err := services.NewBboltStore(filepath.Join(opts.CacheDir, "composer.db"), services.DefaultSearchTTL)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to open lyrics database: %w", err)
	}
	app.Store = store

	app.Files = services.NewLRCFileService()
	app.Embedder = services.NewLyricsEmbedder()
	app.Romanizer = services.NewRomanizer()
	app.Scanner = services.NewMusicScanner(app.Files)
	app.LRCLib = services.NewCachedLRCLibClient(services.NewLRCLibClient(opts.Endpoint), store)
	app.Lyrics = services.NewLyricsService(services.LyricsDeps{
		LRCLib:    app.LRCLib,
		Files:     app.Files,
		Embedder:  app.Embedder,
		Romanizer: app.Romanizer,
		Store:     store,
		Settings:  settings,
	})

	return app, nil
}

// Close releases the database and the log file
func (a *App) Close() {
	if a.Lyrics != nil {
		a.Lyrics.CancelAll()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			log.Printf("Error closing lyrics database: %v", err)
		}
	}
	if a.logger != nil {
		a.logger.Close()
	}
}
