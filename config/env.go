package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// DefaultEndpoint is the public LRCLib API
const DefaultEndpoint = "https://lrclib.net/api"

// GetEndpoint returns the LRCLib API base URL
func GetEndpoint() string {
	if endpoint := os.Getenv("LRCLIB_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return DefaultEndpoint
}

// GetLibraryLocation returns the default music library directory
func GetLibraryLocation() string {
	if customPath := os.Getenv("COMPOSER_LIBRARY"); customPath != "" {
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, "Music")
}

// GetCacheDir returns the directory for logs and the lyrics database
func GetCacheDir() string {
	if customPath := os.Getenv("COMPOSER_CACHE_DIR"); customPath != "" {
		return customPath
	}

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "composer")
	}
	return filepath.Join(cacheDir, "composer")
}

// GetConfigDir returns the directory holding settings.yml
func GetConfigDir() string {
	if customPath := os.Getenv("COMPOSER_CONFIG_DIR"); customPath != "" {
		return customPath
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(configDir, "composer")
}

// GetDatabasePath returns the bbolt file used for caching and history
func GetDatabasePath() string {
	return filepath.Join(GetCacheDir(), "composer.db")
}

// GetLogDir returns the directory for rotated log files
func GetLogDir() string {
	return filepath.Join(GetCacheDir(), "logs")
}

// GetWorkers returns the number of lyrics job workers
func GetWorkers() int {
	if v := os.Getenv("COMPOSER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 2
}
