package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/spf13/viper"
)

// Storage methods for downloaded lyrics
const (
	StorageLRC      = "lrc"
	StorageMetadata = "metadata"
	StorageBoth     = "both"
)

// Romanization display modes
const (
	RomanizeReplace   = "replace"
	RomanizeMultiline = "multiline"
)

var (
	// SupportedLanguages are the lyrics language preferences
	SupportedLanguages = []string{"en", "es", "fr", "de", "it", "pt", "ja", "ko", "zh"}
	storageMethods     = []string{StorageLRC, StorageMetadata, StorageBoth}
	romanizationModes  = []string{RomanizeReplace, RomanizeMultiline}
	knownSources       = []string{"lrclib", "genius", "musixmatch", "local"}
)

// ErrInvalidSettings is returned when a settings update fails validation
var ErrInvalidSettings = errors.New("invalid settings")

// Settings represents the user's lyrics preferences
type Settings struct {
	LibraryLocation         string   `mapstructure:"libraryLocation" json:"libraryLocation"`
	AutoDownloadLyrics      bool     `mapstructure:"autoDownloadLyrics" json:"autoDownloadLyrics"`
	OverwriteExistingLyrics bool     `mapstructure:"overwriteExistingLyrics" json:"overwriteExistingLyrics"`
	LyricsLanguage          string   `mapstructure:"lyricsLanguage" json:"lyricsLanguage"`
	LyricsStorageMethod     string   `mapstructure:"lyricsStorageMethod" json:"lyricsStorageMethod"`
	LyricsSourcesPriority   []string `mapstructure:"lyricsSourcesPriority" json:"lyricsSourcesPriority"`
	EnableRomanization      bool     `mapstructure:"enableRomanization" json:"enableRomanization"`
	RomanizeChinese         bool     `mapstructure:"romanizeChinese" json:"romanizeChinese"`
	RomanizeJapanese        bool     `mapstructure:"romanizeJapanese" json:"romanizeJapanese"`
	RomanizeKorean          bool     `mapstructure:"romanizeKorean" json:"romanizeKorean"`
	RomanizationMode        string   `mapstructure:"romanizationMode" json:"romanizationMode"`
	MinAccuracy             float64  `mapstructure:"minAccuracy" json:"minAccuracy"`
}

// DefaultSettings returns the settings used on first run
func DefaultSettings() Settings {
	return Settings{
		LibraryLocation:       GetLibraryLocation(),
		LyricsLanguage:        "en",
		LyricsStorageMethod:   StorageLRC,
		LyricsSourcesPriority: []string{"lrclib"},
		RomanizeChinese:       true,
		RomanizeJapanese:      true,
		RomanizeKorean:        true,
		RomanizationMode:      RomanizeReplace,
		MinAccuracy:           0.6,
	}
}

// Validate checks every enumerated field
func (s Settings) Validate() error {
	if !slices.Contains(SupportedLanguages, s.LyricsLanguage) {
		return fmt.Errorf("%w: unsupported language %q", ErrInvalidSettings, s.LyricsLanguage)
	}
	if !slices.Contains(storageMethods, s.LyricsStorageMethod) {
		return fmt.Errorf("%w: unknown storage method %q", ErrInvalidSettings, s.LyricsStorageMethod)
	}
	if !slices.Contains(romanizationModes, s.RomanizationMode) {
		return fmt.Errorf("%w: unknown romanization mode %q", ErrInvalidSettings, s.RomanizationMode)
	}
	if len(s.LyricsSourcesPriority) == 0 {
		return fmt.Errorf("%w: at least one lyrics source is required", ErrInvalidSettings)
	}
	for _, src := range s.LyricsSourcesPriority {
		if !slices.Contains(knownSources, src) {
			return fmt.Errorf("%w: unknown lyrics source %q", ErrInvalidSettings, src)
		}
	}
	if s.MinAccuracy < 0 || s.MinAccuracy > 1 {
		return fmt.Errorf("%w: minAccuracy must be between 0 and 1", ErrInvalidSettings)
	}
	if s.LibraryLocation == "" {
		return fmt.Errorf("%w: library location is required", ErrInvalidSettings)
	}
	return nil
}

// sanitize replaces invalid values read from disk with defaults
func (s Settings) sanitize() Settings {
	def := DefaultSettings()
	if !slices.Contains(SupportedLanguages, s.LyricsLanguage) {
		s.LyricsLanguage = def.LyricsLanguage
	}
	if !slices.Contains(storageMethods, s.LyricsStorageMethod) {
		s.LyricsStorageMethod = def.LyricsStorageMethod
	}
	if !slices.Contains(romanizationModes, s.RomanizationMode) {
		s.RomanizationMode = def.RomanizationMode
	}

	var sources []string
	for _, src := range s.LyricsSourcesPriority {
		if slices.Contains(knownSources, src) {
			sources = append(sources, src)
		} else {
			log.Printf("Unknown lyrics source in settings: %s", src)
		}
	}
	if len(sources) == 0 {
		sources = def.LyricsSourcesPriority
	}
	s.LyricsSourcesPriority = sources

	if s.MinAccuracy < 0 || s.MinAccuracy > 1 {
		s.MinAccuracy = def.MinAccuracy
	}
	if s.LibraryLocation == "" {
		s.LibraryLocation = def.LibraryLocation
	}
	return s
}

// SettingsStore persists Settings to a YAML file
type SettingsStore struct {
	mu      sync.RWMutex
	v       *viper.Viper
	path    string
	current Settings
}

// NewSettingsStore loads settings.yml from dir, creating it with defaults if missing
func NewSettingsStore(dir string) (*SettingsStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "settings.yml")
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	store := &SettingsStore{v: v, path: path}
	store.apply(DefaultSettings(), v.SetDefault)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not read settings: %w", err)
		}
		log.Printf("Settings file not found, creating %s with defaults", path)
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("could not write default settings: %w", err)
		}
	}

	var cfg Settings
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode settings: %w", err)
	}
	store.current = cfg.sanitize()
	return store, nil
}

// Path returns the settings file location
func (s *SettingsStore) Path() string {
	return s.path
}

// Get returns a copy of the current settings
func (s *SettingsStore) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.current
	out.LyricsSourcesPriority = slices.Clone(s.current.LyricsSourcesPriority)
	return out
}

// Update validates and persists new settings
func (s *SettingsStore) Update(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(next, s.v.Set)
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("could not save settings: %w", err)
	}
	s.current = next
	s.current.LyricsSourcesPriority = slices.Clone(next.LyricsSourcesPriority)
	return nil
}

// Reset restores and persists the defaults
func (s *SettingsStore) Reset() (Settings, error) {
	def := DefaultSettings()
	if err := s.Update(def); err != nil {
		return Settings{}, err
	}
	return def, nil
}

// apply writes every field through set, either Set or SetDefault
func (s *SettingsStore) apply(cfg Settings, set func(key string, value any)) {
	set("libraryLocation", cfg.LibraryLocation)
	set("autoDownloadLyrics", cfg.AutoDownloadLyrics)
	set("overwriteExistingLyrics", cfg.OverwriteExistingLyrics)
	set("lyricsLanguage", cfg.LyricsLanguage)
	set("lyricsStorageMethod", cfg.LyricsStorageMethod)
	set("lyricsSourcesPriority", cfg.LyricsSourcesPriority)
	set("enableRomanization", cfg.EnableRomanization)
	set("romanizeChinese", cfg.RomanizeChinese)
	set("romanizeJapanese", cfg.RomanizeJapanese)
	set("romanizeKorean", cfg.RomanizeKorean)
	set("romanizationMode", cfg.RomanizationMode)
	set("minAccuracy", cfg.MinAccuracy)
}
