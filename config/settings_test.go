package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	t.Setenv("COMPOSER_LIBRARY", "/srv/music")

	s := DefaultSettings()
	assert.Equal(t, "/srv/music", s.LibraryLocation)
	assert.False(t, s.AutoDownloadLyrics)
	assert.False(t, s.OverwriteExistingLyrics)
	assert.Equal(t, "en", s.LyricsLanguage)
	assert.Equal(t, StorageLRC, s.LyricsStorageMethod)
	assert.Equal(t, []string{"lrclib"}, s.LyricsSourcesPriority)
	assert.False(t, s.EnableRomanization)
	assert.True(t, s.RomanizeChinese)
	assert.True(t, s.RomanizeJapanese)
	assert.True(t, s.RomanizeKorean)
	assert.Equal(t, RomanizeReplace, s.RomanizationMode)
	assert.InDelta(t, 0.6, s.MinAccuracy, 1e-9)
	assert.NoError(t, s.Validate())
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"language", func(s *Settings) { s.LyricsLanguage = "xx" }},
		{"storage method", func(s *Settings) { s.LyricsStorageMethod = "cloud" }},
		{"romanization mode", func(s *Settings) { s.RomanizationMode = "inline" }},
		{"no sources", func(s *Settings) { s.LyricsSourcesPriority = nil }},
		{"unknown source", func(s *Settings) { s.LyricsSourcesPriority = []string{"lrclib", "azlyrics"} }},
		{"accuracy too high", func(s *Settings) { s.MinAccuracy = 1.5 }},
		{"accuracy negative", func(s *Settings) { s.MinAccuracy = -0.1 }},
		{"library", func(s *Settings) { s.LibraryLocation = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)
		})
	}
}

func TestSettingsStoreCreatesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "composer")

	store, err := NewSettingsStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "settings.yml"), store.Path())
	assert.FileExists(t, store.Path())
	assert.Equal(t, DefaultSettings(), store.Get())
}

func TestSettingsStoreUpdatePersists(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSettingsStore(dir)
	require.NoError(t, err)

	next := store.Get()
	next.LyricsStorageMethod = StorageBoth
	next.LyricsSourcesPriority = []string{"local", "lrclib"}
	next.EnableRomanization = true
	next.RomanizationMode = RomanizeMultiline
	next.MinAccuracy = 0.75
	require.NoError(t, store.Update(next))
	assert.Equal(t, next, store.Get())

	reloaded, err := NewSettingsStore(dir)
	require.NoError(t, err)
	assert.Equal(t, next, reloaded.Get())
}

func TestSettingsStoreRejectsInvalidUpdate(t *testing.T) {
	store, err := NewSettingsStore(t.TempDir())
	require.NoError(t, err)

	bad := store.Get()
	bad.LyricsLanguage = "klingon"
	assert.ErrorIs(t, store.Update(bad), ErrInvalidSettings)
	assert.Equal(t, "en", store.Get().LyricsLanguage)
}

func TestSettingsStoreSanitizesFile(t *testing.T) {
	dir := t.TempDir()
	content := "lyricsLanguage: xx\n" +
		"lyricsStorageMethod: cloud\n" +
		"lyricsSourcesPriority: [genius, bogus]\n" +
		"romanizationMode: sideways\n" +
		"minAccuracy: 3\n" +
		"overwriteExistingLyrics: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yml"), []byte(content), 0644))

	store, err := NewSettingsStore(dir)
	require.NoError(t, err)

	s := store.Get()
	assert.Equal(t, "en", s.LyricsLanguage)
	assert.Equal(t, StorageLRC, s.LyricsStorageMethod)
	assert.Equal(t, []string{"genius"}, s.LyricsSourcesPriority)
	assert.Equal(t, RomanizeReplace, s.RomanizationMode)
	assert.InDelta(t, 0.6, s.MinAccuracy, 1e-9)
	assert.True(t, s.OverwriteExistingLyrics)
}

func TestSettingsStoreReset(t *testing.T) {
	store, err := NewSettingsStore(t.TempDir())
	require.NoError(t, err)

	next := store.Get()
	next.AutoDownloadLyrics = true
	require.NoError(t, store.Update(next))

	def, err := store.Reset()
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), def)
	assert.False(t, store.Get().AutoDownloadLyrics)
}

func TestSettingsGetReturnsCopy(t *testing.T) {
	store, err := NewSettingsStore(t.TempDir())
	require.NoError(t, err)

	s := store.Get()
	s.LyricsSourcesPriority[0] = "local"
	assert.Equal(t, []string{"lrclib"}, store.Get().LyricsSourcesPriority)
}
