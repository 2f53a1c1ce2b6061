package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"composer/config"
	"composer/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fixedSettings serves the same settings to every caller
type fixedSettings config.Settings

func (s fixedSettings) Get() config.Settings { return config.Settings(s) }

func librarySettings(root string) fixedSettings {
	s := config.DefaultSettings()
	s.LibraryLocation = root
	return fixedSettings(s)
}

func perform(t *testing.T, r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRomanizeHandler(t *testing.T) {
	h := NewRomanizeHandler(services.NewRomanizer(), librarySettings(t.TempDir()))
	r := gin.New()
	r.POST("/api/romanize", h.Romanize)

	w := perform(t, r, http.MethodPost, "/api/romanize", gin.H{"text": "[00:01.00]さくら"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "[00:01.00]sakura", body["text"])
	assert.Equal(t, config.RomanizeReplace, body["mode"])
	assert.Equal(t, true, body["changed"])

	w = perform(t, r, http.MethodPost, "/api/romanize", gin.H{"text": "안녕", "mode": "multiline"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "안녕\nannyeong", decode(t, w)["text"])

	w = perform(t, r, http.MethodPost, "/api/romanize", gin.H{"text": "hi", "mode": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(t, r, http.MethodPost, "/api/romanize", gin.H{"mode": "replace"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFileHandlerGetFile(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "Coldplay", "01 - Yellow.mp3"), strings.Repeat("x", 256))
	writeTestFile(t, filepath.Join(root, "notes.txt"), "hello")

	files := services.NewLRCFileService()
	h := NewFileHandler(services.NewMusicScanner(files), librarySettings(root))
	r := gin.New()
	r.GET("/api/files/info", h.GetFile)
	r.GET("/api/files/art", h.GetAlbumArt)

	w := perform(t, r, http.MethodGet, "/api/files/info?path=Coldplay/01%20-%20Yellow.mp3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	file := decode(t, w)["file"].(map[string]any)
	assert.Equal(t, "Yellow", file["title"])
	assert.Equal(t, "mp3", file["format"])

	tests := []struct {
		name string
		url  string
		code int
	}{
		{"outside library", "/api/files/info?path=/etc/passwd", http.StatusForbidden},
		{"missing path", "/api/files/info", http.StatusBadRequest},
		{"missing file", "/api/files/info?path=nope.mp3", http.StatusNotFound},
		{"not music", "/api/files/info?path=notes.txt", http.StatusBadRequest},
		{"directory", "/api/files/info?path=Coldplay", http.StatusBadRequest},
		{"no album art", "/api/files/art?path=Coldplay/01%20-%20Yellow.mp3", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(t, r, http.MethodGet, tt.url, nil)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestSettingsHandler(t *testing.T) {
	root := t.TempDir()
	t.Setenv("COMPOSER_LIBRARY", root)

	store, err := config.NewSettingsStore(t.TempDir())
	require.NoError(t, err)

	h := NewSettingsHandler(store, services.NewLRCFileService())
	r := gin.New()
	r.GET("/api/settings", h.GetSettings)
	r.POST("/api/settings", h.UpdateSettings)
	r.POST("/api/settings/reset", h.ResetSettings)

	w := perform(t, r, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, root, decode(t, w)["libraryLocation"])

	w = perform(t, r, http.MethodPost, "/api/settings", gin.H{"lyricsStorageMethod": "both", "minAccuracy": 0.8})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, config.StorageBoth, store.Get().LyricsStorageMethod)
	assert.InDelta(t, 0.8, store.Get().MinAccuracy, 1e-9)
	assert.Equal(t, "en", store.Get().LyricsLanguage, "untouched fields are kept")

	w = perform(t, r, http.MethodPost, "/api/settings", gin.H{"lyricsLanguage": "xx"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "en", store.Get().LyricsLanguage)

	notDir := filepath.Join(root, "file.txt")
	writeTestFile(t, notDir, "x")
	w = perform(t, r, http.MethodPost, "/api/settings", gin.H{"libraryLocation": notDir})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	created := filepath.Join(root, "new", "library")
	w = perform(t, r, http.MethodPost, "/api/settings", gin.H{"libraryLocation": created})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.DirExists(t, created)

	w = perform(t, r, http.MethodPost, "/api/settings/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, config.DefaultSettings(), store.Get())
}
