package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"composer/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// fakeLRCLib serves canned /search and /get responses and records queries
type fakeLRCLib struct {
	*httptest.Server
	mu       sync.Mutex
	searches []map[string]string
	agents   []string
}

func (f *fakeLRCLib) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

func (f *fakeLRCLib) search(i int) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searches[i]
}

func newFakeLRCLib(t *testing.T) *fakeLRCLib {
	t.Helper()
	f := &fakeLRCLib{}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f.mu.Lock()
		f.searches = append(f.searches, map[string]string{
			"track_name":  q.Get("track_name"),
			"artist_name": q.Get("artist_name"),
			"album_name":  q.Get("album_name"),
			"duration":    q.Get("duration"),
		})
		f.agents = append(f.agents, r.UserAgent())
		f.mu.Unlock()

		if q.Get("track_name") == "boom" {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "trackName": "Yellow (Live)", "artistName": "Coldplay", "albumName": "Live 2003", "duration": 300.0, "plainLyrics": "look at the stars", "syncedLyrics": nil},
			{"id": 2, "trackName": "Yellow", "artistName": "Coldplay", "albumName": "Parachutes", "duration": 269.0, "plainLyrics": "look at the stars", "syncedLyrics": "[00:01.00]look at the stars"},
			{"id": 3, "trackName": "Yellow", "artistName": "Coldplay", "albumName": "Parachutes", "duration": 269.0, "plainLyrics": nil, "syncedLyrics": nil},
		})
	})
	mux.HandleFunc("/get/2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": 2, "trackName": "Yellow", "artistName": "Coldplay", "albumName": "Parachutes",
			"duration": 269.0, "plainLyrics": "look at the stars", "syncedLyrics": "[00:01.00]look at the stars",
		})
	})
	mux.HandleFunc("/get/3", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 3, "trackName": "Instrumental", "artistName": "Nobody"})
	})
	mux.HandleFunc("/get/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Failed to find specified track"}`, http.StatusNotFound)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newTestLRCLibClient(baseURL string) *lrclibClient {
	return newLRCLibClient(baseURL, rate.NewLimiter(rate.Inf, 1))
}

func TestLRCLibSearch(t *testing.T) {
	server := newFakeLRCLib(t)
	client := newTestLRCLibClient(server.URL + "/")

	results, err := client.Search(context.Background(), types.LyricsQuery{
		Title: "Yellow", Artist: "Coldplay", Album: "Parachutes", Duration: 269.6,
	})
	require.NoError(t, err)

	require.Len(t, results, 2, "results without lyrics are dropped")
	assert.Equal(t, 2, results[0].ID, "best match first")
	assert.Equal(t, types.SourceLRCLib, results[0].Source)
	assert.InDelta(t, 1.0, results[0].AccuracyScore, 1e-9)
	assert.True(t, results[0].HasSyncedLyrics())
	assert.False(t, results[1].HasSyncedLyrics())
	assert.Less(t, results[1].AccuracyScore, results[0].AccuracyScore)

	require.Equal(t, 1, server.searchCount())
	assert.Equal(t, map[string]string{
		"track_name":  "Yellow",
		"artist_name": "Coldplay",
		"album_name":  "Parachutes",
		"duration":    "269",
	}, server.search(0))
	server.mu.Lock()
	assert.Equal(t, UserAgent, server.agents[0])
	server.mu.Unlock()
}

func TestLRCLibSearchOmitsUnknownFields(t *testing.T) {
	server := newFakeLRCLib(t)
	client := newTestLRCLibClient(server.URL)

	_, err := client.Search(context.Background(), types.LyricsQuery{Title: "Yellow", Artist: "Coldplay"})
	require.NoError(t, err)

	assert.Empty(t, server.search(0)["album_name"])
	assert.Empty(t, server.search(0)["duration"])
}

func TestLRCLibSearchHTTPError(t *testing.T) {
	server := newFakeLRCLib(t)
	client := newTestLRCLibClient(server.URL)

	_, err := client.Search(context.Background(), types.LyricsQuery{Title: "boom", Artist: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestLRCLibGetByID(t *testing.T) {
	server := newFakeLRCLib(t)
	client := newTestLRCLibClient(server.URL)
	ctx := context.Background()

	r, err := client.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Yellow", r.Title)
	assert.Equal(t, "[00:01.00]look at the stars", r.SyncedLyrics)

	_, err = client.GetByID(ctx, 3)
	assert.ErrorIs(t, err, ErrLyricsNotFound, "record without lyrics")

	_, err = client.GetByID(ctx, 99)
	assert.ErrorIs(t, err, ErrLyricsNotFound)
}

func TestLRCLibTestConnection(t *testing.T) {
	server := newFakeLRCLib(t)
	client := newTestLRCLibClient(server.URL)

	require.NoError(t, client.TestConnection(context.Background()))
	assert.Equal(t, "test", server.search(0)["track_name"])

	server.Close()
	assert.Error(t, client.TestConnection(context.Background()))
}

func TestLRCLibRateLimitRespectsContext(t *testing.T) {
	server := newFakeLRCLib(t)
	client := newLRCLibClient(server.URL, rate.NewLimiter(rate.Every(time.Hour), 1))

	_, err := client.Search(context.Background(), types.LyricsQuery{Title: "Yellow", Artist: "Coldplay"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Search(ctx, types.LyricsQuery{Title: "Yellow", Artist: "Coldplay"})
	require.Error(t, err)
	assert.Equal(t, 1, server.searchCount(), "second request never reached the server")
}
