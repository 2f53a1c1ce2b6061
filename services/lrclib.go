package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"composer/types"

	"golang.org/x/time/rate"
)

const (
	// UserAgent identifies Composer to LRCLib
	UserAgent = "Composer/1.0 (https://github.com/Gasiyu/Composer)"

	requestTimeout = 10 * time.Second

	// LRCLib asks clients to stay under 10 requests per minute
	rateLimitRequests = 10
	rateLimitWindow   = 60 * time.Second
)

// LRCLibClient talks to the LRCLib lyrics API
type LRCLibClient interface {
	Search(ctx context.Context, q types.LyricsQuery) ([]types.LyricsResult, error)
	GetByID(ctx context.Context, id int) (*types.LyricsResult, error)
	TestConnection(ctx context.Context) error
}

type lrclibClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewLRCLibClient creates a client for the API rooted at baseURL
func NewLRCLibClient(baseURL string) LRCLibClient {
	return newLRCLibClient(baseURL, rate.NewLimiter(rate.Every(rateLimitWindow/rateLimitRequests), rateLimitRequests))
}

func newLRCLibClient(baseURL string, limiter *rate.Limiter) *lrclibClient {
	log.Printf("LRCLib client initialized: %s (%d requests per %s)", baseURL, rateLimitRequests, rateLimitWindow)
	return &lrclibClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    limiter,
	}
}

// lrclibItem is one record of the LRCLib API
type lrclibItem struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  *string `json:"plainLyrics"`
	SyncedLyrics *string `json:"syncedLyrics"`
}

func (it lrclibItem) toResult() types.LyricsResult {
	r := types.LyricsResult{
		ID:       it.ID,
		Title:    it.TrackName,
		Artist:   it.ArtistName,
		Album:    it.AlbumName,
		Duration: it.Duration,
		Source:   types.SourceLRCLib,
	}
	if it.PlainLyrics != nil {
		r.PlainLyrics = *it.PlainLyrics
	}
	if it.SyncedLyrics != nil {
		r.SyncedLyrics = *it.SyncedLyrics
	}
	return r
}

// Search queries /search and returns results with lyrics, best match first
func (c *lrclibClient) Search(ctx context.Context, q types.LyricsQuery) ([]types.LyricsResult, error) {
	params := url.Values{}
	params.Set("track_name", q.Title)
	params.Set("artist_name", q.Artist)
	if q.Album != "" {
		params.Set("album_name", q.Album)
	}
	if q.Duration > 0 {
		params.Set("duration", strconv.Itoa(int(q.Duration)))
	}

	var items []lrclibItem
	if err := c.get(ctx, "/search?"+params.Encode(), &items); err != nil {
		return nil, err
	}

	results := make([]types.LyricsResult, 0, len(items))
	for _, item := range items {
		r := item.toResult()
		if !r.HasLyrics() {
			continue
		}
		ScoreResult(&r, q)
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].AccuracyScore > results[j].AccuracyScore
	})

	log.Printf("Found %d lyrics results for '%s' by '%s'", len(results), q.Title, q.Artist)
	return results, nil
}

// GetByID fetches a single record from /get/{id}
func (c *lrclibClient) GetByID(ctx context.Context, id int) (*types.LyricsResult, error) {
	var item lrclibItem
	if err := c.get(ctx, "/get/"+strconv.Itoa(id), &item); err != nil {
		return nil, err
	}

	r := item.toResult()
	if !r.HasLyrics() {
		return nil, fmt.Errorf("lyrics %d: %w", id, ErrLyricsNotFound)
	}
	log.Printf("Retrieved lyrics by ID: %d", id)
	return &r, nil
}

// TestConnection performs a throwaway search
func (c *lrclibClient) TestConnection(ctx context.Context) error {
	if _, err := c.Search(ctx, types.LyricsQuery{Title: "test", Artist: "test"}); err != nil {
		return fmt.Errorf("LRCLib API connection test failed: %w", err)
	}
	return nil
}

func (c *lrclibClient) get(ctx context.Context, path string, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("LRCLib request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrLyricsNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("LRCLib API error: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("LRCLib JSON decode error: %w", err)
	}
	return nil
}
