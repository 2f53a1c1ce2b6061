package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"composer/config"
	"composer/types"
)

// SettingsProvider exposes the current user settings
type SettingsProvider interface {
	Get() config.Settings
}

// DownloadOutcome describes where lyrics ended up
type DownloadOutcome struct {
	Result     *types.LyricsResult `json:"result"`
	LRCPath    string              `json:"lrcPath,omitempty"`
	BackupPath string              `json:"backupPath,omitempty"`
	Embedded   bool                `json:"embedded"`
}

// LyricsService searches lyrics sources and stores the chosen lyrics
type LyricsService interface {
	Search(ctx context.Context, q types.LyricsQuery) ([]types.LyricsResult, error)
	GetByID(ctx context.Context, id int) (*types.LyricsResult, error)
	Download(ctx context.Context, musicPath string, r *types.LyricsResult) (*DownloadOutcome, error)
	AutoDownload(ctx context.Context, file types.MusicFile) (*DownloadOutcome, error)
	RenderLyrics(r *types.LyricsResult) string
	SourcePriority() []types.LyricsSource
	History(limit int) ([]types.DownloadRecord, error)
	CancelAll()
	IsSearching() bool
}

type inflightSearch struct {
	id     uint64
	cancel context.CancelFunc
}

type lyricsService struct {
	lrclib    LRCLibClient
	files     LRCFileService
	embedder  LyricsEmbedder
	romanizer Romanizer
	store     LyricsStore
	settings  SettingsProvider

	mu       sync.Mutex
	searches map[string]inflightSearch
	nextID   uint64
}

// LyricsDeps groups the collaborators of a LyricsService; Store may be nil
type LyricsDeps struct {
	LRCLib    LRCLibClient
	Files     LRCFileService
	Embedder  LyricsEmbedder
	Romanizer Romanizer
	Store     LyricsStore
	Settings  SettingsProvider
}

// NewLyricsService creates a new lyrics service
func NewLyricsService(deps LyricsDeps) LyricsService {
	log.Printf("Lyrics service initialized")
	return &lyricsService{
		lrclib:    deps.LRCLib,
		files:     deps.Files,
		embedder:  deps.Embedder,
		romanizer: deps.Romanizer,
		store:     deps.Store,
		settings:  deps.Settings,
		searches:  make(map[string]inflightSearch),
	}
}

// SourcePriority returns the configured sources in query order
func (s *lyricsService) SourcePriority() []types.LyricsSource {
	var sources []types.LyricsSource
	for _, name := range s.settings.Get().LyricsSourcesPriority {
		if src, ok := types.ParseLyricsSource(name); ok {
			sources = append(sources, src)
		}
	}
	if len(sources) == 0 {
		sources = []types.LyricsSource{types.SourceLRCLib}
	}
	return sources
}

// Search queries every source in priority order, drops duplicates by title
// and artist and returns the best match first. Starting a search for the
// same artist and title cancels the previous one.
func (s *lyricsService) Search(ctx context.Context, q types.LyricsQuery) ([]types.LyricsResult, error) {
	ctx, done := s.track(ctx, q.Artist+"_"+q.Title)
	defer done()

	log.Printf("Starting lyrics search: '%s' by '%s'", q.Title, q.Artist)

	var (
		results []types.LyricsResult
		errs    []error
	)
	for _, source := range s.SourcePriority() {
		found, err := s.searchSource(ctx, source, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("Search error for %s - %s on %s: %v", q.Artist, q.Title, source, err)
			errs = append(errs, err)
			continue
		}
		results = append(results, found...)
	}

	if len(results) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	unique := removeDuplicates(results)
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].AccuracyScore > unique[j].AccuracyScore
	})

	log.Printf("Search completed: found %d unique results for '%s' by '%s'", len(unique), q.Title, q.Artist)
	return unique, nil
}

func (s *lyricsService) searchSource(ctx context.Context, source types.LyricsSource, q types.LyricsQuery) ([]types.LyricsResult, error) {
	switch source {
	case types.SourceLRCLib:
		return s.lrclib.Search(ctx, q)
	case types.SourceLocal:
		return s.localLyrics(q), nil
	default:
		log.Printf("Lyrics source %s is not available, skipping", source)
		return nil, nil
	}
}

// localLyrics offers what the file already carries as search results
func (s *lyricsService) localLyrics(q types.LyricsQuery) []types.LyricsResult {
	if q.Path == "" {
		return nil
	}

	var results []types.LyricsResult
	base := types.LyricsResult{
		Title:    q.Title,
		Artist:   q.Artist,
		Album:    q.Album,
		Duration: q.Duration,
		Source:   types.SourceLocal,
	}

	if content, ok, err := s.files.Read(q.Path); err != nil {
		log.Printf("Error reading LRC file for %s: %v", q.Path, err)
	} else if ok {
		results = append(results, withLyrics(base, content))
	}

	if embedded, err := s.embedder.Embedded(q.Path); err != nil {
		log.Printf("Error reading embedded lyrics for %s: %v", q.Path, err)
	} else if embedded != "" {
		results = append(results, withLyrics(base, embedded))
	}

	for i := range results {
		ScoreResult(&results[i], q)
	}
	return results
}

func withLyrics(r types.LyricsResult, content string) types.LyricsResult {
	if isSynced(content) {
		r.SyncedLyrics = content
	} else {
		r.PlainLyrics = content
	}
	return r
}

func isSynced(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if lrcTimeRe.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

// removeDuplicates keeps the first result per title and artist. Local
// results are deduplicated apart from remote ones so a copy already on
// disk never hides the record it came from.
func removeDuplicates(results []types.LyricsResult) []types.LyricsResult {
	type key struct {
		local         bool
		title, artist string
	}
	seen := make(map[key]bool)
	unique := make([]types.LyricsResult, 0, len(results))

	for _, r := range results {
		k := key{
			local:  r.Source == types.SourceLocal,
			title:  strings.ToLower(strings.TrimSpace(r.Title)),
			artist: strings.ToLower(strings.TrimSpace(r.Artist)),
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, r)
	}
	return unique
}

func (s *lyricsService) track(ctx context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if prev, ok := s.searches[key]; ok {
		log.Printf("Cancelling existing search for: %s", key)
		prev.cancel()
	}
	s.nextID++
	id := s.nextID
	s.searches[key] = inflightSearch{id: id, cancel: cancel}
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if cur, ok := s.searches[key]; ok && cur.id == id {
			delete(s.searches, key)
		}
		s.mu.Unlock()
		cancel()
	}
}

// CancelAll cancels every running search
func (s *lyricsService) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, search := range s.searches {
		search.cancel()
		delete(s.searches, key)
	}
}

// IsSearching reports whether any search is in progress
func (s *lyricsService) IsSearching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.searches) > 0
}

// GetByID fetches a single lyrics record from LRCLib
func (s *lyricsService) GetByID(ctx context.Context, id int) (*types.LyricsResult, error) {
	return s.lrclib.GetByID(ctx, id)
}

// RenderLyrics returns the text to store: synced lyrics when present,
// plain otherwise, romanized when enabled.
func (s *lyricsService) RenderLyrics(r *types.LyricsResult) string {
	var content string
	switch {
	case r.HasSyncedLyrics():
		content = r.SyncedLyrics
	case r.HasLyrics():
		content = r.PlainLyrics
	default:
		return ""
	}

	settings := s.settings.Get()
	if settings.EnableRomanization && s.romanizer != nil {
		content = s.romanizer.RomanizeLyrics(content, RomanizeOptionsFromSettings(settings))
	}
	return content
}

func (s *lyricsService) hasExistingLyrics(musicPath, method string) bool {
	if method != config.StorageMetadata && s.files.Exists(musicPath) {
		return true
	}
	if method != config.StorageLRC {
		if embedded, err := s.embedder.Embedded(musicPath); err == nil && embedded != "" {
			return true
		}
	}
	return false
}

// Download stores r for musicPath using the configured storage method
func (s *lyricsService) Download(ctx context.Context, musicPath string, r *types.LyricsResult) (*DownloadOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil || !r.HasLyrics() {
		return nil, ErrNoLyricsContent
	}

	settings := s.settings.Get()
	method := settings.LyricsStorageMethod

	if !settings.OverwriteExistingLyrics && s.hasExistingLyrics(musicPath, method) {
		return nil, fmt.Errorf("%s: %w", musicPath, ErrLyricsExist)
	}
	if method == config.StorageMetadata && !s.embedder.Supports(musicPath) {
		return nil, fmt.Errorf("%s: %w", musicPath, ErrEmbedUnsupported)
	}

	log.Printf("Starting lyrics download for: %s", musicPath)
	content := s.RenderLyrics(r)
	outcome := &DownloadOutcome{Result: r}

	if method == config.StorageLRC || method == config.StorageBoth {
		lrcPath := s.files.LRCPath(musicPath)
		backupPath, err := s.files.Write(lrcPath, content, true)
		if err != nil {
			return nil, err
		}
		outcome.LRCPath = lrcPath
		outcome.BackupPath = backupPath
		log.Printf("Successfully saved lyrics to: %s", lrcPath)
	}

	if method == config.StorageMetadata || method == config.StorageBoth {
		err := s.embedder.Embed(musicPath, content, settings.LyricsLanguage)
		switch {
		case err == nil:
			outcome.Embedded = true
		case method == config.StorageBoth:
			log.Printf("Could not embed lyrics, kept LRC file only: %v", err)
		default:
			return nil, err
		}
	}

	s.record(musicPath, r, outcome, method)
	return outcome, nil
}

func (s *lyricsService) record(musicPath string, r *types.LyricsResult, outcome *DownloadOutcome, method string) {
	if s.store == nil {
		return
	}
	rec := types.DownloadRecord{
		MusicPath:     musicPath,
		LRCPath:       outcome.LRCPath,
		LyricsID:      r.ID,
		Title:         r.Title,
		Artist:        r.Artist,
		Source:        r.Source,
		StorageMethod: method,
		Synced:        r.HasSyncedLyrics(),
		SavedAt:       time.Now(),
	}
	if err := s.store.AddHistory(rec); err != nil {
		log.Printf("Could not record download history: %v", err)
	}
}

// AutoDownload searches for the file and stores the best result when it
// reaches the minimum accuracy.
func (s *lyricsService) AutoDownload(ctx context.Context, file types.MusicFile) (*DownloadOutcome, error) {
	settings := s.settings.Get()
	if !settings.OverwriteExistingLyrics && s.hasExistingLyrics(file.Path, settings.LyricsStorageMethod) {
		return nil, fmt.Errorf("%s: %w", file.Path, ErrLyricsExist)
	}

	results, err := s.Search(ctx, types.QueryFromFile(file))
	if err != nil {
		return nil, err
	}

	for i := range results {
		best := &results[i]
		if best.AccuracyScore < settings.MinAccuracy {
			break
		}
		if best.Source == types.SourceLocal {
			// already stored with the file
			continue
		}
		return s.Download(ctx, file.Path, best)
	}

	return nil, fmt.Errorf("%s: %w", file.String(), ErrNoMatch)
}

// History returns the most recent downloads
func (s *lyricsService) History(limit int) ([]types.DownloadRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.GetHistory(limit)
}
