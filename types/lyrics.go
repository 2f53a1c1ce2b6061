package types

import (
	"fmt"
	"strings"
	"time"
)

// LyricsSource identifies where a lyrics result came from
type LyricsSource string

const (
	SourceLRCLib     LyricsSource = "lrclib"
	SourceGenius     LyricsSource = "genius"
	SourceMusixmatch LyricsSource = "musixmatch"
	SourceLocal      LyricsSource = "local"
)

// ParseLyricsSource converts a settings value into a LyricsSource
func ParseLyricsSource(s string) (LyricsSource, bool) {
	switch LyricsSource(s) {
	case SourceLRCLib, SourceGenius, SourceMusixmatch, SourceLocal:
		return LyricsSource(s), true
	}
	return "", false
}

// LyricsResult is a single lyrics candidate for a track
type LyricsResult struct {
	ID            int          `json:"id"`
	Title         string       `json:"title"`
	Artist        string       `json:"artist"`
	Album         string       `json:"album"`
	Duration      float64      `json:"duration"` // seconds
	PlainLyrics   string       `json:"plainLyrics,omitempty"`
	SyncedLyrics  string       `json:"syncedLyrics,omitempty"`
	Source        LyricsSource `json:"source"`
	AccuracyScore float64      `json:"accuracyScore"`
}

// HasSyncedLyrics reports whether the result carries timed lyrics
func (r *LyricsResult) HasSyncedLyrics() bool {
	return strings.TrimSpace(r.SyncedLyrics) != ""
}

// HasLyrics reports whether the result carries any lyrics at all
func (r *LyricsResult) HasLyrics() bool {
	return strings.TrimSpace(r.PlainLyrics) != "" || r.HasSyncedLyrics()
}

// DisplayDuration returns the duration as M:SS, or "Unknown"
func (r *LyricsResult) DisplayDuration() string {
	if r.Duration <= 0 {
		return "Unknown"
	}
	secs := int(r.Duration)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func (r *LyricsResult) String() string {
	return fmt.Sprintf("%s - %s (%s)", r.Artist, r.Title, r.Source)
}

// LyricsQuery describes the track lyrics are searched for
type LyricsQuery struct {
	Title    string  `json:"title" form:"title"`
	Artist   string  `json:"artist" form:"artist"`
	Album    string  `json:"album" form:"album"`
	Duration float64 `json:"duration" form:"duration"`
	// Path is the music file the search is made for, if any
	Path string `json:"path,omitempty" form:"path"`
}

// QueryFromFile builds a search query from scanned metadata
func QueryFromFile(f MusicFile) LyricsQuery {
	return LyricsQuery{
		Title:    f.Title,
		Artist:   f.Artist,
		Album:    f.Album,
		Duration: f.DurationSeconds,
		Path:     f.Path,
	}
}

// DownloadRecord is a history entry for stored lyrics
type DownloadRecord struct {
	MusicPath     string       `json:"musicPath"`
	LRCPath       string       `json:"lrcPath,omitempty"`
	LyricsID      int          `json:"lyricsId"`
	Title         string       `json:"title"`
	Artist        string       `json:"artist"`
	Source        LyricsSource `json:"source"`
	StorageMethod string       `json:"storageMethod"`
	Synced        bool         `json:"synced"`
	SavedAt       time.Time    `json:"savedAt"`
}
