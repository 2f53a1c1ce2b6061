package types

// MusicFile represents an audio file discovered in the library
type MusicFile struct {
	Path              string  `json:"path"`
	Filename          string  `json:"filename"`
	Format            string  `json:"format"` // "flac", "mp3", etc.
	Size              int64   `json:"size"`
	Title             string  `json:"title"`
	Artist            string  `json:"artist"`
	Album             string  `json:"album"`
	TrackNumber       int     `json:"trackNumber,omitempty"`
	Duration          string  `json:"duration"` // "3:45"
	DurationSeconds   float64 `json:"durationSeconds"`
	HasAlbumArt       bool    `json:"hasAlbumArt"`
	HasLRC            bool    `json:"hasLrc"`
	HasEmbeddedLyrics bool    `json:"hasEmbeddedLyrics"`
}

// HasLyrics reports whether the file already has lyrics in any form
func (m MusicFile) HasLyrics() bool {
	return m.HasLRC || m.HasEmbeddedLyrics
}

func (m MusicFile) String() string {
	return m.Artist + " - " + m.Title
}

// ScanStatus represents the state of a library scan
type ScanStatus string

const (
	ScanStatusScanning  ScanStatus = "scanning"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusCancelled ScanStatus = "cancelled"
	ScanStatusFailed    ScanStatus = "failed"
)
