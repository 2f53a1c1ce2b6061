package types

import "time"

// JobType represents the type of lyrics job
type JobType string

const (
	// JobTypeDownload stores a specific lyrics result for one file
	JobTypeDownload JobType = "download"
	// JobTypeAuto searches and stores the best match for one file
	JobTypeAuto JobType = "auto"
	// JobTypeLibrary scans a directory and fetches lyrics for every file lacking them
	JobTypeLibrary JobType = "library"
)

// JobStatus represents the current status of a lyrics job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
	JobStatusSkipped    JobStatus = "skipped"
)

// IsFinal reports whether a job in this status will not change again
func (s JobStatus) IsFinal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled, JobStatusSkipped:
		return true
	}
	return false
}

// LyricsJob represents a lyrics job in the queue
type LyricsJob struct {
	ID          string     `json:"id"`
	Type        JobType    `json:"type"`
	Status      JobStatus  `json:"status"`
	Path        string     `json:"path"`
	LyricsID    int        `json:"lyricsId,omitempty"`
	Title       string     `json:"title"`
	Artist      string     `json:"artist"`
	LRCPath     string     `json:"lrcPath,omitempty"`
	Progress    int        `json:"progress"`
	Total       int        `json:"total"`
	Matched     int        `json:"matched,omitempty"`
	Missed      int        `json:"missed,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ScanSession tracks a background library scan
type ScanSession struct {
	ID          string      `json:"id"`
	Directory   string      `json:"directory"`
	Status      ScanStatus  `json:"status"`
	Processed   int         `json:"processed"`
	Total       int         `json:"total"`
	Files       []MusicFile `json:"files"`
	Error       string      `json:"error,omitempty"`
	StartedAt   time.Time   `json:"startedAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}
