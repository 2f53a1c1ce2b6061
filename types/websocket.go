package types

import "time"

// Progress message types
const (
	MessageScanStarted   = "scan-started"
	MessageFileFound     = "file-found"
	MessageScanProgress  = "scan-progress"
	MessageScanCompleted = "scan-completed"
	MessageScanError     = "scan-error"
	MessageProgress      = "progress"
	MessageStatus        = "status"
	MessageComplete      = "complete"
	MessageError         = "error"
)

// ProgressMessage represents a WebSocket progress update message
type ProgressMessage struct {
	JobID       string     `json:"jobId"`
	Type        string     `json:"type"`
	Progress    float64    `json:"progress"` // 0-100 percentage
	Status      string     `json:"status"`
	CurrentFile string     `json:"currentFile"`
	Message     string     `json:"message,omitempty"`
	File        *MusicFile `json:"file,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}
