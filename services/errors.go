package services

import "errors"

var (
	// ErrLyricsNotFound means the provider has no lyrics for the request
	ErrLyricsNotFound = errors.New("lyrics not found")
	// ErrLyricsExist means the file already has lyrics and overwriting is disabled
	ErrLyricsExist = errors.New("lyrics already exist")
	// ErrNoMatch means no search result reached the minimum accuracy
	ErrNoMatch = errors.New("no lyrics result matched closely enough")
	// ErrNoLyricsContent means a result carried neither plain nor synced lyrics
	ErrNoLyricsContent = errors.New("lyrics result is empty")
	// ErrEmbedUnsupported means lyrics cannot be written into this audio format
	ErrEmbedUnsupported = errors.New("embedding lyrics is not supported for this format")
	// ErrNoAlbumArt means the file carries no embedded picture
	ErrNoAlbumArt = errors.New("no album art")
	// ErrUnsupportedFile means the path is not a supported audio file
	ErrUnsupportedFile = errors.New("unsupported audio file")
	// ErrScanNotFound means the scan id is unknown
	ErrScanNotFound = errors.New("scan not found")
	// ErrQueueFull means the job queue cannot accept more work right now
	ErrQueueFull = errors.New("job queue is full")
	// ErrInvalidJob means a job request is missing required fields
	ErrInvalidJob = errors.New("invalid job")
)
