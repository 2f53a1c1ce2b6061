package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"composer/types"

	"github.com/dhowden/tag"
)

const (
	unknownArtist = "Unknown Artist"
	unknownAlbum  = "Unknown Album"
)

// SupportedFormats are the audio extensions picked up by a scan
var SupportedFormats = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
	".mp4":  true,
	".wav":  true,
	".wma":  true,
	".opus": true,
}

var trackPrefixRe = regexp.MustCompile(`^(\d+)[\.\-\s]+(.+)`)

// ScanEvent is delivered to a ScanFunc while a scan runs
type ScanEvent struct {
	Type      string // one of the types.MessageScan* / types.MessageFileFound constants
	File      *types.MusicFile
	Processed int
	Total     int
	Files     []types.MusicFile
	Err       error
}

// ScanFunc observes scan events; it runs on the scanning goroutine
type ScanFunc func(ScanEvent)

// MusicScanner walks directories and extracts track metadata
type MusicScanner interface {
	Scan(ctx context.Context, root string, onEvent ScanFunc) ([]types.MusicFile, error)
	ExtractMetadata(path string) types.MusicFile
	AlbumArt(path string) (*tag.Picture, error)
	IsSupported(path string) bool
}

type musicScanner struct {
	lrcFiles LRCFileService
}

// NewMusicScanner creates a scanner that also reports sidecar LRC files
func NewMusicScanner(lrcFiles LRCFileService) MusicScanner {
	return &musicScanner{lrcFiles: lrcFiles}
}

// IsSupported reports whether path has a supported audio extension
func (s *musicScanner) IsSupported(path string) bool {
	return SupportedFormats[strings.ToLower(filepath.Ext(path))]
}

// Scan counts supported files under root, then extracts metadata for each,
// reporting progress through onEvent.
func (s *musicScanner) Scan(ctx context.Context, root string, onEvent ScanFunc) ([]types.MusicFile, error) {
	emit := func(e ScanEvent) {
		if onEvent != nil {
			onEvent(e)
		}
	}

	info, err := os.Stat(root)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("%s is not a directory", root)
	}
	if err != nil {
		emit(ScanEvent{Type: types.MessageScanError, Err: err})
		return nil, err
	}

	emit(ScanEvent{Type: types.MessageScanStarted})

	// First pass: count total music files
	total := 0
	err = s.walk(ctx, root, func(string) { total++ })
	if err != nil {
		return nil, s.scanFailed(ctx, err, emit)
	}

	// Second pass: process files
	var files []types.MusicFile
	processed := 0
	err = s.walk(ctx, root, func(path string) {
		file := s.ExtractMetadata(path)
		files = append(files, file)
		emit(ScanEvent{Type: types.MessageFileFound, File: &file})

		processed++
		emit(ScanEvent{Type: types.MessageScanProgress, Processed: processed, Total: total})
	})
	if err != nil {
		return nil, s.scanFailed(ctx, err, emit)
	}

	// WalkDir visits a/b.mp3 before a.mp3
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	emit(ScanEvent{Type: types.MessageScanCompleted, Files: files, Processed: processed, Total: total})
	return files, nil
}

func (s *musicScanner) scanFailed(ctx context.Context, err error, emit func(ScanEvent)) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	emit(ScanEvent{Type: types.MessageScanError, Err: err})
	return err
}

// walk calls fn for every supported file under root in lexical order
func (s *musicScanner) walk(ctx context.Context, root string, fn func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			log.Printf("Error accessing path %s: %v", path, err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			if path == root {
				return err
			}
			return nil // Continue walking, don't fail entire scan
		}
		if !d.IsDir() && s.IsSupported(path) {
			fn(path)
		}
		return nil
	})
}

// ExtractMetadata reads tags from a music file, falling back to the file
// name for the title and to placeholders for artist and album.
func (s *musicScanner) ExtractMetadata(path string) types.MusicFile {
	file := types.MusicFile{
		Path:     path,
		Filename: filepath.Base(path),
		Format:   strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}

	if info, err := os.Stat(path); err == nil {
		file.Size = info.Size()
	}

	if meta, err := readTags(path); err != nil {
		log.Printf("Warning: Could not parse audio metadata from %s: %v", path, err)
	} else {
		file.Title = strings.TrimSpace(meta.Title())
		file.Artist = strings.TrimSpace(meta.Artist())
		file.Album = strings.TrimSpace(meta.Album())
		file.TrackNumber, _ = meta.Track()
		file.HasAlbumArt = meta.Picture() != nil
		file.HasEmbeddedLyrics = strings.TrimSpace(meta.Lyrics()) != ""
	}

	if file.Title == "" || file.TrackNumber == 0 {
		title, track := titleFromFilename(path)
		if file.Title == "" {
			file.Title = title
		}
		if file.TrackNumber == 0 {
			file.TrackNumber = track
		}
	}
	if file.Artist == "" {
		file.Artist = unknownArtist
	}
	if file.Album == "" {
		file.Album = unknownAlbum
	}

	duration, err := audioDuration(path)
	if err != nil {
		log.Printf("Warning: Could not read duration of %s: %v", path, err)
	}
	file.DurationSeconds = duration.Seconds()
	file.Duration = FormatDuration(file.DurationSeconds)

	if s.lrcFiles != nil {
		file.HasLRC = s.lrcFiles.Exists(path)
	}
	return file
}

// AlbumArt returns the embedded cover picture of a music file
func (s *musicScanner) AlbumArt(path string) (*tag.Picture, error) {
	meta, err := readTags(path)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return nil, ErrNoAlbumArt
	}
	if err != nil {
		return nil, err
	}
	pic := meta.Picture()
	if pic == nil {
		return nil, ErrNoAlbumArt
	}
	return pic, nil
}

func readTags(path string) (tag.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tag.ReadFrom(f)
}

// titleFromFilename strips the extension and a leading track number like "01 - "
func titleFromFilename(path string) (string, int) {
	name := filepath.Base(path)
	title := strings.TrimSuffix(name, filepath.Ext(name))

	if matches := trackPrefixRe.FindStringSubmatch(title); len(matches) > 2 {
		track, _ := strconv.Atoi(matches[1])
		return matches[2], track
	}
	return title, 0
}
