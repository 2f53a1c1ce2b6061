package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const writeTestFile = ".composer_write_test"

// LRCFileService handles sidecar .lrc files next to music files
type LRCFileService interface {
	LRCPath(musicPath string) string
	Exists(musicPath string) bool
	Read(musicPath string) (content string, ok bool, err error)
	Write(lrcPath, content string, backup bool) (backupPath string, err error)
	Backup(path string) (string, error)
	Delete(musicPath string) (bool, error)
	CheckWritePermission(dir string) bool
}

type lrcFileService struct{}

// NewLRCFileService creates a new LRC file service
func NewLRCFileService() LRCFileService {
	return &lrcFileService{}
}

// LRCPath returns the .lrc path for a music file by swapping its extension
func (fs *lrcFileService) LRCPath(musicPath string) string {
	base := filepath.Base(musicPath)
	ext := filepath.Ext(base)
	if ext == base {
		// dotfiles have no extension to swap
		return musicPath + ".lrc"
	}
	return strings.TrimSuffix(musicPath, ext) + ".lrc"
}

// Exists reports whether a music file already has a sidecar LRC
func (fs *lrcFileService) Exists(musicPath string) bool {
	_, err := os.Stat(fs.LRCPath(musicPath))
	return err == nil
}

// Read returns the sidecar LRC content; ok is false when there is none
func (fs *lrcFileService) Read(musicPath string) (string, bool, error) {
	lrcPath := fs.LRCPath(musicPath)

	data, err := os.ReadFile(lrcPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", lrcPath, err)
	}
	return string(data), true, nil
}

// Backup copies path to the first free name among path.backup, path.backup.1, ...
func (fs *lrcFileService) Backup(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", err
	}

	backupPath := path + ".backup"
	for counter := 1; ; counter++ {
		if _, err := os.Stat(backupPath); errors.Is(err, os.ErrNotExist) {
			break
		}
		backupPath = fmt.Sprintf("%s.backup.%d", path, counter)
	}

	dst, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return "", fmt.Errorf("creating backup for %s: %w", path, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("creating backup for %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		return "", err
	}

	// keep the original timestamps like a copy would
	_ = os.Chtimes(backupPath, info.ModTime(), info.ModTime())

	log.Printf("Created backup: %s", backupPath)
	return backupPath, nil
}

// Write stores content at lrcPath, optionally backing up an existing file first
func (fs *lrcFileService) Write(lrcPath, content string, backup bool) (string, error) {
	var backupPath string

	if backup {
		if _, err := os.Stat(lrcPath); err == nil {
			bp, err := fs.Backup(lrcPath)
			if err != nil {
				log.Printf("Error creating backup for %s: %v", lrcPath, err)
			}
			backupPath = bp
		}
	}

	if err := os.MkdirAll(filepath.Dir(lrcPath), 0755); err != nil {
		return backupPath, fmt.Errorf("creating directory for %s: %w", lrcPath, err)
	}

	if err := os.WriteFile(lrcPath, []byte(content), 0644); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return backupPath, fmt.Errorf("permission denied writing to %s: %w", lrcPath, err)
		}
		return backupPath, fmt.Errorf("writing LRC file %s: %w", lrcPath, err)
	}

	log.Printf("Successfully wrote LRC file: %s", lrcPath)
	return backupPath, nil
}

// Delete removes the sidecar LRC; it reports false when there was none
func (fs *lrcFileService) Delete(musicPath string) (bool, error) {
	lrcPath := fs.LRCPath(musicPath)

	if err := os.Remove(lrcPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("deleting %s: %w", lrcPath, err)
	}
	return true, nil
}

// CheckWritePermission tries to create and remove a file in dir
func (fs *lrcFileService) CheckWritePermission(dir string) bool {
	testFile := filepath.Join(dir, writeTestFile)

	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return false
	}
	os.Remove(testFile)
	return true
}

var (
	unsafeFilenameRe = regexp.MustCompile(`[<>:"/\\|?*]`)
	underscoreRunRe  = regexp.MustCompile(`_+`)
)

// SafeFilename replaces characters that are invalid in file names
func SafeFilename(name string) string {
	safe := unsafeFilenameRe.ReplaceAllString(name, "_")
	safe = underscoreRunRe.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_ ")

	if safe == "" {
		return "lyrics"
	}
	return safe
}

// FormatLRCTimestamp renders milliseconds as mm:ss.xx
func FormatLRCTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	centiseconds := (ms % 1000) / 10
	return fmt.Sprintf("%02d:%02d.%02d", minutes, seconds, centiseconds)
}
