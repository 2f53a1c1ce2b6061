package services

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-flac/go-flac"
	"github.com/tcolgate/mp3"
)

// audioDuration returns the playing time of FLAC and MP3 files; other
// formats report zero.
func audioDuration(path string) (time.Duration, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return flacDuration(path)
	case ".mp3":
		return mp3Duration(path)
	}
	return 0, nil
}

func flacDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	meta, err := flac.ParseMetadata(f)
	if err != nil {
		return 0, fmt.Errorf("parsing FLAC metadata: %w", err)
	}

	for _, block := range meta.Meta {
		if block.Type == flac.StreamInfo {
			return streamInfoDuration(block.Data)
		}
	}
	return 0, errors.New("FLAC file has no STREAMINFO block")
}

// streamInfoDuration reads sample rate (20 bits) and total samples (36 bits)
// starting at byte 10 of a STREAMINFO block.
func streamInfoDuration(data []byte) (time.Duration, error) {
	if len(data) < 18 {
		return 0, errors.New("STREAMINFO block too short")
	}

	packed := binary.BigEndian.Uint64(data[10:18])
	sampleRate := packed >> 44
	totalSamples := packed & (1<<36 - 1)
	if sampleRate == 0 {
		return 0, errors.New("STREAMINFO sample rate is zero")
	}

	return time.Duration(totalSamples) * time.Second / time.Duration(sampleRate), nil
}

func mp3Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var (
		total   time.Duration
		frame   mp3.Frame
		skipped int
	)

	decoder := mp3.NewDecoder(f)
	for {
		if err := decoder.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return total, fmt.Errorf("decoding MP3 frames: %w", err)
		}
		total += frame.Duration()
	}
	return total, nil
}

// FormatDuration renders whole seconds as M:SS
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0:00"
	}
	secs := int(seconds)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
