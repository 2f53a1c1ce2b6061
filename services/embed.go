package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

const flacLyricsField = "LYRICS"

// id3Languages maps the preferred language setting to ISO-639-2 codes for USLT frames
var id3Languages = map[string]string{
	"en": "eng",
	"es": "spa",
	"fr": "fra",
	"de": "deu",
	"it": "ita",
	"pt": "por",
	"ja": "jpn",
	"ko": "kor",
	"zh": "zho",
}

// LyricsEmbedder writes lyrics into an audio file's own tags
type LyricsEmbedder interface {
	Supports(path string) bool
	Embed(path, lyrics, language string) error
	Embedded(path string) (string, error)
}

type lyricsEmbedder struct{}

// NewLyricsEmbedder creates an embedder for MP3 (ID3v2 USLT) and FLAC (vorbis LYRICS)
func NewLyricsEmbedder() LyricsEmbedder {
	return &lyricsEmbedder{}
}

// Supports reports whether lyrics can be embedded into path
func (e *lyricsEmbedder) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".flac":
		return true
	}
	return false
}

// Embedded returns the lyrics stored in the file's tags, empty when none
func (e *lyricsEmbedder) Embedded(path string) (string, error) {
	meta, err := readTags(path)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(meta.Lyrics()), nil
}

// Embed replaces any lyrics already stored in the file
func (e *lyricsEmbedder) Embed(path, lyrics, language string) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		err = embedID3(path, lyrics, language)
	case ".flac":
		err = embedFLAC(path, lyrics)
	default:
		return fmt.Errorf("%s: %w", filepath.Base(path), ErrEmbedUnsupported)
	}
	if err != nil {
		return fmt.Errorf("embedding lyrics into %s: %w", path, err)
	}

	log.Printf("Embedded lyrics into %s", path)
	return nil
}

func embedID3(path, lyrics, language string) error {
	id3Tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer id3Tag.Close()

	lang, ok := id3Languages[language]
	if !ok {
		lang = "eng"
	}

	id3Tag.DeleteFrames(id3Tag.CommonID("Unsynchronised lyrics/text transcription"))
	id3Tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
		Encoding:          id3v2.EncodingUTF8,
		Language:          lang,
		ContentDescriptor: "",
		Lyrics:            lyrics,
	})

	return id3Tag.Save()
}

func embedFLAC(path, lyrics string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return errors.New("empty FLAC file")
	}

	r := bytes.NewReader(data)
	f, err := flac.ParseMetadata(r)
	if err != nil {
		return fmt.Errorf("parsing FLAC: %w", err)
	}
	// audio frames follow the last metadata block; metadata-only files have none
	frames, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading FLAC frames: %w", err)
	}
	f.Frames = flac.FrameData(frames)

	var comments *flacvorbis.MetaDataBlockVorbisComment
	idx := -1
	for i, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			comments, err = flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				return fmt.Errorf("parsing vorbis comments: %w", err)
			}
			idx = i
			break
		}
	}
	if comments == nil {
		comments = flacvorbis.New()
	}

	kept := comments.Comments[:0]
	for _, c := range comments.Comments {
		if !strings.HasPrefix(strings.ToUpper(c), flacLyricsField+"=") {
			kept = append(kept, c)
		}
	}
	comments.Comments = kept
	if err := comments.Add(flacLyricsField, lyrics); err != nil {
		return err
	}

	block := comments.Marshal()
	if idx >= 0 {
		f.Meta[idx] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}

	return writeFileAtomic(path, f.Marshal())
}

// writeFileAtomic writes to a temp file in the same directory and renames it over path
func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
