package services

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/stretchr/testify/require"
)

// streamInfo builds a 34 byte STREAMINFO block for 16 bit stereo audio
func streamInfo(sampleRate, totalSamples uint64) []byte {
	data := make([]byte, 34)
	binary.BigEndian.PutUint16(data[0:2], 4096)
	binary.BigEndian.PutUint16(data[2:4], 4096)
	packed := sampleRate<<44 | 1<<41 | 15<<36 | totalSamples
	binary.BigEndian.PutUint64(data[10:18], packed)
	return data
}

// writeFLAC writes a FLAC file with no audio frames, only metadata
func writeFLAC(t *testing.T, path string, seconds uint64, comments map[string]string) {
	t.Helper()

	f := &flac.File{
		Meta: []*flac.MetaDataBlock{
			{Type: flac.StreamInfo, Data: streamInfo(44100, 44100*seconds)},
		},
	}
	if len(comments) > 0 {
		cmt := flacvorbis.New()
		for k, v := range comments {
			require.NoError(t, cmt.Add(k, v))
		}
		block := cmt.Marshal()
		f.Meta = append(f.Meta, &block)
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, f.Marshal(), 0644))
}

// mp3Frame is one silent MPEG-1 Layer III frame at 128 kbit/s, 44.1 kHz
func mp3Frame() []byte {
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x00})
	return frame
}

func writeMP3(t *testing.T, path string, frames int) {
	t.Helper()

	var data []byte
	for i := 0; i < frames; i++ {
		data = append(data, mp3Frame()...)
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
