package services

import (
	"context"
	"path/filepath"
	"testing"

	"composer/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stallingScanner reports the start of a scan and then waits for cancellation
type stallingScanner struct {
	MusicScanner
	started chan struct{}
}

func (s *stallingScanner) Scan(ctx context.Context, root string, onEvent ScanFunc) ([]types.MusicFile, error) {
	onEvent(ScanEvent{Type: types.MessageScanStarted})
	close(s.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestScanManagerCompletes(t *testing.T) {
	root := buildLibrary(t)
	hub := &recordingHub{}
	m := NewScanManager(NewMusicScanner(NewLRCFileService()), hub)

	session := m.Start(root)
	assert.Equal(t, types.ScanStatusScanning, session.Status)
	assert.Equal(t, root, session.Directory)

	require.NoError(t, m.Wait(session.ID))

	got, err := m.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ScanStatusCompleted, got.Status)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 3, got.Processed)
	require.Len(t, got.Files, 3)
	assert.NotNil(t, got.CompletedAt)

	msgs := hub.forChannel(session.ID)
	require.NotEmpty(t, msgs)
	assert.Equal(t, types.MessageScanStarted, msgs[0].Type)
	last := msgs[len(msgs)-1]
	assert.Equal(t, types.MessageScanCompleted, last.Type)
	assert.InDelta(t, 100, last.Progress, 0.001)

	var found []string
	for _, msg := range msgs {
		if msg.Type == types.MessageFileFound {
			require.NotNil(t, msg.File)
			found = append(found, msg.CurrentFile)
		}
	}
	assert.ElementsMatch(t, []string{"01 - Yellow.flac", "02. Trouble.mp3", "Track.OGG"}, found)
}

func TestScanManagerMissingDirectory(t *testing.T) {
	m := NewScanManager(NewMusicScanner(nil), nil)

	session := m.Start(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, m.Wait(session.ID))

	got, err := m.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ScanStatusFailed, got.Status)
	assert.NotEmpty(t, got.Error)
}

func TestScanManagerCancel(t *testing.T) {
	scanner := &stallingScanner{started: make(chan struct{})}
	hub := &recordingHub{}
	m := NewScanManager(scanner, hub)

	session := m.Start(t.TempDir())
	<-scanner.started

	require.NoError(t, m.Cancel(session.ID))
	require.NoError(t, m.Wait(session.ID))

	got, err := m.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ScanStatusCancelled, got.Status)
	assert.Empty(t, got.Error)

	msgs := hub.forChannel(session.ID)
	require.NotEmpty(t, msgs)
	assert.Equal(t, types.MessageStatus, msgs[len(msgs)-1].Type)
	assert.Equal(t, string(types.ScanStatusCancelled), msgs[len(msgs)-1].Status)
}

func TestScanManagerUnknownSession(t *testing.T) {
	m := NewScanManager(NewMusicScanner(nil), nil)

	_, err := m.Get("nope")
	assert.ErrorIs(t, err, ErrScanNotFound)
	assert.ErrorIs(t, m.Cancel("nope"), ErrScanNotFound)
	assert.ErrorIs(t, m.Wait("nope"), ErrScanNotFound)
}
