package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"composer/types"
	"composer/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHub is a websocket.Hub that keeps every broadcast message
type recordingHub struct {
	mu       sync.Mutex
	messages []types.ProgressMessage
}

func (h *recordingHub) Run() {}

func (h *recordingHub) Broadcast(msg types.ProgressMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

func (h *recordingHub) BroadcastProgress(channel, msgType, status, currentFile, message string, progress float64) {
	h.Broadcast(types.ProgressMessage{
		JobID: channel, Type: msgType, Status: status, CurrentFile: currentFile, Message: message, Progress: progress,
	})
}

func (h *recordingHub) RegisterClient(*websocket.Client) {}
func (h *recordingHub) UnregisterClient(*websocket.Client) {}
func (h *recordingHub) ClientCount(string) int { return 0 }

func (h *recordingHub) forChannel(id string) []types.ProgressMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []types.ProgressMessage
	for _, m := range h.messages {
		if m.JobID == id {
			out = append(out, m)
		}
	}
	return out
}

// titleClient answers searches by track title
type titleClient struct {
	byTitle map[string][]types.LyricsResult
}

func (c *titleClient) Search(ctx context.Context, q types.LyricsQuery) ([]types.LyricsResult, error) {
	var out []types.LyricsResult
	for _, r := range c.byTitle[q.Title] {
		ScoreResult(&r, q)
		out = append(out, r)
	}
	return out, nil
}

func (c *titleClient) GetByID(ctx context.Context, id int) (*types.LyricsResult, error) {
	for _, results := range c.byTitle {
		for _, r := range results {
			if r.ID == id {
				r := r
				return &r, nil
			}
		}
	}
	return nil, ErrLyricsNotFound
}

func (c *titleClient) TestConnection(ctx context.Context) error { return nil }

type queueFixture struct {
	dir   string
	hub   *recordingHub
	queue JobQueue
}

func newQueueFixture(t *testing.T, start bool) *queueFixture {
	t.Helper()
	dir := t.TempDir()

	client := &titleClient{byTitle: map[string][]types.LyricsResult{
		"Yellow": {{ID: 1, Title: "Yellow", Artist: "Coldplay", Album: "Parachutes", Duration: 269, SyncedLyrics: "[00:01.00]stars"}},
		"Clocks": {{ID: 2, Title: "Clocks", Artist: "Coldplay", Album: "A Rush of Blood to the Head", Duration: 307, PlainLyrics: "lights go out"}},
	}}
	files := NewLRCFileService()
	scanner := NewMusicScanner(files)
	lyrics := NewLyricsService(LyricsDeps{
		LRCLib:    client,
		Files:     files,
		Embedder:  NewLyricsEmbedder(),
		Romanizer: NewRomanizer(),
		Settings:  testSettings(dir),
	})

	f := &queueFixture{dir: dir, hub: &recordingHub{}}
	f.queue = NewJobQueue(2, lyrics, scanner, f.hub)
	if start {
		f.queue.Start()
	}
	t.Cleanup(f.queue.Stop)
	return f
}

func (f *queueFixture) track(t *testing.T, name, title string, seconds uint64) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	writeFLAC(t, path, seconds, map[string]string{"TITLE": title, "ARTIST": "Coldplay"})
	return path
}

func waitForJob(t *testing.T, q JobQueue, id string) *types.LyricsJob {
	t.Helper()
	var job *types.LyricsJob
	require.Eventually(t, func() bool {
		var ok bool
		job, ok = q.GetJob(id)
		return ok && job.Status.IsFinal()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestJobQueueDownloadJob(t *testing.T) {
	f := newQueueFixture(t, true)
	path := f.track(t, "Yellow.flac", "Yellow", 269)

	job, err := f.queue.AddJob(types.JobTypeDownload, path, 1)
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusQueued, job.Status)

	job = waitForJob(t, f.queue, job.ID)
	assert.Equal(t, types.JobStatusCompleted, job.Status, job.Error)
	assert.Equal(t, "Yellow", job.Title)
	assert.Equal(t, "Coldplay", job.Artist)
	assert.Equal(t, filepath.Join(f.dir, "Yellow.lrc"), job.LRCPath)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)

	require.Eventually(t, func() bool {
		msgs := f.hub.forChannel(job.ID)
		return len(msgs) > 0 && msgs[len(msgs)-1].Type == types.MessageComplete
	}, time.Second, 10*time.Millisecond)
	last := f.hub.forChannel(job.ID)
	assert.InDelta(t, 100, last[len(last)-1].Progress, 0.001)
}

func TestJobQueueDownloadUnknownLyrics(t *testing.T) {
	f := newQueueFixture(t, true)
	path := f.track(t, "Yellow.flac", "Yellow", 269)

	job, err := f.queue.AddJob(types.JobTypeDownload, path, 404)
	require.NoError(t, err)

	job = waitForJob(t, f.queue, job.ID)
	assert.Equal(t, types.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, ErrLyricsNotFound.Error())
}

func TestJobQueueAutoJobSkipsExistingLyrics(t *testing.T) {
	f := newQueueFixture(t, true)
	path := f.track(t, "Yellow.flac", "Yellow", 269)

	job, err := f.queue.AddJob(types.JobTypeAuto, path, 0)
	require.NoError(t, err)
	job = waitForJob(t, f.queue, job.ID)
	assert.Equal(t, types.JobStatusCompleted, job.Status, job.Error)
	assert.FileExists(t, job.LRCPath)

	job, err = f.queue.AddJob(types.JobTypeAuto, path, 0)
	require.NoError(t, err)
	job = waitForJob(t, f.queue, job.ID)
	assert.Equal(t, types.JobStatusSkipped, job.Status)
}

func TestJobQueueLibraryJob(t *testing.T) {
	f := newQueueFixture(t, true)
	f.track(t, "01 Yellow.flac", "Yellow", 269)
	f.track(t, "02 Clocks.flac", "Clocks", 307)
	f.track(t, "03 Unknown.flac", "Nobody Knows", 200)
	existing := f.track(t, "04 Again.flac", "Yellow", 269)
	writeFile(t, NewLRCFileService().LRCPath(existing), "mine")

	job, err := f.queue.AddJob(types.JobTypeLibrary, f.dir, 0)
	require.NoError(t, err)

	job = waitForJob(t, f.queue, job.ID)
	assert.Equal(t, types.JobStatusCompleted, job.Status, job.Error)
	assert.Equal(t, 4, job.Total)
	assert.Equal(t, 4, job.Progress)
	assert.Equal(t, 2, job.Matched)
	assert.Equal(t, 1, job.Missed)

	assert.FileExists(t, filepath.Join(f.dir, "01 Yellow.lrc"))
	assert.FileExists(t, filepath.Join(f.dir, "02 Clocks.lrc"))
	assert.NoFileExists(t, filepath.Join(f.dir, "03 Unknown.lrc"))
}

func TestJobQueueCancelQueuedJob(t *testing.T) {
	f := newQueueFixture(t, false)
	path := f.track(t, "Yellow.flac", "Yellow", 269)

	job, err := f.queue.AddJob(types.JobTypeAuto, path, 0)
	require.NoError(t, err)

	assert.True(t, f.queue.CancelJob(job.ID))
	assert.False(t, f.queue.CancelJob(job.ID), "already cancelled")
	assert.False(t, f.queue.CancelJob("missing"))

	f.queue.Start()
	time.Sleep(50 * time.Millisecond)

	job, ok := f.queue.GetJob(job.ID)
	require.True(t, ok)
	assert.Equal(t, types.JobStatusCancelled, job.Status)
	assert.NoFileExists(t, filepath.Join(f.dir, "Yellow.lrc"))
}

func TestJobQueueValidation(t *testing.T) {
	f := newQueueFixture(t, false)

	_, err := f.queue.AddJob(types.JobTypeAuto, "", 0)
	assert.ErrorIs(t, err, ErrInvalidJob)

	_, err = f.queue.AddJob(types.JobTypeDownload, "/m/a.mp3", 0)
	assert.ErrorIs(t, err, ErrInvalidJob)

	_, err = f.queue.AddJob(types.JobType("album"), "/m/a.mp3", 0)
	assert.ErrorIs(t, err, ErrInvalidJob)
}

func TestJobQueueOrderAndCapacity(t *testing.T) {
	f := newQueueFixture(t, false)

	var ids []string
	for i := 0; i < QueueSize; i++ {
		job, err := f.queue.AddJob(types.JobTypeAuto, filepath.Join(f.dir, "song.mp3"), 0)
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}

	_, err := f.queue.AddJob(types.JobTypeAuto, filepath.Join(f.dir, "song.mp3"), 0)
	assert.ErrorIs(t, err, ErrQueueFull)

	jobs := f.queue.GetAllJobs()
	require.Len(t, jobs, QueueSize)
	for i, job := range jobs {
		assert.Equal(t, ids[i], job.ID)
	}
}

type panickingLyrics struct {
	LyricsService
}

func (panickingLyrics) AutoDownload(context.Context, types.MusicFile) (*DownloadOutcome, error) {
	panic("lrclib exploded")
}

func TestJobQueueRecoversFromPanic(t *testing.T) {
	f := newQueueFixture(t, false)
	q := NewJobQueue(1, panickingLyrics{}, NewMusicScanner(nil), f.hub)
	q.Start()
	t.Cleanup(q.Stop)

	first, err := q.AddJob(types.JobTypeAuto, f.track(t, "Yellow.flac", "Yellow", 269), 0)
	require.NoError(t, err)
	second, err := q.AddJob(types.JobTypeAuto, f.track(t, "Clocks.flac", "Clocks", 307), 0)
	require.NoError(t, err)

	for _, id := range []string{first.ID, second.ID} {
		job := waitForJob(t, q, id)
		assert.Equal(t, types.JobStatusFailed, job.Status)
		assert.Equal(t, "lrclib exploded", job.Error)
	}
}
