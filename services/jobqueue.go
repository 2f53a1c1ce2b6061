package services

import (
	"composer/types"
	"composer/websocket"
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// QueueSize is the number of jobs that can wait for a worker
const QueueSize = 100

// JobQueue interface defines the methods for managing lyrics jobs
type JobQueue interface {
	Start()
	Stop()
	AddJob(jobType types.JobType, path string, lyricsID int) (*types.LyricsJob, error)
	GetJob(id string) (*types.LyricsJob, bool)
	GetAllJobs() []*types.LyricsJob
	CancelJob(id string) bool
	UpdateJobProgress(id string, progress, total int, currentFile string)
	SetJobStatus(id string, status types.JobStatus, errorMsg string)
}

// jobQueue manages lyrics jobs
type jobQueue struct {
	jobs       map[string]*types.LyricsJob
	order      []string
	queue      chan *types.LyricsJob
	activeJobs map[string]*types.LyricsJob
	mu         sync.RWMutex
	maxWorkers int
	wg         sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	lyrics  LyricsService
	scanner MusicScanner
	hub     websocket.Hub
}

// NewJobQueue creates a new job queue; hub may be nil
func NewJobQueue(maxWorkers int, lyrics LyricsService, scanner MusicScanner, hub websocket.Hub) JobQueue {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &jobQueue{
		jobs:       make(map[string]*types.LyricsJob),
		queue:      make(chan *types.LyricsJob, QueueSize),
		activeJobs: make(map[string]*types.LyricsJob),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
		lyrics:     lyrics,
		scanner:    scanner,
		hub:        hub,
	}
}

// AddJob adds a new job to the queue
func (jq *jobQueue) AddJob(jobType types.JobType, path string, lyricsID int) (*types.LyricsJob, error) {
	switch {
	case path == "":
		return nil, fmt.Errorf("%w: path is required", ErrInvalidJob)
	case jobType == types.JobTypeDownload && lyricsID <= 0:
		return nil, fmt.Errorf("%w: lyrics id is required", ErrInvalidJob)
	case jobType != types.JobTypeDownload && jobType != types.JobTypeAuto && jobType != types.JobTypeLibrary:
		return nil, fmt.Errorf("%w: unknown job type %q", ErrInvalidJob, jobType)
	}

	jq.mu.Lock()
	defer jq.mu.Unlock()

	job := &types.LyricsJob{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    types.JobStatusQueued,
		Path:      path,
		LyricsID:  lyricsID,
		Title:     filepath.Base(path),
		Progress:  0,
		Total:     1,
		CreatedAt: time.Now(),
	}

	select {
	case jq.queue <- job:
	default:
		return nil, ErrQueueFull
	}

	jq.jobs[job.ID] = job
	jq.order = append(jq.order, job.ID)

	snapshot := *job
	return &snapshot, nil
}

// GetJob retrieves a copy of a job by ID
func (jq *jobQueue) GetJob(id string) (*types.LyricsJob, bool) {
	jq.mu.RLock()
	defer jq.mu.RUnlock()
	job, exists := jq.jobs[id]
	if !exists {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// GetAllJobs returns copies of all jobs in the order they were added
func (jq *jobQueue) GetAllJobs() []*types.LyricsJob {
	jq.mu.RLock()
	defer jq.mu.RUnlock()

	jobs := make([]*types.LyricsJob, 0, len(jq.order))
	for _, id := range jq.order {
		snapshot := *jq.jobs[id]
		jobs = append(jobs, &snapshot)
	}
	return jobs
}

// CancelJob cancels a queued job
func (jq *jobQueue) CancelJob(id string) bool {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job, exists := jq.jobs[id]
	if !exists {
		return false
	}

	if job.Status == types.JobStatusQueued {
		job.Status = types.JobStatusCancelled
		now := time.Now()
		job.CompletedAt = &now
		jq.broadcast(job, types.MessageStatus, "", "Job cancelled")
		return true
	}

	return false
}

// UpdateJobProgress updates job progress
func (jq *jobQueue) UpdateJobProgress(id string, progress, total int, currentFile string) {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	if job, exists := jq.jobs[id]; exists {
		job.Progress = progress
		job.Total = total

		if total > 0 {
			jq.broadcast(job, types.MessageProgress, currentFile,
				fmt.Sprintf("Processed %d of %d files", progress, total))
		}
	}
}

// SetJobStatus updates job status
func (jq *jobQueue) SetJobStatus(id string, status types.JobStatus, errorMsg string) {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job, exists := jq.jobs[id]
	if !exists {
		return
	}

	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	now := time.Now()
	if status == types.JobStatusProcessing && job.StartedAt == nil {
		job.StartedAt = &now
		jq.activeJobs[id] = job
	} else if status.IsFinal() {
		job.CompletedAt = &now
		delete(jq.activeJobs, id)
	}

	msgType := types.MessageStatus
	message := string(status)
	switch status {
	case types.JobStatusCompleted:
		msgType = types.MessageComplete
		job.Progress = job.Total
		message = fmt.Sprintf("Lyrics saved for %s", job.Title)
		if job.Type == types.JobTypeLibrary {
			message = fmt.Sprintf("Library finished: %d matched, %d missed", job.Matched, job.Missed)
		}
	case types.JobStatusFailed:
		msgType = types.MessageError
		message = errorMsg
	case types.JobStatusSkipped:
		message = fmt.Sprintf("%s already has lyrics", job.Title)
	case types.JobStatusProcessing:
		message = fmt.Sprintf("Started fetching lyrics for %s", job.Title)
	}

	jq.broadcast(job, msgType, "", message)
}

// broadcast must be called with jq.mu held
func (jq *jobQueue) broadcast(job *types.LyricsJob, msgType, currentFile, message string) {
	if jq.hub == nil {
		return
	}
	progress := 0.0
	if job.Total > 0 {
		progress = float64(job.Progress) / float64(job.Total) * 100
	}
	jq.hub.BroadcastProgress(job.ID, msgType, string(job.Status), currentFile, message, progress)
}

func (jq *jobQueue) update(id string, fn func(job *types.LyricsJob)) {
	jq.mu.Lock()
	defer jq.mu.Unlock()
	if job, ok := jq.jobs[id]; ok {
		fn(job)
	}
}

// Start begins processing jobs
func (jq *jobQueue) Start() {
	for i := 0; i < jq.maxWorkers; i++ {
		jq.wg.Add(1)
		go jq.worker()
	}
	log.Printf("Job queue started with %d workers", jq.maxWorkers)
}

// Stop cancels running jobs and waits for the workers to exit
func (jq *jobQueue) Stop() {
	jq.cancel()
	jq.wg.Wait()
}

// worker processes jobs from the queue
func (jq *jobQueue) worker() {
	defer jq.wg.Done()

	for {
		select {
		case <-jq.ctx.Done():
			return
		case job := <-jq.queue:
			jq.run(job)
		}
	}
}

func (jq *jobQueue) run(job *types.LyricsJob) {
	jq.mu.RLock()
	cancelled := job.Status == types.JobStatusCancelled
	jq.mu.RUnlock()
	if cancelled {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			jq.SetJobStatus(job.ID, types.JobStatusFailed, fmt.Sprint(r))
			log.Printf("Job %s panicked: %v", job.ID, r)
		}
	}()

	jq.SetJobStatus(job.ID, types.JobStatusProcessing, "")

	var err error
	switch job.Type {
	case types.JobTypeDownload:
		err = jq.processDownloadJob(job)
	case types.JobTypeAuto:
		err = jq.processAutoJob(job)
	case types.JobTypeLibrary:
		err = jq.processLibraryJob(job)
	}

	switch {
	case err == nil:
		jq.SetJobStatus(job.ID, types.JobStatusCompleted, "")
		log.Printf("Job %s completed successfully", job.ID)
	case errors.Is(err, ErrLyricsExist):
		jq.SetJobStatus(job.ID, types.JobStatusSkipped, "")
		log.Printf("Job %s skipped: %v", job.ID, err)
	case errors.Is(err, context.Canceled):
		jq.SetJobStatus(job.ID, types.JobStatusCancelled, err.Error())
		log.Printf("Job %s cancelled", job.ID)
	default:
		jq.SetJobStatus(job.ID, types.JobStatusFailed, err.Error())
		log.Printf("Job %s failed: %v", job.ID, err)
	}
}

// processDownloadJob stores a specific LRCLib record for one file
func (jq *jobQueue) processDownloadJob(job *types.LyricsJob) error {
	result, err := jq.lyrics.GetByID(jq.ctx, job.LyricsID)
	if err != nil {
		return fmt.Errorf("failed to get lyrics %d: %w", job.LyricsID, err)
	}

	jq.update(job.ID, func(j *types.LyricsJob) {
		j.Title = result.Title
		j.Artist = result.Artist
	})

	outcome, err := jq.lyrics.Download(jq.ctx, job.Path, result)
	if err != nil {
		return err
	}

	jq.update(job.ID, func(j *types.LyricsJob) { j.LRCPath = outcome.LRCPath })
	jq.UpdateJobProgress(job.ID, 1, 1, job.Path)
	return nil
}

// processAutoJob searches and stores the best match for one file
func (jq *jobQueue) processAutoJob(job *types.LyricsJob) error {
	file := jq.scanner.ExtractMetadata(job.Path)
	jq.update(job.ID, func(j *types.LyricsJob) {
		j.Title = file.Title
		j.Artist = file.Artist
	})

	outcome, err := jq.lyrics.AutoDownload(jq.ctx, file)
	if err != nil {
		return err
	}

	jq.update(job.ID, func(j *types.LyricsJob) { j.LRCPath = outcome.LRCPath })
	jq.UpdateJobProgress(job.ID, 1, 1, job.Path)
	return nil
}

// processLibraryJob fetches lyrics for every file under a directory.
// Files without a good enough match are counted, not fatal.
func (jq *jobQueue) processLibraryJob(job *types.LyricsJob) error {
	files, err := jq.scanner.Scan(jq.ctx, job.Path, nil)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", job.Path, err)
	}

	jq.update(job.ID, func(j *types.LyricsJob) { j.Title = filepath.Base(job.Path) })
	jq.UpdateJobProgress(job.ID, 0, len(files), "")

	for i, file := range files {
		_, err := jq.lyrics.AutoDownload(jq.ctx, file)
		switch {
		case err == nil:
			jq.update(job.ID, func(j *types.LyricsJob) { j.Matched++ })
		case errors.Is(err, ErrLyricsExist):
			// already has lyrics
		case jq.ctx.Err() != nil:
			return jq.ctx.Err()
		default:
			log.Printf("No lyrics stored for %s: %v", file.Path, err)
			jq.update(job.ID, func(j *types.LyricsJob) { j.Missed++ })
		}

		jq.UpdateJobProgress(job.ID, i+1, len(files), file.Filename)
	}

	return nil
}
