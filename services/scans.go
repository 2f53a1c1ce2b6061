package services

import (
	"composer/types"
	"composer/websocket"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ScanManager runs library scans in the background
type ScanManager interface {
	Start(directory string) *types.ScanSession
	Get(id string) (*types.ScanSession, error)
	Cancel(id string) error
	Wait(id string) error
}

type scanRun struct {
	session *types.ScanSession
	cancel  context.CancelFunc
	done    chan struct{}
}

type scanManager struct {
	scanner MusicScanner
	hub     websocket.Hub

	mu    sync.RWMutex
	scans map[string]*scanRun
}

// NewScanManager creates a scan manager that reports events to hub; hub may be nil
func NewScanManager(scanner MusicScanner, hub websocket.Hub) ScanManager {
	return &scanManager{
		scanner: scanner,
		hub:     hub,
		scans:   make(map[string]*scanRun),
	}
}

// Start begins scanning directory and returns the new session
func (m *scanManager) Start(directory string) *types.ScanSession {
	ctx, cancel := context.WithCancel(context.Background())
	run := &scanRun{
		session: &types.ScanSession{
			ID:        uuid.New().String(),
			Directory: directory,
			Status:    types.ScanStatusScanning,
			Files:     []types.MusicFile{},
			StartedAt: time.Now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.scans[run.session.ID] = run
	snapshot := m.snapshot(run)
	m.mu.Unlock()

	log.Printf("Starting scan %s of %s", run.session.ID, directory)
	go m.run(ctx, run)
	return snapshot
}

func (m *scanManager) run(ctx context.Context, run *scanRun) {
	defer close(run.done)
	defer run.cancel()

	id := run.session.ID
	_, err := m.scanner.Scan(ctx, run.session.Directory, func(e ScanEvent) {
		m.onEvent(run, e)
	})

	m.mu.Lock()
	now := time.Now()
	run.session.CompletedAt = &now
	switch {
	case err == nil:
		run.session.Status = types.ScanStatusCompleted
	case errors.Is(err, context.Canceled):
		run.session.Status = types.ScanStatusCancelled
	default:
		run.session.Status = types.ScanStatusFailed
		run.session.Error = err.Error()
	}
	status := run.session.Status
	m.mu.Unlock()

	if status == types.ScanStatusCancelled {
		m.broadcast(types.ProgressMessage{
			JobID:   id,
			Type:    types.MessageStatus,
			Status:  string(status),
			Message: "Scan cancelled",
		})
	}
	log.Printf("Scan %s finished: %s", id, status)
}

func (m *scanManager) onEvent(run *scanRun, e ScanEvent) {
	msg := types.ProgressMessage{
		JobID:  run.session.ID,
		Type:   e.Type,
		Status: string(types.ScanStatusScanning),
	}

	m.mu.Lock()
	switch e.Type {
	case types.MessageFileFound:
		run.session.Files = append(run.session.Files, *e.File)
		msg.File = e.File
		msg.CurrentFile = e.File.Filename
	case types.MessageScanProgress:
		run.session.Processed = e.Processed
		run.session.Total = e.Total
		if e.Total > 0 {
			msg.Progress = float64(e.Processed) / float64(e.Total) * 100
		}
		msg.Message = fmt.Sprintf("Scanned %d of %d files", e.Processed, e.Total)
	case types.MessageScanCompleted:
		msg.Status = string(types.ScanStatusCompleted)
		msg.Progress = 100
		msg.Message = fmt.Sprintf("Found %d music files", len(e.Files))
	case types.MessageScanError:
		msg.Status = string(types.ScanStatusFailed)
		msg.Message = e.Err.Error()
	case types.MessageScanStarted:
		msg.Message = fmt.Sprintf("Scanning %s", run.session.Directory)
	}
	m.mu.Unlock()

	m.broadcast(msg)
}

func (m *scanManager) broadcast(msg types.ProgressMessage) {
	if m.hub != nil {
		m.hub.Broadcast(msg)
	}
}

// snapshot must be called with m.mu held
func (m *scanManager) snapshot(run *scanRun) *types.ScanSession {
	s := *run.session
	s.Files = append([]types.MusicFile(nil), run.session.Files...)
	return &s
}

// Get returns a copy of the session
func (m *scanManager) Get(id string) (*types.ScanSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.scans[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrScanNotFound)
	}
	return m.snapshot(run), nil
}

// Cancel stops a running scan
func (m *scanManager) Cancel(id string) error {
	m.mu.RLock()
	run, ok := m.scans[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrScanNotFound)
	}

	log.Printf("Cancelling scan %s", id)
	run.cancel()
	return nil
}

// Wait blocks until the scan has finished
func (m *scanManager) Wait(id string) error {
	m.mu.RLock()
	run, ok := m.scans[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrScanNotFound)
	}
	<-run.done
	return nil
}
