// Package logging routes the standard logger to stderr and a rotating log file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileName   = "composer.log"
	maxSizeMB     = 5
	maxBackups    = 3
	defaultPrefix = ""
)

// Logger owns the rotating file behind the standard logger
type Logger struct {
	file *lumberjack.Logger
	path string
}

// Setup points the standard logger at stderr and <dir>/composer.log
func Setup(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create log directory: %w", err)
	}

	path := filepath.Join(dir, logFileName)
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}

	log.SetOutput(io.MultiWriter(os.Stderr, file))
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetPrefix(defaultPrefix)

	return &Logger{file: file, path: path}, nil
}

// Path returns the active log file
func (l *Logger) Path() string {
	return l.path
}

// LogStartup writes the banner lines emitted once per process
func (l *Logger) LogStartup(version string) {
	log.Printf("Composer %s starting", version)
	log.Printf("Go %s on %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	log.Printf("Log file: %s", l.path)
}

// Close writes the shutdown line and releases the file
func (l *Logger) Close() error {
	log.Printf("Composer shutting down")
	log.SetOutput(os.Stderr)
	return l.file.Close()
}
