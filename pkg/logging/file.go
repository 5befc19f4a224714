package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileLoggerConfig holds configuration for file logging
type FileLoggerConfig struct {
	// Path is the log file path
	Path string
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
	// MaxSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxSize int64
	// MaxBackups is the maximum number of backup files to keep
	MaxBackups int
}

// FileLogger writes log entries to a size-rotated file
type FileLogger struct {
	entryLogger
}

// rotatingFile is the writer behind a FileLogger. All methods are called
// with the destination lock held.
type rotatingFile struct {
	path       string
	maxSize    int64
	maxBackups int
	file       *os.File
	size       int64
}

// NewFileLogger creates a new file logger, creating its directory if needed
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rf := &rotatingFile{
		path:       config.Path,
		maxSize:    config.MaxSize,
		maxBackups: config.MaxBackups,
	}
	if err := rf.open(); err != nil {
		return nil, err
	}

	dst := &destination{
		writer: rf,
		format: config.Format,
		level:  config.Level,
		closer: rf,
	}
	dst.beforeWrite = func() {
		if rf.maxSize > 0 && rf.size >= rf.maxSize {
			rf.rotate()
		}
	}

	return &FileLogger{entryLogger: entryLogger{dst: dst}}, nil
}

func (f *rotatingFile) open() error {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	f.file = file
	f.size = info.Size()
	return nil
}

func (f *rotatingFile) Write(p []byte) (int, error) {
	if f.file == nil {
		return 0, os.ErrClosed
	}
	n, err := f.file.Write(p)
	f.size += int64(n)
	return n, err
}

func (f *rotatingFile) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// rotate shifts path.N to path.N+1, moves the live file to path.1 and
// drops anything beyond MaxBackups
func (f *rotatingFile) rotate() {
	if f.file == nil {
		return
	}
	f.file.Close()
	f.file = nil

	for i := f.maxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", f.path, i), fmt.Sprintf("%s.%d", f.path, i+1))
	}
	if f.maxBackups > 0 {
		os.Rename(f.path, f.path+".1")
		os.Remove(fmt.Sprintf("%s.%d", f.path, f.maxBackups+1))
	} else {
		os.Remove(f.path)
	}

	if err := f.open(); err != nil {
		return
	}
	f.size = 0
}
