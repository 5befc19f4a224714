package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// destination is the lock-protected end shared by a logger and every
// logger derived from it with WithFields
type destination struct {
	mu     sync.Mutex
	writer io.Writer
	format Format
	level  Level

	// beforeWrite runs under mu; file loggers use it to rotate
	beforeWrite func()
	written     int64
	closer      io.Closer
}

func (d *destination) write(level Level, msg string, err error, fields Fields) {
	if level < d.level {
		return
	}

	var line []byte
	if d.format == FormatJSON {
		line = formatJSON(level, msg, err, fields)
	} else {
		line = formatText(level, msg, err, fields)
	}
	if line == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.beforeWrite != nil {
		d.beforeWrite()
	}
	n, _ := d.writer.Write(line)
	d.written += int64(n)
}

func (d *destination) close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closer == nil {
		return nil
	}
	err := d.closer.Close()
	d.closer = nil
	return err
}

// entryLogger implements Logger on top of a destination
type entryLogger struct {
	dst    *destination
	fields Fields
}

// Debug logs a debug message
func (l *entryLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.dst.write(DebugLevel, msg, nil, mergeFields(l.fields, fields))
}

// Info logs an info message
func (l *entryLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.dst.write(InfoLevel, msg, nil, mergeFields(l.fields, fields))
}

// Warn logs a warning message
func (l *entryLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.dst.write(WarnLevel, msg, nil, mergeFields(l.fields, fields))
}

// Error logs an error message
func (l *entryLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.dst.write(ErrorLevel, msg, err, mergeFields(l.fields, fields))
}

// WithFields returns a logger sharing the same destination
func (l *entryLogger) WithFields(fields Fields) Logger {
	return &entryLogger{dst: l.dst, fields: mergeFields(l.fields, fields)}
}

// Close releases the destination; loggers derived from it stop writing
func (l *entryLogger) Close() error {
	return l.dst.close()
}

// StreamLogger writes log entries to an io.Writer such as stderr
type StreamLogger struct {
	entryLogger
}

// NewStreamLogger creates a logger writing to w (stderr when nil)
func NewStreamLogger(w io.Writer, format Format, level Level) *StreamLogger {
	if w == nil {
		w = os.Stderr
	}
	return &StreamLogger{
		entryLogger: entryLogger{
			dst: &destination{writer: w, format: format, level: level},
		},
	}
}

// formatJSON formats a log entry as one JSON object per line
func formatJSON(level Level, msg string, err error, fields Fields) []byte {
	entry := make(map[string]interface{}, len(fields)+4)
	for k, v := range fields {
		entry[k] = v
	}
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = LevelString(level)
	entry["message"] = msg
	if err != nil {
		entry["error"] = err.Error()
	}

	data, jsonErr := json.Marshal(entry)
	if jsonErr != nil {
		return nil
	}
	return append(data, '\n')
}

// formatText formats a log entry as "timestamp [LEVEL] message key=value ..."
func formatText(level Level, msg string, err error, fields Fields) []byte {
	var b strings.Builder
	b.WriteString(time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	b.WriteString(" [")
	b.WriteString(LevelString(level))
	b.WriteString("] ")
	b.WriteString(msg)

	if err != nil {
		fmt.Fprintf(&b, " error=%q", err.Error())
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}

	b.WriteByte('\n')
	return []byte(b.String())
}
