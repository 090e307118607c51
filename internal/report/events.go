package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventScan   EventType = "scan"
	EventAdd    EventType = "add"
	EventMove   EventType = "move"
	EventDelete EventType = "delete"
	EventAlbum  EventType = "album"
	EventNotify EventType = "notify"
	EventSkip   EventType = "skip"
	EventError  EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in a reconciliation pass
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	Path      string            `json:"path,omitempty"`
	OldPath   string            `json:"old_path,omitempty"`
	Album     string            `json:"album,omitempty"`
	Checksum  string            `json:"checksum,omitempty"`
	Count     int               `json:"count,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogScan logs the scan summary for a pass
func (l *EventLogger) LogScan(root string, fileCount int) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventScan,
		Path:  root,
		Count: fileCount,
	})
}

// LogAdd logs a newly added file
func (l *EventLogger) LogAdd(path, checksum string) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventAdd,
		Path:     path,
		Checksum: checksum,
	})
}

// LogMove logs a detected file move
func (l *EventLogger) LogMove(oldPath, newPath string) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventMove,
		Path:    newPath,
		OldPath: oldPath,
	})
}

// LogDelete logs a deleted file
func (l *EventLogger) LogDelete(path string) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventDelete,
		Path:  path,
	})
}

// LogSkip logs a file skipped because it could not be read
func (l *EventLogger) LogSkip(path string, err error) error {
	return l.Log(&Event{
		Level: LevelWarning,
		Event: EventSkip,
		Path:  path,
		Error: err.Error(),
	})
}

// LogAlbum logs an album created or removed during index maintenance
func (l *EventLogger) LogAlbum(action, name string) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventAlbum,
		Album: name,
		Extra: map[string]string{"action": action},
	})
}

// LogNotify logs a notification attempt for one subscriber
func (l *EventLogger) LogNotify(album, email string, count int, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level: level,
		Event: EventNotify,
		Album: album,
		Count: count,
		Error: errMsg,
		Extra: map[string]string{"email": email},
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, path string, err error) error {
	return l.Log(&Event{
		Level: LevelError,
		Event: event,
		Path:  path,
		Error: err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
