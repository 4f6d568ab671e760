package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Lifecycle event types written by the pipeline.
const (
	TypePipelineStarted  = "pipeline.started"
	TypePipelineFinished = "pipeline.finished"
	TypeUnitProcessed    = "unit.processed"
	TypeUnitRejected     = "unit.rejected"
	TypeUnitFailed       = "unit.failed"
)

// Event is one line of the event log.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO, WARN, ERROR
	Type    string         `json:"type"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// RunID returns the run the event belongs to, if recorded.
func (e Event) RunID() string {
	id, _ := e.Data["run_id"].(string)
	return id
}

// EventFilter selects events when reading. Zero fields match everything.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	Type  string
	Level string
	RunID string
}

// EventLog appends and reads lifecycle events.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

type jsonlEventLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLEventLog opens (creating if needed) an append-only JSONL log.
func NewJSONLEventLog(path string) (EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating event log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{path: path, file: f}, nil
}

func (l *jsonlEventLog) Write(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Read returns matching events in file order. Malformed lines are skipped so
// a torn final write never hides the rest of the history.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if filter.matches(event) {
			events = append(events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}
	return events, nil
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

func (f EventFilter) matches(event Event) bool {
	switch {
	case f.Since != nil && event.Time.Before(*f.Since):
		return false
	case f.Until != nil && event.Time.After(*f.Until):
		return false
	case f.Type != "" && event.Type != f.Type:
		return false
	case f.Level != "" && event.Level != f.Level:
		return false
	case f.RunID != "" && event.RunID() != f.RunID:
		return false
	}
	return true
}

// LevelFor maps an event type to its log level.
func LevelFor(eventType string) string {
	switch eventType {
	case TypeUnitFailed:
		return "ERROR"
	case TypeUnitRejected:
		return "WARN"
	default:
		return "INFO"
	}
}
