package observability

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func writeAll(t *testing.T, log EventLog, events ...Event) {
	t.Helper()
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}
}

func TestEventLog_WriteAndRead(t *testing.T) {
	log, _ := openTestLog(t)
	now := time.Now().UTC().Truncate(time.Millisecond)
	writeAll(t, log,
		Event{Time: now, Level: "INFO", Type: TypePipelineStarted, Message: "run started", Data: map[string]any{"run_id": "r1"}},
		Event{Time: now.Add(time.Second), Level: "WARN", Type: TypeUnitRejected, Message: "rejected", Data: map[string]any{"run_id": "r1", "phase": "awareness"}},
	)

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}
	if result[0].Type != TypePipelineStarted || result[0].RunID() != "r1" {
		t.Errorf("first event = %+v", result[0])
	}
	if result[1].Level != "WARN" || result[1].Data["phase"] != "awareness" {
		t.Errorf("second event = %+v", result[1])
	}
	if !result[0].Time.Equal(now) {
		t.Errorf("time = %v, want %v", result[0].Time, now)
	}
}

func TestEventLog_Filters(t *testing.T) {
	log, _ := openTestLog(t)
	base := time.Date(2026, 3, 4, 6, 0, 0, 0, time.UTC)
	writeAll(t, log,
		Event{Time: base, Level: "INFO", Type: TypePipelineStarted, Data: map[string]any{"run_id": "a"}},
		Event{Time: base.Add(time.Hour), Level: "ERROR", Type: TypeUnitFailed, Data: map[string]any{"run_id": "a"}},
		Event{Time: base.Add(2 * time.Hour), Level: "INFO", Type: TypePipelineFinished, Data: map[string]any{"run_id": "a"}},
		Event{Time: base.Add(24 * time.Hour), Level: "INFO", Type: TypePipelineStarted, Data: map[string]any{"run_id": "b"}},
	)

	since := base.Add(30 * time.Minute)
	until := base.Add(3 * time.Hour)
	tests := []struct {
		name   string
		filter EventFilter
		want   int
	}{
		{name: "all", filter: EventFilter{}, want: 4},
		{name: "type", filter: EventFilter{Type: TypePipelineStarted}, want: 2},
		{name: "level", filter: EventFilter{Level: "ERROR"}, want: 1},
		{name: "run", filter: EventFilter{RunID: "a"}, want: 3},
		{name: "range", filter: EventFilter{Since: &since, Until: &until}, want: 2},
		{name: "combined", filter: EventFilter{RunID: "b", Type: TypeUnitFailed}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := log.Read(tt.filter)
			if err != nil {
				t.Fatalf("reading events: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	log, path := openTestLog(t)
	writeAll(t, log, Event{Time: time.Now().UTC(), Level: "INFO", Type: TypePipelineStarted})

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("{not json\n\n")
	_ = f.Close()
	writeAll(t, log, Event{Time: time.Now().UTC(), Level: "INFO", Type: TypePipelineFinished})

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected malformed line to be skipped, got %d events", len(got))
	}
}

func TestEventLog_ReadMissingFile(t *testing.T) {
	log, path := openTestLog(t)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	got, err := log.Read(EventFilter{})
	if err != nil || got != nil {
		t.Errorf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestEventLog_ConcurrentWrites(t *testing.T) {
	log, _ := openTestLog(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = log.Write(Event{Time: time.Now().UTC(), Level: "INFO", Type: TypeUnitProcessed})
		}()
	}
	wg.Wait()

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(got) != 20 {
		t.Errorf("expected 20 events, got %d", len(got))
	}
}

func TestLevelFor(t *testing.T) {
	tests := map[string]string{
		TypeUnitFailed:       "ERROR",
		TypeUnitRejected:     "WARN",
		TypeUnitProcessed:    "INFO",
		TypePipelineFinished: "INFO",
	}
	for eventType, want := range tests {
		if got := LevelFor(eventType); got != want {
			t.Errorf("LevelFor(%s) = %s, want %s", eventType, got, want)
		}
	}
}
