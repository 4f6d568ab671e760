package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/valter-silva-au/event-promo/pkg/models"
)

func newTestLedgerStore(t *testing.T) *fileLedgerStore {
	t.Helper()
	return NewLedgerStore(t.TempDir()).(*fileLedgerStore)
}

func sampleRecord(eventID string, phase models.Phase, dryRun bool) models.PostRecord {
	return models.PostRecord{
		EventID:  eventID,
		Phase:    phase,
		PostedAt: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC),
		DryRun:   dryRun,
	}
}

func TestLoad_MissingFileBootstrapsEmptyLedger(t *testing.T) {
	store := newTestLedgerStore(t)

	ledger, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.Posts) != 0 {
		t.Fatalf("expected empty ledger, got %d posts", len(ledger.Posts))
	}
	if ledger.Version != models.LedgerVersion {
		t.Errorf("expected version %q, got %q", models.LedgerVersion, ledger.Version)
	}
	if _, err := os.Stat(store.Path()); err != nil {
		t.Fatalf("expected ledger file to be created: %v", err)
	}
}

func TestAppend_PersistsAcrossStores(t *testing.T) {
	dir := t.TempDir()
	store := NewLedgerStore(dir)

	rec := sampleRecord("web-seminar-ki", models.PhaseAwareness, false)
	rec.ExternalPostID = "17890001"
	rec.Artifact = "/data/output/web-seminar-ki.mp4"
	if err := store.Append(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened := NewLedgerStore(dir)
	ledger, err := reopened.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.Posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(ledger.Posts))
	}
	got := ledger.Posts[0]
	if got.EventID != rec.EventID || got.Phase != rec.Phase || got.ExternalPostID != rec.ExternalPostID {
		t.Errorf("record mismatch: got %+v", got)
	}
	if !got.PostedAt.Equal(rec.PostedAt) {
		t.Errorf("expected posted_at %v, got %v", rec.PostedAt, got.PostedAt)
	}
}

func TestHasBeenPosted(t *testing.T) {
	store := newTestLedgerStore(t)
	if err := store.Append(sampleRecord("a", models.PhaseAwareness, false)); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(sampleRecord("b", models.PhaseReminder, true)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		eventID string
		phase   models.Phase
		want    bool
	}{
		{"real post", "a", models.PhaseAwareness, true},
		{"other phase of posted event", "a", models.PhaseReminder, false},
		{"dry run does not count", "b", models.PhaseReminder, false},
		{"unknown event", "c", models.PhaseAwareness, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.HasBeenPosted(tt.eventID, tt.phase)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasBeenPosted(%q, %q) = %v, want %v", tt.eventID, tt.phase, got, tt.want)
			}
		})
	}
}

func TestAppend_RefusesSecondLivePost(t *testing.T) {
	store := newTestLedgerStore(t)
	if err := store.Append(sampleRecord("ki", models.PhaseAwareness, false)); err != nil {
		t.Fatal(err)
	}

	err := store.Append(sampleRecord("ki", models.PhaseAwareness, false))
	var dup *DuplicatePostError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicatePostError, got %v", err)
	}
	if dup.EventID != "ki" || dup.Phase != models.PhaseAwareness {
		t.Errorf("unexpected pair in error: %+v", dup)
	}

	// Dry runs and other phases are still accepted.
	if err := store.Append(sampleRecord("ki", models.PhaseAwareness, true)); err != nil {
		t.Errorf("dry-run record refused: %v", err)
	}
	if err := store.Append(sampleRecord("ki", models.PhaseReminder, false)); err != nil {
		t.Errorf("other phase refused: %v", err)
	}

	ledger, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(ledger.Posts) != 3 {
		t.Fatalf("expected 3 records, got %d", len(ledger.Posts))
	}
}

func TestAppend_RejectsInvalidRecords(t *testing.T) {
	store := newTestLedgerStore(t)

	if err := store.Append(models.PostRecord{Phase: models.PhaseAwareness}); err == nil {
		t.Error("expected error for empty event id")
	}
	if err := store.Append(models.PostRecord{EventID: "x", Phase: "teaser"}); err == nil {
		t.Error("expected error for unknown phase")
	}
}

func TestLoad_CorruptState(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unparseable yaml", "posts: [unterminated\n"},
		{"empty document", "   \n"},
		{"missing event id", "version: \"1.0\"\nposts:\n  - phase: awareness\n    dry_run: false\n"},
		{"unknown phase", "version: \"1.0\"\nposts:\n  - event_id: a\n    phase: teaser\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestLedgerStore(t)
			if err := os.WriteFile(store.Path(), []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}

			_, err := store.Load()
			var corrupt *CorruptStateError
			if !errors.As(err, &corrupt) {
				t.Fatalf("expected CorruptStateError, got %v", err)
			}
			if corrupt.Path != store.Path() {
				t.Errorf("expected path %q, got %q", store.Path(), corrupt.Path)
			}

			if err := store.Append(sampleRecord("a", models.PhaseAwareness, false)); err == nil {
				t.Error("expected append to refuse a corrupt ledger")
			}
			data, _ := os.ReadFile(store.Path())
			if string(data) != tt.content {
				t.Error("corrupt ledger must not be overwritten")
			}
		})
	}
}

func TestAppend_ConcurrentAppendsAreSerialized(t *testing.T) {
	store := newTestLedgerStore(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := sampleRecord("event-"+string(rune('a'+i)), models.PhaseReminder, i%2 == 0)
			if err := store.Append(rec); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	ledger, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(ledger.Posts) != n {
		t.Fatalf("expected %d posts, got %d", n, len(ledger.Posts))
	}
}

func TestAppend_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewLedgerStore(dir)
	for i := 0; i < 3; i++ {
		if err := store.Append(sampleRecord("a", models.PhaseUrgency, true)); err != nil {
			t.Fatal(err)
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, ".tmp-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no temp files, found %v", matches)
	}
}
