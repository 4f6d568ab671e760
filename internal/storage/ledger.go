// Package storage persists the post ledger and run reports as YAML documents
// under the data directory.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/valter-silva-au/event-promo/pkg/models"
	"gopkg.in/yaml.v3"
)

// CorruptStateError is returned when the ledger file exists but is not a
// well-formed ledger. Unreadable state is surfaced, never discarded.
type CorruptStateError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CorruptStateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt ledger %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupt ledger %s: %s", e.Path, e.Reason)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// DuplicatePostError is returned when a second non-dry-run record is
// appended for an (event, phase) pair.
type DuplicatePostError struct {
	EventID string
	Phase   models.Phase
}

func (e *DuplicatePostError) Error() string {
	return fmt.Sprintf("%s already published for event %s", e.Phase, e.EventID)
}

// LedgerStore is the durable record of every post made or dry-run attempted.
type LedgerStore interface {
	// Load returns the full ledger, bootstrapping an empty one on first use.
	Load() (*models.Ledger, error)
	// HasBeenPosted reports whether a non-dry-run record exists for the pair.
	HasBeenPosted(eventID string, phase models.Phase) (bool, error)
	// Append durably adds one record with a full read-modify-write. A second
	// non-dry-run record for a pair is refused with *DuplicatePostError.
	Append(record models.PostRecord) error
	// Path returns the location of the backing file.
	Path() string
}

type fileLedgerStore struct {
	path string
	mu   sync.Mutex
}

// NewLedgerStore creates a LedgerStore backed by state.yaml in dataDir.
func NewLedgerStore(dataDir string) LedgerStore {
	return &fileLedgerStore{path: filepath.Join(dataDir, "state.yaml")}
}

func (s *fileLedgerStore) Path() string {
	return s.path
}

func (s *fileLedgerStore) lockPath() string {
	return s.path + ".lock"
}

func (s *fileLedgerStore) Load() (*models.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *fileLedgerStore) HasBeenPosted(eventID string, phase models.Phase) (bool, error) {
	ledger, err := s.Load()
	if err != nil {
		return false, err
	}
	return ledger.HasBeenPosted(eventID, phase), nil
}

func (s *fileLedgerStore) Append(record models.PostRecord) error {
	if record.EventID == "" {
		return fmt.Errorf("appending post record: event id must not be empty")
	}
	if !record.Phase.Valid() {
		return fmt.Errorf("appending post record: unknown phase %q", record.Phase)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("appending post record: creating directory: %w", err)
	}
	unlock, err := lockFile(s.lockPath())
	if err != nil {
		return fmt.Errorf("appending post record: %w", err)
	}
	defer func() { _ = unlock() }()

	ledger, err := s.loadLocked()
	if err != nil {
		return fmt.Errorf("appending post record: %w", err)
	}
	if !record.DryRun && ledger.HasBeenPosted(record.EventID, record.Phase) {
		return fmt.Errorf("appending post record: %w", &DuplicatePostError{EventID: record.EventID, Phase: record.Phase})
	}
	ledger.Posts = append(ledger.Posts, record)
	if err := s.saveLocked(ledger); err != nil {
		return fmt.Errorf("appending post record: %w", err)
	}
	return nil
}

// loadLocked reads and validates the ledger file. Callers hold s.mu.
func (s *fileLedgerStore) loadLocked() (*models.Ledger, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ledger := models.NewLedger()
			if err := s.saveLocked(ledger); err != nil {
				return nil, fmt.Errorf("initializing ledger: %w", err)
			}
			return ledger, nil
		}
		return nil, fmt.Errorf("loading ledger: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &CorruptStateError{Path: s.path, Reason: "empty document"}
	}

	var ledger models.Ledger
	if err := yaml.Unmarshal(data, &ledger); err != nil {
		return nil, &CorruptStateError{Path: s.path, Reason: "parsing YAML", Err: err}
	}
	for i, p := range ledger.Posts {
		if p.EventID == "" {
			return nil, &CorruptStateError{Path: s.path, Reason: fmt.Sprintf("record %d has no event id", i)}
		}
		if !p.Phase.Valid() {
			return nil, &CorruptStateError{Path: s.path, Reason: fmt.Sprintf("record %d has unknown phase %q", i, p.Phase)}
		}
	}
	if ledger.Posts == nil {
		ledger.Posts = []models.PostRecord{}
	}
	if ledger.Version == "" {
		ledger.Version = models.LedgerVersion
	}
	return &ledger, nil
}

func (s *fileLedgerStore) saveLocked(ledger *models.Ledger) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("saving ledger: creating directory: %w", err)
	}
	data, err := yaml.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("saving ledger: marshaling YAML: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	return nil
}
