package models

import "time"

// LedgerVersion is the schema version written to new ledger files.
const LedgerVersion = "1.0"

// PostRecord is one ledger entry describing a post made or a dry-run attempt.
type PostRecord struct {
	EventID        string    `yaml:"event_id" json:"event_id"`
	Phase          Phase     `yaml:"phase" json:"phase"`
	PostedAt       time.Time `yaml:"posted_at" json:"posted_at"`
	ExternalPostID string    `yaml:"external_post_id,omitempty" json:"external_post_id,omitempty"`
	Artifact       string    `yaml:"artifact,omitempty" json:"artifact,omitempty"`
	DryRun         bool      `yaml:"dry_run" json:"dry_run"`
}

// Ledger is the complete persisted post history.
type Ledger struct {
	Version string       `yaml:"version"`
	Posts   []PostRecord `yaml:"posts"`
}

// NewLedger returns an empty ledger at the current schema version.
func NewLedger() *Ledger {
	return &Ledger{Version: LedgerVersion, Posts: []PostRecord{}}
}

// HasBeenPosted reports whether a non-dry-run record exists for the pair.
// Dry-run records never count.
func (l *Ledger) HasBeenPosted(eventID string, phase Phase) bool {
	if l == nil {
		return false
	}
	for _, p := range l.Posts {
		if p.EventID == eventID && p.Phase == phase && !p.DryRun {
			return true
		}
	}
	return false
}

// PostsFor returns every record for the given event, oldest first.
func (l *Ledger) PostsFor(eventID string) []PostRecord {
	if l == nil {
		return nil
	}
	var out []PostRecord
	for _, p := range l.Posts {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out
}
