package integration

import (
	"context"
	"fmt"
	"os"

	"github.com/valter-silva-au/event-promo/pkg/models"
	"gopkg.in/yaml.v3"
)

// FileEventSource reads events from a YAML file, for offline runs and
// rehearsals against a fixed event list.
type FileEventSource struct {
	path string
}

// NewFileEventSource creates a FileEventSource for path.
func NewFileEventSource(path string) *FileEventSource {
	return &FileEventSource{path: path}
}

type eventFile struct {
	Events []models.Event `yaml:"events"`
}

// FetchEvents parses the file. Events without an id or title are rejected so
// that the ledger never receives an unkeyed record.
func (s *FileEventSource) FetchEvents(_ context.Context) ([]models.Event, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading event file: %w", err)
	}
	var f eventFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing event file: %w", err)
	}
	for i, ev := range f.Events {
		if ev.ID == "" || ev.Title == "" {
			return nil, fmt.Errorf("event file entry %d: id and title are required", i)
		}
		if ev.Date == "" {
			f.Events[i].Date = DefaultEventDate
		}
	}
	return f.Events, nil
}
