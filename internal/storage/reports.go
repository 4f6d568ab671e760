package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/valter-silva-au/event-promo/pkg/models"
	"gopkg.in/yaml.v3"
)

const (
	reportPrefix = "report-"
	reportSuffix = ".yaml"
)

// ReportStore keeps one RunReport per calendar date.
type ReportStore interface {
	// Write stores the report under its date, replacing any earlier report
	// for the same date.
	Write(report models.RunReport) (string, error)
	// Get returns the report for a YYYY-MM-DD date.
	Get(date string) (*models.RunReport, error)
	// Latest returns the most recent report, or nil when none exist.
	Latest() (*models.RunReport, error)
	// Dates lists the dates that have a report, oldest first.
	Dates() ([]string, error)
}

type fileReportStore struct {
	dir string
}

// NewReportStore creates a ReportStore writing report-<date>.yaml files into dir.
func NewReportStore(dir string) ReportStore {
	return &fileReportStore{dir: dir}
}

func (s *fileReportStore) pathFor(date string) string {
	return filepath.Join(s.dir, reportPrefix+date+reportSuffix)
}

func (s *fileReportStore) Write(report models.RunReport) (string, error) {
	if report.Date == "" {
		return "", fmt.Errorf("writing run report: date must not be empty")
	}
	if report.Errors == nil {
		report.Errors = []string{}
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("writing run report: creating directory: %w", err)
	}
	data, err := yaml.Marshal(&report)
	if err != nil {
		return "", fmt.Errorf("writing run report: marshaling YAML: %w", err)
	}
	path := s.pathFor(report.Date)
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing run report: %w", err)
	}
	return path, nil
}

func (s *fileReportStore) Get(date string) (*models.RunReport, error) {
	data, err := os.ReadFile(s.pathFor(date))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no run report for %s", date)
		}
		return nil, fmt.Errorf("reading run report: %w", err)
	}
	var report models.RunReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("reading run report: parsing YAML: %w", err)
	}
	return &report, nil
}

func (s *fileReportStore) Latest() (*models.RunReport, error) {
	dates, err := s.Dates()
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, nil
	}
	return s.Get(dates[len(dates)-1])
}

func (s *fileReportStore) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing run reports: %w", err)
	}
	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, reportPrefix) || !strings.HasSuffix(name, reportSuffix) {
			continue
		}
		dates = append(dates, strings.TrimSuffix(strings.TrimPrefix(name, reportPrefix), reportSuffix))
	}
	sort.Strings(dates)
	return dates, nil
}
