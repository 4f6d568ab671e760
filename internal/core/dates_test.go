package core

import (
	"errors"
	"testing"
	"time"
)

var testLoc = time.FixedZone("CET", 3600)

func TestParseEventDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"numeric", "24.03.2026", "2026-03-24"},
		{"numeric single digits", "Termin: 4.3.2026, 10:00 Uhr", "2026-03-04"},
		{"numeric range takes first full date", "24.03.2026 - 25.03.2026", "2026-03-24"},
		{"partial range takes first full date", "24. - 25.03.2026", "2026-03-25"},
		{"named month", "24. Juni 2026", "2026-06-24"},
		{"named month without space", "1.Oktober 2026", "2026-10-01"},
		{"umlaut", "3. März 2026", "2026-03-03"},
		{"ascii folded umlaut", "3. Maerz 2026", "2026-03-03"},
		{"upper case", "3. MÄRZ 2026", "2026-03-03"},
		{"decomposed umlaut", "3. Ma\u0308rz 2026", "2026-03-03"},
		{"numeric wins over named", "24. Juni 2026 (01.07.2026)", "2026-07-01"},
		{"iso", "2026-04-08", "2026-04-08"},
		{"iso with time", "2026-04-08T10:00:00+02:00", "2026-04-08"},
		{"abbreviated month", "8. Apr 2026", "2026-04-08"},
		{"abbreviated month with dot", "20. Mrz. 2026", "2026-03-20"},
		{"abbreviated umlaut", "20. Mär 2026", "2026-03-20"},
		{"ascii abbreviation", "20. mar 2026", "2026-03-20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEventDate(tt.input, testLoc)
			if err != nil {
				t.Fatalf("ParseEventDate(%q) error: %v", tt.input, err)
			}
			if s := got.Format("2006-01-02"); s != tt.want {
				t.Errorf("ParseEventDate(%q) = %s, want %s", tt.input, s, tt.want)
			}
			if got.Location() != testLoc {
				t.Errorf("expected date in %v, got %v", testLoc, got.Location())
			}
		})
	}
}

func TestParseEventDate_Errors(t *testing.T) {
	inputs := []string{
		"",
		"Termin wird bekannt gegeben",
		"31.02.2026",
		"12.13.2026",
		"0.05.2026",
		"2026-02-30",
		"2026-13-01",
		"24. Brumaire 2026",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ParseEventDate(in, testLoc)
			var dpe *DateParseError
			if !errors.As(err, &dpe) {
				t.Fatalf("ParseEventDate(%q) expected DateParseError, got %v", in, err)
			}
			if dpe.Input != in {
				t.Errorf("expected input %q in error, got %q", in, dpe.Input)
			}
		})
	}
}

func TestDaysUntil(t *testing.T) {
	event := time.Date(2026, 3, 10, 0, 0, 0, 0, testLoc)
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"morning", time.Date(2026, 3, 4, 8, 0, 0, 0, testLoc), 6},
		{"late evening", time.Date(2026, 3, 4, 23, 59, 0, 0, testLoc), 6},
		{"event day", time.Date(2026, 3, 10, 18, 0, 0, 0, testLoc), 0},
		{"day after", time.Date(2026, 3, 11, 0, 1, 0, 0, testLoc), -1},
		{"utc instant on next local day", time.Date(2026, 3, 4, 23, 30, 0, 0, time.UTC), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntil(event, tt.now, testLoc); got != tt.want {
				t.Errorf("DaysUntil = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDaysUntil_AcrossDSTChange(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	event := time.Date(2026, 4, 2, 0, 0, 0, 0, berlin)
	now := time.Date(2026, 3, 25, 12, 0, 0, 0, berlin)
	if got := DaysUntil(event, now, berlin); got != 8 {
		t.Errorf("DaysUntil across DST = %d, want 8", got)
	}
}
