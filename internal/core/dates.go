package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	numericDatePattern = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	isoDatePattern     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})`)
	namedDatePattern   = regexp.MustCompile(`(\d{1,2})\.\s*(\p{L}+)\.?\s+(\d{4})`)
)

// germanMonths is keyed by folded month name (see foldMonthName).
var germanMonths = map[string]time.Month{
	"januar":    time.January,
	"jaenner":   time.January,
	"februar":   time.February,
	"maerz":     time.March,
	"april":     time.April,
	"mai":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"august":    time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"dezember":  time.December,

	"jan":  time.January,
	"feb":  time.February,
	"maer": time.March,
	"mar":  time.March,
	"mrz":  time.March,
	"apr":  time.April,
	"jun":  time.June,
	"jul":  time.July,
	"aug":  time.August,
	"sep":  time.September,
	"sept": time.September,
	"okt":  time.October,
	"nov":  time.November,
	"dez":  time.December,
}

var umlautFolder = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")

// foldMonthName lowercases a month name and spells umlauts in ASCII so that
// "März", "MÄRZ", "Maerz" and decomposed forms all map to "maerz".
func foldMonthName(s string) string {
	s = norm.NFC.String(s)
	s = cases.Lower(language.German).String(s)
	return umlautFolder.Replace(s)
}

// ParseEventDate resolves a free-text German event date to midnight of that
// day in loc. Numeric dates ("24.03.2026") win over ISO dates ("2026-03-24"),
// which win over named or abbreviated months ("24. März 2026", "24. Mrz.
// 2026"); for ranges the first complete numeric date is used.
func ParseEventDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	input := s
	s = norm.NFC.String(s)
	if m := numericDatePattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		return buildDate(input, m[3], time.Month(month), m[1], loc)
	}
	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		return buildDate(input, m[1], time.Month(month), m[3], loc)
	}
	if m := namedDatePattern.FindStringSubmatch(s); m != nil {
		month, ok := germanMonths[foldMonthName(m[2])]
		if !ok {
			return time.Time{}, &DateParseError{Input: input, Reason: fmt.Sprintf("unknown month %q", m[2])}
		}
		return buildDate(input, m[3], month, m[1], loc)
	}
	return time.Time{}, &DateParseError{Input: input, Reason: "no recognised date"}
}

func buildDate(input, yearStr string, month time.Month, dayStr string, loc *time.Location) (time.Time, error) {
	year, _ := strconv.Atoi(yearStr)
	day, _ := strconv.Atoi(dayStr)
	if month < time.January || month > time.December {
		return time.Time{}, &DateParseError{Input: input, Reason: fmt.Sprintf("month %d out of range", month)}
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, &DateParseError{Input: input, Reason: fmt.Sprintf("%d.%d.%d is not a calendar day", day, month, year)}
	}
	return t, nil
}

// DaysUntil counts whole calendar days from now to date, both taken in loc.
// It is negative for past dates and zero on the event day itself.
func DaysUntil(date, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	dy, dm, dd := date.In(loc).Date()
	ny, nm, nd := now.In(loc).Date()
	a := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}
