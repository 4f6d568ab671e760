package core

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

// Campaign windows in days before the event, inclusive on both ends.
var phaseWindows = []struct {
	phase    models.Phase
	min, max int
}{
	{models.PhaseAwareness, 28, 42},
	{models.PhaseReminder, 14, 21},
	{models.PhaseUrgency, 5, 7},
}

// lateFridayHour is the local hour from which nothing is posted on a Friday.
const lateFridayHour = 14

// ManualDaysUntil is the distance assumed for a forced unit whose event date
// cannot be parsed.
const ManualDaysUntil = 30

// SkipReason explains why an event produced no unit.
type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipDateUnparsed  SkipReason = "date_unparseable"
	SkipPast          SkipReason = "past"
	SkipOutsideWindow SkipReason = "outside_window"
	SkipAlreadyPosted SkipReason = "already_posted"
	SkipSuboptimalDay SkipReason = "suboptimal_day"
	SkipLateFriday    SkipReason = "late_friday"
	SkipDuplicate     SkipReason = "duplicate"
)

// PostHistory answers whether a pair has already been published. A
// *models.Ledger snapshot satisfies it.
type PostHistory interface {
	HasBeenPosted(eventID string, phase models.Phase) bool
}

// Decision is the scheduler's verdict for one event.
type Decision struct {
	Event     models.Event
	Phase     models.Phase
	DaysUntil int
	Unit      *models.ScheduledUnit
	Skip      SkipReason
	Err       error
}

// Scheduled reports whether the decision produced a unit.
func (d Decision) Scheduled() bool { return d.Unit != nil }

// Describe renders the decision as a short human-readable line.
func (d Decision) Describe() string {
	switch d.Skip {
	case SkipNone:
		return fmt.Sprintf("scheduled %s (%d days)", d.Phase, d.DaysUntil)
	case SkipDateUnparsed:
		return fmt.Sprintf("skipped: %v", d.Err)
	case SkipPast:
		return fmt.Sprintf("skipped: event was %d days ago", -d.DaysUntil)
	case SkipOutsideWindow:
		return fmt.Sprintf("skipped: %d days until event is outside every window", d.DaysUntil)
	case SkipAlreadyPosted:
		return fmt.Sprintf("skipped: %s already posted", d.Phase)
	case SkipSuboptimalDay:
		return fmt.Sprintf("skipped: %s only posts Tuesday to Thursday", d.Phase)
	case SkipLateFriday:
		return "skipped: no posts on Friday afternoon"
	case SkipDuplicate:
		return fmt.Sprintf("skipped: %s already scheduled for a duplicate listing", d.Phase)
	}
	return string(d.Skip)
}

// Scheduler decides which (event, phase) units are due on a given day. It
// has no side effects apart from diagnostic logging.
type Scheduler struct {
	loc    *time.Location
	logger logrus.FieldLogger
}

// NewScheduler creates a Scheduler evaluating weekdays and calendar days in
// loc. A nil logger discards diagnostics.
func NewScheduler(loc *time.Location, logger logrus.FieldLogger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Scheduler{loc: loc, logger: logger}
}

// Location returns the time zone the scheduler works in.
func (s *Scheduler) Location() *time.Location { return s.loc }

// ClassifyPhase maps days-until-event to a campaign phase. Days in the dead
// zones between windows yield false. Last-call is never produced.
func ClassifyPhase(daysUntil int) (models.Phase, bool) {
	for _, w := range phaseWindows {
		if daysUntil >= w.min && daysUntil <= w.max {
			return w.phase, true
		}
	}
	return "", false
}

// IsOptimalDay reports whether t falls on Tuesday, Wednesday or Thursday.
func IsOptimalDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Tuesday, time.Wednesday, time.Thursday:
		return true
	}
	return false
}

// IsLateFriday reports whether t is a Friday at or after 14:00.
func IsLateFriday(t time.Time) bool {
	return t.Weekday() == time.Friday && t.Hour() >= lateFridayHour
}

// Evaluate returns one Decision per event, in input order. An (event,
// phase) pair is scheduled at most once; later listings of the same event
// are skipped as duplicates.
func (s *Scheduler) Evaluate(events []models.Event, now time.Time, history PostHistory) []Decision {
	local := now.In(s.loc)
	decisions := make([]Decision, 0, len(events))
	scheduled := make(map[unitKey]bool)
	for _, ev := range events {
		d := s.evaluate(ev, local, history)
		if d.Unit != nil {
			key := unitKey{eventID: ev.ID, phase: d.Phase}
			if scheduled[key] {
				s.logger.WithFields(logrus.Fields{"event": ev.ID, "phase": d.Phase}).Warn("duplicate event listing skipped")
				d.Unit, d.Skip = nil, SkipDuplicate
			}
			scheduled[key] = true
		}
		decisions = append(decisions, d)
	}
	return decisions
}

// unitKey identifies one (event, phase) pair.
type unitKey struct {
	eventID string
	phase   models.Phase
}

// Schedule returns the units due at now, preserving the order of events.
func (s *Scheduler) Schedule(events []models.Event, now time.Time, history PostHistory) []models.ScheduledUnit {
	var units []models.ScheduledUnit
	for _, d := range s.Evaluate(events, now, history) {
		if d.Unit != nil {
			units = append(units, *d.Unit)
		}
	}
	return units
}

// Force decides on an explicitly requested event, bypassing the phase
// windows and weekday rules. An in-window phase is used when there is one;
// otherwise an awareness unit is forced. Past events and pairs that have
// already been posted produce no unit.
func (s *Scheduler) Force(ev models.Event, now time.Time, history PostHistory) Decision {
	d := s.evaluate(ev, now.In(s.loc), history)
	switch {
	case d.Unit != nil:
		return d
	case d.Skip == SkipPast, d.Skip == SkipAlreadyPosted:
		s.logger.WithField("event", ev.ID).Infof("forced event not scheduled: %s", d.Describe())
		return d
	}

	phase := d.Phase
	if phase == "" {
		phase = models.PhaseAwareness
	}
	days := d.DaysUntil
	if d.Skip == SkipDateUnparsed {
		days = ManualDaysUntil
	}
	forced := Decision{Event: ev, Phase: phase, DaysUntil: days}
	if history != nil && history.HasBeenPosted(ev.ID, phase) {
		forced.Skip = SkipAlreadyPosted
		return forced
	}
	unit := newUnit(ev, phase, days)
	forced.Unit = &unit
	return forced
}

func (s *Scheduler) evaluate(ev models.Event, local time.Time, history PostHistory) Decision {
	d := Decision{Event: ev}

	date, err := ParseEventDate(ev.Date, s.loc)
	if err != nil {
		var dpe *DateParseError
		if errors.As(err, &dpe) {
			dpe.EventID = ev.ID
		}
		s.logger.WithField("event", ev.ID).Warnf("skipping event: %v", err)
		d.Skip, d.Err = SkipDateUnparsed, err
		return d
	}

	d.DaysUntil = DaysUntil(date, local, s.loc)
	if d.DaysUntil < 0 {
		d.Skip = SkipPast
		return d
	}

	phase, ok := ClassifyPhase(d.DaysUntil)
	if !ok {
		d.Skip = SkipOutsideWindow
		return d
	}
	d.Phase = phase

	if history != nil && history.HasBeenPosted(ev.ID, phase) {
		s.logger.WithFields(logrus.Fields{"event": ev.ID, "phase": phase}).Debug("already posted")
		d.Skip = SkipAlreadyPosted
		return d
	}

	if IsLateFriday(local) {
		d.Skip = SkipLateFriday
		return d
	}
	if (phase == models.PhaseAwareness || phase == models.PhaseReminder) && !IsOptimalDay(local) {
		d.Skip = SkipSuboptimalDay
		return d
	}

	unit := newUnit(ev, phase, d.DaysUntil)
	d.Unit = &unit
	return d
}

func newUnit(ev models.Event, phase models.Phase, days int) models.ScheduledUnit {
	profile := models.ProfileFor(phase)
	return models.ScheduledUnit{
		Event:          ev,
		Phase:          phase,
		Format:         profile.Format,
		Style:          profile.Style,
		DaysUntilEvent: days,
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
