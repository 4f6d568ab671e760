package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/event-promo/internal/core"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

func saveScheduleState(t *testing.T) {
	t.Helper()
	origPipeline, origLoc, origNow := Pipeline, Location, nowFunc
	origExplain, origAt := scheduleExplain, scheduleAt
	t.Cleanup(func() {
		Pipeline, Location, nowFunc = origPipeline, origLoc, origNow
		scheduleExplain, scheduleAt = origExplain, origAt
	})
	Location = time.UTC
	nowFunc = func() time.Time { return testNow }
	scheduleExplain, scheduleAt = false, ""
}

func planMock() *pipelineMock {
	return &pipelineMock{decisions: []core.Decision{
		scheduledDecision("online-event-ki", "KI in der Kommunalwirtschaft", models.PhaseAwareness, 35),
		skippedDecision("online-event-recht", "Vergaberecht kompakt", core.SkipOutsideWindow, 10),
	}}
}

func TestScheduleCmd_DueUnits(t *testing.T) {
	saveScheduleState(t)
	mock := planMock()
	Pipeline = mock

	output := captureStdout(t, func() {
		if err := scheduleCmd.RunE(scheduleCmd, []string{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	if !mock.gotAt.Equal(testNow) {
		t.Errorf("planned at %v, want %v", mock.gotAt, testNow)
	}
	if !strings.Contains(output, "Wed 2026-03-04 10:00") {
		t.Errorf("output should show the instant:\n%s", output)
	}
	if !strings.Contains(output, "awareness") || !strings.Contains(output, "KI in der Kommunalwirtschaft") {
		t.Errorf("output should list the due unit:\n%s", output)
	}
	if strings.Contains(output, "Vergaberecht") {
		t.Errorf("skipped events should be hidden without --explain:\n%s", output)
	}
}

func TestScheduleCmd_Explain(t *testing.T) {
	saveScheduleState(t)
	Pipeline = planMock()
	scheduleExplain = true

	output := captureStdout(t, func() {
		if err := scheduleCmd.RunE(scheduleCmd, []string{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(output, "Skipped (1):") {
		t.Errorf("missing skipped section:\n%s", output)
	}
	if !strings.Contains(output, "10 days until event is outside every window") {
		t.Errorf("missing skip reason:\n%s", output)
	}
}

func TestScheduleCmd_At(t *testing.T) {
	saveScheduleState(t)
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	Location = berlin
	mock := &pipelineMock{}
	Pipeline = mock
	scheduleAt = "2026-03-06 15:00"

	output := captureStdout(t, func() {
		if err := scheduleCmd.RunE(scheduleCmd, []string{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	want := time.Date(2026, 3, 6, 15, 0, 0, 0, berlin)
	if !mock.gotAt.Equal(want) {
		t.Errorf("planned at %v, want %v", mock.gotAt, want)
	}
	if !strings.Contains(output, "No units due.") {
		t.Errorf("unexpected output:\n%s", output)
	}
}

func TestScheduleCmd_InvalidAt(t *testing.T) {
	saveScheduleState(t)
	Pipeline = planMock()
	scheduleAt = "next friday"

	err := scheduleCmd.RunE(scheduleCmd, []string{})
	if err == nil || !strings.Contains(err.Error(), "parsing --at") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestScheduleCmd_PlanError(t *testing.T) {
	saveScheduleState(t)
	Pipeline = &pipelineMock{planErr: errors.New("loading ledger: corrupt")}

	err := scheduleCmd.RunE(scheduleCmd, []string{})
	if err == nil || !strings.Contains(err.Error(), "corrupt") {
		t.Errorf("unexpected error: %v", err)
	}
}
