package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/valter-silva-au/event-promo/internal/core"
	"github.com/valter-silva-au/event-promo/internal/observability"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

func saveRunState(t *testing.T) {
	t.Helper()
	origPipeline := Pipeline
	origNotifier := Notifier
	origDry, origOne, origRender, origVerify, origEvent := runDryRun, runPostOne, runSkipRender, runSkipVerification, runEvent
	t.Cleanup(func() {
		Pipeline = origPipeline
		Notifier = origNotifier
		runDryRun, runPostOne, runSkipRender, runSkipVerification, runEvent = origDry, origOne, origRender, origVerify, origEvent
	})
}

func TestRunCmd_NilPipeline(t *testing.T) {
	saveRunState(t)
	Pipeline = nil

	err := runCmd.RunE(runCmd, []string{})
	if err == nil {
		t.Fatal("expected error when Pipeline is nil")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunCmd_PassesFlagsAsOptions(t *testing.T) {
	saveRunState(t)
	mock := &pipelineMock{report: &models.RunReport{Date: "2026-03-04", DryRun: true, Errors: []string{}}}
	Pipeline = mock
	Notifier = nil
	runDryRun = true
	runPostOne = true
	runSkipRender = true
	runSkipVerification = true
	runEvent = "ki-2026"

	captureStdout(t, func() {
		if err := runCmd.RunE(runCmd, []string{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	want := core.RunOptions{DryRun: true, PostOne: true, SkipRender: true, SkipVerification: true, EventID: "ki-2026"}
	if mock.gotOpts != want {
		t.Errorf("options = %+v, want %+v", mock.gotOpts, want)
	}
}

func TestRunCmd_SuccessPrintsReportAndNotifies(t *testing.T) {
	saveRunState(t)
	report := &models.RunReport{
		Date:            "2026-03-04",
		RunID:           "run-1",
		EventsScraped:   4,
		EventsScheduled: 1,
		VideosGenerated: 1,
		VideosPublished: 1,
		Errors:          []string{},
		Posts: []models.PostSummary{{
			EventID:        "online-event-ki",
			Event:          "KI in der Kommunalwirtschaft",
			Phase:          models.PhaseAwareness,
			Outcome:        models.OutcomePublished,
			ExternalPostID: "ig-42",
		}},
	}
	Pipeline = &pipelineMock{report: report}
	notifier := &notifierMock{}
	Notifier = notifier
	runDryRun, runPostOne, runSkipRender, runSkipVerification, runEvent = false, false, false, false, ""

	var err error
	output := captureStdout(t, func() {
		err = runCmd.RunE(runCmd, []string{})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Run 2026-03-04 (live)", "Videos published:", "KI in der Kommunalwirtschaft", "post id ig-42"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if len(notifier.runs) != 1 {
		t.Errorf("expected one run notification, got %d", len(notifier.runs))
	}
}

func TestRunCmd_ErrorsExitNonZero(t *testing.T) {
	saveRunState(t)
	report := &models.RunReport{
		Date:   "2026-03-04",
		DryRun: true,
		Errors: []string{"KI-Tag: verification failed: speaker name mismatch"},
	}
	Pipeline = &pipelineMock{report: report}
	notifier := &notifierMock{}
	Notifier = notifier

	var err error
	output := captureStdout(t, func() {
		err = runCmd.RunE(runCmd, []string{})
	})
	if err == nil {
		t.Fatal("expected error when the report lists errors")
	}
	if !strings.Contains(err.Error(), "1 error(s)") {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "speaker name mismatch") {
		t.Errorf("output should list the error:\n%s", output)
	}
	if len(notifier.runs) != 1 {
		t.Errorf("runs with errors should be notified, got %d notifications", len(notifier.runs))
	}
}

func TestRunCmd_QuietDryRunIsNotNotified(t *testing.T) {
	saveRunState(t)
	Pipeline = &pipelineMock{report: &models.RunReport{Date: "2026-03-04", DryRun: true, VideosGenerated: 1, Errors: []string{}}}
	notifier := &notifierMock{}
	Notifier = notifier

	captureStdout(t, func() {
		if err := runCmd.RunE(runCmd, []string{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if len(notifier.runs) != 0 {
		t.Errorf("expected no notification, got %d", len(notifier.runs))
	}
}

func TestRunCmd_NotifierFailureDoesNotFailRun(t *testing.T) {
	saveRunState(t)
	Pipeline = &pipelineMock{report: &models.RunReport{Date: "2026-03-04", VideosPublished: 1, Errors: []string{}}}
	Notifier = &notifierMock{err: errors.New("webhook down")}

	captureStdout(t, func() {
		if err := runCmd.RunE(runCmd, []string{}); err != nil {
			t.Fatalf("notification failure should not fail the run: %v", err)
		}
	})
}

func TestRunCmd_FatalRunStillPrintsReport(t *testing.T) {
	saveRunState(t)
	fetchErr := errors.New("fetching events: unexpected status 503")
	Pipeline = &pipelineMock{
		report: &models.RunReport{Date: "2026-03-04", Errors: []string{fetchErr.Error()}},
		runErr: fetchErr,
	}
	Notifier = nil

	var err error
	output := captureStdout(t, func() {
		err = runCmd.RunE(runCmd, []string{})
	})
	if err == nil {
		t.Fatal("expected error for a run-fatal failure")
	}
	if !strings.Contains(output, "unexpected status 503") {
		t.Errorf("report should be printed with the fatal error:\n%s", output)
	}
}

func TestRunCmd_NoReport(t *testing.T) {
	saveRunState(t)
	Pipeline = &pipelineMock{runErr: errors.New("boom")}

	err := runCmd.RunE(runCmd, []string{})
	if err == nil || !strings.Contains(err.Error(), "running pipeline: boom") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNotifyRun_NilNotifier(t *testing.T) {
	orig := Notifier
	defer func() { Notifier = orig }()
	Notifier = nil

	// Must not panic.
	notifyRun(&models.RunReport{VideosPublished: 1})
}

func TestRunCmd_FlagsRegistered(t *testing.T) {
	for _, name := range []string{"dry-run", "post-one", "skip-render", "skip-verification", "event"} {
		if runCmd.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s not registered", name)
		}
	}
}

var _ observability.Notifier = (*notifierMock)(nil)
