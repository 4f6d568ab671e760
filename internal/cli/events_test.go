package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/valter-silva-au/event-promo/pkg/models"
)

func TestEventsCmd(t *testing.T) {
	tests := []struct {
		name    string
		mock    *pipelineMock
		json    bool
		want    []string
		wantErr string
	}{
		{
			name: "table",
			mock: &pipelineMock{events: []models.Event{
				{ID: "online-event-ki", Title: "KI in der Kommunalwirtschaft", Date: "12. März 2026", Type: "Web-Seminar"},
				{ID: "live-event-energie", Title: "Energie-Infotag", Date: "2. April 2026", Type: "Infotag"},
			}},
			want: []string{"ID", "online-event-ki", "Energie-Infotag", "Infotag", "2 event(s)"},
		},
		{
			name: "json",
			mock: &pipelineMock{events: []models.Event{{ID: "online-event-ki", Title: "KI"}}},
			json: true,
			want: []string{`"id": "online-event-ki"`},
		},
		{
			name: "empty",
			mock: &pipelineMock{},
			want: []string{"No events found."},
		},
		{
			name:    "source failure",
			mock:    &pipelineMock{eventsErr: errors.New("fetching events: timeout")},
			wantErr: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := Pipeline
			origJSON := eventsJSON
			defer func() {
				Pipeline = orig
				eventsJSON = origJSON
			}()
			Pipeline = tt.mock
			eventsJSON = tt.json

			var err error
			output := captureStdout(t, func() {
				err = eventsCmd.RunE(eventsCmd, []string{})
			})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(output, w) {
					t.Errorf("output missing %q:\n%s", w, output)
				}
			}
		})
	}
}

func TestEventsCmd_NilPipeline(t *testing.T) {
	orig := Pipeline
	defer func() { Pipeline = orig }()
	Pipeline = nil

	if err := eventsCmd.RunE(eventsCmd, []string{}); err == nil {
		t.Fatal("expected error when Pipeline is nil")
	}
}
