package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<div class="view-content">
  <article class="event-teaser">
    <div class="card-item--image"><img src="/sites/default/files/ki.jpg"></div>
    <div class="card-item--title"><h2><a href="/online-event/ki-in-der-wasserwirtschaft">
      <span class="field field--name-title">KI in der  Wasserwirtschaft</span></a></h2></div>
    <div class="field--name-field-event-date">18.03.2026</div>
    <div class="field--name-field-event-teaser"><p>Wie kommunale Unternehmen KI einsetzen.</p></div>
  </article>
  <article class="event-teaser">
    <div class="card-item--title"><h2><a href="/live-event/infotag-netze">
      <span class="field--name-title">Infotag Netze</span></a></h2></div>
  </article>
  <article class="event-teaser">
    <div class="card-item--title"><h2><a href="/online-event/x"><span class="field--name-title">XY</span></a></h2></div>
  </article>
  <article class="event-teaser">
    <div class="card-item--title"><h2><span class="field--name-title">Ohne Link</span></h2></div>
  </article>
  <article class="news-teaser">
    <div class="card-item--title"><h2><a href="/news/1"><span class="field--name-title">Pressemitteilung</span></a></h2></div>
  </article>
</div>
</body></html>`

func fastHTTP() HTTPConfig {
	return HTTPConfig{Timeout: 5 * time.Second, MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestParseEventListing(t *testing.T) {
	base, _ := url.Parse("https://www.kommunaldigital.de/vku-akademie")
	events, err := ParseEventListing([]byte(listingPage), base)
	if err != nil {
		t.Fatalf("ParseEventListing() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}

	first := events[0]
	if first.ID != "online-event-ki-in-der-wasserwirtschaft" {
		t.Errorf("ID = %q", first.ID)
	}
	if first.Title != "KI in der Wasserwirtschaft" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Date != "18.03.2026" {
		t.Errorf("Date = %q", first.Date)
	}
	if first.Type != "Web-Seminar" {
		t.Errorf("Type = %q", first.Type)
	}
	if first.Description != "Wie kommunale Unternehmen KI einsetzen." {
		t.Errorf("Description = %q", first.Description)
	}
	if first.URL != "https://www.kommunaldigital.de/online-event/ki-in-der-wasserwirtschaft" {
		t.Errorf("URL = %q", first.URL)
	}
	if first.Image != "https://www.kommunaldigital.de/sites/default/files/ki.jpg" {
		t.Errorf("Image = %q", first.Image)
	}

	second := events[1]
	if second.Type != "Infotag" {
		t.Errorf("live event Type = %q, want Infotag", second.Type)
	}
	if second.Date != DefaultEventDate {
		t.Errorf("missing date = %q, want default", second.Date)
	}
	if second.Description != "Infotag Netze" {
		t.Errorf("missing teaser should fall back to title, got %q", second.Description)
	}
}

func TestParseEventListing_DropsRepeatedCards(t *testing.T) {
	card := `<article class="event-teaser">
    <div class="card-item--title"><h2><a href="/online-event/ki-in-der-wasserwirtschaft">
      <span class="field--name-title">KI in der Wasserwirtschaft</span></a></h2></div>
    <div class="field--name-field-event-date">%s</div>
  </article>`
	page := "<html><body>" + fmt.Sprintf(card, "18.03.2026") + fmt.Sprintf(card, "19.03.2026") + "</body></html>"

	events, err := ParseEventListing([]byte(page), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %+v", len(events), events)
	}
	if events[0].Date != "18.03.2026" {
		t.Errorf("expected the first card to win, got date %q", events[0].Date)
	}
}

func TestParseEventListing_EmptyPage(t *testing.T) {
	events, err := ParseEventListing([]byte("<html><body><p>Keine Termine</p></body></html>"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestEventIDFromHref(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"/online-event/ki-2026", "online-event-ki-2026"},
		{"https://www.kommunaldigital.de/live-event/netze", "live-event-netze"},
		{"/", "event-7"},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if got := eventIDFromHref(tt.href, 7); got != tt.want {
				t.Errorf("eventIDFromHref(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestWebEventSource_FetchEventsWithEnrichment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/vku-akademie", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage)
	})
	mux.HandleFunc("/online-event/ki-in-der-wasserwirtschaft", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta name="description" content="Praxisnahes Web-Seminar zu KI."></head>
<body><div class="event-speaker">Dr. Anna Schmidt</div></body></html>`)
	})
	mux.HandleFunc("/live-event/infotag-netze", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src, err := NewWebEventSource(WebEventSourceConfig{
		ListingURL:    srv.URL + "/vku-akademie",
		EnrichDetails: true,
		HTTP:          fastHTTP(),
		Logger:        discardTestLogger(),
	})
	if err != nil {
		t.Fatalf("NewWebEventSource() error = %v", err)
	}
	events, err := src.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Description != "Praxisnahes Web-Seminar zu KI." {
		t.Errorf("enriched description = %q", events[0].Description)
	}
	if events[0].Speaker != "Dr. Anna Schmidt" {
		t.Errorf("enriched speaker = %q", events[0].Speaker)
	}
	if !strings.HasPrefix(events[0].URL, srv.URL) {
		t.Errorf("URL should resolve against the listing host, got %q", events[0].URL)
	}
	if events[1].Description != "Infotag Netze" {
		t.Errorf("failing detail page should keep teaser data, got %q", events[1].Description)
	}
}

func TestWebEventSource_ListingFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src, err := NewWebEventSource(WebEventSourceConfig{ListingURL: srv.URL, HTTP: fastHTTP()})
	if err != nil {
		t.Fatalf("NewWebEventSource() error = %v", err)
	}
	if _, err := src.FetchEvents(context.Background()); err == nil {
		t.Fatal("expected error for unavailable listing")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 1 attempt plus 2 retries, got %d", got)
	}
}

func TestNewWebEventSource_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "not a url", "/relative/only"} {
		if _, err := NewWebEventSource(WebEventSourceConfig{ListingURL: u}); err == nil {
			t.Errorf("expected error for %q", u)
		}
	}
}

func TestFileEventSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.yaml")
	content := `events:
  - id: online-event-ki
    title: KI im Stadtwerk
    date: "18.03.2026"
    type: Web-Seminar
    url: https://example.com/online-event/ki
  - id: live-event-netze
    title: Infotag Netze
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	events, err := NewFileEventSource(path).FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Date != "18.03.2026" {
		t.Errorf("Date = %q", events[0].Date)
	}
	if events[1].Date != DefaultEventDate {
		t.Errorf("missing date should default, got %q", events[1].Date)
	}
}

func TestFileEventSource_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing id", content: "events:\n  - title: Ohne ID\n"},
		{name: "missing title", content: "events:\n  - id: x\n"},
		{name: "invalid yaml", content: "events: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "-")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := NewFileEventSource(path).FetchEvents(context.Background()); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := NewFileEventSource(filepath.Join(dir, "absent.yaml")).FetchEvents(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}
