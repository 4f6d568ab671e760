package integration

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/valter-silva-au/event-promo/pkg/models"
	"golang.org/x/net/html"
)

const (
	// DefaultEventDate is used when a teaser card has no date.
	DefaultEventDate = "Termin wird bekannt gegeben"

	typeInfotag     = "Infotag"
	typeWebSeminar  = "Web-Seminar"
	detailMaxDesc   = 500
	minTitleRunes   = 3
	liveEventMarker = "/live-event/"
)

// WebEventSourceConfig configures the listing page scraper.
type WebEventSourceConfig struct {
	ListingURL    string
	EnrichDetails bool
	HTTP          HTTPConfig
	Logger        logrus.FieldLogger
}

// WebEventSource reads event teaser cards from the academy listing page.
type WebEventSource struct {
	listingURL *url.URL
	enrich     bool
	http       *httpDoer
	log        logrus.FieldLogger
}

// NewWebEventSource creates a WebEventSource for the listing page URL.
func NewWebEventSource(cfg WebEventSourceConfig) (*WebEventSource, error) {
	u, err := url.Parse(cfg.ListingURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid listing url %q", cfg.ListingURL)
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WebEventSource{
		listingURL: u,
		enrich:     cfg.EnrichDetails,
		http:       newHTTPDoer(cfg.HTTP),
		log:        log,
	}, nil
}

// FetchEvents downloads the listing page and parses every teaser card. With
// enrichment enabled each event's detail page is read for speaker and
// description; a failing detail page keeps the teaser data.
func (s *WebEventSource) FetchEvents(ctx context.Context) ([]models.Event, error) {
	body, err := s.http.get(ctx, s.listingURL.String())
	if err != nil {
		return nil, fmt.Errorf("fetching listing %s: %w", s.listingURL, err)
	}
	events, err := ParseEventListing(body, s.listingURL)
	if err != nil {
		return nil, err
	}
	if !s.enrich {
		return events, nil
	}
	for i := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.enrichEvent(ctx, &events[i]); err != nil {
			s.log.WithField("event", events[i].ID).WithError(err).Warn("detail page unavailable")
		}
	}
	return events, nil
}

func (s *WebEventSource) enrichEvent(ctx context.Context, ev *models.Event) error {
	body, err := s.http.get(ctx, ev.URL)
	if err != nil {
		return err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parsing detail page: %w", err)
	}

	desc := ""
	if meta := findPath(doc, metaNamed("name", "description")); meta != nil {
		desc = strings.TrimSpace(attr(meta, "content"))
	}
	if desc == "" {
		if p := findPath(doc, class("field--name-field-event-teaser"), tag("p")); p != nil {
			desc = nodeText(p)
		}
	}
	if desc != "" {
		ev.Description = truncateRunes(desc, detailMaxDesc)
	}
	if speaker := firstText(doc, classContains("speaker", "referent", "dozent")); speaker != "" {
		ev.Speaker = speaker
	}
	return nil
}

// ParseEventListing extracts events from the listing page HTML. Links and
// images are resolved against base. Cards without a usable title or link
// are skipped, as are repeated cards for an event id already seen.
func ParseEventListing(page []byte, base *url.URL) ([]models.Event, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing listing page: %w", err)
	}

	var events []models.Event
	seen := make(map[string]bool)
	for i, card := range findAll(doc, tagClass("article", "event-teaser")) {
		titleNode := findPath(card, class("card-item--title"), tag("h2"), tagClass("span", "field--name-title"))
		if titleNode == nil {
			continue
		}
		title := nodeText(titleNode)
		if len([]rune(title)) < minTitleRunes {
			continue
		}
		link := findPath(card, class("card-item--title"), tag("h2"), tag("a"))
		if link == nil || attr(link, "href") == "" {
			continue
		}
		href := attr(link, "href")

		id := eventIDFromHref(href, i)
		if seen[id] {
			continue
		}
		seen[id] = true

		ev := models.Event{
			ID:    id,
			Title: title,
			Date:  DefaultEventDate,
			Type:  typeWebSeminar,
			URL:   resolve(base, href),
		}
		if strings.Contains(href, liveEventMarker) {
			ev.Type = typeInfotag
		}
		if d := findPath(card, class("field--name-field-event-date")); d != nil {
			if t := nodeText(d); t != "" {
				ev.Date = t
			}
		}
		ev.Description = title
		if p := findPath(card, class("field--name-field-event-teaser"), tag("p")); p != nil {
			if t := nodeText(p); t != "" {
				ev.Description = t
			}
		}
		if img := findPath(card, class("card-item--image"), tag("img")); img != nil {
			if src := attr(img, "src"); src != "" {
				ev.Image = resolve(base, src)
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

// eventIDFromHref derives a stable id from the event path, e.g.
// "/online-event/ki-2026" becomes "online-event-ki-2026".
func eventIDFromHref(href string, index int) string {
	path := href
	if u, err := url.Parse(href); err == nil && u.Host != "" {
		path = u.Path
	}
	id := strings.ReplaceAll(strings.TrimPrefix(path, "/"), "/", "-")
	if id == "" {
		return fmt.Sprintf("event-%d", index)
	}
	return id
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil || base == nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
