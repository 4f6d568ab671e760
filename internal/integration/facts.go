package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/valter-silva-au/event-promo/internal/core"
	"golang.org/x/net/html"
)

const (
	factsMaxDescription = 1000
	factsMaxBody        = 3000
)

// PageFactRetriever reads the authoritative facts of an event from its
// detail page.
type PageFactRetriever struct {
	http *httpDoer
}

// NewPageFactRetriever creates a PageFactRetriever.
func NewPageFactRetriever(cfg HTTPConfig) *PageFactRetriever {
	return &PageFactRetriever{http: newHTTPDoer(cfg)}
}

// FetchFacts downloads the page at url and extracts its facts.
func (r *PageFactRetriever) FetchFacts(ctx context.Context, url string) (*core.Facts, error) {
	if url == "" {
		return nil, errors.New("event has no page url")
	}
	body, err := r.http.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching event page %s: %w", url, err)
	}
	facts, err := ParseFacts(body)
	if err != nil {
		return nil, err
	}
	facts.URL = url
	return facts, nil
}

// ParseFacts extracts facts from an event detail page.
func ParseFacts(page []byte) (*core.Facts, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing event page: %w", err)
	}

	f := &core.Facts{}
	f.Title = firstText(doc, tag("h1"))
	if f.Title == "" {
		if og := findPath(doc, metaNamed("property", "og:title")); og != nil {
			f.Title = strings.TrimSpace(attr(og, "content"))
		}
	}

	f.Date = firstText(doc, class("field--name-field-event-date"))
	if f.Date == "" {
		f.Date = firstText(doc, classContains("date"))
	}
	f.Time = firstText(doc, classContains("time", "uhrzeit"))
	f.Speaker = firstText(doc, classContains("speaker", "referent", "dozent"))
	f.Price = firstText(doc, classContains("price", "preis", "kosten"))
	f.Format = firstText(doc, classContains("format", "typ"))

	if meta := findPath(doc, metaNamed("name", "description")); meta != nil {
		f.Description = strings.TrimSpace(attr(meta, "content"))
	}
	if f.Description == "" {
		f.Description = truncateRunes(firstText(doc, class("field--name-body")), factsMaxDescription)
	}

	if body := findPath(doc, tag("body")); body != nil {
		f.BodyText = truncateRunes(nodeText(body), factsMaxBody)
	}
	return f, nil
}
