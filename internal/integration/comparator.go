package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valter-silva-au/event-promo/internal/core"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

const comparatorMaxTokens = 512

// LLMComparator asks a language model whether a script agrees with the
// facts read from the event page.
type LLMComparator struct {
	llm Completer
}

// NewLLMComparator creates an LLMComparator.
func NewLLMComparator(llm Completer) *LLMComparator {
	return &LLMComparator{llm: llm}
}

type comparisonAnswer struct {
	Passed        *bool    `json:"passed"`
	Discrepancies []string `json:"discrepancies"`
}

// Compare returns the model's judgement. An answer without a passed flag is
// an error, never an implicit pass.
func (c *LLMComparator) Compare(ctx context.Context, scenes []models.Scene, facts *core.Facts, event models.Event) (*core.Comparison, error) {
	answer, err := c.llm.Complete(ctx, comparisonPrompt(scenes, facts, event), comparatorMaxTokens)
	if err != nil {
		return nil, err
	}
	raw, err := extractJSON(answer, '{', '}')
	if err != nil {
		return nil, err
	}
	var parsed comparisonAnswer
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parsing comparison JSON: %w", err)
	}
	if parsed.Passed == nil {
		return nil, fmt.Errorf("comparison JSON has no passed field")
	}
	return &core.Comparison{Passed: *parsed.Passed, Discrepancies: parsed.Discrepancies}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "nicht angegeben"
	}
	return s
}

func comparisonPrompt(scenes []models.Scene, facts *core.Facts, event models.Event) string {
	var script strings.Builder
	for _, s := range scenes {
		fmt.Fprintf(&script, "[%s] %q", s.ID, s.Text)
		if s.Subtext != "" {
			fmt.Fprintf(&script, " - %q", s.Subtext)
		}
		script.WriteString("\n")
	}
	format := facts.Format
	if format == "" {
		format = event.Type
	}

	var b strings.Builder
	b.WriteString("Du bist ein Faktenpruefer fuer Promo-Videos.\n\n")
	b.WriteString("Vergleiche das folgende Video-Skript mit den verifizierten Fakten von der Event-Webseite.\n\n")
	b.WriteString("## Video-Skript:\n")
	b.WriteString(script.String())
	b.WriteString("\n## Verifizierte Fakten von der Webseite:\n")
	fmt.Fprintf(&b, "- Titel: %s\n- Datum: %s\n- Uhrzeit: %s\n- Referent: %s\n- Preis: %s\n- Format: %s\n- Beschreibung: %s\n",
		facts.Title, facts.Date, orUnknown(facts.Time), orUnknown(facts.Speaker), orUnknown(facts.Price), format, facts.Description)
	if facts.BodyText != "" {
		fmt.Fprintf(&b, "- Seitentext: %s\n", facts.BodyText)
	}
	b.WriteString("\n## Original Event-Daten:\n")
	fmt.Fprintf(&b, "- Titel: %s\n- Datum: %s\n", event.Title, event.Date)
	b.WriteString(`
## Pruefe auf:
1. Stimmt der Titel / das Thema ueberein?
2. Stimmt das Datum (falls im Skript erwaehnt)?
3. Stimmt der Referentenname (falls erwaehnt)?
4. Werden falsche Behauptungen gemacht?
5. Werden nicht existierende Features/Inhalte versprochen?

Antworte NUR als JSON:
{"passed": true/false, "discrepancies": ["Liste der Unstimmigkeiten, leer wenn passed=true"]}`)
	return b.String()
}
