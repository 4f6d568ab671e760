package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valter-silva-au/event-promo/internal/core"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

// CaptionMaxRunes is the platform's caption length limit.
const CaptionMaxRunes = 2200

// DefaultHashtags are used when the model returns none.
var DefaultHashtags = []string{"#VKUAkademie", "#Kommunalwirtschaft"}

// LLMCaptionGenerator writes post captions with a language model.
type LLMCaptionGenerator struct {
	llm   Completer
	brand models.BrandConfig
}

// NewLLMCaptionGenerator creates an LLMCaptionGenerator.
func NewLLMCaptionGenerator(llm Completer, brand models.BrandConfig) *LLMCaptionGenerator {
	return &LLMCaptionGenerator{llm: llm, brand: brand}
}

type captionAnswer struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// GenerateCaption returns the caption text and normalised hashtags. The
// combined caption is kept within CaptionMaxRunes by shortening the text.
func (g *LLMCaptionGenerator) GenerateCaption(ctx context.Context, event models.Event, phase models.Phase, daysUntil int) (*core.Caption, error) {
	answer, err := g.llm.Complete(ctx, g.prompt(event, phase, daysUntil), 0)
	if err != nil {
		return nil, err
	}
	raw, err := extractJSON(answer, '{', '}')
	if err != nil {
		return nil, err
	}
	var parsed captionAnswer
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parsing caption JSON: %w", err)
	}
	text := strings.TrimSpace(parsed.Caption)
	if text == "" {
		return nil, fmt.Errorf("model returned an empty caption")
	}

	c := &core.Caption{Text: text, Hashtags: NormalizeHashtags(parsed.Hashtags)}
	if len(c.Hashtags) == 0 {
		c.Hashtags = append([]string(nil), DefaultHashtags...)
	}
	if over := len([]rune(c.Full())) - CaptionMaxRunes; over > 0 {
		runes := []rune(c.Text)
		keep := len(runes) - over
		if keep < 0 {
			keep = 0
		}
		c.Text = strings.TrimSpace(string(runes[:keep]))
	}
	return c, nil
}

// NormalizeHashtags prefixes every tag with '#', drops blanks, inner spaces
// and duplicates, keeping the first occurrence.
func NormalizeHashtags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.Join(strings.Fields(t), "")
		t = strings.TrimLeft(t, "#")
		if t == "" {
			continue
		}
		t = "#" + t
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

func phaseInstruction(phase models.Phase, daysUntil int) string {
	switch phase {
	case models.PhaseReminder:
		return "Nutzen betonen, ggf. Referent hervorheben. Konkreten Mehrwert kommunizieren."
	case models.PhaseUrgency:
		return fmt.Sprintf("Dringlichkeit erzeugen. Noch %d Tage bis zum Event. \"Jetzt anmelden!\"", daysUntil)
	case models.PhaseLastCall:
		days := fmt.Sprintf("%d Tagen", daysUntil)
		if daysUntil == 1 {
			days = "einem Tag"
		}
		return fmt.Sprintf("Letzte Chance! Event ist in %s. Starker CTA.", days)
	default:
		return "Informativ, neugierig machend. Stelle das Thema vor und warum es relevant ist."
	}
}

func (g *LLMCaptionGenerator) prompt(event models.Event, phase models.Phase, daysUntil int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Du schreibst eine Instagram-Caption fuer %s (%s).\n\n", g.brand.Name, g.brand.Site)
	fmt.Fprintf(&b, "Event: %s\nTyp: %s\nDatum: %s\nBeschreibung: %s\n", event.Title, event.Type, event.Date, event.Description)
	if event.Speaker != "" {
		fmt.Fprintf(&b, "Referent: %s\n", event.Speaker)
	}
	fmt.Fprintf(&b, "\nPhase: %s\nStil: %s\n\n", phase, phaseInstruction(phase, daysUntil))
	fmt.Fprintf(&b, `Regeln:
- Max %d Zeichen (Instagram-Limit)
- Erster Satz muss Hook sein (wird in Feed-Vorschau angezeigt)
- Emojis sparsam einsetzen (max 3-4 insgesamt)
- Link-Hinweis: "Link in Bio" (keine URLs in Caption)
- Zielgruppe: Fachkraefte kommunaler Unternehmen
- Sprache: Deutsch, professionell aber nahbar
- CTA am Ende

Antworte NUR als JSON:
{"caption": "Die vollstaendige Caption...", "hashtags": ["VKUAkademie", "Kommunalwirtschaft"]}

Verwende 5-8 relevante Hashtags. Immer dabei: VKUAkademie, Kommunalwirtschaft`, CaptionMaxRunes)
	return b.String()
}
