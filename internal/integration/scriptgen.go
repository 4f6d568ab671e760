package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/valter-silva-au/event-promo/internal/core"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

const (
	introDuration  = 1.5
	introFontSize  = 48
	sceneFontSize  = 42
	outroDuration  = 3.5
	outroFontSize  = 58
	sceneDuration  = 4.0
	outroHeadline  = "Jetzt anmelden!"
	scriptMaxScene = 8
)

var sceneTransitions = []models.Transition{
	models.TransitionFade,
	models.TransitionSlideLeft,
	models.TransitionSlideUp,
	models.TransitionZoom,
}

// LLMScriptGenerator asks a language model for the content scenes of a
// promo video and frames them with brand intro and outro scenes.
type LLMScriptGenerator struct {
	llm   Completer
	brand models.BrandConfig
}

// NewLLMScriptGenerator creates an LLMScriptGenerator.
func NewLLMScriptGenerator(llm Completer, brand models.BrandConfig) *LLMScriptGenerator {
	return &LLMScriptGenerator{llm: llm, brand: brand}
}

type rawScene struct {
	Text       string  `json:"text"`
	Subtext    string  `json:"subtext"`
	Duration   float64 `json:"duration"`
	Transition string  `json:"transition"`
}

// GenerateScript returns intro, the model's content scenes and outro.
func (g *LLMScriptGenerator) GenerateScript(ctx context.Context, event models.Event, pc core.PhaseContext) ([]models.Scene, error) {
	answer, err := g.llm.Complete(ctx, g.prompt(event, pc), 0)
	if err != nil {
		return nil, err
	}
	raw, err := extractJSON(answer, '[', ']')
	if err != nil {
		return nil, err
	}
	var parsed []rawScene
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parsing script JSON: %w", err)
	}

	var content []rawScene
	for _, s := range parsed {
		if strings.TrimSpace(s.Text) != "" {
			content = append(content, s)
		}
	}
	if len(content) == 0 {
		return nil, errors.New("model returned no usable scenes")
	}
	if len(content) > scriptMaxScene {
		content = content[:scriptMaxScene]
	}
	return g.frame(event, content), nil
}

func (g *LLMScriptGenerator) frame(event models.Event, content []rawScene) []models.Scene {
	scenes := make([]models.Scene, 0, len(content)+2)
	scenes = append(scenes, models.Scene{
		ID:              "intro",
		Text:            g.brand.Site,
		Subtext:         g.brand.Name,
		Duration:        introDuration,
		FontSize:        introFontSize,
		FontColor:       g.brand.TextColor,
		BackgroundColor: g.brand.PrimaryColor,
		Transition:      models.TransitionFade,
	})

	for i, s := range content {
		bg := g.brand.DarkColor
		if i%2 == 1 {
			bg = g.brand.PrimaryColor
		}
		duration := s.Duration
		if duration <= 0 {
			duration = sceneDuration
		}
		transition := models.Transition(s.Transition)
		if !knownTransition(transition) {
			transition = sceneTransitions[i%len(sceneTransitions)]
		}
		scenes = append(scenes, models.Scene{
			ID:              fmt.Sprintf("scene-%d", i+1),
			Text:            strings.TrimSpace(s.Text),
			Subtext:         strings.TrimSpace(s.Subtext),
			Duration:        duration,
			FontSize:        sceneFontSize,
			FontColor:       g.brand.TextColor,
			BackgroundColor: bg,
			Transition:      transition,
		})
	}

	scenes = append(scenes, models.Scene{
		ID:              "outro",
		Text:            outroHeadline,
		Subtext:         fmt.Sprintf("%s | %s", event.Date, g.brand.Site),
		Duration:        outroDuration,
		FontSize:        outroFontSize,
		FontColor:       g.brand.TextColor,
		BackgroundColor: g.brand.AccentColor,
		Transition:      models.TransitionZoom,
	})
	return scenes
}

func knownTransition(t models.Transition) bool {
	switch t {
	case models.TransitionFade, models.TransitionSlideLeft, models.TransitionSlideUp, models.TransitionZoom, models.TransitionCut:
		return true
	}
	return false
}

func (g *LLMScriptGenerator) prompt(event models.Event, pc core.PhaseContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Du bist ein Social-Media-Texter fuer %s (%s).\n", g.brand.Name, g.brand.Site)
	fmt.Fprintf(&b, "Erstelle ein Video-Skript fuer ein kurzes Promo-Video (15-25 Sekunden) fuer folgendes %s:\n\n", event.Type)
	fmt.Fprintf(&b, "Titel: %s\nDatum: %s\nTyp: %s\nBeschreibung: %s\n", event.Title, event.Date, event.Type, event.Description)
	if event.Speaker != "" {
		fmt.Fprintf(&b, "Referent: %s\n", event.Speaker)
	}
	fmt.Fprintf(&b, "\nKampagnenphase: %s\nStil: %s\nTage bis zum Event: %d\nFormat: %s\n\n", pc.Phase, pc.Style, pc.DaysUntil, pc.Format)
	b.WriteString(`Erstelle genau 4 Szenen (ohne Intro und Outro, die werden automatisch hinzugefuegt).
Jede Szene hat einen kurzen, praegnanten Haupttext (max 8 Woerter) und optionalen Subtext (max 15 Woerter).
Nenne nur Fakten, die oben stehen. Erfinde keine Namen, Preise oder Termine.

Antworte NUR als JSON-Array mit diesem Format:
[
  {"text": "Haupttext der Szene", "subtext": "Optionale Unterzeile", "duration": 4, "transition": "fade"}
]

Verwende abwechselnd die Transitions: "fade", "slide-left", "slide-up", "zoom".
Die Dauer sollte zwischen 3 und 5 Sekunden pro Szene liegen.`)
	return b.String()
}
