package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/valter-silva-au/event-promo/pkg/models"
)

const (
	projectPlaceholder = "{project}"
	outputPlaceholder  = "{output}"
	defaultRenderFPS   = 30
	stderrTailBytes    = 2048
)

// CommandRendererConfig configures the external render command.
type CommandRendererConfig struct {
	Command   string
	Args      []string
	Timeout   time.Duration
	OutputDir string
	FPS       int
	Stderr    io.Writer
	Now       func() time.Time
}

// RenderProject is the document handed to the render command. It describes
// everything needed to draw the video.
type RenderProject struct {
	Event      models.Event   `json:"event"`
	Scenes     []models.Scene `json:"scenes"`
	Format     models.Format  `json:"format"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	FPS        int            `json:"fps"`
	Duration   float64        `json:"duration"`
	OutputPath string         `json:"output"`
}

// CommandRenderer renders videos by running an external program against a
// project file.
type CommandRenderer struct {
	cfg CommandRendererConfig
}

// NewCommandRenderer creates a CommandRenderer.
func NewCommandRenderer(cfg CommandRendererConfig) *CommandRenderer {
	if cfg.FPS <= 0 {
		cfg.FPS = defaultRenderFPS
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CommandRenderer{cfg: cfg}
}

// BuildArgs substitutes the project and output placeholders. When no
// argument carries a placeholder both paths are appended.
func BuildArgs(args []string, project, output string) []string {
	out := make([]string, 0, len(args)+2)
	substituted := false
	for _, a := range args {
		if strings.Contains(a, projectPlaceholder) || strings.Contains(a, outputPlaceholder) {
			substituted = true
		}
		a = strings.ReplaceAll(a, projectPlaceholder, project)
		a = strings.ReplaceAll(a, outputPlaceholder, output)
		out = append(out, a)
	}
	if !substituted {
		out = append(out, project, output)
	}
	return out
}

// BuildEnv appends PROMO_* variables describing the render job to base.
func BuildEnv(base []string, project, output string) []string {
	env := make([]string, len(base), len(base)+2)
	copy(env, base)
	return append(env, "PROMO_PROJECT="+project, "PROMO_OUTPUT="+output)
}

// Render writes the project file, runs the command and returns the path of
// the produced video. A missing or empty output file is an error even when
// the command exits zero.
func (r *CommandRenderer) Render(ctx context.Context, event models.Event, scenes []models.Scene, format models.Format) (string, error) {
	if r.cfg.Command == "" {
		return "", errors.New("no render command configured")
	}
	if len(scenes) == 0 {
		return "", errors.New("nothing to render: script has no scenes")
	}
	dims, ok := models.FormatDimensions[format]
	if !ok {
		return "", fmt.Errorf("unsupported format %q", format)
	}
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	stamp := r.cfg.Now().UnixMilli()
	output, err := filepath.Abs(filepath.Join(r.cfg.OutputDir, fmt.Sprintf("%s-%d.mp4", event.ID, stamp)))
	if err != nil {
		return "", fmt.Errorf("resolving output path: %w", err)
	}
	project := strings.TrimSuffix(output, ".mp4") + ".json"

	doc, err := json.MarshalIndent(RenderProject{
		Event:      event,
		Scenes:     scenes,
		Format:     format,
		Width:      dims.Width,
		Height:     dims.Height,
		FPS:        r.cfg.FPS,
		Duration:   models.TotalDuration(scenes),
		OutputPath: output,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding render project: %w", err)
	}
	if err := os.WriteFile(project, doc, 0o644); err != nil {
		return "", fmt.Errorf("writing render project: %w", err)
	}
	defer os.Remove(project)

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.cfg.Command, BuildArgs(r.cfg.Args, project, output)...)
	cmd.Env = BuildEnv(os.Environ(), project, output)
	var stderr bytes.Buffer
	if r.cfg.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, r.cfg.Stderr)
	} else {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("render command %s: %w", r.cfg.Command, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("render command exited with code %d: %s", exitErr.ExitCode(), tail(stderr.String()))
		}
		return "", fmt.Errorf("executing %s: %w", r.cfg.Command, err)
	}

	info, err := os.Stat(output)
	if err != nil {
		return "", fmt.Errorf("render produced no output: %w", err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("render produced an empty file %s", output)
	}
	return output, nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTailBytes {
		s = s[len(s)-stderrTailBytes:]
	}
	return s
}
