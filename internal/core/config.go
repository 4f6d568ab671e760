// Package core contains the promotion pipeline: the scheduler deciding what
// is due, the verification gate, the orchestrator driving each unit, and the
// configuration they run with.
package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

// ConfigFileName is the base name of the settings file in the home directory.
const ConfigFileName = "promo"

// Source types.
const (
	SourceWeb  = "web"
	SourceFile = "file"
)

// ConfigurationManager loads and validates promo.yaml together with secrets
// from the environment.
type ConfigurationManager interface {
	Load() (*models.Config, error)
	ValidateConfig(cfg *models.Config) error
}

type viperConfigManager struct {
	homeDir string
}

// NewConfigurationManager creates a ConfigurationManager reading promo.yaml
// from homeDir.
func NewConfigurationManager(homeDir string) ConfigurationManager {
	return &viperConfigManager{homeDir: homeDir}
}

// DefaultConfig returns the settings used when promo.yaml is absent.
func DefaultConfig() *models.Config {
	return &models.Config{
		Timezone: "Europe/Berlin",
		LogLevel: "info",
		Source: models.SourceConfig{
			Type:          SourceWeb,
			URL:           "https://www.kommunaldigital.de/vku-akademie",
			EnrichDetails: true,
			UserAgent:     "Mozilla/5.0 (compatible; VKU-Promo-Generator/1.0)",
		},
		LLM: models.LLMConfig{
			APIURL:            "https://api.anthropic.com",
			Model:             "claude-sonnet-4-20250514",
			MaxTokens:         1024,
			RequestsPerMinute: 20,
		},
		Render: models.RenderConfig{
			Timeout:   10 * time.Minute,
			OutputDir: filepath.Join("data", "output"),
			FPS:       30,
		},
		Publish: models.PublishConfig{
			APIURL:       "https://graph.instagram.com/v21.0",
			PollInterval: 10 * time.Second,
			PollTimeout:  5 * time.Minute,
		},
		Brand: models.BrandConfig{
			Name:         "VKU Akademie",
			Site:         "kommunaldigital.de",
			PrimaryColor: "#008bdd",
			AccentColor:  "#e53517",
			DarkColor:    "#1a1a2e",
			TextColor:    "#ffffff",
		},
		Alerts: models.AlertConfig{
			StaleRunHours: 36,
			MaxRejections: 3,
		},
	}
}

// Load reads .env.local from the home directory and ~/.env into the process
// environment without overriding variables that are already set, then reads
// promo.yaml. A missing promo.yaml yields the defaults plus environment
// secrets.
func (cm *viperConfigManager) Load() (*models.Config, error) {
	loadDotEnv(filepath.Join(cm.homeDir, ".env.local"))
	if userHome, err := os.UserHomeDir(); err == nil {
		loadDotEnv(filepath.Join(userHome, ".env"))
	}

	def := DefaultConfig()
	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.homeDir)

	v.SetDefault("timezone", def.Timezone)
	v.SetDefault("log.level", def.LogLevel)
	v.SetDefault("source.type", def.Source.Type)
	v.SetDefault("source.url", def.Source.URL)
	v.SetDefault("source.file", "")
	v.SetDefault("source.enrich_details", def.Source.EnrichDetails)
	v.SetDefault("source.user_agent", def.Source.UserAgent)
	v.SetDefault("llm.api_url", def.LLM.APIURL)
	v.SetDefault("llm.model", def.LLM.Model)
	v.SetDefault("llm.max_tokens", def.LLM.MaxTokens)
	v.SetDefault("llm.requests_per_minute", def.LLM.RequestsPerMinute)
	v.SetDefault("render.command", "")
	v.SetDefault("render.timeout", def.Render.Timeout)
	v.SetDefault("render.output_dir", def.Render.OutputDir)
	v.SetDefault("render.fps", def.Render.FPS)
	v.SetDefault("publish.api_url", def.Publish.APIURL)
	v.SetDefault("publish.public_base_url", "")
	v.SetDefault("publish.poll_interval", def.Publish.PollInterval)
	v.SetDefault("publish.poll_timeout", def.Publish.PollTimeout)
	v.SetDefault("brand.name", def.Brand.Name)
	v.SetDefault("brand.site", def.Brand.Site)
	v.SetDefault("brand.primary_color", def.Brand.PrimaryColor)
	v.SetDefault("brand.accent_color", def.Brand.AccentColor)
	v.SetDefault("brand.dark_color", def.Brand.DarkColor)
	v.SetDefault("brand.text_color", def.Brand.TextColor)
	v.SetDefault("alerts.stale_run_hours", def.Alerts.StaleRunHours)
	v.SetDefault("alerts.max_rejections", def.Alerts.MaxRejections)

	// Secrets only ever come from the environment.
	_ = v.BindEnv("llm.api_key", "CLAUDE_API_KEY_1", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("publish.access_token", "META_ACCESS_TOKEN")
	_ = v.BindEnv("publish.account_id", "INSTAGRAM_ACCOUNT_ID")
	_ = v.BindEnv("notifications.slack.webhook_url", "SLACK_WEBHOOK_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
		}
	}

	cfg := &models.Config{
		Timezone: v.GetString("timezone"),
		LogLevel: v.GetString("log.level"),
		Source: models.SourceConfig{
			Type:          v.GetString("source.type"),
			URL:           v.GetString("source.url"),
			File:          v.GetString("source.file"),
			EnrichDetails: v.GetBool("source.enrich_details"),
			UserAgent:     v.GetString("source.user_agent"),
		},
		LLM: models.LLMConfig{
			APIURL:            v.GetString("llm.api_url"),
			APIKey:            v.GetString("llm.api_key"),
			Model:             v.GetString("llm.model"),
			MaxTokens:         v.GetInt("llm.max_tokens"),
			RequestsPerMinute: v.GetInt("llm.requests_per_minute"),
		},
		Render: models.RenderConfig{
			Command:   v.GetString("render.command"),
			Args:      v.GetStringSlice("render.args"),
			Timeout:   v.GetDuration("render.timeout"),
			OutputDir: v.GetString("render.output_dir"),
			FPS:       v.GetInt("render.fps"),
		},
		Publish: models.PublishConfig{
			APIURL:        v.GetString("publish.api_url"),
			AccessToken:   v.GetString("publish.access_token"),
			AccountID:     v.GetString("publish.account_id"),
			PublicBaseURL: v.GetString("publish.public_base_url"),
			PollInterval:  v.GetDuration("publish.poll_interval"),
			PollTimeout:   v.GetDuration("publish.poll_timeout"),
		},
		Brand: models.BrandConfig{
			Name:         v.GetString("brand.name"),
			Site:         v.GetString("brand.site"),
			PrimaryColor: v.GetString("brand.primary_color"),
			AccentColor:  v.GetString("brand.accent_color"),
			DarkColor:    v.GetString("brand.dark_color"),
			TextColor:    v.GetString("brand.text_color"),
		},
		Notifications: models.NotificationConfig{
			SlackWebhookURL: v.GetString("notifications.slack.webhook_url"),
		},
		Alerts: models.AlertConfig{
			StaleRunHours: v.GetInt("alerts.stale_run_hours"),
			MaxRejections: v.GetInt("alerts.max_rejections"),
		},
	}

	// Relative paths are resolved against the home directory.
	if cfg.Render.OutputDir != "" && !filepath.IsAbs(cfg.Render.OutputDir) {
		cfg.Render.OutputDir = filepath.Join(cm.homeDir, cfg.Render.OutputDir)
	}
	if cfg.Source.File != "" && !filepath.IsAbs(cfg.Source.File) {
		cfg.Source.File = filepath.Join(cm.homeDir, cfg.Source.File)
	}

	return cfg, nil
}

// ValidateConfig checks the configuration for values the pipeline cannot run
// with and lists every problem found.
func (cm *viperConfigManager) ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if _, err := time.LoadLocation(cfg.Timezone); err != nil || cfg.Timezone == "" {
		errs = append(errs, fmt.Sprintf("timezone %q is not a known time zone", cfg.Timezone))
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid", cfg.LogLevel))
	}

	switch cfg.Source.Type {
	case SourceWeb:
		if cfg.Source.URL == "" {
			errs = append(errs, "source.url must not be empty for source type web")
		}
	case SourceFile:
		if cfg.Source.File == "" {
			errs = append(errs, "source.file must not be empty for source type file")
		}
	default:
		errs = append(errs, fmt.Sprintf("source.type %q is invalid, must be one of: web, file", cfg.Source.Type))
	}

	if cfg.Publish.PollInterval <= 0 {
		errs = append(errs, fmt.Sprintf("publish.poll_interval must be positive, got %s", cfg.Publish.PollInterval))
	}
	if cfg.Publish.PollTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("publish.poll_timeout must be positive, got %s", cfg.Publish.PollTimeout))
	}
	if cfg.Render.FPS <= 0 {
		errs = append(errs, fmt.Sprintf("render.fps must be positive, got %d", cfg.Render.FPS))
	}
	if cfg.LLM.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Sprintf("llm.requests_per_minute must not be negative, got %d", cfg.LLM.RequestsPerMinute))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// loadDotEnv loads a dotenv file if it exists. Variables already present in
// the environment win.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}
