package models

import "time"

// SourceConfig selects and configures the event source.
type SourceConfig struct {
	Type          string `yaml:"type" mapstructure:"type"` // web or file
	URL           string `yaml:"url" mapstructure:"url"`
	File          string `yaml:"file,omitempty" mapstructure:"file"`
	EnrichDetails bool   `yaml:"enrich_details" mapstructure:"enrich_details"`
	UserAgent     string `yaml:"user_agent" mapstructure:"user_agent"`
}

// LLMConfig configures the language model used for scripts, captions and
// fact comparison.
type LLMConfig struct {
	APIURL            string `yaml:"api_url" mapstructure:"api_url"`
	APIKey            string `yaml:"-" mapstructure:"api_key"`
	Model             string `yaml:"model" mapstructure:"model"`
	MaxTokens         int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// RenderConfig configures the external video renderer.
type RenderConfig struct {
	Command   string        `yaml:"command" mapstructure:"command"`
	Args      []string      `yaml:"args,omitempty" mapstructure:"args"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	OutputDir string        `yaml:"output_dir" mapstructure:"output_dir"`
	FPS       int           `yaml:"fps" mapstructure:"fps"`
}

// PublishConfig configures the social platform publisher.
type PublishConfig struct {
	APIURL        string        `yaml:"api_url" mapstructure:"api_url"`
	AccessToken   string        `yaml:"-" mapstructure:"access_token"`
	AccountID     string        `yaml:"account_id" mapstructure:"account_id"`
	PublicBaseURL string        `yaml:"public_base_url" mapstructure:"public_base_url"`
	PollInterval  time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	PollTimeout   time.Duration `yaml:"poll_timeout" mapstructure:"poll_timeout"`
}

// BrandConfig holds the texts and colors used for intro and outro scenes.
type BrandConfig struct {
	Name         string `yaml:"name" mapstructure:"name"`
	Site         string `yaml:"site" mapstructure:"site"`
	PrimaryColor string `yaml:"primary_color" mapstructure:"primary_color"`
	AccentColor  string `yaml:"accent_color" mapstructure:"accent_color"`
	DarkColor    string `yaml:"dark_color" mapstructure:"dark_color"`
	TextColor    string `yaml:"text_color" mapstructure:"text_color"`
}

// NotificationConfig configures where run summaries are sent.
type NotificationConfig struct {
	SlackWebhookURL string `yaml:"-" mapstructure:"slack_webhook_url"`
}

// AlertConfig configures alert thresholds evaluated against the event log.
type AlertConfig struct {
	StaleRunHours int `yaml:"stale_run_hours" mapstructure:"stale_run_hours"`
	MaxRejections int `yaml:"max_rejections" mapstructure:"max_rejections"`
}

// Config is the complete settings tree read from promo.yaml and the
// environment.
type Config struct {
	Timezone      string             `yaml:"timezone" mapstructure:"timezone"`
	LogLevel      string             `yaml:"log_level" mapstructure:"log_level"`
	Source        SourceConfig       `yaml:"source" mapstructure:"source"`
	LLM           LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Render        RenderConfig       `yaml:"render" mapstructure:"render"`
	Publish       PublishConfig      `yaml:"publish" mapstructure:"publish"`
	Brand         BrandConfig        `yaml:"brand" mapstructure:"brand"`
	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
	Alerts        AlertConfig        `yaml:"alerts" mapstructure:"alerts"`
}
