package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valter-silva-au/event-promo/internal/cli"
	"github.com/valter-silva-au/event-promo/internal/core"
	"github.com/valter-silva-au/event-promo/internal/integration"
	"github.com/valter-silva-au/event-promo/internal/logging"
	"github.com/valter-silva-au/event-promo/internal/observability"
	"github.com/valter-silva-au/event-promo/internal/storage"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

// HomeEnvVar overrides home directory discovery.
const HomeEnvVar = "PROMO_HOME"

// App wires together all services of the promo pipeline.
type App struct {
	HomeDir  string
	DataDir  string
	Config   *models.Config
	Location *time.Location
	Logger   *logrus.Logger

	ConfigMgr core.ConfigurationManager

	Ledger  storage.LedgerStore
	Reports storage.ReportStore

	Source    core.EventSource
	LLM       *integration.AnthropicClient
	Scripts   core.ScriptGenerator
	Gate      core.VerificationGate
	Captions  core.CaptionGenerator
	Renderer  core.Renderer
	Publisher core.Publisher
	Scheduler *core.Scheduler
	Pipeline  core.PipelineOrchestrator

	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier

	logCloser io.Closer
}

// NewApp loads promo.yaml from homeDir, creates every service and assigns
// the CLI package variables. Persisted state lives under <homeDir>/data.
func NewApp(homeDir string) (*App, error) {
	app := &App{
		HomeDir: homeDir,
		DataDir: filepath.Join(homeDir, "data"),
	}

	app.ConfigMgr = core.NewConfigurationManager(homeDir)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	app.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone: %w", err)
	}

	logDir := filepath.Join(app.DataDir, "logs")
	logger, closer, err := logging.NewPipelineLogger(logDir, cfg.LogLevel, time.Now().In(app.Location))
	if err != nil {
		// Non-fatal: keep logging to stderr only.
		logger = logging.NewLogger(os.Stderr, cfg.LogLevel)
		logger.WithError(err).Warn("pipeline log file unavailable")
	}
	app.Logger = logger
	app.logCloser = closer

	app.Ledger = storage.NewLedgerStore(app.DataDir)
	app.Reports = storage.NewReportStore(logDir)

	httpCfg := integration.DefaultHTTPConfig()
	if cfg.Source.UserAgent != "" {
		httpCfg.UserAgent = cfg.Source.UserAgent
	}

	app.Source, err = newEventSource(cfg.Source, httpCfg, logger)
	if err != nil {
		return nil, err
	}

	app.LLM = integration.NewAnthropicClient(integration.AnthropicConfig{
		APIURL:            cfg.LLM.APIURL,
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		MaxTokens:         cfg.LLM.MaxTokens,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		HTTP:              httpCfg,
	})
	app.Scripts = integration.NewLLMScriptGenerator(app.LLM, cfg.Brand)
	app.Captions = integration.NewLLMCaptionGenerator(app.LLM, cfg.Brand)
	app.Gate = core.NewVerificationGate(
		integration.NewPageFactRetriever(httpCfg),
		integration.NewLLMComparator(app.LLM),
		logger,
	)

	app.Renderer = integration.NewCommandRenderer(integration.CommandRendererConfig{
		Command:   cfg.Render.Command,
		Args:      cfg.Render.Args,
		Timeout:   cfg.Render.Timeout,
		OutputDir: cfg.Render.OutputDir,
		FPS:       cfg.Render.FPS,
		Stderr:    logger.WriterLevel(logrus.DebugLevel),
	})
	app.Publisher = integration.NewInstagramPublisher(integration.InstagramConfig{
		APIURL:        cfg.Publish.APIURL,
		AccessToken:   cfg.Publish.AccessToken,
		AccountID:     cfg.Publish.AccountID,
		PublicBaseURL: cfg.Publish.PublicBaseURL,
		PollInterval:  cfg.Publish.PollInterval,
		PollTimeout:   cfg.Publish.PollTimeout,
		HTTP:          httpCfg,
	})

	eventLogPath := filepath.Join(app.DataDir, "events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: run without observability.
		logger.WithError(err).Warn("event log unavailable")
		app.EventLog = nil
	}
	if app.EventLog != nil {
		thresholds := observability.DefaultAlertThresholds()
		if cfg.Alerts.StaleRunHours > 0 {
			thresholds.StaleRunHours = cfg.Alerts.StaleRunHours
		}
		if cfg.Alerts.MaxRejections > 0 {
			thresholds.MaxRejections = cfg.Alerts.MaxRejections
		}
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, thresholds)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Notifications.SlackWebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.SlackWebhookURL)
	}

	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}

	app.Scheduler = core.NewScheduler(app.Location, logger)
	app.Pipeline = core.NewPipelineOrchestrator(core.PipelineDeps{
		Source:      app.Source,
		Scripts:     app.Scripts,
		Gate:        app.Gate,
		Captions:    app.Captions,
		Renderer:    app.Renderer,
		Publisher:   app.Publisher,
		Ledger:      app.Ledger,
		Reports:     app.Reports,
		Scheduler:   app.Scheduler,
		EventLogger: evtAdapter,
		Logger:      logger,
	})

	cli.Pipeline = app.Pipeline
	cli.Ledger = app.Ledger
	cli.Reports = app.Reports
	cli.Location = app.Location

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// newEventSource builds the configured event source.
func newEventSource(cfg models.SourceConfig, httpCfg integration.HTTPConfig, logger logrus.FieldLogger) (core.EventSource, error) {
	switch cfg.Type {
	case core.SourceFile:
		return integration.NewFileEventSource(cfg.File), nil
	default:
		src, err := integration.NewWebEventSource(integration.WebEventSourceConfig{
			ListingURL:    cfg.URL,
			EnrichDetails: cfg.EnrichDetails,
			HTTP:          httpCfg,
			Logger:        logger,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring event source: %w", err)
		}
		return src, nil
	}
}

// Close releases resources held by the App.
func (a *App) Close() error {
	var firstErr error
	if a.EventLog != nil {
		firstErr = a.EventLog.Close()
	}
	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ResolveHomeDir determines the promo home directory. It checks PROMO_HOME
// first, then walks up from the current directory looking for promo.yaml,
// falling back to the current directory.
func ResolveHomeDir() string {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
	now func() time.Time
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	now := time.Now
	if a.now != nil {
		now = a.now
	}
	return a.log.Write(observability.Event{
		Time:    now().UTC(),
		Level:   observability.LevelFor(eventType),
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
