package cli

import (
	"time"

	"github.com/valter-silva-au/event-promo/internal/core"
	"github.com/valter-silva-au/event-promo/internal/observability"
	"github.com/valter-silva-au/event-promo/internal/storage"
)

// Pipeline services, set during app initialization in app.go.
var (
	Pipeline core.PipelineOrchestrator
	Ledger   core.PostLedger
	Reports  storage.ReportStore
	// Location is the zone schedule previews and report dates are shown in.
	Location = time.UTC
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)

// nowFunc is replaced in tests.
var nowFunc = time.Now
