package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/handlers"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/jobs"
	"github.com/ternarybob/scribo/internal/services/events"
	"github.com/ternarybob/scribo/internal/services/linking"
	"github.com/ternarybob/scribo/internal/services/nlp"
	"github.com/ternarybob/scribo/internal/services/report"
	"github.com/ternarybob/scribo/internal/services/scheduler"
	"github.com/ternarybob/scribo/internal/services/scoring"
	"github.com/ternarybob/scribo/internal/services/search"
	"github.com/ternarybob/scribo/internal/services/synthesis"
	"github.com/ternarybob/scribo/internal/services/transform"
	"github.com/ternarybob/scribo/internal/services/wordpress"
	"github.com/ternarybob/scribo/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService interfaces.EventService

	// Content services
	WordPressClient  interfaces.WordPressClient
	SynthesisService interfaces.SynthesisService
	SearchService    interfaces.SearchService
	NLPService       interfaces.NLPService
	ScoringService   interfaces.ScoringService
	TransformService interfaces.TransformService
	LinkBuilder      interfaces.LinkBuilder

	// Job execution
	JobService *jobs.Service

	// Background scheduling
	SchedulerService *scheduler.Service

	// Reporting
	ReportService *report.Service

	// HTTP handlers
	OptimizeHandler *handlers.OptimizeHandler
	StatusHandler   *handlers.StatusHandler
	WSHandler       *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	// Event service must exist before anything that publishes
	app.EventService = events.NewService(logger)

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initServices wires the domain services and the job service
func (a *App) initServices() error {
	a.WordPressClient = wordpress.NewClient(a.Config, a.Logger)
	a.TransformService = transform.NewService(a.Logger)
	a.ScoringService = scoring.NewService(a.Logger)
	a.LinkBuilder = linking.NewService(a.StorageManager.Catalog(), a.Config, a.Logger)

	// Synthesis needs at least one LLM key. Without one the app still starts;
	// job runs fail their precondition check instead.
	synthesisService, err := synthesis.NewSynthesisService(a.Config, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Synthesis service unavailable, optimization runs will be rejected")
	} else {
		a.SynthesisService = synthesisService
	}

	if a.Config.Search.APIKey != "" {
		a.SearchService = search.NewService(a.Config, a.Logger)
	}
	if a.Config.NLP.APIKey != "" && a.Config.NLP.Project != "" {
		a.NLPService = nlp.NewService(a.Config, a.Logger)
	}

	a.JobService = jobs.NewService(jobs.OrchestratorDeps{
		Config:    a.Config,
		State:     jobs.NewStateStore(a.Logger),
		Catalog:   a.StorageManager.Catalog(),
		History:   a.StorageManager.History(),
		WordPress: a.WordPressClient,
		Synthesis: a.SynthesisService,
		Search:    a.SearchService,
		NLP:       a.NLPService,
		Scoring:   a.ScoringService,
		Transform: a.TransformService,
		Linker:    a.LinkBuilder,
		Events:    a.EventService,
		Logger:    a.Logger,
	}, a.EventService)

	a.SchedulerService = scheduler.NewService(a.Config, a.JobService, a.StorageManager.Catalog(), a.Logger)
	a.ReportService = report.NewService(a.Logger)

	return nil
}

// initHandlers wires the HTTP handlers
func (a *App) initHandlers() {
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.Logger)
	a.OptimizeHandler = handlers.NewOptimizeHandler(a.JobService, a.ReportService, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.JobService, a.StorageManager.Catalog(), a.StorageManager.History(), a.Logger)
}

// Close shuts down application components in reverse dependency order
func (a *App) Close() error {
	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}

	if a.SynthesisService != nil {
		if err := a.SynthesisService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close synthesis service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage manager")
			return err
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
