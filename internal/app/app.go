// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 10:40:12 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/handlers"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/markets"
	"github.com/ternarybob/marketpulse/internal/services/cache"
	"github.com/ternarybob/marketpulse/internal/services/dashboard"
	"github.com/ternarybob/marketpulse/internal/services/events"
	"github.com/ternarybob/marketpulse/internal/services/insights"
	"github.com/ternarybob/marketpulse/internal/services/llm"
	"github.com/ternarybob/marketpulse/internal/services/pdf"
	"github.com/ternarybob/marketpulse/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	Registry       *markets.Registry
	StorageManager interfaces.StorageManager

	// Services
	EventService     interfaces.EventService
	Provider         interfaces.GroundedProvider
	InsightService   *insights.Service
	CacheService     *cache.Service
	PDFService       *pdf.Service
	DashboardService *dashboard.Service

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	PageHandler      *handlers.PageHandler
	DashboardHandler *handlers.DashboardHandler
	WSHandler        *handlers.WebSocketHandler
}

// New initializes the application with all dependencies. A missing provider
// credential is not fatal: the dashboard starts and every fetch reports it.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	registry, err := markets.Load(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load market registry: %w", err)
	}
	app.Registry = registry

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	market := app.DashboardService.Market()
	logger.Info().
		Str("market", market.Code).
		Str("market_name", market.DisplayName).
		Str("provider", app.Provider.GetProviderType()).
		Bool("language_toggle", app.DashboardService.ShowLanguageToggle()).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase opens the in-memory session store
func (a *App) initDatabase() error {
	storageManager, err := badger.NewManager(a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager
	return nil
}

func (a *App) initServices() error {
	a.EventService = events.NewService(a.Logger)
	if err := events.SubscribeLoggerToAllEvents(a.EventService, a.Logger); err != nil {
		return err
	}

	apiKey, err := common.ResolveAPIKey(a.Config.LLM.DefaultProvider, a.Config)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("No API key resolved, insight requests will fail until one is configured")
	}

	a.Provider = llm.NewProviderFactory(a.Config, apiKey, a.Logger)
	a.InsightService = insights.NewService(
		a.Provider,
		a.Registry,
		a.Config.Market.Code,
		apiKey,
		a.Logger,
		insights.WithModel(a.Config.ProviderModel()),
	)

	a.CacheService = cache.NewService(a.StorageManager.InsightStorage(), a.Logger)
	a.PDFService = pdf.NewService(a.Config.Export, a.Logger)

	a.DashboardService = dashboard.NewService(
		a.Registry,
		a.Config.Market.Code,
		a.InsightService,
		a.CacheService,
		a.EventService,
		a.Config.ProviderTimeout(),
		a.Logger,
	)

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Registry, a.CacheService, a.Logger)
	a.PageHandler = handlers.NewPageHandler(a.DashboardService, a.Logger)
	a.DashboardHandler = handlers.NewDashboardHandler(a.DashboardService, a.PDFService, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.DashboardService, a.Logger)
}

// Close stops background fetches and releases all resources
func (a *App) Close() error {
	if a.DashboardService != nil {
		a.Logger.Info().Msg("Waiting for in-flight insight requests")
		if err := a.DashboardService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close dashboard service")
		}
	}

	if a.Provider != nil {
		if err := a.Provider.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close AI provider")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
