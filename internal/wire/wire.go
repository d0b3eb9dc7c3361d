// Package wire provides dependency injection for the cadence application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"os"
	"sync"

	"github.com/example/cadence/internal/adapters/pipeline"
	"github.com/example/cadence/internal/adapters/sqlite"
	"github.com/example/cadence/internal/adapters/webhook"
	"github.com/example/cadence/internal/app"
	"github.com/example/cadence/internal/config"
	"github.com/example/cadence/internal/db"
	"github.com/example/cadence/internal/ports/primary"
	"github.com/example/cadence/internal/ports/secondary"
)

var (
	cfg           *config.Config
	registry      *app.ScheduleRegistry
	streakService primary.StreakService
	cycleService  *app.CycleServiceImpl
	auditService  primary.AuditService
	draftRepo     secondary.DraftRepository
	logger        *log.Logger
	once          sync.Once
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Registry returns the singleton ScheduleRegistry instance.
func Registry() *app.ScheduleRegistry {
	once.Do(initServices)
	return registry
}

// StreakService returns the singleton StreakService instance.
func StreakService() primary.StreakService {
	once.Do(initServices)
	return streakService
}

// CycleService returns the singleton CycleService instance.
func CycleService() *app.CycleServiceImpl {
	once.Do(initServices)
	return cycleService
}

// AuditService returns the singleton AuditService instance.
func AuditService() primary.AuditService {
	once.Do(initServices)
	return auditService
}

// DraftRepository returns the singleton draft pool repository.
func DraftRepository() secondary.DraftRepository {
	once.Do(initServices)
	return draftRepo
}

// Logger returns the process-wide logger.
func Logger() *log.Logger {
	once.Do(initServices)
	return logger
}

// Scheduler builds a Scheduler over the singleton services.
func Scheduler() *app.Scheduler {
	once.Do(initServices)
	return app.NewScheduler(registry, cycleService, logger, cfg.EODSweepHourUTC)
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	logger = log.New(os.Stderr, "cadence ", log.LstdFlags|log.LUTC)

	path, err := config.DefaultPath()
	if err != nil {
		log.Fatalf("failed to locate config: %v", err)
	}
	cfg, err = config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config (run 'cadence init' first?): %v", err)
	}

	var invalid map[string]error
	registry, invalid = app.NewScheduleRegistry(cfg)
	for agentID, agentErr := range invalid {
		logger.Printf("agent %s dropped from schedule: %v", agentID, agentErr)
	}

	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Repository adapters (secondary ports) with injected DB
	streakRepo := sqlite.NewStreakRepository(database)
	dropRepo := sqlite.NewDropRepository(database)
	draftRepo = sqlite.NewDraftRepository(database)
	eventRepo := sqlite.NewEventRepository(database)

	generator := pipeline.NewClient(cfg.PipelineURL, cfg.BackupPipelineURL)
	var notifier secondary.Notifier
	if cfg.WebhookURL != "" {
		notifier = webhook.NewNotifier(cfg.WebhookURL)
	}

	// Services (primary ports implementation)
	streakService = app.NewStreakService(streakRepo, registry, eventRepo)
	fallbackService := app.NewFallbackService(generator, draftRepo)
	cycleService = app.NewCycleService(registry, streakService, fallbackService, dropRepo, eventRepo, notifier, logger)
	auditService = app.NewAuditService(dropRepo, eventRepo)
}
