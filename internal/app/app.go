package app

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sibtain012/BrandPulse-2.0/internal/config"
	"github.com/Sibtain012/BrandPulse-2.0/internal/infrastructure/docstore"
	"github.com/Sibtain012/BrandPulse-2.0/internal/infrastructure/inference"
	"github.com/Sibtain012/BrandPulse-2.0/internal/infrastructure/reddit"
	"github.com/Sibtain012/BrandPulse-2.0/internal/infrastructure/scheduler"
	"github.com/Sibtain012/BrandPulse-2.0/internal/infrastructure/warehouse"
	"github.com/Sibtain012/BrandPulse-2.0/internal/language"
	"github.com/Sibtain012/BrandPulse-2.0/internal/logging"
	"github.com/Sibtain012/BrandPulse-2.0/internal/sentiment"
	"github.com/Sibtain012/BrandPulse-2.0/internal/source"
	"github.com/Sibtain012/BrandPulse-2.0/internal/usecase"
)

// Application owns the long-lived store handles and the orchestration
// wiring. Handles open once per process start and close on exit regardless
// of how the run ended.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	orchestrator *usecase.Orchestrator
	scheduler    *usecase.Scheduler
	cleanup      []func(ctx context.Context) error
}

// New connects both stores and wires the stages.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	a.cleanup = append(a.cleanup, mongoClient.Disconnect)

	db, err := warehouse.Open(ctx, cfg.Database.DSN)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.cleanup = append(a.cleanup, func(context.Context) error { return db.Close() })

	documents := docstore.New(mongoClient.Database(cfg.Mongo.Database))
	store := warehouse.New(db)

	registry := source.NewRegistry()
	registry.Register(reddit.NewClient(cfg.Reddit))

	src, err := registry.Resolve(cfg.Pipeline.Platform)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("resolve platform: %w", err)
	}

	predicate := language.NewPredicate(language.NewLinguaDetector(), cfg.Language.Target, cfg.Language.MinChars)
	scorer := sentiment.NewScorer(inference.NewClient(cfg.Inference), cfg.Inference.BatchSize)

	ingestion := usecase.NewIngestion(usecase.IngestionDeps{
		Source:      src,
		Documents:   documents,
		Requests:    store,
		Language:    predicate,
		Logger:      logging.Component(baseLogger, "ingestion"),
		SearchLimit: cfg.Reddit.SearchLimit,
		TimeFilter:  cfg.Reddit.TimeFilter,
		MaxComments: cfg.Reddit.MaxComments,
	})

	refinement := usecase.NewRefinement(usecase.RefinementDeps{
		Documents: documents,
		Warehouse: store,
		Scorer:    scorer,
		Logger:    logging.Component(baseLogger, "refinement"),
		BatchSize: cfg.Pipeline.RefineBatchSize,
	})

	factPopulation := usecase.NewFactPopulation(store, logging.Component(baseLogger, "factpopulation"))

	a.orchestrator = usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Ingestion:      ingestion,
		Refinement:     refinement,
		FactPopulation: factPopulation,
		Requests:       store,
		Logger:         logging.Component(baseLogger, "orchestrator"),
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	a.scheduler = usecase.NewScheduler(driver, a.orchestrator)

	return a, nil
}

// RunOnce executes the full pipeline for one keyword request.
func (a *Application) RunOnce(ctx context.Context, keyword string, requestID int64) error {
	return a.orchestrator.Run(ctx, keyword, requestID)
}

// RunSweep processes pending requests on the configured schedule until the
// context is cancelled.
func (a *Application) RunSweep(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx := context.WithoutCancel(ctx)
	return a.scheduler.Stop(stopCtx)
}

// Close releases store handles in reverse acquisition order.
func (a *Application) Close(ctx context.Context) {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](ctx); err != nil {
			a.logger.Warn("cleanup failed", "error", err)
		}
	}
	a.cleanup = nil
}
