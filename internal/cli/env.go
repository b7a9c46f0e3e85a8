package cli

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mnemoslab/mnemos/internal/config"
	"github.com/mnemoslab/mnemos/internal/service"
	"github.com/mnemoslab/mnemos/internal/store"
)

// runtimeEnv bundles what non-serve commands need: the open database
// and the services wired on top of it.
type runtimeEnv struct {
	cfg    *config.Config
	db     *store.DB
	logger *zap.Logger

	beliefs      *service.BeliefService
	supersession *service.SupersessionService
	events       *service.EventService
	reviews      *service.ReviewService
	retrieval    *service.RetrievalService
	export       *service.ExportService
	manifest     *service.ManifestService
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func openEnv() (*runtimeEnv, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	cfg := config.FromEnv()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	factStore := store.NewFactStore(db)
	lessonStore := store.NewLessonStore(db)
	valueStore := store.NewValueStore(db)
	eventStore := store.NewEventStore(db)
	entityStore := store.NewEntityStore(db)
	seedStore := store.NewSeedStore(db)
	queueStore := store.NewQueueStore(db)
	outboxStore := store.NewOutboxStore(db)
	reviewLogStore := store.NewReviewLogStore(db)

	env := &runtimeEnv{cfg: cfg, db: db, logger: logger}
	env.beliefs = service.NewBeliefService(factStore, lessonStore, valueStore, entityStore, queueStore, outboxStore, logger)
	env.supersession = service.NewSupersessionService(factStore, lessonStore, valueStore, queueStore, logger)
	env.events = service.NewEventService(eventStore, seedStore, queueStore, outboxStore, logger)
	env.events.SetSignificanceThreshold(cfg.SignificanceThreshold)
	env.reviews = service.NewReviewService(eventStore, lessonStore, reviewLogStore, logger)
	env.retrieval = service.NewRetrievalService(factStore, eventStore, logger)
	env.export = service.NewExportService(eventStore, factStore, logger)
	env.manifest = service.NewManifestService(env.beliefs, env.supersession, logger)
	return env, nil
}

func (e *runtimeEnv) close() {
	_ = e.db.Close()
	_ = e.logger.Sync()
}
