package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mnemoslab/mnemos/internal/api/handlers"
	mw "github.com/mnemoslab/mnemos/internal/api/middleware"
	"github.com/mnemoslab/mnemos/internal/config"
	"github.com/mnemoslab/mnemos/internal/domain"
	"github.com/mnemoslab/mnemos/internal/service"
	"github.com/mnemoslab/mnemos/internal/store"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router      *chi.Mux
	Maintenance *service.MaintenanceService

	db           *store.DB
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *store.DB, cfg *config.Config, logger *zap.Logger) *App {
	// Stores
	factStore := store.NewFactStore(db)
	lessonStore := store.NewLessonStore(db)
	valueStore := store.NewValueStore(db)
	eventStore := store.NewEventStore(db)
	entityStore := store.NewEntityStore(db)
	seedStore := store.NewSeedStore(db)
	queueStore := store.NewQueueStore(db)
	outboxStore := store.NewOutboxStore(db)
	reviewLogStore := store.NewReviewLogStore(db)

	// Services
	beliefSvc := service.NewBeliefService(factStore, lessonStore, valueStore, entityStore, queueStore, outboxStore, logger)
	supersessionSvc := service.NewSupersessionService(factStore, lessonStore, valueStore, queueStore, logger)
	eventSvc := service.NewEventService(eventStore, seedStore, queueStore, outboxStore, logger)
	eventSvc.SetSignificanceThreshold(cfg.SignificanceThreshold)
	reviewSvc := service.NewReviewService(eventStore, lessonStore, reviewLogStore, logger)
	retrievalSvc := service.NewRetrievalService(factStore, eventStore, logger)
	exportSvc := service.NewExportService(eventStore, factStore, logger)
	manifestSvc := service.NewManifestService(beliefSvc, supersessionSvc, logger)
	maintenanceSvc := service.NewMaintenanceService(reviewSvc, cfg.SweepCronSpec, logger)

	// Handlers
	beliefHandler := handlers.NewBeliefHandler(beliefSvc, supersessionSvc)
	eventHandler := handlers.NewEventHandler(eventSvc)
	reviewHandler := handlers.NewReviewHandler(reviewSvc)
	viewsHandler := handlers.NewViewsHandler(retrievalSvc)
	exportHandler := handlers.NewExportHandler(exportSvc)
	manifestHandler := handlers.NewManifestHandler(manifestSvc)
	workerHandler := handlers.NewWorkerHandler(queueStore, outboxStore)

	r := chi.NewRouter()

	app := &App{
		Router:      r,
		Maintenance: maintenanceSvc,
		db:          db,
		startTime:   time.Now(),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.countRequests)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	r.Get("/health", app.healthHandler())
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		// Facts
		r.Route("/facts", func(r chi.Router) {
			r.Post("/", beliefHandler.CreateFact)
			r.Get("/", beliefHandler.ListFacts)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", beliefHandler.GetFact)
				r.Post("/access", beliefHandler.AccessFact)
				r.Put("/emotion", beliefHandler.RetagFactEmotion)
				r.Post("/supersede", beliefHandler.SupersedeFact)
				r.Get("/genealogy", beliefHandler.Genealogy(domain.KindFact))
			})
		})

		// Lessons
		r.Route("/lessons", func(r chi.Router) {
			r.Post("/", beliefHandler.CreateLesson)
			r.Get("/", beliefHandler.ListLessons)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", beliefHandler.GetLesson)
				r.Post("/supersede", beliefHandler.SupersedeLesson)
				r.Get("/genealogy", beliefHandler.Genealogy(domain.KindLesson))
			})
		})

		// Values
		r.Route("/values", func(r chi.Router) {
			r.Post("/", beliefHandler.CreateValue)
			r.Get("/", beliefHandler.ListValues)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", beliefHandler.GetValue)
				r.Post("/supersede", beliefHandler.SupersedeValue)
				r.Get("/genealogy", beliefHandler.Genealogy(domain.KindValue))
			})
		})

		// Entities
		r.Route("/entities", func(r chi.Router) {
			r.Post("/", beliefHandler.CreateEntity)
			r.Get("/", beliefHandler.ListEntities)
		})

		// Events and seeds
		r.Route("/events", func(r chi.Router) {
			r.Post("/", eventHandler.Create)
			r.Get("/", eventHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", eventHandler.GetByID)
				r.Post("/access", eventHandler.Access)
			})
		})
		r.Route("/seeds", func(r chi.Router) {
			r.Post("/", eventHandler.Compress)
			r.Get("/", eventHandler.ListSeeds)
		})

		// Reviews and the forgetting sweep
		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", reviewHandler.Register)
			r.Get("/due", reviewHandler.Due)
			r.Get("/history", reviewHandler.History)
			r.Post("/sweep", reviewHandler.Sweep)
		})

		// Derived views
		r.Route("/views", func(r chi.Router) {
			r.Get("/tiers", viewsHandler.Tiers)
			r.Get("/facts", viewsHandler.FactRanking)
			r.Get("/highlights", viewsHandler.Highlights)
			r.Get("/priority", viewsHandler.Priority)
			r.Get("/risk", viewsHandler.ForgettingRisk)
			r.Get("/retention", viewsHandler.RetentionStats)
		})

		// Bulk export
		r.Get("/export", exportHandler.Export)

		// Manifest ingestion
		r.Post("/manifest", manifestHandler.Ingest)

		// External collaborator surfaces
		r.Route("/queue", func(r chi.Router) {
			r.Get("/pending", workerHandler.PendingJobs)
			r.Get("/stats", workerHandler.QueueStats)
			r.Put("/{id}", workerHandler.SetJobStatus)
		})
		r.Route("/outbox", func(r chi.Router) {
			r.Get("/pending", workerHandler.PendingSignals)
			r.Post("/{id}/ack", workerHandler.AcknowledgeSignal)
		})
	})

	return app
}

// NewRouter returns just the chi.Mux for callers that manage lifecycle
// themselves.
func NewRouter(db *store.DB, cfg *config.Config, logger *zap.Logger) *chi.Mux {
	return NewApp(db, cfg, logger).Router
}

func (app *App) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.requestCount.Add(1)
		cw := &countingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(cw, r)
		if cw.status >= 500 {
			app.errorCount.Add(1)
		}
	})
}

type countingWriter struct {
	http.ResponseWriter
	status int
}

func (cw *countingWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (app *App) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := app.db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores satisfy the domain interfaces at compile time.
var (
	_ domain.FactStore      = (*store.FactStore)(nil)
	_ domain.LessonStore    = (*store.LessonStore)(nil)
	_ domain.ValueStore     = (*store.ValueStore)(nil)
	_ domain.EventStore     = (*store.EventStore)(nil)
	_ domain.EntityStore    = (*store.EntityStore)(nil)
	_ domain.SeedStore      = (*store.SeedStore)(nil)
	_ domain.QueueStore     = (*store.QueueStore)(nil)
	_ domain.OutboxStore    = (*store.OutboxStore)(nil)
	_ domain.ReviewLogStore = (*store.ReviewLogStore)(nil)
)
