package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mnemoslab/mnemos/internal/store"
)

// testEnv wires the full service stack over an in-memory database.
type testEnv struct {
	db           *store.DB
	facts        *store.FactStore
	lessons      *store.LessonStore
	values       *store.ValueStore
	entities     *store.EntityStore
	events       *store.EventStore
	seeds        *store.SeedStore
	queue        *store.QueueStore
	outbox       *store.OutboxStore
	reviewLog    *store.ReviewLogStore
	beliefs      *BeliefService
	supersession *SupersessionService
	eventSvc     *EventService
	reviews      *ReviewService
	retrieval    *RetrievalService
	export       *ExportService
	manifest     *ManifestService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zap.NewNop()
	env := &testEnv{
		db:        db,
		facts:     store.NewFactStore(db),
		lessons:   store.NewLessonStore(db),
		values:    store.NewValueStore(db),
		entities:  store.NewEntityStore(db),
		events:    store.NewEventStore(db),
		seeds:     store.NewSeedStore(db),
		queue:     store.NewQueueStore(db),
		outbox:    store.NewOutboxStore(db),
		reviewLog: store.NewReviewLogStore(db),
	}
	env.beliefs = NewBeliefService(env.facts, env.lessons, env.values, env.entities, env.queue, env.outbox, logger)
	env.supersession = NewSupersessionService(env.facts, env.lessons, env.values, env.queue, logger)
	env.eventSvc = NewEventService(env.events, env.seeds, env.queue, env.outbox, logger)
	env.reviews = NewReviewService(env.events, env.lessons, env.reviewLog, logger)
	env.retrieval = NewRetrievalService(env.facts, env.events, logger)
	env.export = NewExportService(env.events, env.facts, logger)
	env.manifest = NewManifestService(env.beliefs, env.supersession, logger)
	return env
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }
