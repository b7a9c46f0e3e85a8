package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mnemoslab/mnemos/internal/domain"
	"github.com/mnemoslab/mnemos/internal/service"
	"github.com/mnemoslab/mnemos/internal/store"
)

type beliefTestEnv struct {
	db           *store.DB
	beliefs      *service.BeliefService
	supersession *service.SupersessionService
	router       chi.Router
}

func newBeliefTestEnv(t *testing.T) *beliefTestEnv {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zap.NewNop()
	facts := store.NewFactStore(db)
	lessons := store.NewLessonStore(db)
	values := store.NewValueStore(db)
	entities := store.NewEntityStore(db)
	queue := store.NewQueueStore(db)
	outbox := store.NewOutboxStore(db)

	beliefs := service.NewBeliefService(facts, lessons, values, entities, queue, outbox, logger)
	supersession := service.NewSupersessionService(facts, lessons, values, queue, logger)
	h := NewBeliefHandler(beliefs, supersession)

	r := chi.NewRouter()
	r.Get("/v1/facts/{id}/genealogy", h.Genealogy(domain.KindFact))

	return &beliefTestEnv{db: db, beliefs: beliefs, supersession: supersession, router: r}
}

type genealogyResponse struct {
	Chain       []domain.GenealogyEntry `json:"chain"`
	Generations int                     `json:"generations"`
	Warning     string                  `json:"warning"`
	Error       string                  `json:"error"`
}

func (env *beliefTestEnv) getGenealogy(t *testing.T, factID int64) (int, genealogyResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/facts/%d/genealogy", factID), nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var body genealogyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestGenealogyEndpointFullChain(t *testing.T) {
	env := newBeliefTestEnv(t)
	ctx := context.Background()

	first, err := env.beliefs.CreateFact(ctx, service.CreateFactInput{
		Subject: "Alice", Predicate: "lives_in", Object: "Berlin", Source: "conversation",
	})
	require.NoError(t, err)
	second, err := env.supersession.SupersedeFact(ctx, first.ID, "Paris", "conversation:2", nil)
	require.NoError(t, err)

	code, body := env.getGenealogy(t, first.ID)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, body.Generations)
	require.Len(t, body.Chain, 2)
	assert.Equal(t, first.ID, body.Chain[0].ID)
	assert.Equal(t, second.ID, body.Chain[1].ID)
	assert.Empty(t, body.Warning)
}

func TestGenealogyEndpointCorruptChainKeepsPartialBody(t *testing.T) {
	env := newBeliefTestEnv(t)
	ctx := context.Background()

	first, err := env.beliefs.CreateFact(ctx, service.CreateFactInput{
		Subject: "Alice", Predicate: "lives_in", Object: "Berlin", Source: "conversation",
	})
	require.NoError(t, err)
	second, err := env.supersession.SupersedeFact(ctx, first.ID, "Paris", "conversation:2", nil)
	require.NoError(t, err)

	// Corrupt the chain into a two-node cycle via direct SQL.
	_, err = env.db.ExecContext(ctx,
		`UPDATE facts SET superseded_by = ?, valid_until = ? WHERE id = ?`,
		first.ID, time.Now().UnixMilli(), second.ID)
	require.NoError(t, err)

	code, body := env.getGenealogy(t, first.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	// The bounded partial chain must survive into the response body,
	// flagged by a warning rather than replaced by a bare error.
	require.Len(t, body.Chain, 2)
	assert.Equal(t, 2, body.Generations)
	assert.NotEmpty(t, body.Warning)
	assert.Empty(t, body.Error)
}

func TestGenealogyEndpointMissingFact(t *testing.T) {
	env := newBeliefTestEnv(t)

	code, _ := env.getGenealogy(t, 999)
	assert.Equal(t, http.StatusNotFound, code)
}
