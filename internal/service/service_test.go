package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xiaot623/algostream/internal/adapter/explainer"
	"github.com/xiaot623/algostream/internal/adapter/tracegen"
	"github.com/xiaot623/algostream/internal/config"
	"github.com/xiaot623/algostream/internal/domain"
	"github.com/xiaot623/algostream/internal/policy"
	"github.com/xiaot623/algostream/internal/repository"
	"github.com/xiaot623/algostream/internal/telemetry"
	"github.com/xiaot623/algostream/tests/helpers"
)

type testEnv struct {
	svc     *Service
	store   *repository.MemoryStore
	journal *repository.SQLiteJournal
	cfg     *config.Config
}

func newTestEnv(t *testing.T, gen tracegen.Generator, expl explainer.Explainer) *testEnv {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{
		BaseFrameDelay: 0,
		ExplainTimeout: time.Second,
		MaxArrayLength: 8,
	}
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)
	metrics, err := telemetry.NewMetrics()
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	journal := helpers.NewTestJournal(t)
	return &testEnv{
		svc:     New(store, journal, gen, expl, policyEngine, metrics, cfg),
		store:   store,
		journal: journal,
		cfg:     cfg,
	}
}

func (e *testEnv) createRun(t *testing.T) *domain.Run {
	t.Helper()
	run, err := e.svc.CreateRun(context.Background(), "bubble_sort", []int{3, 1, 2})
	require.NoError(t, err)
	return run
}

func (e *testEnv) eventTypes(t *testing.T, runID string) []domain.EventType {
	t.Helper()
	events, err := e.journal.GetEvents(context.Background(), runID, 0, 0)
	require.NoError(t, err)
	out := make([]domain.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}
