// Package service implements run creation, signal tracking and the streaming relay.
package service

import (
	"github.com/xiaot623/algostream/internal/adapter/explainer"
	"github.com/xiaot623/algostream/internal/adapter/tracegen"
	"github.com/xiaot623/algostream/internal/config"
	"github.com/xiaot623/algostream/internal/policy"
	"github.com/xiaot623/algostream/internal/repository"
	"github.com/xiaot623/algostream/internal/telemetry"
)

type Service struct {
	store        repository.RunStore
	journal      repository.Journal
	tracegen     tracegen.Generator
	explainer    explainer.Explainer
	policyEngine *policy.Engine
	metrics      telemetry.Recorder
	config       *config.Config
}

// New wires a Service. policyEngine may be nil to admit every non-empty run.
func New(store repository.RunStore, journal repository.Journal, gen tracegen.Generator, expl explainer.Explainer, policyEngine *policy.Engine, metrics telemetry.Recorder, cfg *config.Config) *Service {
	return &Service{
		store:        store,
		journal:      journal,
		tracegen:     gen,
		explainer:    expl,
		policyEngine: policyEngine,
		metrics:      metrics,
		config:       cfg,
	}
}

// StoredRuns returns the number of runs held by the store.
func (s *Service) StoredRuns() int {
	return s.store.Count()
}

// FallbackTotal returns the number of fallback explanations since start.
func (s *Service) FallbackTotal() int64 {
	return s.metrics.FallbackTotal()
}
