package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/algostream/internal/domain"
)

// recordEvent records an event to the journal.
func (s *Service) recordEvent(ctx context.Context, runID string, eventType domain.EventType, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &domain.Event{
		EventID: "evt_" + uuid.New().String()[:8],
		RunID:   runID,
		Ts:      time.Now().UnixMilli(),
		Type:    eventType,
		Payload: payloadBytes,
	}

	return s.journal.CreateEvent(ctx, event)
}

// journalEvent records an event and only logs a failure. Journal writes never
// change the outcome of the operation that produced them.
func (s *Service) journalEvent(ctx context.Context, runID string, eventType domain.EventType, payload interface{}) {
	if err := s.recordEvent(context.WithoutCancel(ctx), runID, eventType, payload); err != nil {
		log.Printf("WARN: failed to journal %s for run %s: %v", eventType, runID, err)
	}
}

// GetRunEvents returns journaled events of a run after afterTs.
func (s *Service) GetRunEvents(ctx context.Context, runID string, afterTs int64, limit int) ([]domain.Event, error) {
	if _, err := s.store.Get(runID); err != nil {
		return nil, err
	}
	events, err := s.journal.GetEvents(ctx, runID, afterTs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	return events, nil
}
