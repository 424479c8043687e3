package repository

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/algostream/internal/domain"
)

func newTestRun(id string, frames int) *domain.Run {
	trace := make([]domain.Frame, frames)
	for i := range trace {
		trace[i] = domain.MustFrame(fmt.Sprintf(`{"stepIndex":%d,"array":[1,2,3]}`, i))
	}
	return &domain.Run{RunID: id, AlgorithmID: "bubble_sort", Trace: trace, CreatedAt: time.Now()}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(newTestRun("r1", 4)))

	run, err := s.Get("r1")
	require.NoError(t, err)
	assert.Equal(t, 4, run.TotalSteps())
	assert.Equal(t, 1, s.Count())

	signals, err := s.Signals("r1")
	require.NoError(t, err)
	assert.Empty(t, signals)

	step, err := s.CurrentStep("r1")
	require.NoError(t, err)
	assert.Equal(t, 0, step)
}

func TestMemoryStoreRejectsDuplicateAndEmptyID(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(newTestRun("r1", 1)))
	assert.Error(t, s.Create(newTestRun("r1", 1)))
	assert.ErrorIs(t, s.Create(newTestRun("", 1)), domain.ErrInvalidInput)
}

func TestMemoryStoreUnknownRun(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = s.Signal("missing", 0)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = s.Signals("missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = s.CurrentStep("missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	assert.ErrorIs(t, s.SetCurrentStep("missing", 0), domain.ErrRunNotFound)
	assert.ErrorIs(t, s.RecordSignal("missing", 0, domain.DefaultBehaviorSignal()), domain.ErrRunNotFound)
	assert.ErrorIs(t, s.UpdateSignal("missing", 0, func(*domain.BehaviorSignal) {}), domain.ErrRunNotFound)
}

func TestMemoryStoreSignalDefaultsAndUpsert(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(newTestRun("r1", 3)))

	got, err := s.Signal("r1", 2)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultBehaviorSignal(), got)

	// A recorded all-defaults signal reads exactly like no signal.
	require.NoError(t, s.RecordSignal("r1", 1, domain.DefaultBehaviorSignal()))
	recorded, err := s.Signal("r1", 1)
	require.NoError(t, err)
	assert.Equal(t, got, recorded)

	require.NoError(t, s.RecordSignal("r1", 2, domain.BehaviorSignal{PauseDuration: 3, ReplayCount: 2, SpeedMultiplier: 0.5}))
	got, err = s.Signal("r1", 2)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.PauseDuration)
	assert.Equal(t, 2, got.ReplayCount)

	require.NoError(t, s.UpdateSignal("r1", 0, func(b *domain.BehaviorSignal) { b.ReplayCount++ }))
	got, err = s.Signal("r1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReplayCount)
	assert.Equal(t, 1.0, got.SpeedMultiplier)
}

func TestMemoryStoreSignalIsCopied(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(newTestRun("r1", 1)))

	hover := 1
	require.NoError(t, s.RecordSignal("r1", 0, domain.BehaviorSignal{HoverIndex: &hover}))
	hover = 9

	got, err := s.Signal("r1", 0)
	require.NoError(t, err)
	require.NotNil(t, got.HoverIndex)
	assert.Equal(t, 1, *got.HoverIndex)
}

func TestMemoryStoreSetCurrentStep(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(newTestRun("r1", 3)))

	require.NoError(t, s.SetCurrentStep("r1", 2))
	step, err := s.CurrentStep("r1")
	require.NoError(t, err)
	assert.Equal(t, 2, step)

	assert.ErrorIs(t, s.SetCurrentStep("r1", 3), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.SetCurrentStep("r1", -1), domain.ErrInvalidInput)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	const runs = 20
	const writers = 8

	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Create(newTestRun(fmt.Sprintf("r%d", i), 5)))
		}(i)
	}
	wg.Wait()

	for w := 0; w < writers; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < runs; i++ {
				assert.NoError(t, s.UpdateSignal(fmt.Sprintf("r%d", i), 0, func(b *domain.BehaviorSignal) { b.ReplayCount++ }))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < runs; i++ {
				run, err := s.Get(fmt.Sprintf("r%d", i))
				if assert.NoError(t, err) {
					assert.Len(t, run.Trace, 5)
				}
				_, err = s.Signal(fmt.Sprintf("r%d", i), 0)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < runs; i++ {
		got, err := s.Signal(fmt.Sprintf("r%d", i), 0)
		require.NoError(t, err)
		assert.Equal(t, writers, got.ReplayCount)
	}
	assert.Equal(t, runs, s.Count())

	_, err := s.Get("r-unknown")
	assert.True(t, errors.Is(err, domain.ErrRunNotFound))
}
