package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterUnregister(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub()
	go h.Run(ctx)

	a := h.NewConnection(nil, "run-1", time.Second)
	b := h.NewConnection(nil, "run-1", time.Second)
	c := h.NewConnection(nil, "run-2", time.Second)
	assert.NotEqual(t, a.ID, b.ID)

	h.Register(a)
	h.Register(b)
	h.Register(c)

	require.Eventually(t, func() bool { return h.GetConnectionCount() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, h.GetRunCount())
	assert.Equal(t, 2, h.ViewerCount("run-1"))

	h.Unregister(a)
	h.Unregister(c)
	require.Eventually(t, func() bool { return h.GetConnectionCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.GetRunCount())
	assert.Equal(t, 1, h.ViewerCount("run-1"))
	assert.Equal(t, 0, h.ViewerCount("run-2"))

	// Unregistering twice is harmless.
	h.Unregister(a)
	h.Unregister(b)
	require.Eventually(t, func() bool { return h.GetConnectionCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, h.GetRunCount())
}

func TestHub_StoppedDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	conn := h.NewConnection(nil, "run-1", time.Second)
	h.Register(conn)
	h.Unregister(conn)
	assert.Equal(t, 0, h.GetConnectionCount())
}
