package hal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputQueue_Coalesces(t *testing.T) {
	var (
		mu      sync.Mutex
		batches []map[int]float64
	)
	started := make(chan struct{})
	gate := make(chan struct{})
	first := true

	q := newOutputQueue(func(b map[int]float64) error {
		mu.Lock()
		batches = append(batches, b)
		wait := first
		first = false
		mu.Unlock()
		if wait {
			close(started)
			<-gate
		}
		return nil
	}, nil)

	assert.NoError(t, q.set(1, 0.1))
	<-started

	for _, d := range []float64{0.2, 0.4, 0.6} {
		assert.NoError(t, q.set(1, d))
	}
	assert.NoError(t, q.set(2, 1.5))
	close(gate)
	q.close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []map[int]float64{
		{1: 0.1},
		{1: 0.6, 2: 1},
	}, batches)
}

func TestOutputQueue_SetAfterClose(t *testing.T) {
	q := newOutputQueue(func(map[int]float64) error { return nil }, nil)
	q.close()
	q.close()
	assert.ErrorIs(t, q.set(0, 0.5), ErrClosed)
}
