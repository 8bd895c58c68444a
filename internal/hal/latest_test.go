package hal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestLatest_ReadAndStale(t *testing.T) {
	now := t0
	l := newLatest(4, time.Second)
	l.now = func() time.Time { return now }

	l.publish(frame{at: t0, analog: map[int]float64{0: 512}, digital: map[int]bool{3: true}})

	v, err := l.readAnalog(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 512.0, v)

	level, err := l.readDigital(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, level)

	now = t0.Add(2 * time.Second)
	v, err = l.readAnalog(context.Background(), 0)
	assert.ErrorIs(t, err, ErrStaleReading)
	assert.Equal(t, 512.0, v)
}

func TestLatest_WaitsForFirstValue(t *testing.T) {
	l := newLatest(4, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := l.readAnalog(ctx, 0)
	assert.ErrorIs(t, err, ErrNoReading)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)

	go func() {
		time.Sleep(5 * time.Millisecond)
		l.publish(frame{at: time.Now(), analog: map[int]float64{0: 100}})
	}()
	v, err := l.readAnalog(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)
}

func TestLatest_Cancelled(t *testing.T) {
	l := newLatest(4, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.readDigital(ctx, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLatest_Closed(t *testing.T) {
	l := newLatest(1, 0)
	close(l.frames)
	_, err := l.readAnalog(context.Background(), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLatest_PublishDropsOldest(t *testing.T) {
	l := newLatest(1, 0)
	l.publish(frame{at: t0, analog: map[int]float64{0: 1}})
	l.publish(frame{at: t0, analog: map[int]float64{0: 2}})

	v, err := l.readAnalog(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}
