package hal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// frame is a batch of readings from a push source.
type frame struct {
	at      time.Time
	analog  map[int]float64
	digital map[int]bool
}

type stamped[T any] struct {
	v  T
	at time.Time
}

// latest keeps the newest value per pin. A single producer goroutine sends
// frames; readers fold them in on demand and wait for a pin's first value.
type latest struct {
	frames chan frame
	stale  time.Duration
	now    func() time.Time

	mu      sync.Mutex
	analog  map[int]stamped[float64]
	digital map[int]stamped[bool]
}

func newLatest(buf int, stale time.Duration) *latest {
	return &latest{
		frames:  make(chan frame, buf),
		stale:   stale,
		now:     time.Now,
		analog:  make(map[int]stamped[float64]),
		digital: make(map[int]stamped[bool]),
	}
}

// publish is called by the producer only. A full buffer drops the oldest
// frame so readers never see a backlog.
func (l *latest) publish(f frame) {
	for {
		select {
		case l.frames <- f:
			return
		default:
		}
		select {
		case <-l.frames:
		default:
		}
	}
}

func (l *latest) applyLocked(f frame) {
	for pin, v := range f.analog {
		l.analog[pin] = stamped[float64]{v: v, at: f.at}
	}
	for pin, v := range f.digital {
		l.digital[pin] = stamped[bool]{v: v, at: f.at}
	}
}

func (l *latest) drainLocked() {
	for {
		select {
		case f, ok := <-l.frames:
			if !ok {
				return
			}
			l.applyLocked(f)
		default:
			return
		}
	}
}

// await runs lookup under the lock until it reports a hit. A pin that has
// never been reported by the deadline gives ErrNoReading.
func (l *latest) await(ctx context.Context, lookup func() bool) error {
	for {
		l.mu.Lock()
		l.drainLocked()
		found := lookup()
		l.mu.Unlock()
		if found {
			return nil
		}
		select {
		case f, ok := <-l.frames:
			if !ok {
				return ErrClosed
			}
			l.mu.Lock()
			l.applyLocked(f)
			l.mu.Unlock()
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrNoReading
			}
			return ctx.Err()
		}
	}
}

func (l *latest) fresh(pin int, at time.Time) error {
	if l.stale > 0 && l.now().Sub(at) > l.stale {
		return fmt.Errorf("%w: pin %d last updated %s ago", ErrStaleReading, pin, l.now().Sub(at).Round(time.Millisecond))
	}
	return nil
}

func (l *latest) readAnalog(ctx context.Context, pin int) (float64, error) {
	var got stamped[float64]
	err := l.await(ctx, func() bool {
		v, ok := l.analog[pin]
		got = v
		return ok
	})
	if err != nil {
		return 0, fmt.Errorf("analog %d: %w", pin, err)
	}
	return got.v, l.fresh(pin, got.at)
}

func (l *latest) readDigital(ctx context.Context, pin int) (bool, error) {
	var got stamped[bool]
	err := l.await(ctx, func() bool {
		v, ok := l.digital[pin]
		got = v
		return ok
	})
	if err != nil {
		return false, fmt.Errorf("digital %d: %w", pin, err)
	}
	return got.v, l.fresh(pin, got.at)
}
