package hal

import (
	"sync"
)

// outputQueue coalesces duty updates per pin and hands them to a writer
// goroutine, so SetPWM never blocks on the transport.
type outputQueue struct {
	mu      sync.Mutex
	pending map[int]float64
	closed  bool
	kick    chan struct{}
	done    chan struct{}
}

func newOutputQueue(flush func(map[int]float64) error, onErr func(error)) *outputQueue {
	q := &outputQueue{
		pending: make(map[int]float64),
		kick:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go q.run(flush, onErr)
	return q
}

func (q *outputQueue) set(pin int, duty float64) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.pending[pin] = clampDuty(duty)
	select {
	case q.kick <- struct{}{}:
	default:
	}
	q.mu.Unlock()
	return nil
}

func (q *outputQueue) take() map[int]float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = make(map[int]float64, len(out))
	return out
}

func (q *outputQueue) run(flush func(map[int]float64) error, onErr func(error)) {
	defer close(q.done)
	for range q.kick {
		if batch := q.take(); batch != nil {
			if err := flush(batch); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
	// final flush, e.g. heaters switched off during shutdown
	if batch := q.take(); batch != nil {
		if err := flush(batch); err != nil && onErr != nil {
			onErr(err)
		}
	}
}

// close stops the writer after it flushed what was pending.
func (q *outputQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.kick)
	q.mu.Unlock()
	<-q.done
}
