package engine

import (
	"fmt"

	"signal-copier-go/internal/models"
)

// maxQueueDepth caps each delivery queue. On overflow the oldest signal is
// evicted: a consumer that has stopped polling is better served by fresh
// signals on reconnect than by an hour-old backlog.
const maxQueueDepth = 256

// enqueue appends a signal to the tail of the magic number's queue,
// creating it lazily. Reports whether an old signal was evicted.
func (e *Engine) enqueue(magic int64, signal *models.Signal) (evicted bool) {
	q := e.queues[magic]
	if len(q) >= maxQueueDepth {
		q = q[1:]
		evicted = true
	}
	e.queues[magic] = append(q, signal)
	return evicted
}

// PollSignal removes and returns the head of the magic number's queue.
// A nil signal with a nil error means no new signal is waiting; polling an
// empty queue is a no-op and can be repeated freely.
func (e *Engine) PollSignal(magic int64) (*models.Signal, error) {
	e.mu.RLock()
	empty := len(e.queues[magic]) == 0
	e.mu.RUnlock()
	if empty {
		return nil, nil
	}

	var signal *models.Signal
	err := e.mutate(func(s *models.State) error {
		q := e.queues[magic]
		if len(q) == 0 {
			return nil
		}
		signal = q[0]
		e.queues[magic] = q[1:]
		e.logActivity(s, LevelSuccess,
			fmt.Sprintf("Delivering signal to cBot with magic number %d.", magic))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return signal, nil
}

// cloneQueues copies the queue map and slice headers; the queued signals
// themselves are immutable after enqueue.
func cloneQueues(queues map[int64][]*models.Signal) map[int64][]*models.Signal {
	cp := make(map[int64][]*models.Signal, len(queues))
	for magic, q := range queues {
		qc := make([]*models.Signal, len(q))
		copy(qc, q)
		cp[magic] = qc
	}
	return cp
}
