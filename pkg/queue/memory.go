package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryQueue is a channel-backed queue for tests and single-process
// deployments.
type MemoryQueue struct {
	items  chan *Item
	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 128
	}

	return &MemoryQueue{
		items:  make(chan *Item, buffer),
		stopCh: make(chan struct{}),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, item *Item) error {
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now().UTC()
	}

	select {
	case q.items <- item:
		return nil
	case <-q.stopCh:
		return errors.New("queue is closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Consume(ctx context.Context, handler Handler) error {
	q.wg.Add(1)

	go func() {
		defer q.wg.Done()

		for {
			select {
			case <-q.stopCh:
				return
			case <-ctx.Done():
				return
			case item := <-q.items:
				// Failed items are dropped; retry semantics belong to the
				// broker-backed queues.
				_ = handler(ctx, item)
			}
		}
	}()

	return nil
}

func (q *MemoryQueue) Close(_ context.Context) error {
	q.once.Do(func() {
		close(q.stopCh)
	})
	q.wg.Wait()

	return nil
}
