package pipeline

import (
	"sync"

	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/metrics"
)

// BatchBuffer hands batches from the aggregator to the log writer.
// The lock is held only to append or swap the slice.
type BatchBuffer struct {
	mu     sync.Mutex
	events []core.CapturedEvent
}

func NewBatchBuffer() *BatchBuffer {
	return &BatchBuffer{}
}

// Push moves batch into the buffer. The caller must not reuse batch.
func (b *BatchBuffer) Push(batch []core.CapturedEvent) {
	if len(batch) == 0 {
		return
	}
	b.mu.Lock()
	if b.events == nil {
		b.events = batch
	} else {
		b.events = append(b.events, batch...)
	}
	n := len(b.events)
	b.mu.Unlock()
	metrics.BufferedEvents.Set(float64(n))
}

// TakeIfAtLeast removes and returns every buffered event when at least n are
// buffered, nil otherwise.
func (b *BatchBuffer) TakeIfAtLeast(n int) []core.CapturedEvent {
	b.mu.Lock()
	if len(b.events) < n || len(b.events) == 0 {
		b.mu.Unlock()
		return nil
	}
	out := b.events
	b.events = nil
	b.mu.Unlock()
	metrics.BufferedEvents.Set(0)
	return out
}

// TakeAll removes and returns every buffered event.
func (b *BatchBuffer) TakeAll() []core.CapturedEvent {
	return b.TakeIfAtLeast(1)
}

func (b *BatchBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
