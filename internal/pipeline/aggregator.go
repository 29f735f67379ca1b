package pipeline

import (
	"context"

	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/log"
	"firestige.xyz/wardriver/internal/metrics"
)

// DefaultBatchSize is the number of sightings moved to the buffer at once.
const DefaultBatchSize = 20

// Aggregator filters sightings and batches them into a BatchBuffer.
// It is driven by a single goroutine.
type Aggregator struct {
	buf   *BatchBuffer
	size  int
	batch []core.CapturedEvent

	accepted uint64
	rejected uint64
}

func NewAggregator(buf *BatchBuffer, size int) *Aggregator {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Aggregator{
		buf:   buf,
		size:  size,
		batch: make([]core.CapturedEvent, 0, size),
	}
}

// Accept reports whether ev names a network: its SSID is present, non-empty
// and not all zero bytes (hidden networks pad the name with zeros).
func Accept(ev core.CapturedEvent) bool {
	for _, b := range ev.Frame.SSID() {
		if b != 0 {
			return true
		}
	}
	return false
}

// Add filters ev into the current batch and moves a full batch to the buffer.
func (a *Aggregator) Add(ev core.CapturedEvent) bool {
	if !Accept(ev) {
		a.rejected++
		metrics.AggregatorEventsTotal.WithLabelValues("rejected").Inc()
		return false
	}
	a.accepted++
	metrics.AggregatorEventsTotal.WithLabelValues("accepted").Inc()

	a.batch = append(a.batch, ev)
	if len(a.batch) >= a.size {
		a.Flush()
	}
	return true
}

// Flush moves the partial batch, if any, to the buffer.
func (a *Aggregator) Flush() {
	if len(a.batch) == 0 {
		return
	}
	a.buf.Push(a.batch)
	metrics.BatchesFlushedTotal.Inc()
	a.batch = make([]core.CapturedEvent, 0, a.size)
}

// Pending returns the number of sightings in the unflushed batch.
func (a *Aggregator) Pending() int {
	return len(a.batch)
}

// Run consumes in until it is closed or ctx is done, then drains what is
// already queued and flushes the partial batch.
func (a *Aggregator) Run(ctx context.Context, in <-chan core.CapturedEvent) {
	defer func() {
		a.Flush()
		log.GetLogger().WithField("accepted", a.accepted).WithField("rejected", a.rejected).Debug("aggregator stopped")
	}()
	for {
		select {
		case ev, ok := <-in:
			if !ok {
				return
			}
			a.Add(ev)
		case <-ctx.Done():
			for {
				select {
				case ev, ok := <-in:
					if !ok {
						return
					}
					a.Add(ev)
				default:
					return
				}
			}
		}
	}
}
