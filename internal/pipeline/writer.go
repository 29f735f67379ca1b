package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/log"
	"firestige.xyz/wardriver/internal/metrics"
	"firestige.xyz/wardriver/internal/sink"
)

// DefaultFlushInterval is the log writer period.
const DefaultFlushInterval = time.Second

// drainTimeout bounds one drain cycle once it has taken events off the buffer.
const drainTimeout = 10 * time.Second

// Writer periodically drains the BatchBuffer into the sinks.
type Writer struct {
	buf       *BatchBuffer
	sinks     []sink.Sink
	threshold int
	interval  time.Duration
	log       log.Logger
}

func NewWriter(buf *BatchBuffer, threshold int, interval time.Duration, sinks ...sink.Sink) *Writer {
	if threshold <= 0 {
		threshold = DefaultBatchSize
	}
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &Writer{
		buf:       buf,
		sinks:     sinks,
		threshold: threshold,
		interval:  interval,
		log:       log.GetLogger(),
	}
}

// Drain writes the buffered events if at least a batch is waiting.
// An empty buffer performs no write.
func (w *Writer) Drain(ctx context.Context) error {
	return w.write(ctx, w.buf.TakeIfAtLeast(w.threshold))
}

// DrainAll writes everything left in the buffer.
func (w *Writer) DrainAll(ctx context.Context) error {
	return w.write(ctx, w.buf.TakeAll())
}

func (w *Writer) write(ctx context.Context, events []core.CapturedEvent) error {
	if len(events) == 0 {
		return nil
	}
	var errs []error
	for _, s := range w.sinks {
		if err := s.Write(ctx, events); err != nil {
			metrics.SinkErrorsTotal.WithLabelValues(s.Name()).Inc()
			w.log.WithError(err).WithField("sink", s.Name()).WithField("events", len(events)).Warn("sink write failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		metrics.SinkRecordsTotal.WithLabelValues(s.Name()).Add(float64(len(events)))
	}
	return errors.Join(errs...)
}

// Run drains on every tick until ctx is done. It does not perform the final drain.
// A cycle in progress when ctx is cancelled still completes.
func (w *Writer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drainDetached(ctx)
		}
	}
}

func (w *Writer) drainDetached(ctx context.Context) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	_ = w.Drain(dctx)
}

// Close closes every sink.
func (w *Writer) Close() error {
	var errs []error
	for _, s := range w.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
