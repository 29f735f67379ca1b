// Package pipeline batches captured sightings and persists them.
package pipeline

import (
	"context"
	"sync"
	"time"

	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/log"
	"firestige.xyz/wardriver/internal/sink"
)

// Config contains pipeline configuration.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	ChannelSize   int // capture → aggregator channel capacity
}

// Pipeline connects the capture channel, the aggregator and the log writer.
type Pipeline struct {
	events chan core.CapturedEvent
	buf    *BatchBuffer
	agg    *Aggregator
	writer *Writer
}

func New(cfg Config, sinks ...sink.Sink) *Pipeline {
	if cfg.ChannelSize <= 0 {
		cfg.ChannelSize = 1024
	}
	buf := NewBatchBuffer()
	return &Pipeline{
		events: make(chan core.CapturedEvent, cfg.ChannelSize),
		buf:    buf,
		agg:    NewAggregator(buf, cfg.BatchSize),
		writer: NewWriter(buf, cfg.BatchSize, cfg.FlushInterval, sinks...),
	}
}

// Events is the channel the capture loop sends to and closes.
func (p *Pipeline) Events() chan<- core.CapturedEvent {
	return p.events
}

// Run processes events until ctx is done or the events channel is closed.
// Before returning it flushes the partial batch, drains the buffer and
// closes the sinks.
func (p *Pipeline) Run(ctx context.Context) error {
	log.GetLogger().Info("pipeline starting")

	writerCtx, stopWriter := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer stopWriter()
		p.agg.Run(ctx, p.events)
	}()

	p.writer.Run(writerCtx)
	wg.Wait()

	// ctx may already be cancelled; the final drain must still reach the sinks
	finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	drainErr := p.writer.DrainAll(finalCtx)
	closeErr := p.writer.Close()

	log.GetLogger().Info("pipeline stopped")
	if drainErr != nil {
		return drainErr
	}
	return closeErr
}
