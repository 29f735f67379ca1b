package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/core/decoder"
	"firestige.xyz/wardriver/internal/log"
	"firestige.xyz/wardriver/internal/metrics"
)

// Stats are the loop counters.
type Stats struct {
	Frames       uint64
	DecodeErrors uint64
	Emitted      uint64
}

// Loop reads frames, decodes them and emits CapturedEvents.
type Loop struct {
	src   Source
	cache LocationReader
	dec   decoder.Decoder
	out   chan<- core.CapturedEvent
	iface string
	warn  *LogLimiter
	log   log.Logger

	frames       atomic.Uint64
	decodeErrors atomic.Uint64
	emitted      atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithInterface labels logs and metrics with the capture interface name.
func WithInterface(name string) Option {
	return func(l *Loop) { l.iface = name }
}

// WithDecoder replaces the frame decoder.
func WithDecoder(d decoder.Decoder) Option {
	return func(l *Loop) { l.dec = d }
}

// WithLogLimiter bounds decode-failure logging. Nil disables the bound.
func WithLogLimiter(lim *LogLimiter) Option {
	return func(l *Loop) { l.warn = lim }
}

func NewLoop(src Source, cache LocationReader, wanted decoder.TagSet, out chan<- core.CapturedEvent, opts ...Option) *Loop {
	l := &Loop{
		src:   src,
		cache: cache,
		dec:   decoder.NewFrameDecoder(wanted),
		out:   out,
		iface: "unknown",
		warn:  NewLogLimiter(10, 10*time.Second),
	}
	for _, o := range opts {
		o(l)
	}
	l.log = log.GetLogger().WithField("interface", l.iface)
	return l
}

// Run captures until ctx is done or the source ends. The source and the
// output channel are closed when Run returns.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.out)
	defer func() {
		if err := l.src.Close(); err != nil {
			l.log.WithError(err).Warn("close capture source")
		}
	}()

	framesTotal := metrics.FramesCapturedTotal.WithLabelValues(l.iface)
	l.log.Info("capture started")

	for ctx.Err() == nil {
		data, ts, err := l.src.ReadFrame()
		if err != nil {
			switch {
			case errors.Is(err, core.ErrReadTimeout):
				continue
			case errors.Is(err, io.EOF):
				l.log.Info("capture source exhausted")
				return nil
			case ctx.Err() != nil, errors.Is(err, core.ErrSourceClosed):
				return nil
			}
			return fmt.Errorf("%w: %s: %w", core.ErrSourceFailed, l.iface, err)
		}
		l.frames.Add(1)
		framesTotal.Inc()

		frame, found, err := l.dec.Decode(data)
		if err != nil {
			l.decodeFailed(err, len(data))
			continue
		}
		if !found {
			continue
		}

		ev := core.CapturedEvent{Frame: frame, Fix: l.cache.Load(), CapturedAt: ts}
		select {
		case l.out <- ev:
			l.emitted.Add(1)
			metrics.EventsEmittedTotal.WithLabelValues(l.iface, frame.Type.String()).Inc()
		case <-ctx.Done():
			return nil
		}
	}
	l.log.WithField("frames", l.frames.Load()).WithField("emitted", l.emitted.Load()).Info("capture stopped")
	return nil
}

// Stats returns a snapshot of the counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Frames:       l.frames.Load(),
		DecodeErrors: l.decodeErrors.Load(),
		Emitted:      l.emitted.Load(),
	}
}

func (l *Loop) decodeFailed(err error, size int) {
	l.decodeErrors.Add(1)
	reason := decodeReason(err)
	metrics.DecodeErrorsTotal.WithLabelValues(l.iface, reason).Inc()
	if l.log.IsDebugEnabled() && l.warn.Allow(reason, time.Now()) {
		l.log.WithError(err).WithField("size", size).Debug("drop undecodable frame")
	}
}

func decodeReason(err error) string {
	switch {
	case errors.Is(err, core.ErrFrameTooShort):
		return "too_short"
	case errors.Is(err, core.ErrRadiotapTruncated):
		return "radiotap_truncated"
	case errors.Is(err, core.ErrTagOverrun):
		return "tag_overrun"
	default:
		return "other"
	}
}
