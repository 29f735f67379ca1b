package gps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/log"
	"firestige.xyz/wardriver/internal/metrics"
	"firestige.xyz/wardriver/internal/retry"
)

// maxLineLen bounds a buffered NMEA line. Sentences are at most 82 bytes.
const maxLineLen = 256

// State of the GPS reader.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateStreaming:
		return "streaming"
	default:
		return "disconnected"
	}
}

// Port is an open serial device.
type Port interface {
	io.Reader
	io.Closer
}

// Opener opens device at baud. Reads on the returned port must give up after readTimeout.
type Opener func(device string, baud int, readTimeout time.Duration) (Port, error)

// Publisher receives decoded fixes.
type Publisher interface {
	Publish(fix core.Fix) bool
}

// Config configures the reader.
type Config struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration
	Open        retry.Policy
}

// Reader reads NMEA sentences from a serial device and publishes RMC fixes.
type Reader struct {
	cfg   Config
	open  Opener
	cache Publisher
	sleep retry.SleepFunc
	state atomic.Int32
	log   log.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithOpener replaces the serial opener.
func WithOpener(open Opener) Option {
	return func(r *Reader) { r.open = open }
}

// WithSleep replaces the retry sleep, used by tests.
func WithSleep(fn retry.SleepFunc) Option {
	return func(r *Reader) { r.sleep = fn }
}

func NewReader(cfg Config, cache Publisher, opts ...Option) *Reader {
	r := &Reader{
		cfg:   cfg,
		open:  OpenSerial,
		cache: cache,
		sleep: retry.Sleep,
		log:   log.GetLogger().WithField("device", cfg.Device),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// State returns the current reader state.
func (r *Reader) State() State {
	return State(r.state.Load())
}

func (r *Reader) setState(s State) {
	if State(r.state.Swap(int32(s))) != s {
		metrics.GPSState.Set(float64(s))
		r.log.Debugf("gps state %s", s)
	}
}

// Run reads until ctx is cancelled. A lost device is reopened under the open
// policy. It returns ErrGPSUnavailable once the device cannot be opened.
func (r *Reader) Run(ctx context.Context) error {
	defer r.setState(StateDisconnected)
	for {
		port, err := r.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: %s: %w", core.ErrGPSUnavailable, r.cfg.Device, err)
		}
		r.setState(StateConnected)
		r.log.Info("gps device opened")

		err = r.stream(ctx, port)
		_ = port.Close()
		r.setState(StateDisconnected)
		if ctx.Err() != nil {
			return nil
		}
		r.log.WithError(err).Warn("gps stream lost, reopening")
	}
}

func (r *Reader) connect(ctx context.Context) (Port, error) {
	var port Port
	rt := retry.New(r.cfg.Open).WithSleep(r.sleep)
	for rt.Next(ctx) {
		p, err := r.open(r.cfg.Device, r.cfg.BaudRate, r.cfg.ReadTimeout)
		if err == nil {
			port = p
			break
		}
		rt.Fail(err)
		r.log.WithError(err).WithField("attempt", rt.Attempt()).Warn("gps open failed")
	}
	if port != nil {
		return port, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, rt.Err()
}

// stream consumes the port until a non-timeout I/O error or ctx is done.
func (r *Reader) stream(ctx context.Context, port Port) error {
	buf := make([]byte, 128)
	line := make([]byte, 0, maxLineLen)
	overflow := false

	for ctx.Err() == nil {
		n, err := port.Read(buf)
		if n > 0 {
			r.setState(StateStreaming)
			chunk := buf[:n]
			for len(chunk) > 0 {
				i := bytes.IndexByte(chunk, '\n')
				if i < 0 {
					if len(line)+len(chunk) > maxLineLen {
						overflow = true
						line = line[:0]
					} else {
						line = append(line, chunk...)
					}
					break
				}
				if !overflow && len(line)+i <= maxLineLen {
					line = append(line, chunk[:i]...)
					r.handleLine(string(bytes.TrimRight(line, "\r")))
				}
				line = line[:0]
				overflow = false
				chunk = chunk[i+1:]
			}
		}
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return err
		}
	}
	return nil
}

func (r *Reader) handleLine(line string) {
	s, err := ParseSentence(line)
	if err != nil {
		metrics.GPSSentencesTotal.WithLabelValues("invalid").Inc()
		r.log.WithError(err).Debugf("drop nmea sentence %q", line)
		return
	}
	metrics.GPSSentencesTotal.WithLabelValues(s.Kind.String()).Inc()

	if s.Kind != SentenceRMC {
		return
	}
	if r.cache.Publish(s.Fix) {
		metrics.GPSFixUpdatesTotal.Inc()
		if r.log.IsTraceEnabled() {
			r.log.Tracef("gps fix time=%.2f lat=%.6f lon=%.6f", s.Fix.Time, s.Fix.Lat, s.Fix.Lon)
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
