// Package daemon wires the capture pipeline together and runs it until
// shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"firestige.xyz/wardriver/internal/capture"
	"firestige.xyz/wardriver/internal/config"
	"firestige.xyz/wardriver/internal/gps"
	"firestige.xyz/wardriver/internal/log"
	"firestige.xyz/wardriver/internal/metrics"
	"firestige.xyz/wardriver/internal/monitor"
	"firestige.xyz/wardriver/internal/pipeline"
	"firestige.xyz/wardriver/internal/retry"
	"firestige.xyz/wardriver/internal/sink"
	"firestige.xyz/wardriver/internal/sink/console"
	"firestige.xyz/wardriver/internal/sink/file"
	"firestige.xyz/wardriver/internal/sink/kafka"
	"firestige.xyz/wardriver/internal/source"
	filesource "firestige.xyz/wardriver/internal/source/file"
	"firestige.xyz/wardriver/internal/source/live"
)

const teardownTimeout = 10 * time.Second

// SourceOpener opens the configured capture source.
type SourceOpener func(source.Config) (capture.Source, error)

// Daemon owns the lifecycle of one capture session.
type Daemon struct {
	config *config.Config

	// Collaborators, replaceable for tests
	ctrl       monitor.Controller
	lister     monitor.Lister
	openSource SourceOpener
	openGPS    gps.Opener
	sleep      retry.SleepFunc
	stdout     io.Writer
	extraSinks []sink.Sink
	pidFile    string

	// Set during Run
	metricsServer *metrics.Server
	manager       *monitor.Manager
	monIface      string
	loop          *capture.Loop
	cache         *gps.Cache
}

// Option configures a Daemon.
type Option func(*Daemon)

func WithController(c monitor.Controller) Option { return func(d *Daemon) { d.ctrl = c } }
func WithLister(l monitor.Lister) Option         { return func(d *Daemon) { d.lister = l } }
func WithSourceOpener(o SourceOpener) Option     { return func(d *Daemon) { d.openSource = o } }
func WithGPSOpener(o gps.Opener) Option          { return func(d *Daemon) { d.openGPS = o } }
func WithSleep(fn retry.SleepFunc) Option        { return func(d *Daemon) { d.sleep = fn } }
func WithStdout(w io.Writer) Option              { return func(d *Daemon) { d.stdout = w } }

// WithSink adds a sink next to the configured ones.
func WithSink(s sink.Sink) Option { return func(d *Daemon) { d.extraSinks = append(d.extraSinks, s) } }

// WithPIDFile writes the process ID to path for the duration of Run.
func WithPIDFile(path string) Option { return func(d *Daemon) { d.pidFile = path } }

// New creates a daemon for cfg. Collaborators default to the real system.
func New(cfg *config.Config, opts ...Option) *Daemon {
	d := &Daemon{
		config:     cfg,
		ctrl:       monitor.NewAirmon(monitor.Exec),
		lister:     live.Lister{},
		openSource: source.Open,
		openGPS:    gps.OpenSerial,
		sleep:      retry.Sleep,
		stdout:     os.Stdout,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Run starts every component and blocks until ctx is cancelled or the
// capture source ends. A capture failure or a failed monitor setup is
// returned; GPS failures are only logged.
func (d *Daemon) Run(ctx context.Context) error {
	// 1. Initialize logging system
	if err := d.initLogging(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger := log.GetLogger()
	logger.WithFields(map[string]interface{}{
		"interface": d.config.Interface,
		"source":    d.config.Capture.Source,
		"output":    d.config.Output.Path,
	}).Info("starting wardriver")

	// 2. Write PID file
	if err := d.writePIDFile(); err != nil {
		return err
	}
	defer d.removePIDFile()

	// 3. Start metrics server
	if err := d.startMetrics(ctx); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	defer d.stopMetrics()

	// 4. Monitor mode
	iface, err := d.setupMonitor(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer d.teardownMonitor(ctx)

	// 5. Sinks, then the source; sinks are owned by the pipeline from here on
	sinks, err := d.openSinks()
	if err != nil {
		return err
	}
	src, err := d.openCapture(ctx, iface)
	if err != nil {
		closeSinks(sinks)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("open capture source: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	d.cache = gps.NewCache()

	// 6. GPS reader
	if d.config.GPS.Enabled {
		reader := d.newGPSReader()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reader.Run(runCtx); err != nil {
				logger.WithError(err).Error("gps reader stopped, sightings carry the last known fix")
			}
		}()
	}

	// 7. Channel selection
	d.startChannels(runCtx, iface, &wg)

	// 8. Pipeline and capture loop
	p := pipeline.New(pipeline.Config{
		BatchSize:     d.config.Batch.Size,
		FlushInterval: d.config.Output.FlushInterval,
		ChannelSize:   d.config.Capture.ChannelCapacity,
	}, sinks...)

	pipeErr := make(chan error, 1)
	go func() { pipeErr <- p.Run(runCtx) }()

	d.loop = capture.NewLoop(src, d.cache, d.config.Capture.TagSet(), p.Events(),
		capture.WithInterface(iface),
		capture.WithLogLimiter(capture.NewLogLimiter(10, time.Second)),
	)
	captureErr := d.loop.Run(runCtx)
	if captureErr != nil {
		logger.WithError(captureErr).Error("capture stopped")
	}

	// The loop closed the event channel; the pipeline finishes on its own.
	perr := <-pipeErr
	cancel()
	wg.Wait()

	stats := d.loop.Stats()
	logger.WithFields(map[string]interface{}{
		"frames":        stats.Frames,
		"decode_errors": stats.DecodeErrors,
		"emitted":       stats.Emitted,
	}).Info("wardriver stopped")

	if captureErr != nil {
		return captureErr
	}
	return perr
}

// Stats returns the capture counters of the last Run.
func (d *Daemon) Stats() capture.Stats {
	if d.loop == nil {
		return capture.Stats{}
	}
	return d.loop.Stats()
}

// Run runs a daemon for cfg until SIGINT or SIGTERM.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return New(cfg, opts...).Run(ctx)
}

func (d *Daemon) initLogging() error {
	if err := log.Init(d.config.Log); err != nil {
		return err
	}
	log.GetLogger().WithField("level", d.config.Log.Level).Debug("logging initialized")
	return nil
}

func (d *Daemon) startMetrics(ctx context.Context) error {
	if !d.config.Metrics.Enabled {
		log.GetLogger().Debug("metrics server disabled")
		return nil
	}

	d.metricsServer = metrics.NewServer(d.config.Metrics.Listen, d.config.Metrics.Path)
	if err := d.metricsServer.Start(ctx); err != nil {
		d.metricsServer = nil
		return err
	}
	return nil
}

func (d *Daemon) stopMetrics() {
	if d.metricsServer == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.metricsServer.Stop(shutdownCtx); err != nil {
		log.GetLogger().WithError(err).Error("error stopping metrics server")
	}
}

// setupMonitor returns the interface to capture on.
func (d *Daemon) setupMonitor(ctx context.Context) (string, error) {
	m := d.config.Monitor
	if !m.Enabled {
		return d.config.Interface, nil
	}

	d.manager = monitor.NewManager(d.ctrl, d.lister, retry.Policy{
		MaxAttempts: m.MaxAttempts,
		Delay:       m.RetryDelay,
	}).WithSleep(d.sleep)

	mon, err := d.manager.Setup(ctx, d.config.Interface)
	if err != nil {
		return "", fmt.Errorf("monitor mode on %s: %w", d.config.Interface, err)
	}
	d.monIface = mon
	return mon, nil
}

func (d *Daemon) teardownMonitor(ctx context.Context) {
	if d.manager == nil || d.monIface == "" {
		return
	}
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()
	if err := d.manager.Teardown(tctx, d.monIface); err != nil {
		log.GetLogger().WithError(err).Warn("monitor mode teardown failed")
	}
}

// startChannels tunes a single channel or starts the hopper.
func (d *Daemon) startChannels(ctx context.Context, iface string, wg *sync.WaitGroup) {
	m := d.config.Monitor
	if d.manager == nil || len(m.Channels) == 0 {
		return
	}
	if len(m.Channels) == 1 {
		if err := d.manager.Tune(ctx, iface, m.Channels[0]); err != nil {
			log.GetLogger().WithError(err).WithField("channel", m.Channels[0]).
				Warn("could not set channel, capturing on the current one")
		}
		return
	}
	hopper := monitor.NewHopper(d.ctrl, iface, m.Channels, m.HopInterval)
	wg.Add(1)
	go func() {
		defer wg.Done()
		hopper.Run(ctx)
	}()
}

func (d *Daemon) newGPSReader() *gps.Reader {
	g := d.config.GPS
	return gps.NewReader(gps.Config{
		Device:      g.Device,
		BaudRate:    g.BaudRate,
		ReadTimeout: g.ReadTimeout,
		Open: retry.Policy{
			MaxAttempts: g.OpenAttempts,
			Delay:       g.OpenDelay,
		},
	}, d.cache, gps.WithOpener(d.openGPS), gps.WithSleep(d.sleep))
}

// openCapture opens the source. Live interfaces are retried under the
// monitor policy; a recording is opened once.
func (d *Daemon) openCapture(ctx context.Context, iface string) (capture.Source, error) {
	cfg := d.sourceConfig(iface)
	if cfg.Type == filesource.Name {
		return d.openSource(cfg)
	}

	policy := retry.Policy{
		MaxAttempts: d.config.Monitor.MaxAttempts,
		Delay:       d.config.Monitor.RetryDelay,
	}
	var src capture.Source
	err := retry.New(policy).WithSleep(d.sleep).Do(ctx, func(attempt int) error {
		s, err := d.openSource(cfg)
		if err != nil {
			log.GetLogger().WithError(err).WithField("attempt", attempt).
				WithField("interface", iface).Warn("open capture source failed")
			return err
		}
		src = s
		return nil
	})
	return src, err
}

func (d *Daemon) sourceConfig(iface string) source.Config {
	c := d.config.Capture
	return source.Config{
		Type:        c.Source,
		Interface:   iface,
		File:        c.File,
		SnapLen:     c.SnapLen,
		ReadTimeout: c.ReadTimeout,
		Filter:      c.Filter,
		Options:     c.Options,
	}
}

func (d *Daemon) openSinks() ([]sink.Sink, error) {
	o := d.config.Output

	fs, err := file.NewSink(o.Path)
	if err != nil {
		return nil, fmt.Errorf("open output log: %w", err)
	}
	sinks := []sink.Sink{fs}

	if o.Console {
		sinks = append(sinks, console.NewWriterSink(d.stdout))
	}
	if o.Kafka.Enabled {
		ks, err := kafka.NewSink(o.Kafka.Config)
		if err != nil {
			closeSinks(sinks)
			return nil, fmt.Errorf("create kafka sink: %w", err)
		}
		sinks = append(sinks, ks)
	}
	return append(sinks, d.extraSinks...), nil
}

func closeSinks(sinks []sink.Sink) {
	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		log.GetLogger().WithError(err).Warn("close sinks")
	}
}

func (d *Daemon) writePIDFile() error {
	if d.pidFile == "" {
		return nil
	}
	data := []byte(strconv.Itoa(os.Getpid()) + "\n")
	if err := os.WriteFile(d.pidFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write PID file %s: %w", d.pidFile, err)
	}
	return nil
}

func (d *Daemon) removePIDFile() {
	if d.pidFile == "" {
		return
	}
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		log.GetLogger().WithError(err).Warn("failed to remove PID file")
	}
}
