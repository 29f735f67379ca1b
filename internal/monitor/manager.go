package monitor

import (
	"context"
	"fmt"

	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/log"
	"firestige.xyz/wardriver/internal/metrics"
	"firestige.xyz/wardriver/internal/retry"
)

// Manager runs monitor-mode setup and teardown under a retry policy.
type Manager struct {
	ctrl   Controller
	lister Lister
	policy retry.Policy
	sleep  retry.SleepFunc
	log    log.Logger
}

func NewManager(ctrl Controller, lister Lister, policy retry.Policy) *Manager {
	return &Manager{
		ctrl:   ctrl,
		lister: lister,
		policy: policy,
		sleep:  retry.Sleep,
		log:    log.GetLogger(),
	}
}

// WithSleep replaces the retry sleep, used by tests.
func (m *Manager) WithSleep(fn retry.SleepFunc) *Manager {
	m.sleep = fn
	return m
}

// Setup enables monitor mode on iface and returns the interface that
// appeared. Before every re-attempt it stops "<iface>mon" left over from the
// previous one.
func (m *Manager) Setup(ctx context.Context, iface string) (string, error) {
	rt := retry.New(m.policy).WithSleep(m.sleep)
	for rt.Next(ctx) {
		l := m.log.WithField("interface", iface).WithField("attempt", rt.Attempt())
		if rt.Attempt() > 1 {
			if err := m.ctrl.Disable(ctx, iface+"mon"); err != nil {
				l.WithError(err).Warn("stop stale monitor interface")
			}
		}
		mon, err := m.attempt(ctx, iface)
		if err == nil {
			l.WithField("monitor", mon).Info("monitor mode enabled")
			return mon, nil
		}
		rt.Fail(err)
		l.WithError(err).Warn("monitor mode setup failed")
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return "", rt.Err()
}

func (m *Manager) attempt(ctx context.Context, iface string) (string, error) {
	before, err := m.lister.ListInterfaces()
	if err != nil {
		return "", fmt.Errorf("list interfaces: %w", err)
	}
	if err := m.ctrl.Enable(ctx, iface); err != nil {
		return "", err
	}
	after, err := m.lister.ListInterfaces()
	if err != nil {
		return "", fmt.Errorf("list interfaces: %w", err)
	}
	added := Diff(before, after)
	if len(added) == 0 {
		return "", core.ErrNoMonitorInterface
	}
	if len(added) > 1 {
		m.log.WithField("interfaces", added).Warn("several interfaces appeared, using the first")
	}
	return added[0], nil
}

// Teardown stops monitor mode on the interface returned by Setup.
func (m *Manager) Teardown(ctx context.Context, monIface string) error {
	if err := m.ctrl.Disable(ctx, monIface); err != nil {
		return fmt.Errorf("disable monitor mode on %s: %w", monIface, err)
	}
	m.log.WithField("monitor", monIface).Info("monitor mode disabled")
	return nil
}

// Tune sets a fixed channel under the retry policy.
func (m *Manager) Tune(ctx context.Context, iface string, channel int) error {
	rt := retry.New(m.policy).WithSleep(m.sleep)
	for rt.Next(ctx) {
		err := m.ctrl.SetChannel(ctx, iface, channel)
		if err == nil {
			metrics.MonitorChannel.WithLabelValues(iface).Set(float64(channel))
			return nil
		}
		rt.Fail(err)
		m.log.WithError(err).WithField("channel", channel).Warn("set channel failed")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return rt.Err()
}

// Setup is Manager.Setup with the default sleep.
func Setup(ctx context.Context, ctrl Controller, lister Lister, iface string, policy retry.Policy) (string, error) {
	return NewManager(ctrl, lister, policy).Setup(ctx, iface)
}
