package monitor

import (
	"context"
	"time"

	"firestige.xyz/wardriver/internal/log"
	"firestige.xyz/wardriver/internal/metrics"
)

// Hopper cycles the interface through a channel list.
type Hopper struct {
	ctrl     Controller
	iface    string
	channels []int
	period   time.Duration
}

func NewHopper(ctrl Controller, iface string, channels []int, period time.Duration) *Hopper {
	if period <= 0 {
		period = 250 * time.Millisecond
	}
	return &Hopper{ctrl: ctrl, iface: iface, channels: channels, period: period}
}

// Run hops until ctx is done. Failures are logged and the next channel is tried.
func (h *Hopper) Run(ctx context.Context) {
	if len(h.channels) == 0 {
		return
	}
	l := log.GetLogger().WithField("interface", h.iface)
	l.Infof("channel hopper started (period:%s channels:%v)", h.period, h.channels)

	tick := time.NewTicker(h.period)
	defer tick.Stop()
	gauge := metrics.MonitorChannel.WithLabelValues(h.iface)

	for loop := 0; ; loop++ {
		ch := h.channels[loop%len(h.channels)]
		if err := h.ctrl.SetChannel(ctx, h.iface, ch); err != nil {
			if ctx.Err() != nil {
				return
			}
			l.WithError(err).WithField("channel", ch).Error("hop failed")
		} else {
			gauge.Set(float64(ch))
		}
		select {
		case <-ctx.Done():
			l.Debug("channel hopper stopped")
			return
		case <-tick.C:
		}
	}
}
