// Package live captures from a network interface through libpcap.
package live

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/log"
	"firestige.xyz/wardriver/internal/utils"
)

const Name = "pcap"

const (
	defaultSnapLen = 65536
	defaultTimeout = 100 * time.Millisecond
)

// Options are the pcap entries of capture.options.
type Options struct {
	Promiscuous bool `mapstructure:"promiscuous"`
	Immediate   bool `mapstructure:"immediate"`
	RFMon       bool `mapstructure:"rfmon"`
	BufferSize  int  `mapstructure:"buffer_size"` // bytes, 0 keeps the libpcap default
}

// Config configures the source.
type Config struct {
	Device      string
	SnapLen     int
	ReadTimeout time.Duration
	Filter      string
	Options     map[string]any
}

type Source struct {
	handle *pcap.Handle
	device string
	closed atomic.Bool
}

// NewSource activates a promiscuous, immediate-mode handle on cfg.Device.
func NewSource(cfg Config) (*Source, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("pcap: device is required")
	}
	opts := Options{Promiscuous: true, Immediate: true}
	if err := utils.DecodeOptions(cfg.Options, &opts); err != nil {
		return nil, fmt.Errorf("pcap: %w", err)
	}
	if cfg.SnapLen <= 0 {
		cfg.SnapLen = defaultSnapLen
	}
	// pcap.BlockForever would keep Close waiting on a silent channel
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultTimeout
	}

	inactive, err := pcap.NewInactiveHandle(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("pcap: open %s: %w", cfg.Device, err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(cfg.SnapLen); err != nil {
		return nil, fmt.Errorf("pcap: set snap len: %w", err)
	}
	if err := inactive.SetPromisc(opts.Promiscuous); err != nil {
		return nil, fmt.Errorf("pcap: set promiscuous: %w", err)
	}
	if err := inactive.SetTimeout(cfg.ReadTimeout); err != nil {
		return nil, fmt.Errorf("pcap: set timeout: %w", err)
	}
	if err := inactive.SetImmediateMode(opts.Immediate); err != nil {
		return nil, fmt.Errorf("pcap: set immediate mode: %w", err)
	}
	if opts.RFMon {
		if err := inactive.SetRFMon(true); err != nil {
			log.GetLogger().WithError(err).WithField("device", cfg.Device).Warn("pcap: cannot set monitor mode")
		}
	}
	if opts.BufferSize > 0 {
		if err := inactive.SetBufferSize(opts.BufferSize); err != nil {
			return nil, fmt.Errorf("pcap: set buffer size: %w", err)
		}
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("pcap: activate %s: %w", cfg.Device, err)
	}

	if cfg.Filter != "" {
		if err := handle.SetBPFFilter(cfg.Filter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("pcap: set filter %q: %w", cfg.Filter, err)
		}
	}

	if lt := handle.LinkType(); lt != layers.LinkTypeIEEE80211Radio && lt != layers.LinkTypeIEEE802_11 {
		log.GetLogger().WithField("device", cfg.Device).WithField("link_type", lt.String()).
			Warn("pcap: interface is not delivering 802.11 frames, is it in monitor mode?")
	}

	return &Source{handle: handle, device: cfg.Device}, nil
}

func (s *Source) ReadFrame() ([]byte, time.Time, error) {
	if s.closed.Load() {
		return nil, time.Time{}, core.ErrSourceClosed
	}
	data, ci, err := s.handle.ReadPacketData()
	switch {
	case err == nil:
		return data, ci.Timestamp, nil
	case errors.Is(err, pcap.NextErrorTimeoutExpired):
		return nil, time.Time{}, core.ErrReadTimeout
	case errors.Is(err, io.EOF), errors.Is(err, pcap.NextErrorNoMorePackets):
		return nil, time.Time{}, io.EOF
	}
	return nil, time.Time{}, err
}

func (s *Source) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if st, err := s.handle.Stats(); err == nil {
		log.GetLogger().WithFields(map[string]interface{}{
			"device":     s.device,
			"received":   st.PacketsReceived,
			"dropped":    st.PacketsDropped,
			"if_dropped": st.PacketsIfDropped,
		}).Info("pcap source closed")
	}
	s.handle.Close()
	return nil
}
