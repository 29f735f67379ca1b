// Package file replays a recorded pcap or pcapng capture.
package file

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

const Name = "file"

// Options are the file entries of capture.options.
type Options struct {
	// Realtime paces replay by the recorded timestamps.
	Realtime bool `mapstructure:"realtime"`
}

// Config configures the source.
type Config struct {
	Path    string
	Filter  string
	Options map[string]any
}

type Source struct {
	path     string
	handle   *pcap.Handle
	realtime bool
	closed   atomic.Bool

	lastTS   time.Time
	lastWall time.Time
	sleep    func(time.Duration)
}

func NewSource(cfg Config) (*Source, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file: path is required")
	}
	var opts Options
	if err := utils.DecodeOptions(cfg.Options, &opts); err != nil {
		return nil, fmt.Errorf("file: %w", err)
	}

	handle, err := pcap.OpenOffline(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file %s: %w", cfg.Path, err)
	}
	if cfg.Filter != "" {
		if err := handle.SetBPFFilter(cfg.Filter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("file: set filter %q: %w", cfg.Filter, err)
		}
	}
	if lt := handle.LinkType(); lt != layers.LinkTypeIEEE80211Radio && lt != layers.LinkTypeIEEE802_11 {
		log.GetLogger().WithField("path", cfg.Path).WithField("link_type", lt.String()).
			Warn("file: recording does not contain 802.11 frames")
	}

	return &Source{path: cfg.Path, handle: handle, realtime: opts.Realtime, sleep: time.Sleep}, nil
}

func (s *Source) ReadFrame() ([]byte, time.Time, error) {
	if s.closed.Load() {
		return nil, time.Time{}, core.ErrSourceClosed
	}
	data, ci, err := s.handle.ReadPacketData()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, time.Time{}, io.EOF
		}
		return nil, time.Time{}, fmt.Errorf("failed to read packet: %w", err)
	}
	if s.realtime {
		s.pace(ci.Timestamp)
	}
	return data, ci.Timestamp, nil
}

func (s *Source) pace(ts time.Time) {
	now := time.Now()
	if !s.lastTS.IsZero() {
		gap := ts.Sub(s.lastTS) - now.Sub(s.lastWall)
		if gap > 0 {
			s.sleep(gap)
			now = now.Add(gap)
		}
	}
	s.lastTS, s.lastWall = ts, now
}

func (s *Source) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.handle.Close()
	return nil
}
