// Package afpacket implements an AF_PACKET TPACKET_V3 capture source.
package afpacket

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/gopacket/afpacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/log"
	"firestige.xyz/wardriver/internal/utils"
)

const Name = "afpacket"

const (
	defaultBufferSizeMB = 8
	defaultSnapLen      = 65535
	defaultTimeout      = 100 * time.Millisecond
)

// Options are the afpacket entries of capture.options.
type Options struct {
	BufferSizeMB int `mapstructure:"buffer_size_mb"`
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
	handle *afpacket.TPacket
	device string
	closed atomic.Bool
}

func NewSource(cfg Config) (*Source, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("afpacket: device is required")
	}
	opts := Options{BufferSizeMB: defaultBufferSizeMB}
	if err := utils.DecodeOptions(cfg.Options, &opts); err != nil {
		return nil, fmt.Errorf("afpacket: %w", err)
	}
	if cfg.SnapLen <= 0 {
		cfg.SnapLen = defaultSnapLen
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultTimeout
	}

	frameSize, blockSize, numBlocks, err := recomputeSize(opts.BufferSizeMB, cfg.SnapLen, os.Getpagesize())
	if err != nil {
		return nil, fmt.Errorf("afpacket: %w", err)
	}

	tp, err := afpacket.NewTPacket(
		afpacket.OptInterface(cfg.Device),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(cfg.ReadTimeout),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return nil, fmt.Errorf("afpacket: open %s: %w", cfg.Device, err)
	}

	if cfg.Filter != "" {
		rawBPF, err := utils.CompileBpf(layers.LinkTypeIEEE80211Radio, frameSize, cfg.Filter)
		if err != nil {
			tp.Close()
			return nil, err
		}
		if err := tp.SetBPF(rawBPF); err != nil {
			tp.Close()
			return nil, fmt.Errorf("afpacket: set BPF: %w", err)
		}
	}

	if err := tp.InitSocketStats(); err != nil {
		log.GetLogger().WithError(err).Warn("afpacket: failed to init socket stats")
	}

	log.GetLogger().WithFields(map[string]interface{}{
		"device":     cfg.Device,
		"frame_size": frameSize,
		"block_size": blockSize,
		"num_blocks": numBlocks,
	}).Debug("afpacket ring configured")

	return &Source{handle: tp, device: cfg.Device}, nil
}

// ReadFrame returns ring-buffer memory that is only valid until the next call.
func (s *Source) ReadFrame() ([]byte, time.Time, error) {
	if s.closed.Load() {
		return nil, time.Time{}, core.ErrSourceClosed
	}
	data, ci, err := s.handle.ZeroCopyReadPacketData()
	if err != nil {
		if errors.Is(err, afpacket.ErrTimeout) || errors.Is(err, afpacket.ErrPoll) {
			return nil, time.Time{}, core.ErrReadTimeout
		}
		return nil, time.Time{}, err
	}
	return data, ci.Timestamp, nil
}

// Close releases the ring. It must not race with ReadFrame.
func (s *Source) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if _, v3, err := s.handle.SocketStats(); err == nil {
		log.GetLogger().WithField("device", s.device).
			WithField("packets", v3.Packets()).
			WithField("drops", v3.Drops()).
			Info("afpacket source closed")
	}
	s.handle.Close()
	return nil
}
