// Package kafka publishes sightings to a Kafka topic, one JSON message per event.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/log"
	"firestige.xyz/wardriver/internal/sink"
)

const (
	Name = "kafka"

	defaultBatchSize    = 100
	defaultBatchTimeout = 100 * time.Millisecond
	defaultCompression  = "snappy"
	defaultMaxAttempts  = 3
)

// Config represents Kafka sink configuration.
type Config struct {
	Brokers      []string      `mapstructure:"brokers" yaml:"brokers"`
	Topic        string        `mapstructure:"topic" yaml:"topic"`
	BatchSize    int           `mapstructure:"batch_size" yaml:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout" yaml:"batch_timeout"`
	Compression  string        `mapstructure:"compression" yaml:"compression"` // none|gzip|snappy|lz4
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink sends sightings to Kafka.
type Sink struct {
	writer messageWriter
	config Config

	reportedCount atomic.Uint64
	errorCount    atomic.Uint64
}

// Record is the JSON document published for each sighting.
type Record struct {
	Type        string  `json:"type"`
	SSID        string  `json:"ssid"`
	Transmitter string  `json:"transmitter"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	GPSTime     float64 `json:"gps_time"`
	CapturedAt  int64   `json:"captured_at"` // unix milliseconds
}

func NewSink(cfg Config) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka sink: brokers is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka sink: topic is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = defaultBatchTimeout
	}
	if cfg.Compression == "" {
		cfg.Compression = defaultCompression
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	codec, err := compressionCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:          cfg.Brokers,
		Topic:            cfg.Topic,
		Balancer:         &kafka.Hash{}, // same transmitter, same partition
		BatchSize:        cfg.BatchSize,
		BatchTimeout:     cfg.BatchTimeout,
		MaxAttempts:      cfg.MaxAttempts,
		CompressionCodec: codec,
		Async:            false,
	})

	log.GetLogger().WithFields(map[string]interface{}{
		"brokers":     cfg.Brokers,
		"topic":       cfg.Topic,
		"compression": cfg.Compression,
	}).Info("kafka sink configured")

	return newSink(cfg, w), nil
}

func newSink(cfg Config, w messageWriter) *Sink {
	return &Sink{writer: w, config: cfg}
}

func compressionCodec(name string) (kafka.CompressionCodec, error) {
	switch name {
	case "none":
		return nil, nil
	case "gzip":
		return compress.Gzip.Codec(), nil
	case "snappy":
		return compress.Snappy.Codec(), nil
	case "lz4":
		return compress.Lz4.Codec(), nil
	default:
		return nil, fmt.Errorf("kafka sink: invalid compression type: %s", name)
	}
}

func (s *Sink) Name() string { return Name }

// Write publishes the batch in a single synchronous call.
func (s *Sink) Write(ctx context.Context, events []core.CapturedEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		value, err := json.Marshal(NewRecord(ev))
		if err != nil {
			s.errorCount.Add(1)
			return fmt.Errorf("kafka sink: serialize: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.Frame.Transmitter.String()),
			Value: value,
			Time:  ev.CapturedAt,
			Headers: []kafka.Header{
				{Key: "frame_type", Value: []byte(ev.Frame.Type.String())},
			},
		})
	}

	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		s.errorCount.Add(1)
		return fmt.Errorf("kafka write failed: %w", err)
	}
	s.reportedCount.Add(uint64(len(msgs)))
	return nil
}

// NewRecord converts a sighting to its published form.
func NewRecord(ev core.CapturedEvent) Record {
	r := Record{
		Type:        ev.Frame.Type.String(),
		SSID:        sink.SSIDText(ev.Frame.SSID()),
		Transmitter: ev.Frame.Transmitter.String(),
		Lat:         ev.Fix.Lat,
		Lon:         ev.Fix.Lon,
		GPSTime:     ev.Fix.Time,
	}
	if !ev.CapturedAt.IsZero() {
		r.CapturedAt = ev.CapturedAt.UnixMilli()
	}
	return r
}

func (s *Sink) Close() error {
	err := s.writer.Close()
	log.GetLogger().WithField("total_reported", s.reportedCount.Load()).
		WithField("total_errors", s.errorCount.Load()).
		Info("kafka sink stopped")
	return err
}
