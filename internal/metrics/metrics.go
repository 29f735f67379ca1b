// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesCapturedTotal counts raw frames read from the capture source
	FramesCapturedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardriver_frames_captured_total",
			Help: "Total number of raw frames read from the capture source",
		},
		[]string{"interface"},
	)

	// DecodeErrorsTotal counts frames dropped by the decoder, by reason
	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardriver_decode_errors_total",
			Help: "Total number of frames dropped because they could not be decoded",
		},
		[]string{"interface", "reason"},
	)

	// EventsEmittedTotal counts sightings handed to the aggregator
	EventsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardriver_events_emitted_total",
			Help: "Total number of sightings emitted by the capture loop",
		},
		[]string{"interface", "type"},
	)

	// AggregatorEventsTotal counts events accepted or rejected by the SSID rule
	AggregatorEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardriver_aggregator_events_total",
			Help: "Total number of events seen by the aggregator",
		},
		[]string{"result"},
	)

	// BatchesFlushedTotal counts batches moved into the shared buffer
	BatchesFlushedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wardriver_batches_flushed_total",
			Help: "Total number of batches moved into the shared buffer",
		},
	)

	// BufferedEvents tracks events waiting for the log writer
	BufferedEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wardriver_buffered_events",
			Help: "Number of events waiting in the shared buffer",
		},
	)

	// SinkRecordsTotal counts records written per sink
	SinkRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardriver_sink_records_total",
			Help: "Total number of records written by each sink",
		},
		[]string{"sink"},
	)

	// SinkErrorsTotal counts failed sink write cycles
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardriver_sink_errors_total",
			Help: "Total number of failed sink writes",
		},
		[]string{"sink"},
	)

	// GPSSentencesTotal counts NMEA lines by sentence kind
	GPSSentencesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardriver_gps_sentences_total",
			Help: "Total number of NMEA sentences read, by kind",
		},
		[]string{"kind"},
	)

	// GPSFixUpdatesTotal counts published location changes
	GPSFixUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wardriver_gps_fix_updates_total",
			Help: "Total number of GPS fixes published to the location cache",
		},
	)

	// GPSState tracks the reader state (0=disconnected, 1=connected, 2=streaming)
	GPSState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wardriver_gps_state",
			Help: "Current GPS reader state (0=disconnected, 1=connected, 2=streaming)",
		},
	)

	// MonitorChannel tracks the channel the capture interface is tuned to
	MonitorChannel = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wardriver_monitor_channel",
			Help: "Current 802.11 channel of the monitor interface",
		},
		[]string{"interface"},
	)
)
