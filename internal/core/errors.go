// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors. Callers wrap them with fmt.Errorf("...: %w") and match with errors.Is.
var (
	// Frame decoding errors
	ErrFrameTooShort     = errors.New("wardriver: frame too short")
	ErrRadiotapTruncated = errors.New("wardriver: radiotap header truncated")
	ErrTagOverrun        = errors.New("wardriver: tagged parameter overruns frame")

	// Capture source errors
	ErrSourceFailed = errors.New("wardriver: capture source failed")
	ErrSourceClosed = errors.New("wardriver: capture source closed")
	ErrReadTimeout  = errors.New("wardriver: capture read timeout")

	// Startup / retry errors
	ErrRetriesExhausted   = errors.New("wardriver: retries exhausted")
	ErrNoMonitorInterface = errors.New("wardriver: no monitor interface appeared")

	// GPS errors
	ErrGPSUnavailable   = errors.New("wardriver: gps unavailable")
	ErrChecksumMismatch = errors.New("wardriver: nmea checksum mismatch")

	// Configuration errors
	ErrConfigInvalid = errors.New("wardriver: invalid configuration")
)
