// Package core defines core types with zero external dependencies.
package core

import "fmt"

// FrameType is the raw frame-control byte of an 802.11 management frame.
// https://gitlab.com/wireshark/wireshark/-/blob/master/epan/dissectors/packet-ieee80211.h
type FrameType uint8

const (
	FrameTypeProbeRequest FrameType = 0x40
	FrameTypeBeacon       FrameType = 0x80
)

// String returns the name used in the sighting log.
func (t FrameType) String() string {
	switch t {
	case FrameTypeBeacon:
		return "BEACON"
	case FrameTypeProbeRequest:
		return "PROBE_REQUEST"
	default:
		return "UNKNOWN"
	}
}

// Tagged parameter IDs.
const (
	TagSSID           uint8 = 0x00
	TagSupportedRates uint8 = 0x01
	TagDSParameterSet uint8 = 0x03
	TagVendorSpecific uint8 = 0xDD
)

// MAC is a 48-bit hardware address.
type MAC [6]byte

// String renders the address as colon-separated lower-case hex.
func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Fix is a single GPS sample. Time is the NMEA hhmmss.ss field as a number.
type Fix struct {
	Time float64
	Lat  float64
	Lon  float64
}

// Valid reports whether the fix is not the (0,0) "no fix yet" sentinel.
func (f Fix) Valid() bool {
	return f.Lat != 0 || f.Lon != 0
}
