package core

import "time"

// ManagementFrame is a decoded beacon or probe request.
// Tags only holds tag IDs the caller asked for; values are owned copies.
type ManagementFrame struct {
	Type        FrameType
	Transmitter MAC
	Tags        map[uint8][]byte
}

// SSID returns the network name tag value, nil if absent.
func (f ManagementFrame) SSID() []byte {
	return f.Tags[TagSSID]
}

// CapturedEvent pairs a sighting with the location believed valid at capture time.
type CapturedEvent struct {
	Frame      ManagementFrame
	Fix        Fix
	CapturedAt time.Time
}
