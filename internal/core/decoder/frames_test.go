package decoder

import (
	"encoding/binary"
)

var testTransmitter = []byte{0xaa, 0xbb, 0xcc, 0x11, 0x22, 0x33}

// radiotapHeader builds a minimal radiotap header of the given total length.
func radiotapHeader(length int) []byte {
	h := make([]byte, length)
	h[0] = 0x00 // version
	binary.LittleEndian.PutUint16(h[2:4], uint16(length))
	return h
}

// mgmtHeader builds a 24-byte management header with the given subtype byte.
func mgmtHeader(subtype byte, transmitter []byte) []byte {
	h := make([]byte, 24)
	h[0] = subtype
	copy(h[4:10], []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	copy(h[10:16], transmitter)
	copy(h[16:22], transmitter)
	return h
}

func tag(id byte, value []byte) []byte {
	return append([]byte{id, byte(len(value))}, value...)
}

// beaconFrame builds radiotap + beacon header + fixed fields + tags.
func beaconFrame(tags ...[]byte) []byte {
	frame := radiotapHeader(18)
	frame = append(frame, mgmtHeader(0x80, testTransmitter)...)
	frame = append(frame, make([]byte, 12)...)
	for _, t := range tags {
		frame = append(frame, t...)
	}
	return frame
}

// probeFrame builds a probe request without radiotap header.
func probeFrame(tags ...[]byte) []byte {
	frame := mgmtHeader(0x40, testTransmitter)
	for _, t := range tags {
		frame = append(frame, t...)
	}
	return frame
}
