package decoder

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/wardriver/internal/core"
)

const (
	// radiotap: version(1) pad(1) length(2, little endian)
	radiotapMinLen = 4

	// 802.11 management header: fc(2) duration(2) addr1(6) addr2(6) addr3(6) seq(2)
	mgmtHeaderLen  = 24
	transmitterOff = 10
	beaconFixedLen = 12 // timestamp(8) interval(2) capability(2)
	macLen         = 6
)

// Header is the minimal view of a management frame. Slices alias the raw buffer.
type Header struct {
	Type        core.FrameType
	Transmitter []byte
	Params      []byte
	Offset      int // start of the 802.11 frame inside the raw buffer
}

// RadiotapLength returns where the 802.11 frame starts inside raw.
// A leading 0x00 byte means a radiotap header is present and its
// little-endian length at bytes 2-3 is returned; anything else returns 0.
func RadiotapLength(raw []byte) (int, error) {
	if len(raw) == 0 {
		return 0, core.ErrFrameTooShort
	}
	if raw[0] != 0x00 {
		return 0, nil
	}
	if len(raw) < radiotapMinLen {
		return 0, fmt.Errorf("%w: %d bytes", core.ErrRadiotapTruncated, len(raw))
	}
	n := int(binary.LittleEndian.Uint16(raw[2:4]))
	if n > len(raw) {
		return 0, fmt.Errorf("%w: declares %d bytes, have %d", core.ErrRadiotapTruncated, n, len(raw))
	}
	return n, nil
}

// DecodeFrame locates the subtype byte, transmitter address and tagged
// parameter region of a beacon or probe request.
//
// No To/From DS branching: the capture filter only admits management frames,
// so address 2 is always the transmitter. Probe requests are assumed to carry
// no fixed fields before the tags.
func DecodeFrame(raw []byte) (Header, error) {
	start, err := RadiotapLength(raw)
	if err != nil {
		return Header{}, err
	}

	frame := raw[start:]
	if len(frame) < mgmtHeaderLen {
		return Header{}, fmt.Errorf("%w: need %d bytes of 802.11 header, have %d",
			core.ErrFrameTooShort, mgmtHeaderLen, len(frame))
	}

	hdr := Header{
		Type:        core.FrameType(frame[0]),
		Transmitter: frame[transmitterOff : transmitterOff+macLen],
		Offset:      start,
	}

	offset := mgmtHeaderLen
	if hdr.Type == core.FrameTypeBeacon {
		offset += beaconFixedLen
	}
	if len(frame) < offset {
		return Header{}, fmt.Errorf("%w: need %d bytes for %s fixed fields, have %d",
			core.ErrFrameTooShort, offset, hdr.Type, len(frame))
	}
	hdr.Params = frame[offset:]

	return hdr, nil
}
