// Package decoder implements 802.11 management frame decoding.
package decoder

import "firestige.xyz/wardriver/internal/core"

// Decoder turns a raw captured buffer into a management frame restricted to wanted tags.
type Decoder interface {
	Decode(raw []byte) (frame core.ManagementFrame, found bool, err error)
}

// FrameDecoder is the standard Decoder.
type FrameDecoder struct {
	wanted TagSet
}

// NewFrameDecoder creates a decoder keeping only the given tag IDs.
func NewFrameDecoder(wanted TagSet) *FrameDecoder {
	return &FrameDecoder{wanted: wanted}
}

// Decode decodes the header and scans the tagged parameters.
// found is false when the frame is well formed but carries none of the wanted tags.
// Any scan error drops the whole frame, including tags collected before the overrun.
func (d *FrameDecoder) Decode(raw []byte) (core.ManagementFrame, bool, error) {
	hdr, err := DecodeFrame(raw)
	if err != nil {
		return core.ManagementFrame{}, false, err
	}

	tags, err := ScanTags(hdr.Params, d.wanted)
	if err != nil {
		return core.ManagementFrame{}, false, err
	}
	if len(tags) == 0 {
		return core.ManagementFrame{}, false, nil
	}

	frame := core.ManagementFrame{
		Type: hdr.Type,
		Tags: tags,
	}
	copy(frame.Transmitter[:], hdr.Transmitter)
	return frame, true, nil
}
