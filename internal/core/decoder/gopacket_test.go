package decoder

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/wardriver/internal/core"
)

// Frames serialized by gopacket must decode to the same fields.
func TestDecodeGopacketSerializedBeacon(t *testing.T) {
	bssid := net.HardwareAddr{0x02, 0x11, 0x22, 0x33, 0x44, 0x55}
	stack := []gopacket.SerializableLayer{
		&layers.RadioTap{},
		&layers.Dot11{
			Address1: net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
			Address2: bssid,
			Address3: bssid,
			Type:     layers.Dot11TypeMgmtBeacon,
		},
		&layers.Dot11MgmtBeacon{Interval: 100},
		&layers.Dot11InformationElement{
			ID:     layers.Dot11InformationElementIDSSID,
			Length: 7,
			Info:   []byte("TestNet"),
		},
		&layers.Dot11InformationElement{
			ID:     layers.Dot11InformationElementIDRates,
			Length: 2,
			Info:   []byte{0x82, 0x84},
		},
	}

	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, stack...))
	raw := buf.Bytes()

	hdr, err := DecodeFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, int(binary.LittleEndian.Uint16(raw[2:4])), hdr.Offset)
	assert.Equal(t, core.FrameTypeBeacon, hdr.Type)
	assert.Equal(t, []byte(bssid), hdr.Transmitter)

	tags, err := ScanTags(hdr.Params, NewTagSet(core.TagSSID, core.TagSupportedRates))
	require.NoError(t, err)
	assert.Equal(t, []byte("TestNet"), tags[core.TagSSID])
	assert.Equal(t, []byte{0x82, 0x84}, tags[core.TagSupportedRates])
}
