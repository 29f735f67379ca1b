package console

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/wardriver/internal/core"
)

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)

	err := s.Write(context.Background(), []core.CapturedEvent{{
		Frame: core.ManagementFrame{
			Type: core.FrameTypeProbeRequest,
			Tags: map[uint8][]byte{core.TagSSID: []byte("Cafe")},
		},
	}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, "PROBE_REQUEST\tCafe\t00:00:00:00:00:00\t0.000000\t0.000000\t0.00\n", buf.String())
	assert.Equal(t, Name, s.Name())
}
