package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/wardriver/internal/core"
)

type recordingSink struct {
	name string
	err  error

	mu      sync.Mutex
	batches [][]core.CapturedEvent
	closed  bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(_ context.Context, events []core.CapturedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, events)
	return s.err
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) events() []core.CapturedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []core.CapturedEvent
	for _, b := range s.batches {
		all = append(all, b...)
	}
	return all
}

func sighting(ssid string) core.CapturedEvent {
	return core.CapturedEvent{
		Frame: core.ManagementFrame{
			Type: core.FrameTypeBeacon,
			Tags: map[uint8][]byte{core.TagSSID: []byte(ssid)},
		},
		Fix: core.Fix{Time: 123, Lat: 10, Lon: 20},
	}
}

func TestAccept(t *testing.T) {
	assert.True(t, Accept(sighting("TestNet")))
	assert.True(t, Accept(sighting("\x00a")))
	assert.False(t, Accept(sighting("")))
	assert.False(t, Accept(sighting("\x00\x00\x00\x00")))
	assert.False(t, Accept(core.CapturedEvent{}))
}

func TestAggregatorMovesFullBatch(t *testing.T) {
	buf := NewBatchBuffer()
	agg := NewAggregator(buf, 20)

	for i := 0; i < 19; i++ {
		agg.Add(sighting(fmt.Sprintf("net-%d", i)))
	}
	assert.Equal(t, 19, agg.Pending())
	assert.Equal(t, 0, buf.Len())

	agg.Add(sighting("net-19"))
	assert.Equal(t, 0, agg.Pending())
	assert.Equal(t, 20, buf.Len())

	got := buf.TakeIfAtLeast(20)
	require.Len(t, got, 20)
	assert.Equal(t, []byte("net-0"), got[0].Frame.SSID())
	assert.Equal(t, []byte("net-19"), got[19].Frame.SSID())
}

func TestAggregatorRejectsHiddenNetworks(t *testing.T) {
	buf := NewBatchBuffer()
	agg := NewAggregator(buf, 20)

	assert.False(t, agg.Add(sighting("\x00\x00\x00")))
	assert.False(t, agg.Add(sighting("")))
	assert.Equal(t, 0, agg.Pending())
}

func TestAggregatorRunFlushesOnClose(t *testing.T) {
	buf := NewBatchBuffer()
	agg := NewAggregator(buf, 20)
	in := make(chan core.CapturedEvent, 30)
	for i := 0; i < 25; i++ {
		in <- sighting(fmt.Sprintf("net-%d", i))
	}
	close(in)

	agg.Run(context.Background(), in)

	assert.Equal(t, 0, agg.Pending())
	assert.Equal(t, 25, buf.Len())
}

func TestAggregatorRunDrainsQueuedOnCancel(t *testing.T) {
	buf := NewBatchBuffer()
	agg := NewAggregator(buf, 20)
	in := make(chan core.CapturedEvent, 5)
	for i := 0; i < 3; i++ {
		in <- sighting("queued")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg.Run(ctx, in)

	assert.Equal(t, 3, buf.Len())
}

func TestBatchBuffer(t *testing.T) {
	buf := NewBatchBuffer()
	assert.Nil(t, buf.TakeAll())

	buf.Push(nil)
	buf.Push([]core.CapturedEvent{sighting("a"), sighting("b")})
	buf.Push([]core.CapturedEvent{sighting("c")})
	assert.Equal(t, 3, buf.Len())

	assert.Nil(t, buf.TakeIfAtLeast(4))
	assert.Equal(t, 3, buf.Len())

	got := buf.TakeIfAtLeast(3)
	require.Len(t, got, 3)
	assert.Equal(t, []byte("c"), got[2].Frame.SSID())
	assert.Equal(t, 0, buf.Len())
}

func TestWriterDrainEmptyBuffer(t *testing.T) {
	s := &recordingSink{name: "rec"}
	w := NewWriter(NewBatchBuffer(), 20, time.Second, s)

	require.NoError(t, w.Drain(context.Background()))
	require.NoError(t, w.Drain(context.Background()))
	require.NoError(t, w.DrainAll(context.Background()))
	assert.Empty(t, s.batches)
}

func TestWriterDrainThreshold(t *testing.T) {
	buf := NewBatchBuffer()
	s := &recordingSink{name: "rec"}
	w := NewWriter(buf, 20, time.Second, s)

	buf.Push([]core.CapturedEvent{sighting("partial")})
	require.NoError(t, w.Drain(context.Background()))
	assert.Empty(t, s.batches)

	require.NoError(t, w.DrainAll(context.Background()))
	assert.Len(t, s.events(), 1)
}

func TestWriterSinkErrorDoesNotStopOthers(t *testing.T) {
	buf := NewBatchBuffer()
	broken := &recordingSink{name: "broken", err: errors.New("disk full")}
	ok := &recordingSink{name: "ok"}
	w := NewWriter(buf, 1, time.Second, broken, ok)

	buf.Push([]core.CapturedEvent{sighting("TestNet")})
	err := w.Drain(context.Background())

	assert.ErrorContains(t, err, "disk full")
	assert.Len(t, ok.events(), 1)
}

func TestWriterRunTicks(t *testing.T) {
	buf := NewBatchBuffer()
	s := &recordingSink{name: "rec"}
	w := NewWriter(buf, 1, 5*time.Millisecond, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()

	buf.Push([]core.CapturedEvent{sighting("TestNet")})
	require.Eventually(t, func() bool { return len(s.events()) == 1 }, time.Second, time.Millisecond)

	cancel()
	<-done
}

// ctxSink blocks in Write until released and reports the ctx state it saw.
type ctxSink struct {
	recordingSink
	started chan struct{}
	release chan struct{}
}

func (s *ctxSink) Write(ctx context.Context, events []core.CapturedEvent) error {
	close(s.started)
	<-s.release
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.recordingSink.Write(ctx, events)
}

func TestWriterRunFinishesInFlightWriteOnCancel(t *testing.T) {
	buf := NewBatchBuffer()
	s := &ctxSink{
		recordingSink: recordingSink{name: "slow"},
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	w := NewWriter(buf, 1, 5*time.Millisecond, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()

	buf.Push([]core.CapturedEvent{sighting("TestNet")})
	<-s.started
	cancel()
	close(s.release)
	<-done

	assert.Len(t, s.events(), 1)
	assert.Zero(t, buf.Len())
}

func TestPipelineRun(t *testing.T) {
	s := &recordingSink{name: "rec"}
	p := New(Config{BatchSize: 20, FlushInterval: 10 * time.Millisecond, ChannelSize: 8}, s)

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	events := p.Events()
	for i := 0; i < 45; i++ {
		events <- sighting(fmt.Sprintf("net-%d", i))
	}
	events <- sighting("\x00\x00")
	close(events)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop")
	}

	got := s.events()
	require.Len(t, got, 45)
	for i, ev := range got {
		assert.Equal(t, []byte(fmt.Sprintf("net-%d", i)), ev.Frame.SSID())
	}
	assert.True(t, s.closed)
}
