// Package console prints sighting records for interactive sessions.
package console

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/sink"
)

const Name = "console"

type Sink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewSink writes to stdout.
func NewSink() *Sink {
	return NewWriterSink(os.Stdout)
}

func NewWriterSink(w io.Writer) *Sink {
	return &Sink{w: bufio.NewWriter(w)}
}

func (s *Sink) Name() string { return Name }

func (s *Sink) Write(_ context.Context, events []core.CapturedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var line []byte
	for _, ev := range events {
		line = sink.AppendRecord(line[:0], ev)
		if _, err := s.w.Write(line); err != nil {
			return err
		}
	}
	return s.w.Flush()
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}
