// Package file appends sighting records to a local log file.
package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/sink"
)

const Name = "file"

// Sink is an append-only sighting log. It is opened once and flushed after
// every Write.
type Sink struct {
	mu   sync.Mutex
	path string
	f    *os.File
	out  io.Writer // f, or a stand-in under test
	w    *bufio.Writer
	line []byte
}

func NewSink(path string) (*Sink, error) {
	if path == "" {
		return nil, fmt.Errorf("file sink: path is required")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("file sink: open %s: %w", path, err)
	}
	return &Sink{path: path, f: f, out: f, w: bufio.NewWriter(f)}, nil
}

func (s *Sink) Name() string { return Name }

// Path returns the log file path.
func (s *Sink) Path() string { return s.path }

func (s *Sink) Write(_ context.Context, events []core.CapturedEvent) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return fmt.Errorf("file sink: %w", os.ErrClosed)
	}

	for _, ev := range events {
		s.line = sink.AppendRecord(s.line[:0], ev)
		if _, err := s.w.Write(s.line); err != nil {
			s.w.Reset(s.out)
			return fmt.Errorf("file sink: write %s: %w", s.path, err)
		}
	}
	if err := s.w.Flush(); err != nil {
		// a failed bufio.Writer stays failed until Reset
		s.w.Reset(s.out)
		return fmt.Errorf("file sink: flush %s: %w", s.path, err)
	}
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	s.f = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
