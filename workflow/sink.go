package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Sink is an append-only target for the human-readable execution log. It is
// a side channel: the engine reports write failures through the structured
// logger and continues — sink errors never alter the pipeline's result.
//
// Implementations must make WriteLine safe for concurrent use; branches of a
// parallel stage emit lines concurrently.
type Sink interface {
	// WriteLine appends one line (without trailing newline) to the target.
	WriteLine(line string) error
	// Close releases the target. The engine closes only sinks it opened
	// itself; injected sinks stay open for reuse across runs.
	Close() error
}

// defaultLogFile is used when a log directory is configured without a file name.
const defaultLogFile = "workflow.log"

// fileSink appends newline-delimited blocks to a log file. A mutex
// serializes appends so that concurrent branch lines never corrupt each
// other.
type fileSink struct {
	mu sync.Mutex
	f  *os.File
}

func newFileSink(dir, name string) (*fileSink, error) {
	if dir == "" {
		dir = "."
	}
	if name == "" {
		name = defaultLogFile
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &fileSink{f: f}, nil
}

func (s *fileSink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.f.WriteString(line + "\n")
	return err
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// nopSink discards everything; used when no log target is configured.
type nopSink struct{}

func (nopSink) WriteLine(string) error { return nil }
func (nopSink) Close() error           { return nil }

// stageHeader writes the block header emitted before a stage runs: kind,
// name, timestamp, and the serialized stage input.
func (rt *runtime) stageHeader(kind, name string, input any) {
	rt.sinkLine(fmt.Sprintf("=== %s %q %s input=%s",
		kind, name, time.Now().UTC().Format(time.RFC3339), serializeJSON(input)))
}

// stageFooter writes the block footer emitted after a stage settles: the
// serialized output on success, an error summary on failure.
func (rt *runtime) stageFooter(kind, name string, duration time.Duration, output any, err error) {
	if err != nil {
		rt.sinkLine(fmt.Sprintf("--- %s %q failed duration=%s error=%v", kind, name, duration, err))
		return
	}
	rt.sinkLine(fmt.Sprintf("--- %s %q ok duration=%s output=%s", kind, name, duration, serializeJSON(output)))
}
