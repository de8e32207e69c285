package diagnostics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/logger"
)

// bufferSize is the number of records queued before new ones are dropped.
const bufferSize = 256

var (
	_ driven.DiagnosticSink = (*FileSink)(nil)
	_ driven.DiagnosticSink = LogSink{}
	_ driven.DiagnosticSink = Multi(nil)
)

// FileSink appends records to a file.
type FileSink struct {
	clock   clockwork.Clock
	file    *os.File
	records chan string
	done    chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewFileSink opens path for appending, creating parent directories.
func NewFileSink(path string, clock clockwork.Clock) (*FileSink, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating diagnostics directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening diagnostics file: %w", err)
	}
	s := &FileSink{
		clock:   clock,
		file:    f,
		records: make(chan string, bufferSize),
		done:    make(chan struct{}),
	}
	go s.write()
	return s, nil
}

// Record queues a line. When the queue is full the record is dropped.
func (s *FileSink) Record(message string) {
	line := s.clock.Now().UTC().Format(time.RFC3339) + " " + message

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.records <- line:
	default:
		s.dropped++
	}
}

// Dropped returns the number of records lost to a full queue.
func (s *FileSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close flushes queued records and closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.records)
	s.mu.Unlock()

	<-s.done
	return s.file.Close()
}

func (s *FileSink) write() {
	defer close(s.done)
	w := bufio.NewWriter(s.file)
	for line := range s.records {
		if _, err := w.WriteString(line + "\n"); err != nil {
			logger.Debug("diagnostics: write failed: %v", err)
			continue
		}
		// Flush once the queue drains so a crash loses little.
		if len(s.records) == 0 {
			if err := w.Flush(); err != nil {
				logger.Debug("diagnostics: flush failed: %v", err)
			}
		}
	}
	_ = w.Flush()
}

// LogSink forwards records to the debug logger.
type LogSink struct{}

// Record logs message in verbose mode.
func (LogSink) Record(message string) {
	logger.Debug("diagnostic: %s", message)
}

// Multi records to every sink in order. Nil sinks are skipped.
type Multi []driven.DiagnosticSink

// Record forwards message to each sink.
func (m Multi) Record(message string) {
	for _, s := range m {
		if s != nil {
			s.Record(message)
		}
	}
}
