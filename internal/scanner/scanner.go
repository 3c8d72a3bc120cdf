// Package scanner reads decoded item codes from a line-oriented source — a
// HID barcode/QR scanner or stdin both present one code per line. The decoder
// is an exclusive resource: one active session at a time, start-while-running
// rejected. The scanner owns the source it reads: Start opens it, Stop closes
// it, which unblocks the reader goroutine and releases the device for the
// next session.
package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrAlreadyRunning = errors.New("scanner: session already running")

// Scanner delivers each decoded code to the callback. Delivery happens on the
// reader goroutine; the callback is expected to hand off into the owner's
// event loop. open is called once per session, so a restart reads a fresh
// source rather than contending with a stale reader.
type Scanner struct {
	open   func() (io.ReadCloser, error)
	onCode func(string)

	mu         sync.Mutex
	src        io.ReadCloser
	running    bool
	generation uint64
}

func New(open func() (io.ReadCloser, error), onCode func(string)) *Scanner {
	return &Scanner{open: open, onCode: onCode}
}

func (s *Scanner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start opens the source and begins a decode session. A second Start while
// one is running is rejected rather than queued.
func (s *Scanner) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	src, err := s.open()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("scanner: open source: %w", err)
	}
	s.src = src
	s.running = true
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	go s.readLoop(src, gen)
	log.Debug().Msg("scanner started")
	return nil
}

// Stop closes the source, which fails the reader's blocked read and ends the
// session goroutine. Codes still in flight from the stopped session are
// discarded, mirroring how a stale result is ignored after the owning view
// has gone away.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	src := s.src
	s.src = nil
	s.mu.Unlock()

	if src != nil {
		src.Close()
	}
	log.Debug().Msg("scanner stopped")
}

func (s *Scanner) readLoop(src io.ReadCloser, gen uint64) {
	r := bufio.NewScanner(src)
	for r.Scan() {
		code := r.Text()
		if code == "" {
			continue
		}
		if !s.alive(gen) {
			// Stop already closed the source; nothing left to release.
			return
		}
		s.onCode(code)
	}
	if err := r.Err(); err != nil && s.alive(gen) {
		log.Warn().Err(err).Msg("scanner source error")
	}

	// Source drained or failed: the session ends itself and releases it.
	s.mu.Lock()
	if s.generation == gen && s.running {
		s.running = false
		s.src = nil
	}
	s.mu.Unlock()
	src.Close()
}

// alive reports whether this goroutine's session is still the active one.
func (s *Scanner) alive(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.generation == gen
}
