// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner provides an animated progress line on a terminal.
//
// On a non-terminal destination the spinner is silent, so logs and piped
// output are never interleaved with carriage returns.
type Spinner struct {
	printer *Printer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	running bool
	frame   int
}

// NewSpinner creates a spinner that draws on w.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		printer: NewPrinter(w),
		message: message,
	}
}

// Active reports whether the spinner animates at all.
func (s *Spinner) Active() bool {
	return s.printer.Color()
}

// Start begins the animation. Calling Start on a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || !s.Active() {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(s.stop, s.done)
}

func (s *Spinner) loop(stop <-chan struct{}, done chan<- struct{}) {
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()
	defer close(done)

	for {
		select {
		case <-stop:
			s.printer.Raw("\r\033[K")
			return
		case <-ticker.C:
			s.mu.Lock()
			frame := s.printer.Styled(Styles.Title, spinnerFrames[s.frame])
			s.frame = (s.frame + 1) % len(spinnerFrames)
			msg := s.message
			s.mu.Unlock()
			s.printer.Raw(fmt.Sprintf("\r\033[K%s %s", frame, msg))
		}
	}
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
}

// UpdateMessage changes the message while running.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Message returns the current message.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}
