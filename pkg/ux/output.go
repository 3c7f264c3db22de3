// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides styled terminal output for the fieldbench CLI.
//
// Styling is applied only when the destination is a terminal, so piping
// the benchmark report into a file or another tool yields plain text.
package ux

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Aleutian color palette - deep ocean teals and arctic waters
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - headers
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - separators
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
)

// Printer writes optionally styled lines to a destination.
//
// # Description
//
// Color is enabled automatically when the destination is an *os.File
// attached to a terminal (including Cygwin/MSYS terminals) and can be
// forced off with Plain.
//
// # Thread Safety
//
// Printer holds no mutable state after construction. Concurrent writes
// interleave at the granularity of the underlying writer.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a Printer for w, detecting whether w is a terminal.
//
// # Example
//
//	p := ux.NewPrinter(os.Stderr)
//	p.Warning("kernel parallel failed")
func NewPrinter(w io.Writer) *Printer {
	return &Printer{out: w, color: IsTerminal(w)}
}

// Plain returns a copy of the printer with styling disabled.
func (p *Printer) Plain() *Printer {
	return &Printer{out: p.out}
}

// Color reports whether styling is applied.
func (p *Printer) Color() bool {
	return p.color
}

// Styled renders text with style when color is enabled.
func (p *Printer) Styled(style lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return style.Render(text)
}

// Title prints a bold title line.
func (p *Printer) Title(text string) {
	fmt.Fprintln(p.out, p.Styled(Styles.Title, text))
}

// Success prints a message prefixed with a checkmark.
func (p *Printer) Success(text string) {
	fmt.Fprintf(p.out, "%s %s\n", p.Styled(Styles.Success, string(IconSuccess)), p.Styled(Styles.Success, text))
}

// Warning prints a message prefixed with a warning sign.
func (p *Printer) Warning(text string) {
	fmt.Fprintf(p.out, "%s %s\n", p.Styled(Styles.Warning, string(IconWarning)), p.Styled(Styles.Warning, text))
}

// Error prints a message prefixed with a cross.
func (p *Printer) Error(text string) {
	fmt.Fprintf(p.out, "%s %s\n", p.Styled(Styles.Error, string(IconError)), p.Styled(Styles.Error, text))
}

// Muted prints secondary text.
func (p *Printer) Muted(text string) {
	fmt.Fprintln(p.out, p.Styled(Styles.Muted, text))
}

// Raw writes text unchanged.
func (p *Printer) Raw(text string) {
	fmt.Fprint(p.out, text)
}

// IsTerminal reports whether w is a file descriptor attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
