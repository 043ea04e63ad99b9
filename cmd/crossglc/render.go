// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/gogpu/crossgl/diag"
)

// newLogger writes text records to a terminal and JSON records otherwise.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(w) {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var (
	severityStyles = map[diag.Severity]lipgloss.Style{
		diag.SeverityError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		diag.SeverityWarning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		diag.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
	filenameStyle = lipgloss.NewStyle().Bold(true)
	kindStyle     = lipgloss.NewStyle().Faint(true)
	headerStyle   = lipgloss.NewStyle().Faint(true)
)

// printer writes variants to stdout and diagnostics to stderr. Styling is
// applied only when the destination is a terminal; highlighting only when
// requested.
type printer struct {
	stdout, stderr io.Writer
	highlight      bool
	styleOut       bool
	styleErr       bool
}

func newPrinter(stdout, stderr io.Writer, highlight bool) *printer {
	return &printer{
		stdout:    stdout,
		stderr:    stderr,
		highlight: highlight,
		styleOut:  isTerminal(stdout),
		styleErr:  isTerminal(stderr),
	}
}

// diagnostics prints one line per entry:
//
//	sprite.yaml: warning: 4 render targets requested but mobile 9_3 supports one [MultiRenderTargetUnsupported]
func (p *printer) diagnostics(list diag.List) {
	for _, d := range list {
		filename, severity, kind := d.Filename, d.Severity.String(), "["+d.Kind.String()+"]"
		if p.styleErr {
			filename = filenameStyle.Render(filename)
			severity = severityStyles[d.Severity].Render(severity)
			kind = kindStyle.Render(kind)
		}
		if d.Filename == "" {
			fmt.Fprintf(p.stderr, "%s: %s %s\n", severity, d.Message, kind)
		} else {
			fmt.Fprintf(p.stderr, "%s: %s: %s %s\n", filename, severity, d.Message, kind)
		}
	}
}

// variant prints one GLSL text under a comment header.
func (p *printer) variant(header, source string) {
	if p.highlight {
		source = highlightGLSL(source)
	}
	p.text(header, source)
}

// text prints text under a comment header.
func (p *printer) text(header, text string) {
	header = "// " + header
	if p.styleOut {
		header = headerStyle.Render(header)
	}
	fmt.Fprintln(p.stdout, header)
	fmt.Fprint(p.stdout, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(p.stdout)
	}
	fmt.Fprintln(p.stdout)
}

// highlightGLSL returns ANSI-styled source, or source unchanged when the
// highlighter fails.
func highlightGLSL(source string) string {
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, source, "glsl", "terminal256", "monokai"); err != nil {
		return source
	}
	return buffer.String()
}
