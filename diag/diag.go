// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package diag accumulates compile diagnostics for a single request.
package diag

import (
	"fmt"
	"strings"
)

// Kind classifies a diagnostic.
type Kind uint8

const (
	// UnsupportedStage: the stage cannot be cross-compiled.
	UnsupportedStage Kind = iota + 1
	// MultiRenderTargetUnsupported: the tier cannot write more than one
	// render target.
	MultiRenderTargetUnsupported
	// ConversionFailed: the converter rejected the source.
	ConversionFailed
	// OptimizationSkipped: the optimizer failed or is unavailable and the
	// unoptimized text was kept.
	OptimizationSkipped
	// EmissionFailed: the program cannot be written for the tier.
	EmissionFailed
)

func (k Kind) String() string {
	switch k {
	case UnsupportedStage:
		return "UnsupportedStage"
	case MultiRenderTargetUnsupported:
		return "MultiRenderTargetUnsupported"
	case ConversionFailed:
		return "ConversionFailed"
	case OptimizationSkipped:
		return "OptimizationSkipped"
	case EmissionFailed:
		return "EmissionFailed"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Severity is the class of a diagnostic.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
}

// Diagnostic is one recorded entry.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Message  string
	Filename string // optional, for display
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Filename == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Filename, d.Severity, d.Message)
}

// List is an ordered set of diagnostics.
type List []*Diagnostic

// Error implements the error interface, summarizing the first error.
func (l List) Error() string {
	errs := l.Errors()
	switch len(errs) {
	case 0:
		if len(l) == 0 {
			return "no diagnostics"
		}
		return l[0].Error()
	case 1:
		return errs[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", errs[0].Error(), len(errs)-1)
	}
}

// Add appends a diagnostic.
func (l *List) Add(d *Diagnostic) {
	*l = append(*l, d)
}

// Errorf records an error-severity diagnostic.
func (l *List) Errorf(kind Kind, filename, format string, args ...any) {
	l.Add(&Diagnostic{Kind: kind, Severity: SeverityError, Message: fmt.Sprintf(format, args...), Filename: filename})
}

// Warnf records a warning.
func (l *List) Warnf(kind Kind, filename, format string, args ...any) {
	l.Add(&Diagnostic{Kind: kind, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...), Filename: filename})
}

// Infof records an informational entry.
func (l *List) Infof(kind Kind, filename, format string, args ...any) {
	l.Add(&Diagnostic{Kind: kind, Severity: SeverityInfo, Message: fmt.Sprintf(format, args...), Filename: filename})
}

// Merge appends all entries of other.
func (l *List) Merge(other List) {
	*l = append(*l, other...)
}

// HasErrors reports whether any entry is error-severity.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error-severity entries.
func (l List) Errors() List {
	var out List
	for _, d := range l {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Count returns how many entries have the given kind.
func (l List) Count(kind Kind) int {
	n := 0
	for _, d := range l {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the number of entries.
func (l List) Len() int {
	return len(l)
}

// FormatAll returns every entry on its own line.
func (l List) FormatAll() string {
	var sb strings.Builder
	for i, d := range l {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(d.Error())
	}
	return sb.String()
}
