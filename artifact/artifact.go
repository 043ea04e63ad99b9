// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package artifact packages emitted shader variants into content-addressed
// buffers and caches them on disk.
//
// A single-variant artifact is the emitted text, one byte per character.
// A dual artifact is a tagged record holding the legacy and modern
// variants of a mobile-family shader. Either way the identifier is a
// BLAKE3 keyed hash over the final buffer, so identical inputs always
// yield identical identifiers.
package artifact

import (
	"fmt"

	"github.com/gogpu/crossgl/ast"
)

// Artifact is the packaged output of one compile request.
type Artifact struct {
	ID     ID
	Data   []byte
	Stage  ast.Stage
	Layout Layout
}

// New wraps an already packaged buffer and computes its identifier.
func New(data []byte, layout Layout, stage ast.Stage) *Artifact {
	return &Artifact{
		ID:     HashData(data),
		Data:   data,
		Stage:  stage,
		Layout: layout,
	}
}

// Single packages one variant.
func Single(text string, stage ast.Stage) *Artifact {
	return New(PackSingle(text), LayoutSingle, stage)
}

// Dual packages a legacy/modern pair.
func Dual(v Variants, stage ast.Stage) (*Artifact, error) {
	data, err := PackDual(v)
	if err != nil {
		return nil, err
	}
	return New(data, LayoutDual, stage), nil
}

// Variants decodes the artifact body. The text of a single-layout
// artifact is reported in the modern slot.
func (a *Artifact) Variants() (Variants, error) {
	switch a.Layout {
	case LayoutDual:
		return UnpackDual(a.Data)
	case LayoutSingle:
		return Variants{HasModern: true, Modern: string(a.Data)}, nil
	default:
		return Variants{}, fmt.Errorf("artifact: unknown layout %s", a.Layout)
	}
}

// Verify recomputes the identifier and reports a mismatch.
func (a *Artifact) Verify() error {
	if got := HashData(a.Data); got != a.ID {
		return fmt.Errorf("artifact: id mismatch: have %s, data hashes to %s", FormatRef(a.ID), FormatRef(got))
	}
	return nil
}
