// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/gogpu/crossgl/ast"
	"github.com/gogpu/crossgl/profile"
)

// Version represents a GLSL version.
type Version struct {
	Major uint8
	Minor uint8
	ES    bool // true for GLSL ES (OpenGL ES / WebGL)
}

// GLSL versions targeted by the capability tiers.
var (
	// VersionES100 is GLSL ES 1.00 (OpenGL ES 2.0 / WebGL 1.0). It is the
	// implicit version when no directive is present.
	VersionES100 = Version{Major: 1, Minor: 0, ES: true}

	// VersionES300 is GLSL ES 3.00 (OpenGL ES 3.0 / WebGL 2.0).
	VersionES300 = Version{Major: 3, Minor: 0, ES: true}

	// Version410 is the fixed desktop target (OpenGL 4.1 core).
	Version410 = Version{Major: 4, Minor: 10, ES: false}
)

// String returns the version as a GLSL version directive value.
func (v Version) String() string {
	if v.ES {
		if v.Major == 1 {
			return "100"
		}
		return fmt.Sprintf("%d%02d es", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d%02d", v.Major, v.Minor)
}

// VersionNumber returns just the numeric version (e.g., "410", "300").
func (v Version) VersionNumber() string {
	return fmt.Sprintf("%d%02d", v.Major, v.Minor)
}

// SupportsUniformBlocks reports whether the version has interface blocks.
func (v Version) SupportsUniformBlocks() bool {
	if v.ES {
		return v.Major >= 3
	}
	return v.Major > 3 || (v.Major == 3 && v.Minor >= 10)
}

// SupportsInOut reports whether global in/out storage qualifiers exist.
// GLSL ES 1.00 only has attribute and varying.
func (v Version) SupportsInOut() bool {
	return !v.ES || v.Major >= 3
}

// VersionFor returns the dialect version for a capability tier.
func VersionFor(tier profile.Tier) Version {
	switch {
	case !tier.Constrained:
		return Version410
	case tier.Modern:
		return VersionES300
	default:
		return VersionES100
	}
}

// Options configures GLSL code generation.
type Options struct {
	// Tier selects the dialect.
	Tier profile.Tier

	// Stage is the pipeline stage. Only vertex and pixel can be written.
	Stage ast.Stage

	// RenderTargets sizes the desktop fragment output array.
	// Values below 1 are treated as 1.
	RenderTargets int

	// UniformBlocks requests uniform-block support on the modern
	// constrained dialect. The extension pragma is only emitted when the
	// program actually declares a block.
	UniformBlocks bool
}

// DefaultOptions returns options for a desktop vertex shader.
func DefaultOptions() Options {
	return Options{
		Tier:          profile.Tier{Constrained: false, Modern: true},
		Stage:         ast.StageVertex,
		RenderTargets: 1,
		UniformBlocks: true,
	}
}

// TranslationInfo contains metadata about the translation.
type TranslationInfo struct {
	// Version is the dialect version the text was written for.
	Version Version

	// UsedExtensions lists extension pragmas in the preamble.
	UsedExtensions []string

	// FlattenedBlocks names uniform blocks rewritten as plain uniforms
	// because the dialect has no interface blocks.
	FlattenedBlocks []string

	// EntryPoint is the function written as main.
	EntryPoint string
}

// Compile generates GLSL source code (preamble followed by body) from a
// converted program.
// Returns the GLSL source as a string, translation info, or an error.
func Compile(program *ast.Program, options Options) (string, TranslationInfo, error) {
	if program == nil {
		return "", TranslationInfo{}, fmt.Errorf("glsl: nil program")
	}
	if options.RenderTargets < 1 {
		options.RenderTargets = 1
	}

	w := newWriter(program, &options)
	if err := w.writeModule(); err != nil {
		return "", TranslationInfo{}, fmt.Errorf("glsl: %w", err)
	}

	info := TranslationInfo{
		Version:         w.version,
		UsedExtensions:  w.extensions,
		FlattenedBlocks: w.flattened,
		EntryPoint:      program.EntryPoint,
	}
	return w.String(), info, nil
}
