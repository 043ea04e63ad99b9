// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/crossgl/ast"
	"github.com/gogpu/crossgl/profile"
)

// UniformBlockExtension is enabled on the modern constrained dialect when
// uniform blocks are requested.
const UniformBlockExtension = "GL_ARB_uniform_buffer_object"

// FragmentOutput is the name of the desktop fragment output array. Converted
// pixel programs write their render targets through it.
const FragmentOutput = "fragData"

// EmptyFragmentShader is the fixed program used when a constrained target
// asks for no pixel shader.
const EmptyFragmentShader = "void main()\n{\n}\n"

// Preamble is the dialect header for one variant.
type Preamble struct {
	Version    Version
	Directive  bool     // write #version
	Extensions []string // extension pragmas, enabled
	Lines      []string // precision statements and declarations
}

// Header chooses the preamble for (tier, stage). uniformBlocks reports
// whether the program requests uniform blocks.
func Header(tier profile.Tier, stage ast.Stage, renderTargets int, uniformBlocks bool) Preamble {
	if renderTargets < 1 {
		renderTargets = 1
	}
	p := Preamble{Version: VersionFor(tier)}

	switch {
	case !tier.Constrained:
		p.Directive = true
		if stage == ast.StagePixel {
			p.Lines = append(p.Lines, fmt.Sprintf("out vec4 %s[%d];", FragmentOutput, renderTargets))
		}
	case tier.Modern:
		p.Directive = true
		if uniformBlocks {
			p.Extensions = append(p.Extensions, UniformBlockExtension)
		}
		if stage == ast.StagePixel {
			p.Lines = append(p.Lines, "precision highp float;")
		}
	default:
		// GLSL ES 1.00 is implied by the missing directive. Fragment
		// shaders there have no default float precision.
		if stage == ast.StagePixel {
			p.Lines = append(p.Lines, "precision mediump float;")
		}
	}
	return p
}

// String renders the preamble, one statement per line, followed by a blank
// line when anything was written.
func (p Preamble) String() string {
	var sb strings.Builder
	if p.Directive {
		fmt.Fprintf(&sb, "#version %s\n", p.Version)
	}
	for _, ext := range p.Extensions {
		fmt.Fprintf(&sb, "#extension %s : enable\n", ext)
	}
	for _, line := range p.Lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if sb.Len() > 0 {
		sb.WriteByte('\n')
	}
	return sb.String()
}
