// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glsl writes converted programs as GLSL for a capability tier.
//
// Three dialects are produced, one per tier:
//
//   - GLSL ES 1.00: constrained legacy tier (OpenGL ES 2.0 / WebGL 1.0).
//     No version directive; attribute/varying storage; uniform blocks are
//     flattened into plain uniforms.
//   - GLSL ES 3.00: constrained modern tier (OpenGL ES 3.0 / WebGL 2.0).
//   - GLSL 4.10: desktop tier, with a sized fragment output array.
//
// # Basic Usage
//
//	glsl.RewriteQualifiers(program, ast.StageVertex, tier)
//	glsl.AnnotateLayout(program)
//	source, info, err := glsl.Compile(program, glsl.Options{
//	    Tier:  tier,
//	    Stage: ast.StageVertex,
//	})
//
// # Identifiers
//
// Expressions in the program are opaque text, so declared names are never
// renamed. A declaration using a reserved word or the gl_ prefix is an
// error instead.
package glsl
