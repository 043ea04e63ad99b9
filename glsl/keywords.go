// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"
)

// glslKeywords contains the words a converted program may not declare.
// It covers keywords and type names of GLSL ES 1.00, GLSL ES 3.00 and GLSL
// 4.10 together with their reserved-for-future-use lists.
var glslKeywords = map[string]struct{}{
	// Basic types
	"void": {}, "bool": {}, "int": {}, "uint": {}, "float": {}, "double": {},

	// Vector and matrix types
	"vec2": {}, "vec3": {}, "vec4": {},
	"ivec2": {}, "ivec3": {}, "ivec4": {},
	"uvec2": {}, "uvec3": {}, "uvec4": {},
	"bvec2": {}, "bvec3": {}, "bvec4": {},
	"dvec2": {}, "dvec3": {}, "dvec4": {},
	"mat2": {}, "mat3": {}, "mat4": {},
	"mat2x2": {}, "mat2x3": {}, "mat2x4": {},
	"mat3x2": {}, "mat3x3": {}, "mat3x4": {},
	"mat4x2": {}, "mat4x3": {}, "mat4x4": {},

	// Sampler types
	"sampler1D": {}, "sampler2D": {}, "sampler3D": {}, "samplerCube": {},
	"sampler2DShadow": {}, "samplerCubeShadow": {},
	"sampler2DArray": {}, "sampler2DArrayShadow": {},
	"isampler2D": {}, "isampler3D": {}, "isamplerCube": {}, "isampler2DArray": {},
	"usampler2D": {}, "usampler3D": {}, "usamplerCube": {}, "usampler2DArray": {},
	"samplerExternalOES": {},

	// Storage, interpolation and parameter qualifiers
	"attribute": {}, "const": {}, "uniform": {}, "varying": {}, "buffer": {}, "shared": {},
	"layout": {}, "centroid": {}, "flat": {}, "smooth": {}, "noperspective": {},
	"in": {}, "out": {}, "inout": {}, "invariant": {}, "precise": {}, "patch": {}, "sample": {},
	"lowp": {}, "mediump": {}, "highp": {}, "precision": {},

	// Control flow and literals
	"break": {}, "continue": {}, "do": {}, "for": {}, "while": {}, "switch": {}, "case": {}, "default": {},
	"if": {}, "else": {}, "discard": {}, "return": {}, "struct": {}, "true": {}, "false": {},
	"subroutine": {},

	// Reserved for future use
	"asm": {}, "class": {}, "union": {}, "enum": {}, "typedef": {}, "template": {}, "this": {},
	"packed": {}, "goto": {}, "inline": {}, "noinline": {}, "volatile": {}, "public": {},
	"static": {}, "extern": {}, "external": {}, "interface": {},
	"long": {}, "short": {}, "half": {}, "fixed": {}, "unsigned": {}, "superp": {},
	"input": {}, "output": {},
	"hvec2": {}, "hvec3": {}, "hvec4": {}, "fvec2": {}, "fvec3": {}, "fvec4": {},
	"sampler3DRect": {}, "filter": {}, "sizeof": {}, "cast": {}, "namespace": {}, "using": {},
	"resource": {}, "common": {}, "partition": {}, "active": {},
}

// isKeyword checks if a name is a GLSL keyword or reserved word.
func isKeyword(name string) bool {
	_, ok := glslKeywords[name]
	return ok
}

// checkIdentifier rejects names the target dialect reserves. Identifiers are
// not renamed: expressions are opaque text, so a rename could not reach the
// references.
func checkIdentifier(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty identifier")
	case isKeyword(name):
		return fmt.Errorf("identifier %q is a reserved word", name)
	case strings.HasPrefix(name, "gl_"):
		return fmt.Errorf("identifier %q uses the reserved gl_ prefix", name)
	case strings.Contains(name, "__"):
		return fmt.Errorf("identifier %q contains a reserved double underscore", name)
	}
	return nil
}
