// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"github.com/gogpu/crossgl/ast"
	"github.com/gogpu/crossgl/profile"
)

// LayoutStd140 is the packing layout every uniform block receives.
const LayoutStd140 = "std140"

// RewriteQualifiers replaces generic in/out storage qualifiers on global
// variables with the legacy constrained equivalents: in becomes attribute in
// a vertex shader and varying otherwise, out always becomes varying.
//
// Other tiers keep in/out and the program is left untouched. Function
// parameters are never rewritten. Returns the number of replaced qualifiers.
func RewriteQualifiers(program *ast.Program, stage ast.Stage, tier profile.Tier) int {
	if !tier.Legacy() {
		return 0
	}

	input := ast.QualifierVarying
	if stage == ast.StageVertex {
		input = ast.QualifierAttribute
	}

	replaced := 0
	for _, decl := range program.Declarations {
		v, ok := decl.(*ast.Variable)
		if !ok {
			continue
		}
		for i, q := range v.Qualifiers {
			switch q {
			case ast.QualifierIn:
				v.Qualifiers[i] = input
				replaced++
			case ast.QualifierOut:
				v.Qualifiers[i] = ast.QualifierVarying
				replaced++
			}
		}
		// A declaration carrying both a rewritten qualifier and an
		// explicit one of the same name would print it twice.
		v.Qualifiers = dedupQualifiers(v.Qualifiers)
	}
	return replaced
}

func dedupQualifiers(qs []ast.Qualifier) []ast.Qualifier {
	if len(qs) < 2 {
		return qs
	}
	out := qs[:0]
	seen := make(map[ast.Qualifier]struct{}, len(qs))
	for _, q := range qs {
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

// AnnotateLayout adds the std140 packing layout to every uniform block,
// keeping existing layout qualifiers. Returns the number of blocks changed.
func AnnotateLayout(program *ast.Program) int {
	changed := 0
	for _, block := range program.UniformBlocks() {
		if block.HasLayout(LayoutStd140) {
			continue
		}
		block.Layout = append(block.Layout, LayoutStd140)
		changed++
	}
	return changed
}
