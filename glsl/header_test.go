// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"testing"

	"github.com/gogpu/crossgl/ast"
	"github.com/gogpu/crossgl/profile"
)

func TestHeader(t *testing.T) {
	tests := []struct {
		name    string
		tier    profile.Tier
		stage   ast.Stage
		targets int
		blocks  bool
		want    string
	}{
		{"es3 vertex", tierES3, ast.StageVertex, 1, false, "#version 300 es\n\n"},
		{"es3 vertex blocks", tierES3, ast.StageVertex, 1, true, "#version 300 es\n#extension GL_ARB_uniform_buffer_object : enable\n\n"},
		{"es3 pixel blocks", tierES3, ast.StagePixel, 1, true, "#version 300 es\n#extension GL_ARB_uniform_buffer_object : enable\nprecision highp float;\n\n"},
		{"es2 vertex", tierES2, ast.StageVertex, 1, true, ""},
		{"es2 pixel", tierES2, ast.StagePixel, 1, false, "precision mediump float;\n\n"},
		{"desktop vertex", tierDesktop, ast.StageVertex, 4, true, "#version 410\n\n"},
		{"desktop pixel", tierDesktop, ast.StagePixel, 4, false, "#version 410\nout vec4 fragData[4];\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Header(tt.tier, tt.stage, tt.targets, tt.blocks).String()
			if got != tt.want {
				t.Errorf("Header() = %q, want %q", got, tt.want)
			}
		})
	}
}
