// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"strings"
	"testing"

	"github.com/gogpu/crossgl/ast"
	"github.com/gogpu/crossgl/profile"
)

var (
	tierES2     = profile.Tier{Constrained: true, Modern: false}
	tierES3     = profile.Tier{Constrained: true, Modern: true}
	tierDesktop = profile.Tier{Constrained: false, Modern: true}
)

// vertexProgram returns a small lit vertex program as a converter would
// hand it over.
func vertexProgram() *ast.Program {
	return &ast.Program{
		EntryPoint: "VSMain",
		Declarations: []ast.Declaration{
			&ast.UniformBlock{Name: "PerDraw", Members: []ast.Variable{
				{Type: "mat4", Name: "WorldViewProjection"},
				{Type: "vec4", Name: "Tint"},
			}},
			&ast.Variable{Qualifiers: []ast.Qualifier{ast.QualifierIn}, Type: "vec4", Name: "aPosition"},
			&ast.Variable{Qualifiers: []ast.Qualifier{ast.QualifierIn}, Type: "vec2", Name: "aTexCoord"},
			&ast.Variable{Qualifiers: []ast.Qualifier{ast.QualifierOut}, Type: "vec2", Name: "vTexCoord"},
			&ast.Variable{Qualifiers: []ast.Qualifier{ast.QualifierOut}, Type: "vec4", Name: "vColor"},
			&ast.Function{ReturnType: "vec4", Name: "transform", Params: []ast.Param{
				{Type: "vec4", Name: "p"},
			}, Body: ast.Block{
				ast.Return{Value: "WorldViewProjection * p"},
			}},
			&ast.Function{ReturnType: "void", Name: "VSMain", Body: ast.Block{
				ast.Assign{Target: "gl_Position", Value: "transform(aPosition)"},
				ast.Assign{Target: "vTexCoord", Value: "aTexCoord"},
				ast.Assign{Target: "vColor", Value: "Tint"},
			}},
		},
	}
}

// pixelProgram returns a textured pixel program.
func pixelProgram() *ast.Program {
	return &ast.Program{
		EntryPoint: "PSMain",
		Declarations: []ast.Declaration{
			&ast.Variable{Qualifiers: []ast.Qualifier{ast.QualifierUniform}, Type: "sampler2D", Name: "Texture0"},
			&ast.Variable{Qualifiers: []ast.Qualifier{ast.QualifierIn}, Type: "vec2", Name: "vTexCoord"},
			&ast.Function{ReturnType: "void", Name: "PSMain", Body: ast.Block{
				ast.Declare{Var: ast.Variable{Type: "vec4", Name: "color", Init: "texture2D(Texture0, vTexCoord)"}},
				ast.If{Cond: "color.a < 0.5", Then: ast.Block{ast.Discard{}}},
				ast.Assign{Target: "gl_FragColor", Value: "color"},
			}},
		},
	}
}

// =============================================================================
// Version Tests
// =============================================================================

func TestVersion_String(t *testing.T) {
	tests := []struct {
		version Version
		want    string
	}{
		{VersionES100, "100"},
		{VersionES300, "300 es"},
		{Version410, "410"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.version.String()
			if got != tt.want {
				t.Errorf("Version.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersion_Features(t *testing.T) {
	tests := []struct {
		version Version
		blocks  bool
		inOut   bool
	}{
		{VersionES100, false, false},
		{VersionES300, true, true},
		{Version410, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.version.VersionNumber(), func(t *testing.T) {
			if got := tt.version.SupportsUniformBlocks(); got != tt.blocks {
				t.Errorf("SupportsUniformBlocks() = %v, want %v", got, tt.blocks)
			}
			if got := tt.version.SupportsInOut(); got != tt.inOut {
				t.Errorf("SupportsInOut() = %v, want %v", got, tt.inOut)
			}
		})
	}
}

func TestVersionFor(t *testing.T) {
	if got := VersionFor(tierES2); got != VersionES100 {
		t.Errorf("VersionFor(es2) = %v", got)
	}
	if got := VersionFor(tierES3); got != VersionES300 {
		t.Errorf("VersionFor(es3) = %v", got)
	}
	if got := VersionFor(tierDesktop); got != Version410 {
		t.Errorf("VersionFor(desktop) = %v", got)
	}
	if got := VersionFor(profile.Tier{}); got != Version410 {
		t.Errorf("VersionFor(desktop legacy level) = %v", got)
	}
}

// =============================================================================
// Options Tests
// =============================================================================

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Tier.Constrained {
		t.Error("Expected desktop tier by default")
	}
	if opts.RenderTargets != 1 {
		t.Errorf("Expected RenderTargets 1, got %d", opts.RenderTargets)
	}
	if !opts.UniformBlocks {
		t.Error("Expected UniformBlocks to be true")
	}
}

// =============================================================================
// Compile Tests
// =============================================================================

func TestCompile_NilProgram(t *testing.T) {
	if _, _, err := Compile(nil, DefaultOptions()); err == nil {
		t.Fatal("expected error for nil program")
	}
}

func TestCompile_DesktopVertex(t *testing.T) {
	source, info, err := Compile(vertexProgram(), Options{Tier: tierDesktop, Stage: ast.StageVertex, UniformBlocks: true})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if !strings.HasPrefix(source, "#version 410\n") {
		t.Errorf("Expected desktop version directive first, got:\n%s", source)
	}
	for _, want := range []string{
		"uniform PerDraw {",
		"    mat4 WorldViewProjection;",
		"in vec4 aPosition;",
		"out vec2 vTexCoord;",
		"vec4 transform(vec4 p) {",
		"    return WorldViewProjection * p;",
		"void main() {",
		"    gl_Position = transform(aPosition);",
	} {
		if !strings.Contains(source, want) {
			t.Errorf("Expected %q in output:\n%s", want, source)
		}
	}
	if strings.Contains(source, "VSMain") {
		t.Error("Entry point should be written as main")
	}
	if info.Version != Version410 || info.EntryPoint != "VSMain" {
		t.Errorf("Unexpected info: %+v", info)
	}
	if len(info.UsedExtensions) != 0 {
		t.Errorf("Desktop should not use extensions, got %v", info.UsedExtensions)
	}
}

func TestCompile_ES3UniformBlockExtension(t *testing.T) {
	source, info, err := Compile(vertexProgram(), Options{Tier: tierES3, Stage: ast.StageVertex, UniformBlocks: true})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	want := "#version 300 es\n#extension " + UniformBlockExtension + " : enable\n"
	if !strings.HasPrefix(source, want) {
		t.Errorf("Expected preamble %q, got:\n%s", want, source)
	}
	if len(info.UsedExtensions) != 1 || info.UsedExtensions[0] != UniformBlockExtension {
		t.Errorf("UsedExtensions = %v", info.UsedExtensions)
	}

	// Not requested: no pragma even with blocks declared.
	source, _, err = Compile(vertexProgram(), Options{Tier: tierES3, Stage: ast.StageVertex})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if strings.Contains(source, "#extension") {
		t.Errorf("Unexpected extension pragma:\n%s", source)
	}
}

func TestCompile_ES2FlattensBlocks(t *testing.T) {
	program := vertexProgram()
	RewriteQualifiers(program, ast.StageVertex, tierES2)
	AnnotateLayout(program)

	source, info, err := Compile(program, Options{Tier: tierES2, Stage: ast.StageVertex, UniformBlocks: true})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if strings.Contains(source, "#version") {
		t.Errorf("GLSL ES 1.00 must not carry a version directive:\n%s", source)
	}
	for _, want := range []string{
		"uniform mat4 WorldViewProjection;",
		"uniform vec4 Tint;",
		"attribute vec4 aPosition;",
		"varying vec2 vTexCoord;",
	} {
		if !strings.Contains(source, want) {
			t.Errorf("Expected %q in output:\n%s", want, source)
		}
	}
	if strings.Contains(source, "layout(") {
		t.Errorf("Flattened output must not carry layouts:\n%s", source)
	}
	if len(info.FlattenedBlocks) != 1 || info.FlattenedBlocks[0] != "PerDraw" {
		t.Errorf("FlattenedBlocks = %v", info.FlattenedBlocks)
	}
}

func TestCompile_ES2NamedBlockFails(t *testing.T) {
	program := &ast.Program{Declarations: []ast.Declaration{
		&ast.UniformBlock{Name: "Globals", Instance: "globals", Members: []ast.Variable{{Type: "float", Name: "time"}}},
	}}
	_, _, err := Compile(program, Options{Tier: tierES2, Stage: ast.StageVertex})
	if err == nil || !strings.Contains(err.Error(), "cannot be flattened") {
		t.Fatalf("expected flatten error, got %v", err)
	}
}

func TestCompile_ES2RejectsInOut(t *testing.T) {
	// Without the qualifier rewrite, in/out are invalid in GLSL ES 1.00.
	_, _, err := Compile(vertexProgram(), Options{Tier: tierES2, Stage: ast.StageVertex})
	if err == nil || !strings.Contains(err.Error(), "not a storage qualifier") {
		t.Fatalf("expected storage qualifier error, got %v", err)
	}
}

func TestCompile_ES3RejectsAttribute(t *testing.T) {
	program := &ast.Program{Declarations: []ast.Declaration{
		&ast.Variable{Qualifiers: []ast.Qualifier{ast.QualifierAttribute}, Type: "vec4", Name: "aPosition"},
	}}
	_, _, err := Compile(program, Options{Tier: tierES3, Stage: ast.StageVertex})
	if err == nil || !strings.Contains(err.Error(), "was removed") {
		t.Fatalf("expected removed qualifier error, got %v", err)
	}
}

func TestCompile_PixelPreambles(t *testing.T) {
	tests := []struct {
		name    string
		tier    profile.Tier
		targets int
		prefix  string
	}{
		{"es2", tierES2, 1, "precision mediump float;\n\n"},
		{"es3", tierES3, 1, "#version 300 es\nprecision highp float;\n\n"},
		{"desktop", tierDesktop, 3, "#version 410\nout vec4 fragData[3];\n\n"},
		{"desktop zero targets", tierDesktop, 0, "#version 410\nout vec4 fragData[1];\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := pixelProgram()
			RewriteQualifiers(program, ast.StagePixel, tt.tier)
			source, _, err := Compile(program, Options{Tier: tt.tier, Stage: ast.StagePixel, RenderTargets: tt.targets})
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if !strings.HasPrefix(source, tt.prefix) {
				t.Errorf("Expected prefix %q, got:\n%s", tt.prefix, source)
			}
			if strings.Count(source, "#version") > 1 {
				t.Errorf("More than one preamble:\n%s", source)
			}
		})
	}
}

func TestCompile_UnsupportedStage(t *testing.T) {
	for _, stage := range []ast.Stage{ast.StageGeometry, ast.StageHull, ast.StageDomain, ast.StageCompute} {
		_, _, err := Compile(vertexProgram(), Options{Tier: tierDesktop, Stage: stage})
		if err == nil {
			t.Errorf("Compile(%s) should fail", stage)
		}
	}
}

func TestCompile_MissingEntryPoint(t *testing.T) {
	program := vertexProgram()
	program.EntryPoint = "Nope"
	_, _, err := Compile(program, Options{Tier: tierDesktop, Stage: ast.StageVertex})
	if err == nil || !strings.Contains(err.Error(), `entry point "Nope" not found`) {
		t.Fatalf("expected missing entry point error, got %v", err)
	}
}

func TestCompile_RequiresEntryPoint(t *testing.T) {
	program := vertexProgram()
	program.EntryPoint = ""
	source, _, err := Compile(program, Options{Tier: tierDesktop, Stage: ast.StageVertex})
	if err == nil || !strings.Contains(err.Error(), "no entry point") {
		t.Fatalf("expected missing entry point error, got %v\n%s", err, source)
	}
}

func TestCompile_DuplicateEntryPoint(t *testing.T) {
	program := pixelProgram()
	entry := program.Function("PSMain")
	program.Declarations = append(program.Declarations, &ast.Function{ReturnType: "void", Name: entry.Name, Body: entry.Body})

	_, _, err := Compile(program, Options{Tier: tierDesktop, Stage: ast.StagePixel})
	if err == nil || !strings.Contains(err.Error(), "defined more than once") {
		t.Fatalf("expected duplicate entry point error, got %v", err)
	}
}

func TestCompile_FragmentOutputCollision(t *testing.T) {
	tests := []struct {
		name    string
		tier    profile.Tier
		stage   ast.Stage
		wantErr bool
	}{
		{"desktop pixel", tierDesktop, ast.StagePixel, true},
		{"desktop vertex", tierDesktop, ast.StageVertex, false},
		{"es3 pixel", tierES3, ast.StagePixel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := &ast.Program{
				EntryPoint: "entry",
				Declarations: []ast.Declaration{
					&ast.Variable{Qualifiers: []ast.Qualifier{ast.QualifierUniform}, Type: "vec4", Name: FragmentOutput},
					&ast.Function{ReturnType: "void", Name: "entry"},
				},
			}
			source, _, err := Compile(program, Options{Tier: tt.tier, Stage: tt.stage})
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "fragment output") {
					t.Fatalf("expected collision error, got %v\n%s", err, source)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if n := strings.Count(source, " "+FragmentOutput); n != 1 {
				t.Errorf("%s declared %d times:\n%s", FragmentOutput, n, source)
			}
		})
	}
}

func TestCompile_ReservedIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		decl ast.Declaration
	}{
		{"keyword", &ast.Variable{Qualifiers: []ast.Qualifier{ast.QualifierUniform}, Type: "float", Name: "sample"}},
		{"gl prefix", &ast.Variable{Qualifiers: []ast.Qualifier{ast.QualifierUniform}, Type: "float", Name: "gl_Time"}},
		{"double underscore", &ast.Struct{Name: "My__Struct", Members: []ast.Variable{{Type: "float", Name: "x"}}}},
		{"function named main", &ast.Function{ReturnType: "void", Name: "main"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := &ast.Program{Declarations: []ast.Declaration{tt.decl}}
			if _, _, err := Compile(program, Options{Tier: tierDesktop, Stage: ast.StageVertex}); err == nil {
				t.Error("expected identifier error")
			}
		})
	}
}

func TestCompile_Deterministic(t *testing.T) {
	first, _, err := Compile(vertexProgram(), Options{Tier: tierES3, Stage: ast.StageVertex, UniformBlocks: true})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _, err := Compile(vertexProgram(), Options{Tier: tierES3, Stage: ast.StageVertex, UniformBlocks: true})
		if err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
		if again != first {
			t.Fatalf("Output differs between runs:\n%s\n---\n%s", first, again)
		}
	}
}
