// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/crossgl/ast"
)

// Writer generates GLSL source code from a converted program.
type Writer struct {
	program *ast.Program
	options *Options

	// Output buffer
	out strings.Builder

	// Current indentation level
	indent int

	// Dialect selected from the tier
	version Version

	// Output tracking
	extensions []string
	flattened  []string
	wroteEntry bool
}

// newWriter creates a new GLSL writer.
func newWriter(program *ast.Program, options *Options) *Writer {
	return &Writer{
		program: program,
		options: options,
		version: VersionFor(options.Tier),
	}
}

// String returns the generated GLSL source code.
func (w *Writer) String() string {
	return w.out.String()
}

// writeModule generates GLSL code for the entire program.
func (w *Writer) writeModule() error {
	switch w.options.Stage {
	case ast.StageVertex, ast.StagePixel:
	default:
		return fmt.Errorf("%s stage cannot be written as GLSL", w.options.Stage)
	}

	// 1. Preamble
	requested := w.options.UniformBlocks && len(w.program.UniformBlocks()) > 0
	preamble := Header(w.options.Tier, w.options.Stage, w.options.RenderTargets, requested)
	w.extensions = preamble.Extensions
	w.out.WriteString(preamble.String())

	// 2. Declarations, in source order
	for _, decl := range w.program.Declarations {
		if err := w.writeDeclaration(decl); err != nil {
			return err
		}
	}

	if w.program.EntryPoint == "" {
		return fmt.Errorf("program has no entry point")
	}
	if !w.wroteEntry {
		return fmt.Errorf("entry point %q not found", w.program.EntryPoint)
	}
	return nil
}

func (w *Writer) writeDeclaration(decl ast.Declaration) error {
	switch d := decl.(type) {
	case *ast.Struct:
		return w.writeStruct(d)
	case *ast.Variable:
		if err := checkIdentifier(d.Name); err != nil {
			return err
		}
		if err := w.checkQualifiers(d); err != nil {
			return err
		}
		if d.Name == FragmentOutput && w.declaresFragmentOutput() {
			return fmt.Errorf("global %q collides with the fragment output array", d.Name)
		}
		w.writeLine("%s;", variableDecl(*d))
		return nil
	case *ast.UniformBlock:
		return w.writeUniformBlock(d)
	case *ast.Function:
		return w.writeFunction(d)
	default:
		return fmt.Errorf("unsupported declaration %T", decl)
	}
}

// declaresFragmentOutput reports whether the preamble declares the desktop
// fragment output array.
func (w *Writer) declaresFragmentOutput() bool {
	return !w.options.Tier.Constrained && w.options.Stage == ast.StagePixel
}

// checkQualifiers rejects storage qualifiers the dialect does not have.
func (w *Writer) checkQualifiers(v *ast.Variable) error {
	for _, q := range v.Qualifiers {
		switch q {
		case ast.QualifierIn, ast.QualifierOut:
			if !w.version.SupportsInOut() {
				return fmt.Errorf("global %q: %q is not a storage qualifier in GLSL %s", v.Name, q, w.version)
			}
		case ast.QualifierAttribute, ast.QualifierVarying:
			if w.version.SupportsInOut() {
				return fmt.Errorf("global %q: %q was removed in GLSL %s", v.Name, q, w.version)
			}
		}
	}
	return nil
}

// writeStruct writes a struct type definition.
func (w *Writer) writeStruct(st *ast.Struct) error {
	if err := checkIdentifier(st.Name); err != nil {
		return err
	}
	w.writeLine("struct %s {", st.Name)
	w.pushIndent()
	for _, member := range st.Members {
		if err := checkIdentifier(member.Name); err != nil {
			return fmt.Errorf("struct %s: %w", st.Name, err)
		}
		w.writeLine("%s;", variableDecl(member))
	}
	w.popIndent()
	w.writeLine("};")
	w.writeLine("")
	return nil
}

// writeUniformBlock writes an interface block, or its members as plain
// uniforms when the dialect has no blocks.
func (w *Writer) writeUniformBlock(block *ast.UniformBlock) error {
	if err := checkIdentifier(block.Name); err != nil {
		return err
	}

	if !w.version.SupportsUniformBlocks() {
		// Members of an anonymous block are referenced unqualified, so
		// plain uniforms keep every reference valid. A named instance
		// would need its references rewritten.
		if block.Instance != "" {
			return fmt.Errorf("uniform block %s with instance name %q cannot be flattened for GLSL %s",
				block.Name, block.Instance, w.version)
		}
		for _, member := range block.Members {
			if err := checkIdentifier(member.Name); err != nil {
				return fmt.Errorf("uniform block %s: %w", block.Name, err)
			}
			member.Qualifiers = []ast.Qualifier{ast.QualifierUniform}
			w.writeLine("%s;", variableDecl(member))
		}
		w.flattened = append(w.flattened, block.Name)
		w.writeLine("")
		return nil
	}

	prefix := ""
	if len(block.Layout) > 0 {
		prefix = fmt.Sprintf("layout(%s) ", strings.Join(block.Layout, ", "))
	}
	w.writeLine("%suniform %s {", prefix, block.Name)
	w.pushIndent()
	for _, member := range block.Members {
		if err := checkIdentifier(member.Name); err != nil {
			return fmt.Errorf("uniform block %s: %w", block.Name, err)
		}
		w.writeLine("%s;", variableDecl(member))
	}
	w.popIndent()
	if block.Instance != "" {
		if err := checkIdentifier(block.Instance); err != nil {
			return fmt.Errorf("uniform block %s: %w", block.Name, err)
		}
		w.writeLine("} %s;", block.Instance)
	} else {
		w.writeLine("};")
	}
	w.writeLine("")
	return nil
}

// writeFunction writes a function definition. The entry point is written
// as void main().
func (w *Writer) writeFunction(fn *ast.Function) error {
	if fn.Name == w.program.EntryPoint {
		if w.wroteEntry {
			return fmt.Errorf("entry point %q is defined more than once", fn.Name)
		}
		if len(fn.Params) > 0 {
			return fmt.Errorf("entry point %q must not take parameters", fn.Name)
		}
		w.writeLine("void main() {")
		w.wroteEntry = true
	} else {
		if fn.Name == "main" {
			return fmt.Errorf("function main collides with the entry point")
		}
		if err := checkIdentifier(fn.Name); err != nil {
			return err
		}
		params := make([]string, 0, len(fn.Params))
		for _, p := range fn.Params {
			if err := checkIdentifier(p.Name); err != nil {
				return fmt.Errorf("function %s: %w", fn.Name, err)
			}
			params = append(params, paramDecl(p))
		}
		returnType := fn.ReturnType
		if returnType == "" {
			returnType = "void"
		}
		w.writeLine("%s %s(%s) {", returnType, fn.Name, strings.Join(params, ", "))
	}

	w.pushIndent()
	if err := w.writeBlock(fn.Body); err != nil {
		return fmt.Errorf("function %s: %w", fn.Name, err)
	}
	w.popIndent()
	w.writeLine("}")
	w.writeLine("")
	return nil
}

// variableDecl renders "qualifiers precision type name[size] = init"
// without the trailing semicolon.
func variableDecl(v ast.Variable) string {
	var parts []string
	for _, q := range v.Qualifiers {
		parts = append(parts, string(q))
	}
	if v.Precision != ast.PrecisionDefault {
		parts = append(parts, string(v.Precision))
	}
	parts = append(parts, v.Type, v.Name+arraySuffix(v.ArraySize))
	decl := strings.Join(parts, " ")
	if v.Init != "" {
		decl += " = " + v.Init
	}
	return decl
}

func paramDecl(p ast.Param) string {
	var parts []string
	if p.Qualifier != "" {
		parts = append(parts, string(p.Qualifier))
	}
	if p.Precision != ast.PrecisionDefault {
		parts = append(parts, string(p.Precision))
	}
	parts = append(parts, p.Type, p.Name+arraySuffix(p.ArraySize))
	return strings.Join(parts, " ")
}

func arraySuffix(size uint32) string {
	if size == 0 {
		return ""
	}
	return fmt.Sprintf("[%d]", size)
}

// Output helpers

// writeLine writes a line with indentation and newline.
//
//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	if format == "" && len(args) == 0 {
		w.out.WriteByte('\n')
		return
	}
	w.writeIndent()
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

// writeIndent writes the current indentation.
func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("    ")
	}
}

// pushIndent increases indentation.
func (w *Writer) pushIndent() {
	w.indent++
}

// popIndent decreases indentation.
func (w *Writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}
