// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package convert reads programs produced by the upstream source-dialect
// converter.
//
// The converter itself runs out of process and writes an interchange
// Document per source file. Interchange decodes that document, selects
// the entry point for the requested stage and translates it into an
// ast.Program.
package convert

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/crossgl/ast"
	"github.com/gogpu/crossgl/codec"
	"github.com/gogpu/crossgl/diag"
)

// DocumentVersion is the newest interchange version understood.
const DocumentVersion = 1

// Interchange converts interchange documents. The zero value is ready to
// use and safe for concurrent use.
type Interchange struct {
	Logger *slog.Logger
}

// NewInterchange returns an Interchange logging to logger. A nil logger
// discards.
func NewInterchange(logger *slog.Logger) *Interchange {
	return &Interchange{Logger: logger}
}

// Convert decodes source as an interchange document and returns the
// program for entryPoint and stage. Documents whose filename ends in
// ".cbor" are CBOR, everything else YAML. An empty entryPoint selects the
// only entry point declared for stage.
//
// Malformed declarations are reported together as a diag.List of
// ConversionFailed errors.
func (c *Interchange) Convert(source, entryPoint string, stage ast.Stage, filename string) (*ast.Program, error) {
	doc, err := Decode([]byte(source), filename)
	if err != nil {
		return nil, err
	}

	entry, err := resolveEntry(doc, entryPoint, stage)
	if err != nil {
		return nil, err
	}

	tr := translator{filename: filename}
	program := &ast.Program{EntryPoint: entry}
	for i, decl := range doc.Declarations {
		if d := tr.declaration(i, decl); d != nil {
			program.Declarations = append(program.Declarations, d)
		}
	}
	if tr.diags.HasErrors() {
		return nil, tr.diags
	}
	if program.Function(entry) == nil {
		return nil, fmt.Errorf("entry point %q is not defined", entry)
	}

	c.logger().Debug("converted interchange document",
		"filename", filename,
		"entry", entry,
		"stage", stage.String(),
		"declarations", len(program.Declarations),
	)
	return program, nil
}

func (c *Interchange) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Decode parses an interchange document. CBOR is selected by a ".cbor"
// filename extension. Unknown YAML fields are rejected.
func Decode(data []byte, filename string) (*Document, error) {
	var doc Document
	if strings.EqualFold(filepath.Ext(filename), ".cbor") {
		if err := codec.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding CBOR document: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing YAML document: %w", err)
		}
	}
	if doc.Version > DocumentVersion {
		return nil, fmt.Errorf("document version %d is newer than supported version %d", doc.Version, DocumentVersion)
	}
	return &doc, nil
}

func resolveEntry(doc *Document, entryPoint string, stage ast.Stage) (string, error) {
	var candidates []string
	declared := false
	for _, ep := range doc.EntryPoints {
		epStage, err := ast.ParseStage(ep.Stage)
		if err != nil {
			return "", fmt.Errorf("entry point %q: %w", ep.Name, err)
		}
		if entryPoint != "" && ep.Name == entryPoint {
			declared = true
			if epStage != stage {
				return "", fmt.Errorf("entry point %q is declared for stage %s, not %s", ep.Name, epStage, stage)
			}
		}
		if epStage == stage {
			candidates = append(candidates, ep.Name)
		}
	}

	switch {
	case entryPoint != "":
		if len(doc.EntryPoints) > 0 && !declared {
			return "", fmt.Errorf("entry point %q is not declared", entryPoint)
		}
		return entryPoint, nil
	case len(candidates) == 1:
		return candidates[0], nil
	case len(candidates) == 0:
		return "", fmt.Errorf("no entry point declared for stage %s", stage)
	default:
		return "", fmt.Errorf("stage %s has %d entry points (%s); one must be named",
			stage, len(candidates), strings.Join(candidates, ", "))
	}
}

var (
	knownQualifiers = map[string]ast.Qualifier{}
	knownPrecisions = map[string]ast.Precision{
		"":        ast.PrecisionDefault,
		"lowp":    ast.PrecisionLow,
		"mediump": ast.PrecisionMedium,
		"highp":   ast.PrecisionHigh,
	}
)

func init() {
	for _, q := range []ast.Qualifier{
		ast.QualifierIn, ast.QualifierOut, ast.QualifierInOut, ast.QualifierUniform,
		ast.QualifierConst, ast.QualifierAttribute, ast.QualifierVarying,
		ast.QualifierFlat, ast.QualifierCentroid, ast.QualifierInvariant,
	} {
		knownQualifiers[string(q)] = q
	}
}

// translator turns document nodes into ast nodes, recording every problem
// rather than stopping at the first.
type translator struct {
	filename string
	diags    diag.List
}

func (t *translator) errorf(format string, args ...any) {
	t.diags.Errorf(diag.ConversionFailed, t.filename, format, args...)
}

func (t *translator) declaration(index int, d Declaration) ast.Declaration {
	set := 0
	var out ast.Declaration
	if d.Variable != nil {
		set++
		v := t.variable(fmt.Sprintf("declaration %d", index), *d.Variable)
		out = &v
	}
	if d.UniformBlock != nil {
		set++
		out = t.uniformBlock(*d.UniformBlock)
	}
	if d.Struct != nil {
		set++
		out = &ast.Struct{Name: d.Struct.Name, Members: t.members(d.Struct.Name, d.Struct.Members)}
	}
	if d.Function != nil {
		set++
		out = t.function(*d.Function)
	}
	if set != 1 {
		t.errorf("declaration %d: expected exactly one of variable, uniform_block, struct, function; got %d", index, set)
		return nil
	}
	return out
}

func (t *translator) variable(where string, v Variable) ast.Variable {
	out := ast.Variable{
		Type:      v.Type,
		Name:      v.Name,
		ArraySize: v.ArraySize,
		Init:      v.Init,
		Precision: t.precision(where, v.Precision),
	}
	if v.Name == "" {
		t.errorf("%s: variable has no name", where)
	}
	if v.Type == "" {
		t.errorf("%s: variable %q has no type", where, v.Name)
	}
	for _, q := range v.Qualifiers {
		qualifier, ok := knownQualifiers[q]
		if !ok {
			t.errorf("%s: unknown qualifier %q on %q", where, q, v.Name)
			continue
		}
		out.Qualifiers = append(out.Qualifiers, qualifier)
	}
	return out
}

func (t *translator) precision(where, p string) ast.Precision {
	precision, ok := knownPrecisions[p]
	if !ok {
		t.errorf("%s: unknown precision %q", where, p)
	}
	return precision
}

func (t *translator) members(owner string, vars []Variable) []ast.Variable {
	out := make([]ast.Variable, 0, len(vars))
	for _, v := range vars {
		out = append(out, t.variable(owner, v))
	}
	return out
}

func (t *translator) uniformBlock(b UniformBlock) *ast.UniformBlock {
	if b.Name == "" {
		t.errorf("uniform block has no name")
	}
	return &ast.UniformBlock{
		Layout:   append([]string(nil), b.Layout...),
		Name:     b.Name,
		Instance: b.Instance,
		Members:  t.members("uniform block "+b.Name, b.Members),
	}
}

func (t *translator) function(f Function) *ast.Function {
	where := "function " + f.Name
	if f.Name == "" {
		t.errorf("function has no name")
	}
	out := &ast.Function{ReturnType: f.Return, Name: f.Name}
	if out.ReturnType == "" {
		out.ReturnType = "void"
	}
	for _, p := range f.Params {
		param := ast.Param{
			Precision: t.precision(where, p.Precision),
			Type:      p.Type,
			Name:      p.Name,
			ArraySize: p.ArraySize,
		}
		switch p.Qualifier {
		case "", "in", "out", "inout", "const":
			param.Qualifier = ast.Qualifier(p.Qualifier)
		default:
			t.errorf("%s: parameter %q has invalid qualifier %q", where, p.Name, p.Qualifier)
		}
		out.Params = append(out.Params, param)
	}
	out.Body = t.block(where, f.Body)
	return out
}

func (t *translator) block(where string, stmts []Statement) ast.Block {
	block := make(ast.Block, 0, len(stmts))
	for _, s := range stmts {
		if stmt := t.statement(where, s); stmt != nil {
			block = append(block, stmt)
		}
	}
	return block
}

func (t *translator) statement(where string, s Statement) ast.Statement {
	set := 0
	var out ast.Statement
	if s.Raw != nil {
		set++
		out = ast.Raw{Text: *s.Raw}
	}
	if s.Declare != nil {
		set++
		out = ast.Declare{Var: t.variable(where, *s.Declare)}
	}
	if s.Assign != nil {
		set++
		out = ast.Assign{Target: s.Assign.Target, Op: s.Assign.Op, Value: s.Assign.Value}
	}
	if s.Expr != nil {
		set++
		out = ast.ExprStmt{Expr: *s.Expr}
	}
	if s.Return != nil {
		set++
		out = ast.Return{Value: s.Return.Value}
	}
	if s.Discard {
		set++
		out = ast.Discard{}
	}
	if s.If != nil {
		set++
		out = ast.If{Cond: s.If.Cond, Then: t.block(where, s.If.Then), Else: t.elseBlock(where, s.If.Else)}
	}
	if s.For != nil {
		set++
		out = ast.For{Init: s.For.Init, Cond: s.For.Cond, Post: s.For.Post, Body: t.block(where, s.For.Body)}
	}
	if s.Block != nil {
		set++
		out = t.block(where, s.Block)
	}
	if set != 1 {
		t.errorf("%s: statement must have exactly one kind, got %d", where, set)
		return nil
	}
	return out
}

func (t *translator) elseBlock(where string, stmts []Statement) ast.Block {
	if len(stmts) == 0 {
		return nil
	}
	return t.block(where, stmts)
}
