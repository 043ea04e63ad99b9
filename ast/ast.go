// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package ast defines the target-dialect program tree consumed by crossgl.
//
// A Program is what the upstream converter hands over after translating the
// source dialect: declarations already spelled in GLSL terms, with storage
// qualifiers still in their generic "in"/"out" form. The pipeline mutates the
// tree in place (qualifier rewriting, layout annotation) and then writes it
// out as text. Expressions are carried as pre-rendered target-dialect text;
// only the declaration and statement structure is modeled.
package ast

// Program is the converted program for one variant.
type Program struct {
	// EntryPoint names the function emitted as main.
	EntryPoint string

	// Declarations in source order. GLSL requires declare-before-use,
	// so the order is preserved by every pass.
	Declarations []Declaration
}

// Declaration is a top-level declaration.
type Declaration interface {
	declaration()
}

// Qualifier is a storage or parameter qualifier.
type Qualifier string

const (
	QualifierIn        Qualifier = "in"
	QualifierOut       Qualifier = "out"
	QualifierInOut     Qualifier = "inout"
	QualifierUniform   Qualifier = "uniform"
	QualifierConst     Qualifier = "const"
	QualifierAttribute Qualifier = "attribute"
	QualifierVarying   Qualifier = "varying"
	QualifierFlat      Qualifier = "flat"
	QualifierCentroid  Qualifier = "centroid"
	QualifierInvariant Qualifier = "invariant"
)

// Precision is a GLSL ES precision qualifier. Empty means default.
type Precision string

const (
	PrecisionDefault Precision = ""
	PrecisionLow     Precision = "lowp"
	PrecisionMedium  Precision = "mediump"
	PrecisionHigh    Precision = "highp"
)

// Variable is a global variable declaration or a struct/block member.
type Variable struct {
	Qualifiers []Qualifier
	Precision  Precision
	Type       string
	Name       string
	ArraySize  uint32 // 0 when not an array
	Init       string // optional initializer expression
}

func (*Variable) declaration() {}

// HasQualifier reports whether q is among the variable's qualifiers.
func (v *Variable) HasQualifier(q Qualifier) bool {
	for _, have := range v.Qualifiers {
		if have == q {
			return true
		}
	}
	return false
}

// UniformBlock is an aggregate uniform declaration.
type UniformBlock struct {
	// Layout holds layout qualifiers such as "std140" or "binding = 0".
	Layout   []string
	Name     string
	Instance string // optional instance name
	Members  []Variable
}

func (*UniformBlock) declaration() {}

// HasLayout reports whether the block carries the given layout qualifier.
func (b *UniformBlock) HasLayout(layout string) bool {
	for _, have := range b.Layout {
		if have == layout {
			return true
		}
	}
	return false
}

// Struct is a struct type definition.
type Struct struct {
	Name    string
	Members []Variable
}

func (*Struct) declaration() {}

// Param is a function parameter.
type Param struct {
	Qualifier Qualifier // empty, in, out or inout
	Precision Precision
	Type      string
	Name      string
	ArraySize uint32
}

// Function is a function definition.
type Function struct {
	ReturnType string
	Name       string
	Params     []Param
	Body       Block
}

func (*Function) declaration() {}

// Function returns the function with the given name, or nil.
func (p *Program) Function(name string) *Function {
	for _, decl := range p.Declarations {
		if fn, ok := decl.(*Function); ok && fn.Name == name {
			return fn
		}
	}
	return nil
}

// UniformBlocks returns the program's uniform blocks in declaration order.
func (p *Program) UniformBlocks() []*UniformBlock {
	var blocks []*UniformBlock
	for _, decl := range p.Declarations {
		if block, ok := decl.(*UniformBlock); ok {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// Clone returns a deep copy of the program.
func (p *Program) Clone() *Program {
	if p == nil {
		return nil
	}
	out := &Program{
		EntryPoint:   p.EntryPoint,
		Declarations: make([]Declaration, 0, len(p.Declarations)),
	}
	for _, decl := range p.Declarations {
		out.Declarations = append(out.Declarations, cloneDeclaration(decl))
	}
	return out
}

func cloneDeclaration(decl Declaration) Declaration {
	switch d := decl.(type) {
	case *Variable:
		v := cloneVariable(*d)
		return &v
	case *UniformBlock:
		return &UniformBlock{
			Layout:   append([]string(nil), d.Layout...),
			Name:     d.Name,
			Instance: d.Instance,
			Members:  cloneVariables(d.Members),
		}
	case *Struct:
		return &Struct{Name: d.Name, Members: cloneVariables(d.Members)}
	case *Function:
		return &Function{
			ReturnType: d.ReturnType,
			Name:       d.Name,
			Params:     append([]Param(nil), d.Params...),
			Body:       cloneBlock(d.Body),
		}
	default:
		return decl
	}
}

func cloneVariable(v Variable) Variable {
	v.Qualifiers = append([]Qualifier(nil), v.Qualifiers...)
	return v
}

func cloneVariables(vars []Variable) []Variable {
	if vars == nil {
		return nil
	}
	out := make([]Variable, len(vars))
	for i, v := range vars {
		out[i] = cloneVariable(v)
	}
	return out
}
