// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

// Statement is a statement inside a function body.
type Statement interface {
	statement()
}

// Block is a sequence of statements. A Block nested in another block is
// written as a braced scope.
type Block []Statement

func (Block) statement() {}

// Raw is a statement written verbatim on its own line.
type Raw struct {
	Text string
}

func (Raw) statement() {}

// Declare declares a local variable.
type Declare struct {
	Var Variable
}

func (Declare) statement() {}

// Assign is "Target Op Value;". An empty Op means plain assignment.
type Assign struct {
	Target string
	Op     string
	Value  string
}

func (Assign) statement() {}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	Expr string
}

func (ExprStmt) statement() {}

// Return returns from the function. Value may be empty.
type Return struct {
	Value string
}

func (Return) statement() {}

// Discard is the fragment "discard;" statement.
type Discard struct{}

func (Discard) statement() {}

// If is a conditional with an optional else branch.
type If struct {
	Cond string
	Then Block
	Else Block
}

func (If) statement() {}

// For is a C-style loop.
type For struct {
	Init string
	Cond string
	Post string
	Body Block
}

func (For) statement() {}

func cloneBlock(block Block) Block {
	if block == nil {
		return nil
	}
	out := make(Block, len(block))
	for i, stmt := range block {
		out[i] = cloneStatement(stmt)
	}
	return out
}

func cloneStatement(stmt Statement) Statement {
	switch s := stmt.(type) {
	case Block:
		return cloneBlock(s)
	case Declare:
		return Declare{Var: cloneVariable(s.Var)}
	case If:
		return If{Cond: s.Cond, Then: cloneBlock(s.Then), Else: cloneBlock(s.Else)}
	case For:
		return For{Init: s.Init, Cond: s.Cond, Post: s.Post, Body: cloneBlock(s.Body)}
	default:
		// Remaining statements hold only strings.
		return stmt
	}
}
