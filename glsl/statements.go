// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/gogpu/crossgl/ast"
)

// writeBlock writes a block of statements.
func (w *Writer) writeBlock(block ast.Block) error {
	for _, stmt := range block {
		if err := w.writeStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// writeStatement writes a single statement.
func (w *Writer) writeStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case ast.Block:
		w.writeLine("{")
		w.pushIndent()
		if err := w.writeBlock(s); err != nil {
			return err
		}
		w.popIndent()
		w.writeLine("}")
		return nil

	case ast.Raw:
		w.writeLine(s.Text)
		return nil

	case ast.Declare:
		if err := checkIdentifier(s.Var.Name); err != nil {
			return err
		}
		w.writeLine("%s;", variableDecl(s.Var))
		return nil

	case ast.Assign:
		op := s.Op
		if op == "" {
			op = "="
		}
		w.writeLine("%s %s %s;", s.Target, op, s.Value)
		return nil

	case ast.ExprStmt:
		w.writeLine("%s;", s.Expr)
		return nil

	case ast.Return:
		if s.Value == "" {
			w.writeLine("return;")
		} else {
			w.writeLine("return %s;", s.Value)
		}
		return nil

	case ast.Discard:
		if w.options.Stage != ast.StagePixel {
			return fmt.Errorf("discard outside a pixel shader")
		}
		w.writeLine("discard;")
		return nil

	case ast.If:
		return w.writeIf(s)

	case ast.For:
		w.writeLine("for (%s; %s; %s) {", s.Init, s.Cond, s.Post)
		w.pushIndent()
		if err := w.writeBlock(s.Body); err != nil {
			return err
		}
		w.popIndent()
		w.writeLine("}")
		return nil

	default:
		return fmt.Errorf("unsupported statement %T", stmt)
	}
}

// writeIf writes an if statement, folding a lone nested if in the else
// branch into "else if".
func (w *Writer) writeIf(s ast.If) error {
	w.writeLine("if (%s) {", s.Cond)
	for {
		w.pushIndent()
		if err := w.writeBlock(s.Then); err != nil {
			return err
		}
		w.popIndent()

		if len(s.Else) == 0 {
			w.writeLine("}")
			return nil
		}
		if nested, ok := s.Else[0].(ast.If); ok && len(s.Else) == 1 {
			w.writeLine("} else if (%s) {", nested.Cond)
			s = nested
			continue
		}

		w.writeLine("} else {")
		w.pushIndent()
		if err := w.writeBlock(s.Else); err != nil {
			return err
		}
		w.popIndent()
		w.writeLine("}")
		return nil
	}
}
