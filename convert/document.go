// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package convert

// Document is the interchange form of a converted program. The upstream
// converter writes it as YAML, or as CBOR for large programs.
//
//	version: 1
//	entry_points:
//	  - {name: vsMain, stage: vertex}
//	declarations:
//	  - variable: {qualifiers: [in], precision: highp, type: vec4, name: aPosition}
//	  - function:
//	      return: void
//	      name: vsMain
//	      body:
//	        - assign: {target: gl_Position, value: aPosition}
type Document struct {
	Version      int           `yaml:"version" json:"version"`
	EntryPoints  []EntryPoint  `yaml:"entry_points" json:"entry_points"`
	Declarations []Declaration `yaml:"declarations" json:"declarations"`
}

// EntryPoint declares a function usable as the entry of a stage.
type EntryPoint struct {
	Name  string `yaml:"name" json:"name"`
	Stage string `yaml:"stage" json:"stage"`
}

// Declaration holds exactly one of its fields.
type Declaration struct {
	Variable     *Variable     `yaml:"variable,omitempty" json:"variable,omitempty"`
	UniformBlock *UniformBlock `yaml:"uniform_block,omitempty" json:"uniform_block,omitempty"`
	Struct       *Struct       `yaml:"struct,omitempty" json:"struct,omitempty"`
	Function     *Function     `yaml:"function,omitempty" json:"function,omitempty"`
}

type Variable struct {
	Qualifiers []string `yaml:"qualifiers,omitempty" json:"qualifiers,omitempty"`
	Precision  string   `yaml:"precision,omitempty" json:"precision,omitempty"`
	Type       string   `yaml:"type" json:"type"`
	Name       string   `yaml:"name" json:"name"`
	ArraySize  uint32   `yaml:"array_size,omitempty" json:"array_size,omitempty"`
	Init       string   `yaml:"init,omitempty" json:"init,omitempty"`
}

type UniformBlock struct {
	Layout   []string   `yaml:"layout,omitempty" json:"layout,omitempty"`
	Name     string     `yaml:"name" json:"name"`
	Instance string     `yaml:"instance,omitempty" json:"instance,omitempty"`
	Members  []Variable `yaml:"members" json:"members"`
}

type Struct struct {
	Name    string     `yaml:"name" json:"name"`
	Members []Variable `yaml:"members" json:"members"`
}

type Param struct {
	Qualifier string `yaml:"qualifier,omitempty" json:"qualifier,omitempty"`
	Precision string `yaml:"precision,omitempty" json:"precision,omitempty"`
	Type      string `yaml:"type" json:"type"`
	Name      string `yaml:"name" json:"name"`
	ArraySize uint32 `yaml:"array_size,omitempty" json:"array_size,omitempty"`
}

type Function struct {
	Return string      `yaml:"return" json:"return"`
	Name   string      `yaml:"name" json:"name"`
	Params []Param     `yaml:"params,omitempty" json:"params,omitempty"`
	Body   []Statement `yaml:"body,omitempty" json:"body,omitempty"`
}

// Statement holds exactly one of its fields. Discard is set with
// "discard: true"; a bare return is "return: {}".
type Statement struct {
	Raw     *string     `yaml:"raw,omitempty" json:"raw,omitempty"`
	Declare *Variable   `yaml:"declare,omitempty" json:"declare,omitempty"`
	Assign  *Assign     `yaml:"assign,omitempty" json:"assign,omitempty"`
	Expr    *string     `yaml:"expr,omitempty" json:"expr,omitempty"`
	Return  *Return     `yaml:"return,omitempty" json:"return,omitempty"`
	Discard bool        `yaml:"discard,omitempty" json:"discard,omitempty"`
	If      *If         `yaml:"if,omitempty" json:"if,omitempty"`
	For     *For        `yaml:"for,omitempty" json:"for,omitempty"`
	Block   []Statement `yaml:"block,omitempty" json:"block,omitempty"`
}

type Assign struct {
	Target string `yaml:"target" json:"target"`
	Op     string `yaml:"op,omitempty" json:"op,omitempty"`
	Value  string `yaml:"value" json:"value"`
}

type Return struct {
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

type If struct {
	Cond string      `yaml:"cond" json:"cond"`
	Then []Statement `yaml:"then" json:"then"`
	Else []Statement `yaml:"else,omitempty" json:"else,omitempty"`
}

type For struct {
	Init string      `yaml:"init,omitempty" json:"init,omitempty"`
	Cond string      `yaml:"cond,omitempty" json:"cond,omitempty"`
	Post string      `yaml:"post,omitempty" json:"post,omitempty"`
	Body []Statement `yaml:"body" json:"body"`
}
