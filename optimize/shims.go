// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package optimize

import "strings"

// builtinAttributes are the fixed-function vertex inputs the optimizer does
// not know under the constrained dialect. Each is remapped to a custom
// attribute with an explicit precision.
var builtinAttributes = []struct {
	builtin   string
	name      string
	precision string
	typ       string
}{
	{"gl_Vertex", "_glesVertex", "highp", "vec4"},
	{"gl_Normal", "_glesNormal", "mediump", "vec3"},
	{"gl_MultiTexCoord0", "_glesMultiTexCoord0", "highp", "vec4"},
	{"gl_MultiTexCoord1", "_glesMultiTexCoord1", "highp", "vec4"},
	{"gl_Color", "_glesColor", "lowp", "vec4"},
}

// Shims returns the built-in attribute remapping block. Modern targets
// declare the attributes with "in", legacy targets with "attribute".
func Shims(modern bool) string {
	storage := "attribute"
	if modern {
		storage = "in"
	}
	var sb strings.Builder
	for _, a := range builtinAttributes {
		sb.WriteString("#define " + a.builtin + " " + a.name + "\n")
		sb.WriteString(storage + " " + a.precision + " " + a.typ + " " + a.name + ";\n")
	}
	return sb.String()
}

// InjectShims places the shim block in front of the program body. Leading
// #version and #extension lines stay first, since the dialect requires them
// before any declaration.
func InjectShims(source string, modern bool) string {
	offset := 0
	for offset < len(source) {
		end := strings.IndexByte(source[offset:], '\n')
		line := source[offset:]
		if end >= 0 {
			line = source[offset : offset+end]
		}
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#version") && !strings.HasPrefix(trimmed, "#extension") {
			break
		}
		if end < 0 {
			offset = len(source)
			break
		}
		offset += end + 1
	}
	return source[:offset] + Shims(modern) + source[offset:]
}
