// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

import (
	"fmt"
	"strings"
)

// Stage is a pipeline stage as named by the source dialect.
type Stage uint8

const (
	StageVertex Stage = iota
	StagePixel
	StageGeometry
	StageHull
	StageDomain
	StageCompute
)

// String returns the lower-case stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	case StageGeometry:
		return "geometry"
	case StageHull:
		return "hull"
	case StageDomain:
		return "domain"
	case StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// ParseStage parses a stage name. "fragment" is accepted as an alias for
// "pixel", "tessellation-control" for "hull" and "tessellation-evaluation"
// for "domain".
func ParseStage(name string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vertex", "vs":
		return StageVertex, nil
	case "pixel", "fragment", "ps", "fs":
		return StagePixel, nil
	case "geometry", "gs":
		return StageGeometry, nil
	case "hull", "tessellation-control", "hs":
		return StageHull, nil
	case "domain", "tessellation-evaluation", "ds":
		return StageDomain, nil
	case "compute", "cs":
		return StageCompute, nil
	default:
		return 0, fmt.Errorf("unknown shader stage %q", name)
	}
}
