// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package profile describes runtime capability tiers.
//
// A Descriptor is what the caller's configuration supplies: a platform
// family and a minimum profile level. Tier reduces it to the two booleans
// that drive every dialect decision in crossgl.
package profile

import (
	"fmt"
	"strings"
)

// Family is the platform family.
type Family uint8

const (
	// FamilyDesktop targets desktop OpenGL.
	FamilyDesktop Family = iota
	// FamilyMobile targets OpenGL ES / WebGL.
	FamilyMobile
)

func (f Family) String() string {
	switch f {
	case FamilyDesktop:
		return "desktop"
	case FamilyMobile:
		return "mobile"
	default:
		return fmt.Sprintf("family(%d)", uint8(f))
	}
}

// ParseFamily parses a family name.
func ParseFamily(name string) (Family, error) {
	switch strings.ToLower(name) {
	case "desktop", "opengl", "gl":
		return FamilyDesktop, nil
	case "mobile", "opengles", "gles", "es", "webgl":
		return FamilyMobile, nil
	default:
		return 0, fmt.Errorf("unknown platform family %q", name)
	}
}

// Level is a minimum feature level, ordered from least to most capable.
type Level uint8

const (
	Level9_1 Level = iota
	Level9_2
	Level9_3
	Level10_0
	Level10_1
	Level11_0
	Level11_1
	Level11_2
)

// ModernLevel is the first level with modern features (GLSL ES 3.00 on
// mobile: uniform blocks, in/out interface, multiple render targets).
const ModernLevel = Level10_0

var levelNames = [...]string{
	Level9_1:  "9_1",
	Level9_2:  "9_2",
	Level9_3:  "9_3",
	Level10_0: "10_0",
	Level10_1: "10_1",
	Level11_0: "11_0",
	Level11_1: "11_1",
	Level11_2: "11_2",
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", uint8(l))
}

// ParseLevel parses "10_0", "10.0" or "level_10_0".
func ParseLevel(name string) (Level, error) {
	normalized := strings.ReplaceAll(strings.TrimPrefix(strings.ToLower(name), "level_"), ".", "_")
	for l, n := range levelNames {
		if n == normalized {
			return Level(l), nil //nolint:gosec // G115: index into a fixed table
		}
	}
	return 0, fmt.Errorf("unknown profile level %q", name)
}

// Descriptor is the capability descriptor supplied by the caller.
type Descriptor struct {
	Family Family
	Level  Level
}

// Tier is the capability bucket derived from a Descriptor.
type Tier struct {
	// Constrained is true for the mobile-class family.
	Constrained bool
	// Modern is true when the level meets ModernLevel.
	Modern bool
}

// Tier derives the capability tier.
func (d Descriptor) Tier() Tier {
	return Tier{
		Constrained: d.Family == FamilyMobile,
		Modern:      d.Level >= ModernLevel,
	}
}

func (d Descriptor) String() string {
	return d.Family.String() + "/" + d.Level.String()
}

// Legacy reports whether the tier is the constrained dialect without
// modern features (GLSL ES 1.00).
func (t Tier) Legacy() bool {
	return t.Constrained && !t.Modern
}

// WithModern returns a copy of t with modern features forced on.
func (t Tier) WithModern() Tier {
	t.Modern = true
	return t
}

func (t Tier) String() string {
	switch {
	case !t.Constrained:
		return "desktop"
	case t.Modern:
		return "es3"
	default:
		return "es2"
	}
}
