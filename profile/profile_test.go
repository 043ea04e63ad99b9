// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package profile

import "testing"

func TestDescriptorTier(t *testing.T) {
	tests := []struct {
		desc Descriptor
		want Tier
		name string
	}{
		{Descriptor{FamilyMobile, Level9_1}, Tier{Constrained: true, Modern: false}, "es2"},
		{Descriptor{FamilyMobile, Level9_3}, Tier{Constrained: true, Modern: false}, "es2"},
		{Descriptor{FamilyMobile, Level10_0}, Tier{Constrained: true, Modern: true}, "es3"},
		{Descriptor{FamilyMobile, Level11_2}, Tier{Constrained: true, Modern: true}, "es3"},
		{Descriptor{FamilyDesktop, Level9_1}, Tier{Constrained: false, Modern: false}, "desktop"},
		{Descriptor{FamilyDesktop, Level11_0}, Tier{Constrained: false, Modern: true}, "desktop"},
	}

	for _, tt := range tests {
		t.Run(tt.desc.String(), func(t *testing.T) {
			got := tt.desc.Tier()
			if got != tt.want {
				t.Errorf("Tier() = %+v, want %+v", got, tt.want)
			}
			if got.String() != tt.name {
				t.Errorf("Tier().String() = %q, want %q", got.String(), tt.name)
			}
		})
	}
}

func TestTierWithModern(t *testing.T) {
	legacy := Descriptor{FamilyMobile, Level9_2}.Tier()
	if !legacy.Legacy() {
		t.Fatal("9_2 mobile should be legacy")
	}
	forced := legacy.WithModern()
	if forced.Legacy() || !forced.Constrained {
		t.Errorf("WithModern() = %+v", forced)
	}
	if !legacy.Legacy() {
		t.Error("WithModern mutated the receiver")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"9_1", Level9_1},
		{"10.0", Level10_0},
		{"Level_11_1", Level11_1},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseLevel("12_0"); err == nil {
		t.Error("ParseLevel(12_0) should fail")
	}
}

func TestParseFamily(t *testing.T) {
	for _, name := range []string{"mobile", "GLES", "webgl"} {
		if f, err := ParseFamily(name); err != nil || f != FamilyMobile {
			t.Errorf("ParseFamily(%q) = %v, %v", name, f, err)
		}
	}
	if f, err := ParseFamily("desktop"); err != nil || f != FamilyDesktop {
		t.Errorf("ParseFamily(desktop) = %v, %v", f, err)
	}
	if _, err := ParseFamily("console"); err == nil {
		t.Error("ParseFamily(console) should fail")
	}
}
