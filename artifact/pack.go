// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package artifact

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// Layout identifies how an artifact buffer is organized.
type Layout uint8

const (
	// LayoutSingle is one variant stored as single-byte text.
	LayoutSingle Layout = iota
	// LayoutDual is the tagged legacy/modern record.
	LayoutDual
)

func (l Layout) String() string {
	switch l {
	case LayoutSingle:
		return "single"
	case LayoutDual:
		return "dual"
	default:
		return fmt.Sprintf("layout(%d)", uint8(l))
	}
}

// ParseLayout parses a layout name.
func ParseLayout(name string) (Layout, error) {
	switch name {
	case "single":
		return LayoutSingle, nil
	case "dual":
		return LayoutDual, nil
	default:
		return 0, fmt.Errorf("unknown artifact layout %q", name)
	}
}

// Variants holds the two slots of a dual record. An absent slot has its
// Has flag cleared; a present slot may still hold empty text.
type Variants struct {
	HasLegacy bool
	Legacy    string
	HasModern bool
	Modern    string
}

// Count returns the number of present variants.
func (v Variants) Count() int {
	n := 0
	if v.HasLegacy {
		n++
	}
	if v.HasModern {
		n++
	}
	return n
}

// ErrMalformed is returned by UnpackDual for buffers that do not follow
// the dual layout.
var ErrMalformed = errors.New("artifact: malformed dual record")

// PackSingle encodes text one byte per character. Characters outside
// 7-bit ASCII, and invalid UTF-8 bytes, become '?'.
func PackSingle(text string) []byte {
	return encodeASCII(nil, text)
}

// PackDual serializes v as
//
//	[hasLegacy:1][hasModern:1] then, for each present slot in legacy,
//	modern order, [len:4 little-endian][bytes]
//
// Slot text is encoded as by PackSingle.
func PackDual(v Variants) ([]byte, error) {
	size := 2
	if v.HasLegacy {
		size += 4 + len(v.Legacy)
	}
	if v.HasModern {
		size += 4 + len(v.Modern)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, flag(v.HasLegacy), flag(v.HasModern))

	var err error
	if v.HasLegacy {
		if buf, err = appendSlot(buf, v.Legacy); err != nil {
			return nil, fmt.Errorf("artifact: legacy variant: %w", err)
		}
	}
	if v.HasModern {
		if buf, err = appendSlot(buf, v.Modern); err != nil {
			return nil, fmt.Errorf("artifact: modern variant: %w", err)
		}
	}
	return buf, nil
}

// UnpackDual decodes a buffer produced by PackDual. The whole buffer must
// be consumed.
func UnpackDual(data []byte) (Variants, error) {
	var v Variants
	if len(data) < 2 {
		return v, fmt.Errorf("%w: %d-byte header", ErrMalformed, len(data))
	}
	var err error
	if v.HasLegacy, err = readFlag(data[0]); err != nil {
		return Variants{}, err
	}
	if v.HasModern, err = readFlag(data[1]); err != nil {
		return Variants{}, err
	}

	rest := data[2:]
	if v.HasLegacy {
		if v.Legacy, rest, err = readSlot(rest); err != nil {
			return Variants{}, fmt.Errorf("%w: legacy slot: %w", ErrMalformed, err)
		}
	}
	if v.HasModern {
		if v.Modern, rest, err = readSlot(rest); err != nil {
			return Variants{}, fmt.Errorf("%w: modern slot: %w", ErrMalformed, err)
		}
	}
	if len(rest) != 0 {
		return Variants{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(rest))
	}
	return v, nil
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func readFlag(b byte) (bool, error) {
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: presence flag %#x", ErrMalformed, b)
	}
}

func appendSlot(buf []byte, text string) ([]byte, error) {
	encoded := encodeASCII(nil, text)
	if len(encoded) > math.MaxUint32 {
		return nil, fmt.Errorf("%d bytes exceeds the 32-bit length field", len(encoded))
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(encoded))) //nolint:gosec // G115: bounded above
	return append(buf, encoded...), nil
}

func readSlot(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", nil, fmt.Errorf("truncated length (%d bytes left)", len(data))
	}
	n := binary.LittleEndian.Uint32(data)
	data = data[4:]
	if uint64(n) > uint64(len(data)) {
		return "", nil, fmt.Errorf("length %d exceeds remaining %d bytes", n, len(data))
	}
	return string(data[:n]), data[n:], nil
}

// encodeASCII appends the single-byte encoding of s to dst.
func encodeASCII(dst []byte, s string) []byte {
	if dst == nil {
		dst = make([]byte, 0, len(s))
	}
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			dst = append(dst, c)
			i++
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		dst = append(dst, '?')
		i += size
	}
	return dst
}
