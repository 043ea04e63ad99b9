// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package artifact

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// ID is the 32-byte BLAKE3 keyed digest identifying a packaged buffer.
type ID [32]byte

// domainKey is the ASCII domain name zero-padded to 32 bytes. Changing it
// invalidates every cached artifact.
var domainKey = [32]byte{
	'c', 'r', 'o', 's', 's', 'g', 'l', '.', 'a', 'r', 't', 'i', 'f', 'a', 'c', 't',
}

// HashData computes the artifact identifier of a packaged buffer.
func HashData(data []byte) ID {
	hasher, err := blake3.NewKeyed(domainKey[:])
	if err != nil {
		panic("artifact: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = hasher.Write(data)
	var id ID
	copy(id[:], hasher.Sum(nil))
	return id
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

// String returns the hex encoding of id.
func (id ID) String() string {
	return FormatID(id)
}

// FormatID returns the 64-character hex form used in logs, metadata and
// cache file names.
func FormatID(id ID) string {
	return hex.EncodeToString(id[:])
}

// ParseID parses a 64-character hex string.
func ParseID(s string) (ID, error) {
	var id ID
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("artifact: parsing id: %w", err)
	}
	if len(decoded) != len(id) {
		return id, fmt.Errorf("artifact: id is %d bytes, want %d", len(decoded), len(id))
	}
	copy(id[:], decoded)
	return id, nil
}

// FormatRef returns the short reference for id: "shd-" followed by the
// first 12 hex characters.
func FormatRef(id ID) string {
	return "shd-" + hex.EncodeToString(id[:6])
}
