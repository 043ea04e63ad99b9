// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gogpu/crossgl/ast"
	"github.com/gogpu/crossgl/codec"
)

// Record is the CBOR metadata sidecar stored next to each cached body.
type Record struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Stage       string `json:"stage"`
	Layout      string `json:"layout"`
	Compression string `json:"compression"`
	Size        int    `json:"size"`
	StoredSize  int    `json:"stored_size"`
	Filename    string `json:"filename,omitempty"`
}

// Store is an on-disk content-addressed artifact cache:
//
//	<root>/<hex[:2]>/<hex>.bin   body, possibly compressed
//	<root>/<hex[:2]>/<hex>.cbor  Record
//
// Both files are written through a temporary file and renamed into place;
// the sidecar is renamed last, so an artifact is visible only once it is
// complete. Concurrent Puts of the same artifact write identical bytes.
type Store struct {
	root        string
	compression Compression
}

// NewStore opens or creates a store rooted at root.
func NewStore(root string, compression Compression) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact store %s: %w", root, err)
	}
	return &Store{root: root, compression: compression}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Has reports whether a complete artifact with id is stored.
func (s *Store) Has(id ID) bool {
	_, err := os.Stat(s.path(id, ".cbor"))
	return err == nil
}

// Put stores a. filename is recorded for diagnostics only.
func (s *Store) Put(a *Artifact, filename string) (*Record, error) {
	body, used, err := Compress(a.Data, s.compression)
	if err != nil {
		return nil, fmt.Errorf("artifact: compressing %s: %w", FormatRef(a.ID), err)
	}

	record := &Record{
		ID:          FormatID(a.ID),
		Ref:         FormatRef(a.ID),
		Stage:       a.Stage.String(),
		Layout:      a.Layout.String(),
		Compression: used.String(),
		Size:        len(a.Data),
		StoredSize:  len(body),
		Filename:    filename,
	}
	meta, err := codec.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("artifact: marshaling metadata: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path(a.ID, ".bin")), 0o755); err != nil {
		return nil, fmt.Errorf("artifact: creating shard directory: %w", err)
	}
	if err := s.writeFile(s.path(a.ID, ".bin"), body); err != nil {
		return nil, err
	}
	if err := s.writeFile(s.path(a.ID, ".cbor"), meta); err != nil {
		return nil, err
	}
	return record, nil
}

// Stat returns the metadata of a stored artifact. The error wraps
// fs.ErrNotExist when id is not stored.
func (s *Store) Stat(id ID) (*Record, error) {
	data, err := os.ReadFile(s.path(id, ".cbor"))
	if err != nil {
		return nil, fmt.Errorf("artifact: reading metadata for %s: %w", FormatRef(id), err)
	}
	var record Record
	if err := codec.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("artifact: decoding metadata for %s: %w", FormatRef(id), err)
	}
	return &record, nil
}

// Get loads, decompresses and verifies a stored artifact.
func (s *Store) Get(id ID) (*Artifact, error) {
	record, err := s.Stat(id)
	if err != nil {
		return nil, err
	}

	stage, err := ast.ParseStage(record.Stage)
	if err != nil {
		return nil, fmt.Errorf("artifact: metadata for %s: %w", record.Ref, err)
	}
	layout, err := ParseLayout(record.Layout)
	if err != nil {
		return nil, fmt.Errorf("artifact: metadata for %s: %w", record.Ref, err)
	}
	compression, err := ParseCompression(record.Compression)
	if err != nil {
		return nil, fmt.Errorf("artifact: metadata for %s: %w", record.Ref, err)
	}
	if record.Size < 0 || record.StoredSize < 0 {
		return nil, fmt.Errorf("artifact: metadata for %s: negative size", record.Ref)
	}

	body, err := os.ReadFile(s.path(id, ".bin"))
	if err != nil {
		return nil, fmt.Errorf("artifact: reading body of %s: %w", record.Ref, err)
	}
	data, err := Decompress(body, compression, record.Size)
	if err != nil {
		return nil, fmt.Errorf("artifact: body of %s: %w", record.Ref, err)
	}

	a := &Artifact{ID: id, Data: data, Stage: stage, Layout: layout}
	if err := a.Verify(); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes a stored artifact. Deleting a missing artifact is not an
// error.
func (s *Store) Delete(id ID) error {
	for _, ext := range []string{".cbor", ".bin"} {
		if err := os.Remove(s.path(id, ext)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("artifact: removing %s: %w", FormatRef(id), err)
		}
	}
	return nil
}

func (s *Store) path(id ID, ext string) string {
	hex := FormatID(id)
	return filepath.Join(s.root, hex[:2], hex+ext)
}

func (s *Store) writeFile(finalPath string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(finalPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("artifact: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("artifact: writing %s: %w", finalPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("artifact: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("artifact: renaming to %s: %w", finalPath, err)
	}
	success = true
	return nil
}
