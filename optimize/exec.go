// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package optimize

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
)

// ExecEngine runs an external optimizer binary once per pass. The binary
// reads GLSL on stdin and writes the optimized text to stdout; it is invoked
// as
//
//	<Bin> <Args...> --target <es2|es3|desktop> --stage <vertex|fragment> -
//
// A non-zero exit status marks the pass as failed and stderr becomes the
// pass log.
type ExecEngine struct {
	Bin  string
	Args []string
}

// NewExecEngine returns an engine for the given binary.
func NewExecEngine(bin string, args ...string) *ExecEngine {
	return &ExecEngine{Bin: bin, Args: args}
}

// NewContext implements Engine.
func (e *ExecEngine) NewContext(lang Language) (Context, error) {
	if e.Bin == "" {
		return nil, fmt.Errorf("optimizer binary not set")
	}
	path, err := exec.LookPath(e.Bin)
	if err != nil {
		return nil, fmt.Errorf("locating optimizer: %w", err)
	}
	return &execContext{path: path, args: e.Args, lang: lang}, nil
}

type execContext struct {
	path string
	args []string
	lang Language
}

func (c *execContext) Optimize(kind ShaderKind, source string) (Shader, error) {
	args := append([]string(nil), c.args...)
	args = append(args, "--target", c.lang.String(), "--stage", kind.String(), "-")

	cmd := exec.Command(c.path, args...)
	cmd.Stdin = bytes.NewBufferString(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("failed to run %v: %w", cmd.Args, err)
	}
	return &execShader{
		ok:  err == nil,
		out: stdout.String(),
		log: stderr.String(),
	}, nil
}

func (c *execContext) Close() {}

type execShader struct {
	ok  bool
	out string
	log string
}

func (s *execShader) Status() bool   { return s.ok }
func (s *execShader) Output() string { return s.out }
func (s *execShader) Log() string    { return s.log }
func (s *execShader) Close()         {}
