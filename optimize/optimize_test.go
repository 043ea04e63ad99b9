// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package optimize

import (
	"errors"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeEngine records handle lifecycles and detects overlapping calls.
type fakeEngine struct {
	fail      bool
	ctxErr    error
	transform func(string) string
	delay     time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	contexts    atomic.Int32
	closedCtx   atomic.Int32
	shaders     atomic.Int32
	closedSh    atomic.Int32

	mu     sync.Mutex
	inputs []string
}

func (e *fakeEngine) NewContext(lang Language) (Context, error) {
	if e.ctxErr != nil {
		return nil, e.ctxErr
	}
	n := e.inFlight.Add(1)
	for {
		prev := e.maxInFlight.Load()
		if n <= prev || e.maxInFlight.CompareAndSwap(prev, n) {
			break
		}
	}
	e.contexts.Add(1)
	return &fakeContext{engine: e}, nil
}

type fakeContext struct {
	engine *fakeEngine
}

func (c *fakeContext) Optimize(kind ShaderKind, source string) (Shader, error) {
	e := c.engine
	e.mu.Lock()
	e.inputs = append(e.inputs, source)
	e.mu.Unlock()
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	e.shaders.Add(1)
	out := source
	if e.transform != nil {
		out = e.transform(source)
	}
	return &fakeShader{engine: e, ok: !e.fail, out: out}, nil
}

func (c *fakeContext) Close() {
	c.engine.closedCtx.Add(1)
	c.engine.inFlight.Add(-1)
}

type fakeShader struct {
	engine *fakeEngine
	ok     bool
	out    string
}

func (s *fakeShader) Status() bool   { return s.ok }
func (s *fakeShader) Output() string { return s.out }
func (s *fakeShader) Log() string    { return "0:1: syntax error" }
func (s *fakeShader) Close()         { s.engine.closedSh.Add(1) }

const desktopSource = "#version 410\n\nvoid main() {\n}\n"

// =============================================================================
// Bridge Tests
// =============================================================================

func TestBridge_Success(t *testing.T) {
	engine := &fakeEngine{transform: func(s string) string { return strings.ToUpper(s) }}
	bridge := NewBridge(engine)

	out, err := bridge.Optimize(desktopSource, Target{Constrained: false, Modern: true})
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if out != strings.ToUpper(desktopSource) {
		t.Errorf("Optimize() = %q", out)
	}
	if engine.contexts.Load() != 1 || engine.closedCtx.Load() != 1 {
		t.Errorf("contexts created/closed = %d/%d", engine.contexts.Load(), engine.closedCtx.Load())
	}
	if engine.shaders.Load() != 1 || engine.closedSh.Load() != 1 {
		t.Errorf("shaders created/closed = %d/%d", engine.shaders.Load(), engine.closedSh.Load())
	}
}

func TestBridge_FailureKeepsSourceAndTearsDown(t *testing.T) {
	engine := &fakeEngine{fail: true, transform: func(string) string { return "garbage" }}
	bridge := NewBridge(engine)

	out, err := bridge.Optimize(desktopSource, Target{})
	if out != desktopSource {
		t.Errorf("Optimize() = %q, want original text", out)
	}
	var passErr *PassError
	if !errors.As(err, &passErr) {
		t.Fatalf("expected PassError, got %v", err)
	}
	if !strings.Contains(passErr.Error(), "syntax error") {
		t.Errorf("PassError should carry the engine log: %v", passErr)
	}
	if engine.closedCtx.Load() != 1 || engine.closedSh.Load() != 1 {
		t.Errorf("handles not released: ctx=%d shader=%d", engine.closedCtx.Load(), engine.closedSh.Load())
	}
}

func TestBridge_ContextFailure(t *testing.T) {
	engine := &fakeEngine{ctxErr: errors.New("no device")}
	bridge := NewBridge(engine)
	out, err := bridge.Optimize(desktopSource, Target{})
	if err == nil || !strings.Contains(err.Error(), "no device") {
		t.Fatalf("expected context error, got %v", err)
	}
	if out != desktopSource {
		t.Errorf("Optimize() = %q, want original text", out)
	}
}

func TestBridge_EmptyOutputIsFailure(t *testing.T) {
	engine := &fakeEngine{transform: func(string) string { return "  \n" }}
	out, err := NewBridge(engine).Optimize(desktopSource, Target{})
	if err == nil {
		t.Fatal("expected error for empty output")
	}
	if out != desktopSource {
		t.Errorf("Optimize() = %q, want original text", out)
	}
}

func TestBridge_Unavailable(t *testing.T) {
	out, err := NewBridge(nil).Optimize(desktopSource, Target{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if out != desktopSource {
		t.Errorf("Optimize() = %q", out)
	}

	var nilBridge *Bridge
	if nilBridge.Available() {
		t.Error("nil bridge reports available")
	}
}

func TestBridge_ShimsOnlyForConstrainedVertex(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		shims  bool
	}{
		{"es2 vertex", Target{Constrained: true, Modern: false, Vertex: true}, true},
		{"es3 vertex", Target{Constrained: true, Modern: true, Vertex: true}, true},
		{"es2 fragment", Target{Constrained: true, Modern: false, Vertex: false}, false},
		{"desktop vertex", Target{Constrained: false, Modern: true, Vertex: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{}
			if _, err := NewBridge(engine).Optimize("void main() {\n}\n", tt.target); err != nil {
				t.Fatalf("Optimize failed: %v", err)
			}
			got := strings.Contains(engine.inputs[0], "#define gl_Vertex _glesVertex")
			if got != tt.shims {
				t.Errorf("shims present = %v, want %v; input:\n%s", got, tt.shims, engine.inputs[0])
			}
		})
	}
}

func TestBridge_SerializesCalls(t *testing.T) {
	engine := &fakeEngine{delay: 2 * time.Millisecond}
	bridge := NewBridge(engine)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := bridge.Optimize(desktopSource, Target{}); err != nil {
				t.Errorf("Optimize failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := engine.maxInFlight.Load(); got != 1 {
		t.Errorf("max concurrent engine contexts = %d, want 1", got)
	}
	if engine.contexts.Load() != 16 || engine.closedCtx.Load() != 16 {
		t.Errorf("contexts created/closed = %d/%d", engine.contexts.Load(), engine.closedCtx.Load())
	}
}

func TestBridge_SharedLocker(t *testing.T) {
	engine := &fakeEngine{delay: time.Millisecond}
	var mu sync.Mutex
	a := NewBridge(engine, WithLocker(&mu))
	b := NewBridge(engine, WithLocker(&mu))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _, _ = a.Optimize(desktopSource, Target{}) }()
		go func() { defer wg.Done(); _, _ = b.Optimize(desktopSource, Target{}) }()
	}
	wg.Wait()

	if got := engine.maxInFlight.Load(); got != 1 {
		t.Errorf("bridges sharing a locker overlapped: max in flight %d", got)
	}
}

// =============================================================================
// Shim Tests
// =============================================================================

func TestShims(t *testing.T) {
	legacy := Shims(false)
	for _, want := range []string{
		"#define gl_Vertex _glesVertex\nattribute highp vec4 _glesVertex;\n",
		"#define gl_Normal _glesNormal\nattribute mediump vec3 _glesNormal;\n",
		"#define gl_MultiTexCoord0 _glesMultiTexCoord0\n",
		"#define gl_MultiTexCoord1 _glesMultiTexCoord1\n",
		"#define gl_Color _glesColor\nattribute lowp vec4 _glesColor;\n",
	} {
		if !strings.Contains(legacy, want) {
			t.Errorf("legacy shims missing %q", want)
		}
	}
	if !strings.Contains(Shims(true), "in highp vec4 _glesVertex;") {
		t.Error("modern shims should declare attributes with in")
	}
}

func TestInjectShims(t *testing.T) {
	tests := []struct {
		name   string
		source string
		prefix string
	}{
		{"no directive", "void main() {}\n", ""},
		{"version", "#version 300 es\nvoid main() {}\n", "#version 300 es\n"},
		{"version and extension", "#version 300 es\n#extension GL_ARB_uniform_buffer_object : enable\n\nvoid main() {}\n",
			"#version 300 es\n#extension GL_ARB_uniform_buffer_object : enable\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InjectShims(tt.source, true)
			want := tt.prefix + Shims(true) + tt.source[len(tt.prefix):]
			if got != want {
				t.Errorf("InjectShims() =\n%s\nwant\n%s", got, want)
			}
		})
	}
}

// =============================================================================
// ExecEngine Tests
// =============================================================================

func TestExecEngine(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	// "sh -c cat ..." echoes stdin; the trailing engine arguments become
	// positional parameters the script ignores.
	out, err := NewBridge(NewExecEngine("sh", "-c", "cat")).Optimize(desktopSource, Target{})
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if out != desktopSource {
		t.Errorf("Optimize() = %q", out)
	}

	failing := NewExecEngine("sh", "-c", "echo 'ERROR: 0:3: bad' >&2; exit 2")
	out, err = NewBridge(failing).Optimize(desktopSource, Target{})
	var passErr *PassError
	if !errors.As(err, &passErr) || !strings.Contains(passErr.Log, "0:3: bad") {
		t.Fatalf("expected PassError with log, got %v", err)
	}
	if out != desktopSource {
		t.Errorf("failed pass returned %q", out)
	}
}

func TestExecEngine_MissingBinary(t *testing.T) {
	_, err := NewBridge(NewExecEngine("crossgl-no-such-optimizer")).Optimize(desktopSource, Target{})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestTargetMapping(t *testing.T) {
	tests := []struct {
		target Target
		lang   Language
		kind   ShaderKind
	}{
		{Target{Constrained: true, Modern: false, Vertex: true}, LanguageES2, KindVertex},
		{Target{Constrained: true, Modern: true, Vertex: false}, LanguageES3, KindFragment},
		{Target{Constrained: false, Modern: false, Vertex: true}, LanguageDesktop, KindVertex},
	}
	for _, tt := range tests {
		if got := tt.target.Language(); got != tt.lang {
			t.Errorf("%+v Language() = %v, want %v", tt.target, got, tt.lang)
		}
		if got := tt.target.Kind(); got != tt.kind {
			t.Errorf("%+v Kind() = %v, want %v", tt.target, got, tt.kind)
		}
	}
}
