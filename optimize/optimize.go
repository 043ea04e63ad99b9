// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package optimize bridges emitted GLSL to an external optimization engine.
//
// Engines wrap native optimizers that keep global state and are not
// reentrant. A Bridge therefore holds one lock for the whole of every call:
// context creation, the optimize pass, status and output extraction, and
// teardown of the shader and context handles. Optimization never fails a
// compile; when the engine is missing or the pass fails, the caller keeps
// the text it passed in.
package optimize

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Language is the dialect an engine context is created for.
type Language uint8

const (
	LanguageES2 Language = iota
	LanguageES3
	LanguageDesktop
)

func (l Language) String() string {
	switch l {
	case LanguageES2:
		return "es2"
	case LanguageES3:
		return "es3"
	case LanguageDesktop:
		return "desktop"
	default:
		return fmt.Sprintf("language(%d)", uint8(l))
	}
}

// ShaderKind is the shader type handed to the engine.
type ShaderKind uint8

const (
	KindVertex ShaderKind = iota
	KindFragment
)

func (k ShaderKind) String() string {
	if k == KindVertex {
		return "vertex"
	}
	return "fragment"
}

// Target describes the variant being optimized.
type Target struct {
	Constrained bool
	Modern      bool
	Vertex      bool
}

// Language maps the target to an engine language.
func (t Target) Language() Language {
	switch {
	case !t.Constrained:
		return LanguageDesktop
	case t.Modern:
		return LanguageES3
	default:
		return LanguageES2
	}
}

// Kind maps the target to an engine shader kind.
func (t Target) Kind() ShaderKind {
	if t.Vertex {
		return KindVertex
	}
	return KindFragment
}

// Engine creates optimizer contexts. Implementations need not be safe for
// concurrent use; the Bridge serializes every call.
type Engine interface {
	NewContext(lang Language) (Context, error)
}

// Context is a live optimizer context.
type Context interface {
	// Optimize runs one pass. A non-nil Shader must be closed even when
	// an error is returned alongside it.
	Optimize(kind ShaderKind, source string) (Shader, error)
	Close()
}

// Shader is the per-call result handle.
type Shader interface {
	Status() bool
	Output() string
	Log() string
	Close()
}

// ErrUnavailable is returned when the bridge has no engine.
var ErrUnavailable = errors.New("optimize: no optimizer engine configured")

// PassError reports a failed optimizer pass.
type PassError struct {
	Language Language
	Kind     ShaderKind
	Log      string
}

func (e *PassError) Error() string {
	msg := fmt.Sprintf("optimize: %s %s pass failed", e.Language, e.Kind)
	if log := strings.TrimSpace(e.Log); log != "" {
		msg += ": " + log
	}
	return msg
}

// Bridge serializes access to one Engine.
type Bridge struct {
	engine Engine
	lock   sync.Locker
	logger *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLocker replaces the bridge's lock. Bridges sharing one engine must
// share one locker.
func WithLocker(l sync.Locker) Option {
	return func(b *Bridge) {
		b.lock = l
	}
}

// WithLogger sets the logger for pass failures.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// NewBridge returns a bridge over engine. A nil engine yields a bridge that
// always reports ErrUnavailable.
func NewBridge(engine Engine, opts ...Option) *Bridge {
	b := &Bridge{
		engine: engine,
		lock:   &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	return b
}

// Available reports whether an engine is configured.
func (b *Bridge) Available() bool {
	return b != nil && b.engine != nil
}

// Optimize runs the engine over source. On success it returns the optimized
// text. On any failure it returns source unchanged together with the reason.
func (b *Bridge) Optimize(source string, target Target) (string, error) {
	if !b.Available() {
		return source, ErrUnavailable
	}

	input := source
	if target.Constrained && target.Vertex {
		input = InjectShims(source, target.Modern)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	s := &session{}
	defer s.close()

	out, err := s.run(b.engine, target, input)
	if err != nil {
		b.logger.Debug("optimizer pass failed, keeping unoptimized text",
			"language", target.Language().String(),
			"kind", target.Kind().String(),
			"error", err,
		)
		return source, err
	}
	return out, nil
}

// session owns the native handles of one call and releases both on every
// exit path.
type session struct {
	ctx    Context
	shader Shader
}

func (s *session) run(engine Engine, target Target, input string) (string, error) {
	lang := target.Language()
	kind := target.Kind()

	ctx, err := engine.NewContext(lang)
	if err != nil {
		return "", fmt.Errorf("optimize: creating %s context: %w", lang, err)
	}
	s.ctx = ctx

	shader, err := ctx.Optimize(kind, input)
	s.shader = shader
	if err != nil {
		return "", fmt.Errorf("optimize: %s %s pass: %w", lang, kind, err)
	}
	if shader == nil {
		return "", &PassError{Language: lang, Kind: kind, Log: "engine returned no shader"}
	}
	if !shader.Status() {
		return "", &PassError{Language: lang, Kind: kind, Log: shader.Log()}
	}

	out := shader.Output()
	if strings.TrimSpace(out) == "" {
		return "", &PassError{Language: lang, Kind: kind, Log: "empty output"}
	}
	return out, nil
}

func (s *session) close() {
	if s.shader != nil {
		s.shader.Close()
		s.shader = nil
	}
	if s.ctx != nil {
		s.ctx.Close()
		s.ctx = nil
	}
}

// NoLock is a sync.Locker that does nothing. It is only safe with engines
// that are reentrant, such as test doubles.
type NoLock struct{}

func (NoLock) Lock()   {}
func (NoLock) Unlock() {}
