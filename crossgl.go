// Package crossgl cross-compiles converted shader programs to GLSL and
// packages the result as a content-addressed artifact.
//
// A compile request names a stage, an entry point and a capability
// descriptor. The pipeline gates the stage, converts the source through an
// external Converter, rewrites storage qualifiers and uniform block layouts
// for the target dialect, writes the preamble and body, optionally runs an
// external optimizer and packages one or two variants:
//
//	desktop           one GLSL 4.10 variant, raw text
//	mobile, modern    one GLSL ES 3.00 variant in a dual record
//	mobile, legacy    GLSL ES 1.00 plus a forced ES 3.00 variant, dual record
//
// Example usage:
//
//	compiler := crossgl.New(convert.NewInterchange(nil), crossgl.DefaultOptions())
//	result := compiler.Compile(crossgl.Request{
//	    Source:     document,
//	    EntryPoint: "psMain",
//	    Stage:      ast.StagePixel,
//	    Capability: profile.Descriptor{Family: profile.FamilyMobile, Level: profile.Level9_3},
//	})
//	if err := result.Err(); err != nil {
//	    log.Fatal(err)
//	}
//	cache.Put(result.Artifact, "sprite.yaml")
package crossgl

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/crossgl/artifact"
	"github.com/gogpu/crossgl/ast"
	"github.com/gogpu/crossgl/diag"
	"github.com/gogpu/crossgl/glsl"
	"github.com/gogpu/crossgl/optimize"
	"github.com/gogpu/crossgl/profile"
)

// Converter turns source text into a target-dialect program. It is the
// upstream source-dialect front end and must be safe for concurrent use.
//
// A returned diag.List is merged into the request diagnostics as is; any
// other error is recorded as a single ConversionFailed entry carrying the
// error text verbatim.
type Converter interface {
	Convert(source, entryPoint string, stage ast.Stage, filename string) (*ast.Program, error)
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(source, entryPoint string, stage ast.Stage, filename string) (*ast.Program, error)

// Convert calls f.
func (f ConverterFunc) Convert(source, entryPoint string, stage ast.Stage, filename string) (*ast.Program, error) {
	return f(source, entryPoint, stage, filename)
}

// Request is one compile request. It is read, never modified.
type Request struct {
	// Source is handed to the Converter unchanged.
	Source string

	// EntryPoint names the entry function. Empty is the null entry
	// point: for a mobile pixel stage it means no pixel shader is
	// wanted and a trivial empty program is emitted.
	EntryPoint string

	Stage      ast.Stage
	Capability profile.Descriptor

	// RenderTargets is the number of pixel stage outputs. Values below
	// 1 are treated as 1.
	RenderTargets int

	// Filename is used in diagnostics only.
	Filename string
}

// Variant is one emitted program.
type Variant struct {
	Stage ast.Stage
	Tier  profile.Tier

	// Source is the final text: optimized when Optimized is set,
	// otherwise the preamble and body as written.
	Source string

	Optimized bool
}

// Result is the outcome of a compile. Artifact is set if and only if
// Diagnostics carries no error.
type Result struct {
	Artifact    *artifact.Artifact
	Variants    []Variant
	Diagnostics diag.List
}

// Err returns the diagnostics as an error when they contain an error.
func (r Result) Err() error {
	if r.Diagnostics.HasErrors() {
		return r.Diagnostics
	}
	return nil
}

// Options configures a Compiler.
type Options struct {
	// Logger receives debug traces. Nil discards.
	Logger *slog.Logger

	// Optimizer runs every emitted variant through an external optimizer.
	// Nil disables optimization. Compilers sharing an engine must share
	// one Bridge, or bridges built with one locker.
	Optimizer *optimize.Bridge

	// UniformBlocks requests the uniform block extension on GLSL ES 3.00.
	UniformBlocks bool

	// StrictRenderTargets makes a multi-render-target request on the
	// legacy mobile tier an error instead of a warning.
	StrictRenderTargets bool
}

// DefaultOptions returns options with uniform blocks enabled and no
// optimizer.
func DefaultOptions() Options {
	return Options{
		UniformBlocks: true,
	}
}

// Compiler runs compile requests. It holds no per-request state and is
// safe for concurrent use.
type Compiler struct {
	converter Converter
	opts      Options
	logger    *slog.Logger
}

// New returns a Compiler using converter.
func New(converter Converter, opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Compiler{
		converter: converter,
		opts:      opts,
		logger:    logger,
	}
}

// Compile runs the pipeline for req. It never panics on bad input; every
// failure is reported through Result.Diagnostics.
func (c *Compiler) Compile(req Request) Result {
	var result Result
	tier := req.Capability.Tier()

	if !checkStage(req, tier, c.opts.StrictRenderTargets, &result.Diagnostics) {
		return result
	}

	plan := PlanFor(tier)
	slots := artifact.Variants{}
	for _, step := range plan.Steps {
		v, ok := c.variant(req, step.Tier, &result.Diagnostics)
		if !ok {
			result.Variants = nil
			return result
		}
		result.Variants = append(result.Variants, v)

		switch step.Slot {
		case SlotLegacy:
			slots.HasLegacy, slots.Legacy = true, v.Source
		case SlotModern:
			slots.HasModern, slots.Modern = true, v.Source
		}
	}

	a, err := plan.pack(result.Variants, slots, req.Stage)
	if err != nil {
		result.Variants = nil
		result.Diagnostics.Errorf(diag.EmissionFailed, req.Filename, "packaging: %v", err)
		return result
	}
	result.Artifact = a

	c.logger.Debug("compiled shader",
		"filename", req.Filename,
		"stage", req.Stage.String(),
		"capability", req.Capability.String(),
		"variants", len(result.Variants),
		"layout", a.Layout.String(),
		"artifact", artifact.FormatRef(a.ID),
	)
	return result
}

// variant converts, rewrites, writes and optimizes one variant.
func (c *Compiler) variant(req Request, tier profile.Tier, diags *diag.List) (Variant, bool) {
	v := Variant{Stage: req.Stage, Tier: tier}

	if req.Stage == ast.StagePixel && req.EntryPoint == "" && tier.Constrained {
		v.Source = glsl.EmptyFragmentShader
		return v, true
	}

	program, err := c.converter.Convert(req.Source, req.EntryPoint, req.Stage, req.Filename)
	if err != nil {
		recordConversionError(req.Filename, err, diags)
		return v, false
	}
	if program == nil {
		diags.Errorf(diag.ConversionFailed, req.Filename, "converter returned no program")
		return v, false
	}

	glsl.RewriteQualifiers(program, req.Stage, tier)
	glsl.AnnotateLayout(program)

	text, info, err := glsl.Compile(program, glsl.Options{
		Tier:          tier,
		Stage:         req.Stage,
		RenderTargets: req.RenderTargets,
		UniformBlocks: c.opts.UniformBlocks,
	})
	if err != nil {
		diags.Errorf(diag.EmissionFailed, req.Filename, "%s: %v", tier, err)
		return v, false
	}
	if len(info.FlattenedBlocks) > 0 {
		c.logger.Debug("flattened uniform blocks",
			"filename", req.Filename,
			"tier", tier.String(),
			"blocks", info.FlattenedBlocks,
		)
	}
	v.Source = text

	if c.opts.Optimizer == nil {
		return v, true
	}
	optimized, err := c.opts.Optimizer.Optimize(text, optimize.Target{
		Constrained: tier.Constrained,
		Modern:      tier.Modern,
		Vertex:      req.Stage == ast.StageVertex,
	})
	if err != nil {
		diags.Infof(diag.OptimizationSkipped, req.Filename, "%s %s variant kept unoptimized: %v", tier, req.Stage, err)
		return v, true
	}
	v.Source = optimized
	v.Optimized = true
	return v, true
}

func recordConversionError(filename string, err error, diags *diag.List) {
	var list diag.List
	if errors.As(err, &list) && list.HasErrors() {
		diags.Merge(list)
		return
	}
	diags.Errorf(diag.ConversionFailed, filename, "%s", err.Error())
}

// checkStage records stage gate diagnostics and reports whether the
// pipeline may continue.
func checkStage(req Request, tier profile.Tier, strictRenderTargets bool, diags *diag.List) bool {
	switch req.Stage {
	case ast.StageVertex, ast.StagePixel:
	case ast.StageGeometry, ast.StageHull, ast.StageDomain, ast.StageCompute:
		diags.Errorf(diag.UnsupportedStage, req.Filename, "%s stage cannot be cross-compiled to GLSL", req.Stage)
	default:
		diags.Errorf(diag.UnsupportedStage, req.Filename, "unknown stage %s", req.Stage)
	}

	if tier.Legacy() && req.RenderTargets > 1 {
		const format = "%d render targets requested but %s supports one"
		if strictRenderTargets {
			diags.Errorf(diag.MultiRenderTargetUnsupported, req.Filename, format, req.RenderTargets, req.Capability)
		} else {
			diags.Warnf(diag.MultiRenderTargetUnsupported, req.Filename, format, req.RenderTargets, req.Capability)
		}
	}

	return !diags.HasErrors()
}

// Slot is the artifact position a planned variant fills.
type Slot uint8

const (
	// SlotSingle is the only variant of a raw text artifact.
	SlotSingle Slot = iota
	// SlotLegacy is the GLSL ES 1.00 slot of a dual record.
	SlotLegacy
	// SlotModern is the GLSL ES 3.00 slot of a dual record.
	SlotModern
)

func (s Slot) String() string {
	switch s {
	case SlotSingle:
		return "single"
	case SlotLegacy:
		return "legacy"
	case SlotModern:
		return "modern"
	default:
		return fmt.Sprintf("slot(%d)", uint8(s))
	}
}

// Step is one planned variant.
type Step struct {
	Tier profile.Tier
	Slot Slot
}

// Plan lists the variants to produce, in order, and how they are packaged.
type Plan struct {
	Steps  []Step
	Layout artifact.Layout
}

// PlanFor returns the variant plan for tier:
//
//	desktop         one variant, single layout
//	mobile modern   modern slot only, legacy slot absent
//	mobile legacy   legacy slot first, then a forced modern pass
func PlanFor(tier profile.Tier) Plan {
	switch {
	case !tier.Constrained:
		return Plan{
			Steps:  []Step{{Tier: tier, Slot: SlotSingle}},
			Layout: artifact.LayoutSingle,
		}
	case tier.Modern:
		return Plan{
			Steps:  []Step{{Tier: tier, Slot: SlotModern}},
			Layout: artifact.LayoutDual,
		}
	default:
		return Plan{
			Steps: []Step{
				{Tier: tier, Slot: SlotLegacy},
				{Tier: tier.WithModern(), Slot: SlotModern},
			},
			Layout: artifact.LayoutDual,
		}
	}
}

func (p Plan) pack(variants []Variant, slots artifact.Variants, stage ast.Stage) (*artifact.Artifact, error) {
	if p.Layout == artifact.LayoutSingle {
		if len(variants) != 1 {
			return nil, fmt.Errorf("single layout needs one variant, have %d", len(variants))
		}
		return artifact.Single(variants[0].Source, stage), nil
	}
	return artifact.Dual(slots, stage)
}
