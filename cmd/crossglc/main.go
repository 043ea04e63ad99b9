// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command crossglc cross-compiles interchange documents to GLSL artifacts.
//
// Usage:
//
//	crossglc [flags] <program.yaml>...
//	crossglc --inspect <artifact|id|sidecar.cbor>...
//
// Examples:
//
//	crossglc sprite.yaml                                 # Every entry point, desktop
//	crossglc --family mobile --profile 9_3 sprite.yaml   # Dual ES 1.00 / ES 3.00 artifacts
//	crossglc --stage pixel --entry psMain -o ps.bin sprite.yaml
//	crossglc --cache ~/.cache/crossgl -j 8 shaders/*.yaml
//	crossglc --inspect --highlight ps.bin
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/crossgl"
	"github.com/gogpu/crossgl/artifact"
	"github.com/gogpu/crossgl/ast"
	"github.com/gogpu/crossgl/codec"
	"github.com/gogpu/crossgl/config"
	"github.com/gogpu/crossgl/convert"
	"github.com/gogpu/crossgl/optimize"
	"github.com/gogpu/crossgl/profile"
)

const crossglcVersion = "0.1.0-dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, exit.message)
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// exitError ends the process with code. The details were already printed.
type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string { return e.message }

// flags holds the parsed command line.
type flags struct {
	stage         string
	entry         string
	family        string
	profile       string
	renderTargets int
	configPath    string
	output        string
	cacheDir      string
	inspect       bool
	highlight     bool
	jobs          int
	logLevel      string
	version       bool
}

func newFlagSet(f *flags) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("crossglc", pflag.ContinueOnError)
	flagSet.StringVarP(&f.stage, "stage", "s", "", "stage to compile: vertex or pixel (default: every declared entry point)")
	flagSet.StringVarP(&f.entry, "entry", "e", "", "entry point name (requires --stage; empty is the null entry point)")
	flagSet.StringVar(&f.family, "family", "", "target family: desktop or mobile (overrides config)")
	flagSet.StringVar(&f.profile, "profile", "", "minimum feature level, e.g. 9_3 or 10_0 (overrides config)")
	flagSet.IntVar(&f.renderTargets, "render-targets", 0, "pixel stage output count (overrides config)")
	flagSet.StringVarP(&f.configPath, "config", "c", "", "configuration file (default: $"+config.EnvVar+")")
	flagSet.StringVarP(&f.output, "output", "o", "", "artifact output file, or directory for several compiles (default: print variants)")
	flagSet.StringVar(&f.cacheDir, "cache", "", "artifact cache directory (overrides config)")
	flagSet.BoolVar(&f.inspect, "inspect", false, "decode and print artifacts instead of compiling")
	flagSet.BoolVar(&f.highlight, "highlight", false, "syntax-highlight printed GLSL")
	flagSet.IntVarP(&f.jobs, "jobs", "j", 4, "maximum parallel compiles")
	flagSet.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	flagSet.BoolVar(&f.version, "version", false, "print version")
	flagSet.BoolP("help", "h", false, "show help")
	return flagSet
}

func run(args []string, stdout, stderr io.Writer) error {
	var f flags
	flagSet := newFlagSet(&f)
	flagSet.SetOutput(stderr)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet, stderr)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet, stderr)
		return nil
	}
	if f.version {
		fmt.Fprintf(stdout, "crossglc version %s\n", crossglcVersion)
		return nil
	}

	inputs := flagSet.Args()
	if len(inputs) == 0 {
		printHelp(flagSet, stderr)
		return errors.New("no input file specified")
	}

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, &f, flagSet)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := newLogger(stderr, level)

	var store *artifact.Store
	if cfg.Cache.Dir != "" {
		compression, _ := cfg.Compression()
		store, err = artifact.NewStore(cfg.Cache.Dir, compression)
		if err != nil {
			return err
		}
	}

	out := newPrinter(stdout, stderr, f.highlight)
	if f.inspect {
		return inspect(inputs, store, out)
	}

	if f.jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", f.jobs)
	}
	if f.entry != "" && f.stage == "" {
		return errors.New("--entry requires --stage")
	}

	capability, _ := cfg.Descriptor()
	opts := crossgl.DefaultOptions()
	opts.Logger = logger
	opts.UniformBlocks = cfg.Policy.UniformBlocks
	opts.StrictRenderTargets = cfg.StrictRenderTargets()
	if cfg.Optimizer.Enabled {
		engine := optimize.NewExecEngine(cfg.Optimizer.Binary, cfg.Optimizer.Args...)
		opts.Optimizer = optimize.NewBridge(engine, optimize.WithLogger(logger))
	}

	jobs, err := planJobs(inputs, f.stage, f.entry)
	if err != nil {
		return err
	}

	b := &batch{
		compiler:      crossgl.New(convert.NewInterchange(logger), opts),
		capability:    capability,
		renderTargets: cfg.Target.RenderTargets,
		store:         store,
		logger:        logger,
	}
	if err := b.compile(context.Background(), jobs, f.jobs); err != nil {
		return err
	}
	return b.report(jobs, f.output, out)
}

func printHelp(flagSet *pflag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `crossglc cross-compiles interchange documents to GLSL artifacts.

Without --stage every entry point declared by a document is compiled.
Desktop targets produce one GLSL 4.10 variant stored as raw text. Mobile
targets produce a dual record holding a GLSL ES 1.00 variant (feature
level below 10_0 only) and a GLSL ES 3.00 variant.

Usage:
  crossglc [flags] <program.yaml>...
  crossglc --inspect <artifact|id|sidecar.cbor>...

Examples:
  # Compile every entry point for the configured target
  crossglc sprite.yaml

  # Legacy mobile target, pixel entry only, artifact to a file
  crossglc --family mobile --profile 9_3 --stage pixel --entry psMain -o ps.bin sprite.yaml

  # Populate a cache from many documents in parallel
  crossglc --cache ~/.cache/crossgl -j 8 shaders/*.yaml

  # Print the variants of a packaged artifact
  crossglc --inspect --highlight ps.bin

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}

// loadConfig reads the --config file, else the file named by
// CROSSGL_CONFIG, else the defaults.
func loadConfig(path string) (*config.Config, error) {
	switch {
	case path != "":
		return config.LoadFile(path)
	case os.Getenv(config.EnvVar) != "":
		return config.Load()
	default:
		return config.Default(), nil
	}
}

// applyFlags overrides configuration with flags given on the command line.
func applyFlags(cfg *config.Config, f *flags, flagSet *pflag.FlagSet) {
	if flagSet.Changed("family") {
		cfg.Target.Family = f.family
	}
	if flagSet.Changed("profile") {
		cfg.Target.Profile = f.profile
	}
	if flagSet.Changed("render-targets") {
		cfg.Target.RenderTargets = f.renderTargets
	}
	if flagSet.Changed("cache") {
		cfg.Cache.Dir = f.cacheDir
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
}

// job is one compile: a document, an entry point and a stage.
type job struct {
	path   string
	entry  string
	stage  ast.Stage
	result crossgl.Result
	record *artifact.Record
}

func (j *job) name() string {
	if j.entry == "" {
		return fmt.Sprintf("%s [%s]", j.path, j.stage)
	}
	return fmt.Sprintf("%s:%s [%s]", j.path, j.entry, j.stage)
}

// planJobs expands inputs into compile jobs. With an explicit stage each
// input is one job; otherwise each declared entry point is.
func planJobs(inputs []string, stageName, entry string) ([]*job, error) {
	var jobs []*job
	if stageName != "" {
		stage, err := ast.ParseStage(stageName)
		if err != nil {
			return nil, err
		}
		for _, path := range inputs {
			jobs = append(jobs, &job{path: path, entry: entry, stage: stage})
		}
		return jobs, nil
	}

	for _, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		doc, err := convert.Decode(data, path)
		if err != nil {
			return nil, err
		}
		if len(doc.EntryPoints) == 0 {
			return nil, fmt.Errorf("%s: no entry points declared; use --stage and --entry", path)
		}
		for _, ep := range doc.EntryPoints {
			stage, err := ast.ParseStage(ep.Stage)
			if err != nil {
				return nil, fmt.Errorf("%s: entry point %q: %w", path, ep.Name, err)
			}
			jobs = append(jobs, &job{path: path, entry: ep.Name, stage: stage})
		}
	}
	return jobs, nil
}

// batch compiles jobs against one capability descriptor.
type batch struct {
	compiler      *crossgl.Compiler
	capability    profile.Descriptor
	renderTargets int
	store         *artifact.Store
	logger        *slog.Logger
}

// compile runs jobs with at most limit in flight. Compile failures are
// recorded on the job; only I/O errors stop the batch.
func (b *batch) compile(ctx context.Context, jobs []*job, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			source, err := os.ReadFile(j.path)
			if err != nil {
				return err
			}
			j.result = b.compiler.Compile(crossgl.Request{
				Source:        string(source),
				EntryPoint:    j.entry,
				Stage:         j.stage,
				Capability:    b.capability,
				RenderTargets: b.renderTargets,
				Filename:      j.path,
			})
			if j.result.Artifact == nil || b.store == nil {
				return nil
			}
			j.record, err = b.store.Put(j.result.Artifact, j.path)
			if err != nil {
				return fmt.Errorf("caching %s: %w", j.name(), err)
			}
			b.logger.Info("cached artifact",
				"input", j.name(),
				"artifact", j.record.Ref,
				"size", j.record.Size,
				"stored_size", j.record.StoredSize,
				"compression", j.record.Compression,
			)
			return nil
		})
	}
	return g.Wait()
}

// report prints diagnostics in job order and writes or prints artifacts.
func (b *batch) report(jobs []*job, output string, out *printer) error {
	failed := 0
	for _, j := range jobs {
		out.diagnostics(j.result.Diagnostics)
		if j.result.Artifact == nil {
			failed++
			continue
		}
		if output == "" {
			for _, v := range j.result.Variants {
				out.variant(fmt.Sprintf("%s %s", j.name(), v.Tier), v.Source)
			}
			continue
		}
		path := output
		if len(jobs) > 1 {
			path = filepath.Join(output, artifactName(j))
		}
		if err := writeArtifact(path, j.result.Artifact); err != nil {
			return err
		}
		b.logger.Debug("wrote artifact", "input", j.name(), "path", path)
	}

	if failed > 0 {
		return &exitError{code: 1, message: fmt.Sprintf("%d of %d compiles failed", failed, len(jobs))}
	}
	return nil
}

// artifactName is the per-job file name inside an output directory.
func artifactName(j *job) string {
	base := strings.TrimSuffix(filepath.Base(j.path), filepath.Ext(j.path))
	if j.entry != "" {
		base += "." + j.entry
	}
	return base + "." + j.stage.String() + ".bin"
}

func writeArtifact(path string, a *artifact.Artifact) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, a.Data, 0o644)
}

// inspect prints the variants held by artifact files or cached IDs, and
// cache metadata sidecars (.cbor) in CBOR diagnostic notation.
func inspect(inputs []string, store *artifact.Store, out *printer) error {
	for _, input := range inputs {
		if strings.EqualFold(filepath.Ext(input), ".cbor") {
			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			text, err := codec.Diagnose(data)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			out.text(input, text)
			continue
		}

		a, err := loadArtifact(input, store)
		if err != nil {
			return err
		}
		v, err := a.Variants()
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		header := fmt.Sprintf("%s %s %s", input, artifact.FormatRef(a.ID), a.Layout)
		if v.HasLegacy {
			out.variant(header+" legacy", v.Legacy)
		}
		if v.HasModern {
			slot := " modern"
			if a.Layout == artifact.LayoutSingle {
				slot = ""
			}
			out.variant(header+slot, v.Modern)
		}
	}
	return nil
}

// loadArtifact resolves input as a cache ID when a store is configured and
// the input parses as one, otherwise as a file. A file that is not a valid
// dual record is taken as single raw text. Files do not record their stage.
func loadArtifact(input string, store *artifact.Store) (*artifact.Artifact, error) {
	if store != nil {
		if id, err := artifact.ParseID(input); err == nil {
			return store.Get(id)
		}
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, err
	}
	if _, err := artifact.UnpackDual(data); err == nil {
		return artifact.New(data, artifact.LayoutDual, ast.StageVertex), nil
	}
	return artifact.New(data, artifact.LayoutSingle, ast.StageVertex), nil
}
