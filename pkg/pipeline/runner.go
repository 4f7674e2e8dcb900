package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/typetower/pkg/extract"
	"github.com/matzehuels/typetower/pkg/observability"
	"github.com/matzehuels/typetower/pkg/uml"
)

// Runner encapsulates pipeline execution over one reflection provider.
//
// The Runner is stateless except for the provider and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options as long as the provider allows it.
type Runner struct {
	Provider extract.Provider
	Logger   *log.Logger
}

// NewRunner creates a runner over the given provider.
// If logger is nil, the default logger is used.
func NewRunner(p extract.Provider, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Provider: p, Logger: logger}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Space is the populated graph space.
	Space *uml.Space

	// Relations are the synthesized edges.
	Relations []uml.Relation

	// Artifact is the rendered output in the requested format.
	Artifact []byte

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount     int
	RelationCount int
	ExtractTime   time.Duration
	RenderTime    time.Duration
}

// Execute runs the complete resolve → extract → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1+2: Resolve and extract
	extractStart := time.Now()
	space, err := r.Extract(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	result.Space = space
	result.Stats.ExtractTime = time.Since(extractStart)
	result.Stats.NodeCount = space.NodeCount()

	rels, err := uml.Synthesize(space)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	result.Relations = rels
	result.Stats.RelationCount = len(rels)

	opts.Logger.Info("extracted entities",
		"nodes", space.NodeCount(),
		"relations", len(rels),
		"duration", result.Stats.ExtractTime)

	// Stage 3: Render
	renderStart := time.Now()
	observability.Render().OnRenderStart(ctx, opts.Format, space.NodeCount())
	artifact, err := r.Render(space, opts)
	observability.Render().OnRenderComplete(ctx, opts.Format, len(artifact), time.Since(renderStart), err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifact = artifact
	result.Stats.RenderTime = time.Since(renderStart)

	opts.Logger.Info("rendered output",
		"format", opts.Format,
		"bytes", len(artifact),
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Extract resolves the root module and walks it into a fresh graph space.
func (r *Runner) Extract(ctx context.Context, opts Options) (*uml.Space, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	root, err := r.Provider.ResolveRoot(opts.Path)
	if err != nil {
		return nil, err
	}
	domain := r.Provider.QualifiedName(root)
	name := opts.Name
	if name == DefaultName && domain != "" {
		name = domain
	}

	space := uml.NewSpace(name, uml.SpaceOptions{
		ScopePrefix: opts.ScopePrefix,
		IncludeDocs: opts.IncludeDocs,
	})
	ex, err := extract.New(r.Provider, space, extract.Config{
		Domain:          domain,
		ScopePrefix:     opts.ScopePrefix,
		MaxModuleDepth:  opts.MaxDepth,
		IncludeExternal: opts.IncludeExternal,
	})
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("walking module", "domain", domain, "max_depth", opts.MaxDepth)
	if err := ex.InspectModule(ctx, root, 0); err != nil {
		return nil, err
	}
	return space, nil
}

// Render formats a populated space in the requested output format.
func (r *Runner) Render(space *uml.Space, opts Options) ([]byte, error) {
	if opts.Format == "" {
		opts.Format = FormatPUML
	}
	switch opts.Format {
	case FormatPUML:
		out, err := uml.Render(space)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	case FormatDOT:
		out, err := uml.ToDOT(space)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	case FormatSVG:
		dot, err := uml.ToDOT(space)
		if err != nil {
			return nil, err
		}
		return uml.RenderSVG(dot)
	default:
		return nil, ValidateFormat(opts.Format)
	}
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
