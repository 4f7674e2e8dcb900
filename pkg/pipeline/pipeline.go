// Package pipeline provides the core extraction pipeline for Typetower.
//
// This package implements the complete resolve → extract → render pipeline
// that can be used by CLI and server components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Resolve: Load the root module through a reflection provider
//  2. Extract: Walk the module into a populated graph space
//  3. Render: Generate output in various formats (PUML, DOT, SVG)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(provider, logger)
//	opts := pipeline.Options{
//	    Path:   "./...",
//	    Format: pipeline.FormatPUML,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	puml := result.Artifact
package pipeline

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/typetower/pkg/extract"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultMaxDepth is the maximum module recursion depth for the
	// pipeline. It mirrors the extractor default so CLI and server agree.
	DefaultMaxDepth = extract.DefaultMaxDepth

	// DefaultName is the diagram name used when the caller provides none.
	DefaultName = "diagram"
)

// Format constants for output formats.
const (
	FormatPUML = "puml"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPUML: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the extraction pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Extract options
	Path            string `json:"path"`
	Name            string `json:"name,omitempty"`
	ScopePrefix     string `json:"scope_prefix,omitempty"`
	MaxDepth        int    `json:"max_depth,omitempty"`
	IncludeExternal bool   `json:"include_external,omitempty"`
	IncludeDocs     bool   `json:"include_docs,omitempty"`

	// Render options
	Format string `json:"format,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: puml, dot, svg)", format)
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Path == "" {
		return fmt.Errorf("path is required")
	}
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Format == "" {
		o.Format = FormatPUML
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}
