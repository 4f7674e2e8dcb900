package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/typetower/pkg/errors"
	"github.com/matzehuels/typetower/pkg/pipeline"
	"github.com/matzehuels/typetower/pkg/provider/gotypes"
)

// extractOpts holds the command-line flags for the extract command.
type extractOpts struct {
	output        string // output file path (stdout if empty)
	replace       bool   // overwrite an existing output file
	scope         string // qualified-name prefix restricting extraction
	includeExtern bool   // expand entities outside the root package
	includeDocs   bool   // attach doc comments as notes
	maxDepth      int    // maximum package nesting depth
	format        string // output format: puml, dot, or svg
	name          string // diagram name override
}

// newExtractCmd creates the extract command.
//
// Defaults come from typetower.toml when present; flags that were set
// explicitly take precedence over the file.
func newExtractCmd() *cobra.Command {
	var opts extractOpts

	cmd := &cobra.Command{
		Use:   "extract <package>",
		Short: "Extract a class diagram from a Go package tree",
		Long: `Extract walks a Go package tree and emits a UML class diagram.

The argument is a package pattern as understood by the Go toolchain.

Examples:
  typetower extract ./...                        # Whole module to stdout
  typetower extract ./pkg/api -o api.puml        # Single package to a file
  typetower extract ./... --limit-fqn pkg.api    # Restrict to a name prefix
  typetower extract ./... -f svg -o types.svg    # Render through Graphviz`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			applyConfig(c, &opts)
			return runExtract(c.Context(), &opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "overwrite the output file if it exists")
	cmd.Flags().StringVar(&opts.scope, "limit-fqn", "", "restrict extraction to a qualified-name prefix")
	cmd.Flags().BoolVar(&opts.includeExtern, "include-extern", false, "expand types from outside the package tree")
	cmd.Flags().BoolVar(&opts.includeDocs, "include-docs", false, "attach doc comments as diagram notes")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", pipeline.DefaultMaxDepth, "maximum package nesting depth")
	cmd.Flags().StringVarP(&opts.format, "format", "f", pipeline.FormatPUML, "output format: puml, dot, or svg")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "diagram name (defaults to the root package)")

	return cmd
}

// applyConfig fills flag values from typetower.toml for flags the user did
// not set explicitly.
func applyConfig(cmd *cobra.Command, opts *extractOpts) {
	cfg, err := loadConfig(".")
	if err != nil {
		loggerFromContext(cmd.Context()).Warnf("Ignoring %s: %v", configFile, err)
		return
	}

	flags := cmd.Flags()
	if !flags.Changed("limit-fqn") && cfg.Extract.Scope != "" {
		opts.scope = cfg.Extract.Scope
	}
	if !flags.Changed("max-depth") && cfg.Extract.MaxDepth > 0 {
		opts.maxDepth = cfg.Extract.MaxDepth
	}
	if !flags.Changed("include-extern") {
		opts.includeExtern = opts.includeExtern || cfg.Extract.IncludeExternal
	}
	if !flags.Changed("include-docs") {
		opts.includeDocs = opts.includeDocs || cfg.Extract.IncludeDocs
	}
	if !flags.Changed("format") && cfg.Extract.Format != "" {
		opts.format = cfg.Extract.Format
	}
	if !flags.Changed("name") && cfg.Extract.Name != "" {
		opts.name = cfg.Extract.Name
	}
	if !flags.Changed("output") && cfg.Extract.Output != "" {
		opts.output = cfg.Extract.Output
	}
}

// runExtract executes the pipeline and writes the artifact.
func runExtract(ctx context.Context, opts *extractOpts, pattern string) error {
	logger := loggerFromContext(ctx)

	if err := checkOutput(opts.output, opts.replace); err != nil {
		return err
	}

	runner := pipeline.NewRunner(gotypes.NewProvider("."), logger)
	logger.Infof("Extracting %s", pattern)

	var sp *Spinner
	if opts.output != "" {
		sp = newSpinner(ctx, "Extracting types...")
		sp.Start()
	}

	prog := newProgress(logger)
	result, err := runner.Execute(ctx, pipeline.Options{
		Path:            pattern,
		Name:            opts.name,
		ScopePrefix:     opts.scope,
		MaxDepth:        opts.maxDepth,
		IncludeExternal: opts.includeExtern,
		IncludeDocs:     opts.includeDocs,
		Format:          opts.format,
		Logger:          logger,
	})
	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Extracted %d entities with %d relations",
		result.Stats.NodeCount, result.Stats.RelationCount))

	if err := writeArtifact(result.Artifact, opts.output); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess("Wrote %s diagram", opts.format)
		printFile(opts.output)
		printStats(result.Stats.NodeCount, result.Stats.RelationCount)
	}
	return nil
}

// checkOutput enforces the output overwrite policy: an existing file is
// only replaced when --replace is given.
func checkOutput(path string, replace bool) error {
	if path == "" || replace {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return errors.New(errors.ErrCodeOutputExists, "%s already exists (use --replace to overwrite)", path)
	}
	return nil
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// writeArtifact writes the rendered artifact to path or stdout.
func writeArtifact(artifact []byte, path string) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = out.Write(artifact)
	return err
}
