package pipeline_test

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/typetower/pkg/pipeline"
	"github.com/matzehuels/typetower/pkg/provider/memory"
)

// fixtureProvider builds a small module with a class, a subclass, and a free
// function.
func fixtureProvider() *memory.Provider {
	a := &memory.Class{Name: "pkg.A", Doc: "Base type.", Attributes: []memory.Named{
		{Name: "count", Entity: &memory.Class{Name: "builtins.int"}},
	}}
	b := &memory.Class{Name: "pkg.B", Bases: []any{a}}
	fn := &memory.Callable{Name: "pkg.make", Params: []memory.Named{{Name: "a", Entity: a}}, Return: b}

	return memory.NewProvider().AddModule(&memory.Module{
		Name: "pkg",
		Members: []memory.Named{
			{Name: "A", Entity: a},
			{Name: "B", Entity: b},
			{Name: "make", Entity: fn},
		},
	})
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    pipeline.Options
		wantErr bool
	}{
		{"missing path", pipeline.Options{}, true},
		{"defaults applied", pipeline.Options{Path: "pkg"}, false},
		{"bad format", pipeline.Options{Path: "pkg", Format: "png"}, true},
		{"explicit format", pipeline.Options{Path: "pkg", Format: pipeline.FormatDOT}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAndSetDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.opts.MaxDepth != pipeline.DefaultMaxDepth && tt.opts.MaxDepth == 0 {
				t.Error("MaxDepth default not applied")
			}
		})
	}
}

func TestExecutePUML(t *testing.T) {
	runner := pipeline.NewRunner(fixtureProvider(), nil)

	result, err := runner.Execute(context.Background(), pipeline.Options{Path: "pkg"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	out := string(result.Artifact)
	for _, want := range []string{
		"@startuml pkg\n",
		"Class pkg.A {",
		"Class pkg.B {",
		"Class pkg.make <<Method>> {",
		"pkg.B --|> pkg.A\n",
		"@enduml\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("artifact missing %q:\n%s", want, out)
		}
	}
	if result.Stats.NodeCount == 0 || result.Stats.RelationCount == 0 {
		t.Errorf("stats not populated: %+v", result.Stats)
	}
}

func TestExecuteDOT(t *testing.T) {
	runner := pipeline.NewRunner(fixtureProvider(), nil)

	result, err := runner.Execute(context.Background(), pipeline.Options{
		Path:   "pkg",
		Format: pipeline.FormatDOT,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(string(result.Artifact), "digraph G {") {
		t.Errorf("expected DOT artifact, got:\n%s", result.Artifact)
	}
}

func TestExecuteUnknownPath(t *testing.T) {
	runner := pipeline.NewRunner(fixtureProvider(), nil)

	_, err := runner.Execute(context.Background(), pipeline.Options{Path: "missing"})
	if err == nil {
		t.Fatal("expected error for unknown root path")
	}
}

func TestExtractHonorsDocsOption(t *testing.T) {
	runner := pipeline.NewRunner(fixtureProvider(), nil)

	result, err := runner.Execute(context.Background(), pipeline.Options{
		Path:        "pkg",
		IncludeDocs: true,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(string(result.Artifact), `note "Base type." as N1`) {
		t.Errorf("artifact missing docstring note:\n%s", result.Artifact)
	}
}

func TestExtractNamesSpaceAfterDomain(t *testing.T) {
	runner := pipeline.NewRunner(fixtureProvider(), nil)

	space, err := runner.Extract(context.Background(), pipeline.Options{Path: "pkg"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := space.Name(); got != "pkg" {
		t.Errorf("space name = %q, want %q", got, "pkg")
	}
}
