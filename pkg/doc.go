// Package pkg provides the core libraries for Typetower class-diagram extraction.
//
// # Overview
//
// Typetower turns a Go package tree into a UML class diagram: types become
// classes, embedding becomes inheritance, and field or signature references
// become dependency edges. The pkg directory is organized into five main
// areas:
//
//  1. [uml] - Diagram model (kinds, nodes, graph space, relations, rendering)
//  2. [extract] - Recursive bounded extraction over a reflection provider
//  3. [provider] - Reflection providers (go/types based, in-memory fixtures)
//  4. [pipeline] - Orchestration (resolve → extract → render)
//  5. [errors], [observability], [buildinfo] - Cross-cutting support
//
// # Architecture
//
// The typical data flow through Typetower:
//
//	Go package pattern (./...)
//	         ↓
//	    [provider/gotypes] package (load and classify type information)
//	         ↓
//	    [extract] package (bounded recursive walk into a graph space)
//	         ↓
//	    [uml] package (relation synthesis + rendering)
//	         ↓
//	    PUML/DOT/SVG output
//
// # Quick Start
//
// Extract a diagram and render it as PlantUML text:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/typetower/pkg/pipeline"
//	    "github.com/matzehuels/typetower/pkg/provider/gotypes"
//	)
//
//	runner := pipeline.NewRunner(gotypes.NewProvider("."), nil)
//	result, _ := runner.Execute(context.Background(), pipeline.Options{
//	    Path:   "./...",
//	    Format: pipeline.FormatPUML,
//	})
//	fmt.Println(string(result.Artifact))
//
// # Main Packages
//
// [uml] - The diagram model. A Space is a registry of extracted entities
// keyed by qualified name, with two-phase registration so cyclic type graphs
// resolve cleanly. Synthesize derives relations (inheritance, implementation,
// dependency) from node structure, and Render/ToDOT emit diagram text.
//
// [extract] - The extraction engine. An Extractor walks modules recursively
// through a Provider, bounded by depth and scope, absorbing locally missing
// references and collapsing external entities into placeholders.
//
// [provider/gotypes] - The production provider, built on go/packages and
// go/types. Maps Go's type system onto the diagram model: embedded fields
// become bases, methods become bound callables, containers become generics.
//
// [provider/memory] - A fixture provider for tests: declare modules, classes,
// and callables as literals and extract them without touching the filesystem.
//
// [pipeline] - Ties providers, extraction, and rendering together behind a
// single Runner used by both the extract and serve commands.
package pkg
