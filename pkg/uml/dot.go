package uml

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts a graph space to Graphviz DOT format as an alternative to
// the UML text output. Placeholder nodes are skipped, matching [Render].
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(s *Space) (string, error) {
	survivors := s.Survivors()

	rels, err := Synthesize(s)
	if err != nil {
		return "", err
	}

	alive := make(map[string]bool, len(survivors))
	for _, n := range survivors {
		alive[n.QualifiedName()] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range survivors {
		attrs := dotAttrs(n)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.QualifiedName(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, r := range rels {
		if !alive[r.Source] || !alive[r.Target] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", r.Source, r.Target, dotEdgeAttrs(r.Kind))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func dotAttrs(n Node) []string {
	attrs := []string{fmt.Sprintf("label=%q", dotLabel(n))}
	switch node := n.(type) {
	case *ClassNode:
		if node.Interface {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"")
		}
	case *CallableNode:
		attrs = append(attrs, "fillcolor=lightgrey")
	case *GenericNode:
		attrs = append(attrs, "shape=component")
	}
	return attrs
}

func dotLabel(n Node) string {
	name := n.QualifiedName()
	switch node := n.(type) {
	case *ClassNode:
		if node.Interface {
			return name + "\n<interface>"
		}
	case *CallableNode:
		return name + "\n<callable>"
	case *GenericNode:
		return name + "\n<generic>"
	}
	return name
}

func dotEdgeAttrs(k RelationKind) string {
	switch k {
	case Inheritance, Implementation:
		return "arrowhead=empty"
	case Aggregation:
		return "arrowtail=diamond, dir=both"
	case Composition:
		return "arrowtail=odiamond, dir=both"
	default:
		return "arrowhead=vee"
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root tag so the viewBox starts at the
// origin, which keeps downstream embedding (the serve endpoint) simple.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
