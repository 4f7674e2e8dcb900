package uml

import (
	"fmt"
	"strings"
)

// Render formats the graph space as UML diagram text.
//
// Placeholder nodes are discarded first, relations are synthesized and then
// filtered down to edges whose endpoints both survive, and every surviving
// node is formatted with its kind-specific block template. Reference
// resolution during line formatting never fails: a hint that cannot be
// resolved locally falls back to its qualified name.
func Render(s *Space) (string, error) {
	survivors := s.Survivors()

	rels, err := Synthesize(s)
	if err != nil {
		return "", err
	}

	alive := make(map[string]bool, len(survivors))
	for _, n := range survivors {
		alive[n.QualifiedName()] = true
	}
	kept := rels[:0]
	for _, r := range rels {
		if alive[r.Source] && alive[r.Target] {
			kept = append(kept, r)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@startuml %s\n", s.Name())
	for _, n := range survivors {
		b.WriteString(renderBlock(n))
		b.WriteByte('\n')
	}
	if s.IncludeDocs() {
		renderNotes(&b, survivors)
	}
	for _, r := range kept {
		fmt.Fprintf(&b, "%s %s %s\n", r.Source, r.Kind.Symbol(), r.Target)
	}
	b.WriteString("@enduml\n")
	return b.String(), nil
}

// renderBlock formats one node with its kind-specific template.
func renderBlock(n Node) string {
	switch node := n.(type) {
	case *ClassNode:
		return classBlock(node)
	case *CallableNode:
		return callableBlock(node)
	case *GenericNode:
		return genericBlock(node)
	default:
		return fmt.Sprintf("Class %s {\n}", n.QualifiedName())
	}
}

func classBlock(c *ClassNode) string {
	keyword := "Class"
	if c.Interface {
		keyword = "Interface"
	}

	var lines []string
	for _, vis := range visibilityOrder {
		for _, m := range c.Attributes[vis] {
			lines = append(lines, "\t"+memberLine(m))
		}
	}
	for _, vis := range visibilityOrder {
		for _, m := range c.Methods[vis] {
			lines = append(lines, "\t"+memberLine(m))
		}
	}
	return fmt.Sprintf("%s %s {\n%s\n}", keyword, c.QualifiedName(), strings.Join(lines, "\n"))
}

func callableBlock(c *CallableNode) string {
	var lines []string
	for _, p := range c.Params {
		lines = append(lines, "\t"+paramLine(p))
	}
	if c.Return != nil {
		lines = append(lines, "\t"+paramLine(*c.Return))
	}
	return fmt.Sprintf("Class %s <<Method>> {\n%s\n}", c.QualifiedName(), strings.Join(lines, "\n"))
}

func genericBlock(g *GenericNode) string {
	var lines []string
	for _, a := range g.Args {
		lines = append(lines, "\t"+hintShort(a.Hint))
	}
	return fmt.Sprintf("Class %s <<%s>> {\n%s\n}", g.QualifiedName(), shortName(g.QualifiedName()), strings.Join(lines, "\n"))
}

// renderNotes attaches docstring notes to their nodes via link edges.
// Aliases are positional (N1, N2, ...) so output stays deterministic.
func renderNotes(b *strings.Builder, nodes []Node) {
	i := 0
	for _, n := range nodes {
		doc := strings.TrimSpace(n.Docstring())
		if doc == "" {
			continue
		}
		i++
		alias := fmt.Sprintf("N%d", i)
		fmt.Fprintf(b, "note %q as %s\n", flattenDoc(doc), alias)
		fmt.Fprintf(b, "%s %s %s\n", alias, Link.Symbol(), n.QualifiedName())
	}
}

// flattenDoc collapses a docstring onto one line for a quoted note.
func flattenDoc(doc string) string {
	fields := strings.Fields(doc)
	return strings.Join(fields, " ")
}

// memberLine renders a class member: visibility symbol plus the param form.
func memberLine(m Member) string {
	return m.Visibility.Symbol() + " " + paramLine(Param{Name: m.Name, Hint: m.Hint})
}

// paramLine renders a named hint in short form: "hint: name". Callables
// invert the shape into a signature line, "name(params): return".
func paramLine(p Param) string {
	if target, ok := resolveHint(p.Hint); ok {
		if c, isCallable := target.(*CallableNode); isCallable {
			return callableSignature(p.Name, c)
		}
	}
	return hintShort(p.Hint) + ": " + p.Name
}

// callableSignature renders "name(a: HintA, b: HintB): Ret".
func callableSignature(name string, c *CallableNode) string {
	parts := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		parts = append(parts, p.Name+": "+hintShort(p.Hint))
	}
	ret := shortName(NoneName)
	if c.Return != nil {
		ret = hintShort(c.Return.Hint)
	}
	return fmt.Sprintf("%s(%s): %s", name, strings.Join(parts, ", "), ret)
}

// hintShort renders a hint's own short form. Unresolvable references fall
// back to the full qualified name; the target is simply not known locally.
func hintShort(h Hint) string {
	target, ok := resolveHint(h)
	if !ok {
		return h.QualifiedName()
	}
	switch node := target.(type) {
	case *GenericNode:
		if len(node.Args) == 0 {
			return shortName(node.QualifiedName())
		}
		args := make([]string, 0, len(node.Args))
		for _, a := range node.Args {
			args = append(args, hintShort(a.Hint))
		}
		return fmt.Sprintf("%s[%s]", shortName(node.QualifiedName()), strings.Join(args, ", "))
	case *CallableNode:
		return callableSignature(shortName(node.QualifiedName()), node)
	default:
		return shortName(target.QualifiedName())
	}
}
