package uml

import (
	"strings"
	"testing"
)

func TestRenderSingleClass(t *testing.T) {
	s := NewSpace("test", SpaceOptions{})
	intRef, err := s.AddNode(NewClass(ClassSpec{QualifiedName: "builtins.int", Domain: "builtins", Placeholder: true}))
	if err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	addClass(t, s, ClassSpec{
		QualifiedName: "pkg.A",
		Domain:        "pkg",
		Attributes:    []Member{NewMember("x", intRef)},
	})

	got, err := Render(s)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "@startuml test\n" +
		"Class pkg.A {\n" +
		"\t+ int: x\n" +
		"}\n" +
		"@enduml\n"
	if got != want {
		t.Errorf("Render() =\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderInheritanceArrow(t *testing.T) {
	s := NewSpace("test", SpaceOptions{})
	base := addClass(t, s, ClassSpec{QualifiedName: "pkg.A", Domain: "pkg"})
	addClass(t, s, ClassSpec{QualifiedName: "pkg.B", Domain: "pkg", Bases: []Hint{base}})

	got, err := Render(s)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(got, "pkg.B --|> pkg.A\n") {
		t.Errorf("output missing inheritance arrow:\n%s", got)
	}
}

func TestRenderInterfaceBlock(t *testing.T) {
	s := NewSpace("test", SpaceOptions{})
	addClass(t, s, ClassSpec{QualifiedName: "pkg.Reader", Domain: "pkg", Interface: true})

	got, err := Render(s)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(got, "Interface pkg.Reader {") {
		t.Errorf("output missing interface block:\n%s", got)
	}
}

func TestRenderExcludesPlaceholderEndpoints(t *testing.T) {
	s := NewSpace("test", SpaceOptions{})
	ext, err := s.AddNode(NewClass(ClassSpec{QualifiedName: "ext.Lib", Domain: "ext", Placeholder: true}))
	if err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	addClass(t, s, ClassSpec{
		QualifiedName: "pkg.A",
		Domain:        "pkg",
		Attributes:    []Member{NewMember("lib", ext)},
	})

	got, err := Render(s)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(got, "ext.Lib") {
		t.Errorf("placeholder leaked into output:\n%s", got)
	}
}

func TestRenderCallableBlock(t *testing.T) {
	s := NewSpace("test", SpaceOptions{})
	a := addClass(t, s, ClassSpec{QualifiedName: "pkg.A", Domain: "pkg"})
	fn := NewCallable(CallableSpec{
		QualifiedName: "pkg.make",
		Domain:        "pkg",
		Params:        []Param{{Name: "a", Hint: a}},
		Return:        &Param{Name: "return", Hint: NewNone()},
	})
	if _, err := s.AddNode(fn); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}

	got, err := Render(s)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	wantBlock := "Class pkg.make <<Method>> {\n" +
		"\tA: a\n" +
		"\tNone: return\n" +
		"}\n"
	if !strings.Contains(got, wantBlock) {
		t.Errorf("output missing callable block %q:\n%s", wantBlock, got)
	}
}

func TestRenderMethodSignatureLine(t *testing.T) {
	s := NewSpace("test", SpaceOptions{})
	arg := addClass(t, s, ClassSpec{QualifiedName: "pkg.Arg", Domain: "pkg"})
	method := NewCallable(CallableSpec{
		QualifiedName: "pkg.Owner::run",
		Domain:        "pkg",
		Bound:         true,
		Params:        []Param{{Name: "a", Hint: arg}},
		Return:        &Param{Name: "return", Hint: arg},
	})
	addClass(t, s, ClassSpec{
		QualifiedName: "pkg.Owner",
		Domain:        "pkg",
		Methods:       []Member{NewMember("run", method)},
	})

	got, err := Render(s)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(got, "\t+ run(a: Arg): Arg\n") {
		t.Errorf("output missing method signature line:\n%s", got)
	}
}

func TestRenderGenericBlock(t *testing.T) {
	s := NewSpace("test", SpaceOptions{})
	bound := addClass(t, s, ClassSpec{QualifiedName: "pkg.Bound", Domain: "pkg"})
	tv := NewGeneric(GenericSpec{
		QualifiedName: "pkg.T",
		Kind:          KindTypeVar,
		Domain:        "pkg",
		Args:          []Param{{Name: "arg0", Hint: bound}},
	})
	if _, err := s.AddNode(tv); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}

	got, err := Render(s)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	wantBlock := "Class pkg.T <<T>> {\n" +
		"\tBound\n" +
		"}\n"
	if !strings.Contains(got, wantBlock) {
		t.Errorf("output missing generic block %q:\n%s", wantBlock, got)
	}
}

func TestRenderDocstringNotes(t *testing.T) {
	s := NewSpace("test", SpaceOptions{IncludeDocs: true})
	addClass(t, s, ClassSpec{QualifiedName: "pkg.A", Domain: "pkg", Docstring: "Does\nthings."})
	addClass(t, s, ClassSpec{QualifiedName: "pkg.B", Domain: "pkg"})
	addClass(t, s, ClassSpec{QualifiedName: "pkg.C", Domain: "pkg", Docstring: "More."})

	got, err := Render(s)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{
		"note \"Does things.\" as N1\n",
		"N1 .. pkg.A\n",
		"note \"More.\" as N2\n",
		"N2 .. pkg.C\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderDocsOffByDefault(t *testing.T) {
	s := NewSpace("test", SpaceOptions{})
	addClass(t, s, ClassSpec{QualifiedName: "pkg.A", Domain: "pkg", Docstring: "Hidden."})

	got, err := Render(s)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(got, "note") {
		t.Errorf("docs rendered without IncludeDocs:\n%s", got)
	}
}

func TestRenderUnresolvedHintFallsBack(t *testing.T) {
	s := NewSpace("test", SpaceOptions{})
	dangling, err := s.Register("ext.Gone")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	addClass(t, s, ClassSpec{
		QualifiedName: "pkg.A",
		Domain:        "pkg",
		Attributes:    []Member{NewMember("g", dangling)},
	})

	got, err := Render(s)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(got, "\t+ ext.Gone: g\n") {
		t.Errorf("unresolved hint should fall back to its qualified name:\n%s", got)
	}
}

func TestToDOT(t *testing.T) {
	s := NewSpace("test", SpaceOptions{})
	base := addClass(t, s, ClassSpec{QualifiedName: "pkg.A", Domain: "pkg"})
	addClass(t, s, ClassSpec{QualifiedName: "pkg.B", Domain: "pkg", Bases: []Hint{base}})

	got, err := ToDOT(s)
	if err != nil {
		t.Fatalf("ToDOT() error = %v", err)
	}
	for _, want := range []string{
		"digraph G {",
		`"pkg.A" [`,
		`"pkg.B" [`,
		`"pkg.B" -> "pkg.A" [arrowhead=empty];`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("DOT output missing %q:\n%s", want, got)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="5.00 5.00 100.00 200.00">body</svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 200.00" width="100" height="200">body</svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}
}
