package extract_test

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/typetower/pkg/errors"
	"github.com/matzehuels/typetower/pkg/extract"
	"github.com/matzehuels/typetower/pkg/provider/memory"
	"github.com/matzehuels/typetower/pkg/uml"
)

// inspect builds an extractor over the fixture provider and walks the named
// root module into a fresh space.
func inspect(t *testing.T, p *memory.Provider, root string, cfg extract.Config) *uml.Space {
	t.Helper()
	space := uml.NewSpace(root, uml.SpaceOptions{ScopePrefix: cfg.ScopePrefix})
	ex, err := extract.New(p, space, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	module, err := p.ResolveRoot(root)
	if err != nil {
		t.Fatalf("ResolveRoot() error = %v", err)
	}
	if err := ex.InspectModule(context.Background(), module, 0); err != nil {
		t.Fatalf("InspectModule() error = %v", err)
	}
	return space
}

func TestMutualRecursion(t *testing.T) {
	a := &memory.Class{Name: "pkg.A"}
	b := &memory.Class{Name: "pkg.B", Attributes: []memory.Named{{Name: "a", Entity: a}}}
	a.Attributes = []memory.Named{{Name: "b", Entity: b}}

	p := memory.NewProvider().AddModule(&memory.Module{
		Name: "pkg",
		Members: []memory.Named{
			{Name: "A", Entity: a},
			{Name: "B", Entity: b},
		},
	})

	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg"})

	if got := space.NodeCount(); got != 2 {
		t.Fatalf("NodeCount() = %d, want 2", got)
	}
	for _, q := range []string{"pkg.A", "pkg.B"} {
		if !space.HasNode(q) {
			t.Errorf("HasNode(%s) = false, want true", q)
		}
	}

	rels, err := uml.Synthesize(space)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	want := map[uml.Relation]bool{
		{Source: "pkg.A", Target: "pkg.B", Kind: uml.Dependency}: true,
		{Source: "pkg.B", Target: "pkg.A", Kind: uml.Dependency}: true,
	}
	if len(rels) != len(want) {
		t.Fatalf("got %d relations %v, want %d", len(rels), rels, len(want))
	}
	for _, r := range rels {
		if !want[r] {
			t.Errorf("unexpected relation %+v", r)
		}
	}
}

func TestExternalReferenceStaysUnmaterialized(t *testing.T) {
	ext := &memory.Class{Name: "ext.X", Attributes: []memory.Named{
		{Name: "secret", Entity: &memory.Class{Name: "ext.Y"}},
	}}
	a := &memory.Class{Name: "pkg.A", Attributes: []memory.Named{{Name: "x", Entity: ext}}}

	p := memory.NewProvider().AddModule(&memory.Module{
		Name:    "pkg",
		Members: []memory.Named{{Name: "A", Entity: a}},
	})

	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg"})

	if !space.Contains("ext.X") {
		t.Error("referenced external class should be reserved")
	}
	if space.HasNode("ext.X") {
		t.Error("referenced external class must not be materialized")
	}
	if space.Contains("ext.Y") {
		t.Error("unexpanded reference must not be descended into")
	}
	if len(space.Survivors()) != 1 {
		t.Errorf("Survivors() = %d nodes, want only pkg.A", len(space.Survivors()))
	}
}

func TestExternalConstantBecomesPlaceholder(t *testing.T) {
	ext := &memory.Class{Name: "ext.Config", Attributes: []memory.Named{
		{Name: "secret", Entity: &memory.Class{Name: "ext.Y"}},
	}}
	p := memory.NewProvider().AddModule(&memory.Module{
		Name:   "pkg",
		Consts: []memory.Named{{Name: "DEFAULT", Entity: ext}},
	})

	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg"})

	node, err := space.Resolve("ext.Config")
	if err != nil {
		t.Fatalf("Resolve(ext.Config) error = %v", err)
	}
	if !node.Placeholder() {
		t.Error("directly visited external class should be a placeholder")
	}
	if space.Contains("ext.Y") {
		t.Error("placeholder structure must not be descended into")
	}
}

func TestIncludeExternReexportedMember(t *testing.T) {
	ext := &memory.Class{Name: "ext.X", Attributes: []memory.Named{
		{Name: "y", Entity: &memory.Class{Name: "ext.Y"}},
	}}
	mod := func() *memory.Module {
		return &memory.Module{
			Name:    "pkg",
			Members: []memory.Named{{Name: "X", Entity: ext}},
		}
	}

	t.Run("excluded by default", func(t *testing.T) {
		p := memory.NewProvider().AddModule(mod())
		space := inspect(t, p, "pkg", extract.Config{Domain: "pkg"})
		if space.Contains("ext.X") {
			t.Error("re-exported external member must be skipped without IncludeExternal")
		}
	})

	t.Run("extracted with IncludeExternal", func(t *testing.T) {
		p := memory.NewProvider().AddModule(mod())
		space := inspect(t, p, "pkg", extract.Config{Domain: "pkg", IncludeExternal: true})

		node, err := space.Resolve("ext.X")
		if err != nil {
			t.Fatalf("Resolve(ext.X) error = %v", err)
		}
		if node.Placeholder() {
			t.Error("re-exported external class should be fully extracted with IncludeExternal")
		}
		class := node.(*uml.ClassNode)
		if got := len(class.Attributes[uml.Public]); got != 1 {
			t.Errorf("got %d public attributes, want 1", got)
		}
		if !space.Contains("ext.Y") || space.HasNode("ext.Y") {
			t.Error("nested external reference should be reserved but not expanded")
		}
	})
}

func TestIncludeExternForeignSubmodule(t *testing.T) {
	extMod := &memory.Module{Name: "ext", Members: []memory.Named{
		{Name: "X", Entity: &memory.Class{Name: "ext.X"}},
	}}
	root := &memory.Module{Name: "pkg", Members: []memory.Named{
		{Name: "ext", Entity: extMod},
		{Name: "A", Entity: &memory.Class{Name: "pkg.A"}},
	}}

	p := memory.NewProvider().AddModule(root).AddModule(extMod)
	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg", IncludeExternal: true})
	if !space.HasNode("ext.X") {
		t.Error("foreign submodule should be walked with IncludeExternal")
	}

	p = memory.NewProvider().AddModule(root).AddModule(extMod)
	space = inspect(t, p, "pkg", extract.Config{Domain: "pkg"})
	if space.Contains("ext.X") {
		t.Error("foreign submodule must be skipped without IncludeExternal")
	}
}

func TestScopePrefixFiltersTopLevel(t *testing.T) {
	p := memory.NewProvider().AddModule(&memory.Module{
		Name: "pkg",
		Members: []memory.Named{
			{Name: "Keep", Entity: &memory.Class{Name: "pkg.Keep"}},
			{Name: "Drop", Entity: &memory.Class{Name: "pkg.Drop"}},
		},
	})

	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg", ScopePrefix: "pkg.Keep"})

	if !space.HasNode("pkg.Keep") {
		t.Error("in-scope class missing")
	}
	if space.Contains("pkg.Drop") {
		t.Error("out-of-scope class must not be extracted")
	}
}

func TestScopePrefixNestedReferenceNotExpanded(t *testing.T) {
	drop := &memory.Class{Name: "pkg.Drop"}
	keep := &memory.Class{Name: "pkg.Keep", Attributes: []memory.Named{
		{Name: "d", Entity: drop},
	}}
	p := memory.NewProvider().AddModule(&memory.Module{
		Name: "pkg",
		Members: []memory.Named{
			{Name: "Keep", Entity: keep},
			{Name: "Drop", Entity: drop},
		},
	})

	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg", ScopePrefix: "pkg.Keep"})

	if space.HasNode("pkg.Drop") {
		t.Error("out-of-scope class referenced from in-scope member must stay unmaterialized")
	}
	if !space.Contains("pkg.Drop") {
		t.Error("nested reference should still be reserved")
	}

	out, err := uml.Render(space)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(out, "Class pkg.Drop") {
		t.Errorf("out-of-scope class rendered as its own block:\n%s", out)
	}
	if strings.Contains(out, "pkg.Keep --> pkg.Drop") {
		t.Errorf("relation to an unmaterialized reference rendered:\n%s", out)
	}
}

func TestScopePrefixMustExtendDomain(t *testing.T) {
	space := uml.NewSpace("pkg", uml.SpaceOptions{})
	_, err := extract.New(memory.NewProvider(), space, extract.Config{
		Domain:      "pkg",
		ScopePrefix: "other.Thing",
	})
	if got := errors.GetCode(err); got != errors.ErrCodeConfiguration {
		t.Errorf("GetCode() = %q, want %q", got, errors.ErrCodeConfiguration)
	}
}

func TestEmptyDomainRejected(t *testing.T) {
	space := uml.NewSpace("pkg", uml.SpaceOptions{})
	_, err := extract.New(memory.NewProvider(), space, extract.Config{})
	if got := errors.GetCode(err); got != errors.ErrCodeConfiguration {
		t.Errorf("GetCode() = %q, want %q", got, errors.ErrCodeConfiguration)
	}
}

func TestMaxModuleDepth(t *testing.T) {
	deep := &memory.Module{Name: "pkg.sub.deep", Members: []memory.Named{
		{Name: "Deep", Entity: &memory.Class{Name: "pkg.sub.deep.Deep"}},
	}}
	sub := &memory.Module{Name: "pkg.sub", Members: []memory.Named{
		{Name: "Mid", Entity: &memory.Class{Name: "pkg.sub.Mid"}},
		{Name: "deep", Entity: deep},
	}}
	root := &memory.Module{Name: "pkg", Members: []memory.Named{
		{Name: "Top", Entity: &memory.Class{Name: "pkg.Top"}},
		{Name: "sub", Entity: sub},
	}}
	p := memory.NewProvider().AddModule(root).AddModule(sub).AddModule(deep)

	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg", MaxModuleDepth: 1})

	if !space.HasNode("pkg.Top") || !space.HasNode("pkg.sub.Mid") {
		t.Error("modules within the depth bound must be inspected")
	}
	if space.Contains("pkg.sub.deep.Deep") {
		t.Error("module past the depth bound must be left untouched")
	}
}

func TestBuiltinModuleSkipped(t *testing.T) {
	builtins := &memory.Module{Name: "builtins", Builtin: true, Members: []memory.Named{
		{Name: "int", Entity: &memory.Class{Name: "builtins.int"}},
	}}
	p := memory.NewProvider().AddModule(&memory.Module{
		Name: "pkg",
		Members: []memory.Named{
			{Name: "builtins", Entity: builtins},
			{Name: "A", Entity: &memory.Class{Name: "pkg.A"}},
		},
	})

	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg"})
	if space.Contains("builtins.int") {
		t.Error("builtin module members must not be extracted")
	}
}

func TestForwardReferenceResolves(t *testing.T) {
	target := &memory.Class{Name: "pkg.Target"}
	a := &memory.Class{Name: "pkg.A", Attributes: []memory.Named{
		{Name: "t", Entity: &memory.Forward{Target: "Target"}},
	}}
	p := memory.NewProvider().AddModule(&memory.Module{
		Name: "pkg",
		Members: []memory.Named{
			{Name: "A", Entity: a},
			{Name: "Target", Entity: target},
		},
	})

	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg"})

	rels, err := uml.Synthesize(space)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	want := uml.Relation{Source: "pkg.A", Target: "pkg.Target", Kind: uml.Dependency}
	found := false
	for _, r := range rels {
		if r == want {
			found = true
		}
	}
	if !found {
		t.Errorf("relations %v missing %+v", rels, want)
	}
}

func TestUnresolvedForwardIsAbsorbed(t *testing.T) {
	b := &memory.Class{Name: "pkg.B"}
	a := &memory.Class{Name: "pkg.A", Attributes: []memory.Named{
		{Name: "ghost", Entity: &memory.Forward{Target: "Ghost"}},
		{Name: "b", Entity: b},
	}}
	p := memory.NewProvider().AddModule(&memory.Module{
		Name: "pkg",
		Members: []memory.Named{
			{Name: "A", Entity: a},
			{Name: "B", Entity: b},
		},
	})

	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg"})

	node, err := space.Resolve("pkg.A")
	if err != nil {
		t.Fatalf("Resolve(pkg.A) error = %v", err)
	}
	class := node.(*uml.ClassNode)
	if got := len(class.Attributes[uml.Public]); got != 1 {
		t.Errorf("got %d public attributes, want 1 (unresolved member dropped)", got)
	}
	if !space.HasNode("pkg.B") {
		t.Error("sibling member must survive the dropped one")
	}
}

func TestModuleConstantsExtracted(t *testing.T) {
	cfgClass := &memory.Class{Name: "pkg.Config"}
	p := memory.NewProvider().AddModule(&memory.Module{
		Name:   "pkg",
		Consts: []memory.Named{{Name: "DEFAULT", Entity: cfgClass}},
	})

	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg"})
	if !space.HasNode("pkg.Config") {
		t.Error("typed module constant's type must be extracted")
	}
}

func TestFreeFunctionMaterialized(t *testing.T) {
	a := &memory.Class{Name: "pkg.A"}
	fn := &memory.Callable{
		Name:   "pkg.build",
		Params: []memory.Named{{Name: "a", Entity: a}},
		Return: a,
	}
	p := memory.NewProvider().AddModule(&memory.Module{
		Name: "pkg",
		Members: []memory.Named{
			{Name: "A", Entity: a},
			{Name: "build", Entity: fn},
		},
	})

	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg"})

	node, err := space.Resolve("pkg.build")
	if err != nil {
		t.Fatalf("Resolve(pkg.build) error = %v", err)
	}
	callable := node.(*uml.CallableNode)
	if callable.Bound {
		t.Error("free function must not be bound")
	}
	if len(callable.Params) != 1 || callable.Return == nil {
		t.Errorf("signature not extracted: %+v", callable)
	}
}

func TestBoundMethodNotRegistered(t *testing.T) {
	a := &memory.Class{Name: "pkg.A"}
	a.Methods = []memory.Named{{Name: "run", Entity: &memory.Callable{
		Name:  "pkg.A::run",
		Bound: true,
	}}}
	p := memory.NewProvider().AddModule(&memory.Module{
		Name:    "pkg",
		Members: []memory.Named{{Name: "A", Entity: a}},
	})

	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg"})

	if space.Contains("pkg.A::run") {
		t.Error("bound callables must not become independent space members")
	}
	node, _ := space.Resolve("pkg.A")
	class := node.(*uml.ClassNode)
	if got := len(class.Methods[uml.Public]); got != 1 {
		t.Errorf("got %d public methods, want 1", got)
	}
}

func TestUnionCollapsesAndPropagates(t *testing.T) {
	a := &memory.Class{Name: "pkg.A"}
	b := &memory.Class{Name: "pkg.B"}
	holder := &memory.Class{Name: "pkg.Holder", Attributes: []memory.Named{
		{Name: "either", Entity: &memory.Union{Variants: []any{a, b}}},
	}}
	p := memory.NewProvider().AddModule(&memory.Module{
		Name: "pkg",
		Members: []memory.Named{
			{Name: "A", Entity: a},
			{Name: "B", Entity: b},
			{Name: "Holder", Entity: holder},
		},
	})

	space := inspect(t, p, "pkg", extract.Config{Domain: "pkg"})

	rels, err := uml.Synthesize(space)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	want := map[uml.Relation]bool{
		{Source: "pkg.Holder", Target: "pkg.A", Kind: uml.Dependency}: true,
		{Source: "pkg.Holder", Target: "pkg.B", Kind: uml.Dependency}: true,
	}
	for _, r := range rels {
		delete(want, r)
	}
	if len(want) != 0 {
		t.Errorf("missing union variant relations: %v (got %v)", want, rels)
	}
}
