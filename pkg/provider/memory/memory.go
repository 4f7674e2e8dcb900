// Package memory implements an in-memory extract.Provider backed by
// hand-built fixture entities. It exists for tests and for exercising the
// pipeline without loading real source, and it is the only provider that
// produces forward references.
package memory

import (
	"strings"

	"github.com/matzehuels/typetower/pkg/errors"
	"github.com/matzehuels/typetower/pkg/extract"
	"github.com/matzehuels/typetower/pkg/uml"
)

// Named binds an entity to its name inside a module or class.
type Named struct {
	Name   string
	Entity any
}

// Module is a fixture module. Consts are typed module constants (the entity
// is the constant's type hint); Members are the module's public bindings.
type Module struct {
	Name    string
	Doc     string
	Builtin bool
	Consts  []Named
	Members []Named
}

// Class is a fixture class.
type Class struct {
	Name       string
	Doc        string
	Interface  bool
	Bases      []any
	Attributes []Named
	Methods    []Named
}

// Callable is a fixture function or method. A nil Return means the no-value
// type.
type Callable struct {
	Name   string
	Doc    string
	Bound  bool
	Params []Named
	Return any
}

// Generic is a fixture parameterized type expression.
type Generic struct {
	Name    string
	Builtin bool
	Args    []any
}

// Union is a fixture anonymous union.
type Union struct {
	Variants []any
}

// TypeVar is a fixture type variable with optional constraints.
type TypeVar struct {
	Name        string
	Doc         string
	Constraints []any
}

// Forward is an unresolved reference to a bare name, resolved against the
// domain it is encountered in.
type Forward struct {
	Target string
}

// AnyType is the fixture "any type" sentinel.
type AnyType struct{}

// NoneType is the fixture no-value sentinel.
type NoneType struct{}

// Provider serves fixture modules registered up front.
type Provider struct {
	modules map[string]*Module
	index   map[string]any
}

// NewProvider builds an empty fixture provider.
func NewProvider() *Provider {
	return &Provider{
		modules: map[string]*Module{},
		index:   map[string]any{},
	}
}

// AddModule registers a module and indexes its addressable members for
// forward resolution.
func (p *Provider) AddModule(m *Module) *Provider {
	p.modules[m.Name] = m
	for _, named := range m.Members {
		p.index[p.QualifiedName(named.Entity)] = named.Entity
	}
	return p
}

// ResolveRoot returns the registered module for the given name.
func (p *Provider) ResolveRoot(path string) (extract.Entity, error) {
	m, ok := p.modules[path]
	if !ok {
		return nil, errors.New(errors.ErrCodeImportFailure, "no fixture module %q", path)
	}
	return m, nil
}

// Classify maps a fixture entity to its kind.
func (p *Provider) Classify(raw extract.Entity) (uml.Kind, error) {
	switch raw.(type) {
	case *Module:
		return uml.KindModule, nil
	case *Class:
		return uml.KindClass, nil
	case *Callable:
		return uml.KindCallable, nil
	case *Generic:
		return uml.KindNamedGeneric, nil
	case *Union:
		return uml.KindUnion, nil
	case *TypeVar:
		return uml.KindTypeVar, nil
	case *Forward:
		return uml.KindForward, nil
	case *NoneType:
		return uml.KindNone, nil
	case *AnyType:
		return uml.KindAny, nil
	default:
		return 0, errors.New(errors.ErrCodeUnsupportedKind, "no classification for %T", raw)
	}
}

// QualifiedName returns the fixture's stable dotted name.
func (p *Provider) QualifiedName(raw extract.Entity) string {
	switch v := raw.(type) {
	case *Module:
		return v.Name
	case *Class:
		return v.Name
	case *Callable:
		return v.Name
	case *Generic:
		return v.Name
	case *TypeVar:
		return v.Name
	case *Forward:
		return v.Target
	case *Union:
		return uml.UnionName
	case *NoneType:
		return uml.NoneName
	case *AnyType:
		return uml.AnyName
	default:
		return ""
	}
}

// DomainOf derives the owning module path from the qualified name.
func (p *Provider) DomainOf(raw extract.Entity) string {
	return domainOf(p.QualifiedName(raw))
}

// DocstringOf returns the fixture's documentation text.
func (p *Provider) DocstringOf(raw extract.Entity) string {
	switch v := raw.(type) {
	case *Module:
		return v.Doc
	case *Class:
		return v.Doc
	case *Callable:
		return v.Doc
	case *TypeVar:
		return v.Doc
	default:
		return ""
	}
}

// Members lists a module's public bindings.
func (p *Provider) Members(raw extract.Entity) ([]extract.NamedEntity, error) {
	m, ok := raw.(*Module)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedKind, "%T has no members", raw)
	}
	return toNamed(m.Members), nil
}

// AnnotatedMembersOf lists a module's typed constants or a class's typed
// attributes.
func (p *Provider) AnnotatedMembersOf(raw extract.Entity) ([]extract.NamedEntity, error) {
	switch v := raw.(type) {
	case *Module:
		return toNamed(v.Consts), nil
	case *Class:
		return toNamed(v.Attributes), nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedKind, "%T has no annotated members", raw)
	}
}

// MethodsOf lists a class's callables.
func (p *Provider) MethodsOf(raw extract.Entity) ([]extract.NamedEntity, error) {
	c, ok := raw.(*Class)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedKind, "%T has no methods", raw)
	}
	return toNamed(c.Methods), nil
}

// BasesOf lists a class's declared bases.
func (p *Provider) BasesOf(raw extract.Entity) ([]extract.Entity, error) {
	c, ok := raw.(*Class)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedKind, "%T has no bases", raw)
	}
	out := make([]extract.Entity, len(c.Bases))
	for i, b := range c.Bases {
		out[i] = b
	}
	return out, nil
}

// SignatureOf returns a callable's parameters and return entity.
func (p *Provider) SignatureOf(raw extract.Entity) ([]extract.NamedEntity, extract.Entity, error) {
	c, ok := raw.(*Callable)
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeUnsupportedKind, "%T has no signature", raw)
	}
	ret := c.Return
	if ret == nil {
		ret = &NoneType{}
	}
	return toNamed(c.Params), ret, nil
}

// ArgumentsOf returns generic arguments, union variants, or type variable
// constraints.
func (p *Provider) ArgumentsOf(raw extract.Entity) ([]extract.Entity, error) {
	var src []any
	switch v := raw.(type) {
	case *Generic:
		src = v.Args
	case *Union:
		src = v.Variants
	case *TypeVar:
		src = v.Constraints
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedKind, "%T has no type arguments", raw)
	}
	out := make([]extract.Entity, len(src))
	for i, a := range src {
		out[i] = a
	}
	return out, nil
}

// ResolveForward resolves a bare target name against the given domain,
// walking outward one module level at a time.
func (p *Provider) ResolveForward(raw extract.Entity, domain string) (extract.Entity, error) {
	f, ok := raw.(*Forward)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedKind, "%T is not a forward reference", raw)
	}
	for d := domain; d != ""; d = domainOf(d) {
		if e, ok := p.index[d+"."+f.Target]; ok {
			return e, nil
		}
	}
	if e, ok := p.index[f.Target]; ok {
		return e, nil
	}
	return nil, errors.New(errors.ErrCodeMissingReference, "forward reference %q does not resolve in %q", f.Target, domain)
}

// IsInterface reports whether a class fixture is interface-like.
func (p *Provider) IsInterface(raw extract.Entity) bool {
	c, ok := raw.(*Class)
	return ok && c.Interface
}

// IsBound reports whether a callable fixture is owned by a class.
func (p *Provider) IsBound(raw extract.Entity) bool {
	c, ok := raw.(*Callable)
	return ok && c.Bound
}

// IsBuiltin reports whether the fixture belongs to the builtin domain.
func (p *Provider) IsBuiltin(raw extract.Entity) bool {
	switch v := raw.(type) {
	case *Module:
		return v.Builtin
	case *Generic:
		return v.Builtin
	case *Union, *NoneType, *AnyType:
		return true
	default:
		return strings.HasPrefix(p.QualifiedName(raw), "builtins.")
	}
}

func toNamed(in []Named) []extract.NamedEntity {
	out := make([]extract.NamedEntity, len(in))
	for i, n := range in {
		out[i] = extract.NamedEntity{Name: n.Name, Raw: n.Entity}
	}
	return out
}

// domainOf strips the last dotted segment, honoring the member separator.
func domainOf(qname string) string {
	if i := strings.Index(qname, "::"); i >= 0 {
		qname = qname[:i]
	}
	if i := strings.LastIndex(qname, "."); i >= 0 {
		return qname[:i]
	}
	return ""
}
