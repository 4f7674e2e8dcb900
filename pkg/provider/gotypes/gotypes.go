// Package gotypes implements an extract.Provider over Go type information
// loaded with golang.org/x/tools/go/packages. Packages map to modules,
// named struct and interface types to classes, functions and methods to
// callables, and slices, maps, channels, and arrays to builtin container
// generics.
package gotypes

import (
	"go/types"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/matzehuels/typetower/pkg/errors"
	"github.com/matzehuels/typetower/pkg/extract"
	"github.com/matzehuels/typetower/pkg/uml"
)

// loadMode is the package information the provider needs: type data for
// classification and syntax for doc comments.
const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedDeps |
	packages.NeedImports

// pkgEntity is a loaded package plus its nested sub-packages.
type pkgEntity struct {
	pkg      *packages.Package
	children []*pkgEntity
	docs     map[string]string
}

// typeEntity wraps a type reached through a member, field, or signature.
type typeEntity struct {
	t types.Type
}

// funcEntity is a package-level function or a method.
type funcEntity struct {
	fn *funcInfo
}

type funcInfo struct {
	obj *types.Func
	doc string
}

// tupleEntity represents a multi-value result list as an opaque container.
type tupleEntity struct {
	elems []types.Type
}

type noneEntity struct{}
type anyEntity struct{}

// Provider answers extraction queries from loaded Go packages.
type Provider struct {
	// Dir is the working directory for package loading. Empty means the
	// process working directory.
	Dir string
}

// NewProvider builds a provider loading packages relative to dir.
func NewProvider(dir string) *Provider {
	return &Provider{Dir: dir}
}

// ResolveRoot loads the packages matched by the given pattern and arranges
// them into a module tree rooted at the shortest import path.
func (p *Provider) ResolveRoot(path string) (extract.Entity, error) {
	cfg := &packages.Config{Mode: loadMode, Dir: p.Dir}
	pkgs, err := packages.Load(cfg, path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImportFailure, err, "load %q", path)
	}
	if len(pkgs) == 0 {
		return nil, errors.New(errors.ErrCodeImportFailure, "no packages match %q", path)
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, errors.New(errors.ErrCodeImportFailure, "load %q: %s", path, pkg.Errors[0].Msg)
		}
	}
	return buildTree(pkgs), nil
}

// buildTree nests loaded packages under their closest ancestor by import
// path, rooted at the shortest path.
func buildTree(pkgs []*packages.Package) *pkgEntity {
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })

	entities := make([]*pkgEntity, len(pkgs))
	for i, pkg := range pkgs {
		entities[i] = &pkgEntity{pkg: pkg, docs: collectDocs(pkg)}
	}

	root := entities[0]
	for i := 1; i < len(entities); i++ {
		parent := root
		for j := i - 1; j >= 0; j-- {
			if strings.HasPrefix(entities[i].pkg.PkgPath, entities[j].pkg.PkgPath+"/") {
				parent = entities[j]
				break
			}
		}
		parent.children = append(parent.children, entities[i])
	}
	return root
}

// Classify maps an entity to its kind.
func (p *Provider) Classify(raw extract.Entity) (uml.Kind, error) {
	switch e := raw.(type) {
	case *pkgEntity:
		return uml.KindModule, nil
	case *funcEntity:
		return uml.KindCallable, nil
	case *tupleEntity:
		return uml.KindNamedGeneric, nil
	case *noneEntity:
		return uml.KindNone, nil
	case *anyEntity:
		return uml.KindAny, nil
	case *typeEntity:
		return classifyType(e.t)
	default:
		return 0, errors.New(errors.ErrCodeUnsupportedKind, "no classification for %T", raw)
	}
}

func classifyType(t types.Type) (uml.Kind, error) {
	switch v := normalize(t).(type) {
	case *types.Named:
		if v.TypeArgs() != nil && v.TypeArgs().Len() > 0 {
			return uml.KindNamedGeneric, nil
		}
		return uml.KindClass, nil
	case *types.Basic:
		return uml.KindClass, nil
	case *types.Slice, *types.Array, *types.Map, *types.Chan, *types.Signature:
		return uml.KindNamedGeneric, nil
	case *types.TypeParam:
		return uml.KindTypeVar, nil
	case *types.Union:
		return uml.KindUnion, nil
	case *types.Interface:
		// Anonymous interfaces carry no addressable name; the empty one is
		// the any type and the rest degrade to it.
		return uml.KindAny, nil
	case *types.Struct:
		return uml.KindAny, nil
	case nil:
		return uml.KindNone, nil
	default:
		return 0, errors.New(errors.ErrCodeUnsupportedKind, "no classification for type %s", t)
	}
}

// normalize strips aliases and pointers: both are transparent for diagram
// purposes.
func normalize(t types.Type) types.Type {
	for {
		t = types.Unalias(t)
		ptr, ok := t.(*types.Pointer)
		if !ok {
			return t
		}
		t = ptr.Elem()
	}
}

// QualifiedName returns the dotted name of an entity.
func (p *Provider) QualifiedName(raw extract.Entity) string {
	switch e := raw.(type) {
	case *pkgEntity:
		return dotted(e.pkg.PkgPath)
	case *funcEntity:
		return funcQName(e.fn.obj)
	case *tupleEntity:
		return "builtins.tuple"
	case *noneEntity:
		return uml.NoneName
	case *anyEntity:
		return uml.AnyName
	case *typeEntity:
		return typeQName(e.t)
	default:
		return ""
	}
}

func funcQName(fn *types.Func) string {
	sig := fn.Type().(*types.Signature)
	if recv := sig.Recv(); recv != nil {
		return typeQName(recv.Type()) + "::" + fn.Name()
	}
	if fn.Pkg() == nil {
		return "builtins." + fn.Name()
	}
	return dotted(fn.Pkg().Path()) + "." + fn.Name()
}

func typeQName(t types.Type) string {
	switch v := normalize(t).(type) {
	case *types.Named:
		obj := v.Obj()
		if obj.Pkg() == nil {
			return "builtins." + obj.Name()
		}
		return dotted(obj.Pkg().Path()) + "." + obj.Name()
	case *types.Basic:
		return "builtins." + v.Name()
	case *types.Slice, *types.Array:
		return "builtins.slice"
	case *types.Map:
		return "builtins.map"
	case *types.Chan:
		return "builtins.chan"
	case *types.Signature:
		return "builtins.func"
	case *types.TypeParam:
		obj := v.Obj()
		if obj.Pkg() == nil {
			return "builtins." + obj.Name()
		}
		return dotted(obj.Pkg().Path()) + "." + obj.Name()
	case *types.Union:
		return uml.UnionName
	default:
		return uml.AnyName
	}
}

// DomainOf returns the dotted package path owning an entity.
func (p *Provider) DomainOf(raw extract.Entity) string {
	return domainOf(p.QualifiedName(raw))
}

func domainOf(qname string) string {
	if i := strings.Index(qname, "::"); i >= 0 {
		qname = qname[:i]
	}
	if i := strings.LastIndex(qname, "."); i >= 0 {
		return qname[:i]
	}
	return ""
}

// DocstringOf returns the doc comment recorded for the entity, if any.
func (p *Provider) DocstringOf(raw extract.Entity) string {
	switch e := raw.(type) {
	case *pkgEntity:
		return e.docs[dotted(e.pkg.PkgPath)]
	case *funcEntity:
		return e.fn.doc
	case *typeEntity:
		if named, ok := normalize(e.t).(*types.Named); ok {
			if obj := named.Obj(); obj.Pkg() != nil {
				// Doc index lives on the defining package entity; we only
				// have the type here, so the lookup goes through the cache.
				return docCache.lookup(dotted(obj.Pkg().Path()) + "." + obj.Name())
			}
		}
	}
	return ""
}

// Members lists a package's exported types, functions, and sub-packages.
func (p *Provider) Members(raw extract.Entity) ([]extract.NamedEntity, error) {
	e, ok := raw.(*pkgEntity)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedKind, "%T has no members", raw)
	}

	var out []extract.NamedEntity
	scope := e.pkg.Types.Scope()
	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if !obj.Exported() {
			continue
		}
		switch o := obj.(type) {
		case *types.TypeName:
			out = append(out, extract.NamedEntity{Name: name, Raw: &typeEntity{t: o.Type()}})
		case *types.Func:
			out = append(out, extract.NamedEntity{Name: name, Raw: p.wrapFunc(e, o)})
		}
	}
	for _, child := range e.children {
		out = append(out, extract.NamedEntity{Name: child.pkg.Name, Raw: child})
	}
	return out, nil
}

// AnnotatedMembersOf lists a package's exported typed constants and
// variables, or a class's exported fields.
func (p *Provider) AnnotatedMembersOf(raw extract.Entity) ([]extract.NamedEntity, error) {
	switch e := raw.(type) {
	case *pkgEntity:
		var out []extract.NamedEntity
		scope := e.pkg.Types.Scope()
		for _, name := range scope.Names() {
			obj := scope.Lookup(name)
			if !obj.Exported() {
				continue
			}
			switch obj.(type) {
			case *types.Const, *types.Var:
				out = append(out, extract.NamedEntity{Name: name, Raw: &typeEntity{t: obj.Type()}})
			}
		}
		return out, nil
	case *typeEntity:
		named, ok := normalize(e.t).(*types.Named)
		if !ok {
			return nil, nil
		}
		st, ok := named.Underlying().(*types.Struct)
		if !ok {
			return nil, nil
		}
		var out []extract.NamedEntity
		for i := 0; i < st.NumFields(); i++ {
			f := st.Field(i)
			if f.Embedded() || !f.Exported() {
				continue
			}
			out = append(out, extract.NamedEntity{Name: f.Name(), Raw: &typeEntity{t: f.Type()}})
		}
		return out, nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedKind, "%T has no annotated members", raw)
	}
}

// MethodsOf lists a class's exported methods.
func (p *Provider) MethodsOf(raw extract.Entity) ([]extract.NamedEntity, error) {
	e, ok := raw.(*typeEntity)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedKind, "%T has no methods", raw)
	}
	named, ok := normalize(e.t).(*types.Named)
	if !ok {
		return nil, nil
	}

	var out []extract.NamedEntity
	if iface, ok := named.Underlying().(*types.Interface); ok {
		for i := 0; i < iface.NumExplicitMethods(); i++ {
			m := iface.ExplicitMethod(i)
			if m.Exported() {
				out = append(out, extract.NamedEntity{Name: m.Name(), Raw: p.wrapFunc(nil, m)})
			}
		}
		return out, nil
	}
	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		if m.Exported() {
			out = append(out, extract.NamedEntity{Name: m.Name(), Raw: p.wrapFunc(nil, m)})
		}
	}
	return out, nil
}

// BasesOf lists a class's embedded types.
func (p *Provider) BasesOf(raw extract.Entity) ([]extract.Entity, error) {
	e, ok := raw.(*typeEntity)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedKind, "%T has no bases", raw)
	}
	named, ok := normalize(e.t).(*types.Named)
	if !ok {
		return nil, nil
	}

	var out []extract.Entity
	switch u := named.Underlying().(type) {
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if f := u.Field(i); f.Embedded() {
				out = append(out, &typeEntity{t: f.Type()})
			}
		}
	case *types.Interface:
		for i := 0; i < u.NumEmbeddeds(); i++ {
			embedded := u.EmbeddedType(i)
			// Union terms in constraints are not bases.
			if _, isUnion := embedded.(*types.Union); isUnion {
				continue
			}
			out = append(out, &typeEntity{t: embedded})
		}
	}
	return out, nil
}

// SignatureOf returns a callable's parameters and its result entity.
// Multi-value results collapse into a tuple container.
func (p *Provider) SignatureOf(raw extract.Entity) ([]extract.NamedEntity, extract.Entity, error) {
	var sig *types.Signature
	switch e := raw.(type) {
	case *funcEntity:
		sig = e.fn.obj.Type().(*types.Signature)
	case *typeEntity:
		s, ok := normalize(e.t).(*types.Signature)
		if !ok {
			return nil, nil, errors.New(errors.ErrCodeUnsupportedKind, "%T has no signature", raw)
		}
		sig = s
	default:
		return nil, nil, errors.New(errors.ErrCodeUnsupportedKind, "%T has no signature", raw)
	}

	var params []extract.NamedEntity
	tup := sig.Params()
	for i := 0; i < tup.Len(); i++ {
		v := tup.At(i)
		name := v.Name()
		if name == "" || name == "_" {
			name = "arg" + strconv.Itoa(i)
		}
		params = append(params, extract.NamedEntity{Name: name, Raw: &typeEntity{t: v.Type()}})
	}

	results := sig.Results()
	switch results.Len() {
	case 0:
		return params, &noneEntity{}, nil
	case 1:
		return params, &typeEntity{t: results.At(0).Type()}, nil
	default:
		elems := make([]types.Type, results.Len())
		for i := 0; i < results.Len(); i++ {
			elems[i] = results.At(i).Type()
		}
		return params, &tupleEntity{elems: elems}, nil
	}
}

// ArgumentsOf returns a generic's type arguments, a container's element
// types, a union's terms, or a type parameter's constraint types.
func (p *Provider) ArgumentsOf(raw extract.Entity) ([]extract.Entity, error) {
	switch e := raw.(type) {
	case *tupleEntity:
		out := make([]extract.Entity, len(e.elems))
		for i, t := range e.elems {
			out[i] = &typeEntity{t: t}
		}
		return out, nil
	case *typeEntity:
		return typeArguments(normalize(e.t))
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedKind, "%T has no type arguments", raw)
	}
}

func typeArguments(t types.Type) ([]extract.Entity, error) {
	switch v := t.(type) {
	case *types.Named:
		args := v.TypeArgs()
		out := make([]extract.Entity, 0, args.Len())
		for i := 0; i < args.Len(); i++ {
			out = append(out, &typeEntity{t: args.At(i)})
		}
		return out, nil
	case *types.Slice:
		return []extract.Entity{&typeEntity{t: v.Elem()}}, nil
	case *types.Array:
		return []extract.Entity{&typeEntity{t: v.Elem()}}, nil
	case *types.Chan:
		return []extract.Entity{&typeEntity{t: v.Elem()}}, nil
	case *types.Map:
		return []extract.Entity{&typeEntity{t: v.Key()}, &typeEntity{t: v.Elem()}}, nil
	case *types.Signature:
		var out []extract.Entity
		for i := 0; i < v.Params().Len(); i++ {
			out = append(out, &typeEntity{t: v.Params().At(i).Type()})
		}
		for i := 0; i < v.Results().Len(); i++ {
			out = append(out, &typeEntity{t: v.Results().At(i).Type()})
		}
		return out, nil
	case *types.Union:
		out := make([]extract.Entity, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, &typeEntity{t: v.Term(i).Type()})
		}
		return out, nil
	case *types.TypeParam:
		iface, ok := v.Constraint().Underlying().(*types.Interface)
		if !ok {
			return nil, nil
		}
		var out []extract.Entity
		for i := 0; i < iface.NumEmbeddeds(); i++ {
			out = append(out, &typeEntity{t: iface.EmbeddedType(i)})
		}
		return out, nil
	default:
		return nil, nil
	}
}

// ResolveForward always fails: Go type information has no unresolved
// forward references, so this provider never produces KindForward entities.
func (p *Provider) ResolveForward(raw extract.Entity, domain string) (extract.Entity, error) {
	return nil, errors.New(errors.ErrCodeMissingReference, "go types carry no forward references")
}

// IsInterface reports whether the entity is an interface type.
func (p *Provider) IsInterface(raw extract.Entity) bool {
	e, ok := raw.(*typeEntity)
	if !ok {
		return false
	}
	_, isIface := normalize(e.t).Underlying().(*types.Interface)
	return isIface
}

// IsBound reports whether a callable is a method.
func (p *Provider) IsBound(raw extract.Entity) bool {
	e, ok := raw.(*funcEntity)
	if !ok {
		return false
	}
	sig := e.fn.obj.Type().(*types.Signature)
	return sig.Recv() != nil
}

// IsBuiltin reports whether the entity lives in the builtin domain.
func (p *Provider) IsBuiltin(raw extract.Entity) bool {
	switch e := raw.(type) {
	case *tupleEntity, *noneEntity, *anyEntity:
		return true
	case *pkgEntity:
		return false
	case *funcEntity:
		return e.fn.obj.Pkg() == nil
	case *typeEntity:
		switch v := normalize(e.t).(type) {
		case *types.Basic, *types.Slice, *types.Array, *types.Map, *types.Chan, *types.Signature, *types.Union:
			return true
		case *types.Named:
			return v.Obj().Pkg() == nil
		}
	}
	return false
}

// wrapFunc attaches the doc comment from the defining package (when known)
// to a function object.
func (p *Provider) wrapFunc(owner *pkgEntity, fn *types.Func) *funcEntity {
	qname := funcQName(fn)
	doc := docCache.lookup(qname)
	if doc == "" && owner != nil {
		doc = owner.docs[qname]
	}
	return &funcEntity{fn: &funcInfo{obj: fn, doc: doc}}
}

// dotted converts a slash import path into the dotted module form.
func dotted(path string) string {
	return strings.ReplaceAll(path, "/", ".")
}
