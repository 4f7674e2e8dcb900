package extract

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/typetower/pkg/errors"
	"github.com/matzehuels/typetower/pkg/observability"
	"github.com/matzehuels/typetower/pkg/uml"
)

// DefaultMaxDepth is the module recursion bound applied when callers do not
// choose one.
const DefaultMaxDepth = 8

// Config controls one extraction pass.
type Config struct {
	// Domain is the dotted path of the root module. Entities outside it are
	// external: they are never expanded unless IncludeExternal is set.
	Domain string

	// ScopePrefix restricts which qualified names become independent
	// top-level entities. It must extend Domain. Empty means no restriction.
	ScopePrefix string

	// MaxModuleDepth bounds submodule recursion. The root module sits at
	// depth zero; submodules deeper than this are never inspected.
	MaxModuleDepth int

	// IncludeExternal admits entities outside Domain into the module walk
	// (re-exported members and foreign submodules) and extracts their full
	// structure instead of terminating them as placeholders.
	IncludeExternal bool
}

// Extractor populates a graph space by recursively walking a provider's
// reflected entities. It reserves every qualified name before descending
// into its structure, which is what keeps mutually recursive types from
// looping the walk.
type Extractor struct {
	provider Provider
	space    *uml.Space
	cfg      Config
}

// New validates the configuration and builds an extractor writing into the
// given space.
func New(p Provider, space *uml.Space, cfg Config) (*Extractor, error) {
	if cfg.Domain == "" {
		return nil, errors.New(errors.ErrCodeConfiguration, "extraction domain must not be empty")
	}
	if cfg.MaxModuleDepth <= 0 {
		cfg.MaxModuleDepth = DefaultMaxDepth
	}
	if cfg.ScopePrefix != "" {
		base := cfg.ScopePrefix
		if i := strings.Index(base, "::"); i >= 0 {
			base = base[:i]
		}
		if base != cfg.Domain && !strings.HasPrefix(base, cfg.Domain+".") && !strings.HasPrefix(cfg.Domain, base) {
			return nil, errors.New(errors.ErrCodeConfiguration, "scope prefix %q does not extend domain %q", cfg.ScopePrefix, cfg.Domain)
		}
	}
	return &Extractor{provider: p, space: space, cfg: cfg}, nil
}

// InspectModule walks one module: typed constants first, then every public
// member, recursing into submodules with an incremented depth. Submodules
// past the configured depth bound are left untouched.
func (e *Extractor) InspectModule(ctx context.Context, module Entity, depth int) error {
	if depth > e.cfg.MaxModuleDepth {
		return nil
	}

	wd := e.provider.QualifiedName(module)
	start := time.Now()
	observability.Extraction().OnModuleStart(ctx, wd, depth)

	err := e.inspectModule(ctx, module, wd, depth)
	observability.Extraction().OnModuleComplete(ctx, wd, e.space.NodeCount(), time.Since(start), err)
	return err
}

func (e *Extractor) inspectModule(ctx context.Context, module Entity, wd string, depth int) error {
	annotated, err := e.provider.AnnotatedMembersOf(module)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(annotated))
	for _, m := range annotated {
		seen[m.Name] = true
		if !e.scopeAllows(wd + "." + m.Name) {
			continue
		}
		if _, err := e.extract(ctx, m.Raw, wd, false); err != nil {
			if skippable(err) {
				observability.Extraction().OnSkip(ctx, wd+"."+m.Name, err)
				continue
			}
			return err
		}
	}

	members, err := e.provider.Members(module)
	if err != nil {
		return err
	}
	for _, m := range members {
		if seen[m.Name] {
			continue
		}
		kind, err := e.provider.Classify(m.Raw)
		if err != nil {
			return err
		}
		if kind == uml.KindModule {
			if err := e.inspectSubmodule(ctx, m.Raw, depth); err != nil {
				return err
			}
			continue
		}
		if !e.cfg.IncludeExternal && !strings.HasPrefix(e.provider.DomainOf(m.Raw), e.cfg.Domain) {
			// Re-exported from outside the domain.
			continue
		}
		if !e.scopeAllows(e.provider.QualifiedName(m.Raw)) {
			continue
		}
		if _, err := e.extract(ctx, m.Raw, wd, false); err != nil {
			if skippable(err) {
				observability.Extraction().OnSkip(ctx, e.provider.QualifiedName(m.Raw), err)
				continue
			}
			return err
		}
	}
	return nil
}

func (e *Extractor) inspectSubmodule(ctx context.Context, module Entity, depth int) error {
	if e.provider.IsBuiltin(module) {
		return nil
	}
	qname := e.provider.QualifiedName(module)
	if !e.cfg.IncludeExternal && !strings.HasPrefix(qname, e.cfg.Domain) {
		return nil
	}
	if !e.scopeAllowsModule(qname) {
		return nil
	}
	return e.InspectModule(ctx, module, depth+1)
}

// scopeAllows reports whether a leaf entity name falls under the scope
// prefix.
func (e *Extractor) scopeAllows(fqn string) bool {
	if e.cfg.ScopePrefix == "" {
		return true
	}
	return strings.HasPrefix(fqn, e.cfg.ScopePrefix)
}

// scopeAllowsModule is the module variant: a module is worth descending
// into when it lies under the prefix or on the path towards it.
func (e *Extractor) scopeAllowsModule(qname string) bool {
	if e.cfg.ScopePrefix == "" {
		return true
	}
	return strings.HasPrefix(qname, e.cfg.ScopePrefix) || strings.HasPrefix(e.cfg.ScopePrefix, qname)
}

// Extract turns one reflected entity into a graph hint, materializing the
// entity's node in the space as a side effect. The domain argument is the
// module the entity was reached from; forward references resolve against it.
func (e *Extractor) Extract(ctx context.Context, raw Entity, domain string) (uml.Hint, error) {
	return e.extract(ctx, raw, domain, false)
}

// extract dispatches on kind. nested marks an encounter below a top-level
// entity (a base, member, parameter, or argument): addressable entities seen
// nested are only reserved, never expanded, so anything the module walk
// filters out stays an unmaterialized reference.
func (e *Extractor) extract(ctx context.Context, raw Entity, domain string, nested bool) (uml.Hint, error) {
	kind, err := e.provider.Classify(raw)
	if err != nil {
		return nil, err
	}

	switch kind {
	case uml.KindClass:
		return e.extractClass(ctx, raw, nested)
	case uml.KindCallable:
		return e.extractCallable(ctx, raw, domain, nested)
	case uml.KindNamedGeneric, uml.KindUnion, uml.KindTypeVar:
		return e.extractGeneric(ctx, raw, domain, kind, nested)
	case uml.KindForward:
		resolved, err := e.provider.ResolveForward(raw, domain)
		if err != nil {
			return nil, err
		}
		return e.extract(ctx, resolved, domain, nested)
	case uml.KindNone:
		return uml.NewNone(), nil
	case uml.KindAny:
		return uml.NewAny(), nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedKind, "cannot extract %s entity %s", kind, e.provider.QualifiedName(raw))
	}
}

func (e *Extractor) extractClass(ctx context.Context, raw Entity, nested bool) (uml.Hint, error) {
	qname := e.provider.QualifiedName(raw)
	domain := e.provider.DomainOf(raw)

	if e.provider.IsBuiltin(raw) {
		// Builtin classes never join the space. The owner keeps an inline
		// structureless node so short-form rendering can show the bare name.
		return uml.NewClass(uml.ClassSpec{
			QualifiedName: qname,
			Domain:        domain,
			Placeholder:   true,
			Interface:     e.provider.IsInterface(raw),
		}), nil
	}

	if nested {
		// Nested encounters only reserve the name: expansion happens when
		// the module walk visits the entity itself, so scope and domain
		// filtering stay in force for everything merely referenced.
		if ref := e.space.Lookup(qname); ref != nil {
			return ref, nil
		}
		return e.space.Register(qname)
	}

	if e.space.HasNode(qname) {
		return e.space.Lookup(qname), nil
	}
	ref, err := e.space.Register(qname)
	if err != nil {
		return nil, err
	}

	if e.placeholder(domain) {
		node := uml.NewClass(uml.ClassSpec{
			QualifiedName: qname,
			Domain:        domain,
			Placeholder:   true,
			Interface:     e.provider.IsInterface(raw),
		})
		if _, err := e.space.AddNode(node); err != nil {
			return nil, err
		}
		observability.Extraction().OnPlaceholder(ctx, qname)
		return ref, nil
	}

	rawBases, err := e.provider.BasesOf(raw)
	if err != nil {
		return nil, err
	}
	var bases []uml.Hint
	for _, b := range rawBases {
		h, err := e.extract(ctx, b, domain, true)
		if err != nil {
			if skippable(err) {
				observability.Extraction().OnSkip(ctx, qname, err)
				continue
			}
			return nil, err
		}
		bases = append(bases, h)
	}

	attrs, err := e.extractMembers(ctx, raw, domain, e.provider.AnnotatedMembersOf)
	if err != nil {
		return nil, err
	}
	methods, err := e.extractMembers(ctx, raw, domain, e.provider.MethodsOf)
	if err != nil {
		return nil, err
	}

	node := uml.NewClass(uml.ClassSpec{
		QualifiedName: qname,
		Domain:        domain,
		Docstring:     e.provider.DocstringOf(raw),
		Interface:     e.provider.IsInterface(raw),
		Bases:         bases,
		Attributes:    attrs,
		Methods:       methods,
	})
	if _, err := e.space.AddNode(node); err != nil {
		return nil, err
	}
	observability.Extraction().OnNode(ctx, qname, uml.KindClass.String())
	return ref, nil
}

// extractMembers extracts one member list (attributes or methods) of a
// class, skipping members whose hints never resolve.
func (e *Extractor) extractMembers(ctx context.Context, raw Entity, domain string, list func(Entity) ([]NamedEntity, error)) ([]uml.Member, error) {
	named, err := list(raw)
	if err != nil {
		return nil, err
	}
	var members []uml.Member
	for _, m := range named {
		h, err := e.extract(ctx, m.Raw, domain, true)
		if err != nil {
			if skippable(err) {
				observability.Extraction().OnSkip(ctx, domain+"."+m.Name, err)
				continue
			}
			return nil, err
		}
		members = append(members, uml.NewMember(m.Name, h))
	}
	return members, nil
}

func (e *Extractor) extractCallable(ctx context.Context, raw Entity, domain string, nested bool) (uml.Hint, error) {
	qname := e.provider.QualifiedName(raw)
	bound := e.provider.IsBound(raw)

	if !bound {
		// Free callables are addressable: same reserve-first discipline as
		// classes.
		if nested {
			if ref := e.space.Lookup(qname); ref != nil {
				return ref, nil
			}
			return e.space.Register(qname)
		}
		if e.space.HasNode(qname) {
			return e.space.Lookup(qname), nil
		}
		ref, err := e.space.Register(qname)
		if err != nil {
			return nil, err
		}
		entityDomain := e.provider.DomainOf(raw)
		if e.placeholder(entityDomain) {
			node := uml.NewCallable(uml.CallableSpec{
				QualifiedName: qname,
				Domain:        entityDomain,
				Placeholder:   true,
			})
			if _, err := e.space.AddNode(node); err != nil {
				return nil, err
			}
			observability.Extraction().OnPlaceholder(ctx, qname)
			return ref, nil
		}
		node, err := e.buildCallable(ctx, raw, qname, entityDomain, false)
		if err != nil {
			return nil, err
		}
		if _, err := e.space.AddNode(node); err != nil {
			return nil, err
		}
		observability.Extraction().OnNode(ctx, qname, uml.KindCallable.String())
		return ref, nil
	}

	// Bound callables have no independent identity: they are rebuilt at each
	// point of use and handed back as full nodes so the owner keeps access
	// to the signature.
	return e.buildCallable(ctx, raw, qname, domain, true)
}

func (e *Extractor) buildCallable(ctx context.Context, raw Entity, qname, domain string, bound bool) (*uml.CallableNode, error) {
	rawParams, rawRet, err := e.provider.SignatureOf(raw)
	if err != nil {
		return nil, err
	}

	var params []uml.Param
	for _, p := range rawParams {
		h, err := e.extract(ctx, p.Raw, domain, true)
		if err != nil {
			if skippable(err) {
				observability.Extraction().OnSkip(ctx, qname, err)
				continue
			}
			return nil, err
		}
		params = append(params, uml.Param{Name: p.Name, Hint: h})
	}

	var ret *uml.Param
	if rawRet != nil {
		h, err := e.extract(ctx, rawRet, domain, true)
		if err != nil {
			if !skippable(err) {
				return nil, err
			}
			observability.Extraction().OnSkip(ctx, qname, err)
		} else {
			ret = &uml.Param{Name: "return", Hint: h}
		}
	}

	return uml.NewCallable(uml.CallableSpec{
		QualifiedName: qname,
		Domain:        domain,
		Docstring:     e.provider.DocstringOf(raw),
		Bound:         bound,
		Params:        params,
		Return:        ret,
	}), nil
}

func (e *Extractor) extractGeneric(ctx context.Context, raw Entity, domain string, kind uml.Kind, nested bool) (uml.Hint, error) {
	if kind == uml.KindTypeVar {
		return e.extractTypeVar(ctx, raw, nested)
	}

	// Unions and named generics carry no identity of their own; they are
	// rebuilt at each point of use and never registered. Unions collapse on
	// a single synthetic name and propagate their variants like containers.
	qname := e.provider.QualifiedName(raw)
	builtin := e.provider.IsBuiltin(raw)
	if kind == uml.KindUnion {
		qname = uml.UnionName
		builtin = true
	}

	args, err := e.extractArgs(ctx, raw, domain, qname)
	if err != nil {
		return nil, err
	}
	return uml.NewGeneric(uml.GenericSpec{
		QualifiedName:    qname,
		Kind:             kind,
		Domain:           e.provider.DomainOf(raw),
		BuiltinContainer: builtin,
		Args:             args,
	}), nil
}

func (e *Extractor) extractTypeVar(ctx context.Context, raw Entity, nested bool) (uml.Hint, error) {
	qname := e.provider.QualifiedName(raw)
	if nested {
		if ref := e.space.Lookup(qname); ref != nil {
			return ref, nil
		}
		return e.space.Register(qname)
	}
	if e.space.HasNode(qname) {
		return e.space.Lookup(qname), nil
	}
	ref, err := e.space.Register(qname)
	if err != nil {
		return nil, err
	}

	domain := e.provider.DomainOf(raw)
	if e.placeholder(domain) {
		node := uml.NewGeneric(uml.GenericSpec{
			QualifiedName: qname,
			Kind:          uml.KindTypeVar,
			Domain:        domain,
			Placeholder:   true,
		})
		if _, err := e.space.AddNode(node); err != nil {
			return nil, err
		}
		observability.Extraction().OnPlaceholder(ctx, qname)
		return ref, nil
	}

	args, err := e.extractArgs(ctx, raw, domain, qname)
	if err != nil {
		return nil, err
	}
	node := uml.NewGeneric(uml.GenericSpec{
		QualifiedName: qname,
		Kind:          uml.KindTypeVar,
		Domain:        domain,
		Docstring:     e.provider.DocstringOf(raw),
		Args:          args,
	})
	if _, err := e.space.AddNode(node); err != nil {
		return nil, err
	}
	observability.Extraction().OnNode(ctx, qname, uml.KindTypeVar.String())
	return ref, nil
}

func (e *Extractor) extractArgs(ctx context.Context, raw Entity, domain, qname string) ([]uml.Param, error) {
	rawArgs, err := e.provider.ArgumentsOf(raw)
	if err != nil {
		return nil, err
	}
	var args []uml.Param
	for i, a := range rawArgs {
		h, err := e.extract(ctx, a, domain, true)
		if err != nil {
			if skippable(err) {
				observability.Extraction().OnSkip(ctx, qname, err)
				continue
			}
			return nil, err
		}
		args = append(args, uml.Param{Name: argName(i), Hint: h})
	}
	return args, nil
}

// placeholder reports whether entities from the given domain are terminated
// as placeholders instead of being fully extracted.
func (e *Extractor) placeholder(domain string) bool {
	if e.cfg.IncludeExternal {
		return false
	}
	return !strings.HasPrefix(domain, e.cfg.Domain)
}

// skippable reports whether an extraction error is the one locally
// absorbable condition: a reference that never resolves. Everything else
// aborts the pass.
func skippable(err error) bool {
	return errors.GetCode(err) == errors.ErrCodeMissingReference
}

func argName(i int) string {
	return "arg" + strconv.Itoa(i)
}
