package uml

import "strings"

// Hint is anything a member, parameter, or base can point at: either a
// materialized Node or a Reference to one that may not exist yet.
// References are the cycle breaker: a node under construction can carry a
// Hint to a node that has only been reserved in the space so far.
type Hint interface {
	QualifiedName() string
}

// Node is the materialized representation of one reflected entity.
// Placeholder nodes are legal graph members during construction (they
// terminate recursion into out-of-scope entities) but are excluded from
// rendering and from being a relation endpoint.
type Node interface {
	Hint
	Kind() Kind
	Domain() string
	Placeholder() bool
	Docstring() string
}

// meta carries the fields shared by every node variant.
type meta struct {
	qname       string
	kind        Kind
	domain      string
	placeholder bool
	docstring   string
}

func (m meta) QualifiedName() string { return m.qname }
func (m meta) Kind() Kind            { return m.kind }
func (m meta) Domain() string        { return m.domain }
func (m meta) Placeholder() bool     { return m.placeholder }
func (m meta) Docstring() string     { return m.docstring }

// Param wraps a named type hint (a callable parameter, a generic argument).
type Param struct {
	Name string
	Hint Hint
}

// Member is a visibility-tagged Param used for class attributes and methods.
type Member struct {
	Name       string
	Hint       Hint
	Visibility Visibility
}

// NewMember wraps a hint as a class member, inferring visibility from name.
func NewMember(name string, hint Hint) Member {
	return Member{Name: name, Hint: hint, Visibility: VisibilityOf(name)}
}

// ClassNode is a named type with bases and visibility-grouped members.
type ClassNode struct {
	meta
	Interface  bool // interface-like classes turn base edges into Implementation
	Bases      []Hint
	Attributes map[Visibility][]Member
	Methods    map[Visibility][]Member
}

// ClassSpec carries the constructor arguments for a class node.
type ClassSpec struct {
	QualifiedName string
	Domain        string
	Docstring     string
	Placeholder   bool
	Interface     bool
	Bases         []Hint
	Attributes    []Member
	Methods       []Member
}

// NewClass builds a class node, grouping the given members by visibility.
// Placeholder classes drop their structure: they exist only to terminate
// recursion and are purged at render time.
func NewClass(spec ClassSpec) *ClassNode {
	n := &ClassNode{
		meta: meta{
			qname:       spec.QualifiedName,
			kind:        KindClass,
			domain:      spec.Domain,
			placeholder: spec.Placeholder,
			docstring:   spec.Docstring,
		},
		Interface:  spec.Interface,
		Attributes: map[Visibility][]Member{},
		Methods:    map[Visibility][]Member{},
	}
	if spec.Placeholder {
		return n
	}
	n.Bases = spec.Bases
	for _, m := range spec.Attributes {
		n.Attributes[m.Visibility] = append(n.Attributes[m.Visibility], m)
	}
	for _, m := range spec.Methods {
		n.Methods[m.Visibility] = append(n.Methods[m.Visibility], m)
	}
	return n
}

// CallableNode is a function or method with typed parameters and a return.
type CallableNode struct {
	meta
	// Bound marks a callable owned by a class. Bound callables are not
	// independently addressable: they are rebuilt at each point of use and
	// never registered as top-level entities.
	Bound  bool
	Params []Param
	Return *Param
}

// CallableSpec carries the constructor arguments for a callable node.
type CallableSpec struct {
	QualifiedName string
	Domain        string
	Docstring     string
	Placeholder   bool
	Bound         bool
	Params        []Param
	Return        *Param
}

// NewCallable builds a callable node.
func NewCallable(spec CallableSpec) *CallableNode {
	n := &CallableNode{
		meta: meta{
			qname:       spec.QualifiedName,
			kind:        KindCallable,
			domain:      spec.Domain,
			placeholder: spec.Placeholder,
			docstring:   spec.Docstring,
		},
		Bound: spec.Bound,
	}
	if spec.Placeholder {
		return n
	}
	n.Params = spec.Params
	n.Return = spec.Return
	return n
}

// GenericNode is a parameterized type expression: a named generic, an
// anonymous union, or a type variable. Only type variables are addressable;
// the other shapes are rebuilt at each point of use.
type GenericNode struct {
	meta
	// BuiltinContainer marks opaque container types (lists, maps, tuples).
	// Their edges are propagated from their arguments to the owning source
	// instead of pointing at the container itself.
	BuiltinContainer bool
	Args             []Param
}

// GenericSpec carries the constructor arguments for a generic node.
type GenericSpec struct {
	QualifiedName    string
	Kind             Kind // KindNamedGeneric, KindUnion, or KindTypeVar
	Domain           string
	Docstring        string
	Placeholder      bool
	BuiltinContainer bool
	Args             []Param
}

// NewGeneric builds a generic node.
func NewGeneric(spec GenericSpec) *GenericNode {
	n := &GenericNode{
		meta: meta{
			qname:       spec.QualifiedName,
			kind:        spec.Kind,
			domain:      spec.Domain,
			placeholder: spec.Placeholder,
			docstring:   spec.Docstring,
		},
		BuiltinContainer: spec.BuiltinContainer,
	}
	if spec.Placeholder {
		return n
	}
	n.Args = spec.Args
	return n
}

// NewNone returns the sentinel placeholder node for the no-value type.
// It is never registered in a space; it exists only as a hint target.
func NewNone() *ClassNode {
	return NewClass(ClassSpec{QualifiedName: NoneName, Domain: "types", Placeholder: true})
}

// NewAny returns the sentinel placeholder node for the any type.
func NewAny() *ClassNode {
	return NewClass(ClassSpec{QualifiedName: AnyName, Domain: "types", Placeholder: true})
}

// shortName returns the last dot-separated segment of a qualified name,
// with any member separator suffix stripped.
func shortName(qname string) string {
	if i := strings.LastIndex(qname, memberSep); i >= 0 {
		qname = qname[i+len(memberSep):]
	}
	if i := strings.LastIndex(qname, "."); i >= 0 {
		qname = qname[i+1:]
	}
	return qname
}

// memberSep separates a class qualified name from a member name, keeping
// bound callables distinguishable from free functions.
const memberSep = "::"
