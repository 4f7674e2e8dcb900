package uml

// Kind is the closed classification set for reflected entities.
// Classification is total: every entity a provider hands to the extractor
// maps to exactly one Kind, or the pass aborts with UNSUPPORTED_KIND.
type Kind int

const (
	// KindClass is a named, member-carrying type (struct-like or interface-like).
	KindClass Kind = iota
	// KindCallable is a function or method.
	KindCallable
	// KindModule is a package/module grouping other entities.
	KindModule
	// KindNamedGeneric is a parameterized type expression that carries a name
	// (an instantiated generic or a builtin container such as a list or map).
	KindNamedGeneric
	// KindUnion is an anonymous union of types. Unions carry no identity of
	// their own; all of them collapse onto a single synthetic node name.
	KindUnion
	// KindTypeVar is a type variable (type parameter with constraints or a bound).
	KindTypeVar
	// KindForward is an unresolved forward reference to a named entity.
	KindForward
	// KindNone is the no-value sentinel (void results, nil hints).
	KindNone
	// KindAny is the "any type" sentinel.
	KindAny
)

var kindNames = map[Kind]string{
	KindClass:        "class",
	KindCallable:     "callable",
	KindModule:       "module",
	KindNamedGeneric: "named_generic",
	KindUnion:        "union",
	KindTypeVar:      "typevar",
	KindForward:      "forward",
	KindNone:         "none",
	KindAny:          "any",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Synthetic qualified names for entities that carry no identity of their own.
const (
	// UnionName is the shared node name for all anonymous unions.
	UnionName = "types.Union"
	// NoneName is the sentinel node name for the no-value type.
	NoneName = "types.None"
	// AnyName is the sentinel node name for the any type.
	AnyName = "types.Any"
)

// Visibility is the access level of a class member, inferred from the
// member's bare name using the leading-underscore convention.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

// visibilityOrder is the fixed rendering order for member groups.
var visibilityOrder = [...]Visibility{Public, Protected, Private}

// Symbol returns the diagram prefix for the visibility.
func (v Visibility) Symbol() string {
	switch v {
	case Protected:
		return "#"
	case Private:
		return "-"
	default:
		return "+"
	}
}

// VisibilityOf infers a member's visibility from its bare name:
// no leading underscore is Public, one is Protected, two or more is Private.
func VisibilityOf(name string) Visibility {
	if len(name) >= 2 && name[0] == '_' && name[1] == '_' {
		return Private
	}
	if len(name) >= 1 && name[0] == '_' {
		return Protected
	}
	return Public
}

// RelationKind is the type of a synthesized edge between two nodes.
type RelationKind int

const (
	Association RelationKind = iota
	Aggregation
	Composition
	Inheritance
	Implementation
	Dependency
	Link
)

// Symbol returns the diagram arrow for the relation kind.
func (r RelationKind) Symbol() string {
	switch r {
	case Association:
		return "--"
	case Aggregation:
		return "*-->"
	case Composition:
		return "o-->"
	case Inheritance:
		return "--|>"
	case Implementation:
		return "..|>"
	case Link:
		return ".."
	default:
		return "-->"
	}
}

// Relation is a typed edge between two qualified names.
type Relation struct {
	Source string
	Target string
	Kind   RelationKind
}
