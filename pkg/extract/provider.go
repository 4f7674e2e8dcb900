// Package extract implements the recursive, depth-bounded walk that turns a
// reflected entity graph into a populated uml.Space.
package extract

import "github.com/matzehuels/typetower/pkg/uml"

// Entity is an opaque handle to a provider-owned reflected entity. The
// extractor never inspects it directly; every question about an entity goes
// through the Provider that produced it.
type Entity any

// NamedEntity pairs an entity with the name it is bound to inside its
// enclosing module or class.
type NamedEntity struct {
	Name string
	Raw  Entity
}

// Provider is the reflection backend the extractor walks. Implementations
// adapt one language's introspection surface (Go type information, an
// in-memory fixture registry) to the closed classification the extractor
// understands.
//
// Classification must be total over the entities a provider hands out:
// Classify either returns a valid uml.Kind or an UNSUPPORTED_KIND error,
// which aborts the pass. Structural accessors (BasesOf, SignatureOf, ...)
// are only called for entities whose classification makes them meaningful.
type Provider interface {
	// ResolveRoot loads the root module for a path or import string.
	// Failures surface as IMPORT_FAILURE.
	ResolveRoot(path string) (Entity, error)

	// Classify maps an entity to its kind, or fails with UNSUPPORTED_KIND.
	Classify(raw Entity) (uml.Kind, error)

	// QualifiedName returns the stable dotted name of an entity. Bound
	// callables use the owner-qualified form "pkg.Class::method".
	QualifiedName(raw Entity) string

	// DomainOf returns the dotted module path owning the entity.
	DomainOf(raw Entity) string

	// DocstringOf returns the entity's documentation text, or "".
	DocstringOf(raw Entity) string

	// Members lists the public bindings of a module or class entity.
	Members(raw Entity) ([]NamedEntity, error)

	// AnnotatedMembersOf lists a class's typed attributes (or a module's
	// typed constants) as named hint entities.
	AnnotatedMembersOf(raw Entity) ([]NamedEntity, error)

	// MethodsOf lists a class's callables.
	MethodsOf(raw Entity) ([]NamedEntity, error)

	// BasesOf lists a class's declared bases.
	BasesOf(raw Entity) ([]Entity, error)

	// SignatureOf returns a callable's parameters and its return entity.
	// Nil-typed results are represented by the provider's none entity.
	SignatureOf(raw Entity) (params []NamedEntity, ret Entity, err error)

	// ArgumentsOf returns a generic's type arguments, a union's variants,
	// or a type variable's constraints.
	ArgumentsOf(raw Entity) ([]Entity, error)

	// ResolveForward resolves a forward reference against a domain.
	// Failures surface as MISSING_REFERENCE.
	ResolveForward(raw Entity, domain string) (Entity, error)

	// IsInterface reports whether a class entity is interface-like.
	IsInterface(raw Entity) bool

	// IsBound reports whether a callable entity is owned by a class.
	IsBound(raw Entity) bool

	// IsBuiltin reports whether an entity belongs to the language's builtin
	// domain. Builtin modules are never recursed into, and builtin generics
	// are treated as transparent containers.
	IsBuiltin(raw Entity) bool
}
