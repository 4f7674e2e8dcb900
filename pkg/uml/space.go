package uml

import (
	"github.com/matzehuels/typetower/pkg/errors"
)

// Reference is a forward-resolvable pointer to a node by qualified name.
// A Reference can exist before its node is materialized; resolving it in
// that window fails with MISSING_REFERENCE. References are created at first
// encounter of a qualified name, before recursing into its structure, which
// is what guarantees termination on cyclic graphs.
type Reference struct {
	qname string
	space *Space
}

// QualifiedName returns the name the reference points at.
func (r *Reference) QualifiedName() string { return r.qname }

// Resolve returns the materialized node for the reference.
// It fails with ErrCodeMissingReference if the target has only been
// reserved, not materialized.
func (r *Reference) Resolve() (Node, error) {
	n, ok := r.space.nodes[r.qname]
	if !ok {
		return nil, errors.New(errors.ErrCodeMissingReference, "%s is not materialized in space %q", r.qname, r.space.name)
	}
	return n, nil
}

// SpaceOptions configures a graph space.
type SpaceOptions struct {
	// ScopePrefix restricts which qualified names are extracted as
	// independent top-level entities. Entities outside the prefix may still
	// appear nested as dependency targets.
	ScopePrefix string
	// IncludeDocs attaches docstring notes to rendered nodes.
	IncludeDocs bool
}

// Space owns the mapping from qualified name to node and reference for one
// extraction pass. A qualified name identifies at most one materialized
// node; registration is two-phase (reserve a Reference, then materialize
// the Node). Spaces are not safe for concurrent use; extraction is a
// single-threaded recursive walk by design.
type Space struct {
	name string
	opts SpaceOptions

	refs  map[string]*Reference
	nodes map[string]Node
	order []string // insertion order of materialized nodes
}

// NewSpace creates an empty graph space with the given diagram name.
func NewSpace(name string, opts SpaceOptions) *Space {
	return &Space{
		name:  name,
		opts:  opts,
		refs:  map[string]*Reference{},
		nodes: map[string]Node{},
	}
}

// Name returns the diagram name.
func (s *Space) Name() string { return s.name }

// ScopePrefix returns the configured top-level extraction restriction.
func (s *Space) ScopePrefix() string { return s.opts.ScopePrefix }

// IncludeDocs reports whether docstring notes are rendered.
func (s *Space) IncludeDocs() bool { return s.opts.IncludeDocs }

// Register reserves a qualified name and returns its Reference.
// Registering the same name again before it is materialized returns the
// existing Reference (idempotent). Registering a name that already has a
// materialized node fails with DUPLICATE_REGISTRATION: cycles are broken
// by reserving references before recursing, never by re-registering, so a
// second registration of a materialized name indicates a traversal bug.
func (s *Space) Register(qname string) (*Reference, error) {
	if _, ok := s.nodes[qname]; ok {
		return nil, errors.New(errors.ErrCodeDuplicateRegistration, "%s is already materialized in space %q", qname, s.name)
	}
	if ref, ok := s.refs[qname]; ok {
		return ref, nil
	}
	ref := &Reference{qname: qname, space: s}
	s.refs[qname] = ref
	return ref, nil
}

// AddNode materializes a node, creating its Reference if none was reserved,
// and returns the (possibly pre-existing) Reference. Materializing the same
// qualified name twice fails with DUPLICATE_REGISTRATION.
func (s *Space) AddNode(n Node) (*Reference, error) {
	qname := n.QualifiedName()
	if _, ok := s.nodes[qname]; ok {
		return nil, errors.New(errors.ErrCodeDuplicateRegistration, "%s is already materialized in space %q", qname, s.name)
	}
	s.nodes[qname] = n
	s.order = append(s.order, qname)
	if ref, ok := s.refs[qname]; ok {
		return ref, nil
	}
	ref := &Reference{qname: qname, space: s}
	s.refs[qname] = ref
	return ref, nil
}

// Contains reports whether a Reference exists for the qualified name,
// whether or not the node behind it has been materialized yet.
func (s *Space) Contains(qname string) bool {
	_, ok := s.refs[qname]
	return ok
}

// HasNode reports whether the qualified name has a materialized node.
func (s *Space) HasNode(qname string) bool {
	_, ok := s.nodes[qname]
	return ok
}

// Lookup returns the existing Reference for a qualified name.
// It returns nil if the name was never registered.
func (s *Space) Lookup(qname string) *Reference {
	return s.refs[qname]
}

// Resolve returns the materialized node for a qualified name, failing with
// ErrCodeMissingReference if it has not been materialized.
func (s *Space) Resolve(qname string) (Node, error) {
	n, ok := s.nodes[qname]
	if !ok {
		return nil, errors.New(errors.ErrCodeMissingReference, "%s is not materialized in space %q", qname, s.name)
	}
	return n, nil
}

// Nodes returns all materialized nodes in insertion order, including
// placeholders. Rendering filters placeholders; construction needs them as
// recursion terminators.
func (s *Space) Nodes() []Node {
	out := make([]Node, 0, len(s.order))
	for _, q := range s.order {
		out = append(out, s.nodes[q])
	}
	return out
}

// Survivors returns the materialized non-placeholder nodes in insertion
// order. These are the nodes that appear in the rendered diagram.
func (s *Space) Survivors() []Node {
	out := make([]Node, 0, len(s.order))
	for _, q := range s.order {
		if n := s.nodes[q]; !n.Placeholder() {
			out = append(out, n)
		}
	}
	return out
}

// NodeCount returns the number of materialized nodes, placeholders included.
func (s *Space) NodeCount() int { return len(s.nodes) }

// resolveHint unwraps a Hint to its Node. For References the target must be
// materialized; ok is false when it is not (the caller decides whether that
// is recoverable).
func resolveHint(h Hint) (Node, bool) {
	switch v := h.(type) {
	case *Reference:
		n, err := v.Resolve()
		if err != nil {
			return nil, false
		}
		return n, true
	case Node:
		return v, true
	default:
		return nil, false
	}
}
