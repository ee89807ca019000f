// Package ref canonicalizes MHEG group identifiers and object references.
//
// Every identity comparison in the engine goes through a Resolver: two
// references name the same object iff their canonical group ids and object
// numbers are equal.
package ref

import (
	"strings"

	"github.com/roach88/mheg/internal/ir"
)

// DefaultDir is the application directory used before any Application is
// active.
const DefaultDir = "~/"

// Resolver canonicalizes group ids relative to the active Application's
// directory.
type Resolver struct {
	dir string
}

// NewResolver returns a Resolver for the given active Application id.
// An empty id yields DefaultDir.
func NewResolver(app ir.GroupID) Resolver {
	return Resolver{dir: Dir(app)}
}

// WithDir returns a Resolver using dir verbatim.
func WithDir(dir string) Resolver {
	return Resolver{dir: dir}
}

// Dir strips the trailing "/filename" from an Application group id.
// "~//svc/app" -> "~//svc"; "~//a" -> "~/".
func Dir(app ir.GroupID) string {
	s := string(app)
	if s == "" {
		return DefaultDir
	}
	i := strings.LastIndexByte(s, '/')
	if i < 0 {
		return DefaultDir
	}
	if i < len(ir.AbsolutePrefix) {
		// "~//name": the directory is the carousel root.
		return s[:len(ir.AbsolutePrefix)-1]
	}
	return s[:i]
}

// Dir returns the directory the resolver prefixes relative ids with.
func (r Resolver) Dir() string {
	if r.dir == "" {
		return DefaultDir
	}
	return r.dir
}

// Canonical maps any authored group id to its absolute "~//" form.
//
//	~//...        unchanged
//	//...         "~" + input
//	DSM:...       Canonical("~" + remainder)
//	~/... or /... dir + path (path keeps its leading "/")
//	other         dir + "/" + input
func (r Resolver) Canonical(id ir.GroupID) ir.GroupID {
	s := string(id)
	switch {
	case strings.HasPrefix(s, ir.AbsolutePrefix):
		return id
	case strings.HasPrefix(s, "//"):
		return ir.GroupID("~" + s)
	case strings.HasPrefix(s, "DSM:"):
		return r.Canonical(ir.GroupID("~" + strings.TrimPrefix(s, "DSM:")))
	case strings.HasPrefix(s, "~/"):
		return ir.GroupID(r.Dir() + s[1:])
	case strings.HasPrefix(s, "/"):
		return ir.GroupID(r.Dir() + s)
	default:
		return ir.GroupID(r.Dir() + "/" + s)
	}
}

// Resolve turns a reference into a canonical ObjectID. Internal references
// take the context group, which is itself canonicalized.
func (r Resolver) Resolve(ref ir.ObjectReference, context ir.GroupID) ir.ObjectID {
	group := ref.Group
	if ref.IsInternal() {
		group = context
	}
	return ir.ObjectID{Group: r.Canonical(group), Number: ref.Number}
}

// Same reports whether two references name the same object.
func (r Resolver) Same(a ir.ObjectReference, actx ir.GroupID, b ir.ObjectReference, bctx ir.GroupID) bool {
	return r.Resolve(a, actx) == r.Resolve(b, bctx)
}
