package engine

import "github.com/roach88/mheg/internal/ir"

// registry holds every live object in decode order.
//
// Lookup is linear: a broadcast application holds at most a few hundred
// objects and lookups are rare next to event matching.
type registry struct {
	objects []Object
}

// add registers o. A second entry for the same identity is a violation:
// the decoder must never produce one.
func (r *registry) add(o Object) {
	if _, ok := r.lookup(o.ID()); ok {
		violation("duplicate registry entry %s", o.ID())
	}
	r.objects = append(r.objects, o)
}

func (r *registry) lookup(id ir.ObjectID) (Object, bool) {
	for _, o := range r.objects {
		if o.ID() == id {
			return o, true
		}
	}
	return nil, false
}

// contains reports whether this exact object is registered.
func (r *registry) contains(o Object) bool {
	for _, x := range r.objects {
		if x == o {
			return true
		}
	}
	return false
}

// removeGroup drops every object of group g.
func (r *registry) removeGroup(g ir.GroupID) {
	kept := r.objects[:0]
	for _, o := range r.objects {
		if o.ID().Group != g {
			kept = append(kept, o)
		}
	}
	clear(r.objects[len(kept):])
	r.objects = kept
}

func (r *registry) len() int {
	return len(r.objects)
}
