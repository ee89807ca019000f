package ir

import (
	"fmt"
	"strings"
)

// GroupID identifies an Application or Scene as an octet string path.
// Authored ids may be relative ("~/scene", "/scene", "DSM:/scene", "scene");
// canonical ids start with "~//".
type GroupID string

// AbsolutePrefix starts every canonical group identifier.
const AbsolutePrefix = "~//"

// IsAbsolute reports whether id is already in canonical form.
func (id GroupID) IsAbsolute() bool {
	return strings.HasPrefix(string(id), AbsolutePrefix)
}

// ObjectReference names an object inside a group.
// An empty Group makes the reference internal: it is resolved against the
// group that holds the referring object.
type ObjectReference struct {
	Group  GroupID `json:"group,omitempty"`
	Number int     `json:"number"`
}

// IsInternal reports whether the reference omits its group.
func (r ObjectReference) IsInternal() bool {
	return r.Group == ""
}

func (r ObjectReference) String() string {
	if r.IsInternal() {
		return fmt.Sprintf("%d", r.Number)
	}
	return fmt.Sprintf("%s:%d", r.Group, r.Number)
}

// ObjectID is the canonical identity of a live object: canonical group id
// plus object number. Number 0 is the group object itself.
type ObjectID struct {
	Group  GroupID `json:"group"`
	Number int     `json:"number"`
}

func (id ObjectID) String() string {
	return fmt.Sprintf("%s:%d", id.Group, id.Number)
}

// Ref returns id as a fully qualified ObjectReference.
func (id ObjectID) Ref() ObjectReference {
	return ObjectReference{Group: id.Group, Number: id.Number}
}

// IsGroup reports whether id names a group object.
func (id ObjectID) IsGroup() bool {
	return id.Number == 0
}

// GenericRef is an object reference that is either direct or indirect.
// An indirect reference names an ObjectRef variable whose current value is
// the actual target.
type GenericRef struct {
	Ref      ObjectReference `json:"ref"`
	Indirect bool            `json:"indirect,omitempty"`
}

// Direct wraps r as a direct GenericRef.
func Direct(r ObjectReference) GenericRef {
	return GenericRef{Ref: r}
}
