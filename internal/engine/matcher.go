package engine

import (
	"github.com/roach88/mheg/internal/ir"
	"github.com/roach88/mheg/internal/ref"
)

// Match reports whether an event satisfies a link condition.
//
// The verdict holds iff all three agree:
//   - the event type equals the condition's type
//   - declared condition data equals the event data exactly (same variant,
//     same value); undeclared data matches anything
//   - the condition source, with internal references taken from the link's
//     own group, canonicalizes to the same object as the event source
//
// There is no partial or wildcard matching.
func Match(r ref.Resolver, linkGroup ir.GroupID, c ir.LinkCondition, source ir.ObjectID, t ir.EventType, data ir.Value) bool {
	if c.EventType != t {
		return false
	}
	if c.Data != nil && !ir.Equal(c.Data, data) {
		return false
	}
	return r.Resolve(c.Source, linkGroup) == r.Resolve(source.Ref(), source.Group)
}

func (e *Engine) matches(l *Link, source ir.ObjectID, t ir.EventType, data ir.Value) bool {
	return Match(e.Resolver(), l.id.Group, l.cond, source, t, data)
}
