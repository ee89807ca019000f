package testutil

// FixedSession generates the same session id every time.
//
// The same scenario with the same FixedSession produces byte-identical
// traces.
//
// Thread-safety: FixedSession is stateless and safe for concurrent use.
type FixedSession struct {
	id string
}

// NewFixedSession creates a generator for id. An empty id means
// "test-session".
func NewFixedSession(id string) *FixedSession {
	if id == "" {
		id = "test-session"
	}
	return &FixedSession{id: id}
}

// Generate returns the fixed id.
func (g *FixedSession) Generate() string {
	return g.id
}
