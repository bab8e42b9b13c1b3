// Package actionmap lets unrelated modules contribute callables to one
// extensible operation without compile-time coupling. A module publishes
// a function under a name; another module later collects every callable
// registered under that name with a matching signature and invokes them
// all (for example, summing mutation counts contributed by several
// modules to a single datum).
package actionmap

// Map is a per-population registry of named callables. Lookups are keyed
// by (name, signature): FuncsFor only yields entries whose dynamic type
// matches the requested function type.
type Map struct {
	funcs map[string][]any
}

func New() *Map {
	return &Map{funcs: make(map[string][]any)}
}

// Add registers a callable under a name. Multiple modules may register
// the same name, with the same or different signatures.
func (m *Map) Add(name string, fn any) {
	m.funcs[name] = append(m.funcs[name], fn)
}

// Count reports how many callables are registered under a name across
// all signatures.
func (m *Map) Count(name string) int { return len(m.funcs[name]) }

// FuncsFor returns every callable registered under name whose signature
// is exactly F. Zero registrants yield an empty, safely iterable slice;
// optional extension points must treat that as a valid no-effect outcome.
func FuncsFor[F any](m *Map, name string) []F {
	var out []F
	for _, fn := range m.funcs[name] {
		if typed, ok := fn.(F); ok {
			out = append(out, typed)
		}
	}
	return out
}
