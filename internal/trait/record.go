package trait

import "fmt"

// Record is one organism's trait storage. All records in a run share a
// single locked layout; access through an unknown name or the wrong kind
// is a programming error and panics.
type Record struct {
	layout    *Layout
	bools     []bool
	ints      []int64
	floats    []float64
	strings   []string
	floatVecs [][]float64
}

func (r *Record) Layout() *Layout { return r.layout }

// SameLayout reports layout identity, not merely size equality.
func (r *Record) SameLayout(other *Record) bool {
	return other != nil && r.layout == other.layout
}

// Copy produces an independent record carrying the same values.
func (r *Record) Copy() *Record {
	out := &Record{
		layout:    r.layout,
		bools:     append([]bool(nil), r.bools...),
		ints:      append([]int64(nil), r.ints...),
		floats:    append([]float64(nil), r.floats...),
		strings:   append([]string(nil), r.strings...),
		floatVecs: make([][]float64, len(r.floatVecs)),
	}
	for i, v := range r.floatVecs {
		out.floatVecs[i] = append([]float64(nil), v...)
	}
	return out
}

// CopyFrom overwrites this record's values from another record with the
// same layout. Moving an organism between slots must preserve its traits,
// not reconstruct them.
func (r *Record) CopyFrom(src *Record) {
	if !r.SameLayout(src) {
		panic("trait: CopyFrom across different layouts")
	}
	copy(r.bools, src.bools)
	copy(r.ints, src.ints)
	copy(r.floats, src.floats)
	copy(r.strings, src.strings)
	for i, v := range src.floatVecs {
		r.floatVecs[i] = append(r.floatVecs[i][:0], v...)
	}
}

func (r *Record) GetBool(name string) bool {
	return r.bools[r.layout.entry(name, KindBool).index]
}

func (r *Record) SetBool(name string, v bool) {
	r.bools[r.layout.entry(name, KindBool).index] = v
}

func (r *Record) GetInt(name string) int64 {
	return r.ints[r.layout.entry(name, KindInt).index]
}

func (r *Record) SetInt(name string, v int64) {
	r.ints[r.layout.entry(name, KindInt).index] = v
}

func (r *Record) GetFloat(name string) float64 {
	return r.floats[r.layout.entry(name, KindFloat).index]
}

func (r *Record) SetFloat(name string, v float64) {
	r.floats[r.layout.entry(name, KindFloat).index] = v
}

func (r *Record) GetString(name string) string {
	return r.strings[r.layout.entry(name, KindString).index]
}

func (r *Record) SetString(name string, v string) {
	r.strings[r.layout.entry(name, KindString).index] = v
}

// GetFloatVec and SetFloatVec copy in both directions; a record never
// shares vector storage with its callers.
func (r *Record) GetFloatVec(name string) []float64 {
	v := r.floatVecs[r.layout.entry(name, KindFloatVec).index]
	return append([]float64(nil), v...)
}

func (r *Record) SetFloatVec(name string, v []float64) {
	i := r.layout.entry(name, KindFloatVec).index
	r.floatVecs[i] = append(r.floatVecs[i][:0], v...)
}

// Get returns the value of a named trait as any, for generic consumers
// such as statistics collection.
func (r *Record) Get(name string) any {
	i, ok := r.layout.byName[name]
	if !ok {
		panic(fmt.Sprintf("trait: unknown trait %q", name))
	}
	e := r.layout.entries[i]
	switch e.Kind {
	case KindBool:
		return r.bools[e.index]
	case KindInt:
		return r.ints[e.index]
	case KindFloat:
		return r.floats[e.index]
	case KindString:
		return r.strings[e.index]
	case KindFloatVec:
		return append([]float64(nil), r.floatVecs[e.index]...)
	default:
		panic(fmt.Sprintf("trait: unknown kind %d", int(e.Kind)))
	}
}
