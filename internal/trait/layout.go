package trait

import "fmt"

// Entry is one committed trait slot in a locked layout.
type Entry struct {
	Name    string
	Kind    Kind
	Desc    string
	Default any

	// index within the per-kind backing slice of a Record.
	index int
}

// Layout is the frozen trait arrangement shared by every organism record
// in a run. Layout equality is pointer identity: two records have the
// same layout iff they point at the same Layout.
type Layout struct {
	entries []Entry
	byName  map[string]int
	counts  [5]int // per-Kind slot counts
	locked  bool
}

func newLayout() *Layout {
	return &Layout{byName: make(map[string]int)}
}

func (l *Layout) add(name string, kind Kind, def any, desc string) {
	if l.locked {
		panic(fmt.Sprintf("trait: layout extension with %q after lock", name))
	}
	if _, exists := l.byName[name]; exists {
		panic(fmt.Sprintf("trait: duplicate layout entry %q", name))
	}
	l.byName[name] = len(l.entries)
	l.entries = append(l.entries, Entry{
		Name:    name,
		Kind:    kind,
		Desc:    desc,
		Default: def,
		index:   l.counts[kind],
	})
	l.counts[kind]++
}

func (l *Layout) lock() { l.locked = true }

func (l *Layout) Locked() bool { return l.locked }

// Size reports the number of committed traits.
func (l *Layout) Size() int { return len(l.entries) }

// Entries returns the committed traits in layout order.
func (l *Layout) Entries() []Entry { return l.entries }

// Has reports whether a trait name is part of the layout.
func (l *Layout) Has(name string) bool {
	_, ok := l.byName[name]
	return ok
}

// KindOf looks up the kind of a named trait.
func (l *Layout) KindOf(name string) (Kind, bool) {
	i, ok := l.byName[name]
	if !ok {
		return 0, false
	}
	return l.entries[i].Kind, true
}

func (l *Layout) entry(name string, kind Kind) Entry {
	i, ok := l.byName[name]
	if !ok {
		panic(fmt.Sprintf("trait: unknown trait %q", name))
	}
	e := l.entries[i]
	if e.Kind != kind {
		panic(fmt.Sprintf("trait: %q accessed as %s but committed as %s", name, kind, e.Kind))
	}
	return e
}

// NewRecord allocates a record with every trait at its declared default.
func (l *Layout) NewRecord() *Record {
	if !l.locked {
		panic("trait: NewRecord before layout lock")
	}
	rec := &Record{
		layout:    l,
		bools:     make([]bool, l.counts[KindBool]),
		ints:      make([]int64, l.counts[KindInt]),
		floats:    make([]float64, l.counts[KindFloat]),
		strings:   make([]string, l.counts[KindString]),
		floatVecs: make([][]float64, l.counts[KindFloatVec]),
	}
	l.ResetAll(rec)
	return rec
}

// ResetAll restores every trait on the record to its declared default
// without reallocating the record. Used when container organisms recycle
// a sub-population rather than rebuilding it.
func (l *Layout) ResetAll(rec *Record) {
	if rec.layout != l {
		panic("trait: ResetAll on record with foreign layout")
	}
	for _, e := range l.entries {
		switch e.Kind {
		case KindBool:
			rec.bools[e.index] = e.Default.(bool)
		case KindInt:
			rec.ints[e.index] = e.Default.(int64)
		case KindFloat:
			rec.floats[e.index] = e.Default.(float64)
		case KindString:
			rec.strings[e.index] = e.Default.(string)
		case KindFloatVec:
			rec.floatVecs[e.index] = append([]float64(nil), e.Default.([]float64)...)
		}
	}
}
