// Package organism defines the uniform capability surface the kernel
// expects from every organism representation. Concrete representations
// (bit vectors, value vectors, programs) live in their own manager
// modules; the kernel only ever touches this interface.
package organism

import (
	"math/rand"

	"demiurge/internal/trait"
)

// Organism is the capability surface shared by all representations.
// The kernel clones, mutates, serializes, and inspects organisms solely
// through it.
type Organism interface {
	// Traits returns the organism's attached trait record. Nil only for
	// the shared empty sentinel.
	Traits() *trait.Record

	// Clone returns a new, independently owned organism with a copied
	// trait record.
	Clone() Organism

	// Mutate modifies the organism in place and reports the number of
	// mutations applied.
	Mutate(rng *rand.Rand) int

	// GenerateOutput lets an organism write its outputs into traits
	// before evaluation. Representations without distinct output phases
	// implement it as a no-op.
	GenerateOutput()

	// ToString renders the organism's genome in its self-describing
	// string form; FromString parses that form back into the genome.
	ToString() string
	FromString(genome string) error

	// IsEmpty reports whether this is the shared empty-slot sentinel.
	IsEmpty() bool
}

// Base carries the state common to all live organisms: the trait record
// and an optional back-reference to a containing organism for composite
// schemes. Representations embed it.
type Base struct {
	traits    *trait.Record
	container Organism
}

func (b *Base) Traits() *trait.Record       { return b.traits }
func (b *Base) SetTraits(rec *trait.Record) { b.traits = rec }
func (b *Base) Container() Organism         { return b.container }
func (b *Base) SetContainer(c Organism)     { b.container = c }
func (b *Base) GenerateOutput()             {}
func (b *Base) IsEmpty() bool               { return false }

type emptyOrg struct{}

func (emptyOrg) Traits() *trait.Record   { return nil }
func (e emptyOrg) Clone() Organism       { return e }
func (emptyOrg) Mutate(*rand.Rand) int   { return 0 }
func (emptyOrg) GenerateOutput()         {}
func (emptyOrg) ToString() string        { return "" }
func (emptyOrg) FromString(string) error { return nil }
func (emptyOrg) IsEmpty() bool           { return true }

var empty Organism = emptyOrg{}

// Empty returns the shared sentinel occupying every unoccupied slot.
// Populations never hold nil.
func Empty() Organism { return empty }
