// Package orgs holds organism representations. Each representation is a
// manager module owning representation-wide configuration that all of
// its organism instances share through a back-reference, plus the
// organism type itself.
package orgs

import (
	"fmt"
	"math/rand"
	"strings"

	"demiurge/internal/control"
	"demiurge/internal/organism"
	"demiurge/internal/params"
	"demiurge/internal/trait"
)

// BitsManager manages bit-vector organisms. Genome length, mutation
// count, and the output trait name are shared by every instance; the
// organisms themselves carry only their bits and trait record.
type BitsManager struct {
	control.Core

	NumBits      int
	MutationHits int
	OutputTrait  string

	layout *trait.Layout
}

func NewBitsManager(ctrl *control.Controller, name string, p map[string]any) (*BitsManager, error) {
	dec := params.NewDecoder(p)
	m := &BitsManager{
		Core:         control.NewCore(ctrl, name, "Organisms consisting of a series of bits.", 0),
		NumBits:      dec.Int("N", 100),
		MutationHits: dec.Int("mut_count", 3),
		OutputTrait:  dec.String("output_trait", "bits"),
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *BitsManager) SetupConfig() error {
	if m.NumBits <= 0 {
		return fmt.Errorf("N must be positive, got %d", m.NumBits)
	}
	if m.MutationHits < 0 {
		return fmt.Errorf("mut_count must be non-negative, got %d", m.MutationHits)
	}
	return nil
}

func (m *BitsManager) SetupModule() error {
	return m.Ctrl().Traits().Register(m.Name(), m.OutputTrait, trait.KindString, trait.RoleOwned,
		trait.WithDesc("Bit sequence output of the organism."))
}

func (m *BitsManager) SetupLayout(layout *trait.Layout) { m.layout = layout }

// MakeOrganism builds a fresh organism with uniform random bits and a
// default-initialized trait record.
func (m *BitsManager) MakeOrganism(rng *rand.Rand) organism.Organism {
	if m.layout == nil {
		panic("orgs: MakeOrganism before layout lock")
	}
	org := &BitsOrg{manager: m}
	org.SetTraits(m.layout.NewRecord())
	org.bits = make([]bool, m.NumBits)
	for i := range org.bits {
		org.bits[i] = rng.Intn(2) == 1
	}
	return org
}

// BitsOrg is a series of bits.
type BitsOrg struct {
	organism.Base
	manager *BitsManager
	bits    []bool
}

func (o *BitsOrg) Clone() organism.Organism {
	clone := &BitsOrg{manager: o.manager}
	clone.SetTraits(o.Traits().Copy())
	clone.bits = append([]bool(nil), o.bits...)
	return clone
}

// Mutate sets a fixed number of random positions to random values, as
// configured on the manager.
func (o *BitsOrg) Mutate(rng *rand.Rand) int {
	if len(o.bits) == 0 {
		return 0
	}
	hits := o.manager.MutationHits
	for i := 0; i < hits; i++ {
		o.bits[rng.Intn(len(o.bits))] = rng.Intn(2) == 1
	}
	return hits
}

// GenerateOutput writes the bit sequence into the configured output trait.
func (o *BitsOrg) GenerateOutput() {
	o.Traits().SetString(o.manager.OutputTrait, o.ToString())
}

func (o *BitsOrg) ToString() string {
	var b strings.Builder
	b.Grow(len(o.bits))
	for _, bit := range o.bits {
		if bit {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func (o *BitsOrg) FromString(genome string) error {
	bits := make([]bool, len(genome))
	for i := 0; i < len(genome); i++ {
		switch genome[i] {
		case '0':
			bits[i] = false
		case '1':
			bits[i] = true
		default:
			return fmt.Errorf("invalid bit %q at position %d", genome[i], i)
		}
	}
	o.bits = bits
	return nil
}

// Bits exposes the raw genome for evaluators that bypass trait output.
func (o *BitsOrg) Bits() []bool { return o.bits }

func init() {
	control.MustRegisterType(control.TypeInfo{
		Name: "BitsOrg",
		Desc: "Organism consisting of a series of bits.",
		Factory: func(ctrl *control.Controller, name string, p map[string]any) (control.Module, error) {
			return NewBitsManager(ctrl, name, p)
		},
		Members: []control.MemberFunc{{
			Name: "INJECT",
			Desc: "Inject fresh random organisms: INJECT(pop, count).",
			Fn: func(ctrl *control.Controller, mod control.Module, args []any) (any, error) {
				if len(args) != 2 {
					return nil, fmt.Errorf("INJECT wants (pop, count), got %d args", len(args))
				}
				popName, ok := args[0].(string)
				if !ok {
					return nil, fmt.Errorf("INJECT: population name must be a string, got %T", args[0])
				}
				count, ok := params.AsInt(args[1])
				if !ok {
					return nil, fmt.Errorf("INJECT: count must be an integer, got %T", args[1])
				}
				placed := ctrl.InjectByName(popName, mod.Name(), count)
				return len(placed), nil
			},
		}},
	})
}
