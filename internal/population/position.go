package population

import (
	"fmt"

	"demiurge/internal/organism"
)

// Position locates one organism slot: a population reference plus a slot
// index. It is a value type with an explicit invalid state (no population
// bound) so placement and birth protocols can reject illegal destinations
// before mutating anything.
type Position struct {
	pop   *Population
	index int
}

// InvalidPosition is the canonical "no placement" value.
var InvalidPosition = Position{}

func At(pop *Population, index int) Position {
	return Position{pop: pop, index: index}
}

// IsValid reports whether the position names an existing slot.
func (p Position) IsValid() bool {
	return p.pop != nil && p.index >= 0 && p.index < p.pop.Size()
}

func (p Position) Pop() *Population { return p.pop }

// PopID returns the bound population's ID, or -1 when unbound.
func (p Position) PopID() int {
	if p.pop == nil {
		return -1
	}
	return p.pop.ID()
}

func (p Position) Index() int { return p.index }

// IsInPop reports whether the position belongs to the given population.
func (p Position) IsInPop(pop *Population) bool { return p.pop == pop }

// Org returns the occupant at the position (the empty sentinel for
// unoccupied slots). Panics on an invalid position.
func (p Position) Org() organism.Organism {
	if !p.IsValid() {
		panic("population: Org on invalid position")
	}
	return p.pop.At(p.index)
}

// IsOccupied reports whether the position is valid and holds a live organism.
func (p Position) IsOccupied() bool {
	return p.IsValid() && !p.pop.At(p.index).IsEmpty()
}

func (p Position) String() string {
	if p.pop == nil {
		return "pos(invalid)"
	}
	return fmt.Sprintf("pos(%s:%d)", p.pop.Name(), p.index)
}
