// Package population provides the addressable, resizable container of
// organism slots the kernel evolves. A population is polymorphic over
// its spatial structure through three injected placement functions
// rather than subclassing, so one implementation serves mass-action
// mixing, rings, grids, and arbitrary adjacency graphs alike.
package population

import "demiurge/internal/organism"

// PlaceBirthFun picks a destination slot for an offspring given its
// parent position; an invalid Position declines the placement.
type PlaceBirthFun func(org organism.Organism, ppos Position) Position

// PlaceInjectFun picks a destination slot for a parentless organism.
type PlaceInjectFun func(org organism.Organism) Position

// FindNeighborFun returns one neighbor of a position under the
// population's spatial structure.
type FindNeighborFun func(pos Position) Position

// FindAllNeighborsFun returns every neighbor of a position.
type FindAllNeighborsFun func(pos Position) []Position

// Population is a named, ID-addressable sequence of organism slots.
// Empty slots hold the shared empty sentinel, never nil. Slot count
// changes only through the controller's resize primitives.
type Population struct {
	name    string
	id      int
	slots   []organism.Organism
	numOrgs int

	placeBirth       PlaceBirthFun
	placeInject      PlaceInjectFun
	findNeighbor     FindNeighborFun
	findAllNeighbors FindAllNeighborsFun
}

func New(name string, id, size int) *Population {
	pop := &Population{name: name, id: id}
	pop.slots = make([]organism.Organism, size)
	for i := range pop.slots {
		pop.slots[i] = organism.Empty()
	}
	return pop
}

func (p *Population) Name() string { return p.name }
func (p *Population) ID() int      { return p.id }

// Size reports the slot count, occupied or not.
func (p *Population) Size() int { return len(p.slots) }

// NumOrgs reports the live-occupant count.
func (p *Population) NumOrgs() int { return p.numOrgs }

// At returns the occupant of a slot (the empty sentinel if unoccupied).
func (p *Population) At(index int) organism.Organism { return p.slots[index] }

// IsEmptyAt reports whether a slot is unoccupied.
func (p *Population) IsEmptyAt(index int) bool { return p.slots[index].IsEmpty() }

// SetOrg installs an organism at a slot, transferring ownership to the
// population. Callers must route through controller primitives so that
// lifecycle signals fire; this is the raw slot write they share.
func (p *Population) SetOrg(index int, org organism.Organism) {
	wasEmpty := p.slots[index].IsEmpty()
	p.slots[index] = org
	switch {
	case wasEmpty && !org.IsEmpty():
		p.numOrgs++
	case !wasEmpty && org.IsEmpty():
		p.numOrgs--
	}
}

// Resize grows or shrinks the slot array, filling new slots with the
// empty sentinel. Slots beyond the new size must already be cleared by
// the caller (the controller's resize primitive guarantees this).
func (p *Population) Resize(newSize int) {
	old := len(p.slots)
	if newSize <= old {
		p.slots = p.slots[:newSize]
		return
	}
	for i := old; i < newSize; i++ {
		p.slots = append(p.slots, organism.Empty())
	}
}

// PositionAt wraps a slot index into a Position bound to this population.
func (p *Population) PositionAt(index int) Position { return At(p, index) }

func (p *Population) SetPlaceBirthFun(fn PlaceBirthFun)             { p.placeBirth = fn }
func (p *Population) SetPlaceInjectFun(fn PlaceInjectFun)           { p.placeInject = fn }
func (p *Population) SetFindNeighborFun(fn FindNeighborFun)         { p.findNeighbor = fn }
func (p *Population) SetFindAllNeighborsFun(fn FindAllNeighborsFun) { p.findAllNeighbors = fn }

// PlaceBirth asks the population's placement strategy for an offspring
// destination. An invalid position means the placement was declined.
func (p *Population) PlaceBirth(org organism.Organism, ppos Position) Position {
	if p.placeBirth == nil {
		return InvalidPosition
	}
	return p.placeBirth(org, ppos)
}

// PlaceInject asks the placement strategy for an injection destination.
func (p *Population) PlaceInject(org organism.Organism) Position {
	if p.placeInject == nil {
		return InvalidPosition
	}
	return p.placeInject(org)
}

// FindNeighbor returns a neighbor of pos under the current structure.
func (p *Population) FindNeighbor(pos Position) Position {
	if p.findNeighbor == nil {
		return InvalidPosition
	}
	return p.findNeighbor(pos)
}

// FindAllNeighbors returns all neighbors of pos under the current
// structure; nil when the population is unstructured.
func (p *Population) FindAllNeighbors(pos Position) []Position {
	if p.findAllNeighbors == nil {
		return nil
	}
	return p.findAllNeighbors(pos)
}

// Positions iterates every slot position in order.
func (p *Population) Positions(yield func(Position) bool) {
	for i := range p.slots {
		if !yield(At(p, i)) {
			return
		}
	}
}

// Alive iterates only positions holding live organisms.
func (p *Population) Alive(yield func(Position) bool) {
	for i := range p.slots {
		if p.slots[i].IsEmpty() {
			continue
		}
		if !yield(At(p, i)) {
			return
		}
	}
}
