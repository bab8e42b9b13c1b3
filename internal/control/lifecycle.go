package control

import (
	"fmt"

	"demiurge/internal/organism"
	"demiurge/internal/population"
)

// assertLayout is the programming-error-class check that an organism's
// trait record matches the run's locked layout. A mismatch means an
// organism was built outside the controller's construction path.
func (c *Controller) assertLayout(org organism.Organism) {
	rec := org.Traits()
	if rec == nil || rec.Layout() != c.layout {
		panic(fmt.Sprintf("control: organism record layout does not match run layout (%v)", org))
	}
}

// AddOrgAt commits an organism into a slot, killing any occupant.
// Fires before-placement ahead of the slot mutation and on-placement
// after it. ppos is the parent position for births, invalid otherwise.
func (c *Controller) AddOrgAt(org organism.Organism, pos, ppos population.Position) {
	if !pos.IsValid() {
		panic("control: AddOrgAt on invalid position")
	}
	c.assertLayout(org)

	for _, mod := range c.subscribers[SigBeforePlacement] {
		mod.BeforePlacement(org, pos, ppos)
	}
	c.ClearOrgAt(pos)
	pos.Pop().SetOrg(pos.Index(), org)
	for _, mod := range c.subscribers[SigOnPlacement] {
		mod.OnPlacement(pos)
	}
}

// ClearOrgAt destroys the occupant of a slot and marks it empty.
// The before-death signal fires prior to slot clearing, so trackers see
// the organism while it is still addressable. Clearing an already-empty
// slot is a no-op with no signals.
func (c *Controller) ClearOrgAt(pos population.Position) {
	if !pos.IsValid() {
		panic("control: ClearOrgAt on invalid position")
	}
	if !pos.IsOccupied() {
		return
	}
	for _, mod := range c.subscribers[SigBeforeDeath] {
		mod.BeforeDeath(pos)
	}
	pos.Pop().SetOrg(pos.Index(), organism.Empty())
}

// SwapOrgs exchanges the occupants of two slots, empty or not.
func (c *Controller) SwapOrgs(pos1, pos2 population.Position) {
	if !pos1.IsValid() || !pos2.IsValid() {
		panic("control: SwapOrgs on invalid position")
	}
	for _, mod := range c.subscribers[SigBeforeSwap] {
		mod.BeforeSwap(pos1, pos2)
	}
	org1 := pos1.Org()
	org2 := pos2.Org()
	pos1.Pop().SetOrg(pos1.Index(), org2)
	pos2.Pop().SetOrg(pos2.Index(), org1)
	for _, mod := range c.subscribers[SigOnSwap] {
		mod.OnSwap(pos1, pos2)
	}
}

// MoveOrg relocates an organism, killing anything previously at the
// destination. Moving a position onto itself is a guarded no-op: no
// signals fire and the occupant is untouched.
func (c *Controller) MoveOrg(from, to population.Position) {
	if from == to {
		return
	}
	c.ClearOrgAt(to)
	c.SwapOrgs(from, to)
}

// ResizePop changes a population's slot count through the one legal
// path. Occupants of dying slots are cleared (with death signals)
// before the resize; modules observe before/on pop-resize around it.
func (c *Controller) ResizePop(pop *population.Population, newSize int) {
	for _, mod := range c.subscribers[SigBeforePopResize] {
		mod.BeforePopResize(pop, newSize)
	}
	oldSize := pop.Size()
	for i := newSize; i < oldSize; i++ {
		c.ClearOrgAt(pop.PositionAt(i))
	}
	pop.Resize(newSize)
	for _, mod := range c.subscribers[SigOnPopResize] {
		mod.OnPopResize(pop, oldSize)
	}
}

// PushEmpty grows a population by one slot and returns its position.
// The naive default placement functions are built on it.
func (c *Controller) PushEmpty(pop *population.Population) population.Position {
	newIndex := pop.Size()
	c.ResizePop(pop, newIndex+1)
	return pop.PositionAt(newIndex)
}

// --- Injection ---

// Inject adds copyCount clones of an organism to a population with no
// parent. Each clone fires on-inject-ready before the population's
// place-on-injection function picks its slot. An invalid slot discards
// that clone and warns; the run continues with one organism fewer.
// Returns the positions actually filled.
func (c *Controller) Inject(pop *population.Population, org organism.Organism, copyCount int) []population.Position {
	c.assertLayout(org)
	var placed []population.Position
	for i := 0; i < copyCount; i++ {
		clone := org.Clone()
		c.injectReady(clone, pop)
		pos := pop.PlaceInject(clone)
		if pos.IsValid() {
			c.AddOrgAt(clone, pos, population.InvalidPosition)
			placed = append(placed, pos)
		} else {
			c.notifier.Warningf("invalid position; failed to inject organism %d into population %s", i, pop.Name())
		}
	}
	return placed
}

// InjectInstance adds one specific organism instance, turning ownership
// over to the population. Returns the filled position, invalid on a
// declined placement.
func (c *Controller) InjectInstance(pop *population.Population, org organism.Organism) population.Position {
	c.assertLayout(org)
	c.injectReady(org, pop)
	pos := pop.PlaceInject(org)
	if pos.IsValid() {
		c.AddOrgAt(org, pos, population.InvalidPosition)
	} else {
		c.notifier.Warningf("invalid position; failed to inject organism into population %s", pop.Name())
	}
	return pos
}

// InjectAt places a clone of the organism at an explicit position.
func (c *Controller) InjectAt(org organism.Organism, pos population.Position) {
	if !pos.IsValid() {
		panic("control: InjectAt on invalid position")
	}
	clone := org.Clone()
	c.injectReady(clone, pos.Pop())
	c.AddOrgAt(clone, pos, population.InvalidPosition)
}

// InjectByType builds copyCount fresh organisms from a named organism
// manager and injects them.
func (c *Controller) InjectByType(pop *population.Population, typeName string, copyCount int) []population.Position {
	mgr := c.GetOrgManager(typeName)
	if mgr == nil {
		c.notifier.Errorf("unknown organism type %q in inject", typeName)
		return nil
	}
	var placed []population.Position
	for i := 0; i < copyCount; i++ {
		org := mgr.MakeOrganism(c.rng)
		if pos := c.InjectInstance(pop, org); pos.IsValid() {
			placed = append(placed, pos)
		}
	}
	return placed
}

// InjectByName resolves the population by name first; an unknown name
// is reported and injects nothing.
func (c *Controller) InjectByName(popName, typeName string, copyCount int) []population.Position {
	popID := c.GetPopID(popName)
	if popID < 0 {
		c.notifier.Errorf("invalid population name %q in inject (org_type=%q copy_count=%d)",
			popName, typeName, copyCount)
		return nil
	}
	return c.InjectByType(c.pops[popID], typeName, copyCount)
}

// InjectGenome injects copyCount organisms built from a serialized
// genome string parsed by the named organism manager.
func (c *Controller) InjectGenome(pop *population.Population, typeName, genome string, copyCount int) []population.Position {
	mgr := c.GetOrgManager(typeName)
	if mgr == nil {
		c.notifier.Errorf("unknown organism type %q in genome inject", typeName)
		return nil
	}
	proto := mgr.MakeOrganism(c.rng)
	if err := proto.FromString(genome); err != nil {
		c.notifier.Errorf("cannot parse genome %q as %s: %v", genome, typeName, err)
		return nil
	}
	var placed []population.Position
	for i := 0; i < copyCount; i++ {
		if pos := c.InjectInstance(pop, proto.Clone()); pos.IsValid() {
			placed = append(placed, pos)
		}
	}
	return placed
}

// InjectGenomeAt builds one organism from a serialized genome and places
// it at an explicit position.
func (c *Controller) InjectGenomeAt(pop *population.Population, typeName, genome string, pos population.Position) error {
	mgr := c.GetOrgManager(typeName)
	if mgr == nil {
		return fmt.Errorf("unknown organism type %q", typeName)
	}
	org := mgr.MakeOrganism(c.rng)
	if err := org.FromString(genome); err != nil {
		return fmt.Errorf("parse genome as %s: %w", typeName, err)
	}
	c.injectReady(org, pop)
	if !pos.IsValid() {
		return fmt.Errorf("invalid position for genome inject into %s", pop.Name())
	}
	c.AddOrgAt(org, pos, population.InvalidPosition)
	return nil
}

func (c *Controller) injectReady(org organism.Organism, pop *population.Population) {
	for _, mod := range c.subscribers[SigOnInjectReady] {
		mod.OnInjectReady(org, pop)
	}
}

// --- Reproduction ---

// DoBirth runs the reproduction protocol: one before-repro signal
// regardless of birthCount, then per offspring a clone (mutated when
// applyMutations), on-offspring-ready, and a place-on-birth decision.
// Valid placements are committed through AddOrgAt; invalid ones discard
// the offspring with a warning, shrinking the realized generation.
// birthCount of zero is legal: the before-repro signal still fires and
// the result is empty.
func (c *Controller) DoBirth(org organism.Organism, ppos population.Position,
	targetPop *population.Population, birthCount int, applyMutations bool) []population.Position {

	if org.IsEmpty() {
		panic("control: DoBirth from an empty organism")
	}
	for _, mod := range c.subscribers[SigBeforeRepro] {
		mod.BeforeRepro(ppos)
	}
	c.trigger(EventBeforeRepro)

	var placed []population.Position
	for i := 0; i < birthCount; i++ {
		child := c.makeOffspring(org, applyMutations)
		for _, mod := range c.subscribers[SigOnOffspringReady] {
			mod.OnOffspringReady(child, ppos, targetPop)
		}
		pos := targetPop.PlaceBirth(child, ppos)
		if pos.IsValid() {
			c.AddOrgAt(child, pos, ppos)
			placed = append(placed, pos)
		} else {
			c.notifier.Warningf("invalid position; offspring %d of %s discarded", i, ppos)
		}
	}
	return placed
}

// DoBirthAt is the positional form: the offspring destination is
// already decided and must be valid.
func (c *Controller) DoBirthAt(org organism.Organism, ppos, targetPos population.Position, applyMutations bool) population.Position {
	if org.IsEmpty() {
		panic("control: DoBirthAt from an empty organism")
	}
	if !targetPos.IsValid() {
		panic("control: DoBirthAt on invalid target position")
	}
	for _, mod := range c.subscribers[SigBeforeRepro] {
		mod.BeforeRepro(ppos)
	}
	c.trigger(EventBeforeRepro)

	child := c.makeOffspring(org, applyMutations)
	for _, mod := range c.subscribers[SigOnOffspringReady] {
		mod.OnOffspringReady(child, ppos, targetPos.Pop())
	}
	c.AddOrgAt(child, targetPos, ppos)
	return targetPos
}

// Replicate is the DoBirth shortcut where the parent is named by
// position alone.
func (c *Controller) Replicate(ppos population.Position, targetPop *population.Population,
	birthCount int, applyMutations bool) []population.Position {
	return c.DoBirth(ppos.Org(), ppos, targetPop, birthCount, applyMutations)
}

func (c *Controller) makeOffspring(parent organism.Organism, applyMutations bool) organism.Organism {
	child := parent.Clone()
	if applyMutations {
		for _, mod := range c.subscribers[SigBeforeMutate] {
			mod.BeforeMutate(child)
		}
		count := child.Mutate(c.rng)
		for _, mod := range c.subscribers[SigOnMutate] {
			mod.OnMutate(child, count)
		}
	}
	return child
}

// --- Bulk population operations, built strictly on the primitives ---

// ClearPop destroys every occupant; slot count is unchanged.
func (c *Controller) ClearPop(pop *population.Population) {
	for i := 0; i < pop.Size(); i++ {
		c.ClearOrgAt(pop.PositionAt(i))
	}
}

// EmptyPop clears a population and resizes it.
func (c *Controller) EmptyPop(pop *population.Population, newSize int) {
	c.ClearPop(pop)
	c.ResizePop(pop, newSize)
}

// CopyPop empties the destination to the source's size, then injects a
// clone of every live occupant slot-for-slot. Trait data rides along on
// the cloned records rather than being reconstructed.
func (c *Controller) CopyPop(from, to *population.Population) {
	c.EmptyPop(to, from.Size())
	for i := 0; i < from.Size(); i++ {
		if from.IsEmptyAt(i) {
			continue
		}
		c.InjectAt(from.At(i), to.PositionAt(i))
	}
}

// MoveOrgs relocates every occupant of one population into another,
// emptying the source afterwards. With resetTo, the destination is
// first emptied to the source's size; otherwise it grows to append.
func (c *Controller) MoveOrgs(from, to *population.Population, resetTo bool) {
	start := to.Size()
	if resetTo {
		c.EmptyPop(to, from.Size())
		start = 0
	} else {
		c.ResizePop(to, to.Size()+from.Size())
	}

	for i := 0; i < from.Size(); i++ {
		if from.IsEmptyAt(i) {
			continue
		}
		c.MoveOrg(from.PositionAt(i), to.PositionAt(start+i))
	}
	c.EmptyPop(from, 0)
}

// --- Random positions ---

// GetRandomPos draws a uniformly random slot, occupied or not.
func (c *Controller) GetRandomPos(pop *population.Population) population.Position {
	if pop.Size() == 0 {
		panic("control: GetRandomPos on empty-sized population")
	}
	return pop.PositionAt(c.rng.Intn(pop.Size()))
}

// GetRandomOrgPos draws a uniformly random occupied slot.
func (c *Controller) GetRandomOrgPos(pop *population.Population) population.Position {
	if pop.NumOrgs() == 0 {
		panic("control: GetRandomOrgPos requires at least one live organism")
	}
	pos := c.GetRandomPos(pop)
	for !pos.IsOccupied() {
		pos = c.GetRandomPos(pop)
	}
	return pos
}
