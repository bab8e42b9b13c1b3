// Package control implements the simulation kernel: the controller that
// owns populations, modules, the random source, and the trait registry,
// and that orchestrates setup phases, the discrete update loop, and
// every organism injection, birth, death, and move.
package control

import (
	"fmt"
	"io"
	"math/rand"

	"demiurge/internal/actionmap"
	"demiurge/internal/notify"
	"demiurge/internal/organism"
	"demiurge/internal/population"
	"demiurge/internal/trait"
)

const Version = "0.1.0"

// Host is the configuration-script collaborator surface. The kernel
// does not interpret configuration text; it forwards Load and Execute
// to the host and fires named script events at fixed points of the
// update and reproduction protocols.
type Host interface {
	Load(source io.Reader, label string) error
	Execute(statement string) (any, error)
	Trigger(event string, update int)
}

// Script event names the kernel fires.
const (
	EventStart       = "START"
	EventUpdate      = "UPDATE"
	EventBeforeRepro = "BEFORE_REPRO"
)

// Controller is the master object for one run. It owns all process-wide
// singular resources; modules hold non-owning back-references and must
// not outlive it. All operation is single-threaded and synchronous:
// determinism depends on every random draw happening in signal order.
type Controller struct {
	seed int64
	rng  *rand.Rand

	notifier *notify.Notifier
	traits   *trait.Registry
	layout   *trait.Layout

	pops       []*population.Population
	actionMaps []*actionmap.Map

	modules   []Module
	modByName map[string]Module

	subscribers [numSignals][]Module
	rescan      bool

	host Host

	update        int
	exitRequested bool
	isSetup       bool
}

func New(seed int64) *Controller {
	return &Controller{
		seed:      seed,
		rng:       rand.New(rand.NewSource(seed)),
		notifier:  notify.New(nil),
		traits:    trait.NewRegistry(),
		modByName: make(map[string]Module),
		rescan:    true,
	}
}

func (c *Controller) Random() *rand.Rand         { return c.rng }
func (c *Controller) RandomSeed() int64          { return c.seed }
func (c *Controller) Notifier() *notify.Notifier { return c.notifier }
func (c *Controller) Traits() *trait.Registry    { return c.traits }
func (c *Controller) Update() int                { return c.update }

// SetRandomSeed resets the shared random source. Only meaningful before
// the first update if reproducibility matters.
func (c *Controller) SetRandomSeed(seed int64) {
	c.seed = seed
	c.rng = rand.New(rand.NewSource(seed))
}

// Layout returns the locked organism trait layout; nil before Setup.
func (c *Controller) Layout() *trait.Layout { return c.layout }

// SetHost attaches the configuration-script collaborator.
func (c *Controller) SetHost(host Host) { c.host = host }

// Load forwards configuration text to the script host.
func (c *Controller) Load(source io.Reader, label string) error {
	if c.host == nil {
		return fmt.Errorf("no script host attached (loading %s)", label)
	}
	return c.host.Load(source, label)
}

// Execute forwards a single statement to the script host and returns
// its computed value.
func (c *Controller) Execute(statement string) (any, error) {
	if c.host == nil {
		return nil, fmt.Errorf("no script host attached")
	}
	return c.host.Execute(statement)
}

func (c *Controller) trigger(event string) {
	if c.host != nil {
		c.host.Trigger(event, c.update)
	}
}

// RequestExit raises the run's sole cancellation flag. It is observed at
// the top of each update tick and after each setup phase; an in-progress
// tick completes its already-dispatched signals first.
func (c *Controller) RequestExit() { c.exitRequested = true }

func (c *Controller) ExitRequested() bool { return c.exitRequested }

// --- Population management ---

// AddPopulation creates a population with naive default placement:
// injections and births append an empty slot, neighbors are drawn
// uniformly at random. Placement modules override these during their
// own SetupModule phase; a population with no placement module falls
// back to unstructured mixing.
func (c *Controller) AddPopulation(name string, size int) *population.Population {
	pop := population.New(name, len(c.pops), size)
	c.pops = append(c.pops, pop)
	c.actionMaps = append(c.actionMaps, actionmap.New())

	pop.SetPlaceInjectFun(func(organism.Organism) population.Position {
		return c.PushEmpty(pop)
	})
	pop.SetPlaceBirthFun(func(organism.Organism, population.Position) population.Position {
		return c.PushEmpty(pop)
	})
	pop.SetFindNeighborFun(func(pos population.Position) population.Position {
		if !pos.IsInPop(pop) {
			return population.InvalidPosition
		}
		// No structure: any slot is a neighbor.
		return pop.PositionAt(c.rng.Intn(pop.Size()))
	})
	return pop
}

func (c *Controller) NumPopulations() int { return len(c.pops) }

// GetPopID returns the ID of a named population, or -1 when unknown.
// Callers are contractually required to check the sentinel.
func (c *Controller) GetPopID(name string) int {
	for _, pop := range c.pops {
		if pop.Name() == name {
			return pop.ID()
		}
	}
	return -1
}

func (c *Controller) GetPopulation(id int) *population.Population { return c.pops[id] }

// GetPopulationByName returns nil for unknown names; use GetPopID when a
// sentinel check is preferred.
func (c *Controller) GetPopulationByName(name string) *population.Population {
	id := c.GetPopID(name)
	if id < 0 {
		return nil
	}
	return c.pops[id]
}

// ActionMap returns the callable registry attached to a population.
func (c *Controller) ActionMap(popID int) *actionmap.Map { return c.actionMaps[popID] }

// --- Module management ---

// AddModule registers a constructed module. Module names are unique
// within a run; a collision is a fatal configuration error.
func (c *Controller) AddModule(mod Module) error {
	if mod.Name() == "" {
		return fmt.Errorf("module name is required")
	}
	if _, exists := c.modByName[mod.Name()]; exists {
		return fmt.Errorf("duplicate module name: %s", mod.Name())
	}
	c.modules = append(c.modules, mod)
	c.modByName[mod.Name()] = mod
	c.rescan = true
	return nil
}

// NewNamedModule instantiates a registered module type and adds it.
func (c *Controller) NewNamedModule(typeName, instName string, params map[string]any) (Module, error) {
	info, ok := LookupType(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, typeName)
	}
	mod, err := info.Factory(c, instName, params)
	if err != nil {
		return nil, fmt.Errorf("construct module %s (%s): %w", instName, typeName, err)
	}
	if err := c.AddModule(mod); err != nil {
		return nil, err
	}
	return mod, nil
}

func (c *Controller) NumModules() int { return len(c.modules) }

// GetModuleID returns the registration index of a named module, or -1.
func (c *Controller) GetModuleID(name string) int {
	for i, mod := range c.modules {
		if mod.Name() == name {
			return i
		}
	}
	return -1
}

func (c *Controller) GetModule(name string) Module { return c.modByName[name] }

// GetOrgManager resolves a named module as an organism manager; nil when
// the module is unknown or not a manager.
func (c *Controller) GetOrgManager(name string) OrgManager {
	mgr, _ := c.modByName[name].(OrgManager)
	return mgr
}

// MarkSignalsDirty schedules a lazy rebuild of the per-signal subscriber
// lists before the next dispatch.
func (c *Controller) MarkSignalsDirty() { c.rescan = true }

// UpdateSignals rebuilds, for every signal, the ordered subscriber list.
// Ordering follows module registration order, so dispatch is
// deterministic and reproducible for a fixed configuration.
func (c *Controller) UpdateSignals() {
	for sig := range c.subscribers {
		c.subscribers[sig] = c.subscribers[sig][:0]
	}
	for _, mod := range c.modules {
		set := mod.Signals()
		for sig := Signal(0); sig < numSignals; sig++ {
			if set.Has(sig) {
				c.subscribers[sig] = append(c.subscribers[sig], mod)
			}
		}
	}
	c.rescan = false
}

// --- Setup and the update loop ---

// Setup runs every module's configuration phases in registration order,
// verifies and locks the trait layout, and rebuilds signal lists.
// Returns false when any phase requested an early exit or reported a
// fatal error; the caller must not proceed to simulate.
func (c *Controller) Setup() bool {
	if c.exitRequested {
		return false
	}

	for _, mod := range c.modules {
		if err := mod.SetupConfig(); err != nil {
			c.notifier.Errorf("module %s configuration: %v", mod.Name(), err)
			return false
		}
	}
	for _, mod := range c.modules {
		if err := mod.SetupModule(); err != nil {
			c.notifier.Errorf("module %s setup: %v", mod.Name(), err)
			return false
		}
	}

	if err := c.traits.Verify(); err != nil {
		c.notifier.Errorf("trait verification failed: %v", err)
		return false
	}
	c.layout = c.traits.BuildLayout()
	for _, mod := range c.modules {
		mod.SetupLayout(c.layout)
	}

	c.UpdateSignals()
	c.isSetup = true
	return !c.exitRequested
}

// RunUpdates advances the simulation clock n ticks. On the very first
// tick of a run the START script event fires once. The loop halts early
// when any module or script raises the exit flag.
func (c *Controller) RunUpdates(n int) {
	if c.update == 0 {
		c.trigger(EventStart)
	}
	target := c.update + n
	for c.update < target && !c.exitRequested {
		c.tick()
	}
}

// RunForever advances the clock until the exit flag is raised.
func (c *Controller) RunForever() {
	if c.update == 0 {
		c.trigger(EventStart)
	}
	for !c.exitRequested {
		c.tick()
	}
}

func (c *Controller) tick() {
	if c.rescan {
		c.UpdateSignals()
	}
	for _, mod := range c.subscribers[SigBeforeUpdate] {
		mod.BeforeUpdate(c.update)
	}
	c.update++
	for _, mod := range c.subscribers[SigOnUpdate] {
		mod.OnUpdate(c.update)
	}
	c.trigger(EventUpdate)
}

// Help fires the on-help signal so subscribed modules can describe
// themselves beyond their registered type information.
func (c *Controller) Help() {
	if c.rescan {
		c.UpdateSignals()
	}
	for _, mod := range c.subscribers[SigOnHelp] {
		mod.OnHelp()
	}
}

// Teardown fires the before-exit signal and releases every population's
// occupants. Populations are torn down before modules are dropped.
func (c *Controller) Teardown() {
	if c.rescan {
		c.UpdateSignals()
	}
	for _, mod := range c.subscribers[SigBeforeExit] {
		mod.BeforeExit()
	}
	for _, pop := range c.pops {
		c.ClearPop(pop)
	}
	c.pops = nil
	c.actionMaps = nil
	c.modules = nil
	c.modByName = make(map[string]Module)
	for sig := range c.subscribers {
		c.subscribers[sig] = nil
	}
}
