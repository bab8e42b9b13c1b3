package control

import (
	"math/rand"

	"demiurge/internal/organism"
	"demiurge/internal/population"
	"demiurge/internal/trait"
)

// Module is a registered participant in a run: an evaluator, selector,
// placement policy, analysis tool, or organism manager. Identity (the
// instance name) is unique within a run. Hook methods fire only for
// signals the module declared in its SignalSet.
type Module interface {
	Name() string
	Description() string
	Signals() SignalSet

	// Setup phases, run in registration order across all modules:
	// SetupConfig validates configuration, SetupModule registers traits
	// and performs internal wiring, SetupLayout announces the locked
	// trait layout.
	SetupConfig() error
	SetupModule() error
	SetupLayout(layout *trait.Layout)

	// Lifecycle hooks. The dispatcher only calls hooks whose signal is
	// declared; undeclared hooks are dead code.
	BeforeUpdate(update int)
	OnUpdate(update int)
	BeforeRepro(ppos population.Position)
	OnOffspringReady(off organism.Organism, ppos population.Position, target *population.Population)
	OnInjectReady(org organism.Organism, target *population.Population)
	BeforePlacement(org organism.Organism, pos, ppos population.Position)
	OnPlacement(pos population.Position)
	BeforeMutate(org organism.Organism)
	OnMutate(org organism.Organism, count int)
	BeforeDeath(pos population.Position)
	BeforeSwap(pos1, pos2 population.Position)
	OnSwap(pos1, pos2 population.Position)
	BeforePopResize(pop *population.Population, newSize int)
	OnPopResize(pop *population.Population, oldSize int)
	BeforeExit()
	OnHelp()
}

// OrgManager is implemented by organism-representation modules. The
// controller builds organisms only through managers, so every record is
// created against the locked layout.
type OrgManager interface {
	Module

	// MakeOrganism builds a fresh organism of this representation with a
	// default-initialized trait record.
	MakeOrganism(rng *rand.Rand) organism.Organism
}

// Core carries the state every module shares: identity, declared
// signals, and a non-owning reference to the controller. Concrete
// modules embed it and override the hooks they subscribe to.
type Core struct {
	ctrl    *Controller
	name    string
	desc    string
	signals SignalSet
}

func NewCore(ctrl *Controller, name, desc string, signals SignalSet) Core {
	return Core{ctrl: ctrl, name: name, desc: desc, signals: signals}
}

func (c *Core) Ctrl() *Controller   { return c.ctrl }
func (c *Core) Name() string        { return c.name }
func (c *Core) Description() string { return c.desc }
func (c *Core) Signals() SignalSet  { return c.signals }

func (c *Core) SetupConfig() error        { return nil }
func (c *Core) SetupModule() error        { return nil }
func (c *Core) SetupLayout(*trait.Layout) {}

func (c *Core) BeforeUpdate(int)                {}
func (c *Core) OnUpdate(int)                    {}
func (c *Core) BeforeRepro(population.Position) {}
func (c *Core) OnOffspringReady(organism.Organism, population.Position, *population.Population) {
}
func (c *Core) OnInjectReady(organism.Organism, *population.Population) {}
func (c *Core) BeforePlacement(organism.Organism, population.Position, population.Position) {
}
func (c *Core) OnPlacement(population.Position)                     {}
func (c *Core) BeforeMutate(organism.Organism)                      {}
func (c *Core) OnMutate(organism.Organism, int)                     {}
func (c *Core) BeforeDeath(population.Position)                     {}
func (c *Core) BeforeSwap(population.Position, population.Position) {}
func (c *Core) OnSwap(population.Position, population.Position)     {}
func (c *Core) BeforePopResize(*population.Population, int)         {}
func (c *Core) OnPopResize(*population.Population, int)             {}
func (c *Core) BeforeExit()                                         {}
func (c *Core) OnHelp()                                             {}
