// Package placement holds the spatial-structure modules. A placement
// module claims one or more populations during its SetupModule phase and
// overrides their place-on-birth, place-on-injection, and neighbor
// functions; populations it does not claim keep the controller's naive
// random defaults.
package placement

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"demiurge/internal/control"
	"demiurge/internal/organism"
	"demiurge/internal/params"
	"demiurge/internal/population"
)

// Growth runs a synchronized two-population scheme: births from the
// "main" population land in "next", injections land in "main". Paired
// with a turnover module that moves next back onto main each update.
type Growth struct {
	control.Core

	MainPop string
	NextPop string
}

func NewGrowth(ctrl *control.Controller, name string, p map[string]any) (*Growth, error) {
	dec := params.NewDecoder(p)
	g := &Growth{
		Core:    control.NewCore(ctrl, name, "Place births into the next generation.", 0),
		MainPop: dec.String("main_pop", "main_pop"),
		NextPop: dec.String("next_pop", "next_pop"),
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Growth) SetupModule() error {
	ctrl := g.Ctrl()
	main := ctrl.GetPopulationByName(g.MainPop)
	next := ctrl.GetPopulationByName(g.NextPop)
	if main == nil || next == nil {
		return fmt.Errorf("growth placement needs populations %q and %q", g.MainPop, g.NextPop)
	}

	main.SetPlaceBirthFun(func(_ organism.Organism, ppos population.Position) population.Position {
		// Births not coming from the monitored population are declined.
		if !ppos.IsInPop(main) {
			return population.InvalidPosition
		}
		return ctrl.PushEmpty(next)
	})
	main.SetPlaceInjectFun(func(organism.Organism) population.Position {
		return ctrl.PushEmpty(main)
	})
	main.SetFindNeighborFun(func(pos population.Position) population.Position {
		if !pos.IsInPop(main) {
			return population.InvalidPosition
		}
		return main.PositionAt(ctrl.Random().Intn(main.Size()))
	})
	return nil
}

// Spatial1D arranges a population on a line of fixed width, optionally
// wrapped into a ring. Offspring land beside their parent; neighbors are
// the adjacent cells.
type Spatial1D struct {
	control.Core

	Target string
	Width  int
	Wrap   bool

	pop *population.Population
}

func NewSpatial1D(ctrl *control.Controller, name string, p map[string]any) (*Spatial1D, error) {
	dec := params.NewDecoder(p)
	s := &Spatial1D{
		Core:   control.NewCore(ctrl, name, "Orgs placed on a 1-dimensional line.", 0),
		Target: dec.String("target", ""),
		Width:  dec.Int("grid_width", 10),
		Wrap:   dec.Bool("does_wrap", true),
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Spatial1D) SetupConfig() error {
	if s.Width < 1 {
		return fmt.Errorf("grid_width must be at least 1, got %d", s.Width)
	}
	return nil
}

func (s *Spatial1D) SetupModule() error {
	ctrl := s.Ctrl()
	pop := ctrl.GetPopulationByName(s.Target)
	if pop == nil {
		return fmt.Errorf("spatial placement target %q is not a population", s.Target)
	}
	s.pop = pop

	pop.SetPlaceBirthFun(func(_ organism.Organism, ppos population.Position) population.Position {
		return s.placeBirth(ppos)
	})
	pop.SetPlaceInjectFun(func(organism.Organism) population.Position {
		return s.placeInject()
	})
	pop.SetFindAllNeighborsFun(s.findAllNeighbors)
	pop.SetFindNeighborFun(func(pos population.Position) population.Position {
		neighbors := s.findAllNeighbors(pos)
		if len(neighbors) == 0 {
			return population.InvalidPosition
		}
		return neighbors[ctrl.Random().Intn(len(neighbors))]
	})
	return nil
}

// placeBirth puts the offspring in a random direction beside the parent,
// turning back at an unwrapped edge.
func (s *Spatial1D) placeBirth(ppos population.Position) population.Position {
	if !ppos.IsInPop(s.pop) {
		return population.InvalidPosition
	}
	parent := ppos.Index()
	idx := parent
	if s.Ctrl().Random().Intn(2) == 0 { // left
		switch {
		case parent > 0:
			idx = parent - 1
		case s.Wrap:
			idx = s.Width - 1
		default:
			idx = parent + 1
		}
	} else { // right
		switch {
		case parent < s.Width-1:
			idx = parent + 1
		case s.Wrap:
			idx = 0
		default:
			idx = parent - 1
		}
	}
	for s.pop.Size() <= idx {
		s.Ctrl().PushEmpty(s.pop)
	}
	return s.pop.PositionAt(idx)
}

// placeInject grows the line until it reaches the configured width,
// then overwrites a random cell.
func (s *Spatial1D) placeInject() population.Position {
	if s.pop.Size() < s.Width {
		return s.Ctrl().PushEmpty(s.pop)
	}
	return s.pop.PositionAt(s.Ctrl().Random().Intn(s.pop.Size()))
}

func (s *Spatial1D) findAllNeighbors(pos population.Position) []population.Position {
	if !pos.IsInPop(s.pop) {
		return nil
	}
	idx := pos.Index()
	var out []population.Position
	if idx > 0 {
		out = append(out, s.pop.PositionAt(idx-1))
	} else if s.Wrap {
		out = append(out, s.pop.PositionAt(s.Width-1))
	}
	if idx < s.Width-1 {
		out = append(out, s.pop.PositionAt(idx+1))
	} else if s.Wrap {
		out = append(out, s.pop.PositionAt(0))
	}
	return out
}

// Adjacency places organisms on an explicit adjacency-list graph loaded
// from a file of "source target target..." lines (# comments allowed).
type Adjacency struct {
	control.Core

	Target        string
	Filename      string
	Bidirectional bool

	pop    *population.Population
	adjMap [][]int
}

func NewAdjacency(ctrl *control.Controller, name string, p map[string]any) (*Adjacency, error) {
	dec := params.NewDecoder(p)
	a := &Adjacency{
		Core:          control.NewCore(ctrl, name, "Orgs placed according to an adjacency list.", 0),
		Target:        dec.String("target", ""),
		Filename:      dec.String("adj_filename", ""),
		Bidirectional: dec.Bool("bidirectional_edges", true),
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Adjacency) SetupModule() error {
	ctrl := a.Ctrl()
	pop := ctrl.GetPopulationByName(a.Target)
	if pop == nil {
		return fmt.Errorf("adjacency placement target %q is not a population", a.Target)
	}
	a.pop = pop

	if err := a.loadFile(); err != nil {
		return err
	}

	pop.SetPlaceBirthFun(func(_ organism.Organism, ppos population.Position) population.Position {
		return a.placeBirth(ppos)
	})
	pop.SetPlaceInjectFun(func(organism.Organism) population.Position {
		return a.placeInject()
	})
	pop.SetFindAllNeighborsFun(a.findAllNeighbors)
	pop.SetFindNeighborFun(func(pos population.Position) population.Position {
		neighbors := a.findAllNeighbors(pos)
		if len(neighbors) == 0 {
			return population.InvalidPosition
		}
		return neighbors[ctrl.Random().Intn(len(neighbors))]
	})
	return nil
}

// SetAdjacency installs an adjacency list directly, for graphs built in
// code rather than loaded from a file.
func (a *Adjacency) SetAdjacency(adjMap [][]int) { a.adjMap = adjMap }

func (a *Adjacency) NumNodes() int { return len(a.adjMap) }

func (a *Adjacency) loadFile() error {
	if a.Filename == "" {
		if a.adjMap != nil {
			return nil
		}
		return fmt.Errorf("no filename given for adjacency list")
	}
	f, err := os.Open(a.Filename)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		source, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("bad adjacency source %q: %w", fields[0], err)
		}
		a.growTo(source)
		for _, field := range fields[1:] {
			target, err := strconv.Atoi(field)
			if err != nil {
				return fmt.Errorf("bad adjacency target %q: %w", field, err)
			}
			a.adjMap[source] = append(a.adjMap[source], target)
			if a.Bidirectional {
				a.growTo(target)
				a.adjMap[target] = append(a.adjMap[target], source)
			}
		}
	}
	return scanner.Err()
}

func (a *Adjacency) growTo(node int) {
	for len(a.adjMap) <= node {
		a.adjMap = append(a.adjMap, nil)
	}
}

// placeBirth picks a random graph neighbor of the parent; a node with no
// neighbors replaces itself.
func (a *Adjacency) placeBirth(ppos population.Position) population.Position {
	if !ppos.IsInPop(a.pop) {
		return population.InvalidPosition
	}
	parent := ppos.Index()
	if parent >= len(a.adjMap) {
		return population.InvalidPosition
	}
	neighbors := a.adjMap[parent]
	if len(neighbors) == 0 {
		return a.pop.PositionAt(parent)
	}
	idx := neighbors[a.Ctrl().Random().Intn(len(neighbors))]
	for a.pop.Size() <= idx {
		a.Ctrl().PushEmpty(a.pop)
	}
	return a.pop.PositionAt(idx)
}

func (a *Adjacency) placeInject() population.Position {
	if a.pop.Size() < len(a.adjMap) {
		return a.Ctrl().PushEmpty(a.pop)
	}
	return a.pop.PositionAt(a.Ctrl().Random().Intn(a.pop.Size()))
}

func (a *Adjacency) findAllNeighbors(pos population.Position) []population.Position {
	if !pos.IsInPop(a.pop) || pos.Index() >= len(a.adjMap) {
		return nil
	}
	var out []population.Position
	for _, idx := range a.adjMap[pos.Index()] {
		out = append(out, a.pop.PositionAt(idx))
	}
	return out
}

func init() {
	control.MustRegisterType(control.TypeInfo{
		Name: "GrowthPlacement",
		Desc: "Place births into the next generation.",
		Factory: func(ctrl *control.Controller, name string, p map[string]any) (control.Module, error) {
			return NewGrowth(ctrl, name, p)
		},
	})
	control.MustRegisterType(control.TypeInfo{
		Name: "Spatial1DPlacement",
		Desc: "Orgs placed on a 1-dimensional line.",
		Factory: func(ctrl *control.Controller, name string, p map[string]any) (control.Module, error) {
			return NewSpatial1D(ctrl, name, p)
		},
	})
	control.MustRegisterType(control.TypeInfo{
		Name: "AdjacencyPlacement",
		Desc: "Orgs placed according to an adjacency list.",
		Factory: func(ctrl *control.Controller, name string, p map[string]any) (control.Module, error) {
			return NewAdjacency(ctrl, name, p)
		},
	})
}
