// Package selection implements the selection schemes that consume
// fitness traits and drive the controller's birth primitives: elite,
// tournament, and roulette selection.
package selection

import (
	"fmt"
	"math"
	"sort"

	"demiurge/internal/control"
	"demiurge/internal/params"
	"demiurge/internal/population"
	"demiurge/internal/trait"
)

// rankedPositions returns the live positions of a population sorted by
// descending fitness; ties keep slot order so results are reproducible.
func rankedPositions(pop *population.Population, fitnessTrait string) []population.Position {
	var ranked []population.Position
	for pos := range pop.Alive {
		ranked = append(ranked, pos)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Org().Traits().GetFloat(fitnessTrait) >
			ranked[j].Org().Traits().GetFloat(fitnessTrait)
	})
	return ranked
}

func fitnessOf(pos population.Position, fitnessTrait string) float64 {
	return pos.Org().Traits().GetFloat(fitnessTrait)
}

// Elite replicates the top-fitness organisms, splitting the requested
// births across the top set.
type Elite struct {
	control.Core

	FitnessTrait string
	TopCount     int
}

func NewElite(ctrl *control.Controller, name string, p map[string]any) (*Elite, error) {
	dec := params.NewDecoder(p)
	e := &Elite{
		Core:         control.NewCore(ctrl, name, "Choose the top fitness organisms for replication.", 0),
		FitnessTrait: dec.String("fitness_trait", "fitness"),
		TopCount:     dec.Int("top_count", 1),
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Elite) SetupConfig() error {
	if e.TopCount < 1 {
		return fmt.Errorf("top_count must be at least 1, got %d", e.TopCount)
	}
	return nil
}

func (e *Elite) SetupModule() error {
	// The fitness trait must be produced by another module.
	return e.Ctrl().Traits().Register(e.Name(), e.FitnessTrait, trait.KindFloat, trait.RoleRequired,
		trait.WithDesc("Fitness value used for selection."))
}

// Select replicates numBirths offspring from the top TopCount organisms
// of selectPop into birthPop, splitting births evenly with the earlier
// (fitter) organisms taking the ceiling share.
func (e *Elite) Select(selectPop, birthPop *population.Population, numBirths int) []population.Position {
	ranked := rankedPositions(selectPop, e.FitnessTrait)
	var placed []population.Position
	remainingTop := e.TopCount
	remaining := numBirths
	for _, pos := range ranked {
		if remainingTop == 0 || remaining <= 0 {
			break
		}
		copyCount := int(math.Ceil(float64(remaining) / float64(remainingTop)))
		remainingTop--
		remaining -= copyCount
		placed = append(placed, e.Ctrl().Replicate(pos, birthPop, copyCount, true)...)
	}
	return placed
}

// Tournament replicates winners of random subgroups. Subgroups are drawn
// without replacement, so a tournament at least as large as the live
// population always selects its maximum-fitness organism.
type Tournament struct {
	control.Core

	FitnessTrait   string
	TournamentSize int
}

func NewTournament(ctrl *control.Controller, name string, p map[string]any) (*Tournament, error) {
	dec := params.NewDecoder(p)
	t := &Tournament{
		Core:           control.NewCore(ctrl, name, "Replicate top fitness organisms from random subgroups.", 0),
		FitnessTrait:   dec.String("fitness_trait", "fitness"),
		TournamentSize: dec.Int("tournament_size", 7),
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tournament) SetupConfig() error {
	if t.TournamentSize < 1 {
		return fmt.Errorf("tournament_size must be at least 1, got %d", t.TournamentSize)
	}
	return nil
}

func (t *Tournament) SetupModule() error {
	return t.Ctrl().Traits().Register(t.Name(), t.FitnessTrait, trait.KindFloat, trait.RoleRequired,
		trait.WithDesc("Fitness value used for selection."))
}

// Select runs numBirths independent tournaments over the live organisms
// of selectPop, replicating each winner once into birthPop.
func (t *Tournament) Select(selectPop, birthPop *population.Population, numBirths int) []population.Position {
	var alive []population.Position
	for pos := range selectPop.Alive {
		alive = append(alive, pos)
	}
	if len(alive) == 0 {
		t.Ctrl().Notifier().Errorf("tournament selection on an empty population %s", selectPop.Name())
		return nil
	}

	size := t.TournamentSize
	if size > len(alive) {
		size = len(alive)
	}

	rng := t.Ctrl().Random()
	var placed []population.Position
	for birth := 0; birth < numBirths; birth++ {
		order := rng.Perm(len(alive))
		best := alive[order[0]]
		bestFit := fitnessOf(best, t.FitnessTrait)
		for _, idx := range order[1:size] {
			if fit := fitnessOf(alive[idx], t.FitnessTrait); fit > bestFit {
				best, bestFit = alive[idx], fit
			}
		}
		placed = append(placed, t.Ctrl().Replicate(best, birthPop, 1, true)...)
	}
	return placed
}

// Roulette replicates organisms with probability proportional to
// fitness. Non-positive total fitness degrades to uniform choice.
type Roulette struct {
	control.Core

	FitnessTrait string
}

func NewRoulette(ctrl *control.Controller, name string, p map[string]any) (*Roulette, error) {
	dec := params.NewDecoder(p)
	r := &Roulette{
		Core:         control.NewCore(ctrl, name, "Replicate organisms proportionally to fitness.", 0),
		FitnessTrait: dec.String("fitness_trait", "fitness"),
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Roulette) SetupModule() error {
	return r.Ctrl().Traits().Register(r.Name(), r.FitnessTrait, trait.KindFloat, trait.RoleRequired,
		trait.WithDesc("Fitness value used for selection."))
}

// Select spins the wheel numBirths times over selectPop's live
// organisms, replicating each pick once into birthPop.
func (r *Roulette) Select(selectPop, birthPop *population.Population, numBirths int) []population.Position {
	var alive []population.Position
	total := 0.0
	for pos := range selectPop.Alive {
		alive = append(alive, pos)
		if fit := fitnessOf(pos, r.FitnessTrait); fit > 0 {
			total += fit
		}
	}
	if len(alive) == 0 {
		r.Ctrl().Notifier().Errorf("roulette selection on an empty population %s", selectPop.Name())
		return nil
	}

	rng := r.Ctrl().Random()
	var placed []population.Position
	for birth := 0; birth < numBirths; birth++ {
		pick := alive[rng.Intn(len(alive))]
		if total > 0 {
			spin := rng.Float64() * total
			for _, pos := range alive {
				fit := fitnessOf(pos, r.FitnessTrait)
				if fit <= 0 {
					continue
				}
				if spin < fit {
					pick = pos
					break
				}
				spin -= fit
			}
		}
		placed = append(placed, r.Ctrl().Replicate(pick, birthPop, 1, true)...)
	}
	return placed
}
