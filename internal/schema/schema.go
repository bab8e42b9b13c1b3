// Package schema holds run-structure modules that reshape populations
// on a schedule rather than evaluating or selecting organisms.
package schema

import (
	"fmt"

	"demiurge/internal/control"
	"demiurge/internal/params"
)

// EmptyPopulation clears a population at a fixed update interval. With
// the default interval of 1 and a growth-style placement it turns a
// two-population setup into synchronized generations.
type EmptyPopulation struct {
	control.Core

	Target     string
	UpdateStep int
}

func NewEmptyPopulation(ctrl *control.Controller, name string, p map[string]any) (*EmptyPopulation, error) {
	dec := params.NewDecoder(p)
	m := &EmptyPopulation{
		Core:       control.NewCore(ctrl, name, "Remove all organisms from a population on a schedule.", control.Signals(control.SigOnUpdate)),
		Target:     dec.String("target", ""),
		UpdateStep: dec.Int("update_step", 1),
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *EmptyPopulation) SetupConfig() error {
	if m.UpdateStep < 1 {
		return fmt.Errorf("update_step must be at least 1, got %d", m.UpdateStep)
	}
	return nil
}

func (m *EmptyPopulation) SetupModule() error {
	if m.Ctrl().GetPopulationByName(m.Target) == nil {
		return fmt.Errorf("empty-population target %q is not a population", m.Target)
	}
	return nil
}

func (m *EmptyPopulation) OnUpdate(update int) {
	if update%m.UpdateStep != 0 {
		return
	}
	m.Ctrl().EmptyPop(m.Ctrl().GetPopulationByName(m.Target), 0)
}

// MovePopulation migrates every organism from one population into
// another at the start of each update, implementing the turnover half
// of a next-generation scheme: next_pop drains into main_pop, then the
// update's births refill next_pop.
type MovePopulation struct {
	control.Core

	FromPop string
	ToPop   string
	ResetTo bool
}

func NewMovePopulation(ctrl *control.Controller, name string, p map[string]any) (*MovePopulation, error) {
	dec := params.NewDecoder(p)
	m := &MovePopulation{
		Core:    control.NewCore(ctrl, name, "Move organisms from one population to another.", control.Signals(control.SigOnUpdate)),
		FromPop: dec.String("from_pop", "next_pop"),
		ToPop:   dec.String("to_pop", "main_pop"),
		ResetTo: dec.Bool("reset_to", true),
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MovePopulation) SetupModule() error {
	if m.Ctrl().GetPopulationByName(m.FromPop) == nil {
		return fmt.Errorf("move-population source %q is not a population", m.FromPop)
	}
	if m.Ctrl().GetPopulationByName(m.ToPop) == nil {
		return fmt.Errorf("move-population destination %q is not a population", m.ToPop)
	}
	return nil
}

func (m *MovePopulation) OnUpdate(int) {
	ctrl := m.Ctrl()
	from := ctrl.GetPopulationByName(m.FromPop)
	if from.NumOrgs() == 0 {
		// Nothing to turn over; leave the destination untouched.
		return
	}
	ctrl.MoveOrgs(from, ctrl.GetPopulationByName(m.ToPop), m.ResetTo)
}

func init() {
	control.MustRegisterType(control.TypeInfo{
		Name: "EmptyPopulation",
		Desc: "Remove all organisms from a population on a schedule.",
		Factory: func(ctrl *control.Controller, name string, p map[string]any) (control.Module, error) {
			return NewEmptyPopulation(ctrl, name, p)
		},
	})
	control.MustRegisterType(control.TypeInfo{
		Name: "MovePopulation",
		Desc: "Move organisms from one population to another.",
		Factory: func(ctrl *control.Controller, name string, p map[string]any) (control.Module, error) {
			return NewMovePopulation(ctrl, name, p)
		},
	})
}
