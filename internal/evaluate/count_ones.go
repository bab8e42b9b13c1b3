// Package evaluate holds modules that score organisms through the
// uniform contract: evaluate a collection of organisms and write the
// scores into named traits. Fitness-landscape arithmetic beyond this
// minimal evaluator lives outside the kernel.
package evaluate

import (
	"fmt"
	"strings"

	"demiurge/internal/control"
	"demiurge/internal/params"
	"demiurge/internal/population"
	"demiurge/internal/trait"
)

// CountOnes scores bit-sequence organisms by the number of set bits in
// their output trait.
type CountOnes struct {
	control.Core

	BitsTrait    string
	FitnessTrait string
}

func NewCountOnes(ctrl *control.Controller, name string, p map[string]any) (*CountOnes, error) {
	dec := params.NewDecoder(p)
	e := &CountOnes{
		Core:         control.NewCore(ctrl, name, "Score organisms by their count of ones.", 0),
		BitsTrait:    dec.String("bits_trait", "bits"),
		FitnessTrait: dec.String("fitness_trait", "fitness"),
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *CountOnes) SetupModule() error {
	reg := e.Ctrl().Traits()
	if err := reg.Register(e.Name(), e.BitsTrait, trait.KindString, trait.RoleRequired,
		trait.WithDesc("Bit sequence to be evaluated.")); err != nil {
		return err
	}
	return reg.Register(e.Name(), e.FitnessTrait, trait.KindFloat, trait.RoleOwned,
		trait.WithDesc("Count of ones in the bit sequence."))
}

// Evaluate scores every live organism in the population and returns the
// best score seen.
func (e *CountOnes) Evaluate(pop *population.Population) float64 {
	best := 0.0
	for pos := range pop.Alive {
		org := pos.Org()
		org.GenerateOutput()
		bits := org.Traits().GetString(e.BitsTrait)
		score := float64(strings.Count(bits, "1"))
		org.Traits().SetFloat(e.FitnessTrait, score)
		if score > best {
			best = score
		}
	}
	return best
}

func init() {
	control.MustRegisterType(control.TypeInfo{
		Name: "EvalCountOnes",
		Desc: "Score organisms by their count of ones.",
		Factory: func(ctrl *control.Controller, name string, p map[string]any) (control.Module, error) {
			return NewCountOnes(ctrl, name, p)
		},
		Members: []control.MemberFunc{
			{
				Name: "EVAL",
				Desc: "Evaluate a population. Args: pop_name; Return: best score.",
				Fn: func(ctrl *control.Controller, mod control.Module, args []any) (any, error) {
					e := mod.(*CountOnes)
					popName, err := stringArg(args, 0)
					if err != nil {
						return nil, err
					}
					pop := ctrl.GetPopulationByName(popName)
					if pop == nil {
						return nil, fmt.Errorf("unknown population %q", popName)
					}
					return e.Evaluate(pop), nil
				},
			},
		},
	})
}

func stringArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d must be a string, got %T", i, args[i])
	}
	return s, nil
}
