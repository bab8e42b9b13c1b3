package selection

import (
	"fmt"

	"demiurge/internal/control"
	"demiurge/internal/params"
	"demiurge/internal/population"
)

type selector interface {
	control.Module
	Select(selectPop, birthPop *population.Population, numBirths int) []population.Position
}

func selectMember() control.MemberFunc {
	return control.MemberFunc{
		Name: "SELECT",
		Desc: "Select and replicate organisms. Args: from_pop, to_pop, count; Return: placed count.",
		Fn: func(ctrl *control.Controller, mod control.Module, args []any) (any, error) {
			sel, ok := mod.(selector)
			if !ok {
				return nil, fmt.Errorf("module %s is not a selector", mod.Name())
			}
			if len(args) < 3 {
				return nil, fmt.Errorf("SELECT needs from_pop, to_pop, count")
			}
			fromName, ok1 := args[0].(string)
			toName, ok2 := args[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("SELECT population arguments must be strings")
			}
			count, ok := params.AsInt(args[2])
			if !ok {
				return nil, fmt.Errorf("SELECT count must be an integer, got %T", args[2])
			}
			from := ctrl.GetPopulationByName(fromName)
			to := ctrl.GetPopulationByName(toName)
			if from == nil || to == nil {
				return nil, fmt.Errorf("unknown population in SELECT (%q, %q)", fromName, toName)
			}
			return len(sel.Select(from, to, count)), nil
		},
	}
}

func init() {
	control.MustRegisterType(control.TypeInfo{
		Name: "SelectElite",
		Desc: "Choose the top fitness organisms for replication.",
		Factory: func(ctrl *control.Controller, name string, p map[string]any) (control.Module, error) {
			return NewElite(ctrl, name, p)
		},
		Members: []control.MemberFunc{selectMember()},
	})
	control.MustRegisterType(control.TypeInfo{
		Name: "SelectTournament",
		Desc: "Replicate top fitness organisms from random subgroups.",
		Factory: func(ctrl *control.Controller, name string, p map[string]any) (control.Module, error) {
			return NewTournament(ctrl, name, p)
		},
		Members: []control.MemberFunc{selectMember()},
	})
	control.MustRegisterType(control.TypeInfo{
		Name: "SelectRoulette",
		Desc: "Replicate organisms proportionally to fitness.",
		Factory: func(ctrl *control.Controller, name string, p map[string]any) (control.Module, error) {
			return NewRoulette(ctrl, name, p)
		},
		Members: []control.MemberFunc{selectMember()},
	})
}
