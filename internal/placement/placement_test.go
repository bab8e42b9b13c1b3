package placement

import (
	"os"
	"path/filepath"
	"testing"

	"demiurge/internal/control"
	"demiurge/internal/notify"
	"demiurge/internal/orgs"
)

// setupRun registers a zero-mutation bits manager plus the given
// placement module, creates the named populations, and runs Setup.
func setupRun(t *testing.T, ctrl *control.Controller, mod control.Module, popNames ...string) {
	t.Helper()

	ctrl.Notifier().SetHandler(func(notify.Level, string) {})
	mgr, err := orgs.NewBitsManager(ctrl, "bits", map[string]any{"N": 4, "mut_count": 0})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := ctrl.AddModule(mgr); err != nil {
		t.Fatalf("add manager: %v", err)
	}
	if err := ctrl.AddModule(mod); err != nil {
		t.Fatalf("add placement: %v", err)
	}
	for _, name := range popNames {
		ctrl.AddPopulation(name, 0)
	}
	if !ctrl.Setup() {
		t.Fatal("setup failed")
	}
}

func TestGrowthRedirectsBirths(t *testing.T) {
	ctrl := control.New(1)
	mod, err := NewGrowth(ctrl, "placement", nil)
	if err != nil {
		t.Fatalf("new growth: %v", err)
	}
	setupRun(t, ctrl, mod, "main_pop", "next_pop")
	main := ctrl.GetPopulationByName("main_pop")
	next := ctrl.GetPopulationByName("next_pop")

	parentPos := ctrl.InjectByName("main_pop", "bits", 1)[0]
	if !parentPos.IsInPop(main) {
		t.Fatal("injection must land in the main population")
	}

	placed := ctrl.Replicate(parentPos, main, 2, false)
	if len(placed) != 2 {
		t.Fatalf("expected 2 births, got %d", len(placed))
	}
	for _, pos := range placed {
		if !pos.IsInPop(next) {
			t.Fatalf("birth landed in %s, want next_pop", pos.Pop().Name())
		}
	}
	if main.NumOrgs() != 1 || next.NumOrgs() != 2 {
		t.Fatalf("unexpected occupancy: main=%d next=%d", main.NumOrgs(), next.NumOrgs())
	}
}

func TestGrowthDeclinesForeignBirths(t *testing.T) {
	ctrl := control.New(1)
	mod, err := NewGrowth(ctrl, "placement", nil)
	if err != nil {
		t.Fatalf("new growth: %v", err)
	}
	setupRun(t, ctrl, mod, "main_pop", "next_pop", "other_pop")
	main := ctrl.GetPopulationByName("main_pop")

	// A parent outside the monitored population gets no slot.
	parentPos := ctrl.InjectByName("other_pop", "bits", 1)[0]
	placed := ctrl.DoBirth(parentPos.Org(), parentPos, main, 1, false)
	if len(placed) != 0 {
		t.Fatalf("expected declined birth, got %v", placed)
	}
	if ctrl.Notifier().WarningCount() != 1 {
		t.Fatalf("expected 1 warning, got %d", ctrl.Notifier().WarningCount())
	}
}

func TestGrowthRequiresPopulations(t *testing.T) {
	ctrl := control.New(1)
	mod, err := NewGrowth(ctrl, "placement", nil)
	if err != nil {
		t.Fatalf("new growth: %v", err)
	}
	if err := mod.SetupModule(); err == nil {
		t.Fatal("expected error for missing populations")
	}
}

func TestSpatial1DInjectFillsLine(t *testing.T) {
	ctrl := control.New(1)
	mod, err := NewSpatial1D(ctrl, "placement", map[string]any{"target": "main_pop", "grid_width": 5})
	if err != nil {
		t.Fatalf("new spatial: %v", err)
	}
	setupRun(t, ctrl, mod, "main_pop")
	pop := ctrl.GetPopulationByName("main_pop")

	placed := ctrl.InjectByName("main_pop", "bits", 5)
	if len(placed) != 5 || pop.Size() != 5 {
		t.Fatalf("expected a full line of 5, placed=%d size=%d", len(placed), pop.Size())
	}

	// Further injections overwrite cells rather than growing the line.
	ctrl.InjectByName("main_pop", "bits", 3)
	if pop.Size() != 5 {
		t.Fatalf("line grew past its width: %d", pop.Size())
	}
}

func TestSpatial1DRingNeighbors(t *testing.T) {
	ctrl := control.New(1)
	mod, err := NewSpatial1D(ctrl, "placement", map[string]any{"target": "main_pop", "grid_width": 5, "does_wrap": true})
	if err != nil {
		t.Fatalf("new spatial: %v", err)
	}
	setupRun(t, ctrl, mod, "main_pop")
	pop := ctrl.GetPopulationByName("main_pop")
	ctrl.InjectByName("main_pop", "bits", 5)

	cases := []struct {
		index int
		want  []int
	}{
		{0, []int{4, 1}},
		{2, []int{1, 3}},
		{4, []int{3, 0}},
	}
	for _, tc := range cases {
		neighbors := pop.FindAllNeighbors(pop.PositionAt(tc.index))
		if len(neighbors) != len(tc.want) {
			t.Fatalf("cell %d neighbors %v, want %v", tc.index, neighbors, tc.want)
		}
		for i, pos := range neighbors {
			if pos.Index() != tc.want[i] {
				t.Fatalf("cell %d neighbor %d = %d, want %d", tc.index, i, pos.Index(), tc.want[i])
			}
		}
	}
}

func TestSpatial1DUnwrappedEdges(t *testing.T) {
	ctrl := control.New(1)
	mod, err := NewSpatial1D(ctrl, "placement", map[string]any{"target": "main_pop", "grid_width": 5, "does_wrap": false})
	if err != nil {
		t.Fatalf("new spatial: %v", err)
	}
	setupRun(t, ctrl, mod, "main_pop")
	pop := ctrl.GetPopulationByName("main_pop")
	ctrl.InjectByName("main_pop", "bits", 5)

	left := pop.FindAllNeighbors(pop.PositionAt(0))
	if len(left) != 1 || left[0].Index() != 1 {
		t.Fatalf("unexpected edge neighbors: %v", left)
	}
	right := pop.FindAllNeighbors(pop.PositionAt(4))
	if len(right) != 1 || right[0].Index() != 3 {
		t.Fatalf("unexpected edge neighbors: %v", right)
	}

	// At an unwrapped edge every birth turns inward.
	for i := 0; i < 10; i++ {
		placed := ctrl.Replicate(pop.PositionAt(0), pop, 1, false)
		if len(placed) != 1 || placed[0].Index() != 1 {
			t.Fatalf("edge birth landed at %v", placed)
		}
	}
}

func TestSpatial1DBirthsLandBesideParent(t *testing.T) {
	ctrl := control.New(1)
	mod, err := NewSpatial1D(ctrl, "placement", map[string]any{"target": "main_pop", "grid_width": 5})
	if err != nil {
		t.Fatalf("new spatial: %v", err)
	}
	setupRun(t, ctrl, mod, "main_pop")
	pop := ctrl.GetPopulationByName("main_pop")
	ctrl.InjectByName("main_pop", "bits", 5)

	for i := 0; i < 10; i++ {
		placed := ctrl.Replicate(pop.PositionAt(2), pop, 1, false)
		if len(placed) != 1 {
			t.Fatalf("birth %d declined", i)
		}
		if idx := placed[0].Index(); idx != 1 && idx != 3 {
			t.Fatalf("birth landed at %d, want 1 or 3", idx)
		}
	}
}

func TestSpatial1DConfigValidation(t *testing.T) {
	ctrl := control.New(1)
	mod, err := NewSpatial1D(ctrl, "placement", map[string]any{"grid_width": 0})
	if err != nil {
		t.Fatalf("new spatial: %v", err)
	}
	if err := mod.SetupConfig(); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestAdjacencyInCodeGraph(t *testing.T) {
	ctrl := control.New(1)
	mod, err := NewAdjacency(ctrl, "placement", map[string]any{"target": "main_pop"})
	if err != nil {
		t.Fatalf("new adjacency: %v", err)
	}
	// Node 2 is isolated; births there replace the parent.
	mod.SetAdjacency([][]int{{1}, {0, 2}, nil})
	setupRun(t, ctrl, mod, "main_pop")
	pop := ctrl.GetPopulationByName("main_pop")
	ctrl.InjectByName("main_pop", "bits", 3)

	neighbors := pop.FindAllNeighbors(pop.PositionAt(1))
	if len(neighbors) != 2 || neighbors[0].Index() != 0 || neighbors[1].Index() != 2 {
		t.Fatalf("unexpected neighbors: %v", neighbors)
	}

	placed := ctrl.Replicate(pop.PositionAt(0), pop, 1, false)
	if len(placed) != 1 || placed[0].Index() != 1 {
		t.Fatalf("birth from node 0 landed at %v", placed)
	}

	placed = ctrl.Replicate(pop.PositionAt(2), pop, 1, false)
	if len(placed) != 1 || placed[0].Index() != 2 {
		t.Fatalf("isolated-node birth landed at %v", placed)
	}
}

func TestAdjacencyLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.txt")
	content := "# ring of four nodes\n0 1\n1 2\n2 3 # wraps below\n3 0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write graph: %v", err)
	}

	ctrl := control.New(1)
	mod, err := NewAdjacency(ctrl, "placement", map[string]any{"target": "main_pop", "adj_filename": path})
	if err != nil {
		t.Fatalf("new adjacency: %v", err)
	}
	setupRun(t, ctrl, mod, "main_pop")
	pop := ctrl.GetPopulationByName("main_pop")
	ctrl.InjectByName("main_pop", "bits", 4)

	if mod.NumNodes() != 4 {
		t.Fatalf("expected 4 nodes, got %d", mod.NumNodes())
	}
	// Bidirectional edges by default: each ring node sees both sides.
	neighbors := pop.FindAllNeighbors(pop.PositionAt(2))
	if len(neighbors) != 2 {
		t.Fatalf("unexpected neighbors: %v", neighbors)
	}
	got := map[int]bool{neighbors[0].Index(): true, neighbors[1].Index(): true}
	if !got[1] || !got[3] {
		t.Fatalf("node 2 neighbors %v, want 1 and 3", got)
	}
}

func TestAdjacencyDirectedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.txt")
	if err := os.WriteFile(path, []byte("0 1 2\n"), 0o644); err != nil {
		t.Fatalf("write graph: %v", err)
	}

	ctrl := control.New(1)
	mod, err := NewAdjacency(ctrl, "placement", map[string]any{
		"target":              "main_pop",
		"adj_filename":        path,
		"bidirectional_edges": false,
	})
	if err != nil {
		t.Fatalf("new adjacency: %v", err)
	}
	setupRun(t, ctrl, mod, "main_pop")
	pop := ctrl.GetPopulationByName("main_pop")
	ctrl.InjectByName("main_pop", "bits", 1)

	if mod.NumNodes() != 1 {
		t.Fatalf("expected 1 node, got %d", mod.NumNodes())
	}
	if neighbors := pop.FindAllNeighbors(pop.PositionAt(0)); len(neighbors) != 2 {
		t.Fatalf("unexpected neighbors: %v", neighbors)
	}
}

func TestAdjacencyRequiresGraph(t *testing.T) {
	ctrl := control.New(1)
	ctrl.AddPopulation("main_pop", 0)
	mod, err := NewAdjacency(ctrl, "placement", map[string]any{"target": "main_pop"})
	if err != nil {
		t.Fatalf("new adjacency: %v", err)
	}
	if err := mod.SetupModule(); err == nil {
		t.Fatal("expected error for missing graph")
	}
}
