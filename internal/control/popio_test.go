package control

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSavePopulationFormat(t *testing.T) {
	ctrl, _ := newTestRun(t)
	pop := ctrl.AddPopulation("main_pop", 3)
	if err := ctrl.InjectGenomeAt(pop, "orgs", "aaaa", pop.PositionAt(0)); err != nil {
		t.Fatalf("inject at 0: %v", err)
	}
	if err := ctrl.InjectGenomeAt(pop, "orgs", "bbbb", pop.PositionAt(2)); err != nil {
		t.Fatalf("inject at 2: %v", err)
	}

	var sb strings.Builder
	if err := ctrl.SavePopulation(pop, &sb); err != nil {
		t.Fatalf("save: %v", err)
	}
	want := "aaaa\n" + EmptySlotToken + "\nbbbb\n"
	if sb.String() != want {
		t.Fatalf("unexpected output %q, want %q", sb.String(), want)
	}
}

func TestLoadPopulationRoundTrip(t *testing.T) {
	ctrl, _ := newTestRun(t)
	source := ctrl.AddPopulation("main_pop", 3)
	if err := ctrl.InjectGenomeAt(source, "orgs", "aaaa", source.PositionAt(0)); err != nil {
		t.Fatalf("inject at 0: %v", err)
	}
	if err := ctrl.InjectGenomeAt(source, "orgs", "bbbb", source.PositionAt(2)); err != nil {
		t.Fatalf("inject at 2: %v", err)
	}

	var sb strings.Builder
	if err := ctrl.SavePopulation(source, &sb); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := ctrl.AddPopulation("loaded_pop", 0)
	placed, err := ctrl.LoadPopulation(loaded, "orgs", strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Every line reserves a slot; only occupied lines place organisms.
	if loaded.Size() != 3 {
		t.Fatalf("expected 3 slots, got %d", loaded.Size())
	}
	if len(placed) != 2 || loaded.NumOrgs() != 2 {
		t.Fatalf("expected 2 organisms, placed=%d orgs=%d", len(placed), loaded.NumOrgs())
	}
	if got := loaded.At(0).ToString(); got != "aaaa" {
		t.Fatalf("slot 0 genome %q", got)
	}
	if !loaded.IsEmptyAt(1) {
		t.Fatal("slot 1 should stay empty")
	}
	if got := loaded.At(2).ToString(); got != "bbbb" {
		t.Fatalf("slot 2 genome %q", got)
	}
}

func TestSaveAndLoadPopulationFile(t *testing.T) {
	ctrl, mgr := newTestRun(t)
	pop := ctrl.AddPopulation("main_pop", 0)
	ctrl.Inject(pop, mgr.MakeOrganism(ctrl.Random()), 4)

	path := filepath.Join(t.TempDir(), "pop.txt")
	if err := ctrl.SavePopulationToFile(pop, path); err != nil {
		t.Fatalf("save file: %v", err)
	}

	loaded := ctrl.AddPopulation("loaded_pop", 0)
	placed, err := ctrl.LoadPopulationFromFile(loaded, "orgs", path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if len(placed) != 4 || loaded.NumOrgs() != 4 {
		t.Fatalf("expected 4 organisms, placed=%d orgs=%d", len(placed), loaded.NumOrgs())
	}
}
