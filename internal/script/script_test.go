package script

import (
	"strings"
	"testing"

	"demiurge/internal/control"
	"demiurge/internal/notify"

	_ "demiurge/internal/evaluate"
	_ "demiurge/internal/orgs"
	_ "demiurge/internal/selection"
)

const baseConfig = `
random_seed: 7
populations:
  - name: main_pop
  - name: next_pop
modules:
  - name: bits
    type: BitsOrg
    params:
      N: 8
      mut_count: 0
  - name: eval
    type: EvalCountOnes
events:
  - on: START
    do:
      - bits.INJECT(main_pop, 10)
  - on: UPDATE
    do:
      - eval.EVAL(main_pop)
run:
  updates: 5
`

func newEngine(t *testing.T) (*control.Controller, *Engine) {
	t.Helper()

	ctrl := control.New(1)
	ctrl.Notifier().SetHandler(func(notify.Level, string) {})
	return ctrl, NewEngine(ctrl)
}

func TestLoadBuildsRun(t *testing.T) {
	ctrl, engine := newEngine(t)

	if err := engine.Load(strings.NewReader(baseConfig), "base"); err != nil {
		t.Fatalf("load: %v", err)
	}

	if ctrl.RandomSeed() != 7 {
		t.Fatalf("unexpected seed %d", ctrl.RandomSeed())
	}
	if ctrl.NumPopulations() != 2 || ctrl.GetPopID("main_pop") < 0 {
		t.Fatal("populations not created")
	}
	if ctrl.GetModule("bits") == nil || ctrl.GetModule("eval") == nil {
		t.Fatal("modules not created")
	}
	if engine.Updates() != 5 {
		t.Fatalf("unexpected updates %d", engine.Updates())
	}
}

func TestLoadedRunExecutes(t *testing.T) {
	ctrl, engine := newEngine(t)
	if err := engine.Load(strings.NewReader(baseConfig), "base"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ctrl.Setup() {
		t.Fatal("setup failed")
	}

	ctrl.RunUpdates(engine.Updates())

	pop := ctrl.GetPopulationByName("main_pop")
	if pop.NumOrgs() != 10 {
		t.Fatalf("START injection missing, orgs=%d", pop.NumOrgs())
	}
	for pos := range pop.Alive {
		bits := pos.Org().ToString()
		want := float64(strings.Count(bits, "1"))
		if got := pos.Org().Traits().GetFloat("fitness"); got != want {
			t.Fatalf("organism %s fitness %v, want %v", bits, got, want)
		}
	}
	if ctrl.Update() != 5 {
		t.Fatalf("expected 5 updates, got %d", ctrl.Update())
	}
}

func TestLoadOverlayAccumulates(t *testing.T) {
	ctrl, engine := newEngine(t)
	if err := engine.Load(strings.NewReader(baseConfig), "base"); err != nil {
		t.Fatalf("load base: %v", err)
	}

	overlay := `
modules:
  - name: select
    type: SelectElite
    params:
      top_count: 2
run:
  updates: 20
`
	if err := engine.Load(strings.NewReader(overlay), "overlay"); err != nil {
		t.Fatalf("load overlay: %v", err)
	}
	if ctrl.GetModule("select") == nil {
		t.Fatal("overlay module not created")
	}
	if engine.Updates() != 20 {
		t.Fatalf("overlay must win the run length, got %d", engine.Updates())
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, engine := newEngine(t)
	if err := engine.Load(strings.NewReader("population: []\n"), "typo"); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestLoadRejectsUnknownEvent(t *testing.T) {
	_, engine := newEngine(t)
	doc := `
events:
  - on: SHUTDOWN
    do: [x.Y()]
`
	if err := engine.Load(strings.NewReader(doc), "bad"); err == nil {
		t.Fatal("expected error for unknown event")
	}
}

func TestLoadRejectsDuplicatePopulation(t *testing.T) {
	_, engine := newEngine(t)
	doc := `
populations:
  - name: main_pop
  - name: main_pop
`
	if err := engine.Load(strings.NewReader(doc), "dup"); err == nil {
		t.Fatal("expected error for duplicate population")
	}
}

func TestModuleNameDefaultsToType(t *testing.T) {
	ctrl, engine := newEngine(t)
	doc := `
modules:
  - type: BitsOrg
`
	if err := engine.Load(strings.NewReader(doc), "unnamed"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if ctrl.GetModule("BitsOrg") == nil {
		t.Fatal("module must default its name to the type")
	}
}

func TestExecuteStatement(t *testing.T) {
	ctrl, engine := newEngine(t)
	if err := engine.Load(strings.NewReader(baseConfig), "base"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ctrl.Setup() {
		t.Fatal("setup failed")
	}

	out, err := engine.Execute("bits.INJECT(main_pop, 3)")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != 3 {
		t.Fatalf("unexpected result %v", out)
	}

	if _, err := engine.Execute("ghost.INJECT(main_pop, 3)"); err == nil {
		t.Fatal("expected unknown module error")
	}
	if _, err := engine.Execute("bits.GHOST(main_pop, 3)"); err == nil {
		t.Fatal("expected unknown member error")
	}
	if _, err := engine.Execute("not a statement"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTriggerHonorsEvery(t *testing.T) {
	ctrl, engine := newEngine(t)
	doc := `
populations:
  - name: main_pop
modules:
  - name: bits
    type: BitsOrg
    params: {N: 4, mut_count: 0}
events:
  - on: UPDATE
    every: 3
    do:
      - bits.INJECT(main_pop, 1)
`
	if err := engine.Load(strings.NewReader(doc), "every"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ctrl.Setup() {
		t.Fatal("setup failed")
	}

	ctrl.RunUpdates(6)
	pop := ctrl.GetPopulationByName("main_pop")
	if pop.NumOrgs() != 2 {
		t.Fatalf("expected injections at updates 3 and 6, got %d orgs", pop.NumOrgs())
	}
}

func TestTriggerFailureStopsRun(t *testing.T) {
	ctrl, engine := newEngine(t)
	doc := `
events:
  - on: UPDATE
    do:
      - ghost.RUN()
`
	if err := engine.Load(strings.NewReader(doc), "bad-event"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ctrl.Setup() {
		t.Fatal("setup failed")
	}

	ctrl.RunUpdates(10)
	if !ctrl.ExitRequested() {
		t.Fatal("failing statement must raise the exit flag")
	}
	if ctrl.Update() != 1 {
		t.Fatalf("run should halt after the first update, got %d", ctrl.Update())
	}
	if ctrl.Notifier().ErrorCount() != 1 {
		t.Fatalf("expected 1 error, got %d", ctrl.Notifier().ErrorCount())
	}
}

func TestParseCall(t *testing.T) {
	c, err := parseCall(`collect.SAMPLE("main_pop", 'fitness', bare, 3, 1.5, true)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.module != "collect" || c.fn != "SAMPLE" {
		t.Fatalf("unexpected call head: %+v", c)
	}
	want := []any{"main_pop", "fitness", "bare", 3, 1.5, true}
	if len(c.args) != len(want) {
		t.Fatalf("unexpected args: %v", c.args)
	}
	for i, arg := range want {
		if c.args[i] != arg {
			t.Fatalf("arg %d = %v (%T), want %v (%T)", i, c.args[i], c.args[i], arg, arg)
		}
	}

	c, err = parseCall("mod.FLUSH()")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.args) != 0 {
		t.Fatalf("unexpected args: %v", c.args)
	}

	for _, bad := range []string{"", "noparens", "mod.FN(unclosed", ".FN()", "mod.()"} {
		if _, err := parseCall(bad); err == nil {
			t.Fatalf("expected parse error for %q", bad)
		}
	}
}
