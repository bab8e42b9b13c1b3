package demiurge

import (
	"errors"
	"strings"
	"testing"

	"demiurge/internal/notify"
)

const runConfig = `
random_seed: 7
populations:
  - name: main_pop
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

func quietClient(opts Options) *Client {
	c := NewClient(opts)
	c.Controller().Notifier().SetHandler(func(notify.Level, string) {})
	return c
}

func TestNewClientSeedsController(t *testing.T) {
	if seed := quietClient(Options{}).Controller().RandomSeed(); seed != 1 {
		t.Fatalf("default seed %d, want 1", seed)
	}
	if seed := quietClient(Options{Seed: 42}).Controller().RandomSeed(); seed != 42 {
		t.Fatalf("explicit seed %d, want 42", seed)
	}
}

func TestRunEndToEnd(t *testing.T) {
	c := quietClient(Options{})

	summary, err := c.Run(RunRequest{
		Configs:    []string{runConfig},
		ScorePop:   "main_pop",
		ScoreTrait: "fitness",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Updates != 5 {
		t.Fatalf("expected 5 updates, got %d", summary.Updates)
	}
	if summary.NumOrgs != 10 {
		t.Fatalf("expected 10 organisms, got %d", summary.NumOrgs)
	}
	if summary.Errors != 0 {
		t.Fatalf("expected a clean run, got %d errors", summary.Errors)
	}
	if summary.BestScore < 0 || summary.BestScore > 8 {
		t.Fatalf("best score %v out of range", summary.BestScore)
	}
	if summary.MeanScore > summary.BestScore {
		t.Fatalf("mean %v above best %v", summary.MeanScore, summary.BestScore)
	}
}

func TestRunUpdatesOverride(t *testing.T) {
	c := quietClient(Options{})

	summary, err := c.Run(RunRequest{Configs: []string{runConfig}, Updates: 3})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Updates != 3 {
		t.Fatalf("expected 3 updates, got %d", summary.Updates)
	}
}

func TestRunRequiresRunLength(t *testing.T) {
	c := quietClient(Options{})

	withoutRun := strings.Replace(runConfig, "run:\n  updates: 5\n", "", 1)
	if _, err := c.Run(RunRequest{Configs: []string{withoutRun}}); err == nil {
		t.Fatal("expected missing run length error")
	}
}

func TestRunSetupFailure(t *testing.T) {
	c := quietClient(Options{})

	badConfig := `
populations:
  - name: main_pop
modules:
  - name: collect
    type: DataCollect
    params:
      target: ghost_pop
run:
  updates: 2
`
	_, err := c.Run(RunRequest{Configs: []string{badConfig}})
	if !errors.Is(err, ErrSetupFailed) {
		t.Fatalf("expected ErrSetupFailed, got %v", err)
	}
}

func TestRunUnknownScorePopulation(t *testing.T) {
	c := quietClient(Options{})

	_, err := c.Run(RunRequest{
		Configs:    []string{runConfig},
		ScorePop:   "ghost_pop",
		ScoreTrait: "fitness",
	})
	if err == nil {
		t.Fatal("expected unknown population error")
	}
}

func TestLoadRejectsBadDocument(t *testing.T) {
	c := quietClient(Options{})

	if err := c.Load(strings.NewReader("population: []"), "bad"); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestExecuteAgainstLoadedRun(t *testing.T) {
	c := quietClient(Options{})

	if err := c.Load(strings.NewReader(runConfig), "base"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.Controller().Setup() {
		t.Fatal("setup failed")
	}
	out, err := c.Execute("bits.INJECT(main_pop, 4)")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != 4 {
		t.Fatalf("expected 4 injections, got %v", out)
	}
}

func TestModuleTypesIncludesBuiltins(t *testing.T) {
	types := ModuleTypes()
	want := map[string]bool{
		"BitsOrg":       false,
		"EvalCountOnes": false,
		"SelectElite":   false,
		"DataCollect":   false,
		"PopArchive":    false,
	}
	for _, name := range types {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("type %q not registered", name)
		}
	}
}

func TestVersionIsSet(t *testing.T) {
	if Version() == "" {
		t.Fatal("expected a version string")
	}
}
