package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"demiurge/internal/control"
	"demiurge/internal/script"
	"demiurge/internal/stats"

	_ "demiurge/internal/archive"
	_ "demiurge/internal/evaluate"
	_ "demiurge/internal/orgs"
	_ "demiurge/internal/placement"
	_ "demiurge/internal/report"
	_ "demiurge/internal/schema"
	_ "demiurge/internal/selection"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 && args[0] == "batch" {
		return runBatch(args[1:])
	}
	return runSingle(args)
}

type multiFlag []string

func (m *multiFlag) String() string { return fmt.Sprint([]string(*m)) }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func runSingle(args []string) error {
	fs := flag.NewFlagSet("demiurgectl", flag.ContinueOnError)
	var files multiFlag
	var settings multiFlag
	fs.Var(&files, "f", "configuration file to load (repeatable)")
	fs.Var(&settings, "s", "setting override, key=value (repeatable)")
	genPath := fs.String("g", "", "write a template configuration to the given path and exit")
	listMods := fs.Bool("m", false, "list available module types and exit")
	helpFlag := fs.Bool("h", false, "print usage and module help and exit")
	version := fs.Bool("v", false, "print version and exit")
	seed := fs.Int64("seed", 1, "rng seed (configurations may override)")
	updates := fs.Int("updates", 0, "update count (overrides the configuration's run length)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *helpFlag:
		return printHelp(fs, files, *seed)
	case *version:
		fmt.Printf("demiurge v%s\n", control.Version)
		return nil
	case *listMods:
		printModuleTypes()
		return nil
	case *genPath != "":
		return writeTemplate(*genPath)
	}
	if len(files) == 0 {
		return fmt.Errorf("no configuration files; use -f (or -g to generate a template)")
	}

	ctrl := control.New(*seed)
	engine := script.NewEngine(ctrl)
	for _, path := range files {
		if err := loadFile(ctrl, path); err != nil {
			return err
		}
	}
	for _, s := range settings {
		if err := applySetting(ctrl, engine, s); err != nil {
			return err
		}
	}

	if !ctrl.Setup() {
		return fmt.Errorf("setup failed with %d error(s)", ctrl.Notifier().ErrorCount())
	}

	n := engine.Updates()
	if *updates > 0 {
		n = *updates
	}
	if n <= 0 {
		return fmt.Errorf("no run length: set run.updates in the configuration or pass -updates")
	}

	started := time.Now()
	ctrl.RunUpdates(n)
	ctrl.Teardown()

	fmt.Printf("ran %s updates in %s (%d warning(s), %d error(s))\n",
		humanize.Comma(int64(ctrl.Update())), time.Since(started).Round(time.Millisecond),
		ctrl.Notifier().WarningCount(), ctrl.Notifier().ErrorCount())
	if ctrl.Notifier().ErrorCount() > 0 {
		return fmt.Errorf("run finished with errors")
	}
	return nil
}

func runBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	var files multiFlag
	fs.Var(&files, "f", "configuration file to load (repeatable)")
	replicates := fs.Int("runs", 10, "replicate count")
	baseSeed := fs.Int64("seed", 1, "seed of the first replicate; replicate i uses seed+i")
	updates := fs.Int("updates", 0, "update count (overrides the configuration's run length)")
	popName := fs.String("pop", "main_pop", "population to score at the end of each replicate")
	traitName := fs.String("trait", "fitness", "trait to score")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no configuration files; use -f")
	}

	var bests []float64
	for i := 0; i < *replicates; i++ {
		ctrl := control.New(*baseSeed + int64(i))
		engine := script.NewEngine(ctrl)
		for _, path := range files {
			if err := loadFile(ctrl, path); err != nil {
				return fmt.Errorf("replicate %d: %w", i, err)
			}
		}
		ctrl.SetRandomSeed(*baseSeed + int64(i))

		if !ctrl.Setup() {
			return fmt.Errorf("replicate %d: setup failed with %d error(s)", i, ctrl.Notifier().ErrorCount())
		}
		n := engine.Updates()
		if *updates > 0 {
			n = *updates
		}
		if n <= 0 {
			return fmt.Errorf("no run length: set run.updates in the configuration or pass -updates")
		}
		ctrl.RunUpdates(n)

		pop := ctrl.GetPopulationByName(*popName)
		if pop == nil {
			return fmt.Errorf("replicate %d: no population named %q", i, *popName)
		}
		summary := stats.Summarize(pop, *traitName)
		bests = append(bests, summary.Max)
		fmt.Printf("replicate %d: seed=%d orgs=%s best=%g mean=%g\n",
			i, *baseSeed+int64(i), humanize.Comma(int64(pop.NumOrgs())), summary.Max, summary.Mean)
		ctrl.Teardown()
	}

	best, mean := bests[0], 0.0
	for _, b := range bests {
		if b > best {
			best = b
		}
		mean += b
	}
	mean /= float64(len(bests))
	fmt.Printf("batch: %d replicates, best=%g, mean best=%g\n", len(bests), best, mean)
	return nil
}

func loadFile(ctrl *control.Controller, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ctrl.Load(f, path)
}

// applySetting handles the small ad hoc override surface: random_seed and
// run-level knobs are set directly, anything of the form mod.FN(...) is
// executed as a statement after loading.
func applySetting(ctrl *control.Controller, engine *script.Engine, setting string) error {
	if key, val, ok := splitSetting(setting); ok {
		switch key {
		case "random_seed":
			var seed int64
			if _, err := fmt.Sscanf(val, "%d", &seed); err != nil {
				return fmt.Errorf("setting %q: %w", setting, err)
			}
			ctrl.SetRandomSeed(seed)
			return nil
		default:
			return fmt.Errorf("unknown setting %q", key)
		}
	}
	if _, err := engine.Execute(setting); err != nil {
		return fmt.Errorf("setting %q: %w", setting, err)
	}
	return nil
}

func splitSetting(s string) (key, val string, ok bool) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			return "", "", false
		case '=':
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

// printHelp renders flag usage plus the registered module types. When
// configuration files are given it also loads them and fires the
// on-help signal so module instances can describe themselves.
func printHelp(fs *flag.FlagSet, files []string, seed int64) error {
	fmt.Println("usage: demiurgectl [flags]")
	fs.PrintDefaults()
	fmt.Println()
	printModuleTypes()
	if len(files) == 0 {
		return nil
	}
	ctrl := control.New(seed)
	script.NewEngine(ctrl)
	for _, path := range files {
		if err := loadFile(ctrl, path); err != nil {
			return err
		}
	}
	ctrl.Help()
	return nil
}

func printModuleTypes() {
	for _, name := range control.ListTypes() {
		info, _ := control.LookupType(name)
		fmt.Printf("%-22s %s\n", name, info.Desc)
		for _, member := range info.Members {
			fmt.Printf("    .%-18s %s\n", member.Name, member.Desc)
		}
	}
}
