// Package demiurge is the embedding surface: programs that want to run
// simulations without going through the command line construct a Client,
// feed it configuration documents, and read back run summaries.
package demiurge

import (
	"errors"
	"fmt"
	"io"
	"strings"

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

var ErrSetupFailed = errors.New("setup failed")

type Options struct {
	// Seed for the run's random source; configurations may override it.
	Seed int64
}

type RunRequest struct {
	// Configs are YAML documents applied in order; later documents layer
	// over earlier ones.
	Configs []string
	// Updates overrides the configurations' run length when positive.
	Updates int
	// ScorePop and ScoreTrait name the population and trait summarized in
	// the result; empty values skip scoring.
	ScorePop   string
	ScoreTrait string
}

type RunSummary struct {
	Updates   int
	Warnings  int
	Errors    int
	NumOrgs   int
	BestScore float64
	MeanScore float64
}

// Client owns one controller and its script engine. A Client is
// single-use per run: construct, load, run, read the summary.
type Client struct {
	ctrl   *control.Controller
	engine *script.Engine
}

func NewClient(opts Options) *Client {
	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}
	ctrl := control.New(seed)
	return &Client{ctrl: ctrl, engine: script.NewEngine(ctrl)}
}

// Controller exposes the underlying kernel for callers composing modules
// in code rather than through configuration documents.
func (c *Client) Controller() *control.Controller { return c.ctrl }

// Load applies one configuration document.
func (c *Client) Load(source io.Reader, label string) error {
	return c.ctrl.Load(source, label)
}

// Execute runs one configuration statement against the loaded modules.
func (c *Client) Execute(statement string) (any, error) {
	return c.ctrl.Execute(statement)
}

// Run applies the request's configurations, sets up, advances the run,
// and tears it down.
func (c *Client) Run(req RunRequest) (RunSummary, error) {
	for i, doc := range req.Configs {
		if err := c.Load(strings.NewReader(doc), fmt.Sprintf("config[%d]", i)); err != nil {
			return RunSummary{}, err
		}
	}
	if !c.ctrl.Setup() {
		return RunSummary{}, fmt.Errorf("%w: %d error(s)", ErrSetupFailed, c.ctrl.Notifier().ErrorCount())
	}

	n := c.engine.Updates()
	if req.Updates > 0 {
		n = req.Updates
	}
	if n <= 0 {
		return RunSummary{}, errors.New("no run length: set run.updates or RunRequest.Updates")
	}
	c.ctrl.RunUpdates(n)

	summary := RunSummary{
		Updates:  c.ctrl.Update(),
		Warnings: c.ctrl.Notifier().WarningCount(),
		Errors:   c.ctrl.Notifier().ErrorCount(),
	}
	if req.ScorePop != "" && req.ScoreTrait != "" {
		pop := c.ctrl.GetPopulationByName(req.ScorePop)
		if pop == nil {
			return RunSummary{}, fmt.Errorf("no population named %q to score", req.ScorePop)
		}
		score := stats.Summarize(pop, req.ScoreTrait)
		summary.NumOrgs = pop.NumOrgs()
		summary.BestScore = score.Max
		summary.MeanScore = score.Mean
	}
	c.ctrl.Teardown()
	return summary, nil
}

// ModuleTypes lists the registered module type names.
func ModuleTypes() []string { return control.ListTypes() }

// Version is the library version string.
func Version() string { return control.Version }
