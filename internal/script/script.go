// Package script loads declarative run configurations and drives the
// kernel from them. A configuration names the populations and module
// instances to build and binds statements to the named run events; the
// statements invoke member functions the module types registered.
package script

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"demiurge/internal/control"
)

// Document is the on-disk shape of a run configuration.
type Document struct {
	RandomSeed  *int64       `yaml:"random_seed"`
	Populations []PopSpec    `yaml:"populations"`
	Modules     []ModuleSpec `yaml:"modules"`
	Events      []EventSpec  `yaml:"events"`
	Run         RunSpec      `yaml:"run"`
}

type PopSpec struct {
	Name string `yaml:"name"`
	Size int    `yaml:"size"`
}

type ModuleSpec struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params"`
}

type EventSpec struct {
	On  string   `yaml:"on"`
	Do  []string `yaml:"do"`
	// Every updates the binding fires; 1 means each update.
	Every int `yaml:"every"`
}

type RunSpec struct {
	Updates int `yaml:"updates"`
}

// Engine interprets configurations against one controller. It records
// the concrete type behind each instantiated module so statements can
// resolve member functions, and holds the event bindings the kernel
// triggers.
type Engine struct {
	ctrl     *control.Controller
	modTypes map[string]string
	events   map[string][]binding
	updates  int
}

type binding struct {
	stmt  string
	every int
}

func NewEngine(ctrl *control.Controller) *Engine {
	e := &Engine{
		ctrl:     ctrl,
		modTypes: make(map[string]string),
		events:   make(map[string][]binding),
	}
	ctrl.SetHost(e)
	return e
}

// Updates reports the run length the last loaded configuration asked
// for; zero when none was given.
func (e *Engine) Updates() int { return e.updates }

// Load parses one YAML configuration and applies it: seed, populations,
// module instances, and event bindings, in that order. Repeated loads
// accumulate, so a base file and an experiment overlay can be layered.
func (e *Engine) Load(source io.Reader, label string) error {
	var doc Document
	dec := yaml.NewDecoder(source)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parse %s: %w", label, err)
	}

	if doc.RandomSeed != nil {
		e.ctrl.SetRandomSeed(*doc.RandomSeed)
	}
	for _, ps := range doc.Populations {
		if ps.Name == "" {
			return fmt.Errorf("%s: population with no name", label)
		}
		if e.ctrl.GetPopID(ps.Name) >= 0 {
			return fmt.Errorf("%s: duplicate population %q", label, ps.Name)
		}
		e.ctrl.AddPopulation(ps.Name, ps.Size)
	}
	for _, ms := range doc.Modules {
		name := ms.Name
		if name == "" {
			name = ms.Type
		}
		if _, err := e.ctrl.NewNamedModule(ms.Type, name, ms.Params); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
		e.modTypes[name] = ms.Type
	}
	for _, ev := range doc.Events {
		event := strings.ToUpper(strings.TrimSpace(ev.On))
		switch event {
		case control.EventStart, control.EventUpdate, control.EventBeforeRepro:
		default:
			return fmt.Errorf("%s: unknown event %q", label, ev.On)
		}
		every := ev.Every
		if every < 1 {
			every = 1
		}
		for _, stmt := range ev.Do {
			e.events[event] = append(e.events[event], binding{stmt: stmt, every: every})
		}
	}
	if doc.Run.Updates > 0 {
		e.updates = doc.Run.Updates
	}
	return nil
}

// Execute runs one statement of the form mod.FN(arg, ...) and returns
// the member function's value.
func (e *Engine) Execute(statement string) (any, error) {
	call, err := parseCall(statement)
	if err != nil {
		return nil, err
	}
	mod := e.ctrl.GetModule(call.module)
	if mod == nil {
		return nil, fmt.Errorf("statement %q: no module named %q", statement, call.module)
	}
	typeName, ok := e.modTypes[call.module]
	if !ok {
		return nil, fmt.Errorf("statement %q: module %q was not built from a configuration", statement, call.module)
	}
	member, ok := control.MemberFuncOf(typeName, call.fn)
	if !ok {
		return nil, fmt.Errorf("statement %q: type %s has no function %s", statement, typeName, call.fn)
	}
	return member.Fn(e.ctrl, mod, call.args)
}

// Trigger runs every statement bound to a named event. A failing
// statement is a fatal configuration error: it is reported and the run's
// exit flag raised.
func (e *Engine) Trigger(event string, update int) {
	for _, b := range e.events[event] {
		if update%b.every != 0 {
			continue
		}
		if _, err := e.Execute(b.stmt); err != nil {
			e.ctrl.Notifier().Errorf("event %s: %v", event, err)
			e.ctrl.RequestExit()
			return
		}
	}
}

type call struct {
	module string
	fn     string
	args   []any
}

// parseCall splits "mod.FN(a, b)" into its parts. Arguments are quoted
// strings, integers, floats, booleans, or bare words (kept as strings,
// which is how population and trait names are written).
func parseCall(statement string) (call, error) {
	s := strings.TrimSpace(statement)
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return call{}, fmt.Errorf("statement %q: want mod.FN(args)", statement)
	}
	head := s[:open]
	dot := strings.IndexByte(head, '.')
	if dot <= 0 || dot == len(head)-1 {
		return call{}, fmt.Errorf("statement %q: want mod.FN(args)", statement)
	}
	c := call{module: strings.TrimSpace(head[:dot]), fn: strings.TrimSpace(head[dot+1:])}

	body := strings.TrimSpace(s[open+1 : len(s)-1])
	if body == "" {
		return c, nil
	}
	for _, raw := range strings.Split(body, ",") {
		c.args = append(c.args, parseArg(strings.TrimSpace(raw)))
	}
	return c, nil
}

func parseArg(raw string) any {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		return raw[1 : len(raw)-1]
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return int(n)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
