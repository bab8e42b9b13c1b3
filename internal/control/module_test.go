package control

import (
	"fmt"
	"io"
	"math/rand"
	"testing"

	"demiurge/internal/notify"
	"demiurge/internal/organism"
	"demiurge/internal/population"
	"demiurge/internal/trait"
)

type testOrg struct {
	organism.Base
	genome string
}

func (o *testOrg) Clone() organism.Organism {
	clone := &testOrg{genome: o.genome}
	clone.SetTraits(o.Traits().Copy())
	return clone
}

func (o *testOrg) Mutate(*rand.Rand) int {
	o.genome += "m"
	return 1
}

func (o *testOrg) ToString() string          { return o.genome }
func (o *testOrg) FromString(g string) error { o.genome = g; return nil }

// testManager is the minimal organism manager: it owns one string trait
// and builds testOrg instances against the locked layout.
type testManager struct {
	Core
}

func newTestManager(ctrl *Controller, name string) *testManager {
	mgr := &testManager{}
	mgr.Core = NewCore(ctrl, name, "test organisms", 0)
	return mgr
}

func (m *testManager) SetupModule() error {
	return m.Ctrl().Traits().Register(m.Name(), "genome", trait.KindString, trait.RoleOwned)
}

func (m *testManager) MakeOrganism(*rand.Rand) organism.Organism {
	org := &testOrg{genome: "aaaa"}
	org.SetTraits(m.Ctrl().Layout().NewRecord())
	return org
}

// recorder subscribes to a chosen signal set and logs every dispatch in
// order, so tests can assert the exact firing sequence.
type recorder struct {
	Core
	events []string
}

func newRecorder(ctrl *Controller, name string, signals SignalSet) *recorder {
	rec := &recorder{}
	rec.Core = NewCore(ctrl, name, "signal recorder", signals)
	return rec
}

func (r *recorder) log(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) BeforeUpdate(update int) { r.log("before-update:%d", update) }
func (r *recorder) OnUpdate(update int)     { r.log("on-update:%d", update) }
func (r *recorder) BeforeRepro(ppos population.Position) {
	r.log("before-repro")
}
func (r *recorder) OnOffspringReady(off organism.Organism, ppos population.Position, target *population.Population) {
	r.log("on-offspring-ready:%s", target.Name())
}
func (r *recorder) OnInjectReady(org organism.Organism, target *population.Population) {
	r.log("on-inject-ready:%s", target.Name())
}
func (r *recorder) BeforePlacement(org organism.Organism, pos, ppos population.Position) {
	r.log("before-placement:%d", pos.Index())
}
func (r *recorder) OnPlacement(pos population.Position) {
	r.log("on-placement:%d", pos.Index())
}
func (r *recorder) BeforeMutate(organism.Organism) { r.log("before-mutate") }
func (r *recorder) OnMutate(org organism.Organism, count int) {
	r.log("on-mutate:%d", count)
}
func (r *recorder) BeforeDeath(pos population.Position) {
	r.log("before-death:%d", pos.Index())
}
func (r *recorder) BeforeSwap(pos1, pos2 population.Position) {
	r.log("before-swap:%d:%d", pos1.Index(), pos2.Index())
}
func (r *recorder) OnSwap(pos1, pos2 population.Position) {
	r.log("on-swap:%d:%d", pos1.Index(), pos2.Index())
}
func (r *recorder) BeforePopResize(pop *population.Population, newSize int) {
	r.log("before-pop-resize:%d", newSize)
}
func (r *recorder) OnPopResize(pop *population.Population, oldSize int) {
	r.log("on-pop-resize:%d", oldSize)
}
func (r *recorder) BeforeExit() { r.log("before-exit") }
func (r *recorder) OnHelp()     { r.log("on-help") }

// hostRecorder captures script event triggers.
type hostRecorder struct {
	events []string
}

func (h *hostRecorder) Load(io.Reader, string) error { return nil }
func (h *hostRecorder) Execute(string) (any, error)  { return nil, nil }
func (h *hostRecorder) Trigger(event string, update int) {
	h.events = append(h.events, fmt.Sprintf("%s:%d", event, update))
}

func quietController(seed int64) *Controller {
	ctrl := New(seed)
	ctrl.Notifier().SetHandler(func(notify.Level, string) {})
	return ctrl
}

// newTestRun builds a controller with one organism manager, runs Setup,
// and fails the test on any setup problem.
func newTestRun(t *testing.T, extra ...Module) (*Controller, *testManager) {
	t.Helper()

	ctrl := quietController(1)
	mgr := newTestManager(ctrl, "orgs")
	if err := ctrl.AddModule(mgr); err != nil {
		t.Fatalf("add manager: %v", err)
	}
	for _, mod := range extra {
		if err := ctrl.AddModule(mod); err != nil {
			t.Fatalf("add module %s: %v", mod.Name(), err)
		}
	}
	if !ctrl.Setup() {
		t.Fatal("setup failed")
	}
	return ctrl, mgr
}
