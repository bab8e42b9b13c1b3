// Package archive persists run records and population snapshots through
// the storage layer, so a finished or interrupted run can be inspected
// and its populations restored.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"demiurge/internal/control"
	"demiurge/internal/model"
	"demiurge/internal/params"
	"demiurge/internal/stats"
	"demiurge/internal/storage"
)

// Archive snapshots a population into a Store every update_step updates
// and records a trait statistics series alongside. Each setup mints a
// fresh run ID.
type Archive struct {
	control.Core

	Target     string
	OrgType    string
	DataTrait  string
	UpdateStep int
	Backend    string
	SQLitePath string
	Label      string

	store  storage.Store
	runID  string
	series []model.TraitPoint
}

func New(ctrl *control.Controller, name string, p map[string]any) (*Archive, error) {
	dec := params.NewDecoder(p)
	a := &Archive{
		Core: control.NewCore(ctrl, name, "Persist population snapshots and run records.",
			control.Signals(control.SigOnUpdate, control.SigBeforeExit)),
		Target:     dec.String("target", ""),
		OrgType:    dec.String("org_type", ""),
		DataTrait:  dec.String("data_trait", "fitness"),
		UpdateStep: dec.Int("update_step", 1),
		Backend:    dec.String("store_backend", "memory"),
		SQLitePath: dec.String("sqlite_path", ""),
		Label:      dec.String("label", ""),
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

// SetStore replaces the configured backend with an externally owned
// store, for embedding and tests.
func (a *Archive) SetStore(store storage.Store) { a.store = store }

func (a *Archive) RunID() string        { return a.runID }
func (a *Archive) Store() storage.Store { return a.store }

func (a *Archive) SetupConfig() error {
	if a.UpdateStep < 1 {
		return fmt.Errorf("update_step must be at least 1, got %d", a.UpdateStep)
	}
	return nil
}

func (a *Archive) SetupModule() error {
	if a.Ctrl().GetPopulationByName(a.Target) == nil {
		return fmt.Errorf("archive target %q is not a population", a.Target)
	}
	if a.store == nil {
		store, err := storage.NewStore(a.Backend, a.SQLitePath)
		if err != nil {
			return err
		}
		a.store = store
	}
	ctx := context.Background()
	if err := a.store.Init(ctx); err != nil {
		return fmt.Errorf("init archive store: %w", err)
	}

	a.runID = uuid.NewString()
	run := model.Run{
		VersionedRecord: versioned(),
		ID:              a.runID,
		Label:           a.Label,
		Seed:            a.Ctrl().RandomSeed(),
		StartedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if err := a.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run record: %w", err)
	}
	return nil
}

func (a *Archive) OnUpdate(update int) {
	if update%a.UpdateStep != 0 {
		return
	}
	if err := a.Snapshot(update); err != nil {
		a.Ctrl().Notifier().Warningf("archive %s: %v", a.Name(), err)
	}
}

// Snapshot persists the target population's current state under the
// given update number.
func (a *Archive) Snapshot(update int) error {
	pop := a.Ctrl().GetPopulationByName(a.Target)
	snap := model.PopSnapshot{
		VersionedRecord: versioned(),
		RunID:           a.runID,
		Update:          update,
		Name:            pop.Name(),
		Size:            pop.Size(),
	}
	for pos := range pop.Alive {
		snap.Orgs = append(snap.Orgs, model.OrgRecord{
			Slot:   pos.Index(),
			Type:   a.OrgType,
			Genome: pos.Org().ToString(),
		})
	}
	if err := a.store.SaveSnapshot(context.Background(), snap); err != nil {
		return err
	}

	if a.DataTrait != "" {
		// An empty population has NaN moments, which the stores' JSON
		// codec cannot encode; those samples are not part of the series.
		summary := stats.Summarize(pop, a.DataTrait)
		if summary.Count > 0 {
			a.series = append(a.series, model.TraitPoint{
				Update:  update,
				NumOrgs: summary.Count,
				Min:     summary.Min,
				Max:     summary.Max,
				Mean:    summary.Mean,
				StdDev:  summary.StdDev,
			})
		}
	}
	return nil
}

func (a *Archive) BeforeExit() {
	ctx := context.Background()
	if a.DataTrait != "" && len(a.series) > 0 {
		if err := a.store.SaveTraitSeries(ctx, a.runID, a.DataTrait, a.series); err != nil {
			a.Ctrl().Notifier().Warningf("archive %s: save trait series: %v", a.Name(), err)
		}
	}
	run, ok, err := a.store.GetRun(ctx, a.runID)
	if err != nil || !ok {
		return
	}
	run.Updates = a.Ctrl().Update()
	run.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	if err := a.store.SaveRun(ctx, run); err != nil {
		a.Ctrl().Notifier().Warningf("archive %s: finalize run record: %v", a.Name(), err)
	}
	if err := storage.CloseIfSupported(a.store); err != nil {
		a.Ctrl().Notifier().Warningf("archive %s: close store: %v", a.Name(), err)
	}
}

// Restore rebuilds a population from a stored snapshot: the population
// is emptied, resized to the snapshot's slot count, and each recorded
// genome is injected back into its original slot.
func Restore(ctrl *control.Controller, store storage.Store, runID string, update int, popName string) error {
	snap, ok, err := store.GetSnapshot(context.Background(), runID, update, popName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no snapshot for run %s update %d population %s", runID, update, popName)
	}
	pop := ctrl.GetPopulationByName(popName)
	if pop == nil {
		return fmt.Errorf("restore target %q is not a population", popName)
	}
	ctrl.EmptyPop(pop, snap.Size)
	for _, rec := range snap.Orgs {
		if err := ctrl.InjectGenomeAt(pop, rec.Type, rec.Genome, pop.PositionAt(rec.Slot)); err != nil {
			return fmt.Errorf("restore slot %d: %w", rec.Slot, err)
		}
	}
	return nil
}

func versioned() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}
}

func init() {
	control.MustRegisterType(control.TypeInfo{
		Name: "PopArchive",
		Desc: "Persist population snapshots and run records.",
		Factory: func(ctrl *control.Controller, name string, p map[string]any) (control.Module, error) {
			return New(ctrl, name, p)
		},
		Members: []control.MemberFunc{{
			Name: "SNAPSHOT",
			Desc: "Persist the target population now.",
			Fn: func(ctrl *control.Controller, mod control.Module, _ []any) (any, error) {
				ar, ok := mod.(*Archive)
				if !ok {
					return nil, fmt.Errorf("SNAPSHOT requires a PopArchive module")
				}
				return ar.RunID(), ar.Snapshot(ctrl.Update())
			},
		}},
	})
}
