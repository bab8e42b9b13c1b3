package storage

import (
	"context"
	"sort"
	"sync"

	"demiurge/internal/model"
)

type snapKey struct {
	runID  string
	update int
	name   string
}

type seriesKey struct {
	runID     string
	traitName string
}

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.Run
	snapshots   map[snapKey]model.PopSnapshot
	series      map[seriesKey][]model.TraitPoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.Run)
	s.snapshots = make(map[snapKey]model.PopSnapshot)
	s.series = make(map[seriesKey][]model.TraitPoint)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snap model.PopSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.Orgs = append([]model.OrgRecord(nil), snap.Orgs...)
	s.snapshots[snapKey{snap.RunID, snap.Update, snap.Name}] = snap
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, runID string, update int, popName string) (model.PopSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[snapKey{runID, update, popName}]
	if !ok {
		return model.PopSnapshot{}, false, nil
	}
	snap.Orgs = append([]model.OrgRecord(nil), snap.Orgs...)
	return snap, true, nil
}

func (s *MemoryStore) ListSnapshots(_ context.Context, runID string) ([]model.PopSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snaps []model.PopSnapshot
	for key, snap := range s.snapshots {
		if key.runID != runID {
			continue
		}
		snap.Orgs = append([]model.OrgRecord(nil), snap.Orgs...)
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].Update != snaps[j].Update {
			return snaps[i].Update < snaps[j].Update
		}
		return snaps[i].Name < snaps[j].Name
	})
	return snaps, nil
}

func (s *MemoryStore) SaveTraitSeries(_ context.Context, runID, traitName string, series []model.TraitPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := append([]model.TraitPoint(nil), series...)
	s.series[seriesKey{runID, traitName}] = copied
	return nil
}

func (s *MemoryStore) GetTraitSeries(_ context.Context, runID, traitName string) ([]model.TraitPoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.series[seriesKey{runID, traitName}]
	if !ok {
		return nil, false, nil
	}
	copied := append([]model.TraitPoint(nil), series...)
	return copied, true, nil
}
