package storage

import (
	"context"

	"demiurge/internal/model"
)

// Store defines transaction-like persistence operations for run records,
// population snapshots, and trait statistics series.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.Run) error
	GetRun(ctx context.Context, id string) (model.Run, bool, error)
	ListRuns(ctx context.Context) ([]model.Run, error)
	SaveSnapshot(ctx context.Context, snap model.PopSnapshot) error
	GetSnapshot(ctx context.Context, runID string, update int, popName string) (model.PopSnapshot, bool, error)
	ListSnapshots(ctx context.Context, runID string) ([]model.PopSnapshot, error)
	SaveTraitSeries(ctx context.Context, runID, traitName string, series []model.TraitPoint) error
	GetTraitSeries(ctx context.Context, runID, traitName string) ([]model.TraitPoint, bool, error)
}
