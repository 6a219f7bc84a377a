package storage

import (
	"context"

	"speciator/internal/model"
)

// Store defines persistence operations for run archives: the run
// record itself, the per-generation species history, and generation
// diagnostics.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveSpeciesHistory(ctx context.Context, runID string, history []model.SpeciesGeneration) error
	GetSpeciesHistory(ctx context.Context, runID string) ([]model.SpeciesGeneration, bool, error)
	SaveDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
}
