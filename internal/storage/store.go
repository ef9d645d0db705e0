package storage

import (
	"context"
	"sort"

	"etbd/internal/model"
)

// Store defines persistence operations for completed simulation runs and
// their event logs.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.Run) error
	GetRun(ctx context.Context, id string) (model.Run, bool, error)
	ListRuns(ctx context.Context) ([]model.Run, error)
	DeleteRun(ctx context.Context, id string) error
	SaveEvents(ctx context.Context, runID string, events model.EventLog) error
	GetEvents(ctx context.Context, runID string) (model.EventLog, bool, error)
}

func sortRunsNewestFirst(runs []model.Run) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC == runs[j].CreatedAtUTC {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
	})
}
