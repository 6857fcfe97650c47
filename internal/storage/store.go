package storage

import "context"

// Store defines persistence operations for run archives.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, bool, error)
	SaveSnapshot(ctx context.Context, snapshot SnapshotRecord) error
	GetSnapshot(ctx context.Context, id string) (SnapshotRecord, bool, error)
	SaveSummaries(ctx context.Context, runID string, rows []SummaryRow) error
	GetSummaries(ctx context.Context, runID string) ([]SummaryRow, bool, error)
}
