// Package store persists enrichment run history: one record per run plus
// the output files it produced.
package store

import (
	"context"
	"time"
)

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusComplete  RunStatus = "complete"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// RunStats are the aggregate counters recorded when a run finishes.
type RunStats struct {
	SectionsEnriched int `json:"sectionsEnriched"`
	SectionsSkipped  int `json:"sectionsSkipped"`
	RowsProcessed    int `json:"rowsProcessed"`
	RowsSkipped      int `json:"rowsSkipped"`
	FilesWritten     int `json:"filesWritten"`
	FilesIncomplete  int `json:"filesIncomplete"`
}

// Run is one recorded enrichment run.
type Run struct {
	ID        string
	Input     string
	Status    RunStatus
	Stats     *RunStats
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WrittenFile is one output file a run produced.
type WrittenFile struct {
	RunID      string
	Section    string
	Role       string
	Path       string
	Incomplete bool
	WrittenAt  time.Time
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Status       RunStatus
	CreatedAfter time.Time
	Limit        int
}

// Store records run history.
type Store interface {
	Migrate(ctx context.Context) error

	CreateRun(ctx context.Context, input string) (*Run, error)
	FinishRun(ctx context.Context, runID string, status RunStatus, stats *RunStats, runErr string) error
	AddWrittenFile(ctx context.Context, f WrittenFile) error

	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	ListFiles(ctx context.Context, runID string) ([]WrittenFile, error)

	Close() error
}
