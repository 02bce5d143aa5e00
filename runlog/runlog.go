// Package runlog records one row per pipeline run in an external
// spreadsheet. It exists purely for observability: every call is
// best-effort and the orchestrator never aborts on a run-log failure.
package runlog

import (
	"context"

	"hiresong/types"
)

// Store is the capability the orchestrator needs from the run log. All
// implementations must be safe for concurrent runs; rows are keyed by run ID.
type Store interface {
	// InitializeHeader makes sure the header row exists. Called once at startup.
	InitializeHeader(ctx context.Context) error
	// RecordStart appends the initial row for a run.
	RecordStart(ctx context.Context, run *types.Run) error
	// RecordSummaries fills in the two summaries and the output directory.
	RecordSummaries(ctx context.Context, runID, cvSummary, companySummary, outputDir string) error
	// RecordSong fills in the song metadata and the six scene lyrics.
	RecordSong(ctx context.Context, runID string, song *types.SongStructure) error
	// RecordCompletion marks the run completed with its final artifacts.
	RecordCompletion(ctx context.Context, runID, finalVideoPath string, imageURLs, videoURLs []string) error
	// RecordFailure marks the run failed, keeping whatever URLs were produced.
	RecordFailure(ctx context.Context, runID, errMsg string, imageURLs, videoURLs []string) error
}

// Noop is a Store that records nothing. Used in tests and when no
// spreadsheet credentials are configured.
type Noop struct{}

func (Noop) InitializeHeader(context.Context) error { return nil }
func (Noop) RecordStart(context.Context, *types.Run) error {
	return nil
}
func (Noop) RecordSummaries(context.Context, string, string, string, string) error {
	return nil
}
func (Noop) RecordSong(context.Context, string, *types.SongStructure) error {
	return nil
}
func (Noop) RecordCompletion(context.Context, string, string, []string, []string) error {
	return nil
}
func (Noop) RecordFailure(context.Context, string, string, []string, []string) error {
	return nil
}
